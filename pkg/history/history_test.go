package history

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tripsift/tripsift/pkg/core"
)

func newTestStore(t *testing.T, capacity int) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := NewStore(path, capacity)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Logf("closing store: %v", err)
		}
	})
	return store, path
}

func texts(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Text
	}
	return out
}

func TestRecordCapAndDeduplication(t *testing.T) {
	store, _ := newTestStore(t, 5)

	for _, q := range []string{"Paris", "Tokyo", "Paris", "Rome", "Berlin", "Madrid"} {
		if err := store.Record(core.DomainFlight, q); err != nil {
			t.Fatalf("Record(%q) failed: %v", q, err)
		}
	}

	entries, err := store.List(core.DomainFlight)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	want := []string{"Madrid", "Berlin", "Rome", "Paris", "Tokyo"}
	got := texts(entries)
	if len(got) != len(want) {
		t.Fatalf("got %d entries %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %q, want %q (full list: %v)", i, got[i], want[i], got)
		}
	}
}

func TestRecordIgnoresEmptyAndTrims(t *testing.T) {
	store, _ := newTestStore(t, 5)

	if err := store.Record(core.DomainHotel, "   "); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := store.Record(core.DomainHotel, "  Singapore  "); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	entries, err := store.List(core.DomainHotel)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Text != "Singapore" {
		t.Errorf("entries = %v, want just trimmed Singapore", texts(entries))
	}
}

func TestDomainsAreIsolated(t *testing.T) {
	store, _ := newTestStore(t, 5)

	if err := store.Record(core.DomainFlight, "KUL → DAD"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := store.Record(core.DomainCar, "SIN pickup"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	flights, err := store.List(core.DomainFlight)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(flights) != 1 || flights[0].Text != "KUL → DAD" {
		t.Errorf("flight history = %v", texts(flights))
	}

	cars, err := store.List(core.DomainCar)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(cars) != 1 || cars[0].Text != "SIN pickup" {
		t.Errorf("car history = %v", texts(cars))
	}
}

func TestHistorySurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	store, err := NewStore(path, 5)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if err := store.Record(core.DomainFlight, "Tokyo"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewStore(path, 5)
	if err != nil {
		t.Fatalf("reopening store failed: %v", err)
	}
	defer func() {
		if err := reopened.Close(); err != nil {
			t.Logf("closing store: %v", err)
		}
	}()

	entries, err := reopened.List(core.DomainFlight)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Text != "Tokyo" {
		t.Errorf("entries after reopen = %v, want [Tokyo]", texts(entries))
	}
}

func TestCorruptDatabaseStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	if err := os.WriteFile(path, []byte("this is not a sqlite file at all"), 0644); err != nil {
		t.Fatalf("writing corrupt file: %v", err)
	}

	store, err := NewStore(path, 5)
	if err != nil {
		t.Fatalf("NewStore on corrupt file failed: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			t.Logf("closing store: %v", err)
		}
	}()

	entries, err := store.List(core.DomainFlight)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty history after corruption, got %v", texts(entries))
	}

	// The recreated store must be writable again.
	if err := store.Record(core.DomainFlight, "Rome"); err != nil {
		t.Errorf("Record on recreated store failed: %v", err)
	}
}

func TestClear(t *testing.T) {
	store, _ := newTestStore(t, 5)

	if err := store.Record(core.DomainFlight, "Paris"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := store.Clear(core.DomainFlight); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	entries, err := store.List(core.DomainFlight)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("history not cleared: %v", texts(entries))
	}
}
