package debounce

import (
	"sync"
	"testing"
	"time"

	"github.com/tripsift/tripsift/pkg/core"
)

type recorder struct {
	mu      sync.Mutex
	queries []core.SearchQuery
}

func (r *recorder) record(q core.SearchQuery) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, q)
}

func (r *recorder) all() []core.SearchQuery {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]core.SearchQuery, len(r.queries))
	copy(out, r.queries)
	return out
}

func queryFor(code string) core.SearchQuery {
	return core.SearchQuery{
		Domain:      core.DomainFlight,
		Origin:      core.CanonicalLocation{Code: "KUL"},
		Destination: core.CanonicalLocation{Code: code},
	}
}

func TestRapidSubmitsDispatchOnlyLast(t *testing.T) {
	rec := &recorder{}
	d := NewDispatcher(30*time.Millisecond, rec.record)
	defer d.Close()

	d.Submit(queryFor("SIN"))
	d.Submit(queryFor("DAD"))
	d.Submit(queryFor("HAN"))

	waitFor(t, func() bool { return len(rec.all()) == 1 })
	time.Sleep(60 * time.Millisecond) // no second dispatch may follow

	got := rec.all()
	if len(got) != 1 {
		t.Fatalf("expected exactly 1 dispatch, got %d", len(got))
	}
	if got[0].Destination.Code != "HAN" {
		t.Errorf("dispatched %s, want the last submitted query HAN", got[0].Destination.Code)
	}
}

func TestSubmitResetsQuietInterval(t *testing.T) {
	rec := &recorder{}
	d := NewDispatcher(50*time.Millisecond, rec.record)
	defer d.Close()

	d.Submit(queryFor("SIN"))
	time.Sleep(30 * time.Millisecond)
	d.Submit(queryFor("DAD"))
	time.Sleep(30 * time.Millisecond)

	// 60ms have passed since the first submit but only 30ms since the
	// last; nothing may have fired yet.
	if got := rec.all(); len(got) != 0 {
		t.Fatalf("dispatch fired before quiet interval elapsed: %v", got)
	}

	waitFor(t, func() bool { return len(rec.all()) == 1 })
	if got := rec.all(); got[0].Destination.Code != "DAD" {
		t.Errorf("dispatched %s, want DAD", got[0].Destination.Code)
	}
}

func TestFlushDispatchesImmediately(t *testing.T) {
	rec := &recorder{}
	d := NewDispatcher(time.Hour, rec.record)
	defer d.Close()

	d.Submit(queryFor("SIN"))
	d.Flush()

	got := rec.all()
	if len(got) != 1 {
		t.Fatalf("expected 1 dispatch after flush, got %d", len(got))
	}
	if d.Pending() {
		t.Error("query still pending after flush")
	}

	// A second flush with nothing pending is a no-op.
	d.Flush()
	if len(rec.all()) != 1 {
		t.Error("flush without pending query dispatched again")
	}
}

func TestCancelDropsPendingWork(t *testing.T) {
	rec := &recorder{}
	d := NewDispatcher(20*time.Millisecond, rec.record)
	defer d.Close()

	d.Submit(queryFor("SIN"))
	d.Cancel()

	time.Sleep(50 * time.Millisecond)
	if len(rec.all()) != 0 {
		t.Error("cancelled query was dispatched")
	}
}

func TestCloseRejectsFurtherSubmits(t *testing.T) {
	rec := &recorder{}
	d := NewDispatcher(10*time.Millisecond, rec.record)

	d.Submit(queryFor("SIN"))
	d.Close()
	d.Submit(queryFor("DAD"))
	d.Flush()

	time.Sleep(40 * time.Millisecond)
	if len(rec.all()) != 0 {
		t.Error("dispatcher dispatched after Close")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached within deadline")
}
