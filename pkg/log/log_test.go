package log

import (
	"bytes"
	"strings"
	"testing"
)

func newTestLogger(t *testing.T, name string) (*Logger, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	SetOutput(buf)
	return ForService(name), buf
}

func TestInfoCarriesServicePrefix(t *testing.T) {
	SetGlobalDebug(false)

	l, buf := newTestLogger(t, "fetch")
	l.Infof("fallback hotels-fallback-1 served query after primary exhaustion")
	out := buf.String()

	if !strings.Contains(out, "[fetch>]") {
		t.Fatalf("expected prefix [fetch>] in output, got: %q", out)
	}
	if !strings.Contains(out, "served query after primary exhaustion") {
		t.Fatalf("expected message in output, got: %q", out)
	}
}

func TestDebugPerService(t *testing.T) {
	SetGlobalDebug(false)

	DisableDebugFor("pipeline") // ensure clean state
	l, buf := newTestLogger(t, "pipeline")

	l.Debugf("dropping stale results for token 3")
	if strings.Contains(buf.String(), "token 3") {
		t.Fatalf("debug message appeared while debug disabled (per service & global)")
	}

	EnableDebugFor("pipeline")
	l.Debugf("dropping stale results for token 4")
	if !strings.Contains(buf.String(), "token 4") {
		t.Fatalf("expected debug message after enabling per-service debug; got: %q", buf.String())
	}

	// Enabling one service must not open the gate for others.
	other, otherBuf := newTestLogger(t, "providers.cars")
	other.Debugf("pickup alias miss")
	if strings.Contains(otherBuf.String(), "pickup alias miss") {
		t.Fatalf("debug leaked to a service it was not enabled for: %q", otherBuf.String())
	}
}

func TestDebugGlobal(t *testing.T) {
	SetGlobalDebug(false)

	DisableDebugFor("history")
	l, buf := newTestLogger(t, "history")

	l.Debugf("trimmed 1 entry over cap")
	if strings.Contains(buf.String(), "over cap") {
		t.Fatalf("debug message appeared while global debug disabled")
	}

	SetGlobalDebug(true)
	defer SetGlobalDebug(false) // cleanup for other tests

	l.Debugf("recorded SIN 2024-07-01")
	if !strings.Contains(buf.String(), "recorded SIN 2024-07-01") {
		t.Fatalf("expected debug message after enabling global debug; got: %q", buf.String())
	}
}

func TestWarnIncludesPrefix(t *testing.T) {
	SetGlobalDebug(false)

	l, buf := newTestLogger(t, "providers.flights")
	l.Warnf("primary flights failed permanently: malformed upstream payload")
	out := buf.String()

	// Warn emits a one-time "warnings active" line first; we only ensure prefix & message appear
	if !strings.Contains(out, "[providers.flights>]") {
		t.Fatalf("expected prefix [providers.flights>] in warn output, got: %q", out)
	}
	if !strings.Contains(out, "malformed upstream payload") {
		t.Fatalf("expected warn message in output, got: %q", out)
	}
}
