package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func wsDial(t *testing.T, tsURL, rawQuery string) (*websocket.Conn, map[string]any) {
	t.Helper()
	u, _ := url.Parse(tsURL)
	u.Scheme = "ws"
	u.Path = "/ws/live"
	u.RawQuery = rawQuery

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	// Read init message
	msg := readFrame(t, conn)
	if msg["type"] != "init" {
		t.Fatalf("expected init message, got %v", msg["type"])
	}
	return conn, msg
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatal(err)
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}

	var msg map[string]any
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal frame: %v", err)
	}
	return msg
}

func sendFrame(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	if err := conn.WriteJSON(v); err != nil {
		t.Fatalf("write frame: %v", err)
	}
}

func TestLiveSearchQueryFlow(t *testing.T) {
	_, ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, fareBody("f1", "f2"))
	}, false)

	conn, initMsg := wsDial(t, ts.URL, "provider=flights")
	if initMsg["provider"] != "flights" {
		t.Errorf("unexpected init provider: %v", initMsg["provider"])
	}
	if initMsg["session"] == "" {
		t.Error("init frame should carry a session id")
	}

	sendFrame(t, conn, map[string]any{
		"type":        "query",
		"origin":      "kuala lumpur",
		"destination": "da nang",
		"start_date":  "2024-06-15",
	})
	sendFrame(t, conn, map[string]any{"type": "flush"})

	msg := readFrame(t, conn)
	if msg["type"] != "results" {
		t.Fatalf("expected results frame, got %v", msg)
	}
	if msg["count"].(float64) != 2 {
		t.Errorf("expected 2 items, got %v", msg["count"])
	}
	if msg["token"].(float64) < 1 {
		t.Errorf("results frame missing dispatch token: %v", msg)
	}

	// Refinement re-emits without a refetch.
	sendFrame(t, conn, map[string]any{"type": "sort", "sort": "price_desc"})
	msg = readFrame(t, conn)
	if msg["type"] != "results" {
		t.Fatalf("expected results frame after sort, got %v", msg)
	}
	items := msg["items"].([]any)
	first := items[0].(map[string]any)
	if first["id"] != "f2" {
		t.Errorf("expected price_desc order, got %v", first["id"])
	}
}

func TestLiveSearchBadFrames(t *testing.T) {
	_, ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, fareBody("f1"))
	}, false)

	conn, _ := wsDial(t, ts.URL, "provider=flights")

	// Unresolvable location comes back as an error frame.
	sendFrame(t, conn, map[string]any{
		"type":        "query",
		"origin":      "nowhere special",
		"destination": "da nang",
		"start_date":  "2024-06-15",
	})
	msg := readFrame(t, conn)
	if msg["type"] != "error" {
		t.Fatalf("expected error frame, got %v", msg)
	}
	if msg["status"].(float64) != http.StatusBadRequest {
		t.Errorf("unexpected error status: %v", msg["status"])
	}

	// Unknown frame types are rejected without killing the socket.
	sendFrame(t, conn, map[string]any{"type": "teleport"})
	msg = readFrame(t, conn)
	if msg["type"] != "error" {
		t.Fatalf("expected error frame for unknown type, got %v", msg)
	}

	// Socket still works afterwards.
	sendFrame(t, conn, map[string]any{
		"type": "query", "origin": "KUL", "destination": "DAD", "start_date": "2024-06-15",
	})
	sendFrame(t, conn, map[string]any{"type": "flush"})
	msg = readFrame(t, conn)
	if msg["type"] != "results" {
		t.Fatalf("expected results frame, got %v", msg)
	}
}

func TestLiveSearchUnknownProviderRejected(t *testing.T) {
	_, ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {}, false)

	u, _ := url.Parse(ts.URL)
	u.Scheme = "ws"
	u.Path = "/ws/live"
	u.RawQuery = "provider=trains"

	_, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err == nil {
		t.Fatal("expected dial to fail for unknown provider")
	}
	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 handshake response, got %+v", resp)
	}
	if resp != nil {
		_ = resp.Body.Close()
	}
}
