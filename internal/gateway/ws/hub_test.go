package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return ev
}

func TestServeSendsInitialStateThenBroadcasts(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, "s1", map[string]string{"step": "upload"})
	}))
	defer srv.Close()

	conn := dial(t, srv, "/watch")

	ev := readEvent(t, conn)
	if ev.Type != EventState || ev.Session != "s1" {
		t.Fatalf("initial event = %+v", ev)
	}

	hub.Broadcast("s1", EventState, map[string]string{"step": "repos"})
	ev = readEvent(t, conn)
	if ev.Type != EventState {
		t.Fatalf("broadcast event = %+v", ev)
	}
	payload, _ := ev.Payload.(map[string]any)
	if payload["step"] != "repos" {
		t.Fatalf("payload = %v", ev.Payload)
	}
}

func TestBroadcastIsScopedToSession(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, r.URL.Query().Get("id"), nil)
	}))
	defer srv.Close()

	a := dial(t, srv, "/watch?id=a")
	b := dial(t, srv, "/watch?id=b")
	readEvent(t, a)
	readEvent(t, b)

	hub.Broadcast("a", EventClosed, nil)

	ev := readEvent(t, a)
	if ev.Type != EventClosed {
		t.Fatalf("event on a = %+v", ev)
	}

	b.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, _, err := b.ReadMessage(); err == nil {
		t.Fatalf("subscriber b should not receive session a events")
	}
}

func TestBroadcastToEmptySessionIsNoop(t *testing.T) {
	hub := NewHub()
	hub.Broadcast("ghost", EventState, nil)
}
