// Package ws pushes wizard state changes to subscribed dashboard
// connections. Every mutating wizard action results in one state event per
// subscriber of that session.
package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	sendBufferSize = 16
)

// Event is the wire frame sent to subscribers.
type Event struct {
	Type    string `json:"type"`
	Session string `json:"session_id"`
	Payload any    `json:"payload,omitempty"`
}

const (
	EventState  = "state"
	EventClosed = "closed"
)

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub tracks subscribers per wizard session.
type Hub struct {
	mu       sync.Mutex
	subs     map[string]map[*subscriber]struct{}
	upgrader websocket.Upgrader
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[string]map[*subscriber]struct{}),
		upgrader: websocket.Upgrader{
			// The gateway sits behind the dashboard's own origin checks.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Serve upgrades the request and streams events for sessionID until the
// client goes away. initial is sent immediately so new subscribers need no
// separate state fetch.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, sessionID string, initial any) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws: upgrade session %s: %v", sessionID, err)
		return
	}
	sub := &subscriber{conn: conn, send: make(chan []byte, sendBufferSize)}

	h.mu.Lock()
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[*subscriber]struct{})
	}
	h.subs[sessionID][sub] = struct{}{}
	h.mu.Unlock()

	if data, err := json.Marshal(Event{Type: EventState, Session: sessionID, Payload: initial}); err == nil {
		sub.send <- data
	}

	go sub.writeLoop()
	sub.readLoop()

	h.mu.Lock()
	delete(h.subs[sessionID], sub)
	if len(h.subs[sessionID]) == 0 {
		delete(h.subs, sessionID)
	}
	h.mu.Unlock()
	close(sub.send)
}

// Broadcast fans an event out to every subscriber of the session. Slow
// subscribers are dropped rather than allowed to stall the rest.
func (h *Hub) Broadcast(sessionID, eventType string, payload any) {
	data, err := json.Marshal(Event{Type: eventType, Session: sessionID, Payload: payload})
	if err != nil {
		log.Printf("ws: marshal event for %s: %v", sessionID, err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[sessionID] {
		select {
		case sub.send <- data:
		default:
			_ = sub.conn.Close()
		}
	}
}

// readLoop discards client frames; the socket is push-only. It returns when
// the peer closes.
func (s *subscriber) readLoop() {
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *subscriber) writeLoop() {
	for data := range s.send {
		_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			_ = s.conn.Close()
			return
		}
	}
	_ = s.conn.WriteControl(websocket.CloseMessage, nil, time.Now().Add(writeWait))
	_ = s.conn.Close()
}
