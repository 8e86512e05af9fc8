package feed

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeTimeout       = 2 * time.Second
	defaultHistorySize = 50
)

// Hub fans catalog events out to TCP and WebSocket subscribers and keeps the
// most recent events for late joiners.
type Hub struct {
	mu          sync.Mutex
	clients     map[net.Conn]struct{}
	wsClients   map[*websocket.Conn]struct{}
	history     []Event
	historySize int
}

type Stats struct {
	TCPClients int `json:"tcp_clients"`
	WSClients  int `json:"ws_clients"`
}

func NewHub(historySize int) *Hub {
	if historySize <= 0 {
		historySize = defaultHistorySize
	}
	return &Hub{
		clients:     make(map[net.Conn]struct{}),
		wsClients:   make(map[*websocket.Conn]struct{}),
		historySize: historySize,
	}
}

// Add registers a TCP subscriber and sends it the welcome line.
func (h *Hub) Add(conn net.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[conn] = struct{}{}
	msg := fmt.Sprintf("{\"type\":\"welcome\",\"transport\":\"tcp\",\"clients\":%d}\n", len(h.clients)+len(h.wsClients))
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if _, err := conn.Write([]byte(msg)); err != nil {
		delete(h.clients, conn)
		_ = conn.Close()
	}
}

func (h *Hub) Remove(conn net.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	_ = conn.Close()
}

// AddWS registers a WebSocket subscriber, sends the welcome message and
// replays the recent history. Both are written under the hub lock so they
// never interleave with a broadcast.
func (h *Hub) AddWS(ws *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.wsClients[ws] = struct{}{}
	welcome := fmt.Sprintf("{\"type\":\"welcome\",\"transport\":\"websocket\",\"history\":%d}\n", len(h.history))
	msgs := [][]byte{[]byte(welcome)}
	for _, e := range h.history {
		b, err := json.Marshal(e)
		if err != nil {
			continue
		}
		msgs = append(msgs, append(b, '\n'))
	}

	for _, msg := range msgs {
		_ = ws.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := ws.WriteMessage(websocket.TextMessage, msg); err != nil {
			delete(h.wsClients, ws)
			_ = ws.Close()
			return
		}
	}
}

func (h *Hub) RemoveWS(ws *websocket.Conn) {
	h.mu.Lock()
	delete(h.wsClients, ws)
	h.mu.Unlock()
	_ = ws.Close()
}

// Publish records e in the history and broadcasts it.
func (h *Hub) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	h.mu.Lock()
	h.history = append(h.history, e)
	if len(h.history) > h.historySize {
		h.history = h.history[len(h.history)-h.historySize:]
	}
	h.mu.Unlock()

	h.BroadcastJSON(e)
}

// Recent returns up to the last historySize published events, oldest first.
func (h *Hub) Recent() []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Event{}, h.history...)
}

func (h *Hub) BroadcastJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("feed: marshal event")
		return
	}
	b = append(b, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		_ = c.SetWriteDeadline(time.Now().Add(writeTimeout))
		w := bufio.NewWriter(c)
		if _, err := w.Write(b); err != nil {
			h.dropTCPLocked(c, err)
			continue
		}
		if err := w.Flush(); err != nil {
			h.dropTCPLocked(c, err)
		}
	}

	for ws := range h.wsClients {
		_ = ws.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := ws.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Debug().Err(err).Msg("feed: dropping websocket subscriber")
			_ = ws.Close()
			delete(h.wsClients, ws)
		}
	}
}

func (h *Hub) dropTCPLocked(c net.Conn, err error) {
	log.Debug().Err(err).Str("remote", c.RemoteAddr().String()).Msg("feed: dropping tcp subscriber")
	_ = c.Close()
	delete(h.clients, c)
}

func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{
		TCPClients: len(h.clients),
		WSClients:  len(h.wsClients),
	}
}

// Name, Send and Close let a Forwarder drive the hub, so subscriber writes
// happen off the request path.
func (h *Hub) Name() string { return "hub" }

func (h *Hub) Send(_ context.Context, e Event) error {
	h.Publish(e)
	return nil
}

// Close disconnects every subscriber.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		_ = c.Close()
		delete(h.clients, c)
	}
	for ws := range h.wsClients {
		_ = ws.Close()
		delete(h.wsClients, ws)
	}
	return nil
}
