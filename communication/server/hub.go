package server

import (
	"encoding/json"
	"sync"
	"time"

	"game2048/communication"
	"game2048/engine"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	sendBuffer     = 32
	idlePingPeriod = 30 * time.Second
)

// Hub fans engine updates out to websocket spectators. Slow clients drop
// frames instead of blocking the game.
type Hub struct {
	mu      sync.Mutex
	clients map[*Client]struct{}
	last    []byte // Latest update frame, replayed to new clients
}

type Client struct {
	hub  *Hub
	send chan []byte
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
	}
}

var _ engine.Observer = (*Hub)(nil)

// Publish implements engine.Observer.
func (h *Hub) Publish(u engine.Update) {
	data, err := frame("update", u)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode update")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = data
	for client := range h.clients {
		client.trySend(data)
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	if h.last != nil {
		c.trySend(h.last)
	}
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (c *Client) trySend(data []byte) {
	select {
	case c.send <- data:
	default:
	}
}

func frame(kind string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(communication.Message{Type: kind, Payload: raw})
}

// writePump forwards frames to conn and pings idle connections.
func writePump(conn *websocket.Conn, send <-chan []byte) error {
	ticker := time.NewTicker(idlePingPeriod)
	defer ticker.Stop()
	lastWrite := time.Now()
	ping, err := frame("ping", nil)
	if err != nil {
		return err
	}

	for {
		select {
		case msg, ok := <-send:
			if !ok {
				return conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return err
			}
			lastWrite = time.Now()
		case <-ticker.C:
			if time.Since(lastWrite) < idlePingPeriod {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, ping); err != nil {
				return err
			}
			lastWrite = time.Now()
		}
	}
}
