package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"ventspace/broadcast"
	"ventspace/config"
)

// Envelope is the frame format in both directions.
type Envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Message is an inbound frame with its payload left undecoded.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Manager owns the set of connected clients. A single goroutine (Run) adds,
// removes and fans out to them; slow clients whose send buffer is full are
// dropped.
type Manager struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex

	cfg    config.WebSocketConfig
	logger *slog.Logger
}

func NewManager(cfg config.WebSocketConfig, logger *slog.Logger) *Manager {
	return &Manager{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		cfg:        cfg,
		logger:     logger.With(slog.String("component", "websocket")),
	}
}

// Run processes registrations and broadcasts until ctx is cancelled, then
// disconnects every client.
func (m *Manager) Run(ctx context.Context) {
	defer close(m.done)

	for {
		select {
		case <-ctx.Done():
			m.mu.Lock()
			for client := range m.clients {
				m.removeLocked(client)
			}
			m.mu.Unlock()
			m.logger.Info("websocket manager stopped")
			return

		case client := <-m.register:
			m.mu.Lock()
			m.clients[client] = true
			total := len(m.clients)
			m.mu.Unlock()
			m.logger.Debug("client registered", slog.String("client_id", client.id), slog.Int("clients", total))

		case client := <-m.unregister:
			m.mu.Lock()
			m.removeLocked(client)
			total := len(m.clients)
			m.mu.Unlock()
			m.logger.Debug("client unregistered", slog.String("client_id", client.id), slog.Int("clients", total))

		case message := <-m.broadcast:
			m.mu.Lock()
			for client := range m.clients {
				select {
				case client.send <- message:
				default:
					m.logger.Warn("dropping slow client", slog.String("client_id", client.id))
					m.removeLocked(client)
				}
			}
			m.mu.Unlock()
		}
	}
}

// removeLocked closes the client's send queue, which makes its writePump
// close the connection. m.mu must be held.
func (m *Manager) removeLocked(c *Client) {
	if _, ok := m.clients[c]; ok {
		delete(m.clients, c)
		close(c.send)
	}
}

// Deliver routes d according to its scope. origin may be nil for
// deliveries that do not come from a socket, in which case Requester
// deliveries are dropped.
func (m *Manager) Deliver(d broadcast.Delivery, origin *Client) {
	switch d.Scope {
	case broadcast.Everyone:
		m.Broadcast(d.Event, d.Payload)
	case broadcast.Requester:
		if origin != nil {
			m.sendTo(origin, d.Event, d.Payload)
		}
	}
}

// Broadcast sends one event to every connected client.
func (m *Manager) Broadcast(event string, payload any) {
	msg, err := encode(event, payload)
	if err != nil {
		m.logger.Error("encode broadcast", slog.String("event", event), slog.String("error", err.Error()))
		return
	}

	select {
	case m.broadcast <- msg:
	case <-m.done:
	}
}

func (m *Manager) sendTo(c *Client, event string, payload any) {
	msg, err := encode(event, payload)
	if err != nil {
		m.logger.Error("encode reply", slog.String("event", event), slog.String("error", err.Error()))
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.clients[c]; !ok {
		return
	}
	select {
	case c.send <- msg:
	default:
		m.logger.Warn("dropping slow client", slog.String("client_id", c.id))
		m.removeLocked(c)
	}
}

func (m *Manager) ConnectedClients() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

func encode(event string, payload any) ([]byte, error) {
	return json.Marshal(Envelope{Type: event, Payload: payload})
}
