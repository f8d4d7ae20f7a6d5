package websocket

import (
	"context"
	"log/slog"
	"net/http"
	"slices"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"ventspace/broadcast"
	"ventspace/config"
)

// Handler turns inbound events into delivery plans.
type Handler interface {
	// Connected builds the greeting for a new connection.
	Connected(ctx context.Context) broadcast.Delivery
	Handle(ctx context.Context, msg Message) broadcast.Delivery
}

// NewUpgrader accepts requests without an Origin header (non-browser
// clients) and those whose origin is in cors.
func NewUpgrader(cors config.CORSConfig) *websocket.Upgrader {
	origins := cors.Origins()
	allowAll := cors.AllowAll()
	return &websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowAll || slices.Contains(origins, origin)
		},
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
}

// ServeWS upgrades the request, sends the handler's greeting and starts the
// client's pumps.
func ServeWS(manager *Manager, handler Handler, upgrader *websocket.Upgrader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			manager.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
			return
		}

		id := uuid.NewString()
		client := &Client{
			id:      id,
			conn:    conn,
			send:    make(chan []byte, manager.cfg.SendBuffer),
			manager: manager,
			handler: handler,
			logger:  manager.logger.With(slog.String("client_id", id)),
		}

		// The request context ends when this function returns.
		ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))

		// Queued before registration so the greeting precedes any broadcast.
		greeting := handler.Connected(ctx)
		if greeting.Scope == broadcast.Requester {
			if msg, err := encode(greeting.Event, greeting.Payload); err == nil {
				client.send <- msg
			}
		}

		select {
		case manager.register <- client:
		case <-manager.done:
			cancel()
			conn.Close()
			return
		}

		go client.writePump()
		go func() {
			defer cancel()
			client.readPump(ctx)
		}()
	}
}
