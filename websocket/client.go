package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"ventspace/broadcast"
)

const (
	EventPing = "ping"
	EventPong = "pong"
)

// Client is one socket connection. Only writePump writes to conn.
type Client struct {
	id      string
	conn    *websocket.Conn
	send    chan []byte
	manager *Manager
	handler Handler
	logger  *slog.Logger
}

// readPump decodes inbound frames and hands each one to the handler. It
// returns when the connection fails or closes.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		select {
		case c.manager.unregister <- c:
		case <-c.manager.done:
		}
		c.conn.Close()
	}()

	cfg := c.manager.cfg
	c.conn.SetReadLimit(cfg.ReadLimit)
	c.conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("websocket read error", slog.String("error", err.Error()))
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Debug("malformed frame", slog.String("error", err.Error()))
			c.manager.Deliver(broadcast.Failure(err, "Invalid message"), c)
			continue
		}

		if msg.Type == EventPing {
			c.manager.Deliver(broadcast.Reply(EventPong, map[string]int64{"time": time.Now().Unix()}), c)
			continue
		}

		c.manager.Deliver(c.handler.Handle(ctx, msg), c)
	}
}

// writePump drains the send queue and keeps the connection alive with pings.
func (c *Client) writePump() {
	cfg := c.manager.cfg
	ticker := time.NewTicker(cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
