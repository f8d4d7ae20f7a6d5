package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Health reports liveness and a small status document.
type Health struct {
	Driver  string
	Clients func() int
	// Ping checks the store backend. Nil means always healthy.
	Ping func(ctx context.Context) error
	Now  func() time.Time
}

func (h *Health) Live(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

func (h *Health) Status(c *gin.Context) {
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	clients := 0
	if h.Clients != nil {
		clients = h.Clients()
	}

	code, state := http.StatusOK, "ok"
	body := gin.H{
		"store":   h.Driver,
		"clients": clients,
		"time":    now().Unix(),
		"ws":      "WebSocket available at /ws",
	}
	if h.Ping != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.Ping(ctx); err != nil {
			code, state = http.StatusServiceUnavailable, "degraded"
			body["error"] = err.Error()
		}
	}
	body["status"] = state
	c.JSON(code, body)
}
