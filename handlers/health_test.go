package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func healthRouter(h *Health) *gin.Engine {
	r := gin.New()
	r.GET("/health", h.Live)
	r.GET("/api/health", h.Status)
	return r
}

func TestHealth_Live(t *testing.T) {
	rec := do(healthRouter(&Health{}), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestHealth_Status(t *testing.T) {
	h := &Health{
		Driver:  "memory",
		Clients: func() int { return 3 },
		Now:     func() time.Time { return time.Unix(1700000000, 0) },
	}
	rec := do(healthRouter(h), http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","store":"memory","clients":3,"time":1700000000,"ws":"WebSocket available at /ws"}`, rec.Body.String())
}

func TestHealth_StatusDegraded(t *testing.T) {
	h := &Health{
		Driver: "mongo",
		Ping:   func(context.Context) error { return errors.New("server selection timeout") },
	}
	rec := do(healthRouter(h), http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"degraded"`)
	assert.Contains(t, rec.Body.String(), "server selection timeout")
}
