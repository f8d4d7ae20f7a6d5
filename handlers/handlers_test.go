package handlers

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"ventspace/logger"
	"ventspace/models"
	"ventspace/store"
	"ventspace/topics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testNow = time.Date(2025, 3, 14, 9, 26, 53, 589_000_000, time.UTC)

func newService(t *testing.T) *topics.Service {
	t.Helper()
	return topics.NewService(store.NewMemory(), logger.Discard(), func() time.Time { return testNow })
}

func seed(t *testing.T, svc *topics.Service, owner string) *models.Topic {
	t.Helper()
	topic, err := svc.Create(context.Background(), topics.CreateInput{Content: "hello", Mood: "happy", Mode: "advice", UserID: owner})
	require.NoError(t, err)
	return topic
}

func raw(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

type published struct {
	Event   string
	Payload any
}

type recordingHub struct {
	mu     sync.Mutex
	events []published
}

func (r *recordingHub) Broadcast(event string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, published{Event: event, Payload: payload})
}

func (r *recordingHub) all() []published {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]published(nil), r.events...)
}
