package routes

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ventspace/config"
	"ventspace/handlers"
	"ventspace/logger"
	"ventspace/middleware"
	"ventspace/store"
	"ventspace/topics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T, origins string) *gin.Engine {
	t.Helper()
	log := logger.Discard()
	svc := topics.NewService(store.NewMemory(), log, time.Now)
	return SetupRouter(Deps{
		CORS:   config.CORSConfig{AllowedOrigins: origins},
		Logger: log,
		Topics: handlers.NewTopics(svc, nil, log),
		Health: &handlers.Health{Driver: "memory"},
		WS: func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		},
	})
}

func TestRouter_Routes(t *testing.T) {
	r := newTestRouter(t, "http://localhost:3000")

	tests := []struct {
		method, path, body string
		want               int
	}{
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodGet, "/api/health", "", http.StatusOK},
		{http.MethodGet, "/api/topics", "", http.StatusOK},
		{http.MethodPost, "/api/topics", `{"content":"hi","userId":"u"}`, http.StatusCreated},
		{http.MethodGet, "/ws", "", http.StatusTeapot},
		{http.MethodGet, "/api/unknown", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
		})
	}
}

func TestRouter_APINotFoundIsJSON(t *testing.T) {
	r := newTestRouter(t, "*")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nowhere", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Endpoint not found","path":"/api/nowhere"}`, rec.Body.String())
}

func TestRouter_CORS(t *testing.T) {
	r := newTestRouter(t, "http://localhost:3000")

	req := httptest.NewRequest(http.MethodOptions, "/api/topics", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/topics", nil)
	req.Header.Set("Origin", "http://evil.test")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
