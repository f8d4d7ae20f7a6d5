package routes

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"ventspace/config"
	"ventspace/handlers"
	"ventspace/middleware"
)

// Deps are the collaborators the router mounts.
type Deps struct {
	CORS   config.CORSConfig
	Logger *slog.Logger
	Topics *handlers.Topics
	Health *handlers.Health
	// WS serves the websocket upgrade on /ws.
	WS http.HandlerFunc
}

func SetupRouter(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(middleware.Recovery(d.Logger), middleware.RequestID(), middleware.Logger(d.Logger))
	router.Use(cors.New(corsConfig(d.CORS)))

	router.GET("/health", d.Health.Live)
	router.GET("/ws", gin.WrapF(d.WS))

	api := router.Group("/api")
	api.GET("/health", d.Health.Status)
	d.Topics.Register(api)

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Endpoint not found",
				"path":  c.Request.URL.Path,
			})
			return
		}
		c.Next()
	})

	return router
}

func corsConfig(c config.CORSConfig) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-Requested-With", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", "Content-Type", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if c.AllowAll() {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = c.Origins()
		cfg.AllowCredentials = true
	}
	return cfg
}
