package config

import (
	"fmt"
	"strings"
)

// Validate checks cross-field rules. Load calls it automatically.
func (c *Config) Validate() error {
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))

	switch c.Store.Driver {
	case DriverMongo:
		if strings.TrimSpace(c.Mongo.URI) == "" {
			return fmt.Errorf("mongo.uri is required for the mongo store")
		}
		if c.Mongo.Database == "" || c.Mongo.Collection == "" {
			return fmt.Errorf("mongo.database and mongo.collection are required")
		}
		if c.Mongo.ConnectRetries < 1 {
			return fmt.Errorf("mongo.connect_retries must be >= 1 (got %d)", c.Mongo.ConnectRetries)
		}
	case DriverPostgres:
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			return fmt.Errorf("postgres.dsn is required for the postgres store")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("store.driver must be one of mongo, postgres, memory (got %q)", c.Store.Driver)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range (got %d)", c.Server.Port)
	}
	if c.Feed.RecentLimit <= 0 {
		return fmt.Errorf("feed.recent_limit must be > 0 (got %d)", c.Feed.RecentLimit)
	}
	if c.WebSocket.PingPeriod >= c.WebSocket.PongWait {
		return fmt.Errorf("websocket.ping_period (%s) must be shorter than websocket.pong_wait (%s)",
			c.WebSocket.PingPeriod, c.WebSocket.PongWait)
	}
	if c.WebSocket.ReadLimit < MinReadLimit {
		return fmt.Errorf("websocket.read_limit must be >= %d (got %d)", MinReadLimit, c.WebSocket.ReadLimit)
	}
	if c.WebSocket.SendBuffer <= 0 {
		return fmt.Errorf("websocket.send_buffer must be > 0 (got %d)", c.WebSocket.SendBuffer)
	}
	if len(c.CORS.Origins()) == 0 {
		return fmt.Errorf("cors.allowed_origins must not be empty")
	}

	return nil
}

// Addr returns the host:port the HTTP server listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
