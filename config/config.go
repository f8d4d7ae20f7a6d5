package config

import (
	"strings"
	"time"
)

// Store drivers.
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Mongo     MongoConfig     `yaml:"mongo"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Feed      FeedConfig      `yaml:"feed"`
	CORS      CORSConfig      `yaml:"cors"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"HOST"                    env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"PORT"                    env-default:"3001"`
	Mode            string        `yaml:"mode"             env:"GIN_MODE"                env-default:"release"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// StoreConfig selects the topic store backend.
type StoreConfig struct {
	Driver    string        `yaml:"driver"     env:"STORE_DRIVER"     env-default:"mongo"`
	OpTimeout time.Duration `yaml:"op_timeout" env:"STORE_OP_TIMEOUT" env-default:"10s"`
}

// MongoConfig holds MongoDB connection settings.
type MongoConfig struct {
	URI            string        `yaml:"uri"             env:"MONGO_URI"             env-default:"mongodb://localhost:27017"`
	Database       string        `yaml:"database"        env:"MONGO_DATABASE"        env-default:"ventspace_db"`
	Collection     string        `yaml:"collection"      env:"MONGO_COLLECTION"      env-default:"topics"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" env:"MONGO_CONNECT_TIMEOUT" env-default:"15s"`
	ConnectRetries int           `yaml:"connect_retries" env:"MONGO_CONNECT_RETRIES" env-default:"3"`
	RetryDelay     time.Duration `yaml:"retry_delay"     env:"MONGO_RETRY_DELAY"     env-default:"2s"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"2"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
	Migrate         bool          `yaml:"migrate"            env:"DATABASE_MIGRATE"            env-default:"true"`
}

// MinReadLimit is the smallest accepted websocket frame limit. A create_topic
// frame with 500 characters of \uXXXX-escaped surrogate pairs needs about 6.2 KB.
const MinReadLimit = 8 << 10

// WebSocketConfig holds per-connection limits and keepalive timings.
type WebSocketConfig struct {
	ReadLimit  int64         `yaml:"read_limit"  env:"WS_READ_LIMIT"  env-default:"16384"`
	PongWait   time.Duration `yaml:"pong_wait"   env:"WS_PONG_WAIT"   env-default:"60s"`
	PingPeriod time.Duration `yaml:"ping_period" env:"WS_PING_PERIOD" env-default:"30s"`
	WriteWait  time.Duration `yaml:"write_wait"  env:"WS_WRITE_WAIT"  env-default:"10s"`
	SendBuffer int           `yaml:"send_buffer" env:"WS_SEND_BUFFER" env-default:"256"`
}

// FeedConfig controls the initial feed sent to new connections.
type FeedConfig struct {
	RecentLimit int `yaml:"recent_limit" env:"FEED_RECENT_LIMIT" env-default:"20"`
}

// CORSConfig holds the origins allowed for HTTP and WebSocket clients.
type CORSConfig struct {
	AllowedOrigins string `yaml:"allowed_origins" env:"CLIENT_ORIGIN" env-default:"http://localhost:3000"`
}

// Origins splits AllowedOrigins on commas. "*" allows every origin.
func (c CORSConfig) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// AllowAll reports whether the wildcard origin is configured.
func (c CORSConfig) AllowAll() bool {
	for _, o := range c.Origins() {
		if o == "*" {
			return true
		}
	}
	return false
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}
