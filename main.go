package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"ventspace/config"
	"ventspace/database"
	"ventspace/handlers"
	"ventspace/logger"
	"ventspace/routes"
	"ventspace/store"
	"ventspace/topics"
	"ventspace/websocket"
)

func main() {
	if err := run(); err != nil {
		slog.Error("ventspace stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Log)
	log.Info("starting ventspace", slog.String("store", cfg.Store.Driver), slog.String("addr", cfg.Server.Addr()))

	if cfg.Server.Mode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer backend.close()

	if err := backend.store.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}

	svc := topics.NewService(backend.store, log, time.Now)

	manager := websocket.NewManager(cfg.WebSocket, log)
	go manager.Run(ctx)

	socket := handlers.NewSocket(svc, cfg.Feed.RecentLimit, log)
	router := routes.SetupRouter(routes.Deps{
		CORS:   cfg.CORS,
		Logger: log,
		Topics: handlers.NewTopics(svc, manager, log),
		Health: &handlers.Health{
			Driver:  cfg.Store.Driver,
			Clients: manager.ConnectedClients,
			Ping:    backend.ping,
		},
		WS: websocket.ServeWS(manager, socket, websocket.NewUpgrader(cfg.CORS)),
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", slog.String("error", err.Error()))
	}
	log.Info("server stopped gracefully")
	return nil
}

// backend is the opened topic store with its health check and cleanup.
type backend struct {
	store store.TopicStore
	ping  func(context.Context) error
	close func()
}

func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (*backend, error) {
	switch cfg.Store.Driver {
	case config.DriverMongo:
		client, err := database.ConnectMongo(ctx, cfg.Mongo, log)
		if err != nil {
			return nil, err
		}
		return &backend{
			store: store.NewMongo(database.Topics(client, cfg.Mongo), cfg.Store.OpTimeout),
			ping:  func(ctx context.Context) error { return client.Ping(ctx, nil) },
			close: func() {
				if err := database.DisconnectMongo(client, log); err != nil {
					log.Error("disconnect mongodb", slog.String("error", err.Error()))
				}
			},
		}, nil

	case config.DriverPostgres:
		if cfg.Postgres.Migrate {
			if err := database.Migrate(ctx, cfg.Postgres.DSN, log); err != nil {
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
		pool, err := database.NewPool(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		log.Info("connected to postgres")
		return &backend{
			store: store.NewPostgres(pool, cfg.Store.OpTimeout),
			ping:  pool.Ping,
			close: pool.Close,
		}, nil

	default:
		log.Warn("using in-memory store; topics are lost on restart")
		return &backend{store: store.NewMemory(), close: func() {}}, nil
	}
}
