package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/sundayezeilo/wxcounter/internal/config"
	"github.com/sundayezeilo/wxcounter/internal/counter"
	"github.com/sundayezeilo/wxcounter/internal/events"
	"github.com/sundayezeilo/wxcounter/internal/server"
	"github.com/sundayezeilo/wxcounter/internal/store"
	"github.com/sundayezeilo/wxcounter/internal/web"
)

// App holds the application dependencies and configuration.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Store     store.Store
	Publisher events.Publisher
	Server    *server.Server
	Handler   *counter.Handler
}

// New initializes and returns a new App instance with all dependencies wired up.
// The record store schema is in place before New returns.
func New(ctx context.Context) (*App, error) {
	if err := loadEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := setupLogger(cfg.App.LogLevel)

	logger.Info("starting application",
		"env", cfg.App.Environment,
		"store_driver", cfg.Store.Driver,
	)

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	publisher, err := setupPublisher(ctx, cfg, logger)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	svc := counter.NewService(st, &counter.ServiceConfig{
		Publisher: publisher,
		Logger:    logger,
	})
	handler := counter.NewHandler(counter.HandlerConfig{
		Service:         svc,
		Logger:          logger,
		IndexPage:       web.IndexPage(),
		RejectUntrusted: cfg.Wx.RejectUntrusted,
	})

	srv := server.New(cfg, logger, handler)

	logger.Info("application initialized",
		"port", cfg.Server.Port,
		"events_enabled", cfg.Events.Enabled,
		"reject_untrusted", cfg.Wx.RejectUntrusted,
	)

	return &App{
		Config:    cfg,
		Logger:    logger,
		Store:     st,
		Publisher: publisher,
		Server:    srv,
		Handler:   handler,
	}, nil
}

// Start starts the application server.
func (a *App) Start(ctx context.Context) error {
	if err := a.Server.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown releases the store and the event publisher.
func (a *App) Shutdown() error {
	a.Logger.Info("shutting down application")

	if a.Publisher != nil {
		if err := a.Publisher.Close(); err != nil {
			a.Logger.Warn("failed to close event publisher", "error", err.Error())
		}
	}

	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			return fmt.Errorf("failed to close record store: %w", err)
		}
		a.Logger.Info("record store closed")
	}

	return nil
}

// loadEnv loads .env file only in non-production environments.
func loadEnv() error {
	env := os.Getenv("APP_ENV")
	if env == "development" || env == "test" {
		if err := godotenv.Load(); err != nil {
			log.Println("no .env file found.")
		}
	}
	return nil
}

// setupLogger creates a structured logger based on the log level.
func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}

// openStore connects to the configured backend and ensures its schema.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	logger.Info("connecting to record store", "driver", cfg.Store.Driver)

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Driver, err)
	}

	if err := st.EnsureSchema(ctx); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	logger.Info("record store ready", "driver", cfg.Store.Driver)
	return st, nil
}

// setupPublisher dials RabbitMQ when counter events are enabled.
func setupPublisher(ctx context.Context, cfg *config.Config, logger *slog.Logger) (events.Publisher, error) {
	if !cfg.Events.Enabled {
		return events.Nop{}, nil
	}

	pub, err := events.DialAMQP(ctx, cfg.Events.URL, cfg.Events.Queue, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to event broker: %w", err)
	}

	logger.Info("event publisher ready", "queue", cfg.Events.Queue)
	return pub, nil
}
