// Package backend builds the storage and event plumbing selected by
// configuration.
package backend

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/config"
	applog "fintrack/internal/log"
	"fintrack/internal/storage"
	"fintrack/internal/storage/memory"
)

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
)

// IsValid checks if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}

func (bt BackendType) String() string {
	return string(bt)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	DataDirectory string // memory seed files
	SQLiteDBPath  string
	DatabaseURL   string

	// Optional event bus; empty URL disables publishing.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(app *config.Config) (Config, error) {
	if app == nil {
		return Config{}, errors.New("app config is nil")
	}
	c := Config{
		Type:          BackendType(app.DataBackend),
		DataDirectory: app.DataDir,
		SQLiteDBPath:  app.SQLiteDBPath,
		DatabaseURL:   app.DatabaseURL,
		AMQPURL:       app.AMQPURL,
		AMQPExchange:  app.AMQPExchange,
		AMQPQueue:     app.AMQPQueue,
	}
	return c, c.Validate()
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	switch c.Type {
	case MemoryBackend:
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return errors.New("SQLite database path is required for sqlite backend")
		}
	case PostgresBackend:
		if c.DatabaseURL == "" {
			return errors.New("database URL is required for postgres backend")
		}
	default:
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	return nil
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result holds what the factory opened. Events is nil when AMQP is off
// or unreachable.
type Result struct {
	Store   *storage.Accessor
	Events  *amqp.Client
	Cleanup CleanupFunc
}

// Open connects the configured store and, when a URL is set, the event
// bus. An unreachable broker is logged and skipped; an unreachable store
// is an error.
func Open(ctx context.Context, cfg Config, logger *applog.Logger) (*Result, error) {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentBackend)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("Initialized storage backend", "type", cfg.Type)

	res := &Result{Store: storage.NewAccessor(store, logger)}

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events", applog.FieldError, err)
		} else {
			logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
			res.Events = client
		}
	}

	res.Cleanup = func() error {
		var errs []error
		if err := res.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
		if res.Events != nil {
			if err := res.Events.Close(); err != nil {
				errs = append(errs, fmt.Errorf("amqp: %w", err))
			}
		}
		return errors.Join(errs...)
	}
	return res, nil
}

func openStore(ctx context.Context, cfg Config) (storage.Store, error) {
	switch cfg.Type {
	case SQLiteBackend:
		s, err := storage.NewSQLiteStore(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		return s, nil
	case PostgresBackend:
		s, err := storage.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres store: %w", err)
		}
		return s, nil
	default:
		dir := cfg.DataDirectory
		if dir == "" {
			dir = "data"
		}
		return memory.NewFromFiles(dir), nil
	}
}
