// Package cli holds the fintrack commands and the start-up steps they
// share: .env loading, configuration, logging, backends and shutdown.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fintrack/internal/backend"
	"fintrack/internal/config"
	applog "fintrack/internal/log"
	"fintrack/internal/rates"
	"fintrack/internal/services"
)

// ConfigEnv names the variable holding the default config file path.
const ConfigEnv = "FINTRACK_CONFIG"

// SetupLogger builds the application logger from the configured level and
// format and makes it the slog default.
func SetupLogger(cfg *config.Config, out io.Writer) *applog.Logger {
	logger := applog.New(applog.Config{
		Level:  applog.ParseLevel(cfg.LogLevel),
		Format: cfg.LogFormat,
		Output: out,
	})
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig reads path (or FINTRACK_CONFIG when path is empty),
// applies environment overrides and validates the result.
func LoadAndValidateConfig(path string) (*config.Config, error) {
	if path == "" {
		path = os.Getenv(ConfigEnv)
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// App is everything a command needs once the backend is open.
type App struct {
	Config       *config.Config
	Logger       *applog.Logger
	Backend      *backend.Result
	Transactions *services.TransactionService
	Goals        *services.GoalService
	Dashboard    *services.DashboardService
	Rates        *rates.Board
}

// OpenApp opens the configured backend and wires the services on top of it.
// Dashboard refreshes follow every ledger mutation.
func OpenApp(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*App, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.Open(ctx, bcfg, logger)
	if err != nil {
		return nil, fmt.Errorf("opening %s backend: %w", bcfg.Type, err)
	}

	var events services.EventPublisher
	if res.Events != nil {
		events = res.Events
	}
	txs := services.NewTransactionService(res.Store, events, logger)
	dash := services.NewDashboardService(res.Store, logger)
	txs.OnChange(dash.Refresh)

	return &App{
		Config:       cfg,
		Logger:       logger,
		Backend:      res,
		Transactions: txs,
		Goals:        services.NewGoalService(txs, logger),
		Dashboard:    dash,
		Rates:        NewRateBoard(cfg, logger),
	}, nil
}

// Close releases the backend.
func (a *App) Close() error {
	if a.Backend == nil || a.Backend.Cleanup == nil {
		return nil
	}
	return a.Backend.Cleanup()
}

// NewRateBoard builds a board fetching from the configured provider.
func NewRateBoard(cfg *config.Config, logger *applog.Logger) *rates.Board {
	client := rates.NewClient(rates.ClientConfig{
		URL:      cfg.RatesURL,
		JSONPath: cfg.RatesJSONPath,
	}, logger)
	return rates.NewBoard(client, cfg.RatesBase, logger)
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. On
// the signal, cleanup runs with a context bounded by timeout; done closes
// once it returns.
func GracefulShutdown(parent context.Context, logger *applog.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	go func() {
		defer close(done)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		cancel()

		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
			return
		}
		logger.Info("Shutdown complete")
	}()

	return ctx, done
}
