package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	apphttp "fintrack/internal/http"
	applog "fintrack/internal/log"
)

const shutdownTimeout = 30 * time.Second

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with the rate and summary refreshers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(parent context.Context, opts *rootOptions) error {
	cfg, logger := opts.cfg, opts.logger

	app, err := OpenApp(parent, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("Backend cleanup failed", applog.FieldError, err)
		}
	}()

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Store:              app.Backend.Store,
		Transactions:       app.Transactions,
		Goals:              app.Goals,
		Dashboard:          app.Dashboard,
		Rates:              app.Rates,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		MetricsEnabled:     cfg.MetricsEnabled,
	})

	ctx, done := GracefulShutdown(parent, logger, shutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting fintrack server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"events", app.Backend.Events != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server on port %s: %w", cfg.Port, err)
		}
		return nil
	})
	g.Go(func() error {
		return app.Rates.Run(gctx, cfg.RatesRefreshInterval)
	})
	g.Go(func() error {
		return app.Dashboard.Run(gctx, cfg.SummaryRefreshInterval)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	<-done
	logger.Info("Server stopped gracefully")
	return nil
}
