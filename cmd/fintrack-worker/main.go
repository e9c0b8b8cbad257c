package main

import (
	"context"
	"errors"
	"os"
	"time"

	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	applog "fintrack/internal/log"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig("")
	if err != nil {
		applog.New(applog.DefaultConfig()).Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg, os.Stdout).WithComponent(applog.ComponentWorker)

	if err := run(cfg, logger); err != nil {
		logger.Error("Worker stopped", applog.FieldError, err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *applog.Logger) error {
	if cfg.AMQPURL == "" {
		return errors.New("AMQP_URL is required for the activity worker")
	}
	logger.Info("Starting fintrack-worker", "backend", cfg.DataBackend, "queue", cfg.AMQPQueue)

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	ctx, done := cli.GracefulShutdown(context.Background(), logger, 30*time.Second, nil)

	res, err := backend.Open(ctx, bcfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", applog.FieldError, err)
		}
	}()
	if res.Events == nil {
		return errors.New("AMQP broker unreachable")
	}

	w := worker.NewActivityWorker(res.Store, worker.DefaultActivityLimit, logger)
	if err := w.Run(ctx, res.Events); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	<-done
	logger.Info("Worker shutdown complete")
	return nil
}
