package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/moutazmahmoud/clinic-pwa/internal/config"
	"github.com/moutazmahmoud/clinic-pwa/internal/domain/appointment"
	"github.com/moutazmahmoud/clinic-pwa/internal/platform/db"
	"github.com/moutazmahmoud/clinic-pwa/internal/platform/logging"
	"github.com/moutazmahmoud/clinic-pwa/internal/platform/notify"
)

func runWorker() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, closer := logging.New(logging.OptionsFromConfig(cfg), nil)
	defer closer.Close()

	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.RedisURL == "" {
		return errors.New("REDIS_URL is required for the worker")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.PoolConfig{MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns})
	if err != nil {
		return err
	}
	defer pool.Close()

	srv, err := notify.NewServer(notify.WorkerConfig{
		RedisURL:        cfg.RedisURL,
		Concurrency:     cfg.WorkerConcurrency,
		ShutdownTimeout: shutdownTimeout,
	}, logger)
	if err != nil {
		return err
	}

	handlers := notify.NewHandlers(appointment.NewRepoPG(pool), notify.LogNotifier{Logger: logger}, logger)
	if err := srv.Start(handlers.Mux()); err != nil {
		return err
	}
	logger.Info().Int("concurrency", cfg.WorkerConcurrency).Msg("worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down worker")
	srv.Shutdown()
	return nil
}
