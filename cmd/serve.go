package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/angeloszaimis/cognitive-core/config"
	"github.com/angeloszaimis/cognitive-core/internal/handler"
	"github.com/angeloszaimis/cognitive-core/internal/healthcheck"
	"github.com/angeloszaimis/cognitive-core/internal/httpserver"
	"github.com/angeloszaimis/cognitive-core/internal/metrics"
	"github.com/angeloszaimis/cognitive-core/pkg/logger"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP processing service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFlag)
			if err != nil {
				return err
			}
			log := logger.New(cfg.Logging.Level, cfg.Logging.AddSource, cfg.Server.Environment)
			return runServe(cmd.Context(), cfg, log)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := metrics.NewCollector(metrics.DefaultBufferSize, log)

	app, err := buildApp(cfg, log, collector)
	if err != nil {
		return err
	}
	defer app.Close()

	collector.Start(ctx)
	defer collector.Stop()

	monitor := healthcheck.NewMonitor(app.registry, cfg.Health.Interval, cfg.Health.RetryDelay, log)
	monitor.Start()
	defer monitor.Stop()

	h := handler.New(log, app.engine, app.registry, app.store, collector, handler.Limits{
		MaxTextLength: cfg.Processing.MaxTextLength,
		MaxAudioBytes: cfg.Processing.MaxAudioBytes,
	}, version)

	srv, err := httpserver.New(cfg.Server.Address, setupRoutes(h, collector), httpserver.Options{
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	srvErrCh := make(chan error, 1)
	go func() {
		srvErrCh <- srv.Start()
	}()

	log.Info("service started",
		slog.String("address", cfg.Server.Address),
		slog.Any("domains", app.registry.ListDomains(true)))

	select {
	case <-ctx.Done():
		log.Info("shutting down gracefully")
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error("error during shutdown", slog.Any("err", err))
		}
	case err := <-srvErrCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	return nil
}
