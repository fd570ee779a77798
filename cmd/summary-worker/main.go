package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"backoffice/internal/amqp"
	"backoffice/internal/backend"
	"backoffice/internal/cli"
	"backoffice/internal/config"
	"backoffice/internal/log"
	"backoffice/internal/observability"
	"backoffice/internal/recordclient"
	"backoffice/internal/services"
	"backoffice/internal/worker"

	"golang.org/x/sync/errgroup"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig(log.ComponentWorker, (*config.Config).ValidateWorker)

	logger.Info("Starting summary-worker", "api", cfg.APIBaseURL, "export_backend", cfg.ExportBackend)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	exp, err := backend.NewFactory(logger).Create(ctx, backend.ConfigFromAppConfig(cfg))
	if err != nil {
		logger.Error("Failed to initialize exporter", log.FieldError, err)
		os.Exit(1)
	}
	if exp.Cleanup != nil {
		defer exp.Cleanup()
	}

	// Startup check: the export target answers before any message is taken.
	if rows, err := exp.Exporter.ListSummaries(ctx); err != nil {
		logger.Warn("Failed to list exported summaries", log.FieldError, err)
	} else {
		logger.Info("Export target reachable", "backend", exp.Type, log.FieldCount, len(rows))
	}

	records := recordclient.New(cfg.APIBaseURL, cfg.APIToken)
	metrics := observability.NewMetrics()
	exporter := worker.NewExportWorker(records, exp.Exporter, metrics)
	processor := services.NewSyncProcessor(records, exporter, services.SyncProcessorConfig{
		PollInterval: cfg.SyncInterval,
		BatchSize:    cfg.SyncBatchSize,
	})

	g, gctx := errgroup.WithContext(ctx)

	// The poller exports everything still pending on startup, then keeps
	// catching up on messages the consumer missed.
	g.Go(func() error {
		return processor.Run(gctx)
	})

	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		g.Go(func() error {
			err := amqpClient.ConsumeDocumentChanged(gctx, exporter.Handle)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		logger.Info("AMQP disabled - relying on the pending poller", "interval", cfg.SyncInterval)
	}

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Summary worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Summary worker stopped gracefully")
}
