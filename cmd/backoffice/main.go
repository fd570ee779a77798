package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"backoffice/internal/amqp"
	"backoffice/internal/cache"
	"backoffice/internal/cli"
	apphttp "backoffice/internal/http"
	"backoffice/internal/log"
	"backoffice/internal/observability"
	"backoffice/internal/services"

	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig(log.ComponentApp, nil)

	repo, err := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize record store", log.FieldError, err)
		os.Exit(1)
	}
	defer repo.Close()

	// A nil Publisher disables change notifications; the summary worker
	// still catches up through the pending sync endpoint.
	var publisher services.Publisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without notifications", log.FieldError, err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
			logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	docs := services.NewDocumentService(repo, publisher, cfg.ReportingCurrency)
	auth := services.NewAuthService(repo, cfg.ServiceToken, cfg.SessionTTL)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	if err := auth.BootstrapAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		logger.Error("Failed to bootstrap administrator", log.FieldError, err)
		os.Exit(1)
	}

	caches := cache.NewManager()
	caches.Register(auth.SessionCache())

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Documents:          docs,
		Auth:               auth,
		Sync:               repo,
		Ready:              repo.Ping,
		Metrics:            observability.NewMetrics(),
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Development:        cfg.IsDevelopment(),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting backoffice server",
			"port", cfg.Port,
			"environment", cfg.Environment,
			"reporting_currency", cfg.ReportingCurrency)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return caches.Run(gctx, time.Minute)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down", log.FieldOperation, log.OpShutdown)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
