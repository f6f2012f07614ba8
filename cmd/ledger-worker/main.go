package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"bookkeeper/internal/cache"
	"bookkeeper/internal/cli"
	applog "bookkeeper/internal/log"
	"bookkeeper/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentWorker)

	logger.Info("Starting ledger-worker", applog.FieldOperation, applog.OpStartup)

	amqpClient := cli.InitAMQP(logger, cfg)
	if amqpClient == nil {
		logger.Error("ledger-worker needs AMQP_URL")
		os.Exit(1)
	}

	repo := cli.InitSQLite(logger, cfg)
	caches := cache.NewManager()
	// The worker only reads, so its service publishes nothing.
	svc := cli.NewLedgerService(logger, cfg, repo, nil, caches)
	summaries := worker.NewSummaryWorker(svc, logger.WithComponent(applog.ComponentWorker))

	ctx, stop := cli.GracefulShutdown()
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeBillsChanged(ctx, summaries.HandleBillsChanged)
	})
	g.Go(func() error {
		return caches.Run(ctx, cfg.CacheCleanupInterval)
	})

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped", applog.FieldError, err)
	} else {
		logger.Info("Shutdown signal received", applog.FieldOperation, applog.OpShutdown)
	}

	cli.CloseWithTimeout(logger, 10*time.Second, func() error {
		return errors.Join(amqpClient.Close(), svc.Close())
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		os.Exit(1)
	}
}
