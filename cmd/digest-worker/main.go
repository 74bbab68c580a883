package main

import (
	"context"
	"errors"
	"os"
	"time"

	"spendwise/internal/amqp"
	"spendwise/internal/backend"
	"spendwise/internal/cli"
	applog "spendwise/internal/log"
	"spendwise/internal/worker"

	"golang.org/x/sync/errgroup"
)

const statsInterval = 10 * time.Minute

func main() {
	cfg, logger := cli.Bootstrap(applog.ComponentWorker)
	logger.Info("Starting digest-worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for digest-worker")
		os.Exit(1)
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	exportCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid export configuration", applog.FieldError, err)
		os.Exit(1)
	}
	exporter, err := backend.NewFactory(logger.WithComponent(applog.ComponentExport).Logger).
		CreateExporter(context.Background(), exportCfg)
	if err != nil {
		logger.Error("Failed to initialize exporter", applog.FieldError, err, "backend", exportCfg.Type)
		os.Exit(1)
	}
	if exporter.Cleanup != nil {
		defer func() {
			if err := exporter.Cleanup(); err != nil {
				logger.Warn("Exporter cleanup failed", applog.FieldError, err)
			}
		}()
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	digestWorker := worker.NewDigestWorker(repo, exporter.Exporter)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.Consume(gctx, digestWorker.HandleEvent)
	})
	g.Go(func() error {
		ticker := time.NewTicker(statsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				exported, skipped := digestWorker.Stats()
				logger.Info("Digest worker stats", "exported", exported, "skipped", skipped)
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", applog.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	exported, skipped := digestWorker.Stats()
	logger.Info("Digest-worker shutdown complete", "exported", exported, "skipped", skipped)
}
