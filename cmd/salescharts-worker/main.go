package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/google/uuid"

	"salescharts/internal/amqp"
	"salescharts/internal/cli"
	"salescharts/internal/log"
	"salescharts/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentWorker)
	defer logger.Close()

	logger.Info("Starting salescharts-worker", log.FieldOperation, log.OpStartup)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	importer := worker.NewImportWorker(repo)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	// Seed an empty database from the configured source so the dashboard
	// has data before the first job arrives.
	if n, err := repo.CountSales(ctx); err != nil {
		logger.Error("Failed to count stored sales", log.FieldError, err)
	} else if n == 0 && cfg.Source() != "" {
		logger.Info("Database empty, importing configured source", log.FieldSource, cfg.Source())
		if _, err := importer.Import(ctx, uuid.NewString(), cfg.Source(), cfg.SourceSheet()); err != nil {
			// Not fatal: a later job can still succeed.
			logger.Error("Startup import failed", log.FieldError, err, log.FieldSource, cfg.Source())
		}
	}

	err = amqpClient.ConsumeImports(ctx, importer.HandleImport)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}

	<-done
	logger.Info("Worker stopped")
}
