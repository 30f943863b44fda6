package main

import (
	"context"
	"errors"
	"os"
	"time"

	"kitabu/internal/amqp"
	"kitabu/internal/backend"
	"kitabu/internal/cli"
	"kitabu/internal/log"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(cli.BootstrapLogger(log.ComponentWorker), "")
	logger := cli.SetupLogger(cfg, log.ComponentWorker, nil)

	logger.Info("Starting kitabu-worker")
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the export worker")
		os.Exit(1)
	}

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	storage, err := backend.NewFactory(logger).CreateStorage(startCtx, cfg)
	if err != nil {
		cancelStart()
		logger.Error("Failed to initialize storage", log.FieldError, err, "backend", cfg.StorageBackend)
		os.Exit(1)
	}
	defer storage.Close()

	writer, err := backend.SheetsWriter(startCtx, cfg, logger)
	cancelStart()
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}
	if writer == nil {
		logger.Info("Google Sheets disabled - exports will only write local files", "export_dir", cfg.ExportDir)
	}

	exportWorker, err := backend.ExportWorker(cfg, storage.Storage, writer, logger)
	if err != nil {
		logger.Error("Failed to build export worker", log.FieldError, err)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	logger.Info("Consuming export requests", "queue", cfg.AMQPQueue, "backend", storage.Name)
	if err := amqpClient.Consume(ctx, exportWorker.HandleExportRequest); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
