package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"kitabu/internal/amqp"
	"kitabu/internal/backend"
	"kitabu/internal/cli"
	apphttp "kitabu/internal/http"
	"kitabu/internal/log"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(cli.BootstrapLogger(log.ComponentApp), "")
	logger := cli.SetupLogger(cfg, log.ComponentApp, nil)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	storage, store, err := cli.OpenLedger(startCtx, cfg, logger)
	cancelStart()
	if err != nil {
		logger.Error("Failed to open ledger", log.FieldError, err, "backend", cfg.StorageBackend)
		os.Exit(1)
	}
	defer storage.Close()

	srvCfg := apphttp.Config{
		Addr:               ":" + cfg.Port,
		Store:              store,
		Logger:             logger,
		Currency:           cfg.Currency,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Health:             storage.Ping,
	}

	// Queue sheet exports when a broker is configured, otherwise run them inline.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		srvCfg.Publisher = amqpClient
		logger.Info("Export jobs will be queued", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else if cfg.SheetsEnabled() {
		writer, err := backend.SheetsWriter(context.Background(), cfg, logger)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		exporter, err := backend.InlineExporter(cfg, store, writer, logger)
		if err != nil {
			logger.Error("Failed to build exporter", log.FieldError, err)
			os.Exit(1)
		}
		srvCfg.Exporter = exporter
		logger.Info("Sheet exports will run inline", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Sheet export disabled - no AMQP_URL or GOOGLE_SPREADSHEET_ID provided")
	}

	srv := apphttp.NewServer(srvCfg)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	logger.Info("Starting kitabu server", "port", cfg.Port, "backend", storage.Name)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
