// Package cli holds the start-up steps shared by cmd/kitabu,
// cmd/kitabu-worker and cmd/kitabuctl.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"kitabu/internal/backend"
	"kitabu/internal/config"
	"kitabu/internal/ledger"
	"kitabu/internal/log"
)

// LoadEnvFile loads .env for local development. A missing file is fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// BootstrapLogger is used until the config is known.
func BootstrapLogger(component string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Component = component
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// SetupLogger builds the logger described by cfg and makes it the default.
// A nil out means stdout.
func SetupLogger(cfg *config.Config, component string, out io.Writer) *log.Logger {
	if out == nil {
		out = os.Stdout
	}
	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: component,
		Output:    out,
	})
	log.SetDefault(logger)
	return logger
}

// LoadConfig reads path (or KITABU_CONFIG when empty) plus the environment
// and validates the result.
func LoadConfig(path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadAndValidateConfig is LoadConfig for long-running binaries: it exits the
// process on failure.
func LoadAndValidateConfig(logger *log.Logger, path string) *config.Config {
	cfg, err := LoadConfig(path)
	if err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// OpenLedger creates the configured storage backend and loads the ledger
// from it. The caller closes the returned backend.
func OpenLedger(ctx context.Context, cfg *config.Config, logger *log.Logger, extra ...ledger.Option) (*backend.Result, *ledger.Store, error) {
	res, err := backend.NewFactory(logger).CreateStorage(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	opts, err := backend.LedgerOptions(cfg, logger)
	if err != nil {
		res.Close()
		return nil, nil, err
	}
	store, err := ledger.Open(ctx, res.Storage, append(opts, extra...)...)
	if err != nil {
		res.Close()
		return nil, nil, fmt.Errorf("failed to load ledger from %s storage: %w", res.Name, err)
	}
	return res, store, nil
}

// GracefulShutdown cancels the returned context on SIGINT or SIGTERM, runs
// cleanup bounded by timeout and then closes done.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup has run.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
