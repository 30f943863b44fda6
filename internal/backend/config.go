package backend

import (
	"context"
	"fmt"

	"kitabu/internal/config"
	"kitabu/internal/kv"
	"kitabu/internal/ledger"
	"kitabu/internal/log"
	"kitabu/internal/sheets"
	gsheets "kitabu/internal/sheets/google"
	"kitabu/internal/worker"
)

// LedgerOptions translates config into ledger options.
func LedgerOptions(cfg *config.Config, logger *log.Logger) ([]ledger.Option, error) {
	budget, err := cfg.Budget()
	if err != nil {
		return nil, fmt.Errorf("default budget: %w", err)
	}
	return []ledger.Option{
		ledger.WithLogger(logger),
		ledger.WithTimeout(cfg.StorageTimeout),
		ledger.WithDefaultBudget(budget),
	}, nil
}

// SheetsWriter returns the Google Sheets writer, or nil when no spreadsheet
// is configured.
func SheetsWriter(ctx context.Context, cfg *config.Config, logger *log.Logger) (sheets.RowWriter, error) {
	if !cfg.SheetsEnabled() {
		return nil, nil
	}
	client, err := gsheets.New(ctx, cfg.GoogleSpreadsheetID, gsheets.Credentials{
		JSON: cfg.GoogleServiceAccountJSON,
		File: cfg.GoogleServiceAccountFile,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	return client, nil
}

// ExportWorker wires an export worker that reloads the ledger from storage on
// every job.
func ExportWorker(cfg *config.Config, storage kv.Storage, writer sheets.RowWriter, logger *log.Logger) (*worker.ExportWorker, error) {
	wcfg, err := exportConfig(cfg, writer, logger)
	if err != nil {
		return nil, err
	}
	wcfg.Storage = storage
	return worker.NewExportWorker(wcfg), nil
}

// InlineExporter wires an export worker that reads the server's live ledger,
// so records whose write-through failed are still exported.
func InlineExporter(cfg *config.Config, store *ledger.Store, writer sheets.RowWriter, logger *log.Logger) (*worker.ExportWorker, error) {
	wcfg, err := exportConfig(cfg, writer, logger)
	if err != nil {
		return nil, err
	}
	wcfg.Records = store.List
	return worker.NewExportWorker(wcfg), nil
}

func exportConfig(cfg *config.Config, writer sheets.RowWriter, logger *log.Logger) (worker.Config, error) {
	budget, err := cfg.Budget()
	if err != nil {
		return worker.Config{}, fmt.Errorf("default budget: %w", err)
	}
	return worker.Config{
		Sheets:        writer,
		SheetName:     cfg.GoogleSheetName,
		ExportDir:     cfg.ExportDir,
		Currency:      cfg.Currency,
		DefaultBudget: budget,
		Timeout:       cfg.StorageTimeout,
		Logger:        logger,
	}, nil
}
