// Package worker runs export jobs against the ledger, either reloaded from
// storage or read from a live store.
package worker

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"kitabu/internal/amqp"
	"kitabu/internal/analytics"
	"kitabu/internal/core"
	"kitabu/internal/export"
	"kitabu/internal/kv"
	"kitabu/internal/ledger"
	"kitabu/internal/log"
	"kitabu/internal/sheets"
)

// Config wires an ExportWorker.
type Config struct {
	Storage       kv.Storage
	Sheets        sheets.RowWriter // nil disables sheet exports
	SheetName     string
	ExportDir     string
	Currency      string
	DefaultBudget core.Money
	Timeout       time.Duration
	Clock         ledger.Clock
	Logger        *log.Logger

	// Records, when set, supplies the expenses and Storage is not read.
	Records func() []core.Expense
}

// ExportWorker handles export requests, either from AMQP or called directly.
type ExportWorker struct {
	cfg    Config
	logger *log.Logger
}

// Result describes what one export produced.
type Result struct {
	Window    string   `json:"window"`
	Records   int      `json:"records"`
	Files     []string `json:"files,omitempty"`
	SheetRows int      `json:"sheet_rows"`
	Sheet     string   `json:"sheet,omitempty"`
}

func NewExportWorker(cfg Config) *ExportWorker {
	if cfg.Clock == nil {
		cfg.Clock = ledger.SystemClock
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Discard()
	}
	if cfg.SheetName == "" {
		cfg.SheetName = export.SheetName
	}
	if cfg.DefaultBudget == (core.Money{}) {
		cfg.DefaultBudget = ledger.DefaultBudget
	}
	return &ExportWorker{cfg: cfg, logger: cfg.Logger.WithComponent(log.ComponentWorker)}
}

// HandleExportRequest processes a single export request from AMQP.
func (w *ExportWorker) HandleExportRequest(ctx context.Context, msg *amqp.ExportRequestMessage) error {
	kind, formats, err := msg.Parsed()
	if err != nil {
		return err
	}
	w.logger.InfoContext(ctx, "Processing export request",
		"message_id", msg.ID,
		log.FieldWindow, kind.String(),
		"formats", len(formats),
		"sheets", msg.Sheets)

	res, err := w.Export(ctx, kind, formats, msg.Sheets)
	if err != nil {
		return fmt.Errorf("export %s: %w", kind, err)
	}
	w.logger.InfoContext(ctx, "Export request completed",
		"message_id", msg.ID,
		log.FieldCount, res.Records,
		"files", len(res.Files),
		"sheet_rows", res.SheetRows)
	return nil
}

// Export loads the expenses, filters them to kind and writes every requested
// target concurrently. Any target failure fails the whole export.
func (w *ExportWorker) Export(ctx context.Context, kind analytics.WindowKind, formats []export.Format, toSheets bool) (Result, error) {
	expenses, err := w.records(ctx)
	if err != nil {
		return Result{}, err
	}

	now := w.cfg.Clock.Now()
	rows := export.Rows(analytics.Filter(expenses, kind, now))
	res := Result{Window: kind.String(), Records: len(rows)}
	exportOpts := export.Options{
		Title:       fmt.Sprintf("Expenses (%s)", kind),
		Currency:    w.cfg.Currency,
		GeneratedAt: now,
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	if toSheets {
		if w.cfg.Sheets == nil {
			w.logger.WarnContext(ctx, "Sheets export requested but no spreadsheet is configured")
		} else {
			g.Go(func() error {
				n, err := w.cfg.Sheets.ReplaceRows(gctx, w.cfg.SheetName, rows)
				if err != nil {
					return fmt.Errorf("write sheet: %w", err)
				}
				mu.Lock()
				res.SheetRows, res.Sheet = n, w.cfg.SheetName
				mu.Unlock()
				return nil
			})
		}
	}

	base := "expenses_" + kind.String()
	for _, f := range formats {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			path, err := export.WriteFile(w.cfg.ExportDir, base, f, rows, exportOpts)
			if err != nil {
				return fmt.Errorf("write %s: %w", f, err)
			}
			w.logger.DebugContext(gctx, "Export file written", "path", path, log.FieldFormat, string(f))
			mu.Lock()
			res.Files = append(res.Files, path)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	sort.Strings(res.Files)
	return res, nil
}

// records returns the configured record source, or a fresh ledger read from
// storage.
func (w *ExportWorker) records(ctx context.Context) ([]core.Expense, error) {
	if w.cfg.Records != nil {
		return w.cfg.Records(), nil
	}
	opts := []ledger.Option{
		ledger.WithClock(w.cfg.Clock),
		ledger.WithLogger(w.cfg.Logger),
		ledger.WithDefaultBudget(w.cfg.DefaultBudget),
	}
	if w.cfg.Timeout > 0 {
		opts = append(opts, ledger.WithTimeout(w.cfg.Timeout))
	}
	store, err := ledger.Open(ctx, w.cfg.Storage, opts...)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	return store.List(), nil
}
