package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"kitabu/internal/amqp"
	"kitabu/internal/analytics"
	"kitabu/internal/core"
	"kitabu/internal/export"
	"kitabu/internal/kv/memory"
	"kitabu/internal/ledger"
	"kitabu/internal/log"
	sheetsmem "kitabu/internal/sheets/memory"
)

var refTime = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

const seededExpenses = `[
 {"id":1,"description":"Rent","amount":800,"category":"Bills","date":"2025-02-01T09:00:00Z"},
 {"id":2,"description":"Lunch","amount":12.5,"category":"Food","date":"2025-03-15T08:00:00Z"},
 {"id":3,"description":"Bus","amount":2,"category":"Transport","date":"2025-03-10T08:00:00Z"}
]`

type failingSheets struct{}

func (failingSheets) ReplaceRows(context.Context, string, []export.Row) (int, error) {
	return 0, errors.New("quota exceeded")
}

func newWorker(t *testing.T, cfg Config) *ExportWorker {
	t.Helper()
	if cfg.Storage == nil {
		cfg.Storage = memory.New(map[string]string{ledger.KeyExpenses: seededExpenses})
	}
	if cfg.ExportDir == "" {
		cfg.ExportDir = t.TempDir()
	}
	cfg.Clock = ledger.ClockFunc(func() time.Time { return refTime })
	cfg.Logger = log.Discard()
	return NewExportWorker(cfg)
}

func TestExportWritesFilesAndSheet(t *testing.T) {
	sheet := sheetsmem.New()
	w := newWorker(t, Config{Sheets: sheet, Currency: "KSh"})

	res, err := w.Export(context.Background(), analytics.Month, []export.Format{export.CSV, export.JSON}, true)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if res.Records != 2 || res.Window != "month" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(res.Files) != 2 {
		t.Fatalf("expected 2 files, got %v", res.Files)
	}
	for _, path := range res.Files {
		if !strings.HasPrefix(filepath.Base(path), "expenses_month_20250315_120000.") {
			t.Errorf("unexpected file name %s", path)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("file missing: %v", err)
		}
	}

	cells, ok := sheet.Sheet(export.SheetName)
	if !ok || len(cells) != 3 || res.SheetRows != 2 {
		t.Fatalf("expected header plus 2 rows in sheet, got %v", cells)
	}
	if cells[1][1] != "Lunch" || cells[2][1] != "Bus" {
		t.Fatalf("rows should keep ledger order: %v", cells)
	}
}

func TestExportWithoutSheetsConfigured(t *testing.T) {
	w := newWorker(t, Config{})
	res, err := w.Export(context.Background(), analytics.All, []export.Format{export.CSV}, true)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if res.SheetRows != 0 || res.Records != 3 || len(res.Files) != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestExportFailsWhenTargetFails(t *testing.T) {
	w := newWorker(t, Config{Sheets: failingSheets{}})
	_, err := w.Export(context.Background(), analytics.All, nil, true)
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("expected sheet error, got %v", err)
	}
}

func TestHandleExportRequest(t *testing.T) {
	dir := t.TempDir()
	w := newWorker(t, Config{ExportDir: dir})

	msg := amqp.NewExportRequestMessage(analytics.Today, []export.Format{export.CSV}, false)
	if err := w.HandleExportRequest(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one export file, got %v (%v)", entries, err)
	}
	b, _ := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	if !strings.Contains(string(b), "Lunch") || strings.Contains(string(b), "Bus") {
		t.Fatalf("today export should contain only Lunch:\n%s", b)
	}

	bad := &amqp.ExportRequestMessage{Window: "fortnight", Sheets: true}
	if err := w.HandleExportRequest(context.Background(), bad); err == nil {
		t.Fatalf("expected invalid window error")
	}
}

func TestExportSeesLatestLedgerState(t *testing.T) {
	storage := memory.New(nil)
	w := newWorker(t, Config{Storage: storage})

	res, err := w.Export(context.Background(), analytics.All, []export.Format{export.JSON}, false)
	if err != nil || res.Records != 0 {
		t.Fatalf("expected empty export, got %+v (%v)", res, err)
	}

	if err := storage.Set(context.Background(), ledger.KeyExpenses, seededExpenses); err != nil {
		t.Fatalf("seed: %v", err)
	}
	res, err = w.Export(context.Background(), analytics.All, []export.Format{export.JSON}, false)
	if err != nil || res.Records != 3 {
		t.Fatalf("expected 3 records after reseed, got %+v (%v)", res, err)
	}
}

// readOnlyStorage accepts reads and rejects every write.
type readOnlyStorage struct {
	*memory.Store
}

func (readOnlyStorage) Set(context.Context, string, string) error {
	return errors.New("disk full")
}

func TestExportReadsLiveRecordsAfterFailedWrite(t *testing.T) {
	storage := readOnlyStorage{memory.New(nil)}
	ctx := context.Background()
	store, err := ledger.Open(ctx, storage,
		ledger.WithClock(ledger.ClockFunc(func() time.Time { return refTime })),
		ledger.WithLogger(log.Discard()))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := store.Create(ctx, core.Input{Description: "Lunch", Amount: "500", Category: "Food"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if store.PersistErr() == nil {
		t.Fatal("expected the write-through to have failed")
	}

	sheet := sheetsmem.New()
	live := newWorker(t, Config{Storage: storage, Records: store.List, Sheets: sheet})
	res, err := live.Export(ctx, analytics.Today, nil, true)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if res.Records != 1 || res.SheetRows != 1 {
		t.Fatalf("expected the unsaved expense to be exported, got %+v", res)
	}
	cells, _ := sheet.Sheet(export.SheetName)
	if len(cells) != 2 || cells[1][1] != "Lunch" {
		t.Fatalf("unexpected sheet contents: %v", cells)
	}

	reloaded := newWorker(t, Config{Storage: storage, Sheets: sheetsmem.New()})
	res, err = reloaded.Export(ctx, analytics.Today, nil, true)
	if err != nil || res.Records != 0 {
		t.Fatalf("storage-backed export should only see persisted data, got %+v (%v)", res, err)
	}
}
