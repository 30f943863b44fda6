package backend

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"kitabu/internal/config"
	"kitabu/internal/core"
	"kitabu/internal/ledger"
	"kitabu/internal/log"
)

func testConfig(t *testing.T, backend string) *config.Config {
	t.Helper()
	return &config.Config{
		StorageBackend: backend,
		StorageTimeout: time.Second,
		SQLiteDBPath:   filepath.Join(t.TempDir(), "kitabu.db"),
		DefaultBudget:  "250",
		Currency:       "KSh",
		ExportDir:      t.TempDir(),
	}
}

func TestCreateStorageMemory(t *testing.T) {
	f := NewFactory(log.Discard())
	res, err := f.CreateStorage(context.Background(), testConfig(t, config.BackendMemory))
	if err != nil {
		t.Fatalf("create memory storage: %v", err)
	}
	if res.Name != config.BackendMemory || res.Storage == nil {
		t.Fatalf("unexpected result: %+v", res)
	}
	if err := res.Ping(context.Background()); err != nil {
		t.Fatalf("memory storage needs no health check: %v", err)
	}
	if err := res.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestCreateStorageSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, config.BackendSQLite)
	f := NewFactory(nil)

	res, err := f.CreateStorage(ctx, cfg)
	if err != nil {
		t.Fatalf("create sqlite storage: %v", err)
	}
	if err := res.Ping(ctx); err != nil {
		t.Fatalf("health: %v", err)
	}

	opts, err := LedgerOptions(cfg, log.Discard())
	if err != nil {
		t.Fatalf("ledger options: %v", err)
	}
	store, err := ledger.Open(ctx, res.Storage, opts...)
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	if store.Budget() != (core.Money{Cents: 25000}) {
		t.Fatalf("expected configured default budget, got %v", store.Budget())
	}
	if _, err := store.Create(ctx, core.Input{Description: "Tea", Amount: "1.20", Category: "food"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := res.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	res, err = f.CreateStorage(ctx, cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer res.Close()
	store, err = ledger.Open(ctx, res.Storage, opts...)
	if err != nil {
		t.Fatalf("reopen ledger: %v", err)
	}
	if got := store.List(); len(got) != 1 || got[0].Description != "Tea" {
		t.Fatalf("expected persisted record, got %+v", got)
	}
}

func TestCreateStorageRejects(t *testing.T) {
	f := NewFactory(nil)
	if _, err := f.CreateStorage(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	_, err := f.CreateStorage(context.Background(), testConfig(t, "postgres"))
	if err == nil || !strings.Contains(err.Error(), "unsupported storage backend") {
		t.Fatalf("expected unsupported backend error, got %v", err)
	}
}

func TestSheetsWriterDisabled(t *testing.T) {
	w, err := SheetsWriter(context.Background(), testConfig(t, config.BackendMemory), log.Discard())
	if err != nil || w != nil {
		t.Fatalf("expected no writer without a spreadsheet, got %v %v", w, err)
	}
}

func TestLedgerOptionsBadBudget(t *testing.T) {
	cfg := testConfig(t, config.BackendMemory)
	cfg.DefaultBudget = "lots"
	if _, err := LedgerOptions(cfg, log.Discard()); err == nil {
		t.Fatal("expected budget error")
	}
	if _, err := ExportWorker(cfg, nil, nil, log.Discard()); err == nil {
		t.Fatal("expected budget error from worker wiring")
	}
	if _, err := InlineExporter(cfg, nil, nil, log.Discard()); err == nil {
		t.Fatal("expected budget error from inline exporter wiring")
	}
}
