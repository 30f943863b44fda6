package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"kitabu/internal/core"
)

func TestLoadConfigFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kitabu.toml")
	content := "currency = \"USD\"\ndefault_budget = \"750\"\n\n[storage]\nbackend = \"memory\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CURRENCY", "EUR")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Currency != "EUR" {
		t.Fatalf("environment should win, got %q", cfg.Currency)
	}
	if cfg.StorageBackend != "memory" || cfg.DefaultBudget != "750" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "floppy")
	if _, err := LoadConfig(""); err == nil || !strings.Contains(err.Error(), "floppy") {
		t.Fatalf("expected backend error, got %v", err)
	}
}

func TestOpenLedgerMemory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "budget.txt"), []byte("2500"), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("DATA_DIR", dir)

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	var buf bytes.Buffer
	logger := SetupLogger(cfg, "test", &buf)

	res, store, err := OpenLedger(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("OpenLedger: %v", err)
	}
	defer res.Close()

	if res.Name != "memory" {
		t.Fatalf("unexpected backend %q", res.Name)
	}
	if got := store.Budget(); got != (core.Money{Cents: 250000}) {
		t.Fatalf("seeded budget not loaded: %v", got)
	}
}

func TestSetupLoggerJSON(t *testing.T) {
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("STORAGE_BACKEND", "memory")
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	var buf bytes.Buffer
	SetupLogger(cfg, "cli", &buf).Info("hello")
	if !strings.HasPrefix(buf.String(), "{") || !strings.Contains(buf.String(), `"component":"cli"`) {
		t.Fatalf("expected JSON record with component, got %q", buf.String())
	}
}
