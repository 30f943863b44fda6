package memory

import (
	"context"
	"testing"

	"kitabu/internal/core"
	"kitabu/internal/export"
)

func TestReplaceRows(t *testing.T) {
	s := New()
	ctx := context.Background()
	rows := []export.Row{
		{Date: "10 Mar 2025", Description: "Lunch", Category: "Food", Amount: core.Money{Cents: 50000}},
		{Date: "11 Mar 2025", Description: "Bus", Category: "Transport", Amount: core.Money{Cents: 10000}},
	}

	n, err := s.ReplaceRows(ctx, "Expenses", rows)
	if err != nil || n != 2 {
		t.Fatalf("unexpected result n=%d err=%v", n, err)
	}
	cells, ok := s.Sheet("Expenses")
	if !ok || len(cells) != 3 {
		t.Fatalf("expected header plus 2 rows, got %v", cells)
	}
	if cells[0][0] != "Date" || cells[1][1] != "Lunch" || cells[2][3] != 100.0 {
		t.Fatalf("unexpected cells: %v", cells)
	}

	// A second write replaces, not appends.
	if _, err := s.ReplaceRows(ctx, "Expenses", rows[:1]); err != nil {
		t.Fatalf("replace: %v", err)
	}
	cells, _ = s.Sheet("Expenses")
	if len(cells) != 2 || s.Writes() != 2 {
		t.Fatalf("expected replaced sheet, got %d lines after %d writes", len(cells), s.Writes())
	}
}

func TestReplaceRowsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().ReplaceRows(ctx, "Expenses", nil); err == nil {
		t.Fatalf("expected context error")
	}
}
