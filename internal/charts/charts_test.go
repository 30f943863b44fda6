package charts

import (
	"bytes"
	"errors"
	"image/png"
	"testing"

	"kitabu/internal/core"
)

func TestTrendPNG(t *testing.T) {
	g := NewGenerator("KSh")
	series := []core.MonthAmount{
		{Year: 2025, Month: 1, Label: "Jan 2025", Amount: core.Money{Cents: 120000}},
		{Year: 2025, Month: 2, Label: "Feb 2025", Amount: core.Money{Cents: 80000}},
	}
	b, err := g.TrendPNG(series)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	if img.Bounds().Dx() != g.Width || img.Bounds().Dy() != g.Height {
		t.Fatalf("unexpected size %v", img.Bounds())
	}
}

func TestTrendPNGNoData(t *testing.T) {
	if _, err := NewGenerator("").TrendPNG(nil); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestCategoryPNG(t *testing.T) {
	g := NewGenerator("KSh")
	b, err := g.CategoryPNG([]core.CategoryAmount{
		{Category: core.Food, Amount: core.Money{Cents: 50000}},
		{Category: core.Transport, Amount: core.Money{Cents: 10000}},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(b)); err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	if _, err := g.CategoryPNG(nil); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData for empty breakdown, got %v", err)
	}
}
