// Package charts renders ledger views as PNG images.
package charts

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"

	"kitabu/internal/core"
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("no data to chart")

// Generator renders charts with a fixed currency label.
type Generator struct {
	Currency string
	Width    int
	Height   int
}

func NewGenerator(currency string) *Generator {
	return &Generator{Currency: currency, Width: 1000, Height: 500}
}

func (g *Generator) money(v float64) string {
	if g.Currency == "" {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%s %.0f", g.Currency, v)
}

var background = chart.Style{
	Padding: chart.Box{
		Top:    50,
		Left:   50,
		Right:  50,
		Bottom: 50,
	},
	FillColor: chart.ColorWhite,
}

// TrendPNG draws one bar per month of the trend series.
func (g *Generator) TrendPNG(series []core.MonthAmount) ([]byte, error) {
	if len(series) == 0 {
		return nil, ErrNoData
	}

	bars := make([]chart.Value, len(series))
	peak := 0.0
	for i, m := range series {
		v := m.Amount.Major()
		if v > peak {
			peak = v
		}
		bars[i] = chart.Value{
			Label: m.Label,
			Value: v,
			Style: chart.Style{
				StrokeColor: chart.ColorBlue,
				FillColor:   chart.ColorBlue.WithAlpha(180),
			},
		}
	}
	// go-chart cannot scale a zero-height range
	top := peak * 1.1
	if top < 1 {
		top = 1
	}

	graph := chart.BarChart{
		Title:      "Monthly spending",
		TitleStyle: chart.Style{FontSize: 14, FontColor: chart.ColorBlack},
		Width:      g.Width,
		Height:     g.Height,
		BarWidth:   60,
		Background: background,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: top},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return g.money(f)
				}
				return ""
			},
			Style: chart.Style{FontSize: 12, FontColor: chart.ColorBlack},
		},
		Bars: bars,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("failed to render trend chart: %w", err)
	}
	return buffer.Bytes(), nil
}

// CategoryPNG draws the category breakdown as a pie.
func (g *Generator) CategoryPNG(totals []core.CategoryAmount) ([]byte, error) {
	var sum core.Money
	for _, c := range totals {
		sum = sum.Add(c.Amount)
	}
	if len(totals) == 0 || sum.Cents <= 0 {
		return nil, ErrNoData
	}

	values := make([]chart.Value, 0, len(totals))
	for _, c := range totals {
		if c.Amount.Cents <= 0 {
			continue
		}
		pct := float64(c.Amount.Cents) * 100 / float64(sum.Cents)
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s: %s (%.1f%%)", c.Category, c.Amount.Format(g.Currency), pct),
			Value: c.Amount.Major(),
			Style: chart.Style{FontSize: 12, FontColor: chart.ColorBlack},
		})
	}

	pie := chart.PieChart{
		Title:      "Spending by category",
		Width:      g.Height,
		Height:     g.Height,
		Values:     values,
		Background: background,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := pie.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("failed to render category chart: %w", err)
	}
	return buffer.Bytes(), nil
}
