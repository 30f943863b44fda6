// Package console renders ledger views for a terminal.
package console

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/pterm/pterm"

	"kitabu/internal/analytics"
	"kitabu/internal/core"
)

const barWidth = 40

var (
	BrightGreen  = color.New(color.FgGreen, color.Bold).SprintFunc()
	BrightYellow = color.New(color.FgYellow, color.Bold).SprintFunc()
	BrightRed    = color.New(color.FgRed, color.Bold).SprintFunc()
	BrightCyan   = color.New(color.FgCyan, color.Bold).SprintFunc()
)

// Console writes rendered views to Out.
type Console struct {
	Out      io.Writer
	Currency string
}

func New(currency string) *Console {
	return &Console{Out: os.Stdout, Currency: currency}
}

func (c *Console) Println(a ...any) {
	fmt.Fprintln(c.Out, a...)
}

func (c *Console) LogInfo(format string, a ...any) {
	pterm.Info.WithWriter(c.Out).Printfln(format, a...)
}

func (c *Console) LogSuccess(format string, a ...any) {
	pterm.Success.WithWriter(c.Out).Printfln(format, a...)
}

func (c *Console) LogWarning(format string, a ...any) {
	pterm.Warning.WithWriter(c.Out).Printfln(format, a...)
}

// TierText colours a tier name: green on track, yellow approaching, red exceeded.
func TierText(t analytics.Tier) string {
	switch t {
	case analytics.Exceeded:
		return BrightRed(string(t))
	case analytics.Approaching:
		return BrightYellow(string(t))
	default:
		return BrightGreen(string(t))
	}
}

func categoryLabel(c core.Category) string {
	if g := c.Glyph(); g != "" {
		return g + " " + string(c)
	}
	return string(c)
}

// ExpenseTable renders records as a boxed table with a total row.
func (c *Console) ExpenseTable(records []core.Expense) string {
	data := pterm.TableData{{"ID", "Date", "Description", "Category", "Amount"}}
	for _, e := range records {
		data = append(data, []string{
			strconv.FormatInt(e.ID, 10),
			e.CreatedAt.Format("02 Jan 2006 15:04"),
			e.Description,
			categoryLabel(e.Category),
			e.Amount.Format(c.Currency),
		})
	}
	data = append(data, []string{"", "", "", BrightCyan("Total"), BrightCyan(analytics.TotalAmount(records).Format(c.Currency))})

	rendered, _ := pterm.DefaultTable.
		WithHasHeader().
		WithBoxed().
		WithHeaderStyle(pterm.NewStyle(pterm.FgLightCyan)).
		WithRightAlignment().
		WithData(data).
		Srender()
	return rendered
}

// Summary is the data behind SummaryPanel.
type Summary struct {
	Window     analytics.WindowKind
	Total      core.Money
	Budget     core.Money
	Status     analytics.Status
	Categories []core.CategoryAmount
}

// SummaryPanel renders totals, budget status and the category breakdown.
func (c *Console) SummaryPanel(s Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Window:  %s\n", s.Window)
	fmt.Fprintf(&b, "Spent:   %s\n", s.Total.Format(c.Currency))
	fmt.Fprintf(&b, "Budget:  %s\n", s.Budget.Format(c.Currency))
	fmt.Fprintf(&b, "Used:    %.1f%% %s\n", s.Status.Percentage, TierText(s.Status.Tier))

	if len(s.Categories) > 0 {
		data := pterm.TableData{{"Category", "Amount", "Share"}}
		for _, ca := range s.Categories {
			share := 0.0
			if s.Total.Cents > 0 {
				share = float64(ca.Amount.Cents) * 100 / float64(s.Total.Cents)
			}
			data = append(data, []string{categoryLabel(ca.Category), ca.Amount.Format(c.Currency), fmt.Sprintf("%.1f%%", share)})
		}
		table, _ := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
		b.WriteString("\n" + table)
	}

	return pterm.DefaultBox.
		WithTitle("Spending summary").
		WithBoxStyle(pterm.NewStyle(pterm.FgCyan)).
		Sprint(b.String())
}

// TrendBars renders the monthly series as horizontal bars scaled to the
// largest month.
func (c *Console) TrendBars(series []core.MonthAmount) string {
	var peak int64
	for _, m := range series {
		if m.Amount.Cents > peak {
			peak = m.Amount.Cents
		}
	}
	if peak == 0 {
		return pterm.Warning.Sprint("No spending recorded yet")
	}

	data := pterm.TableData{{"Month", "Spent", ""}}
	for _, m := range series {
		n := int(m.Amount.Cents * barWidth / peak)
		data = append(data, []string{m.Label, m.Amount.Format(c.Currency), pterm.FgBlue.Sprint(strings.Repeat("█", n))})
	}
	table, _ := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	return pterm.DefaultBox.
		WithTitle("Monthly trend").
		WithBoxStyle(pterm.NewStyle(pterm.FgCyan)).
		Sprint(table)
}
