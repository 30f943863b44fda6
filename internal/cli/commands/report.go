package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"kitabu/internal/analytics"
	"kitabu/internal/charts"
	"kitabu/internal/console"
)

func (a *app) summaryCommand() *cobra.Command {
	var window string
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show totals, budget status and the category breakdown",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := analytics.ParseWindow(window)
			if err != nil {
				return err
			}
			records := analytics.Filter(a.store.List(), kind, a.opts.Clock.Now())
			total := analytics.TotalAmount(records)
			budget := a.store.Budget()
			a.console.Println(a.console.SummaryPanel(console.Summary{
				Window:     kind,
				Total:      total,
				Budget:     budget,
				Status:     analytics.BudgetStatus(total, budget),
				Categories: analytics.SortedCategoryTotals(records),
			}))
			return nil
		},
	}
	cmd.Flags().StringVarP(&window, "window", "w", "month", "all, today, week or month")
	return cmd
}

func (a *app) trendCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Show spending per month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.console.Println(a.console.TrendBars(analytics.MonthlyTrend(a.store.List(), limit)))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", analytics.DefaultTrendLimit, "number of most recent months")
	return cmd
}

func (a *app) chartCommand() *cobra.Command {
	var (
		out    string
		kind   string
		window string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Render a PNG chart of the trend or the category breakdown",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gen := charts.NewGenerator(a.cfg.Currency)

			var (
				png []byte
				err error
			)
			switch strings.ToLower(kind) {
			case "trend":
				png, err = gen.TrendPNG(analytics.MonthlyTrend(a.store.List(), limit))
			case "category":
				w, perr := analytics.ParseWindow(window)
				if perr != nil {
					return perr
				}
				records := analytics.Filter(a.store.List(), w, a.opts.Clock.Now())
				png, err = gen.CategoryPNG(analytics.SortedCategoryTotals(records))
			default:
				return fmt.Errorf("unknown chart type %q (want trend or category)", kind)
			}
			if err != nil {
				return err
			}

			if dir := filepath.Dir(out); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("error creating output directory %q: %w", dir, err)
				}
			}
			if err := os.WriteFile(out, png, 0o644); err != nil {
				return fmt.Errorf("error writing chart: %w", err)
			}
			a.console.LogSuccess("Chart written to %s", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "trend.png", "output file")
	cmd.Flags().StringVarP(&kind, "type", "t", "trend", "trend or category")
	cmd.Flags().StringVarP(&window, "window", "w", "month", "window for the category chart")
	cmd.Flags().IntVarP(&limit, "limit", "n", analytics.DefaultTrendLimit, "months in the trend chart")
	return cmd
}
