package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"kitabu/internal/analytics"
	"kitabu/internal/backend"
	"kitabu/internal/export"
	"kitabu/internal/sheets"
)

func (a *app) exportCommand() *cobra.Command {
	var (
		formats  []string
		window   string
		out      string
		toSheets bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write expenses to files and optionally to Google Sheets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := analytics.ParseWindow(window)
			if err != nil {
				return err
			}
			parsed, err := parseFormats(formats)
			if err != nil {
				return err
			}
			if len(parsed) == 0 && !toSheets {
				return fmt.Errorf("nothing to export: pass --format or --sheets")
			}

			ctx := cmd.Context()
			var writer sheets.RowWriter
			if toSheets {
				if !a.cfg.SheetsEnabled() {
					return fmt.Errorf("--sheets needs GOOGLE_SPREADSHEET_ID")
				}
				if writer, err = backend.SheetsWriter(ctx, a.cfg, a.logger); err != nil {
					return err
				}
			}

			cfg := *a.cfg
			if out != "" {
				cfg.ExportDir = out
			}
			ew, err := backend.ExportWorker(&cfg, a.backend.Storage, writer, a.logger)
			if err != nil {
				return err
			}
			res, err := ew.Export(ctx, kind, parsed, toSheets)
			if err != nil {
				return err
			}

			if res.Records == 0 {
				a.console.LogWarning("No expenses in window %s", kind)
			}
			for _, f := range res.Files {
				a.console.LogSuccess("Wrote %s", f)
			}
			if res.Sheet != "" {
				a.console.LogSuccess("Wrote %d rows to sheet %q", res.SheetRows, res.Sheet)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&formats, "format", "f", []string{"csv"}, "csv, xlsx, pdf or json")
	cmd.Flags().StringVarP(&window, "window", "w", "all", "all, today, week or month")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output directory (default EXPORT_DIR)")
	cmd.Flags().BoolVar(&toSheets, "sheets", false, "also replace the Google Sheets tab")
	return cmd
}

func parseFormats(names []string) ([]export.Format, error) {
	var out []export.Format
	for _, name := range names {
		for _, part := range strings.Split(name, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			f, err := export.ParseFormat(part)
			if err != nil {
				return nil, err
			}
			out = append(out, f)
		}
	}
	return out, nil
}
