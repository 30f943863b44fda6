// Package sheets publishes exported rows to spreadsheet services.
package sheets

import (
	"context"

	"kitabu/internal/export"
)

// RowWriter replaces the contents of a named sheet with rows, preceded by the
// export header. It returns the number of data rows written.
type RowWriter interface {
	ReplaceRows(ctx context.Context, sheet string, rows []export.Row) (int, error)
}

// Table renders rows as spreadsheet cells: the header, then one line per row.
func Table(rows []export.Row) [][]any {
	out := make([][]any, 0, len(rows)+1)
	header := make([]any, len(export.Headers))
	for i, h := range export.Headers {
		header[i] = h
	}
	out = append(out, header)
	for _, r := range rows {
		out = append(out, r.Values())
	}
	return out
}
