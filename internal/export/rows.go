// Package export projects records into rows for the "Expenses" table and
// serializes them as CSV, XLSX, PDF or JSON.
package export

import (
	"kitabu/internal/core"
)

const (
	SheetName  = "Expenses"
	DateLayout = "02 Jan 2006"
)

// Headers are the column titles in output order.
var Headers = []string{"Date", "Description", "Category", "Amount"}

// Row is one exported record.
type Row struct {
	Date        string     `json:"date"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Amount      core.Money `json:"amount"`
}

// Rows maps each record to a Row, keeping the input order.
func Rows(records []core.Expense) []Row {
	out := make([]Row, len(records))
	for i, e := range records {
		out[i] = Row{
			Date:        e.CreatedAt.Format(DateLayout),
			Description: e.Description,
			Category:    string(e.Category),
			Amount:      e.Amount,
		}
	}
	return out
}

// Strings renders the row as text cells.
func (r Row) Strings() []string {
	return []string{r.Date, r.Description, r.Category, r.Amount.String()}
}

// Values renders the row with a numeric amount cell for spreadsheets.
func (r Row) Values() []any {
	return []any{r.Date, r.Description, r.Category, r.Amount.Major()}
}

// Total sums the row amounts.
func Total(rows []Row) core.Money {
	var total core.Money
	for _, r := range rows {
		total = total.Add(r.Amount)
	}
	return total
}
