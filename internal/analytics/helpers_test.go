package analytics

import (
	"time"

	"kitabu/internal/core"
)

func expense(id int64, cents int64, cat core.Category, at time.Time) core.Expense {
	return core.Expense{
		ID:          id,
		Description: "item",
		Amount:      core.Money{Cents: cents},
		Category:    cat,
		CreatedAt:   at,
	}
}

func ids(records []core.Expense) map[int64]bool {
	out := make(map[int64]bool, len(records))
	for _, e := range records {
		out[e.ID] = true
	}
	return out
}
