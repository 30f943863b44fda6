package analytics

import (
	"sort"
	"time"

	"kitabu/internal/core"
)

const DefaultTrendLimit = 6

const monthLabelLayout = "Jan 2006"

type monthKey struct {
	year  int
	month time.Month
}

// MonthlyTrend groups every record by calendar month of CreatedAt, sorts the
// groups chronologically and keeps the most recent limit months. A
// non-positive limit means DefaultTrendLimit.
func MonthlyTrend(records []core.Expense, limit int) []core.MonthAmount {
	if limit <= 0 {
		limit = DefaultTrendLimit
	}

	sums := make(map[monthKey]core.Money)
	for _, e := range records {
		k := monthKey{year: e.CreatedAt.Year(), month: e.CreatedAt.Month()}
		sums[k] = sums[k].Add(e.Amount)
	}

	keys := make([]monthKey, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].month < keys[j].month
	})
	if len(keys) > limit {
		keys = keys[len(keys)-limit:]
	}

	out := make([]core.MonthAmount, len(keys))
	for i, k := range keys {
		out[i] = core.MonthAmount{
			Year:   k.year,
			Month:  int(k.month),
			Label:  time.Date(k.year, k.month, 1, 0, 0, 0, 0, time.UTC).Format(monthLabelLayout),
			Amount: sums[k],
		}
	}
	return out
}
