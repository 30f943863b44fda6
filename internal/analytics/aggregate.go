package analytics

import (
	"sort"

	"kitabu/internal/core"
)

// TotalAmount sums the amounts. An empty set totals zero.
func TotalAmount(records []core.Expense) core.Money {
	var total core.Money
	for _, e := range records {
		total = total.Add(e.Amount)
	}
	return total
}

// CategoryTotals sums amounts per category. A category is present only if at
// least one record carries it.
func CategoryTotals(records []core.Expense) map[core.Category]core.Money {
	totals := make(map[core.Category]core.Money)
	for _, e := range records {
		totals[e.Category] = totals[e.Category].Add(e.Amount)
	}
	return totals
}

// SortedCategoryTotals returns CategoryTotals in the canonical category order.
func SortedCategoryTotals(records []core.Expense) []core.CategoryAmount {
	totals := CategoryTotals(records)
	out := make([]core.CategoryAmount, 0, len(totals))
	for c, m := range totals {
		out = append(out, core.CategoryAmount{Category: c, Amount: m})
	}
	sort.Slice(out, func(i, j int) bool {
		ci, cj := out[i].Category.Index(), out[j].Category.Index()
		if ci != cj {
			return ci < cj
		}
		return out[i].Category < out[j].Category
	})
	return out
}
