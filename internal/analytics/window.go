// Package analytics derives views over a record set: window filtering,
// totals, category breakdowns, budget classification and the monthly trend.
package analytics

import (
	"fmt"
	"strings"
	"time"

	"kitabu/internal/core"
)

// WindowKind names a time range ending now.
type WindowKind int

const (
	All WindowKind = iota
	Today
	Week
	Month
)

var windowNames = [...]string{"all", "today", "week", "month"}

func (k WindowKind) String() string {
	if k < All || k > Month {
		return fmt.Sprintf("WindowKind(%d)", int(k))
	}
	return windowNames[k]
}

// ParseWindow accepts all, today, week or month in any case. Empty means All.
func ParseWindow(s string) (WindowKind, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return All, nil
	}
	for i, name := range windowNames {
		if strings.EqualFold(s, name) {
			return WindowKind(i), nil
		}
	}
	return All, fmt.Errorf("unknown window %q (want all, today, week or month)", s)
}

// Since returns the inclusive lower bound of the window relative to ref, in
// ref's location. ok is false for All.
func Since(kind WindowKind, ref time.Time) (t time.Time, ok bool) {
	y, m, d := ref.Date()
	startOfDay := time.Date(y, m, d, 0, 0, 0, 0, ref.Location())
	switch kind {
	case Today:
		return startOfDay, true
	case Week:
		return startOfDay.AddDate(0, 0, -7), true
	case Month:
		return time.Date(y, m, 1, 0, 0, 0, 0, ref.Location()), true
	default:
		return time.Time{}, false
	}
}

// Filter keeps the records created at or after the window's lower bound.
// There is no upper bound. Order is preserved and the input is not modified.
func Filter(records []core.Expense, kind WindowKind, ref time.Time) []core.Expense {
	since, ok := Since(kind, ref)
	out := make([]core.Expense, 0, len(records))
	for _, e := range records {
		if !ok || !e.CreatedAt.Before(since) {
			out = append(out, e)
		}
	}
	return out
}
