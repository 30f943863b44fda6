package analytics

import (
	"math"
	"testing"

	"kitabu/internal/core"
)

func TestTierForPercentage(t *testing.T) {
	cases := []struct {
		p    float64
		want Tier
	}{
		{0, OnTrack},
		{79.99, OnTrack},
		{80.00, Approaching},
		{99.99, Approaching},
		{100.00, Exceeded},
		{250, Exceeded},
	}
	for _, tc := range cases {
		if got := TierForPercentage(tc.p); got != tc.want {
			t.Fatalf("TierForPercentage(%v) = %s, want %s", tc.p, got, tc.want)
		}
	}
}

func TestBudgetStatusBoundaries(t *testing.T) {
	budget := core.Money{Cents: 1000000}
	cases := []struct {
		total int64
		pct   float64
		want  Tier
	}{
		{799900, 79.99, OnTrack},
		{800000, 80, Approaching},
		{999900, 99.99, Approaching},
		{1000000, 100, Exceeded},
	}
	for _, tc := range cases {
		got := BudgetStatus(core.Money{Cents: tc.total}, budget)
		if got.Tier != tc.want || math.Abs(got.Percentage-tc.pct) > 1e-9 {
			t.Fatalf("total %d: got %+v, want %v %s", tc.total, got, tc.pct, tc.want)
		}
	}
}

func TestBudgetStatusScenario(t *testing.T) {
	got := BudgetStatus(core.Money{Cents: 60000}, core.Money{Cents: 100000})
	if got.Percentage != 60 || got.Tier != OnTrack {
		t.Fatalf("expected 60%% OnTrack, got %+v", got)
	}
}

func TestBudgetStatusNonPositiveBudget(t *testing.T) {
	cases := []struct {
		name          string
		total, budget int64
		pct           float64
		tier          Tier
	}{
		{"zero budget nothing spent", 0, 0, 0, OnTrack},
		{"zero budget some spend", 500, 0, 100, Exceeded},
		{"negative budget nothing spent", 0, -100, 0, OnTrack},
		{"negative budget some spend", 1, -100, 100, Exceeded},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := BudgetStatus(core.Money{Cents: tc.total}, core.Money{Cents: tc.budget})
			if math.IsNaN(got.Percentage) || math.IsInf(got.Percentage, 0) {
				t.Fatalf("percentage must be finite, got %v", got.Percentage)
			}
			if got.Percentage != tc.pct || got.Tier != tc.tier {
				t.Fatalf("got %+v, want %v %s", got, tc.pct, tc.tier)
			}
		})
	}
}

func TestBudgetStatusTierIsExact(t *testing.T) {
	// 79.999999...% must not round up into Approaching
	got := BudgetStatus(core.Money{Cents: 79999999}, core.Money{Cents: 100000000})
	if got.Tier != OnTrack {
		t.Fatalf("expected OnTrack, got %+v", got)
	}
}

func TestBudgetStatusPercentageAgreesWithTier(t *testing.T) {
	cases := []struct {
		total, budget int64
		pct           float64
		want          Tier
	}{
		{7999999, 10000000, 79.9999, OnTrack},
		{9999999, 10000000, 99.9999, Approaching},
		{1, 3, 33.3333, OnTrack},
		{2, 3, 66.6666, OnTrack},
	}
	for _, tc := range cases {
		got := BudgetStatus(core.Money{Cents: tc.total}, core.Money{Cents: tc.budget})
		if got.Percentage != tc.pct || got.Tier != tc.want {
			t.Fatalf("%d/%d: got %+v, want %v %s", tc.total, tc.budget, got, tc.pct, tc.want)
		}
		if TierForPercentage(got.Percentage) != got.Tier {
			t.Fatalf("%d/%d: tier %s disagrees with reported %v", tc.total, tc.budget, got.Tier, got.Percentage)
		}
	}
}
