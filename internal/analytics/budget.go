package analytics

import (
	"github.com/shopspring/decimal"

	"kitabu/internal/core"
)

type Tier string

const (
	OnTrack     Tier = "OnTrack"
	Approaching Tier = "Approaching"
	Exceeded    Tier = "Exceeded"
)

// Tier thresholds in percent.
const (
	ApproachingAt = 80
	ExceededAt    = 100
)

// Status classifies spend against the budget.
type Status struct {
	Percentage float64 `json:"percentage"`
	Tier       Tier    `json:"tier"`
}

// TierForPercentage maps a spend percentage to its tier. 80 and 100 belong to
// the higher tier.
func TierForPercentage(p float64) Tier {
	switch {
	case p >= ExceededAt:
		return Exceeded
	case p >= ApproachingAt:
		return Approaching
	default:
		return OnTrack
	}
}

// BudgetStatus computes total/budget as a percentage, truncated to four
// decimals so that the reported value never crosses a threshold the exact
// ratio has not. The tier is derived from that same value. A budget of zero or
// less yields 0% when nothing was spent and 100% (Exceeded) otherwise.
func BudgetStatus(total, budget core.Money) Status {
	if budget.Cents <= 0 {
		if total.Cents == 0 {
			return Status{Percentage: 0, Tier: OnTrack}
		}
		return Status{Percentage: ExceededAt, Tier: Exceeded}
	}

	spent := decimal.NewFromInt(total.Cents).Mul(decimal.NewFromInt(100))
	limit := decimal.NewFromInt(budget.Cents)

	pct, _ := spent.QuoRem(limit, 4)
	p, _ := pct.Float64()
	return Status{Percentage: p, Tier: tierFor(pct)}
}

func tierFor(pct decimal.Decimal) Tier {
	switch {
	case pct.GreaterThanOrEqual(decimal.NewFromInt(ExceededAt)):
		return Exceeded
	case pct.GreaterThanOrEqual(decimal.NewFromInt(ApproachingAt)):
		return Approaching
	default:
		return OnTrack
	}
}
