package strategy

import (
	"time"

	"portfolio-backtest/internal/model"
)

// ShouldRebalance reports whether a strategy with frequency f trades on current.
// The first call (last == nil) always rebalances, including for never.
func ShouldRebalance(f model.RebalanceFrequency, last *time.Time, current time.Time) bool {
	if last == nil {
		return true
	}
	if !current.After(*last) {
		return false
	}
	switch f {
	case model.RebalanceDaily:
		return true
	case model.RebalanceMonthly:
		return current.Year() != last.Year() || current.Month() != last.Month()
	case model.RebalanceYearly:
		return current.Year() != last.Year()
	default:
		return false
	}
}

// ShouldContribute reports whether a contribution is due on current.
// none never contributes; otherwise the first call always does.
func ShouldContribute(f model.ContributionFrequency, last *time.Time, current time.Time) bool {
	switch f {
	case model.ContributionDaily:
		return ShouldRebalance(model.RebalanceDaily, last, current)
	case model.ContributionMonthly:
		return ShouldRebalance(model.RebalanceMonthly, last, current)
	case model.ContributionYearly:
		return ShouldRebalance(model.RebalanceYearly, last, current)
	default:
		return false
	}
}
