package strategy

import (
	"time"

	"portfolio-backtest/internal/analysis"
	"portfolio-backtest/internal/model"
)

// Context is everything a resolver may look at for one trading day.
// Resolvers must treat all of it as read-only.
type Context struct {
	Date    time.Time
	Day     *model.DaySlice
	Rolling *analysis.RollingStore
}

// Resolver maps a trading day to target weights. Weights are non-negative and
// sum to 1, or the map is empty (go to cash).
type Resolver interface {
	Name() string
	Resolve(ctx Context) map[string]float64
}

// EqualWeights gives every symbol 1/N.
func EqualWeights(symbols []string) map[string]float64 {
	out := make(map[string]float64, len(symbols))
	if len(symbols) == 0 {
		return out
	}
	w := 1 / float64(len(symbols))
	for _, s := range symbols {
		out[s] = w
	}
	return out
}
