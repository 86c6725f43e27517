package backtest

import (
	"time"

	"portfolio-backtest/internal/analysis"
	"portfolio-backtest/internal/model"
)

// DailyRecord is one strategy's end-of-day snapshot.
type DailyRecord struct {
	Date       time.Time
	StrategyID string

	Cash                 float64
	PositionsMarketValue float64
	TotalEquity          float64

	// DailyReturn is equity over the previous day's equity, minus one.
	DailyReturn float64

	CumulativeContributions float64
	CumulativeDividends     float64

	TradeCountDay int
	TurnoverDay   float64
}

// DatedTrade is a fill tagged with when and for whom it executed.
type DatedTrade struct {
	Date       time.Time
	StrategyID string
	Fill       model.TradeFill
}

// Result is everything a run hands to reporting.
type Result struct {
	// StrategyIDs keeps the configured strategy order.
	StrategyIDs []string
	Records     map[string][]DailyRecord
	Trades      []DatedTrade
}

func newResult(ids []string) *Result {
	r := &Result{
		StrategyIDs: ids,
		Records:     make(map[string][]DailyRecord, len(ids)),
	}
	for _, id := range ids {
		r.Records[id] = nil
	}
	return r
}

// FinalEquity returns the last recorded equity for id.
func (r *Result) FinalEquity(id string) (float64, bool) {
	recs := r.Records[id]
	if len(recs) == 0 {
		return 0, false
	}
	return recs[len(recs)-1].TotalEquity, true
}

// TradeCounts counts fills per strategy.
func (r *Result) TradeCounts() map[string]int {
	out := make(map[string]int, len(r.StrategyIDs))
	for _, t := range r.Trades {
		out[t.StrategyID]++
	}
	return out
}

func points(records []DailyRecord) []analysis.Point {
	out := make([]analysis.Point, len(records))
	for i, rec := range records {
		out[i] = analysis.Point{
			Date:                    rec.Date,
			TotalEquity:             rec.TotalEquity,
			DailyReturn:             rec.DailyReturn,
			CumulativeContributions: rec.CumulativeContributions,
			TurnoverDay:             rec.TurnoverDay,
		}
	}
	return out
}

// Summaries computes a terminal summary per strategy with records, in
// configured order.
func (r *Result) Summaries() []analysis.TerminalSummary {
	counts := r.TradeCounts()
	var out []analysis.TerminalSummary
	for _, id := range r.StrategyIDs {
		if s, ok := analysis.Summarize(id, points(r.Records[id]), counts[id]); ok {
			out = append(out, s)
		}
	}
	return out
}

// AnnualSummaries splits every strategy's records by calendar year.
func (r *Result) AnnualSummaries() []analysis.AnnualSummary {
	var out []analysis.AnnualSummary
	for _, id := range r.StrategyIDs {
		out = append(out, analysis.SummarizeYears(id, points(r.Records[id]))...)
	}
	return out
}

// Ranking orders strategies by final equity, best first.
func (r *Result) Ranking() []analysis.TerminalSummary {
	return analysis.RankByFinalEquity(r.Summaries())
}
