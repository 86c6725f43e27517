package analysis

import (
	"math"
	"time"

	"github.com/montanaflynn/stats"
)

// TradingDaysPerYear annualizes daily volatility.
const TradingDaysPerYear = 252.0

// Point is the slice of a daily equity record the summaries need.
type Point struct {
	Date                    time.Time
	TotalEquity             float64
	DailyReturn             float64
	CumulativeContributions float64
	TurnoverDay             float64
}

// TerminalSummary describes a whole run for one strategy.
type TerminalSummary struct {
	StrategyID           string
	StartDate            time.Time
	EndDate              time.Time
	FinalEquity          float64
	TotalContributions   float64
	NetProfit            float64
	CAGR                 float64
	MaxDrawdown          float64
	AnnualizedVolatility float64
	SharpeProxy          float64
	TotalTrades          int
	AvgTurnover          float64
}

// AnnualSummary describes one calendar year of a run.
type AnnualSummary struct {
	StrategyID           string
	Year                 int
	StartEquity          float64
	EndEquity            float64
	NetContributionsYear float64
	ReturnYear           float64
	MaxDrawdownYear      float64
	VolatilityYear       float64
}

// Summarize computes the terminal summary. It returns false for an empty series.
func Summarize(strategyID string, points []Point, totalTrades int) (TerminalSummary, bool) {
	if len(points) == 0 {
		return TerminalSummary{}, false
	}
	first := points[0]
	last := points[len(points)-1]

	s := TerminalSummary{
		StrategyID:         strategyID,
		StartDate:          first.Date,
		EndDate:            last.Date,
		FinalEquity:        last.TotalEquity,
		TotalContributions: last.CumulativeContributions,
		TotalTrades:        totalTrades,
	}
	s.NetProfit = last.TotalEquity - (first.TotalEquity + last.CumulativeContributions)
	s.CAGR = CAGR(first.Date, last.Date, first.TotalEquity, last.TotalEquity)
	s.MaxDrawdown = MaxDrawdown(points)
	s.AnnualizedVolatility = AnnualizedVolatility(dailyReturns(points))
	if s.AnnualizedVolatility != 0 {
		s.SharpeProxy = s.CAGR / s.AnnualizedVolatility
	}

	turnover := make([]float64, len(points))
	for i, p := range points {
		turnover[i] = p.TurnoverDay
	}
	s.AvgTurnover, _ = stats.Mean(turnover)
	return s, true
}

// SummarizeYears splits points by calendar year. Net contributions for a year
// are measured against the last contribution level of the prior year.
func SummarizeYears(strategyID string, points []Point) []AnnualSummary {
	var out []AnnualSummary
	priorContrib := 0.0
	for start := 0; start < len(points); {
		year := points[start].Date.Year()
		end := start
		for end < len(points) && points[end].Date.Year() == year {
			end++
		}
		yearly := points[start:end]
		first, last := yearly[0], yearly[len(yearly)-1]
		out = append(out, AnnualSummary{
			StrategyID:           strategyID,
			Year:                 year,
			StartEquity:          first.TotalEquity,
			EndEquity:            last.TotalEquity,
			NetContributionsYear: last.CumulativeContributions - priorContrib,
			ReturnYear:           PeriodReturn(first.TotalEquity, last.TotalEquity),
			MaxDrawdownYear:      MaxDrawdown(yearly),
			VolatilityYear:       AnnualizedVolatility(dailyReturns(yearly)),
		})
		priorContrib = last.CumulativeContributions
		start = end
	}
	return out
}

// CumulativeReturn is equity relative to the first point's equity.
func CumulativeReturn(firstEquity, equity float64) float64 {
	if firstEquity == 0 {
		return 0
	}
	return equity/firstEquity - 1
}

func PeriodReturn(startValue, endValue float64) float64 {
	if startValue == 0 {
		return 0
	}
	return endValue/startValue - 1
}

// MaxDrawdown is the most negative equity/peak-1 seen, or 0.
func MaxDrawdown(points []Point) float64 {
	peak := math.Inf(-1)
	maxDD := 0.0
	for _, p := range points {
		peak = math.Max(peak, p.TotalEquity)
		if peak <= 0 {
			continue
		}
		maxDD = math.Min(maxDD, p.TotalEquity/peak-1)
	}
	return maxDD
}

// AnnualizedVolatility is the population standard deviation of daily returns
// scaled by sqrt(252). Fewer than two returns give 0.
func AnnualizedVolatility(dailyReturns []float64) float64 {
	if len(dailyReturns) <= 1 {
		return 0
	}
	sd, err := stats.StandardDeviationPopulation(dailyReturns)
	if err != nil {
		return 0
	}
	return sd * math.Sqrt(TradingDaysPerYear)
}

// CAGR uses 365.25-day years between the two calendar dates.
func CAGR(startDate, endDate time.Time, startValue, endValue float64) float64 {
	if startValue <= 0 {
		return 0
	}
	days := endDate.Sub(startDate).Hours() / 24
	if days <= 0 {
		return 0
	}
	if endValue <= 0 {
		return -1
	}
	years := math.Floor(days) / 365.25
	return math.Pow(endValue/startValue, 1/years) - 1
}

func dailyReturns(points []Point) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.DailyReturn
	}
	return out
}
