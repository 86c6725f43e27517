package analysis

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMaxDrawdown(t *testing.T) {
	pts := []Point{
		{TotalEquity: 100}, {TotalEquity: 120}, {TotalEquity: 90}, {TotalEquity: 130}, {TotalEquity: 117},
	}
	assert.InDelta(t, -0.25, MaxDrawdown(pts), 1e-12)
	assert.Equal(t, 0.0, MaxDrawdown(nil))
}

func TestAnnualizedVolatility(t *testing.T) {
	assert.Equal(t, 0.0, AnnualizedVolatility([]float64{0.1}))
	got := AnnualizedVolatility([]float64{0.01, -0.01})
	assert.InDelta(t, 0.01*math.Sqrt(252), got, 1e-12)
}

func TestCAGR(t *testing.T) {
	got := CAGR(date(2020, 1, 1), date(2020, 1, 1).AddDate(0, 0, 1461), 100, 200)
	assert.InDelta(t, math.Pow(2, 0.25)-1, got, 1e-12)
	assert.Equal(t, 0.0, CAGR(date(2020, 1, 1), date(2020, 1, 1), 100, 200))
	assert.Equal(t, 0.0, CAGR(date(2020, 1, 1), date(2021, 1, 1), 0, 200))

	// Wiped out or negative equity is a total loss.
	assert.Equal(t, -1.0, CAGR(date(2020, 1, 1), date(2022, 1, 1), 100, 0))
	assert.Equal(t, -1.0, CAGR(date(2020, 1, 1), date(2022, 1, 1), 100, -3))
}

func TestSummarize(t *testing.T) {
	pts := []Point{
		{Date: date(2020, 1, 2), TotalEquity: 1000, CumulativeContributions: 0},
		{Date: date(2020, 1, 3), TotalEquity: 1100, DailyReturn: 0.1, CumulativeContributions: 0, TurnoverDay: 0.5},
		{Date: date(2020, 1, 6), TotalEquity: 1300, DailyReturn: 0.1, CumulativeContributions: 100, TurnoverDay: 0.1},
	}
	s, ok := Summarize("eq", pts, 7)
	require.True(t, ok)
	assert.Equal(t, 1300.0, s.FinalEquity)
	assert.Equal(t, 100.0, s.TotalContributions)
	assert.Equal(t, 200.0, s.NetProfit)
	assert.Equal(t, 7, s.TotalTrades)
	assert.InDelta(t, 0.2, s.AvgTurnover, 1e-12)
	assert.Greater(t, s.AnnualizedVolatility, 0.0)

	_, ok = Summarize("eq", nil, 0)
	assert.False(t, ok)
}

func TestSummarizeYears(t *testing.T) {
	pts := []Point{
		{Date: date(2020, 12, 30), TotalEquity: 100, CumulativeContributions: 10},
		{Date: date(2020, 12, 31), TotalEquity: 110, CumulativeContributions: 10},
		{Date: date(2021, 1, 4), TotalEquity: 130, CumulativeContributions: 30},
		{Date: date(2021, 1, 5), TotalEquity: 143, CumulativeContributions: 40},
	}
	years := SummarizeYears("eq", pts)
	require.Len(t, years, 2)

	assert.Equal(t, 2020, years[0].Year)
	assert.Equal(t, 10.0, years[0].NetContributionsYear)
	assert.InDelta(t, 0.1, years[0].ReturnYear, 1e-12)

	assert.Equal(t, 2021, years[1].Year)
	assert.Equal(t, 30.0, years[1].NetContributionsYear)
	assert.InDelta(t, 0.1, years[1].ReturnYear, 1e-12)
}

func TestRankByFinalEquity(t *testing.T) {
	ranked := RankByFinalEquity([]TerminalSummary{
		{StrategyID: "b", FinalEquity: 10},
		{StrategyID: "a", FinalEquity: 10},
		{StrategyID: "c", FinalEquity: 30},
	})
	ids := []string{ranked[0].StrategyID, ranked[1].StrategyID, ranked[2].StrategyID}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
}
