package backtest

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-backtest/internal/data"
	"portfolio-backtest/internal/model"
	"portfolio-backtest/internal/strategy"
)

const header = "Date,Ticker,Open,High,Low,Close,Volume,Dividends,Stock Splits\n"

func csvOf(rows ...string) string {
	return header + strings.Join(rows, "\n") + "\n"
}

func marketOf(t *testing.T, body string) *model.MarketData {
	t.Helper()
	md, err := data.ReadMarketData(strings.NewReader(body), data.LoadOptions{Filters: data.DefaultFilters()})
	require.NoError(t, err)
	return md
}

func zeroCost(capital float64) Settings {
	s := DefaultSettings()
	s.InitialCapital = capital
	return s
}

func eqSpec(id string, freq model.RebalanceFrequency) strategy.Spec {
	return strategy.Spec{ID: id, Type: strategy.KindEqualWeight, RebalanceFrequency: string(freq)}
}

// runBoth runs body through both engines and requires identical results.
func runBoth(t *testing.T, body string, specs []strategy.Spec, settings Settings) *Result {
	t.Helper()
	e := New()
	mem, err := e.Run(context.Background(), marketOf(t, body), specs, settings)
	require.NoError(t, err)
	stream, err := e.RunStream(context.Background(), strings.NewReader(body), data.DefaultFilters(), specs, settings)
	require.NoError(t, err)
	if diff := cmp.Diff(mem, stream); diff != "" {
		t.Fatalf("engines diverged (-in_memory +streaming):\n%s", diff)
	}
	return mem
}

func TestTwoSymbolWalkThrough(t *testing.T) {
	body := csvOf(
		"2020-01-02,AAA,10,10,10,10,1000,0,0",
		"2020-01-02,BBB,10,10,10,10,1000,0,0",
		"2020-01-03,AAA,20,20,20,20,1000,0,0",
		"2020-01-03,BBB,10,10,10,10,1000,0,0",
		"2020-01-06,AAA,20,20,20,20,1000,0,0",
		"2020-01-06,BBB,20,20,20,20,1000,0,0",
	)
	res := runBoth(t, body, []strategy.Spec{eqSpec("eq", model.RebalanceDaily)}, zeroCost(1000))

	recs := res.Records["eq"]
	require.Len(t, recs, 3)
	assert.Equal(t, 1000.0, recs[0].TotalEquity)
	assert.Equal(t, 1500.0, recs[1].TotalEquity)
	assert.Equal(t, 2250.0, recs[2].TotalEquity)

	assert.Equal(t, 0.0, recs[0].DailyReturn)
	assert.Equal(t, 0.5, recs[1].DailyReturn)
	assert.Equal(t, 2, recs[0].TradeCountDay)
	assert.Equal(t, 0.0, recs[0].TurnoverDay)
	assert.InDelta(t, 500.0/1000.0, recs[1].TurnoverDay, 1e-12)

	final, ok := res.FinalEquity("eq")
	require.True(t, ok)
	assert.Equal(t, 2250.0, final)
}

func TestEquityIdentityEveryDay(t *testing.T) {
	body := syntheticBody(t, "2020-01-01", "2020-06-30", 5)
	s := zeroCost(10_000)
	s.Costs = model.RebalanceCosts{FeeBps: 5, FeeFixed: 1, SlippageBps: 3}
	res := runBoth(t, body, []strategy.Spec{
		eqSpec("eq", model.RebalanceMonthly),
		{ID: "top", Type: strategy.KindTopNRanked, Params: map[string]any{"n": 2, "metric": "close_price"}},
	}, s)

	for _, id := range res.StrategyIDs {
		for _, r := range res.Records[id] {
			assert.Equal(t, r.Cash+r.PositionsMarketValue, r.TotalEquity)
			assert.GreaterOrEqual(t, r.Cash, -1e-6)
		}
	}
}

func TestDisappearingSymbolNeverRevives(t *testing.T) {
	body := csvOf(
		"2020-01-02,AAA,10,10,10,10,1000,0,0",
		"2020-01-02,BBB,10,10,10,10,1000,0,0",
		"2020-01-03,BBB,10,10,10,10,1000,0,0",
		"2020-01-06,AAA,1000,1000,1000,1000,1000,0,0",
		"2020-01-06,BBB,10,10,10,10,1000,0,0",
	)
	res := runBoth(t, body, []strategy.Spec{eqSpec("hold", model.RebalanceNever)}, zeroCost(1000))

	recs := res.Records["hold"]
	require.Len(t, recs, 3)
	assert.Equal(t, 1000.0, recs[0].TotalEquity)
	assert.Equal(t, 500.0, recs[1].TotalEquity)
	assert.Equal(t, 500.0, recs[2].TotalEquity)
	assert.Equal(t, 500.0, recs[2].PositionsMarketValue)
}

func TestDividendCrediting(t *testing.T) {
	body := csvOf(
		"2020-01-02,AAA,10,10,10,10,1000,0,0",
		"2020-01-03,AAA,10,10,10,10,1000,1,0",
	)
	specs := []strategy.Spec{eqSpec("hold", model.RebalanceNever)}

	on := zeroCost(1000)
	on.CreditDividends = true
	res := runBoth(t, body, specs, on)
	last := res.Records["hold"][1]
	assert.InDelta(t, 100.0, last.Cash, 1e-9)
	assert.InDelta(t, 100.0, last.CumulativeDividends, 1e-9)
	assert.InDelta(t, 1100.0, last.TotalEquity, 1e-9)

	off := zeroCost(1000)
	off.CreditDividends = false
	res = runBoth(t, body, specs, off)
	last = res.Records["hold"][1]
	assert.InDelta(t, 0.0, last.Cash, 1e-9)
	assert.Equal(t, 0.0, last.CumulativeDividends)
}

func TestMonthlyContributions(t *testing.T) {
	body := syntheticBody(t, "2020-01-01", "2020-03-31", 0)
	s := zeroCost(0)
	s.ContributionAmount = 100
	s.ContributionFrequency = model.ContributionMonthly
	s.CreditDividends = false

	res := runBoth(t, body, []strategy.Spec{
		eqSpec("daily", model.RebalanceDaily),
		eqSpec("never", model.RebalanceNever),
	}, s)

	for _, id := range res.StrategyIDs {
		recs := res.Records[id]
		assert.Equal(t, 100.0, recs[0].CumulativeContributions)
		assert.Equal(t, 300.0, recs[len(recs)-1].CumulativeContributions, id)
	}
	// the never strategy only trades on the first day; later contributions stay in cash
	never := res.Records["never"]
	assert.InDelta(t, 200.0, never[len(never)-1].Cash, 1e-6)
}

func TestParticipationCapLimitsFills(t *testing.T) {
	body := csvOf("2020-01-02,AAA,10,10,10,10,1000,0,0")
	s := zeroCost(10_000)
	s.MaxTradeParticipation = 0.01
	res := runBoth(t, body, []strategy.Spec{eqSpec("eq", model.RebalanceDaily)}, s)

	require.Len(t, res.Trades, 1)
	assert.Equal(t, 10.0, res.Trades[0].Fill.Shares)
	assert.Equal(t, 9900.0, res.Records["eq"][0].Cash)
}

func TestDualEngineEquivalence(t *testing.T) {
	body := syntheticBody(t, "2020-01-01", "2020-03-31", 6)
	specs := []strategy.Spec{
		eqSpec("equal_weight", model.RebalanceDaily),
		{ID: "top_dv", Type: strategy.KindTopNRanked, Params: map[string]any{"n": 2, "metric": "dollar_volume_1d"}},
		{ID: "random", Type: strategy.KindRandomN, Params: map[string]any{"n": 3}},
		{ID: "sp", Type: strategy.KindSP500Proxy, RebalanceFrequency: "monthly", Params: map[string]any{"top_n": 3, "rolling_window": 20}},
		{ID: "bottom", Type: strategy.KindBottomNRanked, Params: map[string]any{"n": 2, "metric": "rolling_dollar_volume_5d"}},
	}
	s := zeroCost(10_000)
	s.Costs = model.RebalanceCosts{FeeBps: 2, FeeFixed: 0.5, SlippageBps: 1}
	s.ContributionAmount = 250
	s.ContributionFrequency = model.ContributionMonthly
	s.MaxTradeParticipation = 0.01

	e := New()
	mem, err := e.Run(context.Background(), marketOf(t, body), specs, s)
	require.NoError(t, err)
	stream, err := e.RunStream(context.Background(), strings.NewReader(body), data.DefaultFilters(), specs, s)
	require.NoError(t, err)

	for _, spec := range specs {
		a, ok := mem.FinalEquity(spec.ID)
		require.True(t, ok)
		b, ok := stream.FinalEquity(spec.ID)
		require.True(t, ok)
		assert.InEpsilon(t, a, b, 1e-6, spec.ID)
	}
	assert.Empty(t, cmp.Diff(mem.Records, stream.Records))
	assert.Empty(t, cmp.Diff(mem.Trades, stream.Trades))
}

func TestRunIsIdempotent(t *testing.T) {
	body := syntheticBody(t, "2020-01-01", "2020-04-30", 4)
	specs := []strategy.Spec{
		{ID: "random", Type: strategy.KindRandomN, Params: map[string]any{"n": 2, "seed": 7}},
		{ID: "top", Type: strategy.KindTopNRanked, Params: map[string]any{"n": 3, "metric": "rolling_dollar_volume_10d", "proportional": true}},
	}
	md := marketOf(t, body)
	first, err := New().Run(context.Background(), md, specs, zeroCost(5000))
	require.NoError(t, err)
	second, err := New().Run(context.Background(), md, specs, zeroCost(5000))
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(first, second))
}

func TestConfigErrorsBeforeFirstDay(t *testing.T) {
	body := csvOf("2020-01-02,AAA,10,10,10,10,1000,0,0")
	e := New()

	_, err := e.Run(context.Background(), marketOf(t, body), []strategy.Spec{{ID: "x", Type: "momentum"}}, zeroCost(1))
	assert.ErrorIs(t, err, model.ErrConfig)

	bad := zeroCost(1)
	bad.MaxTradeParticipation = 1.5
	_, err = e.RunStream(context.Background(), strings.NewReader(body), data.DefaultFilters(), nil, bad)
	assert.ErrorIs(t, err, model.ErrConfig)

	bad = zeroCost(-1)
	_, err = e.RunStreaming(context.Background(), "does-not-exist.csv", data.DefaultFilters(), nil, bad)
	assert.ErrorIs(t, err, model.ErrConfig)
}

func TestDefaultStrategyWhenNoneGiven(t *testing.T) {
	body := csvOf("2020-01-02,AAA,10,10,10,10,1000,0,0")
	res, err := New().Run(context.Background(), marketOf(t, body), nil, zeroCost(100))
	require.NoError(t, err)
	assert.Equal(t, []string{strategy.DefaultStrategyID}, res.StrategyIDs)
}

func TestContextCancelled(t *testing.T) {
	body := csvOf("2020-01-02,AAA,10,10,10,10,1000,0,0")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Run(ctx, marketOf(t, body), nil, zeroCost(100))
	assert.ErrorIs(t, err, context.Canceled)
}

func syntheticBody(t *testing.T, start, end string, dropEvery int) string {
	t.Helper()
	s, err := time.Parse(time.DateOnly, start)
	require.NoError(t, err)
	e, err := time.Parse(time.DateOnly, end)
	require.NoError(t, err)
	var sb strings.Builder
	require.NoError(t, data.GenerateSynthetic(&sb, data.SyntheticOptions{Start: s, End: e, DropEvery: dropEvery}))
	return sb.String()
}
