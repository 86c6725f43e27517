package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-backtest/internal/backtest"
	"portfolio-backtest/internal/data"
	"portfolio-backtest/internal/model"
	"portfolio-backtest/internal/strategy"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0644))
	return p
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "prices.csv", "Date,Ticker,Open,High,Low,Close,Volume,Dividends,Stock Splits\n")
	path := writeFile(t, dir, "run.yaml", `
data_path: prices.csv
start_date: 2020-01-01
end_date: 2020-12-31
initial_capital: 10000
strategies:
  - strategy_id: eq
    type: equal_weight
  - strategy_id: top
    type: top_n_ranked
    rebalance_frequency: monthly
    params:
      n: 3
      metric: rolling_dollar_volume_63d
`)

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "prices.csv"), c.DataPath)
	assert.Equal(t, "streaming", c.Engine)
	assert.Equal(t, DefaultOutputDir, c.OutputDir)
	require.NotNil(t, c.Seed)
	assert.Equal(t, int64(42), *c.Seed)

	q, err := c.Request()
	require.NoError(t, err)
	assert.Equal(t, backtest.EngineStreaming, q.Engine)
	assert.Equal(t, data.PriceAsIs, q.PriceMode)
	assert.Equal(t, 0.01, q.Settings.MaxTradeParticipation)
	assert.Equal(t, model.ContributionNone, q.Settings.ContributionFrequency)
	assert.Equal(t, 0.01, q.Filters.MinPrice)
	assert.Equal(t, 100_000.0, q.Filters.MaxPrice)
	assert.Equal(t, 2020, q.Filters.Range.Start.Year())
	require.Len(t, q.Specs, 2)
	assert.Equal(t, 3, q.Specs[1].Params["n"])
}

func TestLoadStrategyFileRelative(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "strategies.json", `{"strategies": [{"strategy_id": "rnd", "type": "random_n", "params": {"n": 2}}]}`)
	path := writeFile(t, dir, "run.yaml", `
data_path: prices.csv
strategy_file: strategies.json
strategies:
  - strategy_id: eq
    type: equal_weight
`)
	c, err := Load(path)
	require.NoError(t, err)
	require.Len(t, c.Strategies, 2)
	assert.Equal(t, "rnd", c.Strategies[0].ID)
	assert.Equal(t, "eq", c.Strategies[1].ID)
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]string{
		"inverted dates":       "data_path: x.csv\nstart_date: 2021-01-01\nend_date: 2020-01-01\n",
		"negative capital":     "data_path: x.csv\ninitial_capital: -1\n",
		"negative fee":         "data_path: x.csv\nfee_bps: -2\n",
		"bad frequency":        "data_path: x.csv\ncontribution_frequency: weekly\n",
		"bad engine":           "data_path: x.csv\nengine: spark\n",
		"participation > 1":    "data_path: x.csv\nmax_trade_participation: 1.5\n",
		"raw with streaming":   "data_path: x.csv\nprice_series_mode: raw_reconstructed\n",
		"unknown strategy":     "data_path: x.csv\nstrategies:\n  - strategy_id: a\n    type: magic\n",
		"missing n":            "data_path: x.csv\nstrategies:\n  - strategy_id: a\n    type: random_n\n",
		"missing data path":    "initial_capital: 1\n",
		"negative min volume":  "data_path: x.csv\nmin_volume: -1\n",
		"max below min price":  "data_path: x.csv\nmin_price: 10\nmax_price: 5\n",
		"duplicate strategies": "data_path: x.csv\nstrategies:\n  - {strategy_id: a, type: equal_weight}\n  - {strategy_id: a, type: equal_weight}\n",
	}
	for name, body := range cases {
		path := writeFile(t, t.TempDir(), "run.yaml", body)
		_, err := Load(path)
		assert.ErrorIs(t, err, model.ErrConfig, name)
	}
}

func TestParticipationZeroDisablesCap(t *testing.T) {
	path := writeFile(t, t.TempDir(), "run.yaml", "data_path: x.csv\nmax_trade_participation: 0\n")
	c, err := Load(path)
	require.NoError(t, err)
	s, err := c.Settings()
	require.NoError(t, err)
	assert.Equal(t, 0.0, s.MaxTradeParticipation)
}

func TestMerge(t *testing.T) {
	seed := int64(7)
	base := Config{DataPath: "a.csv", InitialCapital: 100, Engine: "streaming", FeeBps: 1, MinVolume: 100, CreditDividends: true}
	over := Config{InitialCapital: 500, Engine: "in_memory", Seed: &seed,
		Strategies: []strategy.Spec{{ID: "x", Type: strategy.KindEqualWeight}}}

	got, err := Merge(base, over, "initial_capital", "engine", "seed", "strategies")
	require.NoError(t, err)
	assert.Equal(t, "a.csv", got.DataPath)
	assert.Equal(t, 500.0, got.InitialCapital)
	assert.Equal(t, "in_memory", got.Engine)
	assert.Equal(t, 1.0, got.FeeBps)
	assert.Equal(t, int64(7), *got.Seed)
	assert.True(t, got.CreditDividends)
	assert.Len(t, got.Strategies, 1)

	// Named keys are copied even when the override holds the zero value.
	got, err = Merge(base, Config{}, "fee_bps", "initial_capital", "min_volume", "credit_dividends")
	require.NoError(t, err)
	assert.Zero(t, got.FeeBps)
	assert.Zero(t, got.InitialCapital)
	assert.Zero(t, got.MinVolume)
	assert.False(t, got.CreditDividends)
	assert.Equal(t, "a.csv", got.DataPath)

	_, err = Merge(base, over, "nope")
	assert.ErrorIs(t, err, model.ErrConfig)
}

func TestLoadUncheckedBadYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "run.yaml", "data_path: [unterminated\n")
	_, err := LoadUnchecked(path)
	assert.ErrorIs(t, err, model.ErrConfig)
}
