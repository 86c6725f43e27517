package strategy

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-backtest/internal/model"
)

func TestBuildVariants(t *testing.T) {
	var specs []Spec
	require.NoError(t, json.Unmarshal([]byte(`[
		{"strategy_id": "eq", "type": "equal_weight"},
		{"strategy_id": "sp", "type": "sp500_proxy", "params": {"top_n": 3, "rolling_window": 20}},
		{"strategy_id": "ex", "type": "explicit_symbols", "rebalance_frequency": "monthly", "params": {"symbols": ["ko", "IBM"]}},
		{"strategy_id": "rnd", "type": "random_n", "params": {"n": 2}},
		{"strategy_id": "top", "type": "top_n_ranked", "params": {"n": 2, "metric": "rolling_dollar_volume_63d", "proportional": true}},
		{"strategy_id": "bot", "type": "bottom_n_ranked", "rebalance_frequency": "never", "params": {"n": 1, "metric": "close_price"}}
	]`), &specs))

	built, err := BuildAll(specs, 99)
	require.NoError(t, err)
	require.Len(t, built, 6)

	assert.IsType(t, EqualWeight{}, built[0].Resolver)
	assert.Equal(t, model.RebalanceDaily, built[0].Frequency)

	sp := built[1].Resolver.(*SP500Proxy)
	assert.Equal(t, 3, sp.N)
	assert.Equal(t, 20, sp.Metric.Window)
	assert.True(t, sp.Proportional)

	assert.Equal(t, []string{"IBM", "KO"}, built[2].Resolver.(*ExplicitSymbols).Symbols)
	assert.Equal(t, model.RebalanceMonthly, built[2].Frequency)

	assert.Equal(t, int64(99), built[3].Resolver.(*RandomN).Seed)
	assert.Equal(t, model.RebalanceNever, built[5].Frequency)

	assert.Equal(t, []int{20, 63}, RequiredWindows(built))
	assert.Nil(t, ExplicitUniverse(built))
}

func TestBuildRejects(t *testing.T) {
	cases := []struct {
		name string
		spec Spec
	}{
		{"unknown type", Spec{ID: "x", Type: "momentum"}},
		{"missing id", Spec{Type: KindEqualWeight}},
		{"missing n", Spec{ID: "x", Type: KindRandomN}},
		{"zero n", Spec{ID: "x", Type: KindTopNRanked, Params: map[string]any{"n": 0}}},
		{"negative n", Spec{ID: "x", Type: KindBottomNRanked, Params: map[string]any{"n": -2}}},
		{"fractional n", Spec{ID: "x", Type: KindRandomN, Params: map[string]any{"n": 1.5}}},
		{"bad metric", Spec{ID: "x", Type: KindTopNRanked, Params: map[string]any{"n": 1, "metric": "pe"}}},
		{"bad frequency", Spec{ID: "x", Type: KindEqualWeight, RebalanceFrequency: "weekly"}},
		{"bad symbols", Spec{ID: "x", Type: KindExplicitSymbols, Params: map[string]any{"symbols": "AAA"}}},
		{"zero top_n", Spec{ID: "x", Type: KindSP500Proxy, Params: map[string]any{"top_n": 0}}},
	}
	for _, tc := range cases {
		_, err := Build(tc.spec, 42)
		assert.ErrorIs(t, err, model.ErrConfig, tc.name)
	}
}

func TestBuildRejectsOutOfRangeN(t *testing.T) {
	for _, n := range []any{uint64(math.MaxInt64) + 1, uint64(math.MaxUint64), 1e19, -1e19} {
		_, err := Build(Spec{ID: "x", Type: KindRandomN, Params: map[string]any{"n": n}}, 42)
		require.ErrorIs(t, err, model.ErrConfig)
		assert.Contains(t, err.Error(), "out of range", n)
	}

	s, err := Build(Spec{ID: "x", Type: KindRandomN, Params: map[string]any{"n": uint64(3)}}, 42)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Resolver.(*RandomN).N)
}

func TestBuildAllDuplicatesAndDefault(t *testing.T) {
	_, err := BuildAll([]Spec{
		{ID: "a", Type: KindEqualWeight},
		{ID: "a", Type: KindEqualWeight},
	}, 42)
	assert.ErrorIs(t, err, model.ErrConfig)

	built, err := BuildAll(nil, 42)
	require.NoError(t, err)
	require.Len(t, built, 1)
	assert.Equal(t, DefaultStrategyID, built[0].ID)
}

func TestRandomNSeedOverride(t *testing.T) {
	s, err := Build(Spec{ID: "r", Type: KindRandomN, Params: map[string]any{"n": 3, "seed": 7}}, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(7), s.Resolver.(*RandomN).Seed)
}

func TestExplicitUniverse(t *testing.T) {
	built, err := BuildAll([]Spec{
		{ID: "a", Type: KindExplicitSymbols, Params: map[string]any{"symbols": []any{"ko", "ibm"}}},
		{ID: "b", Type: KindExplicitSymbols, Params: map[string]any{"symbols": []string{"KO", "GD"}}},
	}, 42)
	require.NoError(t, err)
	assert.Equal(t, []string{"GD", "IBM", "KO"}, ExplicitUniverse(built))
}
