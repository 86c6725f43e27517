package data

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-backtest/internal/model"
	"portfolio-backtest/internal/strategy"
)

func TestLoadStrategyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strategies.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"strategies": [
			{"strategy_id": "eq", "type": "equal_weight", "rebalance_frequency": "monthly"},
			{"strategy_id": "rnd", "type": "random_n", "params": {"n": 3, "seed": 5}}
		]
	}`), 0644))

	specs, err := LoadStrategyFile(path)
	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Equal(t, "monthly", specs[0].RebalanceFrequency)
	assert.Equal(t, json.Number("3"), specs[1].Params["n"])

	built, err := strategy.BuildAll(specs, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(5), built[1].Resolver.(*strategy.RandomN).Seed)
}

func TestParseStrategiesRejects(t *testing.T) {
	cases := map[string]string{
		"not object":    `[]`,
		"no list":       `{"other": []}`,
		"empty list":    `{"strategies": []}`,
		"missing id":    `{"strategies": [{"type": "equal_weight"}]}`,
		"missing type":  `{"strategies": [{"strategy_id": "a"}]}`,
		"params list":   `{"strategies": [{"strategy_id": "a", "type": "equal_weight", "params": [1]}]}`,
		"duplicate ids": `{"strategies": [{"strategy_id": "a", "type": "equal_weight"}, {"strategy_id": "a", "type": "equal_weight"}]}`,
	}
	for name, body := range cases {
		_, err := ParseStrategies([]byte(body))
		assert.ErrorIs(t, err, model.ErrConfig, name)
	}
}
