package data

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"portfolio-backtest/internal/model"
	"portfolio-backtest/internal/strategy"
)

// StrategyFile is the JSON shape of a strategy file.
//
// Example:
//
//	{
//	  "strategies": [
//	    {"strategy_id": "eq", "type": "equal_weight", "rebalance_frequency": "monthly"}
//	  ]
//	}
type StrategyFile struct {
	Strategies []strategy.Spec `json:"strategies"`
}

// LoadStrategyFile reads and structurally validates a strategy file.
func LoadStrategyFile(path string) ([]strategy.Spec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read strategy file: %w", err)
	}
	return ParseStrategies(raw)
}

// ParseStrategies decodes a strategy file body. It checks shape only; resolver
// parameters are validated by strategy.Build.
func ParseStrategies(raw []byte) ([]strategy.Spec, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, model.ConfigErrorf("strategy file is not a JSON object: %v", err)
	}
	list, ok := top["strategies"]
	if !ok {
		return nil, model.ConfigErrorf("strategy file must contain a 'strategies' list")
	}

	var items []map[string]json.RawMessage
	if err := json.Unmarshal(list, &items); err != nil {
		return nil, model.ConfigErrorf("'strategies' must be a list of objects")
	}
	if len(items) == 0 {
		return nil, model.ConfigErrorf("'strategies' must not be empty")
	}

	seen := make(map[string]struct{}, len(items))
	specs := make([]strategy.Spec, 0, len(items))
	for i, item := range items {
		if p, ok := item["params"]; ok && !bytes.Equal(bytes.TrimSpace(p), []byte("null")) {
			trimmed := bytes.TrimSpace(p)
			if len(trimmed) == 0 || trimmed[0] != '{' {
				return nil, model.ConfigErrorf("strategy #%d: 'params' must be an object", i)
			}
		}
		var spec strategy.Spec
		body, _ := json.Marshal(item)
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		if err := dec.Decode(&spec); err != nil {
			return nil, model.ConfigErrorf("strategy #%d: %v", i, err)
		}
		spec.ID = strings.TrimSpace(spec.ID)
		if spec.ID == "" {
			return nil, model.ConfigErrorf("strategy #%d: 'strategy_id' is required", i)
		}
		if strings.TrimSpace(string(spec.Type)) == "" {
			return nil, model.ConfigErrorf("strategy %s: 'type' is required", spec.ID)
		}
		if _, dup := seen[spec.ID]; dup {
			return nil, model.ConfigErrorf("duplicate strategy_id %q", spec.ID)
		}
		seen[spec.ID] = struct{}{}
		specs = append(specs, spec)
	}
	return specs, nil
}
