package backtest

import (
	"context"
	"strings"
	"time"

	"portfolio-backtest/internal/data"
	"portfolio-backtest/internal/model"
	"portfolio-backtest/internal/strategy"
)

// EngineKind selects which simulation loop serves a request.
type EngineKind string

const (
	EngineStreaming EngineKind = "streaming"
	EngineInMemory  EngineKind = "in_memory"
)

// ParseEngine accepts streaming|in_memory; empty means streaming.
func ParseEngine(s string) (EngineKind, error) {
	switch k := EngineKind(strings.ToLower(strings.TrimSpace(strings.ReplaceAll(s, "-", "_")))); k {
	case "":
		return EngineStreaming, nil
	case EngineStreaming, EngineInMemory:
		return k, nil
	default:
		return "", model.ConfigErrorf("invalid engine %q", s)
	}
}

// Request is a fully resolved run: where the data is, how to read it, and
// what to simulate.
type Request struct {
	DataPath  string
	Engine    EngineKind
	PriceMode data.PriceMode
	Filters   data.Filters
	Specs     []strategy.Spec
	Settings  Settings
}

// Normalize returns q with Engine and PriceMode in canonical form.
func (q Request) Normalize() (Request, error) {
	engine, err := ParseEngine(string(q.Engine))
	if err != nil {
		return q, err
	}
	mode, err := data.ParsePriceMode(string(q.PriceMode))
	if err != nil {
		return q, err
	}
	q.Engine = engine
	q.PriceMode = mode
	return q, nil
}

// Validate rejects combinations no engine can serve.
func (q Request) Validate() error {
	if strings.TrimSpace(q.DataPath) == "" {
		return model.ConfigErrorf("data_path is required")
	}
	q, err := q.Normalize()
	if err != nil {
		return err
	}
	if q.Engine != EngineInMemory && q.PriceMode == data.PriceRawReconstructed {
		return model.ConfigErrorf("raw_reconstructed price mode is only supported with the in_memory engine")
	}
	if err := q.Filters.Validate(); err != nil {
		return err
	}
	return q.Settings.Validate()
}

// Execute validates q and dispatches it to the selected engine. The in-memory
// path only loads the tickers explicit_symbols strategies can ever hold when
// every strategy is of that type.
func (e *Engine) Execute(ctx context.Context, q Request) (*Result, error) {
	q, err := q.Normalize()
	if err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	strategies, err := strategy.BuildAll(q.Specs, q.Settings.Seed)
	if err != nil {
		return nil, err
	}

	if q.Engine != EngineInMemory {
		return e.RunStreaming(ctx, q.DataPath, q.Filters, q.Specs, q.Settings)
	}

	filters := q.Filters
	if universe := strategy.ExplicitUniverse(strategies); universe != nil {
		filters = filters.WithSymbols(universe)
	}
	market, err := data.LoadMarketData(q.DataPath, data.LoadOptions{Filters: filters, Mode: q.PriceMode, Logger: e.log})
	if err != nil {
		return nil, err
	}
	return e.Run(ctx, market, q.Specs, q.Settings)
}

// Manifest describes q for run_manifest.json.
func (q Request) Manifest() map[string]any {
	ids := make([]string, 0, len(q.Specs))
	for _, s := range q.Specs {
		ids = append(ids, s.ID)
	}
	if len(ids) == 0 {
		ids = append(ids, strategy.DefaultStrategyID)
	}
	dateOrEmpty := func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format(time.DateOnly)
	}
	return map[string]any{
		"data_path":               q.DataPath,
		"engine":                  string(q.Engine),
		"price_series_mode":       string(q.PriceMode),
		"start_date":              dateOrEmpty(q.Filters.Range.Start),
		"end_date":                dateOrEmpty(q.Filters.Range.End),
		"min_price":               q.Filters.MinPrice,
		"max_price":               q.Filters.MaxPrice,
		"min_volume":              q.Filters.MinVolume,
		"initial_capital":         q.Settings.InitialCapital,
		"contribution_amount":     q.Settings.ContributionAmount,
		"contribution_frequency":  string(q.Settings.ContributionFrequency),
		"fee_bps":                 q.Settings.Costs.FeeBps,
		"fee_fixed":               q.Settings.Costs.FeeFixed,
		"slippage_bps":            q.Settings.Costs.SlippageBps,
		"seed":                    q.Settings.Seed,
		"credit_dividends":        q.Settings.CreditDividends,
		"max_trade_participation": q.Settings.MaxTradeParticipation,
		"strategy_ids":            ids,
	}
}
