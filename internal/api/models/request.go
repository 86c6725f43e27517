package models

import "portfolio-backtest/internal/strategy"

// BacktestRequest represents the request body for running a backtest
type BacktestRequest struct {
	DataSource DataSourceConfig `json:"data_source" binding:"required"`
	Config     BacktestConfig   `json:"config"`
	Options    BacktestOptions  `json:"options,omitempty"`
}

// DataSourceConfig selects a dataset under the server's data dir and the
// rows admitted from it.
type DataSourceConfig struct {
	Dataset         string   `json:"dataset" binding:"required"`
	StartDate       string   `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate         string   `json:"end_date,omitempty"`   // YYYY-MM-DD
	PriceSeriesMode string   `json:"price_series_mode,omitempty"`
	MinPrice        *float64 `json:"min_price,omitempty"`
	MaxPrice        *float64 `json:"max_price,omitempty"`
	MinVolume       float64  `json:"min_volume,omitempty"`
}

// BacktestConfig carries run settings and the strategies to simulate side
// by side.
type BacktestConfig struct {
	Engine                string          `json:"engine,omitempty"` // streaming (default) | in_memory
	InitialCapital        float64         `json:"initial_capital"`
	ContributionAmount    float64         `json:"contribution_amount,omitempty"`
	ContributionFrequency string          `json:"contribution_frequency,omitempty"`
	FeeBps                float64         `json:"fee_bps,omitempty"`
	FeeFixed              float64         `json:"fee_fixed,omitempty"`
	SlippageBps           float64         `json:"slippage_bps,omitempty"`
	Seed                  *int64          `json:"seed,omitempty"`
	CreditDividends       bool            `json:"credit_dividends,omitempty"`
	MaxTradeParticipation *float64        `json:"max_trade_participation,omitempty"`
	Strategies            []strategy.Spec `json:"strategies,omitempty"`
}

// BacktestOptions contains optional response shaping
type BacktestOptions struct {
	IncludeRecords bool `json:"include_records,omitempty"` // default: false
	IncludeAnnual  bool `json:"include_annual,omitempty"`
}

// PageQuery is the pagination for record and trade listings.
type PageQuery struct {
	StrategyID string `form:"strategy_id"`
	Offset     int    `form:"offset"`
	Limit      int    `form:"limit"` // default: 500
}
