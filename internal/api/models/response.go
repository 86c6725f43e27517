package models

import "time"

// BacktestResponse represents the response from a backtest run
type BacktestResponse struct {
	ID        string            `json:"id,omitempty"`
	Status    string            `json:"status"`
	Window    TimeWindow        `json:"backtest_window"`
	Ranking   []RankEntry       `json:"ranking"`
	Summaries []StrategySummary `json:"summaries"`
	Annual    []AnnualSummary   `json:"annual,omitempty"`
	Records   []DailyRecord     `json:"records,omitempty"`
}

// TimeWindow represents a date range
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// RankEntry is one strategy's place in the final-equity ranking.
type RankEntry struct {
	Rank        int     `json:"rank"`
	StrategyID  string  `json:"strategy_id"`
	FinalEquity float64 `json:"final_equity"`
}

// StrategySummary contains whole-run metrics for one strategy
type StrategySummary struct {
	StrategyID           string    `json:"strategy_id"`
	StartDate            time.Time `json:"start_date"`
	EndDate              time.Time `json:"end_date"`
	FinalEquity          float64   `json:"final_equity"`
	TotalContributions   float64   `json:"total_contributions"`
	NetProfit            float64   `json:"net_profit"`
	CAGR                 float64   `json:"cagr"`
	MaxDrawdown          float64   `json:"max_drawdown"`
	AnnualizedVolatility float64   `json:"annualized_volatility"`
	SharpeProxy          float64   `json:"sharpe_proxy"`
	TotalTrades          int       `json:"total_trades"`
	AvgTurnover          float64   `json:"avg_turnover"`
}

// AnnualSummary contains one calendar year of one strategy
type AnnualSummary struct {
	StrategyID           string  `json:"strategy_id"`
	Year                 int     `json:"year"`
	StartEquity          float64 `json:"start_equity"`
	EndEquity            float64 `json:"end_equity"`
	NetContributionsYear float64 `json:"net_contributions_year"`
	ReturnYear           float64 `json:"return_year"`
	MaxDrawdownYear      float64 `json:"max_drawdown_year"`
	VolatilityYear       float64 `json:"volatility_year"`
}

// DailyRecord represents one strategy's end-of-day snapshot
type DailyRecord struct {
	Date                    time.Time `json:"date"`
	StrategyID              string    `json:"strategy_id"`
	Cash                    float64   `json:"cash"`
	PositionsMarketValue    float64   `json:"positions_market_value"`
	TotalEquity             float64   `json:"total_equity"`
	DailyReturn             float64   `json:"daily_return"`
	CumulativeContributions float64   `json:"cumulative_contributions"`
	CumulativeDividends     float64   `json:"cumulative_dividends"`
	TradeCountDay           int       `json:"trade_count_day"`
	TurnoverDay             float64   `json:"turnover_day"`
}

// Trade represents one executed fill
type Trade struct {
	Date          time.Time `json:"date"`
	StrategyID    string    `json:"strategy_id"`
	Symbol        string    `json:"symbol"`
	Side          string    `json:"side"`
	Shares        float64   `json:"shares"`
	Price         float64   `json:"price"`
	GrossValue    float64   `json:"gross_value"`
	SlippageCost  float64   `json:"slippage_cost"`
	FeeCost       float64   `json:"fee_cost"`
	NetCashImpact float64   `json:"net_cash_impact"`
}

// RecordsResponse is a page of cached daily records
type RecordsResponse struct {
	ID      string        `json:"id"`
	Total   int           `json:"total"`
	Offset  int           `json:"offset"`
	Limit   int           `json:"limit"`
	Records []DailyRecord `json:"records"`
}

// TradesResponse is a page of cached trades
type TradesResponse struct {
	ID     string  `json:"id"`
	Total  int     `json:"total"`
	Offset int     `json:"offset"`
	Limit  int     `json:"limit"`
	Trades []Trade `json:"trades"`
}

// StrategyInfo contains information about a strategy type
type StrategyInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ParameterInfo `json:"parameters"`
}

// ParameterInfo describes a strategy parameter
type ParameterInfo struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"`
	Description string      `json:"description"`
	Required    bool        `json:"required,omitempty"`
	Default     interface{} `json:"default,omitempty"`
}

// DatasetInfo contains information about a dataset
type DatasetInfo struct {
	Name       string    `json:"name"`
	SizeBytes  int64     `json:"size_bytes"`
	ModifiedAt time.Time `json:"modified_at"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
