package backtest

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"portfolio-backtest/internal/analysis"
)

// OutputPaths lists the files WriteOutputs produces.
type OutputPaths struct {
	DailyEquity     string
	Trades          string
	AnnualSummary   string
	TerminalSummary string
	Manifest        string
}

func NewOutputPaths(dir string) OutputPaths {
	return OutputPaths{
		DailyEquity:     filepath.Join(dir, "daily_equity.csv"),
		Trades:          filepath.Join(dir, "trades.csv"),
		AnnualSummary:   filepath.Join(dir, "annual_summary.csv"),
		TerminalSummary: filepath.Join(dir, "terminal_summary.csv"),
		Manifest:        filepath.Join(dir, "run_manifest.json"),
	}
}

type DailyEquityRow struct {
	Date                   string `csv:"date"`
	StrategyID             string `csv:"strategy_id"`
	Cash                   string `csv:"cash"`
	PositionsMarketValue   string `csv:"positions_market_value"`
	TotalEquity            string `csv:"total_equity"`
	DailyReturn            string `csv:"daily_return"`
	CumulativeReturn       string `csv:"cumulative_return"`
	ContributionCumulative string `csv:"contribution_cumulative"`
	DividendCumulative     string `csv:"dividend_cumulative"`
	TradeCountDay          int    `csv:"trade_count_day"`
	TurnoverDay            string `csv:"turnover_day"`
}

type TradeRow struct {
	Date          string `csv:"date"`
	StrategyID    string `csv:"strategy_id"`
	Symbol        string `csv:"symbol"`
	Side          string `csv:"side"`
	Shares        string `csv:"shares"`
	Price         string `csv:"price"`
	GrossValue    string `csv:"gross_value"`
	SlippageCost  string `csv:"slippage_cost"`
	FeeCost       string `csv:"fee_cost"`
	NetCashImpact string `csv:"net_cash_impact"`
}

type AnnualSummaryRow struct {
	StrategyID           string `csv:"strategy_id"`
	Year                 int    `csv:"year"`
	StartEquity          string `csv:"start_equity"`
	EndEquity            string `csv:"end_equity"`
	NetContributionsYear string `csv:"net_contributions_year"`
	ReturnYear           string `csv:"return_year"`
	MaxDrawdownYear      string `csv:"max_drawdown_year"`
	VolatilityYear       string `csv:"volatility_year"`
}

type TerminalSummaryRow struct {
	StrategyID           string `csv:"strategy_id"`
	FinalEquity          string `csv:"final_equity"`
	TotalContributions   string `csv:"total_contributions"`
	NetProfit            string `csv:"net_profit"`
	CAGR                 string `csv:"cagr"`
	MaxDrawdown          string `csv:"max_drawdown"`
	AnnualizedVolatility string `csv:"annualized_volatility"`
	SharpeProxy          string `csv:"sharpe_proxy"`
	TotalTrades          int    `csv:"total_trades"`
	AvgTurnover          string `csv:"avg_turnover"`
}

// WriteOutputs writes the four CSV reports and the manifest under dir.
// Strategies are written in ascending id order.
func WriteOutputs(dir string, res *Result, manifest map[string]any) (OutputPaths, error) {
	paths := NewOutputPaths(dir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return paths, fmt.Errorf("failed to create output dir: %w", err)
	}

	if err := writeCSV(paths.DailyEquity, DailyEquityRows(res)); err != nil {
		return paths, err
	}
	if err := writeCSV(paths.Trades, TradeRows(res)); err != nil {
		return paths, err
	}
	if err := writeCSV(paths.AnnualSummary, annualRows(res)); err != nil {
		return paths, err
	}
	if err := writeCSV(paths.TerminalSummary, terminalRows(res)); err != nil {
		return paths, err
	}

	raw, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return paths, fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(paths.Manifest, raw, 0644); err != nil {
		return paths, fmt.Errorf("failed to write manifest: %w", err)
	}
	return paths, nil
}

func writeCSV[T any](path string, rows []T) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func sortedIDs(res *Result) []string {
	ids := append([]string(nil), res.StrategyIDs...)
	sort.Strings(ids)
	return ids
}

// DailyEquityRows renders every record with its cumulative return.
func DailyEquityRows(res *Result) []DailyEquityRow {
	var rows []DailyEquityRow
	for _, id := range sortedIDs(res) {
		recs := res.Records[id]
		if len(recs) == 0 {
			continue
		}
		first := recs[0].TotalEquity
		for _, r := range recs {
			rows = append(rows, DailyEquityRow{
				Date:                   fmtDate(r.Date),
				StrategyID:             id,
				Cash:                   fmtFloat(r.Cash),
				PositionsMarketValue:   fmtFloat(r.PositionsMarketValue),
				TotalEquity:            fmtFloat(r.TotalEquity),
				DailyReturn:            fmtFloat(r.DailyReturn),
				CumulativeReturn:       fmtFloat(analysis.CumulativeReturn(first, r.TotalEquity)),
				ContributionCumulative: fmtFloat(r.CumulativeContributions),
				DividendCumulative:     fmtFloat(r.CumulativeDividends),
				TradeCountDay:          r.TradeCountDay,
				TurnoverDay:            fmtFloat(r.TurnoverDay),
			})
		}
	}
	return rows
}

// TradeRows renders fills in execution order.
func TradeRows(res *Result) []TradeRow {
	rows := make([]TradeRow, 0, len(res.Trades))
	for _, t := range res.Trades {
		rows = append(rows, TradeRow{
			Date:          fmtDate(t.Date),
			StrategyID:    t.StrategyID,
			Symbol:        t.Fill.Symbol,
			Side:          string(t.Fill.Side),
			Shares:        fmtFloat(t.Fill.Shares),
			Price:         fmtFloat(t.Fill.Price),
			GrossValue:    fmtFloat(t.Fill.GrossValue),
			SlippageCost:  fmtFloat(t.Fill.SlippageCost),
			FeeCost:       fmtFloat(t.Fill.FeeCost),
			NetCashImpact: fmtFloat(t.Fill.NetCashImpact),
		})
	}
	return rows
}

func annualRows(res *Result) []AnnualSummaryRow {
	var rows []AnnualSummaryRow
	for _, id := range sortedIDs(res) {
		for _, y := range analysis.SummarizeYears(id, points(res.Records[id])) {
			rows = append(rows, AnnualSummaryRow{
				StrategyID:           id,
				Year:                 y.Year,
				StartEquity:          fmtFloat(y.StartEquity),
				EndEquity:            fmtFloat(y.EndEquity),
				NetContributionsYear: fmtFloat(y.NetContributionsYear),
				ReturnYear:           fmtFloat(y.ReturnYear),
				MaxDrawdownYear:      fmtFloat(y.MaxDrawdownYear),
				VolatilityYear:       fmtFloat(y.VolatilityYear),
			})
		}
	}
	return rows
}

func terminalRows(res *Result) []TerminalSummaryRow {
	counts := res.TradeCounts()
	var rows []TerminalSummaryRow
	for _, id := range sortedIDs(res) {
		s, ok := analysis.Summarize(id, points(res.Records[id]), counts[id])
		if !ok {
			continue
		}
		rows = append(rows, TerminalSummaryRow{
			StrategyID:           id,
			FinalEquity:          fmtFloat(s.FinalEquity),
			TotalContributions:   fmtFloat(s.TotalContributions),
			NetProfit:            fmtFloat(s.NetProfit),
			CAGR:                 fmtFloat(s.CAGR),
			MaxDrawdown:          fmtFloat(s.MaxDrawdown),
			AnnualizedVolatility: fmtFloat(s.AnnualizedVolatility),
			SharpeProxy:          fmtFloat(s.SharpeProxy),
			TotalTrades:          s.TotalTrades,
			AvgTurnover:          fmtFloat(s.AvgTurnover),
		})
	}
	return rows
}

func fmtDate(t time.Time) string {
	return t.Format(time.DateOnly)
}

// fmtFloat renders x with ten fixed decimal places.
func fmtFloat(x float64) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return strconv.FormatFloat(x, 'f', 10, 64)
	}
	return decimal.NewFromFloat(x).StringFixed(10)
}
