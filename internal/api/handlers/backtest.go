package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"portfolio-backtest/internal/api/middleware"
	"portfolio-backtest/internal/api/models"
	"portfolio-backtest/internal/backtest"
	"portfolio-backtest/internal/config"
	"portfolio-backtest/internal/data"
	"portfolio-backtest/internal/logger"
)

const (
	defaultPageLimit = 500
	maxPageLimit     = 5000
)

// BacktestHandler handles backtest-related requests
type BacktestHandler struct {
	dataDir string
	cache   *data.RunCache[*backtest.Result]
}

// NewBacktestHandler creates a new backtest handler serving datasets from
// dataDir. Completed runs are kept in cache for record paging; a nil cache
// disables it.
func NewBacktestHandler(dataDir string, cache *data.RunCache[*backtest.Result]) *BacktestHandler {
	return &BacktestHandler{dataDir: dataDir, cache: cache}
}

// RunBacktest handles POST /api/v1/backtest
func (h *BacktestHandler) RunBacktest(c *gin.Context) {
	var req models.BacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Abort(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	path, err := data.ResolveDataset(h.dataDir, req.DataSource.Dataset)
	if err != nil {
		middleware.Abort(c, http.StatusNotFound, "DATASET_NOT_FOUND", err.Error())
		return
	}

	cfg := buildConfig(path, req)
	q, err := cfg.Request()
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	log := logger.FromContext(c.Request.Context())
	engine := backtest.New(backtest.WithLogger(log))
	start := time.Now()
	result, err := engine.Execute(c.Request.Context(), q)
	if err != nil {
		log.Warnw("backtest failed", "dataset", req.DataSource.Dataset, "error", err)
		middleware.AbortWithError(c, err)
		return
	}

	id := ""
	if h.cache != nil {
		id = h.cache.Put(result)
	}
	log.Infow("backtest complete",
		"id", id,
		"dataset", req.DataSource.Dataset,
		"strategies", len(result.StrategyIDs),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	c.JSON(http.StatusOK, buildResponse(id, result, req.Options))
}

// GetRecords handles GET /api/v1/backtest/:id/records
func (h *BacktestHandler) GetRecords(c *gin.Context) {
	id := c.Param("id")
	result, page, ok := h.lookup(c)
	if !ok {
		return
	}

	var all []models.DailyRecord
	for _, sid := range result.StrategyIDs {
		if page.StrategyID != "" && sid != page.StrategyID {
			continue
		}
		for _, r := range result.Records[sid] {
			all = append(all, toRecord(r))
		}
	}
	lo, hi := pageBounds(len(all), page)
	c.JSON(http.StatusOK, models.RecordsResponse{
		ID:      id,
		Total:   len(all),
		Offset:  lo,
		Limit:   page.Limit,
		Records: append([]models.DailyRecord{}, all[lo:hi]...),
	})
}

// GetTrades handles GET /api/v1/backtest/:id/trades
func (h *BacktestHandler) GetTrades(c *gin.Context) {
	id := c.Param("id")
	result, page, ok := h.lookup(c)
	if !ok {
		return
	}

	var all []models.Trade
	for _, t := range result.Trades {
		if page.StrategyID != "" && t.StrategyID != page.StrategyID {
			continue
		}
		all = append(all, toTrade(t))
	}
	lo, hi := pageBounds(len(all), page)
	c.JSON(http.StatusOK, models.TradesResponse{
		ID:     id,
		Total:  len(all),
		Offset: lo,
		Limit:  page.Limit,
		Trades: append([]models.Trade{}, all[lo:hi]...),
	})
}

// lookup resolves the cached run and page query, writing the error response
// itself when either is unusable.
func (h *BacktestHandler) lookup(c *gin.Context) (*backtest.Result, models.PageQuery, bool) {
	var page models.PageQuery
	if err := c.ShouldBindQuery(&page); err != nil {
		middleware.Abort(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return nil, page, false
	}
	if page.Offset < 0 {
		middleware.Abort(c, http.StatusBadRequest, "INVALID_REQUEST", "offset must be >= 0")
		return nil, page, false
	}
	if page.Limit <= 0 {
		page.Limit = defaultPageLimit
	}
	if page.Limit > maxPageLimit {
		page.Limit = maxPageLimit
	}

	if h.cache == nil {
		middleware.Abort(c, http.StatusNotFound, "RUN_NOT_FOUND", "run caching is disabled")
		return nil, page, false
	}
	result, ok := h.cache.Get(c.Param("id"))
	if !ok {
		middleware.Abort(c, http.StatusNotFound, "RUN_NOT_FOUND", "no cached run with id "+c.Param("id"))
		return nil, page, false
	}
	if page.StrategyID != "" {
		if _, known := result.Records[page.StrategyID]; !known {
			middleware.Abort(c, http.StatusNotFound, "STRATEGY_NOT_FOUND", "run has no strategy "+page.StrategyID)
			return nil, page, false
		}
	}
	return result, page, true
}

func pageBounds(total int, page models.PageQuery) (int, int) {
	lo := page.Offset
	if lo > total {
		lo = total
	}
	hi := lo + page.Limit
	if hi > total {
		hi = total
	}
	return lo, hi
}

// buildConfig maps the request onto the same run configuration the CLI
// reads from YAML, so both surfaces share defaults and validation.
func buildConfig(dataPath string, req models.BacktestRequest) *config.Config {
	ds := req.DataSource
	rc := req.Config
	cfg := &config.Config{
		DataPath:              dataPath,
		StartDate:             ds.StartDate,
		EndDate:               ds.EndDate,
		Engine:                rc.Engine,
		InitialCapital:        rc.InitialCapital,
		ContributionAmount:    rc.ContributionAmount,
		ContributionFrequency: rc.ContributionFrequency,
		FeeBps:                rc.FeeBps,
		FeeFixed:              rc.FeeFixed,
		SlippageBps:           rc.SlippageBps,
		Seed:                  rc.Seed,
		CreditDividends:       rc.CreditDividends,
		MaxTradeParticipation: rc.MaxTradeParticipation,
		MinPrice:              ds.MinPrice,
		MaxPrice:              ds.MaxPrice,
		MinVolume:             ds.MinVolume,
		PriceSeriesMode:       ds.PriceSeriesMode,
		Strategies:            rc.Strategies,
	}
	cfg.ApplyDefaults()
	return cfg
}

func buildResponse(id string, result *backtest.Result, opts models.BacktestOptions) models.BacktestResponse {
	resp := models.BacktestResponse{
		ID:     id,
		Status: "completed",
	}

	summaries := result.Summaries()
	for _, s := range summaries {
		resp.Summaries = append(resp.Summaries, models.StrategySummary{
			StrategyID:           s.StrategyID,
			StartDate:            s.StartDate,
			EndDate:              s.EndDate,
			FinalEquity:          s.FinalEquity,
			TotalContributions:   s.TotalContributions,
			NetProfit:            s.NetProfit,
			CAGR:                 s.CAGR,
			MaxDrawdown:          s.MaxDrawdown,
			AnnualizedVolatility: s.AnnualizedVolatility,
			SharpeProxy:          s.SharpeProxy,
			TotalTrades:          s.TotalTrades,
			AvgTurnover:          s.AvgTurnover,
		})
		if resp.Window.Start.IsZero() || s.StartDate.Before(resp.Window.Start) {
			resp.Window.Start = s.StartDate
		}
		if s.EndDate.After(resp.Window.End) {
			resp.Window.End = s.EndDate
		}
	}

	for i, s := range result.Ranking() {
		resp.Ranking = append(resp.Ranking, models.RankEntry{
			Rank:        i + 1,
			StrategyID:  s.StrategyID,
			FinalEquity: s.FinalEquity,
		})
	}

	if opts.IncludeAnnual {
		for _, a := range result.AnnualSummaries() {
			resp.Annual = append(resp.Annual, models.AnnualSummary{
				StrategyID:           a.StrategyID,
				Year:                 a.Year,
				StartEquity:          a.StartEquity,
				EndEquity:            a.EndEquity,
				NetContributionsYear: a.NetContributionsYear,
				ReturnYear:           a.ReturnYear,
				MaxDrawdownYear:      a.MaxDrawdownYear,
				VolatilityYear:       a.VolatilityYear,
			})
		}
	}

	if opts.IncludeRecords {
		for _, sid := range result.StrategyIDs {
			for _, r := range result.Records[sid] {
				resp.Records = append(resp.Records, toRecord(r))
			}
		}
	}
	return resp
}

func toRecord(r backtest.DailyRecord) models.DailyRecord {
	return models.DailyRecord{
		Date:                    r.Date,
		StrategyID:              r.StrategyID,
		Cash:                    r.Cash,
		PositionsMarketValue:    r.PositionsMarketValue,
		TotalEquity:             r.TotalEquity,
		DailyReturn:             r.DailyReturn,
		CumulativeContributions: r.CumulativeContributions,
		CumulativeDividends:     r.CumulativeDividends,
		TradeCountDay:           r.TradeCountDay,
		TurnoverDay:             r.TurnoverDay,
	}
}

func toTrade(t backtest.DatedTrade) models.Trade {
	return models.Trade{
		Date:          t.Date,
		StrategyID:    t.StrategyID,
		Symbol:        t.Fill.Symbol,
		Side:          string(t.Fill.Side),
		Shares:        t.Fill.Shares,
		Price:         t.Fill.Price,
		GrossValue:    t.Fill.GrossValue,
		SlippageCost:  t.Fill.SlippageCost,
		FeeCost:       t.Fill.FeeCost,
		NetCashImpact: t.Fill.NetCashImpact,
	}
}
