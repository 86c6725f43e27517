package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"portfolio-backtest/internal/api/models"
	"portfolio-backtest/internal/model"
	"portfolio-backtest/internal/strategy"
)

// StrategyHandler handles strategy-related requests
type StrategyHandler struct{}

// NewStrategyHandler creates a new strategy handler
func NewStrategyHandler() *StrategyHandler {
	return &StrategyHandler{}
}

var rebalanceParam = models.ParameterInfo{
	Name:        "rebalance_frequency",
	Type:        "string",
	Description: "How often to rebalance to target weights: daily, monthly, yearly or never",
	Default:     string(model.RebalanceDaily),
}

var rollingWindowParam = models.ParameterInfo{
	Name:        "rolling_window",
	Type:        "int",
	Description: "Trailing window, in observations, for rolling dollar volume",
	Default:     strategy.DefaultRollingWindow,
}

var metricParam = models.ParameterInfo{
	Name:        "metric",
	Type:        "string",
	Description: "Ranking key: close_price, dollar_volume_1d or rolling_dollar_volume[_<W>d]",
	Default:     string(strategy.MetricClosePrice),
}

var nParam = models.ParameterInfo{
	Name:        "n",
	Type:        "int",
	Description: "Number of symbols to hold",
	Required:    true,
}

// strategyCatalog describes every strategy type the engine can build.
var strategyCatalog = map[strategy.Kind]models.StrategyInfo{
	strategy.KindEqualWeight: {
		Description: "Holds every priced symbol at equal weight.",
		Parameters:  []models.ParameterInfo{rebalanceParam},
	},
	strategy.KindSP500Proxy: {
		Description: "Holds the top names by trailing dollar volume, weighted by that volume.",
		Parameters: []models.ParameterInfo{
			rebalanceParam,
			{Name: "top_n", Type: "int", Description: "Number of names to hold", Default: 500},
			rollingWindowParam,
		},
	},
	strategy.KindExplicitSymbols: {
		Description: "Holds a fixed list of symbols at equal weight, skipping any without a price that day.",
		Parameters: []models.ParameterInfo{
			rebalanceParam,
			{Name: "symbols", Type: "[]string", Description: "Tickers to hold (case-insensitive)", Required: true},
		},
	},
	strategy.KindRandomN: {
		Description: "Holds n symbols drawn at random each rebalance, reproducible per seed and date.",
		Parameters: []models.ParameterInfo{
			rebalanceParam,
			nParam,
			{Name: "seed", Type: "int", Description: "Random seed; defaults to the run seed"},
		},
	},
	strategy.KindTopNRanked: {
		Description: "Holds the n highest-ranked symbols by a metric.",
		Parameters: []models.ParameterInfo{
			rebalanceParam,
			nParam,
			metricParam,
			rollingWindowParam,
			{Name: "proportional", Type: "bool", Description: "Weight by metric value instead of equally", Default: false},
		},
	},
	strategy.KindBottomNRanked: {
		Description: "Holds the n lowest-ranked symbols by a metric at equal weight.",
		Parameters: []models.ParameterInfo{
			rebalanceParam,
			nParam,
			metricParam,
			rollingWindowParam,
		},
	},
}

// ListStrategies handles GET /api/v1/strategies
func (h *StrategyHandler) ListStrategies(c *gin.Context) {
	kinds := strategy.Kinds()
	strategies := make([]models.StrategyInfo, 0, len(kinds))
	for _, k := range kinds {
		info := strategyCatalog[k]
		info.Name = string(k)
		strategies = append(strategies, info)
	}
	c.JSON(http.StatusOK, gin.H{"strategies": strategies})
}
