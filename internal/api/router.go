package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"portfolio-backtest/internal/api/handlers"
	"portfolio-backtest/internal/api/middleware"
	"portfolio-backtest/internal/backtest"
	"portfolio-backtest/internal/data"
	"portfolio-backtest/internal/logger"
)

// RouterOptions wires the router's dependencies.
type RouterOptions struct {
	DataDir string
	Cache   *data.RunCache[*backtest.Result]
	Logger  *zap.SugaredLogger
}

// NewRouter builds the HTTP surface: /health plus the /api/v1 group.
func NewRouter(opts RouterOptions) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	router := gin.New()

	router.Use(middleware.CORS())
	router.Use(middleware.Logger(opts.Logger))
	router.Use(middleware.ErrorHandler(opts.Logger))

	backtestHandler := handlers.NewBacktestHandler(opts.DataDir, opts.Cache)
	strategyHandler := handlers.NewStrategyHandler()
	datasetHandler := handlers.NewDatasetHandler(opts.DataDir)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		v1.POST("/backtest", backtestHandler.RunBacktest)
		v1.GET("/backtest/:id/records", backtestHandler.GetRecords)
		v1.GET("/backtest/:id/trades", backtestHandler.GetTrades)

		v1.GET("/strategies", strategyHandler.ListStrategies)
		v1.GET("/datasets", datasetHandler.ListDatasets)
	}

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			middleware.Abort(c, http.StatusNotFound, "NOT_FOUND", "Not found")
			return
		}
		c.String(http.StatusNotFound, "404 page not found")
	})

	return router
}
