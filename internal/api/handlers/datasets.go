package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"portfolio-backtest/internal/api/middleware"
	"portfolio-backtest/internal/api/models"
	"portfolio-backtest/internal/data"
)

// DatasetHandler lists the market data files the server can backtest.
type DatasetHandler struct {
	dataDir string
}

func NewDatasetHandler(dataDir string) *DatasetHandler {
	return &DatasetHandler{dataDir: dataDir}
}

// ListDatasets handles GET /api/v1/datasets
func (h *DatasetHandler) ListDatasets(c *gin.Context) {
	found, err := data.ListDatasets(h.dataDir)
	if err != nil {
		middleware.Abort(c, http.StatusInternalServerError, "DATA_DIR_ERROR", err.Error())
		return
	}
	datasets := make([]models.DatasetInfo, 0, len(found))
	for _, d := range found {
		datasets = append(datasets, models.DatasetInfo{
			Name:       d.Name,
			SizeBytes:  d.SizeBytes,
			ModifiedAt: d.ModifiedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"datasets": datasets})
}
