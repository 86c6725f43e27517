package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"portfolio-backtest/internal/api/models"
	"portfolio-backtest/internal/model"
)

// ErrorHandler middleware handles panics and errors
func ErrorHandler(log *zap.SugaredLogger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Errorw("panic recovered", "path", c.Request.URL.Path, "panic", fmt.Sprint(recovered))
		if msg, ok := recovered.(string); ok {
			Abort(c, http.StatusInternalServerError, "INTERNAL_ERROR", msg)
			return
		}
		Abort(c, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
	})
}

// Classify maps an error to its HTTP status and error code. Configuration
// problems are the caller's fault; malformed market data is unprocessable.
func Classify(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrConfig):
		return http.StatusBadRequest, "INVALID_CONFIG"
	case errors.Is(err, model.ErrDataFormat):
		return http.StatusUnprocessableEntity, "INVALID_DATA"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

// AbortWithError writes err in the error envelope using Classify.
func AbortWithError(c *gin.Context, err error) {
	status, code := Classify(err)
	Abort(c, status, code, err.Error())
}

// Abort writes an explicit status and code in the error envelope.
func Abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}
