package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"portfolio-backtest/internal/logger"
)

// Logger logs one line per request and puts a request-scoped logger on the
// request context.
func Logger(log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqLog := log.With("method", c.Request.Method, "path", c.Request.URL.Path)
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), reqLog))

		c.Next()

		fields := []interface{}{
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}
		if c.Writer.Status() >= 500 {
			reqLog.Errorw("request", fields...)
			return
		}
		reqLog.Infow("request", fields...)
	}
}
