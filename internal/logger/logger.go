package logger

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger. BACKTEST_ENV=dev gives a human-readable
// development logger; anything else gives production JSON.
func New() *zap.SugaredLogger {
	var (
		logger *zap.Logger
		err    error
	)
	opts := []zap.Option{
		zap.AddStacktrace(zap.ErrorLevel),
	}

	env := os.Getenv("BACKTEST_ENV")
	if strings.ToLower(env) == "dev" {
		logger, err = zap.NewDevelopment(opts...)
	} else {
		opts = append(opts, zap.Fields(zap.Field{
			Key:    "BACKTEST_ENV",
			Type:   zapcore.StringType,
			String: env,
		}))
		logger, err = zap.NewProduction(opts...)
	}

	if err != nil {
		panic(fmt.Errorf("failed to initialize logger: %w", err))
	}

	return logger.Sugar()
}

// Nop discards everything.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

type ctxKey struct{}

func WithContext(ctx context.Context, log *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// FromContext returns the logger stored on ctx, or a no-op logger.
func FromContext(ctx context.Context) *zap.SugaredLogger {
	if log, ok := ctx.Value(ctxKey{}).(*zap.SugaredLogger); ok && log != nil {
		return log
	}
	return Nop()
}
