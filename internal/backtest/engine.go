package backtest

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"portfolio-backtest/internal/data"
	"portfolio-backtest/internal/model"
	"portfolio-backtest/internal/strategy"
	"portfolio-backtest/internal/trace"
)

type Engine struct {
	log      *zap.SugaredLogger
	progress bool
}

type Option func(*Engine)

// WithLogger sets the engine logger. The default discards output.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithProgress logs once per simulated calendar year.
func WithProgress(enabled bool) Option {
	return func(e *Engine) { e.progress = enabled }
}

func New(opts ...Option) *Engine {
	e := &Engine{log: zap.NewNop().Sugar()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run simulates every strategy over a fully materialized market.
// Configuration errors are returned before the first day is simulated.
func (e *Engine) Run(ctx context.Context, market *model.MarketData, specs []strategy.Spec, settings Settings) (res *Result, err error) {
	ctx, span := trace.StartSpan(ctx, "backtest.run")
	defer func() {
		trace.End(span, err, attribute.Int("strategies", len(specs)), attribute.String("engine", string(EngineInMemory)))
	}()

	if market == nil {
		return nil, fmt.Errorf("market data is nil")
	}
	r, err := newRunner(specs, settings, e.log, e.progress)
	if err != nil {
		return nil, err
	}
	e.log.Infow("starting in-memory run", "strategies", len(r.states), "dates", market.Len(), "symbols", len(market.Symbols()))

	for _, d := range market.TradingDates() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r.step(market.Day(d))
	}
	return r.finish(), nil
}

// RunStreaming simulates every strategy from a single pass over the CSV at
// path, holding only the current day in memory.
func (e *Engine) RunStreaming(ctx context.Context, path string, filters data.Filters, specs []strategy.Spec, settings Settings) (*Result, error) {
	// build first so config errors win over I/O errors
	if _, err := newRunner(specs, settings, e.log, false); err != nil {
		return nil, err
	}
	reader, err := data.OpenDayReader(path, filters)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return e.runDays(ctx, reader, specs, settings)
}

// RunStream is RunStreaming over an arbitrary reader.
func (e *Engine) RunStream(ctx context.Context, src io.Reader, filters data.Filters, specs []strategy.Spec, settings Settings) (*Result, error) {
	if _, err := newRunner(specs, settings, e.log, false); err != nil {
		return nil, err
	}
	reader, err := data.NewDayReader(src, filters)
	if err != nil {
		return nil, err
	}
	return e.runDays(ctx, reader, specs, settings)
}

func (e *Engine) runDays(ctx context.Context, reader *data.DayReader, specs []strategy.Spec, settings Settings) (res *Result, err error) {
	ctx, span := trace.StartSpan(ctx, "backtest.stream")
	defer func() {
		trace.End(span, err, attribute.Int("strategies", len(specs)), attribute.String("engine", string(EngineStreaming)))
	}()

	r, err := newRunner(specs, settings, e.log, e.progress)
	if err != nil {
		return nil, err
	}
	e.log.Infow("starting streaming run", "strategies", len(r.states))

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		day, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("day %d: %w", r.days+1, err)
		}
		r.step(day)
	}
	return r.finish(), nil
}
