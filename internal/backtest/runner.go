package backtest

import (
	"time"

	"go.uber.org/zap"

	"portfolio-backtest/internal/analysis"
	"portfolio-backtest/internal/model"
	"portfolio-backtest/internal/strategy"
)

// strategyState is the mutable per-strategy bundle advanced once per day.
type strategyState struct {
	strategy  *strategy.Strategy
	portfolio *model.Portfolio

	lastRebalance    *time.Time
	lastContribution *time.Time
	previousEquity   *float64
}

// runner holds the day step both engines share. Feeding it the same sequence
// of DaySlices yields the same Result regardless of where the days came from.
type runner struct {
	settings Settings
	states   []*strategyState
	rolling  *analysis.RollingStore
	result   *Result

	log      *zap.SugaredLogger
	progress bool
	lastYear int
	days     int
}

func newRunner(specs []strategy.Spec, settings Settings, log *zap.SugaredLogger, progress bool) (*runner, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	strategies, err := strategy.BuildAll(specs, settings.Seed)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(strategies))
	states := make([]*strategyState, len(strategies))
	for i, s := range strategies {
		ids[i] = s.ID
		states[i] = &strategyState{strategy: s, portfolio: model.NewPortfolio(settings.InitialCapital)}
	}

	return &runner{
		settings: settings,
		states:   states,
		rolling:  analysis.NewRollingStore(strategy.RequiredWindows(strategies)...),
		result:   newResult(ids),
		log:      log,
		progress: progress,
	}, nil
}

// step advances every strategy through one trading day.
func (r *runner) step(day *model.DaySlice) {
	date := day.Date
	if r.progress && date.Year() != r.lastYear {
		r.log.Infow("simulating year", "year", date.Year())
		r.lastYear = date.Year()
	}
	r.days++

	symbols := day.Symbols()
	for _, sym := range symbols {
		r.rolling.Update(sym, day.Bars[sym].DollarVolume())
	}

	prices := day.Prices()
	dividends := day.Dividends()
	var volumes map[string]float64
	if r.settings.participationCapped() {
		volumes = day.Volumes()
	}
	ctx := strategy.Context{Date: date, Day: day, Rolling: r.rolling}

	for _, st := range r.states {
		p := st.portfolio

		p.WriteOff(prices)
		if r.settings.CreditDividends {
			p.ApplyDividends(dividends)
		}
		if r.settings.ContributionAmount > 0 &&
			strategy.ShouldContribute(r.settings.ContributionFrequency, st.lastContribution, date) {
			// amount is validated non-negative up front
			_ = p.Contribute(r.settings.ContributionAmount)
			st.lastContribution = &date
		}

		var fills []model.TradeFill
		if strategy.ShouldRebalance(st.strategy.Frequency, st.lastRebalance, date) {
			weights := st.strategy.Resolver.Resolve(ctx)
			fills = p.RebalanceToWeights(weights, prices, r.settings.Costs, volumes, r.settings.MaxTradeParticipation)
			st.lastRebalance = &date
			for _, f := range fills {
				r.result.Trades = append(r.result.Trades, DatedTrade{Date: date, StrategyID: st.strategy.ID, Fill: f})
			}
		}

		marketValue := p.TotalMarketValue(prices)
		equity := p.Cash + marketValue

		dailyReturn, turnover := 0.0, 0.0
		if prev := st.previousEquity; prev != nil && *prev != 0 {
			dailyReturn = equity / *prev - 1
			gross := 0.0
			for _, f := range fills {
				gross += f.GrossValue
			}
			turnover = gross / *prev
		}
		st.previousEquity = &equity

		r.result.Records[st.strategy.ID] = append(r.result.Records[st.strategy.ID], DailyRecord{
			Date:                    date,
			StrategyID:              st.strategy.ID,
			Cash:                    p.Cash,
			PositionsMarketValue:    marketValue,
			TotalEquity:             equity,
			DailyReturn:             dailyReturn,
			CumulativeContributions: p.CumulativeContributions,
			CumulativeDividends:     p.CumulativeDividends,
			TradeCountDay:           len(fills),
			TurnoverDay:             turnover,
		})
	}
}

func (r *runner) finish() *Result {
	for _, id := range r.result.StrategyIDs {
		if eq, ok := r.result.FinalEquity(id); ok {
			r.log.Infow("strategy finished", "strategy_id", id, "final_equity", eq)
		}
	}
	r.log.Infow("simulation complete", "days", r.days, "trades", len(r.result.Trades))
	return r.result
}
