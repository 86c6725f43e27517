package backtest

import (
	"portfolio-backtest/internal/model"
)

// Settings are the run-level knobs shared by every strategy.
type Settings struct {
	InitialCapital        float64
	ContributionAmount    float64
	ContributionFrequency model.ContributionFrequency
	Costs                 model.RebalanceCosts
	Seed                  int64
	CreditDividends       bool

	// MaxTradeParticipation caps each fill at this fraction of the day's
	// volume. Zero disables the cap.
	MaxTradeParticipation float64
}

func DefaultSettings() Settings {
	return Settings{
		InitialCapital:        10_000,
		ContributionFrequency: model.ContributionNone,
		Seed:                  42,
	}
}

func (s Settings) Validate() error {
	if s.InitialCapital < 0 {
		return model.ConfigErrorf("initial_capital must be >= 0")
	}
	if s.ContributionAmount < 0 {
		return model.ConfigErrorf("contribution_amount must be >= 0")
	}
	if _, err := model.ParseContributionFrequency(string(s.ContributionFrequency)); err != nil {
		return err
	}
	if err := s.Costs.Validate(); err != nil {
		return err
	}
	if s.MaxTradeParticipation < 0 || s.MaxTradeParticipation > 1 {
		return model.ConfigErrorf("max_trade_participation must be in (0, 1], or 0 to disable")
	}
	return nil
}

func (s Settings) participationCapped() bool {
	return s.MaxTradeParticipation > 0
}
