package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"portfolio-backtest/internal/backtest"
	"portfolio-backtest/internal/data"
	"portfolio-backtest/internal/model"
	"portfolio-backtest/internal/strategy"
)

const (
	DefaultSeed                  = 42
	DefaultOutputDir             = "outputs"
	DefaultMaxTradeParticipation = 0.01
)

// Config is the on-disk run configuration (YAML).
type Config struct {
	DataPath  string `yaml:"data_path"`
	StartDate string `yaml:"start_date"`
	EndDate   string `yaml:"end_date"`
	Engine    string `yaml:"engine"`

	InitialCapital        float64 `yaml:"initial_capital"`
	ContributionAmount    float64 `yaml:"contribution_amount"`
	ContributionFrequency string  `yaml:"contribution_frequency"`
	FeeBps                float64 `yaml:"fee_bps"`
	FeeFixed              float64 `yaml:"fee_fixed"`
	SlippageBps           float64 `yaml:"slippage_bps"`
	Seed                  *int64  `yaml:"seed"`
	CreditDividends       bool    `yaml:"credit_dividends"`

	// MaxTradeParticipation of 0 disables the volume cap; nil takes the default.
	MaxTradeParticipation *float64 `yaml:"max_trade_participation"`

	MinPrice        *float64 `yaml:"min_price"`
	MaxPrice        *float64 `yaml:"max_price"`
	MinVolume       float64  `yaml:"min_volume"`
	PriceSeriesMode string   `yaml:"price_series_mode"`

	// Optional: load strategies from a JSON strategy file. Inline strategies
	// are appended after the file's.
	StrategyFile string          `yaml:"strategy_file"`
	Strategies   []strategy.Spec `yaml:"strategies"`

	OutputDir string `yaml:"output_dir"`
	Progress  bool   `yaml:"progress"`
}

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked parses the file and resolves strategy_file, but does not
// apply defaults or validate.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, model.ConfigErrorf("parse %s: %v", filepath.Base(path), err)
	}
	c.DataPath = resolveRelative(path, c.DataPath)
	if c.StrategyFile != "" {
		c.StrategyFile = resolveRelative(path, c.StrategyFile)
		fromFile, err := data.LoadStrategyFile(c.StrategyFile)
		if err != nil {
			return nil, err
		}
		c.Strategies = append(fromFile, c.Strategies...)
	}
	return &c, nil
}

// resolveRelative prefers p relative to the config file's directory, falling
// back to p as given (relative to cwd) when that does not exist.
func resolveRelative(configPath, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	cand := filepath.Join(filepath.Dir(configPath), p)
	if _, err := os.Stat(cand); err == nil {
		return cand
	}
	return p
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Engine == "" {
		c.Engine = string(backtest.EngineStreaming)
	}
	if c.ContributionFrequency == "" {
		c.ContributionFrequency = string(model.ContributionNone)
	}
	if c.Seed == nil {
		seed := int64(DefaultSeed)
		c.Seed = &seed
	}
	if c.MaxTradeParticipation == nil {
		v := DefaultMaxTradeParticipation
		c.MaxTradeParticipation = &v
	}
	if c.MinPrice == nil {
		v := data.DefaultMinPrice
		c.MinPrice = &v
	}
	if c.MaxPrice == nil {
		v := data.DefaultMaxPrice
		c.MaxPrice = &v
	}
	if c.PriceSeriesMode == "" {
		c.PriceSeriesMode = string(data.PriceAsIs)
	}
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	q, err := c.Request()
	if err != nil {
		return err
	}
	if err := q.Validate(); err != nil {
		return err
	}
	if _, err := strategy.BuildAll(q.Specs, q.Settings.Seed); err != nil {
		return err
	}
	return nil
}

// Request converts the config into an engine request.
func (c *Config) Request() (backtest.Request, error) {
	engine, err := backtest.ParseEngine(c.Engine)
	if err != nil {
		return backtest.Request{}, err
	}
	mode, err := data.ParsePriceMode(c.PriceSeriesMode)
	if err != nil {
		return backtest.Request{}, err
	}
	filters, err := c.Filters()
	if err != nil {
		return backtest.Request{}, err
	}
	settings, err := c.Settings()
	if err != nil {
		return backtest.Request{}, err
	}
	return backtest.Request{
		DataPath:  c.DataPath,
		Engine:    engine,
		PriceMode: mode,
		Filters:   filters,
		Specs:     c.Strategies,
		Settings:  settings,
	}, nil
}

func (c *Config) Filters() (data.Filters, error) {
	r, err := model.NewDateRange(c.StartDate, c.EndDate)
	if err != nil {
		return data.Filters{}, err
	}
	f := data.DefaultFilters()
	f.Range = r
	f.MinVolume = c.MinVolume
	if c.MinPrice != nil {
		f.MinPrice = *c.MinPrice
	}
	if c.MaxPrice != nil {
		f.MaxPrice = *c.MaxPrice
	}
	return f, nil
}

func (c *Config) Settings() (backtest.Settings, error) {
	freq, err := model.ParseContributionFrequency(c.ContributionFrequency)
	if err != nil {
		return backtest.Settings{}, err
	}
	s := backtest.Settings{
		InitialCapital:        c.InitialCapital,
		ContributionAmount:    c.ContributionAmount,
		ContributionFrequency: freq,
		Costs: model.RebalanceCosts{
			FeeBps:      c.FeeBps,
			FeeFixed:    c.FeeFixed,
			SlippageBps: c.SlippageBps,
		},
		Seed:            DefaultSeed,
		CreditDividends: c.CreditDividends,
	}
	if c.Seed != nil {
		s.Seed = *c.Seed
	}
	if c.MaxTradeParticipation != nil {
		s.MaxTradeParticipation = *c.MaxTradeParticipation
	}
	return s, nil
}

// Merge copies the fields named by keys (their YAML names) from override
// onto base. Zero values are copied too, so an explicit 0 or false wins over
// the file.
func Merge(base, override Config, keys ...string) (Config, error) {
	out := base
	for _, key := range keys {
		switch key {
		case "data_path":
			out.DataPath = override.DataPath
		case "start_date":
			out.StartDate = override.StartDate
		case "end_date":
			out.EndDate = override.EndDate
		case "engine":
			out.Engine = override.Engine
		case "initial_capital":
			out.InitialCapital = override.InitialCapital
		case "contribution_amount":
			out.ContributionAmount = override.ContributionAmount
		case "contribution_frequency":
			out.ContributionFrequency = override.ContributionFrequency
		case "fee_bps":
			out.FeeBps = override.FeeBps
		case "fee_fixed":
			out.FeeFixed = override.FeeFixed
		case "slippage_bps":
			out.SlippageBps = override.SlippageBps
		case "seed":
			out.Seed = override.Seed
		case "credit_dividends":
			out.CreditDividends = override.CreditDividends
		case "max_trade_participation":
			out.MaxTradeParticipation = override.MaxTradeParticipation
		case "min_price":
			out.MinPrice = override.MinPrice
		case "max_price":
			out.MaxPrice = override.MaxPrice
		case "min_volume":
			out.MinVolume = override.MinVolume
		case "price_series_mode":
			out.PriceSeriesMode = override.PriceSeriesMode
		case "strategy_file":
			out.StrategyFile = override.StrategyFile
		case "strategies":
			out.Strategies = override.Strategies
		case "output_dir":
			out.OutputDir = override.OutputDir
		case "progress":
			out.Progress = override.Progress
		default:
			return Config{}, model.ConfigErrorf("unknown config key %q", key)
		}
	}
	return out, nil
}

// LoadStrategies resolves a strategy file path into specs; an empty path
// yields nil.
func LoadStrategies(path string) ([]strategy.Spec, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	specs, err := data.LoadStrategyFile(path)
	if err != nil {
		return nil, fmt.Errorf("strategy file %s: %w", path, err)
	}
	return specs, nil
}
