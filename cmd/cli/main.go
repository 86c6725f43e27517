package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"portfolio-backtest/internal/analysis"
	"portfolio-backtest/internal/backtest"
	"portfolio-backtest/internal/config"
	"portfolio-backtest/internal/logger"
	"portfolio-backtest/internal/model"
	"portfolio-backtest/internal/strategy"
	"portfolio-backtest/internal/trace"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := newRootCmd(os.Stdout).ExecuteContext(ctx)
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, "error:", err)
	if errors.Is(err, model.ErrConfig) {
		os.Exit(2)
	}
	os.Exit(1)
}

func newRootCmd(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "backtest",
		Short:         "Run portfolio allocation strategies over historical daily market data",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.AddCommand(newRunCmd(out), newStrategiesCmd(out), newSummarizeCmd(out))
	return root
}

// runFlags mirrors the YAML run file. Only flags the user actually set
// override the file.
type runFlags struct {
	configPath string
	cfg        config.Config

	seed                  int64
	maxTradeParticipation float64
	minPrice              float64
	maxPrice              float64
}

func (f *runFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.configPath, "config", "", "Path to YAML run config")
	fs.StringVar(&f.cfg.DataPath, "data-path", "", "Market data CSV")
	fs.StringVar(&f.cfg.StartDate, "start-date", "", "First date to simulate (YYYY-MM-DD)")
	fs.StringVar(&f.cfg.EndDate, "end-date", "", "Last date to simulate (YYYY-MM-DD)")
	fs.StringVar(&f.cfg.Engine, "engine", string(backtest.EngineStreaming), "streaming or in_memory")
	fs.Float64Var(&f.cfg.InitialCapital, "initial-capital", 0, "Starting cash per strategy")
	fs.Float64Var(&f.cfg.ContributionAmount, "contribution-amount", 0, "Cash added on each contribution date")
	fs.StringVar(&f.cfg.ContributionFrequency, "contribution-frequency", string(model.ContributionNone), "none, daily, monthly or yearly")
	fs.Float64Var(&f.cfg.FeeBps, "fee-bps", 0, "Proportional fee in basis points")
	fs.Float64Var(&f.cfg.FeeFixed, "fee-fixed", 0, "Fixed fee per trade")
	fs.Float64Var(&f.cfg.SlippageBps, "slippage-bps", 0, "Slippage in basis points")
	fs.Int64Var(&f.seed, "seed", config.DefaultSeed, "Default seed for random strategies")
	fs.BoolVar(&f.cfg.CreditDividends, "credit-dividends", false, "Credit cash dividends to holders")
	fs.Float64Var(&f.maxTradeParticipation, "max-trade-participation", config.DefaultMaxTradeParticipation, "Max fraction of daily volume per trade (0 disables)")
	fs.Float64Var(&f.minPrice, "min-price", 0.01, "Drop rows closing below this price")
	fs.Float64Var(&f.maxPrice, "max-price", 100_000, "Drop rows closing above this price")
	fs.Float64Var(&f.cfg.MinVolume, "min-volume", 0, "Drop rows trading less than this volume")
	fs.StringVar(&f.cfg.PriceSeriesMode, "price-series-mode", "as_is", "as_is or raw_reconstructed")
	fs.StringVar(&f.cfg.StrategyFile, "strategy-file", "", "JSON strategy file")
	fs.StringVar(&f.cfg.OutputDir, "output-dir", config.DefaultOutputDir, "Directory for CSV reports and the run manifest")
	fs.BoolVar(&f.cfg.Progress, "progress", false, "Log once per simulated year")
}

// resolve builds the effective config: the YAML file (if any) overlaid with
// every flag the user set explicitly, zero values included.
func (f *runFlags) resolve(fs *pflag.FlagSet) (*config.Config, error) {
	base := config.Config{}
	if f.configPath != "" {
		loaded, err := config.LoadUnchecked(f.configPath)
		if err != nil {
			return nil, err
		}
		base = *loaded
	}

	override := f.cfg
	override.Seed = &f.seed
	override.MaxTradeParticipation = &f.maxTradeParticipation
	override.MinPrice = &f.minPrice
	override.MaxPrice = &f.maxPrice

	// Flag names are the YAML keys with dashes.
	var keys []string
	fs.Visit(func(fl *pflag.Flag) {
		if fl.Name != "config" {
			keys = append(keys, strings.ReplaceAll(fl.Name, "-", "_"))
		}
	})
	if fs.Changed("strategy-file") {
		specs, err := config.LoadStrategies(override.StrategyFile)
		if err != nil {
			return nil, err
		}
		override.Strategies = specs
		keys = append(keys, "strategies")
	}

	cfg, err := config.Merge(base, override, keys...)
	if err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func newRunCmd(out io.Writer) *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Simulate every configured strategy and write reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.resolve(cmd.Flags())
			if err != nil {
				return err
			}
			return runBacktest(cmd.Context(), out, cfg)
		},
	}
	flags.register(cmd.Flags())
	return cmd
}

func runBacktest(ctx context.Context, out io.Writer, cfg *config.Config) error {
	log := logger.New()
	defer func() { _ = log.Sync() }()

	if err := trace.Init(); err != nil {
		log.Warnw("tracing disabled", "error", err)
	}
	defer func() { _ = trace.Shutdown(context.Background()) }()

	q, err := cfg.Request()
	if err != nil {
		return err
	}
	engine := backtest.New(backtest.WithLogger(log), backtest.WithProgress(cfg.Progress))
	res, err := engine.Execute(ctx, q)
	if err != nil {
		return err
	}

	manifest := q.Manifest()
	manifest["strategy_file"] = cfg.StrategyFile
	manifest["strategy_count"] = len(res.StrategyIDs)
	paths, err := backtest.WriteOutputs(cfg.OutputDir, res, manifest)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "run complete")
	raw, err := json.MarshalIndent(map[string]any{"outputs": map[string]string{
		"daily_equity":     paths.DailyEquity,
		"trades":           paths.Trades,
		"annual_summary":   paths.AnnualSummary,
		"terminal_summary": paths.TerminalSummary,
		"manifest":         paths.Manifest,
	}}, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(raw))
	for _, s := range res.Ranking() {
		fmt.Fprintf(out, "%s: final_equity=%.2f\n", s.StrategyID, s.FinalEquity)
	}
	return nil
}

func newStrategiesCmd(out io.Writer) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "strategies",
		Short: "List strategy types, or validate a strategy file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if file == "" {
				for _, k := range strategy.Kinds() {
					fmt.Fprintln(out, k)
				}
				return nil
			}
			specs, err := config.LoadStrategies(file)
			if err != nil {
				return err
			}
			built, err := strategy.BuildAll(specs, config.DefaultSeed)
			if err != nil {
				return err
			}
			for _, s := range built {
				fmt.Fprintf(out, "%s\t%s\t%s\n", s.ID, s.Kind, s.Frequency)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Strategy file to validate")
	return cmd
}

func newSummarizeCmd(out io.Writer) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Print the final-equity ranking from a previous run's reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return summarize(out, dir)
		},
	}
	cmd.Flags().StringVar(&dir, "output-dir", config.DefaultOutputDir, "Directory a previous run wrote to")
	return cmd
}

func summarize(out io.Writer, dir string) error {
	f, err := os.Open(backtest.NewOutputPaths(dir).TerminalSummary)
	if err != nil {
		return err
	}
	defer f.Close()

	var rows []backtest.TerminalSummaryRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return fmt.Errorf("read terminal summary: %w", err)
	}

	summaries := make([]analysis.TerminalSummary, 0, len(rows))
	for _, r := range rows {
		eq, err := strconv.ParseFloat(r.FinalEquity, 64)
		if err != nil {
			return model.DataFormatErrorf("final_equity for %s: %v", r.StrategyID, err)
		}
		summaries = append(summaries, analysis.TerminalSummary{StrategyID: r.StrategyID, FinalEquity: eq})
	}
	for _, s := range analysis.RankByFinalEquity(summaries) {
		fmt.Fprintf(out, "%s: final_equity=%.2f\n", s.StrategyID, s.FinalEquity)
	}
	return nil
}
