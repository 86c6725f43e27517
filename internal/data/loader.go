package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"portfolio-backtest/internal/model"
)

// PriceMode selects how closes are presented to the simulation.
type PriceMode string

const (
	// PriceAsIs uses the file's prices unchanged.
	PriceAsIs PriceMode = "as_is"
	// PriceRawReconstructed divides prices by the cumulative dividend factor
	// so dividends are no longer folded into the price series.
	PriceRawReconstructed PriceMode = "raw_reconstructed"
)

func ParsePriceMode(s string) (PriceMode, error) {
	switch m := PriceMode(strings.ToLower(strings.TrimSpace(strings.ReplaceAll(s, "-", "_")))); m {
	case "":
		return PriceAsIs, nil
	case PriceAsIs, PriceRawReconstructed:
		return m, nil
	default:
		return "", model.ConfigErrorf("invalid price_series_mode %q", s)
	}
}

// LoadOptions configures LoadMarketData.
type LoadOptions struct {
	Filters Filters
	Mode    PriceMode
	Logger  *zap.SugaredLogger
}

// LoadMarketData reads the whole CSV into an immutable MarketData.
func LoadMarketData(path string, opts LoadOptions) (*model.MarketData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open market data: %w", err)
	}
	defer f.Close()
	return ReadMarketData(f, opts)
}

// ReadMarketData is LoadMarketData over an arbitrary reader.
func ReadMarketData(r io.Reader, opts LoadOptions) (*model.MarketData, error) {
	if err := opts.Filters.Validate(); err != nil {
		return nil, err
	}
	mode := opts.Mode
	if mode == "" {
		mode = PriceAsIs
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	cr := newCSVReader(r)
	first, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, model.DataFormatErrorf("missing CSV header")
	}
	if err != nil {
		return nil, model.DataFormatErrorf("read header: %v", err)
	}
	h, err := parseHeader(first)
	if err != nil {
		return nil, err
	}

	var bars []model.MarketBar
	skipped := 0
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, model.DataFormatErrorf("line %d: %v", line, err)
		}
		bar, ok, err := opts.Filters.Admit(h, record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if !ok {
			skipped++
			continue
		}
		bars = append(bars, bar)
	}

	if mode == PriceRawReconstructed {
		bars = reconstructRaw(bars)
	}
	md := model.NewMarketData(bars)
	log.Debugw("market data loaded",
		"bars", len(bars),
		"skipped", skipped,
		"dates", md.Len(),
		"symbols", len(md.Symbols()),
		"mode", mode,
	)
	return md, nil
}

func newCSVReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	return cr
}

// reconstructRaw walks each symbol's bars in date order and divides prices by
// the running product of (1 + dividend/prior_close) over dividend days.
func reconstructRaw(bars []model.MarketBar) []model.MarketBar {
	bySymbol := make(map[string][]int)
	for i, b := range bars {
		bySymbol[b.Ticker] = append(bySymbol[b.Ticker], i)
	}
	out := make([]model.MarketBar, len(bars))
	copy(out, bars)

	for _, idx := range bySymbol {
		sort.SliceStable(idx, func(a, b int) bool { return bars[idx[a]].Date.Before(bars[idx[b]].Date) })
		factor := 1.0
		priorClose := 0.0
		var priorDate time.Time
		for _, i := range idx {
			b := bars[i]
			if b.Dividends > 0 && priorClose > 0 && b.Date.After(priorDate) {
				factor *= 1 + b.Dividends/priorClose
			}
			nb := b
			nb.Open = b.Open / factor
			nb.High = b.High / factor
			nb.Low = b.Low / factor
			nb.Close = b.Close / factor
			out[i] = nb
			priorClose = b.Close
			priorDate = b.Date
		}
	}
	return out
}
