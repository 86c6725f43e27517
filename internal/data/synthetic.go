package data

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gocarina/gocsv"
)

// DefaultSyntheticSymbols is the universe the synthetic generator uses.
var DefaultSyntheticSymbols = []string{"BP", "CVX", "ED", "GD", "IBM", "KO"}

// SyntheticOptions shapes a generated dataset.
type SyntheticOptions struct {
	Start   time.Time
	End     time.Time
	Symbols []string

	// DropEvery removes the last symbol on every n-th weekday (0 keeps all rows).
	DropEvery int
}

// syntheticRow mirrors the market data CSV header.
type syntheticRow struct {
	Date        string `csv:"Date"`
	Ticker      string `csv:"Ticker"`
	Open        string `csv:"Open"`
	High        string `csv:"High"`
	Low         string `csv:"Low"`
	Close       string `csv:"Close"`
	Volume      string `csv:"Volume"`
	Dividends   string `csv:"Dividends"`
	StockSplits string `csv:"Stock Splits"`
}

// WriteSynthetic writes a deterministic weekday price series to path.
func WriteSynthetic(path string, opts SyntheticOptions) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return GenerateSynthetic(f, opts)
}

// GenerateSynthetic writes rows grouped by date, ascending, with every
// symbol's rows for a date contiguous. Prices follow a slow drift plus a
// per-symbol sine wave; some symbols pay a dividend on the first weekday of
// each quarter-end month.
func GenerateSynthetic(w io.Writer, opts SyntheticOptions) error {
	if opts.End.Before(opts.Start) {
		return fmt.Errorf("synthetic end %s is before start %s", opts.End.Format(time.DateOnly), opts.Start.Format(time.DateOnly))
	}
	symbols := opts.Symbols
	if len(symbols) == 0 {
		symbols = DefaultSyntheticSymbols
	}

	var rows []syntheticRow
	weekday := 0
	lastMonth := time.Month(0)
	for d := opts.Start; !d.After(opts.End); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		firstOfMonth := d.Month() != lastMonth
		lastMonth = d.Month()
		quarterEnd := d.Month()%3 == 0

		for k, sym := range symbols {
			if opts.DropEvery > 0 && k == len(symbols)-1 && weekday%opts.DropEvery == opts.DropEvery-1 {
				continue
			}
			base := 20 + 15*float64(k)
			t := float64(weekday)
			closePx := base * (1 + 0.0004*t*float64(k%3)) * (1 + 0.08*math.Sin(t/(9+float64(k))+float64(k)))
			openPx := closePx * (1 - 0.003*math.Cos(t+float64(k)))
			high := math.Max(openPx, closePx) * 1.01
			low := math.Min(openPx, closePx) * 0.99
			volume := math.Round(1_000_000 * (1 + float64(k)) * (1 + 0.3*math.Cos(t/5+float64(k))))

			div := 0.0
			if firstOfMonth && quarterEnd && k%2 == 1 {
				div = 0.1 * (1 + float64(k)/10)
			}

			rows = append(rows, syntheticRow{
				Date:        d.Format(time.DateOnly),
				Ticker:      sym,
				Open:        fmt4(openPx),
				High:        fmt4(high),
				Low:         fmt4(low),
				Close:       fmt4(closePx),
				Volume:      strconv.FormatFloat(volume, 'f', 0, 64),
				Dividends:   fmt4(div),
				StockSplits: "0",
			})
		}
		weekday++
	}
	return gocsv.Marshal(&rows, w)
}

func fmt4(x float64) string {
	return strconv.FormatFloat(x, 'f', 4, 64)
}
