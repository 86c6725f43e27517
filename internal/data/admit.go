package data

import (
	"strconv"
	"strings"
	"time"

	"portfolio-backtest/internal/model"
)

// RequiredColumns must all be present in a market data CSV header.
var RequiredColumns = []string{"Date", "Ticker", "Open", "High", "Low", "Close", "Volume", "Dividends", "Stock Splits"}

const (
	DefaultMinPrice  = 0.01
	DefaultMaxPrice  = 100_000.0
	DefaultMinVolume = 0.0
)

// Filters decide which rows are admitted. Both the in-memory loader and the
// streaming reader go through Admit, so they see the same bars.
type Filters struct {
	Range     model.DateRange
	MinPrice  float64
	MaxPrice  float64 // <= 0 means unbounded
	MinVolume float64

	// Symbols restricts admission to these upper-case tickers when non-empty.
	Symbols map[string]struct{}
}

func DefaultFilters() Filters {
	return Filters{MinPrice: DefaultMinPrice, MaxPrice: DefaultMaxPrice, MinVolume: DefaultMinVolume}
}

// WithSymbols returns a copy restricted to symbols.
func (f Filters) WithSymbols(symbols []string) Filters {
	if len(symbols) == 0 {
		f.Symbols = nil
		return f
	}
	f.Symbols = make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		f.Symbols[strings.ToUpper(strings.TrimSpace(s))] = struct{}{}
	}
	return f
}

func (f Filters) Validate() error {
	if err := f.Range.Validate(); err != nil {
		return err
	}
	if f.MinPrice < 0 {
		return model.ConfigErrorf("min_price must be >= 0")
	}
	if f.MaxPrice > 0 && f.MaxPrice < f.MinPrice {
		return model.ConfigErrorf("max_price must be >= min_price")
	}
	if f.MinVolume < 0 {
		return model.ConfigErrorf("min_volume must be >= 0")
	}
	return nil
}

// header maps required column names to record positions.
type header map[string]int

func parseHeader(record []string) (header, error) {
	h := make(header, len(record))
	for i, name := range record {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, ok := h[name]; !ok {
			h[name] = i
		}
	}
	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := h[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, model.DataFormatErrorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return h, nil
}

func (h header) field(record []string, col string) string {
	i := h[col]
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func (h header) date(record []string) (time.Time, error) {
	raw := h.field(record, "Date")
	d, err := model.ParseDate(raw)
	if err != nil {
		return time.Time{}, model.DataFormatErrorf("invalid Date %q", raw)
	}
	return d, nil
}

// parseFloat returns ok=false for empty or non-numeric input.
func parseFloat(raw string) (float64, bool) {
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Admit turns a CSV record into a bar. It returns ok=false for rows that are
// silently skipped: outside the date range or symbol set, a missing or
// non-positive close, or failing the price and volume filters. Only an
// unparseable date is an error.
func (f Filters) Admit(h header, record []string) (model.MarketBar, bool, error) {
	d, err := h.date(record)
	if err != nil {
		return model.MarketBar{}, false, err
	}
	if !f.Range.Contains(d) {
		return model.MarketBar{}, false, nil
	}
	ticker := strings.ToUpper(h.field(record, "Ticker"))
	if ticker == "" {
		return model.MarketBar{}, false, nil
	}
	if len(f.Symbols) > 0 {
		if _, ok := f.Symbols[ticker]; !ok {
			return model.MarketBar{}, false, nil
		}
	}

	closePx, ok := parseFloat(h.field(record, "Close"))
	if !ok || closePx <= 0 {
		return model.MarketBar{}, false, nil
	}
	if closePx < f.MinPrice || (f.MaxPrice > 0 && closePx > f.MaxPrice) {
		return model.MarketBar{}, false, nil
	}
	volume := orDefault(h.field(record, "Volume"), 0)
	if volume < f.MinVolume {
		return model.MarketBar{}, false, nil
	}

	return model.MarketBar{
		Date:        d,
		Ticker:      ticker,
		Open:        orDefault(h.field(record, "Open"), closePx),
		High:        orDefault(h.field(record, "High"), closePx),
		Low:         orDefault(h.field(record, "Low"), closePx),
		Close:       closePx,
		Volume:      volume,
		Dividends:   orDefault(h.field(record, "Dividends"), 0),
		StockSplits: orDefault(h.field(record, "Stock Splits"), 0),
	}, true, nil
}

func orDefault(raw string, def float64) float64 {
	if v, ok := parseFloat(raw); ok {
		return v
	}
	return def
}
