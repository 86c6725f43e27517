package model

import (
	"sort"
	"time"
)

// MarketBar is one admitted daily row for a ticker. Close is always > 0.
type MarketBar struct {
	Date        time.Time
	Ticker      string
	Open        float64
	High        float64
	Low         float64
	Close       float64
	Volume      float64
	Dividends   float64
	StockSplits float64
}

// DollarVolume is close times non-negative volume.
func (b MarketBar) DollarVolume() float64 {
	v := b.Volume
	if v < 0 {
		v = 0
	}
	return b.Close * v
}

// DaySlice is the per-date view both engines feed into the runner.
// Keys are upper-case tickers; only admitted bars appear.
type DaySlice struct {
	Date time.Time
	Bars map[string]MarketBar
}

func NewDaySlice(date time.Time) *DaySlice {
	return &DaySlice{Date: date, Bars: make(map[string]MarketBar)}
}

// Add stores a bar; a later row for the same ticker on the same date wins.
func (d *DaySlice) Add(b MarketBar) {
	d.Bars[b.Ticker] = b
}

func (d *DaySlice) Len() int { return len(d.Bars) }

// Symbols returns the priced tickers in ascending order.
func (d *DaySlice) Symbols() []string {
	out := make([]string, 0, len(d.Bars))
	for s := range d.Bars {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func (d *DaySlice) Prices() map[string]float64 {
	out := make(map[string]float64, len(d.Bars))
	for s, b := range d.Bars {
		out[s] = b.Close
	}
	return out
}

func (d *DaySlice) Volumes() map[string]float64 {
	out := make(map[string]float64, len(d.Bars))
	for s, b := range d.Bars {
		out[s] = b.Volume
	}
	return out
}

func (d *DaySlice) Dividends() map[string]float64 {
	out := make(map[string]float64)
	for s, b := range d.Bars {
		if b.Dividends != 0 {
			out[s] = b.Dividends
		}
	}
	return out
}

// MarketData is the fully materialized date -> ticker -> bar table used by the
// in-memory engine. It is read-only after NewMarketData returns.
type MarketData struct {
	days    map[time.Time]*DaySlice
	dates   []time.Time
	symbols []string
}

// NewMarketData indexes bars by date. Duplicate (date, ticker) rows keep the last one.
func NewMarketData(bars []MarketBar) *MarketData {
	md := &MarketData{days: make(map[time.Time]*DaySlice)}
	seen := make(map[string]struct{})
	for _, b := range bars {
		d, ok := md.days[b.Date]
		if !ok {
			d = NewDaySlice(b.Date)
			md.days[b.Date] = d
			md.dates = append(md.dates, b.Date)
		}
		d.Add(b)
		if _, ok := seen[b.Ticker]; !ok {
			seen[b.Ticker] = struct{}{}
			md.symbols = append(md.symbols, b.Ticker)
		}
	}
	sort.Slice(md.dates, func(i, j int) bool { return md.dates[i].Before(md.dates[j]) })
	sort.Strings(md.symbols)
	return md
}

// TradingDates returns every date with at least one admitted bar, ascending.
func (m *MarketData) TradingDates() []time.Time { return m.dates }

// Symbols returns the union of tickers ever seen, ascending.
func (m *MarketData) Symbols() []string { return m.symbols }

// Day returns the slice for a date, or nil when the date has no bars.
func (m *MarketData) Day(date time.Time) *DaySlice { return m.days[date] }

func (m *MarketData) Bar(date time.Time, ticker string) (MarketBar, bool) {
	d := m.days[date]
	if d == nil {
		return MarketBar{}, false
	}
	b, ok := d.Bars[ticker]
	return b, ok
}

func (m *MarketData) Len() int { return len(m.dates) }
