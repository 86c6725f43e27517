package data

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-backtest/internal/model"
)

const csvHeader = "Date,Ticker,Open,High,Low,Close,Volume,Dividends,Stock Splits\n"

func day(s string) time.Time {
	d, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestReadMarketDataDefaultsAndSkips(t *testing.T) {
	body := csvHeader +
		"2020-01-02,aaa,,,,10,100,,\n" +
		"2020-01-02,BBB,1,2,0.5,0,100,0,0\n" +
		"2020-01-02,CCC,1,2,0.5,abc,100,0,0\n" +
		"2020-01-03,AAA,9,11,8,10.5,,0.25,0\n" +
		"2019-12-31,AAA,9,11,8,10.5,1,0,0\n"

	md, err := ReadMarketData(strings.NewReader(body), LoadOptions{Filters: DefaultFilters()})
	require.NoError(t, err)

	assert.Equal(t, []time.Time{day("2019-12-31"), day("2020-01-02"), day("2020-01-03")}, md.TradingDates())
	assert.Equal(t, []string{"AAA"}, md.Symbols())

	b, ok := md.Bar(day("2020-01-02"), "AAA")
	require.True(t, ok)
	assert.Equal(t, 10.0, b.Open)
	assert.Equal(t, 10.0, b.High)
	assert.Equal(t, 10.0, b.Low)
	assert.Equal(t, 0.0, b.Dividends)

	b, ok = md.Bar(day("2020-01-03"), "AAA")
	require.True(t, ok)
	assert.Equal(t, 0.0, b.Volume)
	assert.Equal(t, 0.25, b.Dividends)
}

func TestReadMarketDataFilters(t *testing.T) {
	body := csvHeader +
		"2020-01-02,AAA,1,1,1,0.005,100,0,0\n" +
		"2020-01-02,BBB,1,1,1,200000,100,0,0\n" +
		"2020-01-02,CCC,1,1,1,10,5,0,0\n" +
		"2020-01-02,DDD,1,1,1,10,500,0,0\n" +
		"2020-02-02,DDD,1,1,1,10,500,0,0\n"

	f := DefaultFilters()
	f.MinVolume = 10
	f.Range = model.DateRange{Start: day("2020-01-01"), End: day("2020-01-31")}
	md, err := ReadMarketData(strings.NewReader(body), LoadOptions{Filters: f})
	require.NoError(t, err)
	assert.Equal(t, []string{"DDD"}, md.Symbols())
	assert.Equal(t, 1, md.Len())
}

func TestReadMarketDataSymbolFilter(t *testing.T) {
	body := csvHeader +
		"2020-01-02,AAA,1,1,1,10,100,0,0\n" +
		"2020-01-02,BBB,1,1,1,10,100,0,0\n"
	md, err := ReadMarketData(strings.NewReader(body), LoadOptions{Filters: DefaultFilters().WithSymbols([]string{"bbb"})})
	require.NoError(t, err)
	assert.Equal(t, []string{"BBB"}, md.Symbols())
}

func TestReadMarketDataMissingColumns(t *testing.T) {
	_, err := ReadMarketData(strings.NewReader("Date,Ticker,Close\n2020-01-02,AAA,1\n"), LoadOptions{Filters: DefaultFilters()})
	require.ErrorIs(t, err, model.ErrDataFormat)
	assert.Contains(t, err.Error(), "Stock Splits")

	_, err = ReadMarketData(strings.NewReader(""), LoadOptions{Filters: DefaultFilters()})
	assert.ErrorIs(t, err, model.ErrDataFormat)
}

func TestReadMarketDataBadDate(t *testing.T) {
	_, err := ReadMarketData(strings.NewReader(csvHeader+"02/01/2020,AAA,1,1,1,1,1,0,0\n"), LoadOptions{Filters: DefaultFilters()})
	assert.ErrorIs(t, err, model.ErrDataFormat)
}

func TestRawReconstructed(t *testing.T) {
	body := csvHeader +
		"2020-01-02,AAA,10,10,10,10,100,0,0\n" +
		"2020-01-03,AAA,10,10,10,10,100,1,0\n" +
		"2020-01-06,AAA,11,11,11,11,100,0,0\n"
	md, err := ReadMarketData(strings.NewReader(body), LoadOptions{Filters: DefaultFilters(), Mode: PriceRawReconstructed})
	require.NoError(t, err)

	b, _ := md.Bar(day("2020-01-02"), "AAA")
	assert.Equal(t, 10.0, b.Close)
	b, _ = md.Bar(day("2020-01-03"), "AAA")
	assert.InDelta(t, 10/1.1, b.Close, 1e-12)
	assert.Equal(t, 1.0, b.Dividends)
	b, _ = md.Bar(day("2020-01-06"), "AAA")
	assert.InDelta(t, 10.0, b.Close, 1e-12)
}

func TestParsePriceMode(t *testing.T) {
	m, err := ParsePriceMode("")
	require.NoError(t, err)
	assert.Equal(t, PriceAsIs, m)
	m, err = ParsePriceMode("RAW_RECONSTRUCTED")
	require.NoError(t, err)
	assert.Equal(t, PriceRawReconstructed, m)
	_, err = ParsePriceMode("split_adjusted")
	assert.ErrorIs(t, err, model.ErrConfig)
}

func TestDayReaderGroupsByDate(t *testing.T) {
	body := csvHeader +
		"2020-01-02,AAA,1,1,1,10,100,0,0\n" +
		"2020-01-02,BBB,1,1,1,20,100,0.5,0\n" +
		"2020-01-03,AAA,1,1,1,0,100,0,0\n" +
		"2020-01-06,BBB,1,1,1,21,100,0,0\n"
	r, err := NewDayReader(strings.NewReader(body), DefaultFilters())
	require.NoError(t, err)

	d, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, day("2020-01-02"), d.Date)
	assert.Equal(t, map[string]float64{"AAA": 10, "BBB": 20}, d.Prices())
	assert.Equal(t, map[string]float64{"BBB": 0.5}, d.Dividends())

	d, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, day("2020-01-06"), d.Date, "days with no admitted rows are skipped")

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
	require.NoError(t, r.Close())
}

func TestDayReaderRejectsOutOfOrder(t *testing.T) {
	body := csvHeader +
		"2020-01-03,AAA,1,1,1,10,100,0,0\n" +
		"2020-01-02,AAA,1,1,1,10,100,0,0\n"
	r, err := NewDayReader(strings.NewReader(body), DefaultFilters())
	require.NoError(t, err)
	_, err = r.Next()
	assert.ErrorIs(t, err, model.ErrDataFormat)
}

func TestDayReaderRejectsRevisitedDate(t *testing.T) {
	body := csvHeader +
		"2020-01-02,AAA,1,1,1,10,100,0,0\n" +
		"2020-01-03,AAA,1,1,1,10,100,0,0\n" +
		"2020-01-02,BBB,1,1,1,10,100,0,0\n"
	r, err := NewDayReader(strings.NewReader(body), DefaultFilters())
	require.NoError(t, err)
	_, err = r.Next()
	require.NoError(t, err)
	_, err = r.Next()
	assert.ErrorIs(t, err, model.ErrDataFormat)
}

func TestDayReaderMatchesLoader(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, GenerateSynthetic(&sb, SyntheticOptions{Start: day("2020-01-01"), End: day("2020-03-31"), DropEvery: 7}))

	f := DefaultFilters()
	f.Range = model.DateRange{Start: day("2020-01-15"), End: day("2020-03-15")}
	md, err := ReadMarketData(strings.NewReader(sb.String()), LoadOptions{Filters: f})
	require.NoError(t, err)

	r, err := NewDayReader(strings.NewReader(sb.String()), f)
	require.NoError(t, err)
	var dates []time.Time
	for {
		d, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		dates = append(dates, d.Date)
		assert.Equal(t, md.Day(d.Date).Bars, d.Bars)
	}
	assert.Equal(t, md.TradingDates(), dates)
}
