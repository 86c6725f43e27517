package strategy

import (
	"strconv"
	"strings"

	"portfolio-backtest/internal/model"
)

// DefaultRollingWindow is the trailing window, in observations, used when a
// rolling metric does not name one.
const DefaultRollingWindow = 252

type MetricKind string

const (
	MetricClosePrice          MetricKind = "close_price"
	MetricDollarVolume1D      MetricKind = "dollar_volume_1d"
	MetricRollingDollarVolume MetricKind = "rolling_dollar_volume"
)

// Metric is a ranking key. Window is set only for rolling metrics.
type Metric struct {
	Kind   MetricKind
	Window int
}

func (m Metric) String() string {
	if m.Kind == MetricRollingDollarVolume {
		return "rolling_dollar_volume_" + strconv.Itoa(m.Window) + "d"
	}
	return string(m.Kind)
}

// ParseMetric accepts close_price, dollar_volume_1d, rolling_dollar_volume and
// rolling_dollar_volume_<W>d. A positive window overrides any W in the name.
func ParseMetric(name string, window int) (Metric, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch {
	case name == "" || name == string(MetricClosePrice):
		return Metric{Kind: MetricClosePrice}, nil
	case name == string(MetricDollarVolume1D):
		return Metric{Kind: MetricDollarVolume1D}, nil
	case strings.HasPrefix(name, string(MetricRollingDollarVolume)):
		w := DefaultRollingWindow
		rest := strings.TrimPrefix(name, string(MetricRollingDollarVolume))
		if rest != "" {
			digits := strings.TrimSuffix(strings.TrimPrefix(rest, "_"), "d")
			n, err := strconv.Atoi(digits)
			if err != nil || !strings.HasPrefix(rest, "_") || !strings.HasSuffix(rest, "d") || n <= 0 {
				return Metric{}, model.ConfigErrorf("unsupported metric %q", name)
			}
			w = n
		}
		if window > 0 {
			w = window
		}
		return Metric{Kind: MetricRollingDollarVolume, Window: w}, nil
	default:
		return Metric{}, model.ConfigErrorf("unsupported metric %q", name)
	}
}

// Values returns the metric for every priced symbol on the day, dropping
// non-positive values.
func (m Metric) Values(ctx Context) map[string]float64 {
	out := make(map[string]float64, ctx.Day.Len())
	for sym, bar := range ctx.Day.Bars {
		var v float64
		switch m.Kind {
		case MetricClosePrice:
			v = bar.Close
		case MetricDollarVolume1D:
			v = bar.DollarVolume()
		case MetricRollingDollarVolume:
			if ctx.Rolling != nil {
				v = ctx.Rolling.Value(sym, m.Window)
			}
		}
		if v > 0 {
			out[sym] = v
		}
	}
	return out
}
