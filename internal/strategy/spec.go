package strategy

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"portfolio-backtest/internal/model"
)

// Kind is the closed set of strategy types.
type Kind string

const (
	KindEqualWeight     Kind = "equal_weight"
	KindSP500Proxy      Kind = "sp500_proxy"
	KindExplicitSymbols Kind = "explicit_symbols"
	KindRandomN         Kind = "random_n"
	KindTopNRanked      Kind = "top_n_ranked"
	KindBottomNRanked   Kind = "bottom_n_ranked"
)

// Kinds lists every supported type in display order.
func Kinds() []Kind {
	return []Kind{KindEqualWeight, KindSP500Proxy, KindExplicitSymbols, KindRandomN, KindTopNRanked, KindBottomNRanked}
}

// DefaultStrategyID names the strategy used when a run configures none.
const DefaultStrategyID = "equal_weight_daily_default"

// Spec is the declarative form of a strategy as read from JSON or YAML.
type Spec struct {
	ID                 string         `json:"strategy_id" yaml:"strategy_id"`
	Type               Kind           `json:"type" yaml:"type"`
	RebalanceFrequency string         `json:"rebalance_frequency,omitempty" yaml:"rebalance_frequency,omitempty"`
	Params             map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
}

func DefaultSpec() Spec {
	return Spec{ID: DefaultStrategyID, Type: KindEqualWeight, RebalanceFrequency: string(model.RebalanceDaily)}
}

// Strategy is a validated, ready-to-run Spec.
type Strategy struct {
	ID        string
	Kind      Kind
	Frequency model.RebalanceFrequency
	Resolver  Resolver
}

// SP500Proxy holds the top names by trailing dollar volume, weighted by it.
type SP500Proxy struct {
	TopN
}

func (s *SP500Proxy) Name() string { return string(KindSP500Proxy) }

// Build validates spec and constructs its resolver. defaultSeed is used by
// random_n when its params carry no seed.
func Build(spec Spec, defaultSeed int64) (*Strategy, error) {
	id := strings.TrimSpace(spec.ID)
	if id == "" {
		return nil, model.ConfigErrorf("strategy_id is required")
	}
	freq, err := model.ParseRebalanceFrequency(spec.RebalanceFrequency)
	if err != nil {
		return nil, fmt.Errorf("strategy %s: %w", id, err)
	}
	p := params(spec.Params)
	kind := Kind(strings.ToLower(strings.TrimSpace(string(spec.Type))))

	var r Resolver
	switch kind {
	case KindEqualWeight:
		r = EqualWeight{}
	case KindExplicitSymbols:
		syms, err := p.stringList("symbols")
		if err != nil {
			return nil, fmt.Errorf("strategy %s: %w", id, err)
		}
		r = NewExplicitSymbols(syms)
	case KindRandomN:
		n, err := p.requiredPositiveInt("n")
		if err != nil {
			return nil, fmt.Errorf("strategy %s: %w", id, err)
		}
		seed, ok, err := p.intParam("seed")
		if err != nil {
			return nil, fmt.Errorf("strategy %s: %w", id, err)
		}
		if !ok {
			seed = defaultSeed
		}
		r = &RandomN{N: int(n), Seed: seed}
	case KindTopNRanked, KindBottomNRanked:
		n, err := p.requiredPositiveInt("n")
		if err != nil {
			return nil, fmt.Errorf("strategy %s: %w", id, err)
		}
		m, err := p.metric()
		if err != nil {
			return nil, fmt.Errorf("strategy %s: %w", id, err)
		}
		if kind == KindBottomNRanked {
			r = &BottomN{N: int(n), Metric: m}
			break
		}
		prop, err := p.boolParam("proportional")
		if err != nil {
			return nil, fmt.Errorf("strategy %s: %w", id, err)
		}
		r = &TopN{N: int(n), Metric: m, Proportional: prop}
	case KindSP500Proxy:
		n, ok, err := p.intParam("top_n")
		if err != nil {
			return nil, fmt.Errorf("strategy %s: %w", id, err)
		}
		if !ok {
			n = 500
		}
		if n <= 0 {
			return nil, model.ConfigErrorf("strategy %s: top_n must be > 0", id)
		}
		w, err := p.window()
		if err != nil {
			return nil, fmt.Errorf("strategy %s: %w", id, err)
		}
		r = &SP500Proxy{TopN{N: int(n), Metric: Metric{Kind: MetricRollingDollarVolume, Window: w}, Proportional: true}}
	default:
		return nil, model.ConfigErrorf("strategy %s: unknown type %q", id, spec.Type)
	}

	return &Strategy{
		ID:        id,
		Kind:      kind,
		Frequency: freq,
		Resolver:  r,
	}, nil
}

// BuildAll builds every spec, enforcing unique ids. An empty list yields the
// default equal-weight strategy.
func BuildAll(specs []Spec, defaultSeed int64) ([]*Strategy, error) {
	if len(specs) == 0 {
		specs = []Spec{DefaultSpec()}
	}
	seen := make(map[string]struct{}, len(specs))
	out := make([]*Strategy, 0, len(specs))
	for i, spec := range specs {
		s, err := Build(spec, defaultSeed)
		if err != nil {
			return nil, fmt.Errorf("strategy #%d: %w", i, err)
		}
		if _, ok := seen[s.ID]; ok {
			return nil, model.ConfigErrorf("duplicate strategy_id %q", s.ID)
		}
		seen[s.ID] = struct{}{}
		out = append(out, s)
	}
	return out, nil
}

// RequiredWindows returns the rolling windows the strategies read, ascending.
func RequiredWindows(strategies []*Strategy) []int {
	set := make(map[int]struct{})
	for _, s := range strategies {
		var m Metric
		switch r := s.Resolver.(type) {
		case *TopN:
			m = r.Metric
		case *BottomN:
			m = r.Metric
		case *SP500Proxy:
			m = r.Metric
		default:
			continue
		}
		if m.Kind == MetricRollingDollarVolume {
			set[m.Window] = struct{}{}
		}
	}
	out := make([]int, 0, len(set))
	for w := range set {
		out = append(out, w)
	}
	sort.Ints(out)
	return out
}

// ExplicitUniverse returns the union of explicit symbols when every strategy
// is explicit_symbols, and nil otherwise.
func ExplicitUniverse(strategies []*Strategy) []string {
	if len(strategies) == 0 {
		return nil
	}
	set := make(map[string]struct{})
	for _, s := range strategies {
		e, ok := s.Resolver.(*ExplicitSymbols)
		if !ok {
			return nil
		}
		for _, sym := range e.Symbols {
			set[sym] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for sym := range set {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

type params map[string]any

func (p params) intParam(key string) (int64, bool, error) {
	raw, ok := p[key]
	if !ok || raw == nil {
		return 0, false, nil
	}
	var f float64
	switch v := raw.(type) {
	case int:
		return int64(v), true, nil
	case int64:
		return v, true, nil
	case uint64:
		if v > math.MaxInt64 {
			return 0, false, model.ConfigErrorf("%s is out of range: %d", key, v)
		}
		return int64(v), true, nil
	case float64:
		f = v
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false, model.ConfigErrorf("%s must be an integer, got %q", key, v.String())
		}
		return n, true, nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, false, model.ConfigErrorf("%s must be an integer, got %q", key, v)
		}
		return n, true, nil
	default:
		return 0, false, model.ConfigErrorf("%s must be an integer, got %T", key, raw)
	}
	if f != math.Trunc(f) {
		return 0, false, model.ConfigErrorf("%s must be an integer, got %v", key, f)
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false, model.ConfigErrorf("%s is out of range: %v", key, f)
	}
	return int64(f), true, nil
}

func (p params) requiredPositiveInt(key string) (int64, error) {
	n, ok, err := p.intParam(key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, model.ConfigErrorf("missing required param %q", key)
	}
	if n <= 0 {
		return 0, model.ConfigErrorf("%s must be > 0", key)
	}
	return n, nil
}

func (p params) boolParam(key string) (bool, error) {
	raw, ok := p[key]
	if !ok || raw == nil {
		return false, nil
	}
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, model.ConfigErrorf("%s must be a boolean, got %q", key, v)
		}
		return b, nil
	default:
		return false, model.ConfigErrorf("%s must be a boolean, got %T", key, raw)
	}
}

func (p params) stringList(key string) ([]string, error) {
	raw, ok := p[key]
	if !ok || raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, model.ConfigErrorf("%s must be a list of strings", key)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, model.ConfigErrorf("%s must be a list of strings", key)
	}
}

func (p params) window() (int, error) {
	w, ok, err := p.intParam("rolling_window")
	if err != nil {
		return 0, err
	}
	if !ok {
		return DefaultRollingWindow, nil
	}
	if w <= 0 {
		return 0, model.ConfigErrorf("rolling_window must be > 0")
	}
	return int(w), nil
}

func (p params) metric() (Metric, error) {
	name := ""
	if raw, ok := p["metric"]; ok && raw != nil {
		s, ok := raw.(string)
		if !ok {
			return Metric{}, model.ConfigErrorf("metric must be a string")
		}
		name = s
	}
	w, ok, err := p.intParam("rolling_window")
	if err != nil {
		return Metric{}, err
	}
	if ok && w <= 0 {
		return Metric{}, model.ConfigErrorf("rolling_window must be > 0")
	}
	return ParseMetric(name, int(w))
}
