package strategy

import (
	"math/rand"
	"sort"
	"strconv"
	"strings"

	"portfolio-backtest/internal/model"
)

// EqualWeight holds every priced symbol at 1/N.
type EqualWeight struct{}

func (EqualWeight) Name() string { return "equal_weight" }

func (EqualWeight) Resolve(ctx Context) map[string]float64 {
	return EqualWeights(ctx.Day.Symbols())
}

// ExplicitSymbols equal-weights a fixed symbol list, restricted to what is priced.
type ExplicitSymbols struct {
	Symbols []string
}

func NewExplicitSymbols(symbols []string) *ExplicitSymbols {
	seen := make(map[string]struct{}, len(symbols))
	var out []string
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return &ExplicitSymbols{Symbols: out}
}

func (s *ExplicitSymbols) Name() string { return "explicit_" + strings.Join(s.Symbols, "_") }

func (s *ExplicitSymbols) Resolve(ctx Context) map[string]float64 {
	var selected []string
	for _, sym := range s.Symbols {
		if _, ok := ctx.Day.Bars[sym]; ok {
			selected = append(selected, sym)
		}
	}
	return EqualWeights(selected)
}

// RandomN samples n priced symbols per day. The generator is seeded with
// Seed plus the day's ordinal, so a given day always yields the same sample.
type RandomN struct {
	N    int
	Seed int64
}

func (s *RandomN) Name() string { return "random_" + strconv.Itoa(s.N) }

func (s *RandomN) Resolve(ctx Context) map[string]float64 {
	candidates := ctx.Day.Symbols()
	if len(candidates) == 0 {
		return map[string]float64{}
	}
	k := s.N
	if k > len(candidates) {
		k = len(candidates)
	}
	rng := rand.New(rand.NewSource(s.Seed + model.Ordinal(ctx.Date)))
	for i := 0; i < k; i++ {
		j := i + rng.Intn(len(candidates)-i)
		candidates[i], candidates[j] = candidates[j], candidates[i]
	}
	selected := candidates[:k]
	sort.Strings(selected)
	return EqualWeights(selected)
}
