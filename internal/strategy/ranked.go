package strategy

import (
	"sort"
	"strconv"
)

// TopN holds the n symbols with the largest metric. With Proportional set the
// weights follow the metric values, otherwise they are equal.
type TopN struct {
	N            int
	Metric       Metric
	Proportional bool
}

func (s *TopN) Name() string {
	if s.Proportional {
		return "top_" + strconv.Itoa(s.N) + "_" + s.Metric.String() + "_proportional"
	}
	return "top_" + strconv.Itoa(s.N) + "_" + s.Metric.String()
}

func (s *TopN) Resolve(ctx Context) map[string]float64 {
	values := s.Metric.Values(ctx)
	selected := rank(values, true, s.N)
	if !s.Proportional {
		return EqualWeights(selected)
	}
	total := 0.0
	for _, sym := range selected {
		total += values[sym]
	}
	out := make(map[string]float64, len(selected))
	if total <= 0 {
		return out
	}
	for _, sym := range selected {
		out[sym] = values[sym] / total
	}
	return out
}

// BottomN equal-weights the n symbols with the smallest positive metric.
type BottomN struct {
	N      int
	Metric Metric
}

func (s *BottomN) Name() string {
	return "bottom_" + strconv.Itoa(s.N) + "_" + s.Metric.String()
}

func (s *BottomN) Resolve(ctx Context) map[string]float64 {
	return EqualWeights(rank(s.Metric.Values(ctx), false, s.N))
}

// rank orders symbols by value with a stable sort over the ascending symbol
// list, so ties always resolve alphabetically.
func rank(values map[string]float64, descending bool, n int) []string {
	syms := make([]string, 0, len(values))
	for s := range values {
		syms = append(syms, s)
	}
	sort.Strings(syms)
	sort.SliceStable(syms, func(i, j int) bool {
		if descending {
			return values[syms[i]] > values[syms[j]]
		}
		return values[syms[i]] < values[syms[j]]
	})
	if n < len(syms) {
		syms = syms[:n]
	}
	return syms
}
