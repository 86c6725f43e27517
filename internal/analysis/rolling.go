package analysis

import (
	"sort"
	"sync"
)

// window is a fixed-capacity FIFO with a running sum.
type window struct {
	values []float64
	head   int
	full   bool
	sum    float64
}

func newWindow(capacity int) *window {
	return &window{values: make([]float64, capacity)}
}

func (w *window) push(v float64) {
	if w.full {
		w.sum -= w.values[w.head]
	}
	w.values[w.head] = v
	w.sum += v
	w.head++
	if w.head == len(w.values) {
		w.head = 0
		w.full = true
	}
}

// RollingStore keeps trailing-window sums per symbol for a fixed set of window
// lengths. Each Update pushes one observation into every tracked window.
//
// The store is safe for concurrent use, but within a day all updates must be
// applied before any reader asks for that day's values.
type RollingStore struct {
	mu      sync.RWMutex
	windows []int
	series  map[string]map[int]*window
}

// NewRollingStore tracks the given window lengths. Non-positive and duplicate
// lengths are ignored.
func NewRollingStore(windows ...int) *RollingStore {
	uniq := make(map[int]struct{}, len(windows))
	var ws []int
	for _, w := range windows {
		if w <= 0 {
			continue
		}
		if _, ok := uniq[w]; ok {
			continue
		}
		uniq[w] = struct{}{}
		ws = append(ws, w)
	}
	sort.Ints(ws)
	return &RollingStore{windows: ws, series: make(map[string]map[int]*window)}
}

// Windows returns the tracked window lengths, ascending.
func (s *RollingStore) Windows() []int { return s.windows }

func (s *RollingStore) Tracks(window int) bool {
	i := sort.SearchInts(s.windows, window)
	return i < len(s.windows) && s.windows[i] == window
}

func (s *RollingStore) Update(symbol string, value float64) {
	if len(s.windows) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	bySize, ok := s.series[symbol]
	if !ok {
		bySize = make(map[int]*window, len(s.windows))
		for _, w := range s.windows {
			bySize[w] = newWindow(w)
		}
		s.series[symbol] = bySize
	}
	for _, w := range bySize {
		w.push(value)
	}
}

// Value returns the running sum for symbol over window, or 0 when the symbol
// was never updated or the window is not tracked.
func (s *RollingStore) Value(symbol string, window int) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.series[symbol][window]
	if !ok {
		return 0
	}
	return w.sum
}
