package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"portfolio-backtest/internal/model"
)

// DayReader yields one DaySlice per trading date from a single forward pass
// over a CSV whose rows are grouped by date in ascending order. Only the
// current day's rows are held in memory.
type DayReader struct {
	closer  io.Closer
	cr      *csv.Reader
	h       header
	filters Filters
	line    int

	current *model.DaySlice
	last    time.Time
	started bool
	done    bool
}

// OpenDayReader opens path and validates its header.
func OpenDayReader(path string, filters Filters) (*DayReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open market data: %w", err)
	}
	r, err := NewDayReader(f, filters)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// NewDayReader wraps r. The caller keeps ownership of r.
func NewDayReader(r io.Reader, filters Filters) (*DayReader, error) {
	if err := filters.Validate(); err != nil {
		return nil, err
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
	return &DayReader{cr: cr, h: h, filters: filters, line: 1}, nil
}

// Next returns the next non-empty day, or io.EOF when the input is exhausted.
// A date earlier than one already seen is an ErrDataFormat.
func (r *DayReader) Next() (*model.DaySlice, error) {
	for !r.done {
		record, err := r.cr.Read()
		if errors.Is(err, io.EOF) {
			r.done = true
			break
		}
		r.line++
		if err != nil {
			return nil, model.DataFormatErrorf("line %d: %v", r.line, err)
		}

		d, err := r.h.date(record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", r.line, err)
		}
		if !r.filters.Range.Contains(d) {
			continue
		}

		var flushed *model.DaySlice
		switch {
		case !r.started:
			r.started = true
			r.last = d
			r.current = model.NewDaySlice(d)
		case d.Before(r.last):
			return nil, model.DataFormatErrorf("line %d: date %s after %s; rows must be grouped by ascending date",
				r.line, d.Format(time.DateOnly), r.last.Format(time.DateOnly))
		case d.After(r.last):
			flushed = r.current
			r.last = d
			r.current = model.NewDaySlice(d)
		}

		bar, ok, err := r.filters.Admit(r.h, record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", r.line, err)
		}
		if ok {
			r.current.Add(bar)
		}
		if flushed != nil && flushed.Len() > 0 {
			return flushed, nil
		}
	}

	if r.current != nil {
		last := r.current
		r.current = nil
		if last.Len() > 0 {
			return last, nil
		}
	}
	return nil, io.EOF
}

func (r *DayReader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
