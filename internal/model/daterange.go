package model

import (
	"strings"
	"time"
)

// DateRange is an inclusive [Start, End] window of UTC calendar days.
// A zero bound is open.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ParseDate parses YYYY-MM-DD (a trailing time component is ignored) into a UTC midnight.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(time.DateOnly) {
		s = s[:len(time.DateOnly)]
	}
	return time.Parse(time.DateOnly, s)
}

// NewDateRange parses both bounds; empty strings leave the bound open.
func NewDateRange(start, end string) (DateRange, error) {
	var r DateRange
	var err error
	if strings.TrimSpace(start) != "" {
		if r.Start, err = ParseDate(start); err != nil {
			return DateRange{}, ConfigErrorf("invalid start date %q", start)
		}
	}
	if strings.TrimSpace(end) != "" {
		if r.End, err = ParseDate(end); err != nil {
			return DateRange{}, ConfigErrorf("invalid end date %q", end)
		}
	}
	if err := r.Validate(); err != nil {
		return DateRange{}, err
	}
	return r, nil
}

func (r DateRange) Validate() error {
	if !r.Start.IsZero() && !r.End.IsZero() && r.Start.After(r.End) {
		return ConfigErrorf("start_date %s is after end_date %s", r.Start.Format(time.DateOnly), r.End.Format(time.DateOnly))
	}
	return nil
}

func (r DateRange) Contains(t time.Time) bool {
	if !r.Start.IsZero() && t.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && t.After(r.End) {
		return false
	}
	return true
}

// Ordinal is the proleptic Gregorian day number with 0001-01-01 as day 1.
func Ordinal(t time.Time) int64 {
	const unixEpochOrdinal = 719163
	u := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).Unix()
	return u/86400 + unixEpochOrdinal
}
