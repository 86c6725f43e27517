package model

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig marks invalid run or strategy configuration. It is always
	// raised before the first simulated day.
	ErrConfig = errors.New("config error")

	// ErrDataFormat marks input data that cannot be consumed at all
	// (missing columns, unparseable or out-of-order dates).
	ErrDataFormat = errors.New("data format error")
)

// ConfigErrorf wraps ErrConfig with a formatted message.
func ConfigErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
}

// DataFormatErrorf wraps ErrDataFormat with a formatted message.
func DataFormatErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDataFormat, fmt.Sprintf(format, args...))
}
