package domain

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is matching. Every conversion failure wraps exactly one of them.
var (
	ErrFormat = errors.New("invalid MGRS format")
	ErrRange  = errors.New("MGRS reference out of range")
)

// FormatError reports an input that does not match the MGRS grammar.
type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("parse MGRS %q: %s", e.Input, e.Reason)
}

func (e *FormatError) Unwrap() error { return ErrFormat }

// RangeError reports a structurally valid reference that cannot be placed on
// the grid: a 100 km square outside its latitude band, or a coordinate beyond
// the MGRS limits of its zone.
type RangeError struct {
	Input    string
	Easting  float64
	Northing float64
	Reason   string
}

func (e *RangeError) Error() string {
	if e.Easting == 0 && e.Northing == 0 {
		return fmt.Sprintf("convert MGRS %q: %s", e.Input, e.Reason)
	}
	return fmt.Sprintf("convert MGRS %q: %s (easting %.1f, northing %.1f)", e.Input, e.Reason, e.Easting, e.Northing)
}

func (e *RangeError) Unwrap() error { return ErrRange }

func formatErr(input, format string, args ...any) error {
	return &FormatError{Input: input, Reason: fmt.Sprintf(format, args...)}
}
