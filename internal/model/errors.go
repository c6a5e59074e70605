package model

import (
	"errors"
	"fmt"
)

// ErrNumericDegenerate marks a ratio whose denominator is zero or near zero.
// Detectors treat it as a non-match for the affected row.
var ErrNumericDegenerate = errors.New("numeric degenerate: zero denominator")

// InsufficientDataError reports a series shorter than a stage's required lookback.
type InsufficientDataError struct {
	Stage string
	Have  int
	Need  int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for %s: have %d rows, need %d", e.Stage, e.Have, e.Need)
}

// MissingColumnError reports a required OHLCV column that is absent or empty.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing column %q", e.Column)
}

// IsInsufficientData reports whether err wraps an *InsufficientDataError.
func IsInsufficientData(err error) bool {
	var ide *InsufficientDataError
	return errors.As(err, &ide)
}
