// Package pattern holds the geometric chart-pattern detectors.
//
// Every detector is a pure function over price columns returning one 0/1 flag
// per row. Rows without enough history are 0. A series shorter than the
// detector's window is rejected with *model.InsufficientDataError. Ratios with
// a zero denominator make that row a non-match.
package pattern

import (
	"fmt"
	"math"

	"ChartSentinel/internal/model"
)

// Defaults shared by the windowed detectors.
const (
	DefaultWindow    = 10
	DefaultTolerance = 0.02

	headAndShouldersLookback = 6
	harmonicLookback         = 5
)

// Params configures the windowed detectors.
type Params struct {
	Window    int
	Tolerance float64
}

// DefaultParams returns window 10 and tolerance 2%.
func DefaultParams() Params {
	return Params{Window: DefaultWindow, Tolerance: DefaultTolerance}
}

func (p Params) validate() error {
	if p.Window < 2 {
		return fmt.Errorf("pattern window must be at least 2, got %d", p.Window)
	}
	if p.Tolerance <= 0 || p.Tolerance >= 1 {
		return fmt.Errorf("pattern tolerance must be in (0, 1), got %g", p.Tolerance)
	}
	return nil
}

func requireLen(stage string, n, need int) error {
	if n < need {
		return &model.InsufficientDataError{Stage: stage, Have: n, Need: need}
	}
	return nil
}

// ratio divides num by den, reporting model.ErrNumericDegenerate for a zero
// or non-finite result.
func ratio(num, den float64) (float64, error) {
	if den == 0 || math.IsNaN(den) {
		return 0, model.ErrNumericDegenerate
	}
	r := num / den
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, model.ErrNumericDegenerate
	}
	return r, nil
}

// relDiff is |a-b|/a.
func relDiff(a, b float64) (float64, error) {
	return ratio(math.Abs(a-b), a)
}

// within reports target-tol <= x <= target+tol.
func within(x, target, tol float64) bool {
	return target-tol <= x && x <= target+tol
}

// withinAny reports whether x is within tol of any target.
func withinAny(x, tol float64, targets ...float64) bool {
	for _, t := range targets {
		if within(x, t, tol) {
			return true
		}
	}
	return false
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func minMax(xs []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, x := range xs {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	return lo, hi
}

// argMax returns the first index of the largest value, skipping skip.
func argMax(xs []float64, skip int) int {
	best := -1
	for i, x := range xs {
		if i == skip {
			continue
		}
		if best < 0 || x > xs[best] {
			best = i
		}
	}
	return best
}

// argMin returns the first index of the smallest value, skipping skip.
func argMin(xs []float64, skip int) int {
	best := -1
	for i, x := range xs {
		if i == skip {
			continue
		}
		if best < 0 || x < xs[best] {
			best = i
		}
	}
	return best
}
