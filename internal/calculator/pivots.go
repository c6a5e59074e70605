package calculator

import (
	"fmt"

	"ChartSentinel/internal/model"
)

// DefaultMinorPivotWindow is the rolling window for minor pivots.
const DefaultMinorPivotWindow = 10

// PivotLevels holds one set of floor-trader levels per row.
type PivotLevels struct {
	Pivot []float64
	Res1  []float64
	Sup1  []float64
	Res2  []float64
	Sup2  []float64
}

func newPivotLevels(n int) PivotLevels {
	return PivotLevels{
		Pivot: make([]float64, n),
		Res1:  make([]float64, n),
		Sup1:  make([]float64, n),
		Res2:  make([]float64, n),
		Sup2:  make([]float64, n),
	}
}

func (p PivotLevels) set(i int, high, low, last float64) {
	pivot := (high + low + last) / 3
	p.Pivot[i] = pivot
	p.Res1[i] = 2*pivot - low
	p.Sup1[i] = 2*pivot - high
	p.Res2[i] = pivot + (high - low)
	p.Sup2[i] = pivot - (high - low)
}

// MajorPivots computes levels for row i from bar i-1 only. Row 0 is NaN.
func MajorPivots(high, low, closes []float64) PivotLevels {
	n := len(closes)
	p := newPivotLevels(n)
	h, l, c := Shift(high, 1), Shift(low, 1), Shift(closes, 1)
	for i := 0; i < n; i++ {
		p.set(i, h[i], l[i], c[i])
	}
	return p
}

// MinorPivots computes rolling levels over window bars. High and low are the
// trailing max and min with a shrunk window at the start of the series.
//
// The close is sampled from the close column led by window-1 rows, taking the
// first element of each full window. Those two offsets cancel, so the close at
// row i is the bar's own close and the first window-1 rows are NaN. The
// sampling is kept as is so stored levels match earlier reports.
func MinorPivots(high, low, closes []float64, window int) (PivotLevels, error) {
	if window <= 0 {
		return PivotLevels{}, fmt.Errorf("minor pivots: window must be positive, got %d", window)
	}
	n := len(closes)
	if n < window {
		return PivotLevels{}, &model.InsufficientDataError{Stage: "minor_pivots", Have: n, Need: window}
	}

	h := RollingMax(high, window, 1)
	l := RollingMin(low, window, 1)
	led := Shift(closes, -(window - 1))
	c := nanColumn(n)
	for i := window - 1; i < n; i++ {
		c[i] = led[i-window+1]
	}

	p := newPivotLevels(n)
	for i := 0; i < n; i++ {
		p.set(i, h[i], l[i], c[i])
	}
	return p, nil
}
