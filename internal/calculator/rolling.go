package calculator

import (
	"fmt"
	"math"
)

// RollingMax returns the max of col over a trailing window ending at each row.
// Rows with fewer than minPeriods values in their window are NaN; early rows
// use a shrunk window once minPeriods is met.
func RollingMax(col []float64, window, minPeriods int) []float64 {
	return rolling(col, window, minPeriods, math.Inf(-1), math.Max)
}

// RollingMin is the min counterpart of RollingMax.
func RollingMin(col []float64, window, minPeriods int) []float64 {
	return rolling(col, window, minPeriods, math.Inf(1), math.Min)
}

func rolling(col []float64, window, minPeriods int, init float64, pick func(a, b float64) float64) []float64 {
	out := make([]float64, len(col))
	for i := range col {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		acc := init
		count := 0
		for j := start; j <= i; j++ {
			if math.IsNaN(col[j]) {
				continue
			}
			acc = pick(acc, col[j])
			count++
		}
		if count < minPeriods || count == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = acc
	}
	return out
}

// Shift moves col by n rows: positive n lags (row i reads i-n), negative n leads.
// Vacated rows are NaN.
func Shift(col []float64, n int) []float64 {
	out := make([]float64, len(col))
	for i := range out {
		j := i - n
		if j < 0 || j >= len(col) {
			out[i] = math.NaN()
			continue
		}
		out[i] = col[j]
	}
	return out
}

// Position returns where current sits within [low, high] (0.0~1.0).
func Position(current, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, fmt.Errorf("high %.4f must be >= low %.4f", high, low)
	}
	pos := (current - low) / (high - low)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos, nil
}

func nanColumn(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func isMissing(f float64) bool { return math.IsNaN(f) || math.IsInf(f, 0) }
