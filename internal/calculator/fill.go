package calculator

import "math"

var nan = math.NaN()

// FillForwardBackward is the EMA gap policy, applied identically to each EMA column:
//  1. non-finite cells become missing;
//  2. missing cells take the last defined value before them (forward fill);
//  3. leading missing cells take the first defined value (backward fill).
//
// This is a reporting policy, not standard TA. A column with no defined value
// stays all NaN. The input is not modified.
func FillForwardBackward(col []float64) []float64 {
	out := make([]float64, len(col))
	first := -1
	last := nan
	for i, f := range col {
		if isMissing(f) {
			out[i] = last
			continue
		}
		if first < 0 {
			first = i
		}
		out[i] = f
		last = f
	}
	for i := 0; i < first; i++ {
		out[i] = out[first]
	}
	return out
}
