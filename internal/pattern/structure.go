package pattern

import "math"

// HeadAndShoulders flags row i when the high at i-3 (head) tops the highs at
// i-6 and i (shoulders), the shoulders are within tolerance of each other, and
// the close at i breaks below the neckline built from the lows at i-5, i-2 and i-1.
func HeadAndShoulders(high, low, closes []float64, tolerance float64) ([]int, error) {
	n := len(high)
	if err := requireLen("head_and_shoulders", n, headAndShouldersLookback); err != nil {
		return nil, err
	}
	out := make([]int, n)
	for i := headAndShouldersLookback; i < n; i++ {
		left, head, right := high[i-6], high[i-3], high[i]
		neckline := (math.Min(low[i-5], low[i-1]) + low[i-2]) / 2

		if !(head > left && head > right) {
			continue
		}
		if !(left*(1-tolerance) <= right && right <= left*(1+tolerance)) {
			continue
		}
		if closes[i] < neckline {
			out[i] = 1
		}
	}
	return out, nil
}

// Harmonic flags an XABCD structure ending at row i. X, B and D are the lows at
// i-5, i-3 and i-1, A and C the highs at i-4 and i-2, and the low at i is the
// projection point. All four retracement ratios must sit within tolerance of
// their Fibonacci targets.
func Harmonic(high, low []float64, tolerance float64) ([]int, error) {
	n := len(high)
	if err := requireLen("harmonic", n, harmonicLookback); err != nil {
		return nil, err
	}
	out := make([]int, n)
	for i := harmonicLookback; i < n; i++ {
		x, a, b, c, d := low[i-5], high[i-4], low[i-3], high[i-2], low[i-1]
		cur := low[i]

		xab, err := ratio(b-x, a-x)
		if err != nil || !within(xab, 0.618, tolerance) {
			continue
		}
		abc, err := ratio(c-a, a-b)
		if err != nil || !withinAny(abc, tolerance, 0.382, 0.886) {
			continue
		}
		bcd, err := ratio(d-b, c-b)
		if err != nil || !withinAny(bcd, tolerance, 0.382, 0.886) {
			continue
		}
		proj, err := ratio(cur-c, c-d)
		if err != nil || !withinAny(proj, tolerance, 1.618, 2.618) {
			continue
		}
		out[i] = 1
	}
	return out, nil
}
