package pattern

import "fmt"

// FVG flags a fair value gap at row i when the bar's range clears some bar in
// the previous window bars: its low above that bar's high, or its high below
// that bar's low. Bars are scanned nearest first and the first hit wins.
func FVG(high, low []float64, window int) ([]int, error) {
	n := len(high)
	if window < 1 {
		return nil, fmt.Errorf("fvg window must be positive, got %d", window)
	}
	if err := requireLen("fvg", n, window); err != nil {
		return nil, err
	}
	out := make([]int, n)
	for i := window; i < n; i++ {
		for j := 1; j <= window; j++ {
			if low[i] > high[i-j] || high[i] < low[i-j] {
				out[i] = 1
				break
			}
		}
	}
	return out, nil
}
