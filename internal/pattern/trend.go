package pattern

import "math"

func slope(xs []float64, window int) float64 {
	return (xs[len(xs)-1] - xs[0]) / float64(window)
}

// Triangle flags row i from the endpoint slopes of the previous window highs
// and lows. Rising on both sides needs a tight high range, falling on both a
// tight low range, and mixed slopes must be close in relative magnitude.
func Triangle(high, low []float64, p Params) ([]int, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	n := len(high)
	if err := requireLen("triangle", n, p.Window); err != nil {
		return nil, err
	}
	out := make([]int, n)
	for i := p.Window; i < n; i++ {
		highs := high[i-p.Window : i]
		lows := low[i-p.Window : i]
		hs, ls := slope(highs, p.Window), slope(lows, p.Window)

		var r float64
		var err error
		switch {
		case hs > 0 && ls > 0:
			lo, hi := minMax(highs)
			r, err = ratio(hi-lo, lo)
		case hs < 0 && ls < 0:
			lo, hi := minMax(lows)
			r, err = ratio(hi-lo, lo)
		default:
			r, err = ratio(math.Abs(hs-ls), math.Max(math.Abs(hs), math.Abs(ls)))
		}
		if err == nil && r < p.Tolerance {
			out[i] = 1
		}
	}
	return out, nil
}

// Wedge flags row i when highs and lows both rise or both fall over the
// previous window bars and, on each side, the full-window slope stays within
// tolerance of the slope between the first two bars.
func Wedge(high, low []float64, p Params) ([]int, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	n := len(high)
	if err := requireLen("wedge", n, p.Window); err != nil {
		return nil, err
	}
	out := make([]int, n)
	for i := p.Window; i < n; i++ {
		highs := high[i-p.Window : i]
		lows := low[i-p.Window : i]
		hs, ls := slope(highs, p.Window), slope(lows, p.Window)
		if !(hs < 0 && ls < 0) && !(hs > 0 && ls > 0) {
			continue
		}
		hs2 := (highs[1] - highs[0]) / float64(p.Window-1)
		ls2 := (lows[1] - lows[0]) / float64(p.Window-1)
		hr, err := ratio(hs-hs2, hs2)
		if err != nil {
			continue
		}
		lr, err := ratio(ls-ls2, ls2)
		if err != nil {
			continue
		}
		if math.Abs(hr) < p.Tolerance && math.Abs(lr) < p.Tolerance {
			out[i] = 1
		}
	}
	return out, nil
}
