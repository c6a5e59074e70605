package calculator

import "ChartSentinel/internal/model"

// CrossPair names a short/long EMA pair.
type CrossPair struct {
	Short int
	Long  int
}

// CrossPairs are the six unordered pairs among EMALengths, short first.
var CrossPairs = []CrossPair{
	{25, 50}, {25, 100}, {25, 200},
	{50, 100}, {50, 200},
	{100, 200},
}

// DetectCross classifies each row of short against long.
// Row 0 is always none; NaN on either side of a comparison yields none.
func DetectCross(short, long []float64) []model.Cross {
	n := len(short)
	if len(long) < n {
		n = len(long)
	}
	out := make([]model.Cross, n)
	for i := 1; i < n; i++ {
		ps, pl, s, l := short[i-1], long[i-1], short[i], long[i]
		switch {
		case ps <= pl && s > l:
			out[i] = model.CrossUp
		case ps >= pl && s < l:
			out[i] = model.CrossDown
		}
	}
	return out
}
