package pattern

// DoubleTop flags row i when the two highest highs of the previous window bars
// are within tolerance of each other, the second peak does not precede the
// first, and the close at i is below the mean of those highs.
func DoubleTop(high, closes []float64, p Params) ([]int, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	n := len(high)
	if err := requireLen("double_top", n, p.Window); err != nil {
		return nil, err
	}
	out := make([]int, n)
	for i := p.Window; i < n; i++ {
		highs := high[i-p.Window : i]
		idx1 := argMax(highs, -1)
		idx2 := argMax(highs, idx1)
		if idx2 < idx1 {
			continue
		}
		d, err := relDiff(highs[idx1], highs[idx2])
		if err != nil || d >= p.Tolerance {
			continue
		}
		if closes[i] < mean(highs) {
			out[i] = 1
		}
	}
	return out, nil
}

// DoubleBottom flags row i when the two lowest lows of the previous window bars
// are within tolerance of each other and the close at i is above the mean of
// those lows.
//
// The ordering check compares the first trough with the position of the
// highest remaining low, not the second trough. Stored flags depend on this,
// so it is kept.
func DoubleBottom(low, closes []float64, p Params) ([]int, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	n := len(low)
	if err := requireLen("double_bottom", n, p.Window); err != nil {
		return nil, err
	}
	out := make([]int, n)
	for i := p.Window; i < n; i++ {
		lows := low[i-p.Window : i]
		idx1 := argMin(lows, -1)
		min2 := lows[argMin(lows, idx1)]
		if argMax(lows, idx1) < idx1 {
			continue
		}
		d, err := relDiff(lows[idx1], min2)
		if err != nil || d >= p.Tolerance {
			continue
		}
		if closes[i] > mean(lows) {
			out[i] = 1
		}
	}
	return out, nil
}
