package calculator

import "fmt"

// DefaultFibWindow is the rolling high/low window for retracement levels.
const DefaultFibWindow = 20

// FibLevels holds the 38.2% and 61.8% retracements measured down from the rolling high.
type FibLevels struct {
	Fib382 []float64
	Fib618 []float64
}

// Fibonacci computes retracement levels over a full trailing window.
// The first window-1 rows are NaN.
func Fibonacci(high, low []float64, window int) (FibLevels, error) {
	if window <= 0 {
		return FibLevels{}, fmt.Errorf("fibonacci: window must be positive, got %d", window)
	}
	hi := RollingMax(high, window, window)
	lo := RollingMin(low, window, window)
	n := len(hi)
	f := FibLevels{Fib382: make([]float64, n), Fib618: make([]float64, n)}
	for i := 0; i < n; i++ {
		span := hi[i] - lo[i]
		f.Fib382[i] = hi[i] - 0.382*span
		f.Fib618[i] = hi[i] - 0.618*span
	}
	return f, nil
}
