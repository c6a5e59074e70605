package calculator

import (
	"github.com/markcheno/go-talib"

	"ChartSentinel/internal/model"
)

// Fixed oscillator periods.
const (
	RSIPeriod      = 14
	MACDFast       = 12
	MACDSlow       = 26
	MACDSignal     = 9
	BollingerLen   = 20
	BollingerDev   = 2.0
	StochK         = 14
	StochSmoothK   = 3
	StochD         = 3
	CCIPeriod      = 20
	ATRPeriod      = 14
	WilliamsPeriod = 14
)

// EMALengths and SMALengths are the moving-average families in every frame.
var (
	EMALengths = []int{25, 50, 100, 200}
	SMALengths = []int{50, 200}
)

// Oscillators holds the oscillator columns for one series, aligned by row.
// Rows inside an indicator's warmup are NaN. EMA columns are already filled.
type Oscillators struct {
	RSI        []float64
	MACD       []float64
	MACDSignal []float64
	MACDDiff   []float64

	EMA map[int][]float64
	SMA map[int][]float64

	BollingerHigh []float64
	BollingerMid  []float64
	BollingerLow  []float64

	StochK    []float64
	StochD    []float64
	CCI       []float64
	ATR       []float64
	OBV       []float64
	WilliamsR []float64
}

// ComputeOscillators derives every oscillator column from cols.
// A missing close, high, low or volume column is reported as *model.MissingColumnError.
func ComputeOscillators(cols model.Columns) (*Oscillators, error) {
	if err := cols.Require("close", "high", "low", "volume"); err != nil {
		return nil, err
	}
	c, h, l, v := cols.Close, cols.High, cols.Low, cols.Volume
	n := len(c)

	o := &Oscillators{
		EMA: make(map[int][]float64, len(EMALengths)),
		SMA: make(map[int][]float64, len(SMALengths)),
	}

	o.RSI = guarded(n, RSIPeriod, func() []float64 { return talib.Rsi(c, RSIPeriod) })

	macdLookback := MACDSlow - 1 + MACDSignal - 1
	if n > macdLookback {
		m, s, d := talib.Macd(c, MACDFast, MACDSlow, MACDSignal)
		o.MACD, o.MACDSignal, o.MACDDiff = mask(m, macdLookback), mask(s, macdLookback), mask(d, macdLookback)
	} else {
		o.MACD, o.MACDSignal, o.MACDDiff = nanColumn(n), nanColumn(n), nanColumn(n)
	}

	bbLookback := BollingerLen - 1
	if n > bbLookback {
		hi, mid, lo := talib.BBands(c, BollingerLen, BollingerDev, BollingerDev, talib.SMA)
		o.BollingerHigh, o.BollingerMid, o.BollingerLow = mask(hi, bbLookback), mask(mid, bbLookback), mask(lo, bbLookback)
	} else {
		o.BollingerHigh, o.BollingerMid, o.BollingerLow = nanColumn(n), nanColumn(n), nanColumn(n)
	}

	for _, p := range EMALengths {
		raw := guarded(n, p-1, func() []float64 { return talib.Ema(c, p) })
		o.EMA[p] = FillForwardBackward(raw)
	}
	for _, p := range SMALengths {
		o.SMA[p] = guarded(n, p-1, func() []float64 { return talib.Sma(c, p) })
	}

	stochLookback := StochK - 1 + StochSmoothK - 1 + StochD - 1
	if n > stochLookback {
		k, d := talib.Stoch(h, l, c, StochK, StochSmoothK, talib.SMA, StochD, talib.SMA)
		o.StochK, o.StochD = mask(k, stochLookback), mask(d, stochLookback)
	} else {
		o.StochK, o.StochD = nanColumn(n), nanColumn(n)
	}

	o.CCI = guarded(n, CCIPeriod-1, func() []float64 { return talib.Cci(h, l, c, CCIPeriod) })
	o.ATR = guarded(n, ATRPeriod, func() []float64 { return talib.Atr(h, l, c, ATRPeriod) })
	o.WilliamsR = guarded(n, WilliamsPeriod-1, func() []float64 { return talib.WillR(h, l, c, WilliamsPeriod) })
	o.OBV = guarded(n, 0, func() []float64 { return talib.Obv(c, v) })

	return o, nil
}

// guarded runs calc only when the series is longer than lookback and masks the
// warmup rows; talib fills them with zeros and indexes past the end on short input.
func guarded(n, lookback int, calc func() []float64) []float64 {
	if n <= lookback {
		return nanColumn(n)
	}
	return mask(calc(), lookback)
}

func mask(col []float64, lookback int) []float64 {
	for i := 0; i < lookback && i < len(col); i++ {
		col[i] = nan
	}
	return col
}
