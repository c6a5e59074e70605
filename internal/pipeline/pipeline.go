// Package pipeline turns one candle series into its indicator frame.
//
// Stages run in a fixed order: oscillators, EMA crosses, pivots, Fibonacci,
// then pattern detectors. Each stage reads the series columns or columns
// finished by an earlier stage; nothing writes back into the series.
package pipeline

import (
	"fmt"

	"ChartSentinel/internal/calculator"
	"ChartSentinel/internal/model"
	"ChartSentinel/internal/pattern"
)

// Run derives the indicator frame for series. A failed run returns no frame.
func Run(series *model.CandleSeries, p Params) (*model.IndicatorFrame, error) {
	if series == nil {
		return nil, fmt.Errorf("pipeline: nil series")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	cols := series.Columns()
	if err := cols.Require("open", "high", "low", "close", "volume"); err != nil {
		return nil, err
	}
	n := cols.Len()
	if n < p.Floor() {
		return nil, &model.InsufficientDataError{Stage: "pipeline", Have: n, Need: p.Floor()}
	}

	osc, err := calculator.ComputeOscillators(cols)
	if err != nil {
		return nil, fmt.Errorf("oscillators: %w", err)
	}

	crosses := make([][]model.Cross, len(calculator.CrossPairs))
	for k, pair := range calculator.CrossPairs {
		crosses[k] = calculator.DetectCross(osc.EMA[pair.Short], osc.EMA[pair.Long])
	}

	major := calculator.MajorPivots(cols.High, cols.Low, cols.Close)
	minor, err := calculator.MinorPivots(cols.High, cols.Low, cols.Close, p.MinorPivotWindow)
	if err != nil {
		return nil, fmt.Errorf("minor pivots: %w", err)
	}
	fib, err := calculator.Fibonacci(cols.High, cols.Low, p.FibWindow)
	if err != nil {
		return nil, fmt.Errorf("fibonacci: %w", err)
	}

	flags, err := pattern.DetectAll(cols, p.patterns())
	if err != nil {
		return nil, fmt.Errorf("patterns: %w", err)
	}

	rows := make([]model.IndicatorRow, n)
	for i := range rows {
		r := &rows[i]
		r.Time = cols.Time[i]
		r.Close = cols.Close[i]

		r.RSI = model.Value(osc.RSI[i])
		r.MACD = model.Value(osc.MACD[i])
		r.MACDSignal = model.Value(osc.MACDSignal[i])
		r.MACDDiff = model.Value(osc.MACDDiff[i])

		r.EMA25 = model.Value(osc.EMA[25][i])
		r.EMA50 = model.Value(osc.EMA[50][i])
		r.EMA100 = model.Value(osc.EMA[100][i])
		r.EMA200 = model.Value(osc.EMA[200][i])
		r.SMA50 = model.Value(osc.SMA[50][i])
		r.SMA200 = model.Value(osc.SMA[200][i])

		r.BollingerHigh = model.Value(osc.BollingerHigh[i])
		r.BollingerMid = model.Value(osc.BollingerMid[i])
		r.BollingerLow = model.Value(osc.BollingerLow[i])

		r.Cross25x50 = crosses[0][i]
		r.Cross25x100 = crosses[1][i]
		r.Cross25x200 = crosses[2][i]
		r.Cross50x100 = crosses[3][i]
		r.Cross50x200 = crosses[4][i]
		r.Cross100x200 = crosses[5][i]

		r.Pivot = model.Value(major.Pivot[i])
		r.PivotRes1 = model.Value(major.Res1[i])
		r.PivotSup1 = model.Value(major.Sup1[i])
		r.PivotRes2 = model.Value(major.Res2[i])
		r.PivotSup2 = model.Value(major.Sup2[i])

		r.MinorPivot = model.Value(minor.Pivot[i])
		r.MinorPivotRes1 = model.Value(minor.Res1[i])
		r.MinorPivotSup1 = model.Value(minor.Sup1[i])
		r.MinorPivotRes2 = model.Value(minor.Res2[i])
		r.MinorPivotSup2 = model.Value(minor.Sup2[i])

		r.Fib382 = model.Value(fib.Fib382[i])
		r.Fib618 = model.Value(fib.Fib618[i])

		r.StochK = model.Value(osc.StochK[i])
		r.StochD = model.Value(osc.StochD[i])
		r.CCI = model.Value(osc.CCI[i])
		r.ATR = model.Value(osc.ATR[i])
		r.OBV = model.Value(osc.OBV[i])
		r.WilliamsR = model.Value(osc.WilliamsR[i])

		r.FVG = flags.FVG[i]
		r.HeadAndShoulders = flags.HeadAndShoulders[i]
		r.Harmonic = flags.Harmonic[i]
		r.Wedge = flags.Wedge[i]
		r.Triangle = flags.Triangle[i]
		r.DoubleTop = flags.DoubleTop[i]
		r.DoubleBottom = flags.DoubleBottom[i]
	}

	return &model.IndicatorFrame{Symbol: series.Symbol, Interval: series.Interval, Rows: rows}, nil
}
