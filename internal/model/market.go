package model

import (
	"fmt"
	"time"
)

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// CandleSeries holds the ordered bars of one (symbol, interval) pair.
// The pipeline only reads it; callers must not mutate Bars after construction.
type CandleSeries struct {
	Symbol    string
	Interval  Interval
	Bars      []OHLCV
	FetchedAt time.Time
}

// NewCandleSeries validates bars and returns a series owning a private copy of them.
// Bars must satisfy low <= open,close <= high and strictly increase in time.
func NewCandleSeries(symbol string, interval Interval, bars []OHLCV) (*CandleSeries, error) {
	if symbol == "" {
		return nil, fmt.Errorf("candle series: empty symbol")
	}
	if _, ok := Intervals[interval]; !ok {
		return nil, fmt.Errorf("candle series: unknown interval %q", interval)
	}
	for i, b := range bars {
		if b.Low > b.Open || b.Low > b.Close || b.High < b.Open || b.High < b.Close {
			return nil, fmt.Errorf("candle series %s %s: bar %d violates low <= open,close <= high", symbol, interval, i)
		}
		if i > 0 && !b.Time.After(bars[i-1].Time) {
			return nil, fmt.Errorf("candle series %s %s: bar %d at %s is not after %s",
				symbol, interval, i, b.Time.Format(time.RFC3339), bars[i-1].Time.Format(time.RFC3339))
		}
	}
	owned := make([]OHLCV, len(bars))
	copy(owned, bars)
	return &CandleSeries{Symbol: symbol, Interval: interval, Bars: owned, FetchedAt: time.Now()}, nil
}

// Len returns the number of bars.
func (s *CandleSeries) Len() int { return len(s.Bars) }

// Last returns the most recent bar. It panics on an empty series.
func (s *CandleSeries) Last() OHLCV { return s.Bars[len(s.Bars)-1] }

// Columns is a column-wise view of a candle series. A nil column means the
// field is absent.
type Columns struct {
	Time   []time.Time
	Open   []float64
	High   []float64
	Low    []float64
	Close  []float64
	Volume []float64
}

// Columns splits the series into independent column slices.
func (s *CandleSeries) Columns() Columns {
	n := len(s.Bars)
	c := Columns{
		Time:   make([]time.Time, n),
		Open:   make([]float64, n),
		High:   make([]float64, n),
		Low:    make([]float64, n),
		Close:  make([]float64, n),
		Volume: make([]float64, n),
	}
	for i, b := range s.Bars {
		c.Time[i] = b.Time
		c.Open[i] = b.Open
		c.High[i] = b.High
		c.Low[i] = b.Low
		c.Close[i] = b.Close
		c.Volume[i] = b.Volume
	}
	return c
}

// Len returns the length of the close column.
func (c Columns) Len() int { return len(c.Close) }

// Require checks that every named column is present and as long as the time column.
func (c Columns) Require(names ...string) error {
	n := len(c.Time)
	for _, name := range names {
		var col []float64
		switch name {
		case "open":
			col = c.Open
		case "high":
			col = c.High
		case "low":
			col = c.Low
		case "close":
			col = c.Close
		case "volume":
			col = c.Volume
		default:
			return &MissingColumnError{Column: name}
		}
		if col == nil || len(col) == 0 || len(col) != n {
			return &MissingColumnError{Column: name}
		}
	}
	return nil
}
