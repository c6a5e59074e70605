package collector

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"ChartSentinel/internal/model"
)

// MockFetcher returns deterministic generated bars for development and testing.
type MockFetcher struct {
	Price float64
	Bars  []model.OHLCV // returned as is when set
	Now   func() time.Time
	Err   error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchCandles(_ context.Context, _ string, interval model.Interval, start time.Time) ([]model.OHLCV, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Bars != nil {
		return m.Bars, nil
	}
	now := time.Now()
	if m.Now != nil {
		now = m.Now()
	}
	return generateMockBars(m.Price, interval.Spec().Bar, start, now), nil
}

func generateMockBars(basePrice float64, step time.Duration, start, end time.Time) []model.OHLCV {
	if step <= 0 {
		return nil
	}
	start = start.Truncate(step)
	var bars []model.OHLCV
	for i := 0; !start.Add(time.Duration(i) * step).After(end); i++ {
		x := float64(i)
		p := basePrice * (1 + 0.0005*x + 0.03*math.Sin(x/11))
		open := p * (1 - 0.002*math.Cos(x))
		bars = append(bars, model.OHLCV{
			Time:   start.Add(time.Duration(i) * step),
			Open:   open,
			High:   math.Max(open, p) * 1.004,
			Low:    math.Min(open, p) * 0.996,
			Close:  p,
			Volume: 1000 + float64(i%23)*40,
		})
	}
	return bars
}

// Collector fetches the lookback window of one (symbol, interval) pair and
// hands back a validated series.
type Collector struct {
	Fetcher Fetcher
	MinRows int
	now     func() time.Time
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, minRows int) *Collector {
	return &Collector{Fetcher: fetcher, MinRows: minRows, now: time.Now}
}

// Collect fetches bars from the interval's lookback start up to now.
// Fewer than MinRows bars is reported as *model.InsufficientDataError.
func (c *Collector) Collect(ctx context.Context, symbol string, interval model.Interval) (*model.CandleSeries, error) {
	spec, ok := model.Intervals[interval]
	if !ok {
		return nil, fmt.Errorf("collect %s: unknown interval %q", symbol, interval)
	}
	start := c.now().UTC().Add(-spec.Lookback)
	log.Info().Str("symbol", symbol).Str("interval", interval.String()).Time("start", start).
		Str("source", c.Fetcher.Name()).Msg("fetching historical data")

	bars, err := c.Fetcher.FetchCandles(ctx, symbol, interval, start)
	if err != nil {
		return nil, fmt.Errorf("fetch %s %s: %w", symbol, interval, err)
	}
	if len(bars) < c.MinRows {
		return nil, &model.InsufficientDataError{Stage: "collect", Have: len(bars), Need: c.MinRows}
	}
	series, err := model.NewCandleSeries(symbol, interval, bars)
	if err != nil {
		return nil, err
	}
	log.Info().Str("symbol", symbol).Str("interval", interval.String()).Int("rows", series.Len()).Msg("fetched historical data")
	return series, nil
}
