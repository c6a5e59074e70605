package collector

import (
	"context"
	"time"

	"ChartSentinel/internal/model"
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	// FetchCandles returns bars for symbol at interval opening at or after start,
	// oldest first.
	FetchCandles(ctx context.Context, symbol string, interval model.Interval, start time.Time) ([]model.OHLCV, error)
	Name() string
}
