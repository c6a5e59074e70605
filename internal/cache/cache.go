// Package cache keeps the latest indicator row per (symbol, interval) and
// guards report cycles against overlapping runs.
package cache

import (
	"context"
	"errors"
	"fmt"

	"ChartSentinel/internal/model"
)

// ErrCacheMiss is returned when no row is cached for a key.
var ErrCacheMiss = errors.New("cache miss")

// FrameCache stores the most recent indicator row and short-lived run locks.
type FrameCache interface {
	PutLatest(ctx context.Context, symbol string, interval model.Interval, row model.IndicatorRow) error
	Latest(ctx context.Context, symbol string, interval model.Interval) (*model.IndicatorRow, error)
	// Lock returns false when another holder owns the lock.
	Lock(ctx context.Context, symbol string, interval model.Interval) (bool, error)
	Unlock(ctx context.Context, symbol string, interval model.Interval) error
	Close() error
}

func latestKey(symbol string, interval model.Interval) string {
	return fmt.Sprintf("latest:%s:%s", symbol, interval)
}

func lockKey(symbol string, interval model.Interval) string {
	return fmt.Sprintf("lock:%s:%s", symbol, interval)
}
