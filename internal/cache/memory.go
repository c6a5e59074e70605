package cache

import (
	"context"
	"sync"
	"time"

	"ChartSentinel/internal/model"
)

type memoryItem struct {
	row      model.IndicatorRow
	expireAt time.Time
}

// MemoryCache implements FrameCache in process. It is used when no Redis
// address is configured.
type MemoryCache struct {
	mu      sync.Mutex
	rows    map[string]memoryItem
	locks   map[string]time.Time
	ttl     time.Duration
	lockTTL time.Duration
	now     func() time.Time
}

func NewMemoryCache(ttl, lockTTL time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = 48 * time.Hour
	}
	if lockTTL <= 0 {
		lockTTL = 10 * time.Minute
	}
	return &MemoryCache{
		rows:    make(map[string]memoryItem),
		locks:   make(map[string]time.Time),
		ttl:     ttl,
		lockTTL: lockTTL,
		now:     time.Now,
	}
}

func (m *MemoryCache) PutLatest(_ context.Context, symbol string, interval model.Interval, row model.IndicatorRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[latestKey(symbol, interval)] = memoryItem{row: row, expireAt: m.now().Add(m.ttl)}
	return nil
}

func (m *MemoryCache) Latest(_ context.Context, symbol string, interval model.Interval) (*model.IndicatorRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := latestKey(symbol, interval)
	item, ok := m.rows[key]
	if !ok || m.now().After(item.expireAt) {
		delete(m.rows, key)
		return nil, ErrCacheMiss
	}
	row := item.row
	return &row, nil
}

func (m *MemoryCache) Lock(_ context.Context, symbol string, interval model.Interval) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := lockKey(symbol, interval)
	if exp, ok := m.locks[key]; ok && m.now().Before(exp) {
		return false, nil
	}
	m.locks[key] = m.now().Add(m.lockTTL)
	return true, nil
}

func (m *MemoryCache) Unlock(_ context.Context, symbol string, interval model.Interval) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, lockKey(symbol, interval))
	return nil
}

func (m *MemoryCache) Close() error { return nil }
