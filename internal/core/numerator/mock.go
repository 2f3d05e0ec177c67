package numerator

import (
	"context"
	"sync"
	"time"
)

// MockGenerator is a test implementation of Generator.
// Without overrides it keeps per-key counters in memory and formats them
// exactly like the database-backed generator.
type MockGenerator struct {
	GetNextNumberFunc func(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error)
	SetNextNumberFunc func(ctx context.Context, cfg Config, period time.Time, value int64) error

	mu       sync.Mutex
	counters map[string]int64
}

// GetNextNumber implements Generator.
func (m *MockGenerator) GetNextNumber(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error) {
	if m.GetNextNumberFunc != nil {
		return m.GetNextNumberFunc(ctx, cfg, opts, period)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counters == nil {
		m.counters = make(map[string]int64)
	}
	key := cfg.Key(period)
	m.counters[key]++
	return cfg.Format(period, m.counters[key]), nil
}

// SetNextNumber implements Generator.
func (m *MockGenerator) SetNextNumber(ctx context.Context, cfg Config, period time.Time, value int64) error {
	if m.SetNextNumberFunc != nil {
		return m.SetNextNumberFunc(ctx, cfg, period, value)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counters == nil {
		m.counters = make(map[string]int64)
	}
	m.counters[cfg.Key(period)] = value - 1
	return nil
}

var _ Generator = (*MockGenerator)(nil)
