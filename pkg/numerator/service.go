// Package numerator allocates business numbers from the sys_sequences table.
package numerator

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"bizbook/internal/core/numerator"
)

// Querier interface for database operations.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// QuerierFunc resolves the querier for a call, typically the transaction in ctx.
type QuerierFunc func(ctx context.Context) Querier

type cachedRange struct {
	current int64
	max     int64
}

// Service implements numerator.Generator on top of sys_sequences.
type Service struct {
	querier QuerierFunc

	cacheMu sync.Mutex
	ranges  map[string]*cachedRange
}

// New creates a numerator service bound to a fixed querier.
func New(querier Querier) *Service {
	return NewWithQuerier(func(context.Context) Querier { return querier })
}

// NewWithQuerier creates a numerator service that resolves its querier per call.
// Passing the TxManager's GetQuerier makes strict numbers part of the business transaction.
func NewWithQuerier(fn QuerierFunc) *Service {
	return &Service{
		querier: fn,
		ranges:  make(map[string]*cachedRange),
	}
}

const nextStrictSQL = `
	INSERT INTO sys_sequences (key, current_val, updated_at)
	VALUES ($1, 1, NOW())
	ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + 1, updated_at = NOW()
	RETURNING current_val`

const reserveRangeSQL = `
	INSERT INTO sys_sequences (key, current_val, updated_at)
	VALUES ($1, $2, NOW())
	ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + $2, updated_at = NOW()
	RETURNING current_val`

const setValueSQL = `
	INSERT INTO sys_sequences (key, current_val, updated_at)
	VALUES ($1, $2, NOW())
	ON CONFLICT (key) DO UPDATE SET current_val = $2, updated_at = NOW()
	RETURNING current_val`

// GetNextNumber allocates the next counter value for cfg and period and formats it.
func (s *Service) GetNextNumber(ctx context.Context, cfg numerator.Config, opts *numerator.Options, period time.Time) (string, error) {
	if s == nil {
		return "", fmt.Errorf("numerator service is not initialized")
	}
	if opts == nil {
		opts = numerator.DefaultOptions()
	}

	key := cfg.Key(period)
	var (
		num int64
		err error
	)
	switch opts.Strategy {
	case numerator.StrategyCached:
		num, err = s.getNextCached(ctx, key, opts)
	default:
		num, err = s.getNextStrict(ctx, key)
	}
	if err != nil {
		return "", err
	}

	return cfg.Format(period, num), nil
}

// getNextStrict fetches the next number directly from DB using UPSERT + RETURNING.
func (s *Service) getNextStrict(ctx context.Context, key string) (int64, error) {
	var num int64
	if err := s.querier(ctx).QueryRow(ctx, nextStrictSQL, key).Scan(&num); err != nil {
		return 0, fmt.Errorf("strict next %s: %w", key, err)
	}
	return num, nil
}

// getNextCached fetches next number from memory, refilling from DB if needed.
// current_val always holds the last number handed out, so a reserved range
// is (current_val - size, current_val].
func (s *Service) getNextCached(ctx context.Context, key string, opts *numerator.Options) (int64, error) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	rng, exists := s.ranges[key]
	if !exists {
		rng = &cachedRange{}
		s.ranges[key] = rng
	}

	if rng.current >= rng.max {
		size := opts.RangeSize
		if size <= 0 {
			size = 50
		}

		var newMax int64
		if err := s.querier(ctx).QueryRow(ctx, reserveRangeSQL, key, size).Scan(&newMax); err != nil {
			return 0, fmt.Errorf("reserve range %s: %w", key, err)
		}

		rng.current = newMax - size
		rng.max = newMax
	}

	rng.current++
	return rng.current, nil
}

// SetNextNumber makes value the next number handed out for cfg and period.
func (s *Service) SetNextNumber(ctx context.Context, cfg numerator.Config, period time.Time, value int64) error {
	if value < 1 {
		return fmt.Errorf("next number must be positive, got %d", value)
	}
	key := cfg.Key(period)

	var result int64
	err := s.querier(ctx).QueryRow(ctx, setValueSQL, key, value-1).Scan(&result)

	s.cacheMu.Lock()
	delete(s.ranges, key)
	s.cacheMu.Unlock()

	if err != nil {
		return fmt.Errorf("set next %s: %w", key, err)
	}
	return nil
}

// ParseNumber extracts the counter from a formatted number.
// Returns -1 if the number does not belong to cfg.
func ParseNumber(formatted string, cfg numerator.Config) int64 {
	rest, ok := strings.CutPrefix(formatted, cfg.Prefix+cfg.Separator)
	if !ok {
		return -1
	}
	if cfg.DateLayout != "" {
		if len(rest) < len(cfg.DateLayout)+len(cfg.Separator) {
			return -1
		}
		if _, err := time.Parse(cfg.DateLayout, rest[:len(cfg.DateLayout)]); err != nil {
			return -1
		}
		rest = strings.TrimPrefix(rest[len(cfg.DateLayout):], cfg.Separator)
	}
	n, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || n < 0 {
		return -1
	}
	return n
}

var _ numerator.Generator = (*Service)(nil)
