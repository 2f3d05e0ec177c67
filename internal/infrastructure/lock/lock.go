// Package lock provides cluster-wide locks for singleton jobs.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"bizbook/internal/core/apperror"
	"bizbook/pkg/logger"
)

const keyPrefix = "bizbook:lock:"

// RedisLocker serializes jobs across processes with redislock.
type RedisLocker struct {
	client *redislock.Client
}

// NewRedisLocker creates a locker on the given client.
func NewRedisLocker(rdb redis.UniversalClient) *RedisLocker {
	return &RedisLocker{client: redislock.New(rdb)}
}

// WithLock runs fn while holding key. A held lock yields a Conflict error.
// The lock is refreshed at half its ttl until fn returns.
func (l *RedisLocker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) error {
	lk, err := l.client.Obtain(ctx, keyPrefix+key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return apperror.NewConflict("job is already running").WithDetail("job", key)
	}
	if err != nil {
		return fmt.Errorf("obtain lock %s: %w", key, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(ttl / 2)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := lk.Refresh(ctx, ttl, nil); err != nil {
					logger.Warn(ctx, "lock refresh failed", "key", key, "error", err)
					return
				}
			}
		}
	}()

	defer func() {
		cancel()
		wg.Wait()
		if err := lk.Release(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			logger.Warn(ctx, "lock release failed", "key", key, "error", err)
		}
	}()

	return fn(ctx)
}

// LocalLocker serializes jobs inside one process. It stands in when Redis
// is not configured.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

// NewLocalLocker creates an in-process locker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: map[string]bool{}}
}

// WithLock runs fn unless key is already held in this process.
func (l *LocalLocker) WithLock(ctx context.Context, key string, _ time.Duration, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	if l.held[key] {
		l.mu.Unlock()
		return apperror.NewConflict("job is already running").WithDetail("job", key)
	}
	l.held[key] = true
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		delete(l.held, key)
		l.mu.Unlock()
	}()
	return fn(ctx)
}
