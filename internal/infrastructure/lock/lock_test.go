package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizbook/internal/core/apperror"
)

func TestLocalLocker(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	err := l.WithLock(ctx, "recount", time.Minute, func(ctx context.Context) error {
		inner := l.WithLock(ctx, "recount", time.Minute, func(context.Context) error { return nil })
		assert.True(t, apperror.HasCode(inner, apperror.CodeConflict))

		return l.WithLock(ctx, "overdue", time.Minute, func(context.Context) error { return nil })
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = l.WithLock(ctx, "recount", time.Minute, func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)

	ran := false
	require.NoError(t, l.WithLock(ctx, "recount", time.Minute, func(context.Context) error {
		ran = true
		return nil
	}))
	assert.True(t, ran, "the lock is released after an error")
}
