package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	appctx "bizbook/internal/core/context"
)

func TestWithContext_AddsTraceAndActor(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := &Logger{zap.New(core).Sugar()}

	ctx := appctx.WithTrace(context.Background(), appctx.Trace{TraceID: "t-1", RequestID: "r-1"})
	ctx = appctx.WithUser(ctx, &appctx.UserContext{UserID: "u-1"})

	l.WithContext(ctx).Infow("hello", "k", "v")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "t-1", fields["trace_id"])
	assert.Equal(t, "r-1", fields["request_id"])
	assert.Equal(t, "u-1", fields["actor"])
	assert.Equal(t, "v", fields["k"])
}

func TestFromContext_PrefersContextLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{zap.New(core).Sugar()}

	ctx := WithLogger(context.Background(), l)
	Info(ctx, "from ctx")

	assert.Equal(t, 1, logs.FilterMessage("from ctx").Len())
}

func TestWithContext_JobActor(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := &Logger{zap.New(core).Sugar()}

	l.WithContext(appctx.WithJob(context.Background(), "overdue")).Infow("job done")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "job:overdue", fields["actor"])
	assert.NotContains(t, fields, "trace_id")
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	l, err := New(Config{Level: "nope"})
	require.NoError(t, err)
	assert.False(t, l.Desugar().Core().Enabled(zap.DebugLevel))
	assert.True(t, l.Desugar().Core().Enabled(zap.InfoLevel))
}
