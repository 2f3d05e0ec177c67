// Package logger is a zap SugaredLogger that picks request fields (trace,
// request and actor ids) up from the context.
package logger

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	appctx "bizbook/internal/core/context"
)

// Logger wraps zap.SugaredLogger.
type Logger struct {
	*zap.SugaredLogger
}

// Config holds logger configuration.
type Config struct {
	Level       string // debug, info, warn, error; anything else means info
	Development bool   // console encoder with colors
}

// New builds a logger writing to stdout.
func New(cfg Config) (*Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stdout"}

	z, err := zc.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return &Logger{z.Sugar()}, nil
}

var defaultLogger atomic.Pointer[Logger]

// SetDefault replaces the logger used when ctx carries none.
func SetDefault(l *Logger) {
	defaultLogger.Store(l)
}

// Default returns the process-wide logger. Until SetDefault is called it is
// an info-level production logger.
func Default() *Logger {
	if l := defaultLogger.Load(); l != nil {
		return l
	}
	l, err := New(Config{Level: "info"})
	if err != nil {
		l = &Logger{zap.NewNop().Sugar()}
	}
	defaultLogger.CompareAndSwap(nil, l)
	return defaultLogger.Load()
}

// WithContext adds the trace ids and the actor found in ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	sugar := l.SugaredLogger
	if t, ok := appctx.TraceFrom(ctx); ok {
		sugar = sugar.With("trace_id", t.TraceID, "request_id", t.RequestID)
	}
	if actor := appctx.Actor(ctx); actor != "" {
		sugar = sugar.With("actor", actor)
	}
	return &Logger{sugar}
}

// WithComponent tags every entry with the component name.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{l.SugaredLogger.With("component", name)}
}

type loggerKey struct{}

// WithLogger attaches l to ctx; the package-level helpers prefer it over Default.
func WithLogger(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// FromContext returns the ctx logger (or Default) with the request fields.
func FromContext(ctx context.Context) *Logger {
	l, ok := ctx.Value(loggerKey{}).(*Logger)
	if !ok {
		l = Default()
	}
	return l.WithContext(ctx)
}

func Debug(ctx context.Context, msg string, keysAndValues ...any) {
	FromContext(ctx).Debugw(msg, keysAndValues...)
}

func Info(ctx context.Context, msg string, keysAndValues ...any) {
	FromContext(ctx).Infow(msg, keysAndValues...)
}

func Warn(ctx context.Context, msg string, keysAndValues ...any) {
	FromContext(ctx).Warnw(msg, keysAndValues...)
}

func Error(ctx context.Context, msg string, keysAndValues ...any) {
	FromContext(ctx).Errorw(msg, keysAndValues...)
}
