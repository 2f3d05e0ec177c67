package numerator

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizbook/internal/core/numerator"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

// mockQuerier simulates sys_sequences with a map keyed by sequence key.
type mockQuerier struct {
	mu     sync.Mutex
	values map[string]int64
	calls  int
}

func newMockQuerier() *mockQuerier {
	return &mockQuerier{values: make(map[string]int64)}
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	key := args[0].(string)
	switch {
	case strings.Contains(sql, "current_val = $2, updated_at"):
		m.values[key] = args[1].(int64)
	case len(args) == 2:
		m.values[key] += args[1].(int64)
	default:
		m.values[key]++
	}
	return &mockRow{val: m.values[key]}
}

func TestGetNextNumber_CustomerSequence(t *testing.T) {
	svc := New(newMockQuerier())
	ctx := context.Background()

	first, err := svc.GetNextNumber(ctx, numerator.CustomerConfig, nil, time.Now())
	require.NoError(t, err)
	second, err := svc.GetNextNumber(ctx, numerator.CustomerConfig, nil, time.Now())
	require.NoError(t, err)

	assert.Equal(t, "CUS0001", first)
	assert.Equal(t, "CUS0002", second)
}

func TestGetNextNumber_WidthOverflowKeepsNumericOrder(t *testing.T) {
	q := newMockQuerier()
	q.values["SUP"] = 9999
	svc := New(q)

	num, err := svc.GetNextNumber(context.Background(), numerator.SupplierConfig, nil, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "SUP10000", num)
}

func TestGetNextNumber_DailySequences(t *testing.T) {
	day := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	nextDay := day.AddDate(0, 0, 1)

	tests := []struct {
		name   string
		cfg    numerator.Config
		period time.Time
		want   string
	}{
		{"purchase", numerator.PurchaseConfig, day, "PO-20240101-0001"},
		{"sales order", numerator.SalesOrderConfig, day, "SO-240101-001"},
		{"purchase return", numerator.PurchaseReturnConfig, day, "RET-240101-001"},
		{"sales return", numerator.SalesReturnConfig, day, "SRET-240101-001"},
		{"sales order next day resets", numerator.SalesOrderConfig, nextDay, "SO-240102-001"},
		{"expense", numerator.ExpenseConfig, day, "EXP-000001"},
	}

	svc := New(newMockQuerier())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.GetNextNumber(context.Background(), tt.cfg, nil, tt.period)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetNextNumber_Cached(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()
	opts := &numerator.Options{Strategy: numerator.StrategyCached, RangeSize: 10}

	for i := 1; i <= 12; i++ {
		_, err := svc.GetNextNumber(ctx, numerator.ExpenseConfig, opts, time.Now())
		require.NoError(t, err)
	}

	assert.Equal(t, 2, q.calls, "12 numbers from ranges of 10 need two reservations")
	assert.Equal(t, int64(20), q.values["EXP"])
}

func TestSetNextNumber(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()

	require.NoError(t, svc.SetNextNumber(ctx, numerator.CustomerConfig, time.Now(), 500))
	num, err := svc.GetNextNumber(ctx, numerator.CustomerConfig, nil, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "CUS0500", num)

	assert.Error(t, svc.SetNextNumber(ctx, numerator.CustomerConfig, time.Now(), 0))
}

func TestGetNextNumber_UsesResolvedQuerier(t *testing.T) {
	txQuerier := newMockQuerier()
	svc := NewWithQuerier(func(ctx context.Context) Querier { return txQuerier })

	_, err := svc.GetNextNumber(context.Background(), numerator.CustomerConfig, nil, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, txQuerier.calls)
}

func TestParseNumber(t *testing.T) {
	assert.Equal(t, int64(12), ParseNumber("CUS0012", numerator.CustomerConfig))
	assert.Equal(t, int64(10000), ParseNumber("CUS10000", numerator.CustomerConfig))
	assert.Equal(t, int64(7), ParseNumber("PO-20240101-0007", numerator.PurchaseConfig))
	assert.Equal(t, int64(3), ParseNumber("SRET-240101-003", numerator.SalesReturnConfig))
	assert.Equal(t, int64(-1), ParseNumber("SO-240101-003", numerator.SalesReturnConfig))
	assert.Equal(t, int64(-1), ParseNumber("garbage", numerator.ExpenseConfig))
}
