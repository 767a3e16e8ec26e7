package numerator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resido/internal/core/numerator"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	*dest[0].(*int64) = m.val
	return nil
}

// mockQuerier simulates sys_sequences: one counter per key.
type mockQuerier struct {
	mu      sync.Mutex
	values  map[string]int64
	calls   int
	failing bool
}

func (m *mockQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failing {
		return &mockRow{err: errors.New("connection refused")}
	}
	if m.values == nil {
		m.values = make(map[string]int64)
	}

	key := args[0].(string)
	n := args[1].(int64)
	if strings.Contains(sql, "current_val = $2") {
		m.values[key] = n
	} else {
		m.values[key] += n
	}
	return &mockRow{val: m.values[key]}
}

var period = time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

func TestGetNextNumber_Strict(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := numerator.DefaultConfig("BILL")

	num, err := svc.GetNextNumber(ctx, cfg, nil, period)
	require.NoError(t, err)
	assert.Equal(t, "BILL-2026-00001", num)

	num, err = svc.GetNextNumber(ctx, cfg, nil, period)
	require.NoError(t, err)
	assert.Equal(t, "BILL-2026-00002", num)

	// new year, new counter
	num, err = svc.GetNextNumber(ctx, cfg, nil, period.AddDate(1, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, "BILL-2027-00001", num)
}

func TestGetNextNumber_Cached(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := numerator.DefaultConfig("MTG")
	opts := &numerator.Options{Strategy: numerator.StrategyCached, RangeSize: 10}

	num, err := svc.GetNextNumber(ctx, cfg, opts, period)
	require.NoError(t, err)
	assert.Equal(t, "MTG-2026-00001", num)
	assert.Equal(t, int64(10), q.values["MTG_2026"])

	for i := 2; i <= 10; i++ {
		_, err = svc.GetNextNumber(ctx, cfg, opts, period)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, q.calls)

	num, err = svc.GetNextNumber(ctx, cfg, opts, period)
	require.NoError(t, err)
	assert.Equal(t, "MTG-2026-00011", num)
	assert.Equal(t, 2, q.calls)
	assert.Equal(t, int64(20), q.values["MTG_2026"])
}

func TestSetNextNumber_InvalidatesCache(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := numerator.DefaultConfig("BILL")
	opts := &numerator.Options{Strategy: numerator.StrategyCached, RangeSize: 10}

	_, err := svc.GetNextNumber(ctx, cfg, opts, period)
	require.NoError(t, err)

	require.NoError(t, svc.SetNextNumber(ctx, cfg, period, 100))

	num, err := svc.GetNextNumber(ctx, cfg, opts, period)
	require.NoError(t, err)
	assert.Equal(t, "BILL-2026-00100", num)
}

func TestGetNextNumber_PropagatesErrors(t *testing.T) {
	svc := New(&mockQuerier{failing: true})

	_, err := svc.GetNextNumber(context.Background(), numerator.DefaultConfig("BILL"), nil, period)
	assert.ErrorContains(t, err, "BILL_2026")
}

func TestFormat(t *testing.T) {
	cfg := numerator.Config{Prefix: "N", PadWidth: 3}
	assert.Equal(t, "N-007", Format(cfg, period, 7))

	cfg.IncludeYear = true
	assert.Equal(t, "N-2026-1234", Format(cfg, period, 1234))

	assert.Equal(t, "N_2026_03", buildKey(numerator.Config{Prefix: "N", ResetPeriod: numerator.ResetMonthly}, period))
	assert.Equal(t, "N", buildKey(numerator.Config{Prefix: "N", ResetPeriod: numerator.ResetNever}, period))
}
