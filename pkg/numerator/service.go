// Package numerator issues sequential numbers backed by the sys_sequences table.
package numerator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"resido/internal/core/numerator"
)

// Querier is the part of pgx the service needs.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// QuerierSource resolves the querier for a call, e.g. TxManager.GetQuerier
// so that numbers are drawn inside the caller's transaction.
type QuerierSource func(ctx context.Context) Querier

type cachedRange struct {
	current int64
	max     int64
}

// Service implements numerator.Generator.
type Service struct {
	querier QuerierSource

	mu     sync.Mutex
	ranges map[string]*cachedRange
}

var _ numerator.Generator = (*Service)(nil)

// New creates a service that always uses q.
func New(q Querier) *Service {
	return NewWithSource(func(context.Context) Querier { return q })
}

// NewWithSource creates a service resolving its querier per call.
func NewWithSource(src QuerierSource) *Service {
	return &Service{
		querier: src,
		ranges:  make(map[string]*cachedRange),
	}
}

const upsertSQL = `
	INSERT INTO sys_sequences (key, current_val)
	VALUES ($1, $2)
	ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + $2
	RETURNING current_val`

// GetNextNumber implements numerator.Generator.
func (s *Service) GetNextNumber(ctx context.Context, cfg numerator.Config, opts *numerator.Options, at time.Time) (string, error) {
	if opts == nil {
		opts = numerator.DefaultOptions()
	}

	key := buildKey(cfg, at)
	var (
		num int64
		err error
	)
	switch opts.Strategy {
	case numerator.StrategyCached:
		num, err = s.nextCached(ctx, key, opts.RangeSize)
	default:
		err = s.querier(ctx).QueryRow(ctx, upsertSQL, key, int64(1)).Scan(&num)
		if err != nil {
			err = fmt.Errorf("next number %s: %w", key, err)
		}
	}
	if err != nil {
		return "", err
	}
	return Format(cfg, at, num), nil
}

func (s *Service) nextCached(ctx context.Context, key string, size int64) (int64, error) {
	if size <= 0 {
		size = 50
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rng, ok := s.ranges[key]
	if !ok {
		rng = &cachedRange{}
		s.ranges[key] = rng
	}

	if rng.current >= rng.max {
		var newMax int64
		if err := s.querier(ctx).QueryRow(ctx, upsertSQL, key, size).Scan(&newMax); err != nil {
			return 0, fmt.Errorf("reserve range %s: %w", key, err)
		}
		// current_val is the last reserved number: the block is (newMax-size, newMax]
		rng.current = newMax - size
		rng.max = newMax
	}

	rng.current++
	return rng.current, nil
}

// SetNextNumber implements numerator.Generator.
func (s *Service) SetNextNumber(ctx context.Context, cfg numerator.Config, at time.Time, value int64) error {
	key := buildKey(cfg, at)

	var stored int64
	err := s.querier(ctx).QueryRow(ctx, `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET current_val = $2
		RETURNING current_val`, key, value-1).Scan(&stored)

	s.mu.Lock()
	delete(s.ranges, key)
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("set next number %s: %w", key, err)
	}
	return nil
}

func buildKey(cfg numerator.Config, at time.Time) string {
	switch cfg.ResetPeriod {
	case numerator.ResetMonthly:
		return cfg.Prefix + "_" + at.Format("2006_01")
	case numerator.ResetYearly:
		return cfg.Prefix + "_" + at.Format("2006")
	}
	return cfg.Prefix
}

// Format renders num according to cfg.
func Format(cfg numerator.Config, at time.Time, num int64) string {
	pad := cfg.PadWidth
	if pad == 0 {
		pad = 5
	}
	if cfg.IncludeYear {
		return fmt.Sprintf("%s-%s-%0*d", cfg.Prefix, at.Format("2006"), pad, num)
	}
	return fmt.Sprintf("%s-%0*d", cfg.Prefix, pad, num)
}
