package numerator

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockGenerator is an in-memory Generator for tests.
type MockGenerator struct {
	GetNextNumberFunc func(ctx context.Context, cfg Config, opts *Options, at time.Time) (string, error)

	mu   sync.Mutex
	next map[string]int64
}

// GetNextNumber implements Generator. Without a hook it counts per prefix.
func (m *MockGenerator) GetNextNumber(ctx context.Context, cfg Config, opts *Options, at time.Time) (string, error) {
	if m.GetNextNumberFunc != nil {
		return m.GetNextNumberFunc(ctx, cfg, opts, at)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.next == nil {
		m.next = make(map[string]int64)
	}
	m.next[cfg.Prefix]++
	return fmt.Sprintf("%s-%s-%05d", cfg.Prefix, at.Format("2006"), m.next[cfg.Prefix]), nil
}

// SetNextNumber implements Generator.
func (m *MockGenerator) SetNextNumber(_ context.Context, cfg Config, _ time.Time, value int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.next == nil {
		m.next = make(map[string]int64)
	}
	m.next[cfg.Prefix] = value - 1
	return nil
}

var _ Generator = (*MockGenerator)(nil)
