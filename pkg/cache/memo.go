package cache

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	gocache "github.com/patrickmn/go-cache"
)

// DefaultTTL bounds catalog staleness for readers that never mutate.
const DefaultTTL = 60 * time.Second

// memoKey is the single slot a Memo occupies in its backing store.
const memoKey = "value"

// Memo is a single-value TTL memo. It wraps one expensive computation:
// reads within the TTL window return the memoized value, mutators call
// Invalidate so the next read recomputes immediately rather than waiting
// out the window.
//
// GetOrCompute serializes concurrent callers so a cold memo computes
// exactly once instead of stampeding.
type Memo[V any] struct {
	mu     sync.Mutex
	store  *gocache.Cache
	ttl    time.Duration
	logger *log.Logger
}

// NewMemo creates a memo with the given TTL. A non-positive TTL disables
// memoization entirely: every read computes fresh.
func NewMemo[V any](ttl time.Duration, logger *log.Logger) *Memo[V] {
	if logger == nil {
		logger = log.Default()
	}
	m := &Memo[V]{ttl: ttl, logger: logger}
	if ttl > 0 {
		m.store = gocache.New(ttl, 2*ttl)
	}
	return m
}

// GetOrCompute returns the memoized value, computing and storing it when
// the slot is empty or expired. A compute error is returned as-is and
// nothing is stored, so the next caller retries.
func (m *Memo[V]) GetOrCompute(ctx context.Context, compute func(ctx context.Context) (V, error)) (V, error) {
	var zero V

	if m.store == nil {
		return compute(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if raw, found := m.store.Get(memoKey); found {
		if v, ok := raw.(V); ok {
			m.logger.Debug("memo hit")
			return v, nil
		}
		// Stored under a different instantiation; treat as a miss.
		m.store.Delete(memoKey)
	}

	v, err := compute(ctx)
	if err != nil {
		return zero, err
	}

	m.store.SetDefault(memoKey, v)
	m.logger.Debug("memo filled", "ttl", m.ttl)
	return v, nil
}

// Invalidate discards the memoized value. Mutators call it synchronously
// before returning so readers never observe pre-mutation state.
func (m *Memo[V]) Invalidate() {
	if m.store == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store.Delete(memoKey)
	m.logger.Debug("memo invalidated")
}
