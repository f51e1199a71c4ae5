package lock

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DefaultAcquireTimeout bounds how long Local.Acquire waits for a busy key.
// It matches the redis locker's default retry budget.
const DefaultAcquireTimeout = 5 * time.Second

// Local is an in-process Locker backed by one channel per key.
type Local struct {
	mu      sync.Mutex
	locks   map[string]*entry
	timeout time.Duration
}

type entry struct {
	ch   chan struct{}
	refs int
}

// LocalOption configures a Local locker.
type LocalOption func(*Local)

// WithAcquireTimeout sets how long Acquire waits before failing with
// ErrLockFailed. Zero or negative waits only on the caller's ctx.
func WithAcquireTimeout(d time.Duration) LocalOption {
	return func(l *Local) { l.timeout = d }
}

// NewLocal creates an empty in-process locker.
func NewLocal(opts ...LocalOption) *Local {
	l := &Local{
		locks:   make(map[string]*entry),
		timeout: DefaultAcquireTimeout,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Acquire implements Locker.
func (l *Local) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	var expired <-chan time.Time
	if l.timeout > 0 {
		timer := time.NewTimer(l.timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.unref(key, e)
		return nil, ctx.Err()
	case <-expired:
		l.unref(key, e)
		return nil, fmt.Errorf("%w: %s busy for %s", ErrLockFailed, key, l.timeout)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.unref(key, e)
		})
	}, nil
}

// unref drops idle entries so the map does not grow with every pot ever locked.
func (l *Local) unref(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}
