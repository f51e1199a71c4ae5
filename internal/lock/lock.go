// Package lock serializes mutating operations per pot.
//
// A Locker hands out exclusive per-key locks. The local implementation
// covers a single process; the redis implementation covers several server
// replicas sharing one database.
package lock

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrLockFailed is returned when a lock could not be acquired in time.
	ErrLockFailed = errors.New("lock: failed to acquire lock")

	// ErrReentrant is returned when a call tries to lock a pot it already holds.
	ErrReentrant = errors.New("lock: reentrant acquisition")
)

// Locker acquires exclusive locks by key.
type Locker interface {
	// Acquire blocks until the lock for key is held or ctx is done.
	// The returned release func must be called exactly once.
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// PotKey returns the lock key for a pot.
func PotKey(potID int64) string {
	return fmt.Sprintf("cakepot:lock:pot:%d", potID)
}

type heldKey struct{}

// Hold acquires the lock for key and returns a context that records the
// key as held. Acquiring a key that ctx already holds fails with
// ErrReentrant instead of deadlocking.
func Hold(ctx context.Context, l Locker, key string) (context.Context, func(), error) {
	held, _ := ctx.Value(heldKey{}).(map[string]struct{})
	if _, ok := held[key]; ok {
		return ctx, nil, fmt.Errorf("%w: %s", ErrReentrant, key)
	}

	release, err := l.Acquire(ctx, key)
	if err != nil {
		return ctx, nil, err
	}

	next := make(map[string]struct{}, len(held)+1)
	for k := range held {
		next[k] = struct{}{}
	}
	next[key] = struct{}{}
	return context.WithValue(ctx, heldKey{}, next), release, nil
}
