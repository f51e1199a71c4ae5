package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestLocal_SerializesSameKey(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(ctx, PotKey(1))
			if err != nil {
				t.Errorf("Acquire failed: %v", err)
				return
			}
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Errorf("Expected at most one holder, saw %d", maxSeen)
	}
	if len(l.locks) != 0 {
		t.Errorf("Expected idle locks to be dropped, got %d", len(l.locks))
	}
}

func TestLocal_DifferentKeysDoNotBlock(t *testing.T) {
	l := NewLocal()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	r1, err := l.Acquire(ctx, PotKey(1))
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer r1()

	r2, err := l.Acquire(ctx, PotKey(2))
	if err != nil {
		t.Fatalf("Acquire on a different key failed: %v", err)
	}
	r2()
}

func TestLocal_AcquireHonorsContext(t *testing.T) {
	l := NewLocal()
	release, err := l.Acquire(context.Background(), PotKey(1))
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := l.Acquire(ctx, PotKey(1)); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
}

func TestLocal_AcquireTimesOut(t *testing.T) {
	l := NewLocal(WithAcquireTimeout(20 * time.Millisecond))
	release, err := l.Acquire(context.Background(), PotKey(1))
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	// A caller that dropped the held ctx must not wait forever
	start := time.Now()
	if _, err := l.Acquire(context.Background(), PotKey(1)); !errors.Is(err, ErrLockFailed) {
		t.Errorf("Expected ErrLockFailed, got %v", err)
	}
	if waited := time.Since(start); waited > time.Second {
		t.Errorf("Acquire waited %s, expected the timeout to cut it short", waited)
	}

	release()
	release2, err := l.Acquire(context.Background(), PotKey(1))
	if err != nil {
		t.Fatalf("Acquire after release failed: %v", err)
	}
	release2()
	if len(l.locks) != 0 {
		t.Errorf("Expected idle locks to be dropped, got %d", len(l.locks))
	}
}

func TestHold_RejectsReentry(t *testing.T) {
	l := NewLocal()

	ctx, release, err := Hold(context.Background(), l, PotKey(7))
	if err != nil {
		t.Fatalf("Hold failed: %v", err)
	}
	defer release()

	if _, _, err := Hold(ctx, l, PotKey(7)); !errors.Is(err, ErrReentrant) {
		t.Errorf("Expected ErrReentrant, got %v", err)
	}

	// A different pot may still be locked from the same call chain.
	_, release2, err := Hold(ctx, l, PotKey(8))
	if err != nil {
		t.Fatalf("Hold on a second pot failed: %v", err)
	}
	release2()
}
