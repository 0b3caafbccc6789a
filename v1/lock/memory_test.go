package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestInMemoryAcquireReleaseToken(t *testing.T) {
	l := NewInMemory(WithAcquireRetry(1, time.Millisecond))
	ctx := context.Background()

	token, err := l.Acquire(ctx, "k")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if l.Release(ctx, "k", "not-the-token") {
		t.Fatal("foreign token released the lock")
	}
	if !l.Release(ctx, "k", token) {
		t.Fatal("owner token rejected")
	}
	if _, err := l.Acquire(ctx, "k"); err != nil {
		t.Fatalf("reacquire: %v", err)
	}
}

func TestInMemoryTTLExpiry(t *testing.T) {
	l := NewInMemory(WithTTL(20*time.Millisecond), WithAcquireRetry(1, time.Millisecond))
	ctx := context.Background()

	token, err := l.Acquire(ctx, "k")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if _, err := l.Acquire(ctx, "k"); err != nil {
		t.Fatalf("acquire after ttl: %v", err)
	}
	if l.Release(ctx, "k", token) {
		t.Fatal("expired token released the new lock")
	}
}

func TestInMemoryRunExclusiveSerializes(t *testing.T) {
	l := NewInMemory(WithAcquireRetry(50, time.Millisecond))
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.RunExclusive(ctx, "k", func(ctx context.Context) error {
				mu.Lock()
				inside++
				if inside > maxSeen {
					maxSeen = inside
				}
				mu.Unlock()
				time.Sleep(2 * time.Millisecond)
				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
			if err != nil && !errors.Is(err, ErrUnavailable) {
				t.Errorf("run exclusive: %v", err)
			}
		}()
	}
	wg.Wait()
	if maxSeen != 1 {
		t.Fatalf("observed %d concurrent holders", maxSeen)
	}
}
