package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memLock struct {
	token string
	timer *time.Timer
}

// InMemory implements Locker using local memory. It mirrors the Redis locker's
// token and TTL semantics for single-process deployments and tests.
type InMemory struct {
	mu    sync.Mutex
	locks map[string]*memLock
	opts  options
}

// NewInMemory returns a new in-memory locker.
func NewInMemory(opts ...Option) *InMemory {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &InMemory{locks: make(map[string]*memLock), opts: o}
}

func (l *InMemory) tryLock(key string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, held := l.locks[key]; held {
		return "", false
	}
	st := &memLock{token: uuid.NewString()}
	if l.opts.ttl > 0 {
		st.timer = time.AfterFunc(l.opts.ttl, func() {
			l.expire(key, st.token)
		})
	}
	l.locks[key] = st
	return st.token, true
}

func (l *InMemory) expire(key, token string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.locks[key]; ok && st.token == token {
		delete(l.locks, key)
	}
}

// Acquire implements Locker.Acquire.
func (l *InMemory) Acquire(ctx context.Context, key string) (string, error) {
	for attempt := 0; attempt < l.opts.acquireAttempts; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, l.opts.acquireBackoff); err != nil {
				return "", err
			}
		}
		if token, ok := l.tryLock(key); ok {
			return token, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnavailable, key)
}

// Release implements Locker.Release.
func (l *InMemory) Release(ctx context.Context, key, token string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	st, ok := l.locks[key]
	if !ok || st.token != token {
		return false
	}
	if st.timer != nil {
		st.timer.Stop()
	}
	delete(l.locks, key)
	return true
}

// RunExclusive implements Locker.RunExclusive.
func (l *InMemory) RunExclusive(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	return runExclusive(ctx, l, key, fn)
}
