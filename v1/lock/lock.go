package lock

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is returned when a lock could not be acquired within the
// configured number of attempts. It is distinct from storage errors so that
// callers can surface it as a retryable condition.
var ErrUnavailable = errors.New("lock unavailable")

const (
	defaultTTL             = 10 * time.Second
	defaultAcquireAttempts = 3
	defaultAcquireBackoff  = 100 * time.Millisecond
	defaultReleaseAttempts = 5
	defaultReleaseBackoff  = 50 * time.Millisecond
)

// Locker is a named mutual-exclusion primitive shared across processes.
//
// Acquire returns an opaque token proving ownership; only that token can
// release the lock. A TTL bounds how long a crashed holder can keep the key.
type Locker interface {
	// Acquire attempts to obtain the lock for key, retrying with a fixed
	// backoff up to the configured number of attempts. It returns the
	// ownership token on success and ErrUnavailable once attempts are
	// exhausted.
	Acquire(ctx context.Context, key string) (string, error)
	// Release frees the lock for key, but only if token still owns it. It
	// never returns an error: failures are logged and reported as false, the
	// TTL being the safety net.
	Release(ctx context.Context, key, token string) bool
	// RunExclusive acquires the lock, runs fn and releases the lock again in
	// the same control path, whether fn returns, fails or panics.
	RunExclusive(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// Option configures a locker.
type Option func(*options)

type options struct {
	ttl             time.Duration
	acquireAttempts int
	acquireBackoff  time.Duration
	releaseAttempts int
	releaseBackoff  time.Duration
}

func defaultOptions() options {
	return options{
		ttl:             defaultTTL,
		acquireAttempts: defaultAcquireAttempts,
		acquireBackoff:  defaultAcquireBackoff,
		releaseAttempts: defaultReleaseAttempts,
		releaseBackoff:  defaultReleaseBackoff,
	}
}

// WithTTL sets the lock lease time.
func WithTTL(d time.Duration) Option {
	return func(o *options) {
		o.ttl = d
	}
}

// WithAcquireRetry sets the number of acquisition attempts and the fixed
// backoff between them.
func WithAcquireRetry(attempts int, backoff time.Duration) Option {
	return func(o *options) {
		o.acquireAttempts = attempts
		o.acquireBackoff = backoff
	}
}

// WithReleaseRetry sets the number of release attempts and the fixed backoff
// between them.
func WithReleaseRetry(attempts int, backoff time.Duration) Option {
	return func(o *options) {
		o.releaseAttempts = attempts
		o.releaseBackoff = backoff
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
