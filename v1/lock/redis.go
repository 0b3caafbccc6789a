package lock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

var delScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
else
    return 0
end
`)

// Redis implements Locker using a Redis backend. The lock is a SETNX key with
// a TTL whose value is a random token; release is a Lua check-and-delete so a
// stale holder can never remove a newer holder's lock.
type Redis struct {
	client *redis.Client
	opts   options
}

// NewRedis returns a new Redis locker using the provided client.
func NewRedis(client *redis.Client, opts ...Option) *Redis {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Redis{client: client, opts: o}
}

// Acquire implements Locker.Acquire.
func (r *Redis) Acquire(ctx context.Context, key string) (string, error) {
	token := uuid.NewString()
	for attempt := 0; attempt < r.opts.acquireAttempts; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, r.opts.acquireBackoff); err != nil {
				return "", err
			}
		}
		ok, err := r.client.SetNX(ctx, key, token, r.opts.ttl).Result()
		if err != nil {
			slog.Warn("lock: acquire attempt failed", "key", key, "attempt", attempt+1, "err", err)
			continue
		}
		if ok {
			return token, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnavailable, key)
}

// Release implements Locker.Release.
func (r *Redis) Release(ctx context.Context, key, token string) bool {
	for attempt := 0; attempt < r.opts.releaseAttempts; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, r.opts.releaseBackoff); err != nil {
				break
			}
		}
		n, err := delScript.Run(ctx, r.client, []string{key}, token).Int()
		if err == nil {
			// n == 0 means the token no longer owns the key: either the TTL
			// expired or the lock was already released. Nothing left to do.
			return n == 1
		}
		slog.Warn("lock: release attempt failed", "key", key, "attempt", attempt+1, "err", err)
	}
	slog.Error("lock: could not confirm release, relying on TTL", "key", key)
	return false
}

// RunExclusive implements Locker.RunExclusive.
func (r *Redis) RunExclusive(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	return runExclusive(ctx, r, key, fn)
}

// runExclusive is shared by all Locker implementations: acquire, run,
// unconditionally release.
func runExclusive(ctx context.Context, l Locker, key string, fn func(ctx context.Context) error) error {
	token, err := l.Acquire(ctx, key)
	if err != nil {
		return err
	}
	defer func() {
		// Release with a detached context so a canceled caller still frees
		// the lock promptly instead of waiting out the TTL.
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		l.Release(rctx, key, token)
	}()
	return fn(ctx)
}
