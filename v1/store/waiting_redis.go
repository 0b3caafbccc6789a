package store

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"

	loungeerrors "github.com/mirkobrombin/go-lounge/v1/errors"
)

const (
	defaultWaitingPrefix   = "lounge:waiting"
	defaultRedisOpTimeout  = 5 * time.Second
	waitingIndexSuffix     = ":index"
	waitingEntryKeySegment = ":entry:"
)

// RedisWaiting implements WaitingStore on Redis: one JSON document per
// visitor created with SETNX (the conditional write that rejects duplicate
// joins) plus a sorted-set index scored by position.
type RedisWaiting struct {
	client  *redis.Client
	prefix  string
	timeout time.Duration
}

// RedisWaitingOption configures a RedisWaiting store.
type RedisWaitingOption func(*redisWaitingOptions)

type redisWaitingOptions struct {
	prefix  string
	timeout time.Duration
}

// WithWaitingPrefix sets the key prefix for queue data.
func WithWaitingPrefix(prefix string) RedisWaitingOption {
	return func(o *redisWaitingOptions) {
		o.prefix = prefix
	}
}

// WithWaitingTimeout sets the operation timeout for Redis calls.
func WithWaitingTimeout(d time.Duration) RedisWaitingOption {
	return func(o *redisWaitingOptions) {
		o.timeout = d
	}
}

// NewRedisWaiting returns a new RedisWaiting using the provided client.
func NewRedisWaiting(client *redis.Client, opts ...RedisWaitingOption) *RedisWaiting {
	o := redisWaitingOptions{prefix: defaultWaitingPrefix, timeout: defaultRedisOpTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	return &RedisWaiting{client: client, prefix: o.prefix, timeout: o.timeout}
}

func (s *RedisWaiting) indexKey() string {
	return s.prefix + waitingIndexSuffix
}

func (s *RedisWaiting) entryKey(visitorID string) string {
	return s.prefix + waitingEntryKeySegment + visitorID
}

// Append implements WaitingStore.Append.
func (s *RedisWaiting) Append(ctx context.Context, e WaitingEntry) (int, error) {
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	data, err := json.Marshal(e)
	if err != nil {
		return 0, err
	}
	created, err := s.client.SetNX(cctx, s.entryKey(e.VisitorID), data, 0).Result()
	if err != nil {
		return 0, err
	}
	if !created {
		return 0, loungeerrors.ErrAlreadyQueued
	}

	n, err := s.client.ZCard(cctx, s.indexKey()).Result()
	if err != nil {
		return 0, err
	}
	position := int(n) + 1
	if err := s.client.ZAdd(cctx, s.indexKey(), redis.Z{
		Score:  float64(position),
		Member: e.VisitorID,
	}).Err(); err != nil {
		// Roll the document back so a later join is not rejected forever.
		_ = s.client.Del(cctx, s.entryKey(e.VisitorID)).Err()
		return 0, err
	}
	return position, nil
}

func (s *RedisWaiting) load(ctx context.Context, visitorID string, position int) (WaitingEntry, error) {
	data, err := s.client.Get(ctx, s.entryKey(visitorID)).Bytes()
	if err == redis.Nil {
		return WaitingEntry{}, loungeerrors.ErrNotFound
	}
	if err != nil {
		return WaitingEntry{}, err
	}
	var e WaitingEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return WaitingEntry{}, err
	}
	e.Position = position
	return e, nil
}

// Get implements WaitingStore.Get.
func (s *RedisWaiting) Get(ctx context.Context, visitorID string) (WaitingEntry, error) {
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	score, err := s.client.ZScore(cctx, s.indexKey(), visitorID).Result()
	if stdErrors.Is(err, redis.Nil) {
		return WaitingEntry{}, loungeerrors.ErrNotFound
	}
	if err != nil {
		return WaitingEntry{}, err
	}
	return s.load(cctx, visitorID, int(score))
}

// First implements WaitingStore.First.
func (s *RedisWaiting) First(ctx context.Context) (WaitingEntry, error) {
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	head, err := s.client.ZRangeWithScores(cctx, s.indexKey(), 0, 0).Result()
	if err != nil {
		return WaitingEntry{}, err
	}
	if len(head) == 0 {
		return WaitingEntry{}, loungeerrors.ErrEmptyQueue
	}
	return s.load(cctx, head[0].Member.(string), int(head[0].Score))
}

// List implements WaitingStore.List.
func (s *RedisWaiting) List(ctx context.Context) ([]WaitingEntry, error) {
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ranked, err := s.client.ZRangeWithScores(cctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]WaitingEntry, 0, len(ranked))
	for _, z := range ranked {
		e, err := s.load(cctx, z.Member.(string), int(z.Score))
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Remove implements WaitingStore.Remove.
func (s *RedisWaiting) Remove(ctx context.Context, visitorID string) (WaitingEntry, error) {
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	removed, err := s.Get(cctx, visitorID)
	if err != nil {
		return WaitingEntry{}, err
	}

	behind, err := s.client.ZRangeByScore(cctx, s.indexKey(), &redis.ZRangeBy{
		Min: formatScore(removed.Position + 1),
		Max: "+inf",
	}).Result()
	if err != nil {
		return WaitingEntry{}, err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(cctx, s.entryKey(visitorID))
	pipe.ZRem(cctx, s.indexKey(), visitorID)
	for _, member := range behind {
		pipe.ZIncrBy(cctx, s.indexKey(), -1, member)
	}
	if _, err := pipe.Exec(cctx); err != nil {
		return WaitingEntry{}, err
	}
	return removed, nil
}

// Len implements WaitingStore.Len.
func (s *RedisWaiting) Len(ctx context.Context) (int, error) {
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.client.ZCard(cctx, s.indexKey()).Result()
	return int(n), err
}

// ZRangeBy bounds are strings in the go-redis API.
func formatScore(p int) string {
	return strconv.Itoa(p)
}
