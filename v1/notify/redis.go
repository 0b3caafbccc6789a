package notify

import (
	"context"
	"encoding/json"

	redis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/mirkobrombin/go-lounge/v1/notify")

const defaultRedisChannel = "lounge:outcomes"

// RedisSink delivers outcomes as JSON over Redis pub/sub: once on the
// firehose channel and once on a per-kind channel so consumers can subscribe
// narrowly.
type RedisSink struct {
	client  *redis.Client
	channel string
}

// RedisSinkOption configures a RedisSink.
type RedisSinkOption func(*RedisSink)

// WithRedisChannel sets the firehose channel name.
func WithRedisChannel(ch string) RedisSinkOption {
	return func(s *RedisSink) {
		s.channel = ch
	}
}

// NewRedisSink returns a new RedisSink using the provided client.
func NewRedisSink(client *redis.Client, opts ...RedisSinkOption) *RedisSink {
	s := &RedisSink{client: client, channel: defaultRedisChannel}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Deliver implements Sink.Deliver.
func (s *RedisSink) Deliver(ctx context.Context, o Outcome) error {
	ctx, span := tracer.Start(ctx, "RedisSink.Deliver",
		trace.WithAttributes(attribute.String("lounge.outcome.kind", string(o.Kind))))
	defer span.End()

	data, err := json.Marshal(o)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if err := s.client.Publish(ctx, s.channel, data).Err(); err != nil {
		span.RecordError(err)
		return err
	}
	if err := s.client.Publish(ctx, s.channel+":"+string(o.Kind), data).Err(); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}
