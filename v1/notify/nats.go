package notify

import (
	"context"
	"encoding/json"

	nats "github.com/nats-io/nats.go"
)

const defaultNATSSubjectPrefix = "lounge.outcomes"

// NATSSink delivers outcomes as JSON over NATS, one subject per outcome kind
// under a common prefix.
type NATSSink struct {
	conn   *nats.Conn
	prefix string
}

// NATSSinkOption configures a NATSSink.
type NATSSinkOption func(*NATSSink)

// WithNATSSubjectPrefix sets the subject prefix.
func WithNATSSubjectPrefix(prefix string) NATSSinkOption {
	return func(s *NATSSink) {
		s.prefix = prefix
	}
}

// NewNATSSink returns a new NATSSink using the provided connection.
func NewNATSSink(conn *nats.Conn, opts ...NATSSinkOption) *NATSSink {
	s := &NATSSink{conn: conn, prefix: defaultNATSSubjectPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Deliver implements Sink.Deliver.
func (s *NATSSink) Deliver(ctx context.Context, o Outcome) error {
	data, err := json.Marshal(o)
	if err != nil {
		return err
	}
	return s.conn.Publish(s.prefix+"."+string(o.Kind), data)
}
