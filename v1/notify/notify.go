// Package notify carries domain outcomes from the lounge coordinator to
// external delivery transports. Delivery is fire-and-forget: the coordinator
// never rolls back a committed state change because a sink failed.
package notify

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Kind identifies the domain outcome an Outcome record describes.
type Kind string

const (
	KindJoined           Kind = "joined"
	KindVisitorPickedUp  Kind = "visitor_picked_up"
	KindProviderPickedUp Kind = "provider_picked_up"
	KindPostponed        Kind = "postponed"
	KindExited           Kind = "exited"
	KindCompleted        Kind = "completed"
)

// Outcome is an immutable record of one domain outcome.
type Outcome struct {
	Kind          Kind          `json:"kind"`
	VisitorID     string        `json:"visitor_id"`
	VisitorName   string        `json:"visitor_name,omitempty"`
	ProviderID    string        `json:"provider_id,omitempty"`
	ExaminationID string        `json:"examination_id,omitempty"`
	Position      int           `json:"position,omitempty"`
	Reason        string        `json:"reason,omitempty"`
	Waited        time.Duration `json:"waited,omitempty"`
	Served        time.Duration `json:"served,omitempty"`
	Message       string        `json:"message,omitempty"`
	At            time.Time     `json:"at"`
}

// Sink consumes outcomes and performs delivery.
type Sink interface {
	Deliver(ctx context.Context, o Outcome) error
}

// Recorder is a Sink that stores outcomes in memory, mainly for testing.
type Recorder struct {
	mu       sync.Mutex
	outcomes []Outcome
}

// NewRecorder returns a new Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Deliver implements Sink.Deliver.
func (r *Recorder) Deliver(ctx context.Context, o Outcome) error {
	r.mu.Lock()
	r.outcomes = append(r.outcomes, o)
	r.mu.Unlock()
	return nil
}

// Outcomes returns a copy of all delivered outcomes in order.
func (r *Recorder) Outcomes() []Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Outcome, len(r.outcomes))
	copy(out, r.outcomes)
	return out
}

// Kinds returns the kinds of all delivered outcomes in order.
func (r *Recorder) Kinds() []Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]Kind, len(r.outcomes))
	for i, o := range r.outcomes {
		kinds[i] = o.Kind
	}
	return kinds
}

// MultiSink fans each outcome out to every wrapped sink.
type MultiSink []Sink

// Deliver implements Sink.Deliver.
func (m MultiSink) Deliver(ctx context.Context, o Outcome) error {
	var errs []error
	for _, s := range m {
		if err := s.Deliver(ctx, o); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
