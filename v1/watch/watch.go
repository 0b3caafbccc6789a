// Package watch fans queue outcomes out to live subscribers. The Hub is a
// notify.Sink, so it plugs into the coordinator next to the durable sinks and
// feeds the SSE and WebSocket handlers in this package.
package watch

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/mirkobrombin/go-lounge/v1/notify"
)

// KindAll subscribes to every outcome regardless of kind.
const KindAll notify.Kind = ""

// Hub delivers outcomes to in-process subscribers. Slow subscribers lose
// messages rather than blocking delivery: the queue state change has already
// been committed by the time an outcome reaches the hub.
type Hub struct {
	mu   sync.Mutex
	subs map[notify.Kind][]chan []byte
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[notify.Kind][]chan []byte)}
}

// Deliver implements notify.Sink. The outcome is marshalled once and fanned
// out to subscribers of its kind and to wildcard subscribers. The fan-out
// runs under the hub mutex so Unsubscribe can never close a channel between
// the snapshot and the send; the sends are non-blocking, so holding the lock
// is safe.
func (h *Hub) Deliver(ctx context.Context, o notify.Outcome) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	payload, err := json.Marshal(o)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs[o.Kind] {
		select {
		case ch <- payload:
		default:
		}
	}
	if o.Kind == KindAll {
		return nil
	}
	for _, ch := range h.subs[KindAll] {
		select {
		case ch <- payload:
		default:
		}
	}
	return nil
}

// Subscribe registers a subscriber for the given outcome kind (KindAll for
// every outcome). The returned channel receives JSON-encoded outcomes until
// the context is cancelled or Unsubscribe is called.
func (h *Hub) Subscribe(ctx context.Context, kind notify.Kind) (chan []byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	ch := make(chan []byte, 8)
	h.mu.Lock()
	h.subs[kind] = append(h.subs[kind], ch)
	h.mu.Unlock()
	go func() {
		<-ctx.Done()
		h.Unsubscribe(kind, ch)
	}()
	return ch, nil
}

// Unsubscribe removes the channel from the kind's subscribers and closes it.
func (h *Hub) Unsubscribe(kind notify.Kind, ch chan []byte) {
	h.mu.Lock()
	subs := h.subs[kind]
	for i, c := range subs {
		if c == ch {
			subs[i] = subs[len(subs)-1]
			subs = subs[:len(subs)-1]
			h.subs[kind] = subs
			close(c)
			break
		}
	}
	if len(subs) == 0 {
		delete(h.subs, kind)
	}
	h.mu.Unlock()
}
