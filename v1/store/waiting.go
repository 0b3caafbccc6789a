package store

import (
	"context"
	"fmt"
	"time"

	loungeerrors "github.com/mirkobrombin/go-lounge/v1/errors"
)

// WaitingEntry is one visitor waiting to be served. Position is a dense,
// 1-based rank: at any time the positions of all current entries form the
// contiguous range 1..N in join order.
type WaitingEntry struct {
	VisitorID string    `json:"visitor_id"`
	UserID    string    `json:"user_id"`
	Position  int       `json:"-"`
	JoinedAt  time.Time `json:"joined_at"`
	Reason    string    `json:"reason,omitempty"`
}

// WaitingStore is the waiting-list storage boundary. Mutating calls (Append,
// Remove) must run under the global ordering lock; the store only guarantees
// per-call atomicity, not cross-call ordering.
type WaitingStore interface {
	// Append adds the entry at the tail of the queue and returns the assigned
	// position. It fails with ErrAlreadyQueued if the visitor already has an
	// entry.
	Append(ctx context.Context, e WaitingEntry) (int, error)
	// Get returns the entry for visitorID, or ErrNotFound.
	Get(ctx context.Context, visitorID string) (WaitingEntry, error)
	// First returns the entry with the smallest position, or ErrEmptyQueue.
	First(ctx context.Context) (WaitingEntry, error)
	// List returns all entries ordered by ascending position.
	List(ctx context.Context) ([]WaitingEntry, error)
	// Remove deletes the entry for visitorID and decrements the position of
	// every entry behind it, restoring the dense range. It returns the
	// removed entry (with its old position) or ErrNotFound.
	Remove(ctx context.Context, visitorID string) (WaitingEntry, error)
	// Len returns the number of waiting entries.
	Len(ctx context.Context) (int, error)
}

// CheckDense verifies that entries, ordered as returned by List, occupy the
// positions 1..N with no gaps or duplicates. A violation is a storage bug and
// is surfaced, never repaired in place.
func CheckDense(entries []WaitingEntry) error {
	for i, e := range entries {
		if e.Position != i+1 {
			return fmt.Errorf("%w: position %d at rank %d (count %d)",
				loungeerrors.ErrInconsistent, e.Position, i+1, len(entries))
		}
	}
	return nil
}
