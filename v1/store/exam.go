package store

import (
	"context"
	"time"
)

// ExamStatus is the lifecycle state of an examination.
type ExamStatus string

const (
	StatusInProgress ExamStatus = "in_progress"
	StatusCompleted  ExamStatus = "completed"
	StatusCancelled  ExamStatus = "cancelled"
)

// Examination is the record of one provider actively serving one visitor.
// UserID is the visitor's user account, carried over from the waiting entry
// so display names stay resolvable after the entry is gone. Records are never
// deleted, only status-transitioned, so the table doubles as an audit trail.
type Examination struct {
	ID         string     `gorm:"primaryKey;column:id" json:"id"`
	VisitorID  string     `gorm:"index;column:visitor_id" json:"visitor_id"`
	UserID     string     `gorm:"column:user_id" json:"user_id"`
	ProviderID string     `gorm:"index;column:provider_id" json:"provider_id"`
	Reason     string     `gorm:"column:reason" json:"reason,omitempty"`
	Status     ExamStatus `gorm:"index;column:status" json:"status"`
	StartedAt  time.Time  `gorm:"column:started_at" json:"started_at"`
	EndedAt    *time.Time `gorm:"column:ended_at" json:"ended_at,omitempty"`
}

// ExamStore is the relational storage boundary for examinations. Transition
// is a compare-and-swap on status, which is the only concurrency control a
// completion needs: it touches no ordering state.
type ExamStore interface {
	// Create inserts a new examination record.
	Create(ctx context.Context, e *Examination) error
	// InProgressByProvider returns the provider's in-progress examination, or
	// ErrNotFound.
	InProgressByProvider(ctx context.Context, providerID string) (Examination, error)
	// InProgressByVisitor returns the visitor's in-progress examination, or
	// ErrNotFound.
	InProgressByVisitor(ctx context.Context, visitorID string) (Examination, error)
	// InProgress returns the in-progress examination for the exact
	// provider/visitor pair, or ErrNotFound.
	InProgress(ctx context.Context, providerID, visitorID string) (Examination, error)
	// Transition moves the examination from status from to status to and
	// stamps endedAt, but only if the current status still equals from. It
	// returns ErrNotInProgress when the guard misses.
	Transition(ctx context.Context, id string, from, to ExamStatus, endedAt time.Time) error
}
