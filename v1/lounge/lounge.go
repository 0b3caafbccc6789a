package lounge

import (
	"time"
)

// Visitor identifies a visitor and the user account it belongs to.
type Visitor struct {
	ID     string
	UserID string
}

// EntrySummary is one row of the waiting-list read model.
type EntrySummary struct {
	Position    int           `json:"position"`
	VisitorID   string        `json:"visitor_id"`
	VisitorName string        `json:"visitor_name"`
	Reason      string        `json:"reason,omitempty"`
	JoinedAt    time.Time     `json:"joined_at"`
	Waited      time.Duration `json:"waited"`
}

// PickupResult reports a successful pickup.
type PickupResult struct {
	ExaminationID string        `json:"examination_id"`
	VisitorID     string        `json:"visitor_id"`
	VisitorName   string        `json:"visitor_name"`
	Waited        time.Duration `json:"waited"`
}

// CompletionResult reports a completed examination.
type CompletionResult struct {
	ExaminationID string        `json:"examination_id"`
	VisitorID     string        `json:"visitor_id"`
	VisitorName   string        `json:"visitor_name"`
	Served        time.Duration `json:"served"`
}

// ExitResult reports a manual queue exit.
type ExitResult struct {
	VisitorID string        `json:"visitor_id"`
	Position  int           `json:"position"`
	Waited    time.Duration `json:"waited"`
}

// QueueItem is a visitor's own view of their place in the queue. ETA is a
// naive linear estimate, (position-1) x average service time, and carries no
// accuracy guarantee.
type QueueItem struct {
	Position int           `json:"position"`
	Waited   time.Duration `json:"waited"`
	ETA      time.Duration `json:"eta"`
}

// ExamDetail is the read model of an in-progress examination. PartnerName is
// the display name of the other party: the provider when a visitor asks, the
// visitor when a provider asks.
type ExamDetail struct {
	ExaminationID string        `json:"examination_id"`
	VisitorID     string        `json:"visitor_id"`
	ProviderID    string        `json:"provider_id"`
	PartnerName   string        `json:"partner_name"`
	Reason        string        `json:"reason,omitempty"`
	StartedAt     time.Time     `json:"started_at"`
	Elapsed       time.Duration `json:"elapsed"`
}
