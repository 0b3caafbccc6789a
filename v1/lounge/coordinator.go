package lounge

import (
	"context"
	stdErrors "errors"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	loungeerrors "github.com/mirkobrombin/go-lounge/v1/errors"
	"github.com/mirkobrombin/go-lounge/v1/lock"
	"github.com/mirkobrombin/go-lounge/v1/metrics"
	"github.com/mirkobrombin/go-lounge/v1/notify"
	"github.com/mirkobrombin/go-lounge/v1/store"
)

var tracer = otel.Tracer("github.com/mirkobrombin/go-lounge/v1/lounge")

const (
	defaultLockKey            = "lounge_queue:position:global"
	defaultAverageServiceTime = 10 * time.Minute
)

// Coordinator owns the waiting-list ordering invariant and the one-exam-per-
// provider invariant. All position mutations run under a single global lock;
// workers on other nodes go through the same lock, so no in-process state is
// assumed.
type Coordinator struct {
	locker  lock.Locker
	waiting store.WaitingStore
	exams   store.ExamStore
	dir     store.Directory
	sink    notify.Sink

	lockKey    string
	avgService time.Duration
	now        func() time.Time
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLockKey overrides the global ordering lock key.
func WithLockKey(key string) Option {
	return func(c *Coordinator) {
		c.lockKey = key
	}
}

// WithAverageServiceTime sets the per-visitor service time used by the naive
// ETA estimate.
func WithAverageServiceTime(d time.Duration) Option {
	return func(c *Coordinator) {
		c.avgService = d
	}
}

// WithClock overrides the time source, mainly for testing.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		c.now = now
	}
}

// New creates a new Coordinator over the given collaborators.
func New(locker lock.Locker, waiting store.WaitingStore, exams store.ExamStore, dir store.Directory, sink notify.Sink, opts ...Option) *Coordinator {
	c := &Coordinator{
		locker:     locker,
		waiting:    waiting,
		exams:      exams,
		dir:        dir,
		sink:       sink,
		lockKey:    defaultLockKey,
		avgService: defaultAverageServiceTime,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// exclusive runs fn under the global ordering lock, counting exhausted
// acquisitions.
func (c *Coordinator) exclusive(ctx context.Context, fn func(ctx context.Context) error) error {
	err := c.locker.RunExclusive(ctx, c.lockKey, fn)
	if stdErrors.Is(err, lock.ErrUnavailable) {
		metrics.LockFailureCounter.Inc()
	}
	return err
}

// emit hands an outcome to the sink. Delivery failures never affect the
// already-committed state change; they are only counted.
func (c *Coordinator) emit(ctx context.Context, o notify.Outcome) {
	if c.sink == nil {
		return
	}
	if err := c.sink.Deliver(ctx, o); err != nil {
		metrics.DroppedOutcomeCounter.Inc()
	}
}

func (c *Coordinator) displayName(ctx context.Context, id string) string {
	if c.dir == nil {
		return store.UnknownName
	}
	name, err := c.dir.DisplayName(ctx, id)
	if err != nil {
		return store.UnknownName
	}
	return name
}

// checkDense verifies the contiguous position range before a mutating
// operation starts. Violations are a storage bug: they are logged with the
// full observed state and surfaced, never repaired here.
func (c *Coordinator) checkDense(ctx context.Context) error {
	entries, err := c.waiting.List(ctx)
	if err != nil {
		return err
	}
	if err := store.CheckDense(entries); err != nil {
		positions := make([]int, len(entries))
		for i, e := range entries {
			positions[i] = e.Position
		}
		slog.Error("lounge: waiting-list positions violate the dense range invariant",
			"positions", positions, "err", err)
		return err
	}
	return nil
}

func (c *Coordinator) updateWaitingGauge(ctx context.Context) {
	if n, err := c.waiting.Len(ctx); err == nil {
		metrics.WaitingGauge.Set(float64(n))
	}
}

// Enqueue adds the visitor at the tail of the queue and returns the assigned
// position. A visitor can hold at most one waiting entry.
func (c *Coordinator) Enqueue(ctx context.Context, v Visitor, reason string) (int, error) {
	ctx, span := tracer.Start(ctx, "Coordinator.Enqueue",
		trace.WithAttributes(attribute.String("lounge.visitor", v.ID)))
	defer span.End()

	// Optimistic fast path; the store's conditional create re-checks under
	// the lock.
	if _, err := c.waiting.Get(ctx, v.ID); err == nil {
		return 0, loungeerrors.ErrAlreadyQueued
	} else if !stdErrors.Is(err, loungeerrors.ErrNotFound) {
		return 0, err
	}

	var position int
	err := c.exclusive(ctx, func(ctx context.Context) error {
		var err error
		position, err = c.waiting.Append(ctx, store.WaitingEntry{
			VisitorID: v.ID,
			UserID:    v.UserID,
			JoinedAt:  c.now(),
			Reason:    reason,
		})
		return err
	})
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	metrics.EnqueueCounter.Inc()
	c.updateWaitingGauge(ctx)
	c.emit(ctx, notify.Outcome{
		Kind:        notify.KindJoined,
		VisitorID:   v.ID,
		VisitorName: c.displayName(ctx, v.UserID),
		Position:    position,
		Reason:      reason,
		Message:     "joined the waiting queue",
		At:          c.now(),
	})
	return position, nil
}

// WaitingList returns a lazy, restartable sequence of waiting-list summaries
// ordered by ascending position. Waited durations are computed at iteration
// time; re-ranging re-reads the store.
func (c *Coordinator) WaitingList(ctx context.Context) iter.Seq2[EntrySummary, error] {
	return func(yield func(EntrySummary, error) bool) {
		entries, err := c.waiting.List(ctx)
		if err != nil {
			yield(EntrySummary{}, err)
			return
		}
		if err := store.CheckDense(entries); err != nil {
			yield(EntrySummary{}, err)
			return
		}
		now := c.now()
		for _, e := range entries {
			s := EntrySummary{
				Position:    e.Position,
				VisitorID:   e.VisitorID,
				VisitorName: c.displayName(ctx, e.UserID),
				Reason:      e.Reason,
				JoinedAt:    e.JoinedAt,
				Waited:      now.Sub(e.JoinedAt),
			}
			if !yield(s, nil) {
				return
			}
		}
	}
}

// Pickup removes a visitor from the queue and opens an examination for the
// provider. With an empty visitorID the head of the queue is taken, otherwise
// the named visitor. A provider can serve at most one visitor at a time.
func (c *Coordinator) Pickup(ctx context.Context, providerID, visitorID string) (PickupResult, error) {
	ctx, span := tracer.Start(ctx, "Coordinator.Pickup",
		trace.WithAttributes(
			attribute.String("lounge.provider", providerID),
			attribute.String("lounge.visitor", visitorID),
		))
	defer span.End()

	// Cheap unlocked rejection: a busy provider fails without contending for
	// the lock. Re-checked under the lock below.
	if _, err := c.exams.InProgressByProvider(ctx, providerID); err == nil {
		if visitorID != "" {
			c.emit(ctx, notify.Outcome{
				Kind:       notify.KindPostponed,
				VisitorID:  visitorID,
				ProviderID: providerID,
				Message:    "provider is busy, please keep waiting",
				At:         c.now(),
			})
		}
		return PickupResult{}, loungeerrors.ErrProviderBusy
	} else if !stdErrors.Is(err, loungeerrors.ErrNotFound) {
		return PickupResult{}, err
	}

	// Fast-path target check outside the lock; selection is repeated inside
	// so racing pickups and exits surface EmptyQueue/NotFound, never a
	// duplicate assignment.
	if visitorID == "" {
		if _, err := c.waiting.First(ctx); err != nil {
			return PickupResult{}, err
		}
	} else {
		if _, err := c.waiting.Get(ctx, visitorID); err != nil {
			return PickupResult{}, err
		}
	}

	var (
		entry store.WaitingEntry
		exam  store.Examination
	)
	err := c.exclusive(ctx, func(ctx context.Context) error {
		if err := c.checkDense(ctx); err != nil {
			return err
		}

		// The provider may have picked someone up between the fast path and
		// lock acquisition.
		if _, err := c.exams.InProgressByProvider(ctx, providerID); err == nil {
			return loungeerrors.ErrProviderBusy
		} else if !stdErrors.Is(err, loungeerrors.ErrNotFound) {
			return err
		}

		var err error
		if visitorID == "" {
			entry, err = c.waiting.First(ctx)
		} else {
			entry, err = c.waiting.Get(ctx, visitorID)
		}
		if err != nil {
			return err
		}

		// Relational write first; the waiting-list removal below is
		// compensated if it fails, so a half-applied pickup is never
		// observable.
		exam = store.Examination{
			ID:         uuid.NewString(),
			VisitorID:  entry.VisitorID,
			UserID:     entry.UserID,
			ProviderID: providerID,
			Reason:     entry.Reason,
			Status:     store.StatusInProgress,
			StartedAt:  c.now(),
		}
		if err := c.exams.Create(ctx, &exam); err != nil {
			return err
		}

		if _, err := c.waiting.Remove(ctx, entry.VisitorID); err != nil {
			if cerr := c.exams.Transition(ctx, exam.ID, store.StatusInProgress, store.StatusCancelled, c.now()); cerr != nil {
				slog.Error("lounge: could not cancel examination after failed queue removal",
					"examination", exam.ID, "err", cerr)
			}
			return fmt.Errorf("removing picked-up visitor from queue: %w", err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return PickupResult{}, err
	}

	metrics.PickupCounter.Inc()
	c.updateWaitingGauge(ctx)

	name := c.displayName(ctx, entry.UserID)
	waited := c.now().Sub(entry.JoinedAt)
	c.emit(ctx, notify.Outcome{
		Kind:          notify.KindVisitorPickedUp,
		VisitorID:     entry.VisitorID,
		VisitorName:   name,
		ProviderID:    providerID,
		ExaminationID: exam.ID,
		Waited:        waited,
		Message:       "you are being seen now",
		At:            c.now(),
	})
	c.emit(ctx, notify.Outcome{
		Kind:          notify.KindProviderPickedUp,
		VisitorID:     entry.VisitorID,
		VisitorName:   name,
		ProviderID:    providerID,
		ExaminationID: exam.ID,
		Waited:        waited,
		Message:       "visitor picked up from queue",
		At:            c.now(),
	})

	return PickupResult{
		ExaminationID: exam.ID,
		VisitorID:     entry.VisitorID,
		VisitorName:   name,
		Waited:        waited,
	}, nil
}

// Complete transitions the provider's in-progress examination of the visitor
// to completed. The transition is a compare-and-swap on status, so duplicate
// completions fail instead of double-transitioning.
func (c *Coordinator) Complete(ctx context.Context, providerID, visitorID string) (CompletionResult, error) {
	ctx, span := tracer.Start(ctx, "Coordinator.Complete",
		trace.WithAttributes(
			attribute.String("lounge.provider", providerID),
			attribute.String("lounge.visitor", visitorID),
		))
	defer span.End()

	exam, err := c.exams.InProgress(ctx, providerID, visitorID)
	if err != nil {
		span.RecordError(err)
		return CompletionResult{}, err
	}

	ended := c.now()
	if err := c.exams.Transition(ctx, exam.ID, store.StatusInProgress, store.StatusCompleted, ended); err != nil {
		span.RecordError(err)
		return CompletionResult{}, err
	}

	metrics.CompleteCounter.Inc()
	served := ended.Sub(exam.StartedAt)
	name := c.displayName(ctx, exam.UserID)
	c.emit(ctx, notify.Outcome{
		Kind:          notify.KindCompleted,
		VisitorID:     exam.VisitorID,
		VisitorName:   name,
		ProviderID:    providerID,
		ExaminationID: exam.ID,
		Served:        served,
		Message:       "examination completed",
		At:            ended,
	})

	return CompletionResult{
		ExaminationID: exam.ID,
		VisitorID:     exam.VisitorID,
		VisitorName:   name,
		Served:        served,
	}, nil
}

// Exit removes the visitor from the queue without an examination. It takes
// the same lock as Pickup: both mutate the global position ordering.
func (c *Coordinator) Exit(ctx context.Context, visitorID string) (ExitResult, error) {
	ctx, span := tracer.Start(ctx, "Coordinator.Exit",
		trace.WithAttributes(attribute.String("lounge.visitor", visitorID)))
	defer span.End()

	if _, err := c.waiting.Get(ctx, visitorID); err != nil {
		return ExitResult{}, err
	}

	var removed store.WaitingEntry
	err := c.exclusive(ctx, func(ctx context.Context) error {
		if err := c.checkDense(ctx); err != nil {
			return err
		}
		var err error
		removed, err = c.waiting.Remove(ctx, visitorID)
		return err
	})
	if err != nil {
		span.RecordError(err)
		return ExitResult{}, err
	}

	metrics.ExitCounter.Inc()
	c.updateWaitingGauge(ctx)

	waited := c.now().Sub(removed.JoinedAt)
	c.emit(ctx, notify.Outcome{
		Kind:        notify.KindExited,
		VisitorID:   removed.VisitorID,
		VisitorName: c.displayName(ctx, removed.UserID),
		Position:    removed.Position,
		Waited:      waited,
		Message:     "left the waiting queue",
		At:          c.now(),
	})

	return ExitResult{
		VisitorID: removed.VisitorID,
		Position:  removed.Position,
		Waited:    waited,
	}, nil
}

// QueueItem returns the visitor's current position, waited time and a naive
// ETA. Read-only; tolerates the eventual consistency of an unlocked read.
func (c *Coordinator) QueueItem(ctx context.Context, visitorID string) (QueueItem, error) {
	entry, err := c.waiting.Get(ctx, visitorID)
	if err != nil {
		return QueueItem{}, err
	}
	return QueueItem{
		Position: entry.Position,
		Waited:   c.now().Sub(entry.JoinedAt),
		ETA:      time.Duration(entry.Position-1) * c.avgService,
	}, nil
}

// VisitorExamination returns the visitor's in-progress examination detail.
// The partner name is the provider's, resolved by provider ID: providers
// register in the directory under their own ID.
func (c *Coordinator) VisitorExamination(ctx context.Context, visitorID string) (ExamDetail, error) {
	exam, err := c.exams.InProgressByVisitor(ctx, visitorID)
	if err != nil {
		return ExamDetail{}, err
	}
	return c.examDetail(ctx, exam, exam.ProviderID), nil
}

// ProviderExamination returns the provider's in-progress examination detail.
// The partner name is the visitor's, resolved by the user account carried on
// the examination record.
func (c *Coordinator) ProviderExamination(ctx context.Context, providerID string) (ExamDetail, error) {
	exam, err := c.exams.InProgressByProvider(ctx, providerID)
	if err != nil {
		return ExamDetail{}, err
	}
	return c.examDetail(ctx, exam, exam.UserID), nil
}

func (c *Coordinator) examDetail(ctx context.Context, exam store.Examination, partnerKey string) ExamDetail {
	return ExamDetail{
		ExaminationID: exam.ID,
		VisitorID:     exam.VisitorID,
		ProviderID:    exam.ProviderID,
		PartnerName:   c.displayName(ctx, partnerKey),
		Reason:        exam.Reason,
		StartedAt:     exam.StartedAt,
		Elapsed:       c.now().Sub(exam.StartedAt),
	}
}
