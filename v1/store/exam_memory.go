package store

import (
	"context"
	"sync"
	"time"

	loungeerrors "github.com/mirkobrombin/go-lounge/v1/errors"
)

// InMemoryExam is an ExamStore backed by a map, mainly for testing.
type InMemoryExam struct {
	mu    sync.RWMutex
	exams map[string]Examination
}

// NewInMemoryExam returns a new InMemoryExam store.
func NewInMemoryExam() *InMemoryExam {
	return &InMemoryExam{exams: make(map[string]Examination)}
}

// Create implements ExamStore.Create.
func (s *InMemoryExam) Create(ctx context.Context, e *Examination) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exams[e.ID] = *e
	return nil
}

func (s *InMemoryExam) find(match func(Examination) bool) (Examination, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.exams {
		if e.Status == StatusInProgress && match(e) {
			return e, nil
		}
	}
	return Examination{}, loungeerrors.ErrNotFound
}

// InProgressByProvider implements ExamStore.InProgressByProvider.
func (s *InMemoryExam) InProgressByProvider(ctx context.Context, providerID string) (Examination, error) {
	return s.find(func(e Examination) bool { return e.ProviderID == providerID })
}

// InProgressByVisitor implements ExamStore.InProgressByVisitor.
func (s *InMemoryExam) InProgressByVisitor(ctx context.Context, visitorID string) (Examination, error) {
	return s.find(func(e Examination) bool { return e.VisitorID == visitorID })
}

// InProgress implements ExamStore.InProgress.
func (s *InMemoryExam) InProgress(ctx context.Context, providerID, visitorID string) (Examination, error) {
	return s.find(func(e Examination) bool {
		return e.ProviderID == providerID && e.VisitorID == visitorID
	})
}

// Transition implements ExamStore.Transition.
func (s *InMemoryExam) Transition(ctx context.Context, id string, from, to ExamStatus, endedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.exams[id]
	if !ok || e.Status != from {
		return loungeerrors.ErrNotInProgress
	}
	e.Status = to
	e.EndedAt = &endedAt
	s.exams[id] = e
	return nil
}

// Get returns the examination by id regardless of status. Test helper.
func (s *InMemoryExam) Get(id string) (Examination, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.exams[id]
	return e, ok
}
