package store

import (
	"context"
	"sync"

	loungeerrors "github.com/mirkobrombin/go-lounge/v1/errors"
)

// InMemoryWaiting is a WaitingStore backed by a slice, mainly for testing and
// single-process deployments.
type InMemoryWaiting struct {
	mu      sync.RWMutex
	entries []WaitingEntry
}

// NewInMemoryWaiting returns a new InMemoryWaiting store.
func NewInMemoryWaiting() *InMemoryWaiting {
	return &InMemoryWaiting{}
}

// Append implements WaitingStore.Append.
func (s *InMemoryWaiting) Append(ctx context.Context, e WaitingEntry) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cur := range s.entries {
		if cur.VisitorID == e.VisitorID {
			return 0, loungeerrors.ErrAlreadyQueued
		}
	}
	e.Position = len(s.entries) + 1
	s.entries = append(s.entries, e)
	return e.Position, nil
}

// Get implements WaitingStore.Get.
func (s *InMemoryWaiting) Get(ctx context.Context, visitorID string) (WaitingEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.VisitorID == visitorID {
			return e, nil
		}
	}
	return WaitingEntry{}, loungeerrors.ErrNotFound
}

// First implements WaitingStore.First.
func (s *InMemoryWaiting) First(ctx context.Context) (WaitingEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.entries) == 0 {
		return WaitingEntry{}, loungeerrors.ErrEmptyQueue
	}
	return s.entries[0], nil
}

// List implements WaitingStore.List.
func (s *InMemoryWaiting) List(ctx context.Context) ([]WaitingEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]WaitingEntry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

// Remove implements WaitingStore.Remove.
func (s *InMemoryWaiting) Remove(ctx context.Context, visitorID string) (WaitingEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.entries {
		if e.VisitorID != visitorID {
			continue
		}
		s.entries = append(s.entries[:i], s.entries[i+1:]...)
		for j := i; j < len(s.entries); j++ {
			s.entries[j].Position--
		}
		return e, nil
	}
	return WaitingEntry{}, loungeerrors.ErrNotFound
}

// Len implements WaitingStore.Len.
func (s *InMemoryWaiting) Len(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}
