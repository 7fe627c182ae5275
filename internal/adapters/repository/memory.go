package repository

import (
	"context"
	"sync"
	"time"

	"github.com/okian/calgrid/internal/domain/model"
)

// MemoryStore keeps events in a map. It is safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	events map[string]model.Event
	closed bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{events: make(map[string]model.Event)}
}

func (s *MemoryStore) Create(_ context.Context, ev model.Event) (model.Event, error) {
	ev, err := prepare(ev)
	if err != nil {
		return model.Event{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return model.Event{}, ErrClosed
	}
	if _, ok := s.events[ev.ID]; ok {
		return model.Event{}, ErrConflict
	}
	s.events[ev.ID] = ev
	return ev, nil
}

func (s *MemoryStore) Upsert(_ context.Context, ev model.Event) error {
	ev, err := prepare(ev)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.events[ev.ID] = ev
	return nil
}

func (s *MemoryStore) Update(_ context.Context, ev model.Event) (model.Event, error) {
	if err := Validate(ev); err != nil {
		return model.Event{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return model.Event{}, ErrClosed
	}
	if _, ok := s.events[ev.ID]; !ok {
		return model.Event{}, ErrNotFound
	}
	s.events[ev.ID] = ev
	return ev, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return model.Event{}, ErrClosed
	}
	ev, ok := s.events[id]
	if !ok {
		return model.Event{}, ErrNotFound
	}
	return ev, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if _, ok := s.events[id]; !ok {
		return ErrNotFound
	}
	delete(s.events, id)
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]model.Event, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, ErrClosed
	}
	out := make([]model.Event, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, ev)
	}
	s.mu.RUnlock()
	sortEvents(out)
	return out, nil
}

func (s *MemoryStore) InRange(_ context.Context, from, to time.Time) ([]model.Event, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, ErrClosed
	}
	out := make([]model.Event, 0)
	for _, ev := range s.events {
		if overlaps(ev, from, to) {
			out = append(out, ev)
		}
	}
	s.mu.RUnlock()
	sortEvents(out)
	return out, nil
}

func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// Close drops the events. Later calls return ErrClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.events = nil
	s.mu.Unlock()
	return nil
}
