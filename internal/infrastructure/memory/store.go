// Package memory is an in-process implementation of the repository ports,
// used by tests and local runs without PostgreSQL.
//
// A single mutex serializes writers the way the database's exclusion
// constraint does, and every write validates before mutating anything so a
// failed call leaves no trace.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"schedcal/internal/domain"
	"schedcal/internal/domain/entities"
	"schedcal/internal/ports/output"
)

var (
	_ output.EventRepository        = (*Store)(nil)
	_ output.SubscriptionRepository = (*Subscriptions)(nil)
)

// Store implements output.EventRepository.
type Store struct {
	mu     sync.RWMutex
	events map[uuid.UUID]*entities.Event
	order  []uuid.UUID // creation order
	spans  map[uuid.UUID][]entities.Span
	subs   map[uuid.UUID][]entities.Subscription
	now    func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		events: make(map[uuid.UUID]*entities.Event),
		spans:  make(map[uuid.UUID][]entities.Span),
		subs:   make(map[uuid.UUID][]entities.Subscription),
		now:    time.Now,
	}
}

// Subscriptions returns the subscription repository sharing this store, so
// removing an event cascades to its subscriptions.
func (s *Store) Subscriptions() *Subscriptions {
	return &Subscriptions{store: s}
}

func (s *Store) Create(_ context.Context, event *entities.Event, spans []entities.Span) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[event.ID]; ok {
		return fmt.Errorf("create event: id %s already exists", event.ID)
	}
	if err := s.checkOverlap(event, spans); err != nil {
		return err
	}
	now := s.now()
	event.CreatedAt, event.UpdatedAt = now, now
	s.events[event.ID] = cloneEvent(event)
	s.order = append(s.order, event.ID)
	s.spans[event.ID] = slices.Clone(spans)
	return nil
}

func (s *Store) Update(_ context.Context, event *entities.Event, spans []entities.Span, regenerate bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.events[event.ID]
	if !ok {
		return domain.ErrEventNotFound
	}
	if stored.Version != event.Version-1 {
		return domain.ErrVersionConflict
	}
	if regenerate {
		if err := s.checkOverlap(event, spans); err != nil {
			return err
		}
		s.spans[event.ID] = slices.Clone(spans)
	}
	event.UpdatedAt = s.now()
	s.events[event.ID] = cloneEvent(event)
	return nil
}

func (s *Store) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[id]; !ok {
		return domain.ErrEventNotFound
	}
	delete(s.events, id)
	delete(s.spans, id)
	delete(s.subs, id)
	s.order = slices.DeleteFunc(s.order, func(v uuid.UUID) bool { return v == id })
	return nil
}

func (s *Store) FindByID(_ context.Context, id uuid.UUID) (*entities.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.events[id]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	return cloneEvent(e), nil
}

func (s *Store) FindByOwner(_ context.Context, owner string) ([]entities.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []entities.Event
	for _, id := range s.order {
		if e := s.events[id]; e.Owner == owner {
			out = append(out, *cloneEvent(e))
		}
	}
	return out, nil
}

func (s *Store) Spans(_ context.Context, eventID uuid.UUID) ([]entities.Span, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	spans := slices.Clone(s.spans[eventID])
	slices.SortFunc(spans, func(a, b entities.Span) int { return a.Start.Compare(b.Start) })
	return spans, nil
}

// checkOverlap compares spans with the spans of the owner's other events.
func (s *Store) checkOverlap(event *entities.Event, spans []entities.Span) error {
	for _, n := range spans {
		for _, id := range s.order {
			if id == event.ID || s.events[id].Owner != event.Owner {
				continue
			}
			for _, o := range s.spans[id] {
				if n.Overlaps(o) {
					return domain.Conflict(&domain.Range{Start: o.Start, End: o.End, Zone: event.Timezone}, nil)
				}
			}
		}
	}
	return nil
}

func cloneEvent(e *entities.Event) *entities.Event {
	c := *e
	c.Tags = slices.Clone(e.Tags)
	c.Hosts = slices.Clone(e.Hosts)
	c.Subscribers = slices.Clone(e.Subscribers)
	c.Notifications = slices.Clone(e.Notifications)
	return &c
}
