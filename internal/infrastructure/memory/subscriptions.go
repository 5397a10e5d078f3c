package memory

import (
	"context"
	"slices"

	"github.com/google/uuid"

	"schedcal/internal/domain"
	"schedcal/internal/domain/entities"
)

// Subscriptions implements output.SubscriptionRepository on top of a Store.
type Subscriptions struct {
	store *Store
}

func (r *Subscriptions) Create(_ context.Context, sub *entities.Subscription) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[sub.EventID]; !ok {
		return domain.ErrEventNotFound
	}
	for _, existing := range s.subs[sub.EventID] {
		if existing.Username == sub.Username {
			return domain.ErrAlreadySubscribed
		}
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = s.now()
	}
	s.subs[sub.EventID] = append(s.subs[sub.EventID], *sub)
	return nil
}

func (r *Subscriptions) Delete(_ context.Context, eventID uuid.UUID, username string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	subs := s.subs[eventID]
	i := slices.IndexFunc(subs, func(v entities.Subscription) bool { return v.Username == username })
	if i < 0 {
		return domain.ErrSubscriptionNotFound
	}
	s.subs[eventID] = slices.Delete(subs, i, i+1)
	return nil
}

func (r *Subscriptions) FindByEventID(_ context.Context, eventID uuid.UUID) ([]entities.Subscription, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.subs[eventID]), nil
}
