package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"schedcal/internal/domain"
	"schedcal/internal/domain/entities"
	"schedcal/internal/ports/input"
	"schedcal/internal/ports/output"
)

var _ input.SubscriptionUseCase = (*SubscriptionService)(nil)

type SubscriptionService struct {
	subscriptionRepo output.SubscriptionRepository
	eventRepo        output.EventRepository
	now              func() time.Time
}

func NewSubscriptionService(
	subscriptionRepo output.SubscriptionRepository,
	eventRepo output.EventRepository,
	opts ...Option,
) *SubscriptionService {
	o := buildOptions(opts)
	return &SubscriptionService{
		subscriptionRepo: subscriptionRepo,
		eventRepo:        eventRepo,
		now:              o.now,
	}
}

func (s *SubscriptionService) Subscribe(ctx context.Context, eventID uuid.UUID, username string, notify bool) (*entities.Subscription, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, domain.Validation("username_missing", "username", username, nil)
	}
	if _, err := s.eventRepo.FindByID(ctx, eventID); err != nil {
		return nil, err
	}
	sub := &entities.Subscription{
		EventID:   eventID,
		Username:  username,
		Notify:    notify,
		CreatedAt: s.now(),
	}
	if err := s.subscriptionRepo.Create(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *SubscriptionService) Unsubscribe(ctx context.Context, eventID uuid.UUID, username string) error {
	return s.subscriptionRepo.Delete(ctx, eventID, strings.TrimSpace(username))
}

func (s *SubscriptionService) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]entities.Subscription, error) {
	subs, err := s.subscriptionRepo.FindByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("find subscriptions: %w", err)
	}
	return subs, nil
}
