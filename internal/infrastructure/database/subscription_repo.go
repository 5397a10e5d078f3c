package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"schedcal/internal/domain"
	"schedcal/internal/domain/entities"
	"schedcal/internal/ports/output"
)

var _ output.SubscriptionRepository = (*SubscriptionRepository)(nil)

// SubscriptionRepository implements output.SubscriptionRepository using pgx.
type SubscriptionRepository struct {
	q *Queries
}

func NewSubscriptionRepository(pool *pgxpool.Pool) *SubscriptionRepository {
	return &SubscriptionRepository{q: NewQueries(pool)}
}

func (r *SubscriptionRepository) Create(ctx context.Context, sub *entities.Subscription) error {
	err := r.q.InsertSubscription(ctx, sub)
	switch {
	case err == nil:
		return nil
	case isPgError(err, pgUniqueViolation):
		return domain.ErrAlreadySubscribed
	case isPgError(err, pgForeignKeyViolation):
		return domain.ErrEventNotFound
	default:
		return fmt.Errorf("create subscription: %w", err)
	}
}

func (r *SubscriptionRepository) Delete(ctx context.Context, eventID uuid.UUID, username string) error {
	n, err := r.q.DeleteSubscription(ctx, eventID, username)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	if n == 0 {
		return domain.ErrSubscriptionNotFound
	}
	return nil
}

func (r *SubscriptionRepository) FindByEventID(ctx context.Context, eventID uuid.UUID) ([]entities.Subscription, error) {
	subs, err := r.q.GetSubscriptionsByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("get subscriptions by event id: %w", err)
	}
	return subs, nil
}
