package output

import (
	"context"

	"github.com/google/uuid"

	"schedcal/internal/domain/entities"
)

type SubscriptionRepository interface {
	Create(ctx context.Context, sub *entities.Subscription) error
	Delete(ctx context.Context, eventID uuid.UUID, username string) error
	FindByEventID(ctx context.Context, eventID uuid.UUID) ([]entities.Subscription, error)
}
