package input

import (
	"context"

	"github.com/google/uuid"

	"schedcal/internal/domain/entities"
)

type SubscriptionUseCase interface {
	Subscribe(ctx context.Context, eventID uuid.UUID, username string, notify bool) (*entities.Subscription, error)
	Unsubscribe(ctx context.Context, eventID uuid.UUID, username string) error
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]entities.Subscription, error)
}
