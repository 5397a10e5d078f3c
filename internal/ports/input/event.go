package input

import (
	"context"

	"github.com/google/uuid"

	"schedcal/internal/domain/entities"
)

type EventUseCase interface {
	CreateEvent(ctx context.Context, event *entities.Event) error
	UpdateEvent(ctx context.Context, id uuid.UUID, owner string, patch entities.EventPatch) (*entities.EventUpdate, error)
	RemoveEvent(ctx context.Context, id uuid.UUID, owner string) error
	GetEvent(ctx context.Context, id uuid.UUID) (*entities.Event, error)
	ListEvents(ctx context.Context, owner string) ([]entities.Event, error)
	Spans(ctx context.Context, id uuid.UUID) ([]entities.Span, error)
}
