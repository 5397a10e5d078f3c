package output

import (
	"context"

	"github.com/google/uuid"

	"schedcal/internal/domain/entities"
)

// EventRepository persists events together with their spans. Every write is
// a single transaction: either the event row and its full span set are
// stored, or nothing is.
//
// Implementations must reject spans overlapping another span of the same
// owner with a domain conflict error, checked against the spans of other
// events only.
type EventRepository interface {
	// Create inserts the event row, then its spans.
	Create(ctx context.Context, event *entities.Event, spans []entities.Span) error
	// Update writes the event row when the stored version is event.Version-1,
	// and fails with domain.ErrVersionConflict otherwise. When regenerate is
	// true the event's spans
	// are deleted and replaced by spans in the same transaction.
	Update(ctx context.Context, event *entities.Event, spans []entities.Span, regenerate bool) error
	// Delete removes the event, its spans and its subscriptions.
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Event, error)
	FindByOwner(ctx context.Context, owner string) ([]entities.Event, error)
	// Spans returns the spans of an event ordered by start.
	Spans(ctx context.Context, eventID uuid.UUID) ([]entities.Span, error)
}
