package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"schedcal/internal/domain"
	"schedcal/internal/domain/entities"
	"schedcal/internal/ports/output"
)

var _ output.EventRepository = (*EventRepository)(nil)

// EventRepository stores events and their spans in PostgreSQL. The
// spans_no_overlap exclusion constraint is the final arbiter of conflicts;
// FirstConflict runs first so the error can name the colliding range.
type EventRepository struct {
	pool *pgxpool.Pool
	q    *Queries
}

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool, q: NewQueries(pool)}
}

func (r *EventRepository) Create(ctx context.Context, event *entities.Event, spans []entities.Span) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		q := r.q.WithTx(tx)
		if err := q.InsertEvent(ctx, event); err != nil {
			return fmt.Errorf("create event: %w", err)
		}
		return r.writeSpans(ctx, q, event, spans)
	})
	return r.conflict(ctx, event, spans, err)
}

func (r *EventRepository) Update(ctx context.Context, event *entities.Event, spans []entities.Span, regenerate bool) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		q := r.q.WithTx(tx)
		if err := q.UpdateEvent(ctx, event); err != nil {
			if !errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("update event: %w", err)
			}
			exists, err := q.EventExists(ctx, event.ID)
			if err != nil {
				return fmt.Errorf("update event: %w", err)
			}
			if !exists {
				return domain.ErrEventNotFound
			}
			return domain.ErrVersionConflict
		}
		if !regenerate {
			return nil
		}
		if err := q.DeleteSpans(ctx, event.ID); err != nil {
			return fmt.Errorf("delete spans: %w", err)
		}
		return r.writeSpans(ctx, q, event, spans)
	})
	return r.conflict(ctx, event, spans, err)
}

func (r *EventRepository) writeSpans(ctx context.Context, q *Queries, event *entities.Event, spans []entities.Span) error {
	hit, found, err := q.FirstConflict(ctx, event.Owner, event.ID, spans)
	if err != nil {
		return fmt.Errorf("check span conflicts: %w", err)
	}
	if found {
		return domain.Conflict(&domain.Range{Start: hit.Start, End: hit.End, Zone: event.Timezone}, nil)
	}
	if len(spans) == 0 {
		return nil
	}
	if _, err := q.CopySpans(ctx, spans); err != nil {
		return fmt.Errorf("insert spans: %w", err)
	}
	return nil
}

// conflict turns an exclusion violation raised by a concurrent writer into a
// domain conflict, looking the colliding range up once the transaction is
// gone.
func (r *EventRepository) conflict(ctx context.Context, event *entities.Event, spans []entities.Span, err error) error {
	if err == nil || !isPgError(err, pgExclusionViolation) {
		return err
	}
	hit, found, lookupErr := r.q.FirstConflict(ctx, event.Owner, event.ID, spans)
	if lookupErr != nil || !found {
		return domain.Conflict(nil, err)
	}
	return domain.Conflict(&domain.Range{Start: hit.Start, End: hit.End, Zone: event.Timezone}, err)
}

// Delete relies on ON DELETE CASCADE for spans and subscriptions.
func (r *EventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	n, err := r.q.DeleteEvent(ctx, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if n == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

func (r *EventRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Event, error) {
	e, err := r.q.GetEventByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event by id: %w", err)
	}
	return &e, nil
}

func (r *EventRepository) FindByOwner(ctx context.Context, owner string) ([]entities.Event, error) {
	events, err := r.q.GetEventsByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("get events by owner: %w", err)
	}
	return events, nil
}

func (r *EventRepository) Spans(ctx context.Context, eventID uuid.UUID) ([]entities.Span, error) {
	spans, err := r.q.GetSpansByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("get spans: %w", err)
	}
	return spans, nil
}
