package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"schedcal/internal/domain"
	"schedcal/internal/domain/calendar"
	"schedcal/internal/domain/entities"
	"schedcal/internal/domain/recurrence"
	"schedcal/internal/ports/input"
	"schedcal/internal/ports/output"
)

var _ input.EventUseCase = (*EventService)(nil)

type EventService struct {
	eventRepo        output.EventRepository
	subscriptionRepo output.SubscriptionRepository
	now              func() time.Time
}

// Option configures a service.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func NewEventService(
	eventRepo output.EventRepository,
	subscriptionRepo output.SubscriptionRepository,
	opts ...Option,
) *EventService {
	o := buildOptions(opts)
	return &EventService{
		eventRepo:        eventRepo,
		subscriptionRepo: subscriptionRepo,
		now:              o.now,
	}
}

// CreateEvent stores the event and every span it occupies in one transaction.
func (s *EventService) CreateEvent(ctx context.Context, event *entities.Event) error {
	if strings.TrimSpace(event.Owner) == "" {
		return domain.Validation("owner_missing", "owner", event.Owner, nil)
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	event.Version = 1
	spans, err := spansFor(*event)
	if err != nil {
		return err
	}
	return s.eventRepo.Create(ctx, event, spans)
}

// UpdateEvent applies patch to the event owned by owner.
//
// Spans are regenerated only when the patch carries the recurrence triple
// (rrule, duration, timezone), which must then be complete, or moves a
// one-off event.
func (s *EventService) UpdateEvent(ctx context.Context, id uuid.UUID, owner string, patch entities.EventPatch) (*entities.EventUpdate, error) {
	current, err := s.editableEvent(ctx, id, owner)
	if err != nil {
		return nil, err
	}

	touched := patch.Touched()
	if touched.Any(entities.RecurrenceFields...) && !touched.All(entities.RecurrenceFields...) {
		return nil, domain.ErrRecurrenceIncomplete
	}
	if patch.Recurring != nil && *patch.Recurring && !current.Recurring && !touched.All(entities.RecurrenceFields...) {
		return nil, domain.ErrRecurrenceIncomplete
	}

	updated := *current
	changed := updated.Apply(patch)
	regenerate := touched.All(entities.RecurrenceFields...) ||
		changed.Has(entities.FieldRecurring) ||
		(!updated.Recurring && changed.Any(entities.FieldStartTime, entities.FieldEndTime))

	result := &entities.EventUpdate{Event: &updated, Changed: changed, Regenerated: regenerate}
	if len(changed) == 0 && !regenerate {
		return result, nil
	}

	var spans []entities.Span
	if regenerate {
		if spans, err = spansFor(updated); err != nil {
			return nil, err
		}
	}
	updated.Version++
	if err := s.eventRepo.Update(ctx, &updated, spans, regenerate); err != nil {
		return nil, err
	}

	result.Notify = changed.Has(entities.FieldRRule)
	if regenerate && !result.Notify {
		if result.Notify, err = boundsMoved(*current, updated); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// RemoveEvent deletes the event with its spans and subscriptions.
func (s *EventService) RemoveEvent(ctx context.Context, id uuid.UUID, owner string) error {
	if _, err := s.editableEvent(ctx, id, owner); err != nil {
		return err
	}
	return s.eventRepo.Delete(ctx, id)
}

func (s *EventService) GetEvent(ctx context.Context, id uuid.UUID) (*entities.Event, error) {
	event, err := s.eventRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	subs, err := s.subscriptionRepo.FindByEventID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find subscriptions: %w", err)
	}
	event.Subscribers = make([]string, len(subs))
	for i := range subs {
		event.Subscribers[i] = subs[i].Username
	}
	return event, nil
}

func (s *EventService) ListEvents(ctx context.Context, owner string) ([]entities.Event, error) {
	return s.eventRepo.FindByOwner(ctx, owner)
}

func (s *EventService) Spans(ctx context.Context, id uuid.UUID) ([]entities.Span, error) {
	return s.eventRepo.Spans(ctx, id)
}

func (s *EventService) editableEvent(ctx context.Context, id uuid.UUID, owner string) (*entities.Event, error) {
	event, err := s.eventRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.Owner != owner {
		return nil, domain.ErrNotOwner
	}
	ok, err := recurrence.Editable(*event, s.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrEventNotEditable
	}
	return event, nil
}

// spansFor expands an event and rejects span sets that overlap themselves.
func spansFor(e entities.Event) ([]entities.Span, error) {
	spans, err := recurrence.Spans(e)
	if err != nil {
		return nil, err
	}
	if s, ok := recurrence.FirstOverlap(spans); ok {
		return nil, domain.Conflict(&domain.Range{Start: s.Start, End: s.End, Zone: e.Timezone}, nil)
	}
	return spans, nil
}

func boundsMoved(before, after entities.Event) (bool, error) {
	firstBefore, lastBefore, err := calendar.Bounds(before)
	if err != nil {
		// the stored rule no longer parses; treat the change as visible
		return true, nil
	}
	firstAfter, lastAfter, err := calendar.Bounds(after)
	if err != nil {
		return false, err
	}
	return !firstBefore.Equal(firstAfter) || !lastBefore.Equal(lastAfter), nil
}
