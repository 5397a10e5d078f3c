package application

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schedcal/internal/domain"
	"schedcal/internal/domain/entities"
	"schedcal/internal/domain/recurrence"
	"schedcal/internal/infrastructure/memory"
)

const nyWeekly = "DTSTART=20180920T120000Z;UNTIL=20181221T090000;FREQ=WEEKLY;BYDAY=MO"

func ptr[T any](v T) *T { return &v }

func utc(y int, m time.Month, d, h, mi int) time.Time {
	return time.Date(y, m, d, h, mi, 0, 0, time.UTC)
}

type fixture struct {
	store  *memory.Store
	events *EventService
	subs   *SubscriptionService
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: memory.New(), now: utc(2018, 9, 1, 0, 0)}
	clock := WithClock(func() time.Time { return f.now })
	f.events = NewEventService(f.store, f.store.Subscriptions(), clock)
	f.subs = NewSubscriptionService(f.store.Subscriptions(), f.store, clock)
	return f
}

func weekly(owner string) *entities.Event {
	return &entities.Event{
		Owner:     owner,
		Title:     "Weekly sync",
		Recurring: true,
		RRule:     nyWeekly,
		Duration:  30,
		Timezone:  "America/New_York",
		Tags:      []string{"team"},
		Hosts:     []string{owner},
	}
}

func oneOff(owner string, start time.Time, d time.Duration) *entities.Event {
	return &entities.Event{Owner: owner, Title: "Dentist", Timezone: "UTC", StartTime: start, EndTime: start.Add(d)}
}

func TestCreateEvent_PersistsExpandedSpans(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	ev := weekly("alice")
	require.NoError(t, f.events.CreateEvent(ctx, ev))
	assert.NotEqual(t, uuid.Nil, ev.ID)
	assert.Equal(t, 1, ev.Version)

	d, err := recurrence.Parse(ev.RRule, ev.Duration, ev.Timezone)
	require.NoError(t, err)
	occ, err := d.Expand()
	require.NoError(t, err)
	want := recurrence.ToSpans(occ, ev.Duration)
	for i := range want {
		want[i].EventID, want[i].Owner = ev.ID, ev.Owner
	}

	got, err := f.events.Spans(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestCreateEvent_KeepsGivenID(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	id := uuid.New()
	ev := oneOff("alice", utc(2018, 10, 2, 9, 0), time.Hour)
	ev.ID = id
	require.NoError(t, f.events.CreateEvent(ctx, ev))
	assert.Equal(t, id, ev.ID)

	spans, err := f.events.Spans(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []entities.Span{{EventID: id, Owner: "alice", Start: utc(2018, 10, 2, 9, 0), End: utc(2018, 10, 2, 10, 0)}}, spans)
}

func TestCreateEvent_OverlapRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.events.CreateEvent(ctx, weekly("alice")))

	// shares the 2018-10-01 12:00Z instant with the weekly event
	second := oneOff("alice", utc(2018, 10, 1, 11, 45), 30*time.Minute)
	err := f.events.CreateEvent(ctx, second)
	require.ErrorIs(t, err, domain.ErrSpanOverlap)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))

	r, ok := domain.ConflictRange(err)
	require.True(t, ok)
	assert.Equal(t, utc(2018, 10, 1, 12, 0), r.Start)
	assert.Equal(t, utc(2018, 10, 1, 12, 30), r.End)

	spans, err := f.events.Spans(ctx, second.ID)
	require.NoError(t, err)
	assert.Empty(t, spans)
	_, err = f.events.GetEvent(ctx, second.ID)
	assert.ErrorIs(t, err, domain.ErrEventNotFound)

	// another owner may use the same slot
	assert.NoError(t, f.events.CreateEvent(ctx, weekly("bob")))
}

func TestCreateEvent_SelfOverlapRejected(t *testing.T) {
	f := newFixture(t)
	ev := &entities.Event{
		Owner:     "alice",
		Recurring: true,
		RRule:     "DTSTART=20181001T100000Z;UNTIL=20181010T000000Z;FREQ=DAILY",
		Duration:  25 * 60,
		Timezone:  "UTC",
	}
	err := f.events.CreateEvent(context.Background(), ev)
	assert.ErrorIs(t, err, domain.ErrSpanOverlap)
}

func TestCreateEvent_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tests := []struct {
		name  string
		event *entities.Event
		code  string
	}{
		{"missing owner", weekly(""), "owner_missing"},
		{"missing timezone", func() *entities.Event { e := weekly("alice"); e.Timezone = ""; return e }(), "recurrence_incomplete"},
		{"yearly", func() *entities.Event {
			e := weekly("alice")
			e.RRule = "DTSTART=20180920T120000Z;UNTIL=20201221T090000;FREQ=YEARLY"
			return e
		}(), "rrule_frequency"},
		{"unknown zone", func() *entities.Event { e := weekly("alice"); e.Timezone = "Nowhere/City"; return e }(), "timezone_unknown"},
		{"one-off without end", &entities.Event{Owner: "alice", StartTime: utc(2018, 10, 1, 0, 0)}, "time_range_missing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.events.CreateEvent(ctx, tt.event)
			require.Error(t, err)
			assert.Equal(t, domain.KindValidation, domain.KindOf(err))
			assert.Equal(t, tt.code, domain.Code(err))
		})
	}
}

func TestUpdateEvent_MetadataOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ev := weekly("alice")
	require.NoError(t, f.events.CreateEvent(ctx, ev))
	before, err := f.events.Spans(ctx, ev.ID)
	require.NoError(t, err)

	res, err := f.events.UpdateEvent(ctx, ev.ID, "alice", entities.EventPatch{
		Title: ptr("Weekly sync (moved room)"),
		Tags:  []string{"team", "room-b"},
	})
	require.NoError(t, err)
	assert.False(t, res.Regenerated)
	assert.False(t, res.Notify)
	assert.ElementsMatch(t, entities.ChangeSet{entities.FieldTitle, entities.FieldTags}, res.Changed)
	assert.Equal(t, 2, res.Event.Version)

	after, err := f.events.Spans(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	stored, err := f.events.GetEvent(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, "Weekly sync (moved room)", stored.Title)
	assert.Equal(t, 2, stored.Version)
}

func TestUpdateEvent_NoChange(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ev := weekly("alice")
	require.NoError(t, f.events.CreateEvent(ctx, ev))

	res, err := f.events.UpdateEvent(ctx, ev.ID, "alice", entities.EventPatch{Title: ptr(ev.Title)})
	require.NoError(t, err)
	assert.Empty(t, res.Changed)
	assert.Equal(t, 1, res.Event.Version)
}

func TestUpdateEvent_PartialRecurrenceRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ev := weekly("alice")
	require.NoError(t, f.events.CreateEvent(ctx, ev))

	patches := []entities.EventPatch{
		{RRule: ptr(nyWeekly)},
		{Duration: ptr(45)},
		{Timezone: ptr("Europe/Paris"), Duration: ptr(45)},
	}
	for _, p := range patches {
		_, err := f.events.UpdateEvent(ctx, ev.ID, "alice", p)
		assert.ErrorIs(t, err, domain.ErrRecurrenceIncomplete)
		assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	}

	oneShot := oneOff("alice", utc(2018, 12, 25, 9, 0), time.Hour)
	require.NoError(t, f.events.CreateEvent(ctx, oneShot))
	_, err := f.events.UpdateEvent(ctx, oneShot.ID, "alice", entities.EventPatch{Recurring: ptr(true)})
	assert.ErrorIs(t, err, domain.ErrRecurrenceIncomplete)
}

func TestUpdateEvent_SameTripleIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ev := weekly("alice")
	require.NoError(t, f.events.CreateEvent(ctx, ev))
	before, err := f.events.Spans(ctx, ev.ID)
	require.NoError(t, err)

	res, err := f.events.UpdateEvent(ctx, ev.ID, "alice", entities.EventPatch{
		RRule:    ptr(ev.RRule),
		Duration: ptr(ev.Duration),
		Timezone: ptr(ev.Timezone),
	})
	require.NoError(t, err)
	assert.True(t, res.Regenerated)
	assert.False(t, res.Notify)

	after, err := f.events.Spans(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestUpdateEvent_Regenerates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ev := weekly("alice")
	require.NoError(t, f.events.CreateEvent(ctx, ev))

	res, err := f.events.UpdateEvent(ctx, ev.ID, "alice", entities.EventPatch{
		RRule:    ptr("DTSTART=20180920T120000Z;UNTIL=20181221T090000;FREQ=WEEKLY;BYDAY=TU"),
		Duration: ptr(30),
		Timezone: ptr("America/New_York"),
	})
	require.NoError(t, err)
	assert.True(t, res.Regenerated)
	assert.True(t, res.Notify)

	spans, err := f.events.Spans(ctx, ev.ID)
	require.NoError(t, err)
	require.NotEmpty(t, spans)
	assert.Equal(t, utc(2018, 9, 25, 12, 0), spans[0].Start)
	for _, s := range spans {
		assert.Equal(t, time.Tuesday, s.Start.Weekday())
	}
}

func TestUpdateEvent_DurationChangeNotifies(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ev := weekly("alice")
	require.NoError(t, f.events.CreateEvent(ctx, ev))

	res, err := f.events.UpdateEvent(ctx, ev.ID, "alice", entities.EventPatch{
		RRule:    ptr(ev.RRule),
		Duration: ptr(60),
		Timezone: ptr(ev.Timezone),
	})
	require.NoError(t, err)
	assert.Equal(t, entities.ChangeSet{entities.FieldDuration}, res.Changed)
	assert.True(t, res.Notify, "last end moved")
}

func TestUpdateEvent_MovesOneOff(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ev := oneOff("alice", utc(2018, 10, 2, 9, 0), time.Hour)
	require.NoError(t, f.events.CreateEvent(ctx, ev))

	res, err := f.events.UpdateEvent(ctx, ev.ID, "alice", entities.EventPatch{
		StartTime: ptr(utc(2018, 10, 2, 14, 0)),
		EndTime:   ptr(utc(2018, 10, 2, 15, 0)),
	})
	require.NoError(t, err)
	assert.True(t, res.Regenerated)
	assert.True(t, res.Notify)

	spans, err := f.events.Spans(ctx, ev.ID)
	require.NoError(t, err)
	require.Len(t, spans, 1)
	assert.Equal(t, utc(2018, 10, 2, 14, 0), spans[0].Start)
}

func TestUpdateEvent_ConflictKeepsPreviousSpans(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ev := weekly("alice")
	require.NoError(t, f.events.CreateEvent(ctx, ev))
	other := oneOff("alice", utc(2018, 10, 2, 12, 0), time.Hour)
	require.NoError(t, f.events.CreateEvent(ctx, other))
	before, err := f.events.Spans(ctx, ev.ID)
	require.NoError(t, err)

	_, err = f.events.UpdateEvent(ctx, ev.ID, "alice", entities.EventPatch{
		RRule:    ptr("DTSTART=20180920T120000Z;UNTIL=20181221T090000;FREQ=WEEKLY;BYDAY=TU"),
		Duration: ptr(30),
		Timezone: ptr("America/New_York"),
	})
	require.ErrorIs(t, err, domain.ErrSpanOverlap)

	after, err := f.events.Spans(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	stored, err := f.events.GetEvent(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, nyWeekly, stored.RRule)
	assert.Equal(t, 1, stored.Version)
}

func TestUpdateEvent_OwnershipAndExistence(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ev := weekly("alice")
	require.NoError(t, f.events.CreateEvent(ctx, ev))

	_, err := f.events.UpdateEvent(ctx, ev.ID, "mallory", entities.EventPatch{Title: ptr("x")})
	assert.ErrorIs(t, err, domain.ErrNotOwner)
	assert.Equal(t, domain.KindPermission, domain.KindOf(err))

	_, err = f.events.UpdateEvent(ctx, uuid.New(), "alice", entities.EventPatch{Title: ptr("x")})
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))

	assert.ErrorIs(t, f.events.RemoveEvent(ctx, ev.ID, "mallory"), domain.ErrNotOwner)
	assert.ErrorIs(t, f.events.RemoveEvent(ctx, uuid.New(), "alice"), domain.ErrEventNotFound)
}

func TestEditabilityBoundary(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ev := weekly("alice")
	require.NoError(t, f.events.CreateEvent(ctx, ev))

	// the last occurrence starts 2018-12-17 13:00Z
	f.now = utc(2018, 12, 17, 12, 59)
	_, err := f.events.UpdateEvent(ctx, ev.ID, "alice", entities.EventPatch{Title: ptr("still open")})
	require.NoError(t, err)

	f.now = utc(2018, 12, 17, 13, 30)
	_, err = f.events.UpdateEvent(ctx, ev.ID, "alice", entities.EventPatch{Title: ptr("too late")})
	assert.ErrorIs(t, err, domain.ErrEventNotEditable)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	assert.ErrorIs(t, f.events.RemoveEvent(ctx, ev.ID, "alice"), domain.ErrEventNotEditable)

	past := oneOff("alice", utc(2018, 12, 1, 9, 0), time.Hour)
	f.now = utc(2018, 11, 1, 0, 0)
	require.NoError(t, f.events.CreateEvent(ctx, past))
	f.now = utc(2018, 12, 1, 10, 0)
	_, err = f.events.UpdateEvent(ctx, past.ID, "alice", entities.EventPatch{Title: ptr("x")})
	assert.ErrorIs(t, err, domain.ErrEventNotEditable)
}

func TestRemoveEvent_Cascades(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ev := weekly("alice")
	require.NoError(t, f.events.CreateEvent(ctx, ev))
	_, err := f.subs.Subscribe(ctx, ev.ID, "bob", true)
	require.NoError(t, err)

	stored, err := f.events.GetEvent(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, stored.Subscribers)

	require.NoError(t, f.events.RemoveEvent(ctx, ev.ID, "alice"))

	spans, err := f.events.Spans(ctx, ev.ID)
	require.NoError(t, err)
	assert.Empty(t, spans)
	subs, err := f.subs.ListByEvent(ctx, ev.ID)
	require.NoError(t, err)
	assert.Empty(t, subs)

	// the slot is free again
	assert.NoError(t, f.events.CreateEvent(ctx, weekly("alice")))
}

func TestListEvents(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.events.CreateEvent(ctx, weekly("alice")))
	require.NoError(t, f.events.CreateEvent(ctx, oneOff("alice", utc(2018, 10, 2, 9, 0), time.Hour)))
	require.NoError(t, f.events.CreateEvent(ctx, weekly("bob")))

	events, err := f.events.ListEvents(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "Weekly sync", events[0].Title)
	assert.Equal(t, "Dentist", events[1].Title)
}

// interleavedStore runs between once, after the next FindByID has read its
// snapshot and before it returns.
type interleavedStore struct {
	*memory.Store
	between func()
}

func (s *interleavedStore) FindByID(ctx context.Context, id uuid.UUID) (*entities.Event, error) {
	e, err := s.Store.FindByID(ctx, id)
	if hook := s.between; hook != nil {
		s.between = nil
		hook()
	}
	return e, err
}

func TestUpdateEvent_ConcurrentRegenerationWins(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ev := weekly("alice")
	require.NoError(t, f.events.CreateEvent(ctx, ev))

	racing := &interleavedStore{Store: f.store}
	clock := WithClock(func() time.Time { return f.now })
	slow := NewEventService(racing, f.store.Subscriptions(), clock)

	tuesdays := "DTSTART=20180920T120000Z;UNTIL=20181221T090000;FREQ=WEEKLY;BYDAY=TU"
	racing.between = func() {
		res, err := f.events.UpdateEvent(ctx, ev.ID, "alice", entities.EventPatch{
			RRule:    ptr(tuesdays),
			Duration: ptr(30),
			Timezone: ptr("America/New_York"),
		})
		require.NoError(t, err)
		require.Equal(t, 2, res.Event.Version)
	}

	_, err := slow.UpdateEvent(ctx, ev.ID, "alice", entities.EventPatch{Title: ptr("Renamed")})
	require.ErrorIs(t, err, domain.ErrVersionConflict)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))

	stored, err := f.events.GetEvent(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, tuesdays, stored.RRule)
	assert.Equal(t, "Weekly sync", stored.Title)
	assert.Equal(t, 2, stored.Version)

	spans, err := f.events.Spans(ctx, ev.ID)
	require.NoError(t, err)
	require.NotEmpty(t, spans)
	for _, s := range spans {
		assert.Equal(t, time.Tuesday, s.Start.Weekday())
	}

	// retrying on the fresh row succeeds
	res, err := slow.UpdateEvent(ctx, ev.ID, "alice", entities.EventPatch{Title: ptr("Renamed")})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Event.Version)
	stored, err = f.events.GetEvent(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, tuesdays, stored.RRule)
}
