package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"schedcal/internal/domain/entities"
)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error)
}

// Queries holds the SQL of both repositories, run against a pool or a
// transaction.
type Queries struct {
	db DBTX
}

func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

const eventColumns = `id, owner, title, description, link, picture, recurring, rrule, duration, timezone,
	start_time, end_time, tags, hosts, notifications, version, created_at, updated_at`

const insertEvent = `
INSERT INTO events (id, owner, title, description, link, picture, recurring, rrule, duration, timezone,
	start_time, end_time, tags, hosts, notifications, version)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
RETURNING created_at, updated_at`

func (q *Queries) InsertEvent(ctx context.Context, e *entities.Event) error {
	return q.db.QueryRow(ctx, insertEvent,
		e.ID, e.Owner, e.Title, e.Description, e.Link, e.Picture, e.Recurring, e.RRule, e.Duration, e.Timezone,
		timeToTimestamptz(e.StartTime), timeToTimestamptz(e.EndTime),
		nonNil(e.Tags), nonNil(e.Hosts), nonNil(e.Notifications), e.Version,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
}

const updateEvent = `
UPDATE events SET
	title = $2, description = $3, link = $4, picture = $5, recurring = $6, rrule = $7, duration = $8,
	timezone = $9, start_time = $10, end_time = $11, tags = $12, hosts = $13, notifications = $14,
	version = $15, updated_at = now()
WHERE id = $1 AND version = $15 - 1
RETURNING updated_at`

// UpdateEvent writes the row only over the version preceding e.Version and
// returns pgx.ErrNoRows when no such row exists.
func (q *Queries) UpdateEvent(ctx context.Context, e *entities.Event) error {
	return q.db.QueryRow(ctx, updateEvent,
		e.ID, e.Title, e.Description, e.Link, e.Picture, e.Recurring, e.RRule, e.Duration, e.Timezone,
		timeToTimestamptz(e.StartTime), timeToTimestamptz(e.EndTime),
		nonNil(e.Tags), nonNil(e.Hosts), nonNil(e.Notifications), e.Version,
	).Scan(&e.UpdatedAt)
}

func (q *Queries) EventExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var ok bool
	err := q.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, id).Scan(&ok)
	return ok, err
}

func (q *Queries) DeleteEvent(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) GetEventByID(ctx context.Context, id uuid.UUID) (entities.Event, error) {
	rows, err := q.db.Query(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	if err != nil {
		return entities.Event{}, err
	}
	return pgx.CollectExactlyOneRow(rows, scanEvent)
}

func (q *Queries) GetEventsByOwner(ctx context.Context, owner string) ([]entities.Event, error) {
	rows, err := q.db.Query(ctx, `SELECT `+eventColumns+` FROM events WHERE owner = $1 ORDER BY created_at, id`, owner)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanEvent)
}

func (q *Queries) DeleteSpans(ctx context.Context, eventID uuid.UUID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM spans WHERE event_id = $1`, eventID)
	return err
}

func (q *Queries) CopySpans(ctx context.Context, spans []entities.Span) (int64, error) {
	return q.db.CopyFrom(ctx,
		pgx.Identifier{"spans"},
		[]string{"event_id", "owner", "start_time", "end_time"},
		pgx.CopyFromSlice(len(spans), func(i int) ([]any, error) {
			s := spans[i]
			return []any{pgtype.UUID{Bytes: s.EventID, Valid: true}, s.Owner, s.Start.UTC(), s.End.UTC()}, nil
		}),
	)
}

const firstConflict = `
SELECT s.start_time, s.end_time
FROM unnest($3::timestamptz[], $4::timestamptz[]) AS n(start_time, end_time)
JOIN spans s
	ON s.owner = $1
	AND s.event_id <> $2
	AND tstzrange(s.start_time, s.end_time, '[)') && tstzrange(n.start_time, n.end_time, '[)')
ORDER BY n.start_time, s.start_time
LIMIT 1`

// FirstConflict returns the first existing span of owner, outside eventID,
// that intersects one of spans.
func (q *Queries) FirstConflict(ctx context.Context, owner string, eventID uuid.UUID, spans []entities.Span) (entities.Span, bool, error) {
	if len(spans) == 0 {
		return entities.Span{}, false, nil
	}
	starts := make([]time.Time, len(spans))
	ends := make([]time.Time, len(spans))
	for i, s := range spans {
		starts[i], ends[i] = s.Start.UTC(), s.End.UTC()
	}
	var hit entities.Span
	err := q.db.QueryRow(ctx, firstConflict, owner, eventID, starts, ends).Scan(&hit.Start, &hit.End)
	if errors.Is(err, pgx.ErrNoRows) {
		return entities.Span{}, false, nil
	}
	if err != nil {
		return entities.Span{}, false, err
	}
	hit.Start, hit.End = hit.Start.UTC(), hit.End.UTC()
	return hit, true, nil
}

func (q *Queries) GetSpansByEventID(ctx context.Context, eventID uuid.UUID) ([]entities.Span, error) {
	rows, err := q.db.Query(ctx,
		`SELECT event_id, owner, start_time, end_time FROM spans WHERE event_id = $1 ORDER BY start_time`, eventID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (entities.Span, error) {
		var s entities.Span
		err := row.Scan(&s.EventID, &s.Owner, &s.Start, &s.End)
		s.Start, s.End = s.Start.UTC(), s.End.UTC()
		return s, err
	})
}

func (q *Queries) InsertSubscription(ctx context.Context, sub *entities.Subscription) error {
	return q.db.QueryRow(ctx, `
INSERT INTO subscriptions (event_id, username, notify, created_at)
VALUES ($1, $2, $3, COALESCE($4, now()))
RETURNING created_at`,
		sub.EventID, sub.Username, sub.Notify, timeToTimestamptz(sub.CreatedAt),
	).Scan(&sub.CreatedAt)
}

func (q *Queries) DeleteSubscription(ctx context.Context, eventID uuid.UUID, username string) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM subscriptions WHERE event_id = $1 AND username = $2`, eventID, username)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) GetSubscriptionsByEventID(ctx context.Context, eventID uuid.UUID) ([]entities.Subscription, error) {
	rows, err := q.db.Query(ctx, `
SELECT event_id, username, notify, created_at
FROM subscriptions WHERE event_id = $1
ORDER BY created_at, username`, eventID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (entities.Subscription, error) {
		var s entities.Subscription
		err := row.Scan(&s.EventID, &s.Username, &s.Notify, &s.CreatedAt)
		return s, err
	})
}

func scanEvent(row pgx.CollectableRow) (entities.Event, error) {
	var (
		e          entities.Event
		start, end pgtype.Timestamptz
	)
	err := row.Scan(&e.ID, &e.Owner, &e.Title, &e.Description, &e.Link, &e.Picture, &e.Recurring, &e.RRule,
		&e.Duration, &e.Timezone, &start, &end, &e.Tags, &e.Hosts, &e.Notifications, &e.Version,
		&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return entities.Event{}, err
	}
	e.StartTime = pgtypeTimestamptzToTime(start)
	e.EndTime = pgtypeTimestamptzToTime(end)
	return e, nil
}
