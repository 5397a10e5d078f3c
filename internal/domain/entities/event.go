package entities

import (
	"time"

	"github.com/google/uuid"
)

// Event is an event definition, one-off or recurring.
//
// Recurring events are described by RRule, Duration (minutes) and Timezone;
// one-off events by StartTime and EndTime.
type Event struct {
	ID            uuid.UUID
	Owner         string
	Title         string
	Description   string
	Link          string
	Picture       string
	Recurring     bool
	RRule         string
	Duration      int
	Timezone      string
	StartTime     time.Time // one-off only
	EndTime       time.Time // one-off only
	Tags          []string
	Hosts         []string
	Subscribers   []string // filled from subscriptions on read
	Notifications []string
	Version       int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Span is one concrete occurrence of an event, in UTC.
type Span struct {
	EventID uuid.UUID
	Owner   string
	Start   time.Time
	End     time.Time
}

// Overlaps reports whether the half-open ranges [s.Start, s.End) and
// [o.Start, o.End) intersect.
func (s Span) Overlaps(o Span) bool {
	return s.Start.Before(o.End) && o.Start.Before(s.End)
}
