// Package calendar composes per-event occurrence schedules for a time window.
package calendar

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"schedcal/internal/domain/entities"
	"schedcal/internal/domain/recurrence"
)

// Entry is the schedule of one event within a window. Each schedule item is
// a [start, end] pair of Unix milliseconds.
type Entry struct {
	ID       uuid.UUID  `json:"id"`
	Title    string     `json:"title"`
	Timezone string     `json:"timezone"`
	Schedule [][2]int64 `json:"schedule"`
}

// Build returns the schedules of events within [start, end], in input order.
// Events without any occurrence in the window are left out.
//
// Recurring events are enumerated between max(start, DTSTART) and
// min(end, UNTIL), both included. One-off events are kept only when they lie
// entirely inside the window.
func Build(events []entities.Event, start, end time.Time) ([]Entry, error) {
	out := make([]Entry, 0, len(events))
	for _, e := range events {
		var (
			spans []entities.Span
			err   error
		)
		if e.Recurring {
			spans, err = recurringSpans(e, start, end)
			if err != nil {
				return nil, fmt.Errorf("build calendar for event %s: %w", e.ID, err)
			}
		} else if !e.StartTime.Before(start) && !e.EndTime.After(end) {
			spans = []entities.Span{{Start: e.StartTime, End: e.EndTime}}
		}
		if len(spans) == 0 {
			continue
		}
		entry := Entry{ID: e.ID, Title: e.Title, Timezone: e.Timezone, Schedule: make([][2]int64, len(spans))}
		for i, s := range spans {
			entry.Schedule[i] = [2]int64{s.Start.UnixMilli(), s.End.UnixMilli()}
		}
		out = append(out, entry)
	}
	return out, nil
}

func recurringSpans(e entities.Event, start, end time.Time) ([]entities.Span, error) {
	d, err := recurrence.ForEvent(e)
	if err != nil {
		return nil, err
	}
	lo, hi := start, end
	if d.Dtstart.After(lo) {
		lo = d.Dtstart
	}
	if d.Until.Before(hi) {
		hi = d.Until
	}
	occ, err := d.Between(lo, hi)
	if err != nil {
		return nil, err
	}
	return recurrence.ToSpans(occ, e.Duration), nil
}

// Bounds returns the first start and the last end of an event's schedule
// over its whole lifetime.
func Bounds(e entities.Event) (first, last time.Time, err error) {
	spans, err := recurrence.Spans(e)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if len(spans) == 0 {
		return time.Time{}, time.Time{}, nil
	}
	return spans[0].Start, spans[len(spans)-1].End, nil
}
