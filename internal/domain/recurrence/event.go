package recurrence

import (
	"strings"
	"time"

	"schedcal/internal/domain"
	"schedcal/internal/domain/entities"
	"schedcal/pkg/tz"
)

// ForEvent parses the recurrence of a recurring event.
func ForEvent(e entities.Event) (Descriptor, error) {
	if strings.TrimSpace(e.RRule) == "" || e.Duration == 0 || strings.TrimSpace(e.Timezone) == "" {
		return Descriptor{}, domain.ErrRecurrenceIncomplete
	}
	return Parse(e.RRule, e.Duration, e.Timezone)
}

// Spans computes the spans an event occupies, stamped with its id and owner.
// A one-off event occupies exactly [StartTime, EndTime).
func Spans(e entities.Event) ([]entities.Span, error) {
	var spans []entities.Span
	if e.Recurring {
		d, err := ForEvent(e)
		if err != nil {
			return nil, err
		}
		occ, err := d.Expand()
		if err != nil {
			return nil, err
		}
		spans = ToSpans(occ, e.Duration)
	} else {
		if e.StartTime.IsZero() || e.EndTime.IsZero() {
			return nil, domain.Validation("time_range_missing", "start_time", e.StartTime, nil)
		}
		if !e.StartTime.Before(e.EndTime) {
			return nil, domain.Validation("time_range_invalid", "end_time", e.EndTime, nil)
		}
		if e.Timezone != "" && !tz.IsValidZone(e.Timezone) {
			return nil, domain.Validation("timezone_unknown", "timezone", e.Timezone, nil)
		}
		spans = []entities.Span{{Start: e.StartTime.UTC(), End: e.EndTime.UTC()}}
	}
	for i := range spans {
		spans[i].EventID = e.ID
		spans[i].Owner = e.Owner
	}
	return spans, nil
}

// FirstOverlap returns the first pair of spans of the same set that
// intersect. Spans must be sorted by start.
func FirstOverlap(spans []entities.Span) (entities.Span, bool) {
	for i := 1; i < len(spans); i++ {
		if spans[i-1].Overlaps(spans[i]) {
			return spans[i], true
		}
	}
	return entities.Span{}, false
}

// Editable reports whether an event can still be changed at now.
//
// A one-off event is editable until it ends. A recurring event is editable
// while at least one occurrence starts after now.
func Editable(e entities.Event, now time.Time) (bool, error) {
	if !e.Recurring {
		return now.Before(e.EndTime), nil
	}
	d, err := ForEvent(e)
	if err != nil {
		return false, err
	}
	return d.HasOccurrenceAfter(now)
}
