package recurrence

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"schedcal/internal/domain/entities"
	"schedcal/pkg/tz"
)

// Location returns the location occurrences are anchored in.
func (d Descriptor) Location() *time.Location {
	loc, err := tz.Location(d.Zone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// rule builds the rrule-go iterator. Dtstart is expressed in the anchored
// location so the generated wall-clock time stays fixed across DST changes.
func (d Descriptor) rule() (*rrule.RRule, error) {
	r, err := rrule.NewRRule(rrule.ROption{
		Freq:       d.Freq,
		Dtstart:    d.Dtstart.In(d.Location()),
		Interval:   d.Interval,
		Wkst:       d.Wkst,
		Count:      d.Count,
		Until:      d.Until,
		Byweekday:  d.ByWeekday,
		Bymonthday: d.ByMonthDay,
		Byhour:     []int{d.Hour},
		Byminute:   []int{d.Minute},
		Bysecond:   []int{d.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("build rrule: %w", err)
	}
	return r, nil
}

// Expand lists every occurrence start, in UTC and strictly increasing.
// The result never holds more than Count (at most MaxOccurrences) instants.
func (d Descriptor) Expand() ([]time.Time, error) {
	r, err := d.rule()
	if err != nil {
		return nil, err
	}
	return toUTC(r.All(), d.Count), nil
}

// Between lists the occurrences within [lo, hi], bounds included.
func (d Descriptor) Between(lo, hi time.Time) ([]time.Time, error) {
	if hi.Before(lo) {
		return nil, nil
	}
	r, err := d.rule()
	if err != nil {
		return nil, err
	}
	return toUTC(r.Between(lo, hi, true), d.Count), nil
}

// HasOccurrenceAfter reports whether an occurrence starts strictly after t.
func (d Descriptor) HasOccurrenceAfter(t time.Time) (bool, error) {
	r, err := d.rule()
	if err != nil {
		return false, err
	}
	return !r.After(t, false).IsZero(), nil
}

func toUTC(in []time.Time, limit int) []time.Time {
	if len(in) > limit {
		in = in[:limit]
	}
	out := make([]time.Time, len(in))
	for i, t := range in {
		out[i] = t.UTC()
	}
	return out
}

// ToSpans turns occurrence starts into [start, start+duration) spans.
func ToSpans(occurrences []time.Time, durationMinutes int) []entities.Span {
	d := time.Duration(durationMinutes) * time.Minute
	spans := make([]entities.Span, len(occurrences))
	for i, start := range occurrences {
		spans[i] = entities.Span{Start: start.UTC(), End: start.Add(d).UTC()}
	}
	return spans
}
