// Package recurrence parses recurrence rules into wall-clock anchored
// descriptors and expands them into bounded lists of occurrences.
package recurrence

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"schedcal/internal/domain"
	"schedcal/pkg/tz"
)

// MaxOccurrences bounds every expansion.
const MaxOccurrences = 365

// Descriptor is a validated recurrence. It is rebuilt from the event fields
// on every use and never persisted.
type Descriptor struct {
	Freq       rrule.Frequency
	Interval   int
	Wkst       rrule.Weekday
	ByWeekday  []rrule.Weekday
	ByMonthDay []int
	// Hour, Minute and Second are the local wall-clock time of every occurrence.
	Hour, Minute, Second int
	Zone                 string
	Dtstart              time.Time // UTC, start of the local day when Zone is set
	Until                time.Time // UTC
	Count                int
	Duration             time.Duration
}

var allowedFreq = map[rrule.Frequency]bool{
	rrule.DAILY:   true,
	rrule.WEEKLY:  true,
	rrule.MONTHLY: true,
}

var freqNames = map[rrule.Frequency]string{
	rrule.YEARLY:   "YEARLY",
	rrule.MONTHLY:  "MONTHLY",
	rrule.WEEKLY:   "WEEKLY",
	rrule.DAILY:    "DAILY",
	rrule.HOURLY:   "HOURLY",
	rrule.MINUTELY: "MINUTELY",
	rrule.SECONDLY: "SECONDLY",
}

// Parse validates rule and anchors it to the local time of zone at DTSTART.
//
// An empty zone keeps the literal UTC components of DTSTART. COUNT is clamped
// to MaxOccurrences.
func Parse(rule string, durationMinutes int, zone string) (Descriptor, error) {
	if durationMinutes <= 0 {
		return Descriptor{}, domain.Validation("duration_invalid", "duration", durationMinutes, nil)
	}
	zone = strings.TrimSpace(zone)
	if zone != "" && !tz.IsValidZone(zone) {
		return Descriptor{}, domain.Validation("timezone_unknown", "timezone", zone, nil)
	}

	normalized, err := normalize(rule)
	if err != nil {
		return Descriptor{}, domain.Validation("rrule_malformed", "rrule", rule, err)
	}
	opt, err := rrule.StrToROptionInLocation(normalized, time.UTC)
	if err != nil {
		return Descriptor{}, domain.Validation("rrule_malformed", "rrule", rule, err)
	}
	if !allowedFreq[opt.Freq] {
		return Descriptor{}, domain.Validation("rrule_frequency", "rrule", freqNames[opt.Freq], nil)
	}
	if opt.Dtstart.IsZero() {
		return Descriptor{}, domain.Validation("rrule_dtstart", "rrule", rule, errors.New("DTSTART is required"))
	}
	dtstart := opt.Dtstart.UTC().Truncate(time.Second)
	if opt.Until.IsZero() {
		return Descriptor{}, domain.Validation("rrule_until", "rrule", rule, errors.New("UNTIL is required"))
	}
	until := opt.Until.UTC()
	if !until.After(dtstart) {
		return Descriptor{}, domain.Validation("rrule_until", "rrule", rule, errors.New("UNTIL must be after DTSTART"))
	}

	d := Descriptor{
		Freq:       opt.Freq,
		Interval:   max(opt.Interval, 1),
		Wkst:       opt.Wkst,
		ByWeekday:  opt.Byweekday,
		ByMonthDay: opt.Bymonthday,
		Zone:       zone,
		Dtstart:    dtstart,
		Until:      until,
		Count:      opt.Count,
		Duration:   time.Duration(durationMinutes) * time.Minute,
	}
	if d.Count <= 0 || d.Count > MaxOccurrences {
		d.Count = MaxOccurrences
	}

	if zone == "" {
		d.Hour, d.Minute, d.Second = dtstart.Clock()
		return d, nil
	}

	offset, err := tz.OffsetMinutes(zone, dtstart)
	if err != nil {
		return Descriptor{}, domain.Validation("timezone_unknown", "timezone", zone, err)
	}
	wall := dtstart.Add(time.Duration(offset) * time.Minute)
	d.Hour, d.Minute, d.Second = wall.Clock()

	loc, _ := tz.Location(zone)
	y, m, day := wall.Date()
	d.Dtstart = time.Date(y, m, day, 0, 0, 0, 0, loc).UTC()
	return d, nil
}

// normalize accepts both the single-line "DTSTART=...;FREQ=..." form and the
// multi-line "DTSTART:...\nRRULE:..." form. A DTSTART line may carry a TZID
// or VALUE=DATE parameter; its value is rewritten as a UTC instant.
func normalize(rule string) (string, error) {
	lines := strings.FieldsFunc(strings.TrimSpace(rule), func(r rune) bool { return r == '\n' || r == '\r' })
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "RRULE:"):
			line = strings.TrimPrefix(line, "RRULE:")
		case strings.HasPrefix(line, "DTSTART:"):
			line = "DTSTART=" + strings.TrimPrefix(line, "DTSTART:")
		case strings.HasPrefix(line, "DTSTART;"):
			start, err := dtstartParams(strings.TrimPrefix(line, "DTSTART;"))
			if err != nil {
				return "", err
			}
			line = "DTSTART=" + start.Format(utcLayout)
		}
		if line != "" {
			parts = append(parts, strings.Trim(line, ";"))
		}
	}
	return strings.Join(parts, ";"), nil
}

const utcLayout = "20060102T150405Z"

// dtstartParams reads "TZID=<zone>:20180920T080000" or
// "VALUE=DATE:20180920". A trailing Z wins over TZID.
func dtstartParams(s string) (time.Time, error) {
	params, value, ok := strings.Cut(s, ":")
	if !ok {
		return time.Time{}, fmt.Errorf("DTSTART: missing value in %q", s)
	}
	loc := time.UTC
	for _, p := range strings.Split(params, ";") {
		k, v, _ := strings.Cut(p, "=")
		switch strings.ToUpper(k) {
		case "TZID":
			l, err := tz.Location(v)
			if err != nil {
				return time.Time{}, fmt.Errorf("DTSTART: %w", err)
			}
			loc = l
		case "VALUE":
			if !strings.EqualFold(v, "DATE") && !strings.EqualFold(v, "DATE-TIME") {
				return time.Time{}, fmt.Errorf("DTSTART: unsupported VALUE %q", v)
			}
		default:
			return time.Time{}, fmt.Errorf("DTSTART: unsupported parameter %q", k)
		}
	}

	var (
		t   time.Time
		err error
	)
	switch {
	case strings.HasSuffix(value, "Z"):
		t, err = time.Parse(utcLayout, value)
	case len(value) == len("20060102"):
		t, err = time.ParseInLocation("20060102", value, loc)
	default:
		t, err = time.ParseInLocation("20060102T150405", value, loc)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("DTSTART: %w", err)
	}
	return t.UTC(), nil
}
