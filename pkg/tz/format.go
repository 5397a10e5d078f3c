package tz

import (
	"time"
)

const (
	dayLayout  = "Mon 02/01/2006 15:04"
	hourLayout = "15:04"
)

// FormatLocal renders t in zone, e.g. "Mon 24/09/2018 08:00 EDT".
// Unknown zones fall back to UTC.
func FormatLocal(t time.Time, zone string) string {
	if t.IsZero() {
		return ""
	}
	loc, err := Location(zone)
	if err != nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return local.Format(dayLayout) + " " + abbreviation(local)
}

// FormatRange renders [start, end) in zone. The end date is omitted when both
// bounds fall on the same local day.
func FormatRange(start, end time.Time, zone string) string {
	if start.IsZero() || end.IsZero() {
		return ""
	}
	loc, err := Location(zone)
	if err != nil {
		loc = time.UTC
	}
	s, e := start.In(loc), end.In(loc)
	if sameDay(s, e) {
		return s.Format(dayLayout) + "-" + e.Format(hourLayout) + " " + abbreviation(s)
	}
	return s.Format(dayLayout) + " " + abbreviation(s) + " - " + e.Format(dayLayout) + " " + abbreviation(e)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func abbreviation(t time.Time) string {
	name, _ := t.Zone()
	return name
}
