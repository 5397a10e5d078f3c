// Package tz resolves IANA zone names to locations and UTC offsets.
//
// Known locations are cached by zone name and shared process-wide. Zone rules
// are static data, so entries are never invalidated. Names that fail to load
// are not cached.
package tz

import (
	"fmt"
	"strings"
	"sync"
	"time"
	_ "time/tzdata"
)

// UTC is the name used when no zone is given.
const UTC = "UTC"

var table sync.Map // zone name -> *time.Location

// Location returns the shared location for name. An empty name means UTC.
func Location(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == UTC {
		return time.UTC, nil
	}
	if v, ok := table.Load(name); ok {
		return v.(*time.Location), nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("tz: load %s: %w", name, err)
	}
	v, _ := table.LoadOrStore(name, loc)
	return v.(*time.Location), nil
}

// IsValidZone reports whether name is a known IANA zone.
func IsValidZone(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	_, err := Location(name)
	return err == nil
}

// OffsetMinutes returns the offset of zone at the given instant, in minutes
// east of UTC (New York in winter is -300).
func OffsetMinutes(zone string, at time.Time) (int, error) {
	loc, err := Location(zone)
	if err != nil {
		return 0, err
	}
	_, seconds := at.In(loc).Zone()
	return seconds / 60, nil
}
