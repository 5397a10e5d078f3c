package tz

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOffsetMinutes(t *testing.T) {
	tests := []struct {
		name string
		zone string
		at   time.Time
		want int
	}{
		{"new york summer", "America/New_York", time.Date(2018, 9, 20, 12, 0, 0, 0, time.UTC), -240},
		{"new york winter", "America/New_York", time.Date(2018, 11, 5, 12, 0, 0, 0, time.UTC), -300},
		{"new york future", "America/New_York", time.Date(2050, 7, 1, 0, 0, 0, 0, time.UTC), -240},
		{"paris summer", "Europe/Paris", time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), 120},
		{"kolkata half hour", "Asia/Kolkata", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 330},
		{"empty is utc", "", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := OffsetMinutes(tt.zone, tt.at)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOffsetMinutes_TransitionInstant(t *testing.T) {
	// 2018-11-04 06:00Z is 01:00 EST, one second earlier is 01:59:59 EDT.
	transition := time.Date(2018, 11, 4, 6, 0, 0, 0, time.UTC)

	before, err := OffsetMinutes("America/New_York", transition.Add(-time.Second))
	require.NoError(t, err)
	after, err := OffsetMinutes("America/New_York", transition)
	require.NoError(t, err)

	assert.Equal(t, -240, before)
	assert.Equal(t, -300, after)
}

func TestIsValidZone(t *testing.T) {
	assert.True(t, IsValidZone("America/New_York"))
	assert.True(t, IsValidZone("UTC"))
	assert.False(t, IsValidZone(""))
	assert.False(t, IsValidZone("Mars/Olympus_Mons"))

	_, err := OffsetMinutes("Mars/Olympus_Mons", time.Now())
	assert.Error(t, err)
}

func TestLocation_Shared(t *testing.T) {
	a, err := Location("Europe/Paris")
	require.NoError(t, err)
	b, err := Location("Europe/Paris")
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestLocation_UnknownNotCached(t *testing.T) {
	for range 3 {
		_, err := Location("Nowhere/City")
		require.Error(t, err)
	}
	_, ok := table.Load("Nowhere/City")
	assert.False(t, ok)

	_, err := Location("Asia/Tokyo")
	require.NoError(t, err)
	_, ok = table.Load("Asia/Tokyo")
	assert.True(t, ok)
}

func TestFormatRange(t *testing.T) {
	start := time.Date(2018, 9, 24, 12, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)

	assert.Equal(t, "Mon 24/09/2018 08:00-08:30 EDT", FormatRange(start, end, "America/New_York"))
	assert.Equal(t, "Mon 24/09/2018 12:00-12:30 UTC", FormatRange(start, end, ""))

	overnight := FormatRange(start, start.Add(24*time.Hour), "America/New_York")
	assert.Equal(t, "Mon 24/09/2018 08:00 EDT - Tue 25/09/2018 08:00 EDT", overnight)

	assert.Equal(t, "", FormatRange(time.Time{}, end, "UTC"))
	assert.Equal(t, "Mon 24/09/2018 08:00 EDT", FormatLocal(start, "America/New_York"))
}
