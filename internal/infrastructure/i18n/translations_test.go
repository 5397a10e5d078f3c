package i18n

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"schedcal/internal/application"
	"schedcal/internal/domain"
)

func TestTranslator_Lookup(t *testing.T) {
	tr := NewTranslator("fr")

	assert.Equal(t, "Événement introuvable.", tr.T("fr", "error.event_not_found", nil))
	assert.Equal(t, "Event not found.", tr.T("en", "error.event_not_found", nil))
	assert.Equal(t, "Événement introuvable.", tr.T("de", "error.event_not_found", nil), "falls back to the default locale")
	assert.Equal(t, "error.nope", tr.T("en", "error.nope", nil))
	assert.Empty(t, tr.T("en", "", nil))
}

func TestTranslator_Template(t *testing.T) {
	tr := NewTranslator("en")
	assert.Equal(t, "Unknown time zone: Mars/Olympus.", tr.T("en", "error.timezone_unknown", map[string]any{"Value": "Mars/Olympus"}))
}

func TestTranslator_InvalidDefaultLocale(t *testing.T) {
	tr := NewTranslator("??")
	assert.Equal(t, "Événement introuvable.", tr.T("", "error.event_not_found", nil))
}

func TestDescribeErrorWithCatalog(t *testing.T) {
	tr := NewTranslator("fr")
	start := time.Date(2018, 9, 24, 12, 0, 0, 0, time.UTC)
	err := domain.Conflict(&domain.Range{Start: start, End: start.Add(30 * time.Minute), Zone: "America/New_York"}, nil)

	assert.Equal(t,
		"This slot overlaps another of your events: Mon 24/09/2018 08:00-08:30 EDT.",
		application.DescribeError(tr, "en", err))
	assert.Equal(t,
		"Rule, duration and time zone must be provided together.",
		application.DescribeError(tr, "en", domain.ErrRecurrenceIncomplete))
	end := time.Date(2018, 9, 24, 9, 0, 0, 0, time.UTC)
	assert.Equal(t,
		"The event must end after it starts (end: Mon 24/09/2018 09:00 UTC).",
		application.DescribeError(tr, "en", domain.Validation("time_range_invalid", "end_time", end, nil)))
	assert.Equal(t,
		"Une erreur inattendue est survenue.",
		application.DescribeError(tr, "fr", assert.AnError))
}
