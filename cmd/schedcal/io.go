package main

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"schedcal/internal/domain/entities"
	"schedcal/pkg/tz"
)

// eventInput is the create payload. An empty id lets the service pick one.
type eventInput struct {
	ID            string    `json:"id"`
	Owner         string    `json:"owner"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Link          string    `json:"link"`
	Picture       string    `json:"picture"`
	Recurring     bool      `json:"recurring"`
	RRule         string    `json:"rrule"`
	Duration      int       `json:"duration"`
	Timezone      string    `json:"timezone"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	Tags          []string  `json:"tags"`
	Hosts         []string  `json:"hosts"`
	Notifications []string  `json:"notifications"`
}

// toEvent builds the entity. One-off events without a zone are displayed in
// defaultZone; recurring events must name theirs.
func (in eventInput) toEvent(defaultZone string) (*entities.Event, error) {
	e := &entities.Event{
		Owner:         in.Owner,
		Title:         in.Title,
		Description:   in.Description,
		Link:          in.Link,
		Picture:       in.Picture,
		Recurring:     in.Recurring,
		RRule:         in.RRule,
		Duration:      in.Duration,
		Timezone:      in.Timezone,
		StartTime:     in.StartTime,
		EndTime:       in.EndTime,
		Tags:          in.Tags,
		Hosts:         in.Hosts,
		Notifications: in.Notifications,
	}
	if strings.TrimSpace(in.ID) != "" {
		id, err := parseID(in.ID)
		if err != nil {
			return nil, err
		}
		e.ID = id
	}
	if !e.Recurring && e.Timezone == "" {
		e.Timezone = defaultZone
	}
	return e, nil
}

type updateInput struct {
	ID    uuid.UUID           `json:"id"`
	Owner string              `json:"owner"`
	Event entities.EventPatch `json:"event"`
}

type updateOutput struct {
	ID          uuid.UUID          `json:"id"`
	Version     int                `json:"version"`
	Changed     entities.ChangeSet `json:"changed"`
	Regenerated bool               `json:"regenerated"`
	Notify      bool               `json:"notify"`
}

type subscriptionOutput struct {
	EventID   uuid.UUID `json:"event_id"`
	Username  string    `json:"username"`
	Notify    bool      `json:"notify"`
	CreatedAt time.Time `json:"created_at"`
}

type spanOutput struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Local string    `json:"local"`
}

func toSpanOutputs(spans []entities.Span, zone string) []spanOutput {
	out := make([]spanOutput, len(spans))
	for i, s := range spans {
		out[i] = spanOutput{Start: s.Start, End: s.End, Local: tz.FormatRange(s.Start, s.End, zone)}
	}
	return out
}

type eventOutput struct {
	ID          uuid.UUID    `json:"id"`
	Owner       string       `json:"owner"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Link        string       `json:"link,omitempty"`
	Picture     string       `json:"picture,omitempty"`
	Recurring   bool         `json:"recurring"`
	RRule       string       `json:"rrule,omitempty"`
	Duration    int          `json:"duration,omitempty"`
	Timezone    string       `json:"timezone,omitempty"`
	Tags        []string     `json:"tags,omitempty"`
	Hosts       []string     `json:"hosts,omitempty"`
	Subscribers []string     `json:"subscribers,omitempty"`
	Version     int          `json:"version"`
	Spans       []spanOutput `json:"spans"`
}

func toEventOutput(e *entities.Event, spans []entities.Span) eventOutput {
	return eventOutput{
		ID:          e.ID,
		Owner:       e.Owner,
		Title:       e.Title,
		Description: e.Description,
		Link:        e.Link,
		Picture:     e.Picture,
		Recurring:   e.Recurring,
		RRule:       e.RRule,
		Duration:    e.Duration,
		Timezone:    e.Timezone,
		Tags:        e.Tags,
		Hosts:       e.Hosts,
		Subscribers: e.Subscribers,
		Version:     e.Version,
		Spans:       toSpanOutputs(spans, e.Timezone),
	}
}
