package entities

import (
	"slices"
	"time"
)

// Field names an editable attribute of an Event.
type Field string

const (
	FieldTitle         Field = "title"
	FieldDescription   Field = "description"
	FieldLink          Field = "link"
	FieldPicture       Field = "picture"
	FieldRecurring     Field = "recurring"
	FieldRRule         Field = "rrule"
	FieldDuration      Field = "duration"
	FieldTimezone      Field = "timezone"
	FieldStartTime     Field = "start_time"
	FieldEndTime       Field = "end_time"
	FieldTags          Field = "tags"
	FieldHosts         Field = "hosts"
	FieldNotifications Field = "notifications"
)

// RecurrenceFields must be patched together.
var RecurrenceFields = []Field{FieldRRule, FieldDuration, FieldTimezone}

// EventPatch is a partial update. Nil fields are left untouched; in JSON an
// absent or null member is nil.
type EventPatch struct {
	Title         *string    `json:"title,omitempty"`
	Description   *string    `json:"description,omitempty"`
	Link          *string    `json:"link,omitempty"`
	Picture       *string    `json:"picture,omitempty"`
	Recurring     *bool      `json:"recurring,omitempty"`
	RRule         *string    `json:"rrule,omitempty"`
	Duration      *int       `json:"duration,omitempty"`
	Timezone      *string    `json:"timezone,omitempty"`
	StartTime     *time.Time `json:"start_time,omitempty"`
	EndTime       *time.Time `json:"end_time,omitempty"`
	Tags          []string   `json:"tags,omitempty"`
	Hosts         []string   `json:"hosts,omitempty"`
	Notifications []string   `json:"notifications,omitempty"`
}

// Touched returns the fields present in the patch, whether or not they
// differ from the current values.
func (p EventPatch) Touched() ChangeSet {
	var cs ChangeSet
	add := func(present bool, f Field) {
		if present {
			cs = append(cs, f)
		}
	}
	add(p.Title != nil, FieldTitle)
	add(p.Description != nil, FieldDescription)
	add(p.Link != nil, FieldLink)
	add(p.Picture != nil, FieldPicture)
	add(p.Recurring != nil, FieldRecurring)
	add(p.RRule != nil, FieldRRule)
	add(p.Duration != nil, FieldDuration)
	add(p.Timezone != nil, FieldTimezone)
	add(p.StartTime != nil, FieldStartTime)
	add(p.EndTime != nil, FieldEndTime)
	add(p.Tags != nil, FieldTags)
	add(p.Hosts != nil, FieldHosts)
	add(p.Notifications != nil, FieldNotifications)
	return cs
}

// ChangeSet is the explicit set of fields an update changed.
type ChangeSet []Field

// Has reports whether f is in the set.
func (cs ChangeSet) Has(f Field) bool {
	return slices.Contains(cs, f)
}

// Any reports whether at least one of fields is in the set.
func (cs ChangeSet) Any(fields ...Field) bool {
	for _, f := range fields {
		if cs.Has(f) {
			return true
		}
	}
	return false
}

// All reports whether every one of fields is in the set.
func (cs ChangeSet) All(fields ...Field) bool {
	for _, f := range fields {
		if !cs.Has(f) {
			return false
		}
	}
	return true
}

// Apply writes the patch into e and returns the fields whose value changed.
func (e *Event) Apply(p EventPatch) ChangeSet {
	var cs ChangeSet
	setString(&cs, FieldTitle, &e.Title, p.Title)
	setString(&cs, FieldDescription, &e.Description, p.Description)
	setString(&cs, FieldLink, &e.Link, p.Link)
	setString(&cs, FieldPicture, &e.Picture, p.Picture)
	setString(&cs, FieldRRule, &e.RRule, p.RRule)
	setString(&cs, FieldTimezone, &e.Timezone, p.Timezone)
	if p.Recurring != nil && *p.Recurring != e.Recurring {
		e.Recurring = *p.Recurring
		cs = append(cs, FieldRecurring)
	}
	if p.Duration != nil && *p.Duration != e.Duration {
		e.Duration = *p.Duration
		cs = append(cs, FieldDuration)
	}
	setTime(&cs, FieldStartTime, &e.StartTime, p.StartTime)
	setTime(&cs, FieldEndTime, &e.EndTime, p.EndTime)
	setStrings(&cs, FieldTags, &e.Tags, p.Tags)
	setStrings(&cs, FieldHosts, &e.Hosts, p.Hosts)
	setStrings(&cs, FieldNotifications, &e.Notifications, p.Notifications)
	return cs
}

func setString(cs *ChangeSet, f Field, dst *string, v *string) {
	if v == nil || *v == *dst {
		return
	}
	*dst = *v
	*cs = append(*cs, f)
}

func setTime(cs *ChangeSet, f Field, dst *time.Time, v *time.Time) {
	if v == nil || v.Equal(*dst) {
		return
	}
	*dst = *v
	*cs = append(*cs, f)
}

func setStrings(cs *ChangeSet, f Field, dst *[]string, v []string) {
	if v == nil || slices.Equal(*dst, v) {
		return
	}
	*dst = slices.Clone(v)
	*cs = append(*cs, f)
}

// EventUpdate reports the outcome of an update.
type EventUpdate struct {
	Event       *Event
	Changed     ChangeSet
	Regenerated bool
	// Notify is set when the rule, the first start or the last end moved.
	Notify bool
}
