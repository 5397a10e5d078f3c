package domain

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies a domain failure so a transport boundary can map it.
type Kind string

const (
	KindValidation Kind = "validation"
	KindConflict   Kind = "conflict"
	KindNotFound   Kind = "not_found"
	KindPermission Kind = "permission"
)

// Range is a colliding time range reported by a conflict.
type Range struct {
	Start time.Time
	End   time.Time
	Zone  string // zone used to render the range for humans
}

// Error is a structured domain error. Two errors match with errors.Is when
// their codes are equal.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Field   string
	Value   any
	Range   *Range
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Code
	}
	if e.Field != "" {
		msg = fmt.Sprintf("%s (%s=%v)", msg, e.Field, e.Value)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Domain errors.
var (
	ErrEventNotFound        = &Error{Kind: KindNotFound, Code: "event_not_found", Message: "événement non trouvé"}
	ErrSubscriptionNotFound = &Error{Kind: KindNotFound, Code: "subscription_not_found", Message: "abonnement non trouvé"}
	ErrNotOwner             = &Error{Kind: KindPermission, Code: "not_owner", Message: "seul le propriétaire peut effectuer cette action"}
	ErrEventNotEditable     = &Error{Kind: KindValidation, Code: "event_not_editable", Message: "un événement passé ne peut plus être modifié"}
	ErrRecurrenceIncomplete = &Error{Kind: KindValidation, Code: "recurrence_incomplete", Message: "rrule, durée et fuseau horaire doivent être fournis ensemble"}
	ErrInvalidWindow        = &Error{Kind: KindValidation, Code: "window_invalid", Message: "la fin de la fenêtre doit être après son début"}
	ErrAlreadySubscribed    = &Error{Kind: KindConflict, Code: "already_subscribed", Message: "déjà abonné à cet événement"}
	ErrSpanOverlap          = &Error{Kind: KindConflict, Code: "span_overlap", Message: "chevauchement avec un autre événement"}
	ErrVersionConflict      = &Error{Kind: KindConflict, Code: "version_conflict", Message: "l'événement a été modifié entre-temps"}
)

// Validation builds a validation error for an offending field value.
func Validation(code, field string, value any, err error) *Error {
	return &Error{Kind: KindValidation, Code: code, Field: field, Value: value, Err: err}
}

// Conflict builds an overlap error naming the first colliding range.
// r may be nil when the store could not tell which range collided.
func Conflict(r *Range, err error) *Error {
	return &Error{Kind: KindConflict, Code: ErrSpanOverlap.Code, Message: ErrSpanOverlap.Message, Range: r, Err: err}
}

// KindOf returns the kind of a domain error, or "" for other errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Code returns the machine-readable code of a domain error, or "".
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// ConflictRange returns the colliding range carried by err, if any.
func ConflictRange(err error) (Range, bool) {
	var e *Error
	if errors.As(err, &e) && e.Range != nil {
		return *e.Range, true
	}
	return Range{}, false
}
