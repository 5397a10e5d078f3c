package application

import (
	"errors"
	"time"

	"schedcal/internal/domain"
	"schedcal/internal/ports/output"
	"schedcal/pkg/tz"
)

const unknownErrorKey = "error.unknown"

// DescribeError renders a user-facing message for err in locale.
// Non-domain errors get a generic message. Instants are shown in the zone of
// the error's range, UTC otherwise.
func DescribeError(t output.T, locale string, err error) string {
	if err == nil {
		return ""
	}
	var derr *domain.Error
	if !errors.As(err, &derr) {
		return t.T(locale, unknownErrorKey, nil)
	}
	zone := tz.UTC
	if derr.Range != nil {
		zone = derr.Range.Zone
	}
	data := map[string]any{
		"Field": derr.Field,
		"Value": derr.Value,
	}
	if at, ok := derr.Value.(time.Time); ok {
		data["Value"] = tz.FormatLocal(at, zone)
	}
	if derr.Range != nil {
		data["Range"] = tz.FormatRange(derr.Range.Start, derr.Range.End, zone)
	}
	key := "error." + derr.Code
	msg := t.T(locale, key, data)
	if msg == key {
		return t.T(locale, unknownErrorKey, nil)
	}
	return msg
}
