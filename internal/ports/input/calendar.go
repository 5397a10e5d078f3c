package input

import (
	"context"
	"time"

	"schedcal/internal/domain/calendar"
)

type CalendarUseCase interface {
	Calendar(ctx context.Context, owner string, start, end time.Time) ([]calendar.Entry, error)
}
