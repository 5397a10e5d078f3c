package application

import (
	"context"
	"time"

	"schedcal/internal/domain"
	"schedcal/internal/domain/calendar"
	"schedcal/internal/ports/input"
	"schedcal/internal/ports/output"
)

var _ input.CalendarUseCase = (*CalendarService)(nil)

type CalendarService struct {
	eventRepo output.EventRepository
}

func NewCalendarService(eventRepo output.EventRepository) *CalendarService {
	return &CalendarService{eventRepo: eventRepo}
}

// Calendar builds the schedules of the owner's events within [start, end].
func (s *CalendarService) Calendar(ctx context.Context, owner string, start, end time.Time) ([]calendar.Entry, error) {
	if !start.Before(end) {
		return nil, domain.ErrInvalidWindow
	}
	events, err := s.eventRepo.FindByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	return calendar.Build(events, start.UTC(), end.UTC())
}
