package entities

import (
	"time"

	"github.com/google/uuid"
)

// Subscription represents a user following an event.
type Subscription struct {
	EventID   uuid.UUID
	Username  string
	Notify    bool
	CreatedAt time.Time
}
