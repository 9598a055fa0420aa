package domain

import (
	"time"

	"github.com/google/uuid"
)

const EventTypeMistake = "mistake"

// Event is a log record such as a mistake, decision or success.
type Event struct {
	ID        uuid.UUID `json:"id"`
	EventType string    `json:"event_type"`
	Category  string    `json:"category"`
	Message   string    `json:"message"`
	Created   time.Time `json:"created"`
}

// Session records the working style observed for one agent session.
type Session struct {
	ID      uuid.UUID `json:"id"`
	Style   string    `json:"style"`
	Started time.Time `json:"started"`
}

// Project is an external activity record tracked for temporal lookups.
type Project struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	Status     string     `json:"status"`
	Started    time.Time  `json:"started"`
	LastActive time.Time  `json:"last_active"`
	Ended      *time.Time `json:"ended,omitempty"`
}
