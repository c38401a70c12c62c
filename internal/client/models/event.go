package models

import (
	"time"
)

// DateLayout is the calendar day key format.
const DateLayout = "2006-01-02"

// Event is a single calendar entry.
type Event struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Created     time.Time `json:"created"`
}

// Calendar maps a day (DateLayout) to the events of that day in insertion order.
type Calendar map[string][]Event
