package domain

import "time"

// Event is a record in the event corpus (career fairs, info sessions, networking).
// Embedding handling mirrors Job.
type Event struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Description       string    `json:"description,omitempty"`
	Date              time.Time `json:"date"`
	EventType         string    `json:"event_type,omitempty"`
	Industry          string    `json:"industry,omitempty"`
	Link              string    `json:"link,omitempty"`
	LocationType      string    `json:"location_type,omitempty"`
	LocationSpecifics string    `json:"location_specifics,omitempty"`
	CreatedAt         time.Time `json:"created_at"`

	Embedding []float32 `json:"-"`
}

// SearchText builds the text that gets embedded for this event.
func (e *Event) SearchText() string {
	return joinNonEmpty([]string{
		e.Title, e.Description, e.EventType, e.Industry, e.LocationSpecifics,
	})
}
