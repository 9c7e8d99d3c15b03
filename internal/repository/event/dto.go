package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/campusworks/jobwire/internal/domain"
)

// eventDoc is the RedisJSON representation of an event. Same canonical
// embedding form as jobs: a float array at $.embedding.
type eventDoc struct {
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
	Embedding         []float32 `json:"embedding,omitempty"`
}

func toDoc(e *domain.Event) *eventDoc {
	return &eventDoc{
		ID:                e.ID,
		Title:             e.Title,
		Description:       e.Description,
		Date:              e.Date,
		EventType:         e.EventType,
		Industry:          e.Industry,
		Link:              e.Link,
		LocationType:      e.LocationType,
		LocationSpecifics: e.LocationSpecifics,
		CreatedAt:         e.CreatedAt,
		Embedding:         e.Embedding,
	}
}

func (d *eventDoc) toDomain() domain.Event {
	return domain.Event{
		ID:                d.ID,
		Title:             d.Title,
		Description:       d.Description,
		Date:              d.Date,
		EventType:         d.EventType,
		Industry:          d.Industry,
		Link:              d.Link,
		LocationType:      d.LocationType,
		LocationSpecifics: d.LocationSpecifics,
		CreatedAt:         d.CreatedAt,
		Embedding:         d.Embedding,
	}
}

func parseJSONGetResult(raw []byte) (domain.Event, error) {
	var docs []eventDoc
	if err := json.Unmarshal(raw, &docs); err != nil {
		var d eventDoc
		if err2 := json.Unmarshal(raw, &d); err2 != nil {
			return domain.Event{}, fmt.Errorf("unmarshal event: %w", err)
		}
		return d.toDomain(), nil
	}
	if len(docs) == 0 {
		return domain.Event{}, fmt.Errorf("unmarshal event: empty result")
	}
	return docs[0].toDomain(), nil
}

func parseEntryJSON(jsonStr string) (domain.Event, bool) {
	if jsonStr == "" {
		return domain.Event{}, false
	}
	var d eventDoc
	if err := json.Unmarshal([]byte(jsonStr), &d); err != nil {
		return domain.Event{}, false
	}
	return d.toDomain(), true
}
