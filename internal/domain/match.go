package domain

// JobMatch pairs a job with its similarity score against the query vector.
// Score is conventionally in [0,1], higher is more similar.
type JobMatch struct {
	Job
	Score float64 `json:"similarity"`
}

// EventMatch pairs an event with its similarity score against the query vector.
type EventMatch struct {
	Event
	Score float64 `json:"similarity"`
}

// SearchResult is the assembled response for one search request: two
// independently ranked lists, never merged across corpora.
type SearchResult struct {
	Jobs   []JobMatch   `json:"jobs"`
	Events []EventMatch `json:"events"`
}

// MatchOptions is the per-corpus matching configuration: candidates scoring
// below Threshold are excluded and at most Count are returned.
type MatchOptions struct {
	Threshold float64
	Count     int
}
