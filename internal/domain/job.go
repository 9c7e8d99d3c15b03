package domain

import (
	"strings"
	"time"
)

// Job statuses.
const (
	JobStatusActive = "active"
	JobStatusClosed = "closed"
)

// Job is a posting in the job corpus. Embedding is managed by the repository
// and never serialized to clients; a job with no embedding is valid but absent
// from semantic search until one is attached.
type Job struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	CompanyName       string    `json:"company_name"`
	LocationType      string    `json:"location_type,omitempty"`
	LocationSpecifics string    `json:"location_specifics,omitempty"`
	Requirements      []string  `json:"requirements,omitempty"`
	SalaryMin         float64   `json:"salary_min,omitempty"`
	SalaryMax         float64   `json:"salary_max,omitempty"`
	IsPaid            bool      `json:"is_paid,omitempty"`
	Link              string    `json:"link,omitempty"`
	AlumniConnection  string    `json:"alumni_connection,omitempty"`
	Status            string    `json:"status"`
	PostedBy          string    `json:"posted_by,omitempty"`
	PostedAt          time.Time `json:"posted_at"`

	Embedding []float32 `json:"-"`
}

// SearchText builds the text that gets embedded for this job.
func (j *Job) SearchText() string {
	parts := []string{j.Title, j.CompanyName, j.LocationSpecifics}
	parts = append(parts, j.Requirements...)
	return joinNonEmpty(parts)
}

func joinNonEmpty(parts []string) string {
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
