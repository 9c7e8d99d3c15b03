package domain

import "time"

// Application statuses.
const (
	ApplicationStatusSubmitted = "submitted"
	ApplicationStatusReviewed  = "reviewed"
	ApplicationStatusAccepted  = "accepted"
	ApplicationStatusRejected  = "rejected"
)

// ValidApplicationStatus reports whether s is a known application status.
func ValidApplicationStatus(s string) bool {
	switch s {
	case ApplicationStatusSubmitted, ApplicationStatusReviewed,
		ApplicationStatusAccepted, ApplicationStatusRejected:
		return true
	}
	return false
}

// Application is a student's application to a job.
type Application struct {
	ID        string    `json:"id"`
	JobID     string    `json:"job_id"`
	StudentID string    `json:"student_id"`
	CoverNote string    `json:"cover_note,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
