package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/campusworks/jobwire/internal/domain"
)

// Repository defines the storage contract for applications.
type Repository interface {
	Save(ctx context.Context, a *domain.Application) error
	Get(ctx context.Context, id string) (domain.Application, error)
	ExistsForJobAndStudent(ctx context.Context, jobID, studentID string) (bool, error)
	ListByJob(ctx context.Context, jobID string, offset, limit int) ([]domain.Application, int, error)
	ListByStudent(ctx context.Context, studentID string, offset, limit int) ([]domain.Application, int, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

// JobReader checks that the applied-to job exists and accepts applications.
type JobReader interface {
	Get(ctx context.Context, id string) (domain.Job, error)
}

// Service implements the application workflow.
type Service struct {
	repo Repository
	jobs JobReader
}

// New creates an application service.
func New(repo Repository, jobs JobReader) *Service {
	return &Service{repo: repo, jobs: jobs}
}

// Apply submits an application. One application per student per job; applying
// to a closed or missing job is rejected.
func (s *Service) Apply(ctx context.Context, jobID, studentID, coverNote string) (domain.Application, error) {
	if strings.TrimSpace(jobID) == "" || strings.TrimSpace(studentID) == "" {
		return domain.Application{}, fmt.Errorf("job_id and student_id are required: %w", domain.ErrInvalidInput)
	}

	j, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return domain.Application{}, fmt.Errorf("load job %s: %w", jobID, err)
	}
	if j.Status == domain.JobStatusClosed {
		return domain.Application{}, fmt.Errorf("job %s is closed: %w", jobID, domain.ErrInvalidInput)
	}

	dup, err := s.repo.ExistsForJobAndStudent(ctx, jobID, studentID)
	if err != nil {
		return domain.Application{}, fmt.Errorf("check duplicate: %w", err)
	}
	if dup {
		return domain.Application{}, fmt.Errorf("student %s already applied to job %s: %w",
			studentID, jobID, domain.ErrAlreadyExists)
	}

	app := domain.Application{
		ID:        uuid.NewString(),
		JobID:     jobID,
		StudentID: studentID,
		CoverNote: coverNote,
		Status:    domain.ApplicationStatusSubmitted,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Save(ctx, &app); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return domain.Application{}, err
		}
		return domain.Application{}, fmt.Errorf("save application: %w: %w", domain.ErrPersistence, err)
	}
	return app, nil
}

// ListByJob returns a job's applications. The job must exist.
func (s *Service) ListByJob(ctx context.Context, jobID string, offset, limit int) ([]domain.Application, int, error) {
	if _, err := s.jobs.Get(ctx, jobID); err != nil {
		return nil, 0, fmt.Errorf("load job %s: %w", jobID, err)
	}
	return s.repo.ListByJob(ctx, jobID, offset, limit)
}

// ListByStudent returns a student's applications.
func (s *Service) ListByStudent(ctx context.Context, studentID string, offset, limit int) ([]domain.Application, int, error) {
	return s.repo.ListByStudent(ctx, studentID, offset, limit)
}

// UpdateStatus moves an application through the review workflow.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) (domain.Application, error) {
	if !domain.ValidApplicationStatus(status) {
		return domain.Application{}, fmt.Errorf("unknown status %q: %w", status, domain.ErrInvalidInput)
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return domain.Application{}, err
	}
	return s.repo.Get(ctx, id)
}
