package job

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/campusworks/jobwire/internal/domain"
)

const corpus = "jobs"

// Service implements job CRUD with background embedding attachment.
type Service struct {
	repo     Repository
	attacher Attacher
}

// New creates a job service.
func New(repo Repository, attacher Attacher) *Service {
	return &Service{repo: repo, attacher: attacher}
}

// Create validates and stores a job, then schedules embedding attachment in
// the background. The job is returned before its vector exists: a failed
// attach never fails the create.
func (s *Service) Create(ctx context.Context, j *domain.Job) (domain.Job, error) {
	if err := validate(j); err != nil {
		return domain.Job{}, err
	}

	j.ID = uuid.NewString()
	if j.Status == "" {
		j.Status = domain.JobStatusActive
	}
	j.PostedAt = time.Now().UTC()
	j.Embedding = nil

	if err := s.repo.Save(ctx, j); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return domain.Job{}, err
		}
		return domain.Job{}, fmt.Errorf("save job: %w: %w", domain.ErrPersistence, err)
	}

	s.attacher.Go(corpus, j.ID, j.SearchText(), s.repo.AttachEmbedding)

	return *j, nil
}

// Get returns a job by ID.
func (s *Service) Get(ctx context.Context, id string) (domain.Job, error) {
	return s.repo.Get(ctx, id)
}

// List returns jobs with offset pagination plus the total count.
func (s *Service) List(ctx context.Context, offset, limit int) ([]domain.Job, int, error) {
	return s.repo.List(ctx, offset, limit)
}

// Update overwrites a job's fields and re-embeds it: edited text invalidates
// the stored vector.
func (s *Service) Update(ctx context.Context, j *domain.Job) (domain.Job, error) {
	if err := validate(j); err != nil {
		return domain.Job{}, err
	}
	if j.ID == "" {
		return domain.Job{}, fmt.Errorf("missing job id: %w", domain.ErrInvalidInput)
	}

	current, err := s.repo.Get(ctx, j.ID)
	if err != nil {
		return domain.Job{}, err
	}
	if j.Status == "" {
		j.Status = current.Status
	}
	j.PostedAt = current.PostedAt
	j.PostedBy = current.PostedBy
	j.Embedding = nil

	if err := s.repo.Update(ctx, j); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Job{}, err
		}
		return domain.Job{}, fmt.Errorf("update job: %w: %w", domain.ErrPersistence, err)
	}

	s.attacher.Go(corpus, j.ID, j.SearchText(), s.repo.AttachEmbedding)

	return *j, nil
}

// Delete removes a job.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func validate(j *domain.Job) error {
	if strings.TrimSpace(j.Title) == "" {
		return fmt.Errorf("title is required: %w", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(j.CompanyName) == "" {
		return fmt.Errorf("company_name is required: %w", domain.ErrInvalidInput)
	}
	if j.Status != "" && j.Status != domain.JobStatusActive && j.Status != domain.JobStatusClosed {
		return fmt.Errorf("unknown status %q: %w", j.Status, domain.ErrInvalidInput)
	}
	if j.SalaryMin < 0 || j.SalaryMax < 0 || (j.SalaryMax > 0 && j.SalaryMin > j.SalaryMax) {
		return fmt.Errorf("invalid salary range: %w", domain.ErrInvalidInput)
	}
	return nil
}
