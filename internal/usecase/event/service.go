package event

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/campusworks/jobwire/internal/domain"
	"github.com/campusworks/jobwire/internal/usecase/embedding"
)

const corpus = "events"

// Repository defines the storage contract for events.
type Repository interface {
	Save(ctx context.Context, e *domain.Event) error
	Update(ctx context.Context, e *domain.Event) error
	Get(ctx context.Context, id string) (domain.Event, error)
	List(ctx context.Context, offset, limit int) ([]domain.Event, int, error)
	Delete(ctx context.Context, id string) error
	AttachEmbedding(ctx context.Context, id string, vector []float32) error
}

// Attacher schedules background embedding attachment.
type Attacher interface {
	Go(corpus, id, text string, attach embedding.AttachFunc)
}

// Service implements event CRUD with background embedding attachment.
type Service struct {
	repo     Repository
	attacher Attacher
}

// New creates an event service.
func New(repo Repository, attacher Attacher) *Service {
	return &Service{repo: repo, attacher: attacher}
}

// Create validates and stores an event, then schedules embedding attachment.
// Same contract as job creation: the response never waits for the vector.
func (s *Service) Create(ctx context.Context, e *domain.Event) (domain.Event, error) {
	if strings.TrimSpace(e.Title) == "" {
		return domain.Event{}, fmt.Errorf("title is required: %w", domain.ErrInvalidInput)
	}
	if e.Date.IsZero() {
		return domain.Event{}, fmt.Errorf("date is required: %w", domain.ErrInvalidInput)
	}

	e.ID = uuid.NewString()
	e.CreatedAt = time.Now().UTC()
	e.Embedding = nil

	if err := s.repo.Save(ctx, e); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return domain.Event{}, err
		}
		return domain.Event{}, fmt.Errorf("save event: %w: %w", domain.ErrPersistence, err)
	}

	s.attacher.Go(corpus, e.ID, e.SearchText(), s.repo.AttachEmbedding)

	return *e, nil
}

// Get returns an event by ID.
func (s *Service) Get(ctx context.Context, id string) (domain.Event, error) {
	return s.repo.Get(ctx, id)
}

// List returns events with offset pagination plus the total count.
func (s *Service) List(ctx context.Context, offset, limit int) ([]domain.Event, int, error) {
	return s.repo.List(ctx, offset, limit)
}

// Update overwrites an event's fields and re-embeds it.
func (s *Service) Update(ctx context.Context, e *domain.Event) (domain.Event, error) {
	if strings.TrimSpace(e.Title) == "" {
		return domain.Event{}, fmt.Errorf("title is required: %w", domain.ErrInvalidInput)
	}
	if e.ID == "" {
		return domain.Event{}, fmt.Errorf("missing event id: %w", domain.ErrInvalidInput)
	}

	current, err := s.repo.Get(ctx, e.ID)
	if err != nil {
		return domain.Event{}, err
	}
	if e.Date.IsZero() {
		e.Date = current.Date
	}
	e.CreatedAt = current.CreatedAt
	e.Embedding = nil

	if err := s.repo.Update(ctx, e); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Event{}, err
		}
		return domain.Event{}, fmt.Errorf("update event: %w: %w", domain.ErrPersistence, err)
	}

	s.attacher.Go(corpus, e.ID, e.SearchText(), s.repo.AttachEmbedding)

	return *e, nil
}

// Delete removes an event.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
