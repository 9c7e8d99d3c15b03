package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/campusworks/jobwire/internal/domain"
	"github.com/campusworks/jobwire/internal/usecase/embedding"
)

type mockRepo struct {
	saveFn   func(ctx context.Context, e *domain.Event) error
	updateFn func(ctx context.Context, e *domain.Event) error
	getFn    func(ctx context.Context, id string) (domain.Event, error)
	listFn   func(ctx context.Context, offset, limit int) ([]domain.Event, int, error)
	deleteFn func(ctx context.Context, id string) error
	attachFn func(ctx context.Context, id string, vector []float32) error
}

func (m *mockRepo) Save(ctx context.Context, e *domain.Event) error {
	if m.saveFn != nil {
		return m.saveFn(ctx, e)
	}
	return nil
}

func (m *mockRepo) Update(ctx context.Context, e *domain.Event) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, e)
	}
	return nil
}

func (m *mockRepo) Get(ctx context.Context, id string) (domain.Event, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return domain.Event{}, domain.ErrNotFound
}

func (m *mockRepo) List(ctx context.Context, offset, limit int) ([]domain.Event, int, error) {
	if m.listFn != nil {
		return m.listFn(ctx, offset, limit)
	}
	return nil, 0, nil
}

func (m *mockRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockRepo) AttachEmbedding(ctx context.Context, id string, vector []float32) error {
	if m.attachFn != nil {
		return m.attachFn(ctx, id, vector)
	}
	return nil
}

type mockAttacher struct {
	corpus string
	id     string
	calls  int
}

func (m *mockAttacher) Go(corpus, id, _ string, _ embedding.AttachFunc) {
	m.calls++
	m.corpus, m.id = corpus, id
}

func TestCreate_RequiresTitleAndDate(t *testing.T) {
	svc := New(&mockRepo{}, &mockAttacher{})

	_, err := svc.Create(context.Background(), &domain.Event{Date: time.Now()})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput without title, got %v", err)
	}

	_, err = svc.Create(context.Background(), &domain.Event{Title: "Career Fair"})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput without date, got %v", err)
	}
}

func TestCreate_SchedulesAttachForEventsCorpus(t *testing.T) {
	attacher := &mockAttacher{}
	svc := New(&mockRepo{}, attacher)

	created, err := svc.Create(context.Background(), &domain.Event{
		Title: "Tech Career Fair",
		Date:  time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if created.ID == "" {
		t.Error("expected generated ID")
	}
	if attacher.calls != 1 || attacher.corpus != "events" || attacher.id != created.ID {
		t.Errorf("unexpected attach: %+v", attacher)
	}
}

func TestCreate_SaveFailureWrapsPersistence(t *testing.T) {
	repo := &mockRepo{saveFn: func(_ context.Context, _ *domain.Event) error {
		return errors.New("redis down")
	}}
	attacher := &mockAttacher{}
	svc := New(repo, attacher)

	_, err := svc.Create(context.Background(), &domain.Event{
		Title: "Fair", Date: time.Now(),
	})
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if attacher.calls != 0 {
		t.Error("expected no attach after save failure")
	}
}

func TestUpdate_NotFound(t *testing.T) {
	svc := New(&mockRepo{}, &mockAttacher{})

	_, err := svc.Update(context.Background(), &domain.Event{ID: "gone", Title: "T"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
