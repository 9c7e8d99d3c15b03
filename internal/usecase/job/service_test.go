package job

import (
	"context"
	"errors"
	"testing"

	"github.com/campusworks/jobwire/internal/domain"
	"github.com/campusworks/jobwire/internal/usecase/embedding"
)

type mockRepo struct {
	saveFn   func(ctx context.Context, j *domain.Job) error
	updateFn func(ctx context.Context, j *domain.Job) error
	getFn    func(ctx context.Context, id string) (domain.Job, error)
	listFn   func(ctx context.Context, offset, limit int) ([]domain.Job, int, error)
	deleteFn func(ctx context.Context, id string) error
	attachFn func(ctx context.Context, id string, vector []float32) error
}

func (m *mockRepo) Save(ctx context.Context, j *domain.Job) error {
	if m.saveFn != nil {
		return m.saveFn(ctx, j)
	}
	return nil
}

func (m *mockRepo) Update(ctx context.Context, j *domain.Job) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, j)
	}
	return nil
}

func (m *mockRepo) Get(ctx context.Context, id string) (domain.Job, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return domain.Job{}, domain.ErrNotFound
}

func (m *mockRepo) List(ctx context.Context, offset, limit int) ([]domain.Job, int, error) {
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

// mockAttacher records scheduled attaches synchronously.
type mockAttacher struct {
	corpus string
	id     string
	text   string
	calls  int
}

func (m *mockAttacher) Go(corpus, id, text string, _ embedding.AttachFunc) {
	m.calls++
	m.corpus, m.id, m.text = corpus, id, text
}

func TestCreate_ValidationRejectsBeforeSave(t *testing.T) {
	repo := &mockRepo{saveFn: func(_ context.Context, _ *domain.Job) error {
		t.Error("save must not be called for invalid input")
		return nil
	}}
	svc := New(repo, &mockAttacher{})

	cases := []domain.Job{
		{CompanyName: "Acme"},
		{Title: "Engineer"},
		{Title: "Engineer", CompanyName: "Acme", Status: "archived"},
		{Title: "Engineer", CompanyName: "Acme", SalaryMin: 90000, SalaryMax: 50000},
	}
	for i, j := range cases {
		if _, err := svc.Create(context.Background(), &j); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestCreate_AssignsIDAndSchedulesAttach(t *testing.T) {
	var saved *domain.Job
	repo := &mockRepo{saveFn: func(_ context.Context, j *domain.Job) error {
		saved = j
		return nil
	}}
	attacher := &mockAttacher{}
	svc := New(repo, attacher)

	created, err := svc.Create(context.Background(), &domain.Job{
		Title:       "Backend Engineer",
		CompanyName: "Acme",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if created.ID == "" {
		t.Error("expected generated ID")
	}
	if created.Status != domain.JobStatusActive {
		t.Errorf("expected default status active, got %s", created.Status)
	}
	if created.PostedAt.IsZero() {
		t.Error("expected PostedAt to be set")
	}
	if saved == nil || saved.Embedding != nil {
		t.Error("expected save without a client-supplied embedding")
	}

	if attacher.calls != 1 {
		t.Fatalf("expected one scheduled attach, got %d", attacher.calls)
	}
	if attacher.corpus != "jobs" || attacher.id != created.ID {
		t.Errorf("unexpected attach args: %s %s", attacher.corpus, attacher.id)
	}
	if attacher.text == "" {
		t.Error("expected non-empty search text")
	}
}

func TestCreate_SaveFailureWrapsPersistence(t *testing.T) {
	repo := &mockRepo{saveFn: func(_ context.Context, _ *domain.Job) error {
		return errors.New("redis down")
	}}
	attacher := &mockAttacher{}
	svc := New(repo, attacher)

	_, err := svc.Create(context.Background(), &domain.Job{Title: "T", CompanyName: "C"})
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if attacher.calls != 0 {
		t.Error("expected no attach scheduled after save failure")
	}
}

func TestUpdate_ReembedsAndKeepsPostedAt(t *testing.T) {
	existing := domain.Job{
		ID:          "j1",
		Title:       "Old Title",
		CompanyName: "Acme",
		Status:      domain.JobStatusActive,
		PostedBy:    "alumni-5",
	}
	var updated *domain.Job
	repo := &mockRepo{
		getFn: func(_ context.Context, id string) (domain.Job, error) {
			if id != "j1" {
				return domain.Job{}, domain.ErrNotFound
			}
			return existing, nil
		},
		updateFn: func(_ context.Context, j *domain.Job) error {
			updated = j
			return nil
		},
	}
	attacher := &mockAttacher{}
	svc := New(repo, attacher)

	_, err := svc.Update(context.Background(), &domain.Job{
		ID:          "j1",
		Title:       "New Title",
		CompanyName: "Acme",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if updated.PostedBy != "alumni-5" {
		t.Errorf("expected PostedBy preserved, got %s", updated.PostedBy)
	}
	if attacher.calls != 1 {
		t.Errorf("expected re-embed scheduled, got %d attaches", attacher.calls)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	svc := New(&mockRepo{}, &mockAttacher{})

	_, err := svc.Update(context.Background(), &domain.Job{
		ID: "gone", Title: "T", CompanyName: "C",
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
