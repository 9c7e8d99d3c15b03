package application

import (
	"context"
	"errors"
	"testing"

	"github.com/campusworks/jobwire/internal/domain"
)

type mockRepo struct {
	saveFn     func(ctx context.Context, a *domain.Application) error
	getFn      func(ctx context.Context, id string) (domain.Application, error)
	existsFn   func(ctx context.Context, jobID, studentID string) (bool, error)
	byJobFn    func(ctx context.Context, jobID string, offset, limit int) ([]domain.Application, int, error)
	byStuFn    func(ctx context.Context, studentID string, offset, limit int) ([]domain.Application, int, error)
	myStatusFn func(ctx context.Context, id, status string) error
}

func (m *mockRepo) Save(ctx context.Context, a *domain.Application) error {
	if m.saveFn != nil {
		return m.saveFn(ctx, a)
	}
	return nil
}

func (m *mockRepo) Get(ctx context.Context, id string) (domain.Application, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return domain.Application{ID: id, Status: domain.ApplicationStatusSubmitted}, nil
}

func (m *mockRepo) ExistsForJobAndStudent(ctx context.Context, jobID, studentID string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, jobID, studentID)
	}
	return false, nil
}

func (m *mockRepo) ListByJob(
	ctx context.Context, jobID string, offset, limit int,
) ([]domain.Application, int, error) {
	if m.byJobFn != nil {
		return m.byJobFn(ctx, jobID, offset, limit)
	}
	return nil, 0, nil
}

func (m *mockRepo) ListByStudent(
	ctx context.Context, studentID string, offset, limit int,
) ([]domain.Application, int, error) {
	if m.byStuFn != nil {
		return m.byStuFn(ctx, studentID, offset, limit)
	}
	return nil, 0, nil
}

func (m *mockRepo) UpdateStatus(ctx context.Context, id, status string) error {
	if m.myStatusFn != nil {
		return m.myStatusFn(ctx, id, status)
	}
	return nil
}

type mockJobReader struct {
	getFn func(ctx context.Context, id string) (domain.Job, error)
}

func (m *mockJobReader) Get(ctx context.Context, id string) (domain.Job, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return domain.Job{ID: id, Status: domain.JobStatusActive}, nil
}

func TestApply_Succeeds(t *testing.T) {
	var saved *domain.Application
	repo := &mockRepo{saveFn: func(_ context.Context, a *domain.Application) error {
		saved = a
		return nil
	}}
	svc := New(repo, &mockJobReader{})

	app, err := svc.Apply(context.Background(), "job-1", "stu-1", "cover note")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if app.ID == "" || app.Status != domain.ApplicationStatusSubmitted {
		t.Errorf("unexpected application: %+v", app)
	}
	if saved == nil || saved.JobID != "job-1" || saved.StudentID != "stu-1" {
		t.Errorf("unexpected saved application: %+v", saved)
	}
}

func TestApply_MissingJobFails(t *testing.T) {
	jobs := &mockJobReader{getFn: func(_ context.Context, _ string) (domain.Job, error) {
		return domain.Job{}, domain.ErrNotFound
	}}
	svc := New(&mockRepo{}, jobs)

	_, err := svc.Apply(context.Background(), "gone", "stu-1", "")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestApply_ClosedJobRejected(t *testing.T) {
	jobs := &mockJobReader{getFn: func(_ context.Context, id string) (domain.Job, error) {
		return domain.Job{ID: id, Status: domain.JobStatusClosed}, nil
	}}
	svc := New(&mockRepo{}, jobs)

	_, err := svc.Apply(context.Background(), "job-1", "stu-1", "")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for closed job, got %v", err)
	}
}

func TestApply_DuplicateRejected(t *testing.T) {
	repo := &mockRepo{existsFn: func(_ context.Context, _, _ string) (bool, error) {
		return true, nil
	}}
	svc := New(repo, &mockJobReader{})

	_, err := svc.Apply(context.Background(), "job-1", "stu-1", "")
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestApply_EmptyIDsRejected(t *testing.T) {
	svc := New(&mockRepo{}, &mockJobReader{})

	_, err := svc.Apply(context.Background(), "", "stu-1", "")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestUpdateStatus_UnknownStatusRejected(t *testing.T) {
	svc := New(&mockRepo{}, &mockJobReader{})

	_, err := svc.UpdateStatus(context.Background(), "a1", "archived")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestUpdateStatus_ReturnsUpdated(t *testing.T) {
	repo := &mockRepo{getFn: func(_ context.Context, id string) (domain.Application, error) {
		return domain.Application{ID: id, Status: domain.ApplicationStatusAccepted}, nil
	}}
	svc := New(repo, &mockJobReader{})

	app, err := svc.UpdateStatus(context.Background(), "a1", domain.ApplicationStatusAccepted)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if app.Status != domain.ApplicationStatusAccepted {
		t.Errorf("expected accepted, got %s", app.Status)
	}
}
