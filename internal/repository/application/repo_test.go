package application

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/campusworks/jobwire/internal/db"
	"github.com/campusworks/jobwire/internal/domain"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	jsonSetFn     func(ctx context.Context, key, path string, data []byte) error
	jsonGetFn     func(ctx context.Context, key string, paths ...string) ([]byte, error)
	delFn         func(ctx context.Context, key string) error
	existsFn      func(ctx context.Context, key string) (bool, error)
	createIndexFn func(ctx context.Context, def *db.IndexDefinition) error
	searchListFn  func(
		ctx context.Context, index, query string, offset, limit int, fields []string,
	) (*db.SearchResult, error)
	searchCountFn func(ctx context.Context, index, query string) (int, error)
}

func (m *mockStore) JSONSet(ctx context.Context, key, path string, data []byte) error {
	if m.jsonSetFn != nil {
		return m.jsonSetFn(ctx, key, path, data)
	}
	return nil
}

func (m *mockStore) JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error) {
	if m.jsonGetFn != nil {
		return m.jsonGetFn(ctx, key, paths...)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockStore) Del(ctx context.Context, key string) error {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return nil
}

func (m *mockStore) Exists(ctx context.Context, key string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, key)
	}
	return false, nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) SearchList(
	ctx context.Context, index, query string, offset, limit int, fields []string,
) (*db.SearchResult, error) {
	if m.searchListFn != nil {
		return m.searchListFn(ctx, index, query, offset, limit, fields)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchCount(ctx context.Context, index, query string) (int, error) {
	if m.searchCountFn != nil {
		return m.searchCountFn(ctx, index, query)
	}
	return 0, nil
}

func newTestRepo() (*Repo, *mockStore) {
	ms := &mockStore{}
	return New(ms, "jobwire:"), ms
}

func testApp(id string) *domain.Application {
	return &domain.Application{
		ID:        id,
		JobID:     "job-1",
		StudentID: "stu-1",
		Status:    domain.ApplicationStatusSubmitted,
		CreatedAt: time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestSave_WritesDocKey(t *testing.T) {
	repo, ms := newTestRepo()
	ms.existsFn = func(_ context.Context, _ string) (bool, error) { return false, nil }

	var gotKey string
	ms.jsonSetFn = func(_ context.Context, key, _ string, _ []byte) error {
		gotKey = key
		return nil
	}

	if err := repo.Save(context.Background(), testApp("a1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotKey != "jobwire:application:a1" {
		t.Errorf("expected key jobwire:application:a1, got %s", gotKey)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, _ := newTestRepo()

	_, err := repo.Get(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestExistsForJobAndStudent_EscapesTags(t *testing.T) {
	repo, ms := newTestRepo()

	var gotQuery string
	ms.searchCountFn = func(_ context.Context, _, query string) (int, error) {
		gotQuery = query
		return 1, nil
	}

	exists, err := repo.ExistsForJobAndStudent(context.Background(), "job-1", "stu-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exists {
		t.Error("expected exists")
	}
	want := `@job_id:{job\-1} @student_id:{stu\-1}`
	if gotQuery != want {
		t.Errorf("expected query %q, got %q", want, gotQuery)
	}
}

func TestListByStudent_ParsesEntries(t *testing.T) {
	repo, ms := newTestRepo()

	doc, _ := json.Marshal(toDoc(testApp("a1")))
	ms.searchListFn = func(
		_ context.Context, index, query string, _, _ int, _ []string,
	) (*db.SearchResult, error) {
		if index != "jobwire:application:idx" {
			t.Errorf("unexpected index: %s", index)
		}
		if query != `@student_id:{stu\-1}` {
			t.Errorf("unexpected query: %s", query)
		}
		return &db.SearchResult{
			Total: 1,
			Entries: []db.SearchEntry{
				{Key: "jobwire:application:a1", Fields: map[string]string{"$": string(doc)}},
			},
		}, nil
	}

	apps, total, err := repo.ListByStudent(context.Background(), "stu-1", 0, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || len(apps) != 1 || apps[0].ID != "a1" {
		t.Errorf("unexpected result: %d %+v", total, apps)
	}
}

func TestUpdateStatus_WritesStatusPath(t *testing.T) {
	repo, ms := newTestRepo()
	ms.existsFn = func(_ context.Context, _ string) (bool, error) { return true, nil }

	var gotPath string
	var gotData []byte
	ms.jsonSetFn = func(_ context.Context, _, path string, data []byte) error {
		gotPath, gotData = path, data
		return nil
	}

	err := repo.UpdateStatus(context.Background(), "a1", domain.ApplicationStatusAccepted)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "$.status" {
		t.Errorf("expected path $.status, got %s", gotPath)
	}
	if string(gotData) != `"accepted"` {
		t.Errorf("expected JSON string, got %s", gotData)
	}
}

func TestUpdateStatus_NotFound(t *testing.T) {
	repo, ms := newTestRepo()
	ms.existsFn = func(_ context.Context, _ string) (bool, error) { return false, nil }

	err := repo.UpdateStatus(context.Background(), "missing", domain.ApplicationStatusReviewed)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
