package embedding

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/campusworks/jobwire/internal/domain"
)

type mockJobAttacher struct {
	attachFn func(ctx context.Context, id string, vector []float32) error
	calls    int
}

func (m *mockJobAttacher) AttachEmbedding(ctx context.Context, id string, vector []float32) error {
	m.calls++
	if m.attachFn != nil {
		return m.attachFn(ctx, id, vector)
	}
	return nil
}

func TestGenerate_EmptyTextRejected(t *testing.T) {
	inner := &mockEmbedder{}
	svc := NewService(inner, &mockJobAttacher{}, zap.NewNop())

	_, err := svc.Generate(context.Background(), "  ", "")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestGenerate_ReturnsVector(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}}}
	jobs := &mockJobAttacher{}
	svc := NewService(inner, jobs, zap.NewNop())

	vec, err := svc.Generate(context.Background(), "senior data engineer", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != 2 {
		t.Errorf("expected 2 components, got %d", len(vec))
	}
	if jobs.calls != 0 {
		t.Errorf("expected no attach without jobID, got %d calls", jobs.calls)
	}
}

func TestGenerate_AttachesToJob(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1}}}
	jobs := &mockJobAttacher{}
	var gotID string
	jobs.attachFn = func(_ context.Context, id string, _ []float32) error {
		gotID = id
		return nil
	}
	svc := NewService(inner, jobs, zap.NewNop())

	if _, err := svc.Generate(context.Background(), "text", "j1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotID != "j1" {
		t.Errorf("expected attach to j1, got %s", gotID)
	}
}

func TestGenerate_AttachFailureIsBestEffort(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1}}}
	jobs := &mockJobAttacher{attachFn: func(_ context.Context, _ string, _ []float32) error {
		return domain.ErrNotFound
	}}
	svc := NewService(inner, jobs, zap.NewNop())

	vec, err := svc.Generate(context.Background(), "text", "missing")
	if err != nil {
		t.Fatalf("expected success despite attach failure, got %v", err)
	}
	if len(vec) != 1 {
		t.Errorf("expected vector despite attach failure")
	}
}
