package embedding

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/campusworks/jobwire/internal/domain"
)

func TestAttacher_AttachesVector(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding: []float32{0.1, 0.2},
	}}
	a := NewAttacher(inner, time.Second, zap.NewNop())

	var gotID atomic.Value
	a.Go("jobs", "j1", "backend engineer acme", func(_ context.Context, id string, vector []float32) error {
		if len(vector) != 2 {
			t.Errorf("expected 2 components, got %d", len(vector))
		}
		gotID.Store(id)
		return nil
	})
	a.Wait()

	if gotID.Load() != "j1" {
		t.Errorf("expected attach for j1, got %v", gotID.Load())
	}
}

func TestAttacher_EmbedFailureDoesNotAttach(t *testing.T) {
	inner := &mockEmbedder{err: errors.New("provider down")}
	a := NewAttacher(inner, time.Second, zap.NewNop())

	var attached atomic.Bool
	a.Go("jobs", "j1", "text", func(_ context.Context, _ string, _ []float32) error {
		attached.Store(true)
		return nil
	})
	a.Wait()

	if attached.Load() {
		t.Error("expected no attach after embed failure")
	}
}

func TestAttacher_StoreFailureIsSwallowed(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1}}}
	a := NewAttacher(inner, time.Second, zap.NewNop())

	// Must not panic and Wait must return.
	a.Go("events", "e1", "text", func(_ context.Context, _ string, _ []float32) error {
		return errors.New("key gone")
	})
	a.Wait()
}
