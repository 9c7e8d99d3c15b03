package search

import (
	"context"

	"github.com/campusworks/jobwire/internal/domain"
)

// JobMatcher runs vector similarity lookups against the job corpus.
type JobMatcher interface {
	MatchKNN(ctx context.Context, vector []float32, opts domain.MatchOptions) ([]domain.JobMatch, error)
}

// EventMatcher runs vector similarity lookups against the event corpus.
type EventMatcher interface {
	MatchKNN(ctx context.Context, vector []float32, opts domain.MatchOptions) ([]domain.EventMatch, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
