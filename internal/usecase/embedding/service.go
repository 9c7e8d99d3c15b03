package embedding

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/campusworks/jobwire/internal/domain"
)

// JobAttacher persists a vector on an existing job.
type JobAttacher interface {
	AttachEmbedding(ctx context.Context, id string, vector []float32) error
}

// Service exposes direct embedding generation: vectorize a text and
// optionally store the result on a job.
type Service struct {
	embed  domain.Embedder
	jobs   JobAttacher
	logger *zap.Logger
}

// NewService creates an embedding service.
func NewService(embed domain.Embedder, jobs JobAttacher, logger *zap.Logger) *Service {
	return &Service{embed: embed, jobs: jobs, logger: logger}
}

// Generate embeds text and returns the vector. When jobID is set the vector
// is also stored on that job; a failed store is logged but does not fail the
// request, the caller still gets the embedding.
func (s *Service) Generate(ctx context.Context, text, jobID string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty text: %w", domain.ErrInvalidInput)
	}

	result, err := s.embed.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed text: %w", err)
	}

	if jobID != "" {
		if err := s.jobs.AttachEmbedding(ctx, jobID, result.Embedding); err != nil {
			s.logger.Warn("Best-effort job embedding update failed",
				zap.String("job_id", jobID),
				zap.Error(err),
			)
		}
	}

	return result.Embedding, nil
}
