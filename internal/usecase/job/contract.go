package job

import (
	"context"

	"github.com/campusworks/jobwire/internal/domain"
	"github.com/campusworks/jobwire/internal/usecase/embedding"
)

// Repository defines the storage contract for jobs.
type Repository interface {
	Save(ctx context.Context, j *domain.Job) error
	Update(ctx context.Context, j *domain.Job) error
	Get(ctx context.Context, id string) (domain.Job, error)
	List(ctx context.Context, offset, limit int) ([]domain.Job, int, error)
	Delete(ctx context.Context, id string) error
	AttachEmbedding(ctx context.Context, id string, vector []float32) error
}

// Attacher schedules background embedding attachment.
type Attacher interface {
	Go(corpus, id, text string, attach embedding.AttachFunc)
}
