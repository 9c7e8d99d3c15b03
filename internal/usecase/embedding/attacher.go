package embedding

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/campusworks/jobwire/internal/domain"
	"github.com/campusworks/jobwire/internal/metrics"
)

// AttachFunc persists a computed vector for one record.
type AttachFunc func(ctx context.Context, id string, vector []float32) error

// Attacher computes and stores embeddings in the background. Create operations
// return immediately; a failed attach leaves the record valid but absent from
// semantic search until the backfill worker retries it.
type Attacher struct {
	embed   domain.Embedder
	timeout time.Duration
	logger  *zap.Logger
	wg      sync.WaitGroup
}

// NewAttacher creates a background attacher. timeout bounds each embed+store
// round-trip.
func NewAttacher(embed domain.Embedder, timeout time.Duration, logger *zap.Logger) *Attacher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Attacher{embed: embed, timeout: timeout, logger: logger}
}

// Go schedules an embedding attach for the record. Never blocks the caller.
func (a *Attacher) Go(corpus, id, text string, attach AttachFunc) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()

		// Detached from the request context: the HTTP response does not
		// wait for the vector.
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()

		result, err := a.embed.Embed(ctx, text)
		if err != nil {
			metrics.EmbeddingAttachTotal.WithLabelValues(corpus, "error").Inc()
			a.logger.Warn("Background embedding failed",
				zap.String("corpus", corpus),
				zap.String("id", id),
				zap.Error(err),
			)
			return
		}

		if err := attach(ctx, id, result.Embedding); err != nil {
			metrics.EmbeddingAttachTotal.WithLabelValues(corpus, "error").Inc()
			a.logger.Warn("Storing embedding failed",
				zap.String("corpus", corpus),
				zap.String("id", id),
				zap.Error(err),
			)
			return
		}

		metrics.EmbeddingAttachTotal.WithLabelValues(corpus, "ok").Inc()
		a.logger.Debug("Embedding attached",
			zap.String("corpus", corpus),
			zap.String("id", id),
			zap.Int("dimensions", len(result.Embedding)),
		)
	}()
}

// Wait blocks until all scheduled attaches finish. Called on shutdown.
func (a *Attacher) Wait() {
	a.wg.Wait()
}
