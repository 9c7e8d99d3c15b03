package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/campusworks/jobwire/internal/domain"
	"github.com/campusworks/jobwire/internal/metrics"
)

// JobStore lists and repairs jobs without vectors.
type JobStore interface {
	ListMissingEmbedding(ctx context.Context, scanLimit int) ([]domain.Job, error)
	AttachEmbedding(ctx context.Context, id string, vector []float32) error
}

// EventStore lists and repairs events without vectors.
type EventStore interface {
	ListMissingEmbedding(ctx context.Context, scanLimit int) ([]domain.Event, error)
	AttachEmbedding(ctx context.Context, id string, vector []float32) error
}

// Embedder vectorizes batches of texts.
type Embedder interface {
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

// Runner backfills embeddings for records whose fire-and-forget attach failed.
// Such records are stored and readable but invisible to semantic search; each
// tick finds them and retries in batches.
type Runner struct {
	jobs      JobStore
	events    EventStore
	embed     Embedder
	interval  time.Duration
	scanLimit int
	logger    *zap.Logger
}

// NewRunner creates a backfill runner.
func NewRunner(jobs JobStore, events EventStore, embed Embedder, interval time.Duration, scanLimit int, logger *zap.Logger) *Runner {
	if interval <= 0 {
		interval = 2 * time.Minute
	}
	if scanLimit <= 0 {
		scanLimit = 100
	}
	return &Runner{
		jobs:      jobs,
		events:    events,
		embed:     embed,
		interval:  interval,
		scanLimit: scanLimit,
		logger:    logger,
	}
}

// Run processes once at startup, then on every tick until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) {
	r.RunOnce(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.RunOnce(ctx)
		case <-ctx.Done():
			r.logger.Info("Embedding backfill runner stopped")
			return
		}
	}
}

// RunOnce runs a single backfill pass over both corpora.
func (r *Runner) RunOnce(ctx context.Context) {
	if n, err := r.backfillJobs(ctx); err != nil {
		r.logger.Error("Job embedding backfill failed", zap.Error(err))
	} else if n > 0 {
		r.logger.Info("Backfilled job embeddings", zap.Int("count", n))
	}

	if n, err := r.backfillEvents(ctx); err != nil {
		r.logger.Error("Event embedding backfill failed", zap.Error(err))
	} else if n > 0 {
		r.logger.Info("Backfilled event embeddings", zap.Int("count", n))
	}
}

func (r *Runner) backfillJobs(ctx context.Context) (int, error) {
	jobs, err := r.jobs.ListMissingEmbedding(ctx, r.scanLimit)
	if err != nil {
		return 0, fmt.Errorf("list jobs: %w", err)
	}
	if len(jobs) == 0 {
		return 0, nil
	}

	texts := make([]string, len(jobs))
	for i := range jobs {
		texts[i] = jobs[i].SearchText()
	}

	result, err := r.embed.BatchEmbed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("batch embed: %w", err)
	}
	if len(result.Embeddings) != len(jobs) {
		return 0, fmt.Errorf("embedding count mismatch: %d records, %d vectors",
			len(jobs), len(result.Embeddings))
	}

	attached := 0
	for i := range jobs {
		select {
		case <-ctx.Done():
			return attached, ctx.Err()
		default:
		}

		if err := r.jobs.AttachEmbedding(ctx, jobs[i].ID, result.Embeddings[i]); err != nil {
			metrics.EmbeddingAttachTotal.WithLabelValues("jobs", "error").Inc()
			r.logger.Warn("Backfill attach failed",
				zap.String("corpus", "jobs"),
				zap.String("id", jobs[i].ID),
				zap.Error(err),
			)
			continue
		}
		metrics.EmbeddingAttachTotal.WithLabelValues("jobs", "ok").Inc()
		attached++
	}
	return attached, nil
}

func (r *Runner) backfillEvents(ctx context.Context) (int, error) {
	events, err := r.events.ListMissingEmbedding(ctx, r.scanLimit)
	if err != nil {
		return 0, fmt.Errorf("list events: %w", err)
	}
	if len(events) == 0 {
		return 0, nil
	}

	texts := make([]string, len(events))
	for i := range events {
		texts[i] = events[i].SearchText()
	}

	result, err := r.embed.BatchEmbed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("batch embed: %w", err)
	}
	if len(result.Embeddings) != len(events) {
		return 0, fmt.Errorf("embedding count mismatch: %d records, %d vectors",
			len(events), len(result.Embeddings))
	}

	attached := 0
	for i := range events {
		select {
		case <-ctx.Done():
			return attached, ctx.Err()
		default:
		}

		if err := r.events.AttachEmbedding(ctx, events[i].ID, result.Embeddings[i]); err != nil {
			metrics.EmbeddingAttachTotal.WithLabelValues("events", "error").Inc()
			r.logger.Warn("Backfill attach failed",
				zap.String("corpus", "events"),
				zap.String("id", events[i].ID),
				zap.Error(err),
			)
			continue
		}
		metrics.EmbeddingAttachTotal.WithLabelValues("events", "ok").Inc()
		attached++
	}
	return attached, nil
}
