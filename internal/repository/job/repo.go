package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/campusworks/jobwire/internal/db"
	"github.com/campusworks/jobwire/internal/domain"
)

// store is the consumer interface for job persistence.
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchList(ctx context.Context, index, query string, offset, limit int, fields []string) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// Repo implements job persistence and vector matching on RedisJSON.
type Repo struct {
	store     store
	prefix    string
	vectorDim int
	hnsw      HNSWConfig
}

// New creates a job repository. prefix is the global key prefix ("jobwire:").
func New(s store, prefix string, vectorDim int) *Repo {
	return &Repo{
		store:     s,
		prefix:    prefix,
		vectorDim: vectorDim,
		hnsw:      HNSWConfig{M: 32, EFConstruct: 400},
	}
}

// WithHNSW configures HNSW index parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	if cfg.M > 0 {
		r.hnsw.M = cfg.M
	}
	if cfg.EFConstruct > 0 {
		r.hnsw.EFConstruct = cfg.EFConstruct
	}
	return r
}

// EnsureIndex creates the job FT index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	def := buildIndex(r.prefix, r.vectorDim, r.hnsw)
	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create job index: %w", err)
	}
	return nil
}

// Save creates a job. Fails with domain.ErrAlreadyExists on ID collision.
func (r *Repo) Save(ctx context.Context, j *domain.Job) error {
	key := r.docKey(j.ID)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if exists {
		return domain.ErrAlreadyExists
	}

	data, err := json.Marshal(toDoc(j))
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := r.store.JSONSet(ctx, key, "$", data); err != nil {
		return fmt.Errorf("json.set %s: %w", key, err)
	}
	return nil
}

// Update overwrites an existing job. Fails with domain.ErrNotFound.
func (r *Repo) Update(ctx context.Context, j *domain.Job) error {
	key := r.docKey(j.ID)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return domain.ErrNotFound
	}

	data, err := json.Marshal(toDoc(j))
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := r.store.JSONSet(ctx, key, "$", data); err != nil {
		return fmt.Errorf("json.set %s: %w", key, err)
	}
	return nil
}

// Get returns a job by ID.
func (r *Repo) Get(ctx context.Context, id string) (domain.Job, error) {
	key := r.docKey(id)
	raw, err := r.store.JSONGet(ctx, key, "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.Job{}, domain.ErrNotFound
		}
		return domain.Job{}, fmt.Errorf("json.get %s: %w", key, err)
	}
	return parseJSONGetResult(raw)
}

// List returns jobs with offset pagination plus the total count.
func (r *Repo) List(ctx context.Context, offset, limit int) ([]domain.Job, int, error) {
	if limit <= 0 {
		limit = 20
	}

	result, err := r.store.SearchList(ctx, r.indexName(), "*", offset, limit, []string{"$"})
	if err != nil {
		return nil, 0, fmt.Errorf("list jobs: %w", err)
	}
	if result == nil || result.Total == 0 {
		return nil, 0, nil
	}

	jobs := make([]domain.Job, 0, len(result.Entries))
	for _, entry := range result.Entries {
		j, ok := parseEntryJSON(entry.Fields["$"])
		if !ok {
			continue
		}
		if j.ID == "" {
			j.ID = r.extractID(entry.Key)
		}
		jobs = append(jobs, j)
	}
	return jobs, result.Total, nil
}

// Delete removes a job.
func (r *Repo) Delete(ctx context.Context, id string) error {
	key := r.docKey(id)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return domain.ErrNotFound
	}

	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

// AttachEmbedding writes the vector at $.embedding without touching other fields.
func (r *Repo) AttachEmbedding(ctx context.Context, id string, vector []float32) error {
	key := r.docKey(id)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return domain.ErrNotFound
	}

	data, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("marshal embedding: %w", err)
	}
	if err := r.store.JSONSet(ctx, key, "$.embedding", data); err != nil {
		return fmt.Errorf("json.set %s $.embedding: %w", key, err)
	}
	return nil
}

// MatchKNN returns the jobs most similar to vector, filtered by opts.Threshold
// and capped at opts.Count, highest score first. Count <= 0 short-circuits to
// empty: FT.SEARCH KNN requires a positive K.
func (r *Repo) MatchKNN(ctx context.Context, vector []float32, opts domain.MatchOptions) ([]domain.JobMatch, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("empty query vector: %w", domain.ErrInvalidInput)
	}
	if opts.Count <= 0 {
		return nil, nil
	}

	result, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.indexName(),
		Vector:       vector,
		K:            opts.Count,
		ReturnFields: []string{"$"},
	})
	if err != nil {
		return nil, fmt.Errorf("job knn: %w", err)
	}

	matches := make([]domain.JobMatch, 0, len(result.Entries))
	for _, entry := range result.Entries {
		if entry.Score < opts.Threshold {
			continue
		}
		j, ok := parseEntryJSON(entry.Fields["$"])
		if !ok {
			continue
		}
		if j.ID == "" {
			j.ID = r.extractID(entry.Key)
		}
		matches = append(matches, domain.JobMatch{Job: j, Score: entry.Score})
	}
	return matches, nil
}

// ListMissingEmbedding scans up to scanLimit jobs and returns those without a
// vector. Used by the backfill worker.
func (r *Repo) ListMissingEmbedding(ctx context.Context, scanLimit int) ([]domain.Job, error) {
	if scanLimit <= 0 {
		scanLimit = 100
	}

	result, err := r.store.SearchList(ctx, r.indexName(), "*", 0, scanLimit, []string{"$"})
	if err != nil {
		return nil, fmt.Errorf("scan jobs: %w", err)
	}

	var missing []domain.Job
	for _, entry := range result.Entries {
		j, ok := parseEntryJSON(entry.Fields["$"])
		if !ok || len(j.Embedding) > 0 {
			continue
		}
		if j.ID == "" {
			j.ID = r.extractID(entry.Key)
		}
		missing = append(missing, j)
	}
	return missing, nil
}

// Count returns the number of jobs in the corpus.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, r.indexName(), "*")
	if err != nil {
		return 0, fmt.Errorf("count jobs: %w", err)
	}
	return n, nil
}

func (r *Repo) docKey(id string) string {
	return keyPrefix(r.prefix) + id
}

func (r *Repo) indexName() string {
	return indexName(r.prefix)
}

func (r *Repo) extractID(key string) string {
	return strings.TrimPrefix(key, keyPrefix(r.prefix))
}

func keyPrefix(prefix string) string {
	return prefix + "job:"
}

func indexName(prefix string) string {
	return prefix + "job:idx"
}
