package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/campusworks/jobwire/internal/db"
	"github.com/campusworks/jobwire/internal/domain"
)

// store is the consumer interface for event persistence.
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

// HNSWConfig HNSW index parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo implements event persistence and vector matching on RedisJSON.
type Repo struct {
	store     store
	prefix    string
	vectorDim int
	hnsw      HNSWConfig
}

// New creates an event repository.
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

// EnsureIndex creates the event FT index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	def := &db.IndexDefinition{
		Name:        r.indexName(),
		StorageType: db.StorageJSON,
		Prefixes:    []string{keyPrefix(r.prefix)},
		Fields: []db.IndexField{
			{Name: "$.title", Alias: "title", Type: db.IndexFieldText},
			{Name: "$.event_type", Alias: "event_type", Type: db.IndexFieldTag},
			{
				Name:              "$.embedding",
				Alias:             "embedding",
				Type:              db.IndexFieldVector,
				VectorAlgo:        db.VectorHNSW,
				VectorDim:         r.vectorDim,
				VectorDistance:    db.DistanceCosine,
				VectorM:           r.hnsw.M,
				VectorEFConstruct: r.hnsw.EFConstruct,
			},
		},
	}
	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create event index: %w", err)
	}
	return nil
}

// Save creates an event. Fails with domain.ErrAlreadyExists on ID collision.
func (r *Repo) Save(ctx context.Context, e *domain.Event) error {
	key := r.docKey(e.ID)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if exists {
		return domain.ErrAlreadyExists
	}

	data, err := json.Marshal(toDoc(e))
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := r.store.JSONSet(ctx, key, "$", data); err != nil {
		return fmt.Errorf("json.set %s: %w", key, err)
	}
	return nil
}

// Update overwrites an existing event. Fails with domain.ErrNotFound.
func (r *Repo) Update(ctx context.Context, e *domain.Event) error {
	key := r.docKey(e.ID)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return domain.ErrNotFound
	}

	data, err := json.Marshal(toDoc(e))
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := r.store.JSONSet(ctx, key, "$", data); err != nil {
		return fmt.Errorf("json.set %s: %w", key, err)
	}
	return nil
}

// Get returns an event by ID.
func (r *Repo) Get(ctx context.Context, id string) (domain.Event, error) {
	key := r.docKey(id)
	raw, err := r.store.JSONGet(ctx, key, "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.Event{}, domain.ErrNotFound
		}
		return domain.Event{}, fmt.Errorf("json.get %s: %w", key, err)
	}
	return parseJSONGetResult(raw)
}

// List returns events with offset pagination plus the total count.
func (r *Repo) List(ctx context.Context, offset, limit int) ([]domain.Event, int, error) {
	if limit <= 0 {
		limit = 20
	}

	result, err := r.store.SearchList(ctx, r.indexName(), "*", offset, limit, []string{"$"})
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	if result == nil || result.Total == 0 {
		return nil, 0, nil
	}

	events := make([]domain.Event, 0, len(result.Entries))
	for _, entry := range result.Entries {
		e, ok := parseEntryJSON(entry.Fields["$"])
		if !ok {
			continue
		}
		if e.ID == "" {
			e.ID = r.extractID(entry.Key)
		}
		events = append(events, e)
	}
	return events, result.Total, nil
}

// Delete removes an event.
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

// MatchKNN returns the events most similar to vector. Same threshold and count
// semantics as the job corpus.
func (r *Repo) MatchKNN(ctx context.Context, vector []float32, opts domain.MatchOptions) ([]domain.EventMatch, error) {
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
		return nil, fmt.Errorf("event knn: %w", err)
	}

	matches := make([]domain.EventMatch, 0, len(result.Entries))
	for _, entry := range result.Entries {
		if entry.Score < opts.Threshold {
			continue
		}
		e, ok := parseEntryJSON(entry.Fields["$"])
		if !ok {
			continue
		}
		if e.ID == "" {
			e.ID = r.extractID(entry.Key)
		}
		matches = append(matches, domain.EventMatch{Event: e, Score: entry.Score})
	}
	return matches, nil
}

// ListMissingEmbedding scans up to scanLimit events and returns those without
// a vector.
func (r *Repo) ListMissingEmbedding(ctx context.Context, scanLimit int) ([]domain.Event, error) {
	if scanLimit <= 0 {
		scanLimit = 100
	}

	result, err := r.store.SearchList(ctx, r.indexName(), "*", 0, scanLimit, []string{"$"})
	if err != nil {
		return nil, fmt.Errorf("scan events: %w", err)
	}

	var missing []domain.Event
	for _, entry := range result.Entries {
		e, ok := parseEntryJSON(entry.Fields["$"])
		if !ok || len(e.Embedding) > 0 {
			continue
		}
		if e.ID == "" {
			e.ID = r.extractID(entry.Key)
		}
		missing = append(missing, e)
	}
	return missing, nil
}

// Count returns the number of events in the corpus.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, r.indexName(), "*")
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

func (r *Repo) docKey(id string) string {
	return keyPrefix(r.prefix) + id
}

func (r *Repo) indexName() string {
	return r.prefix + "event:idx"
}

func (r *Repo) extractID(key string) string {
	return strings.TrimPrefix(key, keyPrefix(r.prefix))
}

func keyPrefix(prefix string) string {
	return prefix + "event:"
}
