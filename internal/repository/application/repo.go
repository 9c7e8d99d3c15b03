package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/campusworks/jobwire/internal/db"
	"github.com/campusworks/jobwire/internal/domain"
)

// store is the consumer interface for application persistence.
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	SearchList(ctx context.Context, index, query string, offset, limit int, fields []string) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// appDoc is the RedisJSON representation of an application.
type appDoc struct {
	ID        string    `json:"id"`
	JobID     string    `json:"job_id"`
	StudentID string    `json:"student_id"`
	CoverNote string    `json:"cover_note,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func toDoc(a *domain.Application) *appDoc {
	return &appDoc{
		ID:        a.ID,
		JobID:     a.JobID,
		StudentID: a.StudentID,
		CoverNote: a.CoverNote,
		Status:    a.Status,
		CreatedAt: a.CreatedAt,
	}
}

func (d *appDoc) toDomain() domain.Application {
	return domain.Application{
		ID:        d.ID,
		JobID:     d.JobID,
		StudentID: d.StudentID,
		CoverNote: d.CoverNote,
		Status:    d.Status,
		CreatedAt: d.CreatedAt,
	}
}

// Repo implements application persistence on RedisJSON.
type Repo struct {
	store  store
	prefix string
}

// New creates an application repository.
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix}
}

// EnsureIndex creates the application FT index if it does not exist yet.
// Tag fields on job_id, student_id and status back the list queries.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	def := &db.IndexDefinition{
		Name:        r.indexName(),
		StorageType: db.StorageJSON,
		Prefixes:    []string{r.keyPrefix()},
		Fields: []db.IndexField{
			{Name: "$.job_id", Alias: "job_id", Type: db.IndexFieldTag},
			{Name: "$.student_id", Alias: "student_id", Type: db.IndexFieldTag},
			{Name: "$.status", Alias: "status", Type: db.IndexFieldTag},
		},
	}
	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create application index: %w", err)
	}
	return nil
}

// Save creates an application.
func (r *Repo) Save(ctx context.Context, a *domain.Application) error {
	key := r.docKey(a.ID)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if exists {
		return domain.ErrAlreadyExists
	}

	data, err := json.Marshal(toDoc(a))
	if err != nil {
		return fmt.Errorf("marshal application: %w", err)
	}
	if err := r.store.JSONSet(ctx, key, "$", data); err != nil {
		return fmt.Errorf("json.set %s: %w", key, err)
	}
	return nil
}

// Get returns an application by ID.
func (r *Repo) Get(ctx context.Context, id string) (domain.Application, error) {
	key := r.docKey(id)
	raw, err := r.store.JSONGet(ctx, key, "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.Application{}, domain.ErrNotFound
		}
		return domain.Application{}, fmt.Errorf("json.get %s: %w", key, err)
	}

	var docs []appDoc
	if err := json.Unmarshal(raw, &docs); err != nil || len(docs) == 0 {
		return domain.Application{}, fmt.Errorf("unmarshal application %s: %w", key, err)
	}
	return docs[0].toDomain(), nil
}

// ExistsForJobAndStudent reports whether the student already applied to the job.
func (r *Repo) ExistsForJobAndStudent(ctx context.Context, jobID, studentID string) (bool, error) {
	query := fmt.Sprintf("@job_id:{%s} @student_id:{%s}", escapeTag(jobID), escapeTag(studentID))
	n, err := r.store.SearchCount(ctx, r.indexName(), query)
	if err != nil {
		return false, fmt.Errorf("count applications: %w", err)
	}
	return n > 0, nil
}

// ListByJob returns applications for a job, newest first ordering is not
// guaranteed by the index.
func (r *Repo) ListByJob(ctx context.Context, jobID string, offset, limit int) ([]domain.Application, int, error) {
	query := fmt.Sprintf("@job_id:{%s}", escapeTag(jobID))
	return r.list(ctx, query, offset, limit)
}

// ListByStudent returns applications submitted by a student.
func (r *Repo) ListByStudent(ctx context.Context, studentID string, offset, limit int) ([]domain.Application, int, error) {
	query := fmt.Sprintf("@student_id:{%s}", escapeTag(studentID))
	return r.list(ctx, query, offset, limit)
}

func (r *Repo) list(ctx context.Context, query string, offset, limit int) ([]domain.Application, int, error) {
	if limit <= 0 {
		limit = 20
	}

	result, err := r.store.SearchList(ctx, r.indexName(), query, offset, limit, []string{"$"})
	if err != nil {
		return nil, 0, fmt.Errorf("list applications: %w", err)
	}
	if result == nil || result.Total == 0 {
		return nil, 0, nil
	}

	apps := make([]domain.Application, 0, len(result.Entries))
	for _, entry := range result.Entries {
		jsonStr := entry.Fields["$"]
		if jsonStr == "" {
			continue
		}
		var d appDoc
		if err := json.Unmarshal([]byte(jsonStr), &d); err != nil {
			continue
		}
		app := d.toDomain()
		if app.ID == "" {
			app.ID = strings.TrimPrefix(entry.Key, r.keyPrefix())
		}
		apps = append(apps, app)
	}
	return apps, result.Total, nil
}

// UpdateStatus rewrites $.status in place.
func (r *Repo) UpdateStatus(ctx context.Context, id, status string) error {
	key := r.docKey(id)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return domain.ErrNotFound
	}

	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}
	if err := r.store.JSONSet(ctx, key, "$.status", data); err != nil {
		return fmt.Errorf("json.set %s $.status: %w", key, err)
	}
	return nil
}

func (r *Repo) docKey(id string) string {
	return r.keyPrefix() + id
}

func (r *Repo) keyPrefix() string {
	return r.prefix + "application:"
}

func (r *Repo) indexName() string {
	return r.prefix + "application:idx"
}

// escapeTag escapes RediSearch tag syntax characters (UUIDs carry hyphens).
func escapeTag(v string) string {
	var b strings.Builder
	for _, c := range v {
		switch c {
		case '-', '.', '@', ':', '{', '}', '|', ' ':
			b.WriteByte('\\')
		}
		b.WriteRune(c)
	}
	return b.String()
}
