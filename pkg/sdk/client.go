package jobwire

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/campusworks/jobwire/internal/domain"
)

const defaultTimeout = 30 * time.Second

// Job, Event, Application and match types are the server's wire types.
type (
	Job          = domain.Job
	Event        = domain.Event
	Application  = domain.Application
	JobMatch     = domain.JobMatch
	EventMatch   = domain.EventMatch
	SearchResult = domain.SearchResult
)

// Usage is a snapshot of embedding token consumption.
type Usage struct {
	DailyUsed        int64 `json:"daily_used"`
	DailyLimit       int64 `json:"daily_limit"`
	DailyRemaining   int64 `json:"daily_remaining"`
	MonthlyUsed      int64 `json:"monthly_used"`
	MonthlyLimit     int64 `json:"monthly_limit"`
	MonthlyRemaining int64 `json:"monthly_remaining"`
}

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	apiKey     string
	httpClient *http.Client
}

// WithAPIKey sets the Bearer token sent with every request.
func WithAPIKey(key string) Option {
	return optionFunc(func(c *clientConfig) {
		c.apiKey = key
	})
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *clientConfig) {
		c.httpClient = hc
	})
}

// Client is the jobwire API client.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New creates a jobwire Client for the given server base URL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("jobwire: base URL required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("jobwire: invalid base URL: %w", err)
	}

	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.httpClient == nil {
		cfg.httpClient = &http.Client{Timeout: defaultTimeout}
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  cfg.apiKey,
		http:    cfg.httpClient,
	}, nil
}

// Search runs a semantic search over both corpora.
func (c *Client) Search(ctx context.Context, query string) (SearchResult, error) {
	var result SearchResult
	err := c.do(ctx, http.MethodPost, "/v1/search", map[string]string{"query": query}, &result)
	return result, err
}

// Embed generates an embedding for text, optionally attaching it to a job.
func (c *Client) Embed(ctx context.Context, text, jobID string) ([]float32, error) {
	req := map[string]string{"text": text}
	if jobID != "" {
		req["job_id"] = jobID
	}
	var resp struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/embeddings", req, &resp); err != nil {
		return nil, err
	}
	return resp.Embedding, nil
}

// CreateJob posts a new job.
func (c *Client) CreateJob(ctx context.Context, job *Job) (Job, error) {
	var created Job
	err := c.do(ctx, http.MethodPost, "/v1/jobs", job, &created)
	return created, err
}

// GetJob fetches a job by ID.
func (c *Client) GetJob(ctx context.Context, id string) (Job, error) {
	var job Job
	err := c.do(ctx, http.MethodGet, "/v1/jobs/"+url.PathEscape(id), nil, &job)
	return job, err
}

type listPage[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// ListJobs pages through the job corpus.
func (c *Client) ListJobs(ctx context.Context, offset, limit int) ([]Job, int, error) {
	var page listPage[Job]
	err := c.do(ctx, http.MethodGet, "/v1/jobs"+pageQuery(offset, limit), nil, &page)
	return page.Items, page.Total, err
}

// UpdateJob replaces a job by ID.
func (c *Client) UpdateJob(ctx context.Context, job *Job) (Job, error) {
	var updated Job
	err := c.do(ctx, http.MethodPut, "/v1/jobs/"+url.PathEscape(job.ID), job, &updated)
	return updated, err
}

// DeleteJob removes a job.
func (c *Client) DeleteJob(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/v1/jobs/"+url.PathEscape(id), nil, nil)
}

// CreateEvent posts a new event.
func (c *Client) CreateEvent(ctx context.Context, event *Event) (Event, error) {
	var created Event
	err := c.do(ctx, http.MethodPost, "/v1/events", event, &created)
	return created, err
}

// GetEvent fetches an event by ID.
func (c *Client) GetEvent(ctx context.Context, id string) (Event, error) {
	var event Event
	err := c.do(ctx, http.MethodGet, "/v1/events/"+url.PathEscape(id), nil, &event)
	return event, err
}

// ListEvents pages through the event corpus.
func (c *Client) ListEvents(ctx context.Context, offset, limit int) ([]Event, int, error) {
	var page listPage[Event]
	err := c.do(ctx, http.MethodGet, "/v1/events"+pageQuery(offset, limit), nil, &page)
	return page.Items, page.Total, err
}

// UpdateEvent replaces an event by ID.
func (c *Client) UpdateEvent(ctx context.Context, event *Event) (Event, error) {
	var updated Event
	err := c.do(ctx, http.MethodPut, "/v1/events/"+url.PathEscape(event.ID), event, &updated)
	return updated, err
}

// DeleteEvent removes an event.
func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/v1/events/"+url.PathEscape(id), nil, nil)
}

// Apply submits a student's application to a job.
func (c *Client) Apply(ctx context.Context, jobID, studentID, coverNote string) (Application, error) {
	req := map[string]string{"student_id": studentID}
	if coverNote != "" {
		req["cover_note"] = coverNote
	}
	var app Application
	err := c.do(ctx, http.MethodPost, "/v1/jobs/"+url.PathEscape(jobID)+"/applications", req, &app)
	return app, err
}

// JobApplications lists applications for a job.
func (c *Client) JobApplications(ctx context.Context, jobID string, offset, limit int) ([]Application, int, error) {
	var page listPage[Application]
	path := "/v1/jobs/" + url.PathEscape(jobID) + "/applications" + pageQuery(offset, limit)
	err := c.do(ctx, http.MethodGet, path, nil, &page)
	return page.Items, page.Total, err
}

// StudentApplications lists a student's applications across jobs.
func (c *Client) StudentApplications(
	ctx context.Context, studentID string, offset, limit int,
) ([]Application, int, error) {
	var page listPage[Application]
	path := "/v1/students/" + url.PathEscape(studentID) + "/applications" + pageQuery(offset, limit)
	err := c.do(ctx, http.MethodGet, path, nil, &page)
	return page.Items, page.Total, err
}

// SetApplicationStatus moves an application through the review pipeline.
func (c *Client) SetApplicationStatus(ctx context.Context, id, status string) (Application, error) {
	var app Application
	err := c.do(ctx, http.MethodPatch, "/v1/applications/"+url.PathEscape(id),
		map[string]string{"status": status}, &app)
	return app, err
}

// Usage fetches the embedding token budget snapshot.
func (c *Client) Usage(ctx context.Context) (Usage, error) {
	var usage Usage
	err := c.do(ctx, http.MethodGet, "/v1/usage", nil, &usage)
	return usage, err
}

func pageQuery(offset, limit int) string {
	q := url.Values{}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("jobwire: encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("jobwire: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("jobwire: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return apiError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("jobwire: decode response: %w", err)
	}
	return nil
}

// apiError maps an error response back to a sentinel error by HTTP status.
func apiError(resp *http.Response) error {
	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if body.Message == "" {
		body.Message = resp.Status
	}

	switch resp.StatusCode {
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrInvalidInput, body.Message)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, body.Message)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrAlreadyExists, body.Message)
	case http.StatusPaymentRequired:
		return fmt.Errorf("%w: %s", ErrEmbeddingQuotaExceeded, body.Message)
	case http.StatusBadGateway:
		return fmt.Errorf("%w: %s", ErrEmbeddingProvider, body.Message)
	}
	return fmt.Errorf("jobwire: server returned %d: %s", resp.StatusCode, body.Message)
}
