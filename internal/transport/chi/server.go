package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/campusworks/jobwire/internal/domain"
	embeddinguc "github.com/campusworks/jobwire/internal/usecase/embedding"
	healthuc "github.com/campusworks/jobwire/internal/usecase/health"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Error codes returned in the "code" field of error responses.
const (
	codeBadRequest        = "bad_request"
	codeValidationFailed  = "validation_failed"
	codeNotFound          = "not_found"
	codeAlreadyExists     = "already_exists"
	codeQuotaExceeded     = "embedding_quota_exceeded"
	codeEmbeddingProvider = "embedding_provider_error"
	codeUnauthorized      = "unauthorized"
	codeInternalError     = "internal_error"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// searchService resolves a free-text query into ranked job and event matches.
type searchService interface {
	Search(ctx context.Context, query string) (domain.SearchResult, error)
}

// jobService manages the job corpus.
type jobService interface {
	Create(ctx context.Context, j *domain.Job) (domain.Job, error)
	Get(ctx context.Context, id string) (domain.Job, error)
	List(ctx context.Context, offset, limit int) ([]domain.Job, int, error)
	Update(ctx context.Context, j *domain.Job) (domain.Job, error)
	Delete(ctx context.Context, id string) error
}

// eventService manages the event corpus.
type eventService interface {
	Create(ctx context.Context, e *domain.Event) (domain.Event, error)
	Get(ctx context.Context, id string) (domain.Event, error)
	List(ctx context.Context, offset, limit int) ([]domain.Event, int, error)
	Update(ctx context.Context, e *domain.Event) (domain.Event, error)
	Delete(ctx context.Context, id string) error
}

// applicationService manages student applications to jobs.
type applicationService interface {
	Apply(ctx context.Context, jobID, studentID, coverNote string) (domain.Application, error)
	ListByJob(ctx context.Context, jobID string, offset, limit int) ([]domain.Application, int, error)
	ListByStudent(ctx context.Context, studentID string, offset, limit int) ([]domain.Application, int, error)
	UpdateStatus(ctx context.Context, id, status string) (domain.Application, error)
}

// embeddingService generates standalone embeddings.
type embeddingService interface {
	Generate(ctx context.Context, text, jobID string) ([]float32, error)
}

// usageProvider reports token budget consumption.
type usageProvider interface {
	Snapshot() embeddinguc.Usage
}

// healthService reports aggregated component health.
type healthService interface {
	Check(ctx context.Context) healthuc.Report
}

// Server is the HTTP API server.
type Server struct {
	search        searchService
	jobs          jobService
	events        eventService
	applications  applicationService
	embeddings    embeddingService
	usage         usageProvider
	health        healthService
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search searchService,
	jobs jobService,
	events eventService,
	applications applicationService,
	embeddings embeddingService,
	usage usageProvider,
	health healthService,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:       search,
		jobs:         jobs,
		events:       events,
		applications: applications,
		embeddings:   embeddings,
		usage:        usage,
		health:       health,
		logger:       logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrAlreadyExists, http.StatusConflict, codeAlreadyExists),
		sentinelHandler(domain.ErrEmbeddingQuotaExceeded, http.StatusPaymentRequired, codeQuotaExceeded),
		sentinelHandler(domain.ErrEmbeddingProvider, http.StatusBadGateway, codeEmbeddingProvider),
	}
	return s
}

// Routes registers all API routes on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/search", s.Search)
		r.Post("/embeddings", s.CreateEmbedding)
		r.Get("/usage", s.GetUsage)

		r.Route("/jobs", func(r chi.Router) {
			r.Post("/", s.CreateJob)
			r.Get("/", s.ListJobs)
			r.Get("/{id}", s.GetJob)
			r.Put("/{id}", s.UpdateJob)
			r.Delete("/{id}", s.DeleteJob)
			r.Post("/{id}/applications", s.ApplyToJob)
			r.Get("/{id}/applications", s.ListJobApplications)
		})

		r.Route("/events", func(r chi.Router) {
			r.Post("/", s.CreateEvent)
			r.Get("/", s.ListEvents)
			r.Get("/{id}", s.GetEvent)
			r.Put("/{id}", s.UpdateEvent)
			r.Delete("/{id}", s.DeleteEvent)
		})

		r.Get("/students/{id}/applications", s.ListStudentApplications)
		r.Patch("/applications/{id}", s.UpdateApplicationStatus)
	})
}

type searchRequest struct {
	Query string `json:"query"`
}

// Search handles POST /v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	result, err := s.search.Search(r.Context(), req.Query)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type embeddingRequest struct {
	Text  string `json:"text"`
	JobID string `json:"job_id,omitempty"`
}

type embeddingResponse struct {
	Embedding  []float32 `json:"embedding"`
	Dimensions int       `json:"dimensions"`
}

// CreateEmbedding handles POST /v1/embeddings.
func (s *Server) CreateEmbedding(w http.ResponseWriter, r *http.Request) {
	var req embeddingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	vector, err := s.embeddings.Generate(r.Context(), req.Text, req.JobID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, embeddingResponse{
		Embedding:  vector,
		Dimensions: len(vector),
	})
}

type jobListResponse struct {
	Items  []domain.Job `json:"items"`
	Total  int          `json:"total"`
	Offset int          `json:"offset"`
	Limit  int          `json:"limit"`
}

// CreateJob handles POST /v1/jobs.
func (s *Server) CreateJob(w http.ResponseWriter, r *http.Request) {
	var job domain.Job
	if err := json.NewDecoder(r.Body).Decode(&job); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	created, err := s.jobs.Create(r.Context(), &job)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.Header().Set("Location", "/v1/jobs/"+created.ID)
	writeJSON(w, http.StatusCreated, created)
}

// ListJobs handles GET /v1/jobs.
func (s *Server) ListJobs(w http.ResponseWriter, r *http.Request) {
	offset, limit := paginationParams(r)

	jobs, total, err := s.jobs.List(r.Context(), offset, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if jobs == nil {
		jobs = []domain.Job{}
	}

	writeJSON(w, http.StatusOK, jobListResponse{
		Items:  jobs,
		Total:  total,
		Offset: offset,
		Limit:  limit,
	})
}

// GetJob handles GET /v1/jobs/{id}.
func (s *Server) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.jobs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, job)
}

// UpdateJob handles PUT /v1/jobs/{id}.
func (s *Server) UpdateJob(w http.ResponseWriter, r *http.Request) {
	var job domain.Job
	if err := json.NewDecoder(r.Body).Decode(&job); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	job.ID = chi.URLParam(r, "id")

	updated, err := s.jobs.Update(r.Context(), &job)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// DeleteJob handles DELETE /v1/jobs/{id}.
func (s *Server) DeleteJob(w http.ResponseWriter, r *http.Request) {
	if err := s.jobs.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type eventListResponse struct {
	Items  []domain.Event `json:"items"`
	Total  int            `json:"total"`
	Offset int            `json:"offset"`
	Limit  int            `json:"limit"`
}

// CreateEvent handles POST /v1/events.
func (s *Server) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var event domain.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	created, err := s.events.Create(r.Context(), &event)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.Header().Set("Location", "/v1/events/"+created.ID)
	writeJSON(w, http.StatusCreated, created)
}

// ListEvents handles GET /v1/events.
func (s *Server) ListEvents(w http.ResponseWriter, r *http.Request) {
	offset, limit := paginationParams(r)

	events, total, err := s.events.List(r.Context(), offset, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if events == nil {
		events = []domain.Event{}
	}

	writeJSON(w, http.StatusOK, eventListResponse{
		Items:  events,
		Total:  total,
		Offset: offset,
		Limit:  limit,
	})
}

// GetEvent handles GET /v1/events/{id}.
func (s *Server) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := s.events.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// UpdateEvent handles PUT /v1/events/{id}.
func (s *Server) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var event domain.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	event.ID = chi.URLParam(r, "id")

	updated, err := s.events.Update(r.Context(), &event)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// DeleteEvent handles DELETE /v1/events/{id}.
func (s *Server) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := s.events.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type applyRequest struct {
	StudentID string `json:"student_id"`
	CoverNote string `json:"cover_note,omitempty"`
}

type applicationListResponse struct {
	Items  []domain.Application `json:"items"`
	Total  int                  `json:"total"`
	Offset int                  `json:"offset"`
	Limit  int                  `json:"limit"`
}

// ApplyToJob handles POST /v1/jobs/{id}/applications.
func (s *Server) ApplyToJob(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	app, err := s.applications.Apply(r.Context(), chi.URLParam(r, "id"), req.StudentID, req.CoverNote)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, app)
}

// ListJobApplications handles GET /v1/jobs/{id}/applications.
func (s *Server) ListJobApplications(w http.ResponseWriter, r *http.Request) {
	offset, limit := paginationParams(r)

	apps, total, err := s.applications.ListByJob(r.Context(), chi.URLParam(r, "id"), offset, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if apps == nil {
		apps = []domain.Application{}
	}

	writeJSON(w, http.StatusOK, applicationListResponse{
		Items:  apps,
		Total:  total,
		Offset: offset,
		Limit:  limit,
	})
}

// ListStudentApplications handles GET /v1/students/{id}/applications.
func (s *Server) ListStudentApplications(w http.ResponseWriter, r *http.Request) {
	offset, limit := paginationParams(r)

	apps, total, err := s.applications.ListByStudent(r.Context(), chi.URLParam(r, "id"), offset, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if apps == nil {
		apps = []domain.Application{}
	}

	writeJSON(w, http.StatusOK, applicationListResponse{
		Items:  apps,
		Total:  total,
		Offset: offset,
		Limit:  limit,
	})
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateApplicationStatus handles PATCH /v1/applications/{id}.
func (s *Server) UpdateApplicationStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	app, err := s.applications.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, app)
}

// GetUsage handles GET /v1/usage.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.usage.Snapshot())
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, report)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// paginationParams parses offset/limit query parameters with sane bounds.
func paginationParams(r *http.Request) (offset, limit int) {
	limit = defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			offset = n
		}
	}
	return offset, limit
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidInput,
		domain.ErrNotFound,
		domain.ErrAlreadyExists,
		domain.ErrEmbeddingQuotaExceeded,
		domain.ErrEmbeddingProvider,
		domain.ErrMatchService,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
