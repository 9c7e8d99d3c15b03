// Command jobwire runs the semantic job board API server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/campusworks/jobwire/internal/config"
	dbRedis "github.com/campusworks/jobwire/internal/db/redis"
	"github.com/campusworks/jobwire/internal/domain"
	logpkg "github.com/campusworks/jobwire/internal/logger"
	"github.com/campusworks/jobwire/internal/metrics"
	applicationrepo "github.com/campusworks/jobwire/internal/repository/application"
	budgetrepo "github.com/campusworks/jobwire/internal/repository/budget"
	eventrepo "github.com/campusworks/jobwire/internal/repository/event"
	jobrepo "github.com/campusworks/jobwire/internal/repository/job"
	chiTransport "github.com/campusworks/jobwire/internal/transport/chi"
	openaiEmb "github.com/campusworks/jobwire/internal/transport/openai"
	applicationuc "github.com/campusworks/jobwire/internal/usecase/application"
	embeddinguc "github.com/campusworks/jobwire/internal/usecase/embedding"
	eventuc "github.com/campusworks/jobwire/internal/usecase/event"
	healthuc "github.com/campusworks/jobwire/internal/usecase/health"
	jobuc "github.com/campusworks/jobwire/internal/usecase/job"
	searchuc "github.com/campusworks/jobwire/internal/usecase/search"
	"github.com/campusworks/jobwire/internal/version"
	embworker "github.com/campusworks/jobwire/internal/worker/embedding"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting jobwire API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
	)

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create Redis store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Redis not ready", zap.Error(err))
	}

	prefix := cfg.Storage.KeyPrefix
	hnsw := jobrepo.HNSWConfig{
		M:           cfg.Database.HNSWM,
		EFConstruct: cfg.Database.HNSWEFConstruct,
	}

	jobs := jobrepo.New(store, prefix, cfg.Embedding.Dimensions).WithHNSW(hnsw)
	events := eventrepo.New(store, prefix, cfg.Embedding.Dimensions).WithHNSW(eventrepo.HNSWConfig(hnsw))
	applications := applicationrepo.New(store, prefix)

	for name, ensure := range map[string]func(context.Context) error{
		"jobs":         jobs.EnsureIndex,
		"events":       events.EnsureIndex,
		"applications": applications.EnsureIndex,
	} {
		if err := ensure(ctx); err != nil {
			logger.Fatal("Failed to create index", zap.String("corpus", name), zap.Error(err))
		}
	}

	budget := embeddinguc.NewBudgetTracker(
		prefix,
		cfg.Embedding.Budget.DailyTokenLimit,
		cfg.Embedding.Budget.MonthlyTokenLimit,
		embeddinguc.BudgetAction(cfg.Embedding.Budget.Action),
		logger,
	).WithStore(ctx, budgetrepo.New(store, 48*time.Hour, 40*24*time.Hour))

	provider := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})
	embedder := embeddinguc.NewInstrumentedEmbedder(
		provider, cfg.Embedding.Model, cfg.Embedding.MaxBatchSize, budget, logger,
	)

	attacher := embeddinguc.NewAttacher(
		embedder, time.Duration(cfg.Embedding.AttachTimeoutSec)*time.Second, logger,
	)

	searchSvc := searchuc.New(jobs, events, embedder, searchuc.Options{
		Jobs: domain.MatchOptions{
			Threshold: cfg.Search.Jobs.MatchThreshold,
			Count:     cfg.Search.Jobs.MatchCount,
		},
		Events: domain.MatchOptions{
			Threshold: cfg.Search.Events.MatchThreshold,
			Count:     cfg.Search.Events.MatchCount,
		},
	})
	jobSvc := jobuc.New(jobs, attacher)
	eventSvc := eventuc.New(events, attacher)
	applicationSvc := applicationuc.New(applications, jobs)
	embeddingSvc := embeddinguc.NewService(embedder, jobs, logger)
	healthSvc := healthuc.New(store, newEmbeddingHealthChecker(provider))

	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	if cfg.Worker.Enabled {
		runner := embworker.NewRunner(
			jobs, events, embedder,
			time.Duration(cfg.Worker.IntervalSec)*time.Second,
			cfg.Worker.ScanLimit,
			logger,
		)
		go runner.Run(workerCtx)
	}

	server := chiTransport.NewServer(
		searchSvc, jobSvc, eventSvc, applicationSvc, embeddingSvc, budget, healthSvc, logger,
	)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	// Stop the backfill worker, then let in-flight embedding attaches finish.
	stopWorker()
	attacher.Wait()

	logger.Info("Server stopped gracefully")
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
