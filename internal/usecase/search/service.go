package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/campusworks/jobwire/internal/domain"
	"github.com/campusworks/jobwire/internal/metrics"
)

// Options holds the per-corpus matching configuration.
type Options struct {
	Jobs   domain.MatchOptions
	Events domain.MatchOptions
}

// Service runs one semantic search across both corpora: the query is embedded
// once, then jobs and events are matched in parallel against the same vector.
type Service struct {
	jobs   JobMatcher
	events EventMatcher
	embed  Embedder
	opts   Options
}

// New creates a search service.
func New(jobs JobMatcher, events EventMatcher, embed Embedder, opts Options) *Service {
	return &Service{jobs: jobs, events: events, embed: embed, opts: opts}
}

// Search embeds the query and assembles ranked job and event matches.
// An empty query is rejected before any external call. Either corpus failing
// fails the whole request: a half-empty result is indistinguishable from a
// genuine no-match.
func (s *Service) Search(ctx context.Context, query string) (domain.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		metrics.SearchRequestsTotal.WithLabelValues("invalid").Inc()
		return domain.SearchResult{}, fmt.Errorf("empty query: %w", domain.ErrInvalidInput)
	}

	embResult, err := s.embed.Embed(ctx, query)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		return domain.SearchResult{}, fmt.Errorf("vectorize query: %w", err)
	}
	vector := embResult.Embedding

	var jobMatches []domain.JobMatch
	var eventMatches []domain.EventMatch

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		start := time.Now()
		m, err := s.jobs.MatchKNN(gctx, vector, s.opts.Jobs)
		if err != nil {
			return fmt.Errorf("match jobs: %w: %w", domain.ErrMatchService, err)
		}
		metrics.SearchCorpusDuration.WithLabelValues("jobs").Observe(time.Since(start).Seconds())
		jobMatches = m
		return nil
	})
	g.Go(func() error {
		start := time.Now()
		m, err := s.events.MatchKNN(gctx, vector, s.opts.Events)
		if err != nil {
			return fmt.Errorf("match events: %w: %w", domain.ErrMatchService, err)
		}
		metrics.SearchCorpusDuration.WithLabelValues("events").Observe(time.Since(start).Seconds())
		eventMatches = m
		return nil
	})

	if err := g.Wait(); err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		return domain.SearchResult{}, err
	}

	if jobMatches == nil {
		jobMatches = []domain.JobMatch{}
	}
	if eventMatches == nil {
		eventMatches = []domain.EventMatch{}
	}

	metrics.SearchRequestsTotal.WithLabelValues("success").Inc()
	metrics.SearchMatchesReturned.WithLabelValues("jobs").Observe(float64(len(jobMatches)))
	metrics.SearchMatchesReturned.WithLabelValues("events").Observe(float64(len(eventMatches)))

	return domain.SearchResult{Jobs: jobMatches, Events: eventMatches}, nil
}
