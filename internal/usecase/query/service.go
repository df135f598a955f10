// Package query is the single entry point for facets, suggestions and listings.
// It validates the request, serves it from the result cache when possible and
// otherwise reads the store, computes the payload and caches it.
package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/schooldex/internal/domain"
	domfacet "github.com/kailas-cloud/schooldex/internal/domain/facet"
	"github.com/kailas-cloud/schooldex/internal/domain/school"
	"github.com/kailas-cloud/schooldex/internal/domain/search/request"
	"github.com/kailas-cloud/schooldex/internal/domain/suggestion"
	"github.com/kailas-cloud/schooldex/internal/logger"
	"github.com/kailas-cloud/schooldex/internal/usecase/suggest"
)

// Config tunes cache lifetimes and the suggestion and popular-search paths.
type Config struct {
	FacetsTTL      time.Duration
	SuggestTTL     time.Duration
	ListTTL        time.Duration
	MinQueryLength int
	PopularWindow  time.Duration
	PopularLimit   int
}

// Metrics are the counter vecs the service reports to. Any of them may be nil.
type Metrics struct {
	// CacheRequests has labels "kind" and "result" ("hit"/"miss").
	CacheRequests *prometheus.CounterVec
	// CacheSetErrors has label "kind".
	CacheSetErrors *prometheus.CounterVec
	// Invalidations has label "type" ("tag"/"clear").
	Invalidations *prometheus.CounterVec
	// Requests has labels "kind" and "status" ("ok"/"invalid"/"error").
	Requests *prometheus.CounterVec
}

// Service is the query façade.
type Service struct {
	store      Store
	cache      Cache
	aggregator Aggregator
	matcher    Matcher
	recorder   SearchRecorder
	cfg        Config
	metrics    Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// New creates the façade. recorder may be nil to disable search analytics.
func New(
	store Store,
	cache Cache,
	aggregator Aggregator,
	matcher Matcher,
	recorder SearchRecorder,
	cfg Config,
	metrics Metrics,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:      store,
		cache:      cache,
		aggregator: aggregator,
		matcher:    matcher,
		recorder:   recorder,
		cfg:        cfg,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// Handle validates and answers a request. Validation failures wrap domain.ErrValidation
// and never touch the cache or the store; store failures wrap domain.ErrStoreUnavailable.
func (s *Service) Handle(ctx context.Context, req request.Request) (Response, error) {
	req, err := req.Normalize()
	if err != nil {
		s.incRequests(string(req.Kind), "invalid")
		return Response{}, err
	}

	var resp Response
	switch req.Kind {
	case request.Facets:
		resp, err = s.facets(ctx, req)
	case request.Suggest:
		resp, err = s.suggest(ctx, req)
	case request.List:
		resp, err = s.list(ctx, req)
	}
	if err != nil {
		s.incRequests(string(req.Kind), "error")
		return Response{}, err
	}
	s.incRequests(string(req.Kind), "ok")
	resp.Timestamp = s.now().UTC()
	return resp, nil
}

// Invalidate drops every cached entry carrying tag and returns how many were removed.
func (s *Service) Invalidate(ctx context.Context, tag string) (int, error) {
	if tag == "" {
		return 0, domain.NewValidationError("tag", "tag is required")
	}
	n, err := s.cache.InvalidateByTag(ctx, tag)
	if err != nil {
		return 0, fmt.Errorf("invalidate tag %q: %w", tag, err)
	}
	s.incInvalidations("tag")
	s.log(ctx).Info("Cache invalidated", zap.String("tag", tag), zap.Int("removed", n))
	return n, nil
}

// Flush empties the result cache.
func (s *Service) Flush(ctx context.Context) error {
	if err := s.cache.Clear(ctx); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	s.incInvalidations("clear")
	s.log(ctx).Info("Cache cleared")
	return nil
}

func (s *Service) facets(ctx context.Context, req request.Request) (Response, error) {
	var out FacetsResult
	cached, err := s.cached(ctx, req, s.cfg.FacetsTTL, &out, func(ctx context.Context) (any, error) {
		return s.computeFacets(ctx, req)
	})
	if err != nil {
		return Response{}, err
	}
	return Response{FacetsResult: &out, Cached: cached}, nil
}

func (s *Service) computeFacets(ctx context.Context, req request.Request) (FacetsResult, error) {
	names := domfacet.Expand(req.Include)
	var computed, popular bool
	for _, n := range names {
		if n == domfacet.PopularSearches {
			popular = true
		} else {
			computed = true
		}
	}

	var (
		schools  []school.School
		searches []domfacet.PopularSearch
	)
	g, gctx := errgroup.WithContext(ctx)
	if computed {
		g.Go(func() error {
			var err error
			schools, err = s.store.FetchEntities(gctx, req.Filter)
			return err
		})
	}
	if popular {
		g.Go(func() error {
			var err error
			searches, err = s.store.FetchPopularSearches(gctx, s.now().Add(-s.cfg.PopularWindow), s.cfg.PopularLimit)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return FacetsResult{}, storeErr("facets", err)
	}

	set := s.aggregator.Compute(schools, names, req.Origin)
	if popular {
		buckets := make([]domfacet.Bucket, 0, len(searches))
		for _, p := range searches {
			buckets = append(buckets, domfacet.Bucket{Value: p.Term, Label: p.Term, Count: p.Count})
		}
		set[domfacet.PopularSearches] = domfacet.Facet{Buckets: buckets}
	}
	return FacetsResult{Filters: set}, nil
}

func (s *Service) suggest(ctx context.Context, req request.Request) (Response, error) {
	if utf8.RuneCountInString(req.Query) < s.cfg.MinQueryLength {
		empty := suggestion.Empty()
		return Response{SuggestResult: &SuggestResult{
			Suggestions: empty.Suggestions,
			Categories:  empty.Categories,
			Query:       req.Query,
		}}, nil
	}

	var out SuggestResult
	cached, err := s.cached(ctx, req, s.cfg.SuggestTTL, &out, func(ctx context.Context) (any, error) {
		return s.computeSuggestions(ctx, req)
	})
	if err != nil {
		return Response{}, err
	}
	return Response{SuggestResult: &out, Cached: cached}, nil
}

func (s *Service) computeSuggestions(ctx context.Context, req request.Request) (SuggestResult, error) {
	fields := suggest.Fields(req.Scope)
	values := make([][]string, len(fields))
	var schools []school.School

	g, gctx := errgroup.WithContext(ctx)
	if req.Scope.Includes(suggestion.School) {
		named := req.Filter
		named.Text = req.Query
		g.Go(func() error {
			var err error
			schools, err = s.store.FetchEntities(gctx, named)
			return err
		})
	}
	for i, field := range fields {
		g.Go(func() error {
			var err error
			values[i], err = s.store.FetchField(gctx, field, req.Filter)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return SuggestResult{}, storeErr("suggest", err)
	}

	pop := suggest.Population{Schools: schools, Values: make(map[school.Field][]string, len(fields))}
	for i, field := range fields {
		pop.Values[field] = values[i]
	}
	res := s.matcher.Match(req.Query, req.Scope, req.Limit, pop)
	c := res.Categories
	return SuggestResult{
		Suggestions: res.Suggestions,
		Categories:  c,
		Query:       req.Query,
		Count:       len(c.Schools) + len(c.Locations) + len(c.Specializations) + len(c.Facilities),
	}, nil
}

func (s *Service) list(ctx context.Context, req request.Request) (Response, error) {
	var out ListResult
	cached, err := s.cached(ctx, req, s.cfg.ListTTL, &out, func(ctx context.Context) (any, error) {
		return s.computeList(ctx, req)
	})
	if err != nil {
		return Response{}, err
	}
	if req.Filter.Text != "" {
		s.recordSearch(ctx, req.Filter.Text, out.Pagination.TotalCount)
	}
	return Response{ListResult: &out, Cached: cached}, nil
}

func (s *Service) computeList(ctx context.Context, req request.Request) (ListResult, error) {
	var (
		schools []school.School
		total   int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		schools, err = s.store.ListEntities(gctx, req.Filter, req.Sort, req.Offset(), req.PageSize)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.store.CountEntities(gctx, req.Filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return ListResult{}, storeErr("list", err)
	}
	if schools == nil {
		schools = []school.School{}
	}
	return ListResult{Schools: schools, Pagination: newPagination(req.Page, req.PageSize, total)}, nil
}

// cached serves req from the cache into out, or runs compute and stores its result.
// Cache read errors count as misses and write errors are logged and skipped.
func (s *Service) cached(
	ctx context.Context,
	req request.Request,
	ttl time.Duration,
	out any,
	compute func(ctx context.Context) (any, error),
) (bool, error) {
	kind := string(req.Kind)
	key, err := CacheKey(req)
	if err != nil {
		return false, err
	}

	data, hit, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log(ctx).Warn("Failed to read cached result", zap.String("key", key), zap.Error(err))
		hit = false
	}
	if hit {
		if err := json.Unmarshal(data, out); err == nil {
			s.incCache(kind, "hit")
			return true, nil
		}
		s.log(ctx).Warn("Failed to decode cached result", zap.String("key", key), zap.Error(err))
	}
	s.incCache(kind, "miss")

	v, err := compute(ctx)
	if err != nil {
		return false, err
	}
	data, err = json.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("encode %s result: %w", kind, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("decode %s result: %w", kind, err)
	}

	if err := s.cache.Set(ctx, key, data, ttl, Tags(req)); err != nil {
		if s.metrics.CacheSetErrors != nil {
			s.metrics.CacheSetErrors.WithLabelValues(kind).Inc()
		}
		level := zap.WarnLevel
		if errors.Is(err, domain.ErrEntryTooLarge) {
			level = zap.DebugLevel
		}
		s.log(ctx).Log(level, "Failed to cache result", zap.String("key", key), zap.Error(err))
	}
	return false, nil
}

func (s *Service) recordSearch(ctx context.Context, text string, total int) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.RecordSearch(ctx, text, total); err != nil {
		s.log(ctx).Warn("Failed to record search", zap.String("query", text), zap.Error(err))
	}
}

func (s *Service) log(ctx context.Context) *zap.Logger {
	return logger.FromContextOr(ctx, s.logger)
}

func (s *Service) incCache(kind, result string) {
	if s.metrics.CacheRequests != nil {
		s.metrics.CacheRequests.WithLabelValues(kind, result).Inc()
	}
}

func (s *Service) incRequests(kind, status string) {
	if kind == "" {
		kind = "unknown"
	}
	if s.metrics.Requests != nil {
		s.metrics.Requests.WithLabelValues(kind, status).Inc()
	}
}

func (s *Service) incInvalidations(typ string) {
	if s.metrics.Invalidations != nil {
		s.metrics.Invalidations.WithLabelValues(typ).Inc()
	}
}

// storeErr keeps the store sentinel and tags the failing path.
func storeErr(path string, err error) error {
	if errors.Is(err, domain.ErrStoreUnavailable) || errors.Is(err, domain.ErrValidation) {
		return fmt.Errorf("%s: %w", path, err)
	}
	return domain.StoreError(path, err)
}
