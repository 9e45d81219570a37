package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/raphaelgruber/procwise/internal/fusion"
	"github.com/raphaelgruber/procwise/internal/metrics"
	"github.com/raphaelgruber/procwise/internal/models"
	"github.com/raphaelgruber/procwise/internal/normalize"
	"github.com/raphaelgruber/procwise/internal/scoring"
	"golang.org/x/sync/errgroup"
)

// Result count below which a search triggers background research.
const (
	BestPracticesThreshold = 5
	ComplianceThreshold    = 3
	BenchmarksThreshold    = 3
)

// Benchmark boost factors for matching secondary filters.
const (
	companySizeBoost = 1.2
	regionBoost      = 1.1
	regulatoryBoost  = 1.5
)

// SearchService fuses knowledge base, cached research and live research
// into ranked results.
type SearchService struct {
	knowledge     KnowledgeSource
	cache         *CacheOrchestrator
	metrics       *metrics.Collector
	logger        *slog.Logger
	sourceTimeout time.Duration
	now           func() time.Time
}

// SearchOptions configures a SearchService. Zero values select defaults.
type SearchOptions struct {
	SourceTimeout time.Duration
	Now           func() time.Time
}

// NewSearchService creates a new search service. knowledge may be nil, in
// which case only research contributes.
func NewSearchService(
	knowledge KnowledgeSource,
	cache *CacheOrchestrator,
	collector *metrics.Collector,
	logger *slog.Logger,
	opts SearchOptions,
) *SearchService {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.SourceTimeout <= 0 {
		opts.SourceTimeout = DefaultSourceTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if cache == nil {
		cache = NewCacheOrchestrator(nil, nil, nil, collector, logger, CacheOptions{Now: opts.Now})
	}
	return &SearchService{
		knowledge:     knowledge,
		cache:         cache,
		metrics:       collector,
		logger:        logger,
		sourceTimeout: opts.SourceTimeout,
		now:           opts.Now,
	}
}

// fanOut is what the concurrent source calls of one search produced.
type fanOut[T any] struct {
	kb       []T
	live     []researchItem
	cached   []researchItem
	state    CacheState
	liveDone bool
}

// gather queries the knowledge base, the cache and optionally live research
// concurrently. Every source is individually bounded and failures only
// shrink the result.
func gather[T any](
	ctx context.Context,
	s *SearchService,
	domain models.ResearchDomain,
	req SearchRequest,
	kbQuery func(context.Context, KnowledgeSource) ([]T, error),
) fanOut[T] {
	var out fanOut[T]
	key := researchKey(domain, req)
	fetch := fetchLimit(req.Limit)

	var g errgroup.Group
	if s.knowledge != nil {
		g.Go(func() error {
			out.kb = bestEffort(ctx, s.logger, s.metrics, metrics.OpKnowledgeQuery, "knowledge_base", s.sourceTimeout,
				func(ctx context.Context) ([]T, error) {
					return kbQuery(ctx, s.knowledge)
				})
			return nil
		})
	}
	g.Go(func() error {
		entries, state := s.cache.Lookup(ctx, domain, key, fetch)
		out.cached, out.state = fromCache(entries), state
		return nil
	})
	if req.IncludeLive {
		g.Go(func() error {
			out.live = fromLive(s.cache.ResearchNow(ctx, domain, key, nil, fetch))
			out.liveDone = true
			return nil
		})
	}
	_ = g.Wait() // source calls never return errors

	return out
}

// maybeRefresh schedules background research when coverage is thin. A
// synchronous live call already refreshed the cache.
func (s *SearchService) maybeRefresh(domain models.ResearchDomain, req SearchRequest, state CacheState, count, threshold int, liveDone bool) {
	if liveDone || !NeedsRefresh(state, count, threshold) {
		return
	}
	if job := s.cache.RefreshInBackground(domain, researchKey(domain, req), nil, 0); job != nil {
		s.logger.Debug("background research scheduled",
			"job_id", job.ID, "domain", domain, "state", state, "count", count, "threshold", threshold)
	}
}

func fetchLimit(limit int) int {
	if limit <= 0 {
		limit = fusion.DefaultLimit
	}
	return limit * 2
}

// researchKey is the cache and research query for a search. Compliance and
// benchmark research is scoped to the industry.
func researchKey(domain models.ResearchDomain, req SearchRequest) string {
	parts := []string{strings.TrimSpace(req.Query)}
	switch domain {
	case models.DomainCompliance:
		parts = append(parts, req.Filters.Industry, req.Filters.Region, "compliance requirements")
	case models.DomainBenchmarks:
		parts = append(parts, req.Filters.Industry, "benchmarks")
	default:
		parts = append(parts, req.Filters.Industry, "best practices")
	}
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

func response[T any](req SearchRequest, results []T, total int, at time.Time) models.SearchResponse[T] {
	if results == nil {
		results = []T{}
	}
	return models.SearchResponse[T]{
		Query:        req.Query,
		Results:      results,
		TotalResults: total,
		SearchedAt:   at,
		Filters:      req.Filters,
	}
}

// SearchBestPractices searches best practices across all sources.
func (s *SearchService) SearchBestPractices(ctx context.Context, req SearchRequest) (models.SearchResponse[models.KnowledgeRecord], error) {
	if err := req.validate(false); err != nil {
		return models.SearchResponse[models.KnowledgeRecord]{}, err
	}
	req.Query = strings.TrimSpace(req.Query)

	got := gather(ctx, s, models.DomainBestPractices, req,
		func(ctx context.Context, k KnowledgeSource) ([]models.KnowledgeRecord, error) {
			return k.QueryBestPractices(ctx, req.Query, req.Filters, fetchLimit(req.Limit))
		})

	kb := make([]models.KnowledgeRecord, 0, len(got.kb))
	for _, r := range got.kb {
		kb = append(kb, rescore(req.Query, r))
	}

	merged := fusion.Merge(kb, bestPracticeRecords(got.live), bestPracticeRecords(got.cached))
	filtered := fusion.Filter(merged, req.Filters, fusion.BestPracticePolicy)
	ranked := fusion.SortByRelevance(filtered)
	page, total := fusion.Page(ranked, req.Limit)

	s.maybeRefresh(models.DomainBestPractices, req, got.state, total, BestPracticesThreshold, got.liveDone)

	s.logger.Debug("best practice search",
		"query", req.Query, "kb", len(got.kb), "live", len(got.live), "cached", len(got.cached), "total", total)
	return response(req, page, total, s.now()), nil
}

// SearchCompliance searches compliance requirements for an industry.
func (s *SearchService) SearchCompliance(ctx context.Context, req SearchRequest) (models.SearchResponse[models.ComplianceRecord], error) {
	if err := req.validate(true); err != nil {
		return models.SearchResponse[models.ComplianceRecord]{}, err
	}
	req.Query = strings.TrimSpace(req.Query)

	got := gather(ctx, s, models.DomainCompliance, req,
		func(ctx context.Context, k KnowledgeSource) ([]models.ComplianceRecord, error) {
			return k.QueryCompliance(ctx, req.Query, req.Filters, fetchLimit(req.Limit))
		})

	kb := make([]models.ComplianceRecord, 0, len(got.kb))
	for _, r := range got.kb {
		r.KnowledgeRecord = rescore(req.Query, r.KnowledgeRecord)
		kb = append(kb, r)
	}

	merged := fusion.Merge(kb, complianceRecords(got.live, req.Filters), complianceRecords(got.cached, req.Filters))
	for i, r := range merged {
		if r.Regulatory() {
			merged[i].KnowledgeRecord = r.WithRelevance(fusion.Boost(r.Relevance, regulatoryBoost))
		}
	}

	filtered := fusion.Filter(merged, req.Filters, fusion.CompliancePolicy,
		fusion.SeverityFilter(req.Filters), fusion.RegionFilter(req.Filters))
	ranked := fusion.SortCompliance(filtered)
	page, total := fusion.Page(ranked, req.Limit)

	s.maybeRefresh(models.DomainCompliance, req, got.state, total, ComplianceThreshold, got.liveDone)

	s.logger.Debug("compliance search",
		"query", req.Query, "industry", req.Filters.Industry, "kb", len(got.kb), "cached", len(got.cached), "total", total)
	return response(req, page, total, s.now()), nil
}

// SearchBenchmarks searches metric benchmarks for an industry. Every
// returned record has normalized, ordered percentiles and a confidence.
func (s *SearchService) SearchBenchmarks(ctx context.Context, req SearchRequest) (models.SearchResponse[models.BenchmarkRecord], error) {
	if err := req.validate(true); err != nil {
		return models.SearchResponse[models.BenchmarkRecord]{}, err
	}
	req.Query = strings.TrimSpace(req.Query)

	got := gather(ctx, s, models.DomainBenchmarks, req,
		func(ctx context.Context, k KnowledgeSource) ([]models.BenchmarkRecord, error) {
			return k.QueryBenchmarks(ctx, req.Query, req.Filters, fetchLimit(req.Limit))
		})

	category := req.Filters.Category
	if category == "" {
		category = req.Query
	}

	kb := make([]models.BenchmarkRecord, 0, len(got.kb))
	for _, r := range got.kb {
		r.KnowledgeRecord = rescore(req.Query, r.KnowledgeRecord)
		kb = append(kb, r)
	}

	merged := fusion.Merge(kb,
		benchmarkRecords(got.live, req.Filters, category),
		benchmarkRecords(got.cached, req.Filters, category))

	now := s.now()
	for i := range merged {
		merged[i] = s.enrichBenchmark(merged[i], req.Filters, category, now)
	}

	filtered := fusion.Filter(merged, req.Filters, fusion.BenchmarkPolicy)
	ranked := fusion.SortByWeightedRelevance(filtered)
	page, total := fusion.Page(ranked, req.Limit)

	s.maybeRefresh(models.DomainBenchmarks, req, got.state, total, BenchmarksThreshold, got.liveDone)

	s.logger.Debug("benchmark search",
		"query", req.Query, "industry", req.Filters.Industry, "kb", len(got.kb), "cached", len(got.cached), "total", total)
	return response(req, page, total, now), nil
}

// enrichBenchmark normalizes values, scores confidence and applies the
// secondary filter boosts.
func (s *SearchService) enrichBenchmark(b models.BenchmarkRecord, f models.SearchFilters, category string, now time.Time) models.BenchmarkRecord {
	recordCategory := b.Category
	if recordCategory == "" {
		recordCategory = category
	}
	b.Values, b.MetricUnit = normalize.Normalize(b.Values, b.MetricUnit, recordCategory)

	relevance := b.Relevance
	if f.CompanySize != "" && strings.EqualFold(f.CompanySize, b.CompanySize) {
		relevance = fusion.Boost(relevance, companySizeBoost)
	}
	if f.Region != "" && strings.EqualFold(f.Region, b.Region) {
		relevance = fusion.Boost(relevance, regionBoost)
	}

	b.KnowledgeRecord = b.WithRelevance(relevance).WithConfidence(scoring.BenchmarkConfidence(scoring.EvidenceOf(b), now))
	return b
}

// Refresh schedules background research for req regardless of cache
// coverage, under the same cache key the search uses. Returns a nil job
// when no research provider is configured.
func (s *SearchService) Refresh(domain models.ResearchDomain, req SearchRequest) (*Job, error) {
	switch domain {
	case models.DomainBestPractices, models.DomainCompliance, models.DomainBenchmarks:
	default:
		return nil, invalidInput("unknown research domain %q", domain)
	}
	if err := req.validate(domain != models.DomainBestPractices); err != nil {
		return nil, err
	}
	req.Query = strings.TrimSpace(req.Query)
	return s.cache.RefreshInBackground(domain, researchKey(domain, req), nil, 0), nil
}
