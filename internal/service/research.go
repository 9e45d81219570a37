package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/procwise/internal/metrics"
	"github.com/raphaelgruber/procwise/internal/models"
	"github.com/raphaelgruber/procwise/internal/scoring"
)

// CacheState is the outcome of a cache lookup.
type CacheState string

const (
	CacheHit  CacheState = "hit"
	CacheMiss CacheState = "miss"
)

// Cache defaults.
const (
	DefaultBestPracticesTTL = 14 * 24 * time.Hour
	DefaultComplianceTTL    = 7 * 24 * time.Hour
	DefaultBenchmarksTTL    = 30 * 24 * time.Hour
	DefaultRefreshTimeout   = 60 * time.Second
	DefaultResearchResults  = 10
)

// DefaultSources are the research sources used when the caller names none.
var DefaultSources = []models.ResearchSource{models.ResearchWeb, models.ResearchDocumentation}

// CacheOptions configures a CacheOrchestrator. Zero values select defaults.
type CacheOptions struct {
	SourceTimeout    time.Duration
	RefreshTimeout   time.Duration
	BestPracticesTTL time.Duration
	ComplianceTTL    time.Duration
	BenchmarksTTL    time.Duration
	Now              func() time.Time
}

func (o CacheOptions) withDefaults() CacheOptions {
	if o.SourceTimeout <= 0 {
		o.SourceTimeout = DefaultSourceTimeout
	}
	if o.RefreshTimeout <= 0 {
		o.RefreshTimeout = DefaultRefreshTimeout
	}
	if o.BestPracticesTTL <= 0 {
		o.BestPracticesTTL = DefaultBestPracticesTTL
	}
	if o.ComplianceTTL <= 0 {
		o.ComplianceTTL = DefaultComplianceTTL
	}
	if o.BenchmarksTTL <= 0 {
		o.BenchmarksTTL = DefaultBenchmarksTTL
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// CacheOrchestrator decides between cached and fresh research and keeps the
// research cache populated. Either collaborator may be nil.
type CacheOrchestrator struct {
	cache    ResearchCache
	provider ResearchProvider
	jobs     *JobManager
	metrics  *metrics.Collector
	logger   *slog.Logger
	opts     CacheOptions
}

// NewCacheOrchestrator creates a cache orchestrator.
func NewCacheOrchestrator(
	cache ResearchCache,
	provider ResearchProvider,
	jobs *JobManager,
	collector *metrics.Collector,
	logger *slog.Logger,
	opts CacheOptions,
) *CacheOrchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if jobs == nil {
		jobs = NewJobManager(logger)
	}
	return &CacheOrchestrator{
		cache:    cache,
		provider: provider,
		jobs:     jobs,
		metrics:  collector,
		logger:   logger,
		opts:     opts.withDefaults(),
	}
}

// Jobs returns the manager tracking background refreshes.
func (o *CacheOrchestrator) Jobs() *JobManager {
	return o.jobs
}

// TTL returns how long research for domain stays fresh.
func (o *CacheOrchestrator) TTL(domain models.ResearchDomain) time.Duration {
	switch domain {
	case models.DomainCompliance:
		return o.opts.ComplianceTTL
	case models.DomainBenchmarks:
		return o.opts.BenchmarksTTL
	default:
		return o.opts.BestPracticesTTL
	}
}

// Lookup reads fresh cache entries for query. Errors and timeouts are
// logged and reported as a miss.
func (o *CacheOrchestrator) Lookup(ctx context.Context, domain models.ResearchDomain, query string, limit int) ([]models.ResearchCacheEntry, CacheState) {
	if o.cache == nil {
		return nil, CacheMiss
	}

	entries := bestEffort(ctx, o.logger, o.metrics, metrics.OpCacheLookup, "research_cache", o.opts.SourceTimeout,
		func(ctx context.Context) ([]models.ResearchCacheEntry, error) {
			return o.cache.LookupResearch(ctx, domain, query, limit)
		})

	now := o.opts.Now()
	fresh := make([]models.ResearchCacheEntry, 0, len(entries))
	for _, e := range entries {
		if !e.Expired(now) {
			fresh = append(fresh, e)
		}
	}
	if len(fresh) == 0 {
		return nil, CacheMiss
	}
	return fresh, CacheHit
}

// NeedsRefresh reports whether background research should run: on a miss
// or when the combined result count is below threshold.
func NeedsRefresh(state CacheState, count, threshold int) bool {
	return state == CacheMiss || count < threshold
}

// RefreshInBackground starts research for query without blocking. The job
// is detached from the caller: it survives the request and has its own
// timeout. Failures are logged on the job and never propagated. Returns nil
// when no research provider is configured.
func (o *CacheOrchestrator) RefreshInBackground(domain models.ResearchDomain, query string, sources []models.ResearchSource, maxResults int) *Job {
	if o.provider == nil {
		return nil
	}
	if len(sources) == 0 {
		sources = DefaultSources
	}
	if maxResults <= 0 {
		maxResults = DefaultResearchResults
	}

	job := o.jobs.CreateJob(JobTypeResearch, domain, query)
	o.jobs.Go(job, o.opts.RefreshTimeout, func(ctx context.Context) (int, error) {
		start := time.Now()
		results, err := o.provider.Research(ctx, query, sources, maxResults)
		o.metrics.RecordOutcome(metrics.OpResearch, time.Since(start), err)
		if err != nil {
			return 0, fmt.Errorf("research: %w", err)
		}
		return o.store(ctx, domain, query, results)
	})
	return job
}

// ResearchNow runs live research synchronously. Failure yields no results.
// Results are written to the cache best-effort.
func (o *CacheOrchestrator) ResearchNow(ctx context.Context, domain models.ResearchDomain, query string, sources []models.ResearchSource, maxResults int) []models.ResearchResult {
	if o.provider == nil {
		return nil
	}
	if len(sources) == 0 {
		sources = DefaultSources
	}
	if maxResults <= 0 {
		maxResults = DefaultResearchResults
	}

	results := bestEffort(ctx, o.logger, o.metrics, metrics.OpResearch, "live_research", o.opts.SourceTimeout,
		func(ctx context.Context) ([]models.ResearchResult, error) {
			return o.provider.Research(ctx, query, sources, maxResults)
		})
	if len(results) == 0 {
		return nil
	}

	storeCtx, cancel := context.WithTimeout(ctx, o.opts.SourceTimeout)
	defer cancel()
	if _, err := o.store(storeCtx, domain, query, results); err != nil {
		o.logger.Warn("failed to cache live research", "domain", domain, "query", query, "error", err)
	}
	return results
}

// store writes results to the cache with the domain TTL.
func (o *CacheOrchestrator) store(ctx context.Context, domain models.ResearchDomain, query string, results []models.ResearchResult) (int, error) {
	if o.cache == nil || len(results) == 0 {
		return 0, nil
	}

	now := o.opts.Now()
	expires := now.Add(o.TTL(domain))
	entries := make([]models.ResearchCacheEntry, 0, len(results))
	for _, r := range results {
		entries = append(entries, models.ResearchCacheEntry{
			ID:             uuid.New().String(),
			Query:          query,
			Domain:         domain,
			URL:            r.URL,
			Title:          r.Title,
			Content:        r.Content,
			RelevanceScore: scoring.Clamp(r.Relevance, 0, 1),
			Source:         ClassifySource(r.URL),
			CreatedAt:      now,
			ExpiresAt:      expires,
		})
	}

	start := time.Now()
	err := o.cache.StoreResearch(ctx, entries)
	o.metrics.RecordOutcome(metrics.OpCacheStore, time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("store research: %w", err)
	}
	return len(entries), nil
}

// ClassifySource infers the research source kind from a result URL.
func ClassifySource(rawURL string) models.ResearchSource {
	if strings.TrimSpace(rawURL) == "" {
		return models.ResearchOther
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		u, err = url.Parse("https://" + rawURL)
		if err != nil {
			return models.ResearchOther
		}
	}

	host := strings.ToLower(u.Hostname())
	path := strings.ToLower(u.Path)
	switch {
	case host == "github.com" || strings.HasSuffix(host, ".github.com") || strings.HasSuffix(host, ".github.io"):
		return models.ResearchGitHub
	case strings.Contains(host, "stackoverflow.com") || strings.Contains(host, "stackexchange.com"):
		return models.ResearchStackOverflow
	case strings.HasPrefix(host, "docs.") || strings.Contains(path, "/docs") || strings.Contains(path, "documentation"):
		return models.ResearchDocumentation
	default:
		return models.ResearchWeb
	}
}
