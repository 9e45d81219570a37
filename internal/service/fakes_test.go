package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/raphaelgruber/procwise/internal/metrics"
	"github.com/raphaelgruber/procwise/internal/models"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeKnowledge struct {
	practices  []models.KnowledgeRecord
	compliance []models.ComplianceRecord
	benchmarks []models.BenchmarkRecord
	err        error
	block      bool
	calls      atomic.Int32
}

func (f *fakeKnowledge) wait(ctx context.Context) error {
	f.calls.Add(1)
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return f.err
}

func (f *fakeKnowledge) QueryBestPractices(ctx context.Context, _ string, _ models.SearchFilters, _ int) ([]models.KnowledgeRecord, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	return f.practices, nil
}

func (f *fakeKnowledge) QueryCompliance(ctx context.Context, _ string, _ models.SearchFilters, _ int) ([]models.ComplianceRecord, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	return f.compliance, nil
}

func (f *fakeKnowledge) QueryBenchmarks(ctx context.Context, _ string, _ models.SearchFilters, _ int) ([]models.BenchmarkRecord, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	return f.benchmarks, nil
}

type fakeCache struct {
	mu        sync.Mutex
	entries   []models.ResearchCacheEntry
	lookupErr error
	storeErr  error
	lookups   int
	stores    int
}

func (f *fakeCache) LookupResearch(_ context.Context, domain models.ResearchDomain, _ string, _ int) ([]models.ResearchCacheEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	var out []models.ResearchCacheEntry
	for _, e := range f.entries {
		if e.Domain == domain {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeCache) StoreResearch(_ context.Context, entries []models.ResearchCacheEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stores++
	if f.storeErr != nil {
		return f.storeErr
	}
	f.entries = append(f.entries, entries...)
	return nil
}

func (f *fakeCache) snapshot() []models.ResearchCacheEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.ResearchCacheEntry(nil), f.entries...)
}

type fakeProvider struct {
	results []models.ResearchResult
	err     error
	calls   atomic.Int32
}

func (f *fakeProvider) Research(ctx context.Context, _ string, _ []models.ResearchSource, _ int) ([]models.ResearchResult, error) {
	f.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.results, f.err
}

type fakeGenerator struct {
	draft models.TemplateRecommendation
	err   error
	calls atomic.Int32
}

func (f *fakeGenerator) Generate(_ context.Context, _ models.ProcessRequirements, _ models.GenerationContext) (models.TemplateRecommendation, error) {
	f.calls.Add(1)
	return f.draft, f.err
}

type fakeRepo struct {
	mu        sync.Mutex
	templates map[string]models.StoredTemplate
	saves     int
}

func newFakeRepo(stored ...models.StoredTemplate) *fakeRepo {
	r := &fakeRepo{templates: make(map[string]models.StoredTemplate)}
	for _, s := range stored {
		r.templates[s.Template.ID] = s
	}
	return r
}

func (r *fakeRepo) GetTemplate(_ context.Context, id string) (*models.StoredTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.templates[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (r *fakeRepo) SaveTemplate(_ context.Context, t models.StoredTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	r.templates[t.Template.ID] = t
	return nil
}

// searchFixture wires a SearchService over fakes. A nil knowledge, cache or
// provider leaves that collaborator unset.
type searchFixture struct {
	search    *SearchService
	orch      *CacheOrchestrator
	collector *metrics.Collector
}

func newSearchFixture(t *testing.T, kb KnowledgeSource, cache ResearchCache, provider ResearchProvider) searchFixture {
	t.Helper()
	logger := testLogger()
	collector := metrics.NewCollector()
	now := func() time.Time { return testNow }

	orch := NewCacheOrchestrator(cache, provider, NewJobManager(logger), collector, logger, CacheOptions{
		SourceTimeout:  50 * time.Millisecond,
		RefreshTimeout: time.Second,
		Now:            now,
	})
	search := NewSearchService(kb, orch, collector, logger, SearchOptions{
		SourceTimeout: 50 * time.Millisecond,
		Now:           now,
	})

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, orch.Jobs().Wait(ctx))
	})
	return searchFixture{search: search, orch: orch, collector: collector}
}

func (f searchFixture) waitJobs(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.orch.Jobs().Wait(ctx))
}

func cacheEntry(domain models.ResearchDomain, title, content, url string, relevance float64) models.ResearchCacheEntry {
	return models.ResearchCacheEntry{
		ID:             "cache-" + title,
		Domain:         domain,
		Title:          title,
		Content:        content,
		URL:            url,
		RelevanceScore: relevance,
		Source:         models.ResearchWeb,
		CreatedAt:      testNow.Add(-24 * time.Hour),
		ExpiresAt:      testNow.Add(24 * time.Hour),
	}
}
