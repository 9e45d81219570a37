package service

import (
	"context"

	"github.com/raphaelgruber/procwise/internal/models"
)

// KnowledgeSource queries the internal knowledge base.
// A failing source is treated as contributing no results.
type KnowledgeSource interface {
	QueryBestPractices(ctx context.Context, query string, filters models.SearchFilters, limit int) ([]models.KnowledgeRecord, error)
	QueryCompliance(ctx context.Context, query string, filters models.SearchFilters, limit int) ([]models.ComplianceRecord, error)
	QueryBenchmarks(ctx context.Context, query string, filters models.SearchFilters, limit int) ([]models.BenchmarkRecord, error)
}

// ResearchCache stores research results with an expiry.
// Lookup may return expired entries; callers filter by freshness.
type ResearchCache interface {
	LookupResearch(ctx context.Context, domain models.ResearchDomain, query string, limit int) ([]models.ResearchCacheEntry, error)
	StoreResearch(ctx context.Context, entries []models.ResearchCacheEntry) error
}

// ResearchProvider performs live research.
type ResearchProvider interface {
	Research(ctx context.Context, query string, sources []models.ResearchSource, maxResults int) ([]models.ResearchResult, error)
}

// TemplateGenerator drafts a template from requirements.
// Errors are hard failures: no template can be produced without it.
type TemplateGenerator interface {
	Generate(ctx context.Context, req models.ProcessRequirements, gc models.GenerationContext) (models.TemplateRecommendation, error)
}

// TemplateRepository persists templates per owner.
// GetTemplate returns nil, nil when the template does not exist.
type TemplateRepository interface {
	GetTemplate(ctx context.Context, id string) (*models.StoredTemplate, error)
	SaveTemplate(ctx context.Context, t models.StoredTemplate) error
}
