package models

import "time"

// ResearchSource classifies the origin of a research result.
type ResearchSource string

const (
	ResearchWeb           ResearchSource = "web"
	ResearchDocumentation ResearchSource = "documentation"
	ResearchGitHub        ResearchSource = "github"
	ResearchStackOverflow ResearchSource = "stackoverflow"
	ResearchOther         ResearchSource = "other"
)

// ResearchDomain selects the knowledge domain a research call serves.
// The domain decides the cache TTL.
type ResearchDomain string

const (
	DomainBestPractices ResearchDomain = "best_practices"
	DomainCompliance    ResearchDomain = "compliance"
	DomainBenchmarks    ResearchDomain = "benchmarks"
)

// ResearchResult is one item returned by a research provider.
type ResearchResult struct {
	Title     string  `json:"title"`
	Content   string  `json:"content"`
	URL       string  `json:"url"`
	Relevance float64 `json:"relevance"`
}

// ResearchCacheEntry is a cached research result.
// Entries are never deleted on expiry; readers skip expired entries.
type ResearchCacheEntry struct {
	ID             string         `json:"id"`
	Query          string         `json:"query"`
	Domain         ResearchDomain `json:"domain,omitempty"`
	URL            string         `json:"url"`
	Title          string         `json:"title"`
	Content        string         `json:"content"`
	RelevanceScore float64        `json:"relevance_score"`
	Source         ResearchSource `json:"source"`
	CreatedAt      time.Time      `json:"created_at"`
	ExpiresAt      time.Time      `json:"expires_at"`
}

// Expired reports whether the entry is stale at now.
func (e ResearchCacheEntry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}
