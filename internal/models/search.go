package models

import "time"

// SearchFilters narrows search results. Empty fields do not filter.
type SearchFilters struct {
	Industry    string     `json:"industry,omitempty"`
	ProcessType string     `json:"process_type,omitempty"`
	Complexity  Complexity `json:"complexity,omitempty"`
	Severity    Severity   `json:"severity,omitempty"`
	Region      string     `json:"region,omitempty"`
	CompanySize string     `json:"company_size,omitempty"`
	Category    string     `json:"category,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
}

// SearchResponse is the result of one domain search.
// TotalResults is the fused count before the limit was applied.
type SearchResponse[T any] struct {
	Query        string        `json:"query"`
	Results      []T           `json:"results"`
	TotalResults int           `json:"total_results"`
	SearchedAt   time.Time     `json:"searched_at"`
	Filters      SearchFilters `json:"filters"`
}
