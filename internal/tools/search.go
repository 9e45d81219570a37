package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/raphaelgruber/procwise/internal/models"
	"github.com/raphaelgruber/procwise/internal/service"
)

// SearchInput defines the input schema shared by the search tools.
type SearchInput struct {
	Query       string   `json:"query" jsonschema:"The search query text"`
	Industry    string   `json:"industry,omitempty" jsonschema:"Industry filter, required for compliance and benchmarks"`
	ProcessType string   `json:"process_type,omitempty" jsonschema:"Process type filter"`
	Complexity  string   `json:"complexity,omitempty" jsonschema:"simple, medium, complex or very_complex"`
	Severity    string   `json:"severity,omitempty" jsonschema:"Compliance severity filter"`
	Region      string   `json:"region,omitempty" jsonschema:"Region filter, boosts matching results"`
	CompanySize string   `json:"company_size,omitempty" jsonschema:"Company size, boosts matching benchmarks"`
	Category    string   `json:"category,omitempty" jsonschema:"Category filter; for benchmarks also picks placeholder units"`
	Tags        []string `json:"tags,omitempty" jsonschema:"Results must carry at least one of these tags"`
	Limit       int      `json:"limit,omitempty" jsonschema:"Max results 1-100, default 20"`
	IncludeLive bool     `json:"include_live,omitempty" jsonschema:"Run live research now instead of refreshing the cache in the background"`
}

func (in SearchInput) request() service.SearchRequest {
	return service.SearchRequest{
		Query: in.Query,
		Filters: models.SearchFilters{
			Industry:    in.Industry,
			ProcessType: in.ProcessType,
			Complexity:  models.Complexity(in.Complexity),
			Severity:    models.Severity(in.Severity),
			Region:      in.Region,
			CompanySize: in.CompanySize,
			Category:    in.Category,
			Tags:        in.Tags,
		},
		Limit:       in.Limit,
		IncludeLive: in.IncludeLive,
	}
}

// searchHandler adapts one search use case to an MCP tool.
func searchHandler[T any](
	deps *Dependencies,
	name string,
	run func(*service.SearchService, context.Context, service.SearchRequest) (models.SearchResponse[T], error),
) mcp.ToolHandlerFor[SearchInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, any, error) {
		if deps == nil || deps.Search == nil {
			return unavailable("Search"), nil, nil
		}

		resp, err := run(deps.Search, ctx, input.request())
		if err != nil {
			deps.logger().Warn("search failed", "tool", name, "error", err)
			return ServiceError(err), nil, nil
		}

		deps.logger().Info("search completed",
			"tool", name,
			"query", truncate(input.Query, 30),
			"results", len(resp.Results),
			"total", resp.TotalResults)
		return JSONResult(resp), nil, nil
	}
}

// NewSearchBestPracticesHandler creates the search_best_practices handler.
func NewSearchBestPracticesHandler(deps *Dependencies) mcp.ToolHandlerFor[SearchInput, any] {
	return searchHandler(deps, "search_best_practices", (*service.SearchService).SearchBestPractices)
}

// NewSearchComplianceHandler creates the search_compliance handler.
func NewSearchComplianceHandler(deps *Dependencies) mcp.ToolHandlerFor[SearchInput, any] {
	return searchHandler(deps, "search_compliance", (*service.SearchService).SearchCompliance)
}

// NewSearchBenchmarksHandler creates the search_benchmarks handler.
func NewSearchBenchmarksHandler(deps *Dependencies) mcp.ToolHandlerFor[SearchInput, any] {
	return searchHandler(deps, "search_benchmarks", (*service.SearchService).SearchBenchmarks)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
