package tools

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterAll registers all tools with the MCP server.
// Called after server creation and before Run.
func RegisterAll(server *mcp.Server, deps *Dependencies) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "ping",
		Description: "Test tool - responds with pong or echoes input",
	}, NewPingHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_best_practices",
		Description: "Search process best practices across the knowledge base, cached research and optional live research",
	}, NewSearchBestPracticesHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_compliance",
		Description: "Search compliance requirements for an industry, most severe first. Industry is required",
	}, NewSearchComplianceHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_benchmarks",
		Description: "Search performance benchmarks with normalized percentile values. Industry is required",
	}, NewSearchBenchmarksHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "validate_template",
		Description: "Validate a process template: required fields, step dependencies, cycles and completeness",
	}, NewValidateTemplateHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "optimize_steps",
		Description: "Reorder template steps: critical-path steps first, then by dependency count",
	}, NewOptimizeStepsHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_recommendations",
		Description: "Generate a process template with alternatives from analyzed interview requirements",
	}, NewGenerateRecommendationsHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "save_template",
		Description: "Store a template for a user so it can be edited and finalized",
	}, NewSaveTemplateHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "modify_template",
		Description: "Add, update or remove steps of a stored template",
	}, NewModifyTemplateHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "finalize_template",
		Description: "Validate a stored template and mark it final when valid",
	}, NewFinalizeTemplateHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "research_jobs",
		Description: "Show background research refresh jobs, or one job by id",
	}, NewResearchJobsHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "stats",
		Description: "Runtime statistics: source latencies, failures and LLM token usage",
	}, NewStatsHandler(deps))
}
