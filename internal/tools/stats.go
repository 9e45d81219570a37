package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/raphaelgruber/procwise/internal/metrics"
)

// StatsInput defines the input schema for stats.
type StatsInput struct{}

// StatsOutput is the stats tool payload.
type StatsOutput struct {
	metrics.Snapshot
	ResearchBreaker string `json:"research_breaker,omitempty"`
}

// NewStatsHandler creates the stats handler.
func NewStatsHandler(deps *Dependencies) mcp.ToolHandlerFor[StatsInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input StatsInput) (*mcp.CallToolResult, any, error) {
		if deps == nil {
			return unavailable("Metrics"), nil, nil
		}
		out := StatsOutput{Snapshot: deps.Metrics.Snapshot()}
		if deps.Breaker != nil {
			out.ResearchBreaker = deps.Breaker.State()
		}
		return JSONResult(out), nil, nil
	}
}
