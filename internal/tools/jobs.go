package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/raphaelgruber/procwise/internal/service"
)

// ResearchJobsInput defines the input schema for research_jobs.
type ResearchJobsInput struct {
	JobID string `json:"job_id,omitempty" jsonschema:"Show a single job"`
}

// NewResearchJobsHandler creates the research_jobs handler.
func NewResearchJobsHandler(deps *Dependencies) mcp.ToolHandlerFor[ResearchJobsInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ResearchJobsInput) (*mcp.CallToolResult, any, error) {
		if deps == nil || deps.Jobs == nil {
			return unavailable("Job tracking"), nil, nil
		}

		if input.JobID != "" {
			job := deps.Jobs.GetJob(input.JobID)
			if job == nil {
				return ErrorResult("Job not found: "+input.JobID, "Call research_jobs without job_id to list jobs"), nil, nil
			}
			snap := job.Snapshot()
			return JSONResult(&snap), nil, nil
		}

		jobs := deps.Jobs.ListJobs()
		out := make([]service.Job, 0, len(jobs))
		for _, j := range jobs {
			out = append(out, j.Snapshot())
		}
		return JSONResult(out), nil, nil
	}
}
