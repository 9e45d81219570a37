// Package tools exposes the procwise use cases as MCP tools.
package tools

import (
	"log/slog"

	"github.com/raphaelgruber/procwise/internal/metrics"
	"github.com/raphaelgruber/procwise/internal/service"
)

// BreakerState reports the live research circuit state.
type BreakerState interface {
	State() string
}

// Dependencies holds shared services for tool handlers.
// Passed to handler factories via closure capture. Nil services make the
// tools that need them report an error result.
type Dependencies struct {
	Search    *service.SearchService
	Templates *service.TemplateService
	Jobs      *service.JobManager
	Metrics   *metrics.Collector
	Breaker   BreakerState
	Logger    *slog.Logger
}

func (d *Dependencies) logger() *slog.Logger {
	if d == nil || d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

// missing lists the services the tools cannot reach.
func (d *Dependencies) missing() []string {
	if d == nil {
		return []string{"search", "templates", "jobs"}
	}
	var out []string
	if d.Search == nil {
		out = append(out, "search")
	}
	if d.Templates == nil {
		out = append(out, "templates")
	}
	if d.Jobs == nil {
		out = append(out, "jobs")
	}
	return out
}
