package tools_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/raphaelgruber/procwise/internal/metrics"
	"github.com/raphaelgruber/procwise/internal/models"
	"github.com/raphaelgruber/procwise/internal/service"
	"github.com/raphaelgruber/procwise/internal/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubKnowledge struct{}

func (stubKnowledge) QueryBestPractices(context.Context, string, models.SearchFilters, int) ([]models.KnowledgeRecord, error) {
	return []models.KnowledgeRecord{{
		ID:          "bp-1",
		Title:       "Peer code review",
		Description: "Every change is reviewed by a second engineer before merge.",
		Source:      models.SourceKnowledgeBase,
		Relevance:   0.9,
	}}, nil
}

func (stubKnowledge) QueryCompliance(context.Context, string, models.SearchFilters, int) ([]models.ComplianceRecord, error) {
	return nil, nil
}

func (stubKnowledge) QueryBenchmarks(context.Context, string, models.SearchFilters, int) ([]models.BenchmarkRecord, error) {
	return nil, nil
}

type stubGenerator struct {
	draft models.TemplateRecommendation
}

func (g stubGenerator) Generate(context.Context, models.ProcessRequirements, models.GenerationContext) (models.TemplateRecommendation, error) {
	return g.draft, nil
}

type memRepo struct {
	mu        sync.Mutex
	templates map[string]models.StoredTemplate
}

func newMemRepo() *memRepo {
	return &memRepo{templates: make(map[string]models.StoredTemplate)}
}

func (r *memRepo) GetTemplate(_ context.Context, id string) (*models.StoredTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.templates[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (r *memRepo) SaveTemplate(_ context.Context, t models.StoredTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[t.Template.ID] = t
	return nil
}

func (r *memRepo) get(id string) (models.StoredTemplate, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.templates[id]
	return t, ok
}

func releaseDraft() models.TemplateRecommendation {
	return models.TemplateRecommendation{
		ID:          "tpl-release",
		Name:        "Release process",
		Description: "Ship a software release from planning to launch.",
		Steps: []models.TemplateStep{
			{ID: "plan", Name: "Plan", Duration: 4},
			{ID: "build", Name: "Build", Duration: 16, Dependencies: []string{"plan"}},
			{ID: "ship", Name: "Ship", Duration: 2, Dependencies: []string{"build"}},
		},
	}
}

type fixture struct {
	session   *mcp.ClientSession
	repo      *memRepo
	jobs      *service.JobManager
	collector *metrics.Collector
}

type fixedBreaker string

func (b fixedBreaker) State() string { return string(b) }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := testLogger()
	collector := metrics.NewCollector()
	jobs := service.NewJobManager(logger)
	repo := newMemRepo()

	orch := service.NewCacheOrchestrator(nil, nil, jobs, collector, logger, service.CacheOptions{})
	search := service.NewSearchService(stubKnowledge{}, orch, collector, logger, service.SearchOptions{})
	templates := service.NewTemplateService(stubGenerator{draft: releaseDraft()}, search, repo, collector, logger)

	deps := &tools.Dependencies{
		Search:    search,
		Templates: templates,
		Jobs:      jobs,
		Metrics:   collector,
		Breaker:   fixedBreaker("closed"),
		Logger:    logger,
	}
	return &fixture{
		session:   connect(t, deps),
		repo:      repo,
		jobs:      jobs,
		collector: collector,
	}
}

// connect runs an MCP server with every tool registered over in-memory
// transports and returns a connected client session.
func connect(t *testing.T, deps *tools.Dependencies) *mcp.ClientSession {
	t.Helper()

	server := mcp.NewServer(&mcp.Implementation{Name: "test-procwise", Version: "0.0.1-test"}, nil)
	tools.RegisterAll(server, deps)

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	ctx, cancel := context.WithCancel(context.Background())

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Run(ctx, serverTransport)
	}()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err, "client should connect successfully")

	t.Cleanup(func() {
		_ = session.Close()
		cancel()
		select {
		case <-serverErr:
		case <-time.After(2 * time.Second):
			t.Error("server did not stop")
		}
	})
	return session
}

func call(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := session.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func text(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, result.Content, 1)
	tc, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "content should be TextContent")
	return tc.Text
}

func decode[T any](t *testing.T, result *mcp.CallToolResult) T {
	t.Helper()
	require.False(t, result.IsError, "unexpected tool error: %s", text(t, result))
	var out T
	require.NoError(t, json.Unmarshal([]byte(text(t, result)), &out))
	return out
}

func TestToolsAreRegistered(t *testing.T) {
	f := newFixture(t)

	result, err := f.session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	names := make([]string, 0, len(result.Tools))
	for _, tool := range result.Tools {
		names = append(names, tool.Name)
		assert.NotEmpty(t, tool.Description, "tool %s", tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"ping",
		"search_best_practices", "search_compliance", "search_benchmarks",
		"validate_template", "optimize_steps", "generate_recommendations",
		"save_template", "modify_template", "finalize_template",
		"research_jobs", "stats",
	}, names)
}

func TestPingTool(t *testing.T) {
	f := newFixture(t)

	t.Run("pong", func(t *testing.T) {
		assert.Equal(t, "pong", text(t, call(t, f.session, "ping", map[string]any{})))
	})

	t.Run("echo", func(t *testing.T) {
		assert.Equal(t, "hello", text(t, call(t, f.session, "ping", map[string]any{"echo": "hello"})))
	})
}

func TestSearchTools(t *testing.T) {
	f := newFixture(t)

	t.Run("best practices come from the knowledge base", func(t *testing.T) {
		resp := decode[models.SearchResponse[models.KnowledgeRecord]](t,
			call(t, f.session, "search_best_practices", map[string]any{"query": "code review"}))

		assert.Equal(t, "code review", resp.Query)
		require.NotEmpty(t, resp.Results)
		assert.Equal(t, "Peer code review", resp.Results[0].Title)
	})

	t.Run("compliance without industry is rejected", func(t *testing.T) {
		result := call(t, f.session, "search_compliance", map[string]any{"query": "data retention"})
		assert.True(t, result.IsError)
		assert.Contains(t, text(t, result), "industry")
		assert.Contains(t, text(t, result), "Check the tool arguments")
	})

	t.Run("benchmarks with industry return an empty page", func(t *testing.T) {
		resp := decode[models.SearchResponse[models.BenchmarkRecord]](t,
			call(t, f.session, "search_benchmarks", map[string]any{"query": "cycle time", "industry": "tech"}))
		assert.Empty(t, resp.Results)
		assert.Equal(t, 0, resp.TotalResults)
	})

	snap := f.collector.Snapshot()
	require.NotNil(t, snap.KnowledgeQuery)
	assert.GreaterOrEqual(t, snap.KnowledgeQuery.Count, int64(2))
}

func TestValidateTemplateTool(t *testing.T) {
	f := newFixture(t)

	t.Run("valid template", func(t *testing.T) {
		report := decode[models.ValidationReport](t, call(t, f.session, "validate_template", map[string]any{
			"template": map[string]any{
				"name":        "Onboarding",
				"description": "Bring a new hire up to speed in the first week.",
				"steps": []map[string]any{
					{"id": "a", "name": "Accounts", "duration": 2},
					{"id": "b", "name": "Training", "duration": 8, "dependencies": []string{"a"}},
				},
			},
		}))
		assert.True(t, report.OverallValid)
		assert.Empty(t, report.Errors)
	})

	t.Run("cycle is reported as data", func(t *testing.T) {
		report := decode[models.ValidationReport](t, call(t, f.session, "validate_template", map[string]any{
			"template": map[string]any{
				"name":        "Loop",
				"description": "Two steps that wait for each other.",
				"steps": []map[string]any{
					{"id": "a", "name": "A", "duration": 1, "dependencies": []string{"b"}},
					{"id": "b", "name": "B", "duration": 1, "dependencies": []string{"a"}},
				},
			},
		}))
		assert.False(t, report.OverallValid)
		assert.False(t, report.StepsValid)

		var types []string
		for _, e := range report.Errors {
			types = append(types, e.Type)
		}
		assert.Contains(t, types, "circular_dependency")
	})
}

func TestOptimizeStepsTool(t *testing.T) {
	f := newFixture(t)

	t.Run("critical path first", func(t *testing.T) {
		steps := decode[[]models.TemplateStep](t, call(t, f.session, "optimize_steps", map[string]any{
			"steps": []map[string]any{
				{"id": "build", "name": "Build", "dependencies": []string{"design", "kickoff"}},
				{"id": "design", "name": "Design", "dependencies": []string{"kickoff"}},
				{"id": "launch", "name": "Launch", "dependencies": []string{"build"}},
				{"id": "kickoff", "name": "Kickoff"},
			},
		}))

		ids := make([]string, len(steps))
		for i, s := range steps {
			ids[i] = s.ID
		}
		assert.Equal(t, []string{"kickoff", "launch", "design", "build"}, ids)
		assert.True(t, steps[0].CriticalPath)
		assert.False(t, steps[3].CriticalPath)
	})

	t.Run("empty steps", func(t *testing.T) {
		result := call(t, f.session, "optimize_steps", map[string]any{"steps": []any{}})
		assert.True(t, result.IsError)
		assert.Contains(t, text(t, result), "Steps cannot be empty")
	})
}

func generateArgs(userID string) map[string]any {
	args := map[string]any{
		"analysis": map[string]any{
			"requirements": map[string]any{
				"process_name": "Release process",
				"industry":     "tech",
				"process_type": "software",
			},
		},
	}
	if userID != "" {
		args["user_id"] = userID
	}
	return args
}

func TestGenerateRecommendationsTool(t *testing.T) {
	f := newFixture(t)

	recs := decode[[]models.TemplateRecommendation](t,
		call(t, f.session, "generate_recommendations", generateArgs("alice")))

	require.Len(t, recs, 1)
	rec := recs[0]
	assert.Equal(t, "tpl-release", rec.ID)
	assert.Len(t, rec.Steps, 3)
	assert.InDelta(t, 22.0, rec.EstimatedDuration, 1e-9)
	assert.NotEmpty(t, rec.Alternatives)
	assert.Contains(t, rec.Rationale, "Aligned with best practice: Peer code review")

	stored, ok := f.repo.get("tpl-release")
	require.True(t, ok, "template should be saved for the user")
	assert.Equal(t, "alice", stored.OwnerID)
}

func TestTemplateLifecycleTools(t *testing.T) {
	f := newFixture(t)
	decode[[]models.TemplateRecommendation](t, call(t, f.session, "generate_recommendations", generateArgs("alice")))

	t.Run("other users cannot modify", func(t *testing.T) {
		result := call(t, f.session, "modify_template", map[string]any{
			"user_id":       "mallory",
			"template_id":   "tpl-release",
			"modifications": []map[string]any{{"op": "remove_step", "step_id": "ship"}},
		})
		assert.True(t, result.IsError)
		assert.Contains(t, text(t, result), "Only the owner")
	})

	t.Run("missing template", func(t *testing.T) {
		result := call(t, f.session, "modify_template", map[string]any{
			"user_id":       "alice",
			"template_id":   "nope",
			"modifications": []map[string]any{{"op": "remove_step", "step_id": "ship"}},
		})
		assert.True(t, result.IsError)
		assert.Contains(t, text(t, result), "not found")
	})

	t.Run("owner adds a step", func(t *testing.T) {
		rec := decode[models.TemplateRecommendation](t, call(t, f.session, "modify_template", map[string]any{
			"user_id":     "alice",
			"template_id": "tpl-release",
			"modifications": []map[string]any{{
				"op":   "add_step",
				"step": map[string]any{"id": "announce", "name": "Announce", "duration": 1, "dependencies": []string{"ship"}},
			}},
		}))
		assert.Len(t, rec.Steps, 4)
		assert.InDelta(t, 23.0, rec.EstimatedDuration, 1e-9)
	})

	t.Run("finalize", func(t *testing.T) {
		report := decode[models.ValidationReport](t, call(t, f.session, "finalize_template", map[string]any{
			"user_id":     "alice",
			"template_id": "tpl-release",
		}))
		assert.True(t, report.OverallValid)

		stored, ok := f.repo.get("tpl-release")
		require.True(t, ok)
		assert.NotNil(t, stored.FinalizedAt)
	})
}

func TestSaveTemplateTool(t *testing.T) {
	f := newFixture(t)

	t.Run("requires id", func(t *testing.T) {
		result := call(t, f.session, "save_template", map[string]any{
			"user_id":  "alice",
			"template": map[string]any{"name": "No id", "steps": []any{}},
		})
		assert.True(t, result.IsError)
		assert.Contains(t, text(t, result), "Template id cannot be empty")
	})

	t.Run("requires user", func(t *testing.T) {
		result := call(t, f.session, "save_template", map[string]any{
			"user_id":  " ",
			"template": map[string]any{"id": "t1", "name": "Anon", "steps": []any{}},
		})
		assert.True(t, result.IsError)
		assert.Contains(t, text(t, result), "user id is required")
	})

	t.Run("stores", func(t *testing.T) {
		result := call(t, f.session, "save_template", map[string]any{
			"user_id": "bob",
			"template": map[string]any{
				"id":    "t1",
				"name":  "Hiring",
				"steps": []map[string]any{{"id": "s", "name": "Screen", "duration": 1}},
			},
		})
		require.False(t, result.IsError, text(t, result))
		assert.Equal(t, "saved t1", text(t, result))

		stored, ok := f.repo.get("t1")
		require.True(t, ok)
		assert.Equal(t, "bob", stored.OwnerID)
		assert.Equal(t, "Hiring", stored.Template.Name)
	})
}

func TestResearchJobsTool(t *testing.T) {
	f := newFixture(t)
	job := f.jobs.CreateJob(service.JobTypeResearch, models.DomainCompliance, "gdpr tech compliance requirements")

	t.Run("list", func(t *testing.T) {
		jobs := decode[[]service.Job](t, call(t, f.session, "research_jobs", map[string]any{}))
		require.Len(t, jobs, 1)
		assert.Equal(t, job.ID, jobs[0].ID)
	})

	t.Run("by id", func(t *testing.T) {
		got := decode[service.Job](t, call(t, f.session, "research_jobs", map[string]any{"job_id": job.ID}))
		assert.Equal(t, "gdpr tech compliance requirements", got.Query)
	})

	t.Run("unknown id", func(t *testing.T) {
		result := call(t, f.session, "research_jobs", map[string]any{"job_id": "missing"})
		assert.True(t, result.IsError)
		assert.Contains(t, text(t, result), "Job not found: missing")
	})
}

func TestStatsTool(t *testing.T) {
	f := newFixture(t)
	f.collector.RecordLLMUsage(metrics.OpLLMCall, 5*time.Millisecond, 120, 30)

	out := decode[map[string]any](t, call(t, f.session, "stats", map[string]any{}))
	assert.Equal(t, "closed", out["research_breaker"])
	assert.Contains(t, out, "llm_call")
}

func TestToolsWithoutServices(t *testing.T) {
	session := connect(t, &tools.Dependencies{Logger: testLogger()})

	for name, args := range map[string]map[string]any{
		"search_best_practices": {"query": "x"},
		"optimize_steps":        {"steps": []map[string]any{{"name": "a"}}},
		"research_jobs":         {},
	} {
		t.Run(name, func(t *testing.T) {
			result := call(t, session, name, args)
			assert.True(t, result.IsError)
			assert.Contains(t, text(t, result), "is not configured")
		})
	}

	t.Run("ping names missing services", func(t *testing.T) {
		assert.Equal(t, "pong (unavailable: search, templates, jobs)", text(t, call(t, session, "ping", map[string]any{})))
	})
}
