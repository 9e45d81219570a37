// Package app wires configuration, storage and the LLM into the services
// shared by the CLI and the MCP server.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/raphaelgruber/procwise/internal/config"
	"github.com/raphaelgruber/procwise/internal/db"
	"github.com/raphaelgruber/procwise/internal/llm"
	"github.com/raphaelgruber/procwise/internal/metrics"
	"github.com/raphaelgruber/procwise/internal/research"
	"github.com/raphaelgruber/procwise/internal/service"
	"github.com/raphaelgruber/procwise/internal/tools"
)

// Backends are the infrastructure adapters the services run on. A nil
// field disables the features that need it.
type Backends struct {
	Knowledge service.KnowledgeSource
	Cache     service.ResearchCache
	Templates service.TemplateRepository
	LLM       llm.Generator
}

// App holds the wired services.
type App struct {
	Search       *service.SearchService
	Templates    *service.TemplateService
	Orchestrator *service.CacheOrchestrator
	Jobs         *service.JobManager
	Metrics      *metrics.Collector
	// Breaker guards live research. Nil when disabled or without an LLM.
	Breaker *research.Breaker
	// DB is set by Open only.
	DB     *db.Client
	Model  string
	Logger *slog.Logger
}

// Build assembles the services over the given backends.
func Build(cfg config.Config, b Backends, collector *metrics.Collector, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	if collector == nil {
		collector = metrics.NewCollector()
	}

	a := &App{Metrics: collector, Logger: logger}

	var generator service.TemplateGenerator
	var provider service.ResearchProvider
	if b.LLM != nil {
		generator = llm.NewTemplateDrafter(b.LLM, logger)
		researcher := llm.NewResearcher(b.LLM, logger)
		if cfg.ResearchBreaker {
			a.Breaker = research.NewBreaker(researcher, research.DefaultBreakerConfig("live-research"), logger)
			provider = a.Breaker
		} else {
			provider = researcher
		}
	}

	a.Jobs = service.NewJobManager(logger)
	a.Orchestrator = service.NewCacheOrchestrator(b.Cache, provider, a.Jobs, collector, logger, service.CacheOptions{
		SourceTimeout:    cfg.SourceTimeout,
		RefreshTimeout:   cfg.RefreshTimeout,
		BestPracticesTTL: cfg.BestPracticesTTL,
		ComplianceTTL:    cfg.ComplianceTTL,
		BenchmarksTTL:    cfg.BenchmarksTTL,
	})
	a.Search = service.NewSearchService(b.Knowledge, a.Orchestrator, collector, logger, service.SearchOptions{
		SourceTimeout: cfg.SourceTimeout,
	})
	a.Templates = service.NewTemplateService(generator, a.Search, b.Templates, collector, logger)
	return a
}

// Open connects to SurrealDB, initializes the schema and the LLM, and
// builds the services. An LLM that cannot be initialized is logged and
// leaves generation and live research disabled.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	collector := metrics.NewCollector()

	dbClient, err := db.NewClient(ctx, db.Config{
		URL:       cfg.SurrealDBURL,
		Namespace: cfg.SurrealDBNamespace,
		Database:  cfg.SurrealDBDatabase,
		Username:  cfg.SurrealDBUser,
		Password:  cfg.SurrealDBPass,
		AuthLevel: cfg.SurrealDBAuthLevel,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := dbClient.InitSchema(ctx); err != nil {
		_ = dbClient.Close(ctx)
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	backends := Backends{Knowledge: dbClient, Cache: dbClient, Templates: dbClient}
	modelName := ""
	model, err := llm.NewModel(ctx, cfg, collector, logger)
	if err != nil {
		logger.Warn("LLM unavailable, generation and live research disabled",
			"provider", cfg.LLMProvider, "error", err)
	} else {
		backends.LLM = model
		modelName = model.Model()
	}

	a := Build(cfg, backends, collector, logger)
	a.DB = dbClient
	a.Model = modelName
	logger.Info("services ready",
		"llm_provider", cfg.LLMProvider,
		"llm_model", modelName,
		"research_breaker", a.Breaker != nil)
	return a, nil
}

// ToolDependencies exposes the services to the MCP tools.
func (a *App) ToolDependencies() *tools.Dependencies {
	deps := &tools.Dependencies{
		Search:    a.Search,
		Templates: a.Templates,
		Jobs:      a.Jobs,
		Metrics:   a.Metrics,
		Logger:    a.Logger,
	}
	if a.Breaker != nil {
		deps.Breaker = a.Breaker
	}
	return deps
}

// Close waits for background research until ctx is done, then closes the
// database connection.
func (a *App) Close(ctx context.Context) error {
	if err := a.Jobs.Wait(ctx); err != nil {
		a.Logger.Warn("background research still running at shutdown", "error", err)
	}
	if a.DB == nil {
		return nil
	}
	if err := a.DB.Close(ctx); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
