//go:build integration

package db

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/raphaelgruber/procwise/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var testDB *Client

// TestMain starts a SurrealDB container shared by every test in the package.
func TestMain(m *testing.M) {
	os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "surrealdb/surrealdb:v3.0.0-beta.1",
			ExposedPorts: []string{"8000/tcp"},
			Cmd:          []string{"start", "--log", "info", "--user", "root", "--pass", "root"},
			WaitingFor:   wait.ForLog("Started web server").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("Failed to start SurrealDB container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		log.Fatalf("Failed to get container host: %v", err)
	}
	if host == "" || host == "null" {
		host = "localhost"
	}
	port, err := container.MappedPort(ctx, "8000")
	if err != nil {
		log.Fatalf("Failed to get mapped port: %v", err)
	}

	testDB, err = NewClient(ctx, Config{
		URL:       fmt.Sprintf("ws://%s:%s/rpc", host, port.Port()),
		Namespace: "test",
		Database:  "test",
		Username:  "root",
		Password:  "root",
		AuthLevel: "root",
	}, nil)
	if err != nil {
		log.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := testDB.InitSchema(ctx); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	code := m.Run()

	_ = testDB.Close(ctx)
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func wipe(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	require.NoError(t, testDB.WipeData(ctx))
	return ctx
}

func TestInitSchemaIsIdempotent(t *testing.T) {
	ctx := wipe(t)
	assert.NoError(t, testDB.InitSchema(ctx))
}

func TestQueryBestPractices(t *testing.T) {
	ctx := wipe(t)

	_, err := testDB.UpsertBestPractice(ctx, models.KnowledgeRecord{
		ID:          "review",
		Title:       "Code review checklist",
		Description: "Every change gets a second pair of eyes",
		Industry:    "software",
		Tags:        []string{"quality"},
	})
	require.NoError(t, err)
	_, err = testDB.UpsertBestPractice(ctx, models.KnowledgeRecord{
		ID:          "onboarding",
		Title:       "Onboarding buddy",
		Description: "Pair new hires with a buddy",
	})
	require.NoError(t, err)

	got, err := testDB.QueryBestPractices(ctx, "review", models.SearchFilters{}, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "review", got[0].ID)
	assert.Equal(t, models.SourceKnowledgeBase, got[0].Source)
	assert.InDelta(t, 1.0, got[0].Relevance, 1e-9)
	assert.Equal(t, []string{"quality"}, got[0].Tags)
}

func TestUpsertReplacesRecord(t *testing.T) {
	ctx := wipe(t)

	rec := models.ComplianceRecord{
		KnowledgeRecord: models.KnowledgeRecord{ID: "hipaa", Title: "HIPAA breach notification", Description: "Notify within 60 days"},
		Severity:        models.SeverityHigh,
		RegulatoryBody:  "HHS",
	}
	_, err := testDB.UpsertCompliance(ctx, rec)
	require.NoError(t, err)

	rec.Severity = models.SeverityCritical
	_, err = testDB.UpsertCompliance(ctx, rec)
	require.NoError(t, err)

	got, err := testDB.QueryCompliance(ctx, "breach", models.SearchFilters{Industry: "healthcare"}, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.SeverityCritical, got[0].Severity)
	assert.Equal(t, "HHS", got[0].RegulatoryBody)
}

func TestQueryBenchmarks(t *testing.T) {
	ctx := wipe(t)

	size := 800
	_, err := testDB.UpsertBenchmark(ctx, models.BenchmarkRecord{
		KnowledgeRecord: models.KnowledgeRecord{ID: "hire", Title: "Time to hire", Description: "Days from opening to signed offer"},
		MetricUnit:      "days",
		Values:          models.Percentiles{P25: 20, P50: 30, P75: 40, P90: 55},
		SampleSize:      &size,
		Year:            2025,
		Origin:          models.OriginSurvey,
	})
	require.NoError(t, err)

	got, err := testDB.QueryBenchmarks(ctx, "hire", models.SearchFilters{}, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 30.0, got[0].Values.P50)
	require.NotNil(t, got[0].SampleSize)
	assert.Equal(t, 800, *got[0].SampleSize)
}

func TestResearchCache(t *testing.T) {
	ctx := wipe(t)
	now := time.Now().UTC().Truncate(time.Second)

	entries := []models.ResearchCacheEntry{
		{ID: "fresh-low", Query: "q", Domain: models.DomainCompliance, Title: "low", RelevanceScore: 0.3, Source: models.ResearchWeb, CreatedAt: now, ExpiresAt: now.Add(time.Hour)},
		{ID: "fresh-high", Query: "q", Domain: models.DomainCompliance, Title: "high", RelevanceScore: 0.9, Source: models.ResearchDocumentation, CreatedAt: now, ExpiresAt: now.Add(time.Hour)},
		{ID: "stale", Query: "q", Domain: models.DomainCompliance, Title: "stale", RelevanceScore: 1, Source: models.ResearchWeb, CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)},
		{ID: "other-domain", Query: "q", Domain: models.DomainBenchmarks, Title: "bench", RelevanceScore: 1, Source: models.ResearchWeb, CreatedAt: now, ExpiresAt: now.Add(time.Hour)},
	}
	require.NoError(t, testDB.StoreResearch(ctx, entries))

	got, err := testDB.LookupResearch(ctx, models.DomainCompliance, "q", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "fresh-high", got[0].ID)
	assert.Equal(t, "fresh-low", got[1].ID)
	assert.Equal(t, models.ResearchDocumentation, got[0].Source)

	counts, err := testDB.CountFreshResearch(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[models.DomainCompliance])
	assert.Equal(t, 1, counts[models.DomainBenchmarks])
}

func TestTemplates(t *testing.T) {
	ctx := wipe(t)
	now := time.Now().UTC().Truncate(time.Second)

	missing, err := testDB.GetTemplate(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	st := models.StoredTemplate{
		Template: models.TemplateRecommendation{
			ID:   "tpl-1",
			Name: "Release",
			Steps: []models.TemplateStep{
				{ID: "build", Name: "Build", Duration: 2},
				{ID: "ship", Name: "Ship", Duration: 1, Dependencies: []string{"build"}},
			},
			Complexity: models.ComplexitySimple,
		},
		OwnerID:   "user-1",
		UpdatedAt: now,
	}
	require.NoError(t, testDB.SaveTemplate(ctx, st))

	got, err := testDB.GetTemplate(ctx, "tpl-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "user-1", got.OwnerID)
	assert.Equal(t, []string{"build"}, got.Template.Steps[1].Dependencies)
	assert.Nil(t, got.FinalizedAt)

	st.FinalizedAt = &now
	require.NoError(t, testDB.SaveTemplate(ctx, st))
	got, err = testDB.GetTemplate(ctx, "tpl-1")
	require.NoError(t, err)
	require.NotNil(t, got.FinalizedAt)

	list, err := testDB.ListTemplates(ctx, "user-1", 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSaveTemplateRequiresID(t *testing.T) {
	ctx := wipe(t)
	err := testDB.SaveTemplate(ctx, models.StoredTemplate{OwnerID: "u"})
	assert.ErrorIs(t, err, ErrInvalidRecord)
}
