package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/raphaelgruber/procwise/internal/models"
	"github.com/surrealdb/surrealdb.go"
)

// searchSQL ranks a knowledge table by BM25 over title and description.
// The table name comes from the fixed Table* constants, never from input.
func searchSQL(table string) string {
	return fmt.Sprintf(`
		SELECT *, (search::score(0) + search::score(1)) AS score
		FROM %s
		WHERE title @0@ $q OR description @1@ $q
		ORDER BY score DESC
		LIMIT $limit
	`, table)
}

func searchVars(query string, limit int) map[string]any {
	return map[string]any{
		"q":     strings.TrimSpace(query),
		"limit": limit,
	}
}

func firstResult[T any](results *[]surrealdb.QueryResult[[]T]) []T {
	if results == nil || len(*results) == 0 {
		return nil
	}
	return (*results)[0].Result
}

// QueryBestPractices full-text searches best practices. Filters are applied
// by the caller; relevance is the BM25 score relative to the best match.
func (c *Client) QueryBestPractices(ctx context.Context, query string, _ models.SearchFilters, limit int) ([]models.KnowledgeRecord, error) {
	results, err := surrealdb.Query[[]bestPracticeRow](ctx, c.db, searchSQL(TableBestPractice), searchVars(query, limit))
	if err != nil {
		return nil, fmt.Errorf("query best practices: %w", wrapQueryError(err))
	}
	return convertRows(firstResult(results),
		func(r bestPracticeRow) float64 { return r.Score },
		bestPracticeRow.record)
}

// QueryCompliance full-text searches compliance requirements.
func (c *Client) QueryCompliance(ctx context.Context, query string, _ models.SearchFilters, limit int) ([]models.ComplianceRecord, error) {
	results, err := surrealdb.Query[[]complianceRow](ctx, c.db, searchSQL(TableCompliance), searchVars(query, limit))
	if err != nil {
		return nil, fmt.Errorf("query compliance: %w", wrapQueryError(err))
	}
	return convertRows(firstResult(results),
		func(r complianceRow) float64 { return r.Score },
		complianceRow.record)
}

// QueryBenchmarks full-text searches benchmarks.
func (c *Client) QueryBenchmarks(ctx context.Context, query string, _ models.SearchFilters, limit int) ([]models.BenchmarkRecord, error) {
	results, err := surrealdb.Query[[]benchmarkRow](ctx, c.db, searchSQL(TableBenchmark), searchVars(query, limit))
	if err != nil {
		return nil, fmt.Errorf("query benchmarks: %w", wrapQueryError(err))
	}
	return convertRows(firstResult(results),
		func(r benchmarkRow) float64 { return r.Score },
		benchmarkRow.record)
}

func recordID(id string) string {
	if id = strings.TrimSpace(id); id != "" {
		return id
	}
	return uuid.New().String()
}

// UpsertBestPractice creates or replaces a best practice and returns its ID.
func (c *Client) UpsertBestPractice(ctx context.Context, r models.KnowledgeRecord) (string, error) {
	id := recordID(r.ID)
	sql := `
		UPSERT type::record("best_practice", $id) SET
			title = $title,
			description = $description,
			category = $category,
			industry = $industry,
			process_type = $process_type,
			complexity = $complexity,
			tags = $tags,
			url = $url,
			published_at = $published_at,
			confidence = $confidence
		RETURN NONE
	`
	_, err := surrealdb.Query[any](ctx, c.db, sql, map[string]any{
		"id":           id,
		"title":        r.Title,
		"description":  r.Description,
		"category":     r.Category,
		"industry":     r.Industry,
		"process_type": r.ProcessType,
		"complexity":   string(r.Complexity),
		"tags":         nonNil(r.Tags),
		"url":          r.URL,
		"published_at": r.PublishedAt,
		"confidence":   r.Confidence,
	})
	if err != nil {
		return "", fmt.Errorf("upsert best practice %s: %w", id, wrapQueryError(err))
	}
	return id, nil
}

// UpsertCompliance creates or replaces a compliance requirement.
func (c *Client) UpsertCompliance(ctx context.Context, r models.ComplianceRecord) (string, error) {
	id := recordID(r.ID)
	severity := r.Severity
	if severity.Rank() == 0 {
		severity = models.SeverityMedium
	}
	sql := `
		UPSERT type::record("compliance", $id) SET
			title = $title,
			description = $description,
			category = $category,
			industry = $industry,
			process_type = $process_type,
			tags = $tags,
			url = $url,
			confidence = $confidence,
			severity = $severity,
			region = $region,
			regulatory_body = $regulatory_body,
			effective_date = $effective_date,
			compliance_deadline = $compliance_deadline,
			required_actions = $required_actions,
			penalties = $penalties,
			references = $references
		RETURN NONE
	`
	_, err := surrealdb.Query[any](ctx, c.db, sql, map[string]any{
		"id":                  id,
		"title":               r.Title,
		"description":         r.Description,
		"category":            r.Category,
		"industry":            r.Industry,
		"process_type":        r.ProcessType,
		"tags":                nonNil(r.Tags),
		"url":                 r.URL,
		"confidence":          r.Confidence,
		"severity":            string(severity),
		"region":              r.Region,
		"regulatory_body":     r.RegulatoryBody,
		"effective_date":      r.EffectiveDate,
		"compliance_deadline": r.ComplianceDeadline,
		"required_actions":    nonNil(r.RequiredActions),
		"penalties":           r.Penalties,
		"references":          nonNil(r.References),
	})
	if err != nil {
		return "", fmt.Errorf("upsert compliance %s: %w", id, wrapQueryError(err))
	}
	return id, nil
}

// UpsertBenchmark creates or replaces a benchmark.
func (c *Client) UpsertBenchmark(ctx context.Context, r models.BenchmarkRecord) (string, error) {
	id := recordID(r.ID)
	sql := `
		UPSERT type::record("benchmark", $id) SET
			title = $title,
			description = $description,
			category = $category,
			industry = $industry,
			process_type = $process_type,
			tags = $tags,
			url = $url,
			confidence = $confidence,
			metric_unit = $metric_unit,
			benchmark_values = $benchmark_values,
			sample_size = $sample_size,
			year = $year,
			company_size = $company_size,
			region = $region,
			origin = $origin,
			methodology = $methodology
		RETURN NONE
	`
	_, err := surrealdb.Query[any](ctx, c.db, sql, map[string]any{
		"id":               id,
		"title":            r.Title,
		"description":      r.Description,
		"category":         r.Category,
		"industry":         r.Industry,
		"process_type":     r.ProcessType,
		"tags":             nonNil(r.Tags),
		"url":              r.URL,
		"confidence":       r.Confidence,
		"metric_unit":      r.MetricUnit,
		"benchmark_values": r.Values,
		"sample_size":      r.SampleSize,
		"year":             r.Year,
		"company_size":     r.CompanySize,
		"region":           r.Region,
		"origin":           string(r.Origin),
		"methodology":      r.Methodology,
	})
	if err != nil {
		return "", fmt.Errorf("upsert benchmark %s: %w", id, wrapQueryError(err))
	}
	return id, nil
}
