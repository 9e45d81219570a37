package db

import (
	"context"
	"fmt"
	"time"

	"github.com/raphaelgruber/procwise/internal/models"
	"github.com/surrealdb/surrealdb.go"
)

// LookupResearch returns unexpired cache entries for domain and query, most
// relevant first.
func (c *Client) LookupResearch(ctx context.Context, domain models.ResearchDomain, query string, limit int) ([]models.ResearchCacheEntry, error) {
	sql := `
		SELECT * FROM research_cache
		WHERE domain = $domain AND query = $query AND expires_at > time::now()
		ORDER BY relevance_score DESC
		LIMIT $limit
	`
	results, err := surrealdb.Query[[]researchRow](ctx, c.db, sql, map[string]any{
		"domain": string(domain),
		"query":  query,
		"limit":  limit,
	})
	if err != nil {
		return nil, fmt.Errorf("lookup research: %w", wrapQueryError(err))
	}

	rows := firstResult(results)
	out := make([]models.ResearchCacheEntry, 0, len(rows))
	for _, r := range rows {
		e, err := r.entry()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// StoreResearch upserts entries in a single transaction.
func (c *Client) StoreResearch(ctx context.Context, entries []models.ResearchCacheEntry) error {
	if len(entries) == 0 {
		return nil
	}

	rows := make([]map[string]any, len(entries))
	for i, e := range entries {
		rows[i] = map[string]any{
			"id":              recordID(e.ID),
			"query":           e.Query,
			"domain":          string(e.Domain),
			"url":             e.URL,
			"title":           e.Title,
			"content":         e.Content,
			"relevance_score": e.RelevanceScore,
			"source":          string(e.Source),
			"created_at":      e.CreatedAt.UTC(),
			"expires_at":      e.ExpiresAt.UTC(),
		}
	}

	sql := `
		BEGIN TRANSACTION;
		FOR $row IN $rows {
			UPSERT type::record("research_cache", $row.id) SET
				query = $row.query,
				domain = $row.domain,
				url = $row.url,
				title = $row.title,
				content = $row.content,
				relevance_score = $row.relevance_score,
				source = $row.source,
				created_at = $row.created_at,
				expires_at = $row.expires_at
			RETURN NONE;
		};
		COMMIT TRANSACTION;
	`
	if _, err := surrealdb.Query[any](ctx, c.db, sql, map[string]any{"rows": rows}); err != nil {
		return fmt.Errorf("store research: %w", wrapQueryError(err))
	}
	c.logger.Debug("research cached", "entries", len(entries), "domain", entries[0].Domain)
	return nil
}

// CountFreshResearch counts unexpired cache entries per domain.
func (c *Client) CountFreshResearch(ctx context.Context, now time.Time) (map[models.ResearchDomain]int, error) {
	type countRow struct {
		Domain string `json:"domain"`
		Count  int    `json:"count"`
	}
	results, err := surrealdb.Query[[]countRow](ctx, c.db, `
		SELECT domain, count() AS count FROM research_cache
		WHERE expires_at > $now
		GROUP BY domain
	`, map[string]any{"now": now.UTC()})
	if err != nil {
		return nil, fmt.Errorf("count research: %w", wrapQueryError(err))
	}

	out := make(map[models.ResearchDomain]int)
	for _, r := range firstResult(results) {
		out[models.ResearchDomain(r.Domain)] = r.Count
	}
	return out, nil
}
