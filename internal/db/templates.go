package db

import (
	"context"
	"fmt"

	"github.com/raphaelgruber/procwise/internal/models"
	"github.com/surrealdb/surrealdb.go"
)

// GetTemplate loads a stored template. Returns nil, nil if not found.
func (c *Client) GetTemplate(ctx context.Context, id string) (*models.StoredTemplate, error) {
	results, err := surrealdb.Query[[]templateRow](ctx, c.db, `
		SELECT * FROM type::record("process_template", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get template: %w", wrapQueryError(err))
	}

	rows := firstResult(results)
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].stored()
}

// SaveTemplate creates or replaces a stored template keyed by its template ID.
func (c *Client) SaveTemplate(ctx context.Context, t models.StoredTemplate) error {
	if t.Template.ID == "" {
		return fmt.Errorf("save template: %w: template id is empty", ErrInvalidRecord)
	}

	vars := map[string]any{
		"id":         t.Template.ID,
		"owner_id":   t.OwnerID,
		"template":   t.Template,
		"updated_at": t.UpdatedAt.UTC(),
	}
	finalized := "NONE"
	if t.FinalizedAt != nil {
		finalized = "$finalized_at"
		vars["finalized_at"] = t.FinalizedAt.UTC()
	}

	sql := fmt.Sprintf(`
		UPSERT type::record("process_template", $id) SET
			owner_id = $owner_id,
			template = $template,
			updated_at = $updated_at,
			finalized_at = %s
		RETURN NONE
	`, finalized)
	if _, err := surrealdb.Query[any](ctx, c.db, sql, vars); err != nil {
		return fmt.Errorf("save template %s: %w", t.Template.ID, wrapQueryError(err))
	}
	return nil
}

// ListTemplates returns the templates owned by ownerID, most recently
// updated first.
func (c *Client) ListTemplates(ctx context.Context, ownerID string, limit int) ([]models.StoredTemplate, error) {
	results, err := surrealdb.Query[[]templateRow](ctx, c.db, `
		SELECT * FROM process_template
		WHERE owner_id = $owner
		ORDER BY updated_at DESC
		LIMIT $limit
	`, map[string]any{"owner": ownerID, "limit": limit})
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", wrapQueryError(err))
	}

	rows := firstResult(results)
	out := make([]models.StoredTemplate, 0, len(rows))
	for _, r := range rows {
		st, err := r.stored()
		if err != nil {
			return nil, err
		}
		out = append(out, *st)
	}
	return out, nil
}
