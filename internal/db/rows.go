package db

import (
	"fmt"
	"time"

	"github.com/raphaelgruber/procwise/internal/models"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// bestPracticeRow is a best_practice record as stored. Score is only set by
// full-text queries.
type bestPracticeRow struct {
	ID          surrealmodels.RecordID `json:"id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Category    string                 `json:"category"`
	Industry    string                 `json:"industry"`
	ProcessType string                 `json:"process_type"`
	Complexity  string                 `json:"complexity"`
	Tags        []string               `json:"tags"`
	URL         string                 `json:"url"`
	PublishedAt *time.Time             `json:"published_at,omitempty"`
	Confidence  *float64               `json:"confidence,omitempty"`
	Score       float64                `json:"score"`
}

type complianceRow struct {
	ID                 surrealmodels.RecordID `json:"id"`
	Title              string                 `json:"title"`
	Description        string                 `json:"description"`
	Category           string                 `json:"category"`
	Industry           string                 `json:"industry"`
	ProcessType        string                 `json:"process_type"`
	Tags               []string               `json:"tags"`
	URL                string                 `json:"url"`
	Confidence         *float64               `json:"confidence,omitempty"`
	Severity           string                 `json:"severity"`
	Region             string                 `json:"region"`
	RegulatoryBody     string                 `json:"regulatory_body"`
	EffectiveDate      *time.Time             `json:"effective_date,omitempty"`
	ComplianceDeadline *time.Time             `json:"compliance_deadline,omitempty"`
	RequiredActions    []string               `json:"required_actions"`
	Penalties          string                 `json:"penalties"`
	References         []string               `json:"references"`
	Score              float64                `json:"score"`
}

type benchmarkRow struct {
	ID          surrealmodels.RecordID `json:"id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Category    string                 `json:"category"`
	Industry    string                 `json:"industry"`
	ProcessType string                 `json:"process_type"`
	Tags        []string               `json:"tags"`
	URL         string                 `json:"url"`
	Confidence  *float64               `json:"confidence,omitempty"`
	MetricUnit  string                 `json:"metric_unit"`
	Values      models.Percentiles     `json:"benchmark_values"`
	SampleSize  *int                   `json:"sample_size,omitempty"`
	Year        int                    `json:"year"`
	CompanySize string                 `json:"company_size"`
	Region      string                 `json:"region"`
	Origin      string                 `json:"origin"`
	Methodology string                 `json:"methodology"`
	Score       float64                `json:"score"`
}

type researchRow struct {
	ID             surrealmodels.RecordID `json:"id"`
	Query          string                 `json:"query"`
	Domain         string                 `json:"domain"`
	URL            string                 `json:"url"`
	Title          string                 `json:"title"`
	Content        string                 `json:"content"`
	RelevanceScore float64                `json:"relevance_score"`
	Source         string                 `json:"source"`
	CreatedAt      time.Time              `json:"created_at"`
	ExpiresAt      time.Time              `json:"expires_at"`
}

type templateRow struct {
	ID          surrealmodels.RecordID        `json:"id"`
	OwnerID     string                        `json:"owner_id"`
	Template    models.TemplateRecommendation `json:"template"`
	UpdatedAt   time.Time                     `json:"updated_at"`
	FinalizedAt *time.Time                    `json:"finalized_at,omitempty"`
}

// relevances scales full-text scores so the best match gets 1. All-zero
// scores stay zero.
func relevances(scores []float64) []float64 {
	top := 0.0
	for _, s := range scores {
		top = max(top, s)
	}
	out := make([]float64, len(scores))
	if top <= 0 {
		return out
	}
	for i, s := range scores {
		out[i] = max(s, 0) / top
	}
	return out
}

// recordKey returns the key of a record ID. All procwise tables use
// string keys.
func recordKey(id surrealmodels.RecordID) (string, error) {
	key, ok := id.ID.(string)
	if !ok {
		return "", fmt.Errorf("%s key has type %T, want string", id.Table, id.ID)
	}
	return key, nil
}

func (r bestPracticeRow) record(relevance float64) (models.KnowledgeRecord, error) {
	id, err := recordKey(r.ID)
	if err != nil {
		return models.KnowledgeRecord{}, fmt.Errorf("best practice id: %w", err)
	}
	return models.KnowledgeRecord{
		ID:          id,
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
		Industry:    r.Industry,
		ProcessType: r.ProcessType,
		Complexity:  models.Complexity(r.Complexity),
		Tags:        r.Tags,
		Source:      models.SourceKnowledgeBase,
		URL:         r.URL,
		Relevance:   relevance,
		PublishedAt: r.PublishedAt,
		Confidence:  r.Confidence,
	}, nil
}

func (r complianceRow) record(relevance float64) (models.ComplianceRecord, error) {
	id, err := recordKey(r.ID)
	if err != nil {
		return models.ComplianceRecord{}, fmt.Errorf("compliance id: %w", err)
	}
	severity := models.Severity(r.Severity)
	if severity.Rank() == 0 {
		severity = models.SeverityMedium
	}
	return models.ComplianceRecord{
		KnowledgeRecord: models.KnowledgeRecord{
			ID:          id,
			Title:       r.Title,
			Description: r.Description,
			Category:    r.Category,
			Industry:    r.Industry,
			ProcessType: r.ProcessType,
			Tags:        r.Tags,
			Source:      models.SourceKnowledgeBase,
			URL:         r.URL,
			Relevance:   relevance,
			Confidence:  r.Confidence,
		},
		Severity:           severity,
		Region:             r.Region,
		RegulatoryBody:     r.RegulatoryBody,
		EffectiveDate:      r.EffectiveDate,
		ComplianceDeadline: r.ComplianceDeadline,
		RequiredActions:    r.RequiredActions,
		Penalties:          r.Penalties,
		References:         r.References,
	}, nil
}

func (r benchmarkRow) record(relevance float64) (models.BenchmarkRecord, error) {
	id, err := recordKey(r.ID)
	if err != nil {
		return models.BenchmarkRecord{}, fmt.Errorf("benchmark id: %w", err)
	}
	return models.BenchmarkRecord{
		KnowledgeRecord: models.KnowledgeRecord{
			ID:          id,
			Title:       r.Title,
			Description: r.Description,
			Category:    r.Category,
			Industry:    r.Industry,
			ProcessType: r.ProcessType,
			Tags:        r.Tags,
			Source:      models.SourceKnowledgeBase,
			URL:         r.URL,
			Relevance:   relevance,
			Confidence:  r.Confidence,
		},
		MetricUnit:  r.MetricUnit,
		Values:      r.Values,
		SampleSize:  r.SampleSize,
		Year:        r.Year,
		CompanySize: r.CompanySize,
		Region:      r.Region,
		Origin:      models.BenchmarkOrigin(r.Origin),
		Methodology: r.Methodology,
	}, nil
}

func (r researchRow) entry() (models.ResearchCacheEntry, error) {
	id, err := recordKey(r.ID)
	if err != nil {
		return models.ResearchCacheEntry{}, fmt.Errorf("research id: %w", err)
	}
	return models.ResearchCacheEntry{
		ID:             id,
		Query:          r.Query,
		Domain:         models.ResearchDomain(r.Domain),
		URL:            r.URL,
		Title:          r.Title,
		Content:        r.Content,
		RelevanceScore: r.RelevanceScore,
		Source:         models.ResearchSource(r.Source),
		CreatedAt:      r.CreatedAt,
		ExpiresAt:      r.ExpiresAt,
	}, nil
}

func (r templateRow) stored() (*models.StoredTemplate, error) {
	id, err := recordKey(r.ID)
	if err != nil {
		return nil, fmt.Errorf("template id: %w", err)
	}
	t := r.Template
	t.ID = id
	return &models.StoredTemplate{
		Template:    t,
		OwnerID:     r.OwnerID,
		UpdatedAt:   r.UpdatedAt,
		FinalizedAt: r.FinalizedAt,
	}, nil
}

// convertRows maps rows to domain values with relevance from their scores.
func convertRows[R, T any](rows []R, score func(R) float64, convert func(R, float64) (T, error)) ([]T, error) {
	scores := make([]float64, len(rows))
	for i, r := range rows {
		scores[i] = score(r)
	}
	rel := relevances(scores)

	out := make([]T, 0, len(rows))
	for i, r := range rows {
		v, err := convert(r, rel[i])
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// nonNil keeps SCHEMAFULL array fields from receiving NULL.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
