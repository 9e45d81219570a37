package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/raphaelgruber/procwise/internal/models"
)

// ErrEmptyDraft is returned when the model proposes a template without steps.
var ErrEmptyDraft = errors.New("draft has no steps")

const drafterSystemPrompt = `You design business process templates.
Respond with a single JSON object and nothing else, using this shape:
{"name": string, "description": string,
 "steps": [{"id": string, "name": string, "description": string,
            "duration_hours": number, "dependencies": [step id],
            "artifacts": [string], "responsible": string}],
 "rationale": [string]}
Rules:
- ids are short kebab-case and unique
- dependencies only reference ids of earlier steps
- durations are realistic working hours
- respect every listed constraint`

// TemplateDrafter asks a model for a first template draft.
type TemplateDrafter struct {
	gen    Generator
	logger *slog.Logger
}

// NewTemplateDrafter creates a drafter backed by gen.
func NewTemplateDrafter(gen Generator, logger *slog.Logger) *TemplateDrafter {
	if logger == nil {
		logger = slog.Default()
	}
	return &TemplateDrafter{gen: gen, logger: logger}
}

type draftStep struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	DurationHours float64  `json:"duration_hours"`
	Dependencies  []string `json:"dependencies"`
	Artifacts     []string `json:"artifacts"`
	Responsible   string   `json:"responsible"`
}

type draft struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Steps       []draftStep `json:"steps"`
	Rationale   []string    `json:"rationale"`
}

// Generate drafts a template. Step durations are in hours.
func (d *TemplateDrafter) Generate(ctx context.Context, req models.ProcessRequirements, gc models.GenerationContext) (models.TemplateRecommendation, error) {
	raw, err := d.gen.GenerateWithSystem(ctx, drafterSystemPrompt, draftPrompt(req, gc))
	if err != nil {
		return models.TemplateRecommendation{}, fmt.Errorf("draft template: %w", err)
	}

	var out draft
	if err := parseJSON(raw, &out); err != nil {
		d.logger.Warn("unparseable template draft", "process", req.ProcessName, "error", err)
		return models.TemplateRecommendation{}, fmt.Errorf("parse template draft: %w", err)
	}
	if len(out.Steps) == 0 {
		return models.TemplateRecommendation{}, ErrEmptyDraft
	}

	rec := models.TemplateRecommendation{
		Name:        strings.TrimSpace(out.Name),
		Description: strings.TrimSpace(out.Description),
		Rationale:   out.Rationale,
		Complexity:  gc.Complexity,
	}
	if rec.Name == "" {
		rec.Name = req.ProcessName
	}
	if rec.Complexity == "" {
		rec.Complexity = req.Complexity
	}
	for _, s := range out.Steps {
		if strings.TrimSpace(s.Name) == "" {
			continue
		}
		rec.Steps = append(rec.Steps, models.TemplateStep{
			ID:           strings.TrimSpace(s.ID),
			Name:         strings.TrimSpace(s.Name),
			Description:  s.Description,
			Duration:     max(s.DurationHours, 0),
			Dependencies: s.Dependencies,
			Artifacts:    s.Artifacts,
			Responsible:  s.Responsible,
		})
	}
	if len(rec.Steps) == 0 {
		return models.TemplateRecommendation{}, ErrEmptyDraft
	}

	d.logger.Debug("template drafted", "process", req.ProcessName, "steps", len(rec.Steps))
	return rec, nil
}

func draftPrompt(req models.ProcessRequirements, gc models.GenerationContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Process: %s\n", req.ProcessName)
	writeField(&b, "Industry", firstNonEmpty(gc.Industry, req.Industry))
	writeField(&b, "Process type", firstNonEmpty(gc.ProcessType, req.ProcessType))
	writeField(&b, "Complexity", string(firstNonEmpty(gc.Complexity, req.Complexity)))
	writeList(&b, "Goals", req.Goals)
	writeList(&b, "Stakeholders", req.Stakeholders)
	writeList(&b, "Constraints", append(append([]string(nil), req.Constraints...), gc.Constraints...))
	for k, v := range gc.Preferences {
		fmt.Fprintf(&b, "Preference %s: %s\n", k, v)
	}
	b.WriteString("\nTemplate JSON:")
	return b.String()
}

func writeField(b *strings.Builder, label, value string) {
	if value != "" {
		fmt.Fprintf(b, "%s: %s\n", label, value)
	}
}

func writeList(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n", label)
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
}

func firstNonEmpty[T ~string](vals ...T) T {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
