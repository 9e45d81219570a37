package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/raphaelgruber/procwise/internal/models"
)

const researcherSystemPrompt = `You are a research assistant for business process design.
Answer with a JSON array and nothing else. Each element:
{"title": string, "content": string, "url": string, "relevance": number between 0 and 1}
Prefer authoritative sources: standards bodies, regulators, vendor documentation.
Only cite URLs you are confident exist.`

// Researcher answers research queries from model knowledge.
type Researcher struct {
	gen    Generator
	logger *slog.Logger
}

// NewResearcher creates a researcher backed by gen.
func NewResearcher(gen Generator, logger *slog.Logger) *Researcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Researcher{gen: gen, logger: logger}
}

type finding struct {
	Title     string  `json:"title"`
	Content   string  `json:"content"`
	URL       string  `json:"url"`
	Relevance float64 `json:"relevance"`
}

// Research returns at most maxResults findings with relevance in [0, 1].
func (r *Researcher) Research(ctx context.Context, query string, sources []models.ResearchSource, maxResults int) ([]models.ResearchResult, error) {
	if maxResults <= 0 {
		return nil, nil
	}

	raw, err := r.gen.GenerateWithSystem(ctx, researcherSystemPrompt, researchPrompt(query, sources, maxResults))
	if err != nil {
		return nil, fmt.Errorf("research %q: %w", query, err)
	}

	var found []finding
	if err := parseJSON(raw, &found); err != nil {
		return nil, fmt.Errorf("parse research results: %w", err)
	}

	out := make([]models.ResearchResult, 0, min(len(found), maxResults))
	for _, f := range found {
		if len(out) == maxResults {
			break
		}
		if strings.TrimSpace(f.Title) == "" && strings.TrimSpace(f.Content) == "" {
			continue
		}
		out = append(out, models.ResearchResult{
			Title:     strings.TrimSpace(f.Title),
			Content:   strings.TrimSpace(f.Content),
			URL:       strings.TrimSpace(f.URL),
			Relevance: min(max(f.Relevance, 0), 1),
		})
	}

	r.logger.Debug("research finished", "query", query, "results", len(out), "dropped", len(found)-len(out))
	return out, nil
}

func researchPrompt(query string, sources []models.ResearchSource, maxResults int) string {
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = string(s)
	}
	prompt := fmt.Sprintf("Query: %s\nReturn at most %d results.", query, maxResults)
	if len(names) > 0 {
		prompt += "\nFocus on these source kinds: " + strings.Join(names, ", ")
	}
	return prompt
}
