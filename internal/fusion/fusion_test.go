package fusion

import (
	"fmt"
	"testing"
	"time"

	"github.com/raphaelgruber/procwise/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func rec(id, title string, relevance float64) models.KnowledgeRecord {
	return models.KnowledgeRecord{ID: id, Title: title, Relevance: relevance, Source: models.SourceKnowledgeBase}
}

func recIDs[T Record](items []T) []string {
	out := make([]string, len(items))
	for i, r := range items {
		out[i] = r.Knowledge().ID
	}
	return out
}

func TestDedupKey(t *testing.T) {
	assert.Equal(t, "codereview", DedupKey("  Code\tReview\n"))
	assert.Equal(t, DedupKey("Code Review"), DedupKey("code  review"))
}

func TestMergeFirstSourceWins(t *testing.T) {
	kb := []models.KnowledgeRecord{rec("kb-1", "Code Review", 0.4)}
	live := []models.KnowledgeRecord{rec("live-1", "code review", 0.9), rec("live-2", "Pairing", 0.5)}
	cache := []models.KnowledgeRecord{rec("cache-1", "CodeReview", 1), rec("cache-2", "Retros", 0.2)}

	got := Merge(kb, live, cache)
	assert.Equal(t, []string{"kb-1", "live-2", "cache-2"}, recIDs(got))
}

func TestDedupeIsIdempotent(t *testing.T) {
	titles := []string{"Alpha", "alpha", "A lpha", "Beta", "BETA ", "Gamma"}
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 20).Draw(rt, "n")
		items := make([]models.KnowledgeRecord, n)
		for i := range items {
			items[i] = rec(fmt.Sprintf("r%d", i), rapid.SampledFrom(titles).Draw(rt, "title"), 0.5)
		}

		once := Dedupe(items, titleOf[models.KnowledgeRecord])
		twice := Dedupe(once, titleOf[models.KnowledgeRecord])
		if len(once) != len(twice) {
			rt.Fatalf("dedupe not idempotent: %d then %d", len(once), len(twice))
		}
		keys := make(map[string]bool)
		for _, r := range once {
			k := DedupKey(r.Title)
			if keys[k] {
				rt.Fatalf("duplicate key %q survived", k)
			}
			keys[k] = true
		}
	})
}

func TestSortByRelevanceIsStable(t *testing.T) {
	items := []models.KnowledgeRecord{rec("a", "A", 0.5), rec("b", "B", 0.9), rec("c", "C", 0.5), rec("d", "D", 0.1)}
	got := SortByRelevance(items)
	assert.Equal(t, []string{"b", "a", "c", "d"}, recIDs(got))
	assert.Equal(t, "a", items[0].ID, "input must not be reordered")
}

func TestSortByWeightedRelevance(t *testing.T) {
	high := rec("high-rel-low-conf", "A", 0.9).WithConfidence(0.2)
	mid := rec("mid", "B", 0.6).WithConfidence(0.9)
	noConf := rec("no-conf", "C", 0.5)

	got := SortByWeightedRelevance([]models.KnowledgeRecord{high, mid, noConf})
	assert.Equal(t, []string{"mid", "no-conf", "high-rel-low-conf"}, recIDs(got))
}

func compliance(id string, sev models.Severity, relevance float64, deadline *time.Time) models.ComplianceRecord {
	return models.ComplianceRecord{
		KnowledgeRecord:    rec(id, id, relevance),
		Severity:           sev,
		ComplianceDeadline: deadline,
	}
}

func TestSortComplianceBySeverity(t *testing.T) {
	items := []models.ComplianceRecord{
		compliance("low", models.SeverityLow, 0.5, nil),
		compliance("critical", models.SeverityCritical, 0.5, nil),
		compliance("medium", models.SeverityMedium, 0.5, nil),
	}
	assert.Equal(t, []string{"critical", "medium", "low"}, recIDs(SortCompliance(items)))
}

func TestSortComplianceTieBreakers(t *testing.T) {
	soon := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	later := soon.AddDate(1, 0, 0)

	items := []models.ComplianceRecord{
		compliance("no-deadline", models.SeverityHigh, 0.9, nil),
		compliance("later", models.SeverityHigh, 0.9, &later),
		compliance("soon-low-rel", models.SeverityHigh, 0.1, &soon),
		compliance("soon-high-rel", models.SeverityHigh, 0.8, &soon),
	}
	got := SortCompliance(items)
	assert.Equal(t, []string{"soon-high-rel", "soon-low-rel", "later", "no-deadline"}, recIDs(got))
}

func TestBoost(t *testing.T) {
	assert.InDelta(t, 0.6, Boost(0.5, 1.2), 1e-9)
	assert.Equal(t, 1.0, Boost(0.9, 1.5))
	assert.Equal(t, 0.0, Boost(-1, 1.1))
}

func TestPage(t *testing.T) {
	items := make([]int, 25)
	for i := range items {
		items[i] = i
	}

	tests := []struct {
		name    string
		limit   int
		wantLen int
	}{
		{"explicit limit", 5, 5},
		{"default limit", 0, DefaultLimit},
		{"limit above total", 100, 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, total := Page(items, tt.limit)
			assert.Len(t, page, tt.wantLen)
			assert.Equal(t, 25, total)
		})
	}
}

func TestPageEmpty(t *testing.T) {
	page, total := Page([]int(nil), 5)
	require.Empty(t, page)
	assert.Equal(t, 0, total)
}
