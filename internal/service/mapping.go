package service

import (
	"net/url"
	"slices"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/raphaelgruber/procwise/internal/models"
	"github.com/raphaelgruber/procwise/internal/normalize"
	"github.com/raphaelgruber/procwise/internal/scoring"
)

// researchItem is the common shape of cached and live research. Research
// carries no publication date; the cache write time is not one.
type researchItem struct {
	id        string
	title     string
	content   string
	url       string
	relevance float64
}

func fromCache(entries []models.ResearchCacheEntry) []researchItem {
	out := make([]researchItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, researchItem{
			id:        e.ID,
			title:     e.Title,
			content:   e.Content,
			url:       e.URL,
			relevance: e.RelevanceScore,
		})
	}
	return out
}

func fromLive(results []models.ResearchResult) []researchItem {
	out := make([]researchItem, 0, len(results))
	for _, r := range results {
		out = append(out, researchItem{
			id:        uuid.New().String(),
			title:     r.Title,
			content:   r.Content,
			url:       r.URL,
			relevance: r.Relevance,
		})
	}
	return out
}

func (it researchItem) knowledge(filters models.SearchFilters) models.KnowledgeRecord {
	r := models.KnowledgeRecord{
		ID:          it.id,
		Title:       it.title,
		Description: it.content,
		Industry:    filters.Industry,
		ProcessType: filters.ProcessType,
		Source:      models.SourceWebResearch,
		URL:         it.url,
		Relevance:   scoring.Clamp(it.relevance, 0, 1),
	}
	return r.WithConfidence(scoring.SourceCredibility(it.url).Score)
}

func bestPracticeRecords(items []researchItem) []models.KnowledgeRecord {
	out := make([]models.KnowledgeRecord, 0, len(items))
	for _, it := range items {
		// Research is not tagged with an industry; only the domain filters decide.
		r := it.knowledge(models.SearchFilters{})
		out = append(out, r)
	}
	return out
}

func complianceRecords(items []researchItem, filters models.SearchFilters) []models.ComplianceRecord {
	out := make([]models.ComplianceRecord, 0, len(items))
	for _, it := range items {
		base := it.knowledge(filters)
		base = base.WithConfidence(scoring.ComplianceSourceCredibility(it.url).Score)

		rec := models.ComplianceRecord{
			KnowledgeRecord: base,
			Severity:        inferSeverity(it.title + " " + it.content),
		}
		if host := govHost(it.url); host != "" {
			rec.RegulatoryBody = host
		}
		out = append(out, rec)
	}
	return out
}

func benchmarkRecords(items []researchItem, filters models.SearchFilters, category string) []models.BenchmarkRecord {
	out := make([]models.BenchmarkRecord, 0, len(items))
	for _, it := range items {
		ex := normalize.Extract(it.title+"\n"+it.content, category)
		base := it.knowledge(filters)
		base.Category = category

		rec := models.BenchmarkRecord{
			KnowledgeRecord: base,
			MetricUnit:      ex.Unit,
			Values:          ex.Values,
			Origin:          models.OriginOther,
		}
		out = append(out, rec)
	}
	return out
}

// severityKeywords are checked from most to least severe. A trailing "*"
// matches any word with that prefix; multi-word entries match consecutive
// words.
var severityKeywords = []struct {
	severity models.Severity
	phrases  []string
}{
	{models.SeverityCritical, []string{"critical", "criminal", "imprisonment"}},
	{models.SeverityHigh, []string{"mandatory", "must", "penalt*", "fine", "fines", "fined", "required by law"}},
	{models.SeverityMedium, []string{"should", "required"}},
	{models.SeverityLow, []string{"recommended", "may", "optional"}},
}

// negations void the keyword that follows them.
var negations = []string{"non", "not", "no"}

// inferSeverity grades unstructured compliance text by keyword. Text
// without any signal is treated as medium.
func inferSeverity(text string) models.Severity {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, level := range severityKeywords {
		for _, phrase := range level.phrases {
			if containsPhrase(words, strings.Fields(phrase)) {
				return level.severity
			}
		}
	}
	return models.SeverityMedium
}

// containsPhrase reports whether phrase occurs in words without a negation
// directly before it.
func containsPhrase(words, phrase []string) bool {
	for i := 0; i+len(phrase) <= len(words); i++ {
		if i > 0 && slices.Contains(negations, words[i-1]) {
			continue
		}
		matched := true
		for j, p := range phrase {
			if !wordMatches(words[i+j], p) {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}
	return false
}

func wordMatches(word, pattern string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(word, prefix)
	}
	return word == pattern
}

// govHost returns the host of a government URL, or "".
func govHost(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if strings.HasSuffix(host, ".gov") || strings.Contains(host, ".gov.") {
		return host
	}
	return ""
}

// rescore lifts a record's relevance to its text relevance when that is higher.
func rescore(query string, r models.KnowledgeRecord) models.KnowledgeRecord {
	text := scoring.TextRelevance(query, r.Title, r.Description)
	return r.WithRelevance(max(scoring.Clamp(r.Relevance, 0, 1), text))
}
