// Package scoring computes relevance, confidence and credibility scores.
// All functions are pure and safe for concurrent use.
package scoring

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/raphaelgruber/procwise/internal/models"
)

// Template confidence bounds. The template path never reports full certainty
// or total rejection.
const (
	MinTemplateConfidence = 0.3
	MaxTemplateConfidence = 0.95
)

// Clamp bounds v to [lo, hi]. NaN maps to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// TemplateConfidence scores a generated template from its shape.
func TemplateConfidence(stepCount, rationaleCount int, complexity models.Complexity) float64 {
	score := 0.5

	if stepCount >= 5 {
		score += 0.1
	}
	if stepCount >= 10 {
		score += 0.1
	}
	if rationaleCount >= 3 {
		score += 0.15
	}

	switch complexity {
	case models.ComplexitySimple:
		score += 0.1
	case models.ComplexityComplex, models.ComplexityVeryComplex:
		score -= 0.1
	}

	return Clamp(score, MinTemplateConfidence, MaxTemplateConfidence)
}

// BenchmarkEvidence is the subset of a benchmark that drives its confidence.
type BenchmarkEvidence struct {
	Origin      models.BenchmarkOrigin
	SampleSize  int
	Year        int
	Methodology string
}

// EvidenceOf extracts the confidence inputs from a benchmark record.
func EvidenceOf(b models.BenchmarkRecord) BenchmarkEvidence {
	ev := BenchmarkEvidence{
		Origin:      b.Origin,
		Year:        b.Year,
		Methodology: b.Methodology,
	}
	if b.SampleSize != nil {
		ev.SampleSize = *b.SampleSize
	}
	return ev
}

// BenchmarkConfidence scores how much a benchmark can be trusted at now.
func BenchmarkConfidence(ev BenchmarkEvidence, now time.Time) float64 {
	score := 0.5

	switch ev.Origin {
	case models.OriginIndustryReport:
		score += 0.2
	case models.OriginResearchPaper:
		score += 0.15
	}

	switch {
	case ev.SampleSize >= 1000:
		score += 0.15
	case ev.SampleSize >= 500:
		score += 0.10
	case ev.SampleSize >= 100:
		score += 0.05
	}

	if ev.Year > 0 {
		age := now.Year() - ev.Year
		if age < 0 {
			age = 0
		}
		switch {
		case age <= 1:
			score += 0.15
		case age <= 2:
			score += 0.10
		case age <= 3:
			score += 0.05
		default:
			score -= 0.02 * float64(age)
		}
	}

	if utf8.RuneCountInString(strings.TrimSpace(ev.Methodology)) > 50 {
		score += 0.05
	}

	return Clamp(score, 0, 1)
}

// TextRelevance returns the fraction of query words that occur as substrings
// of the combined title and description.
func TextRelevance(query, title, description string) float64 {
	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return 0
	}

	haystack := strings.ToLower(title + " " + description)
	matched := 0
	for _, w := range words {
		if strings.Contains(haystack, w) {
			matched++
		}
	}
	return float64(matched) / float64(len(words))
}
