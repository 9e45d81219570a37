// Package fusion merges, deduplicates, filters, ranks and pages result lists
// coming from several knowledge sources.
package fusion

import (
	"cmp"
	"slices"
	"strings"
	"unicode"

	"github.com/raphaelgruber/procwise/internal/models"
)

// DefaultLimit is the page size used when the caller does not set one.
const DefaultLimit = 20

// Record is implemented by every result kind through the embedded
// models.KnowledgeRecord.
type Record interface {
	Knowledge() models.KnowledgeRecord
}

// DedupKey normalizes a title for duplicate detection.
func DedupKey(title string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, title)
}

// Dedupe keeps the first item for every distinct title key, preserving order.
// Applying it twice yields the same result as applying it once.
func Dedupe[T any](items []T, title func(T) string) []T {
	seen := make(map[string]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		key := DedupKey(title(item))
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}

// Merge concatenates lists in priority order and drops later duplicates,
// so the earliest source wins.
func Merge[T Record](lists ...[]T) []T {
	var all []T
	for _, l := range lists {
		all = append(all, l...)
	}
	return Dedupe(all, titleOf[T])
}

func titleOf[T Record](r T) string {
	return r.Knowledge().Title
}

// SortByRelevance returns a copy sorted by relevance, highest first.
// Ties keep their input order.
func SortByRelevance[T Record](items []T) []T {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b T) int {
		return cmp.Compare(b.Knowledge().Relevance, a.Knowledge().Relevance)
	})
	return out
}

// WeightedScore is relevance times confidence, with missing confidence
// counting as 1.
func WeightedScore(r models.KnowledgeRecord) float64 {
	return r.Relevance * r.ConfidenceOr(1)
}

// SortByWeightedRelevance returns a copy sorted by WeightedScore, highest first.
func SortByWeightedRelevance[T Record](items []T) []T {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b T) int {
		return cmp.Compare(WeightedScore(b.Knowledge()), WeightedScore(a.Knowledge()))
	})
	return out
}

// SortCompliance orders by severity (critical first), then by the nearest
// compliance deadline (records without one last), then by relevance.
func SortCompliance(items []models.ComplianceRecord) []models.ComplianceRecord {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b models.ComplianceRecord) int {
		if c := cmp.Compare(b.Severity.Rank(), a.Severity.Rank()); c != 0 {
			return c
		}
		if c := compareDeadlines(a, b); c != 0 {
			return c
		}
		return cmp.Compare(b.Relevance, a.Relevance)
	})
	return out
}

func compareDeadlines(a, b models.ComplianceRecord) int {
	switch {
	case a.ComplianceDeadline == nil && b.ComplianceDeadline == nil:
		return 0
	case a.ComplianceDeadline == nil:
		return 1
	case b.ComplianceDeadline == nil:
		return -1
	default:
		return a.ComplianceDeadline.Compare(*b.ComplianceDeadline)
	}
}

// Boost multiplies relevance by factor and clamps the result to [0, 1].
func Boost(relevance, factor float64) float64 {
	return min(max(relevance*factor, 0), 1)
}

// Page truncates items to limit and reports the pre-limit count.
// A non-positive limit selects DefaultLimit.
func Page[T any](items []T, limit int) ([]T, int) {
	total := len(items)
	if limit <= 0 {
		limit = DefaultLimit
	}
	if total <= limit {
		return items, total
	}
	return items[:limit], total
}
