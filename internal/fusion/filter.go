package fusion

import (
	"slices"
	"strings"

	"github.com/raphaelgruber/procwise/internal/models"
)

// Match selects how a filter value is compared to a record field.
type Match int

const (
	// MatchIgnore skips the filter.
	MatchIgnore Match = iota
	// MatchExact compares case-insensitively for equality.
	MatchExact
	// MatchSubstring requires the record field to contain the filter value,
	// case-insensitively.
	MatchSubstring
)

// FieldRule describes how one field is filtered and whether a record that
// leaves the field empty passes.
type FieldRule struct {
	Match       Match
	EmptyPasses bool
}

// FilterPolicy captures the pass rules of one search use case. The three
// searches differ in how they treat records that omit a filtered field.
type FilterPolicy struct {
	Industry       FieldRule
	ProcessType    FieldRule
	Complexity     FieldRule
	UntaggedPasses bool
}

// Policies used by the search use cases.
var (
	BestPracticePolicy = FilterPolicy{
		Industry:       FieldRule{Match: MatchSubstring, EmptyPasses: true},
		ProcessType:    FieldRule{Match: MatchExact, EmptyPasses: true},
		Complexity:     FieldRule{Match: MatchExact, EmptyPasses: true},
		UntaggedPasses: true,
	}
	CompliancePolicy = FilterPolicy{
		Industry:       FieldRule{Match: MatchExact},
		UntaggedPasses: false,
	}
	BenchmarkPolicy = FilterPolicy{
		Industry:       FieldRule{Match: MatchSubstring},
		ProcessType:    FieldRule{Match: MatchExact, EmptyPasses: true},
		UntaggedPasses: true,
	}
)

func (r FieldRule) passes(filter, value string) bool {
	if r.Match == MatchIgnore || filter == "" {
		return true
	}
	if value == "" {
		return r.EmptyPasses
	}
	switch r.Match {
	case MatchSubstring:
		return strings.Contains(strings.ToLower(value), strings.ToLower(filter))
	default:
		return strings.EqualFold(value, filter)
	}
}

// Matches reports whether r passes the base filters under policy p.
func (p FilterPolicy) Matches(r models.KnowledgeRecord, f models.SearchFilters) bool {
	if !p.Industry.passes(f.Industry, r.Industry) {
		return false
	}
	if !p.ProcessType.passes(f.ProcessType, r.ProcessType) {
		return false
	}
	if !p.Complexity.passes(string(f.Complexity), string(r.Complexity)) {
		return false
	}
	return p.tagsPass(f.Tags, r.Tags)
}

func (p FilterPolicy) tagsPass(want, have []string) bool {
	if len(want) == 0 {
		return true
	}
	if len(have) == 0 {
		return p.UntaggedPasses
	}
	for _, w := range want {
		if slices.ContainsFunc(have, func(h string) bool { return strings.EqualFold(h, w) }) {
			return true
		}
	}
	return false
}

// Filter returns the items passing the policy and every extra predicate.
func Filter[T Record](items []T, f models.SearchFilters, p FilterPolicy, extra ...func(T) bool) []T {
	out := make([]T, 0, len(items))
outer:
	for _, item := range items {
		if !p.Matches(item.Knowledge(), f) {
			continue
		}
		for _, pred := range extra {
			if !pred(item) {
				continue outer
			}
		}
		out = append(out, item)
	}
	return out
}

// SeverityFilter keeps compliance records with exactly the requested severity.
func SeverityFilter(f models.SearchFilters) func(models.ComplianceRecord) bool {
	return func(c models.ComplianceRecord) bool {
		return f.Severity == "" || c.Severity == f.Severity
	}
}

// RegionFilter keeps compliance records for the requested region. Records
// marked global or without a region apply everywhere.
func RegionFilter(f models.SearchFilters) func(models.ComplianceRecord) bool {
	return func(c models.ComplianceRecord) bool {
		if f.Region == "" || c.Region == "" || strings.EqualFold(c.Region, "global") {
			return true
		}
		return strings.EqualFold(c.Region, f.Region)
	}
}
