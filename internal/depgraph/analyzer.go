// Package depgraph analyzes dependency graphs between template steps.
//
// Steps form a directed graph with an edge from each step to every step it
// depends on. Structural problems are reported as data, never as panics.
package depgraph

import (
	"cmp"
	"slices"

	"github.com/raphaelgruber/procwise/internal/models"
)

// DanglingRef is a dependency that names a step missing from the template.
type DanglingRef struct {
	StepID       string `json:"step_id"`
	DependencyID string `json:"dependency_id"`
}

// ValidateDependencies reports whether every dependency references a step
// present in steps.
func ValidateDependencies(steps []models.TemplateStep) bool {
	return len(DanglingDependencies(steps)) == 0
}

// DanglingDependencies lists every dependency pointing outside the step set.
func DanglingDependencies(steps []models.TemplateStep) []DanglingRef {
	ids := idSet(steps)
	var out []DanglingRef
	for _, s := range steps {
		for _, dep := range s.Dependencies {
			if _, ok := ids[dep]; !ok {
				out = append(out, DanglingRef{StepID: s.ID, DependencyID: dep})
			}
		}
	}
	return out
}

// SelfDependencies returns the IDs of steps that list themselves as a dependency.
func SelfDependencies(steps []models.TemplateStep) []string {
	var out []string
	for _, s := range steps {
		if slices.Contains(s.Dependencies, s.ID) {
			out = append(out, s.ID)
		}
	}
	return out
}

// DetectCycles reports whether the dependency graph contains a cycle.
// References to unknown steps are ignored.
func DetectCycles(steps []models.TemplateStep) bool {
	return FindCycle(steps) != nil
}

// FindCycle returns the first cycle found as a path of step IDs whose last
// element repeats the first, or nil when the graph is acyclic.
func FindCycle(steps []models.TemplateStep) []string {
	adj := make(map[string][]string, len(steps))
	for _, s := range steps {
		// Duplicate IDs merge their edges; the validator reports duplicates separately.
		adj[s.ID] = append(adj[s.ID], s.Dependencies...)
	}

	visited := make(map[string]bool, len(steps))
	onStack := make(map[string]bool, len(steps))
	var path []string

	var visit func(id string) []string
	visit = func(id string) []string {
		visited[id] = true
		onStack[id] = true
		path = append(path, id)

		for _, dep := range adj[id] {
			if _, known := adj[dep]; !known {
				continue
			}
			if onStack[dep] {
				start := slices.Index(path, dep)
				cycle := append([]string(nil), path[start:]...)
				return append(cycle, dep)
			}
			if !visited[dep] {
				if c := visit(dep); c != nil {
					return c
				}
			}
		}

		onStack[id] = false
		path = path[:len(path)-1]
		return nil
	}

	for _, s := range steps {
		if visited[s.ID] {
			continue
		}
		if c := visit(s.ID); c != nil {
			return c
		}
	}
	return nil
}

// CriticalPath approximates the critical path as the start steps (no
// dependencies) followed by the end steps (nothing depends on them).
// It is a priority marker, not a longest-path computation.
func CriticalPath(steps []models.TemplateStep) []models.TemplateStep {
	dependedOn := make(map[string]bool, len(steps))
	for _, s := range steps {
		for _, dep := range s.Dependencies {
			dependedOn[dep] = true
		}
	}

	seen := make(map[string]bool, len(steps))
	var starts, ends []models.TemplateStep
	for _, s := range steps {
		if len(s.Dependencies) == 0 && !seen[s.ID] {
			starts = append(starts, s.Clone())
			seen[s.ID] = true
		}
	}
	for _, s := range steps {
		if !dependedOn[s.ID] && !seen[s.ID] {
			ends = append(ends, s.Clone())
			seen[s.ID] = true
		}
	}
	return append(starts, ends...)
}

// CriticalIDs returns the set of step IDs on the heuristic critical path.
func CriticalIDs(steps []models.TemplateStep) map[string]bool {
	ids := make(map[string]bool)
	for _, s := range CriticalPath(steps) {
		ids[s.ID] = true
	}
	return ids
}

// OptimizeSequence returns a reordered copy of steps: critical-path steps
// first, then within each group steps with fewer dependencies first. The
// CriticalPath flag is set on every returned step. The input is not modified.
func OptimizeSequence(steps []models.TemplateStep) []models.TemplateStep {
	critical := CriticalIDs(steps)

	out := models.CloneSteps(steps)
	for i := range out {
		out[i].CriticalPath = critical[out[i].ID]
	}

	slices.SortStableFunc(out, func(a, b models.TemplateStep) int {
		if a.CriticalPath != b.CriticalPath {
			if a.CriticalPath {
				return -1
			}
			return 1
		}
		return cmp.Compare(len(a.Dependencies), len(b.Dependencies))
	})
	return out
}

func idSet(steps []models.TemplateStep) map[string]struct{} {
	ids := make(map[string]struct{}, len(steps))
	for _, s := range steps {
		ids[s.ID] = struct{}{}
	}
	return ids
}
