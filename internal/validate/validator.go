// Package validate checks process templates for structural problems and
// scores their completeness.
package validate

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/raphaelgruber/procwise/internal/depgraph"
	"github.com/raphaelgruber/procwise/internal/models"
)

// MaxStepDuration is the largest plausible step duration in hours.
const MaxStepDuration = 480

// DurationSuggestion accompanies duration warnings.
const DurationSuggestion = "typical step durations are 1-40 hours"

// Error and warning types.
const (
	TypeMissingName        = "missing_name"
	TypeShortDescription   = "short_description"
	TypeNoSteps            = "no_steps"
	TypeMissingStepID      = "missing_step_id"
	TypeDuplicateStepID    = "duplicate_step_id"
	TypeMissingStepName    = "missing_step_name"
	TypeDurationOutOfRange = "duration_out_of_range"
	TypeInvalidDependency  = "invalid_dependency"
	TypeSelfDependency     = "self_dependency"
	TypeCircularDependency = "circular_dependency"
	TypeMissingProcessName = "missing_process_name"
	TypeMissingIndustry    = "missing_industry"
	TypeNoGoals            = "no_goals"
)

const (
	minDescriptionLength    = 10
	fullDescriptionLength   = 50
	detailedStepDescription = 20
)

type scope int

const (
	scopeTemplate scope = iota
	scopeSteps
	scopeRequirements
)

type builder struct {
	errors   []models.ValidationError
	scopes   []scope
	warnings []models.ValidationWarning
}

func (b *builder) fail(s scope, sev models.ErrorSeverity, typ, field, msg string) {
	b.errors = append(b.errors, models.ValidationError{Type: typ, Message: msg, Field: field, Severity: sev})
	b.scopes = append(b.scopes, s)
}

func (b *builder) warn(typ, msg, suggestion string) {
	b.warnings = append(b.warnings, models.ValidationWarning{Type: typ, Message: msg, Suggestion: suggestion})
}

// valid reports whether scope s has no error at or above the given severities.
func (b *builder) valid(s scope, severities ...models.ErrorSeverity) bool {
	for i, e := range b.errors {
		if b.scopes[i] != s {
			continue
		}
		if len(severities) == 0 || slices.Contains(severities, e.Severity) {
			return false
		}
	}
	return true
}

// Validate checks a template without requirements.
func Validate(t models.TemplateRecommendation) models.ValidationReport {
	return ValidateWithRequirements(t, nil)
}

// ValidateWithRequirements checks a template and, when req is non-nil, the
// requirements it was generated from. Problems are reported as data.
func ValidateWithRequirements(t models.TemplateRecommendation, req *models.ProcessRequirements) models.ValidationReport {
	var b builder

	checkTemplate(&b, t)
	checkSteps(&b, t.Steps)
	if req != nil {
		checkRequirements(&b, *req)
	}

	report := models.ValidationReport{
		RequirementsValid: b.valid(scopeRequirements),
		TemplateValid:     b.valid(scopeTemplate, models.SeverityLevelCritical, models.SeverityLevelMajor),
		StepsValid:        b.valid(scopeSteps),
		Errors:            b.errors,
		Warnings:          b.warnings,
		CompletenessScore: Completeness(t),
	}
	report.OverallValid = !report.HasCritical()
	if report.Errors == nil {
		report.Errors = []models.ValidationError{}
	}
	if report.Warnings == nil {
		report.Warnings = []models.ValidationWarning{}
	}
	return report
}

func checkTemplate(b *builder, t models.TemplateRecommendation) {
	if strings.TrimSpace(t.Name) == "" {
		b.fail(scopeTemplate, models.SeverityLevelCritical, TypeMissingName, "name", "template name is required")
	}
	if textLength(t.Description) < minDescriptionLength {
		b.fail(scopeTemplate, models.SeverityLevelMajor, TypeShortDescription, "description",
			fmt.Sprintf("description must be at least %d characters", minDescriptionLength))
	}
	if len(t.Steps) == 0 {
		b.fail(scopeTemplate, models.SeverityLevelCritical, TypeNoSteps, "steps", "template has no steps")
	}
}

func checkSteps(b *builder, steps []models.TemplateStep) {
	seen := make(map[string]int, len(steps))
	for i, s := range steps {
		field := fmt.Sprintf("steps[%d]", i)

		switch {
		case s.ID == "":
			b.fail(scopeSteps, models.SeverityLevelMajor, TypeMissingStepID, field+".id", "step id is required")
		case seen[s.ID] == 1:
			b.fail(scopeSteps, models.SeverityLevelCritical, TypeDuplicateStepID, field+".id",
				fmt.Sprintf("step id %q is used more than once", s.ID))
		}
		seen[s.ID]++

		if strings.TrimSpace(s.Name) == "" {
			b.fail(scopeSteps, models.SeverityLevelMajor, TypeMissingStepName, field+".name",
				fmt.Sprintf("step %q has no name", s.ID))
		}
		if s.Duration <= 0 || s.Duration > MaxStepDuration {
			b.warn(TypeDurationOutOfRange,
				fmt.Sprintf("step %q duration %.1f hours is outside (0, %d]", s.ID, s.Duration, MaxStepDuration),
				DurationSuggestion)
		}
	}

	for _, ref := range depgraph.DanglingDependencies(steps) {
		b.fail(scopeSteps, models.SeverityLevelMajor, TypeInvalidDependency, "steps.dependencies",
			fmt.Sprintf("step %q depends on unknown step %q", ref.StepID, ref.DependencyID))
	}
	for _, id := range depgraph.SelfDependencies(steps) {
		b.fail(scopeSteps, models.SeverityLevelCritical, TypeSelfDependency, "steps.dependencies",
			fmt.Sprintf("step %q depends on itself", id))
	}
	if cycle := depgraph.FindCycle(withoutSelfLoops(steps)); cycle != nil {
		b.fail(scopeSteps, models.SeverityLevelCritical, TypeCircularDependency, "steps.dependencies",
			"circular dependency: "+strings.Join(cycle, " -> "))
	}
}

// withoutSelfLoops drops self references so a lone self dependency is only
// reported once.
func withoutSelfLoops(steps []models.TemplateStep) []models.TemplateStep {
	out := models.CloneSteps(steps)
	for i := range out {
		id := out[i].ID
		out[i].Dependencies = slices.DeleteFunc(out[i].Dependencies, func(d string) bool { return d == id })
	}
	return out
}

func checkRequirements(b *builder, req models.ProcessRequirements) {
	if strings.TrimSpace(req.ProcessName) == "" {
		b.fail(scopeRequirements, models.SeverityLevelCritical, TypeMissingProcessName, "requirements.process_name",
			"process name is required")
	}
	if strings.TrimSpace(req.Industry) == "" {
		b.fail(scopeRequirements, models.SeverityLevelMajor, TypeMissingIndustry, "requirements.industry",
			"industry is required")
	}
	if len(req.Goals) == 0 {
		b.warn(TypeNoGoals, "no process goals were captured", "state at least one measurable goal")
	}
}

// Completeness scores how fully a template is specified, from 0 to 100.
// It is a soft signal and never affects validity.
func Completeness(t models.TemplateRecommendation) int {
	score := 0.0

	if strings.TrimSpace(t.Name) != "" {
		score += 10
	}
	switch desc := textLength(t.Description); {
	case desc >= fullDescriptionLength:
		score += 10
	case desc >= minDescriptionLength:
		score += 5
	}
	if len(t.Rationale) > 0 {
		score += 10
	}
	if t.EstimatedDuration > 0 {
		score += 10
	}
	if len(t.Steps) >= 3 {
		score += 10
	}
	if len(t.Steps) >= 5 {
		score += 10
	}

	if n := len(t.Steps); n > 0 {
		met := 0
		for _, s := range t.Steps {
			if textLength(s.Description) >= detailedStepDescription {
				met++
			}
			if len(s.Artifacts) > 0 {
				met++
			}
			if strings.TrimSpace(s.Responsible) != "" {
				met++
			}
			if s.Duration > 0 {
				met++
			}
		}
		score += 40 * float64(met) / float64(4*n)
	}

	return int(math.Round(min(max(score, 0), 100)))
}

// textLength counts the characters of s without surrounding whitespace.
func textLength(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}
