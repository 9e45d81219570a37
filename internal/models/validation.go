package models

// ErrorSeverity grades a validation error.
type ErrorSeverity string

const (
	SeverityLevelCritical ErrorSeverity = "critical"
	SeverityLevelMajor    ErrorSeverity = "major"
	SeverityLevelMinor    ErrorSeverity = "minor"
)

// ValidationError is a structural problem found in a template.
type ValidationError struct {
	Type     string        `json:"type"`
	Message  string        `json:"message"`
	Field    string        `json:"field,omitempty"`
	Severity ErrorSeverity `json:"severity"`
}

// ValidationWarning is a soft issue that never affects validity.
type ValidationWarning struct {
	Type       string `json:"type"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// ValidationReport is produced per validation call and never persisted.
type ValidationReport struct {
	OverallValid      bool                `json:"overall_valid"`
	RequirementsValid bool                `json:"requirements_valid"`
	TemplateValid     bool                `json:"template_valid"`
	StepsValid        bool                `json:"steps_valid"`
	Errors            []ValidationError   `json:"errors"`
	Warnings          []ValidationWarning `json:"warnings"`
	CompletenessScore int                 `json:"completeness_score"`
}

// HasCritical reports whether any error is critical.
func (r ValidationReport) HasCritical() bool {
	for _, e := range r.Errors {
		if e.Severity == SeverityLevelCritical {
			return true
		}
	}
	return false
}
