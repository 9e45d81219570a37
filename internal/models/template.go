package models

import "time"

// Complexity grades how involved a process template is.
type Complexity string

const (
	ComplexitySimple      Complexity = "simple"
	ComplexityMedium      Complexity = "medium"
	ComplexityComplex     Complexity = "complex"
	ComplexityVeryComplex Complexity = "very_complex"
)

// Valid reports whether c is one of the known complexity grades.
func (c Complexity) Valid() bool {
	switch c {
	case ComplexitySimple, ComplexityMedium, ComplexityComplex, ComplexityVeryComplex:
		return true
	}
	return false
}

// TemplateStep is one step of a process template.
// Duration is expressed in hours. Dependencies reference step IDs of the same template.
type TemplateStep struct {
	ID           string   `json:"id" yaml:"id"`
	Name         string   `json:"name" yaml:"name"`
	Description  string   `json:"description,omitempty" yaml:"description,omitempty"`
	Duration     float64  `json:"duration" yaml:"duration"`
	Dependencies []string `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Artifacts    []string `json:"artifacts,omitempty" yaml:"artifacts,omitempty"`
	Responsible  string   `json:"responsible,omitempty" yaml:"responsible,omitempty"`
	CriticalPath bool     `json:"critical_path" yaml:"critical_path"`
}

// Clone returns a deep copy of the step.
func (s TemplateStep) Clone() TemplateStep {
	s.Dependencies = append([]string(nil), s.Dependencies...)
	s.Artifacts = append([]string(nil), s.Artifacts...)
	return s
}

// CloneSteps deep-copies a step list.
func CloneSteps(steps []TemplateStep) []TemplateStep {
	out := make([]TemplateStep, len(steps))
	for i, s := range steps {
		out[i] = s.Clone()
	}
	return out
}

// TemplateRecommendation is a generated process template.
// Alternatives are one level deep: an alternative never carries alternatives.
type TemplateRecommendation struct {
	ID                string                   `json:"id" yaml:"id"`
	Name              string                   `json:"name" yaml:"name"`
	Description       string                   `json:"description" yaml:"description"`
	Steps             []TemplateStep           `json:"steps" yaml:"steps"`
	Confidence        float64                  `json:"confidence" yaml:"confidence"`
	Rationale         []string                 `json:"rationale,omitempty" yaml:"rationale,omitempty"`
	EstimatedDuration float64                  `json:"estimated_duration" yaml:"estimated_duration"`
	Complexity        Complexity               `json:"complexity" yaml:"complexity"`
	Alternatives      []TemplateRecommendation `json:"alternatives,omitempty" yaml:"alternatives,omitempty"`
}

// StoredTemplate is a recommendation persisted for a user.
type StoredTemplate struct {
	Template    TemplateRecommendation `json:"template"`
	OwnerID     string                 `json:"owner_id"`
	UpdatedAt   time.Time              `json:"updated_at"`
	FinalizedAt *time.Time             `json:"finalized_at,omitempty"`
}

// ProcessRequirements are the structured requirements extracted from an interview.
type ProcessRequirements struct {
	ProcessName  string     `json:"process_name" yaml:"process_name"`
	Industry     string     `json:"industry" yaml:"industry"`
	ProcessType  string     `json:"process_type" yaml:"process_type"`
	Complexity   Complexity `json:"complexity,omitempty" yaml:"complexity,omitempty"`
	Goals        []string   `json:"goals,omitempty" yaml:"goals,omitempty"`
	Constraints  []string   `json:"constraints,omitempty" yaml:"constraints,omitempty"`
	Stakeholders []string   `json:"stakeholders,omitempty" yaml:"stakeholders,omitempty"`
}

// ConversationAnalysis is the output of the interview analysis stage.
type ConversationAnalysis struct {
	Requirements ProcessRequirements `json:"requirements"`
	Summary      string              `json:"summary,omitempty"`
	KeyTopics    []string            `json:"key_topics,omitempty"`
}

// GenerationContext steers template generation.
type GenerationContext struct {
	Industry    string            `json:"industry"`
	ProcessType string            `json:"process_type"`
	Complexity  Complexity        `json:"complexity,omitempty"`
	Constraints []string          `json:"constraints,omitempty"`
	Preferences map[string]string `json:"preferences,omitempty"`
}

// ModificationOp is the kind of change applied to a template.
type ModificationOp string

const (
	ModAddStep    ModificationOp = "add_step"
	ModUpdateStep ModificationOp = "update_step"
	ModRemoveStep ModificationOp = "remove_step"
)

// StepModification is one user edit to a template.
type StepModification struct {
	Op     ModificationOp `json:"op"`
	StepID string         `json:"step_id,omitempty"`
	Step   *TemplateStep  `json:"step,omitempty"`
}
