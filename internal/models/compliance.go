package models

import "time"

// Severity ranks how serious a compliance requirement is.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Rank returns 4 for critical down to 1 for low, 0 for unknown values.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// ComplianceRecord is a regulatory requirement relevant to a process.
type ComplianceRecord struct {
	KnowledgeRecord `yaml:",inline"`

	Severity           Severity   `json:"severity" yaml:"severity"`
	Region             string     `json:"region,omitempty" yaml:"region,omitempty"`
	RegulatoryBody     string     `json:"regulatory_body,omitempty" yaml:"regulatory_body,omitempty"`
	EffectiveDate      *time.Time `json:"effective_date,omitempty" yaml:"effective_date,omitempty"`
	ComplianceDeadline *time.Time `json:"compliance_deadline,omitempty" yaml:"compliance_deadline,omitempty"`
	RequiredActions    []string   `json:"required_actions,omitempty" yaml:"required_actions,omitempty"`
	Penalties          string     `json:"penalties,omitempty" yaml:"penalties,omitempty"`
	References         []string   `json:"references,omitempty" yaml:"references,omitempty"`
}

// Regulatory reports whether the record was issued by a regulator.
func (c ComplianceRecord) Regulatory() bool {
	return c.RegulatoryBody != ""
}
