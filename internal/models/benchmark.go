package models

// BenchmarkOrigin describes the kind of publication a benchmark comes from.
type BenchmarkOrigin string

const (
	OriginIndustryReport BenchmarkOrigin = "industry_report"
	OriginResearchPaper  BenchmarkOrigin = "research_paper"
	OriginSurvey         BenchmarkOrigin = "survey"
	OriginOther          BenchmarkOrigin = "other"
)

// Percentiles holds benchmark distribution values.
// After normalization P25 <= P50 <= P75 <= P90 always holds.
type Percentiles struct {
	P25     float64  `json:"p25" yaml:"p25"`
	P50     float64  `json:"p50" yaml:"p50"`
	P75     float64  `json:"p75" yaml:"p75"`
	P90     float64  `json:"p90" yaml:"p90"`
	Average *float64 `json:"average,omitempty" yaml:"average,omitempty"`
}

// Ordered reports whether the percentile shape invariant holds.
func (p Percentiles) Ordered() bool {
	return p.P25 <= p.P50 && p.P50 <= p.P75 && p.P75 <= p.P90
}

// BenchmarkRecord is a knowledge record carrying a metric distribution.
type BenchmarkRecord struct {
	KnowledgeRecord `yaml:",inline"`

	MetricUnit  string          `json:"metric_unit" yaml:"metric_unit"`
	Values      Percentiles     `json:"benchmark_values" yaml:"benchmark_values"`
	SampleSize  *int            `json:"sample_size,omitempty" yaml:"sample_size,omitempty"`
	Year        int             `json:"year" yaml:"year"`
	CompanySize string          `json:"company_size,omitempty" yaml:"company_size,omitempty"`
	Region      string          `json:"region,omitempty" yaml:"region,omitempty"`
	Origin      BenchmarkOrigin `json:"origin,omitempty" yaml:"origin,omitempty"`
	Methodology string          `json:"methodology,omitempty" yaml:"methodology,omitempty"`
}
