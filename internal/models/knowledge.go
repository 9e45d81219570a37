// Package models defines data structures shared across the procwise core.
package models

import "time"

// SourceType identifies where a knowledge record came from.
type SourceType string

const (
	SourceKnowledgeBase SourceType = "knowledge_base"
	SourceWebResearch   SourceType = "web_research"
	SourceCommunity     SourceType = "community"
)

// KnowledgeRecord is a single best-practice style result.
// Records are values: scoring and boosting produce new copies.
type KnowledgeRecord struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description" yaml:"description"`
	Category    string     `json:"category,omitempty" yaml:"category,omitempty"`
	Industry    string     `json:"industry,omitempty" yaml:"industry,omitempty"`
	ProcessType string     `json:"process_type,omitempty" yaml:"process_type,omitempty"`
	Complexity  Complexity `json:"complexity,omitempty" yaml:"complexity,omitempty"`
	Tags        []string   `json:"tags,omitempty" yaml:"tags,omitempty"`
	Source      SourceType `json:"source" yaml:"source"`
	URL         string     `json:"url,omitempty" yaml:"url,omitempty"`
	Relevance   float64    `json:"relevance" yaml:"relevance"`
	PublishedAt *time.Time `json:"published_at,omitempty" yaml:"published_at,omitempty"`
	Confidence  *float64   `json:"confidence,omitempty" yaml:"confidence,omitempty"`
}

// Knowledge returns the base record. Records that embed KnowledgeRecord
// inherit it, which lets ranking code treat every record kind alike.
func (r KnowledgeRecord) Knowledge() KnowledgeRecord {
	return r
}

// ConfidenceOr returns the record confidence, or def when unset.
func (r KnowledgeRecord) ConfidenceOr(def float64) float64 {
	if r.Confidence == nil {
		return def
	}
	return *r.Confidence
}

// WithRelevance returns a copy of r with the given relevance.
func (r KnowledgeRecord) WithRelevance(relevance float64) KnowledgeRecord {
	r.Relevance = relevance
	r.Tags = append([]string(nil), r.Tags...)
	return r
}

// WithConfidence returns a copy of r with the given confidence.
func (r KnowledgeRecord) WithConfidence(confidence float64) KnowledgeRecord {
	r.Confidence = &confidence
	r.Tags = append([]string(nil), r.Tags...)
	return r
}

// Float64 returns a pointer to v.
func Float64(v float64) *float64 {
	return &v
}
