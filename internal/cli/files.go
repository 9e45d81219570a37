package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/raphaelgruber/procwise/internal/models"
	"gopkg.in/yaml.v3"
)

// templateFile is a template document, optionally with the requirements it
// should satisfy.
type templateFile struct {
	models.TemplateRecommendation `yaml:",inline"`

	Requirements *models.ProcessRequirements `yaml:"requirements,omitempty"`
}

// generateFile is an analyzed interview plus generation steering.
type generateFile struct {
	Requirements models.ProcessRequirements `yaml:"requirements"`
	Summary      string                     `yaml:"summary,omitempty"`
	KeyTopics    []string                   `yaml:"key_topics,omitempty"`
	Context      struct {
		Industry    string            `yaml:"industry,omitempty"`
		ProcessType string            `yaml:"process_type,omitempty"`
		Complexity  models.Complexity `yaml:"complexity,omitempty"`
		Constraints []string          `yaml:"constraints,omitempty"`
		Preferences map[string]string `yaml:"preferences,omitempty"`
	} `yaml:"context,omitempty"`
}

func (g generateFile) analysis() models.ConversationAnalysis {
	return models.ConversationAnalysis{
		Requirements: g.Requirements,
		Summary:      g.Summary,
		KeyTopics:    g.KeyTopics,
	}
}

// generationContext falls back to the requirements for unset fields.
func (g generateFile) generationContext() models.GenerationContext {
	gc := models.GenerationContext{
		Industry:    g.Context.Industry,
		ProcessType: g.Context.ProcessType,
		Complexity:  g.Context.Complexity,
		Constraints: g.Context.Constraints,
		Preferences: g.Context.Preferences,
	}
	if gc.Industry == "" {
		gc.Industry = g.Requirements.Industry
	}
	if gc.ProcessType == "" {
		gc.ProcessType = g.Requirements.ProcessType
	}
	if gc.Complexity == "" {
		gc.Complexity = g.Requirements.Complexity
	}
	if len(gc.Constraints) == 0 {
		gc.Constraints = g.Requirements.Constraints
	}
	return gc
}

// knowledgeFile is a batch of curated knowledge base records.
type knowledgeFile struct {
	BestPractices []models.KnowledgeRecord  `yaml:"best_practices"`
	Compliance    []models.ComplianceRecord `yaml:"compliance"`
	Benchmarks    []models.BenchmarkRecord  `yaml:"benchmarks"`
}

func (k knowledgeFile) empty() bool {
	return len(k.BestPractices) == 0 && len(k.Compliance) == 0 && len(k.Benchmarks) == 0
}

// readYAML decodes the YAML document at path into v. Unknown fields are
// rejected so typos surface. A path of "-" reads stdin.
func readYAML(path string, stdin io.Reader, v any) error {
	var r io.Reader
	if path == "-" {
		r = stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("parse %s: empty document", path)
		}
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
