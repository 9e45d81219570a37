package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/raphaelgruber/procwise/internal/db"
	"github.com/raphaelgruber/procwise/internal/models"
	"github.com/spf13/cobra"
)

// knowledgeWriter stores curated knowledge base records.
type knowledgeWriter interface {
	UpsertBestPractice(ctx context.Context, r models.KnowledgeRecord) (string, error)
	UpsertCompliance(ctx context.Context, r models.ComplianceRecord) (string, error)
	UpsertBenchmark(ctx context.Context, r models.BenchmarkRecord) (string, error)
}

// database returns the SurrealDB client of the opened services.
func (s *state) database(ctx context.Context) (*db.Client, error) {
	a, err := s.services(ctx)
	if err != nil {
		return nil, err
	}
	if a.DB == nil {
		return nil, errors.New("no database configured")
	}
	return a.DB, nil
}

func newKBCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kb",
		Short: "Manage the curated knowledge base",
	}
	cmd.AddCommand(newKBImportCmd(st))
	return cmd
}

func newKBImportCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "import <knowledge.yaml>",
		Short: "Import best practices, compliance requirements and benchmarks",
		Long: `Import curated records from a YAML file ("-" for stdin). Records with an
id replace the stored record; records without one get a new id.

Example:
  best_practices:
    - title: Peer code review
      description: Every change is reviewed before merge.
      industry: tech
      tags: [quality]
  compliance:
    - title: HIPAA access logging
      description: Log every access to patient records.
      industry: healthcare
      severity: critical
      regulatory_body: hhs.gov
  benchmarks:
    - title: Deployment lead time
      description: Time from commit to production.
      industry: tech
      metric_unit: hours
      benchmark_values: {p25: 2, p50: 24, p75: 72, p90: 168}
      year: 2024`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var kf knowledgeFile
			if err := readYAML(args[0], cmd.InOrStdin(), &kf); err != nil {
				return err
			}
			if err := kf.validate(); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			dbClient, err := st.database(cmd.Context())
			if err != nil {
				return err
			}
			counts, err := importKnowledge(cmd.Context(), dbClient, kf)
			if err != nil {
				return err
			}
			st.logger.Info("knowledge imported",
				"file", args[0],
				"best_practices", counts.BestPractices,
				"compliance", counts.Compliance,
				"benchmarks", counts.Benchmarks)
			return st.output(cmd).imported(counts)
		},
	}
}

// validate checks every record before anything is written.
func (k knowledgeFile) validate() error {
	if k.empty() {
		return errors.New("no records to import")
	}
	for i, r := range k.BestPractices {
		if err := checkRecord(r); err != nil {
			return fmt.Errorf("best_practices[%d]: %w", i, err)
		}
	}
	for i, r := range k.Compliance {
		if err := checkRecord(r.KnowledgeRecord); err != nil {
			return fmt.Errorf("compliance[%d]: %w", i, err)
		}
		if r.Industry == "" {
			return fmt.Errorf("compliance[%d]: industry is required", i)
		}
	}
	for i, r := range k.Benchmarks {
		if err := checkRecord(r.KnowledgeRecord); err != nil {
			return fmt.Errorf("benchmarks[%d]: %w", i, err)
		}
		if !r.Values.Ordered() {
			return fmt.Errorf("benchmarks[%d]: benchmark_values must satisfy p25 <= p50 <= p75 <= p90", i)
		}
	}
	return nil
}

func checkRecord(r models.KnowledgeRecord) error {
	if strings.TrimSpace(r.Title) == "" {
		return errors.New("title is required")
	}
	if c := r.Complexity; c != "" && !c.Valid() {
		return fmt.Errorf("unknown complexity %q", c)
	}
	return nil
}

// importKnowledge upserts every record and stops at the first failure.
func importKnowledge(ctx context.Context, w knowledgeWriter, k knowledgeFile) (importCounts, error) {
	var counts importCounts
	now := time.Now()

	for _, r := range k.BestPractices {
		if _, err := w.UpsertBestPractice(ctx, withDefaults(r, now)); err != nil {
			return counts, fmt.Errorf("import best practice %q: %w", r.Title, err)
		}
		counts.BestPractices++
	}
	for _, r := range k.Compliance {
		r.KnowledgeRecord = withDefaults(r.KnowledgeRecord, now)
		if _, err := w.UpsertCompliance(ctx, r); err != nil {
			return counts, fmt.Errorf("import compliance %q: %w", r.Title, err)
		}
		counts.Compliance++
	}
	for _, r := range k.Benchmarks {
		r.KnowledgeRecord = withDefaults(r.KnowledgeRecord, now)
		if r.Year == 0 {
			r.Year = now.Year()
		}
		if _, err := w.UpsertBenchmark(ctx, r); err != nil {
			return counts, fmt.Errorf("import benchmark %q: %w", r.Title, err)
		}
		counts.Benchmarks++
	}
	return counts, nil
}

// withDefaults marks imported records as curated and dates undated ones.
func withDefaults(r models.KnowledgeRecord, now time.Time) models.KnowledgeRecord {
	r.Title = strings.TrimSpace(r.Title)
	r.Source = models.SourceKnowledgeBase
	if r.PublishedAt == nil {
		r.PublishedAt = &now
	}
	return r
}
