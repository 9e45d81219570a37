package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/procwise/internal/depgraph"
	"github.com/raphaelgruber/procwise/internal/metrics"
	"github.com/raphaelgruber/procwise/internal/models"
	"github.com/raphaelgruber/procwise/internal/scoring"
	"github.com/raphaelgruber/procwise/internal/validate"
)

const (
	maxPracticeRationale = 3
	alternativePenalty   = 0.9
	fastTrackFactor      = 0.8
)

// TemplateService generates, validates, optimizes and edits templates.
type TemplateService struct {
	generator TemplateGenerator
	search    *SearchService
	repo      TemplateRepository
	metrics   *metrics.Collector
	logger    *slog.Logger
	now       func() time.Time
}

// NewTemplateService creates a template service. search and repo may be nil:
// generation then runs without best-practice context and the stored
// template operations report ErrNotFound.
func NewTemplateService(
	generator TemplateGenerator,
	search *SearchService,
	repo TemplateRepository,
	collector *metrics.Collector,
	logger *slog.Logger,
) *TemplateService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TemplateService{
		generator: generator,
		search:    search,
		repo:      repo,
		metrics:   collector,
		logger:    logger,
		now:       time.Now,
	}
}

// ValidateTemplate runs the template validator.
func (s *TemplateService) ValidateTemplate(t models.TemplateRecommendation, req *models.ProcessRequirements) models.ValidationReport {
	return validate.ValidateWithRequirements(t, req)
}

// OptimizeStepSequence returns the steps reordered for execution priority.
func (s *TemplateService) OptimizeStepSequence(steps []models.TemplateStep) []models.TemplateStep {
	return depgraph.OptimizeSequence(steps)
}

// GenerateRecommendations drafts a template with the generator, grounds it
// in matching best practices and derives its alternatives. The result holds
// the primary recommendation; its alternatives are nested one level deep.
func (s *TemplateService) GenerateRecommendations(ctx context.Context, req GenerateRequest) ([]models.TemplateRecommendation, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if s.generator == nil {
		return nil, fmt.Errorf("%w: no generator configured", ErrGeneratorUnavailable)
	}

	reqs := req.Analysis.Requirements
	gc := mergeContext(req.Context, reqs)
	practices := s.practices(ctx, reqs, gc)

	start := time.Now()
	draft, err := s.generator.Generate(ctx, reqs, gc)
	s.metrics.RecordOutcome(metrics.OpLLMGenerate, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGeneratorUnavailable, err)
	}

	rec, err := s.finishDraft(draft, gc, practices)
	if err != nil {
		return nil, err
	}

	s.logger.Info("template generated",
		"id", rec.ID, "steps", len(rec.Steps), "confidence", rec.Confidence, "complexity", rec.Complexity)
	return []models.TemplateRecommendation{rec}, nil
}

// mergeContext fills context fields the caller left empty from requirements.
func mergeContext(gc models.GenerationContext, req models.ProcessRequirements) models.GenerationContext {
	if gc.Industry == "" {
		gc.Industry = req.Industry
	}
	if gc.ProcessType == "" {
		gc.ProcessType = req.ProcessType
	}
	if gc.Complexity == "" {
		gc.Complexity = req.Complexity
	}
	if len(gc.Constraints) == 0 {
		gc.Constraints = req.Constraints
	}
	return gc
}

// practices fetches best-practice context. Failure only loses context.
func (s *TemplateService) practices(ctx context.Context, req models.ProcessRequirements, gc models.GenerationContext) []models.KnowledgeRecord {
	if s.search == nil {
		return nil
	}
	query := strings.TrimSpace(req.ProcessName + " " + gc.ProcessType)
	resp, err := s.search.SearchBestPractices(ctx, SearchRequest{
		Query:   query,
		Filters: models.SearchFilters{Industry: gc.Industry, ProcessType: gc.ProcessType},
		Limit:   maxPracticeRationale,
	})
	if err != nil {
		s.logger.Warn("best practice context unavailable", "query", query, "error", err)
		return nil
	}
	return resp.Results
}

// finishDraft turns a generator draft into a complete recommendation.
func (s *TemplateService) finishDraft(draft models.TemplateRecommendation, gc models.GenerationContext, practices []models.KnowledgeRecord) (models.TemplateRecommendation, error) {
	rec := draft
	rec.Alternatives = nil
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}

	steps := assignStepIDs(models.CloneSteps(draft.Steps))
	rationale := slices.Clone(draft.Rationale)

	if dangling := depgraph.DanglingDependencies(steps); len(dangling) > 0 {
		steps = dropDependencies(steps, func(_ models.TemplateStep, dep string) bool {
			return slices.ContainsFunc(dangling, func(d depgraph.DanglingRef) bool { return d.DependencyID == dep })
		})
		rationale = append(rationale, fmt.Sprintf("Removed %d dependencies on steps that do not exist", len(dangling)))
	}

	rec.Steps = steps
	if depgraph.DetectCycles(steps) {
		return models.TemplateRecommendation{}, &TemplateInvalidError{Report: validate.Validate(rec)}
	}

	for i, p := range practices {
		if i == maxPracticeRationale {
			break
		}
		rationale = append(rationale, "Aligned with best practice: "+p.Title)
	}

	rec.Steps = depgraph.OptimizeSequence(steps)
	rec.Rationale = rationale
	rec.EstimatedDuration = totalDuration(rec.Steps)
	if !rec.Complexity.Valid() {
		rec.Complexity = gc.Complexity
	}
	if !rec.Complexity.Valid() {
		rec.Complexity = complexityFor(len(rec.Steps))
	}
	rec.Confidence = scoring.TemplateConfidence(len(rec.Steps), len(rec.Rationale), rec.Complexity)
	rec.Alternatives = alternatives(rec)
	return rec, nil
}

// assignStepIDs gives every step without an ID a unique "step-N" ID.
func assignStepIDs(steps []models.TemplateStep) []models.TemplateStep {
	used := make(map[string]bool, len(steps))
	for _, st := range steps {
		used[st.ID] = true
	}
	n := 0
	for i := range steps {
		if steps[i].ID != "" {
			continue
		}
		for {
			n++
			id := fmt.Sprintf("step-%d", n)
			if !used[id] {
				steps[i].ID = id
				used[id] = true
				break
			}
		}
	}
	return steps
}

// dropDependencies removes dependencies matching drop from every step.
func dropDependencies(steps []models.TemplateStep, drop func(models.TemplateStep, string) bool) []models.TemplateStep {
	for i := range steps {
		st := steps[i]
		steps[i].Dependencies = slices.DeleteFunc(st.Dependencies, func(dep string) bool { return drop(st, dep) })
	}
	return steps
}

func totalDuration(steps []models.TemplateStep) float64 {
	var sum float64
	for _, st := range steps {
		sum += st.Duration
	}
	return sum
}

func complexityFor(stepCount int) models.Complexity {
	switch {
	case stepCount <= 4:
		return models.ComplexitySimple
	case stepCount <= 8:
		return models.ComplexityMedium
	case stepCount <= 15:
		return models.ComplexityComplex
	default:
		return models.ComplexityVeryComplex
	}
}

// alternatives derives the streamlined and fast-track variants of rec.
// Variants never carry alternatives of their own.
func alternatives(rec models.TemplateRecommendation) []models.TemplateRecommendation {
	critical := make(map[string]bool)
	var kept []models.TemplateStep
	for _, st := range rec.Steps {
		if st.CriticalPath {
			critical[st.ID] = true
			kept = append(kept, st.Clone())
		}
	}
	kept = dropDependencies(kept, func(_ models.TemplateStep, dep string) bool { return !critical[dep] })

	streamlined := variant(rec, "streamlined", "Streamlined", depgraph.OptimizeSequence(kept),
		"Keeps only the critical-path steps")

	fast := models.CloneSteps(rec.Steps)
	for i := range fast {
		fast[i].Duration *= fastTrackFactor
	}
	fastTrack := variant(rec, "fast-track", "Fast-track", fast,
		"Compresses every step duration by 20%")

	return []models.TemplateRecommendation{streamlined, fastTrack}
}

func variant(rec models.TemplateRecommendation, idSuffix, label string, steps []models.TemplateStep, note string) models.TemplateRecommendation {
	return models.TemplateRecommendation{
		ID:                rec.ID + "-" + idSuffix,
		Name:              fmt.Sprintf("%s (%s)", rec.Name, label),
		Description:       rec.Description,
		Steps:             steps,
		Confidence:        rec.Confidence * alternativePenalty,
		Rationale:         append(slices.Clone(rec.Rationale), note),
		EstimatedDuration: totalDuration(steps),
		Complexity:        complexityFor(len(steps)),
	}
}

// SaveTemplate stores rec owned by userID.
func (s *TemplateService) SaveTemplate(ctx context.Context, userID string, rec models.TemplateRecommendation) error {
	if strings.TrimSpace(userID) == "" {
		return invalidInput("user id is required")
	}
	if s.repo == nil {
		return errors.New("save template: no template repository configured")
	}
	if err := s.repo.SaveTemplate(ctx, models.StoredTemplate{Template: rec, OwnerID: userID, UpdatedAt: s.now()}); err != nil {
		return fmt.Errorf("save template: %w", err)
	}
	return nil
}

// loadOwned fetches a template and checks ownership. Existence is checked
// before ownership, and both before any mutation.
func (s *TemplateService) loadOwned(ctx context.Context, userID, templateID string) (*models.StoredTemplate, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(templateID) == "" {
		return nil, invalidInput("user id and template id are required")
	}
	if s.repo == nil {
		return nil, fmt.Errorf("template %s: %w", templateID, ErrNotFound)
	}
	stored, err := s.repo.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	if stored == nil {
		return nil, fmt.Errorf("template %s: %w", templateID, ErrNotFound)
	}
	if stored.OwnerID != userID {
		return nil, fmt.Errorf("template %s: %w", templateID, ErrForbidden)
	}
	return stored, nil
}

// ApplyModifications applies step edits to a stored template and returns the
// updated recommendation. The stored steps are replaced by a new list.
func (s *TemplateService) ApplyModifications(ctx context.Context, userID, templateID string, mods []models.StepModification) (models.TemplateRecommendation, error) {
	stored, err := s.loadOwned(ctx, userID, templateID)
	if err != nil {
		return models.TemplateRecommendation{}, err
	}

	steps, err := applyMods(models.CloneSteps(stored.Template.Steps), mods)
	if err != nil {
		return models.TemplateRecommendation{}, err
	}

	rec := stored.Template
	rec.Steps = depgraph.OptimizeSequence(steps)
	rec.EstimatedDuration = totalDuration(rec.Steps)
	rec.Confidence = scoring.TemplateConfidence(len(rec.Steps), len(rec.Rationale), rec.Complexity)
	rec.Alternatives = alternatives(rec)

	stored.Template = rec
	stored.UpdatedAt = s.now()
	stored.FinalizedAt = nil
	if err := s.repo.SaveTemplate(ctx, *stored); err != nil {
		return models.TemplateRecommendation{}, fmt.Errorf("save template: %w", err)
	}

	s.logger.Info("template modified", "id", templateID, "user", userID, "mods", len(mods), "steps", len(rec.Steps))
	return rec, nil
}

func applyMods(steps []models.TemplateStep, mods []models.StepModification) ([]models.TemplateStep, error) {
	for i, m := range mods {
		switch m.Op {
		case models.ModAddStep:
			if m.Step == nil {
				return nil, invalidInput("modification %d: add_step needs a step", i)
			}
			st := m.Step.Clone()
			if st.ID != "" && slices.ContainsFunc(steps, func(x models.TemplateStep) bool { return x.ID == st.ID }) {
				return nil, invalidInput("modification %d: step %q already exists", i, st.ID)
			}
			steps = assignStepIDs(append(steps, st))

		case models.ModUpdateStep:
			if m.Step == nil {
				return nil, invalidInput("modification %d: update_step needs a step", i)
			}
			idx := slices.IndexFunc(steps, func(x models.TemplateStep) bool { return x.ID == m.StepID })
			if idx < 0 {
				return nil, invalidInput("modification %d: unknown step %q", i, m.StepID)
			}
			st := m.Step.Clone()
			st.ID = m.StepID
			steps[idx] = st

		case models.ModRemoveStep:
			idx := slices.IndexFunc(steps, func(x models.TemplateStep) bool { return x.ID == m.StepID })
			if idx < 0 {
				return nil, invalidInput("modification %d: unknown step %q", i, m.StepID)
			}
			steps = slices.Delete(steps, idx, idx+1)
			removed := m.StepID
			steps = dropDependencies(steps, func(_ models.TemplateStep, dep string) bool { return dep == removed })

		default:
			return nil, invalidInput("modification %d: unknown op %q", i, m.Op)
		}
	}
	return steps, nil
}

// FinalizeTemplate validates a stored template and marks it final. A report
// that is not OverallValid rejects with *TemplateInvalidError.
func (s *TemplateService) FinalizeTemplate(ctx context.Context, userID, templateID string) (models.ValidationReport, error) {
	stored, err := s.loadOwned(ctx, userID, templateID)
	if err != nil {
		return models.ValidationReport{}, err
	}

	report := validate.Validate(stored.Template)
	if !report.OverallValid {
		return report, &TemplateInvalidError{Report: report}
	}

	now := s.now()
	stored.FinalizedAt = &now
	stored.UpdatedAt = now
	if err := s.repo.SaveTemplate(ctx, *stored); err != nil {
		return report, fmt.Errorf("save template: %w", err)
	}
	return report, nil
}
