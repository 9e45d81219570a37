package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/raphaelgruber/procwise/internal/models"
	"github.com/raphaelgruber/procwise/internal/service"
)

// StepInput is a template step as sent by a client.
type StepInput struct {
	ID           string   `json:"id,omitempty" jsonschema:"Step id, assigned when empty"`
	Name         string   `json:"name" jsonschema:"Step name"`
	Description  string   `json:"description,omitempty" jsonschema:"What happens in this step"`
	Duration     float64  `json:"duration,omitempty" jsonschema:"Duration in hours"`
	Dependencies []string `json:"dependencies,omitempty" jsonschema:"Ids of steps that must finish first"`
	Artifacts    []string `json:"artifacts,omitempty" jsonschema:"Documents or outputs produced"`
	Responsible  string   `json:"responsible,omitempty" jsonschema:"Role that owns the step"`
}

func toSteps(in []StepInput) []models.TemplateStep {
	out := make([]models.TemplateStep, len(in))
	for i, s := range in {
		out[i] = models.TemplateStep{
			ID:           s.ID,
			Name:         s.Name,
			Description:  s.Description,
			Duration:     s.Duration,
			Dependencies: s.Dependencies,
			Artifacts:    s.Artifacts,
			Responsible:  s.Responsible,
		}
	}
	return out
}

// TemplateInput is a template as sent by a client. Alternatives are not
// accepted on input.
type TemplateInput struct {
	ID                string      `json:"id,omitempty" jsonschema:"Template id"`
	Name              string      `json:"name" jsonschema:"Template name"`
	Description       string      `json:"description,omitempty" jsonschema:"What the process achieves"`
	Steps             []StepInput `json:"steps" jsonschema:"Steps in order"`
	Rationale         []string    `json:"rationale,omitempty" jsonschema:"Why the template looks the way it does"`
	EstimatedDuration float64     `json:"estimated_duration,omitempty" jsonschema:"Total duration in hours"`
	Complexity        string      `json:"complexity,omitempty" jsonschema:"simple, medium, complex or very_complex"`
}

func (in TemplateInput) recommendation() models.TemplateRecommendation {
	return models.TemplateRecommendation{
		ID:                in.ID,
		Name:              in.Name,
		Description:       in.Description,
		Steps:             toSteps(in.Steps),
		Rationale:         in.Rationale,
		EstimatedDuration: in.EstimatedDuration,
		Complexity:        models.Complexity(in.Complexity),
	}
}

// ValidateTemplateInput defines the input schema for validate_template.
type ValidateTemplateInput struct {
	Template     TemplateInput               `json:"template" jsonschema:"The template to validate"`
	Requirements *models.ProcessRequirements `json:"requirements,omitempty" jsonschema:"Optional requirements to validate alongside"`
}

// NewValidateTemplateHandler creates the validate_template handler.
func NewValidateTemplateHandler(deps *Dependencies) mcp.ToolHandlerFor[ValidateTemplateInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ValidateTemplateInput) (*mcp.CallToolResult, any, error) {
		if deps == nil || deps.Templates == nil {
			return unavailable("Template service"), nil, nil
		}
		report := deps.Templates.ValidateTemplate(input.Template.recommendation(), input.Requirements)
		deps.logger().Info("template validated",
			"name", input.Template.Name,
			"valid", report.OverallValid,
			"errors", len(report.Errors),
			"completeness", report.CompletenessScore)
		return JSONResult(report), nil, nil
	}
}

// OptimizeStepsInput defines the input schema for optimize_steps.
type OptimizeStepsInput struct {
	Steps []StepInput `json:"steps" jsonschema:"Steps to reorder"`
}

// NewOptimizeStepsHandler creates the optimize_steps handler.
func NewOptimizeStepsHandler(deps *Dependencies) mcp.ToolHandlerFor[OptimizeStepsInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input OptimizeStepsInput) (*mcp.CallToolResult, any, error) {
		if deps == nil || deps.Templates == nil {
			return unavailable("Template service"), nil, nil
		}
		if len(input.Steps) == 0 {
			return ErrorResult("Steps cannot be empty", "Provide at least one step"), nil, nil
		}
		return JSONResult(deps.Templates.OptimizeStepSequence(toSteps(input.Steps))), nil, nil
	}
}

// GenerateInput defines the input schema for generate_recommendations.
type GenerateInput struct {
	Analysis models.ConversationAnalysis `json:"analysis" jsonschema:"Requirements extracted from the process interview"`
	Context  models.GenerationContext    `json:"context,omitempty" jsonschema:"Optional steering: industry, complexity, constraints"`
	UserID   string                      `json:"user_id,omitempty" jsonschema:"When set, the generated template is saved for this user"`
}

// NewGenerateRecommendationsHandler creates the generate_recommendations handler.
func NewGenerateRecommendationsHandler(deps *Dependencies) mcp.ToolHandlerFor[GenerateInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input GenerateInput) (*mcp.CallToolResult, any, error) {
		if deps == nil || deps.Templates == nil {
			return unavailable("Template service"), nil, nil
		}

		recs, err := deps.Templates.GenerateRecommendations(ctx, service.GenerateRequest{
			Analysis: input.Analysis,
			Context:  input.Context,
		})
		if err != nil {
			deps.logger().Warn("generation failed", "process", input.Analysis.Requirements.ProcessName, "error", err)
			return ServiceError(err), nil, nil
		}

		if input.UserID != "" {
			for _, rec := range recs {
				if err := deps.Templates.SaveTemplate(ctx, input.UserID, rec); err != nil {
					return ServiceError(err), nil, nil
				}
			}
		}
		return JSONResult(recs), nil, nil
	}
}

// SaveTemplateInput defines the input schema for save_template.
type SaveTemplateInput struct {
	UserID   string        `json:"user_id" jsonschema:"Owner of the template"`
	Template TemplateInput `json:"template" jsonschema:"Template to store; id is required"`
}

// NewSaveTemplateHandler creates the save_template handler.
func NewSaveTemplateHandler(deps *Dependencies) mcp.ToolHandlerFor[SaveTemplateInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SaveTemplateInput) (*mcp.CallToolResult, any, error) {
		if deps == nil || deps.Templates == nil {
			return unavailable("Template service"), nil, nil
		}
		if input.Template.ID == "" {
			return ErrorResult("Template id cannot be empty", "Use the id returned by generate_recommendations"), nil, nil
		}
		if err := deps.Templates.SaveTemplate(ctx, input.UserID, input.Template.recommendation()); err != nil {
			return ServiceError(err), nil, nil
		}
		return TextResult("saved " + input.Template.ID), nil, nil
	}
}

// ModificationInput is one step edit.
type ModificationInput struct {
	Op     string     `json:"op" jsonschema:"add_step, update_step or remove_step"`
	StepID string     `json:"step_id,omitempty" jsonschema:"Step to update or remove"`
	Step   *StepInput `json:"step,omitempty" jsonschema:"New or replacement step"`
}

func toModifications(in []ModificationInput) []models.StepModification {
	out := make([]models.StepModification, len(in))
	for i, m := range in {
		out[i] = models.StepModification{Op: models.ModificationOp(m.Op), StepID: m.StepID}
		if m.Step != nil {
			step := toSteps([]StepInput{*m.Step})[0]
			out[i].Step = &step
		}
	}
	return out
}

// ModifyTemplateInput defines the input schema for modify_template.
type ModifyTemplateInput struct {
	UserID        string              `json:"user_id" jsonschema:"Owner of the template"`
	TemplateID    string              `json:"template_id" jsonschema:"Template to change"`
	Modifications []ModificationInput `json:"modifications" jsonschema:"Edits applied in order"`
}

// NewModifyTemplateHandler creates the modify_template handler.
func NewModifyTemplateHandler(deps *Dependencies) mcp.ToolHandlerFor[ModifyTemplateInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ModifyTemplateInput) (*mcp.CallToolResult, any, error) {
		if deps == nil || deps.Templates == nil {
			return unavailable("Template service"), nil, nil
		}
		rec, err := deps.Templates.ApplyModifications(ctx, input.UserID, input.TemplateID, toModifications(input.Modifications))
		if err != nil {
			return ServiceError(err), nil, nil
		}
		return JSONResult(rec), nil, nil
	}
}

// FinalizeTemplateInput defines the input schema for finalize_template.
type FinalizeTemplateInput struct {
	UserID     string `json:"user_id" jsonschema:"Owner of the template"`
	TemplateID string `json:"template_id" jsonschema:"Template to finalize"`
}

// NewFinalizeTemplateHandler creates the finalize_template handler.
func NewFinalizeTemplateHandler(deps *Dependencies) mcp.ToolHandlerFor[FinalizeTemplateInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input FinalizeTemplateInput) (*mcp.CallToolResult, any, error) {
		if deps == nil || deps.Templates == nil {
			return unavailable("Template service"), nil, nil
		}
		report, err := deps.Templates.FinalizeTemplate(ctx, input.UserID, input.TemplateID)
		if err != nil {
			return ServiceError(err), nil, nil
		}
		return JSONResult(report), nil, nil
	}
}
