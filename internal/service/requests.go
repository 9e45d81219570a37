package service

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/raphaelgruber/procwise/internal/models"
)

var structValidator = validator.New(validator.WithRequiredStructEnabled())

// SearchRequest is the input of every domain search.
type SearchRequest struct {
	Query   string               `json:"query" validate:"required"`
	Filters models.SearchFilters `json:"filters"`
	// Limit caps the returned results. Zero selects the default page size.
	Limit int `json:"limit" validate:"min=0,max=100"`
	// IncludeLive runs live research synchronously alongside the cache.
	IncludeLive bool `json:"include_live"`
}

func (r SearchRequest) validate(requireIndustry bool) error {
	r.Query = strings.TrimSpace(r.Query)
	if err := validateStruct(r); err != nil {
		return err
	}
	if requireIndustry && strings.TrimSpace(r.Filters.Industry) == "" {
		return invalidInput("industry filter is required")
	}
	return nil
}

// validateStruct maps validator tag failures onto ErrInvalidInput.
func validateStruct(s any) error {
	err := structValidator.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return invalidInput("%v", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return invalidInput("%s", strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return field + " must be at least " + fe.Param()
	case "max":
		return field + " must be at most " + fe.Param()
	case "oneof":
		return field + " must be one of: " + fe.Param()
	default:
		return field + " is invalid"
	}
}

// GenerateRequest is the input of template generation.
type GenerateRequest struct {
	Analysis models.ConversationAnalysis `json:"analysis"`
	Context  models.GenerationContext    `json:"context"`
}

func (r GenerateRequest) validate() error {
	if strings.TrimSpace(r.Analysis.Requirements.ProcessName) == "" {
		return invalidInput("process name is required")
	}
	if c := r.Context.Complexity; c != "" && !c.Valid() {
		return invalidInput("unknown complexity %q", c)
	}
	return nil
}
