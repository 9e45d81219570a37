package service

import (
	"errors"
	"fmt"

	"github.com/raphaelgruber/procwise/internal/models"
)

// Sentinel errors returned by the use cases.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrInvalidInput indicates a rejected request: empty query, negative
	// limit or a missing required filter. Raised before any source is touched.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound indicates the requested template does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden indicates the caller does not own the template.
	ErrForbidden = errors.New("forbidden")

	// ErrTemplateInvalid indicates a template failed validation where a valid
	// one is required. The concrete error is a *TemplateInvalidError.
	ErrTemplateInvalid = errors.New("template invalid")

	// ErrGeneratorUnavailable indicates the template generator failed hard.
	ErrGeneratorUnavailable = errors.New("template generator unavailable")
)

// TemplateInvalidError carries the validation report that caused a rejection.
type TemplateInvalidError struct {
	Report models.ValidationReport
}

func (e *TemplateInvalidError) Error() string {
	for _, ve := range e.Report.Errors {
		if ve.Severity == models.SeverityLevelCritical {
			return fmt.Sprintf("%s: %s", ErrTemplateInvalid, ve.Message)
		}
	}
	return ErrTemplateInvalid.Error()
}

// Unwrap makes errors.Is(err, ErrTemplateInvalid) hold.
func (e *TemplateInvalidError) Unwrap() error {
	return ErrTemplateInvalid
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
