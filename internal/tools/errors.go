package tools

import (
	"errors"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/raphaelgruber/procwise/internal/service"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrorResult creates a tool error result with optional recovery hint.
// If hint is non-empty, formats as "{msg}. {hint}".
// Returns IsError=true so the model can see the error and self-correct.
func ErrorResult(msg, hint string) *mcp.CallToolResult {
	text := msg
	if hint != "" {
		text = msg + ". " + hint
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
		IsError: true,
	}
}

// TextResult creates a success result with text content.
func TextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// JSONResult renders v as indented JSON.
func JSONResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ErrorResult("Failed to encode result", err.Error())
	}
	return TextResult(string(data))
}

// ServiceError converts a use case error into a tool error with a hint the
// model can act on.
func ServiceError(err error) *mcp.CallToolResult {
	var invalid *service.TemplateInvalidError
	switch {
	case errors.As(err, &invalid):
		msgs := make([]string, 0, len(invalid.Report.Errors))
		for _, e := range invalid.Report.Errors {
			msgs = append(msgs, e.Message)
		}
		return ErrorResult("Template is invalid: "+strings.Join(msgs, "; "), "Fix the listed problems and retry")
	case errors.Is(err, service.ErrInvalidInput):
		return ErrorResult(err.Error(), "Check the tool arguments")
	case errors.Is(err, service.ErrNotFound):
		return ErrorResult(err.Error(), "Save the template first or check the id")
	case errors.Is(err, service.ErrForbidden):
		return ErrorResult(err.Error(), "Only the owner can change this template")
	case errors.Is(err, service.ErrGeneratorUnavailable):
		return ErrorResult(err.Error(), "The LLM provider may be down or misconfigured")
	default:
		return ErrorResult(err.Error(), "")
	}
}

func unavailable(what string) *mcp.CallToolResult {
	return ErrorResult(what+" is not configured", "Start the server with a database and LLM provider")
}
