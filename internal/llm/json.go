package llm

import (
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/kaptinlin/jsonrepair"
)

// parseJSON decodes model output into v. It strips markdown fences and
// surrounding prose, then falls back to repairing malformed JSON.
func parseJSON(text string, v any) error {
	s := extractJSON(text)

	err := jsoniter.UnmarshalFromString(s, v)
	if err == nil {
		return nil
	}
	originalErr := err

	repaired, repairErr := jsonrepair.JSONRepair(s)
	if repairErr != nil {
		return originalErr
	}
	if err := jsoniter.UnmarshalFromString(repaired, v); err != nil {
		return originalErr
	}
	return nil
}

// extractJSON returns the span from the first opening bracket to the last
// closing one. Truncated output keeps its tail so repair can close it.
func extractJSON(text string) string {
	s := strings.TrimSpace(text)
	if i := strings.Index(s, "```"); i >= 0 {
		s = s[i+3:]
		s = strings.TrimPrefix(s, "json")
		if j := strings.Index(s, "```"); j >= 0 {
			s = s[:j]
		}
	}

	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return strings.TrimSpace(s)
	}
	s = s[start:]
	if end := strings.LastIndexAny(s, "}]"); end >= 0 {
		tail := strings.TrimSpace(s[end+1:])
		if !strings.ContainsAny(tail, "{[\"") {
			s = s[:end+1]
		}
	}
	return strings.TrimSpace(s)
}
