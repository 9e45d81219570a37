package tools

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// PingInput defines the input schema for the ping tool.
type PingInput struct {
	Echo string `json:"echo,omitempty" jsonschema:"Text to echo back"`
}

// NewPingHandler creates a ping tool handler. Without echo it answers
// "pong" and names the services that are not configured.
func NewPingHandler(deps *Dependencies) mcp.ToolHandlerFor[PingInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input PingInput) (*mcp.CallToolResult, any, error) {
		deps.logger().Debug("ping tool called", "echo", input.Echo)
		if input.Echo != "" {
			return TextResult(input.Echo), nil, nil
		}
		if missing := deps.missing(); len(missing) > 0 {
			return TextResult("pong (unavailable: " + strings.Join(missing, ", ") + ")"), nil, nil
		}
		return TextResult("pong"), nil, nil
	}
}
