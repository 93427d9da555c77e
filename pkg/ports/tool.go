package ports

import (
	"context"

	"github.com/aretw0/courier/pkg/domain"
)

// Tool is a backend capability reachable through the gateway.
// Invoke never returns a Go error: failures travel in ToolResult.Err.
type Tool interface {
	Name() string
	Invoke(ctx context.Context, req domain.ToolRequest) domain.ToolResult
}

// Completer sends a single prompt to a generative model and returns its answer.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ToolInvoker dispatches a request to whichever tool it names.
type ToolInvoker interface {
	Invoke(ctx context.Context, req domain.ToolRequest) domain.ToolResult
}
