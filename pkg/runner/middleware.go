package runner

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/courier/pkg/domain"
	"github.com/aretw0/courier/pkg/registry"
)

// ConfirmationMiddleware asks the user through handler before letting one of
// ops run. With no ops every request is confirmed.
func ConfirmationMiddleware(handler IOHandler, ops ...string) registry.Interceptor {
	guarded := make(map[string]bool, len(ops))
	for _, op := range ops {
		guarded[op] = true
	}

	return func(ctx context.Context, req domain.ToolRequest) (bool, domain.ToolResult, error) {
		if len(guarded) > 0 && !guarded[req.Operation] {
			return true, domain.ToolResult{}, nil
		}

		name := req.Tool
		if req.Operation != "" {
			name += "." + req.Operation
		}
		msg := fmt.Sprintf("Tool Request: '%s'\nArgs: %s\nAllow execution? [y/N]", name, formatArgs(req.Args))
		if err := handler.SystemOutput(ctx, msg); err != nil {
			return false, domain.ToolResult{}, err
		}

		input, err := handler.Input(ctx)
		if err != nil {
			return false, domain.ToolResult{}, err
		}

		switch strings.ToLower(strings.TrimSpace(input)) {
		case "y", "yes":
			return true, domain.ToolResult{}, nil
		}
		return false, domain.Failed(req.Tool, domain.NewToolError(req.Tool, domain.KindInvalid,
			"user denied execution", nil)), nil
	}
}

func formatArgs(args map[string]any) string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, args[k]))
	}
	return strings.Join(parts, " ")
}
