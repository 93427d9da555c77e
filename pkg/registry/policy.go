package registry

import (
	"context"
	"fmt"

	"github.com/aretw0/courier/pkg/domain"
)

// MultiInterceptor chains multiple interceptors; the first veto wins.
func MultiInterceptor(interceptors ...Interceptor) Interceptor {
	return func(ctx context.Context, req domain.ToolRequest) (bool, domain.ToolResult, error) {
		for _, interceptor := range interceptors {
			if interceptor == nil {
				continue
			}
			allowed, result, err := interceptor(ctx, req)
			if err != nil {
				return false, domain.ToolResult{}, err
			}
			if !allowed {
				return false, result, nil
			}
		}
		return true, domain.ToolResult{}, nil
	}
}

// AutoApprove allows everything.
func AutoApprove() Interceptor {
	return func(context.Context, domain.ToolRequest) (bool, domain.ToolResult, error) {
		return true, domain.ToolResult{}, nil
	}
}

// DenyOperations blocks the named operations with a denial result.
func DenyOperations(ops ...string) Interceptor {
	denied := make(map[string]bool, len(ops))
	for _, op := range ops {
		denied[op] = true
	}
	return func(_ context.Context, req domain.ToolRequest) (bool, domain.ToolResult, error) {
		if !denied[req.Operation] {
			return true, domain.ToolResult{}, nil
		}
		return false, domain.Failed(req.Tool, domain.NewToolError(req.Tool, domain.KindInvalid,
			fmt.Sprintf("operation %s denied by policy", req.Operation), nil)), nil
	}
}
