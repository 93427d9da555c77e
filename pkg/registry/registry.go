// Package registry dispatches tool requests to the registered backend tools.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/courier/pkg/domain"
	"github.com/aretw0/courier/pkg/ports"
)

// Interceptor can inspect, veto or short-circuit a tool request.
// It returns true if execution should proceed. When it returns false the
// accompanying result is returned to the caller instead.
type Interceptor func(ctx context.Context, req domain.ToolRequest) (bool, domain.ToolResult, error)

// Registry manages the available tools.
type Registry struct {
	mu          sync.RWMutex
	tools       map[string]ports.Tool
	interceptor Interceptor
}

// Option configures a Registry.
type Option func(*Registry)

// WithInterceptor installs a policy run before every dispatch.
func WithInterceptor(i Interceptor) Option {
	return func(r *Registry) { r.interceptor = i }
}

// New creates a registry holding tools.
func New(tools []ports.Tool, opts ...Option) *Registry {
	r := &Registry{tools: make(map[string]ports.Tool)}
	for _, t := range tools {
		r.Register(t)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a tool to the registry.
// If a tool with the same name exists, it is overwritten.
func (r *Registry) Register(t ports.Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
}

// Names lists the registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for n := range r.tools {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Invoke looks up req.Tool and executes it.
// An unknown tool or an interceptor failure is reported as an invalid-request ToolError.
func (r *Registry) Invoke(ctx context.Context, req domain.ToolRequest) domain.ToolResult {
	r.mu.RLock()
	tool, ok := r.tools[req.Tool]
	interceptor := r.interceptor
	r.mu.RUnlock()

	if !ok {
		return domain.Failed(req.Tool, domain.NewToolError(req.Tool, domain.KindInvalid,
			fmt.Sprintf("tool not found: %s", req.Tool), domain.ErrToolNotFound))
	}

	if interceptor != nil {
		allowed, result, err := interceptor(ctx, req)
		if err != nil {
			return domain.Failed(req.Tool, domain.NewToolError(req.Tool, domain.KindInvalid, "interceptor failed", err))
		}
		if !allowed {
			return result
		}
	}

	return tool.Invoke(ctx, req)
}
