package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventRoute      EventType = "route"
	EventToolCall   EventType = "tool_call"
	EventToolReturn EventType = "tool_return"
	EventCompletion EventType = "completion"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// RouteEvent is emitted once the router has classified a message.
type RouteEvent struct {
	EventBase
	Intent Intent   `json:"intent"`
	URLs   []string `json:"urls,omitempty"`
}

// ToolEvent represents a tool execution.
type ToolEvent struct {
	EventBase
	ToolName  string        `json:"tool_name"`
	Operation string        `json:"operation,omitempty"`
	Input     any           `json:"input,omitempty"`
	Output    any           `json:"output,omitempty"`
	IsError   bool          `json:"is_error,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
}

// CompletionEvent is emitted after the model has been called.
type CompletionEvent struct {
	EventBase
	Model    string        `json:"model,omitempty"`
	IsError  bool          `json:"is_error,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnRoute      func(context.Context, *RouteEvent)
	OnToolCall   func(context.Context, *ToolEvent)
	OnToolReturn func(context.Context, *ToolEvent)
	OnCompletion func(context.Context, *CompletionEvent)
}

// Merge combines two hook sets; both callbacks run when both are set.
func (h LifecycleHooks) Merge(o LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnRoute:      chain(h.OnRoute, o.OnRoute),
		OnToolCall:   chain(h.OnToolCall, o.OnToolCall),
		OnToolReturn: chain(h.OnToolReturn, o.OnToolReturn),
		OnCompletion: chain(h.OnCompletion, o.OnCompletion),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
