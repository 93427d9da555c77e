package observability

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/aretw0/courier/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors exported by courier.
type Metrics struct {
	registry     *prometheus.Registry
	intents      *prometheus.CounterVec
	toolCalls    *prometheus.CounterVec
	toolDuration *prometheus.HistogramVec
	completions  *prometheus.CounterVec
	latency      prometheus.Histogram
}

// NewMetrics creates the collectors on a dedicated registry, along with the
// Go runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		intents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "courier_intents_total",
			Help: "Messages routed, by intent.",
		}, []string{"intent"}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "courier_tool_calls_total",
			Help: "Tool invocations, by tool and outcome.",
		}, []string{"tool", "outcome"}),
		toolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "courier_tool_duration_seconds",
			Help:    "Duration of tool invocations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"tool"}),
		completions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "courier_completions_total",
			Help: "Model completions, by outcome.",
		}, []string{"outcome"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "courier_completion_duration_seconds",
			Help:    "Duration of model completions.",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 90},
		}),
	}
	m.registry.MustRegister(
		m.intents, m.toolCalls, m.toolDuration, m.completions, m.latency,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry (useful in tests).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks records metrics from lifecycle events.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRoute: func(_ context.Context, e *domain.RouteEvent) {
			m.intents.WithLabelValues(string(e.Intent)).Inc()
		},
		OnToolReturn: func(_ context.Context, e *domain.ToolEvent) {
			m.toolCalls.WithLabelValues(e.ToolName, outcome(e.IsError)).Inc()
			m.toolDuration.WithLabelValues(e.ToolName).Observe(e.Duration.Seconds())
		},
		OnCompletion: func(_ context.Context, e *domain.CompletionEvent) {
			m.completions.WithLabelValues(outcome(e.IsError)).Inc()
			m.latency.Observe(e.Duration.Seconds())
		},
	}
}

// LogHooks emits one debug line per lifecycle event.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRoute: func(ctx context.Context, e *domain.RouteEvent) {
			logger.DebugContext(ctx, "route", "intent", e.Intent, "urls", len(e.URLs))
		},
		OnToolCall: func(ctx context.Context, e *domain.ToolEvent) {
			logger.DebugContext(ctx, "tool_call", "tool_name", e.ToolName, "operation", e.Operation, "input", e.Input)
		},
		OnToolReturn: func(ctx context.Context, e *domain.ToolEvent) {
			logger.DebugContext(ctx, "tool_return", "tool_name", e.ToolName, "is_error", e.IsError, "duration", e.Duration)
		},
		OnCompletion: func(ctx context.Context, e *domain.CompletionEvent) {
			logger.DebugContext(ctx, "completion", "model", e.Model, "is_error", e.IsError, "duration", e.Duration)
		},
	}
}

func outcome(isError bool) string {
	if isError {
		return "error"
	}
	return "ok"
}
