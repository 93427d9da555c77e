package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aretw0/courier/pkg/domain"
	"github.com/aretw0/courier/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	m := observability.NewMetrics()
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnRoute(ctx, &domain.RouteEvent{Intent: domain.IntentTime})
	hooks.OnRoute(ctx, &domain.RouteEvent{Intent: domain.IntentTime})
	hooks.OnToolReturn(ctx, &domain.ToolEvent{ToolName: "time", IsError: true, Duration: 10 * time.Millisecond})
	hooks.OnCompletion(ctx, &domain.CompletionEvent{Duration: time.Second})

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, `courier_intents_total{intent="time"} 2`)
	assert.Contains(t, body, `courier_tool_calls_total{outcome="error",tool="time"} 1`)
	assert.Contains(t, body, `courier_completions_total{outcome="ok"} 1`)
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	hooks := observability.LogHooks(logger)
	hooks.OnToolCall(context.Background(), &domain.ToolEvent{ToolName: "fetch"})
	assert.Contains(t, buf.String(), "tool_name=fetch")
}
