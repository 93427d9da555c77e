package domain_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aretw0/courier/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestToolError_IsMatchesKind(t *testing.T) {
	tests := []struct {
		kind     domain.ToolErrorKind
		sentinel error
	}{
		{domain.KindUnavailable, domain.ErrToolUnavailable},
		{domain.KindStatus, domain.ErrToolStatus},
		{domain.KindRemote, domain.ErrToolRemote},
		{domain.KindInvalid, domain.ErrToolInvalid},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			err := fmt.Errorf("wrapped: %w", domain.NewToolError("time", tt.kind, "boom", nil))
			assert.ErrorIs(t, err, tt.sentinel)
			assert.NotErrorIs(t, err, domain.ErrToolNotFound)
		})
	}
}

func TestToolError_Message(t *testing.T) {
	err := &domain.ToolError{Tool: "fetch", Kind: domain.KindStatus, Status: 502, Message: "bad gateway"}
	assert.Equal(t, "fetch: HTTP error: 502 - bad gateway", err.Error())
	assert.Equal(t, "HTTP error: 502 - bad gateway", err.Detail())

	cause := errors.New("connection refused")
	err = domain.NewToolError("time", domain.KindUnavailable, "", cause)
	assert.Equal(t, "time: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestLastN(t *testing.T) {
	var history []domain.Message
	for i := 0; i < 12; i++ {
		history = append(history, domain.NewMessage(domain.RoleUser, fmt.Sprint(i)))
	}

	tail := domain.LastN(history, 10)
	assert.Len(t, tail, 10)
	assert.Equal(t, "2", tail[0].Content)

	tail[0].Content = "mutated"
	assert.Equal(t, "2", history[2].Content)

	assert.Len(t, domain.LastN(history[:3], 10), 3)
	assert.Len(t, domain.LastN(history, 0), 12)
}

func TestLifecycleHooks_Merge(t *testing.T) {
	var calls []string
	a := domain.LifecycleHooks{OnRoute: func(_ context.Context, _ *domain.RouteEvent) { calls = append(calls, "a") }}
	b := domain.LifecycleHooks{OnRoute: func(_ context.Context, _ *domain.RouteEvent) { calls = append(calls, "b") }}

	merged := a.Merge(b)
	merged.OnRoute(context.Background(), &domain.RouteEvent{})
	assert.Equal(t, []string{"a", "b"}, calls)
	assert.Nil(t, merged.OnToolCall)
}
