package runner

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/courier/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedHandler replays canned inputs and records everything shown.
type scriptedHandler struct {
	inputs  []string
	inErr   error
	outputs []string
	system  []string
}

func (h *scriptedHandler) Output(_ context.Context, text string) error {
	h.outputs = append(h.outputs, text)
	return nil
}

func (h *scriptedHandler) SystemOutput(_ context.Context, msg string) error {
	h.system = append(h.system, msg)
	return nil
}

func (h *scriptedHandler) Input(context.Context) (string, error) {
	if h.inErr != nil {
		return "", h.inErr
	}
	if len(h.inputs) == 0 {
		return "", errors.New("no more input")
	}
	next := h.inputs[0]
	h.inputs = h.inputs[1:]
	return next, nil
}

var writeReq = domain.ToolRequest{
	Tool:      domain.ToolFilesystem,
	Operation: domain.OpWriteFile,
	Args:      map[string]any{"path": "/tmp/a.txt", "content": "hi"},
}

func TestConfirmationMiddleware_Allow(t *testing.T) {
	h := &scriptedHandler{inputs: []string{"Y"}}
	interceptor := ConfirmationMiddleware(h, domain.OpWriteFile)

	allowed, _, err := interceptor(context.Background(), writeReq)
	require.NoError(t, err)
	assert.True(t, allowed)
	require.Len(t, h.system, 1)
	assert.Contains(t, h.system[0], "Tool Request: 'filesystem.write_file'")
	assert.Contains(t, h.system[0], "content=hi path=/tmp/a.txt")
}

func TestConfirmationMiddleware_Deny(t *testing.T) {
	h := &scriptedHandler{inputs: []string{"no"}}
	interceptor := ConfirmationMiddleware(h, domain.OpWriteFile)

	allowed, res, err := interceptor(context.Background(), writeReq)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.True(t, res.IsError())
	assert.ErrorIs(t, res.Err, domain.ErrToolInvalid)
	assert.Contains(t, res.Err.Error(), "user denied execution")
}

func TestConfirmationMiddleware_UnguardedPassesThrough(t *testing.T) {
	h := &scriptedHandler{}
	interceptor := ConfirmationMiddleware(h, domain.OpWriteFile)

	allowed, _, err := interceptor(context.Background(), domain.ToolRequest{
		Tool: domain.ToolFilesystem, Operation: domain.OpListDirectory,
	})
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Empty(t, h.system, "no question asked")
}

func TestConfirmationMiddleware_InputError(t *testing.T) {
	h := &scriptedHandler{inErr: context.Canceled}
	interceptor := ConfirmationMiddleware(h)

	allowed, _, err := interceptor(context.Background(), writeReq)
	assert.False(t, allowed)
	assert.ErrorIs(t, err, context.Canceled)
}
