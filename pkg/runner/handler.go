package runner

import (
	"context"
)

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (CLI/TUI) and JSON (Structured) modes.
type IOHandler interface {
	// Output presents an answer to the user.
	Output(ctx context.Context, text string) error

	// Input reads the next message. It returns io.EOF when the input ends.
	Input(ctx context.Context) (string, error)

	// SystemOutput presents a meta-message (errors, confirmations, status).
	// This is distinct from content rendering.
	SystemOutput(ctx context.Context, msg string) error
}

// Responder answers one message within a session.
type Responder interface {
	Respond(ctx context.Context, sessionID, text string) (string, error)
}

// ResponderFunc adapts a function to Responder.
type ResponderFunc func(ctx context.Context, sessionID, text string) (string, error)

// Respond calls f.
func (f ResponderFunc) Respond(ctx context.Context, sessionID, text string) (string, error) {
	return f(ctx, sessionID, text)
}

// ContentRenderer transforms an answer before it is printed
// (markdown to ANSI, for instance).
type ContentRenderer func(string) (string, error)
