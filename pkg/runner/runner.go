package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/courier/internal/logging"
	"github.com/aretw0/courier/pkg/domain"
)

// Runner handles the read-respond loop of an interactive conversation.
// It uses an IOHandler strategy to abstract the interaction mode (Text vs JSON).
type Runner struct {
	responder Responder
	handler   IOHandler
	sessionID string
	logger    *slog.Logger

	clear   func(ctx context.Context, sessionID string) error
	history func(ctx context.Context, sessionID string) ([]domain.Message, error)
}

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithHandler configures the IOHandler. Defaults to a TextHandler on Stdin/Stdout.
func WithHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.handler = handler
	}
}

// WithSessionID sets the session every message is sent under.
func WithSessionID(id string) Option {
	return func(r *Runner) {
		r.sessionID = id
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithClear enables the /clear command.
func WithClear(fn func(ctx context.Context, sessionID string) error) Option {
	return func(r *Runner) {
		r.clear = fn
	}
}

// WithHistory enables the /history command.
func WithHistory(fn func(ctx context.Context, sessionID string) ([]domain.Message, error)) Option {
	return func(r *Runner) {
		r.history = fn
	}
}

// New creates a Runner sending every message to responder.
func New(responder Responder, opts ...Option) *Runner {
	r := &Runner{responder: responder}
	for _, opt := range opts {
		opt(r)
	}
	if r.handler == nil {
		r.handler = NewTextHandler(os.Stdin, os.Stdout)
	}
	if r.logger == nil {
		r.logger = logging.NewNop()
	}
	return r
}

// Handler returns the IOHandler in use.
func (r *Runner) Handler() IOHandler { return r.handler }

// Run loops until the input ends, the user types exit or quit, or ctx is
// cancelled. A failed message is reported and the loop continues.
func (r *Runner) Run(ctx context.Context) error {
	for {
		line, err := r.handler.Input(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}

		text := strings.TrimSpace(line)
		switch strings.ToLower(text) {
		case "":
			continue
		case "exit", "quit":
			return nil
		case "/clear":
			if r.clear != nil {
				r.command(ctx, "Conversation cleared.", r.clear(ctx, r.sessionID))
				continue
			}
		case "/history":
			if r.history != nil {
				r.showHistory(ctx)
				continue
			}
		}

		answer, err := r.responder.Respond(ctx, r.sessionID, text)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			r.logger.Warn("message failed", "session_id", r.sessionID, "err", err)
			if err := r.handler.SystemOutput(ctx, "Error: "+err.Error()); err != nil {
				return fmt.Errorf("output error: %w", err)
			}
			continue
		}

		if err := r.handler.Output(ctx, answer); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
	}
}

func (r *Runner) command(ctx context.Context, ok string, err error) {
	msg := ok
	if err != nil {
		msg = "Error: " + err.Error()
	}
	_ = r.handler.SystemOutput(ctx, msg)
}

func (r *Runner) showHistory(ctx context.Context) {
	msgs, err := r.history(ctx, r.sessionID)
	if err != nil {
		r.command(ctx, "", err)
		return
	}
	if len(msgs) == 0 {
		_ = r.handler.SystemOutput(ctx, "No messages yet.")
		return
	}
	var b strings.Builder
	for _, m := range msgs {
		fmt.Fprintf(&b, "\n%s: %s", m.Role, m.Content)
	}
	_ = r.handler.SystemOutput(ctx, "History:"+b.String())
}
