package courier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/aretw0/courier/internal/logging"
	"github.com/aretw0/courier/pkg/adapters/memory"
	"github.com/aretw0/courier/pkg/completion"
	"github.com/aretw0/courier/pkg/domain"
	"github.com/aretw0/courier/pkg/ports"
	"github.com/aretw0/courier/pkg/prompt"
	"github.com/aretw0/courier/pkg/router"
	"github.com/aretw0/courier/pkg/runner"
	"github.com/aretw0/courier/pkg/session"
)

// HistoryWindow is the number of trailing messages returned to chat clients.
const HistoryWindow = 10

// Reply is the outcome of one handled message.
type Reply struct {
	// Text is the assistant's answer (possibly an apology or a direct tool diagnostic).
	Text string
	// Intent is the path the router selected.
	Intent domain.Intent
	// History is the caller's history with the user message and the reply appended.
	History []domain.Message
}

// Engine routes messages to tools and the model.
// It holds no per-conversation state; transcripts live in the session Manager.
type Engine struct {
	router    *router.Router
	composer  *prompt.Composer
	tools     ports.ToolInvoker
	completer ports.Completer
	sessions  *session.Manager
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithRouter replaces the default router.
func WithRouter(r *router.Router) Option {
	return func(e *Engine) {
		e.router = r
	}
}

// WithComposer replaces the default prompt composer.
func WithComposer(c *prompt.Composer) Option {
	return func(e *Engine) {
		e.composer = c
	}
}

// WithSessions sets the session manager used by Chat, History and Clear.
func WithSessions(m *session.Manager) Option {
	return func(e *Engine) {
		e.sessions = m
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an Engine. tools dispatches tool requests (usually a
// *registry.Registry) and completer answers prompts.
func New(tools ports.ToolInvoker, completer ports.Completer, opts ...Option) (*Engine, error) {
	if tools == nil {
		return nil, errors.New("tool invoker is required")
	}
	if completer == nil {
		return nil, errors.New("completer is required")
	}

	e := &Engine{tools: tools, completer: completer}
	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	if e.router == nil {
		e.router = router.New()
	}
	if e.composer == nil {
		e.composer = prompt.New()
	}
	if e.sessions == nil {
		e.sessions = session.NewManager(memory.NewStore(), session.WithLogger(e.logger))
	}
	return e, nil
}

// Router returns the router in use.
func (e *Engine) Router() *router.Router { return e.router }

// Sessions returns the session manager.
func (e *Engine) Sessions() *session.Manager { return e.sessions }

// HandleMessage classifies text, calls at most one tool, asks the model at
// most once and returns the answer with history extended by the exchange.
//
// Blank input and invalid UTF-8 are rejected before any network call. Failures of
// tools and of the model are turned into answer text; only an unexpected
// failure returns ErrProcessingFailed. On error the caller's history is
// returned unchanged.
func (e *Engine) HandleMessage(ctx context.Context, text string, history []domain.Message) (reply Reply, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("panic while handling message", "panic", r, "stack", string(debug.Stack()))
			reply = Reply{History: history}
			err = fmt.Errorf("%w: %v", domain.ErrProcessingFailed, r)
		}
	}()

	// Length is not capped here; transports bound their own request sizes.
	clean, err := runner.SanitizeLimit(text, 0)
	if err != nil {
		return Reply{History: history}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	if strings.TrimSpace(clean) == "" {
		return Reply{History: history}, domain.ErrEmptyMessage
	}
	if err := ctx.Err(); err != nil {
		return Reply{History: history}, err
	}

	decision := e.router.Route(clean)
	e.logger.Info("message routed", "intent", decision.Intent, "urls", len(decision.URLs))
	if e.hooks.OnRoute != nil {
		e.hooks.OnRoute(ctx, &domain.RouteEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventRoute},
			Intent:    decision.Intent,
			URLs:      decision.URLs,
		})
	}

	var result domain.ToolResult
	if decision.Request != nil {
		result = e.InvokeTool(ctx, *decision.Request)
	}

	plan := e.composer.Compose(decision.Intent, decision.Request, result, clean)
	answer := plan.Prompt
	if !plan.Direct {
		answer = e.complete(ctx, plan.Prompt)
	}

	next := make([]domain.Message, 0, len(history)+2)
	next = append(next, history...)
	next = append(next,
		domain.NewMessage(domain.RoleUser, clean),
		domain.NewMessage(domain.RoleAssistant, answer),
	)

	return Reply{Text: answer, Intent: decision.Intent, History: next}, nil
}

// InvokeTool runs a single tool request through the registry, firing the
// tool lifecycle hooks around it.
func (e *Engine) InvokeTool(ctx context.Context, req domain.ToolRequest) domain.ToolResult {
	start := time.Now()
	if e.hooks.OnToolCall != nil {
		e.hooks.OnToolCall(ctx, &domain.ToolEvent{
			EventBase: domain.EventBase{Timestamp: start, Type: domain.EventToolCall},
			ToolName:  req.Tool,
			Operation: req.Operation,
			Input:     req.Args,
		})
	}

	res := e.tools.Invoke(ctx, req)
	elapsed := time.Since(start)

	if res.Err != nil {
		e.logger.Warn("tool call failed", "tool_name", req.Tool, "operation", req.Operation, "duration", elapsed, "err", res.Err)
	} else {
		e.logger.Info("tool call finished", "tool_name", req.Tool, "operation", req.Operation, "duration", elapsed)
	}

	if e.hooks.OnToolReturn != nil {
		e.hooks.OnToolReturn(ctx, &domain.ToolEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventToolReturn},
			ToolName:  req.Tool,
			Operation: req.Operation,
			Output:    res.Payload,
			IsError:   res.Err != nil,
			Duration:  elapsed,
		})
	}
	return res
}

// CurrentTime asks the time tool for the configured timezone.
func (e *Engine) CurrentTime(ctx context.Context) domain.ToolResult {
	return e.InvokeTool(ctx, *e.router.TimeRequest())
}

func (e *Engine) complete(ctx context.Context, p string) string {
	start := time.Now()
	out, err := e.completer.Complete(ctx, p)

	if e.hooks.OnCompletion != nil {
		ev := &domain.CompletionEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventCompletion},
			IsError:   err != nil,
			Duration:  time.Since(start),
		}
		if m, ok := e.completer.(interface{ Model() string }); ok {
			ev.Model = m.Model()
		}
		e.hooks.OnCompletion(ctx, ev)
	}

	if err != nil {
		e.logger.Error("completion failed", "err", err)
		return completion.Apology(err)
	}
	return out
}

// Chat handles text within a persisted session: the transcript is loaded,
// extended and saved atomically. A failed turn leaves the transcript as it was.
func (e *Engine) Chat(ctx context.Context, sessionID, text string) (Reply, error) {
	var reply Reply
	_, err := e.sessions.Turn(ctx, sessionID, func(ctx context.Context, t *domain.Transcript) error {
		var err error
		reply, err = e.HandleMessage(ctx, text, t.Messages)
		if err != nil {
			return err
		}
		t.Messages = reply.History
		return nil
	})
	if err != nil {
		return Reply{}, err
	}
	return reply, nil
}

// History returns the transcript of a session.
func (e *Engine) History(ctx context.Context, sessionID string) ([]domain.Message, error) {
	return e.sessions.History(ctx, sessionID)
}

// Clear forgets the transcript of a session.
func (e *Engine) Clear(ctx context.Context, sessionID string) error {
	return e.sessions.Clear(ctx, sessionID)
}

// IsInputError reports whether err was caused by the message itself
// (blank, too large, malformed) rather than by the system.
func IsInputError(err error) bool {
	return errors.Is(err, domain.ErrEmptyMessage) || errors.Is(err, domain.ErrInvalidInput)
}
