package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/courier"
	"github.com/aretw0/courier/internal/config"
	"github.com/aretw0/courier/internal/presentation/tui"
	"github.com/aretw0/courier/pkg/domain"
	"github.com/aretw0/courier/pkg/runner"
)

// ChatOptions configures an interactive conversation.
type ChatOptions struct {
	SessionID string
	JSON      bool
	In        io.Reader
	Out       io.Writer
	// AppOptions are passed through to NewApp.
	AppOptions []AppOption
}

// RunChat runs the read-respond loop on opts.In until it ends or ctx is cancelled.
func RunChat(ctx context.Context, cfg config.Config, logger *slog.Logger, opts ChatOptions) error {
	handler, interactive := newHandler(opts)

	appOpts := append([]AppOption{}, opts.AppOptions...)
	if interactive && cfg.Tools.AllowWrite {
		appOpts = append(appOpts, WithInterceptor(runner.ConfirmationMiddleware(handler, domain.OpWriteFile)))
	}

	app, err := NewApp(cfg, logger, appOpts...)
	if err != nil {
		return err
	}
	defer app.Close()

	if interactive {
		tui.PrintBanner(opts.Out, courier.Version)
	}

	r := runner.New(Responder(app.Engine),
		runner.WithHandler(handler),
		runner.WithSessionID(opts.SessionID),
		runner.WithLogger(logger),
		runner.WithClear(app.Engine.Clear),
		runner.WithHistory(app.Engine.History),
	)
	logger.Info("chat started", "session_id", opts.SessionID, "store", cfg.Session.Store)
	return r.Run(ctx)
}

// Responder adapts the engine's session chat to the runner.
func Responder(engine *courier.Engine) runner.Responder {
	return runner.ResponderFunc(func(ctx context.Context, sessionID, text string) (string, error) {
		reply, err := engine.Chat(ctx, sessionID, text)
		if err != nil {
			return "", err
		}
		return reply.Text, nil
	})
}

func newHandler(opts ChatOptions) (runner.IOHandler, bool) {
	if opts.JSON {
		return runner.NewJSONHandler(opts.In, opts.Out), false
	}
	var hopts []runner.TextHandlerOption
	if runner.IsTerminal(opts.Out) {
		hopts = append(hopts, runner.WithTextHandlerRenderer(tui.NewRenderer(tui.DefaultWordWrap)))
	}
	h := runner.NewTextHandler(opts.In, opts.Out, hopts...)
	return h, h.Interactive()
}

// Ask sends a single message through the engine and returns the reply.
// With no session ID the exchange is not persisted.
func Ask(ctx context.Context, app *App, sessionID, text string) (courier.Reply, error) {
	if sessionID == "" {
		return app.Engine.HandleMessage(ctx, text, nil)
	}
	return app.Engine.Chat(ctx, sessionID, text)
}

// PrintReply writes a reply as rendered markdown when w is a terminal.
func PrintReply(w io.Writer, text string) error {
	if runner.IsTerminal(w) {
		if out, err := tui.NewRenderer(tui.DefaultWordWrap)(text); err == nil {
			text = out
		}
	}
	_, err := fmt.Fprintln(w, text)
	return err
}
