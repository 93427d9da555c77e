package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/courier/internal/config"
	"github.com/aretw0/courier/internal/logging"
)

// SignalError is the cancellation cause of a context stopped by a signal.
type SignalError struct {
	Signal os.Signal
}

func (e *SignalError) Error() string {
	return "received signal " + e.Signal.String()
}

// WithSignals returns a copy of parent that is cancelled on SIGINT or SIGTERM.
// The caught signal is available through CaughtSignal.
func WithSignals(parent context.Context) (context.Context, context.CancelFunc) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	ctx, cancel := withSignalChan(parent, ch)
	return ctx, func() {
		cancel()
		signal.Stop(ch)
	}
}

func withSignalChan(parent context.Context, ch <-chan os.Signal) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(parent)
	go func() {
		select {
		case sig := <-ch:
			cancel(&SignalError{Signal: sig})
		case <-ctx.Done():
		}
	}()
	return ctx, func() { cancel(nil) }
}

// CaughtSignal returns the signal that cancelled ctx, or nil.
func CaughtSignal(ctx context.Context) os.Signal {
	var se *SignalError
	if errors.As(context.Cause(ctx), &se) {
		return se.Signal
	}
	return nil
}

// NewLogger configures the application logger on stderr.
// debug forces LevelDebug; otherwise cfg.LogLevel applies.
func NewLogger(cfg config.Config, debug bool) (*slog.Logger, error) {
	if debug {
		return logging.New(slog.LevelDebug), nil
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return logging.New(level), nil
}

// IsInterrupted reports whether err is the normal end of an interactive session.
func IsInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, io.EOF)
}
