package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/courier/internal/cli"
	httpAdapter "github.com/aretw0/courier/pkg/adapters/http"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP chat server",
	Long:  `Serves the chat API, session history, the time endpoint, server-sent events and Prometheus metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, logger, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		listen := app.Config.Listen
		if cmd.Flags().Changed("listen") {
			listen, _ = cmd.Flags().GetString("listen")
		}

		srv := &http.Server{
			Addr: listen,
			Handler: httpAdapter.NewHandler(app.Engine,
				httpAdapter.WithLogger(logger),
				httpAdapter.WithMetrics(app.Metrics.Handler()),
			),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("courier server starting", "addr", srv.Addr, "tools", app.Config.Tools.BaseURL, "model", app.Config.Completion.Model)
			serverErrors <- srv.ListenAndServe()
		}()

		ctx, stop := cli.WithSignals(cmd.Context())
		defer stop()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-ctx.Done():
			logger.Info("shutting down", "signal", cli.CaughtSignal(ctx))

			// Give outstanding requests a deadline for completion.
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(sctx); err != nil {
				logger.Error("graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			logger.Info("courier server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("listen", "l", ":5000", "Address to listen on (overrides listen in the config)")
}
