package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/courier/internal/cli"
	"github.com/aretw0/courier/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "courier",
	Short: "Courier routes chat messages to tools and a language model",
	Long: `Courier answers chat messages by detecting links, time questions and
file-browsing requests, calling the matching tool service and asking an
OpenAI-compatible model to phrase the answer.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to the configuration file (default courier.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging on stderr")
}

// loadConfig reads the configuration and builds the logger for cmd.
func loadConfig(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")

	cfg, err := config.Load(path)
	if err != nil {
		return cfg, nil, err
	}
	logger, err := cli.NewLogger(cfg, debug)
	if err != nil {
		return cfg, nil, err
	}
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// newApp loads the configuration and wires the engine.
func newApp(cmd *cobra.Command, opts ...cli.AppOption) (*cli.App, *slog.Logger, error) {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	app, err := cli.NewApp(cfg, logger, opts...)
	if err != nil {
		return nil, nil, err
	}
	return app, logger, nil
}
