package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/courier/internal/cli"
	"github.com/aretw0/courier/pkg/domain"
	"github.com/aretw0/courier/pkg/gateway"
	"github.com/aretw0/courier/pkg/runner"
	"github.com/spf13/cobra"
)

var timeCmd = &cobra.Command{
	Use:   "time",
	Short: "Ask the time service for the current time",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		req := *app.Engine.Router().TimeRequest()
		if tz, _ := cmd.Flags().GetString("timezone"); tz != "" {
			req.Args["timezone"] = tz
		}
		return printResult(cmd.OutOrStdout(), app.Engine.InvokeTool(cmd.Context(), req))
	},
}

var fsCmd = &cobra.Command{
	Use:   "fs",
	Short: "Browse files through the filesystem service",
}

func fsOp(use, short, op string, args cobra.PositionalArgs) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFilesystem(cmd, op, args)
		},
	}
}

var (
	fsLsCmd     = fsOp("ls", "List the configured root (tools.fs_root)", domain.OpListDirectory, cobra.NoArgs)
	fsReadCmd   = fsOp("read <path>", "Print a file", domain.OpReadFile, cobra.ExactArgs(1))
	fsInfoCmd   = fsOp("info <path>", "Show file metadata", domain.OpGetFileInfo, cobra.ExactArgs(1))
	fsSearchCmd = fsOp("search <path> <pattern>", "Search for files by name", domain.OpSearchFiles, cobra.ExactArgs(2))
	fsWriteCmd  = fsOp("write <path> [content]", "Write a file from an argument or stdin (requires tools.allow_write)", domain.OpWriteFile, cobra.RangeArgs(1, 2))
)

func runFilesystem(cmd *cobra.Command, op string, args []string) error {
	var opts []cli.AppOption
	if op == domain.OpWriteFile && runner.IsTerminal(os.Stdin) {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			opts = append(opts, cli.WithInterceptor(runner.ConfirmationMiddleware(
				runner.NewTextHandler(os.Stdin, cmd.OutOrStdout()), domain.OpWriteFile)))
		}
	}

	app, _, err := newApp(cmd, opts...)
	if err != nil {
		return err
	}
	defer app.Close()

	path := app.Engine.Router().FilesystemRoot()
	if op != domain.OpListDirectory {
		path = args[0]
	}
	toolArgs := map[string]any{"path": path}

	switch op {
	case domain.OpSearchFiles:
		toolArgs["pattern"] = args[1]
		if exclude, _ := cmd.Flags().GetStringSlice("exclude"); len(exclude) > 0 {
			toolArgs["excludePatterns"] = exclude
		}
	case domain.OpWriteFile:
		content, err := writeContent(cmd, args)
		if err != nil {
			return err
		}
		toolArgs["content"] = content
	}

	res := app.Engine.InvokeTool(cmd.Context(), domain.ToolRequest{
		Tool:      domain.ToolFilesystem,
		Operation: op,
		Args:      toolArgs,
	})
	if op == domain.OpListDirectory && res.Err == nil {
		if entries, ok := gateway.Entries(res.Payload); ok {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), strings.Join(gateway.FormatEntries(entries), "\n"))
			return err
		}
	}
	return printResult(cmd.OutOrStdout(), res)
}

func writeContent(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 2 {
		return args[1], nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read content: %w", err)
	}
	return string(data), nil
}

// printResult prints a tool payload, or returns the tool's failure.
func printResult(w io.Writer, res domain.ToolResult) error {
	if res.Err != nil {
		var te *domain.ToolError
		if errors.As(res.Err, &te) {
			return errors.New(te.Detail())
		}
		return res.Err
	}
	if s, ok := res.Payload.(string); ok {
		_, err := fmt.Fprintln(w, s)
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res.Payload)
}

func init() {
	rootCmd.AddCommand(timeCmd)
	timeCmd.Flags().String("timezone", "", "IANA timezone (default: tools.timezone)")

	rootCmd.AddCommand(fsCmd)
	fsCmd.AddCommand(fsLsCmd, fsReadCmd, fsInfoCmd, fsSearchCmd, fsWriteCmd)
	fsSearchCmd.Flags().StringSlice("exclude", nil, "Patterns to exclude")
	fsWriteCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
}
