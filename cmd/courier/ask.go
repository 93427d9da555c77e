package main

import (
	"encoding/json"
	"strings"

	"github.com/aretw0/courier/internal/cli"
	httpAdapter "github.com/aretw0/courier/pkg/adapters/http"
	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <message>...",
	Short: "Send a single message and print the answer",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		sessionID, _ := cmd.Flags().GetString("session")
		reply, err := cli.Ask(cmd.Context(), app, sessionID, strings.Join(args, " "))
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(httpAdapter.ChatResponse{
				Response: reply.Text,
				Intent:   reply.Intent,
				Messages: reply.History,
			})
		}
		return cli.PrintReply(cmd.OutOrStdout(), reply.Text)
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringP("session", "s", "", "Persist the exchange under this session ID")
	askCmd.Flags().Bool("json", false, "Print the answer as JSON")
}
