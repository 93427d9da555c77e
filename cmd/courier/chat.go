package main

import (
	"os"

	"github.com/aretw0/courier/internal/cli"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive conversation",
	Long: `Reads messages from stdin and prints the answers.
Type /history to show the conversation, /clear to forget it and exit to quit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		sessionID, _ := cmd.Flags().GetString("session")
		if sessionID == "" {
			sessionID = uuid.NewString()
		}
		jsonMode, _ := cmd.Flags().GetBool("json")

		ctx, stop := cli.WithSignals(cmd.Context())
		defer stop()

		err = cli.RunChat(ctx, cfg, logger, cli.ChatOptions{
			SessionID: sessionID,
			JSON:      jsonMode,
			In:        os.Stdin,
			Out:       os.Stdout,
		})
		if err != nil && !cli.IsInterrupted(err) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringP("session", "s", "", "Session ID to resume (default: a new random ID)")
	chatCmd.Flags().Bool("json", false, "Exchange JSON lines instead of text")
}
