package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var clearCmd = &cobra.Command{
	Use:   "clear <conversation-id>",
	Short: "Delete a conversation on the backend",
	Args:  cobra.ExactArgs(1),
	RunE:  runClear,
}

func runClear(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if err := apiClient.ClearConversation(ctx, args[0]); err != nil {
		return fmt.Errorf("clear conversation: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Conversation %s cleared.\n", args[0])
	return nil
}
