package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var actionsCmd = &cobra.Command{
	Use:   "actions",
	Short: "List quick actions",
	Long: `List the quick actions offered by the backend.

Run one with 'helpdesk ask --action <id>' or '/action <id>' in a chat.`,
	Args: cobra.NoArgs,
	RunE: runActions,
}

func runActions(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	actions, err := apiClient.QuickActions(ctx)
	if err != nil {
		return fmt.Errorf("list quick actions: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, formatActions(actions))
	if verbose {
		for _, a := range actions {
			if a.Description != "" {
				fmt.Fprintf(out, "\n%s (%s)\n  %s\n", a.Label, a.Category, a.Description)
			}
		}
	}
	return nil
}
