package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/raphaelgruber/helpdesk-go/internal/connectivity"
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check backend health",
	Args:  cobra.NoArgs,
	RunE:  runHealth,
}

func runHealth(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	out := cmd.OutOrStdout()

	status, err := apiClient.Health(ctx)
	if err != nil {
		fmt.Fprintln(out, connectivity.DisconnectedMessage(apiClient.BaseURL()))
		return fmt.Errorf("health check: %w", err)
	}

	fmt.Fprintf(out, "Backend: %s\n", apiClient.BaseURL())
	if status.Status == "" {
		fmt.Fprintln(out, "Status:  ok")
		return nil
	}
	fmt.Fprintf(out, "Status:  %s\n", status.Status)
	if status.Version != "" {
		fmt.Fprintf(out, "Version: %s\n", status.Version)
	}
	if status.Timestamp != "" {
		fmt.Fprintf(out, "Time:    %s\n", status.Timestamp)
	}
	if len(status.Components) > 0 {
		names := make([]string, 0, len(status.Components))
		for name := range status.Components {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Fprintln(out, "\nComponents:")
		for _, name := range names {
			fmt.Fprintf(out, "  %-20s %s\n", name, status.Components[name])
		}
	}
	return nil
}
