package cli

import (
	"cmp"
	"context"
	"fmt"

	"github.com/raphaelgruber/helpdesk-go/internal/escalation"
	"github.com/raphaelgruber/helpdesk-go/internal/models"
	"github.com/spf13/cobra"
)

var (
	ticketName         string
	ticketEmail        string
	ticketDescription  string
	ticketPriority     string
	ticketCategory     string
	ticketConversation string
)

var ticketCmd = &cobra.Command{
	Use:   "ticket",
	Short: "Create a support ticket",
	Long: `Create a support ticket for the IT team.

Name and email default to HELPDESK_USER_NAME and HELPDESK_USER_EMAIL.
Priorities:
  low       Can wait 2-3 days
  medium    Need help within 1 day
  high      Blocking my work
  critical  System down

Examples:
  helpdesk ticket --name "Jane Doe" --email jane@example.com \
    --description "Laptop will not boot" --priority high
  helpdesk ticket --conversation abc123 --description "Still locked out"`,
	Args: cobra.NoArgs,
	RunE: runTicket,
}

func init() {
	ticketCmd.Flags().StringVar(&ticketName, "name", "", "your name")
	ticketCmd.Flags().StringVar(&ticketEmail, "email", "", "your email address")
	ticketCmd.Flags().StringVarP(&ticketDescription, "description", "d", "", "issue description")
	ticketCmd.Flags().StringVarP(&ticketPriority, "priority", "p", "medium", "low, medium, high or critical")
	ticketCmd.Flags().StringVar(&ticketCategory, "category", "", "ticket category")
	ticketCmd.Flags().StringVar(&ticketConversation, "conversation", "", "conversation id to attach")
}

func runTicket(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	priority, err := models.ParsePriority(ticketPriority)
	if err != nil {
		return err
	}

	form := escalation.Form{
		Name:        cmp.Or(ticketName, cfg.UserName),
		Email:       cmp.Or(ticketEmail, cfg.UserEmail),
		Description: ticketDescription,
		Priority:    priority,
		Category:    cmp.Or(ticketCategory, cfg.TicketCategory),
	}
	req, err := escalation.BuildRequest(form, ticketConversation)
	if err != nil {
		return fmt.Errorf("invalid ticket: %w", err)
	}

	resp, err := apiClient.CreateTicket(ctx, req)
	if err != nil {
		return fmt.Errorf("create ticket: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Ticket %s created (%s)\n", resp.TicketID, resp.Status)
	if resp.EstimatedResponseTime != "" {
		fmt.Fprintf(out, "  Expected response: %s\n", resp.EstimatedResponseTime)
	}
	if resp.Message != "" {
		fmt.Fprintf(out, "  %s\n", resp.Message)
	}
	return nil
}

