package cli

import (
	"fmt"
	"strings"

	"github.com/raphaelgruber/helpdesk-go/internal/escalation"
	"github.com/raphaelgruber/helpdesk-go/internal/models"
	"github.com/raphaelgruber/helpdesk-go/internal/session"
)

// Plain-text renderings shared by the line REPL and one-shot commands.

func speaker(role models.Role) string {
	if role == models.RoleUser {
		return "You"
	}
	return "Assistant"
}

// formatMessage renders a transcript entry with its sources and
// suggestions.
func formatMessage(m models.Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", speaker(m.Role), m.Content)
	if len(m.Sources) > 0 {
		fmt.Fprintf(&b, "  Sources: %s\n", strings.Join(m.Sources, ", "))
	}
	for _, s := range m.SuggestedActions {
		fmt.Fprintf(&b, "  → %s\n", s)
	}
	return b.String()
}

// formatActions renders the quick-action catalog as a numbered list.
func formatActions(catalog []models.QuickAction) string {
	if len(catalog) == 0 {
		return "No quick actions available.\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Quick actions (%d):\n", len(catalog))
	for i, a := range catalog {
		label := a.Label
		if a.Icon != "" {
			label = a.Icon + " " + label
		}
		fmt.Fprintf(&b, "  %d. %s [%s]\n", i+1, label, a.ID)
	}
	return b.String()
}

// escalationNotice describes the banner for the current escalation phase.
// It is empty when the banner is hidden.
func escalationNotice(s escalation.State) string {
	switch s.Phase {
	case escalation.Prompt:
		msg := "Need more help? Create a support ticket to get assistance from our IT team."
		if s.LastError != "" {
			msg = s.LastError + "\n" + msg
		}
		return msg
	case escalation.Submitting:
		return "Creating ticket..."
	case escalation.Success:
		var b strings.Builder
		fmt.Fprintf(&b, "✓ Ticket %s created.", s.TicketID)
		if s.EstimatedResponseTime != "" {
			fmt.Fprintf(&b, " Expected response: %s.", s.EstimatedResponseTime)
		}
		if s.Confirmation != "" {
			fmt.Fprintf(&b, "\n%s", s.Confirmation)
		}
		return b.String()
	default:
		return ""
	}
}

// connectivityLine is the status-bar text for the current connectivity.
func connectivityLine(st session.State) string {
	if st.Connectivity.Connected {
		return "● connected"
	}
	if st.Connectivity.LastError != "" {
		return "○ " + st.Connectivity.LastError
	}
	return "○ disconnected"
}
