package cli

import (
	"bytes"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/helpdesk-go/internal/client"
	"github.com/raphaelgruber/helpdesk-go/internal/config"
	"github.com/raphaelgruber/helpdesk-go/internal/models"
)

// withTicketGlobals points the ticket command at b and restores the
// package globals afterwards.
func withTicketGlobals(t *testing.T, b *testBackend, c config.Config) {
	t.Helper()
	srv := httptest.NewServer(b.handler())
	t.Cleanup(srv.Close)

	prevCfg, prevClient := cfg, apiClient
	prevName, prevEmail, prevDesc := ticketName, ticketEmail, ticketDescription
	prevPriority, prevCategory, prevConv := ticketPriority, ticketCategory, ticketConversation
	t.Cleanup(func() {
		cfg, apiClient = prevCfg, prevClient
		ticketName, ticketEmail, ticketDescription = prevName, prevEmail, prevDesc
		ticketPriority, ticketCategory, ticketConversation = prevPriority, prevCategory, prevConv
	})

	cfg = c
	apiClient = client.New(srv.URL, 2*time.Second)
}

func TestRunTicketFallsBackToConfiguredDefaults(t *testing.T) {
	b := &testBackend{}
	withTicketGlobals(t, b, config.Config{UserName: "Ada", UserEmail: "ada@example.com", TicketCategory: "general"})
	ticketName, ticketEmail, ticketCategory = "", "", ""
	ticketDescription = "Printer on floor 3 is jammed"
	ticketPriority = "high"
	ticketConversation = "abc123"

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	require.NoError(t, runTicket(cmd, nil))

	require.Len(t, b.tickets, 1)
	got := b.tickets[0]
	assert.Equal(t, "Ada", got.UserName)
	assert.Equal(t, "ada@example.com", got.UserEmail)
	assert.Equal(t, "general", got.Category)
	assert.Equal(t, models.PriorityHigh, got.Priority)
	assert.Equal(t, "abc123", got.ConversationID)
	assert.Contains(t, out.String(), "Ticket INC-42 created")
}

func TestRunTicketFlagsWinOverDefaults(t *testing.T) {
	b := &testBackend{}
	withTicketGlobals(t, b, config.Config{UserName: "Ada", UserEmail: "ada@example.com", TicketCategory: "general"})
	ticketName, ticketEmail, ticketCategory = "Grace", "grace@example.com", "hardware"
	ticketDescription = "Laptop will not boot"
	ticketPriority = "low"
	ticketConversation = ""

	cmd := &cobra.Command{}
	cmd.SetOut(&bytes.Buffer{})
	require.NoError(t, runTicket(cmd, nil))

	require.Len(t, b.tickets, 1)
	assert.Equal(t, "Grace", b.tickets[0].UserName)
	assert.Equal(t, "grace@example.com", b.tickets[0].UserEmail)
	assert.Equal(t, "hardware", b.tickets[0].Category)
}
