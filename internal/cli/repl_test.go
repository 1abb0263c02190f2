package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/helpdesk-go/internal/client"
	"github.com/raphaelgruber/helpdesk-go/internal/connectivity"
	"github.com/raphaelgruber/helpdesk-go/internal/metrics"
	"github.com/raphaelgruber/helpdesk-go/internal/models"
	"github.com/raphaelgruber/helpdesk-go/internal/session"
)

// testBackend is an in-memory helpdesk API.
type testBackend struct {
	mu       sync.Mutex
	escalate bool
	tickets  []models.TicketRequest
	deleted  []string
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (b *testBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, models.HealthStatus{Status: "healthy"})
	})
	mux.HandleFunc("GET /quick-actions", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []models.QuickAction{
			{ID: "password_reset", Label: "Reset Password", Description: "I need to reset my password", Icon: "🔑"},
			{ID: "wifi", Label: "Wi-Fi Issues", Description: "I'm having trouble connecting to Wi-Fi", Icon: "📶"},
		})
	})
	mux.HandleFunc("POST /chat", func(w http.ResponseWriter, r *http.Request) {
		var req models.ChatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		b.mu.Lock()
		escalate := b.escalate
		b.mu.Unlock()
		writeJSON(w, models.ChatResponse{
			Response:       "Answer to: " + req.Message,
			ConversationID: "abc123",
			Sources:        []string{"kb/general.md"},
			ShouldEscalate: escalate,
		})
	})
	mux.HandleFunc("POST /quick-action/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, models.ChatResponse{Response: "Steps for " + r.PathValue("id"), ConversationID: "abc123"})
	})
	mux.HandleFunc("POST /ticket", func(w http.ResponseWriter, r *http.Request) {
		var req models.TicketRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		b.mu.Lock()
		b.tickets = append(b.tickets, req)
		b.mu.Unlock()
		writeJSON(w, models.TicketResponse{TicketID: "INC-42", Status: "open", EstimatedResponseTime: "4 hours", Message: "Ticket created"})
	})
	mux.HandleFunc("DELETE /conversation/{id}", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.deleted = append(b.deleted, r.PathValue("id"))
		b.mu.Unlock()
		writeJSON(w, map[string]string{"message": "cleared"})
	})
	return mux
}

func newTestController(t *testing.T, b *testBackend) (*session.Controller, *metrics.Collector) {
	t.Helper()
	srv := httptest.NewServer(b.handler())
	t.Cleanup(srv.Close)

	rec := metrics.NewCollector()
	c := client.New(srv.URL, 2*time.Second, client.WithRecorder(rec))
	ctrl := session.New(c, connectivity.New(c, srv.URL, 0, nil), session.Options{})
	t.Cleanup(ctrl.Close)
	ctrl.Initialize(context.Background())
	return ctrl, rec
}

func runScript(t *testing.T, ctrl *session.Controller, rec *metrics.Collector, lines ...string) string {
	t.Helper()
	var out bytes.Buffer
	in := strings.NewReader(strings.Join(lines, "\n") + "\n")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, runREPL(ctx, ctrl, in, &out, rec.Snapshot, nil))
	require.NoError(t, ctx.Err(), "script did not finish")
	return out.String()
}

func TestREPLExchange(t *testing.T) {
	ctrl, rec := newTestController(t, &testBackend{})

	out := runScript(t, ctrl, rec, "How do I reset my password?")

	assert.Contains(t, out, "Assistant: "+session.WelcomeMessage)
	assert.Contains(t, out, "1. 🔑 Reset Password [password_reset]")
	assert.Contains(t, out, "You: How do I reset my password?")
	assert.Contains(t, out, "Assistant: Answer to: How do I reset my password?")
	assert.Contains(t, out, "Sources: kb/general.md")

	st := ctrl.State()
	assert.Equal(t, "abc123", st.ConversationID)
	assert.Len(t, st.Transcript, 3)
}

func TestREPLQuickActionByIndex(t *testing.T) {
	ctrl, rec := newTestController(t, &testBackend{})

	out := runScript(t, ctrl, rec, "/action 2")

	assert.Contains(t, out, "You: I'm having trouble connecting to Wi-Fi")
	assert.Contains(t, out, "Assistant: Steps for wifi")
}

func TestREPLClear(t *testing.T) {
	b := &testBackend{}
	ctrl, rec := newTestController(t, b)

	out := runScript(t, ctrl, rec, "hello", "/clear", "y")

	assert.Contains(t, out, "Clear the conversation? [y/N]")
	assert.Contains(t, out, "Assistant: "+session.ClearedMessage)
	st := ctrl.State()
	assert.Len(t, st.Transcript, 1)
	assert.Empty(t, st.ConversationID)
	assert.Equal(t, []string{"abc123"}, b.deleted)
}

func TestREPLClearDeclined(t *testing.T) {
	ctrl, rec := newTestController(t, &testBackend{})

	out := runScript(t, ctrl, rec, "hello", "/clear", "n")

	assert.Contains(t, out, "Clear canceled.")
	assert.Len(t, ctrl.State().Transcript, 3)
}

func TestREPLTicketFlow(t *testing.T) {
	b := &testBackend{escalate: true}
	ctrl, rec := newTestController(t, b)

	out := runScript(t, ctrl, rec,
		"my laptop is on fire",
		"/ticket",
		"Jane Doe",
		"not-an-email",
		"Laptop overheating",
		"high",
		// validation failed, the form restarts with entered values as defaults
		"",
		"jane@example.com",
		"",
		"",
	)

	assert.Contains(t, out, "Need more help? Create a support ticket")
	assert.Contains(t, out, `email: "not-an-email" is not a valid address`)
	assert.Contains(t, out, "✓ Ticket INC-42 created. Expected response: 4 hours.")

	require.Len(t, b.tickets, 1)
	ticket := b.tickets[0]
	assert.Equal(t, "Jane Doe", ticket.UserName)
	assert.Equal(t, "jane@example.com", ticket.UserEmail)
	assert.Equal(t, "Laptop overheating", ticket.IssueDescription)
	assert.Equal(t, models.PriorityHigh, ticket.Priority)
	assert.Equal(t, "abc123", ticket.ConversationID)

	// The ticket never touches the transcript.
	assert.Len(t, ctrl.State().Transcript, 3)
}

func TestREPLTicketWithoutEscalation(t *testing.T) {
	ctrl, rec := newTestController(t, &testBackend{})

	out := runScript(t, ctrl, rec, "/ticket")
	assert.Contains(t, out, "There is nothing to escalate right now.")
}

func TestREPLCommands(t *testing.T) {
	ctrl, rec := newTestController(t, &testBackend{})

	out := runScript(t, ctrl, rec, "/bogus", "/help", "/stats", "/quit", "never sent")

	assert.Contains(t, out, "unknown command /bogus")
	assert.Contains(t, out, "/action <id|n>")
	assert.Contains(t, out, "Client Statistics")
	assert.NotContains(t, out, "never sent")
}
