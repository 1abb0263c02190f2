package escalation_test

import (
	"errors"
	"testing"

	"github.com/raphaelgruber/helpdesk-go/internal/escalation"
	"github.com/raphaelgruber/helpdesk-go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validForm() escalation.Form {
	return escalation.Form{
		Name:        "Jane Doe",
		Email:       "jane@example.com",
		Description: "VPN disconnects every few minutes",
	}
}

// reduce applies events in order and fails the test on any rejection.
func reduce(t *testing.T, s escalation.State, events ...escalation.Event) escalation.State {
	t.Helper()
	for _, ev := range events {
		var err error
		s, _, err = escalation.Reduce(s, ev)
		require.NoError(t, err, "event %T", ev)
	}
	return s
}

func TestSignaledEntersPromptOnce(t *testing.T) {
	s := reduce(t, escalation.State{}, escalation.Signaled{})
	assert.Equal(t, escalation.Prompt, s.Phase)
	assert.True(t, s.Active())

	again := reduce(t, s, escalation.Signaled{})
	assert.Equal(t, s, again, "a second signal while prompting changes nothing")
}

func TestSignalIgnoredWhileBusy(t *testing.T) {
	for _, phase := range []escalation.Phase{escalation.FormOpen, escalation.Submitting, escalation.Success} {
		t.Run(phase.String(), func(t *testing.T) {
			s := escalation.State{Phase: phase, TicketID: "TKT-1"}
			got := reduce(t, s, escalation.Signaled{})
			assert.Equal(t, s, got)
		})
	}
}

func TestHappyPath(t *testing.T) {
	s := reduce(t, escalation.State{}, escalation.Signaled{}, escalation.Opened{})
	require.Equal(t, escalation.FormOpen, s.Phase)

	s, req, err := escalation.Reduce(s, escalation.Submitted{Form: validForm(), ConversationID: "abc123"})
	require.NoError(t, err)
	require.NotNil(t, req)
	assert.Equal(t, escalation.Submitting, s.Phase)
	assert.Equal(t, models.PriorityMedium, req.Priority, "priority defaults to medium")
	assert.Equal(t, escalation.DefaultCategory, req.Category)
	assert.Equal(t, "abc123", req.ConversationID)
	assert.Equal(t, "jane@example.com", req.UserEmail)

	s = reduce(t, s, escalation.Settled{Response: &models.TicketResponse{
		TicketID:              "TKT-1A2B3C4D",
		EstimatedResponseTime: "1 business day",
		Message:               "created",
	}})
	assert.Equal(t, escalation.Success, s.Phase)
	assert.Equal(t, "TKT-1A2B3C4D", s.TicketID)
	assert.Equal(t, "1 business day", s.EstimatedResponseTime)

	s = reduce(t, s, escalation.Dismissed{})
	assert.Equal(t, escalation.State{}, s)
}

func TestSubmitMissingEmailStaysInForm(t *testing.T) {
	s := reduce(t, escalation.State{}, escalation.Signaled{}, escalation.Opened{})
	form := validForm()
	form.Email = ""

	next, req, err := escalation.Reduce(s, escalation.Submitted{Form: form, ConversationID: "abc123"})
	require.Error(t, err)
	assert.Nil(t, req, "no ticket request may be produced")
	assert.Equal(t, escalation.FormOpen, next.Phase)

	fields := escalation.FieldErrors(err)
	require.Len(t, fields, 1)
	assert.Equal(t, "email", fields[0].Field)
}

func TestFailureReturnsToPrompt(t *testing.T) {
	s := reduce(t, escalation.State{}, escalation.Signaled{}, escalation.Opened{},
		escalation.Submitted{Form: validForm(), ConversationID: "abc123"})

	s = reduce(t, s, escalation.Settled{Err: errors.New("boom"), FailureMessage: "try later"})
	assert.Equal(t, escalation.Prompt, s.Phase)
	assert.Equal(t, "try later", s.LastError)
	assert.Empty(t, s.TicketID)

	// Retry is possible from the prompt.
	s = reduce(t, s, escalation.Opened{})
	assert.Equal(t, escalation.FormOpen, s.Phase)
	assert.Equal(t, "jane@example.com", s.Form.Email, "fields survive a failed submission")
}

func TestFailureWithoutMessageUsesDefault(t *testing.T) {
	s := escalation.State{Phase: escalation.Submitting}
	s = reduce(t, s, escalation.Settled{Err: errors.New("boom")})
	assert.Equal(t, escalation.Prompt, s.Phase)
	assert.NotEmpty(t, s.LastError)
}

func TestLateSettleAfterDismissIsIgnored(t *testing.T) {
	s := reduce(t, escalation.State{}, escalation.Signaled{}, escalation.Opened{},
		escalation.Submitted{Form: validForm()}, escalation.Dismissed{})
	require.Equal(t, escalation.Hidden, s.Phase)

	s = reduce(t, s, escalation.Settled{Response: &models.TicketResponse{TicketID: "TKT-LATE"}})
	assert.Equal(t, escalation.Hidden, s.Phase)
	assert.Empty(t, s.TicketID)
}

func TestDismissFromAnyPhase(t *testing.T) {
	for _, phase := range []escalation.Phase{escalation.Hidden, escalation.Prompt, escalation.FormOpen, escalation.Submitting, escalation.Success} {
		t.Run(phase.String(), func(t *testing.T) {
			s := reduce(t, escalation.State{Phase: phase}, escalation.Dismissed{})
			assert.Equal(t, escalation.Hidden, s.Phase)
		})
	}
}

func TestDismissedSignalCanRecur(t *testing.T) {
	s := reduce(t, escalation.State{}, escalation.Signaled{}, escalation.Dismissed{}, escalation.Signaled{})
	assert.Equal(t, escalation.Prompt, s.Phase)
}

func TestInvalidTransitions(t *testing.T) {
	tests := []struct {
		name  string
		phase escalation.Phase
		ev    escalation.Event
	}{
		{"open from hidden", escalation.Hidden, escalation.Opened{}},
		{"open from success", escalation.Success, escalation.Opened{}},
		{"close form from prompt", escalation.Prompt, escalation.FormClosed{}},
		{"submit from prompt", escalation.Prompt, escalation.Submitted{Form: validForm()}},
		{"submit while submitting", escalation.Submitting, escalation.Submitted{Form: validForm()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := escalation.State{Phase: tt.phase}
			next, req, err := escalation.Reduce(s, tt.ev)
			assert.ErrorIs(t, err, escalation.ErrInvalidTransition)
			assert.Nil(t, req)
			assert.Equal(t, s, next)
		})
	}
}

func TestFormClosedReturnsToPrompt(t *testing.T) {
	s := reduce(t, escalation.State{}, escalation.Signaled{}, escalation.Opened{}, escalation.FormClosed{})
	assert.Equal(t, escalation.Prompt, s.Phase)
}

func TestOpenedPrefillsEmptyFields(t *testing.T) {
	s := escalation.State{Phase: escalation.Prompt, Form: escalation.Form{Name: "Typed Name"}}
	s = reduce(t, s, escalation.Opened{Prefill: escalation.Form{
		Name:     "Config Name",
		Email:    "config@example.com",
		Priority: models.PriorityHigh,
		Category: "network",
	}})

	assert.Equal(t, "Typed Name", s.Form.Name)
	assert.Equal(t, "config@example.com", s.Form.Email)
	assert.Equal(t, models.PriorityHigh, s.Form.Priority)
	assert.Equal(t, "network", s.Form.Category)
}
