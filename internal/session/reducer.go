package session

import (
	"strings"
	"time"

	"github.com/raphaelgruber/helpdesk-go/internal/client"
	"github.com/raphaelgruber/helpdesk-go/internal/escalation"
	"github.com/raphaelgruber/helpdesk-go/internal/models"
)

// Fixed assistant texts seeded into the transcript.
const (
	WelcomeMessage = "👋 Hi! I'm your IT Helpdesk Assistant. I can help you with:\n\n" +
		"• Password resets and account issues\n" +
		"• Wi-Fi and VPN connectivity\n" +
		"• Software installation and updates\n" +
		"• Audio/video troubleshooting\n" +
		"• Printer and hardware problems\n" +
		"• And much more!\n\n" +
		"How can I help you today?"
	ClearedMessage = "Chat cleared. How can I help you today?"
)

// TicketFailureMessage is shown when a ticket submission fails.
const TicketFailureMessage = "Failed to create ticket. Please try again or contact IT directly."

// stamp supplies the identity and creation time of a new message.
type stamp struct {
	id string
	at time.Time
}

type requestKind int

const (
	requestChat requestKind = iota
	requestQuickAction
	requestTicket
	requestDeleteConversation
)

func (k requestKind) String() string {
	switch k {
	case requestChat:
		return client.OpChat
	case requestQuickAction:
		return client.OpQuickAction
	case requestTicket:
		return client.OpTicket
	default:
		return client.OpClear
	}
}

// request is a backend call decided by a transition.
type request struct {
	kind           requestKind
	token          Token
	chat           models.ChatRequest
	actionID       string
	conversationID string
	ticket         models.TicketRequest
}

func assistantMessage(content string, st stamp) models.Message {
	return models.Message{ID: st.id, Role: models.RoleAssistant, Content: content, CreatedAt: st.at}
}

func userMessage(content string, st stamp) models.Message {
	return models.Message{ID: st.id, Role: models.RoleUser, Content: content, CreatedAt: st.at}
}

// initialState is the session before any exchange.
func initialState(st stamp) State {
	return State{
		Transcript:   []models.Message{assistantMessage(WelcomeMessage, st)},
		Connectivity: models.ConnectivityState{},
	}
}

// initialize installs the loaded catalog and probe result and reseeds the
// transcript.
func (s State) initialize(catalog []models.QuickAction, conn models.ConnectivityState, st stamp) State {
	s.Catalog = catalog
	s.Connectivity = conn
	s.Transcript = []models.Message{assistantMessage(WelcomeMessage, st)}
	return s
}

// beginSend appends the user's message and requests a chat turn. It is a
// no-op for blank text or while an exchange is outstanding.
func (s State) beginSend(text string, st stamp) (State, *request) {
	text = strings.TrimSpace(text)
	if text == "" || s.Phase != Idle {
		return s, nil
	}
	tok := s.nextToken()
	s.Transcript = append(s.Transcript, userMessage(text, st))
	s.Phase = AwaitingResponse
	s.exchange = tok
	s.Error = ""
	return s, &request{
		kind:  requestChat,
		token: tok,
		chat:  models.ChatRequest{Message: text, ConversationID: s.ConversationID},
	}
}

// beginQuickAction is beginSend for a catalog shortcut. The user message
// echoes the action's description, or its id when the description is
// unknown.
func (s State) beginQuickAction(actionID string, st stamp) (State, *request) {
	actionID = strings.TrimSpace(actionID)
	if actionID == "" || s.Phase != Idle {
		return s, nil
	}
	echo := actionID
	if action, ok := models.FindQuickAction(s.Catalog, actionID); ok && action.Description != "" {
		echo = action.Description
	}
	tok := s.nextToken()
	s.Transcript = append(s.Transcript, userMessage(echo, st))
	s.Phase = AwaitingResponse
	s.exchange = tok
	s.Error = ""
	return s, &request{
		kind:           requestQuickAction,
		token:          tok,
		actionID:       actionID,
		conversationID: s.ConversationID,
	}
}

// settleExchange folds a chat or quick-action result into the transcript.
// The boolean is false when the result was stale and ignored.
func (s State) settleExchange(ev ExchangeSettled, st stamp) (State, bool) {
	if s.Phase != AwaitingResponse || ev.Token != s.exchange {
		return s, false
	}
	s.Phase = Idle
	s.exchange = Token{}
	s.outcomes++

	if ev.Err == nil && ev.Response != nil {
		resp := ev.Response
		if s.ConversationID == "" {
			s.ConversationID = resp.ConversationID
		}
		msg := assistantMessage(resp.Response, st)
		msg.Sources = resp.Sources
		msg.SuggestedActions = resp.SuggestedActions
		s.Transcript = append(s.Transcript, msg)
		s.Connectivity = models.Connected()
		s.Error = ""
		if resp.ShouldEscalate {
			s.Escalation, _, _ = escalation.Reduce(s.Escalation, escalation.Signaled{})
		}
		return s, true
	}

	kind := client.Classify(ev.Err)
	text := client.UserMessage(kind)
	s.Transcript = append(s.Transcript, assistantMessage(text, st))
	s.Error = text
	if kind == client.KindNetworkUnavailable {
		s.Connectivity = models.Disconnected(text)
	}
	return s, true
}

// settleProbe installs a re-probe result unless it was throttled or an
// exchange settled after the probe was issued.
func (s State) settleProbe(ev ProbeSettled) (State, bool) {
	if ev.Skipped || ev.since != s.outcomes {
		return s, false
	}
	s.Connectivity = ev.State
	return s, true
}

// escalate applies an escalation event. A transition into Submitting
// yields the ticket request.
func (s State) escalate(ev escalation.Event) (State, *request, error) {
	next, ticket, err := escalation.Reduce(s.Escalation, ev)
	if err != nil {
		return s, nil, err
	}
	s.Escalation = next
	if ticket == nil {
		return s, nil, nil
	}
	tok := s.nextToken()
	s.ticket = tok
	return s, &request{kind: requestTicket, token: tok, ticket: *ticket}, nil
}

// settleTicket folds a ticket result into the escalation sub-state. The
// transcript is never touched.
func (s State) settleTicket(ev TicketSettled) (State, bool) {
	if ev.Token != s.ticket {
		return s, false
	}
	s.ticket = Token{}
	settled := escalation.Settled{Response: ev.Response, Err: ev.Err}
	if ev.Err != nil {
		settled.FailureMessage = TicketFailureMessage
	}
	s.Escalation, _, _ = escalation.Reduce(s.Escalation, settled)
	return s, true
}

// clear resets the session to a single welcome message and invalidates
// every outstanding token. When a conversation was bound, the backend
// copy is deleted as well.
func (s State) clear(st stamp) (State, *request) {
	bound := s.ConversationID

	s.epoch++
	s.Phase = Idle
	s.exchange = Token{}
	s.ticket = Token{}
	s.ConversationID = ""
	s.Transcript = []models.Message{assistantMessage(ClearedMessage, st)}
	s.Escalation = escalation.State{}
	s.Error = ""

	if bound == "" {
		return s, nil
	}
	return s, &request{kind: requestDeleteConversation, token: s.nextToken(), conversationID: bound}
}
