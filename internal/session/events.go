package session

import "github.com/raphaelgruber/helpdesk-go/internal/models"

// Event is the settled result of an Effect, fed back through
// Controller.Apply.
type Event interface {
	sessionEvent()
}

// Effect performs one deferred backend call and returns its result. It
// blocks until the call settles and may run on any goroutine.
type Effect func() Event

// ExchangeSettled is the outcome of a chat or quick-action request.
type ExchangeSettled struct {
	Token    Token
	Response *models.ChatResponse
	Err      error
}

// TicketSettled is the outcome of a ticket submission.
type TicketSettled struct {
	Token    Token
	Response *models.TicketResponse
	Err      error
}

// ProbeSettled is the outcome of a connectivity re-probe. Skipped is set
// when the probe was throttled.
type ProbeSettled struct {
	State   models.ConnectivityState
	Skipped bool

	// since is the number of exchange outcomes seen when the probe was issued.
	since uint64
}

// ConversationDeleted is the outcome of the backend-side clear issued
// after a confirmed local clear.
type ConversationDeleted struct {
	Token          Token
	ConversationID string
	Err            error
}

func (ExchangeSettled) sessionEvent()     {}
func (TicketSettled) sessionEvent()       {}
func (ProbeSettled) sessionEvent()        {}
func (ConversationDeleted) sessionEvent() {}
