// Package session implements the conversation session controller.
//
// All session data lives in one State value. Pure transition functions on
// State decide what changes and which backend request, if any, must be
// issued; the Controller owns the current State, turns requests into
// deferred Effects, and folds their results back in through Apply.
package session

import (
	"slices"

	"github.com/raphaelgruber/helpdesk-go/internal/escalation"
	"github.com/raphaelgruber/helpdesk-go/internal/models"
)

// Phase gates new exchanges. Only Idle accepts a send.
type Phase int

const (
	Idle Phase = iota
	AwaitingResponse
)

func (p Phase) String() string {
	if p == AwaitingResponse {
		return "awaiting_response"
	}
	return "idle"
}

// Token identifies one in-flight request. Tokens from before the last
// clear carry an older epoch and are discarded on arrival.
type Token struct {
	epoch uint64
	seq   uint64
}

// State is the complete session.
type State struct {
	Phase          Phase
	ConversationID string
	Transcript     []models.Message
	Connectivity   models.ConnectivityState
	Catalog        []models.QuickAction
	Escalation     escalation.State

	// Error is the user-facing text of the last failed exchange. It is
	// cleared by the next send or a clear.
	Error string

	epoch    uint64
	seq      uint64
	exchange Token
	ticket   Token

	// outcomes counts settled exchanges. Probe results issued before the
	// latest one are stale.
	outcomes uint64
}

// Accepting reports whether a new send would be issued.
func (s State) Accepting() bool {
	return s.Phase == Idle
}

// Escalating reports whether the escalation banner is active.
func (s State) Escalating() bool {
	return s.Escalation.Active()
}

// Submitting reports whether a ticket submission is outstanding.
func (s State) Submitting() bool {
	return s.Escalation.Phase == escalation.Submitting
}

// LastMessage returns the newest transcript entry.
func (s State) LastMessage() (models.Message, bool) {
	if len(s.Transcript) == 0 {
		return models.Message{}, false
	}
	return s.Transcript[len(s.Transcript)-1], true
}

// clone copies the slices so the caller cannot observe later appends.
func (s State) clone() State {
	s.Transcript = slices.Clone(s.Transcript)
	s.Catalog = slices.Clone(s.Catalog)
	return s
}

func (s *State) nextToken() Token {
	s.seq++
	return Token{epoch: s.epoch, seq: s.seq}
}
