package session

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/helpdesk-go/internal/escalation"
	"github.com/raphaelgruber/helpdesk-go/internal/models"
)

func at(id string) stamp {
	return stamp{id: id, at: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func TestSettleExchangeRejectsForeignToken(t *testing.T) {
	s, req := initialState(at("w")).beginSend("hi", at("u"))
	require.NotNil(t, req)

	stale := Token{epoch: req.token.epoch, seq: req.token.seq + 1}
	got, ok := s.settleExchange(ExchangeSettled{Token: stale, Response: &models.ChatResponse{Response: "x", ConversationID: "c"}}, at("a"))
	assert.False(t, ok)
	assert.Equal(t, AwaitingResponse, got.Phase)
	assert.Len(t, got.Transcript, 2)
}

func TestClearAdvancesEpoch(t *testing.T) {
	s, req := initialState(at("w")).beginSend("hi", at("u"))
	require.NotNil(t, req)

	cleared, del := s.clear(at("c"))
	assert.Nil(t, del, "nothing bound yet")
	assert.Greater(t, cleared.epoch, s.epoch)

	_, ok := cleared.settleExchange(ExchangeSettled{Token: req.token, Err: errors.New("late")}, at("a"))
	assert.False(t, ok)

	next, req2 := cleared.beginSend("again", at("u2"))
	require.NotNil(t, req2)
	assert.NotEqual(t, req.token, req2.token)
	assert.Equal(t, AwaitingResponse, next.Phase)
}

func TestClearDropsOutstandingTicket(t *testing.T) {
	s := initialState(at("w"))
	s.ConversationID = "conv"
	s.Escalation = escalation.State{Phase: escalation.FormOpen}

	s, req, err := s.escalate(escalation.Submitted{
		Form:           escalation.Form{Name: "A", Email: "a@b.co", Description: "d"},
		ConversationID: s.ConversationID,
	})
	require.NoError(t, err)
	require.NotNil(t, req)
	assert.Equal(t, requestTicket, req.kind)

	cleared, del := s.clear(at("c"))
	require.NotNil(t, del)
	assert.Equal(t, "conv", del.conversationID)

	_, ok := cleared.settleTicket(TicketSettled{Token: req.token, Response: &models.TicketResponse{TicketID: "T"}})
	assert.False(t, ok)
	assert.False(t, cleared.Escalating())
}

func TestBeginSendTrims(t *testing.T) {
	s, req := initialState(at("w")).beginSend("  vpn down  ", at("u"))
	require.NotNil(t, req)
	assert.Equal(t, "vpn down", req.chat.Message)
	assert.Equal(t, "vpn down", s.Transcript[1].Content)
}

func TestSettleProbe(t *testing.T) {
	s := initialState(at("w"))

	got, ok := s.settleProbe(ProbeSettled{State: models.Disconnected("down")})
	require.True(t, ok)
	assert.False(t, got.Connectivity.Connected)

	_, ok = s.settleProbe(ProbeSettled{State: models.Connected(), Skipped: true})
	assert.False(t, ok)

	s, req := s.beginSend("hi", at("u"))
	s, _ = s.settleExchange(ExchangeSettled{Token: req.token, Err: errors.New("boom")}, at("a"))
	_, ok = s.settleProbe(ProbeSettled{State: models.Connected(), since: 0})
	assert.False(t, ok, "issued before the exchange settled")
	_, ok = s.settleProbe(ProbeSettled{State: models.Connected(), since: s.outcomes})
	assert.True(t, ok)
}
