package models

import (
	"errors"
	"fmt"
)

// ChatRequest is the payload of POST /chat.
type ChatRequest struct {
	Message        string         `json:"message"`
	ConversationID string         `json:"conversation_id,omitempty"`
	UserContext    map[string]any `json:"user_context,omitempty"`
}

// ChatResponse is returned by POST /chat and POST /quick-action/{id}.
type ChatResponse struct {
	Response         string   `json:"response"`
	ConversationID   string   `json:"conversation_id"`
	Sources          []string `json:"sources,omitempty"`
	Confidence       *float64 `json:"confidence,omitempty"`
	SuggestedActions []string `json:"suggested_actions,omitempty"`
	ShouldEscalate   bool     `json:"should_escalate"`
}

// Validate rejects responses missing the fields every chat turn must carry.
func (r *ChatResponse) Validate() error {
	if r.Response == "" {
		return errors.New("chat response: missing response text")
	}
	if r.ConversationID == "" {
		return errors.New("chat response: missing conversation_id")
	}
	if r.Confidence != nil && (*r.Confidence < 0 || *r.Confidence > 1) {
		return fmt.Errorf("chat response: confidence %v out of range", *r.Confidence)
	}
	return nil
}

// QuickAction is a predefined backend shortcut.
type QuickAction struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Icon        string `json:"icon,omitempty"`
}

// Validate checks the identity and label required to offer the action.
func (a *QuickAction) Validate() error {
	if a.ID == "" {
		return errors.New("quick action: missing id")
	}
	if a.Label == "" {
		return fmt.Errorf("quick action %s: missing label", a.ID)
	}
	return nil
}

// FindQuickAction returns the catalog entry with the given id.
func FindQuickAction(catalog []QuickAction, id string) (QuickAction, bool) {
	for _, a := range catalog {
		if a.ID == id {
			return a, true
		}
	}
	return QuickAction{}, false
}

// HealthStatus is the liveness payload of GET /health. The backend defines
// its shape; unknown fields are ignored.
type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  string            `json:"timestamp,omitempty"`
	Version    string            `json:"version,omitempty"`
	Components map[string]string `json:"components,omitempty"`
}

// AnalyticsEvent is the payload of POST /analytics.
type AnalyticsEvent struct {
	EventType      string   `json:"event_type"`
	ConversationID string   `json:"conversation_id,omitempty"`
	UserQuery      string   `json:"user_query,omitempty"`
	ResponseTimeMs *float64 `json:"response_time_ms,omitempty"`
	WasHelpful     *bool    `json:"was_helpful,omitempty"`
	Category       string   `json:"category,omitempty"`
	Timestamp      string   `json:"timestamp"`
}

// Analytics event types emitted by the client.
const (
	EventChatExchange  = "chat_exchange"
	EventQuickAction   = "quick_action"
	EventTicketCreated = "ticket_created"
)
