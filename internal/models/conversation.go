package models

import (
	"strings"
	"time"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single transcript entry. Messages are never mutated after
// they are appended to a transcript.
type Message struct {
	ID               string    `json:"id"`
	Role             Role      `json:"role"`
	Content          string    `json:"content"`
	CreatedAt        time.Time `json:"created_at"`
	Sources          []string  `json:"sources,omitempty"`
	SuggestedActions []string  `json:"suggested_actions,omitempty"`
}

// ConnectivityState reports whether the backend was reachable on the most
// recent probe or exchange.
type ConnectivityState struct {
	Connected bool   `json:"connected"`
	LastError string `json:"last_error,omitempty"`
}

// Connected returns a healthy connectivity state.
func Connected() ConnectivityState {
	return ConnectivityState{Connected: true}
}

// Disconnected returns a connectivity state carrying the failure description.
func Disconnected(reason string) ConnectivityState {
	return ConnectivityState{Connected: false, LastError: strings.TrimSpace(reason)}
}
