package models

import (
	"errors"
	"fmt"
	"strings"
)

// Priority is the urgency of a support ticket.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Priorities lists every priority from least to most urgent.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

// ParsePriority parses a priority name case-insensitively.
// An empty string yields PriorityMedium.
func ParsePriority(s string) (Priority, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return PriorityMedium, nil
	}
	for _, p := range Priorities {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown priority %q (want low, medium, high or critical)", s)
}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	for _, known := range Priorities {
		if p == known {
			return true
		}
	}
	return false
}

// Hint describes what the priority means to the requester.
func (p Priority) Hint() string {
	switch p {
	case PriorityLow:
		return "Can wait 2-3 days"
	case PriorityMedium:
		return "Need help within 1 day"
	case PriorityHigh:
		return "Blocking my work"
	case PriorityCritical:
		return "System down"
	default:
		return ""
	}
}

// Next cycles to the following priority, wrapping after critical.
func (p Priority) Next() Priority {
	for i, known := range Priorities {
		if p == known {
			return Priorities[(i+1)%len(Priorities)]
		}
	}
	return PriorityMedium
}

// TicketRequest is the payload of POST /ticket.
type TicketRequest struct {
	IssueDescription string   `json:"issue_description"`
	Category         string   `json:"category"`
	Priority         Priority `json:"priority"`
	UserName         string   `json:"user_name,omitempty"`
	UserEmail        string   `json:"user_email,omitempty"`
	ConversationID   string   `json:"conversation_id,omitempty"`
}

// TicketResponse is returned by POST /ticket.
type TicketResponse struct {
	TicketID              string `json:"ticket_id"`
	Status                string `json:"status"`
	EstimatedResponseTime string `json:"estimated_response_time"`
	Message               string `json:"message"`
}

// Validate rejects a ticket response without an identity.
func (r *TicketResponse) Validate() error {
	if r.TicketID == "" {
		return errors.New("ticket response: missing ticket_id")
	}
	return nil
}
