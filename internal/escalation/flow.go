// Package escalation implements the support-ticket sub-flow that starts
// when the assistant signals that a conversation needs a human.
//
// The flow is a pure transition function over State:
//
//	Hidden -> Prompt -> FormOpen -> Submitting -> Success
//	                       ^            |
//	                       |            v
//	                       +-------- Prompt (on failure)
//
// Dismissed returns any phase to Hidden. Reduce performs no I/O; when a
// transition requires a ticket submission it returns the request to send.
package escalation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/raphaelgruber/helpdesk-go/internal/models"
)

// Phase is the visible step of the flow.
type Phase int

const (
	Hidden Phase = iota
	Prompt
	FormOpen
	Submitting
	Success
)

func (p Phase) String() string {
	switch p {
	case Hidden:
		return "hidden"
	case Prompt:
		return "prompt"
	case FormOpen:
		return "form_open"
	case Submitting:
		return "submitting"
	case Success:
		return "success"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// DefaultCategory is used for tickets when none is configured.
const DefaultCategory = "general"

// Form holds the ticket fields entered by the user.
type Form struct {
	Name        string
	Email       string
	Description string
	Priority    models.Priority
	Category    string
}

// State is the complete escalation sub-state.
type State struct {
	Phase Phase
	Form  Form

	// Set in Success.
	TicketID              string
	EstimatedResponseTime string
	Confirmation          string

	// LastError is the user-facing reason the previous submission failed.
	LastError string
}

// Active reports whether the banner is shown.
func (s State) Active() bool {
	return s.Phase != Hidden
}

// ErrInvalidTransition is returned when an event does not apply to the
// current phase.
var ErrInvalidTransition = errors.New("invalid escalation transition")

// Event drives the flow.
type Event interface {
	escalationEvent()
}

// Signaled is raised when a chat response asks for escalation.
type Signaled struct{}

// Opened is the user opting to create a ticket. Empty form fields are
// filled from Prefill.
type Opened struct {
	Prefill Form
}

// FormClosed closes the form without submitting.
type FormClosed struct{}

// Submitted requests submission of Form for the given conversation.
type Submitted struct {
	Form           Form
	ConversationID string
}

// Settled carries the outcome of a ticket submission. FailureMessage is
// the user-facing text when Err is non-nil.
type Settled struct {
	Response       *models.TicketResponse
	Err            error
	FailureMessage string
}

// Dismissed closes the banner.
type Dismissed struct{}

func (Signaled) escalationEvent()   {}
func (Opened) escalationEvent()     {}
func (FormClosed) escalationEvent() {}
func (Submitted) escalationEvent()  {}
func (Settled) escalationEvent()    {}
func (Dismissed) escalationEvent()  {}

// Reduce applies ev to s. It returns the new state, the ticket request to
// send when entering Submitting, and an error when the event is rejected.
// A rejected event leaves the state unchanged.
func Reduce(s State, ev Event) (State, *models.TicketRequest, error) {
	switch ev := ev.(type) {
	case Signaled:
		if s.Phase != Hidden {
			return s, nil, nil
		}
		return State{Phase: Prompt, Form: s.Form}, nil, nil

	case Opened:
		if s.Phase != Prompt {
			return s, nil, fmt.Errorf("%w: open form from %s", ErrInvalidTransition, s.Phase)
		}
		s.Phase = FormOpen
		s.Form = prefill(s.Form, ev.Prefill)
		return s, nil, nil

	case FormClosed:
		if s.Phase != FormOpen {
			return s, nil, fmt.Errorf("%w: close form from %s", ErrInvalidTransition, s.Phase)
		}
		s.Phase = Prompt
		return s, nil, nil

	case Submitted:
		if s.Phase != FormOpen {
			return s, nil, fmt.Errorf("%w: submit from %s", ErrInvalidTransition, s.Phase)
		}
		req, err := BuildRequest(ev.Form, ev.ConversationID)
		if err != nil {
			return s, nil, err
		}
		s.Phase = Submitting
		s.Form = normalize(ev.Form)
		s.LastError = ""
		return s, &req, nil

	case Settled:
		if s.Phase != Submitting {
			// Dismissed or cleared while the request was in flight.
			return s, nil, nil
		}
		if ev.Err != nil || ev.Response == nil {
			s.Phase = Prompt
			s.LastError = ev.FailureMessage
			if s.LastError == "" {
				s.LastError = "Failed to create ticket. Please try again or contact IT directly."
			}
			return s, nil, nil
		}
		s.Phase = Success
		s.TicketID = ev.Response.TicketID
		s.EstimatedResponseTime = ev.Response.EstimatedResponseTime
		s.Confirmation = ev.Response.Message
		s.LastError = ""
		return s, nil, nil

	case Dismissed:
		if s.Phase == Success {
			return State{}, nil, nil
		}
		return State{Form: s.Form}, nil, nil

	default:
		return s, nil, fmt.Errorf("%w: unknown event %T", ErrInvalidTransition, ev)
	}
}

func prefill(form, defaults Form) Form {
	if strings.TrimSpace(form.Name) == "" {
		form.Name = defaults.Name
	}
	if strings.TrimSpace(form.Email) == "" {
		form.Email = defaults.Email
	}
	if form.Priority == "" {
		form.Priority = defaults.Priority
	}
	if form.Category == "" {
		form.Category = defaults.Category
	}
	return form
}

func normalize(form Form) Form {
	form.Name = strings.TrimSpace(form.Name)
	form.Email = strings.TrimSpace(form.Email)
	form.Description = strings.TrimSpace(form.Description)
	if form.Priority == "" {
		form.Priority = models.PriorityMedium
	}
	if strings.TrimSpace(form.Category) == "" {
		form.Category = DefaultCategory
	}
	return form
}
