package escalation

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/raphaelgruber/helpdesk-go/internal/models"
)

// ValidationError reports a malformed or missing form field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the form locally. All field problems are joined into a
// single error; each is a *ValidationError.
func Validate(form Form) error {
	var errs []error

	if models.IsBlank(form.Name) {
		errs = append(errs, &ValidationError{Field: "name", Message: "is required"})
	}

	email := strings.TrimSpace(form.Email)
	if email == "" {
		errs = append(errs, &ValidationError{Field: "email", Message: "is required"})
	} else if !validEmail(email) {
		errs = append(errs, &ValidationError{Field: "email", Message: fmt.Sprintf("%q is not a valid address", email)})
	}

	if models.IsBlank(form.Description) {
		errs = append(errs, &ValidationError{Field: "description", Message: "is required"})
	}

	if form.Priority != "" && !form.Priority.Valid() {
		errs = append(errs, &ValidationError{Field: "priority", Message: fmt.Sprintf("unknown priority %q", form.Priority)})
	}

	return errors.Join(errs...)
}

// validEmail accepts a bare address with a dotted domain.
func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || addr.Name != "" {
		return false
	}
	at := strings.LastIndex(s, "@")
	domain := s[at+1:]
	return strings.Contains(domain, ".") && !strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
}

// BuildRequest validates the form and converts it to a ticket request.
func BuildRequest(form Form, conversationID string) (models.TicketRequest, error) {
	if err := Validate(form); err != nil {
		return models.TicketRequest{}, err
	}
	form = normalize(form)
	return models.TicketRequest{
		IssueDescription: form.Description,
		Category:         form.Category,
		Priority:         form.Priority,
		UserName:         form.Name,
		UserEmail:        form.Email,
		ConversationID:   conversationID,
	}, nil
}

// FieldErrors extracts the per-field validation errors from err.
func FieldErrors(err error) []*ValidationError {
	if err == nil {
		return nil
	}
	var out []*ValidationError
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			out = append(out, FieldErrors(e)...)
		}
		return out
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		out = append(out, verr)
	}
	return out
}
