package escalation

import (
	"testing"

	"github.com/raphaelgruber/helpdesk-go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	base := Form{Name: "Jane", Email: "jane@example.com", Description: "Printer jams"}

	tests := []struct {
		name       string
		mutate     func(*Form)
		wantFields []string
	}{
		{"valid", func(*Form) {}, nil},
		{"missing name", func(f *Form) { f.Name = "  " }, []string{"name"}},
		{"missing email", func(f *Form) { f.Email = "" }, []string{"email"}},
		{"email without at", func(f *Form) { f.Email = "jane.example.com" }, []string{"email"}},
		{"email without dotted domain", func(f *Form) { f.Email = "jane@localhost" }, []string{"email"}},
		{"email with display name", func(f *Form) { f.Email = "Jane <jane@example.com>" }, []string{"email"}},
		{"missing description", func(f *Form) { f.Description = "" }, []string{"description"}},
		{"bad priority", func(f *Form) { f.Priority = "urgent" }, []string{"priority"}},
		{"everything missing", func(f *Form) { *f = Form{} }, []string{"name", "email", "description"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := base
			tt.mutate(&form)
			err := Validate(form)
			if tt.wantFields == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var got []string
			for _, fe := range FieldErrors(err) {
				got = append(got, fe.Field)
			}
			assert.Equal(t, tt.wantFields, got)
		})
	}
}

func TestBuildRequestNormalizes(t *testing.T) {
	req, err := BuildRequest(Form{
		Name:        "  Jane ",
		Email:       " jane@example.com ",
		Description: " Screen flickers ",
		Priority:    models.PriorityCritical,
	}, "abc123")
	require.NoError(t, err)

	assert.Equal(t, models.TicketRequest{
		IssueDescription: "Screen flickers",
		Category:         DefaultCategory,
		Priority:         models.PriorityCritical,
		UserName:         "Jane",
		UserEmail:        "jane@example.com",
		ConversationID:   "abc123",
	}, req)
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Field: "email", Message: "is required"}
	assert.Equal(t, "email: is required", err.Error())
}
