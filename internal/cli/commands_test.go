package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/helpdesk-go/internal/models"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line string
		want command
	}{
		{"hello there", command{kind: cmdSend, arg: "hello there"}},
		{"  padded  ", command{kind: cmdSend, arg: "padded"}},
		{"//etc/hosts is broken", command{kind: cmdSend, arg: "/etc/hosts is broken"}},
		{"/help", command{kind: cmdHelp}},
		{"/actions", command{kind: cmdActions}},
		{"/action password_reset", command{kind: cmdAction, arg: "password_reset"}},
		{"/ACTION  2 ", command{kind: cmdAction, arg: "2"}},
		{"/ticket", command{kind: cmdTicket}},
		{"/dismiss", command{kind: cmdDismiss}},
		{"/clear", command{kind: cmdClear}},
		{"/stats", command{kind: cmdStats}},
		{"/quit", command{kind: cmdQuit}},
		{"/exit", command{kind: cmdQuit}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := parseCommand(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCommandErrors(t *testing.T) {
	for _, line := range []string{"/frobnicate", "/action", "/action   "} {
		_, err := parseCommand(line)
		assert.Error(t, err, line)
	}
}

func TestResolveAction(t *testing.T) {
	catalog := []models.QuickAction{{ID: "password_reset"}, {ID: "wifi"}}

	assert.Equal(t, "wifi", resolveAction(catalog, "2"))
	assert.Equal(t, "password_reset", resolveAction(catalog, "password_reset"))
	assert.Equal(t, "3", resolveAction(catalog, "3"))
	assert.Equal(t, "0", resolveAction(catalog, "0"))
}
