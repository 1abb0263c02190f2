package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/raphaelgruber/helpdesk-go/internal/models"
)

// commandKind is a line typed into the interactive chat.
type commandKind int

const (
	cmdSend commandKind = iota
	cmdHelp
	cmdActions
	cmdAction
	cmdTicket
	cmdDismiss
	cmdClear
	cmdStats
	cmdQuit
)

// command is a parsed input line. For cmdSend, arg is the message; for
// cmdAction, the action id or 1-based catalog index.
type command struct {
	kind commandKind
	arg  string
}

var slashCommands = map[string]commandKind{
	"help":    cmdHelp,
	"actions": cmdActions,
	"action":  cmdAction,
	"ticket":  cmdTicket,
	"dismiss": cmdDismiss,
	"clear":   cmdClear,
	"stats":   cmdStats,
	"quit":    cmdQuit,
	"exit":    cmdQuit,
}

const helpText = `Commands:
  /actions         list quick actions
  /action <id|n>   run a quick action by id or list number
  /ticket          open the support ticket form
  /dismiss         dismiss the escalation banner
  /clear           start a new conversation
  /stats           show client call statistics
  /quit            leave the chat
Anything else is sent to the assistant.`

// parseCommand interprets one input line. Lines that do not start with a
// slash are chat messages; a doubled slash escapes a literal one.
func parseCommand(line string) (command, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		return command{kind: cmdSend, arg: line}, nil
	}
	if strings.HasPrefix(line, "//") {
		return command{kind: cmdSend, arg: line[1:]}, nil
	}

	name, arg, _ := strings.Cut(line[1:], " ")
	kind, ok := slashCommands[strings.ToLower(name)]
	if !ok {
		return command{}, fmt.Errorf("unknown command /%s (try /help)", name)
	}
	arg = strings.TrimSpace(arg)
	if kind == cmdAction && arg == "" {
		return command{}, fmt.Errorf("usage: /action <id|n>")
	}
	return command{kind: kind, arg: arg}, nil
}

// resolveAction maps an action id or 1-based index to a catalog id.
// Unknown ids pass through unchanged; the backend decides.
func resolveAction(catalog []models.QuickAction, arg string) string {
	if n, err := strconv.Atoi(arg); err == nil && n >= 1 && n <= len(catalog) {
		return catalog[n-1].ID
	}
	return arg
}
