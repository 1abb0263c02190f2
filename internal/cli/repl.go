package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/raphaelgruber/helpdesk-go/internal/escalation"
	"github.com/raphaelgruber/helpdesk-go/internal/metrics"
	"github.com/raphaelgruber/helpdesk-go/internal/models"
	"github.com/raphaelgruber/helpdesk-go/internal/session"
)

type replMode int

const (
	modeChat replMode = iota
	modeConfirmClear
	modeForm
)

// formField is one prompt of the line-mode ticket form.
type formField int

const (
	fieldName formField = iota
	fieldEmail
	fieldDescription
	fieldPriority
	fieldCount
)

var fieldLabels = [fieldCount]string{"Name", "Email", "Describe the issue", "Priority (low/medium/high/critical)"}

// repl is the line-oriented chat used when stdin is not a terminal.
// Backend calls run on their own goroutines and their results come back
// on events. Input is paused while a request is outstanding, so piped
// scripts run in order.
type repl struct {
	ctrl  *session.Controller
	out   io.Writer
	stats func() metrics.Snapshot

	events  chan session.Event
	done    chan struct{}
	pending int

	mode    replMode
	form    escalation.Form
	field   formField
	shown   int
	firstID string
	banner  escalation.Phase
}

// runREPL reads lines from in until EOF or /quit, then waits for
// outstanding requests to settle. Periodic probe results arrive on probes,
// which may be nil.
func runREPL(ctx context.Context, ctrl *session.Controller, in io.Reader, out io.Writer, stats func() metrics.Snapshot, probes <-chan session.Event) error {
	r := &repl{
		ctrl:   ctrl,
		out:    out,
		stats:  stats,
		events: make(chan session.Event),
		done:   make(chan struct{}),
	}
	defer close(r.done)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-r.done:
				return
			}
		}
	}()

	r.sync()
	if st := ctrl.State(); len(st.Catalog) > 0 {
		fmt.Fprint(out, formatActions(st.Catalog))
	}
	fmt.Fprintln(out, "Type /help for commands.")

	for {
		in := lines
		if r.pending > 0 {
			in = nil
		}
		if lines == nil && r.pending == 0 {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil

		case line, ok := <-in:
			if !ok {
				lines = nil
				continue
			}
			if quit := r.handle(line); quit {
				return nil
			}

		case ev := <-r.events:
			r.pending--
			r.ctrl.Apply(ev)
			r.sync()

		case ev := <-probes:
			before := r.ctrl.State().Connectivity
			r.ctrl.Apply(ev)
			if after := r.ctrl.State(); after.Connectivity.Connected != before.Connected {
				fmt.Fprintln(r.out, connectivityLine(after))
			}
		}
	}
}

// run executes eff in the background.
func (r *repl) run(eff session.Effect) {
	if eff == nil {
		return
	}
	r.pending++
	go func() {
		ev := eff()
		select {
		case r.events <- ev:
		case <-r.done:
		}
	}()
}

// handle processes one input line. It returns true to quit.
func (r *repl) handle(line string) bool {
	switch r.mode {
	case modeConfirmClear:
		r.mode = modeChat
		answer := strings.ToLower(strings.TrimSpace(line))
		if answer != "y" && answer != "yes" {
			fmt.Fprintln(r.out, "Clear canceled.")
			return false
		}
		eff, err := r.ctrl.Clear(true)
		if err != nil {
			fmt.Fprintf(r.out, "Error: %v\n", err)
			return false
		}
		r.run(eff)
		r.sync()
		return false

	case modeForm:
		r.formInput(line)
		return false
	}

	cmd, err := parseCommand(line)
	if err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
		return false
	}

	switch cmd.kind {
	case cmdSend:
		if cmd.arg == "" {
			return false
		}
		r.exchange(func() session.Effect { return r.ctrl.Send(cmd.arg) })
	case cmdAction:
		r.exchange(func() session.Effect {
			return r.ctrl.InvokeQuickAction(resolveAction(r.ctrl.State().Catalog, cmd.arg))
		})
	case cmdActions:
		fmt.Fprint(r.out, formatActions(r.ctrl.State().Catalog))
	case cmdHelp:
		fmt.Fprintln(r.out, helpText)
	case cmdTicket:
		r.openForm()
	case cmdDismiss:
		r.ctrl.DismissEscalation()
		r.sync()
	case cmdClear:
		r.mode = modeConfirmClear
		fmt.Fprint(r.out, "Clear the conversation? [y/N] ")
	case cmdStats:
		if r.stats != nil {
			printStats(r.out, r.stats())
		}
	case cmdQuit:
		return true
	}
	return false
}

func (r *repl) exchange(issue func() session.Effect) {
	if !r.ctrl.State().Accepting() {
		fmt.Fprintln(r.out, "Please wait for the current response.")
		return
	}
	eff := issue()
	if eff == nil {
		return
	}
	r.sync()
	fmt.Fprintln(r.out, "Assistant is typing...")
	r.run(eff)
}

func (r *repl) openForm() {
	if err := r.ctrl.OpenTicketForm(); err != nil {
		fmt.Fprintln(r.out, "There is nothing to escalate right now.")
		return
	}
	r.form = r.ctrl.State().Escalation.Form
	r.field = fieldName
	r.mode = modeForm
	fmt.Fprintln(r.out, "Create a support ticket (/cancel to go back).")
	r.promptField()
}

func (r *repl) promptField() {
	current := r.fieldValue(r.field)
	if current != "" {
		fmt.Fprintf(r.out, "%s [%s]: ", fieldLabels[r.field], current)
		return
	}
	fmt.Fprintf(r.out, "%s: ", fieldLabels[r.field])
}

func (r *repl) fieldValue(f formField) string {
	switch f {
	case fieldName:
		return r.form.Name
	case fieldEmail:
		return r.form.Email
	case fieldDescription:
		return r.form.Description
	default:
		return string(r.form.Priority)
	}
}

// formInput fills the current field. Blank input keeps the shown value.
func (r *repl) formInput(line string) {
	line = strings.TrimSpace(line)
	if line == "/cancel" {
		r.mode = modeChat
		if err := r.ctrl.CloseTicketForm(); err == nil {
			r.sync()
		}
		return
	}

	if line != "" {
		switch r.field {
		case fieldName:
			r.form.Name = line
		case fieldEmail:
			r.form.Email = line
		case fieldDescription:
			r.form.Description = line
		case fieldPriority:
			p, err := models.ParsePriority(line)
			if err != nil {
				fmt.Fprintf(r.out, "Error: %v\n", err)
				r.promptField()
				return
			}
			r.form.Priority = p
		}
	}

	r.field++
	if r.field < fieldCount {
		r.promptField()
		return
	}

	eff, err := r.ctrl.SubmitTicket(r.form)
	if err != nil {
		for _, fe := range escalation.FieldErrors(err) {
			fmt.Fprintf(r.out, "  %s\n", fe.Error())
		}
		if len(escalation.FieldErrors(err)) == 0 {
			fmt.Fprintf(r.out, "Error: %v\n", err)
		}
		r.field = fieldName
		r.promptField()
		return
	}
	r.mode = modeChat
	r.run(eff)
	r.sync()
}

// sync prints transcript entries and banner changes not yet shown.
func (r *repl) sync() {
	st := r.ctrl.State()
	if len(st.Transcript) > 0 && st.Transcript[0].ID != r.firstID {
		r.firstID = st.Transcript[0].ID
		r.shown = 0
	}
	if r.shown > len(st.Transcript) {
		r.shown = 0
	}
	for _, m := range st.Transcript[r.shown:] {
		fmt.Fprint(r.out, formatMessage(m))
	}
	r.shown = len(st.Transcript)

	if st.Escalation.Phase != r.banner {
		r.banner = st.Escalation.Phase
		if notice := escalationNotice(st.Escalation); notice != "" {
			fmt.Fprintln(r.out, notice)
			if st.Escalation.Phase == escalation.Prompt {
				fmt.Fprintln(r.out, "Type /ticket to create one or /dismiss to hide this.")
			}
		}
	}
}
