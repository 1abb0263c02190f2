package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"

	"github.com/raphaelgruber/helpdesk-go/internal/escalation"
	"github.com/raphaelgruber/helpdesk-go/internal/models"
	"github.com/raphaelgruber/helpdesk-go/internal/session"
)

// effectMsg carries the settled result of a session effect.
type effectMsg struct {
	ev session.Event
}

// probeTickMsg triggers a connectivity re-probe.
type probeTickMsg time.Time

type uiMode int

const (
	uiChat uiMode = iota
	uiConfirmClear
	uiForm
)

const priorityField = 3

// chatModel is the bubbletea model for the interactive chat.
type chatModel struct {
	ctrl  *session.Controller
	state session.State
	theme Theme

	input    textinput.Model
	fields   [3]textinput.Model // name, email, description
	priority models.Priority
	focus    int
	formErrs []string

	spinner       spinner.Model
	probeInterval time.Duration
	mode          uiMode
	notice        string
	width         int
	height        int
}

// newChatModel creates the chat model over an initialized controller.
func newChatModel(ctrl *session.Controller, probeInterval time.Duration) chatModel {
	input := textinput.New()
	input.Placeholder = "Describe your IT issue..."
	input.CharLimit = 2000
	input.Focus()

	var fields [3]textinput.Model
	for i, placeholder := range []string{"Your name", "you@company.com", "What is going wrong?"} {
		fields[i] = textinput.New()
		fields[i].Prompt = ""
		fields[i].Placeholder = placeholder
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return chatModel{
		ctrl:          ctrl,
		state:         ctrl.State(),
		theme:         defaultTheme,
		input:         input,
		fields:        fields,
		priority:      models.PriorityMedium,
		spinner:       sp,
		probeInterval: probeInterval,
	}
}

// Init returns the initial commands (cursor blink, spinner, probe timer).
func (m chatModel) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		m.probeTick(),
	)
}

// Update handles messages and returns the updated model.
func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.SetWidth(max(msg.Width-4, 10))
		for i := range m.fields {
			m.fields[i].SetWidth(max(msg.Width-20, 10))
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case effectMsg:
		m.ctrl.Apply(msg.ev)
		m.state = m.ctrl.State()
		return m, nil

	case probeTickMsg:
		return m, tea.Batch(runEffect(m.ctrl.Reprobe()), m.probeTick())

	case tea.KeyPressMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case uiConfirmClear:
			return m.updateConfirm(msg)
		case uiForm:
			return m.updateForm(msg)
		default:
			return m.updateChat(msg)
		}
	}

	if m.mode == uiForm && m.focus < priorityField {
		var cmd tea.Cmd
		m.fields[m.focus], cmd = m.fields[m.focus].Update(msg)
		return m, cmd
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m chatModel) updateChat(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return m.submitInput()
	case "esc":
		if m.state.Escalating() && !m.state.Submitting() {
			m.ctrl.DismissEscalation()
			m.state = m.ctrl.State()
		}
		m.notice = ""
		return m, nil
	case "ctrl+t":
		return m.openForm()
	case "ctrl+l":
		m.mode = uiConfirmClear
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submitInput dispatches the typed line as a message or slash command.
func (m chatModel) submitInput() (tea.Model, tea.Cmd) {
	cmd, err := parseCommand(m.input.Value())
	if err != nil {
		m.notice = err.Error()
		return m, nil
	}
	m.notice = ""

	switch cmd.kind {
	case cmdSend:
		if cmd.arg == "" {
			return m, nil
		}
		return m.startExchange(func() session.Effect { return m.ctrl.Send(cmd.arg) })
	case cmdAction:
		return m.startExchange(func() session.Effect {
			return m.ctrl.InvokeQuickAction(resolveAction(m.state.Catalog, cmd.arg))
		})
	case cmdActions:
		m.notice = strings.TrimRight(formatActions(m.state.Catalog), "\n")
	case cmdHelp:
		m.notice = helpText
	case cmdTicket:
		m.input.Reset()
		return m.openForm()
	case cmdDismiss:
		m.ctrl.DismissEscalation()
		m.state = m.ctrl.State()
	case cmdClear:
		m.mode = uiConfirmClear
	case cmdStats:
		if collector != nil {
			var b strings.Builder
			printStats(&b, collector.Snapshot())
			m.notice = strings.TrimRight(b.String(), "\n")
		}
	case cmdQuit:
		return m, tea.Quit
	}
	m.input.Reset()
	return m, nil
}

// startExchange issues a request, or keeps the typed text when a response
// is still outstanding.
func (m chatModel) startExchange(issue func() session.Effect) (tea.Model, tea.Cmd) {
	if !m.ctrl.State().Accepting() {
		m.notice = "Please wait for the current response."
		return m, nil
	}
	eff := issue()
	if eff == nil {
		return m, nil
	}
	m.input.Reset()
	m.state = m.ctrl.State()
	return m, runEffect(eff)
}

func (m chatModel) updateConfirm(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	m.mode = uiChat
	switch msg.String() {
	case "y", "Y", "enter":
		eff, err := m.ctrl.Clear(true)
		if err != nil {
			m.notice = err.Error()
			return m, nil
		}
		m.state = m.ctrl.State()
		m.input.Reset()
		m.notice = ""
		return m, runEffect(eff)
	}
	return m, nil
}

func (m chatModel) openForm() (tea.Model, tea.Cmd) {
	if err := m.ctrl.OpenTicketForm(); err != nil {
		m.notice = "There is nothing to escalate right now."
		return m, nil
	}
	m.state = m.ctrl.State()
	form := m.state.Escalation.Form
	m.fields[0].SetValue(form.Name)
	m.fields[1].SetValue(form.Email)
	m.fields[2].SetValue(form.Description)
	m.priority = form.Priority
	if !m.priority.Valid() {
		m.priority = models.PriorityMedium
	}
	m.formErrs = nil
	m.mode = uiForm
	m.input.Blur()
	cmd := m.focusField(0)
	return m, cmd
}

func (m *chatModel) focusField(i int) tea.Cmd {
	m.focus = i
	var cmd tea.Cmd
	for j := range m.fields {
		if j == i {
			cmd = m.fields[j].Focus()
		} else {
			m.fields[j].Blur()
		}
	}
	return cmd
}

func (m chatModel) closeForm() (tea.Model, tea.Cmd) {
	if m.state.Escalation.Phase == escalation.FormOpen {
		_ = m.ctrl.CloseTicketForm()
		m.state = m.ctrl.State()
	}
	m.mode = uiChat
	m.focusField(-1)
	cmd := m.input.Focus()
	return m, cmd
}

func (m chatModel) updateForm(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m.closeForm()
	case "tab", "down":
		cmd := m.focusField((m.focus + 1) % (priorityField + 1))
		return m, cmd
	case "shift+tab", "up":
		cmd := m.focusField((m.focus + priorityField) % (priorityField + 1))
		return m, cmd
	case "enter":
		if m.focus < priorityField {
			cmd := m.focusField(m.focus + 1)
			return m, cmd
		}
		return m.submitForm()
	}

	if m.focus == priorityField {
		switch msg.String() {
		case "space", "right", "left":
			m.priority = m.priority.Next()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.fields[m.focus], cmd = m.fields[m.focus].Update(msg)
	return m, cmd
}

func (m chatModel) submitForm() (tea.Model, tea.Cmd) {
	form := escalation.Form{
		Name:        m.fields[0].Value(),
		Email:       m.fields[1].Value(),
		Description: m.fields[2].Value(),
		Priority:    m.priority,
		Category:    m.state.Escalation.Form.Category,
	}
	eff, err := m.ctrl.SubmitTicket(form)
	if err != nil {
		m.formErrs = m.formErrs[:0]
		for _, fe := range escalation.FieldErrors(err) {
			m.formErrs = append(m.formErrs, fe.Error())
		}
		if len(m.formErrs) == 0 {
			m.formErrs = append(m.formErrs, err.Error())
		}
		return m, nil
	}
	m.state = m.ctrl.State()
	m.mode = uiChat
	m.focusField(-1)
	focus := m.input.Focus()
	return m, tea.Batch(runEffect(eff), focus)
}

// View renders the chat.
func (m chatModel) View() tea.View {
	v := tea.NewView(m.renderContent())
	v.AltScreen = true
	return v
}

// renderContent builds the display string, keeping the newest lines when
// the window is too short.
func (m chatModel) renderContent() string {
	var b strings.Builder

	title := m.theme.titleStyle().Render("IT Helpdesk Assistant")
	status := connectivityLine(m.state)
	if m.state.Connectivity.Connected {
		status = m.theme.successStyle().Render(status)
	} else {
		status = m.theme.errorStyle().Render(status)
	}
	fmt.Fprintf(&b, "%s  %s\n\n", title, status)

	for _, msg := range m.state.Transcript {
		b.WriteString(m.renderMessage(msg))
		b.WriteString("\n")
	}

	if len(m.state.Transcript) == 1 && len(m.state.Catalog) > 0 {
		b.WriteString(m.theme.hintStyle().Render("Quick actions (type /action <n>):"))
		b.WriteString("\n")
		for i, a := range m.state.Catalog {
			fmt.Fprintf(&b, "  %d. %s %s\n", i+1, a.Icon, a.Label)
		}
		b.WriteString("\n")
	}

	if m.state.Phase == session.AwaitingResponse {
		fmt.Fprintf(&b, "%s %s\n\n", m.spinner.View(), m.theme.hintStyle().Render("Assistant is typing..."))
	}

	if banner := m.renderEscalation(); banner != "" {
		b.WriteString(banner)
		b.WriteString("\n")
	}

	if m.notice != "" {
		b.WriteString(m.theme.hintStyle().Render(m.notice))
		b.WriteString("\n")
	}

	switch m.mode {
	case uiConfirmClear:
		b.WriteString(m.theme.errorStyle().Render("Clear the conversation? (y/N)"))
		b.WriteString("\n")
	case uiChat:
		b.WriteString(m.input.View())
		b.WriteString("\n")
		b.WriteString(m.theme.hintStyle().Render("enter send • /help commands • ctrl+l clear • ctrl+c quit"))
		b.WriteString("\n")
	}

	content := b.String()
	if m.height > 0 {
		lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
		if len(lines) > m.height {
			lines = lines[len(lines)-m.height:]
		}
		content = strings.Join(lines, "\n")
	}
	return content
}

func (m chatModel) renderMessage(msg models.Message) string {
	label := m.theme.assistantStyle().Render(speaker(msg.Role) + ":")
	if msg.Role == models.RoleUser {
		label = m.theme.userStyle().Render(speaker(msg.Role) + ":")
	}

	body := msg.Content
	if m.width > 4 {
		body = lipgloss.NewStyle().Width(m.width - 2).Render(body)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n", label, body)
	if len(msg.Sources) > 0 {
		b.WriteString(m.theme.hintStyle().Render("Sources: " + strings.Join(msg.Sources, ", ")))
		b.WriteString("\n")
	}
	for _, s := range msg.SuggestedActions {
		fmt.Fprintf(&b, "  → %s\n", s)
	}
	return b.String()
}

func (m chatModel) renderEscalation() string {
	esc := m.state.Escalation
	switch esc.Phase {
	case escalation.Hidden:
		return ""
	case escalation.FormOpen:
		return m.theme.bannerStyle().Render(m.renderForm())
	case escalation.Submitting:
		return m.theme.bannerStyle().Render(m.spinner.View() + " Creating ticket...")
	}

	text := escalationNotice(esc)
	hint := "esc close"
	if esc.Phase == escalation.Prompt {
		hint = "ctrl+t create ticket • esc dismiss"
	}
	return m.theme.bannerStyle().Render(text + "\n" + m.theme.hintStyle().Render(hint))
}

func (m chatModel) renderForm() string {
	var b strings.Builder
	b.WriteString(m.theme.titleStyle().Render("Create Support Ticket"))
	b.WriteString("\n")
	for i, label := range []string{"Name", "Email", "Description"} {
		fmt.Fprintf(&b, "%s %s\n", m.theme.fieldStyle(m.focus == i).Render(fmt.Sprintf("%-12s", label)), m.fields[i].View())
	}
	fmt.Fprintf(&b, "%s %s  %s\n",
		m.theme.fieldStyle(m.focus == priorityField).Render(fmt.Sprintf("%-12s", "Priority")),
		m.priority,
		m.theme.hintStyle().Render(m.priority.Hint()),
	)
	for _, e := range m.formErrs {
		b.WriteString(m.theme.errorStyle().Render("✗ " + e))
		b.WriteString("\n")
	}
	b.WriteString(m.theme.hintStyle().Render("tab next field • space change priority • enter submit • esc back"))
	return b.String()
}

// probeTick schedules the next periodic re-probe. It is nil when periodic
// probing is disabled.
func (m chatModel) probeTick() tea.Cmd {
	if m.probeInterval <= 0 {
		return nil
	}
	return tea.Tick(m.probeInterval, func(t time.Time) tea.Msg {
		return probeTickMsg(t)
	})
}

// runEffect turns a session effect into a command.
// Runs in a separate goroutine (command) to avoid blocking Update().
func runEffect(eff session.Effect) tea.Cmd {
	if eff == nil {
		return nil
	}
	return func() tea.Msg {
		return effectMsg{ev: eff()}
	}
}

// runChatUI runs the interactive chat until the user quits.
func runChatUI(ctx context.Context, ctrl *session.Controller, probeInterval time.Duration) error {
	p := tea.NewProgram(newChatModel(ctrl, probeInterval), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("chat UI error: %w", err)
	}
	return nil
}
