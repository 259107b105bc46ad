package form

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/ephemeris/internal/location"
	"github.com/muurk/ephemeris/internal/payload"
	"github.com/muurk/ephemeris/internal/session"
	"github.com/muurk/ephemeris/internal/settings"
	"github.com/muurk/ephemeris/internal/ui"
	"github.com/muurk/ephemeris/internal/version"
)

// Messages produced by the commands that call into the session
type startedMsg struct {
	err error
}

type locatedMsg struct {
	outcome location.Outcome
	err     error
}

type submittedMsg struct {
	payload *payload.Payload
	err     error
}

// Model is the bubbletea model of the settings form. It owns no settings
// state: every value is read from, and every edit goes through, the
// session.
type Model struct {
	ctx     context.Context
	session *session.Session

	// Ids of the editable (non-local) fields in display order
	editable []string
	cursor   int

	editing bool
	input   textinput.Model

	resolving  bool
	submitting bool
	spinner    spinner.Model

	message   string // Last rejected action, cleared by the next success
	submitted *payload.Payload
	err       error
	done      bool

	help  help.Model
	keys  keyMap
	width int
}

// NewModel builds a form for s. If s is still Idle the form starts it,
// which may trigger a location lookup.
func NewModel(ctx context.Context, s *session.Session) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = ui.SpinnerStyle

	in := textinput.New()
	in.Prompt = ""
	in.CharLimit = 64

	var editable []string
	for _, f := range s.Fields() {
		if !f.Local {
			editable = append(editable, f.ID)
		}
	}

	return Model{
		ctx:       ctx,
		session:   s,
		editable:  editable,
		input:     in,
		spinner:   sp,
		resolving: s.State() == session.StateIdle,
		help:      help.New(),
		keys:      newKeyMap(),
		width:     ui.MinTerminalWidth,
	}
}

// Init starts the session when needed
func (m Model) Init() tea.Cmd {
	if m.session.State() != session.StateIdle {
		return nil
	}
	return tea.Batch(m.spinner.Tick, startCmd(m.ctx, m.session))
}

func startCmd(ctx context.Context, s *session.Session) tea.Cmd {
	return func() tea.Msg {
		return startedMsg{err: s.Start(ctx)}
	}
}

func relocateCmd(ctx context.Context, s *session.Session) tea.Cmd {
	return func() tea.Msg {
		outcome, err := s.Relocate(ctx)
		return locatedMsg{outcome: outcome, err: err}
	}
}

func submitCmd(ctx context.Context, s *session.Session) tea.Cmd {
	return func() tea.Msg {
		p, err := s.Submit(ctx)
		return submittedMsg{payload: p, err: err}
	}
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		if !m.resolving && !m.submitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case startedMsg:
		m.resolving = false
		if msg.err != nil {
			m.message = settings.GetShortErrorMessage(msg.err)
		}
		return m, nil

	case locatedMsg:
		if msg.err != nil {
			m.resolving = false
			m.message = settings.GetShortErrorMessage(msg.err)
			return m, nil
		}
		if msg.outcome.Reason == location.ReasonAlreadyInFlight {
			// The earlier lookup is still running
			m.message = msg.outcome.Reason.Message()
			return m, nil
		}
		m.resolving = false
		m.message = ""
		return m, nil

	case submittedMsg:
		m.submitting = false
		if msg.err != nil && msg.payload == nil && !settings.IsAlreadySubmitted(msg.err) {
			// Rejected before anything was sent; the form stays open
			m.message = settings.GetShortErrorMessage(msg.err)
			return m, nil
		}
		m.submitted = msg.payload
		m.err = msg.err
		m.done = true
		return m, tea.Quit

	case tea.KeyMsg:
		if m.editing {
			return m.updateEditor(msg)
		}
		return m.updateNormalMode(msg)
	}

	return m, nil
}

// updateNormalMode handles keys while no field is being edited
func (m Model) updateNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q", "esc":
		if err := m.session.Abandon(); err != nil {
			m.err = err
		}
		m.done = true
		return m, tea.Quit

	case "up", "k":
		if len(m.editable) > 0 {
			m.cursor = (m.cursor - 1 + len(m.editable)) % len(m.editable)
		}

	case "down", "j":
		if len(m.editable) > 0 {
			m.cursor = (m.cursor + 1) % len(m.editable)
		}

	case "left", "-":
		return m.step(-1), nil

	case "right", "+":
		return m.step(1), nil

	case " ":
		return m.toggle(), nil

	case "enter":
		return m.startEditing()

	case "l":
		cmd := relocateCmd(m.ctx, m.session)
		if m.resolving {
			return m, cmd
		}
		m.resolving = true
		m.message = ""
		return m, tea.Batch(m.spinner.Tick, cmd)

	case "s":
		if m.submitting {
			return m, nil
		}
		m.submitting = true
		return m, tea.Batch(m.spinner.Tick, submitCmd(m.ctx, m.session))

	case "?":
		m.help.ShowAll = !m.help.ShowAll
	}

	return m, nil
}

// updateEditor handles keys while the text input is focused
func (m Model) updateEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editing = false
		m.input.Blur()
		return m, nil

	case "enter":
		m.editing = false
		m.input.Blur()
		return m.report(m.session.EditString(m.current(), m.input.Value())), nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) current() string {
	if len(m.editable) == 0 {
		return ""
	}
	return m.editable[m.cursor]
}

func (m Model) currentField() (settings.SettingField, bool) {
	f, err := m.session.Field(m.current())
	return f, err == nil
}

func (m Model) startEditing() (tea.Model, tea.Cmd) {
	f, ok := m.currentField()
	if !ok {
		return m, nil
	}
	if f.Kind == settings.KindToggle {
		return m.toggle(), nil
	}
	if !m.session.State().Editable() {
		m.message = "Fields cannot be edited while " + m.session.State().String()
		return m, nil
	}

	m.editing = true
	m.input.SetValue(f.FormatValue())
	m.input.CursorEnd()
	return m, m.input.Focus()
}

func (m Model) toggle() Model {
	f, ok := m.currentField()
	if !ok || f.Kind != settings.KindToggle {
		return m
	}
	return m.report(m.session.Edit(f.ID, !f.Bool()))
}

// step nudges a numeric field by one step; the session clamps the result
func (m Model) step(dir float64) Model {
	f, ok := m.currentField()
	if !ok || f.Kind != settings.KindNumericRange {
		return m
	}
	inc := 1.0
	if f.Constraints != nil && f.Constraints.Step > 0 {
		inc = f.Constraints.Step
	}
	return m.report(m.session.Edit(f.ID, f.Number()+dir*inc))
}

func (m Model) report(err error) Model {
	if err != nil {
		m.message = settings.GetShortErrorMessage(err)
	} else {
		m.message = ""
	}
	return m
}

// Submitted returns the payload once the form has been submitted
func (m Model) Submitted() *payload.Payload {
	return m.submitted
}

// Err returns the error that ended the form, if any
func (m Model) Err() error {
	return m.err
}

// View renders the form
func (m Model) View() string {
	if m.done {
		return ""
	}

	sch := m.session.Schema()
	var b strings.Builder

	b.WriteString(ui.HeaderTitleStyle.Render(strings.ToUpper(sch.Title)))
	b.WriteString(ui.HintStyle.Render("  " + version.Version))
	b.WriteString("\n")
	if sch.Intro != "" {
		b.WriteString(lipgloss.NewStyle().Width(max(m.width-4, 20)).PaddingLeft(2).Render(sch.Intro))
		b.WriteString("\n")
	}

	for _, sec := range sch.Sections {
		if sec.Heading != "" {
			b.WriteString(ui.SectionStyle.Render("  " + sec.Heading))
			b.WriteString("\n")
		}
		for _, d := range sec.Fields {
			f, err := m.session.Field(d.ID)
			if err != nil {
				continue
			}
			if row := m.renderField(f); row != "" {
				b.WriteString(row)
				b.WriteString("\n")
			}
		}
	}

	b.WriteString("\n")
	switch {
	case m.submitting:
		b.WriteString("  " + m.spinner.View() + " Sending settings...\n")
	case m.resolving:
		b.WriteString("  " + m.spinner.View() + " Locating...\n")
	}
	if m.message != "" {
		b.WriteString(ui.ErrorMessageStyle.Render("  " + ui.FailureMarker + " " + m.message))
		b.WriteString("\n")
	}

	b.WriteString("\n  ")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n")
	return b.String()
}

// renderField renders one row: "→ Label          Value"
func (m Model) renderField(f settings.SettingField) string {
	label := f.Label
	if label == "" {
		label = f.ID
	}

	if f.Local {
		if f.Text() == "" && f.Kind == settings.KindText {
			return ""
		}
		return "    " + ui.HintStyle.Render(f.FormatValue())
	}

	selected := f.ID == m.current()
	labelStyle := lipgloss.NewStyle().Width(28).Foreground(ui.MutedColor)
	valueStyle := lipgloss.NewStyle().Foreground(ui.TextColor)
	arrow := "  "
	if selected {
		labelStyle = labelStyle.Foreground(ui.SuccessColor).Bold(true)
		valueStyle = valueStyle.Foreground(ui.SuccessColor).Bold(true)
		arrow = ui.CursorMarker + " "
	}

	value := formatValue(f)
	if selected && m.editing {
		value = m.input.View()
	}

	return lipgloss.JoinHorizontal(lipgloss.Left, "  ", arrow, labelStyle.Render(label), valueStyle.Render(value))
}

func formatValue(f settings.SettingField) string {
	switch f.Kind {
	case settings.KindToggle:
		if f.Bool() {
			return "[x]"
		}
		return "[ ]"
	case settings.KindNumericRange:
		if f.Constraints != nil {
			return fmt.Sprintf("%s  (%g to %g)", f.FormatValue(), f.Constraints.Min, f.Constraints.Max)
		}
	}
	return f.FormatValue()
}
