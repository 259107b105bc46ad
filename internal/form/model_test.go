package form

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap/zaptest"

	"github.com/muurk/ephemeris/internal/coord"
	"github.com/muurk/ephemeris/internal/location"
	"github.com/muurk/ephemeris/internal/payload"
	"github.com/muurk/ephemeris/internal/schema"
	"github.com/muurk/ephemeris/internal/session"
	"github.com/muurk/ephemeris/internal/settings"
)

type recordingTransport struct {
	mu   sync.Mutex
	sent []*payload.Payload
}

func (r *recordingTransport) Send(_ context.Context, p *payload.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, p)
	return nil
}

func newSession(t *testing.T, provider location.Provider, transport session.Transport, opts session.Options) *session.Session {
	t.Helper()
	opts.Logger = zaptest.NewLogger(t)
	var resolver *location.Resolver
	if provider != nil {
		resolver = location.NewResolver(provider, opts.Logger)
	}
	s, err := session.New(schema.Default(), resolver, transport, opts)
	if err != nil {
		t.Fatalf("session.New failed: %v", err)
	}
	return s
}

// started returns a form whose session has left Idle
func started(t *testing.T, s *session.Session) Model {
	t.Helper()
	m := NewModel(context.Background(), s)
	if !m.resolving {
		t.Fatal("Expected a new form to show the lookup as pending")
	}
	return update(t, m, startCmd(context.Background(), s)())
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return model
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		m = update(t, m, keyMsg(k))
	}
	return m
}

func fieldValue(t *testing.T, s *session.Session, id string) settings.SettingField {
	t.Helper()
	f, err := s.Field(id)
	if err != nil {
		t.Fatalf("Field(%s) failed: %v", id, err)
	}
	return f
}

func TestStartWithoutLocation(t *testing.T) {
	s := newSession(t, nil, nil, session.Options{})
	m := started(t, s)

	if m.resolving {
		t.Error("Expected lookup indicator to clear after start")
	}
	if s.State() != session.StateAwaitingSubmission {
		t.Errorf("Expected AwaitingSubmission, got %s", s.State())
	}
	if m.Init() != nil {
		t.Error("Init should do nothing once the session has started")
	}
}

func TestNavigationSkipsLocalFields(t *testing.T) {
	s := newSession(t, nil, nil, session.Options{})
	m := started(t, s)

	want := []string{"UsePhoneLocation", "Latitude", "Longitude", "ShowInfo"}
	if len(m.editable) != len(want) {
		t.Fatalf("Expected %d editable fields, got %v", len(want), m.editable)
	}
	for i, id := range want {
		if m.current() != id {
			t.Errorf("Step %d: expected %s, got %s", i, id, m.current())
		}
		m = press(t, m, "down")
	}
	if m.current() != "UsePhoneLocation" {
		t.Errorf("Expected cursor to wrap to the top, got %s", m.current())
	}

	m = press(t, m, "up")
	if m.current() != "ShowInfo" {
		t.Errorf("Expected cursor to wrap to the bottom, got %s", m.current())
	}
}

func TestStepAndToggle(t *testing.T) {
	s := newSession(t, nil, nil, session.Options{})
	m := started(t, s)

	m = press(t, m, "down", "right")
	if lat := fieldValue(t, s, "Latitude").Number(); lat != 65.01 {
		t.Errorf("Expected Latitude 65.01, got %v", lat)
	}
	m = press(t, m, "left", "left")
	if lat := fieldValue(t, s, "Latitude").Number(); lat != 64.99 {
		t.Errorf("Expected Latitude 64.99, got %v", lat)
	}

	// ShowInfo defaults to true
	m = press(t, m, "up", "up", " ")
	if fieldValue(t, s, "ShowInfo").Bool() {
		t.Error("Expected ShowInfo to be toggled off")
	}

	// Stepping a toggle does nothing
	m = press(t, m, "right")
	if fieldValue(t, s, "ShowInfo").Bool() {
		t.Error("Stepping a toggle should not change it")
	}
	if m.message != "" {
		t.Errorf("Unexpected message: %s", m.message)
	}
}

func TestTextEdit(t *testing.T) {
	s := newSession(t, nil, nil, session.Options{})
	m := started(t, s)

	m = press(t, m, "down", "enter")
	if !m.editing {
		t.Fatal("Expected enter to open the editor")
	}
	if m.input.Value() != "65" {
		t.Errorf("Expected editor prefilled with 65, got %q", m.input.Value())
	}

	m.input.SetValue("64.84")
	m = press(t, m, "enter")
	if m.editing {
		t.Error("Expected editor to close")
	}
	if lat := fieldValue(t, s, "Latitude").Number(); lat != 64.84 {
		t.Errorf("Expected Latitude 64.84, got %v", lat)
	}

	t.Run("rejected value leaves field unchanged", func(t *testing.T) {
		m := press(t, m, "enter")
		m.input.SetValue("north")
		m = press(t, m, "enter")
		if m.message == "" {
			t.Error("Expected a message for the rejected edit")
		}
		if lat := fieldValue(t, s, "Latitude").Number(); lat != 64.84 {
			t.Errorf("Expected Latitude to stay 64.84, got %v", lat)
		}
	})

	t.Run("esc cancels", func(t *testing.T) {
		m := press(t, m, "enter")
		m.input.SetValue("10")
		m = press(t, m, "esc")
		if m.editing {
			t.Error("Expected esc to close the editor")
		}
		if lat := fieldValue(t, s, "Latitude").Number(); lat != 64.84 {
			t.Errorf("Expected Latitude to stay 64.84, got %v", lat)
		}
		if s.State() != session.StateAwaitingSubmission {
			t.Errorf("Esc in the editor should not abandon, state is %s", s.State())
		}
	})
}

func TestSubmit(t *testing.T) {
	transport := &recordingTransport{}
	provider := location.NewStaticProvider(coord.Coordinate{Latitude: 64.84, Longitude: -147.72})
	s := newSession(t, provider, transport, session.Options{AutoLocation: true})
	m := started(t, s)

	if !strings.HasPrefix(s.StatusMessage(), "Location found") {
		t.Fatalf("Expected location to be found, status: %s", s.StatusMessage())
	}

	m = press(t, m, "s")
	if !m.submitting {
		t.Fatal("Expected s to start submitting")
	}

	next, cmd := m.Update(submitCmd(context.Background(), s)())
	m = next.(Model)
	if cmd == nil {
		t.Fatal("Expected the form to quit after submitting")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected tea.Quit")
	}

	p := m.Submitted()
	if p == nil {
		t.Fatal("Expected a submitted payload")
	}
	if n, _ := p.Int("Latitude"); n != 6484 {
		t.Errorf("Expected Latitude 6484, got %d", n)
	}
	if len(transport.sent) != 1 {
		t.Errorf("Expected 1 payload sent, got %d", len(transport.sent))
	}
	if m.View() != "" {
		t.Error("Expected an empty view once done")
	}
}

func TestSubmitRejectedWhileResolving(t *testing.T) {
	s := newSession(t, nil, nil, session.Options{})
	m := started(t, s)

	rejected := settings.NewInvalidStateError("cannot submit while ResolvingLocation")
	m = update(t, m, submittedMsg{err: rejected})

	if m.done {
		t.Error("A rejected submit should keep the form open")
	}
	if m.message == "" {
		t.Error("Expected the rejection to be shown")
	}
}

func TestRelocateWhileResolving(t *testing.T) {
	s := newSession(t, nil, nil, session.Options{})
	m := started(t, s)

	m = press(t, m, "l")
	if !m.resolving {
		t.Fatal("Expected l to start a lookup")
	}

	m = update(t, m, locatedMsg{outcome: location.Failed(location.ReasonAlreadyInFlight)})
	if !m.resolving {
		t.Error("An in-flight rejection should not clear the pending lookup")
	}
	if m.message != location.ReasonAlreadyInFlight.Message() {
		t.Errorf("Unexpected message: %q", m.message)
	}

	m = update(t, m, locatedMsg{outcome: location.Failed(location.ReasonTimeout)})
	if m.resolving {
		t.Error("Expected lookup indicator to clear")
	}
}

func TestQuitAbandons(t *testing.T) {
	for _, k := range []string{"q", "esc"} {
		t.Run(k, func(t *testing.T) {
			s := newSession(t, nil, nil, session.Options{})
			m := started(t, s)

			next, cmd := m.Update(keyMsg(k))
			if cmd == nil {
				t.Fatal("Expected a quit command")
			}
			if _, ok := cmd().(tea.QuitMsg); !ok {
				t.Error("Expected tea.Quit")
			}
			if s.State() != session.StateAbandoned {
				t.Errorf("Expected Abandoned, got %s", s.State())
			}
			if next.(Model).Err() != nil {
				t.Errorf("Unexpected error: %v", next.(Model).Err())
			}
		})
	}
}

func TestView(t *testing.T) {
	s := newSession(t, nil, nil, session.Options{})
	m := started(t, s)
	m = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})

	view := m.View()
	for _, want := range []string{"EPHEMERIS CONFIGURATION", "Location", "Use phone's location", "Latitude, + for North", "[x]", "(-90 to 90)"} {
		if !strings.Contains(view, want) {
			t.Errorf("View missing %q:\n%s", want, view)
		}
	}
	if strings.Contains(view, "Locating") {
		t.Error("View should not show a pending lookup")
	}
}

func TestRendererQuit(t *testing.T) {
	s := newSession(t, nil, nil, session.Options{})
	r := &Renderer{Options: []tea.ProgramOption{
		tea.WithInput(strings.NewReader("q")),
		tea.WithOutput(io.Discard),
	}}

	if err := s.Run(context.Background(), r); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if s.State() != session.StateAbandoned {
		t.Errorf("Expected Abandoned, got %s", s.State())
	}
}
