package form

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/ephemeris/internal/session"
)

// Renderer presents a session as an interactive terminal form.
// It satisfies session.Renderer.
type Renderer struct {
	Options []tea.ProgramOption
}

// NewRenderer creates a renderer using the alternate screen
func NewRenderer(opts ...tea.ProgramOption) *Renderer {
	return &Renderer{Options: append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)}
}

// Render runs the form until the user submits or cancels
func (r *Renderer) Render(ctx context.Context, s *session.Session) error {
	opts := append([]tea.ProgramOption{tea.WithContext(ctx)}, r.Options...)

	final, err := tea.NewProgram(NewModel(ctx, s), opts...).Run()
	if err != nil {
		return fmt.Errorf("settings form failed: %w", err)
	}

	if m, ok := final.(Model); ok {
		return m.Err()
	}
	return nil
}

var _ session.Renderer = (*Renderer)(nil)
