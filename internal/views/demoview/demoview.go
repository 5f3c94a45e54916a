// Package demoview renders the demo builder overlay: the step list under
// construction, the stored-sequence selector and the currently executing
// action reported by demo:run push events.
package demoview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/MndV09/iot-carbot/internal/catalog"
	"github.com/MndV09/iot-carbot/internal/client"
	"github.com/MndV09/iot-carbot/internal/theme"
)

// Model holds the demo builder state handed in by the app.
type Model struct {
	Steps         []client.SequenceStep
	Sequences     []client.SequenceInfo
	MoveCursor    int // selected catalog move for the next step
	NextDuration  int // duration the next added step gets, in ms
	StepCursor    int // selected row in the step list
	SeqCursor     int // selected stored sequence
	CurrentAction string
	Width         int
}

// New creates an empty demo builder view.
func New() Model {
	return Model{CurrentAction: "...", NextDuration: 800}
}

// SelectedMove returns the catalog entry under the move cursor.
func (m Model) SelectedMove() catalog.Entry {
	return catalog.Moves[m.MoveCursor]
}

// SelectedSequence returns the stored sequence under the cursor, or zero
// when the list is empty.
func (m Model) SelectedSequence() int {
	if m.SeqCursor < 0 || m.SeqCursor >= len(m.Sequences) {
		return 0
	}
	return m.Sequences[m.SeqCursor].Ident()
}

// View renders the overlay.
func (m Model) View() string {
	left := theme.StylePanel.Render(strings.Join(m.stepLines(), "\n"))
	right := theme.StylePanel.Render(strings.Join(m.sequenceLines(), "\n"))
	action := theme.StylePanel.Render(
		theme.StyleHeader.Render("RUNNING") + "\n" +
			lipgloss.NewStyle().Foreground(theme.ColorDemo).Render(m.CurrentAction))
	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right),
		action,
	)
}

func (m Model) stepLines() []string {
	entry := m.SelectedMove()
	lines := []string{
		theme.StyleHeader.Render("DEMO BUILDER"),
		fmt.Sprintf("next step: %s  %d ms",
			theme.StyleSelected.Render(fmt.Sprintf("%d • %s", entry.ID, entry.Name)), m.NextDuration),
		"",
	}
	if len(m.Steps) == 0 {
		lines = append(lines, theme.StyleDimmed.Render("  no steps yet"))
		return lines
	}
	for i, s := range m.Steps {
		prefix := "  "
		if i == m.StepCursor {
			prefix = "> "
		}
		name := "?"
		if label, ok := catalog.MoveLabel(s.StatusClave); ok {
			name = label
		}
		lines = append(lines, fmt.Sprintf("%s%d. %d • %-22s %4d ms", prefix, i+1, s.StatusClave, name, s.DurationMs))
	}
	return lines
}

func (m Model) sequenceLines() []string {
	lines := []string{theme.StyleHeader.Render("STORED SEQUENCES")}
	if len(m.Sequences) == 0 {
		lines = append(lines, theme.StyleDimmed.Render("  none loaded"))
		return lines
	}
	for i, seq := range m.Sequences {
		prefix := "  "
		if i == m.SeqCursor {
			prefix = "> "
		}
		count := "?"
		if seq.StepsCount != nil {
			count = fmt.Sprintf("%d", *seq.StepsCount)
		}
		lines = append(lines, fmt.Sprintf("%s%d • %s (%s steps)", prefix, seq.Ident(), seq.Name, count))
	}
	return lines
}
