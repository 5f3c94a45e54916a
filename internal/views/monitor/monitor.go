// Package monitor renders the live telemetry panel: the headline latest
// movement/obstacle and the bounded history tables. It is a pure reader of
// the snapshots the sync session hands it.
package monitor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/MndV09/iot-carbot/internal/catalog"
	"github.com/MndV09/iot-carbot/internal/telemetry"
	"github.com/MndV09/iot-carbot/internal/theme"
)

// Model holds the monitor panel state.
type Model struct {
	Session *telemetry.Session
	Width   int
}

// New creates a monitor panel over the given session.
func New(session *telemetry.Session) Model {
	return Model{Session: session}
}

// View renders the headline and both history tables.
func (m Model) View() string {
	sections := []string{
		m.headline(),
		lipgloss.JoinHorizontal(lipgloss.Top,
			m.logTable("MOVEMENT LOG", telemetry.Movement),
			" ",
			m.logTable("OBSTACLE LOG", telemetry.Obstacle),
		),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) headline() string {
	move := m.Session.Latest(telemetry.Movement)
	obs := m.Session.Latest(telemetry.Obstacle)
	run := m.Session.Latest(telemetry.DemoRun)

	lines := []string{
		theme.StyleHeader.Render("LIVE"),
		lipgloss.NewStyle().Foreground(theme.ColorMovement).Render("Movement: ") + headlineText(move, moveLabel),
		lipgloss.NewStyle().Foreground(theme.ColorObstacle).Render("Obstacle: ") + headlineText(obs, obstacleLabel),
		lipgloss.NewStyle().Foreground(theme.ColorDemo).Render("Demo:     ") + headlineText(run, moveLabel),
	}
	return theme.StylePanel.Render(strings.Join(lines, "\n"))
}

func headlineText(rec *telemetry.EventRecord, label func(*telemetry.EventRecord) string) string {
	if rec == nil {
		return theme.StyleDimmed.Render("no data")
	}
	return label(rec) + "  " + theme.StyleDimmed.Render(formatTS(rec))
}

func (m Model) logTable(title string, ch telemetry.Channel) string {
	label := moveLabel
	if ch == telemetry.Obstacle {
		label = obstacleLabel
	}
	lines := []string{theme.StyleHeader.Render(title)}
	records := m.Session.Log(ch)
	if len(records) == 0 {
		lines = append(lines, theme.StyleDimmed.Render("  no data"))
	}
	for i, rec := range records {
		lines = append(lines, fmt.Sprintf("%2d  %-26s %s", i+1, label(rec), theme.StyleDimmed.Render(formatTS(rec))))
	}
	return theme.StylePanel.Render(strings.Join(lines, "\n"))
}

// moveLabel names a movement (or demo-step) record, falling back to the
// raw code for catalog misses so malformed events still render.
func moveLabel(rec *telemetry.EventRecord) string {
	if name, ok := catalog.MoveLabel(rec.Code); ok {
		return fmt.Sprintf("%d • %s", rec.Code, name)
	}
	return fmt.Sprintf("#%d", rec.Code)
}

func obstacleLabel(rec *telemetry.EventRecord) string {
	var out string
	if name, ok := catalog.ObstacleLabel(rec.Code); ok {
		out = fmt.Sprintf("%d • %s", rec.Code, name)
	} else {
		out = fmt.Sprintf("#%d", rec.Code)
	}
	if rec.DistanceCM != nil {
		out += fmt.Sprintf(" • %.1f cm", *rec.DistanceCM)
	}
	return out
}

func formatTS(rec *telemetry.EventRecord) string {
	if rec.OccurredAt.IsZero() {
		return "..."
	}
	return rec.OccurredAt.Format("2006-01-02 15:04:05")
}
