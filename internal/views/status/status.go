// Package status renders the connection status bar.
package status

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/MndV09/iot-carbot/internal/client"
	"github.com/MndV09/iot-carbot/internal/theme"
)

// Model holds the status bar state.
type Model struct {
	State    client.State
	DeviceID int
	Seq      uint64
	Notice   string // last toast-style notification
	Width    int
}

// New creates a status bar model.
func New(deviceID int) Model {
	return Model{DeviceID: deviceID}
}

// View renders the status bar.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}

	var connStr string
	switch m.State {
	case client.StateConnected:
		connStr = lipgloss.NewStyle().Foreground(theme.ColorConnected).Render("● WS: ON")
	case client.StateConnecting, client.StateReconnectScheduled:
		connStr = lipgloss.NewStyle().Foreground(theme.ColorConnecting).Render("◌ WS: " + m.State.String())
	default:
		connStr = lipgloss.NewStyle().Foreground(theme.ColorDisconnected).Render("○ WS: OFF")
	}

	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")
	content := connStr + sep + fmt.Sprintf("device %d", m.DeviceID) + sep + fmt.Sprintf("seq %d", m.Seq)
	if m.Notice != "" {
		content += sep + theme.StyleDimmed.Render(m.Notice)
	}

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}
