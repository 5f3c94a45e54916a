// Package theme provides the Lip Gloss color palette and reusable styles
// for the carbot panel. It is a leaf package with no internal imports to
// avoid import cycles.
package theme

import "github.com/charmbracelet/lipgloss"

// Channel colors.
var (
	ColorMovement = lipgloss.Color("#3b82f6")
	ColorObstacle = lipgloss.Color("#d97706")
	ColorDemo     = lipgloss.Color("#a855f7")
)

// Connection state colors.
var (
	ColorConnected    = lipgloss.Color("#22c55e")
	ColorConnecting   = lipgloss.Color("#d97706")
	ColorDisconnected = lipgloss.Color("#dc2626")
)

// UI chrome colors.
var (
	ColorBorder = lipgloss.Color("#4b5563")
	ColorDimmed = lipgloss.Color("#6b7280")
	ColorBright = lipgloss.Color("#f9fafb")
	ColorDanger = lipgloss.Color("#dc2626")
	ColorOK     = lipgloss.Color("#16a34a")
	ColorWarn   = lipgloss.Color("#854d0e")
)

// Shared styles.
var (
	StyleHeader = lipgloss.NewStyle().Bold(true).Foreground(ColorBright)
	StyleDimmed = lipgloss.NewStyle().Foreground(ColorDimmed)
	StyleDanger = lipgloss.NewStyle().Foreground(ColorDanger)
	StyleOK     = lipgloss.NewStyle().Foreground(ColorOK)

	StylePanel = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	StyleSelected = lipgloss.NewStyle().Foreground(ColorBright).Bold(true)
)
