// Package theme provides the Lip Gloss color palette and reusable styles
// for the Courtside TUI. It is a leaf package with no internal imports
// to avoid import cycles.
package theme

import "github.com/charmbracelet/lipgloss"

// Connection colors.
var (
	ColorConnected    = lipgloss.Color("#22c55e")
	ColorConnecting   = lipgloss.Color("#d97706")
	ColorDisconnected = lipgloss.Color("#dc2626")
)

// Playmate status colors.
var (
	ColorOpen      = lipgloss.Color("#3b82f6")
	ColorFull      = lipgloss.Color("#a855f7")
	ColorCancelled = lipgloss.Color("#6b7280")
	ColorFinished  = lipgloss.Color("#16a34a")
)

// UI chrome colors.
var (
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorAccent  = lipgloss.Color("#06b6d4")
	ColorWarning = lipgloss.Color("#d97706")
	ColorDanger  = lipgloss.Color("#dc2626")
	ColorDefault = lipgloss.Color("#9ca3af")
)

// StateColor returns the color for a connection state name.
func StateColor(state string) lipgloss.Color {
	switch state {
	case "connected":
		return ColorConnected
	case "connecting":
		return ColorConnecting
	case "disconnected":
		return ColorDisconnected
	default:
		return ColorDefault
	}
}

// StateGlyph returns a Unicode glyph for a connection state name.
func StateGlyph(state string) string {
	switch state {
	case "connected":
		return "●"
	case "connecting":
		return "◌"
	default:
		return "○"
	}
}

// PlaymateColor returns the color for a playmate status.
func PlaymateColor(status string) lipgloss.Color {
	switch status {
	case "open":
		return ColorOpen
	case "full":
		return ColorFull
	case "cancelled":
		return ColorCancelled
	case "finished":
		return ColorFinished
	default:
		return ColorDefault
	}
}

// Reusable styles.
var (
	StyleBorder = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder)

	StyleHeader = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
		Foreground(ColorDimmed)

	StyleSelected = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorBright)

	StyleTab = lipgloss.NewStyle().
		Padding(0, 1).
		Foreground(ColorDimmed)

	StyleActiveTab = lipgloss.NewStyle().
		Padding(0, 1).
		Bold(true).
		Foreground(ColorBright).
		Background(ColorBorder)

	StyleError = lipgloss.NewStyle().
		Foreground(ColorDanger)
)
