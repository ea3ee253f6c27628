// Package style provides shared styling primitives for log lines and
// command output.
package style

import "github.com/charmbracelet/lipgloss"

// Colors.
var (
	Iris   = lipgloss.Color("#8B5CF6")
	Slate  = lipgloss.Color("#667085")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
)

// Icons.
const (
	Cross   = "✗"
	Warning = "!"
	Circle  = "○"
)

// Header renders a table heading.
var Header = lipgloss.NewStyle().Bold(true).Foreground(Iris)

// Muted renders secondary columns.
var Muted = lipgloss.NewStyle().Foreground(Slate)
