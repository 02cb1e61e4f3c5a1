// Package tui provides Bubble Tea components for the foundry CLI.
//
// TUI rules:
//   - TUI is opt-in only (--tui flag)
//   - TUI renders the same stream events the observer API exposes
//   - No TUI-exclusive data allowed
package tui

import "github.com/charmbracelet/lipgloss"

// Color palette.
var (
	primaryColor = lipgloss.Color("#7C3AED") // Purple
	successColor = lipgloss.Color("#10B981") // Green
	warningColor = lipgloss.Color("#F59E0B") // Amber
	errorColor   = lipgloss.Color("#EF4444") // Red
	mutedColor   = lipgloss.Color("#6B7280") // Gray
)

// Styles for TUI components.
var (
	// TitleStyle for the project header.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	// FileStyle for committed file paths.
	FileStyle = lipgloss.NewStyle().
			Foreground(successColor)

	// ActiveStyle for the file currently streaming.
	ActiveStyle = lipgloss.NewStyle().
			Foreground(warningColor)

	// DepStyle for declared dependencies.
	DepStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	// ErrorStyle for failure states.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	// HelpStyle for help text.
	HelpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			MarginTop(1)

	// SpinnerStyle for the streaming indicator.
	SpinnerStyle = lipgloss.NewStyle().
			Foreground(warningColor)
)
