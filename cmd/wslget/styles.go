// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Color palette shared by all CLI output, tuned for dark terminals.
const (
	// ColorPrimary is used for titles and headers.
	ColorPrimary = lipgloss.Color("#7C3AED")
	// ColorMuted is used for secondary text.
	ColorMuted = lipgloss.Color("#6B7280")
	// ColorSuccess is used for completed steps.
	ColorSuccess = lipgloss.Color("#10B981")
	// ColorError is used for failures.
	ColorError = lipgloss.Color("#EF4444")
	// ColorWarning is used for prompts that need attention.
	ColorWarning = lipgloss.Color("#F59E0B")
	// ColorHighlight is used for distribution names, images and keys.
	ColorHighlight = lipgloss.Color("#3B82F6")
)

var (
	// TitleStyle is for primary headers.
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)

	// SubtitleStyle is for descriptions and "(none)" placeholders.
	SubtitleStyle = lipgloss.NewStyle().Foreground(ColorMuted)

	// SuccessStyle is for success messages.
	SuccessStyle = lipgloss.NewStyle().Foreground(ColorSuccess)

	// ErrorStyle is for error prefixes.
	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorError)

	// WarningStyle is for confirmations and warnings.
	WarningStyle = lipgloss.NewStyle().Foreground(ColorWarning)

	// NameStyle is for distribution names, images and config keys.
	NameStyle = lipgloss.NewStyle().Foreground(ColorHighlight)

	checkStyle = SuccessStyle.Bold(true)
)

// printStep writes a completed-step line such as "✓ Registered ubuntu-24.04".
func printStep(w io.Writer, msg string) {
	fmt.Fprintln(w, checkStyle.Render("✓")+" "+msg)
}
