package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Confirm displays a warning box and asks a yes/no question on out, reading
// the answer from in. Only "y" or "yes" (any case) confirms.
func Confirm(in io.Reader, out io.Writer, title string, warnings []string) bool {
	width := GetTerminalWidth()

	lines := []string{
		"",
		lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true).
			Render(fmt.Sprintf("   %s  WARNING  ─  %s", WarningMarker, title)),
		"",
	}
	bulletStyle := lipgloss.NewStyle().Foreground(TextColor)
	for _, warning := range warnings {
		lines = append(lines, bulletStyle.Render("   • "+warning))
	}
	lines = append(lines, "")

	box := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(WarningColor).
		Width(width-2).
		Padding(0, 2).
		Render(strings.Join(lines, "\n"))

	_, _ = fmt.Fprintln(out, box)
	_, _ = fmt.Fprint(out, lipgloss.NewStyle().Foreground(WarningColor).Bold(true).Render("Proceed? [y/N]: "))

	input, err := bufio.NewReader(in).ReadString('\n')
	_, _ = fmt.Fprintln(out)
	if err != nil && input == "" {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(input)) {
	case "y", "yes":
		return true
	}
	_, _ = fmt.Fprintln(out, lipgloss.NewStyle().Foreground(MutedColor).Render("  Operation cancelled."))
	return false
}
