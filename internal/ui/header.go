package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Param is one key/value line of a header. Headers keep params in the order
// given.
type Param struct {
	Key   string
	Value string
}

// Header represents a command header with title, command, and parameters.
// The server prints one when it starts so the operator sees what it answers with.
type Header struct {
	Title   string  // e.g., "LOOKAROUND SERVER"
	Command string  // e.g., "lookaround server"
	Params  []Param // e.g., {"Nickname", "desk"}, {"MAC", "02:00:5e:10:20:30"}
	Width   int     // Terminal width for responsive rendering
}

// NewHeader creates a new header with the given values
func NewHeader(title, command string, params ...Param) *Header {
	return &Header{
		Title:   title,
		Command: command,
		Params:  params,
		Width:   GetTerminalWidth(),
	}
}

// SetWidth sets the terminal width for responsive rendering
func (h *Header) SetWidth(width int) *Header {
	h.Width = width
	return h
}

// Render returns the styled header as a string
func (h *Header) Render() string {
	width := h.Width
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	titleLine := HeaderTitleStyle.Render(strings.ToUpper(h.Title))
	commandLine := HeaderCommandStyle.Render(h.Command)
	topSection := lipgloss.JoinVertical(lipgloss.Left, titleLine, commandLine)

	dividerWidth := width - 6 // Account for border and padding
	if dividerWidth < 10 {
		dividerWidth = 10
	}
	divider := RenderHorizontalDivider(dividerWidth, "─")

	var paramLines []string
	for _, p := range h.Params {
		keyStyled := HeaderParamKeyStyle.Render(p.Key + ":")
		valueStyled := HeaderParamValueStyle.Render(p.Value)
		paramLines = append(paramLines, keyStyled+" "+valueStyled)
	}

	content := topSection
	if len(paramLines) > 0 {
		content = lipgloss.JoinVertical(lipgloss.Left, topSection, divider, strings.Join(paramLines, "\n"))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Width(width - 2). // Account for border characters
		Render(content)
}

// String implements fmt.Stringer
func (h *Header) String() string {
	return h.Render()
}
