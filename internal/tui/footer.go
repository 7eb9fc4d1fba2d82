package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// highlightFor is how long a pressed shortcut stays lit in the footer.
const highlightFor = 500 * time.Millisecond

// ClearHighlightMsg turns the footer highlight off.
type ClearHighlightMsg struct{}

// Highlight schedules ClearHighlightMsg. Set the view's active key before
// returning it:
//
//	m.active = m.keys.Refresh.Help().Key
//	return m, tui.Highlight()
func Highlight() tea.Cmd {
	return tea.Tick(highlightFor, func(time.Time) tea.Msg {
		return ClearHighlightMsg{}
	})
}

var footerDim = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

// RenderFooter renders one label per binding. The binding whose help key
// equals active is bracketed and lit.
func RenderFooter(active string, bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		label := h.Key + " " + h.Desc
		if active != "" && h.Key == active {
			parts = append(parts, StyleHighlight.Render("[ "+label+" ]"))
			continue
		}
		parts = append(parts, footerDim.Render(label))
	}
	return lipgloss.NewStyle().Padding(0, 1).Render(strings.Join(parts, footerDim.Render(" • ")))
}

// RenderWithFooter boxes body and appends the footer.
func RenderWithFooter(body, active string, bindings ...key.Binding) string {
	return StyleBorder.Render(body + "\n" + RenderFooter(active, bindings...))
}
