package tui

import (
	"time"

	"github.com/blackwell-systems/libraryctl/internal/mutation"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ToastTTL is how long a toast stays on screen.
const ToastTTL = 4 * time.Second

// ToastMsg carries a notification into the program loop.
type ToastMsg struct {
	Notification mutation.Notification
}

// expireToastMsg removes the toast with the given sequence number.
type expireToastMsg struct{ seq int }

// Toasts is a stack of transient notifications.
type Toasts struct {
	items []toast
	seq   int
}

type toast struct {
	seq int
	n   mutation.Notification
}

// Push adds a notification and schedules its removal.
func (t Toasts) Push(n mutation.Notification) (Toasts, tea.Cmd) {
	t.seq++
	seq := t.seq
	t.items = append(t.items, toast{seq: seq, n: n})
	return t, tea.Tick(ToastTTL, func(time.Time) tea.Msg { return expireToastMsg{seq: seq} })
}

// Update handles expiry messages.
func (t Toasts) Update(msg tea.Msg) (Toasts, tea.Cmd) {
	switch msg := msg.(type) {
	case ToastMsg:
		return t.Push(msg.Notification)
	case expireToastMsg:
		out := t.items[:0:0]
		for _, it := range t.items {
			if it.seq != msg.seq {
				out = append(out, it)
			}
		}
		t.items = out
	}
	return t, nil
}

// Len returns the number of visible toasts.
func (t Toasts) Len() int { return len(t.items) }

// View renders the visible toasts, newest last.
func (t Toasts) View() string {
	if len(t.items) == 0 {
		return ""
	}
	views := make([]string, len(t.items))
	for i, it := range t.items {
		color := ColorGreen
		if it.n.Kind == mutation.Failure {
			color = ColorRed
		}
		title := lipgloss.NewStyle().Bold(true).Foreground(color).Render(it.n.Title)
		views[i] = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(color).
			Padding(0, 1).
			Render(title + "\n" + StyleNormal.Render(it.n.Description()))
	}
	return lipgloss.JoinVertical(lipgloss.Right, views...)
}
