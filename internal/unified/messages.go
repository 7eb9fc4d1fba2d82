package unified

import (
	"github.com/blackwell-systems/libraryctl/internal/mutation"
	tea "github.com/charmbracelet/bubbletea"
)

// NavigateMsg is emitted when a view wants to navigate to another view
type NavigateMsg struct {
	Target View   // The target view
	BookID string // Book the target view opens, if any
}

// QuitAppMsg is emitted when the entire application should quit
type QuitAppMsg struct{}

// notificationMsg carries a notification raised by a view.
type notificationMsg struct{ n mutation.Notification }

// deleteNoteMsg carries a notification from the background deleter.
type deleteNoteMsg struct{ n mutation.Notification }

func navigate(target View, bookID string) tea.Cmd {
	return func() tea.Msg { return NavigateMsg{Target: target, BookID: bookID} }
}

func quit() tea.Msg { return QuitAppMsg{} }

// signal is a coalescing change notification: sends never block and at
// most one wake-up is pending.
type signal struct {
	ch   chan struct{}
	done chan struct{}
}

func newSignal() signal {
	return signal{ch: make(chan struct{}, 1), done: make(chan struct{})}
}

func (s signal) notify() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

// stop releases every pending wait.
func (s signal) stop() { close(s.done) }

// wait blocks until the next notification and returns msg, or nil once the
// signal is stopped.
func (s signal) wait(msg tea.Msg) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-s.ch:
			return msg
		case <-s.done:
			return nil
		}
	}
}
