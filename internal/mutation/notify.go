package mutation

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
)

// Kind classifies a notification.
type Kind int

const (
	Success Kind = iota
	Failure
)

// Notification titles.
const (
	TitleDeleted      = "Book deleted"
	TitleDeleteFailed = "Failed to delete book"
)

// Notification is a transient user-facing message about a mutation.
type Notification struct {
	Kind    Kind
	Title   string
	BookID  string
	Book    string // book title
	Message string // extracted error message, failures only
	// Detail overrides the generated description.
	Detail string
}

// Description is the one-line body shown under the title.
func (n Notification) Description() string {
	if n.Detail != "" {
		return n.Detail
	}
	if n.Kind == Failure {
		return fmt.Sprintf("%q could not be deleted: %s", n.Book, n.Message)
	}
	return fmt.Sprintf("%q has been removed from the library.", n.Book)
}

// Notifier receives mutation outcomes.
type Notifier interface {
	Notify(Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

// Notify calls f(n).
func (f NotifierFunc) Notify(n Notification) { f(n) }

// Console prints notifications with colored markers.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsole creates a notifier writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{out: w}
}

// Notify writes one line per notification.
func (c *Console) Notify(n Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n.Kind == Failure {
		fmt.Fprintf(c.out, "%s %s: %s\n", color.RedString("✗"), color.New(color.Bold).Sprint(n.Title), n.Description())
		return
	}
	fmt.Fprintf(c.out, "%s %s: %s\n", color.GreenString("✓"), color.New(color.Bold).Sprint(n.Title), n.Description())
}

// Recorder keeps every notification; useful for tests and batch callers.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

// Notify records n.
func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

// All returns the recorded notifications in order.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.items...)
}
