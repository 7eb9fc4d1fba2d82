package util

import (
	"fmt"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
)

// DueIn describes a due date relative to now, e.g. "3 days from now".
func DueIn(due, now time.Time) string {
	return humanize.RelTime(due, now, "ago", "from now")
}

// Count formats n with thousands separators followed by the singular or
// plural noun.
func Count(n int, singular, plural string) string {
	noun := plural
	if n == 1 {
		noun = singular
	}
	return fmt.Sprintf("%s %s", humanize.Comma(int64(n)), noun)
}

// Truncate shortens s to at most width display cells, ending in "…" when cut.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return ansi.Truncate(s, width, "…")
}
