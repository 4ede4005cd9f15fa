package tabstatus

import (
	"strings"
	"sync"
)

// Marker is appended to the title of a context that received a command.
const Marker = "(inactive)"

// Title tracks a page title and marks it inactive when a command arrives from
// another context. It satisfies channel.Observer.
type Title struct {
	mu       sync.Mutex
	title    string
	onChange func(string)
}

// New returns a Title starting at title. onChange, when set, receives every
// rewritten title.
func New(title string, onChange func(string)) *Title {
	return &Title{title: title, onChange: onChange}
}

// String returns the current title.
func (t *Title) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.title
}

// Inactive reports whether the title carries the marker.
func (t *Title) Inactive() bool {
	return strings.Contains(t.String(), Marker)
}

// Fired clears the marker: the firing context is the active one.
func (t *Title) Fired(string) {
	t.set(strip(t.String()))
}

// Received marks the title inactive.
func (t *Title) Received(string) {
	t.set(strip(t.String()) + " " + Marker)
}

func (t *Title) set(title string) {
	t.mu.Lock()
	changed := t.title != title
	t.title = title
	fn := t.onChange
	t.mu.Unlock()

	if changed && fn != nil {
		fn(title)
	}
}

// strip removes every marker and the whitespace left around it.
func strip(title string) string {
	return strings.TrimSpace(strings.ReplaceAll(title, Marker, ""))
}
