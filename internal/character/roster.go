package character

import (
	"chosenoffset.com/cipherwolves/internal/core/timer"
	"chosenoffset.com/cipherwolves/internal/render"
)

// Roster is the fixed set of characters of one session, keyed by index.
// Characters are never added or removed after creation.
type Roster struct {
	chars []*Character
}

// NewRoster creates one character per name. spriteFor maps a name to its
// sprite sheet path and may be nil.
func NewRoster(names []string, spriteFor func(name string) string, opts Options, loader render.ResourceLoader, timers *timer.Queue) *Roster {
	chars := make([]*Character, len(names))
	for i, name := range names {
		path := ""
		if spriteFor != nil {
			path = spriteFor(name)
		}
		chars[i] = New(i, name, path, opts, loader, timers)
	}
	return &Roster{chars: chars}
}

// Len returns the number of characters.
func (r *Roster) Len() int { return len(r.chars) }

// At returns the character at index i, or nil when out of range.
func (r *Roster) At(i int) *Character {
	if i < 0 || i >= len(r.chars) {
		return nil
	}
	return r.chars[i]
}

// Names returns the names in index order.
func (r *Roster) Names() []string {
	names := make([]string, len(r.chars))
	for i, c := range r.chars {
		names[i] = c.name
	}
	return names
}

// Poll applies finished sprite loads and reports whether any landed.
func (r *Roster) Poll() bool {
	changed := false
	for _, c := range r.chars {
		if c.Poll() {
			changed = true
		}
	}
	return changed
}

// Dispose disposes every character. Safe to call more than once.
func (r *Roster) Dispose() {
	for _, c := range r.chars {
		c.Dispose()
	}
}
