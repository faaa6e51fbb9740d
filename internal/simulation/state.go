package simulation

import (
	"time"
)

// Phase is the motion phase of a character
type Phase int

const (
	Paused Phase = iota
	Moving
)

func (p Phase) String() string {
	if p == Moving {
		return "moving"
	}
	return "paused"
}

// Speech is a transient speaking marker. Text is what the bubble shows.
type Speech struct {
	Speaker string
	Text    string
	Since   time.Time
}

// State is the mutable simulation state of one character. Velocity is set
// only while Moving. Values are replaced, never mutated through a shared
// pointer, so a copied State is a safe snapshot.
type State struct {
	X, Y       float64
	Facing     Direction
	Phase      Phase
	PhaseEnds  time.Time
	Velocity   *Vector
	Speech     *Speech
	Eliminated bool
}

// Moving reports whether the character is translating this phase.
func (s State) Moving() bool {
	return s.Phase == Moving
}
