package simulation

import (
	"math"
	"time"

	"chosenoffset.com/cipherwolves/internal/character"
)

// Clock supplies frame timestamps.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Loop owns the character states and advances them once per display frame.
// All methods must be called from the frame goroutine.
type Loop struct {
	motion *Motion
	anim   AnimationConfig

	states []State

	started bool
	stopped bool
	last    time.Time

	animFrame int
	animAcc   time.Duration
	frames    uint64
}

// NewLoop takes ownership of the initial states.
func NewLoop(motion *Motion, anim AnimationConfig, states []State) *Loop {
	return &Loop{
		motion: motion,
		anim:   anim,
		states: states,
	}
}

// Step runs one frame at now and reports whether any state changed.
// After Stop it does nothing.
func (l *Loop) Step(now time.Time) bool {
	if l.stopped {
		return false
	}

	var elapsed time.Duration
	if l.started {
		elapsed = now.Sub(l.last)
		if elapsed < 0 {
			elapsed = 0
		}
	}
	l.started = true
	l.last = now
	l.frames++

	l.advanceAnimation(elapsed)

	prev := l.states
	snapshot := positionsOf(prev)
	next := make([]State, len(prev))
	copy(next, prev)

	changed := false
	for i := range next {
		if l.motion.Tick(i, &next[i], snapshot, now, elapsed) {
			changed = true
		}
	}

	l.holdConflicts(prev, next)

	if changed {
		l.states = next
	}
	return changed
}

// holdConflicts keeps both members of any pair of movers that each cleared the
// snapshot but now stand too close to each other at their snapshot position.
func (l *Loop) holdConflicts(prev, next []State) {
	minSep := l.motion.Config().MinSeparation()
	held := make([]bool, len(next))
	for i := range next {
		if next[i].Eliminated || !moved(prev[i], next[i]) {
			continue
		}
		for j := i + 1; j < len(next); j++ {
			if next[j].Eliminated || !moved(prev[j], next[j]) {
				continue
			}
			if math.Hypot(next[i].X-next[j].X, next[i].Y-next[j].Y) < minSep {
				held[i] = true
				held[j] = true
			}
		}
	}
	for i, h := range held {
		if h {
			next[i].X, next[i].Y = prev[i].X, prev[i].Y
		}
	}
}

func moved(a, b State) bool {
	return a.X != b.X || a.Y != b.Y
}

func positionsOf(states []State) []character.Position {
	out := make([]character.Position, len(states))
	for i, s := range states {
		out[i] = character.Position{X: s.X, Y: s.Y, Excluded: s.Eliminated}
	}
	return out
}

func (l *Loop) advanceAnimation(elapsed time.Duration) {
	period := l.anim.FrameDuration()
	wrap := l.anim.Wrap()
	if period <= 0 || wrap <= 0 {
		return
	}
	l.animAcc += elapsed
	if l.animAcc < period {
		return
	}
	n := l.animAcc / period
	l.animAcc -= n * period
	l.animFrame = int((int64(l.animFrame) + int64(n)) % int64(wrap))
}

// Stop ends the loop. Safe to call more than once.
func (l *Loop) Stop() {
	l.stopped = true
}

// Stopped reports whether Stop was called.
func (l *Loop) Stopped() bool {
	return l.stopped
}

// Frames returns how many steps ran.
func (l *Loop) Frames() uint64 {
	return l.frames
}

// AnimationFrame returns the walk-cycle counter.
func (l *Loop) AnimationFrame() int {
	return l.animFrame
}

// Len returns the number of characters.
func (l *Loop) Len() int {
	return len(l.states)
}

// State returns a copy of one character's state.
func (l *Loop) State(i int) State {
	return l.states[i]
}

// States returns a copy of every state.
func (l *Loop) States() []State {
	out := make([]State, len(l.states))
	copy(out, l.states)
	return out
}

// SetSpeech replaces the speech marker of character i; nil clears it.
func (l *Loop) SetSpeech(i int, sp *Speech) bool {
	if i < 0 || i >= len(l.states) {
		return false
	}
	l.states[i].Speech = sp
	return true
}

// Speech returns the active speech marker of character i, if any.
func (l *Loop) Speech(i int) *Speech {
	if i < 0 || i >= len(l.states) {
		return nil
	}
	return l.states[i].Speech
}

// SetEliminated freezes or releases character i.
func (l *Loop) SetEliminated(i int, eliminated bool) bool {
	if i < 0 || i >= len(l.states) {
		return false
	}
	l.states[i].Eliminated = eliminated
	return true
}
