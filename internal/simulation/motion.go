package simulation

import (
	"time"

	"chosenoffset.com/cipherwolves/internal/character"
)

// Space answers the static placement questions motion needs.
// *spatial.Map satisfies it.
type Space interface {
	IsWalkable(x, y float64) bool
	IsWithinCanvasMargin(x, y, margin float64) bool
}

// Motion is the wander/pause state machine shared by every character.
// It holds no per-character data; everything it mutates lives in State.
type Motion struct {
	cfg   MotionConfig
	space Space
	rng   Rand
}

// NewMotion creates a motion controller over the given space.
func NewMotion(cfg MotionConfig, space Space, rng Rand) *Motion {
	return &Motion{cfg: cfg, space: space, rng: rng}
}

// Config returns the motion constants in use.
func (m *Motion) Config() MotionConfig {
	return m.cfg
}

// Begin resets s to the initial Paused phase.
func (m *Motion) Begin(s *State, now time.Time) {
	m.pause(s, now, m.cfg.PauseDuration)
}

// Valid reports whether a character may stand at (x, y): inside the canvas
// margin, on a walkable zone and clear of every other active character.
func (m *Motion) Valid(x, y float64, others []character.Position, self int) bool {
	if !m.space.IsWithinCanvasMargin(x, y, m.cfg.Margin) {
		return false
	}
	if !m.space.IsWalkable(x, y) {
		return false
	}
	return !character.CheckCollision(x, y, others, self, m.cfg.MinSeparation())
}

// Tick advances one character by elapsed. others is the frame snapshot,
// including the character itself at index self. It reports whether s changed.
func (m *Motion) Tick(self int, s *State, others []character.Position, now time.Time, elapsed time.Duration) bool {
	if s.Eliminated {
		return false
	}

	if !now.Before(s.PhaseEnds) {
		if s.Phase == Paused {
			m.move(s, now, randomCardinal(m.rng))
			return true
		}
		m.pause(s, now, m.cfg.PauseDuration)
		return true
	}

	if s.Phase != Moving || s.Velocity == nil {
		return false
	}

	step := m.step(elapsed)
	if step == 0 {
		return false
	}

	x := s.X + s.Velocity.X*step
	y := s.Y + s.Velocity.Y*step
	if m.Valid(x, y, others, self) {
		s.X, s.Y = x, y
		return true
	}

	for attempt := 0; attempt < m.cfg.EscapeAttempts; attempt++ {
		dir := randomCardinal(m.rng)
		x = s.X + dir.X*step
		y = s.Y + dir.Y*step
		if m.Valid(x, y, others, self) {
			s.X, s.Y = x, y
			s.Velocity = &Vector{X: dir.X, Y: dir.Y}
			s.Facing = FacingFor(dir.X, dir.Y)
			return true
		}
	}

	// Boxed in: rest briefly instead of retrying every frame
	m.pause(s, now, m.cfg.RecoveryDuration)
	return true
}

// step is the distance covered in elapsed at the configured speed.
func (m *Motion) step(elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return m.cfg.Speed * float64(elapsed) / float64(m.cfg.NominalFrame())
}

func (m *Motion) move(s *State, now time.Time, dir Vector) {
	s.Phase = Moving
	s.Velocity = &Vector{X: dir.X, Y: dir.Y}
	s.Facing = FacingFor(dir.X, dir.Y)
	s.PhaseEnds = now.Add(m.cfg.MoveDuration.Pick(m.rng))
}

func (m *Motion) pause(s *State, now time.Time, r Range) {
	s.Phase = Paused
	s.Velocity = nil
	s.PhaseEnds = now.Add(r.Pick(m.rng))
}
