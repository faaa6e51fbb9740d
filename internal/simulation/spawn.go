package simulation

import (
	"errors"
	"fmt"
	"time"

	"chosenoffset.com/cipherwolves/internal/character"
	"chosenoffset.com/cipherwolves/internal/world/spatial"
)

// ErrNoRoom is returned when a character cannot be placed anywhere valid.
var ErrNoRoom = errors.New("no valid position left for character")

const randomPlacementTries = 200

// Spawn builds the initial states for count characters. Character i starts
// near spawn point i (wrapping), jittered; if that is taken it tries the exact
// point and then random points inside the zones.
func (m *Motion) Spawn(count int, points []spatial.SpawnPoint, zones []spatial.Zone, now time.Time) ([]State, error) {
	if count < 0 {
		return nil, fmt.Errorf("invalid character count %d", count)
	}
	if count > 0 && len(points) == 0 && len(zones) == 0 {
		return nil, fmt.Errorf("failed to spawn %d characters: %w", count, ErrNoRoom)
	}

	states := make([]State, 0, count)
	placed := make([]character.Position, 0, count)
	for i := 0; i < count; i++ {
		x, y, ok := m.place(i, points, zones, placed)
		if !ok {
			return nil, fmt.Errorf("failed to spawn character %d: %w", i, ErrNoRoom)
		}

		s := State{X: x, Y: y, Facing: InitialFacing(i)}
		m.Begin(&s, now)
		states = append(states, s)
		placed = append(placed, character.Position{X: x, Y: y})
	}
	return states, nil
}

func (m *Motion) place(i int, points []spatial.SpawnPoint, zones []spatial.Zone, placed []character.Position) (float64, float64, bool) {
	if len(points) > 0 {
		p := points[i%len(points)]
		j := m.cfg.SpawnJitter
		x := p.X + (m.rng.Float64()*2-1)*j
		y := p.Y + (m.rng.Float64()*2-1)*j
		if m.Valid(x, y, placed, -1) {
			return x, y, true
		}
		if m.Valid(p.X, p.Y, placed, -1) {
			return p.X, p.Y, true
		}
	}

	if len(zones) == 0 {
		return 0, 0, false
	}
	for try := 0; try < randomPlacementTries; try++ {
		z := zones[m.rng.Intn(len(zones))]
		x := z.X + m.rng.Float64()*z.Width
		y := z.Y + m.rng.Float64()*z.Height
		if m.Valid(x, y, placed, -1) {
			return x, y, true
		}
	}
	return 0, 0, false
}
