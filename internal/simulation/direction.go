package simulation

import (
	"math"

	"chosenoffset.com/cipherwolves/internal/world/atlas"
)

// Direction is a cardinal facing
type Direction int

const (
	Down Direction = iota
	Left
	Right
	Up
)

// spawnFacings is the order initial facings are handed out by index
var spawnFacings = [4]Direction{Down, Left, Right, Up}

// cardinals is the set a new heading is drawn from
var cardinals = [4]Vector{{X: 0, Y: -1}, {X: 0, Y: 1}, {X: -1, Y: 0}, {X: 1, Y: 0}}

func (d Direction) String() string {
	switch d {
	case Up:
		return atlas.RowUp
	case Left:
		return atlas.RowLeft
	case Right:
		return atlas.RowRight
	default:
		return atlas.RowDown
	}
}

// Vector is a heading in logical space
type Vector struct {
	X, Y float64
}

// FacingFor returns the facing for a heading: the horizontal axis wins only
// when strictly dominant.
func FacingFor(dx, dy float64) Direction {
	if math.Abs(dx) > math.Abs(dy) {
		if dx < 0 {
			return Left
		}
		return Right
	}
	if dy < 0 {
		return Up
	}
	return Down
}

// InitialFacing returns the facing a character starts with.
func InitialFacing(index int) Direction {
	if index < 0 {
		index = -index
	}
	return spawnFacings[index%len(spawnFacings)]
}

func randomCardinal(rng Rand) Vector {
	return cardinals[rng.Intn(len(cardinals))]
}
