package character

import "math"

// Position is one entry of a frame snapshot. Excluded entries (eliminated
// characters) never collide.
type Position struct {
	X, Y     float64
	Excluded bool
}

// CheckCollision reports whether (x, y) is closer than minSeparation to any
// position other than the one at index exclude. Pass -1 to check against all.
func CheckCollision(x, y float64, others []Position, exclude int, minSeparation float64) bool {
	for i, o := range others {
		if i == exclude || o.Excluded {
			continue
		}
		if math.Hypot(x-o.X, y-o.Y) < minSeparation {
			return true
		}
	}
	return false
}
