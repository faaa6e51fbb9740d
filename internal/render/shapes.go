package render

import (
	"image/color"
	"math"
)

// EllipsePoints approximates an axis-aligned ellipse as a convex polygon.
func EllipsePoints(cx, cy, rx, ry float64, segments int) []Point {
	if segments < 3 {
		segments = 3
	}
	points := make([]Point, segments)
	for i := range points {
		a := 2 * math.Pi * float64(i) / float64(segments)
		points[i] = Point{X: cx + rx*math.Cos(a), Y: cy + ry*math.Sin(a)}
	}
	return points
}

// RoundedRectPoints approximates a rectangle with rounded corners as a convex
// polygon, walking clockwise from the top-left corner arc.
func RoundedRectPoints(x, y, width, height, radius float64, cornerSegments int) []Point {
	radius = math.Min(radius, math.Min(width, height)/2)
	if radius <= 0 || cornerSegments < 1 {
		return []Point{{x, y}, {x + width, y}, {x + width, y + height}, {x, y + height}}
	}

	// top-left, top-right, bottom-right, bottom-left
	corners := []struct {
		cx, cy, start float64
	}{
		{x + radius, y + radius, math.Pi},
		{x + width - radius, y + radius, 1.5 * math.Pi},
		{x + width - radius, y + height - radius, 0},
		{x + radius, y + height - radius, 0.5 * math.Pi},
	}

	points := make([]Point, 0, 4*(cornerSegments+1))
	for _, c := range corners {
		for i := 0; i <= cornerSegments; i++ {
			a := c.start + (math.Pi/2)*float64(i)/float64(cornerSegments)
			points = append(points, Point{X: c.cx + radius*math.Cos(a), Y: c.cy + radius*math.Sin(a)})
		}
	}
	return points
}

// FanIndices returns triangle indices that fill a convex polygon with n
// vertices as a fan around vertex 0.
func FanIndices(n int) []uint16 {
	if n < 3 {
		return nil
	}
	indices := make([]uint16, 0, (n-2)*3)
	for i := 1; i < n-1; i++ {
		indices = append(indices, 0, uint16(i), uint16(i+1))
	}
	return indices
}

// ColorComponents returns straight-alpha components of clr in [0, 1].
func ColorComponents(clr color.Color) (r, g, b, a float32) {
	c := color.NRGBAModel.Convert(clr).(color.NRGBA)
	return float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255, float32(c.A) / 255
}
