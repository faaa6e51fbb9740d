package render

import (
	"image/color"
	"math"
	"testing"
)

func TestEllipsePoints(t *testing.T) {
	points := EllipsePoints(10, 20, 6, 3, 16)
	if len(points) != 16 {
		t.Fatalf("Expected 16 points, got %d", len(points))
	}
	for i, p := range points {
		// Every point must sit on the ellipse: (dx/rx)^2 + (dy/ry)^2 == 1
		v := math.Pow((p.X-10)/6, 2) + math.Pow((p.Y-20)/3, 2)
		if math.Abs(v-1) > 1e-9 {
			t.Errorf("Point %d (%v) is off the ellipse: %f", i, p, v)
		}
	}

	if got := EllipsePoints(0, 0, 1, 1, 1); len(got) != 3 {
		t.Errorf("Expected segment count to be clamped to 3, got %d", len(got))
	}
}

func TestRoundedRectPointsStayInsideRect(t *testing.T) {
	points := RoundedRectPoints(5, 5, 40, 20, 6, 4)
	if len(points) != 20 {
		t.Fatalf("Expected 20 points, got %d", len(points))
	}
	for _, p := range points {
		if p.X < 5-1e-9 || p.X > 45+1e-9 || p.Y < 5-1e-9 || p.Y > 25+1e-9 {
			t.Errorf("Point %v escaped the rectangle", p)
		}
	}
}

func TestRoundedRectPointsWithoutRadius(t *testing.T) {
	points := RoundedRectPoints(0, 0, 10, 10, 0, 4)
	if len(points) != 4 {
		t.Fatalf("Expected a plain rectangle, got %d points", len(points))
	}
}

func TestFanIndices(t *testing.T) {
	got := FanIndices(5)
	want := []uint16{0, 1, 2, 0, 2, 3, 0, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("Expected %d indices, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Index %d: expected %d, got %d", i, want[i], got[i])
		}
	}
	if FanIndices(2) != nil {
		t.Error("Expected no indices for a degenerate polygon")
	}
}

func TestColorComponents(t *testing.T) {
	r, g, b, a := ColorComponents(color.NRGBA{255, 0, 51, 255})
	if r != 1 || g != 0 || math.Abs(float64(b)-0.2) > 1e-6 || a != 1 {
		t.Errorf("Unexpected components: %f %f %f %f", r, g, b, a)
	}
}
