// Package spatial describes where characters may stand: the logical canvas
// and the rectangular walkable zones inside it.
package spatial

import (
	"errors"
	"fmt"
)

// ErrNoWalkableZones means every position check would fail. It is a setup
// error, never a per-frame condition.
var ErrNoWalkableZones = errors.New("no walkable zones configured")

// Zone is an axis-aligned walkable rectangle in logical canvas coordinates.
type Zone struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains reports whether (x, y) lies in the closed bounds of the zone.
func (z Zone) Contains(x, y float64) bool {
	return x >= z.X && x <= z.X+z.Width && y >= z.Y && y <= z.Y+z.Height
}

// Center returns the middle of the zone.
func (z Zone) Center() (float64, float64) {
	return z.X + z.Width/2, z.Y + z.Height/2
}

// Map is the static walkable geometry of the village. It is immutable once
// built and safe to query any number of times per frame.
type Map struct {
	width  float64
	height float64
	zones  []Zone
}

// New validates the geometry and returns a Map.
func New(width, height float64, zones []Zone) (*Map, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid canvas dimensions: %gx%g", width, height)
	}
	if len(zones) == 0 {
		return nil, ErrNoWalkableZones
	}
	for i, z := range zones {
		if z.Width <= 0 || z.Height <= 0 {
			return nil, fmt.Errorf("zone %d has invalid size %gx%g", i, z.Width, z.Height)
		}
	}
	return &Map{
		width:  width,
		height: height,
		zones:  append([]Zone(nil), zones...),
	}, nil
}

// Width returns the logical canvas width.
func (m *Map) Width() float64 { return m.width }

// Height returns the logical canvas height.
func (m *Map) Height() float64 { return m.height }

// Zones returns a copy of the walkable zones.
func (m *Map) Zones() []Zone {
	return append([]Zone(nil), m.zones...)
}

// IsWalkable reports whether (x, y) falls inside at least one zone.
func (m *Map) IsWalkable(x, y float64) bool {
	for _, z := range m.zones {
		if z.Contains(x, y) {
			return true
		}
	}
	return false
}

// IsWithinCanvasMargin reports whether (x, y) lies in
// [margin, width-margin] x [margin, height-margin].
func (m *Map) IsWithinCanvasMargin(x, y, margin float64) bool {
	return x >= margin && x <= m.width-margin && y >= margin && y <= m.height-margin
}
