package spatial

import (
	"encoding/json"
	"fmt"
	"os"
)

// SpawnPoint is where a character is placed when the view starts.
type SpawnPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Layout is the JSON description of a village: canvas size, background art,
// walkable zones and spawn points.
type Layout struct {
	Name        string       `json:"name"`
	Width       float64      `json:"width"`
	Height      float64      `json:"height"`
	Background  string       `json:"background"` // Image path, optional
	Zones       []Zone       `json:"zones"`
	SpawnPoints []SpawnPoint `json:"spawn_points"`
}

// DefaultLayout returns the medieval town the game ships with.
func DefaultLayout() *Layout {
	return &Layout{
		Name:       "town",
		Width:      1200,
		Height:     800,
		Background: "assets/town.png",
		Zones: []Zone{
			{X: 50, Y: 350, Width: 200, Height: 100},  // Bottom left
			{X: 300, Y: 200, Width: 150, Height: 200}, // Center
			{X: 500, Y: 100, Width: 200, Height: 150}, // Top right
			{X: 200, Y: 500, Width: 300, Height: 80},  // Bottom center
			{X: 750, Y: 300, Width: 180, Height: 120}, // Right
			{X: 100, Y: 150, Width: 120, Height: 100}, // Top left
			{X: 600, Y: 450, Width: 150, Height: 100}, // Bottom right
			{X: 400, Y: 50, Width: 100, Height: 80},   // Top center
		},
		SpawnPoints: []SpawnPoint{
			{X: 150, Y: 400},
			{X: 375, Y: 300},
			{X: 600, Y: 175},
			{X: 350, Y: 540},
			{X: 840, Y: 360},
			{X: 160, Y: 200},
			{X: 675, Y: 500},
			{X: 450, Y: 90},
		},
	}
}

// LoadLayout loads a layout from a JSON file
func LoadLayout(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read layout file %s: %w", path, err)
	}

	var layout Layout
	if err := json.Unmarshal(data, &layout); err != nil {
		return nil, fmt.Errorf("failed to parse layout file %s: %w", path, err)
	}

	if err := validateLayout(&layout); err != nil {
		return nil, fmt.Errorf("invalid layout in %s: %w", path, err)
	}

	return &layout, nil
}

// validateLayout checks if the layout is usable
func validateLayout(l *Layout) error {
	if l.Width <= 0 || l.Height <= 0 {
		return fmt.Errorf("invalid canvas dimensions: %gx%g", l.Width, l.Height)
	}

	if len(l.Zones) == 0 {
		return ErrNoWalkableZones
	}

	if len(l.SpawnPoints) == 0 {
		return fmt.Errorf("at least one spawn point is required")
	}

	for i, z := range l.Zones {
		if z.Width <= 0 || z.Height <= 0 {
			return fmt.Errorf("zone %d has invalid size %gx%g", i, z.Width, z.Height)
		}
		if z.X < 0 || z.Y < 0 || z.X+z.Width > l.Width || z.Y+z.Height > l.Height {
			return fmt.Errorf("zone %d (%g,%g %gx%g) extends past the %gx%g canvas", i, z.X, z.Y, z.Width, z.Height, l.Width, l.Height)
		}
	}

	for i, sp := range l.SpawnPoints {
		if sp.X < 0 || sp.Y < 0 || sp.X > l.Width || sp.Y > l.Height {
			return fmt.Errorf("spawn point %d (%g,%g) is outside the %gx%g canvas", i, sp.X, sp.Y, l.Width, l.Height)
		}
	}

	return nil
}

// Validate checks a layout built in code the same way LoadLayout checks a
// file.
func (l *Layout) Validate() error {
	return validateLayout(l)
}

// MatchCanvas fails unless the layout was drawn for a width x height canvas.
func (l *Layout) MatchCanvas(width, height float64) error {
	if l.Width != width || l.Height != height {
		return fmt.Errorf("layout %q is %gx%g but the canvas is %gx%g", l.Name, l.Width, l.Height, width, height)
	}
	return nil
}

// Map builds the spatial map for this layout.
func (l *Layout) Map() (*Map, error) {
	return New(l.Width, l.Height, l.Zones)
}
