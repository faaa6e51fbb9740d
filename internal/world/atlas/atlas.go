// Package atlas describes character sprite sheets: fixed-size frames laid out
// in one row per facing direction.
package atlas

import (
	"encoding/json"
	"fmt"
	"image"
	"os"
)

// Row names used in sheet configs.
const (
	RowUp    = "up"
	RowDown  = "down"
	RowLeft  = "left"
	RowRight = "right"
)

// SheetConfig defines the JSON configuration for a character sprite sheet
type SheetConfig struct {
	Name      string `json:"name"`
	ImagePath string `json:"image_path"`

	// Frame size in pixels
	FrameWidth  int `json:"frame_width"`
	FrameHeight int `json:"frame_height"`

	// Walk cycle length and how many animation ticks each frame is held
	FramesPerDirection int `json:"frames_per_direction"`
	FrameHold          int `json:"frame_hold"`

	// Direction name -> sheet row
	Rows map[string]int `json:"rows"`
}

// DefaultSheet is the layout every bundled character sheet uses: 64x64 frames,
// nine walk frames, rows ordered up, left, down, right.
func DefaultSheet() SheetConfig {
	return SheetConfig{
		Name:               "character",
		FrameWidth:         64,
		FrameHeight:        64,
		FramesPerDirection: 9,
		FrameHold:          8,
		Rows: map[string]int{
			RowUp:    0,
			RowLeft:  1,
			RowDown:  2,
			RowRight: 3,
		},
	}
}

// LoadSheetConfig loads a sheet description from a JSON file, starting from
// DefaultSheet so partial files only override what they name.
func LoadSheetConfig(path string) (SheetConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SheetConfig{}, fmt.Errorf("failed to read sheet config %s: %w", path, err)
	}

	cfg := DefaultSheet()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return SheetConfig{}, fmt.Errorf("failed to parse sheet config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return SheetConfig{}, fmt.Errorf("invalid sheet config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks frame dimensions and the direction rows.
func (c SheetConfig) Validate() error {
	if c.FrameWidth <= 0 || c.FrameHeight <= 0 {
		return fmt.Errorf("invalid frame dimensions: %dx%d", c.FrameWidth, c.FrameHeight)
	}
	if c.FramesPerDirection <= 0 {
		return fmt.Errorf("frames_per_direction must be positive, got %d", c.FramesPerDirection)
	}
	if c.FrameHold <= 0 {
		return fmt.Errorf("frame_hold must be positive, got %d", c.FrameHold)
	}
	for _, dir := range []string{RowUp, RowDown, RowLeft, RowRight} {
		row, ok := c.Rows[dir]
		if !ok {
			return fmt.Errorf("missing row for direction %q", dir)
		}
		if row < 0 {
			return fmt.Errorf("negative row %d for direction %q", row, dir)
		}
	}
	return nil
}

// Row returns the sheet row for a direction name, or 0 when unknown.
func (c SheetConfig) Row(direction string) int {
	return c.Rows[direction]
}

// Column picks the walk-cycle column for an animation counter. A standing
// character always shows column 0.
func (c SheetConfig) Column(animFrame int, moving bool) int {
	if !moving || c.FrameHold <= 0 || c.FramesPerDirection <= 0 {
		return 0
	}
	if animFrame < 0 {
		animFrame = -animFrame
	}
	return (animFrame / c.FrameHold) % c.FramesPerDirection
}

// FrameRect returns the source rectangle of the frame at (row, col).
func (c SheetConfig) FrameRect(row, col int) image.Rectangle {
	x := col * c.FrameWidth
	y := row * c.FrameHeight
	return image.Rect(x, y, x+c.FrameWidth, y+c.FrameHeight)
}

// SheetSize returns the pixel size of a full sheet with this layout.
func (c SheetConfig) SheetSize() (width, height int) {
	rows := 0
	for _, r := range c.Rows {
		if r+1 > rows {
			rows = r + 1
		}
	}
	return c.FramesPerDirection * c.FrameWidth, rows * c.FrameHeight
}
