// Package placeholders draws stand-in art: one walk-cycle sprite sheet per
// character and a town background matching the walkable layout.
package placeholders

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"chosenoffset.com/cipherwolves/internal/world/atlas"
	"chosenoffset.com/cipherwolves/internal/world/spatial"
)

// ColorPalette defines the colors of the placeholder town
var ColorPalette = struct {
	Grass      color.RGBA
	GrassDark  color.RGBA
	Path       color.RGBA
	PathEdge   color.RGBA
	Skin       color.RGBA
	Outline    color.RGBA
	Default    color.RGBA
	Background color.RGBA
}{
	Grass:      color.RGBA{92, 128, 64, 255},
	GrassDark:  color.RGBA{74, 108, 50, 255},
	Path:       color.RGBA{196, 168, 112, 255},
	PathEdge:   color.RGBA{150, 124, 80, 255},
	Skin:       color.RGBA{240, 200, 160, 255},
	Outline:    color.RGBA{30, 24, 20, 255},
	Default:    color.RGBA{120, 120, 130, 255},
	Background: color.RGBA{0, 0, 0, 0},
}

// CharacterSheet draws a walk cycle for one character: a row per facing
// direction laid out as sheet describes, FramesPerDirection columns wide.
func CharacterSheet(sheet atlas.SheetConfig, body color.RGBA) *image.RGBA {
	w, h := sheet.SheetSize()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{ColorPalette.Background}, image.Point{}, draw.Src)

	for name, row := range sheet.Rows {
		for col := 0; col < sheet.FramesPerDirection; col++ {
			frame := sheet.FrameRect(row, col)
			drawFigure(img, frame, name, col, sheet.FramesPerDirection, body)
		}
	}
	return img
}

// drawFigure draws one frame: legs swinging with the column, a body in the
// character color and a head with eyes toward the facing.
func drawFigure(img *image.RGBA, frame image.Rectangle, facing string, col, frames int, body color.RGBA) {
	fw, fh := frame.Dx(), frame.Dy()
	cx := frame.Min.X + fw/2
	top := frame.Min.Y

	// Column 0 is the standing frame
	swing := 0
	if col > 0 && frames > 1 {
		swing = int(math.Round(math.Sin(2*math.Pi*float64(col-1)/float64(frames-1)) * float64(fw) / 10))
	}

	legTop := top + fh*62/100
	legBottom := top + fh*90/100
	legW := fw / 10
	fillRect(img, cx-fw/8-legW/2+swing, legTop, legW, legBottom-legTop, Darken(body, 0.5))
	fillRect(img, cx+fw/8-legW/2-swing, legTop, legW, legBottom-legTop, Darken(body, 0.5))

	bodyTop := top + fh*38/100
	fillRect(img, cx-fw/5, bodyTop, fw*2/5, legTop-bodyTop, body)

	headR := fw / 6
	headY := top + fh*26/100
	fillCircle(img, cx, headY, headR, ColorPalette.Skin, ColorPalette.Outline)

	eye := max(fw/32, 1)
	switch facing {
	case atlas.RowDown:
		fillRect(img, cx-headR/2, headY, eye, eye, ColorPalette.Outline)
		fillRect(img, cx+headR/2-eye, headY, eye, eye, ColorPalette.Outline)
	case atlas.RowLeft:
		fillRect(img, cx-headR+eye, headY, eye, eye, ColorPalette.Outline)
	case atlas.RowRight:
		fillRect(img, cx+headR-2*eye, headY, eye, eye, ColorPalette.Outline)
	case atlas.RowUp:
		// Back of the head
		fillRect(img, cx-headR/2, headY-headR/2, headR, headR/3, Darken(ColorPalette.Skin, 0.7))
	}
}

// Town draws the background for a layout: grass with the walkable zones as
// dirt paths.
func Town(layout *spatial.Layout) *image.RGBA {
	w, h := int(layout.Width), int(layout.Height)
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{ColorPalette.Grass}, image.Point{}, draw.Src)

	// Grass tufts on a fixed grid
	for y := 8; y < h; y += 24 {
		for x := 8 + (y/24%2)*12; x < w; x += 24 {
			fillRect(img, x, y, 3, 3, ColorPalette.GrassDark)
		}
	}

	for _, z := range layout.Zones {
		r := image.Rect(int(z.X), int(z.Y), int(z.X+z.Width), int(z.Y+z.Height))
		draw.Draw(img, r.Inset(-2), &image.Uniform{ColorPalette.PathEdge}, image.Point{}, draw.Src)
		draw.Draw(img, r, &image.Uniform{ColorPalette.Path}, image.Point{}, draw.Src)
	}
	return img
}

// SpriteFileName is the sheet file name for a character.
func SpriteFileName(name string) string {
	base := strings.TrimPrefix(strings.ToLower(name), "agent_")
	return base + ".png"
}

// GenerateAndSave writes dir/sprites/<name>.png for every character,
// dir/sprites/default.png and the town background.
func GenerateAndSave(dir string, names []string, palette []color.Color, sheet atlas.SheetConfig, layout *spatial.Layout) error {
	spritesDir := filepath.Join(dir, "sprites")
	if err := os.MkdirAll(spritesDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", spritesDir, err)
	}

	for i, name := range names {
		body := ColorPalette.Default
		if len(palette) > 0 {
			body = toRGBA(palette[i%len(palette)])
		}
		path := filepath.Join(spritesDir, SpriteFileName(name))
		if err := SavePNG(CharacterSheet(sheet, body), path); err != nil {
			return fmt.Errorf("failed to save sprite for %s: %w", name, err)
		}
		fmt.Printf("  wrote %s\n", path)
	}

	defaultPath := filepath.Join(spritesDir, "default.png")
	if err := SavePNG(CharacterSheet(sheet, ColorPalette.Default), defaultPath); err != nil {
		return fmt.Errorf("failed to save default sprite: %w", err)
	}
	fmt.Printf("  wrote %s\n", defaultPath)

	townPath := filepath.Join(dir, "town.png")
	if err := SavePNG(Town(layout), townPath); err != nil {
		return fmt.Errorf("failed to save town: %w", err)
	}
	fmt.Printf("  wrote %s\n", townPath)
	return nil
}

func fillRect(img *image.RGBA, x, y, w, h int, col color.RGBA) {
	draw.Draw(img, image.Rect(x, y, x+w, y+h), &image.Uniform{col}, image.Point{}, draw.Over)
}

func fillCircle(img *image.RGBA, cx, cy, radius int, fill, outline color.RGBA) {
	for y := cy - radius - 1; y <= cy+radius+1; y++ {
		for x := cx - radius - 1; x <= cx+radius+1; x++ {
			dx, dy := x-cx, y-cy
			distSq := dx*dx + dy*dy
			if distSq <= radius*radius {
				img.Set(x, y, fill)
			} else if distSq <= (radius+1)*(radius+1) {
				img.Set(x, y, outline)
			}
		}
	}
}

func toRGBA(c color.Color) color.RGBA {
	r, g, b, _ := c.RGBA()
	return color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 255}
}

// SavePNG saves an image to a PNG file
func SavePNG(img image.Image, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return png.Encode(file, img)
}

// Darken returns a darker version of a color
func Darken(c color.RGBA, factor float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * factor),
		G: uint8(float64(c.G) * factor),
		B: uint8(float64(c.B) * factor),
		A: c.A,
	}
}
