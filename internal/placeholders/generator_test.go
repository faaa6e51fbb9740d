package placeholders

import (
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chosenoffset.com/cipherwolves/internal/world/atlas"
	"chosenoffset.com/cipherwolves/internal/world/spatial"
)

func TestCharacterSheetSize(t *testing.T) {
	sheet := atlas.DefaultSheet()
	img := CharacterSheet(sheet, color.RGBA{245, 77, 168, 255})

	b := img.Bounds()
	assert.Equal(t, 576, b.Dx())
	assert.Equal(t, 256, b.Dy())

	// Every frame has the body color at its center
	for _, row := range sheet.Rows {
		for col := 0; col < sheet.FramesPerDirection; col++ {
			r := sheet.FrameRect(row, col)
			c := img.RGBAAt(r.Min.X+r.Dx()/2, r.Min.Y+r.Dy()/2)
			assert.Equal(t, color.RGBA{245, 77, 168, 255}, c, "row %d col %d", row, col)
		}
	}
}

func TestCharacterSheetWalkCycleMoves(t *testing.T) {
	sheet := atlas.DefaultSheet()
	img := CharacterSheet(sheet, color.RGBA{129, 56, 254, 255})

	row := sheet.Row(atlas.RowDown)
	standing := sheet.FrameRect(row, 0)
	stride := sheet.FrameRect(row, 2)

	differs := false
	for y := 0; y < standing.Dy() && !differs; y++ {
		for x := 0; x < standing.Dx(); x++ {
			a := img.RGBAAt(standing.Min.X+x, standing.Min.Y+y)
			b := img.RGBAAt(stride.Min.X+x, stride.Min.Y+y)
			if a != b {
				differs = true
				break
			}
		}
	}
	assert.True(t, differs, "walking frame should differ from the standing frame")
}

func TestTownPaintsZones(t *testing.T) {
	layout := spatial.DefaultLayout()
	img := Town(layout)

	assert.Equal(t, 1200, img.Bounds().Dx())
	assert.Equal(t, 800, img.Bounds().Dy())

	for _, z := range layout.Zones {
		cx, cy := z.Center()
		assert.Equal(t, ColorPalette.Path, img.RGBAAt(int(cx), int(cy)))
	}
	assert.Equal(t, ColorPalette.Grass, img.RGBAAt(1190, 790))
}

func TestSpriteFileName(t *testing.T) {
	assert.Equal(t, "alice.png", SpriteFileName("agent_Alice"))
	assert.Equal(t, "narrator.png", SpriteFileName("Narrator"))
}

func TestGenerateAndSave(t *testing.T) {
	dir := t.TempDir()
	names := []string{"agent_Alice", "agent_Bob"}
	palette := []color.Color{color.RGBA{245, 77, 168, 255}}

	require.NoError(t, GenerateAndSave(dir, names, palette, atlas.DefaultSheet(), spatial.DefaultLayout()))

	for _, rel := range []string{"sprites/alice.png", "sprites/bob.png", "sprites/default.png", "town.png"} {
		f, err := os.Open(filepath.Join(dir, rel))
		require.NoError(t, err, rel)
		cfg, err := png.DecodeConfig(f)
		f.Close()
		require.NoError(t, err, rel)

		if rel == "town.png" {
			assert.Equal(t, 1200, cfg.Width)
		} else {
			assert.Equal(t, 576, cfg.Width)
			assert.Equal(t, 256, cfg.Height)
		}
	}
}

func TestDarken(t *testing.T) {
	assert.Equal(t, color.RGBA{50, 25, 10, 255}, Darken(color.RGBA{100, 50, 20, 255}, 0.5))
}
