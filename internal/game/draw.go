package game

import (
	"fmt"
	"image/color"

	"chosenoffset.com/cipherwolves/internal/bridge"
	"chosenoffset.com/cipherwolves/internal/character"
	"chosenoffset.com/cipherwolves/internal/render"
)

var (
	backdropColor = color.RGBA{21, 19, 10, 255}
	grassColor    = color.RGBA{92, 128, 64, 255}
	pathColor     = color.RGBA{196, 168, 112, 255}
	zoneEdge      = color.RGBA{255, 0, 0, 160}
	stripColor    = color.RGBA{0, 0, 0, 150}
	stripText     = color.RGBA{255, 255, 255, 255}
	stripDim      = color.RGBA{150, 150, 150, 255}
)

const stripHeight = 26.0

// Draw renders the village on the left and the chat panel on the right.
func (g *Game) Draw(screen render.Image) {
	screen.Fill(backdropColor)
	if g.renderer == nil {
		return
	}

	g.drawWorld(screen)
	g.drawCharacters(screen)
	g.drawRosterStrip(screen)
	g.drawNotices(screen)
	g.panel.Draw(g.renderer, screen)
}

func (g *Game) drawWorld(screen render.Image) {
	s := g.scale
	w, h := g.cfg.Canvas.Width*s, g.cfg.Canvas.Height*s

	if g.background != nil {
		bw, bh := g.background.Size()
		if bw > 0 && bh > 0 {
			opts := &render.DrawImageOptions{GeoM: render.NewGeoM()}
			opts.GeoM.Scale(w/float64(bw), h/float64(bh))
			screen.DrawImage(g.background, opts)
		}
	} else {
		// Fallback terrain: grass with the walkable zones as paths
		g.renderer.FillRect(screen, 0, 0, float32(w), float32(h), grassColor)
		for _, z := range g.space.Zones() {
			g.renderer.FillRect(screen, float32(z.X*s), float32(z.Y*s), float32(z.Width*s), float32(z.Height*s), pathColor)
		}
	}

	if g.showZones {
		for _, z := range g.space.Zones() {
			g.renderer.StrokeRect(screen, float32(z.X*s), float32(z.Y*s), float32(z.Width*s), float32(z.Height*s), 2, zoneEdge)
		}
	}
}

func (g *Game) drawCharacters(screen render.Image) {
	anim := g.loop.AnimationFrame()
	radius := 0.0
	if g.showZones {
		radius = g.cfg.Motion.CollisionRadius
	}

	for i, st := range g.loop.States() {
		// Eliminated characters leave the village
		if st.Eliminated {
			continue
		}
		c := g.roster.At(i)
		if c == nil {
			continue
		}

		msg := ""
		if st.Speech != nil {
			msg = st.Speech.Text
		}
		c.Draw(g.renderer, screen, character.DrawParams{
			X:               st.X,
			Y:               st.Y,
			Facing:          st.Facing.String(),
			AnimFrame:       anim,
			Moving:          st.Moving(),
			Scale:           g.scale,
			Message:         msg,
			CollisionRadius: radius,
		})
	}
}

// drawRosterStrip lists every character along the bottom of the village,
// dimming the eliminated ones.
func (g *Game) drawRosterStrip(screen render.Image) {
	w := g.cfg.Canvas.Width * g.scale
	y := g.cfg.Canvas.Height*g.scale - stripHeight
	g.renderer.FillRect(screen, 0, float32(y), float32(w), stripHeight, stripColor)

	style := render.TextStyle{Size: 12, Color: stripText}
	x := 8.0
	for i, st := range g.loop.States() {
		c := g.roster.At(i)
		if c == nil {
			continue
		}
		label := bridge.DisplayName(c.Name())
		ls := style
		if st.Eliminated {
			label += " (out)"
			ls.Color = stripDim
		}
		g.renderer.FillRect(screen, float32(x), float32(y+8), 10, 10, c.Color())
		g.renderer.DrawText(screen, label, x+14, y+6, ls)
		tw, _ := g.renderer.MeasureText(label, ls)
		x += tw + 30
	}

	scale := fmt.Sprintf("Scale: %.2fx", g.scale)
	g.renderer.DrawText(screen, scale, w-8, y+6, render.TextStyle{Size: 12, Color: stripDim, Align: render.AlignEnd})
}

func (g *Game) drawNotices(screen render.Image) {
	y := 12.0
	for _, n := range g.notices {
		alpha := uint8(255 * (n.TimeLeft / n.MaxTime))
		g.renderer.DrawText(screen, n.Text, 12, y, render.TextStyle{Size: 14, Bold: true, Color: color.NRGBA{255, 255, 255, alpha}})
		y += 20
	}
}
