package character

import (
	"image/color"

	"chosenoffset.com/cipherwolves/internal/render"
)

var (
	shadowColor    = color.NRGBA{0, 0, 0, 77}
	faceColor      = color.RGBA{0, 0, 0, 255}
	nameTagColor   = color.RGBA{0, 0, 0, 255}
	nameTextColor  = color.RGBA{255, 255, 255, 255}
	loadingColor   = color.NRGBA{255, 255, 0, 178}
	bubbleFill     = color.NRGBA{255, 255, 255, 242}
	bubbleInk      = color.RGBA{51, 51, 51, 255}
	collisionColor = color.NRGBA{255, 0, 0, 77}
)

const eliminatedAlpha = 0.3

// DrawParams is everything a character needs to draw itself. Coordinates are
// logical; Scale converts them to screen pixels.
type DrawParams struct {
	X, Y       float64
	Facing     string // atlas row name
	AnimFrame  int
	Moving     bool
	Scale      float64
	Message    string // bubble text, empty for none
	Eliminated bool

	// Debug overlay radius, 0 to skip
	CollisionRadius float64
}

// Draw renders shadow, body, name tag and speech bubble. It never fails: a
// missing sprite draws the placeholder body.
func (c *Character) Draw(r render.Renderer, dst render.Image, p DrawParams) {
	s := p.Scale
	if s <= 0 {
		s = 1
	}
	x := p.X * s
	y := p.Y * s
	size := c.opts.DrawSize * s

	shadow := render.EllipsePoints(x, y+size*0.4, size*0.3, size*0.15, 24)
	r.FillPolygon(dst, shadow, shadowColor)

	c.drawBody(r, dst, x, y, size, s, p)

	if p.CollisionRadius > 0 {
		r.StrokeCircle(dst, float32(x), float32(y), float32(p.CollisionRadius*s), 1, collisionColor)
	}

	tagTop := c.drawNameTag(r, dst, x, y, size, s)

	if p.Message != "" && !p.Eliminated {
		c.drawBubble(r, dst, x, tagTop, p.Message, s)
	}

	if c.sprite.Status() == Unloaded {
		style := render.TextStyle{Size: 7 * s, Color: loadingColor, Align: render.AlignCenter}
		r.DrawText(dst, "Loading...", x, y+size/2+4*s, style)
	}
}

func (c *Character) drawBody(r render.Renderer, dst render.Image, x, y, size, s float64, p DrawParams) {
	img, ok := c.sprite.Image()
	if !ok || render.NewGeoM == nil {
		c.drawPlaceholder(r, dst, x, y, size, s, p.Eliminated)
		return
	}

	sheet := c.opts.Sheet
	row := sheet.Row(p.Facing)
	col := sheet.Column(p.AnimFrame, p.Moving)
	frame := img.SubImage(sheet.FrameRect(row, col))

	geom := render.NewGeoM()
	geom.Scale(size/float64(sheet.FrameWidth), size/float64(sheet.FrameHeight))
	geom.Translate(x-size/2, y-size/2)

	opts := &render.DrawImageOptions{GeoM: geom}
	if p.Eliminated {
		opts.Alpha = eliminatedAlpha
	}
	dst.DrawImage(frame, opts)
}

// drawPlaceholder draws a colored block with a simple face.
func (c *Character) drawPlaceholder(r render.Renderer, dst render.Image, x, y, size, s float64, eliminated bool) {
	body := c.color
	ink := color.Color(faceColor)
	if eliminated {
		body = fade(body, eliminatedAlpha)
		ink = fade(ink, eliminatedAlpha)
	}

	r.FillRect(dst, f32(x-size/2), f32(y-size/2), f32(size), f32(size*0.8), body)

	eye := f32(3 * s)
	r.FillRect(dst, f32(x-8*s), f32(y-8*s), eye, eye, ink)
	r.FillRect(dst, f32(x+5*s), f32(y-8*s), eye, eye, ink)
	r.FillRect(dst, f32(x-6*s), f32(y-2*s), f32(12*s), f32(2*s), ink)
}

// drawNameTag draws the name above the sprite and returns the tag's top edge.
func (c *Character) drawNameTag(r render.Renderer, dst render.Image, x, y, size, s float64) float64 {
	style := render.TextStyle{Size: 14 * s, Bold: true, Color: nameTextColor, Align: render.AlignCenter}
	w, h := r.MeasureText(c.name, style)

	boxH := 16 * s
	top := y - size/2 - 4*s - boxH
	r.FillRect(dst, f32(x-w/2-4*s), f32(top), f32(w+8*s), f32(boxH), nameTagColor)
	r.DrawText(dst, c.name, x, top+(boxH-h)/2, style)
	return top
}

// drawBubble draws a word-wrapped bubble whose pointer ends just above the
// name tag.
func (c *Character) drawBubble(r render.Renderer, dst render.Image, x, tagTop float64, message string, s float64) {
	maxWidth := 180 * s
	padding := 10 * s
	lineHeight := 14 * s
	pointer := 6 * s

	style := render.TextStyle{Size: 12 * s, Color: bubbleInk, Align: render.AlignCenter}
	lines := render.WrapText(r, message, style, maxWidth-padding*2)
	if len(lines) == 0 {
		return
	}

	widest := 0.0
	for _, line := range lines {
		if w, _ := r.MeasureText(line, style); w > widest {
			widest = w
		}
	}
	bw := widest + padding*2
	if bw > maxWidth {
		bw = maxWidth
	}
	bh := float64(len(lines))*lineHeight + padding*2
	bx := x - bw/2
	by := tagTop - 2*s - pointer - bh

	body := render.RoundedRectPoints(bx, by, bw, bh, 6*s, 4)
	r.FillPolygon(dst, body, bubbleFill)
	r.StrokePolygon(dst, body, f32(1.5*s), bubbleInk)

	tip := []render.Point{
		{X: x - pointer, Y: by + bh},
		{X: x + pointer, Y: by + bh},
		{X: x, Y: by + bh + pointer},
	}
	r.FillPolygon(dst, tip, bubbleFill)
	r.StrokePolygon(dst, tip, f32(1.5*s), bubbleInk)

	for i, line := range lines {
		r.DrawText(dst, line, x, by+padding+float64(i)*lineHeight, style)
	}
}

func fade(c color.Color, alpha float64) color.Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	n.A = uint8(float64(n.A) * alpha)
	return n
}

func f32(v float64) float32 { return float32(v) }
