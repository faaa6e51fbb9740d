// Package rendertest provides an in-memory render backend that records draw
// calls, for tests of drawing code that must not open a window.
package rendertest

import (
	"errors"
	"image"
	"image/color"
	"sync"

	"chosenoffset.com/cipherwolves/internal/render"
)

// Op is one recorded drawing operation.
type Op struct {
	Kind   string // "fill_rect", "stroke_rect", "circle", "polygon", "text", "image", "fill"
	Target *Image
	Rect   image.Rectangle // Source rect for "image"
	X, Y   float64
	W, H   float64
	Points []render.Point
	Text   string
	Style  render.TextStyle
	Color  color.Color
	Alpha  float32
}

// Recorder implements render.Renderer and records every call.
type Recorder struct {
	Ops []Op
	// CharWidth is the advance used by MeasureText per rune and unit of size.
	CharWidth float64
}

// NewRecorder returns a recorder measuring text at 0.5*size per rune.
func NewRecorder() *Recorder {
	return &Recorder{CharWidth: 0.5}
}

func (r *Recorder) record(op Op) {
	r.Ops = append(r.Ops, op)
}

// Reset forgets recorded operations.
func (r *Recorder) Reset() {
	r.Ops = nil
}

// OfKind returns the recorded operations of one kind, in order.
func (r *Recorder) OfKind(kind string) []Op {
	var out []Op
	for _, op := range r.Ops {
		if op.Kind == kind {
			out = append(out, op)
		}
	}
	return out
}

// Texts returns every string drawn, in order.
func (r *Recorder) Texts() []string {
	var out []string
	for _, op := range r.OfKind("text") {
		out = append(out, op.Text)
	}
	return out
}

// NewImage creates an in-memory image bound to this recorder.
func (r *Recorder) NewImage(width, height int) render.Image {
	return &Image{rec: r, bounds: image.Rect(0, 0, width, height)}
}

func (r *Recorder) FillRect(dst render.Image, x, y, width, height float32, clr color.Color) {
	r.record(Op{Kind: "fill_rect", Target: asImage(dst), X: float64(x), Y: float64(y), W: float64(width), H: float64(height), Color: clr})
}

func (r *Recorder) StrokeRect(dst render.Image, x, y, width, height, strokeWidth float32, clr color.Color) {
	r.record(Op{Kind: "stroke_rect", Target: asImage(dst), X: float64(x), Y: float64(y), W: float64(width), H: float64(height), Color: clr})
}

func (r *Recorder) FillCircle(dst render.Image, x, y, radius float32, clr color.Color) {
	r.record(Op{Kind: "circle", Target: asImage(dst), X: float64(x), Y: float64(y), W: float64(radius), Color: clr})
}

func (r *Recorder) StrokeCircle(dst render.Image, x, y, radius float32, strokeWidth float32, clr color.Color) {
	r.record(Op{Kind: "stroke_circle", Target: asImage(dst), X: float64(x), Y: float64(y), W: float64(radius), Color: clr})
}

func (r *Recorder) FillPolygon(dst render.Image, points []render.Point, clr color.Color) {
	r.record(Op{Kind: "polygon", Target: asImage(dst), Points: append([]render.Point(nil), points...), Color: clr})
}

func (r *Recorder) StrokePolygon(dst render.Image, points []render.Point, strokeWidth float32, clr color.Color) {
	r.record(Op{Kind: "stroke_polygon", Target: asImage(dst), Points: append([]render.Point(nil), points...), Color: clr})
}

func (r *Recorder) DrawText(dst render.Image, text string, x, y float64, style render.TextStyle) {
	r.record(Op{Kind: "text", Target: asImage(dst), X: x, Y: y, Text: text, Style: style, Color: style.Color})
}

// MeasureText is a deterministic fixed-advance approximation.
func (r *Recorder) MeasureText(text string, style render.TextStyle) (float64, float64) {
	size := style.Size
	if size <= 0 {
		size = 12
	}
	return float64(len([]rune(text))) * size * r.CharWidth, size
}

// Image is a recorded surface. Sub-images share the recorder of their parent.
type Image struct {
	rec      *Recorder
	bounds   image.Rectangle
	parent   *Image
	Disposed bool
}

func asImage(img render.Image) *Image {
	if i, ok := img.(*Image); ok {
		return i
	}
	return nil
}

// Root returns the image a sub-image was cut from.
func (i *Image) Root() *Image {
	for i.parent != nil {
		i = i.parent
	}
	return i
}

func (i *Image) Bounds() image.Rectangle { return i.bounds }

func (i *Image) Size() (int, int) { return i.bounds.Dx(), i.bounds.Dy() }

func (i *Image) SubImage(r image.Rectangle) render.Image {
	return &Image{rec: i.rec, bounds: r.Intersect(i.bounds), parent: i}
}

func (i *Image) Fill(clr color.Color) {
	i.rec.record(Op{Kind: "fill", Target: i, Color: clr})
}

func (i *Image) DrawImage(src render.Image, opts *render.DrawImageOptions) {
	op := Op{Kind: "image", Target: i, Rect: src.Bounds()}
	if opts != nil {
		op.Alpha = opts.Alpha
		if g, ok := opts.GeoM.(*GeoM); ok {
			op.X, op.Y = g.TX, g.TY
			op.W, op.H = g.SX, g.SY
		}
	}
	i.rec.record(op)
}

func (i *Image) Dispose() {
	i.Disposed = true
}

// GeoM records translation and scale.
type GeoM struct {
	SX, SY float64
	TX, TY float64
}

// NewGeoM returns an identity matrix.
func NewGeoM() render.GeoM {
	return &GeoM{SX: 1, SY: 1}
}

func (g *GeoM) Translate(tx, ty float64) {
	g.TX += tx
	g.TY += ty
}

func (g *GeoM) Scale(sx, sy float64) {
	g.SX *= sx
	g.SY *= sy
	g.TX *= sx
	g.TY *= sy
}

func (g *GeoM) Reset() {
	*g = GeoM{SX: 1, SY: 1}
}

// Install points render.NewGeoM at the recording implementation.
func Install() {
	render.NewGeoM = NewGeoM
}

// ErrMissing is returned by Loader for paths it does not know.
var ErrMissing = errors.New("rendertest: image not found")

// Loader is a render.ResourceLoader serving images from a map. When Gate is
// non-nil every load blocks until a value is received from it.
type Loader struct {
	mu     sync.Mutex
	Images map[string]render.Image
	Gate   chan struct{}
	Calls  []string
}

// NewLoader returns a loader serving the given images.
func NewLoader(images map[string]render.Image) *Loader {
	if images == nil {
		images = map[string]render.Image{}
	}
	return &Loader{Images: images}
}

func (l *Loader) LoadImage(path string) (render.Image, error) {
	if l.Gate != nil {
		<-l.Gate
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Calls = append(l.Calls, path)
	img, ok := l.Images[path]
	if !ok {
		return nil, ErrMissing
	}
	return img, nil
}

// LoadCalls returns the requested paths in order.
func (l *Loader) LoadCalls() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.Calls...)
}

// Input is a scripted render.InputManager.
type Input struct {
	Pressed     map[render.Key]bool
	JustPressed map[render.Key]bool
	Chars       []rune
}

// NewInput returns an idle input.
func NewInput() *Input {
	return &Input{Pressed: map[render.Key]bool{}, JustPressed: map[render.Key]bool{}}
}

func (in *Input) IsKeyPressed(key render.Key) bool { return in.Pressed[key] }

func (in *Input) IsKeyJustPressed(key render.Key) bool { return in.JustPressed[key] }

// AppendInputChars hands out the queued characters once.
func (in *Input) AppendInputChars(runes []rune) []rune {
	runes = append(runes, in.Chars...)
	in.Chars = nil
	return runes
}

// EndFrame clears one-shot key presses.
func (in *Input) EndFrame() {
	in.JustPressed = map[render.Key]bool{}
}
