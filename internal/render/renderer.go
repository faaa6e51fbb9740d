package render

import (
	"errors"
	"image"
	"image/color"
)

// ErrTerminated is returned from Game.Update to end the run loop cleanly.
var ErrTerminated = errors.New("render: game terminated")

// Point is a 2D point in screen space.
type Point struct {
	X, Y float64
}

// Align controls horizontal text anchoring.
type Align int

const (
	AlignStart Align = iota
	AlignCenter
	AlignEnd
)

// TextStyle describes how a run of text is drawn.
type TextStyle struct {
	Size  float64 // Font size in pixels
	Bold  bool
	Color color.Color
	Align Align
}

// Renderer is the main rendering interface that abstracts the underlying
// graphics engine. This allows swapping rendering backends without changing
// game logic.
type Renderer interface {
	// Image operations
	NewImage(width, height int) Image

	// Vector operations (for drawing shapes)
	FillRect(dst Image, x, y, width, height float32, clr color.Color)
	StrokeRect(dst Image, x, y, width, height, strokeWidth float32, clr color.Color)
	FillCircle(dst Image, x, y, radius float32, clr color.Color)
	StrokeCircle(dst Image, x, y, radius float32, strokeWidth float32, clr color.Color)
	// FillPolygon fills a convex polygon given in drawing order.
	FillPolygon(dst Image, points []Point, clr color.Color)
	StrokePolygon(dst Image, points []Point, strokeWidth float32, clr color.Color)

	// Text operations. (x, y) is the top of the line; Align picks which edge
	// of the text sits on x.
	DrawText(dst Image, text string, x, y float64, style TextStyle)
	MeasureText(text string, style TextStyle) (width, height float64)
}

// Image represents a renderable image surface that can be drawn to or drawn from.
// It abstracts the underlying image implementation.
type Image interface {
	// Properties
	Bounds() image.Rectangle
	Size() (width, height int)

	// Sub-image extraction
	SubImage(r image.Rectangle) Image

	// Fill operations
	Fill(clr color.Color)

	// Drawing operations
	DrawImage(src Image, opts *DrawImageOptions)

	// Resource management
	Dispose()
}

// DrawImageOptions contains options for drawing an image.
type DrawImageOptions struct {
	GeoM GeoM
	// Alpha scales the source alpha. Zero means fully opaque.
	Alpha float32
}

// GeoM represents a geometric transformation matrix.
type GeoM interface {
	// Translate shifts the image by (tx, ty).
	Translate(tx, ty float64)

	// Scale scales the image by (sx, sy).
	Scale(sx, sy float64)

	// Reset resets the matrix to identity.
	Reset()
}

// NewGeoM creates a new geometric transformation matrix.
// This is implemented by the specific renderer backend.
var NewGeoM func() GeoM

// InputManager handles input from the user (keyboard, mouse, etc).
type InputManager interface {
	IsKeyPressed(key Key) bool
	IsKeyJustPressed(key Key) bool
	// AppendInputChars appends the characters typed since the last frame.
	AppendInputChars(runes []rune) []rune
}

// Key represents a keyboard key.
type Key int

// Key constants for the keys the client reacts to
const (
	KeyEnter Key = iota
	KeyBackspace
	KeyEscape
	KeyF3 // Zone overlay toggle
	KeyLeft
	KeyRight
	KeyUp
	KeyDown
	KeyTab
)

// ResourceLoader handles loading resources like images from disk.
type ResourceLoader interface {
	LoadImage(path string) (Image, error)
}

// Game represents the game interface that the engine will call.
// This is typically implemented by the main game struct.
type Game interface {
	// Update updates the game logic. With the engine synced to the display it
	// is called once per displayed frame.
	Update() error

	// Draw draws the game screen. It is called every frame.
	Draw(screen Image)

	// Layout accepts the outside size (e.g., window size) and returns the logical screen size.
	// The logical screen size is used for rendering and input coordinates.
	Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int)
}

// Engine represents the game engine that manages the game loop and window.
type Engine interface {
	// SetWindowSize sets the window size in pixels.
	SetWindowSize(width, height int)

	// SetWindowTitle sets the window title.
	SetWindowTitle(title string)

	// SetWindowResizable enables or disables window resizing.
	SetWindowResizable(resizable bool)

	// SyncWithDisplay makes Update run once per display refresh instead of
	// at a fixed tick rate.
	SyncWithDisplay()

	// RunGame runs the game loop with the provided game.
	// This is a blocking call that runs until the game ends.
	RunGame(game Game) error
}
