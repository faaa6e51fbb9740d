// Package character holds the on-screen villagers: identity, sprite
// lifecycle, drawing and the collision predicate.
package character

import (
	"image/color"

	"go.uber.org/zap"

	"chosenoffset.com/cipherwolves/internal/core/timer"
	"chosenoffset.com/cipherwolves/internal/render"
	"chosenoffset.com/cipherwolves/internal/world/atlas"
)

// SpriteStatus is the load state of a character sprite
type SpriteStatus int

const (
	Unloaded SpriteStatus = iota
	Loaded
	Failed
)

func (s SpriteStatus) String() string {
	switch s {
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return "unloaded"
	}
}

// Sprite is a tagged variant: an image exists only in the Loaded state.
type Sprite struct {
	status SpriteStatus
	image  render.Image
	path   string
}

// Status returns the load state.
func (s Sprite) Status() SpriteStatus { return s.status }

// Image returns the sheet when loaded.
func (s Sprite) Image() (render.Image, bool) {
	return s.image, s.status == Loaded
}

// Path returns the file the sheet came from when loaded.
func (s Sprite) Path() string { return s.path }

type loadResult struct {
	image render.Image
	path  string
	err   error
}

// Options are the settings shared by every character
type Options struct {
	FallbackPath string            // Tried once when the own sprite fails
	Sheet        atlas.SheetConfig // Frame layout of every sheet
	DrawSize     float64           // Logical sprite size
	Palette      []color.Color
	Logger       *zap.Logger
}

// Character is one villager. All methods except the loader goroutine run on
// the frame goroutine.
type Character struct {
	index int
	name  string
	color color.Color
	opts  Options

	sprite Sprite
	loads  chan loadResult
	done   chan struct{} // Closed by Dispose

	timers   *timer.Group
	logger   *zap.Logger
	disposed bool
}

// New creates a character and starts loading its sprite in the background.
// timers is the frame timer queue; the character owns a group on it.
func New(index int, name, spritePath string, opts Options, loader render.ResourceLoader, timers *timer.Queue) *Character {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Character{
		index:  index,
		name:   name,
		color:  paletteColor(opts.Palette, index),
		opts:   opts,
		loads:  make(chan loadResult),
		done:   make(chan struct{}),
		timers: timer.NewGroup(timers),
		logger: logger.With(zap.String("character", name)),
	}

	var paths []string
	if spritePath != "" {
		paths = append(paths, spritePath)
	}
	if opts.FallbackPath != "" && opts.FallbackPath != spritePath {
		paths = append(paths, opts.FallbackPath)
	}

	if loader == nil || len(paths) == 0 {
		c.sprite = Sprite{status: Failed}
		return c
	}

	go c.load(loader, paths)
	return c
}

func paletteColor(palette []color.Color, index int) color.Color {
	if len(palette) == 0 {
		return color.RGBA{128, 128, 128, 255}
	}
	if index < 0 {
		index = -index
	}
	return palette[index%len(palette)]
}

// load tries each path in order and hands Poll the first success, or the
// last error. It never touches character state directly. A sheet that
// arrives after Dispose is released here since nothing polls any more.
func (c *Character) load(loader render.ResourceLoader, paths []string) {
	var res loadResult
	for _, path := range paths {
		img, err := loader.LoadImage(path)
		if err == nil {
			res = loadResult{image: img, path: path}
			break
		}
		res.err = err
	}

	select {
	case c.loads <- res:
	case <-c.done:
		if res.image != nil {
			res.image.Dispose()
		}
	}
}

// Poll applies a finished sprite load, if any. It reports whether the sprite
// state changed.
func (c *Character) Poll() bool {
	select {
	case res := <-c.loads:
		c.apply(res)
		return true
	default:
		return false
	}
}

func (c *Character) apply(res loadResult) {
	if c.disposed {
		if res.image != nil {
			res.image.Dispose()
		}
		return
	}
	if res.err != nil {
		c.logger.Warn("sprite unavailable, drawing placeholder", zap.Error(res.err))
		c.sprite = Sprite{status: Failed}
		return
	}
	c.logger.Debug("sprite loaded", zap.String("path", res.path))
	c.sprite = Sprite{status: Loaded, image: res.image, path: res.path}
}

// Index returns the character's stable index.
func (c *Character) Index() int { return c.index }

// Name returns the display name.
func (c *Character) Name() string { return c.name }

// Color returns the palette color assigned by index.
func (c *Character) Color() color.Color { return c.color }

// Sprite returns the current sprite state.
func (c *Character) Sprite() Sprite { return c.sprite }

// Timers returns the timer group owned by this character. It is stopped by
// Dispose.
func (c *Character) Timers() *timer.Group { return c.timers }

// Disposed reports whether Dispose ran.
func (c *Character) Disposed() bool { return c.disposed }

// Dispose cancels the character's timers and releases its sprite. Safe to
// call more than once.
func (c *Character) Dispose() {
	if c.disposed {
		return
	}
	c.disposed = true
	close(c.done)
	c.timers.Stop()

	if img, ok := c.sprite.Image(); ok {
		img.Dispose()
	}
	c.sprite = Sprite{status: Failed}
}
