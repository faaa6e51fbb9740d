// Package simulation drives the wandering characters: the per-character
// motion controller and the frame loop that ticks it.
// Its constants are loaded from data files so a village can tune its own pace.
package simulation

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"time"

	"chosenoffset.com/cipherwolves/internal/world/atlas"
)

// Config holds all tunables of the client simulation
type Config struct {
	// Logical canvas
	Canvas CanvasConfig `json:"canvas"`

	// Wander/pause behaviour and collision rules
	Motion MotionConfig `json:"motion"`

	// Walk-cycle pacing
	Animation AnimationConfig `json:"animation"`

	// Character sprites
	Sprite SpriteConfig `json:"sprite"`

	// Speech bubbles and chat
	Speech SpeechConfig `json:"speech"`

	// Name tag colors, assigned by character index
	Palette []string `json:"palette"`
}

// CanvasConfig is the logical (unscaled) drawing space
type CanvasConfig struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Range is an inclusive millisecond range
type Range struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Pick draws a uniform integer millisecond duration from the range.
func (r Range) Pick(rng Rand) time.Duration {
	if r.Max <= r.Min {
		return time.Duration(r.Min) * time.Millisecond
	}
	return time.Duration(r.Min+rng.Intn(r.Max-r.Min+1)) * time.Millisecond
}

func (r Range) validate(name string) error {
	if r.Min < 0 || r.Max < r.Min {
		return fmt.Errorf("%s: invalid range [%d, %d]", name, r.Min, r.Max)
	}
	return nil
}

// MotionConfig defines how characters wander
type MotionConfig struct {
	Speed           float64 `json:"speed"`            // Logical units per nominal frame
	NominalFrameMS  float64 `json:"nominal_frame_ms"` // Frame length the speed is expressed in
	CollisionRadius float64 `json:"collision_radius"` // Two characters keep 2x this apart
	Margin          float64 `json:"margin"`           // Keep-out border of the canvas
	SpawnJitter     float64 `json:"spawn_jitter"`     // Max offset from a spawn point
	EscapeAttempts  int     `json:"escape_attempts"`  // Random directions tried when blocked

	MoveDuration     Range `json:"move_duration"`
	PauseDuration    Range `json:"pause_duration"`
	RecoveryDuration Range `json:"recovery_duration"` // Pause after a failed escape search
}

// NominalFrame returns the nominal frame length as a duration.
func (c MotionConfig) NominalFrame() time.Duration {
	return time.Duration(c.NominalFrameMS * float64(time.Millisecond))
}

// MinSeparation is the closest two characters may stand.
func (c MotionConfig) MinSeparation() float64 {
	return 2 * c.CollisionRadius
}

// AnimationConfig paces the animation counter independently of motion
type AnimationConfig struct {
	FrameDurationMS int `json:"frame_duration_ms"` // Counter advances once per this many ms
	FrameCount      int `json:"frame_count"`
	Cycles          int `json:"cycles"` // Counter wraps at FrameCount * Cycles
}

// FrameDuration returns the counter period as a duration.
func (c AnimationConfig) FrameDuration() time.Duration {
	return time.Duration(c.FrameDurationMS) * time.Millisecond
}

// Wrap returns the value the animation counter wraps at.
func (c AnimationConfig) Wrap() int {
	return c.FrameCount * c.Cycles
}

// SpriteConfig describes character sprites
type SpriteConfig struct {
	DrawSize    float64           `json:"draw_size"`    // On-canvas sprite size in logical units
	DefaultPath string            `json:"default_path"` // Fallback sheet tried once after a failed load
	Sheet       atlas.SheetConfig `json:"sheet"`
}

// SpeechConfig controls speech bubbles and the chat log
type SpeechConfig struct {
	ExpiryMS         int    `json:"expiry_ms"`         // How long a bubble stays up
	BubbleText       string `json:"bubble_text"`       // Shown instead of the message when not empty
	MaxChatMessages  int    `json:"max_chat_messages"` // Chat log cap
	ScriptedInterval Range  `json:"scripted_interval"` // Offline demo line spacing
}

// Expiry returns the bubble lifetime.
func (c SpeechConfig) Expiry() time.Duration {
	return time.Duration(c.ExpiryMS) * time.Millisecond
}

// DefaultConfig returns the constants the town was tuned with
func DefaultConfig() *Config {
	return &Config{
		Canvas: CanvasConfig{
			Width:  1200,
			Height: 800,
		},
		Motion: MotionConfig{
			Speed:            1.2,
			NominalFrameMS:   16.67,
			CollisionRadius:  16,
			Margin:           30,
			SpawnJitter:      20,
			EscapeAttempts:   8,
			MoveDuration:     Range{Min: 2000, Max: 6000},
			PauseDuration:    Range{Min: 1000, Max: 3000},
			RecoveryDuration: Range{Min: 1000, Max: 2000},
		},
		Animation: AnimationConfig{
			FrameDurationMS: 50,
			FrameCount:      16,
			Cycles:          15,
		},
		Sprite: SpriteConfig{
			DrawSize:    48,
			DefaultPath: "assets/sprites/default.png",
			Sheet:       atlas.DefaultSheet(),
		},
		Speech: SpeechConfig{
			ExpiryMS:         6000,
			BubbleText:       "...",
			MaxChatMessages:  100,
			ScriptedInterval: Range{Min: 4000, Max: 9000},
		},
		Palette: []string{"#F54DA8", "#832121", "#E21414", "#FFE050", "#8138FEFF"},
	}
}

// LoadConfig loads simulation config from a JSON file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		// Return defaults if file doesn't exist
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read simulation config: %w", err)
	}

	config := DefaultConfig() // Start with defaults
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse simulation config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid simulation config: %w", err)
	}

	return config, nil
}

// Validate rejects constants the simulation cannot run with.
func (c *Config) Validate() error {
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		return fmt.Errorf("invalid canvas dimensions: %gx%g", c.Canvas.Width, c.Canvas.Height)
	}
	if c.Motion.Speed < 0 {
		return fmt.Errorf("speed must not be negative, got %g", c.Motion.Speed)
	}
	if c.Motion.NominalFrameMS <= 0 {
		return fmt.Errorf("nominal_frame_ms must be positive, got %g", c.Motion.NominalFrameMS)
	}
	if c.Motion.CollisionRadius < 0 {
		return fmt.Errorf("collision_radius must not be negative, got %g", c.Motion.CollisionRadius)
	}
	if c.Motion.Margin < 0 || 2*c.Motion.Margin >= c.Canvas.Width || 2*c.Motion.Margin >= c.Canvas.Height {
		return fmt.Errorf("margin %g leaves no room on a %gx%g canvas", c.Motion.Margin, c.Canvas.Width, c.Canvas.Height)
	}
	if c.Motion.EscapeAttempts < 0 {
		return fmt.Errorf("escape_attempts must not be negative, got %d", c.Motion.EscapeAttempts)
	}
	for name, r := range map[string]Range{
		"move_duration":     c.Motion.MoveDuration,
		"pause_duration":    c.Motion.PauseDuration,
		"recovery_duration": c.Motion.RecoveryDuration,
		"scripted_interval": c.Speech.ScriptedInterval,
	} {
		if err := r.validate(name); err != nil {
			return err
		}
	}
	if c.Animation.FrameDurationMS <= 0 || c.Animation.FrameCount <= 0 || c.Animation.Cycles <= 0 {
		return fmt.Errorf("invalid animation settings: %+v", c.Animation)
	}
	if c.Sprite.DrawSize <= 0 {
		return fmt.Errorf("sprite draw_size must be positive, got %g", c.Sprite.DrawSize)
	}
	if err := c.Sprite.Sheet.Validate(); err != nil {
		return fmt.Errorf("sprite sheet: %w", err)
	}
	if c.Speech.ExpiryMS <= 0 {
		return fmt.Errorf("speech expiry_ms must be positive, got %d", c.Speech.ExpiryMS)
	}
	if len(c.Palette) == 0 {
		return fmt.Errorf("palette must not be empty")
	}
	return nil
}

// Rand is the randomness the simulation draws from. *rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
	Float64() float64
}

// NewRand returns a seeded source; seed 0 picks one from the clock.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
