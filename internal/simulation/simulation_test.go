package simulation

import (
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chosenoffset.com/cipherwolves/internal/character"
	"chosenoffset.com/cipherwolves/internal/world/spatial"
)

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func newMotion(t *testing.T, cfg MotionConfig, width, height float64, zones ...spatial.Zone) (*Motion, *spatial.Map) {
	t.Helper()
	m, err := spatial.New(width, height, zones)
	require.NoError(t, err)
	return NewMotion(cfg, m, rand.New(rand.NewSource(42))), m
}

func assertInvariants(t *testing.T, m *spatial.Map, cfg MotionConfig, states []State, at time.Duration) {
	t.Helper()
	for i, s := range states {
		if !m.IsWithinCanvasMargin(s.X, s.Y, cfg.Margin) || !m.IsWalkable(s.X, s.Y) {
			t.Fatalf("at %v: character %d out of bounds at (%.2f, %.2f)", at, i, s.X, s.Y)
		}
		if s.Moving() != (s.Velocity != nil) {
			t.Fatalf("at %v: character %d phase %v with velocity %v", at, i, s.Phase, s.Velocity)
		}
		for j := i + 1; j < len(states); j++ {
			o := states[j]
			if s.Eliminated || o.Eliminated {
				continue
			}
			if d := math.Hypot(s.X-o.X, s.Y-o.Y); d < cfg.MinSeparation() {
				t.Fatalf("at %v: characters %d and %d only %.3f apart", at, i, j, d)
			}
		}
	}
}

func TestFacingFor(t *testing.T) {
	cases := []struct {
		dx, dy float64
		want   Direction
	}{
		{1, 0, Right},
		{-1, 0, Left},
		{0, 1, Down},
		{0, -1, Up},
		{2, 1, Right},
		{-2, 1.5, Left},
		{1, 1, Down}, // tie goes vertical
		{1, -1, Up},  // tie goes vertical
		{0.5, 3, Down},
		{0, 0, Down},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, FacingFor(c.dx, c.dy), "FacingFor(%v, %v)", c.dx, c.dy)
	}
}

func TestInitialFacingCyclesByIndex(t *testing.T) {
	want := []Direction{Down, Left, Right, Up, Down}
	for i, d := range want {
		assert.Equal(t, d, InitialFacing(i))
	}
	assert.Equal(t, "up", Up.String())
	assert.Equal(t, "left", Left.String())
}

func TestRangePickIsInclusive(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	r := Range{Min: 1000, Max: 1003}
	seen := map[time.Duration]bool{}
	for i := 0; i < 500; i++ {
		d := r.Pick(rng)
		require.GreaterOrEqual(t, d, ms(1000))
		require.LessOrEqual(t, d, ms(1003))
		seen[d] = true
	}
	assert.Len(t, seen, 4)
	assert.Equal(t, ms(2000), Range{Min: 2000, Max: 2000}.Pick(rng))
}

func TestBeginStartsPaused(t *testing.T) {
	cfg := DefaultConfig().Motion
	motion, _ := newMotion(t, cfg, 400, 400, spatial.Zone{X: 0, Y: 0, Width: 400, Height: 400})

	var s State
	motion.Begin(&s, epoch)

	assert.Equal(t, Paused, s.Phase)
	assert.Nil(t, s.Velocity)
	assert.False(t, s.PhaseEnds.Before(epoch.Add(ms(1000))))
	assert.False(t, s.PhaseEnds.After(epoch.Add(ms(3000))))
}

func TestDeterministicMoveCycle(t *testing.T) {
	cfg := DefaultConfig().Motion
	cfg.MoveDuration = Range{Min: 2000, Max: 2000}
	cfg.PauseDuration = Range{Min: 1000, Max: 1000}
	motion, _ := newMotion(t, cfg, 1000, 1000, spatial.Zone{X: 0, Y: 0, Width: 1000, Height: 1000})

	states, err := motion.Spawn(1, []spatial.SpawnPoint{{X: 500, Y: 500}}, nil, epoch)
	require.NoError(t, err)
	require.Equal(t, epoch.Add(ms(1000)), states[0].PhaseEnds)

	loop := NewLoop(motion, DefaultConfig().Animation, states)

	type transition struct {
		at    time.Duration
		phase Phase
	}
	var transitions []transition
	last := Paused
	for t0 := 0; t0 <= 3500; t0 += 10 {
		loop.Step(epoch.Add(ms(t0)))
		if p := loop.State(0).Phase; p != last {
			transitions = append(transitions, transition{ms(t0), p})
			last = p
		}
	}

	assert.Equal(t, []transition{{ms(1000), Moving}, {ms(3000), Paused}}, transitions)
	assert.Equal(t, epoch.Add(ms(4000)), loop.State(0).PhaseEnds)
}

func TestDisplacementIsProportionalToElapsed(t *testing.T) {
	cfg := DefaultConfig().Motion
	motion, _ := newMotion(t, cfg, 1000, 1000, spatial.Zone{X: 0, Y: 0, Width: 1000, Height: 1000})

	run := func(elapsed time.Duration) float64 {
		s := State{X: 500, Y: 500, Phase: Moving, Velocity: &Vector{X: 1}, Facing: Right, PhaseEnds: epoch.Add(time.Minute)}
		others := []character.Position{{X: s.X, Y: s.Y}}
		require.True(t, motion.Tick(0, &s, others, epoch, elapsed))
		return s.X - 500
	}

	short := run(ms(10))
	long := run(ms(40))

	assert.InDelta(t, cfg.Speed*10/cfg.NominalFrameMS, short, 1e-9)
	assert.InDelta(t, 4*short, long, 1e-9)
}

func TestZeroElapsedDoesNotMove(t *testing.T) {
	cfg := DefaultConfig().Motion
	motion, _ := newMotion(t, cfg, 1000, 1000, spatial.Zone{X: 0, Y: 0, Width: 1000, Height: 1000})

	s := State{X: 500, Y: 500, Phase: Moving, Velocity: &Vector{Y: -1}, Facing: Up, PhaseEnds: epoch.Add(time.Minute)}
	assert.False(t, motion.Tick(0, &s, []character.Position{{X: 500, Y: 500}}, epoch, 0))
	assert.Equal(t, 500.0, s.Y)
}

func TestBlockedStepEscapesSideways(t *testing.T) {
	cfg := DefaultConfig().Motion
	// Wall to the right: the zone ends just past the character
	motion, m := newMotion(t, cfg, 1000, 1000, spatial.Zone{X: 0, Y: 0, Width: 500.5, Height: 1000})

	s := State{X: 500, Y: 500, Phase: Moving, Velocity: &Vector{X: 1}, Facing: Right, PhaseEnds: epoch.Add(time.Minute)}
	require.True(t, motion.Tick(0, &s, []character.Position{{X: 500, Y: 500}}, epoch, ms(100)))

	assert.True(t, m.IsWalkable(s.X, s.Y))
	if s.Moving() {
		assert.NotEqual(t, Vector{X: 1}, *s.Velocity, "heading must change after a blocked step")
		assert.Equal(t, FacingFor(s.Velocity.X, s.Velocity.Y), s.Facing)
	}
}

func TestExhaustedEscapeForcesRecoveryPause(t *testing.T) {
	cfg := DefaultConfig().Motion
	cfg.RecoveryDuration = Range{Min: 1500, Max: 1500}
	motion, _ := newMotion(t, cfg, 300, 300, spatial.Zone{X: 100, Y: 100, Width: 1, Height: 1})

	s := State{X: 100.5, Y: 100.5, Phase: Moving, Velocity: &Vector{X: 1}, Facing: Right, PhaseEnds: epoch.Add(time.Minute)}
	require.True(t, motion.Tick(0, &s, []character.Position{{X: s.X, Y: s.Y}}, epoch, ms(100)))

	assert.Equal(t, Paused, s.Phase)
	assert.Nil(t, s.Velocity)
	assert.Equal(t, epoch.Add(ms(1500)), s.PhaseEnds)
	assert.Equal(t, 100.5, s.X, "position stays put")
	assert.Equal(t, 100.5, s.Y)
}

func TestValidIgnoresSelfAndEliminated(t *testing.T) {
	cfg := DefaultConfig().Motion
	motion, _ := newMotion(t, cfg, 1000, 1000, spatial.Zone{X: 0, Y: 0, Width: 1000, Height: 1000})

	others := []character.Position{{X: 500, Y: 500}, {X: 510, Y: 500}}
	assert.False(t, motion.Valid(505, 500, others, 0))
	others[1].Excluded = true
	assert.True(t, motion.Valid(505, 500, others, 0))
	assert.False(t, motion.Valid(10, 500, others, 0), "inside the canvas margin")
}

func TestEliminatedCharacterIsFrozen(t *testing.T) {
	cfg := DefaultConfig().Motion
	cfg.PauseDuration = Range{Min: 50, Max: 100}
	cfg.MoveDuration = Range{Min: 200, Max: 400}
	motion, m := newMotion(t, cfg, 400, 400, spatial.Zone{X: 40, Y: 40, Width: 320, Height: 320})

	states, err := motion.Spawn(3, []spatial.SpawnPoint{{X: 100, Y: 100}, {X: 200, Y: 200}, {X: 300, Y: 300}}, nil, epoch)
	require.NoError(t, err)

	loop := NewLoop(motion, DefaultConfig().Animation, states)
	require.True(t, loop.SetEliminated(1, true))
	frozen := loop.State(1)

	for t0 := 0; t0 <= 20000; t0 += 16 {
		loop.Step(epoch.Add(ms(t0)))
		assertInvariants(t, m, cfg, loop.States(), ms(t0))
		got := loop.State(1)
		require.Equal(t, frozen.X, got.X)
		require.Equal(t, frozen.Y, got.Y)
		require.Equal(t, frozen.Phase, got.Phase)
		require.Equal(t, frozen.PhaseEnds, got.PhaseEnds)
	}
}

func TestFiveCharactersInSmallSquare(t *testing.T) {
	cfg := DefaultConfig().Motion
	cfg.CollisionRadius = 16
	cfg.PauseDuration = Range{Min: 50, Max: 300}
	cfg.MoveDuration = Range{Min: 200, Max: 1200}
	cfg.SpawnJitter = 0
	motion, m := newMotion(t, cfg, 200, 200, spatial.Zone{X: 50, Y: 50, Width: 100, Height: 100})

	corners := []spatial.SpawnPoint{{X: 60, Y: 60}, {X: 140, Y: 60}, {X: 60, Y: 140}, {X: 140, Y: 140}, {X: 100, Y: 100}}
	states, err := motion.Spawn(5, corners, m.Zones(), epoch)
	require.NoError(t, err)
	assertInvariants(t, m, cfg, states, 0)

	loop := NewLoop(motion, DefaultConfig().Animation, states)
	moved := false
	for t0 := 0; t0 <= 60000; t0 += 16 {
		if loop.Step(epoch.Add(ms(t0))) {
			moved = true
		}
		assertInvariants(t, m, cfg, loop.States(), ms(t0))
	}
	assert.True(t, moved)
}

func TestVariableFrameRateKeepsInvariants(t *testing.T) {
	cfg := DefaultConfig().Motion
	layout := spatial.DefaultLayout()
	m, err := layout.Map()
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(99))
	motion := NewMotion(cfg, m, rng)

	states, err := motion.Spawn(8, layout.SpawnPoints, layout.Zones, epoch)
	require.NoError(t, err)

	loop := NewLoop(motion, DefaultConfig().Animation, states)
	now := epoch
	for i := 0; i < 5000; i++ {
		now = now.Add(ms(5 + rng.Intn(60)))
		loop.Step(now)
		assertInvariants(t, m, cfg, loop.States(), now.Sub(epoch))
	}
}

func TestAnimationCounterAdvancesOnItsOwnCadence(t *testing.T) {
	motion, _ := newMotion(t, DefaultConfig().Motion, 400, 400, spatial.Zone{X: 0, Y: 0, Width: 400, Height: 400})
	anim := AnimationConfig{FrameDurationMS: 50, FrameCount: 16, Cycles: 15}
	loop := NewLoop(motion, anim, nil)

	loop.Step(epoch)
	assert.Equal(t, 0, loop.AnimationFrame())

	loop.Step(epoch.Add(ms(120)))
	assert.Equal(t, 2, loop.AnimationFrame())

	loop.Step(epoch.Add(ms(150)))
	assert.Equal(t, 3, loop.AnimationFrame())

	// 240 frames later the counter wraps back to where it was
	loop.Step(epoch.Add(ms(150 + 240*50)))
	assert.Equal(t, 3, loop.AnimationFrame())
}

func TestStopEndsStepping(t *testing.T) {
	cfg := DefaultConfig().Motion
	cfg.PauseDuration = Range{Min: 0, Max: 0}
	motion, _ := newMotion(t, cfg, 400, 400, spatial.Zone{X: 0, Y: 0, Width: 400, Height: 400})
	states, err := motion.Spawn(1, []spatial.SpawnPoint{{X: 200, Y: 200}}, nil, epoch)
	require.NoError(t, err)

	loop := NewLoop(motion, DefaultConfig().Animation, states)
	loop.Stop()
	loop.Stop()

	assert.True(t, loop.Stopped())
	assert.False(t, loop.Step(epoch.Add(time.Second)))
	assert.Equal(t, Paused, loop.State(0).Phase)
	assert.Equal(t, uint64(0), loop.Frames())
}

func TestSpeechMarkers(t *testing.T) {
	motion, _ := newMotion(t, DefaultConfig().Motion, 400, 400, spatial.Zone{X: 0, Y: 0, Width: 400, Height: 400})
	loop := NewLoop(motion, DefaultConfig().Animation, make([]State, 2))

	assert.True(t, loop.SetSpeech(1, &Speech{Speaker: "agent_Bob", Text: "hi"}))
	assert.Equal(t, "hi", loop.Speech(1).Text)
	assert.Nil(t, loop.Speech(0))
	assert.False(t, loop.SetSpeech(5, &Speech{}))
	assert.Nil(t, loop.Speech(-1))

	loop.SetSpeech(1, nil)
	assert.Nil(t, loop.Speech(1))
}

func TestSpawnDefaultLayout(t *testing.T) {
	cfg := DefaultConfig().Motion
	layout := spatial.DefaultLayout()
	m, err := layout.Map()
	require.NoError(t, err)
	motion := NewMotion(cfg, m, rand.New(rand.NewSource(1)))

	states, err := motion.Spawn(5, layout.SpawnPoints, layout.Zones, epoch)
	require.NoError(t, err)
	require.Len(t, states, 5)
	assertInvariants(t, m, cfg, states, 0)

	for i, s := range states {
		assert.Equal(t, InitialFacing(i), s.Facing)
		assert.Equal(t, Paused, s.Phase)
		p := layout.SpawnPoints[i]
		assert.LessOrEqual(t, math.Abs(s.X-p.X), cfg.SpawnJitter)
		assert.LessOrEqual(t, math.Abs(s.Y-p.Y), cfg.SpawnJitter)
	}
}

func TestSpawnFailsWithoutRoom(t *testing.T) {
	cfg := DefaultConfig().Motion
	motion, m := newMotion(t, cfg, 300, 300, spatial.Zone{X: 100, Y: 100, Width: 10, Height: 10})

	_, err := motion.Spawn(2, nil, m.Zones(), epoch)
	assert.ErrorIs(t, err, ErrNoRoom)

	_, err = motion.Spawn(-1, nil, m.Zones(), epoch)
	assert.Error(t, err)
}

func TestLoadConfigOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"motion": {"speed": 2.5, "collision_radius": 20}, "speech": {"bubble_text": ""}}`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 2.5, cfg.Motion.Speed)
	assert.Equal(t, 40.0, cfg.Motion.MinSeparation())
	assert.Equal(t, Range{Min: 2000, Max: 6000}, cfg.Motion.MoveDuration)
	assert.Equal(t, "", cfg.Speech.BubbleText)
	assert.Equal(t, 1200.0, cfg.Canvas.Width)
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"inverted range": `{"motion": {"pause_duration": {"min": 3000, "max": 1000}}}`,
		"zero canvas":    `{"canvas": {"width": 0, "height": 800}}`,
		"empty palette":  `{"palette": []}`,
		"bad json":       `{"motion": `,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "sim.json")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}
