package spatial

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZoneContainsClosedBounds(t *testing.T) {
	z := Zone{X: 10, Y: 20, Width: 30, Height: 40}

	assert.True(t, z.Contains(10, 20), "top-left corner is inside")
	assert.True(t, z.Contains(40, 60), "bottom-right corner is inside")
	assert.True(t, z.Contains(25, 30))
	assert.False(t, z.Contains(9.999, 30))
	assert.False(t, z.Contains(25, 60.001))
}

func TestNewRejectsBadGeometry(t *testing.T) {
	_, err := New(100, 100, nil)
	assert.True(t, errors.Is(err, ErrNoWalkableZones))

	_, err = New(0, 100, []Zone{{Width: 1, Height: 1}})
	assert.Error(t, err)

	_, err = New(100, 100, []Zone{{X: 0, Y: 0, Width: 0, Height: 10}})
	assert.Error(t, err)
}

func TestIsWalkable(t *testing.T) {
	m, err := New(200, 200, []Zone{
		{X: 0, Y: 0, Width: 50, Height: 50},
		{X: 100, Y: 100, Width: 50, Height: 50},
	})
	require.NoError(t, err)

	assert.True(t, m.IsWalkable(25, 25))
	assert.True(t, m.IsWalkable(150, 150))
	assert.False(t, m.IsWalkable(75, 75), "gap between zones is not walkable")
}

func TestIsWithinCanvasMargin(t *testing.T) {
	m, err := New(1200, 800, []Zone{{X: 0, Y: 0, Width: 10, Height: 10}})
	require.NoError(t, err)

	assert.True(t, m.IsWithinCanvasMargin(30, 30, 30))
	assert.True(t, m.IsWithinCanvasMargin(1170, 770, 30))
	assert.False(t, m.IsWithinCanvasMargin(29.9, 400, 30))
	assert.False(t, m.IsWithinCanvasMargin(600, 770.1, 30))
}

func TestMapCopiesZones(t *testing.T) {
	zones := []Zone{{X: 0, Y: 0, Width: 10, Height: 10}}
	m, err := New(100, 100, zones)
	require.NoError(t, err)

	zones[0].Width = 1000
	assert.False(t, m.IsWalkable(500, 5), "mutating the input must not change the map")

	got := m.Zones()
	got[0].Width = 1000
	assert.False(t, m.IsWalkable(500, 5), "mutating the returned zones must not change the map")
}

func TestDefaultLayoutSpawnPointsAreWalkable(t *testing.T) {
	layout := DefaultLayout()
	m, err := layout.Map()
	require.NoError(t, err)

	for i, sp := range layout.SpawnPoints {
		assert.True(t, m.IsWalkable(sp.X, sp.Y), "spawn point %d is not walkable", i)
		assert.True(t, m.IsWithinCanvasMargin(sp.X, sp.Y, 30), "spawn point %d is inside the margin", i)
	}
}

func TestLoadLayout(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "layout.json")
	data := `{
		"name": "square",
		"width": 200,
		"height": 200,
		"zones": [{"x": 50, "y": 50, "width": 100, "height": 100}],
		"spawn_points": [{"x": 100, "y": 100}]
	}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	layout, err := LoadLayout(path)
	require.NoError(t, err)
	assert.Equal(t, "square", layout.Name)
	assert.Len(t, layout.Zones, 1)
	assert.Equal(t, SpawnPoint{X: 100, Y: 100}, layout.SpawnPoints[0])
}

func TestLoadLayoutWithoutZones(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "layout.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"width": 10, "height": 10, "spawn_points": [{"x": 1, "y": 1}]}`), 0o644))

	_, err := LoadLayout(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoWalkableZones))
}

func TestValidateLayoutBounds(t *testing.T) {
	tests := []struct {
		name   string
		zones  []Zone
		spawns []SpawnPoint
		errMsg string
	}{
		{
			name:   "inside",
			zones:  []Zone{{X: 0, Y: 0, Width: 1200, Height: 800}},
			spawns: []SpawnPoint{{X: 600, Y: 400}},
		},
		{
			name:   "zone past the canvas",
			zones:  []Zone{{X: 1800, Y: 1200, Width: 300, Height: 200}},
			spawns: []SpawnPoint{{X: 600, Y: 400}},
			errMsg: "zone 0 (1800,1200 300x200) extends past the 1200x800 canvas",
		},
		{
			name:   "zone at negative origin",
			zones:  []Zone{{X: -10, Y: 0, Width: 100, Height: 100}},
			spawns: []SpawnPoint{{X: 50, Y: 50}},
			errMsg: "extends past",
		},
		{
			name:   "empty zone",
			zones:  []Zone{{X: 10, Y: 10, Width: 0, Height: 100}},
			spawns: []SpawnPoint{{X: 50, Y: 50}},
			errMsg: "invalid size",
		},
		{
			name:   "spawn point outside",
			zones:  []Zone{{X: 0, Y: 0, Width: 100, Height: 100}},
			spawns: []SpawnPoint{{X: 50, Y: 50}, {X: 1917, Y: 1289}},
			errMsg: "spawn point 1 (1917,1289) is outside the 1200x800 canvas",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &Layout{Name: "test", Width: 1200, Height: 800, Zones: tt.zones, SpawnPoints: tt.spawns}
			err := l.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}
}

func TestLoadLayoutRejectsZonePastCanvas(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "layout.json")
	data := `{
		"width": 1200,
		"height": 800,
		"zones": [{"x": 1800, "y": 1200, "width": 300, "height": 200}],
		"spawn_points": [{"x": 100, "y": 100}]
	}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	_, err := LoadLayout(path)
	assert.ErrorContains(t, err, "extends past the 1200x800 canvas")
}

func TestMatchCanvas(t *testing.T) {
	l := DefaultLayout()
	assert.NoError(t, l.Validate())
	assert.NoError(t, l.MatchCanvas(1200, 800))
	assert.EqualError(t, l.MatchCanvas(2400, 1600), `layout "town" is 1200x800 but the canvas is 2400x1600`)
}

func TestLoadLayoutMissingFile(t *testing.T) {
	_, err := LoadLayout(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
