package assets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, parts ...string) string {
	t.Helper()
	path := filepath.Join(parts...)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("png"), 0o644))
	return path
}

func TestScanFindsSprites(t *testing.T) {
	dir := t.TempDir()
	alice := touch(t, dir, "sprites", "alice.png")
	bob := touch(t, dir, "sprites", "Bob.PNG")
	fallback := touch(t, dir, "sprites", "default.png")
	slot3 := touch(t, dir, "sprites", "character_3.png")
	touch(t, dir, "sprites", "notes.txt")
	touch(t, dir, "sprites", ".hidden.png")
	bg := touch(t, dir, "town.png")

	c, err := Scan(dir)
	require.NoError(t, err)

	assert.Equal(t, 3, c.Len())
	assert.Equal(t, fallback, c.Default)
	assert.Equal(t, bg, c.Background)

	assert.Equal(t, alice, c.SpriteFor("agent_Alice", 0))
	assert.Equal(t, bob, c.SpriteFor("agent_Bob", 1))
	assert.Equal(t, slot3, c.SpriteFor("agent_Cindy", 2))
	assert.Equal(t, fallback, c.SpriteFor("agent_Dom", 3))
}

func TestScanWithoutSprites(t *testing.T) {
	dir := t.TempDir()

	c, err := Scan(dir)
	require.NoError(t, err)
	assert.Zero(t, c.Len())
	assert.Empty(t, c.Default)
	assert.Empty(t, c.Background)
	assert.Empty(t, c.SpriteFor("agent_Alice", 0))
}

func TestScanMissingDirectory(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	file := touch(t, t.TempDir(), "plain")
	_, err = Scan(file)
	assert.ErrorContains(t, err, "not a directory")
}

func TestResolver(t *testing.T) {
	dir := t.TempDir()
	elise := touch(t, dir, "sprites", "elise.png")
	slot2 := touch(t, dir, "sprites", "character_2.png")
	fallback := touch(t, dir, "sprites", "default.png")

	c, err := Scan(dir)
	require.NoError(t, err)

	spriteFor := c.Resolver([]string{"agent_Alice", "agent_Bob", "agent_Elise"})
	assert.Equal(t, slot2, spriteFor("agent_Bob"))
	assert.Equal(t, elise, spriteFor("agent_Elise"))
	assert.Equal(t, fallback, spriteFor("agent_Alice"))
	assert.Equal(t, fallback, spriteFor("stranger"))
}
