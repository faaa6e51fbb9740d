// Package assets finds the art a village needs on disk: one sprite sheet per
// character, a shared fallback sheet and the town background.
package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	spritesDir     = "sprites"
	defaultSprite  = "default.png"
	backgroundFile = "town.png"
)

// Catalog is the result of scanning an asset directory
type Catalog struct {
	Dir        string
	Default    string            // Fallback sheet path, empty when missing
	Background string            // Town background path, empty when missing
	sprites    map[string]string // Lowercase base name -> path
}

// Scan reads dir/sprites for PNG sheets and looks for the town background.
// A missing sprites directory is not an error; every character then uses
// the fallback sheet or the palette placeholder.
func Scan(dir string) (*Catalog, error) {
	c := &Catalog{Dir: dir, sprites: make(map[string]string)}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read asset directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("asset path %s is not a directory", dir)
	}

	if bg := filepath.Join(dir, backgroundFile); isFile(bg) {
		c.Background = bg
	}

	entries, err := os.ReadDir(filepath.Join(dir, spritesDir))
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("failed to read sprites directory: %w", err)
	}

	for _, entry := range entries {
		// Skip directories and hidden files
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if !strings.EqualFold(filepath.Ext(name), ".png") {
			continue
		}

		path := filepath.Join(dir, spritesDir, name)
		base := strings.ToLower(strings.TrimSuffix(name, filepath.Ext(name)))
		if base+".png" == defaultSprite {
			c.Default = path
			continue
		}
		c.sprites[base] = path
	}

	return c, nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Len is the number of character sheets found, not counting the fallback.
func (c *Catalog) Len() int { return len(c.sprites) }

// SpriteFor picks the sheet for a character: a sheet named after it
// ("agent_Alice" -> alice.png), then the numbered sheet for its roster slot
// (character_1.png for index 0), then the fallback.
func (c *Catalog) SpriteFor(name string, index int) string {
	if p, ok := c.sprites[spriteKey(name)]; ok {
		return p
	}
	if p, ok := c.sprites[fmt.Sprintf("character_%d", index+1)]; ok {
		return p
	}
	return c.Default
}

// Resolver binds SpriteFor to a roster so callers can look sheets up by
// name alone.
func (c *Catalog) Resolver(names []string) func(name string) string {
	slots := make(map[string]int, len(names))
	for i, n := range names {
		if _, dup := slots[n]; !dup {
			slots[n] = i
		}
	}
	return func(name string) string {
		i, ok := slots[name]
		if !ok {
			i = -1
		}
		return c.SpriteFor(name, i)
	}
}

func spriteKey(name string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), "agent_")
}
