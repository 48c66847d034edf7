package lblgen

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChooseBackgroundRandom(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.png", "b.jpg"} {
		img := imaging.New(4, 4, color.NRGBA{B: 255, A: 255})
		require.NoError(t, imaging.Save(img, filepath.Join(dir, name)))
	}
	// Not an image, despite the extension.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.jpg"), []byte("text"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "d.png"), 0755))

	seen := map[string]bool{}
	rs := NewRandomState(ptr[int64](1))
	for i := 0; i < 50; i++ {
		path, err := ChooseBackground(dir, RandomBackground, rs)
		require.NoError(t, err)
		seen[filepath.Base(path)] = true
	}
	assert.Equal(t, map[string]bool{"a.png": true, "b.jpg": true}, seen)

	// The choice is reproducible for a fixed seed.
	first, err := ChooseBackground(dir, RandomBackground, NewRandomState(ptr[int64](5)))
	require.NoError(t, err)
	second, err := ChooseBackground(dir, RandomBackground, NewRandomState(ptr[int64](5)))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestChooseBackgroundNamed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wood.jpg"), []byte("x"), 0644))

	path, err := ChooseBackground(dir, "wood.jpg", nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "wood.jpg"), path)

	_, err = ChooseBackground(dir, "stone.jpg", nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestChooseBackgroundEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	_, err := ChooseBackground(dir, RandomBackground, NewRandomState(nil))
	assert.Error(t, err)
}
