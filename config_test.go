package lblgen

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const testConfigDocument = `
render:
  res_width: 640
  res_height: 480
  res_percentage: 50
  max_bounces: 2
  samples: 16
  tile_x: 64
  tile_y: 64
camera:
  location: [0, 0, 3]
  rotation: [0, 0, 0]
light:
  location: [1, 1, 4]
  energy: 500
  type: SUN
change_skin:
  2: [bottle, can]
  0: [cup]
jazz: 0.25
skins:
  HDPE:
    bottle: [red.png, blue.png]
  Aluminium:
    can: [cola.png]
info_json:
  description: Test set
  version: 1.0
  categories:
    materials:
      HDPE: 7
      Aluminium: 3
    other:
      Glass: 9
  names:
    bottle: HDPE
    can: Aluminium
`

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(testConfigDocument))
	require.NoError(t, err)

	assert.Equal(t, Resolution{Width: 640, Height: 480, Percentage: 50}, cfg.Render.Resolution())
	assert.Equal(t, [3]float64{0, 0, 3}, cfg.Camera.Location)
	// Keys missing from the document keep their defaults.
	assert.Equal(t, CameraPerspective, cfg.Camera.Type)
	assert.Equal(t, 50.0, cfg.Camera.Lens)
	assert.Equal(t, "SUN", cfg.Light.Type)
	assert.Equal(t, 0.25, cfg.Jazz)

	assert.Equal(t, SkinEditCounts{"bottle": 2, "can": 2, "cup": 0}, cfg.ChangeSkin)

	skins, ok := cfg.Skins.Lookup("HDPE", "bottle")
	assert.True(t, ok)
	assert.Equal(t, []string{"red.png", "blue.png"}, skins)
	_, ok = cfg.Skins.Lookup("HDPE", "can")
	assert.False(t, ok)

	want := CategoryTree{
		{Supercategory: "materials", Entries: []CategoryEntry{{"HDPE", 7}, {"Aluminium", 3}}},
		{Supercategory: "other", Entries: []CategoryEntry{{"Glass", 9}}},
	}
	if diff := cmp.Diff(want, cfg.InfoJSON.Categories); diff != "" {
		t.Errorf("unexpected categories (-want +got):\n%s", diff)
	}
	id, ok := cfg.InfoJSON.Categories.ID(MaterialsSupercategory, "HDPE")
	assert.True(t, ok)
	assert.Equal(t, 7, id)
}

func TestSkinEditCountsPerObject(t *testing.T) {
	var c struct {
		ChangeSkin SkinEditCounts `yaml:"change_skin"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("change_skin:\n  bottle: 3\n  can: 0\n"), &c))
	assert.Equal(t, SkinEditCounts{"bottle": 3, "can": 0}, c.ChangeSkin)

	n, ok := c.ChangeSkin.Lookup("bottle")
	assert.True(t, ok)
	assert.Equal(t, 3, n)
	_, ok = c.ChangeSkin.Lookup("cup")
	assert.False(t, ok)
}

func TestConfigRoundTrip(t *testing.T) {
	cfg, err := ParseConfig([]byte(testConfigDocument))
	require.NoError(t, err)

	data, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	again, err := ParseConfig(data)
	require.NoError(t, err)

	if diff := cmp.Diff(cfg.Skins, again.Skins); diff != "" {
		t.Errorf("skins changed (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(cfg.InfoJSON.Categories, again.InfoJSON.Categories); diff != "" {
		t.Errorf("categories changed (-want +got):\n%s", diff)
	}
	assert.Equal(t, cfg.ChangeSkin, again.ChangeSkin)
}

func TestNewCategoryTree(t *testing.T) {
	tree := NewCategoryTree(map[string]map[string]int{
		"materials": {"PET": 2, "HDPE": 1},
	})
	want := CategoryTree{
		{Supercategory: "materials", Entries: []CategoryEntry{{"HDPE", 1}, {"PET", 2}}},
	}
	assert.Equal(t, want, tree)
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"zero width", "render:\n  res_width: 0\n"},
		{"zero percentage", "render:\n  res_percentage: 0\n"},
		{"unknown camera", "camera:\n  type: FISHEYE\n"},
		{"ortho scale", "camera:\n  type: ORTHO\n  ortho_scale: 0\n"},
		{"jazz", "jazz: 1.5\n"},
		{"syntax", "render: [\n"},
		{"change_skin", "change_skin: [1, 2]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.doc))
			var cfgErr *ConfigError
			assert.True(t, errors.As(err, &cfgErr), "got %v", err)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "configuration.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfigDocument), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "Test set", cfg.InfoJSON.Description)

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
