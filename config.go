package lblgen

// The configuration document.

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"
)

// MaterialsSupercategory is the supercategory whose entries map material names to category IDs.
const MaterialsSupercategory = "materials"

// Config is the long term configuration read from the configuration document.
type Config struct {
	Render     RenderConfig   `yaml:"render"`
	Camera     CameraConfig   `yaml:"camera"`
	Light      LightConfig    `yaml:"light"`
	ChangeSkin SkinEditCounts `yaml:"change_skin"`
	Jazz       float64        `yaml:"jazz"` // Probability of a random color when no texture is edited.
	Skins      SkinLibrary    `yaml:"skins"`
	InfoJSON   InfoConfig     `yaml:"info_json"`
}

// RenderConfig holds the render output parameters.
type RenderConfig struct {
	ResWidth      int `yaml:"res_width"`
	ResHeight     int `yaml:"res_height"`
	ResPercentage int `yaml:"res_percentage"`
	MaxBounces    int `yaml:"max_bounces"`
	Samples       int `yaml:"samples"`
	TileX         int `yaml:"tile_x"`
	TileY         int `yaml:"tile_y"`
}

// Resolution returns the output resolution.
func (r RenderConfig) Resolution() Resolution {
	return Resolution{Width: r.ResWidth, Height: r.ResHeight, Percentage: r.ResPercentage}
}

// Camera types.
const (
	CameraPerspective  = "PERSP"
	CameraOrthographic = "ORTHO"
)

// CameraConfig places the scene camera.
type CameraConfig struct {
	Location    [3]float64 `yaml:"location"`
	Rotation    [3]float64 `yaml:"rotation"` // Euler angles (XYZ order) in radians.
	Type        string     `yaml:"type"`     // PERSP or ORTHO.
	Lens        float64    `yaml:"lens"`     // Focal length in mm.
	SensorWidth float64    `yaml:"sensor_width"`
	OrthoScale  float64    `yaml:"ortho_scale"`
}

// LightConfig places the scene light.
type LightConfig struct {
	Location [3]float64 `yaml:"location"`
	Energy   float64    `yaml:"energy"`
	Type     string     `yaml:"type"` // POINT, SUN, SPOT, HEMI or AREA.
}

// InfoConfig configures the dataset description.
type InfoConfig struct {
	Description string            `yaml:"description"`
	Version     interface{}       `yaml:"version"`
	Categories  CategoryTree      `yaml:"categories"`
	Names       map[string]string `yaml:"names"` // Object identifier to material.
}

// SkinLibrary maps material -> object identifier -> skin names.
type SkinLibrary map[string]map[string][]string

// Lookup returns the skins for the object identifier of the given material.
func (l SkinLibrary) Lookup(material, object string) ([]string, bool) {
	objects, ok := l[material]
	if !ok {
		return nil, false
	}
	skins, ok := objects[object]
	return skins, ok && len(skins) > 0
}

// SkinEditCounts maps object identifiers to the number of texture references to rewrite when a
// skin is applied.
//
// In the document it is either "count: [object, ...]" or "object: count".
type SkinEditCounts map[string]int

// Lookup returns the edit count for the object identifier.
func (c SkinEditCounts) Lookup(object string) (int, bool) {
	n, ok := c[object]
	return n, ok
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *SkinEditCounts) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: change_skin must be a mapping", node.Line)
	}
	counts := make(SkinEditCounts, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		if v.Kind == yaml.SequenceNode {
			n, err := strconv.Atoi(k.Value)
			if err != nil {
				return fmt.Errorf("line %d: invalid edit count %q", k.Line, k.Value)
			}
			var objects []string
			if err := v.Decode(&objects); err != nil {
				return err
			}
			for _, o := range objects {
				counts[o] = n
			}
			continue
		}
		var n int
		if err := v.Decode(&n); err != nil {
			return fmt.Errorf("line %d: invalid edit count for %q: %v", v.Line, k.Value, err)
		}
		counts[k.Value] = n
	}
	*c = counts
	return nil
}

// CategoryEntry is a named category ID.
type CategoryEntry struct {
	Name string
	ID   int
}

// CategoryGroup lists the categories of one supercategory.
type CategoryGroup struct {
	Supercategory string
	Entries       []CategoryEntry
}

// CategoryTree is the "supercategory -> {name: id}" mapping in document order.
type CategoryTree []CategoryGroup

// UnmarshalYAML implements yaml.Unmarshaler.
func (t *CategoryTree) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: categories must be a mapping", node.Line)
	}
	tree := make(CategoryTree, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		if v.Kind != yaml.MappingNode {
			return fmt.Errorf("line %d: supercategory %q must be a mapping", v.Line, k.Value)
		}
		group := CategoryGroup{Supercategory: k.Value}
		for j := 0; j+1 < len(v.Content); j += 2 {
			var id int
			if err := v.Content[j+1].Decode(&id); err != nil {
				return fmt.Errorf("line %d: invalid category id for %q: %v",
					v.Content[j+1].Line, v.Content[j].Value, err)
			}
			group.Entries = append(group.Entries, CategoryEntry{Name: v.Content[j].Value, ID: id})
		}
		tree = append(tree, group)
	}
	*t = tree
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (t CategoryTree) MarshalYAML() (interface{}, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, g := range t {
		group := &yaml.Node{Kind: yaml.MappingNode}
		for _, e := range g.Entries {
			group.Content = append(group.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Value: e.Name},
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(e.ID)})
		}
		root.Content = append(root.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: g.Supercategory},
			group)
	}
	return root, nil
}

// NewCategoryTree builds a tree from nested maps, ordering supercategories and names by key.
func NewCategoryTree(m map[string]map[string]int) CategoryTree {
	supers := make([]string, 0, len(m))
	for k := range m {
		supers = append(supers, k)
	}
	sort.Strings(supers)

	tree := make(CategoryTree, 0, len(m))
	for _, s := range supers {
		names := make([]string, 0, len(m[s]))
		for n := range m[s] {
			names = append(names, n)
		}
		sort.Strings(names)

		group := CategoryGroup{Supercategory: s}
		for _, n := range names {
			group.Entries = append(group.Entries, CategoryEntry{Name: n, ID: m[s][n]})
		}
		tree = append(tree, group)
	}
	return tree
}

// ID returns the category ID of name within supercategory.
func (t CategoryTree) ID(supercategory, name string) (int, bool) {
	for _, g := range t {
		if g.Supercategory != supercategory {
			continue
		}
		for _, e := range g.Entries {
			if e.Name == name {
				return e.ID, true
			}
		}
	}
	return 0, false
}

// DefaultConfig returns the configuration used for keys missing from the document.
func DefaultConfig() *Config {
	return &Config{
		Render: RenderConfig{
			ResWidth:      1200,
			ResHeight:     800,
			ResPercentage: 100,
			MaxBounces:    4,
			Samples:       64,
			TileX:         256,
			TileY:         256,
		},
		Camera: CameraConfig{
			Location:    [3]float64{0, 0, 2},
			Type:        CameraPerspective,
			Lens:        50,
			SensorWidth: 36,
			OrthoScale:  6,
		},
		Light: LightConfig{
			Location: [3]float64{0, 0, 3},
			Energy:   1000,
			Type:     "POINT",
		},
		InfoJSON: InfoConfig{
			Description: "Synthetic dataset",
			Version:     1,
		},
	}
}

// ParseConfig decodes a configuration document on top of DefaultConfig and validates it.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &ConfigError{Msg: err.Error()}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig reads the configuration document at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read configuration %q: %w", path, err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("configuration %q: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the values that the pipeline depends on.
func (c *Config) Validate() error {
	r := c.Render
	if r.ResWidth <= 0 || r.ResHeight <= 0 {
		return configErrorf("render resolution must be positive, got %dx%d", r.ResWidth, r.ResHeight)
	}
	if r.ResPercentage <= 0 {
		return configErrorf("render.res_percentage must be positive, got %d", r.ResPercentage)
	}
	switch c.Camera.Type {
	case CameraPerspective:
		if c.Camera.Lens <= 0 || c.Camera.SensorWidth <= 0 {
			return configErrorf("camera lens and sensor_width must be positive")
		}
	case CameraOrthographic:
		if c.Camera.OrthoScale <= 0 {
			return configErrorf("camera.ortho_scale must be positive")
		}
	default:
		return configErrorf("unknown camera type %q", c.Camera.Type)
	}
	if c.Jazz < 0 || c.Jazz > 1 {
		return configErrorf("jazz must be a probability in [0, 1], got %v", c.Jazz)
	}
	return nil
}
