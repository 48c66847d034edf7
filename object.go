package lblgen

import (
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// DuplicateSeparator separates an object's base identifier from suffixes such as the ".001" that
// scene engines append to duplicate names.
const DuplicateSeparator = "."

// Placement holds fixed values for the placement fields of sampled objects. A nil field is drawn
// at random and redrawn on every call to PlacedObject.Randomize.
type Placement struct {
	Location    *mgl64.Vec3
	Orientation *mgl64.Vec3 // Euler angles in radians.
	Color       *mgl64.Vec4 // RGBA.
}

// PlacedObject is a sampled model with its transform, color and skin.
type PlacedObject struct {
	SourcePath string // The .obj model file.
	Material   string // The material category the model was sampled for.
	Skin       string // The skin written to the model's material file, if any.

	Location    mgl64.Vec3
	Orientation mgl64.Vec3 // Euler angles (XYZ order) in radians.
	Color       mgl64.Vec4

	RandomLocation    bool
	RandomOrientation bool
	RandomColor       bool
}

// NewPlacedObject creates an object for the model at path. Fields not fixed by p are flagged as
// random and drawn from rs immediately.
func NewPlacedObject(path, material string, p Placement, rs *RandomState) *PlacedObject {
	o := &PlacedObject{
		SourcePath:        path,
		Material:          material,
		RandomLocation:    p.Location == nil,
		RandomOrientation: p.Orientation == nil,
		RandomColor:       p.Color == nil,
	}
	if p.Location != nil {
		o.Location = *p.Location
	}
	if p.Orientation != nil {
		o.Orientation = *p.Orientation
	}
	if p.Color != nil {
		o.Color = *p.Color
	}
	o.Randomize(rs)
	return o
}

// Randomize redraws the random fields in the order location, orientation, color. Fixed fields are
// left untouched.
func (o *PlacedObject) Randomize(rs *RandomState) {
	if o.RandomLocation {
		o.Location = rs.Location()
	}
	if o.RandomOrientation {
		o.Orientation = rs.Orientation()
	}
	if o.RandomColor {
		o.Color = rs.Color()
	}
}

// Identifier is the base name of the model file without extension and duplicate suffix.
func (o *PlacedObject) Identifier() string {
	base := filepath.Base(o.SourcePath)
	return BaseIdentifier(strings.TrimSuffix(base, filepath.Ext(base)))
}

// MaterialFilePath is the path of the .mtl sidecar next to the model file.
func (o *PlacedObject) MaterialFilePath() string {
	return strings.TrimSuffix(o.SourcePath, filepath.Ext(o.SourcePath)) + ".mtl"
}

// BaseIdentifier strips everything from the first DuplicateSeparator on, so "Cube.001" becomes
// "Cube".
func BaseIdentifier(name string) string {
	if i := strings.Index(name, DuplicateSeparator); i >= 0 {
		return name[:i]
	}
	return name
}
