package lblgen

// An in-process engine that draws object bounding boxes onto the background image.

import (
	"context"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/go-gl/mathgl/mgl64"
)

// previewBoxOpacity is the opacity of the object boxes drawn by the preview engine.
const previewBoxOpacity = 0.6

type previewObject struct {
	name     string
	vertices []mgl64.Vec3 // Model space.

	location    mgl64.Vec3
	orientation mgl64.Vec3
	color       mgl64.Vec4
}

// PreviewEngine is an Engine without physics or shading. It renders each visible object as a box
// in the object's color on top of the background image.
type PreviewEngine struct {
	JPEGQuality int

	camera     CameraState
	resolution Resolution
	background image.Image
	projector  *Projector
	objects    []*previewObject
	names      map[string]int
}

// NewPreviewEngine returns an engine that saves frames with the given JPEG quality.
func NewPreviewEngine(jpegQuality int) *PreviewEngine {
	return &PreviewEngine{JPEGQuality: jpegQuality}
}

// SetupScene implements Engine.
func (e *PreviewEngine) SetupScene(_ context.Context, s SceneSetup) (CameraState, error) {
	e.resolution = s.Render.Resolution()
	e.camera = CameraState{
		Location: mgl64.Vec3(s.Camera.Location),
		Rotation: mgl64.Vec3(s.Camera.Rotation),
	}
	switch s.Camera.Type {
	case CameraOrthographic:
		e.camera.ViewFrame = OrthographicViewFrame(s.Camera.OrthoScale, e.resolution)
	default:
		e.camera.Perspective = true
		e.camera.ViewFrame = PerspectiveViewFrame(LensFOV(s.Camera.Lens, s.Camera.SensorWidth),
			e.resolution)
	}
	e.projector = NewProjector(e.camera, e.resolution)

	e.background = nil
	if s.Background != "" {
		img, err := loadImage(s.Background)
		if err != nil {
			return CameraState{}, fmt.Errorf("failed to load background %q: %v", s.Background, err)
		}
		e.background = img
	}

	e.objects = nil
	e.names = make(map[string]int)
	return e.camera, nil
}

// ImportObject implements Engine. Repeated imports of the same model get the names "name",
// "name.001", "name.002" and so on.
func (e *PreviewEngine) ImportObject(_ context.Context, obj *PlacedObject) (MeshHandle, error) {
	if e.names == nil {
		return MeshHandle{}, fmt.Errorf("scene is not set up")
	}
	mesh, err := ReadOBJ(obj.SourcePath)
	if err != nil {
		return MeshHandle{}, err
	}

	name := obj.Identifier()
	n := e.names[name]
	e.names[name] = n + 1
	if n > 0 {
		name = fmt.Sprintf("%s%s%03d", name, DuplicateSeparator, n)
	}

	e.objects = append(e.objects, &previewObject{
		name:        name,
		vertices:    mesh.Vertices,
		location:    obj.Location,
		orientation: obj.Orientation,
		color:       obj.Color,
	})
	return MeshHandle{ID: len(e.objects) - 1, Name: name}, nil
}

// PrepareBodies implements Engine. The preview engine has no physics.
func (e *PreviewEngine) PrepareBodies(context.Context) error {
	return nil
}

func (e *PreviewEngine) object(h MeshHandle) (*previewObject, error) {
	if h.ID < 0 || h.ID >= len(e.objects) || e.objects[h.ID].name != h.Name {
		return nil, fmt.Errorf("unknown object %q", h.Name)
	}
	return e.objects[h.ID], nil
}

// PlaceObject implements Engine.
func (e *PreviewEngine) PlaceObject(_ context.Context, h MeshHandle, obj *PlacedObject) error {
	o, err := e.object(h)
	if err != nil {
		return err
	}
	o.location = obj.Location
	o.orientation = obj.Orientation
	o.color = obj.Color
	return nil
}

// Settle implements Engine. Objects stay where they were placed.
func (e *PreviewEngine) Settle(context.Context) error {
	return nil
}

// WorldVertices implements Engine.
func (e *PreviewEngine) WorldVertices(_ context.Context, h MeshHandle) ([]mgl64.Vec3, error) {
	o, err := e.object(h)
	if err != nil {
		return nil, err
	}
	return o.worldVertices(), nil
}

func (o *previewObject) worldVertices() []mgl64.Vec3 {
	m := TransformMatrix(o.location, o.orientation)
	world := make([]mgl64.Vec3, len(o.vertices))
	for i, v := range o.vertices {
		world[i] = m.Mul4x1(v.Vec4(1)).Vec3()
	}
	return world
}

// RenderFrame implements Engine.
func (e *PreviewEngine) RenderFrame(_ context.Context, path string) error {
	if e.projector == nil {
		return fmt.Errorf("scene is not set up")
	}
	w, h := e.resolution.Dims()
	width, height := round(w), round(h)
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid output size %dx%d", width, height)
	}

	var frame *image.NRGBA
	if e.background != nil {
		frame = imaging.Fill(e.background, width, height, imaging.Center, imaging.Lanczos)
	} else {
		frame = imaging.New(width, height, color.NRGBA{R: 128, G: 128, B: 128, A: 255})
	}

	for _, o := range e.objects {
		b := e.projector.BoundingBox(o.worldVertices())
		if !b.Visible() {
			continue
		}
		box := imaging.New(b.Width, b.Height, toNRGBA(o.color))
		frame = imaging.Overlay(frame, box, image.Pt(b.X, b.Y), previewBoxOpacity)
	}

	if err := saveImage(path, frame, e.JPEGQuality); err != nil {
		return fmt.Errorf("failed to save %q: %v", path, err)
	}
	return nil
}

// toNRGBA converts an RGB color with channels in [0, 1] to an opaque color.
func toNRGBA(c mgl64.Vec4) color.NRGBA {
	channel := func(v float64) uint8 {
		return uint8(mgl64.Clamp(v, 0, 1)*255 + 0.5)
	}
	return color.NRGBA{R: channel(c[0]), G: channel(c[1]), B: channel(c[2]), A: 255}
}
