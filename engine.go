package lblgen

// The interface to the 3D scene engine.

import (
	"context"

	"github.com/go-gl/mathgl/mgl64"
)

// MeshHandle refers to an object imported into the engine's scene.
type MeshHandle struct {
	ID   int
	Name string // The engine-assigned object name, possibly with a duplicate suffix.
}

// SceneSetup describes the static parts of the scene.
type SceneSetup struct {
	Camera     CameraConfig
	Light      LightConfig
	Render     RenderConfig
	Background string // Path of the background image.
}

// Engine is a single active 3D scene. Implementations are not expected to be safe for concurrent
// use; the pipeline drives them strictly sequentially.
type Engine interface {
	// SetupScene clears the scene and sets up camera, light, background and render parameters.
	SetupScene(ctx context.Context, s SceneSetup) (CameraState, error)

	// ImportObject imports the model of obj and applies its current transform and color.
	ImportObject(ctx context.Context, obj *PlacedObject) (MeshHandle, error)

	// PrepareBodies makes all imported objects rigid bodies.
	PrepareBodies(ctx context.Context) error

	// PlaceObject resets the transform and color of an imported object to those of obj.
	PlaceObject(ctx context.Context, h MeshHandle, obj *PlacedObject) error

	// Settle advances the physics simulation until the objects have come to rest.
	Settle(ctx context.Context) error

	// WorldVertices returns the object's current mesh vertices in world space.
	WorldVertices(ctx context.Context, h MeshHandle) ([]mgl64.Vec3, error)

	// RenderFrame renders the current scene to the image file at path.
	RenderFrame(ctx context.Context, path string) error
}

// Crusher is implemented by engines that can deform models and export the result.
type Crusher interface {
	// Crush deforms the model of obj, exports it to dir and returns an object for the exported
	// model.
	Crush(ctx context.Context, obj *PlacedObject, dir string) (*PlacedObject, error)
}
