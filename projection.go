package lblgen

// Projection of mesh geometry to 2D image bounding boxes.

import (
	"math"

	"cogentcore.org/core/math32/minmax"
	"github.com/go-gl/mathgl/mgl64"
)

// Resolution is the output image size. Percentage scales both dimensions.
type Resolution struct {
	Width      int
	Height     int
	Percentage int
}

// Dims returns the scaled output dimensions in pixels.
func (r Resolution) Dims() (x, y float64) {
	fac := float64(r.Percentage) * 0.01
	return float64(r.Width) * fac, float64(r.Height) * fac
}

// BoundingBox is an axis aligned box in pixels, relative to the top-left corner of the image.
//
// The zero box means that the object is not visible.
type BoundingBox struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Visible reports whether the box has a non-zero extent.
func (b BoundingBox) Visible() bool {
	return b.Width > 0 && b.Height > 0
}

// Area is Width * Height.
func (b BoundingBox) Area() int {
	return b.Width * b.Height
}

// LabeledBoundingBox is the bounding box of one object in one image.
type LabeledBoundingBox struct {
	ObjectName string // Base identifier without duplicate suffix.
	Box        BoundingBox
}

// CameraState is the camera of a scene after setup.
//
// ViewFrame holds the corners of the view frustum cross-section in camera space, in the order
// top-right, bottom-right, bottom-left, top-left, each at z < 0.
type CameraState struct {
	Location    mgl64.Vec3
	Rotation    mgl64.Vec3 // Euler angles (XYZ order) in radians.
	ViewFrame   [4]mgl64.Vec3
	Perspective bool
}

// WorldMatrix returns the camera's normalized object-to-world transform.
func (c CameraState) WorldMatrix() mgl64.Mat4 {
	return TransformMatrix(c.Location, c.Rotation)
}

// TransformMatrix composes a translation with an XYZ Euler rotation (X is applied first).
func TransformMatrix(location, rotation mgl64.Vec3) mgl64.Mat4 {
	r := mgl64.HomogRotate3DZ(rotation[2]).
		Mul4(mgl64.HomogRotate3DY(rotation[1])).
		Mul4(mgl64.HomogRotate3DX(rotation[0]))
	return mgl64.Translate3D(location[0], location[1], location[2]).Mul4(r)
}

// PerspectiveViewFrame returns the view frame at unit depth for a camera with the given
// horizontal field of view (radians), fitted to the aspect ratio of res. The field of view applies
// to the longer image side.
func PerspectiveViewFrame(fov float64, res Resolution) [4]mgl64.Vec3 {
	halfX, halfY := fitFrame(math.Tan(fov/2), res)
	return viewFrame(halfX, halfY, 1)
}

// OrthographicViewFrame returns the view frame for an orthographic camera that covers scale world
// units along the longer image side.
func OrthographicViewFrame(scale float64, res Resolution) [4]mgl64.Vec3 {
	halfX, halfY := fitFrame(scale/2, res)
	return viewFrame(halfX, halfY, 1)
}

// LensFOV returns the field of view of a lens with focal length lens for a sensor of the given
// width (both in mm).
func LensFOV(lens, sensorWidth float64) float64 {
	return 2 * math.Atan(sensorWidth/2/lens)
}

func fitFrame(half float64, res Resolution) (halfX, halfY float64) {
	w, h := res.Dims()
	if w >= h {
		return half, half * h / w
	}
	return half * w / h, half
}

func viewFrame(halfX, halfY, depth float64) [4]mgl64.Vec3 {
	return [4]mgl64.Vec3{
		{halfX, halfY, -depth},
		{halfX, -halfY, -depth},
		{-halfX, -halfY, -depth},
		{-halfX, halfY, -depth},
	}
}

// Projector computes the image bounding boxes of meshes as seen by one camera.
type Projector struct {
	camera     CameraState
	resolution Resolution
	toCamera   mgl64.Mat4 // Inverse of the camera world matrix.
}

// NewProjector returns a projector for the camera and output resolution.
func NewProjector(camera CameraState, res Resolution) *Projector {
	return &Projector{
		camera:     camera,
		resolution: res,
		toCamera:   camera.WorldMatrix().Inv(),
	}
}

// NormalizedBounds returns the extents of the world-space vertices in normalized view coordinates,
// where [0, 1] spans the frame from left to right and bottom to top. The ranges are clamped to
// [0, 1], so vertices outside of the frame are clipped to its edges.
//
// Vertices behind the camera are not culled.
func (p *Projector) NormalizedBounds(vertices []mgl64.Vec3) (rx, ry minmax.F64) {
	rx.SetInfinity()
	ry.SetInfinity()

	// The negated top-right, bottom-right and bottom-left corners.
	var frame [3]mgl64.Vec3
	for i := range frame {
		frame[i] = p.camera.ViewFrame[i].Mul(-1)
	}

	for _, v := range vertices {
		co := p.toCamera.Mul4x1(v.Vec4(1)).Vec3()

		corners := frame
		if p.camera.Perspective {
			z := -co[2]
			if z == 0 {
				rx.FitValInRange(0.5)
				ry.FitValInRange(0.5)
				continue
			}
			for i := range corners {
				corners[i] = frame[i].Mul(z / frame[i][2])
			}
		}

		minX, maxX := corners[1][0], corners[2][0]
		minY, maxY := corners[0][1], corners[1][1]
		rx.FitValInRange((co[0] - minX) / (maxX - minX))
		ry.FitValInRange((co[1] - minY) / (maxY - minY))
	}

	unit := minmax.F64{Min: 0, Max: 1}
	rx.Set(unit.ClipValue(rx.Min), unit.ClipValue(rx.Max))
	ry.Set(unit.ClipValue(ry.Min), unit.ClipValue(ry.Max))
	return rx, ry
}

// BoundingBox returns the pixel bounding box of the world-space vertices. It returns the zero
// box if the rounded width or height is zero, or if there are no vertices.
func (p *Projector) BoundingBox(vertices []mgl64.Vec3) BoundingBox {
	if len(vertices) == 0 {
		return BoundingBox{}
	}
	rx, ry := p.NormalizedBounds(vertices)

	dimX, dimY := p.resolution.Dims()
	width := round(rx.Range() * dimX)
	height := round(ry.Range() * dimY)
	if width == 0 || height == 0 {
		return BoundingBox{}
	}

	return BoundingBox{
		X:      round(rx.Min * dimX),
		Y:      round(dimY - ry.Max*dimY),
		Width:  width,
		Height: height,
	}
}

// round rounds half to even.
func round(v float64) int {
	return int(math.RoundToEven(v))
}
