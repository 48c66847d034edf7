package lblgen

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOBJ(t *testing.T) {
	mesh, err := ParseOBJ(strings.NewReader("# comment\no Bottle\nv 1 2 3\nvn 0 0 1\nv -1 0 0.5\n"))
	require.NoError(t, err)
	assert.Equal(t, []mgl64.Vec3{{1, -3, 2}, {-1, -0.5, 0}}, mesh.Vertices)

	_, err = ParseOBJ(strings.NewReader("v 1 2\n"))
	assert.Error(t, err)
	_, err = ParseOBJ(strings.NewReader("v 1 2 x\n"))
	assert.Error(t, err)
}

func TestPreviewEngineImportNames(t *testing.T) {
	dir := t.TempDir()
	path := writeModel(t, dir, "bottle")
	ctx := context.Background()

	e := NewPreviewEngine(90)
	_, err := e.ImportObject(ctx, &PlacedObject{SourcePath: path})
	assert.Error(t, err, "import before scene setup")

	_, err = e.SetupScene(ctx, SceneSetup{Camera: testConfig().Camera, Render: testConfig().Render})
	require.NoError(t, err)

	var names []string
	for i := 0; i < 3; i++ {
		h, err := e.ImportObject(ctx, &PlacedObject{SourcePath: path})
		require.NoError(t, err)
		assert.Equal(t, i, h.ID)
		names = append(names, h.Name)
	}
	assert.Equal(t, []string{"bottle", "bottle.001", "bottle.002"}, names)

	_, err = e.WorldVertices(ctx, MeshHandle{ID: 7, Name: "bottle"})
	assert.Error(t, err)
}

func TestPreviewEngineWorldVertices(t *testing.T) {
	path := writeModel(t, t.TempDir(), "bottle")
	ctx := context.Background()

	e := NewPreviewEngine(90)
	_, err := e.SetupScene(ctx, SceneSetup{Camera: testConfig().Camera, Render: testConfig().Render})
	require.NoError(t, err)

	obj := &PlacedObject{SourcePath: path, Location: mgl64.Vec3{1, 2, 3}}
	h, err := e.ImportObject(ctx, obj)
	require.NoError(t, err)

	vertices, err := e.WorldVertices(ctx, h)
	require.NoError(t, err)
	require.Len(t, vertices, 8)
	for _, v := range vertices {
		assert.InDelta(t, 1, v[0], 1+1e-9)
		assert.InDelta(t, 2, v[1], 1+1e-9)
		assert.InDelta(t, 3, v[2], 1+1e-9)
	}

	obj.Location = mgl64.Vec3{}
	obj.Orientation = mgl64.Vec3{0, 0, 1.2}
	require.NoError(t, e.PlaceObject(ctx, h, obj))
	vertices, err = e.WorldVertices(ctx, h)
	require.NoError(t, err)
	for _, v := range vertices {
		assert.InDelta(t, 1, v.Len()/mgl64.Vec3{1, 1, 1}.Len(), 1e-9)
	}
}

func TestPreviewEngineCameraState(t *testing.T) {
	cfg := DefaultConfig()
	e := NewPreviewEngine(90)
	camera, err := e.SetupScene(context.Background(), SceneSetup{Camera: cfg.Camera,
		Render: cfg.Render})
	require.NoError(t, err)

	assert.True(t, camera.Perspective)
	assert.Equal(t, PerspectiveViewFrame(LensFOV(50, 36), cfg.Render.Resolution()),
		camera.ViewFrame)
	assert.Equal(t, mgl64.Vec3{0, 0, 2}, camera.Location)
}

func TestPreviewEnginePipeline(t *testing.T) {
	assets := newTestAssets(t)
	o := testOptions(t, assets)
	o.Materials = []string{"HDPE", "Aluminium"}
	o.Proportions = []int{50, 50}
	o.ObjectsPerImage = 2
	o.ImageCount = 2
	o.CropObjects = true
	o.TFRecordPath = filepath.Join(t.TempDir(), "train.record")
	o.TFRecordLabelMapPath = filepath.Join(t.TempDir(), "label_map.pbtxt")

	res, err := NewPipeline(NewPreviewEngine(90), testConfig(), o).Run(context.Background())
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		cfg, format, err := decodeImageConfig(filepath.Join(o.OutputLocation,
			res.Dataset.Images[i].FileName))
		require.NoError(t, err)
		assert.Equal(t, "jpeg", format)
		assert.Equal(t, 400, cfg.Width)
		assert.Equal(t, 200, cfg.Height)
	}

	require.NotEmpty(t, res.Dataset.Annotations)
	crops, err := os.ReadDir(filepath.Join(o.OutputLocation, "crops"))
	require.NoError(t, err)
	assert.Len(t, crops, len(res.Dataset.Annotations))

	info, err := os.Stat(o.TFRecordPath)
	require.NoError(t, err)
	assert.NotZero(t, info.Size())
	assert.FileExists(t, o.TFRecordLabelMapPath)
}
