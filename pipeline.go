package lblgen

// The end-to-end generation run.

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// Asset directories below Options.AssetDir.
const (
	ModelsDir        = "Models"
	CrushedModelsDir = "Crushed Models"
	BackgroundsDir   = "Backgrounds"
)

// State is the stage of a pipeline run.
type State int

// The pipeline states, in the order a successful run passes through them.
const (
	StateIdle State = iota
	StateSampling
	StateSceneSetup
	StatePlacement
	StateAggregating
	StateDone
	StateFailed
)

var stateNames = [...]string{"idle", "sampling", "scene setup", "placement", "aggregating", "done",
	"failed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Result is the outcome of a run.
type Result struct {
	Dataset    *Dataset        // Nil if the run stopped after crushing.
	Objects    []*PlacedObject // The sampled objects, after crushing.
	Frames     [][]LabeledBoundingBox
	Seed       int64   // The run seed.
	FrameSeeds []int64 // The seed each frame was randomized with.
	Timings    Timings
}

// pooledMesh is an object imported into the engine.
type pooledMesh struct {
	handle MeshHandle
	object *PlacedObject
}

// Pipeline renders a dataset of randomized scenes with one engine. A Pipeline performs a single
// run and is not safe for concurrent use.
type Pipeline struct {
	Engine  Engine
	Config  *Config
	Options *Options
	Now     func() time.Time // The clock; time.Now if nil.

	state State
}

// NewPipeline returns a pipeline in StateIdle.
func NewPipeline(engine Engine, cfg *Config, opts *Options) *Pipeline {
	return &Pipeline{Engine: engine, Config: cfg, Options: opts}
}

// State returns the current stage of the run.
func (p *Pipeline) State() State {
	return p.state
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// Run executes the pipeline. The options are validated before any sampling takes place. The
// context is checked between frames only; a canceled run returns the context's error.
func (p *Pipeline) Run(ctx context.Context) (res *Result, err error) {
	if p.state != StateIdle {
		return nil, fmt.Errorf("pipeline has already run (state %s)", p.state)
	}
	defer func() {
		if err != nil {
			p.state = StateFailed
		}
	}()

	if err := p.validate(); err != nil {
		return nil, err
	}

	start := p.now()
	res = &Result{}

	// The run seed drives the sampling stream and, if fixed, the frame seeds.
	seeds := NewRandomState(p.Options.Seed)
	res.Seed = seeds.Seed()
	rs := NewRandomState(ptr(seeds.Int63()))
	log.Printf("Run seed %d", res.Seed)

	// Sampling.
	p.state = StateSampling
	t := p.now()
	objects, err := p.sample(ctx, rs)
	if err != nil {
		return nil, err
	}
	res.Objects = objects
	res.Timings.ObjectCreation = p.now().Sub(t)

	if p.Options.OnlyCrush {
		log.Printf("Crushed %d models", len(objects))
		res.Timings.Total = p.now().Sub(start)
		p.state = StateDone
		return res, nil
	}

	// Scene setup.
	p.state = StateSceneSetup
	t = p.now()
	camera, meshes, err := p.setupScene(ctx, rs, objects)
	if err != nil {
		return nil, err
	}
	res.Timings.ObjectSetup = p.now().Sub(t)
	res.Timings.SceneRendered = true

	if err := os.MkdirAll(p.Options.OutputLocation, 0755); err != nil {
		return nil, fmt.Errorf("cannot create output directory %q: %w", p.Options.OutputLocation,
			err)
	}

	// Placement.
	p.state = StatePlacement
	projector := NewProjector(camera, p.Config.Render.Resolution())
	for i := 0; i < p.Options.ImageCount; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run canceled before image %d: %w", i, err)
		}
		t = p.now()

		frameSeed := entropySeed()
		if p.Options.Seed != nil {
			frameSeed = seeds.Int63()
		}
		res.FrameSeeds = append(res.FrameSeeds, frameSeed)

		boxes, err := p.renderFrame(ctx, i, frameSeed, rs, projector, meshes)
		if err != nil {
			return nil, err
		}
		res.Frames = append(res.Frames, boxes)
		res.Timings.Images = append(res.Timings.Images, p.now().Sub(t))
	}

	// Aggregation.
	p.state = StateAggregating
	res.Dataset = BuildDataset(p.Config.InfoJSON, p.Config.Render.Resolution(), res.Frames,
		p.now())
	if err := p.export(res.Dataset, seeds); err != nil {
		return nil, err
	}

	res.Timings.Total = p.now().Sub(start)
	p.state = StateDone
	return res, nil
}

// validate checks options and configuration before anything is sampled.
func (p *Pipeline) validate() error {
	if p.Options == nil || p.Config == nil {
		return configErrorf("missing options or configuration")
	}
	if err := p.Options.Validate(); err != nil {
		return err
	}
	if err := p.Config.Validate(); err != nil {
		return err
	}
	if p.Options.OnlyCrush {
		if _, ok := p.Engine.(Crusher); !ok {
			return configErrorf("only_crush requires an engine that can crush models")
		}
	}
	return nil
}

// sample selects the objects for the run and crushes them if requested.
func (p *Pipeline) sample(ctx context.Context, rs *RandomState) ([]*PlacedObject, error) {
	modelDir := filepath.Join(p.Options.AssetDir, ModelsDir)
	if p.Options.ReuseCrushes {
		modelDir = filepath.Join(p.Options.AssetDir, CrushedModelsDir)
	}

	sampler := NewSampler(modelDir, p.Config, rs)
	quotas := Quotas(p.Options.ObjectsPerImage, p.Options.Proportions)
	objects, err := sampler.SampleAll(p.Options.Materials, quotas)
	if err != nil {
		return nil, err
	}
	log.Printf("Sampled %d objects (%v of %v)", len(objects), quotas, p.Options.Materials)

	if !p.Options.Crush() {
		return objects, nil
	}
	crusher, ok := p.Engine.(Crusher)
	if !ok {
		log.Print("The engine cannot crush models, using them as they are")
		return objects, nil
	}
	for i, obj := range objects {
		dir := filepath.Join(p.Options.AssetDir, CrushedModelsDir, obj.Material)
		crushed, err := crusher.Crush(ctx, obj, dir)
		if err != nil {
			return nil, engineErr("crush", err)
		}
		objects[i] = crushed
	}
	return objects, nil
}

// setupScene builds the static scene and imports every object once.
func (p *Pipeline) setupScene(ctx context.Context, rs *RandomState, objects []*PlacedObject) (
	CameraState, []pooledMesh, error) {

	background, err := ChooseBackground(filepath.Join(p.Options.AssetDir, BackgroundsDir),
		p.Options.Background, rs)
	if err != nil {
		return CameraState{}, nil, err
	}

	camera, err := p.Engine.SetupScene(ctx, SceneSetup{
		Camera:     p.Config.Camera,
		Light:      p.Config.Light,
		Render:     p.Config.Render,
		Background: background,
	})
	if err != nil {
		return CameraState{}, nil, engineErr("scene setup", err)
	}

	meshes := make([]pooledMesh, 0, len(objects))
	imports := make(map[string]int)
	for _, obj := range objects {
		h, err := p.Engine.ImportObject(ctx, obj)
		if err != nil {
			return CameraState{}, nil, engineErr("import "+obj.SourcePath, err)
		}
		meshes = append(meshes, pooledMesh{handle: h, object: obj})
		imports[obj.SourcePath]++
	}
	for path, n := range imports {
		log.Printf("Imported %q %d times", path, n)
	}

	if err := p.Engine.PrepareBodies(ctx); err != nil {
		return CameraState{}, nil, engineErr("prepare bodies", err)
	}
	return camera, meshes, nil
}

// renderFrame randomizes and settles the objects, computes their bounding boxes and renders image
// i.
func (p *Pipeline) renderFrame(ctx context.Context, i int, seed int64, rs *RandomState,
	projector *Projector, meshes []pooledMesh) ([]LabeledBoundingBox, error) {

	rs.Reseed(seed)
	for _, m := range meshes {
		m.object.Randomize(rs)
		if err := p.Engine.PlaceObject(ctx, m.handle, m.object); err != nil {
			return nil, engineErr("place "+m.handle.Name, err)
		}
	}
	if err := p.Engine.Settle(ctx); err != nil {
		return nil, engineErr("settle", err)
	}

	boxes := make([]LabeledBoundingBox, 0, len(meshes))
	for _, m := range meshes {
		vertices, err := p.Engine.WorldVertices(ctx, m.handle)
		if err != nil {
			return nil, engineErr("vertices of "+m.handle.Name, err)
		}
		boxes = append(boxes, LabeledBoundingBox{
			ObjectName: BaseIdentifier(m.handle.Name),
			Box:        projector.BoundingBox(vertices),
		})
	}

	path := filepath.Join(p.Options.OutputLocation, DatasetImageName(i))
	if err := p.Engine.RenderFrame(ctx, path); err != nil {
		return nil, engineErr("render "+path, err)
	}
	log.Printf("Rendered %q with %d objects", path, len(boxes))
	return boxes, nil
}

// export writes the dataset description and the requested derived outputs.
func (p *Pipeline) export(ds *Dataset, rs *RandomState) error {
	o := p.Options
	if err := WriteDataset(filepath.Join(o.OutputLocation, DatasetFileName), ds); err != nil {
		return err
	}
	if len(o.Splits) > 1 {
		if err := WriteSplits(o.OutputLocation, ds, o.Splits, rs); err != nil {
			return err
		}
	}
	if o.TFRecordPath != "" {
		if err := WriteTFRecord(o.TFRecordPath, o.TFRecordLabelMapPath, o.OutputLocation, ds,
			o.NumShards); err != nil {
			return err
		}
	}
	if o.KittiDir != "" {
		if err := WriteKitti(o.KittiDir, ToKitti(ds)); err != nil {
			return err
		}
	}
	if o.CropObjects {
		cropDir := filepath.Join(o.OutputLocation, "crops")
		if err := CropObjects(ds, o.OutputLocation, cropDir, o.JPEGQuality); err != nil {
			return err
		}
	}
	return nil
}

func ptr[T any](v T) *T {
	return &v
}
