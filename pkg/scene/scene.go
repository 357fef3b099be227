package scene

import (
	"fmt"
	"math/rand"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/renderer"
)

// Scene contains all the elements needed for rendering
type Scene struct {
	Name         string
	Camera       *geometry.Camera
	CameraConfig geometry.CameraConfig
	World        core.Shape // Root of the acceleration structure
	Primitives   int        // Number of primitives placed in the world
}

// GetCamera returns the scene camera
func (s *Scene) GetCamera() core.Camera {
	return s.Camera
}

// GetWorld returns the root shape
func (s *Scene) GetWorld() core.Shape {
	return s.World
}

// Options controls how a builtin scene is assembled
type Options struct {
	Seed        int64 // Seeds random scene content and noise tables
	RecordStats bool  // Wrap primitives and the world in StatsRecorders
}

// builder places primitives into a scene under construction
type builder struct {
	settings renderer.Settings
	random   *rand.Rand
	stats    bool
	shapes   []core.Shape
}

func newBuilder(settings renderer.Settings, opts Options) *builder {
	return &builder{
		settings: settings,
		random:   rand.New(rand.NewSource(opts.Seed)),
		stats:    opts.RecordStats,
	}
}

func (b *builder) record(category string, shape core.Shape) core.Shape {
	if !b.stats {
		return shape
	}
	return geometry.NewStatsRecorder(category, shape)
}

func (b *builder) sphere(center core.Vec3, radius float64, material core.Material) {
	b.shapes = append(b.shapes, b.record("sphere", geometry.NewSphere(center, radius, material)))
}

func (b *builder) movingSphere(center0, center1 core.Vec3, time0, time1, radius float64, material core.Material) {
	shape := geometry.NewMovingSphere(center0, center1, time0, time1, radius, material)
	b.shapes = append(b.shapes, b.record("moving-sphere", shape))
}

// float returns the next uniform value in [0, 1) of the scene generator
func (b *builder) float() float64 {
	return b.random.Float64()
}

// build wraps the placed primitives in a bounding hierarchy over [time0, time1].
// A scene without primitives gets an empty list, which every ray misses.
func (b *builder) build(name string, config geometry.CameraConfig) (*Scene, error) {
	config.AspectRatio = b.settings.AspectRatio()

	var world core.Shape = geometry.NewHitableList(nil)
	if len(b.shapes) > 0 {
		hierarchy, err := geometry.NewBoundingHierarchy(b.shapes, config.Time0, config.Time1, b.random)
		if err != nil {
			return nil, fmt.Errorf("building %s scene: %w", name, err)
		}
		world = hierarchy
	}

	return &Scene{
		Name:         name,
		Camera:       geometry.NewCamera(config),
		CameraConfig: config,
		World:        b.record("world", world),
		Primitives:   len(b.shapes),
	}, nil
}

// chapterCamera is the fixed viewpoint of the first book chapters
func chapterCamera() geometry.CameraConfig {
	return geometry.CameraConfig{
		Center:        core.NewVec3(0, 0, 0),
		LookAt:        core.NewVec3(0, 0, -1),
		Up:            core.NewVec3(0, 1, 0),
		VFov:          90,
		FocusDistance: 1,
	}
}

// overviewCamera looks at the origin from far away with a narrow field of view
func overviewCamera(aperture, time0, time1 float64) geometry.CameraConfig {
	return geometry.CameraConfig{
		Center:        core.NewVec3(13, 2, 3),
		LookAt:        core.NewVec3(0, 0, 0),
		Up:            core.NewVec3(0, 1, 0),
		VFov:          20,
		Aperture:      aperture,
		FocusDistance: 10,
		Time0:         time0,
		Time1:         time1,
	}
}
