package integrator

import (
	"github.com/df07/go-pathtracer/pkg/core"
)

// Integrator defines the interface for light transport algorithms
type Integrator interface {
	// RayColor estimates the radiance carried back along ray from world,
	// following at most depth bounces. Randomness comes only from sampler;
	// stats may be nil.
	RayColor(ray core.Ray, world core.Shape, sampler core.Sampler, depth int, stats *core.HitStats) core.Vec3
}
