package scene

import (
	"math"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/material"
	"github.com/df07/go-pathtracer/pkg/renderer"
)

// NewSkyScene has no primitives; every pixel shows the background gradient
func NewSkyScene(settings renderer.Settings, opts Options) (*Scene, error) {
	return newBuilder(settings, opts).build("sky", chapterCamera())
}

// NewSphereScene creates a single diffuse sphere resting on a large diffuse ground sphere
func NewSphereScene(settings renderer.Settings, opts Options) (*Scene, error) {
	b := newBuilder(settings, opts)

	gray := material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5))
	b.sphere(core.NewVec3(0, 0, -1), 0.5, gray)
	b.sphere(core.NewVec3(0, -100.5, -1), 100, gray)

	return b.build("sphere", chapterCamera())
}

// NewFuzzyMetalScene places a diffuse sphere between two metal spheres of different roughness
func NewFuzzyMetalScene(settings renderer.Settings, opts Options) (*Scene, error) {
	b := newBuilder(settings, opts)

	b.sphere(core.NewVec3(0, 0, -1), 0.5, material.NewLambertian(core.NewVec3(0.8, 0.3, 0.3)))
	b.sphere(core.NewVec3(0, -100.5, -1), 100, material.NewLambertian(core.NewVec3(0.8, 0.8, 0)))
	b.sphere(core.NewVec3(1, 0, -1), 0.5, material.NewMetal(core.NewVec3(0.8, 0.6, 0.2), 0.3))
	b.sphere(core.NewVec3(-1, 0, -1), 0.5, material.NewMetal(core.NewVec3(0.8, 0.8, 0.8), 0.1))

	return b.build("fuzzy-metal", chapterCamera())
}

// hollowGlassWorld places a diffuse sphere, a gold mirror and a hollow glass bubble
func hollowGlassWorld(b *builder) {
	glass := material.NewDielectric(1.9)

	b.sphere(core.NewVec3(0, 0, -1), 0.5, material.NewLambertian(core.NewVec3(0.8, 0.3, 0.3)))
	b.sphere(core.NewVec3(0, -100.5, -1), 100, material.NewLambertian(core.NewVec3(0.8, 0.8, 0)))
	b.sphere(core.NewVec3(1, 0, -1), 0.5, material.NewMetal(core.NewVec3(0.8, 0.6, 0.2), 0))
	b.sphere(core.NewVec3(-1, 0, -1), 0.5, glass)
	// Negative radius flips the normals inward, leaving a thin glass shell
	b.sphere(core.NewVec3(-1, 0, -1), -0.45, glass)
}

// NewHollowGlassScene replaces the fuzzy metal sphere on the left with a hollow glass sphere
func NewHollowGlassScene(settings renderer.Settings, opts Options) (*Scene, error) {
	b := newBuilder(settings, opts)
	hollowGlassWorld(b)
	return b.build("hollow-glass", chapterCamera())
}

// NewFieldOfViewScene places two touching spheres that exactly fill a 90 degree view
func NewFieldOfViewScene(settings renderer.Settings, opts Options) (*Scene, error) {
	b := newBuilder(settings, opts)

	r := math.Cos(math.Pi / 4)
	b.sphere(core.NewVec3(-r, 0, -1), r, material.NewLambertian(core.NewVec3(0, 0, 1)))
	b.sphere(core.NewVec3(r, 0, -1), r, material.NewLambertian(core.NewVec3(1, 0, 0)))

	return b.build("field-of-view", chapterCamera())
}

// NewDepthOfFieldScene views the hollow glass scene through a wide aperture focused on the center sphere
func NewDepthOfFieldScene(settings renderer.Settings, opts Options) (*Scene, error) {
	b := newBuilder(settings, opts)
	hollowGlassWorld(b)

	lookFrom := core.NewVec3(3, 3, 2)
	lookAt := core.NewVec3(0, 0, -1)
	return b.build("depth-of-field", geometry.CameraConfig{
		Center:        lookFrom,
		LookAt:        lookAt,
		Up:            core.NewVec3(0, 1, 0),
		VFov:          20,
		Aperture:      2,
		FocusDistance: lookAt.Subtract(lookFrom).Length(),
	})
}
