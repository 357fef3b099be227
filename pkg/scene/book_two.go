package scene

import (
	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/material"
	"github.com/df07/go-pathtracer/pkg/renderer"
)

// randomSpheres scatters small spheres over a 22x22 grid around the origin.
// Diffuse spheres bounce upward over [time0, time1] when moving is set.
func randomSpheres(b *builder, moving bool, time0, time1 float64) {
	avoid := core.NewVec3(4, 0.2, 0)

	for a := -11; a < 11; a++ {
		for c := -11; c < 11; c++ {
			center := core.NewVec3(float64(a)+0.9*b.float(), 0.2, float64(c)+0.9*b.float())
			if center.Subtract(avoid).Length() <= 0.9 {
				continue
			}

			choice := b.float()
			switch {
			case choice < 0.8:
				if moving {
					end := center.Add(core.NewVec3(0, 0.5*b.float(), 0))
					b.movingSphere(center, end, time0, time1, 0.2, material.NewLambertian(b.diffuseAlbedo()))
				} else {
					b.sphere(center, 0.2, material.NewLambertian(b.diffuseAlbedo()))
				}
			case choice < 0.95:
				albedo := core.NewVec3(0.5*(1+b.float()), 0.5*(1+b.float()), 0.5*(1+b.float()))
				b.sphere(center, 0.2, material.NewMetal(albedo, 0.5*b.float()))
			default:
				b.sphere(center, 0.2, material.NewDielectric(1.5))
			}
		}
	}
}

// diffuseAlbedo squares each channel, biasing random colors toward dark
func (b *builder) diffuseAlbedo() core.Vec3 {
	return core.NewVec3(b.float()*b.float(), b.float()*b.float(), b.float()*b.float())
}

// coverWorld is the ground, the random field and three large feature spheres
func coverWorld(b *builder, moving bool, time0, time1 float64) {
	b.sphere(core.NewVec3(0, -1000, 0), 1000, material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5)))
	randomSpheres(b, moving, time0, time1)

	b.sphere(core.NewVec3(0, 1, 0), 1, material.NewDielectric(1.5))
	b.sphere(core.NewVec3(-4, 1, 0), 1, material.NewLambertian(core.NewVec3(0.4, 0.2, 0.1)))
	b.sphere(core.NewVec3(4, 1, 0), 1, material.NewMetal(core.NewVec3(0.7, 0.6, 0.5), 0))
}

// NewBookCoverScene creates the random sphere field with glass, diffuse and mirror feature spheres
func NewBookCoverScene(settings renderer.Settings, opts Options) (*Scene, error) {
	b := newBuilder(settings, opts)
	coverWorld(b, false, 0, 0)
	return b.build("book-cover", overviewCamera(0.1, 0, 0))
}

// NewMotionBlurScene animates the diffuse spheres of the book cover over a one second shutter
func NewMotionBlurScene(settings renderer.Settings, opts Options) (*Scene, error) {
	b := newBuilder(settings, opts)
	coverWorld(b, true, 0, 1)
	return b.build("motion-blur", overviewCamera(0.1, 0, 1))
}

// NewCheckerScene stacks two large checkered spheres
func NewCheckerScene(settings renderer.Settings, opts Options) (*Scene, error) {
	b := newBuilder(settings, opts)

	checker := material.NewCheckerTexture(
		material.NewConstantTexture(core.NewVec3(0.2, 0.3, 0.1)),
		material.NewConstantTexture(core.NewVec3(0.9, 0.9, 0.9)),
	)
	b.sphere(core.NewVec3(0, -10, 0), 10, material.NewTexturedLambertian(checker))
	b.sphere(core.NewVec3(0, 10, 0), 10, material.NewTexturedLambertian(checker))

	return b.build("checker", overviewCamera(0, 0, 0))
}

// NewPerlinScene places a noise textured sphere on noise textured ground
func NewPerlinScene(settings renderer.Settings, opts Options) (*Scene, error) {
	b := newBuilder(settings, opts)

	noise := material.NewNoiseTexture(1, material.NewPerlin(b.random))
	b.sphere(core.NewVec3(0, -1000, 0), 1000, material.NewTexturedLambertian(noise))
	b.sphere(core.NewVec3(0, 2, 0), 2, material.NewTexturedLambertian(noise))

	return b.build("perlin", overviewCamera(0, 0, 0))
}
