package material

import (
	"math"
	"math/rand"

	"github.com/df07/go-pathtracer/pkg/core"
)

const perlinPointCount = 256

// Perlin holds the gradient lattice for Perlin noise. It is built once and
// only read afterwards, so a single instance can back any number of textures
// across render workers.
type Perlin struct {
	gradients [perlinPointCount]core.Vec3
	permX     [perlinPointCount]int
	permY     [perlinPointCount]int
	permZ     [perlinPointCount]int
}

// NewPerlin builds a lattice of random unit gradients and three permutation tables from random
func NewPerlin(random *rand.Rand) *Perlin {
	p := &Perlin{}
	for i := range p.gradients {
		p.gradients[i] = core.NewVec3(
			-1+2*random.Float64(),
			-1+2*random.Float64(),
			-1+2*random.Float64(),
		).Normalize()
	}
	copy(p.permX[:], random.Perm(perlinPointCount))
	copy(p.permY[:], random.Perm(perlinPointCount))
	copy(p.permZ[:], random.Perm(perlinPointCount))
	return p
}

// Noise returns gradient noise at point, roughly in [-1, 1]
func (p *Perlin) Noise(point core.Vec3) float64 {
	fi, fj, fk := math.Floor(point.X), math.Floor(point.Y), math.Floor(point.Z)
	u, v, w := point.X-fi, point.Y-fj, point.Z-fk
	i, j, k := int(fi), int(fj), int(fk)

	var c [2][2][2]core.Vec3
	for di := 0; di < 2; di++ {
		for dj := 0; dj < 2; dj++ {
			for dk := 0; dk < 2; dk++ {
				// & wraps negative lattice coordinates too
				index := p.permX[(i+di)&255] ^ p.permY[(j+dj)&255] ^ p.permZ[(k+dk)&255]
				c[di][dj][dk] = p.gradients[index]
			}
		}
	}

	return perlinInterp(c, u, v, w)
}

// perlinInterp blends the corner gradients with Hermite smoothing
func perlinInterp(c [2][2][2]core.Vec3, u, v, w float64) float64 {
	uu := u * u * (3 - 2*u)
	vv := v * v * (3 - 2*v)
	ww := w * w * (3 - 2*w)

	accum := 0.0
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			for k := 0; k < 2; k++ {
				fi, fj, fk := float64(i), float64(j), float64(k)
				weight := core.NewVec3(u-fi, v-fj, w-fk)
				accum += (fi*uu + (1-fi)*(1-uu)) *
					(fj*vv + (1-fj)*(1-vv)) *
					(fk*ww + (1-fk)*(1-ww)) *
					c[i][j][k].Dot(weight)
			}
		}
	}
	return accum
}

// NoiseTexture is a grey marble-like texture driven by Perlin noise
type NoiseTexture struct {
	Scale  float64
	Perlin *Perlin
}

// NewNoiseTexture creates a noise texture sampling perlin at the given spatial frequency
func NewNoiseTexture(scale float64, perlin *Perlin) NoiseTexture {
	return NoiseTexture{Scale: scale, Perlin: perlin}
}

// Value maps noise at the scaled point into [0, 1] grey
func (n NoiseTexture) Value(u, v float64, point core.Vec3) core.Vec3 {
	return core.NewVec3(1, 1, 1).Multiply(0.5 * (1 + n.Perlin.Noise(point.Multiply(n.Scale))))
}
