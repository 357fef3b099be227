package material

import (
	"math"

	"github.com/df07/go-pathtracer/pkg/core"
)

// ConstantTexture provides uniform color
type ConstantTexture struct {
	Color core.Vec3
}

// NewConstantTexture creates a new solid color texture
func NewConstantTexture(color core.Vec3) ConstantTexture {
	return ConstantTexture{Color: color}
}

// Value returns the solid color regardless of UV or position
func (c ConstantTexture) Value(u, v float64, point core.Vec3) core.Vec3 {
	return c.Color
}

// CheckerTexture alternates between two textures in a 3D checkerboard
// that does not depend on surface parameterization
type CheckerTexture struct {
	Odd  core.Texture
	Even core.Texture
}

// NewCheckerTexture creates a checker pattern from two sub-textures
func NewCheckerTexture(odd, even core.Texture) CheckerTexture {
	return CheckerTexture{Odd: odd, Even: even}
}

// Value selects the odd or even texture from the sign of sin(10x)sin(10y)sin(10z)
func (c CheckerTexture) Value(u, v float64, point core.Vec3) core.Vec3 {
	sines := math.Sin(10*point.X) * math.Sin(10*point.Y) * math.Sin(10*point.Z)
	if sines < 0 {
		return c.Odd.Value(u, v, point)
	}
	return c.Even.Value(u, v, point)
}
