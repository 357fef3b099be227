package material

import (
	"math/rand"
	"testing"

	"github.com/df07/go-pathtracer/pkg/core"
)

func TestConstantTexture(t *testing.T) {
	color := core.NewVec3(0.2, 0.4, 0.6)
	texture := NewConstantTexture(color)
	for _, p := range []core.Vec3{core.NewVec3(0, 0, 0), core.NewVec3(-5, 3, 100)} {
		if got := texture.Value(0.3, 0.9, p); got != color {
			t.Errorf("Expected %v at %v, got %v", color, p, got)
		}
	}
}

func TestCheckerTexture(t *testing.T) {
	odd := NewConstantTexture(core.NewVec3(0.2, 0.3, 0.1))
	even := NewConstantTexture(core.NewVec3(0.9, 0.9, 0.9))
	checker := NewCheckerTexture(odd, even)

	tests := []struct {
		name     string
		point    core.Vec3
		expected core.Vec3
	}{
		{"all positive sines", core.NewVec3(0.1, 0.1, 0.1), even.Color},
		{"one negative sine", core.NewVec3(-0.1, 0.1, 0.1), odd.Color},
		{"two negative sines", core.NewVec3(-0.1, -0.1, 0.1), even.Color},
		{"next cell along x", core.NewVec3(0.4, 0.1, 0.1), odd.Color},
		{"on a boundary plane", core.NewVec3(0, 0.1, 0.1), even.Color},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checker.Value(0, 0, tt.point); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestCheckerTexture_Nested(t *testing.T) {
	inner := NewCheckerTexture(NewConstantTexture(core.NewVec3(1, 0, 0)), NewConstantTexture(core.NewVec3(0, 1, 0)))
	outer := NewCheckerTexture(inner, NewConstantTexture(core.NewVec3(0, 0, 1)))

	p := core.NewVec3(-0.1, 0.1, 0.1)
	if got := outer.Value(0, 0, p); got != core.NewVec3(1, 0, 0) {
		t.Errorf("Expected nested odd color, got %v", got)
	}
}

func TestPerlin_Deterministic(t *testing.T) {
	a := NewPerlin(rand.New(rand.NewSource(99)))
	b := NewPerlin(rand.New(rand.NewSource(99)))
	random := rand.New(rand.NewSource(1))

	for i := 0; i < 200; i++ {
		p := core.NewVec3(random.Float64()*20-10, random.Float64()*20-10, random.Float64()*20-10)
		first := a.Noise(p)
		if second := a.Noise(p); second != first {
			t.Fatalf("Repeated noise at %v differs: %f vs %f", p, first, second)
		}
		if other := b.Noise(p); other != first {
			t.Fatalf("Same seed gives different noise at %v: %f vs %f", p, first, other)
		}
	}
}

func TestPerlin_ZeroOnLattice(t *testing.T) {
	perlin := NewPerlin(rand.New(rand.NewSource(5)))
	for _, p := range []core.Vec3{core.NewVec3(0, 0, 0), core.NewVec3(3, -2, 7), core.NewVec3(-300, 12, 1)} {
		if got := perlin.Noise(p); got != 0 {
			t.Errorf("Expected zero noise at lattice point %v, got %f", p, got)
		}
	}
}

func TestPerlin_WrapsNegativeCoordinates(t *testing.T) {
	perlin := NewPerlin(rand.New(rand.NewSource(5)))
	negative := core.NewVec3(-3.25, 1.5, -0.75)
	wrapped := core.NewVec3(252.75, 1.5, 255.25)
	if a, b := perlin.Noise(negative), perlin.Noise(wrapped); a != b {
		t.Errorf("Expected lattice to repeat every 256 cells: %f vs %f", a, b)
	}
}

func TestNoiseTexture_Range(t *testing.T) {
	texture := NewNoiseTexture(4, NewPerlin(rand.New(rand.NewSource(3))))
	random := rand.New(rand.NewSource(4))

	for i := 0; i < 1000; i++ {
		p := core.NewVec3(random.Float64()*10-5, random.Float64()*10-5, random.Float64()*10-5)
		c := texture.Value(0, 0, p)
		if c.X != c.Y || c.Y != c.Z {
			t.Fatalf("Expected grey, got %v", c)
		}
		if c.X < 0 || c.X > 1 {
			t.Fatalf("Noise value %f outside [0, 1] at %v", c.X, p)
		}
	}

	if got := texture.Value(0, 0, core.NewVec3(0, 0, 0)); got != core.NewVec3(0.5, 0.5, 0.5) {
		t.Errorf("Expected mid grey at the origin, got %v", got)
	}
}
