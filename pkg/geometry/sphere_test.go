package geometry

import (
	"math"
	"math/rand"
	"testing"

	"github.com/df07/go-pathtracer/pkg/core"
)

// MockMaterial is a distinguishable material that never scatters
type MockMaterial struct {
	Name string
}

func (m *MockMaterial) Scatter(rayIn core.Ray, hit core.HitRecord, sampler core.Sampler) (core.ScatterResult, bool) {
	return core.ScatterResult{}, false
}

func TestSphere_Hit_Miss(t *testing.T) {
	sphere := NewSphere(core.NewVec3(0, 0, 0), 1.0, &MockMaterial{})
	ray := core.NewRay(core.NewVec3(2, 0, 0), core.NewVec3(0, 1, 0))

	hit, isHit := sphere.Hit(ray, 0.001, 1000.0, nil)
	if isHit {
		t.Errorf("Expected miss, but got hit at t=%f", hit.T)
	}
}

func TestSphere_Hit_OutsideAndInside(t *testing.T) {
	sphere := NewSphere(core.NewVec3(0, 0, 0), 1.0, &MockMaterial{})

	tests := []struct {
		name           string
		rayOrigin      core.Vec3
		rayDirection   core.Vec3
		expectedT      float64
		expectedNormal core.Vec3
	}{
		{
			name:           "ray from outside hits near side",
			rayOrigin:      core.NewVec3(0, 0, 2),
			rayDirection:   core.NewVec3(0, 0, -1),
			expectedT:      1.0,
			expectedNormal: core.NewVec3(0, 0, 1),
		},
		{
			// The normal is not flipped toward the ray; materials handle the side
			name:           "ray from inside hits far side with outward normal",
			rayOrigin:      core.NewVec3(0, 0, 0),
			rayDirection:   core.NewVec3(0, 0, 1),
			expectedT:      1.0,
			expectedNormal: core.NewVec3(0, 0, 1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ray := core.NewRay(tt.rayOrigin, tt.rayDirection)
			hit, isHit := sphere.Hit(ray, 0.001, 1000.0, nil)

			if !isHit {
				t.Fatal("Expected hit, but got miss")
			}

			if math.Abs(hit.T-tt.expectedT) > 1e-9 {
				t.Errorf("Expected t=%f, got t=%f", tt.expectedT, hit.T)
			}

			if hit.Normal.Subtract(tt.expectedNormal).Length() > 1e-9 {
				t.Errorf("Expected normal %v, got %v", tt.expectedNormal, hit.Normal)
			}
		})
	}
}

func TestSphere_Hit_TangentIsMiss(t *testing.T) {
	sphere := NewSphere(core.NewVec3(0, 0, 0), 1.0, &MockMaterial{})
	ray := core.NewRay(core.NewVec3(1, 0, 2), core.NewVec3(0, 0, -1))

	if hit, isHit := sphere.Hit(ray, 0.001, 1000.0, nil); isHit {
		t.Errorf("Expected tangent ray to miss, got hit at t=%f", hit.T)
	}
}

func TestSphere_Hit_Bounds(t *testing.T) {
	sphere := NewSphere(core.NewVec3(0, 0, 0), 1.0, &MockMaterial{})
	ray := core.NewRay(core.NewVec3(0, 0, 2), core.NewVec3(0, 0, -1))

	// Both roots beyond tMax
	if hit, isHit := sphere.Hit(ray, 0.001, 0.5, nil); isHit {
		t.Errorf("Expected miss due to tMax bound, but got hit at t=%f", hit.T)
	}

	// Both roots before tMin
	if hit, isHit := sphere.Hit(ray, 3.5, 1000.0, nil); isHit {
		t.Errorf("Expected miss due to tMin bound, but got hit at t=%f", hit.T)
	}

	// Near root before tMin, far root inside window
	hit, isHit := sphere.Hit(ray, 1.5, 1000.0, nil)
	if !isHit {
		t.Fatal("Expected far root hit")
	}
	if math.Abs(hit.T-3.0) > 1e-9 {
		t.Errorf("Expected far root t=3, got t=%f", hit.T)
	}

	// Window endpoints are exclusive
	if _, isHit := sphere.Hit(ray, 0.001, 1.0, nil); isHit {
		t.Error("Expected miss when root equals tMax")
	}
}

func TestSphere_Hit_PointOnSurfaceWithinWindow(t *testing.T) {
	random := rand.New(rand.NewSource(3))
	center := core.NewVec3(0.5, -1, 2)
	radius := 1.5
	sphere := NewSphere(center, radius, &MockMaterial{})

	hits := 0
	for i := 0; i < 2000; i++ {
		origin := core.NewVec3(random.Float64()*10-5, random.Float64()*10-5, random.Float64()*10-5)
		direction := core.NewVec3(random.Float64()*2-1, random.Float64()*2-1, random.Float64()*2-1)
		tMin := random.Float64() * 0.5
		tMax := tMin + random.Float64()*20
		ray := core.NewRay(origin, direction)

		hit, isHit := sphere.Hit(ray, tMin, tMax, nil)
		if !isHit {
			continue
		}
		hits++

		if !(hit.T > tMin && hit.T < tMax) {
			t.Fatalf("Hit t=%f outside window (%f, %f)", hit.T, tMin, tMax)
		}
		distance := ray.At(hit.T).Subtract(center).Length()
		if math.Abs(distance-radius) > 1e-6 {
			t.Fatalf("Hit point at distance %f from center, expected %f", distance, radius)
		}
		if math.Abs(hit.Normal.Length()-1) > 1e-9 {
			t.Fatalf("Normal is not unit length: %v", hit.Normal)
		}
	}

	if hits == 0 {
		t.Fatal("Expected at least some random rays to hit the sphere")
	}
}

func TestSphere_BoundingBox(t *testing.T) {
	sphere := NewSphere(core.NewVec3(1, 2, 3), 0.5, &MockMaterial{})
	box, ok := sphere.BoundingBox(0, 1)
	if !ok {
		t.Fatal("Expected sphere to have a bounding box")
	}
	if box.Min != core.NewVec3(0.5, 1.5, 2.5) || box.Max != core.NewVec3(1.5, 2.5, 3.5) {
		t.Errorf("Unexpected bounding box %v", box)
	}
}

func TestMovingSphere_CenterAndHit(t *testing.T) {
	sphere := NewMovingSphere(core.NewVec3(0, 0, 0), core.NewVec3(0, 2, 0), 0, 1, 0.5, &MockMaterial{})

	if got := sphere.Center(0.5); got != core.NewVec3(0, 1, 0) {
		t.Errorf("Expected center (0,1,0) at t=0.5, got %v", got)
	}

	ray := core.NewRayAtTime(core.NewVec3(0, 2, 5), core.NewVec3(0, 0, -1), 1.0)
	hit, isHit := sphere.Hit(ray, 0.001, 1000, nil)
	if !isHit {
		t.Fatal("Expected ray at t=1 to hit the sphere at its end position")
	}
	if math.Abs(hit.T-4.5) > 1e-9 {
		t.Errorf("Expected t=4.5, got %f", hit.T)
	}

	ray.Time = 0
	if _, isHit := sphere.Hit(ray, 0.001, 1000, nil); isHit {
		t.Error("Expected ray at t=0 to miss the sphere at its start position")
	}
}

func TestMovingSphere_DegenerateShutter(t *testing.T) {
	sphere := NewMovingSphere(core.NewVec3(1, 1, 1), core.NewVec3(5, 5, 5), 2, 2, 0.5, &MockMaterial{})
	if got := sphere.Center(7); got != core.NewVec3(1, 1, 1) {
		t.Errorf("Expected first center for zero-length shutter, got %v", got)
	}
}

func TestMovingSphere_BoundingBoxCoversShutter(t *testing.T) {
	sphere := NewMovingSphere(core.NewVec3(0, 0, 0), core.NewVec3(3, -1, 2), 0, 1, 0.25, &MockMaterial{})
	box, ok := sphere.BoundingBox(0, 1)
	if !ok {
		t.Fatal("Expected moving sphere to have a bounding box")
	}

	for i := 0; i <= 20; i++ {
		time := float64(i) / 20
		swept, _ := NewSphere(sphere.Center(time), sphere.Radius, nil).BoundingBox(0, 0)
		if box.Min.X > swept.Min.X || box.Min.Y > swept.Min.Y || box.Min.Z > swept.Min.Z ||
			box.Max.X < swept.Max.X || box.Max.Y < swept.Max.Y || box.Max.Z < swept.Max.Z {
			t.Fatalf("Box %v does not contain sphere at time %f (%v)", box, time, swept)
		}
	}
}
