package geometry

import (
	"github.com/df07/go-pathtracer/pkg/core"
)

// MovingSphere is a sphere whose center moves linearly from Center0 at Time0
// to Center1 at Time1. Rays pick the center through their Time.
type MovingSphere struct {
	Center0, Center1 core.Vec3
	Time0, Time1     float64
	Radius           float64
	Material         core.Material
}

// NewMovingSphere creates a new moving sphere
func NewMovingSphere(center0, center1 core.Vec3, time0, time1, radius float64, material core.Material) *MovingSphere {
	return &MovingSphere{
		Center0:  center0,
		Center1:  center1,
		Time0:    time0,
		Time1:    time1,
		Radius:   radius,
		Material: material,
	}
}

// Center returns the interpolated center at the given time
func (s *MovingSphere) Center(time float64) core.Vec3 {
	span := s.Time1 - s.Time0
	if span == 0 {
		return s.Center0
	}
	return s.Center0.Add(s.Center1.Subtract(s.Center0).Multiply((time - s.Time0) / span))
}

// Hit tests if a ray intersects with the sphere at the ray's time
func (s *MovingSphere) Hit(ray core.Ray, tMin, tMax float64, stats *core.HitStats) (*core.HitRecord, bool) {
	return hitSphere(s.Center(ray.Time), s.Radius, s.Material, ray, tMin, tMax)
}

// BoundingBox covers the sphere at both ends of [t0, t1], so it holds for the whole interval
func (s *MovingSphere) BoundingBox(t0, t1 float64) (core.AABB, bool) {
	box0 := sphereBox(s.Center(t0), s.Radius)
	box1 := sphereBox(s.Center(t1), s.Radius)
	return core.Surrounding(box0, box1), true
}
