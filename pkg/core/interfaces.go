package core

// Logger interface for raytracer logging
type Logger interface {
	Printf(format string, args ...interface{})
}

// HitRecord contains information about a ray-object intersection.
// Normal is (point - center) / radius and is not flipped against the ray;
// materials decide the side from dot(ray.Direction, Normal).
type HitRecord struct {
	T        float64  // Parameter t along the ray
	Point    Vec3     // Point of intersection
	Normal   Vec3     // Outward surface normal (unit length)
	Material Material // Material of the hit object, borrowed from the shape
}

// Shape is anything a ray can be intersected with
type Shape interface {
	// Hit returns the nearest intersection with t strictly inside (tMin, tMax).
	// stats may be nil; shapes that do not record just pass it on.
	Hit(ray Ray, tMin, tMax float64, stats *HitStats) (*HitRecord, bool)

	// BoundingBox returns the bounds over the shutter interval [t0, t1].
	// false means the shape has no finite bound.
	BoundingBox(t0, t1 float64) (AABB, bool)
}

// ScatterResult contains the result of material scattering
type ScatterResult struct {
	Scattered   Ray  // The continuation ray
	Attenuation Vec3 // Per-channel color attenuation
}

// Material decides whether and how a ray continues after hitting a surface
type Material interface {
	Scatter(rayIn Ray, hit HitRecord, sampler Sampler) (ScatterResult, bool)
}

// Texture maps a surface point to a color
type Texture interface {
	Value(u, v float64, point Vec3) Vec3
}

// Camera generates primary rays for normalized image-plane coordinates u, v in [0, 1]
type Camera interface {
	GetRay(u, v float64, sampler Sampler) Ray
}

// Scene is the read-only input of a render
type Scene interface {
	GetCamera() Camera
	GetWorld() Shape
}
