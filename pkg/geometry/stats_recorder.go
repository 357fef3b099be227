package geometry

import (
	"github.com/df07/go-pathtracer/pkg/core"
)

// StatsRecorder wraps a shape and counts its hits and misses under Category.
// Results are passed through untouched, so wrapping never changes a render.
type StatsRecorder struct {
	Category string
	Shape    core.Shape
}

// NewStatsRecorder wraps shape with hit/miss counting
func NewStatsRecorder(category string, shape core.Shape) *StatsRecorder {
	return &StatsRecorder{Category: category, Shape: shape}
}

// Hit forwards to the wrapped shape and records the outcome in stats
func (r *StatsRecorder) Hit(ray core.Ray, tMin, tMax float64, stats *core.HitStats) (*core.HitRecord, bool) {
	hit, isHit := r.Shape.Hit(ray, tMin, tMax, stats)
	if isHit {
		stats.Hit(r.Category)
	} else {
		stats.Miss(r.Category)
	}
	return hit, isHit
}

// BoundingBox forwards to the wrapped shape
func (r *StatsRecorder) BoundingBox(t0, t1 float64) (core.AABB, bool) {
	return r.Shape.BoundingBox(t0, t1)
}
