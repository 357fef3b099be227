package geometry

import (
	"github.com/df07/go-pathtracer/pkg/core"
)

// HitableList is an unordered flat collection searched linearly
type HitableList struct {
	Shapes []core.Shape
}

// NewHitableList creates a list from shapes; the slice is copied
func NewHitableList(shapes []core.Shape) *HitableList {
	shapesCopy := make([]core.Shape, len(shapes))
	copy(shapesCopy, shapes)
	return &HitableList{Shapes: shapesCopy}
}

// Hit returns the closest hit among all shapes
func (l *HitableList) Hit(ray core.Ray, tMin, tMax float64, stats *core.HitStats) (*core.HitRecord, bool) {
	var closestHit *core.HitRecord
	hitAnything := false
	closestSoFar := tMax

	for _, shape := range l.Shapes {
		if hit, isHit := shape.Hit(ray, tMin, closestSoFar, stats); isHit {
			hitAnything = true
			closestSoFar = hit.T
			closestHit = hit
		}
	}

	return closestHit, hitAnything
}

// BoundingBox surrounds every member; an empty list or an unbounded member has no box
func (l *HitableList) BoundingBox(t0, t1 float64) (core.AABB, bool) {
	if len(l.Shapes) == 0 {
		return core.AABB{}, false
	}

	bounds, ok := l.Shapes[0].BoundingBox(t0, t1)
	if !ok {
		return core.AABB{}, false
	}
	for _, shape := range l.Shapes[1:] {
		box, ok := shape.BoundingBox(t0, t1)
		if !ok {
			return core.AABB{}, false
		}
		bounds = core.Surrounding(bounds, box)
	}

	return bounds, true
}
