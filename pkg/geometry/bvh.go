package geometry

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/df07/go-pathtracer/pkg/core"
)

var (
	// ErrNoShapes is returned when a hierarchy is built from an empty list
	ErrNoShapes = errors.New("bounding hierarchy needs at least one shape")

	// ErrUnbounded is returned when a shape has no finite bounding box
	ErrUnbounded = errors.New("shape has no bounding box")
)

// bvhSeed seeds axis selection when the caller does not supply a generator
const bvhSeed = 42

// BoundingHierarchy is a binary BVH node. Leaves are the primitives themselves.
type BoundingHierarchy struct {
	Bounds core.AABB
	Left   core.Shape
	Right  core.Shape
}

// NewBoundingHierarchy builds a BVH over shapes for the shutter interval [time0, time1].
// A single shape is returned unwrapped. Split axes are drawn from random; a nil random
// uses a fixed seed so builds are reproducible. The input slice is not modified.
func NewBoundingHierarchy(shapes []core.Shape, time0, time1 float64, random *rand.Rand) (core.Shape, error) {
	if len(shapes) == 0 {
		return nil, ErrNoShapes
	}
	if random == nil {
		random = rand.New(rand.NewSource(bvhSeed))
	}

	// Resolve every box once up front so an unbounded shape fails before any work
	entries := make([]bvhEntry, len(shapes))
	for i, shape := range shapes {
		box, ok := shape.BoundingBox(time0, time1)
		if !ok {
			return nil, fmt.Errorf("shape %d (%T): %w", i, shape, ErrUnbounded)
		}
		entries[i] = bvhEntry{shape: shape, box: box}
	}

	root, _ := buildBVH(entries, random)
	return root, nil
}

// bvhEntry pairs a shape with its precomputed bounds
type bvhEntry struct {
	shape core.Shape
	box   core.AABB
}

// buildBVH recursively splits entries at the median along a random axis
func buildBVH(entries []bvhEntry, random *rand.Rand) (core.Shape, core.AABB) {
	n := len(entries)
	if n == 1 {
		return entries[0].shape, entries[0].box
	}

	var left, right core.Shape
	var leftBox, rightBox core.AABB

	if n == 2 {
		left, leftBox = entries[0].shape, entries[0].box
		right, rightBox = entries[1].shape, entries[1].box
	} else {
		axis := random.Intn(3)
		sortEntriesByAxis(entries, axis)

		mid := n / 2
		left, leftBox = buildBVH(entries[:mid], random)
		right, rightBox = buildBVH(entries[mid:], random)
	}

	bounds := core.Surrounding(leftBox, rightBox)
	return &BoundingHierarchy{
		Bounds: bounds,
		Left:   left,
		Right:  right,
	}, bounds
}

// sortEntriesByAxis orders entries by the minimum corner of their box along axis
func sortEntriesByAxis(entries []bvhEntry, axis int) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].box.Min.Axis(axis) < entries[j].box.Min.Axis(axis)
	})
}

// Hit tests the node's box, then both children with the same window, keeping the nearer hit
func (h *BoundingHierarchy) Hit(ray core.Ray, tMin, tMax float64, stats *core.HitStats) (*core.HitRecord, bool) {
	if !h.Bounds.Hit(ray, tMin, tMax) {
		return nil, false
	}

	leftHit, hitLeft := h.Left.Hit(ray, tMin, tMax, stats)
	rightHit, hitRight := h.Right.Hit(ray, tMin, tMax, stats)

	switch {
	case hitLeft && hitRight:
		if leftHit.T < rightHit.T {
			return leftHit, true
		}
		return rightHit, true
	case hitLeft:
		return leftHit, true
	case hitRight:
		return rightHit, true
	default:
		return nil, false
	}
}

// BoundingBox returns the precomputed bounds of the node
func (h *BoundingHierarchy) BoundingBox(t0, t1 float64) (core.AABB, bool) {
	return h.Bounds, true
}

// Depth returns the number of node levels below and including h
func (h *BoundingHierarchy) Depth() int {
	depth := 0
	for _, child := range []core.Shape{h.Left, h.Right} {
		if node, ok := child.(*BoundingHierarchy); ok {
			depth = max(depth, node.Depth())
		}
	}
	return depth + 1
}

// getStats returns statistics about the BVH structure
func (h *BoundingHierarchy) getStats() bvhStats {
	stats := bvhStats{}
	h.collectStats(0, &stats)

	// Calculate average depth after collecting all data
	if stats.leaves > 0 {
		stats.avgDepth = stats.avgDepth / float64(stats.leaves)
	}

	return stats
}

// bvhStats contains statistics about the BVH structure
type bvhStats struct {
	totalNodes int
	leaves     int
	maxDepth   int
	avgDepth   float64
}

// collectStats recursively collects statistics about the BVH
func (h *BoundingHierarchy) collectStats(depth int, stats *bvhStats) {
	stats.totalNodes++
	stats.maxDepth = max(stats.maxDepth, depth)

	for _, child := range []core.Shape{h.Left, h.Right} {
		if node, ok := child.(*BoundingHierarchy); ok {
			node.collectStats(depth+1, stats)
		} else {
			stats.leaves++
			stats.avgDepth += float64(depth + 1)
		}
	}
}
