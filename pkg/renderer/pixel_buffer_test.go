package renderer

import (
	"math"
	"math/rand"
	"testing"

	"github.com/df07/go-pathtracer/pkg/core"
)

func randomBuffer(random *rand.Rand, width, height, samples int) *PixelBuffer {
	buffer := NewPixelBuffer(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			buffer.Add(x, y, core.NewVec3(random.Float64(), random.Float64(), random.Float64()))
		}
	}
	buffer.Samples = samples
	return buffer
}

func TestPixelBuffer_ColorAndImage(t *testing.T) {
	buffer := NewPixelBuffer(2, 1)
	buffer.Add(0, 0, core.NewVec3(0.5, 1.0, 0.0))
	buffer.Add(0, 0, core.NewVec3(0.0, 1.0, 0.0))
	buffer.Add(1, 0, core.NewVec3(4.0, 8.0, 2.0))
	buffer.Samples = 2

	// (0.25, 1, 0) -> sqrt -> (0.5, 1, 0)
	if got := buffer.Color(0, 0); math.Abs(got.X-0.5) > 1e-12 || got.Y != 1 || got.Z != 0 {
		t.Errorf("Unexpected color %v", got)
	}
	// Overexposed channels are clamped
	if got := buffer.Color(1, 0); got != core.NewVec3(1, 1, 1) {
		t.Errorf("Expected clamped white, got %v", got)
	}

	img := buffer.Image()
	c := img.RGBAAt(0, 0)
	if c.R != 127 || c.G != 255 || c.B != 0 || c.A != 255 {
		t.Errorf("Unexpected 8-bit color %v", c)
	}
}

func TestPixelBuffer_EmptyIsBlack(t *testing.T) {
	buffer := NewPixelBuffer(1, 1)
	if got := buffer.Color(0, 0); got != (core.Vec3{}) {
		t.Errorf("Expected black before any samples, got %v", got)
	}
}

func TestPixelBuffer_MergeDimensionMismatch(t *testing.T) {
	if err := NewPixelBuffer(2, 2).Merge(NewPixelBuffer(2, 3)); err == nil {
		t.Error("Expected error merging buffers of different sizes")
	}
}

func TestPixelBuffer_CloneIsIndependent(t *testing.T) {
	buffer := NewPixelBuffer(1, 1)
	buffer.Add(0, 0, core.NewVec3(1, 1, 1))
	buffer.Samples = 1

	clone := buffer.Clone()
	buffer.Add(0, 0, core.NewVec3(1, 1, 1))
	buffer.Samples = 2

	if clone.Pixels[0] != core.NewVec3(1, 1, 1) || clone.Samples != 1 {
		t.Errorf("Clone changed with its source: %+v", clone)
	}
}

func TestReduceBuffers_MatchesSequentialSum(t *testing.T) {
	for _, count := range []int{1, 2, 3, 5, 8, 13} {
		random := rand.New(rand.NewSource(int64(count)))
		buffers := make([]*PixelBuffer, count)
		expected := NewPixelBuffer(4, 3)
		for i := range buffers {
			buffers[i] = randomBuffer(random, 4, 3, i+1)
			if err := expected.Merge(buffers[i]); err != nil {
				t.Fatal(err)
			}
		}

		reduced, err := ReduceBuffers(buffers)
		if err != nil {
			t.Fatalf("%d buffers: %v", count, err)
		}
		if reduced.Samples != expected.Samples {
			t.Errorf("%d buffers: expected %d samples, got %d", count, expected.Samples, reduced.Samples)
		}
		for i := range reduced.Pixels {
			if reduced.Pixels[i].Subtract(expected.Pixels[i]).Length() > 1e-9 {
				t.Fatalf("%d buffers: pixel %d is %v, want %v", count, i, reduced.Pixels[i], expected.Pixels[i])
			}
		}
	}
}

func TestReduceBuffers_OrderIndependent(t *testing.T) {
	random := rand.New(rand.NewSource(11))
	original := make([]*PixelBuffer, 6)
	for i := range original {
		original[i] = randomBuffer(random, 3, 3, 1)
	}

	clones := func(order []int) []*PixelBuffer {
		out := make([]*PixelBuffer, len(order))
		for i, j := range order {
			out[i] = original[j].Clone()
		}
		return out
	}

	forward, _ := ReduceBuffers(clones([]int{0, 1, 2, 3, 4, 5}))
	shuffled, _ := ReduceBuffers(clones([]int{4, 2, 5, 0, 3, 1}))

	for i := range forward.Pixels {
		if forward.Pixels[i].Subtract(shuffled.Pixels[i]).Length() > 1e-12 {
			t.Fatalf("Pixel %d differs with merge order: %v vs %v", i, forward.Pixels[i], shuffled.Pixels[i])
		}
	}

	// Same order twice is bit-identical
	again, _ := ReduceBuffers(clones([]int{0, 1, 2, 3, 4, 5}))
	for i := range forward.Pixels {
		if forward.Pixels[i] != again.Pixels[i] {
			t.Fatalf("Pixel %d not reproducible: %v vs %v", i, forward.Pixels[i], again.Pixels[i])
		}
	}
}

func TestReduceBuffers_Errors(t *testing.T) {
	if _, err := ReduceBuffers(nil); err == nil {
		t.Error("Expected error for no buffers")
	}
	if _, err := ReduceBuffers([]*PixelBuffer{NewPixelBuffer(1, 1), NewPixelBuffer(2, 1)}); err == nil {
		t.Error("Expected error for mismatched buffers")
	}
}
