package renderer

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/df07/go-pathtracer/pkg/core"
)

// PixelBuffer accumulates per-pixel color sums. Row 0 is the top of the image.
// Every pixel holds the same number of samples, tracked in Samples.
type PixelBuffer struct {
	Width   int
	Height  int
	Pixels  []core.Vec3 // Row-major: Pixels[y*Width + x]
	Samples int
}

// NewPixelBuffer creates an empty accumulator
func NewPixelBuffer(width, height int) *PixelBuffer {
	return &PixelBuffer{
		Width:  width,
		Height: height,
		Pixels: make([]core.Vec3, width*height),
	}
}

// Add accumulates a color sample into pixel (x, y)
func (b *PixelBuffer) Add(x, y int, c core.Vec3) {
	i := y*b.Width + x
	b.Pixels[i] = b.Pixels[i].Add(c)
}

// Merge adds other's sums and sample count into b
func (b *PixelBuffer) Merge(other *PixelBuffer) error {
	if other.Width != b.Width || other.Height != b.Height {
		return fmt.Errorf("cannot merge %dx%d buffer into %dx%d buffer",
			other.Width, other.Height, b.Width, b.Height)
	}
	for i := range b.Pixels {
		b.Pixels[i] = b.Pixels[i].Add(other.Pixels[i])
	}
	b.Samples += other.Samples
	return nil
}

// Clone returns a deep copy
func (b *PixelBuffer) Clone() *PixelBuffer {
	clone := &PixelBuffer{
		Width:   b.Width,
		Height:  b.Height,
		Pixels:  make([]core.Vec3, len(b.Pixels)),
		Samples: b.Samples,
	}
	copy(clone.Pixels, b.Pixels)
	return clone
}

// Color returns the finished color of pixel (x, y): averaged, gamma corrected and clamped to [0, 1]
func (b *PixelBuffer) Color(x, y int) core.Vec3 {
	if b.Samples == 0 {
		return core.Vec3{}
	}
	average := b.Pixels[y*b.Width+x].Multiply(1.0 / float64(b.Samples))
	return average.Sqrt().Clamp(0.0, 1.0)
}

// Image converts the buffer to an 8-bit RGBA image
func (b *PixelBuffer) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, b.Width, b.Height))
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			img.SetRGBA(x, y, vec3ToColor(b.Color(x, y)))
		}
	}
	return img
}

// vec3ToColor converts a finished [0, 1] color to RGBA
func vec3ToColor(c core.Vec3) color.RGBA {
	return color.RGBA{
		R: uint8(255.99 * c.X),
		G: uint8(255.99 * c.Y),
		B: uint8(255.99 * c.Z),
		A: 255,
	}
}

// ReduceBuffers sums buffers with a pairwise reduction tree. Each level merges
// its pairs in parallel; the pairing depends only on slice order, so the result
// is reproducible. The input buffers are consumed.
func ReduceBuffers(buffers []*PixelBuffer) (*PixelBuffer, error) {
	if len(buffers) == 0 {
		return nil, fmt.Errorf("no buffers to reduce")
	}

	level := buffers
	for len(level) > 1 {
		next := make([]*PixelBuffer, (len(level)+1)/2)
		errs := make([]error, len(next))

		var wg sync.WaitGroup
		for i := range next {
			left := level[2*i]
			next[i] = left
			if 2*i+1 >= len(level) {
				continue // odd one out moves up unchanged
			}
			right := level[2*i+1]

			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = left.Merge(right)
			}(i)
		}
		wg.Wait()

		for _, err := range errs {
			if err != nil {
				return nil, err
			}
		}
		level = next
	}

	return level[0], nil
}
