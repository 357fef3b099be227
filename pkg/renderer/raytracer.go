package renderer

import (
	"context"
	"fmt"
	"time"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/integrator"
)

// Raytracer renders a scene by splitting samples into passes and passes into
// worker batches. Each batch accumulates into its own buffer; a pass is the
// reduction of its batches and the image is the running sum of its passes.
type Raytracer struct {
	scene      core.Scene
	settings   Settings
	config     RenderConfig
	integrator integrator.Integrator
	logger     core.Logger
}

// NewRaytracer creates a new raytracer. A nil logger discards output.
func NewRaytracer(scene core.Scene, settings Settings, config RenderConfig, logger core.Logger) (*Raytracer, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	resolved, err := config.resolve(settings)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = discardLogger{}
	}

	return &Raytracer{
		scene:      scene,
		settings:   settings,
		config:     resolved,
		integrator: integrator.NewPathTracingIntegrator(),
		logger:     logger,
	}, nil
}

// Config returns the resolved render configuration
func (rt *Raytracer) Config() RenderConfig {
	return rt.config
}

// PassResult contains the running image after a pass
type PassResult struct {
	PassNumber  int
	TotalPasses int
	Buffer      *PixelBuffer // Snapshot owned by the receiver
	Stats       RenderStats
	IsLast      bool
}

// RenderBatch accumulates task.Samples whole-image samples into a fresh buffer.
// Every sample owns a generator seeded from its global index, so a sample's
// contribution does not depend on which worker or batch renders it.
func (rt *Raytracer) RenderBatch(task BatchTask) (*PixelBuffer, *core.HitStats) {
	width, height := rt.settings.Width, rt.settings.Height
	buffer := NewPixelBuffer(width, height)
	stats := core.NewHitStats()
	camera := rt.scene.GetCamera()
	world := rt.scene.GetWorld()

	for sample := task.FirstSample; sample < task.FirstSample+task.Samples; sample++ {
		sampler := core.NewSeededSampler(sampleSeed(rt.config.Seed, sample))
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				// Image rows run top to bottom, camera v runs bottom to top
				u := (float64(x) + sampler.Get1D()) / float64(width)
				v := (float64(height-1-y) + sampler.Get1D()) / float64(height)

				ray := camera.GetRay(u, v, sampler)
				buffer.Add(x, y, rt.integrator.RayColor(ray, world, sampler, rt.settings.Depth, stats))
			}
		}
	}
	buffer.Samples = task.Samples

	return buffer, stats
}

// Render runs every remaining pass, calling onPass after each one.
// ctx is only checked between passes; a cancelled render returns the passes
// completed so far together with ctx.Err().
func (rt *Raytracer) Render(ctx context.Context, onPass func(PassResult)) (*PixelBuffer, RenderStats, error) {
	startTime := time.Now()
	width, height := rt.settings.Width, rt.settings.Height

	total := NewPixelBuffer(width, height)
	if rt.config.StartPass > 0 {
		total = rt.config.Initial.Clone()
	}

	stats := RenderStats{
		TotalPixels:  width * height,
		TotalSamples: total.Samples,
		Passes:       rt.config.StartPass,
		Workers:      rt.config.Workers,
		Hits:         core.NewHitStats(),
	}

	pool := NewWorkerPool(rt, rt.config.Workers)
	pool.Start()
	defer pool.Stop()

	rt.logger.Printf("Rendering %dx%d with %d samples/pixel in %d passes using %d workers...\n",
		width, height, rt.settings.Samples, rt.config.Passes, pool.GetNumWorkers())
	if rt.config.StartPass > 0 {
		rt.logger.Printf("Resuming after pass %d (%d samples/pixel already accumulated)\n",
			rt.config.StartPass, total.Samples)
	}

	for pass := rt.config.StartPass + 1; pass <= rt.config.Passes; pass++ {
		select {
		case <-ctx.Done():
			rt.logger.Printf("Rendering cancelled before pass %d\n", pass)
			stats.Duration = time.Since(startTime)
			return total, stats, ctx.Err()
		default:
		}

		passStart := time.Now()
		passBuffer, hits, batches, err := rt.renderPass(pool, pass, total.Samples)
		if err != nil {
			return nil, stats, fmt.Errorf("pass %d: %w", pass, err)
		}
		if err := total.Merge(passBuffer); err != nil {
			return nil, stats, fmt.Errorf("pass %d: %w", pass, err)
		}

		stats.Hits.Merge(hits)
		stats.Batches += batches
		stats.Passes = pass
		stats.TotalSamples = total.Samples
		stats.Duration = time.Since(startTime)

		rt.logger.Printf("Pass %d completed in %v (%d batches, %d samples/pixel)\n",
			pass, time.Since(passStart), batches, total.Samples)

		if onPass != nil {
			onPass(PassResult{
				PassNumber:  pass,
				TotalPasses: rt.config.Passes,
				Buffer:      total.Clone(),
				Stats:       stats.snapshot(),
				IsLast:      pass == rt.config.Passes,
			})
		}
	}

	return total, stats, nil
}

// renderPass fans the samples of one pass out to the pool and reduces the batch buffers
func (rt *Raytracer) renderPass(pool *WorkerPool, pass, firstSample int) (*PixelBuffer, *core.HitStats, int, error) {
	samples := samplesForPass(rt.settings.Samples, rt.config.Passes, pass)
	tasks := planBatches(pass, firstSample, samples, pool.GetNumWorkers())

	for _, task := range tasks {
		pool.SubmitTask(task)
	}

	// Slot results by TaskID so the reduction tree does not depend on completion order
	buffers := make([]*PixelBuffer, len(tasks))
	hits := core.NewHitStats()
	for range tasks {
		result, ok := pool.GetResult()
		if !ok {
			return nil, nil, 0, fmt.Errorf("worker pool closed unexpectedly")
		}
		buffers[result.TaskID] = result.Buffer
		hits.Merge(result.Stats)
	}

	sum, err := ReduceBuffers(buffers)
	if err != nil {
		return nil, nil, 0, err
	}
	return sum, hits, len(tasks), nil
}

// RenderProgressive renders with channel-based communication.
// The caller should drain the pass channel; the error channel receives at most one error.
func (rt *Raytracer) RenderProgressive(ctx context.Context) (<-chan PassResult, <-chan error) {
	passChan := make(chan PassResult, 1)
	errChan := make(chan error, 1)

	go func() {
		defer close(passChan)
		defer close(errChan)

		_, _, err := rt.Render(ctx, func(result PassResult) {
			select {
			case passChan <- result:
			case <-ctx.Done():
			}
		})
		if err != nil {
			errChan <- err
		}
	}()

	return passChan, errChan
}

// planBatches splits the samples of a pass across at most workers contiguous batches
func planBatches(pass, firstSample, samples, workers int) []BatchTask {
	count := min(workers, samples)
	tasks := make([]BatchTask, count)

	next := firstSample
	for i := range tasks {
		n := samples / count
		if i < samples%count {
			n++
		}
		tasks[i] = BatchTask{
			TaskID:      i,
			Pass:        pass,
			FirstSample: next,
			Samples:     n,
		}
		next += n
	}

	return tasks
}

// sampleSeed derives an independent generator seed for one sample (splitmix64 finalizer)
func sampleSeed(seed int64, sample int) int64 {
	z := uint64(seed) + uint64(sample+1)*0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return int64(z ^ (z >> 31))
}

// snapshot copies the counters so the caller can hold on to them while rendering continues
func (s RenderStats) snapshot() RenderStats {
	hits := core.NewHitStats()
	hits.Merge(s.Hits)
	s.Hits = hits
	return s
}
