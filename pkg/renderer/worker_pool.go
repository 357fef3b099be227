package renderer

import (
	"sync"

	"github.com/df07/go-pathtracer/pkg/core"
)

// BatchTask is a contiguous range of whole-image samples for one worker
type BatchTask struct {
	TaskID      int // Slot of the result in the reduction tree
	Pass        int
	FirstSample int // Global index of the first sample, used for seeding
	Samples     int
}

// BatchResult contains a worker-local accumulation for one task
type BatchResult struct {
	TaskID int
	Buffer *PixelBuffer
	Stats  *core.HitStats
}

// WorkerPool manages parallel batch rendering
type WorkerPool struct {
	taskQueue   chan BatchTask
	resultQueue chan BatchResult
	workers     []*Worker
	numWorkers  int
	wg          sync.WaitGroup
}

// Worker renders batches with the shared, read-only raytracer
type Worker struct {
	ID          int
	raytracer   *Raytracer
	taskQueue   chan BatchTask
	resultQueue chan BatchResult
}

// NewWorkerPool creates a worker pool with the specified number of workers.
// At most numWorkers tasks are expected to be in flight at once.
func NewWorkerPool(raytracer *Raytracer, numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = DefaultWorkerCount()
	}

	wp := &WorkerPool{
		taskQueue:   make(chan BatchTask, numWorkers),
		resultQueue: make(chan BatchResult, numWorkers),
		numWorkers:  numWorkers,
	}

	for i := 0; i < numWorkers; i++ {
		wp.workers = append(wp.workers, &Worker{
			ID:          i,
			raytracer:   raytracer,
			taskQueue:   wp.taskQueue,
			resultQueue: wp.resultQueue,
		})
	}

	return wp
}

// Start begins all workers
func (wp *WorkerPool) Start() {
	for _, worker := range wp.workers {
		wp.wg.Add(1)
		go worker.run(&wp.wg)
	}
}

// Stop gracefully shuts down all workers
func (wp *WorkerPool) Stop() {
	close(wp.taskQueue) // No more tasks
	wp.wg.Wait()        // Wait for workers to finish
	close(wp.resultQueue)
}

// SubmitTask submits a batch task to the worker pool
func (wp *WorkerPool) SubmitTask(task BatchTask) {
	wp.taskQueue <- task
}

// GetResult retrieves a completed batch result
func (wp *WorkerPool) GetResult() (BatchResult, bool) {
	result, ok := <-wp.resultQueue
	return result, ok
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

// run is the main worker loop
func (w *Worker) run(wg *sync.WaitGroup) {
	defer wg.Done()

	for task := range w.taskQueue {
		buffer, stats := w.raytracer.RenderBatch(task)
		w.resultQueue <- BatchResult{
			TaskID: task.TaskID,
			Buffer: buffer,
			Stats:  stats,
		}
	}
}
