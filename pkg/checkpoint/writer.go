package checkpoint

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/renderer"
)

var sceneNameCleaner = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

const (
	manifestFile = "manifest.json"
	framesFile   = "frames.bin.zst"
	passesFile   = "passes.jsonl.sz"

	frameHeaderSize = 5 * 4
)

// Manifest describes a checkpoint bundle and the render it belongs to
type Manifest struct {
	Version    int    `json:"version"`
	CreatedAt  string `json:"created_at"`
	Scene      string `json:"scene"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Samples    int    `json:"samples"`
	Depth      int    `json:"depth"`
	Passes     int    `json:"passes"`
	Seed       int64  `json:"seed"`
	Workers    int    `json:"workers"` // Batches per pass, which fixes the summation order
	FramesPath string `json:"frames_path"`
	PassesPath string `json:"passes_path"`
}

// Settings returns the image settings recorded in the manifest
func (m Manifest) Settings() renderer.Settings {
	return renderer.Settings{Width: m.Width, Height: m.Height, Samples: m.Samples, Depth: m.Depth}
}

// PassRecord is one line of the pass log
type PassRecord struct {
	Pass       int                      `json:"pass"`
	Samples    int                      `json:"samples"`
	DurationMs int64                    `json:"duration_ms"`
	CapturedAt string                   `json:"captured_at"`
	Hits       map[string]core.HitCount `json:"hits,omitempty"`
}

// Writer streams the accumulation buffer after every pass into a compressed bundle.
// Each frame holds the running sums, so the newest complete frame is enough to resume.
type Writer struct {
	mu          sync.Mutex
	dir         string
	now         func() time.Time
	manifest    Manifest
	frameFile   *os.File
	frameStream *zstd.Encoder
	passFile    *os.File
	passStream  *snappy.Writer
}

// NewWriter creates <root>/<scene>-<timestamp>/ and opens the compressed sinks.
// Version, CreatedAt and the artefact paths of manifest are filled in.
func NewWriter(root string, manifest Manifest, clock func() time.Time) (*Writer, error) {
	if root == "" {
		return nil, fmt.Errorf("checkpoint root must be provided")
	}
	if clock == nil {
		clock = time.Now
	}

	cleaned := sceneNameCleaner.ReplaceAllString(manifest.Scene, "")
	if cleaned == "" {
		cleaned = "render"
	}
	created := clock().UTC()
	path := filepath.Join(root, fmt.Sprintf("%s-%s", cleaned, created.Format("20060102T150405Z")))

	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("creating checkpoint directory: %w", err)
	}

	manifest.Version = 1
	manifest.CreatedAt = created.Format(time.RFC3339Nano)
	manifest.FramesPath = framesFile
	manifest.PassesPath = passesFile

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(path, manifestFile), data, 0o644); err != nil {
		return nil, fmt.Errorf("writing manifest: %w", err)
	}

	frameFile, err := os.Create(filepath.Join(path, framesFile))
	if err != nil {
		return nil, fmt.Errorf("creating frame stream: %w", err)
	}
	frameStream, err := zstd.NewWriter(frameFile)
	if err != nil {
		frameFile.Close()
		return nil, fmt.Errorf("creating frame stream: %w", err)
	}

	passFile, err := os.Create(filepath.Join(path, passesFile))
	if err != nil {
		frameStream.Close()
		frameFile.Close()
		return nil, fmt.Errorf("creating pass log: %w", err)
	}

	return &Writer{
		dir:         path,
		now:         clock,
		manifest:    manifest,
		frameFile:   frameFile,
		frameStream: frameStream,
		passFile:    passFile,
		passStream:  snappy.NewBufferedWriter(passFile),
	}, nil
}

// Directory exposes the directory backing the bundle
func (w *Writer) Directory() string {
	if w == nil {
		return ""
	}
	return w.dir
}

// Manifest returns the manifest written to disk
func (w *Writer) Manifest() Manifest {
	return w.manifest
}

// WriteFrame appends the running buffer of a finished pass and its log line.
// Both streams are flushed so a crash loses at most the pass in flight.
func (w *Writer) WriteFrame(result renderer.PassResult) error {
	if w == nil {
		return fmt.Errorf("writer not initialised")
	}
	buffer := result.Buffer
	if buffer.Width != w.manifest.Width || buffer.Height != w.manifest.Height {
		return fmt.Errorf("frame is %dx%d, bundle is %dx%d",
			buffer.Width, buffer.Height, w.manifest.Width, w.manifest.Height)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.frameStream.Write(encodeFrame(result.PassNumber, buffer)); err != nil {
		return fmt.Errorf("writing frame %d: %w", result.PassNumber, err)
	}
	if err := w.frameStream.Flush(); err != nil {
		return fmt.Errorf("flushing frame %d: %w", result.PassNumber, err)
	}

	record := PassRecord{
		Pass:       result.PassNumber,
		Samples:    buffer.Samples,
		DurationMs: result.Stats.Duration.Milliseconds(),
		CapturedAt: w.now().UTC().Format(time.RFC3339Nano),
	}
	if categories := result.Stats.Hits.Categories(); len(categories) > 0 {
		record.Hits = make(map[string]core.HitCount, len(categories))
		for _, category := range categories {
			record.Hits[category] = result.Stats.Hits.Record(category)
		}
	}

	line, err := json.Marshal(record)
	if err != nil {
		return err
	}
	if _, err := w.passStream.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("writing pass log: %w", err)
	}
	return w.passStream.Flush()
}

// Close flushes all buffers and releases file handles, returning the first failure
func (w *Writer) Close() error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	var firstErr error
	if err := w.passStream.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := w.passFile.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := w.frameStream.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := w.frameFile.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// encodeFrame lays out a frame as a little-endian header
// (pass, samples, width, height, payload size) followed by the pixel sums as float64 triples
func encodeFrame(pass int, buffer *renderer.PixelBuffer) []byte {
	size := len(buffer.Pixels) * 3 * 8
	frame := make([]byte, frameHeaderSize+size)

	binary.LittleEndian.PutUint32(frame[0:4], uint32(pass))
	binary.LittleEndian.PutUint32(frame[4:8], uint32(buffer.Samples))
	binary.LittleEndian.PutUint32(frame[8:12], uint32(buffer.Width))
	binary.LittleEndian.PutUint32(frame[12:16], uint32(buffer.Height))
	binary.LittleEndian.PutUint32(frame[16:20], uint32(size))

	offset := frameHeaderSize
	for _, p := range buffer.Pixels {
		binary.LittleEndian.PutUint64(frame[offset:], math.Float64bits(p.X))
		binary.LittleEndian.PutUint64(frame[offset+8:], math.Float64bits(p.Y))
		binary.LittleEndian.PutUint64(frame[offset+16:], math.Float64bits(p.Z))
		offset += 24
	}
	return frame
}
