package checkpoint

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/renderer"
)

// ErrNoFrames is returned when a bundle holds no complete frame
var ErrNoFrames = errors.New("checkpoint has no complete frames")

// ErrCorruptFrame is returned when a frame header does not match the manifest
var ErrCorruptFrame = errors.New("corrupt checkpoint frame")

// Checkpoint is the newest complete frame of a bundle
type Checkpoint struct {
	Dir      string
	Manifest Manifest
	Pass     int                   // Passes contained in Buffer
	Buffer   *renderer.PixelBuffer // Running sums after Pass
}

// ReadManifest decodes the manifest of the bundle in dir
func ReadManifest(dir string) (Manifest, error) {
	var manifest Manifest
	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		return manifest, fmt.Errorf("reading manifest: %w", err)
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		return manifest, fmt.Errorf("decoding manifest: %w", err)
	}
	return manifest, nil
}

// LoadLatest returns the newest complete frame of the bundle in dir.
// A frame cut short by an interrupted render is ignored.
func LoadLatest(dir string) (*Checkpoint, error) {
	if dir == "" {
		return nil, fmt.Errorf("checkpoint path must be provided")
	}
	manifest, err := ReadManifest(dir)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filepath.Join(dir, manifest.FramesPath))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader, err := zstd.NewReader(file)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	var latest *Checkpoint
	for {
		pass, buffer, err := readFrame(reader, manifest.Width, manifest.Height)
		if err != nil {
			if errors.Is(err, ErrCorruptFrame) {
				return nil, err
			}
			if latest == nil {
				if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
					return nil, ErrNoFrames
				}
				return nil, err
			}
			break
		}
		latest = &Checkpoint{Dir: dir, Manifest: manifest, Pass: pass, Buffer: buffer}
	}

	return latest, nil
}

// readFrame decodes one frame written by encodeFrame.
// The header must describe a width x height image; it is checked before the payload is allocated.
func readFrame(r io.Reader, width, height int) (int, *renderer.PixelBuffer, error) {
	header := make([]byte, frameHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, nil, err
	}

	pass := int(binary.LittleEndian.Uint32(header[0:4]))
	samples := int(binary.LittleEndian.Uint32(header[4:8]))
	frameWidth := int(binary.LittleEndian.Uint32(header[8:12]))
	frameHeight := int(binary.LittleEndian.Uint32(header[12:16]))
	size := int(binary.LittleEndian.Uint32(header[16:20]))
	if frameWidth != width || frameHeight != height {
		return 0, nil, fmt.Errorf("frame %d is %dx%d, manifest says %dx%d: %w",
			pass, frameWidth, frameHeight, width, height, ErrCorruptFrame)
	}
	if size != width*height*3*8 {
		return 0, nil, fmt.Errorf("frame %d: payload of %d bytes does not match %dx%d: %w",
			pass, size, width, height, ErrCorruptFrame)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return 0, nil, err
	}

	buffer := renderer.NewPixelBuffer(width, height)
	buffer.Samples = samples
	for i := range buffer.Pixels {
		offset := i * 24
		buffer.Pixels[i] = core.NewVec3(
			math.Float64frombits(binary.LittleEndian.Uint64(payload[offset:])),
			math.Float64frombits(binary.LittleEndian.Uint64(payload[offset+8:])),
			math.Float64frombits(binary.LittleEndian.Uint64(payload[offset+16:])),
		)
	}
	return pass, buffer, nil
}

// ReadPassLog decodes the per-pass log of the bundle in dir
func ReadPassLog(dir string) ([]PassRecord, error) {
	manifest, err := ReadManifest(dir)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filepath.Join(dir, manifest.PassesPath))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(snappy.NewReader(file))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var records []PassRecord
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var record PassRecord
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			return nil, fmt.Errorf("decoding pass log: %w", err)
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// ResumeConfig prepares config to continue the render stored in the checkpoint.
// The recorded worker count replaces config.Workers: it decides how each pass is split
// into batches, and with it the order in which pixel sums are added.
func (c *Checkpoint) ResumeConfig(config renderer.RenderConfig) renderer.RenderConfig {
	config.Passes = c.Manifest.Passes
	config.Seed = c.Manifest.Seed
	if c.Manifest.Workers > 0 {
		config.Workers = c.Manifest.Workers
	}
	config.StartPass = c.Pass
	config.Initial = c.Buffer
	return config
}
