package renderer

import (
	"errors"
	"fmt"
)

// ErrInvalidSettings is returned when image or render settings cannot produce an image
var ErrInvalidSettings = errors.New("invalid render settings")

// Settings describes the image to produce
type Settings struct {
	Width   int // Image width in pixels
	Height  int // Image height in pixels
	Samples int // Samples per pixel
	Depth   int // Maximum ray bounce depth
}

// LowSettings returns a quick preview preset
func LowSettings() Settings {
	return Settings{
		Width:   200,
		Height:  100,
		Samples: 100,
		Depth:   50,
	}
}

// HighSettings returns the final quality preset
func HighSettings() Settings {
	return Settings{
		Width:   1280,
		Height:  720,
		Samples: 100,
		Depth:   50,
	}
}

// SettingsForPreset looks up a preset by name
func SettingsForPreset(name string) (Settings, error) {
	switch name {
	case "low":
		return LowSettings(), nil
	case "high":
		return HighSettings(), nil
	default:
		return Settings{}, fmt.Errorf("unknown preset %q: %w", name, ErrInvalidSettings)
	}
}

// AspectRatio returns width / height
func (s Settings) AspectRatio() float64 {
	return float64(s.Width) / float64(s.Height)
}

// Validate checks that every dimension is positive
func (s Settings) Validate() error {
	switch {
	case s.Width <= 0 || s.Height <= 0:
		return fmt.Errorf("image size %dx%d: %w", s.Width, s.Height, ErrInvalidSettings)
	case s.Samples <= 0:
		return fmt.Errorf("samples %d: %w", s.Samples, ErrInvalidSettings)
	case s.Depth <= 0:
		return fmt.Errorf("depth %d: %w", s.Depth, ErrInvalidSettings)
	}
	return nil
}

// RenderConfig controls how a render is scheduled
type RenderConfig struct {
	Passes  int   // Number of progressive passes the samples are split across
	Workers int   // Number of parallel workers (0 = detect)
	Seed    int64 // Base seed; every sample derives its own generator from it

	// Resume support: StartPass passes are already contained in Initial.
	// Each pass is split into one batch per worker, so a resumed render only matches
	// the uninterrupted one when Workers is the same.
	StartPass int
	Initial   *PixelBuffer
}

// DefaultRenderConfig returns sensible default values
func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		Passes:  1,
		Workers: 0, // Auto-detect CPU count
		Seed:    42,
	}
}

// resolve fills in defaults and checks the config against settings
func (c RenderConfig) resolve(settings Settings) (RenderConfig, error) {
	if c.Passes <= 0 {
		c.Passes = 1
	}
	// Every pass must take at least one sample
	c.Passes = min(c.Passes, settings.Samples)

	if c.Workers < 0 {
		return c, fmt.Errorf("workers %d: %w", c.Workers, ErrInvalidSettings)
	}
	if c.Workers == 0 {
		c.Workers = DefaultWorkerCount()
	}

	if c.StartPass < 0 || c.StartPass >= c.Passes {
		return c, fmt.Errorf("start pass %d of %d: %w", c.StartPass, c.Passes, ErrInvalidSettings)
	}
	if c.StartPass > 0 {
		if c.Initial == nil {
			return c, fmt.Errorf("start pass %d without an initial buffer: %w", c.StartPass, ErrInvalidSettings)
		}
		if c.Initial.Width != settings.Width || c.Initial.Height != settings.Height {
			return c, fmt.Errorf("initial buffer is %dx%d, want %dx%d: %w",
				c.Initial.Width, c.Initial.Height, settings.Width, settings.Height, ErrInvalidSettings)
		}
		if want := sampleOffset(settings.Samples, c.Passes, c.StartPass); c.Initial.Samples != want {
			return c, fmt.Errorf("initial buffer has %d samples, pass %d needs %d: %w",
				c.Initial.Samples, c.StartPass, want, ErrInvalidSettings)
		}
	}
	return c, nil
}

// samplesForPass splits samples evenly across passes; earlier passes take the remainder.
// Passes are numbered from 1.
func samplesForPass(samples, passes, pass int) int {
	n := samples / passes
	if pass <= samples%passes {
		n++
	}
	return n
}

// sampleOffset returns the number of samples taken by the first completed passes
func sampleOffset(samples, passes, completed int) int {
	offset := 0
	for pass := 1; pass <= completed; pass++ {
		offset += samplesForPass(samples, passes, pass)
	}
	return offset
}
