package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/png"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/df07/go-pathtracer/pkg/checkpoint"
	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/renderer"
	"github.com/df07/go-pathtracer/pkg/scene"
)

// Config holds the parsed command line
type Config struct {
	Scene      string
	Preset     string
	Width      int
	Height     int
	Samples    int
	Depth      int
	Passes     int
	Workers    int
	Seed       int64
	Output     string
	Checkpoint string
	Resume     string
	Stats      bool
	Help       bool
}

func parseFlags(args []string, output io.Writer) (Config, *flag.FlagSet, error) {
	var cfg Config
	fs := flag.NewFlagSet("pathtracer", flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&cfg.Scene, "scene", "book-cover", "Scene name (see -help)")
	fs.StringVar(&cfg.Preset, "preset", "low", "Settings preset: 'low' or 'high'")
	fs.IntVar(&cfg.Width, "width", 0, "Image width (overrides preset)")
	fs.IntVar(&cfg.Height, "height", 0, "Image height (overrides preset)")
	fs.IntVar(&cfg.Samples, "samples", 0, "Samples per pixel (overrides preset)")
	fs.IntVar(&cfg.Depth, "depth", 0, "Maximum bounce depth (overrides preset)")
	fs.IntVar(&cfg.Passes, "passes", 1, "Progressive passes to split the samples across")
	fs.IntVar(&cfg.Workers, "workers", 0, "Number of parallel workers (0 = auto-detect)")
	fs.Int64Var(&cfg.Seed, "seed", 42, "Seed for sampling and random scene content")
	fs.StringVar(&cfg.Output, "output", "", "PNG output path (default output/<scene>/render_<timestamp>.png)")
	fs.StringVar(&cfg.Checkpoint, "checkpoint", "", "Directory to write a checkpoint bundle into after every pass")
	fs.StringVar(&cfg.Resume, "resume", "", "Checkpoint bundle directory to resume from")
	fs.BoolVar(&cfg.Stats, "stats", false, "Record and print intersection statistics")
	fs.BoolVar(&cfg.Help, "help", false, "Show help information")

	err := fs.Parse(args)
	return cfg, fs, err
}

// resolveSettings starts from the preset and applies explicit overrides
func resolveSettings(cfg Config) (renderer.Settings, error) {
	settings, err := renderer.SettingsForPreset(cfg.Preset)
	if err != nil {
		return settings, err
	}
	if cfg.Width > 0 {
		settings.Width = cfg.Width
	}
	if cfg.Height > 0 {
		settings.Height = cfg.Height
	}
	if cfg.Samples > 0 {
		settings.Samples = cfg.Samples
	}
	if cfg.Depth > 0 {
		settings.Depth = cfg.Depth
	}
	return settings, settings.Validate()
}

func printHelp(fs *flag.FlagSet, out io.Writer) {
	fmt.Fprintln(out, "Path Tracer")
	fmt.Fprintln(out, "Usage: pathtracer [options]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Options:")
	fs.SetOutput(out)
	fs.PrintDefaults()
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Available scenes:")
	for _, info := range scene.ListScenes() {
		fmt.Fprintf(out, "  %-15s %s\n", info.ID, info.Description)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Output will be saved to output/<scene>/render_<timestamp>.png unless -output is given")
}

// logSystemInfo reports the host and the memory the accumulation buffers will need
func logSystemInfo(logger core.Logger, settings renderer.Settings, workers int) {
	info, err := renderer.GetSystemInfo()
	if err != nil {
		logger.Printf("System info unavailable: %v\n", err)
		return
	}
	// One buffer per worker plus the running total
	need := renderer.EstimateBufferBytes(settings.Width, settings.Height, workers+1)
	logger.Printf("CPU: %s (%d logical cores), RAM: %d MiB total, %d MiB available\n",
		info.CPUModel, info.LogicalCores, info.TotalRAM>>20, info.AvailableRAM>>20)
	logger.Printf("Accumulation buffers need about %d MiB\n", need>>20)
	if info.AvailableRAM > 0 && need > info.AvailableRAM {
		logger.Printf("Warning: accumulation buffers exceed available memory\n")
	}
}

func logHitStats(logger core.Logger, hits *core.HitStats) {
	for _, category := range hits.Categories() {
		count := hits.Record(category)
		total := count.Hits + count.Misses
		ratio := 0.0
		if total > 0 {
			ratio = float64(count.Hits) / float64(total)
		}
		logger.Printf("  %-14s %12d hits %12d misses (%.1f%% hit)\n",
			category, count.Hits, count.Misses, 100*ratio)
	}
}

// run renders the configured scene and writes the PNG, returning the output path
func run(ctx context.Context, cfg Config, logger core.Logger) (string, error) {
	settings, err := resolveSettings(cfg)
	if err != nil {
		return "", err
	}

	config := renderer.DefaultRenderConfig()
	config.Passes = cfg.Passes
	config.Workers = cfg.Workers
	config.Seed = cfg.Seed

	sceneName := cfg.Scene
	if cfg.Resume != "" {
		saved, err := checkpoint.LoadLatest(cfg.Resume)
		if err != nil {
			return "", fmt.Errorf("loading checkpoint: %w", err)
		}
		// The bundle fixes everything that influences the samples
		sceneName = saved.Manifest.Scene
		settings = saved.Manifest.Settings()
		config = saved.ResumeConfig(config)
		logger.Printf("Loaded checkpoint %s at pass %d of %d\n", saved.Dir, saved.Pass, saved.Manifest.Passes)
		if cfg.Workers != 0 && cfg.Workers != config.Workers {
			logger.Printf("Ignoring -workers %d; the checkpoint was rendered with %d workers\n", cfg.Workers, config.Workers)
		}

		if saved.Pass >= saved.Manifest.Passes {
			logger.Printf("Checkpoint is already complete\n")
			return writeImage(cfg, sceneName, saved.Buffer, logger)
		}
	}

	logger.Printf("Using %s scene...\n", sceneName)
	selected, err := scene.New(sceneName, settings, scene.Options{Seed: config.Seed, RecordStats: cfg.Stats})
	if err != nil {
		return "", err
	}
	logger.Printf("Scene has %d primitives\n", selected.Primitives)

	raytracer, err := renderer.NewRaytracer(selected, settings, config, logger)
	if err != nil {
		return "", err
	}
	resolved := raytracer.Config()
	logSystemInfo(logger, settings, resolved.Workers)

	var writer *checkpoint.Writer
	if cfg.Checkpoint != "" {
		writer, err = checkpoint.NewWriter(cfg.Checkpoint, checkpoint.Manifest{
			Scene:   sceneName,
			Width:   settings.Width,
			Height:  settings.Height,
			Samples: settings.Samples,
			Depth:   settings.Depth,
			Passes:  resolved.Passes,
			Seed:    resolved.Seed,
			Workers: resolved.Workers,
		}, nil)
		if err != nil {
			return "", err
		}
		defer writer.Close()
		manifest := writer.Manifest()
		logger.Printf("Writing checkpoints to %s (%d passes, seed %d, %d workers)\n",
			writer.Directory(), manifest.Passes, manifest.Seed, manifest.Workers)
	}

	var writeErr error
	buffer, stats, err := raytracer.Render(ctx, func(result renderer.PassResult) {
		if writer == nil || writeErr != nil {
			return
		}
		writeErr = writer.WriteFrame(result)
	})
	if writeErr != nil {
		return "", fmt.Errorf("writing checkpoint: %w", writeErr)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return "", err
	}
	if err != nil {
		logger.Printf("Render interrupted after pass %d; saving partial image\n", stats.Passes)
	}

	logger.Printf("Render completed in %v (%d passes, %d batches, %d samples/pixel)\n",
		stats.Duration.Round(time.Millisecond), stats.Passes, stats.Batches, stats.TotalSamples)
	if cfg.Stats {
		logger.Printf("Intersection statistics:\n")
		logHitStats(logger, stats.Hits)
	}

	if buffer.Samples == 0 {
		return "", fmt.Errorf("no samples rendered")
	}
	return writeImage(cfg, sceneName, buffer, logger)
}

func writeImage(cfg Config, sceneName string, buffer *renderer.PixelBuffer, logger core.Logger) (string, error) {
	filename := cfg.Output
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = filepath.Join("output", sceneName, fmt.Sprintf("render_%s.png", timestamp))
	}
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("creating output directory: %w", err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("creating output file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, buffer.Image()); err != nil {
		return "", fmt.Errorf("saving PNG: %w", err)
	}

	logger.Printf("Render saved as %s\n", filename)
	return filename, nil
}

func main() {
	cfg, fs, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(2)
	}
	if cfg.Help {
		printHelp(fs, os.Stdout)
		return
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "Unexpected arguments: %s\n", strings.Join(fs.Args(), " "))
		os.Exit(2)
	}

	fmt.Println("Starting Path Tracer...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if _, err := run(ctx, cfg, renderer.NewDefaultLogger()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
