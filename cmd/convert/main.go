package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"cgf-scene-loader/internal/batch"
	"cgf-scene-loader/internal/config"
	"cgf-scene-loader/internal/texture"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to config.json file")
	testN := flag.Int("test", 0, "Convert only the first N models")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")
	gameDir := flag.String("game", "", "Game directory containing Objects/ (default: auto-detect)")
	objectDir := flag.String("objects", "", "Object directory (default: <game>/Objects)")
	outputDir := flag.String("output", "", "Output directory (default: <game>/Export)")
	size := flag.Int("size", 0, "Texture preview size in pixels (default: 256)")
	noPreviews := flag.Bool("no-previews", false, "Skip texture previews")

	flag.Parse()

	// Load config
	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	// CLI flags override config file
	cfg.Resolve(config.Flags{
		GameDir:     *gameDir,
		ObjectDir:   *objectDir,
		OutputDir:   *outputDir,
		TextureSize: *size,
		Workers:     *workers,
	})
	if *noPreviews {
		cfg.SkipPreviews = true
	}

	if cfg.ObjectDir == "" {
		fmt.Fprintln(os.Stderr, "Error: cannot find Objects directory. Use -game, -objects or config.json.")
		os.Exit(1)
	}

	paths, err := batch.Discover(cfg.ObjectDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Limit for testing
	if *testN > 0 && *testN < len(paths) {
		paths = paths[:*testN]
	}

	if len(paths) == 0 {
		fmt.Println("No models to convert.")
		os.Exit(0)
	}

	// Build texture index
	var texIndex *texture.Index
	var texCache *texture.Cache
	if !cfg.SkipPreviews {
		texIndex = texture.BuildIndex(cfg.ObjectDir)
		texCache = texture.NewCache(texIndex)
		fmt.Printf("Textures: %d indexed\n", texIndex.Len())
	}

	fmt.Printf("Models: %d, Workers: %d\n", len(paths), cfg.Workers)
	fmt.Printf("Output: %s\n", cfg.OutputDir)
	fmt.Println("------------------------------------------------------------")

	start := time.Now()

	results := batch.Run(batch.Config{
		ObjectDir:   cfg.ObjectDir,
		OutputDir:   cfg.OutputDir,
		Textures:    texIndex,
		TexCache:    texCache,
		TextureSize: cfg.TextureSize,
		Workers:     cfg.Workers,
		NoCompanion: cfg.NoCompanion,
		Previews:    !cfg.SkipPreviews,
		Progress: func(done, total int, rate float64) {
			fmt.Printf("  [%d/%d] %.1f models/sec\n", done, total, rate)
		},
	}, paths)

	elapsed := time.Since(start)
	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", elapsed.Seconds())

	manifest := batch.NewManifest(cfg.ObjectDir, results)
	fmt.Printf("Converted: %d/%d\n", manifest.Total-manifest.Failed, manifest.Total)

	if manifest.Failed > 0 {
		fmt.Printf("\nFailed (%d):\n", manifest.Failed)
		shown := 0
		for _, r := range results {
			if r.Success || shown == 20 {
				continue
			}
			fmt.Printf("  %s: %s\n", r.Path, r.Error)
			shown++
		}
	}

	if texCache != nil {
		for p, err := range texCache.Failures() {
			fmt.Fprintf(os.Stderr, "Warning: texture %s: %v\n", p, err)
		}
	}

	if err := batch.WriteManifest(cfg.Manifest, manifest); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: manifest write failed: %v\n", err)
	} else {
		fmt.Printf("Manifest: %s\n", cfg.Manifest)
	}

	if manifest.Failed > 0 {
		os.Exit(1)
	}
}
