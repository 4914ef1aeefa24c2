// Package config loads converter settings from a JSON file and CLI flags.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Config holds all configurable paths and conversion settings.
type Config struct {
	// Paths
	GameDir   string `json:"game_dir"`
	ObjectDir string `json:"object_dir"`
	OutputDir string `json:"output_dir"`
	Manifest  string `json:"manifest"`

	// Conversion settings
	TextureSize  int  `json:"texture_size"`
	Workers      int  `json:"workers"`
	NoCompanion  bool `json:"no_companion"`
	SkipPreviews bool `json:"skip_previews"`
}

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	GameDir     string
	ObjectDir   string
	OutputDir   string
	TextureSize int
	Workers     int
}

// Resolve fills in any empty fields with auto-detected defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	// CLI flags override config file
	if flags.GameDir != "" {
		c.GameDir = flags.GameDir
	}
	if flags.ObjectDir != "" {
		c.ObjectDir = flags.ObjectDir
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.TextureSize > 0 {
		c.TextureSize = flags.TextureSize
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}

	// Auto-detect game dir if still empty
	if c.GameDir == "" && c.ObjectDir == "" {
		c.GameDir = detectGameDir()
	}

	// Resolve relative paths against the game dir
	if c.GameDir != "" {
		c.ObjectDir = under(c.GameDir, c.ObjectDir, "Objects")
		c.OutputDir = under(c.GameDir, c.OutputDir, "Export")
	}
	if c.OutputDir == "" {
		c.OutputDir = "export"
	}
	if c.Manifest == "" {
		c.Manifest = filepath.Join(c.OutputDir, "manifest.json")
	} else if !filepath.IsAbs(c.Manifest) {
		c.Manifest = filepath.Join(c.OutputDir, c.Manifest)
	}

	// Defaults for conversion settings
	if c.TextureSize <= 0 {
		c.TextureSize = 256
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
}

// under returns p resolved against base, or base/def when p is empty.
func under(base, p, def string) string {
	switch {
	case p == "":
		return filepath.Join(base, def)
	case filepath.IsAbs(p):
		return p
	default:
		return filepath.Join(base, p)
	}
}

func detectGameDir() string {
	// Try relative to executable
	exe, _ := os.Executable()
	if exe != "" {
		dir := filepath.Dir(exe)
		for _, base := range []string{dir, filepath.Dir(dir), filepath.Join(dir, "..", "..")} {
			if isDir(filepath.Join(base, "Objects")) {
				return base
			}
		}
	}

	// Try current working directory and its parent
	cwd, _ := os.Getwd()
	for _, base := range []string{cwd, filepath.Dir(cwd)} {
		if isDir(filepath.Join(base, "Objects")) {
			return base
		}
	}

	return ""
}

func isDir(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.IsDir()
}
