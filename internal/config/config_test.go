package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestLoadAndResolve(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	data := `{"game_dir": "/games/far", "object_dir": "Game/Objects", "texture_size": 128, "workers": 3}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Resolve(Flags{Workers: 8})

	if cfg.ObjectDir != filepath.Join("/games/far", "Game/Objects") {
		t.Errorf("ObjectDir = %q", cfg.ObjectDir)
	}
	if cfg.OutputDir != filepath.Join("/games/far", "Export") {
		t.Errorf("OutputDir = %q", cfg.OutputDir)
	}
	if cfg.Manifest != filepath.Join(cfg.OutputDir, "manifest.json") {
		t.Errorf("Manifest = %q", cfg.Manifest)
	}
	if cfg.TextureSize != 128 {
		t.Errorf("TextureSize = %d, want 128", cfg.TextureSize)
	}
	if cfg.Workers != 8 {
		t.Errorf("Workers = %d, want flag value 8", cfg.Workers)
	}
}

func TestResolveDefaults(t *testing.T) {
	cfg := Config{ObjectDir: "/data/objects"}
	cfg.Resolve(Flags{OutputDir: "/tmp/out"})

	if cfg.ObjectDir != "/data/objects" || cfg.OutputDir != "/tmp/out" {
		t.Errorf("paths = %q, %q", cfg.ObjectDir, cfg.OutputDir)
	}
	if cfg.TextureSize != 256 {
		t.Errorf("TextureSize = %d, want 256", cfg.TextureSize)
	}
	if cfg.Workers != runtime.NumCPU() {
		t.Errorf("Workers = %d, want %d", cfg.Workers, runtime.NumCPU())
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("want error for missing file")
	}
	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil {
		t.Error("want error for malformed json")
	}
}
