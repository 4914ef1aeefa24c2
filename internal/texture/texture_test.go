package texture

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func writeImage(t *testing.T, path string, img image.Image) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	var err error
	switch filepath.Ext(path) {
	case ".png":
		err = png.Encode(&buf, img)
	case ".bmp":
		err = bmp.Encode(&buf, img)
	default:
		buf.WriteString("not an image")
	}
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestIndexResolve(t *testing.T) {
	root := t.TempDir()
	red := solid(4, 4, color.NRGBA{255, 0, 0, 255})
	writeImage(t, filepath.Join(root, "objects", "ship", "hull_diff.bmp"), red)
	writeImage(t, filepath.Join(root, "objects", "ship", "hull_diff.png"), red)
	writeImage(t, filepath.Join(root, "shared", "rust.png"), red)
	writeImage(t, filepath.Join(root, "notes.txt"), red)

	idx := BuildIndex(root)
	if idx.Len() != 2 {
		t.Errorf("Len() = %d, want 2", idx.Len())
	}

	tests := []struct {
		name string
		want string
		ok   bool
	}{
		{`Objects\Ship\hull_diff.dds`, filepath.Join(root, "objects", "ship", "hull_diff.png"), true},
		{"textures/rust.tif", filepath.Join(root, "shared", "rust.png"), true},
		{"missing.dds", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := idx.ResolvePath(tt.name)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ResolvePath(%q) = %q, %v, want %q, %v", tt.name, got, ok, tt.want, tt.ok)
		}
	}
}

func TestLoadTexture(t *testing.T) {
	dir := t.TempDir()
	want := color.NRGBA{10, 20, 30, 255}
	path := filepath.Join(dir, "a.bmp")
	writeImage(t, path, solid(3, 2, want))

	img, err := LoadTexture(path)
	if err != nil {
		t.Fatalf("LoadTexture: %v", err)
	}
	if img.Bounds().Dx() != 3 || img.Bounds().Dy() != 2 {
		t.Errorf("bounds = %v, want 3x2", img.Bounds())
	}
	if got := img.NRGBAAt(1, 1); got != want {
		t.Errorf("pixel = %v, want %v", got, want)
	}

	if _, err := LoadTexture(filepath.Join(dir, "a.dds")); err == nil {
		t.Error("want error for unsupported extension")
	}
	bad := filepath.Join(dir, "bad.png")
	if err := os.WriteFile(bad, []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadTexture(bad); err == nil {
		t.Error("want error for corrupt file")
	}
}

func TestCache(t *testing.T) {
	root := t.TempDir()
	writeImage(t, filepath.Join(root, "ok.png"), solid(2, 2, color.NRGBA{A: 255}))
	if err := os.WriteFile(filepath.Join(root, "broken.png"), []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := NewCache(BuildIndex(root))
	first := c.Resolve("ok.dds")
	if first == nil {
		t.Fatal("Resolve(ok) = nil")
	}
	if c.Resolve("OK") != first {
		t.Error("second Resolve should hit the cache")
	}
	if c.Resolve("missing") != nil {
		t.Error("missing texture should resolve to nil")
	}
	if c.Resolve("broken") != nil {
		t.Error("corrupt texture should resolve to nil")
	}
	if len(c.Failures()) != 1 {
		t.Errorf("Failures() = %v, want the corrupt file", c.Failures())
	}
}

func TestDownscale(t *testing.T) {
	img := solid(64, 32, color.NRGBA{200, 100, 50, 255})

	small := Downscale(img, 16)
	if small.Bounds().Dx() != 16 || small.Bounds().Dy() != 8 {
		t.Errorf("bounds = %v, want 16x8", small.Bounds())
	}
	got := small.NRGBAAt(8, 4)
	want := color.NRGBA{200, 100, 50, 255}
	if absDiff(got.R, want.R) > 1 || absDiff(got.G, want.G) > 1 || absDiff(got.B, want.B) > 1 || got.A != want.A {
		t.Errorf("center pixel = %v, want %v", got, want)
	}
	if Downscale(img, 128) != img {
		t.Error("image within bounds should be returned as is")
	}
}

func TestWritePreview(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "preview.webp")
	if err := WritePreview(path, solid(32, 32, color.NRGBA{0, 255, 0, 128}), 8); err != nil {
		t.Fatalf("WritePreview: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(raw) < 12 || string(raw[:4]) != "RIFF" || string(raw[8:12]) != "WEBP" {
		t.Errorf("not a webp file: % x", raw[:min(len(raw), 12)])
	}
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}
