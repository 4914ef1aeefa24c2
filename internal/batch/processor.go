// Package batch loads many assets concurrently and writes texture previews
// and a manifest of their summaries.
package batch

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"cgf-scene-loader/internal/asset"
	"cgf-scene-loader/internal/texture"
)

// Config holds all shared resources for a batch run.
type Config struct {
	ObjectDir   string
	OutputDir   string
	Textures    *texture.Index
	TexCache    *texture.Cache
	TextureSize int
	Workers     int
	NoCompanion bool
	Previews    bool

	// Progress, when set, is called every two seconds with the number of
	// finished assets.
	Progress func(done, total int, rate float64)
}

// Result holds the outcome of processing one asset.
type Result struct {
	Path     string
	Summary  *asset.Summary
	Previews []string // output paths relative to OutputDir
	Success  bool
	Error    string
}

// Discover returns every primary model file under root, sorted.
// Companion files are loaded through their primary and are not listed.
func Discover(root string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if asset.CheckExtension(path) == nil {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("batch: scan %s: %w", root, err)
	}
	sort.Strings(out)
	return out, nil
}

// Run processes all assets using a worker pool. Results keep the order of
// paths.
func Run(cfg Config, paths []string) []Result {
	total := len(paths)
	results := make([]Result, total)
	var processed atomic.Int64
	workers := max(cfg.Workers, 1)

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	if cfg.Progress != nil {
		go func() {
			ticker := time.NewTicker(2 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					p := processed.Load()
					if p > 0 {
						elapsed := time.Since(start).Seconds()
						cfg.Progress(int(p), total, float64(p)/elapsed)
					}
				}
			}
		}()
	}

	// Previews are shared between assets; each is written once.
	var written sync.Map

	// Worker pool
	work := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range work {
				results[idx] = processAsset(cfg, paths[idx], &written)
				processed.Add(1)
			}
		}()
	}

	// Send work
	for i := range paths {
		work <- i
	}
	close(work)

	wg.Wait()
	close(done)

	return results
}

// preview is one shared texture preview, written by the first asset that
// needs it.
type preview struct {
	once sync.Once
	ok   bool
	err  error
}

func processAsset(cfg Config, path string, written *sync.Map) Result {
	res := Result{Path: path}

	a, err := asset.Load(path, asset.Options{ObjectDir: cfg.ObjectDir, NoCompanion: cfg.NoCompanion})
	if err != nil {
		res.Error = err.Error()
		return res
	}
	s := a.Summary()
	res.Summary = &s

	if cfg.Previews && cfg.Textures != nil && cfg.TexCache != nil {
		for _, m := range a.Materials {
			for _, tex := range m.Textures {
				src, ok := cfg.Textures.ResolvePath(tex.File)
				if !ok {
					continue
				}
				rel := previewName(cfg.ObjectDir, src)
				v, _ := written.LoadOrStore(rel, &preview{})
				p := v.(*preview)
				p.once.Do(func() {
					img := cfg.TexCache.Resolve(tex.File)
					if img == nil {
						return
					}
					out := filepath.Join(cfg.OutputDir, filepath.FromSlash(rel))
					p.err = texture.WritePreview(out, img, cfg.TextureSize)
					p.ok = p.err == nil
				})
				if p.err != nil {
					res.Error = p.err.Error()
					return res
				}
				if p.ok {
					res.Previews = append(res.Previews, rel)
				}
			}
		}
	}

	res.Success = true
	return res
}

// previewName maps a texture file to its preview path, relative to the
// output directory and slash-separated.
func previewName(objectDir, src string) string {
	rel, err := filepath.Rel(objectDir, src)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(src)
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel)) + ".webp"
	return "textures/" + filepath.ToSlash(strings.ToLower(rel))
}
