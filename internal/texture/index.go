// Package texture finds, decodes and caches the texture files materials
// refer to, and writes downscaled WebP previews of them.
package texture

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// extPriority ranks decodable extensions; lower wins when two files share
// a name.
var extPriority = map[string]int{
	".tga":  0,
	".png":  1,
	".webp": 2,
	".bmp":  3,
	".jpg":  4,
	".jpeg": 4,
}

// Supported reports whether the extension can be decoded.
func Supported(path string) bool {
	_, ok := extPriority[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Index maps texture names to filesystem paths. Materials name textures
// relative to the object root, often with an extension (.dds) that was
// never shipped as a decodable file, so lookups ignore the extension.
type Index struct {
	root   string
	byPath map[string]string // lower relative path without extension → path
	byStem map[string]string // lower base name without extension → path
}

func key(p string) string {
	p = strings.ToLower(filepath.ToSlash(strings.ReplaceAll(p, `\`, "/")))
	return strings.TrimSuffix(p, filepath.Ext(p))
}

// BuildIndex scans root recursively for decodable textures.
func BuildIndex(root string) *Index {
	idx := &Index{
		root:   root,
		byPath: make(map[string]string),
		byStem: make(map[string]string),
	}
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !Supported(path) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		idx.add(idx.byPath, key(rel), path)
		idx.add(idx.byStem, key(filepath.Base(path)), path)
		return nil
	})
	return idx
}

func (idx *Index) add(m map[string]string, k, path string) {
	existing, ok := m[k]
	if !ok || better(path, existing) {
		m[k] = path
	}
}

func better(a, b string) bool {
	pa := extPriority[strings.ToLower(filepath.Ext(a))]
	pb := extPriority[strings.ToLower(filepath.Ext(b))]
	if pa != pb {
		return pa < pb
	}
	return a < b
}

// ResolvePath returns the file for a texture name, trying the relative
// path first and then the bare name.
func (idx *Index) ResolvePath(texName string) (string, bool) {
	if texName == "" {
		return "", false
	}
	k := key(texName)
	if p, ok := idx.byPath[strings.TrimPrefix(k, "/")]; ok {
		return p, true
	}
	p, ok := idx.byStem[key(filepath.Base(k))]
	return p, ok
}

// Len returns the number of indexed textures.
func (idx *Index) Len() int {
	return len(idx.byPath)
}
