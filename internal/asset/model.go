// Package asset loads a model and its companion file and assembles the
// node tree, skinning, skeleton and materials into one Asset.
package asset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cgf-scene-loader/internal/chunk"
	"cgf-scene-loader/internal/cryfile"
	"cgf-scene-loader/internal/skinning"
)

// Extensions lists the primary file extensions, without the dot.
var Extensions = []string{"cgf", "cga", "chr", "skin", "anim", "soc"}

// SourceModel is one decoded file.
type SourceModel struct {
	Path      string
	FileType  uint32
	Version   uint32
	Table     *chunk.Table
	Skinning  skinning.Info
	Skipped   int
	Companion bool
}

// NewSourceModel indexes a decoded file.
func NewSourceModel(f *cryfile.File, companion bool) (*SourceModel, error) {
	t, err := chunk.Build(f.Records)
	if err != nil {
		return nil, fmt.Errorf("asset: %s: %w", f.Path, err)
	}
	return &SourceModel{
		Path:      f.Path,
		FileType:  f.FileType,
		Version:   f.Version,
		Table:     t,
		Skinning:  skinning.FromTable(t),
		Skipped:   f.Skipped,
		Companion: companion,
	}, nil
}

// LoadModel decodes and indexes one file.
func LoadModel(path string, companion bool) (*SourceModel, error) {
	f, err := cryfile.Parse(path)
	if err != nil {
		return nil, err
	}
	return NewSourceModel(f, companion)
}

// RootNode returns the first node without a parent, or nil.
func (m *SourceModel) RootNode() *chunk.Node {
	for _, n := range m.Table.Nodes() {
		if !n.ParentID.Valid() {
			return n
		}
	}
	return nil
}

// Bones returns the file's own compiled bones.
func (m *SourceModel) Bones() []chunk.CompiledBone {
	return m.Skinning.CompiledBones
}

// MaterialName returns the name of the first MtlName chunk.
func (m *SourceModel) MaterialName() (string, bool) {
	for _, r := range chunk.All[*chunk.MtlName](m.Table) {
		if r.Name != "" {
			return r.Name, true
		}
	}
	return "", false
}

// CheckExtension returns a FormatError unless path has a primary extension.
func CheckExtension(path string) error {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	for _, e := range Extensions {
		if ext == e {
			return nil
		}
	}
	return &chunk.FormatError{Path: path, Reason: fmt.Sprintf("unsupported extension %q", filepath.Ext(path))}
}

// CompanionPath returns the companion file path for a primary file:
// ".cga" becomes ".cgam".
func CompanionPath(path string) string {
	return path + "m"
}

// findCompanion returns the companion path if it exists.
func findCompanion(path string) (string, bool) {
	p := CompanionPath(path)
	fi, err := os.Stat(p)
	if err != nil || fi.IsDir() {
		return "", false
	}
	return p, true
}

// skipsRescale reports whether combined-layout positions in path are
// already in final space.
func skipsRescale(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".skin", ".chr", ".skinm", ".chrm":
		return true
	}
	return false
}
