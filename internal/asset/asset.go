package asset

import (
	"fmt"
	"path/filepath"

	"cgf-scene-loader/internal/chunk"
	"cgf-scene-loader/internal/material"
	"cgf-scene-loader/internal/mesh"
	"cgf-scene-loader/internal/scene"
	"cgf-scene-loader/internal/skeleton"
	"cgf-scene-loader/internal/skinning"
)

// Diagnostic is a recoverable problem recorded while loading.
type Diagnostic = scene.Diagnostic

// Options controls loading.
type Options struct {
	// ObjectDir is searched for material libraries after the model's own
	// directory.
	ObjectDir string

	// NoCompanion skips companion discovery.
	NoCompanion bool
}

// Asset is a fully assembled model. It is read-only once returned.
type Asset struct {
	Path   string
	Models []*SourceModel

	Graph    *scene.Graph
	Root     *scene.Node
	Skinning skinning.Info
	Skeleton *skeleton.Hierarchy

	Materials       []material.Material
	MaterialLibrary string // path of the library, empty when defaulted

	Diagnostics []Diagnostic
}

// Load reads path and its companion file, if any, and builds the Asset.
func Load(path string, opts Options) (*Asset, error) {
	if err := CheckExtension(path); err != nil {
		return nil, err
	}

	primary, err := LoadModel(path, false)
	if err != nil {
		return nil, err
	}
	models := []*SourceModel{primary}

	if !opts.NoCompanion {
		if cp, ok := findCompanion(path); ok {
			companion, err := LoadModel(cp, true)
			if err != nil {
				return nil, err
			}
			models = append(models, companion)
		}
	}

	var diags []Diagnostic
	var lib *material.Library
	if name, ok := materialName(models); ok {
		if p, found := material.Locate(name, filepath.Dir(path), opts.ObjectDir); found {
			lib, err = material.Parse(p)
			if err != nil {
				diags = append(diags, Diagnostic{Kind: scene.Unresolved, Message: err.Error()})
				lib = nil
			}
		} else {
			diags = append(diags, Diagnostic{Kind: scene.Unresolved, Message: fmt.Sprintf("material library %q not found", name)})
		}
	}

	var mats []material.Material
	if lib != nil {
		mats = lib.Materials
	}
	a, err := Build(models, mats)
	if err != nil {
		return nil, err
	}
	if lib != nil {
		a.MaterialLibrary = lib.Path
	}
	a.Diagnostics = append(diags, a.Diagnostics...)
	return a, nil
}

func materialName(models []*SourceModel) (string, bool) {
	for _, m := range models {
		if name, ok := m.MaterialName(); ok {
			return name, true
		}
	}
	return "", false
}

// Build assembles already loaded models, primary first. materials may be
// empty, in which case a single default material is used.
func Build(models []*SourceModel, materials []material.Material) (*Asset, error) {
	if len(models) == 0 {
		return nil, fmt.Errorf("asset: no models")
	}
	primary := models[0]
	a := &Asset{Path: primary.Path, Models: models, Materials: materials}

	if len(a.Materials) == 0 {
		a.Materials = []material.Material{material.Default()}
		a.Diagnostics = append(a.Diagnostics, Diagnostic{
			Kind:    scene.DataQuality,
			Message: "no materials, using default",
		})
	}

	var companion *chunk.Table
	if len(models) > 1 {
		companion = models[1].Table
	}
	opts := scene.Options{Mesh: mesh.Options{
		MaterialCount: len(a.Materials),
		SkipRescale:   skipsRescale(primary.Path),
	}}
	g, err := scene.Build(primary.Table, companion, opts)
	if err != nil {
		return nil, fmt.Errorf("asset: %s: %w", primary.Path, err)
	}
	a.Graph = g
	a.Root = g.Root
	a.Diagnostics = append(a.Diagnostics, g.Diagnostics...)

	infos := make([]skinning.Info, len(models))
	for i, m := range models {
		infos[i] = m.Skinning
	}
	a.Skinning = skinning.Consolidate(infos...)

	a.Skeleton, err = skeleton.New(a.Skinning.CompiledBones)
	if err != nil {
		return nil, fmt.Errorf("asset: %s: %w", primary.Path, err)
	}
	return a, nil
}

// Companion returns the companion model, or nil.
func (a *Asset) Companion() *SourceModel {
	for _, m := range a.Models {
		if m.Companion {
			return m
		}
	}
	return nil
}

// Weights returns the bone influences of a node's vertices.
func (a *Asset) Weights(n *scene.Node) ([]skinning.VertexWeights, error) {
	if n.Placeholder() {
		return nil, nil
	}
	w, err := a.Skinning.Weights(n.Geometry.VertexCount())
	if err != nil {
		return nil, fmt.Errorf("asset: node %q: %w", n.Name, err)
	}
	return w, nil
}
