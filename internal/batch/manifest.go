package batch

import (
	"encoding/json"
	"os"
	"path/filepath"

	"cgf-scene-loader/internal/asset"
)

// ManifestEntry represents one asset in the output manifest.
type ManifestEntry struct {
	Model    string         `json:"model"`
	Summary  *asset.Summary `json:"summary,omitempty"`
	Previews []string       `json:"previews,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// Manifest is the manifest.json document.
type Manifest struct {
	Total   int             `json:"total"`
	Failed  int             `json:"failed"`
	Entries []ManifestEntry `json:"entries"`
}

// NewManifest collects results. Model paths are made relative to root
// when possible.
func NewManifest(root string, results []Result) Manifest {
	m := Manifest{Total: len(results), Entries: make([]ManifestEntry, len(results))}
	for i, r := range results {
		model := r.Path
		if rel, err := filepath.Rel(root, r.Path); err == nil {
			model = filepath.ToSlash(rel)
		}
		if !r.Success {
			m.Failed++
		}
		m.Entries[i] = ManifestEntry{
			Model:    model,
			Summary:  r.Summary,
			Previews: r.Previews,
			Error:    r.Error,
		}
	}
	return m
}

// WriteManifest writes the manifest as indented JSON.
func WriteManifest(path string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
