package material

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// xmlMaterial matches the <Material> element. Sub-materials nest the same
// element.
type xmlMaterial struct {
	Name         string        `xml:"Name,attr"`
	Shader       string        `xml:"Shader,attr"`
	MtlFlags     string        `xml:"MtlFlags,attr"`
	Diffuse      string        `xml:"Diffuse,attr"`
	Specular     string        `xml:"Specular,attr"`
	Emissive     string        `xml:"Emissive,attr"`
	Opacity      string        `xml:"Opacity,attr"`
	Shininess    string        `xml:"Shininess,attr"`
	Textures     []xmlTexture  `xml:"Textures>Texture"`
	SubMaterials []xmlMaterial `xml:"SubMaterials>Material"`
}

type xmlTexture struct {
	Map  string `xml:"Map,attr"`
	File string `xml:"File,attr"`
}

// Parse reads a .mtl file.
func Parse(path string) (*Library, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("material: read %s: %w", path, err)
	}
	lib, err := Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("material: parse %s: %w", path, err)
	}
	lib.Path = path
	lib.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return lib, nil
}

// Decode parses library XML. Unparseable numeric attributes keep their
// defaults.
func Decode(raw []byte) (*Library, error) {
	var root xmlMaterial
	if err := xml.Unmarshal(raw, &root); err != nil {
		return nil, err
	}

	lib := &Library{}
	if len(root.SubMaterials) == 0 {
		lib.Materials = []Material{convert(root)}
		return lib, nil
	}
	for _, sub := range root.SubMaterials {
		lib.Materials = append(lib.Materials, convert(sub))
	}
	return lib, nil
}

func convert(x xmlMaterial) Material {
	m := Default()
	m.Name = x.Name
	if x.Shader != "" {
		m.Shader = x.Shader
	}
	m.Diffuse = parseColor(x.Diffuse, m.Diffuse)
	m.Specular = parseColor(x.Specular, m.Specular)
	m.Emissive = parseColor(x.Emissive, m.Emissive)
	m.Opacity = parseFloat(x.Opacity, m.Opacity)
	m.Glossiness = parseFloat(x.Shininess, m.Glossiness)
	if v, err := strconv.ParseUint(strings.TrimSpace(x.MtlFlags), 10, 32); err == nil {
		m.Flags = uint32(v)
	}
	for _, t := range x.Textures {
		if t.File == "" {
			continue
		}
		m.Textures = append(m.Textures, Texture{Map: t.Map, File: t.File})
	}
	return m
}

// parseColor reads "r,g,b" with components in [0, 1].
func parseColor(s string, def [3]float32) [3]float32 {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return def
	}
	var c [3]float32
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return def
		}
		c[i] = float32(v)
	}
	return c
}

func parseFloat(s string, def float32) float32 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 32)
	if err != nil {
		return def
	}
	return float32(v)
}

func equalFold(a, b string) bool {
	return strings.EqualFold(a, b)
}

// Locate finds the library file for name, as written in a MtlName chunk.
// name may carry directories and may omit the .mtl extension. Each dir is
// tried with the full name, then with its base name.
func Locate(name string, dirs ...string) (string, bool) {
	name = filepath.FromSlash(strings.ReplaceAll(name, `\`, "/"))
	if !strings.EqualFold(filepath.Ext(name), ".mtl") {
		name += ".mtl"
	}
	candidates := []string{name}
	if base := filepath.Base(name); base != name {
		candidates = append(candidates, base)
	}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		for _, c := range candidates {
			p := filepath.Join(dir, c)
			if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
				return p, true
			}
		}
	}
	return "", false
}
