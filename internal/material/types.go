// Package material reads CryEngine .mtl material libraries.
package material

// NoDrawFlag marks a material that is never rendered (collision and
// proxy surfaces).
const NoDrawFlag = 0x0400

// Texture is one texture slot of a material.
type Texture struct {
	Map  string // slot name, e.g. "Diffuse", "Bumpmap"
	File string // path as written in the library, usually engine-relative
}

// Material is one material of a library.
type Material struct {
	Name       string
	Shader     string
	Diffuse    [3]float32
	Specular   [3]float32
	Emissive   [3]float32
	Opacity    float32
	Glossiness float32
	Flags      uint32
	Textures   []Texture
}

// NoDraw reports whether the material is hidden.
func (m *Material) NoDraw() bool {
	return m.Flags&NoDrawFlag != 0 || m.Shader == "Nodraw"
}

// Texture returns the file bound to slot, matched case-insensitively.
func (m *Material) Texture(slot string) (string, bool) {
	for _, t := range m.Textures {
		if equalFold(t.Map, slot) {
			return t.File, true
		}
	}
	return "", false
}

// Library is a parsed .mtl file. Materials holds the sub-materials, or the
// root material when the library has none, in the order subset material
// indices refer to them.
type Library struct {
	Name      string
	Path      string
	Materials []Material
}

// Default returns the material used when no library resolves.
func Default() Material {
	return Material{
		Name:     "default",
		Shader:   "Illum",
		Diffuse:  [3]float32{1, 1, 1},
		Specular: [3]float32{0, 0, 0},
		Opacity:  1,
	}
}
