// Package mesh turns a Mesh chunk and the streams it references into a
// layout-independent triangle list per material subset.
package mesh

import (
	"math"

	"cgf-scene-loader/internal/chunk"

	"github.com/go-gl/mathgl/mgl32"
)

// Layout is the physical vertex layout a mesh was stored in.
type Layout int

const (
	LayoutSeparate Layout = iota // position/normal/UV/color streams
	LayoutCombined               // packed position+UV+normal stream
)

func (l Layout) String() string {
	if l == LayoutCombined {
		return "combined"
	}
	return "separate"
}

// Corner is one triangle corner. Vertex indexes Positions, Normals and UVs;
// Color indexes Colors and is -1 when the mesh has no colors.
type Corner struct {
	Vertex int
	Color  int
}

// Triangle is a flat triangle; shared vertices are repeated per corner.
type Triangle [3]Corner

// Subset is the resolved triangle list of one material range.
type Subset struct {
	MaterialIndex       int // index into the resolved materials, after clamping
	SourceMaterialIndex int
	FirstIndex          int
	IndexCount          int
	Triangles           []Triangle
}

// Warning is a recoverable problem found while resolving. Unresolved is set
// for missing references, otherwise the data was corrected in place.
type Warning struct {
	Unresolved bool
	Message    string
}

// Geometry is a resolved mesh.
type Geometry struct {
	MeshID    chunk.ID
	Layout    Layout
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	UVs       []mgl32.Vec2
	Colors    []mgl32.Vec4 // nil when absent
	Tangents  []mgl32.Vec4 // nil when absent
	MinBound  mgl32.Vec3
	MaxBound  mgl32.Vec3
	Subsets   []Subset
	Warnings  []Warning
}

// VertexCount returns the number of resolved vertices.
func (g *Geometry) VertexCount() int {
	return len(g.Positions)
}

// TriangleCount returns the number of triangles over all subsets.
func (g *Geometry) TriangleCount() int {
	n := 0
	for _, s := range g.Subsets {
		n += len(s.Triangles)
	}
	return n
}

// Safe replaces non-finite values: -Inf and +Inf become the lowest and
// highest finite float32, NaN becomes 0.
func Safe(f float32) float32 {
	switch {
	case math.IsNaN(float64(f)):
		return 0
	case math.IsInf(float64(f), 1):
		return math.MaxFloat32
	case math.IsInf(float64(f), -1):
		return -math.MaxFloat32
	}
	return f
}

func safeVec3(v mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{Safe(v[0]), Safe(v[1]), Safe(v[2])}
}

// flipUV emits V as 1 - V and sanitizes both components.
func flipUV(u, v float32) mgl32.Vec2 {
	return mgl32.Vec2{Safe(u), Safe(1 - v)}
}
