package mesh

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"cgf-scene-loader/internal/chunk"
	"cgf-scene-loader/internal/mathutil"

	"github.com/go-gl/mathgl/mgl32"
)

// Options controls resolution.
type Options struct {
	// MaterialCount is the size of the resolved material list. Subset
	// material indices outside [0, MaterialCount) are clamped to 0.
	MaterialCount int

	// SkipRescale leaves combined-layout positions as stored. Set for skin
	// and character files, whose geometry is already in final space.
	SkipRescale bool
}

// HasGeometry reports whether m can contribute triangles. Meshes with no
// subsets or no vertices are placeholders.
func HasGeometry(m *chunk.Mesh) bool {
	return m.SubsetsID.Valid() && m.VertexCount > 0
}

// Resolve walks Mesh → MeshSubsets → DataStreams and assembles triangles.
// Missing optional streams become warnings; index ranges that leave the
// index buffer or reference missing vertices are structural errors.
func Resolve(t *chunk.Table, m *chunk.Mesh, opts Options) (*Geometry, error) {
	g := &Geometry{MeshID: m.ID}
	warnUnresolved := func(err error) {
		g.Warnings = append(g.Warnings, Warning{Unresolved: true, Message: err.Error()})
	}

	switch {
	case m.PositionsID.Valid() && m.VertsUVsID.Valid():
		return nil, chunk.Structuralf("mesh %d has both separate and combined vertex streams", m.ID)
	case m.PositionsID.Valid():
		g.Layout = LayoutSeparate
		if err := readSeparate(t, m, g); err != nil {
			if !errors.Is(err, chunk.ErrUnresolved) {
				return nil, err
			}
			warnUnresolved(err)
			return g, nil
		}
	case m.VertsUVsID.Valid():
		g.Layout = LayoutCombined
		if err := readCombined(t, m, g, opts.SkipRescale); err != nil {
			warnUnresolved(err)
			return g, nil
		}
	default:
		if m.VertexCount > 0 {
			warnUnresolved(fmt.Errorf("mesh %d has %d vertices but no position stream", m.ID, m.VertexCount))
		}
		return g, nil
	}

	g.MinBound = vec3(m.MinBound)
	g.MaxBound = vec3(m.MaxBound)
	if len(g.Positions) != m.VertexCount {
		g.warnf("mesh %d declares %d vertices, streams hold %d", m.ID, m.VertexCount, len(g.Positions))
	}

	subsets, err := chunk.Lookup[*chunk.MeshSubsets](t, m.SubsetsID)
	if err != nil {
		warnUnresolved(err)
		return g, nil
	}
	indices, err := t.Stream(m.IndicesID, chunk.StreamIndices)
	if err != nil {
		warnUnresolved(err)
		return g, nil
	}

	if !Partitions(subsets.Subsets, m.IndexCount) {
		g.warnf("mesh %d subsets do not partition %d indices", m.ID, m.IndexCount)
	}

	limit := min(m.IndexCount, len(indices.Indices))
	for _, s := range subsets.Subsets {
		if s.FirstIndex < 0 || s.IndexCount < 0 || s.FirstIndex+s.IndexCount > limit {
			return nil, chunk.Structuralf("mesh %d subset [%d, +%d) exceeds index buffer of %d",
				m.ID, s.FirstIndex, s.IndexCount, limit)
		}
		sub, err := g.assemble(s, indices.Indices, opts.MaterialCount)
		if err != nil {
			return nil, err
		}
		g.Subsets = append(g.Subsets, sub)
	}

	return g, nil
}

func (g *Geometry) warnf(format string, args ...any) {
	g.Warnings = append(g.Warnings, Warning{Message: fmt.Sprintf(format, args...)})
}

func (g *Geometry) assemble(s chunk.Subset, indices []uint32, materialCount int) (Subset, error) {
	sub := Subset{
		MaterialIndex:       s.MaterialID,
		SourceMaterialIndex: s.MaterialID,
		FirstIndex:          s.FirstIndex,
		IndexCount:          s.IndexCount,
		Triangles:           make([]Triangle, 0, s.IndexCount/3),
	}
	// Some exporters write material ids past the library; bind those to the
	// first material rather than guessing.
	if s.MaterialID < 0 || s.MaterialID >= materialCount {
		sub.MaterialIndex = 0
		g.warnf("material index %d out of range (%d materials), using 0", s.MaterialID, materialCount)
	}

	nv := len(g.Positions)
	end := s.FirstIndex + s.IndexCount
	for i := s.FirstIndex; i+3 <= end; i += 3 {
		var tri Triangle
		for k := 0; k < 3; k++ {
			v := int(indices[i+k])
			if v >= nv {
				return Subset{}, chunk.Structuralf("index %d at position %d exceeds %d vertices", v, i+k, nv)
			}
			tri[k] = Corner{Vertex: v, Color: -1}
			if g.Colors != nil {
				tri[k].Color = v
			}
		}
		sub.Triangles = append(sub.Triangles, tri)
	}
	return sub, nil
}

// Partitions reports whether the subset ranges cover [0, indexCount)
// exactly, with no gaps or overlaps.
func Partitions(subsets []chunk.Subset, indexCount int) bool {
	ranges := make([][2]int, 0, len(subsets))
	for _, s := range subsets {
		if s.IndexCount == 0 {
			continue
		}
		ranges = append(ranges, [2]int{s.FirstIndex, s.FirstIndex + s.IndexCount})
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i][0] < ranges[j][0] })

	next := 0
	for _, r := range ranges {
		if r[0] != next {
			return false
		}
		next = r[1]
	}
	return next == indexCount
}

func vec3(v mathutil.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{float32(v[0]), float32(v[1]), float32(v[2])}
}

func readSeparate(t *chunk.Table, m *chunk.Mesh, g *Geometry) error {
	pos, err := t.Stream(m.PositionsID, chunk.StreamPositions)
	if err != nil {
		return err
	}
	n := len(pos.Vectors)
	g.Positions = make([]mgl32.Vec3, n)
	for i, p := range pos.Vectors {
		g.Positions[i] = mgl32.Vec3(p)
	}

	// Absent normals default to zero vectors.
	g.Normals = make([]mgl32.Vec3, n)
	if m.NormalsID.Valid() {
		if ns, err := t.Stream(m.NormalsID, chunk.StreamNormals); err == nil {
			for i := 0; i < n && i < len(ns.Vectors); i++ {
				g.Normals[i] = safeVec3(mgl32.Vec3(ns.Vectors[i]))
			}
		} else {
			g.Warnings = append(g.Warnings, Warning{Unresolved: true, Message: err.Error()})
		}
	}

	g.UVs = make([]mgl32.Vec2, n)
	uvs, err := t.Stream(m.UVsID, chunk.StreamUVs)
	if err == nil {
		for i := 0; i < n && i < len(uvs.UVs); i++ {
			g.UVs[i] = flipUV(uvs.UVs[i][0], uvs.UVs[i][1])
		}
	} else {
		g.Warnings = append(g.Warnings, Warning{Unresolved: true, Message: err.Error()})
	}

	if m.ColorsID.Valid() {
		cs, err := t.Stream(m.ColorsID, chunk.StreamColors)
		if err != nil {
			g.Warnings = append(g.Warnings, Warning{Unresolved: true, Message: err.Error()})
		} else {
			g.Colors = make([]mgl32.Vec4, n)
			for i := 0; i < n && i < len(cs.Colors); i++ {
				c := cs.Colors[i]
				g.Colors[i] = mgl32.Vec4{float32(c[0]) / 255, float32(c[1]) / 255, float32(c[2]) / 255, float32(c[3]) / 255}
			}
		}
	}

	if m.TangentsID.Valid() {
		ts, err := t.Stream(m.TangentsID, chunk.StreamTangents)
		if err != nil {
			g.Warnings = append(g.Warnings, Warning{Unresolved: true, Message: err.Error()})
		} else {
			g.Tangents = make([]mgl32.Vec4, n)
			for i := 0; i < n && i < len(ts.Tangents); i++ {
				tg := ts.Tangents[i].Tangent
				g.Tangents[i] = mgl32.Vec4{
					float32(tg[0]) / 32767, float32(tg[1]) / 32767,
					float32(tg[2]) / 32767, float32(tg[3]) / 32767,
				}
			}
		}
	}
	return nil
}

// RescaleFactors returns the per-axis half extent, floored at 1, and the
// center of the bounding box.
func RescaleFactors(minBound, maxBound mathutil.Vec3) (scale, center mathutil.Vec3) {
	for i := 0; i < 3; i++ {
		scale[i] = math.Max(math.Abs(maxBound[i]-minBound[i])/2, 1)
		center[i] = (maxBound[i] + minBound[i]) / 2
	}
	return scale, center
}

// unpackNormal maps a packed unsigned byte to [-1, 1].
func unpackNormal(b uint8) float32 {
	return float32(b)/127.5 - 1
}

func readCombined(t *chunk.Table, m *chunk.Mesh, g *Geometry, skipRescale bool) error {
	vs, err := t.Stream(m.VertsUVsID, chunk.StreamVertsUVs)
	if err != nil {
		return err
	}
	scale, center := RescaleFactors(m.MinBound, m.MaxBound)

	n := len(vs.VertsUVs)
	g.Positions = make([]mgl32.Vec3, n)
	g.Normals = make([]mgl32.Vec3, n)
	g.UVs = make([]mgl32.Vec2, n)
	for i, v := range vs.VertsUVs {
		p := mathutil.Vec3{float64(v.Position[0]), float64(v.Position[1]), float64(v.Position[2])}
		if !skipRescale {
			p = p.Mul(scale).Add(center)
		}
		g.Positions[i] = vec3(p)
		g.Normals[i] = safeVec3(mgl32.Vec3{
			unpackNormal(v.PackedNormal[0]),
			unpackNormal(v.PackedNormal[1]),
			unpackNormal(v.PackedNormal[2]),
		})
		g.UVs[i] = flipUV(v.UV[0], v.UV[1])
	}
	return nil
}
