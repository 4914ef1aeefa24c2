// Package cryfiletest assembles chunk files in memory for tests.
package cryfiletest

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"

	"cgf-scene-loader/internal/chunk"
	"cgf-scene-loader/internal/cryfile"
	"cgf-scene-loader/internal/mathutil"
)

type rawChunk struct {
	typ     uint32
	version uint32
	id      int32
	payload []byte
}

// Builder collects chunks and lays them out as a chunk file.
type Builder struct {
	version uint32
	chunks  []rawChunk
}

// New returns a builder for table version 0x745 or 0x746.
func New(version uint32) *Builder {
	return &Builder{version: version}
}

// Raw appends a chunk with a hand-made payload.
func (b *Builder) Raw(typ uint32, id int32, payload []byte) *Builder {
	b.chunks = append(b.chunks, rawChunk{typ: typ, version: 0x800, id: id, payload: payload})
	return b
}

type buf struct{ bytes.Buffer }

func (w *buf) put(vs ...any) {
	for _, v := range vs {
		binary.Write(&w.Buffer, binary.LittleEndian, v)
	}
}

func (w *buf) str(s string, n int) {
	b := make([]byte, n)
	copy(b, s)
	w.Write(b)
}

// Node appends a node chunk. m uses the column-vector convention and is
// stored transposed, as on disk.
func (b *Builder) Node(id int32, name string, parent, object int32, m mathutil.Mat4) *Builder {
	var w buf
	w.str(name, 64)
	w.put(object, parent, int32(0), int32(0), uint32(0))
	stored := m.Transpose()
	for _, v := range stored {
		w.put(float32(v))
	}
	return b.Raw(cryfile.TypeNode, id, w.Bytes())
}

// Helper appends a helper chunk.
func (b *Builder) Helper(id int32) *Builder {
	var w buf
	w.put(uint32(0), float32(1), float32(1), float32(1))
	return b.Raw(cryfile.TypeHelper, id, w.Bytes())
}

// Mesh appends a mesh chunk built from m's counts, ids and bounds.
func (b *Builder) Mesh(id int32, m chunk.Mesh) *Builder {
	var w buf
	w.put(int32(0), int32(0), int32(m.VertexCount), int32(m.IndexCount), int32(0), int32(m.SubsetsID), int32(0))
	var streams [16]int32
	streams[chunk.StreamPositions] = int32(m.PositionsID)
	streams[chunk.StreamNormals] = int32(m.NormalsID)
	streams[chunk.StreamUVs] = int32(m.UVsID)
	streams[chunk.StreamColors] = int32(m.ColorsID)
	streams[chunk.StreamIndices] = int32(m.IndicesID)
	streams[chunk.StreamTangents] = int32(m.TangentsID)
	streams[chunk.StreamBoneMap] = int32(m.BoneMapID)
	streams[chunk.StreamVertsUVs] = int32(m.VertsUVsID)
	w.put(streams)
	for _, v := range m.MinBound {
		w.put(float32(v))
	}
	for _, v := range m.MaxBound {
		w.put(float32(v))
	}
	return b.Raw(cryfile.TypeMesh, id, w.Bytes())
}

// Subsets appends a mesh subsets chunk.
func (b *Builder) Subsets(id int32, subsets []chunk.Subset) *Builder {
	var w buf
	w.put(uint32(0), uint32(len(subsets)), uint32(0), uint32(0))
	for _, s := range subsets {
		w.put(int32(s.FirstIndex), int32(s.IndexCount), int32(s.FirstVertex), int32(s.VertexCount), int32(s.MaterialID))
		w.put(float32(0), [3]float32{})
	}
	return b.Raw(cryfile.TypeMeshSubsets, id, w.Bytes())
}

func (b *Builder) stream(id int32, typ chunk.StreamType, count, bpe int, body func(*buf)) *Builder {
	var w buf
	w.put(uint32(0), uint32(typ), uint32(count), uint16(bpe), uint16(0), uint32(0), uint32(0))
	body(&w)
	return b.Raw(cryfile.TypeDataStream, id, w.Bytes())
}

// Positions appends a 12-byte position stream.
func (b *Builder) Positions(id int32, vs [][3]float32) *Builder {
	return b.stream(id, chunk.StreamPositions, len(vs), 12, func(w *buf) { w.put(vs) })
}

// Normals appends a 12-byte normal stream.
func (b *Builder) Normals(id int32, vs [][3]float32) *Builder {
	return b.stream(id, chunk.StreamNormals, len(vs), 12, func(w *buf) { w.put(vs) })
}

// UVs appends an 8-byte UV stream.
func (b *Builder) UVs(id int32, uvs [][2]float32) *Builder {
	return b.stream(id, chunk.StreamUVs, len(uvs), 8, func(w *buf) { w.put(uvs) })
}

// Colors appends a 4-byte RGBA stream.
func (b *Builder) Colors(id int32, cs [][4]uint8) *Builder {
	return b.stream(id, chunk.StreamColors, len(cs), 4, func(w *buf) { w.put(cs) })
}

// Indices16 appends a 2-byte index stream.
func (b *Builder) Indices16(id int32, idx []uint16) *Builder {
	return b.stream(id, chunk.StreamIndices, len(idx), 2, func(w *buf) { w.put(idx) })
}

// Indices32 appends a 4-byte index stream.
func (b *Builder) Indices32(id int32, idx []uint32) *Builder {
	return b.stream(id, chunk.StreamIndices, len(idx), 4, func(w *buf) { w.put(idx) })
}

// BoneMap appends an 8-byte bone map stream.
func (b *Builder) BoneMap(id int32, bm []chunk.BoneMapping) *Builder {
	return b.stream(id, chunk.StreamBoneMap, len(bm), 8, func(w *buf) {
		for _, m := range bm {
			for _, bi := range m.BoneIndex {
				w.put(uint8(bi))
			}
			w.put(m.Weight)
		}
	})
}

// VertsUVs appends a 20-byte combined stream.
func (b *Builder) VertsUVs(id int32, vs []chunk.VertUV) *Builder {
	return b.stream(id, chunk.StreamVertsUVs, len(vs), 20, func(w *buf) {
		for _, v := range vs {
			w.put(v.Position, v.PackedNormal, Half(v.UV[0]), Half(v.UV[1]))
		}
	})
}

// Bone describes one compiled bone for CompiledBones.
type Bone struct {
	Name        string
	Parent      int // -1 for root
	Children    []int
	BoneToWorld mathutil.Mat4
}

// CompiledBones appends a compiled bones chunk. Children must be
// contiguous, as in files written by the exporter.
func (b *Builder) CompiledBones(id int32, bones []Bone) *Builder {
	var w buf
	w.Write(make([]byte, 32))
	for i, bone := range bones {
		w.put(uint32(i), float32(1))
		put34(&w, bone.BoneToWorld.Inverse())
		put34(&w, bone.BoneToWorld)
		w.str(bone.Name, 256)
		offParent := int32(0)
		if bone.Parent >= 0 {
			offParent = int32(bone.Parent - i)
		}
		offChild := int32(0)
		if len(bone.Children) > 0 {
			offChild = int32(bone.Children[0] - i)
		}
		w.put(int32(-1), offParent, int32(len(bone.Children)), offChild)
	}
	return b.Raw(cryfile.TypeCompiledBones, id, w.Bytes())
}

func put34(w *buf, m mathutil.Mat4) {
	for i := 0; i < 12; i++ {
		w.put(float32(m[i]))
	}
}

// IntSkinVertices appends a compiled internal skin vertex chunk.
func (b *Builder) IntSkinVertices(id int32, vs []chunk.IntSkinVertex) *Builder {
	var w buf
	w.Write(make([]byte, 32))
	for _, v := range vs {
		w.put([3]float32{}, v.Position, [3]float32{}, v.BoneIDs, v.Weights, v.Color)
	}
	return b.Raw(cryfile.TypeCompiledIntSkinVertices, id, w.Bytes())
}

// ExtToIntMap appends a compiled external-to-internal map chunk.
func (b *Builder) ExtToIntMap(id int32, m []uint16) *Builder {
	var w buf
	w.put(m)
	return b.Raw(cryfile.TypeCompiledExt2IntMap, id, w.Bytes())
}

// MtlName appends a material name chunk.
func (b *Builder) MtlName(id int32, name string) *Builder {
	var w buf
	w.str(name, 128)
	w.put(uint32(0))
	return b.Raw(cryfile.TypeMtlName, id, w.Bytes())
}

// SourceInfo appends a source info chunk.
func (b *Builder) SourceInfo(id int32, file, date, author string) *Builder {
	return b.Raw(cryfile.TypeSourceInfo, id, []byte(file+"\x00"+date+"\x00"+author+"\x00"))
}

// Bytes lays out the header, payloads and chunk table.
func (b *Builder) Bytes() []byte {
	var body buf
	offsets := make([]uint32, len(b.chunks))
	sizes := make([]uint32, len(b.chunks))
	base := uint32(20)
	for i, c := range b.chunks {
		offsets[i] = base + uint32(body.Len())
		if b.version == cryfile.Version745 {
			body.put(c.typ, c.version, offsets[i], c.id)
		}
		body.Write(c.payload)
		sizes[i] = base + uint32(body.Len()) - offsets[i]
	}

	var out buf
	out.WriteString(cryfile.Signature)
	out.put(uint32(cryfile.FileTypeGeometry), b.version, base+uint32(body.Len()))
	out.Write(body.Bytes())
	out.put(uint32(len(b.chunks)))
	for i, c := range b.chunks {
		if b.version == cryfile.Version745 {
			out.put(c.typ, c.version, offsets[i], c.id, sizes[i])
		} else {
			out.put(narrow746(c.typ), uint16(c.version), c.id, sizes[i], offsets[i])
		}
	}
	return out.Bytes()
}

// WriteFile writes Bytes to path.
func (b *Builder) WriteFile(path string) error {
	return os.WriteFile(path, b.Bytes(), 0644)
}

func narrow746(t uint32) uint16 {
	if t >= 0xACDC0000 && t < 0xCCCC0000 {
		return uint16(t - 0xACDBE000)
	}
	return uint16(t - 0xCCCBF000)
}

// Half converts f to IEEE 754 binary16, truncating the mantissa. Only
// normal values and zero are handled.
func Half(f float32) uint16 {
	bits := math.Float32bits(f)
	sign := uint16(bits>>16) & 0x8000
	exp := int((bits>>23)&0xff) - 127 + 15
	mant := uint16((bits >> 13) & 0x3ff)
	if f == 0 || exp <= 0 {
		return sign
	}
	if exp >= 0x1f {
		return sign | 0x7c00
	}
	return sign | uint16(exp)<<10 | mant
}
