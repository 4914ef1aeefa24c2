// Package cryfile decodes CryEngine chunk files (.cgf, .cga, .chr, .skin
// and their companion files) into chunk records.
package cryfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"slices"

	"cgf-scene-loader/internal/chunk"
	"cgf-scene-loader/internal/mathutil"
)

// File is one decoded chunk file.
type File struct {
	Path     string
	FileType uint32
	Version  uint32
	Records  []chunk.Record
	Skipped  int // chunks of kinds this package does not decode
}

// Parse reads a chunk file and decodes every chunk it understands.
// Supports table versions 0x745 and 0x746.
func Parse(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cryfile: read %s: %w", path, err)
	}
	return Decode(path, raw)
}

// Decode decodes an in-memory chunk file. name is used in errors only.
func Decode(name string, raw []byte) (*File, error) {
	if len(raw) < headerSize || string(raw[:len(Signature)]) != Signature {
		return nil, &chunk.FormatError{Path: name, Reason: "invalid header"}
	}

	r := &reader{data: raw, off: len(Signature)}
	f := &File{Path: name}
	f.FileType = r.readU32()
	f.Version = r.readU32()
	tableOff := int(r.readU32())

	entries, err := readTable(raw, f.Version, tableOff)
	if err != nil {
		return nil, &chunk.FormatError{Path: name, Reason: err.Error()}
	}

	for _, e := range entries {
		end := uint64(e.Offset) + uint64(e.Size)
		if end > uint64(len(raw)) {
			return nil, &chunk.FormatError{
				Path:   name,
				Reason: fmt.Sprintf("chunk %d (0x%08X) extends past end of file", e.ID, e.Type),
			}
		}
		payload := raw[int(e.Offset):int(end)]
		if f.Version == Version745 {
			payload = stripEmbeddedHeader(payload, e)
		}

		rec, err := decodeChunk(e, payload)
		if err != nil {
			return nil, fmt.Errorf("cryfile: %s: chunk %d: %w", name, e.ID, err)
		}
		if rec == nil {
			f.Skipped++
			continue
		}
		f.Records = append(f.Records, rec)
	}

	return f, nil
}

func readTable(raw []byte, version uint32, off int) ([]entry, error) {
	var rowSize int
	switch version {
	case Version745:
		rowSize = entrySize745
	case Version746:
		rowSize = entrySize746
	default:
		return nil, fmt.Errorf("unsupported version 0x%X", version)
	}

	if off < headerSize || off+4 > len(raw) {
		return nil, fmt.Errorf("chunk table offset %d out of range", off)
	}
	r := &reader{data: raw, off: off}
	count := int(r.readU32())
	if count < 0 || count > r.remaining()/rowSize {
		return nil, fmt.Errorf("chunk table count %d exceeds file", count)
	}

	entries := make([]entry, count)
	for i := range entries {
		e := &entries[i]
		if version == Version745 {
			e.Type = r.readU32()
			e.Version = r.readU32()
			e.Offset = r.readU32()
			e.ID = r.readI32()
			e.Size = r.readU32()
		} else {
			e.Type = widen746(r.readU16())
			e.Version = uint32(r.readU16())
			e.ID = r.readI32()
			e.Size = r.readU32()
			e.Offset = r.readU32()
		}
	}
	return entries, nil
}

// stripEmbeddedHeader drops the header copy that 0x745 writers place at the
// start of each payload.
func stripEmbeddedHeader(p []byte, e entry) []byte {
	if len(p) < embeddedHeader745 {
		return p
	}
	if binary.LittleEndian.Uint32(p[0:]) != e.Type ||
		int32(binary.LittleEndian.Uint32(p[12:])) != e.ID {
		return p
	}
	return p[embeddedHeader745:]
}

func truncated(kind chunk.Kind, have, need int) error {
	return &chunk.FormatError{Reason: fmt.Sprintf("%s payload truncated (%d bytes, need %d)", kind, have, need)}
}

func decodeChunk(e entry, p []byte) (chunk.Record, error) {
	h := chunk.Header{ID: chunk.ID(e.ID), Version: e.Version}
	switch e.Type {
	case TypeNode:
		return decodeNode(h, p)
	case TypeHelper:
		return decodeHelper(h, p)
	case TypeMesh:
		return decodeMesh(h, p)
	case TypeMeshSubsets:
		return decodeSubsets(h, p)
	case TypeDataStream:
		return decodeStream(h, p)
	case TypeCompiledBones:
		return decodeCompiledBones(h, p)
	case TypeCompiledIntSkinVertices:
		return decodeIntSkinVertices(h, p)
	case TypeCompiledExt2IntMap:
		return decodeExtToIntMap(h, p)
	case TypeMtlName:
		return decodeMtlName(h, p)
	case TypeSourceInfo:
		return decodeSourceInfo(h, p), nil
	}
	return nil, nil
}

func decodeNode(h chunk.Header, p []byte) (chunk.Record, error) {
	if len(p) < nodeFixedSize {
		return nil, truncated(chunk.KindNode, len(p), nodeFixedSize)
	}
	r := &reader{data: p}
	n := &chunk.Node{Header: h}
	n.Name = r.readStr(nodeNameLen)
	n.ObjectID = chunk.ID(r.readI32())
	n.ParentID = chunk.ID(r.readI32())
	_ = r.readI32() // child count, rebuilt from parent references
	n.MaterialID = chunk.ID(r.readI32())
	_ = r.readU32() // flags

	// Stored row-vector: translation in the 4th row.
	var stored mathutil.Mat4
	for i := range stored {
		stored[i] = float64(r.readF32())
	}
	n.Transform = stored.Transpose()
	// Trailing pos/rot/scale copies and controller ids are redundant.
	return n, nil
}

func decodeHelper(h chunk.Header, p []byte) (chunk.Record, error) {
	if len(p) < helperSize {
		return nil, truncated(chunk.KindHelper, len(p), helperSize)
	}
	r := &reader{data: p}
	hp := &chunk.Helper{Header: h, HelperType: r.readU32()}
	for i := range hp.Size {
		hp.Size[i] = float64(r.readF32())
	}
	return hp, nil
}

func decodeMesh(h chunk.Header, p []byte) (chunk.Record, error) {
	if len(p) < meshSize {
		return nil, truncated(chunk.KindMesh, len(p), meshSize)
	}
	r := &reader{data: p}
	m := &chunk.Mesh{Header: h}
	_ = r.readI32() // flags1
	_ = r.readI32() // flags2
	m.VertexCount = int(r.readI32())
	m.IndexCount = int(r.readI32())
	_ = r.readI32() // subset count, taken from the subsets chunk
	m.SubsetsID = chunk.ID(r.readI32())
	_ = r.readI32() // vert anim id

	var streams [meshStreamSlots]chunk.ID
	for i := range streams {
		streams[i] = chunk.ID(r.readI32())
	}
	m.PositionsID = streams[chunk.StreamPositions]
	m.NormalsID = streams[chunk.StreamNormals]
	m.UVsID = streams[chunk.StreamUVs]
	m.ColorsID = streams[chunk.StreamColors]
	m.IndicesID = streams[chunk.StreamIndices]
	m.TangentsID = streams[chunk.StreamTangents]
	m.BoneMapID = streams[chunk.StreamBoneMap]
	m.VertsUVsID = streams[chunk.StreamVertsUVs]

	for i := 0; i < 3; i++ {
		m.MinBound[i] = float64(r.readF32())
	}
	for i := 0; i < 3; i++ {
		m.MaxBound[i] = float64(r.readF32())
	}

	if m.VertexCount < 0 || m.IndexCount < 0 {
		return nil, &chunk.FormatError{Reason: fmt.Sprintf("mesh counts negative (%d vertices, %d indices)", m.VertexCount, m.IndexCount)}
	}
	return m, nil
}

func decodeSubsets(h chunk.Header, p []byte) (chunk.Record, error) {
	r := &reader{data: p}
	_ = r.readU32() // flags
	count := int(r.readU32())
	r.skip(8)
	need := subsetsHeaderSize + count*subsetSize
	if r.overrun || count < 0 || len(p) < need {
		return nil, truncated(chunk.KindMeshSubsets, len(p), need)
	}

	ms := &chunk.MeshSubsets{Header: h, Subsets: make([]chunk.Subset, count)}
	for i := range ms.Subsets {
		s := &ms.Subsets[i]
		s.FirstIndex = int(r.readI32())
		s.IndexCount = int(r.readI32())
		s.FirstVertex = int(r.readI32())
		s.VertexCount = int(r.readI32())
		s.MaterialID = int(r.readI32())
		r.skip(16) // radius, center
	}
	return ms, nil
}

// elementSizes lists the accepted bytes per element of each decoded
// stream type.
var elementSizes = map[chunk.StreamType][]int{
	chunk.StreamPositions: {12, 8},
	chunk.StreamNormals:   {12},
	chunk.StreamUVs:       {8},
	chunk.StreamColors:    {4, 3},
	chunk.StreamIndices:   {2, 4},
	chunk.StreamTangents:  {16},
	chunk.StreamBoneMap:   {8, 12},
	chunk.StreamVertsUVs:  {20, 16},
}

func decodeStream(h chunk.Header, p []byte) (chunk.Record, error) {
	r := &reader{data: p}
	_ = r.readU32() // flags
	ds := &chunk.DataStream{Header: h}
	ds.Type = chunk.StreamType(r.readU32())
	ds.ElementCount = int(r.readU32())
	ds.BytesPerElement = int(r.readU16())
	r.skip(2 + 8)
	if r.overrun {
		return nil, truncated(chunk.KindDataStream, len(p), streamHeaderSize)
	}

	n, bpe := ds.ElementCount, ds.BytesPerElement
	unsupported := func() error {
		return &chunk.FormatError{Reason: fmt.Sprintf("%s stream: unsupported element size %d", ds.Type, bpe)}
	}
	sizes, known := elementSizes[ds.Type]
	if known && !slices.Contains(sizes, bpe) {
		return nil, unsupported()
	}
	need := streamHeaderSize + n*bpe
	if n < 0 || len(p) < need {
		return nil, truncated(chunk.KindDataStream, len(p), need)
	}

	switch ds.Type {
	case chunk.StreamPositions:
		ds.Vectors = make([][3]float32, n)
		for i := range ds.Vectors {
			switch bpe {
			case 12:
				ds.Vectors[i] = r.readVec3()
			case 8:
				ds.Vectors[i] = [3]float32{r.readF16(), r.readF16(), r.readF16()}
				r.skip(2)
			default:
				return nil, unsupported()
			}
		}
	case chunk.StreamNormals:
		if bpe != 12 {
			return nil, unsupported()
		}
		ds.Vectors = make([][3]float32, n)
		for i := range ds.Vectors {
			ds.Vectors[i] = r.readVec3()
		}
	case chunk.StreamUVs:
		if bpe != 8 {
			return nil, unsupported()
		}
		ds.UVs = make([][2]float32, n)
		for i := range ds.UVs {
			ds.UVs[i] = [2]float32{r.readF32(), r.readF32()}
		}
	case chunk.StreamColors:
		if bpe != 4 && bpe != 3 {
			return nil, unsupported()
		}
		ds.Colors = make([][4]uint8, n)
		for i := range ds.Colors {
			c := [4]uint8{r.readU8(), r.readU8(), r.readU8(), 255}
			if bpe == 4 {
				c[3] = r.readU8()
			}
			ds.Colors[i] = c
		}
	case chunk.StreamIndices:
		ds.Indices = make([]uint32, n)
		for i := range ds.Indices {
			switch bpe {
			case 2:
				ds.Indices[i] = uint32(r.readU16())
			case 4:
				ds.Indices[i] = r.readU32()
			default:
				return nil, unsupported()
			}
		}
	case chunk.StreamTangents:
		if bpe != 16 {
			return nil, unsupported()
		}
		ds.Tangents = make([]chunk.Tangent, n)
		for i := range ds.Tangents {
			t := &ds.Tangents[i]
			for k := range t.Tangent {
				t.Tangent[k] = r.readI16()
			}
			for k := range t.Binormal {
				t.Binormal[k] = r.readI16()
			}
		}
	case chunk.StreamBoneMap:
		if bpe != 8 && bpe != 12 {
			return nil, unsupported()
		}
		ds.BoneMap = make([]chunk.BoneMapping, n)
		for i := range ds.BoneMap {
			bm := &ds.BoneMap[i]
			for k := range bm.BoneIndex {
				if bpe == 8 {
					bm.BoneIndex[k] = uint16(r.readU8())
				} else {
					bm.BoneIndex[k] = r.readU16()
				}
			}
			for k := range bm.Weight {
				bm.Weight[k] = r.readU8()
			}
		}
	case chunk.StreamVertsUVs:
		if bpe != 20 && bpe != 16 {
			return nil, unsupported()
		}
		ds.VertsUVs = make([]chunk.VertUV, n)
		for i := range ds.VertsUVs {
			v := &ds.VertsUVs[i]
			if bpe == 20 {
				v.Position = r.readVec3()
			} else {
				v.Position = [3]float32{r.readF16(), r.readF16(), r.readF16()}
				r.skip(2) // w
			}
			for k := range v.PackedNormal {
				v.PackedNormal[k] = r.readU8()
			}
			v.UV = [2]float32{r.readF16(), r.readF16()}
		}
	default:
		// Streams the resolver never reads (shape deformation, face maps, ...)
		// are kept as headers only.
	}
	return ds, nil
}

// mat34 reads a 3×4 row-major matrix (rotation | translation).
func mat34(r *reader) mathutil.Mat4 {
	m := mathutil.Mat4Identity()
	for row := 0; row < 3; row++ {
		for col := 0; col < 4; col++ {
			m[row*4+col] = float64(r.readF32())
		}
	}
	return m
}

func decodeCompiledBones(h chunk.Header, p []byte) (chunk.Record, error) {
	if len(p) < compiledReserved {
		return nil, truncated(chunk.KindCompiledBones, len(p), compiledReserved)
	}
	r := &reader{data: p, off: compiledReserved}
	count := r.remaining() / compiledBoneSize

	cb := &chunk.CompiledBones{Header: h, Bones: make([]chunk.CompiledBone, count)}
	for i := range cb.Bones {
		b := &cb.Bones[i]
		b.ControllerID = r.readU32()
		b.Mass = r.readF32()
		b.WorldToBone = mat34(r)
		b.BoneToWorld = mat34(r)
		b.Name = r.readStr(boneNameLen)
		b.LimbID = r.readI32()
		offParent := int(r.readI32())
		numChildren := int(r.readI32())
		offChild := int(r.readI32())

		b.ParentIndex = -1
		if offParent != 0 {
			b.ParentIndex = i + offParent
		}
		if numChildren < 0 || (numChildren > 0 && (i+offChild < 0 || i+offChild+numChildren > count)) {
			return nil, &chunk.FormatError{Reason: fmt.Sprintf(
				"bone %d: %d children at offset %d outside %d bones", i, numChildren, offChild, count)}
		}
		for k := 0; k < numChildren; k++ {
			b.ChildIndices = append(b.ChildIndices, i+offChild+k)
		}
	}
	return cb, nil
}

func decodeIntSkinVertices(h chunk.Header, p []byte) (chunk.Record, error) {
	if len(p) < compiledReserved {
		return nil, truncated(chunk.KindIntSkinVertices, len(p), compiledReserved)
	}
	r := &reader{data: p, off: compiledReserved}
	count := r.remaining() / intSkinVertexSize

	iv := &chunk.IntSkinVertices{Header: h, Vertices: make([]chunk.IntSkinVertex, count)}
	for i := range iv.Vertices {
		v := &iv.Vertices[i]
		r.skip(12) // obsolete
		v.Position = r.readVec3()
		r.skip(12) // obsolete
		for k := range v.BoneIDs {
			v.BoneIDs[k] = r.readU16()
		}
		for k := range v.Weights {
			v.Weights[k] = r.readF32()
		}
		for k := range v.Color {
			v.Color[k] = r.readU8()
		}
	}
	return iv, nil
}

func decodeExtToIntMap(h chunk.Header, p []byte) (chunk.Record, error) {
	r := &reader{data: p}
	m := &chunk.ExtToIntMap{Header: h, Map: make([]uint16, len(p)/2)}
	for i := range m.Map {
		m.Map[i] = r.readU16()
	}
	return m, nil
}

func decodeMtlName(h chunk.Header, p []byte) (chunk.Record, error) {
	if len(p) < mtlNameLen {
		return nil, truncated(chunk.KindMtlName, len(p), mtlNameLen)
	}
	r := &reader{data: p}
	mn := &chunk.MtlName{Header: h, Name: r.readStr(mtlNameLen)}
	if r.remaining() >= 4 {
		n := int(r.readU32())
		if n > r.remaining()/4 {
			return nil, truncated(chunk.KindMtlName, len(p), mtlNameLen+4+n*4)
		}
		for i := 0; i < n; i++ {
			mn.ChildIDs = append(mn.ChildIDs, chunk.ID(r.readI32()))
		}
	}
	return mn, nil
}

func decodeSourceInfo(h chunk.Header, p []byte) chunk.Record {
	parts := bytes.Split(bytes.TrimRight(p, "\x00"), []byte{0})
	si := &chunk.SourceInfo{Header: h}
	fields := []*string{&si.SourceFile, &si.Date, &si.Author}
	for i, part := range parts {
		if i >= len(fields) {
			break
		}
		*fields[i] = string(bytes.TrimSpace(part))
	}
	return si
}
