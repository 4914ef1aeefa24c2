// Package skinning gathers the skinning fragments of each file and merges
// them into one structure per asset.
package skinning

import (
	"cgf-scene-loader/internal/chunk"
)

// Info holds skeleton and per-vertex weight data. Any field may be empty.
type Info struct {
	CompiledBones []chunk.CompiledBone
	BoneMapping   []chunk.BoneMapping
	IntVertices   []chunk.IntSkinVertex
	ExtToInt      []uint16

	HasSkinningInfo      bool
	HasBoneMapDatastream bool
	HasIntToExtMapping   bool
}

// FromTable extracts the fragments present in one file. When a kind
// occurs more than once the last record in file order is used.
func FromTable(t *chunk.Table) Info {
	var info Info
	for _, r := range t.Records() {
		switch rec := r.(type) {
		case *chunk.CompiledBones:
			info.CompiledBones = rec.Bones
			info.HasSkinningInfo = true
		case *chunk.DataStream:
			if rec.Type == chunk.StreamBoneMap {
				info.BoneMapping = rec.BoneMap
				info.HasBoneMapDatastream = true
			}
		case *chunk.IntSkinVertices:
			info.IntVertices = rec.Vertices
		case *chunk.ExtToIntMap:
			info.ExtToInt = rec.Map
			info.HasIntToExtMapping = true
		}
	}
	return info
}

// Consolidate merges infos in order. Flags are OR-ed. Each data field takes
// the value of the last info that has it, so the order must be primary
// file first, companion second.
func Consolidate(infos ...Info) Info {
	var out Info
	for _, in := range infos {
		out.HasSkinningInfo = out.HasSkinningInfo || in.HasSkinningInfo
		out.HasBoneMapDatastream = out.HasBoneMapDatastream || in.HasBoneMapDatastream
		out.HasIntToExtMapping = out.HasIntToExtMapping || in.HasIntToExtMapping

		if len(in.CompiledBones) > 0 {
			out.CompiledBones = in.CompiledBones
		}
		if len(in.BoneMapping) > 0 {
			out.BoneMapping = in.BoneMapping
		}
		if len(in.IntVertices) > 0 {
			out.IntVertices = in.IntVertices
		}
		if len(in.ExtToInt) > 0 {
			out.ExtToInt = in.ExtToInt
		}
	}
	return out
}

// Skinned reports whether any weight source is present.
func (i Info) Skinned() bool {
	return len(i.IntVertices) > 0 || len(i.BoneMapping) > 0
}

// VertexWeights are the four bone influences of one external vertex.
type VertexWeights struct {
	Bones   [4]int
	Weights [4]float32
}

// Weights returns the influences of vertexCount external vertices. Internal
// vertices take precedence over the bone map; without an ext-to-int map
// they are indexed one to one.
func (i Info) Weights(vertexCount int) ([]VertexWeights, error) {
	out := make([]VertexWeights, vertexCount)
	if len(i.IntVertices) == 0 {
		if vertexCount > len(i.BoneMapping) {
			return nil, chunk.Structuralf("skinning: %d vertices, bone map holds %d", vertexCount, len(i.BoneMapping))
		}
		for v := range out {
			bm := i.BoneMapping[v]
			for k := 0; k < 4; k++ {
				out[v].Bones[k] = int(bm.BoneIndex[k])
				out[v].Weights[k] = float32(bm.Weight[k]) / 255
			}
		}
		return out, nil
	}

	for v := range out {
		iv := v
		if len(i.ExtToInt) > 0 {
			if v >= len(i.ExtToInt) {
				return nil, chunk.Structuralf("skinning: vertex %d beyond ext-to-int map of %d", v, len(i.ExtToInt))
			}
			iv = int(i.ExtToInt[v])
		}
		if iv >= len(i.IntVertices) {
			return nil, chunk.Structuralf("skinning: vertex %d maps to internal vertex %d of %d", v, iv, len(i.IntVertices))
		}
		src := i.IntVertices[iv]
		for k := 0; k < 4; k++ {
			out[v].Bones[k] = int(src.BoneIDs[k])
			out[v].Weights[k] = src.Weights[k]
		}
	}
	return out, nil
}
