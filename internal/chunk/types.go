// Package chunk holds decoded chunk records and the per-file table that
// resolves the integer IDs they use to reference one another.
package chunk

import (
	"fmt"

	"cgf-scene-loader/internal/mathutil"
)

// ID identifies a record within one file. 0 and -1 are "no reference".
type ID int32

// NoID is the zero sentinel.
const NoID ID = 0

// Valid reports whether id can refer to a record.
func (id ID) Valid() bool {
	return id != 0 && id != -1
}

// Kind is the variant tag of a Record.
type Kind int

const (
	KindUnknown Kind = iota
	KindNode
	KindHelper
	KindMesh
	KindMeshSubsets
	KindDataStream
	KindCompiledBones
	KindIntSkinVertices
	KindExtToIntMap
	KindMtlName
	KindSourceInfo
)

var kindNames = [...]string{
	KindUnknown:         "Unknown",
	KindNode:            "Node",
	KindHelper:          "Helper",
	KindMesh:            "Mesh",
	KindMeshSubsets:     "MeshSubsets",
	KindDataStream:      "DataStream",
	KindCompiledBones:   "CompiledBones",
	KindIntSkinVertices: "CompiledIntSkinVertices",
	KindExtToIntMap:     "CompiledExtToIntMap",
	KindMtlName:         "MtlName",
	KindSourceInfo:      "SourceInfo",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Header is carried by every record.
type Header struct {
	ID      ID
	Version uint32
}

// Record is the closed set of decoded chunk kinds. Switch on the concrete
// type (*Node, *Mesh, ...) to handle a resolved reference.
type Record interface {
	ChunkHeader() Header
	Kind() Kind
	sealed()
}

func (h Header) ChunkHeader() Header { return h }

// Node places an object in the hierarchy.
type Node struct {
	Header
	Name       string
	ObjectID   ID
	ParentID   ID
	MaterialID ID
	// Transform is the stored matrix, column-vector convention.
	Transform mathutil.Mat4
}

// Helper is a non-geometry node object (dummy, point, bone proxy).
type Helper struct {
	Header
	HelperType uint32
	Size       mathutil.Vec3
}

// Mesh references the subsets and data streams that make up one mesh.
// Exactly one of PositionsID and VertsUVsID is set when VertexCount > 0.
type Mesh struct {
	Header
	VertexCount int
	IndexCount  int
	SubsetsID   ID
	PositionsID ID
	NormalsID   ID
	UVsID       ID
	ColorsID    ID
	IndicesID   ID
	TangentsID  ID
	BoneMapID   ID
	VertsUVsID  ID
	MinBound    mathutil.Vec3
	MaxBound    mathutil.Vec3
}

// Combined reports whether the mesh uses the packed position+UV+normal layout.
func (m *Mesh) Combined() bool {
	return !m.PositionsID.Valid() && m.VertsUVsID.Valid()
}

// Subset is one material range of the index buffer.
type Subset struct {
	FirstIndex  int
	IndexCount  int
	FirstVertex int
	VertexCount int
	MaterialID  int
}

// MeshSubsets partitions a mesh's index buffer by material.
type MeshSubsets struct {
	Header
	Subsets []Subset
}

// StreamType selects the element layout of a DataStream.
type StreamType int

const (
	StreamPositions StreamType = 0
	StreamNormals   StreamType = 1
	StreamUVs       StreamType = 2
	StreamColors    StreamType = 3
	StreamIndices   StreamType = 5
	StreamTangents  StreamType = 6
	StreamBoneMap   StreamType = 9
	StreamVertsUVs  StreamType = 15
)

func (s StreamType) String() string {
	switch s {
	case StreamPositions:
		return "Positions"
	case StreamNormals:
		return "Normals"
	case StreamUVs:
		return "UVs"
	case StreamColors:
		return "Colors"
	case StreamIndices:
		return "Indices"
	case StreamTangents:
		return "Tangents"
	case StreamBoneMap:
		return "BoneMap"
	case StreamVertsUVs:
		return "VertsUVs"
	}
	return fmt.Sprintf("StreamType(%d)", int(s))
}

// Tangent holds a packed tangent/binormal pair (int16, scale 1/32767).
type Tangent struct {
	Tangent  [4]int16
	Binormal [4]int16
}

// BoneMapping is the per-vertex bone influence of a BoneMap stream.
type BoneMapping struct {
	BoneIndex [4]uint16
	Weight    [4]uint8 // 0–255
}

// VertUV is one element of the combined layout. Position is in
// normalized space for rescaled meshes.
type VertUV struct {
	Position     [3]float32
	PackedNormal [4]uint8
	UV           [2]float32
}

// DataStream is a typed element array. Only the slice matching Type is set.
type DataStream struct {
	Header
	Type            StreamType
	ElementCount    int
	BytesPerElement int

	Vectors  [][3]float32 // Positions, Normals
	UVs      [][2]float32
	Colors   [][4]uint8
	Indices  []uint32
	Tangents []Tangent
	BoneMap  []BoneMapping
	VertsUVs []VertUV
}

// CompiledBone is one bone of the compiled skeleton.
type CompiledBone struct {
	Name         string
	ControllerID uint32
	Mass         float32
	LimbID       int32
	ParentIndex  int   // -1 for the root
	ChildIndices []int // local indices into CompiledBones.Bones
	WorldToBone  mathutil.Mat4
	BoneToWorld  mathutil.Mat4
}

// CompiledBones is the skeleton bone list of a character file.
type CompiledBones struct {
	Header
	Bones []CompiledBone
}

// IntSkinVertex is an internal-representation vertex with its weights.
type IntSkinVertex struct {
	Position [3]float32
	BoneIDs  [4]uint16
	Weights  [4]float32
	Color    [4]uint8
}

// IntSkinVertices is the internal vertex list of a skinned mesh.
type IntSkinVertices struct {
	Header
	Vertices []IntSkinVertex
}

// ExtToIntMap maps external vertex indices to internal ones.
type ExtToIntMap struct {
	Header
	Map []uint16
}

// MtlName names the material library used by the file.
type MtlName struct {
	Header
	Name     string
	ChildIDs []ID
}

// SourceInfo records the exporter's source file details.
type SourceInfo struct {
	Header
	SourceFile string
	Date       string
	Author     string
}

func (*Node) Kind() Kind            { return KindNode }
func (*Helper) Kind() Kind          { return KindHelper }
func (*Mesh) Kind() Kind            { return KindMesh }
func (*MeshSubsets) Kind() Kind     { return KindMeshSubsets }
func (*DataStream) Kind() Kind      { return KindDataStream }
func (*CompiledBones) Kind() Kind   { return KindCompiledBones }
func (*IntSkinVertices) Kind() Kind { return KindIntSkinVertices }
func (*ExtToIntMap) Kind() Kind     { return KindExtToIntMap }
func (*MtlName) Kind() Kind         { return KindMtlName }
func (*SourceInfo) Kind() Kind      { return KindSourceInfo }

func (*Node) sealed()            {}
func (*Helper) sealed()          {}
func (*Mesh) sealed()            {}
func (*MeshSubsets) sealed()     {}
func (*DataStream) sealed()      {}
func (*CompiledBones) sealed()   {}
func (*IntSkinVertices) sealed() {}
func (*ExtToIntMap) sealed()     {}
func (*MtlName) sealed()         {}
func (*SourceInfo) sealed()      {}
