package cryfile

// File signature and table versions.
const (
	Signature = "CryTek\x00\x00"

	Version745 = 0x745
	Version746 = 0x746

	FileTypeGeometry  = 0xFFFF0000
	FileTypeAnimation = 0xFFFF0001
)

// Chunk type codes (32-bit form used by 0x745 tables).
const (
	TypeMesh                    uint32 = 0xCCCC0000
	TypeHelper                  uint32 = 0xCCCC0001
	TypeNode                    uint32 = 0xCCCC000B
	TypeSourceInfo              uint32 = 0xCCCC0013
	TypeMtlName                 uint32 = 0xCCCC0014
	TypeDataStream              uint32 = 0xCCCC0016
	TypeMeshSubsets             uint32 = 0xCCCC0017
	TypeCompiledBones           uint32 = 0xACDC0000
	TypeCompiledIntSkinVertices uint32 = 0xACDC0005
	TypeCompiledExt2IntMap      uint32 = 0xACDC0006
)

// widen746 maps a 16-bit 0x746 table type to its 32-bit code.
func widen746(t uint16) uint32 {
	if t >= 0x2000 {
		return uint32(t) + 0xACDBE000
	}
	return uint32(t) + 0xCCCBF000
}

// Fixed sizes, in bytes.
const (
	headerSize        = 20 // signature, file type, version, table offset
	entrySize745      = 20 // type, version, offset, id, size
	entrySize746      = 16 // type u16, version u16, id, size, offset
	embeddedHeader745 = 16 // 0x745 payloads repeat type, version, offset, id

	nodeNameLen   = 64
	nodeFixedSize = nodeNameLen + 5*4 + 16*4

	helperSize = 4 + 3*4

	// flags1, flags2, vertices, indices, subsets, subsets id, vert anim id,
	// 16 stream ids indexed by stream type, bbox min/max.
	meshStreamSlots = 16
	meshSize        = 7*4 + meshStreamSlots*4 + 6*4

	subsetsHeaderSize = 4 * 4
	subsetSize        = 5*4 + 4*4 // 5 ints, radius, center

	streamHeaderSize = 3*4 + 2*2 + 2*4

	compiledReserved  = 32
	compiledBoneSize  = 4 + 4 + 12*4 + 12*4 + boneNameLen + 4*4
	boneNameLen       = 256
	intSkinVertexSize = 3*4 + 3*4 + 3*4 + 4*2 + 4*4 + 4

	mtlNameLen = 128
)

// entry is one chunk table row.
type entry struct {
	Type    uint32
	Version uint32
	ID      int32
	Size    uint32
	Offset  uint32
}
