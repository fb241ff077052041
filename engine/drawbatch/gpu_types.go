package drawbatch

import (
	"encoding/binary"
	"unsafe"
)

// GPUIndirectArgsSize is the size in bytes of a DrawIndexedIndirect argument block.
const GPUIndirectArgsSize = 20

// GPUIndirectArgs is the argument block consumed by DrawIndexedIndirect.
// Layout: five little-endian u32 values (20 bytes).
type GPUIndirectArgs struct {
	IndexCount    uint32 // offset  0: indices per instance
	InstanceCount uint32 // offset  4: tile instances
	FirstIndex    uint32 // offset  8: always 0
	BaseVertex    int32  // offset 12: always 0
	FirstInstance uint32 // offset 16: always 0
}

// Size returns the size of the GPUIndirectArgs struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes (20)
func (g *GPUIndirectArgs) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the argument block for GPU upload.
//
// Returns:
//   - []byte: 20-byte buffer ready for GPU upload
func (g *GPUIndirectArgs) Marshal() []byte {
	buf := make([]byte, GPUIndirectArgsSize)
	binary.LittleEndian.PutUint32(buf[0:4], g.IndexCount)
	binary.LittleEndian.PutUint32(buf[4:8], g.InstanceCount)
	binary.LittleEndian.PutUint32(buf[8:12], g.FirstIndex)
	binary.LittleEndian.PutUint32(buf[12:16], uint32(g.BaseVertex))
	binary.LittleEndian.PutUint32(buf[16:20], g.FirstInstance)
	return buf
}

// UnmarshalGPUIndirectArgs decodes a 20-byte argument block. Short input yields the zero value.
func UnmarshalGPUIndirectArgs(buf []byte) GPUIndirectArgs {
	if len(buf) < GPUIndirectArgsSize {
		return GPUIndirectArgs{}
	}
	return GPUIndirectArgs{
		IndexCount:    binary.LittleEndian.Uint32(buf[0:4]),
		InstanceCount: binary.LittleEndian.Uint32(buf[4:8]),
		FirstIndex:    binary.LittleEndian.Uint32(buf[8:12]),
		BaseVertex:    int32(binary.LittleEndian.Uint32(buf[12:16])),
		FirstInstance: binary.LittleEndian.Uint32(buf[16:20]),
	}
}
