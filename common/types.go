// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import "fmt"

// TexelFormat identifies the layout of a single texel in TextureStagingData.
type TexelFormat int

const (
	// TexelFormatRGBA8 is four unsigned normalized bytes per texel.
	TexelFormatRGBA8 TexelFormat = iota

	// TexelFormatRGBA32Float is four 32-bit floats per texel. Point textures use this format,
	// one point per texel.
	TexelFormatRGBA32Float
)

// BytesPerTexel returns the texel size of the format in bytes.
//
// Returns:
//   - uint32: 4 for RGBA8, 16 for RGBA32Float
func (f TexelFormat) BytesPerTexel() uint32 {
	switch f {
	case TexelFormatRGBA32Float:
		return 16
	default:
		return 4
	}
}

func (f TexelFormat) String() string {
	switch f {
	case TexelFormatRGBA8:
		return "rgba8"
	case TexelFormatRGBA32Float:
		return "rgba32float"
	default:
		return fmt.Sprintf("TexelFormat(%d)", int(f))
	}
}

// TextureStagingData holds texel data for a texture binding pending GPU upload.
// This is primarily used by the BindGroupProvider to stage texture data before creating the GPU texture and bind group.
type TextureStagingData struct {
	// Texels is the raw texel data in row-major order. It may be shorter than Width*Height texels;
	// the remainder of the texture is left zeroed.
	Texels []byte
	// Width is the width of the texture in texels.
	Width uint32
	// Height is the height of the texture in texels.
	Height uint32
	// Format describes how each texel is laid out in Texels.
	Format TexelFormat
}

// BytesPerRow returns the row pitch of the staged texture in bytes.
func (t TextureStagingData) BytesPerRow() uint32 {
	return t.Width * t.Format.BytesPerTexel()
}

// Rows returns the number of full or partial rows covered by Texels.
func (t TextureStagingData) Rows() uint32 {
	pitch := t.BytesPerRow()
	if pitch == 0 {
		return 0
	}
	return uint32(CeilDiv(uint64(len(t.Texels)), uint64(pitch)))
}
