package vox

// Voxel is the capability every voxel kind stored in a Buffer provides:
// a constant byte width and an explicit codec to and from that many bytes.
// Size must not exceed 4, the width of one XYZI record.
type Voxel[T any] interface {
	comparable
	Size() int
	Put(dst []byte)
	Decode(src []byte) T
}

// Rgba is a 4-channel color voxel. An alpha of 0 marks the voxel empty:
// MagicaVoxel has no transparency channel, so such voxels are left out of
// encoded files.
type Rgba [4]uint8

func (Rgba) Size() int { return 4 }

func (c Rgba) Put(dst []byte) {
	_ = dst[3]
	dst[0], dst[1], dst[2], dst[3] = c[0], c[1], c[2], c[3]
}

func (Rgba) Decode(src []byte) Rgba {
	_ = src[3]
	return Rgba{src[0], src[1], src[2], src[3]}
}

// Empty reports whether the voxel is fully transparent.
func (c Rgba) Empty() bool { return c[3] == 0 }

// Index is a palette-indexed voxel; 0 means empty.
type Index uint8

func (Index) Size() int { return 1 }

func (i Index) Put(dst []byte) { dst[0] = byte(i) }

func (Index) Decode(src []byte) Index { return Index(src[0]) }

// Palette maps Index voxels to colors. Entry i holds the color of index i+1,
// as in the RGBA chunk.
type Palette [256]Rgba

// Color returns the color for a palette index; index 0 is empty.
func (p *Palette) Color(i Index) Rgba {
	if i == 0 {
		return Rgba{}
	}
	return p[i-1]
}
