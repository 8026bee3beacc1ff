package vox

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	Signature = "VOX "
	Version   = 150

	PaletteSize = 256
	// MaxColors is the number of usable palette slots; index 0 means empty.
	MaxColors = PaletteSize - 1
	// MaxCoord is the largest coordinate an XYZI record can hold.
	MaxCoord = 255
)

// chunk ids
const (
	idMain = "MAIN"
	idSize = "SIZE"
	idXYZI = "XYZI"
	idRGBA = "RGBA"
)

const (
	intSize         = 4
	chunkHeaderSize = 3 * intSize
	sizeContentLen  = 3 * intSize
	rgbaContentLen  = PaletteSize * intSize
)

// ChunkHeader is the fixed 12-byte prefix of every chunk.
// Content is the payload length and Children the total length of nested chunks.
type ChunkHeader struct {
	ID       [4]byte
	Content  uint32
	Children uint32
}

func newChunkHeader(id string, content, children uint32) ChunkHeader {
	h := ChunkHeader{Content: content, Children: children}
	copy(h.ID[:], id)
	return h
}

func (h ChunkHeader) String() string {
	return fmt.Sprintf("%s(content=%d, children=%d)", h.ID[:], h.Content, h.Children)
}

func (h ChunkHeader) put(dst []byte) []byte {
	dst = append(dst, h.ID[:]...)
	dst = appendUint32(dst, h.Content)
	return appendUint32(dst, h.Children)
}

func appendUint32(dst []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(dst, v)
}

func readChunkHeader(r io.Reader) (ChunkHeader, error) {
	var raw [chunkHeaderSize]byte
	var h ChunkHeader
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return h, err
	}
	copy(h.ID[:], raw[:4])
	h.Content = binary.LittleEndian.Uint32(raw[4:8])
	h.Children = binary.LittleEndian.Uint32(raw[8:12])
	return h, nil
}
