package vox

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"runtime"
	"sync"
)

var (
	ErrPaletteOverflow = errors.New("vox: more than 255 distinct colors")
	ErrCoordinateRange = errors.New("vox: voxel coordinate exceeds 255")
	ErrTooManyVoxels   = errors.New("vox: voxel count exceeds chunk size limit")
)

// Record is one XYZI entry.
type Record struct {
	X, Y, Z uint8
	Color   Index
}

// Model is the content of a single-model .vox file: dimensions, the voxel
// records in file order and the palette they index.
type Model struct {
	Width, Depth, Height uint32
	Records              []Record
	Palette              Palette
	// Colors is the number of palette slots in use.
	Colors int
}

// maxRecords keeps every chunk size of a file within uint32.
const maxRecords = (math.MaxUint32 - 4*chunkHeaderSize - sizeContentLen - intSize - rgbaContentLen) / intSize

// NewModel builds the model for an RGBA buffer. Voxels with zero alpha are
// left out. Palette slots are assigned in ascending index order to the first
// occurrence of each distinct color.
func NewModel(b *Buffer[Rgba]) (*Model, error) {
	m := &Model{Width: b.width, Depth: b.depth, Height: b.height}
	opaque := scanOpaque(b)
	if len(opaque) > maxRecords {
		return nil, fmt.Errorf("%w: %d voxels", ErrTooManyVoxels, len(opaque))
	}
	m.Records = make([]Record, 0, len(opaque))
	slots := make(map[Rgba]Index)
	for _, v := range opaque {
		x, y, z := b.Coord(v.index)
		if x > MaxCoord || y > MaxCoord || z > MaxCoord {
			return nil, fmt.Errorf("%w: (%d, %d, %d)", ErrCoordinateRange, x, y, z)
		}
		slot, ok := slots[v.color]
		if !ok {
			if len(slots) == MaxColors {
				return nil, fmt.Errorf("%w: at (%d, %d, %d)", ErrPaletteOverflow, x, y, z)
			}
			slot = Index(len(slots) + 1)
			slots[v.color] = slot
			m.Palette[slot-1] = v.color
		}
		m.Records = append(m.Records, Record{X: uint8(x), Y: uint8(y), Z: uint8(z), Color: slot})
	}
	m.Colors = len(slots)
	return m, nil
}

type opaqueVoxel struct {
	index int
	color Rgba
}

// parallelScanMin is the voxel count above which the opaque scan is split
// across goroutines.
const parallelScanMin = 1 << 18

// scanOpaque lists the non-empty voxels in ascending index order. Large
// buffers are scanned in contiguous ranges concurrently; the ranges are
// joined in order so the result matches a sequential scan.
func scanOpaque(b *Buffer[Rgba]) []opaqueVoxel {
	n := b.Len()
	workers := runtime.GOMAXPROCS(0)
	if n < parallelScanMin || workers < 2 {
		return scanRange(b, 0, n, nil)
	}
	parts := make([][]opaqueVoxel, workers)
	step := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * step
		hi := min(lo+step, n)
		if lo >= hi {
			break
		}
		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()
			parts[w] = scanRange(b, lo, hi, nil)
		}(w, lo, hi)
	}
	wg.Wait()
	total := 0
	for _, p := range parts {
		total += len(p)
	}
	out := make([]opaqueVoxel, 0, total)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func scanRange(b *Buffer[Rgba], lo, hi int, dst []opaqueVoxel) []opaqueVoxel {
	for i := lo; i < hi; i++ {
		off := i * b.size
		if b.data[off+3] == 0 {
			continue
		}
		dst = append(dst, opaqueVoxel{index: i, color: Rgba{}.Decode(b.data[off:])})
	}
	return dst
}

// AppendBinary appends the complete .vox file to dst.
func (m *Model) AppendBinary(dst []byte) []byte {
	n := uint32(len(m.Records))
	xyziLen := intSize + n*intSize
	children := 3*chunkHeaderSize + sizeContentLen + xyziLen + rgbaContentLen

	dst = append(dst, Signature...)
	dst = appendUint32(dst, Version)
	dst = newChunkHeader(idMain, 0, children).put(dst)

	dst = newChunkHeader(idSize, sizeContentLen, 0).put(dst)
	dst = appendUint32(dst, m.Width)
	dst = appendUint32(dst, m.Depth)
	dst = appendUint32(dst, m.Height)

	dst = newChunkHeader(idXYZI, xyziLen, 0).put(dst)
	dst = appendUint32(dst, n)
	for _, r := range m.Records {
		dst = append(dst, r.X, r.Y, r.Z, byte(r.Color))
	}

	dst = newChunkHeader(idRGBA, rgbaContentLen, 0).put(dst)
	for _, c := range m.Palette {
		dst = append(dst, c[:]...)
	}
	return dst
}

// Size is the encoded file length in bytes.
func (m *Model) Size() int {
	return 8 + 4*chunkHeaderSize + sizeContentLen + intSize + len(m.Records)*intSize + rgbaContentLen
}

// EncodeBytes returns b as a .vox file.
func EncodeBytes(b *Buffer[Rgba]) ([]byte, error) {
	m, err := NewModel(b)
	if err != nil {
		return nil, err
	}
	return m.AppendBinary(make([]byte, 0, m.Size())), nil
}

// Encode writes b as a .vox file to w in a single write. Errors from w are
// returned as is.
func Encode(w io.Writer, b *Buffer[Rgba]) error {
	data, err := EncodeBytes(b)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Save writes b to filename as a .vox file.
func Save(b *Buffer[Rgba], filename string) error {
	data, err := EncodeBytes(b)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0o644)
}
