package vox

import (
	"errors"
	"fmt"
	"iter"
	"math/bits"
)

// ErrOverflow is returned when the requested dimensions do not fit in memory.
var ErrOverflow = errors.New("vox: buffer too large")

// maxBytes caps the backing slice New allocates, below the runtime's
// allocation ceiling.
const maxBytes = uint64(1) << 40

// Point is a voxel coordinate.
type Point struct {
	X, Y, Z uint32
}

// Buffer is a dense volume of fixed-size voxels backed by one byte slice.
// Voxels are laid out row-major: index = x + y*width + z*width*depth.
type Buffer[T Voxel[T]] struct {
	width  uint32
	depth  uint32
	height uint32
	size   int
	data   []byte
}

// New allocates a zero-filled buffer.
func New[T Voxel[T]](width, depth, height uint32) (*Buffer[T], error) {
	var zero T
	size := zero.Size()
	if size < 1 || size > intSize {
		panic(fmt.Sprintf("vox: voxel kind %T is %d bytes wide, want 1..%d", zero, size, intSize))
	}
	n, ok := byteLen(size, width, depth, height)
	if !ok {
		return nil, fmt.Errorf("%w: %dx%dx%d of %d-byte voxels", ErrOverflow, width, depth, height, size)
	}
	return &Buffer[T]{
		width:  width,
		depth:  depth,
		height: height,
		size:   size,
		data:   make([]byte, n),
	}, nil
}

// byteLen computes size*width*depth*height, reporting overflow of int or
// of maxBytes.
func byteLen(size int, width, depth, height uint32) (int, bool) {
	n := uint64(size)
	for _, d := range [3]uint32{width, depth, height} {
		hi, lo := bits.Mul64(n, uint64(d))
		if hi != 0 || lo > uint64(maxInt) || lo > maxBytes {
			return 0, false
		}
		n = lo
	}
	return int(n), true
}

const maxInt = int(^uint(0) >> 1)

func (b *Buffer[T]) Width() uint32  { return b.width }
func (b *Buffer[T]) Depth() uint32  { return b.depth }
func (b *Buffer[T]) Height() uint32 { return b.height }

// Len is the number of voxels in the buffer.
func (b *Buffer[T]) Len() int { return len(b.data) / b.size }

// Index maps a coordinate to its linear index. ok is false when any
// coordinate is outside the buffer.
func (b *Buffer[T]) Index(x, y, z uint32) (int, bool) {
	if x >= b.width || y >= b.depth || z >= b.height {
		return 0, false
	}
	return int(x) + int(y)*int(b.width) + int(z)*int(b.width)*int(b.depth), true
}

// Coord is the inverse of Index.
func (b *Buffer[T]) Coord(i int) (x, y, z uint32) {
	b.checkIndex(i)
	plane := int(b.width) * int(b.depth)
	z = uint32(i / plane)
	rem := i % plane
	return uint32(rem % int(b.width)), uint32(rem / int(b.width)), z
}

// Get returns the voxel at (x, y, z). It panics if the coordinate is out of bounds.
func (b *Buffer[T]) Get(x, y, z uint32) T {
	var zero T
	return zero.Decode(b.Window(x, y, z))
}

// Set stores v at (x, y, z). It panics if the coordinate is out of bounds.
func (b *Buffer[T]) Set(x, y, z uint32, v T) {
	v.Put(b.Window(x, y, z))
}

// Window returns the bytes backing the voxel at (x, y, z). Writes through the
// returned slice change the buffer.
func (b *Buffer[T]) Window(x, y, z uint32) []byte {
	i, ok := b.Index(x, y, z)
	if !ok {
		panic(fmt.Sprintf("vox: index (%d, %d, %d) out of bounds (%d, %d, %d)",
			x, y, z, b.width, b.depth, b.height))
	}
	return b.window(i)
}

// GetIndex returns the voxel at linear index i. It panics if i is out of range.
func (b *Buffer[T]) GetIndex(i int) T {
	b.checkIndex(i)
	var zero T
	return zero.Decode(b.window(i))
}

// SetIndex stores v at linear index i. It panics if i is out of range.
func (b *Buffer[T]) SetIndex(i int, v T) {
	b.checkIndex(i)
	v.Put(b.window(i))
}

func (b *Buffer[T]) checkIndex(i int) {
	if i < 0 || i >= b.Len() {
		panic(fmt.Sprintf("vox: id %d out of bounds %d", i, b.Len()))
	}
}

func (b *Buffer[T]) window(i int) []byte {
	off := i * b.size
	return b.data[off : off+b.size : off+b.size]
}

// All yields every voxel with its coordinate in ascending index order:
// x varies fastest, then y, then z.
func (b *Buffer[T]) All() iter.Seq2[Point, T] {
	return func(yield func(Point, T) bool) {
		var zero T
		var p Point
		for off := 0; off < len(b.data); off += b.size {
			if !yield(p, zero.Decode(b.data[off:off+b.size])) {
				return
			}
			p.X++
			if p.X == b.width {
				p.X = 0
				p.Y++
				if p.Y == b.depth {
					p.Y = 0
					p.Z++
				}
			}
		}
	}
}
