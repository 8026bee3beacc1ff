package vox

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	xxhash "github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// PackCodec is the compression applied to the pack content section.
type PackCodec uint8

const (
	PackNone PackCodec = 0
	PackZlib PackCodec = 1
	PackZstd PackCodec = 2
)

// PackLayout selects how entries are stored in the content section.
type PackLayout uint8

const (
	// LayoutRaw stores every entry as one blob.
	LayoutRaw PackLayout = 0
	// LayoutCDC splits entries into content-defined chunks and stores each
	// distinct chunk once.
	LayoutCDC PackLayout = 1
)

const (
	packMagic    = "VOXPACK "
	packVersion1 = 1 // raw layout, no layout byte
	packVersion2 = 2 // layout byte follows the entry header

	cdcTarget = 4096
	cdcMin    = 1024
	cdcMax    = 16384
)

var ErrPack = errors.New("vox: invalid pack")

// PackEntry is one .vox file inside a pack.
type PackEntry struct {
	Name string
	Data []byte
}

// Pack bundles several .vox files, e.g. successive generations of a render.
type Pack struct {
	Entries []PackEntry
}

// Add encodes b and appends it under name.
func (p *Pack) Add(name string, b *Buffer[Rgba]) error {
	data, err := EncodeBytes(b)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	p.Entries = append(p.Entries, PackEntry{Name: name, Data: data})
	return nil
}

// Marshal encodes the pack with the raw layout.
func (p *Pack) Marshal(codec PackCodec) ([]byte, error) {
	return p.MarshalEx(LayoutRaw, codec)
}

// MarshalEx encodes the pack with the given layout and codec.
func (p *Pack) MarshalEx(layout PackLayout, codec PackCodec) ([]byte, error) {
	for _, e := range p.Entries {
		if len(e.Name) > math.MaxUint16 {
			return nil, fmt.Errorf("%w: entry name too long: %.32s...", ErrPack, e.Name)
		}
		if !bytes.HasPrefix(e.Data, []byte(Signature)) {
			return nil, fmt.Errorf("%w: entry %s is not a .vox file", ErrPack, e.Name)
		}
	}

	version := uint8(packVersion2)
	var content bytes.Buffer
	switch layout {
	case LayoutRaw:
		version = packVersion1
		_ = binary.Write(&content, binary.LittleEndian, uint32(len(p.Entries)))
		for _, e := range p.Entries {
			writeName(&content, e.Name)
			_ = binary.Write(&content, binary.LittleEndian, uint32(len(e.Data)))
			content.Write(e.Data)
		}
	case LayoutCDC:
		content.WriteByte(byte(LayoutCDC))
		c := newChunker(cdcTarget, cdcMin, cdcMax)
		refs := make([][]uint32, len(p.Entries))
		for i, e := range p.Entries {
			refs[i] = c.split(e.Data)
		}
		_ = binary.Write(&content, binary.LittleEndian, uint32(len(c.blocks)))
		for _, blk := range c.blocks {
			_ = binary.Write(&content, binary.LittleEndian, uint32(len(blk)))
			content.Write(blk)
		}
		_ = binary.Write(&content, binary.LittleEndian, uint32(len(p.Entries)))
		for i, e := range p.Entries {
			writeName(&content, e.Name)
			_ = binary.Write(&content, binary.LittleEndian, uint32(len(e.Data)))
			_ = binary.Write(&content, binary.LittleEndian, uint32(len(refs[i])))
			_ = binary.Write(&content, binary.LittleEndian, refs[i])
		}
	default:
		return nil, fmt.Errorf("%w: unknown layout %d", ErrPack, layout)
	}

	payload, err := compress(codec, content.Bytes())
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(packMagic)+2+len(payload))
	out = append(out, packMagic...)
	out = append(out, version, byte(codec))
	return append(out, payload...), nil
}

func writeName(w *bytes.Buffer, name string) {
	_ = binary.Write(w, binary.LittleEndian, uint16(len(name)))
	w.WriteString(name)
}

func compress(codec PackCodec, raw []byte) ([]byte, error) {
	switch codec {
	case PackNone:
		return raw, nil
	case PackZlib:
		var buf bytes.Buffer
		zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
		if err != nil {
			return nil, err
		}
		if _, err := zw.Write(raw); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case PackZstd:
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		if err != nil {
			return nil, err
		}
		defer enc.Close()
		return enc.EncodeAll(raw, nil), nil
	default:
		return nil, fmt.Errorf("%w: unknown codec %d", ErrPack, codec)
	}
}

func decompress(codec PackCodec, data []byte) ([]byte, error) {
	switch codec {
	case PackNone:
		return data, nil
	case PackZlib:
		zr, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return io.ReadAll(zr)
	case PackZstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		return dec.DecodeAll(data, nil)
	default:
		return nil, fmt.Errorf("%w: unknown codec %d", ErrPack, codec)
	}
}

// UnmarshalPack parses a pack and reports the codec it was stored with.
func UnmarshalPack(data []byte) (*Pack, PackCodec, error) {
	if len(data) < len(packMagic)+2 || string(data[:len(packMagic)]) != packMagic {
		return nil, 0, fmt.Errorf("%w: missing %q magic", ErrPack, packMagic)
	}
	version := data[len(packMagic)]
	codec := PackCodec(data[len(packMagic)+1])
	content, err := decompress(codec, data[len(packMagic)+2:])
	if err != nil {
		if errors.Is(err, ErrPack) {
			return nil, 0, err
		}
		return nil, 0, fmt.Errorf("%w: %v", ErrPack, err)
	}
	r := &packReader{r: bytes.NewReader(content)}

	layout := LayoutRaw
	switch version {
	case packVersion1:
	case packVersion2:
		layout = PackLayout(r.u8())
	default:
		return nil, 0, fmt.Errorf("%w: unsupported version %d", ErrPack, version)
	}

	var p *Pack
	switch layout {
	case LayoutRaw:
		p = readRawEntries(r)
	case LayoutCDC:
		p = readCDCEntries(r)
	default:
		return nil, 0, fmt.Errorf("%w: unknown layout %d", ErrPack, layout)
	}
	if r.err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrPack, r.err)
	}
	return p, codec, nil
}

func readRawEntries(r *packReader) *Pack {
	n := r.u32()
	p := &Pack{}
	for i := uint32(0); i < n && r.err == nil; i++ {
		name := r.name()
		data := r.bytes(r.u32())
		p.Entries = append(p.Entries, PackEntry{Name: name, Data: data})
	}
	return p
}

func readCDCEntries(r *packReader) *Pack {
	nBlocks := r.u32()
	var blocks [][]byte
	for i := uint32(0); i < nBlocks && r.err == nil; i++ {
		blocks = append(blocks, r.bytes(r.u32()))
	}
	n := r.u32()
	p := &Pack{}
	for i := uint32(0); i < n && r.err == nil; i++ {
		name := r.name()
		size := r.u32()
		refs := r.u32()
		var data []byte
		for j := uint32(0); j < refs && r.err == nil; j++ {
			idx := r.u32()
			if idx >= uint32(len(blocks)) {
				r.fail(fmt.Errorf("entry %s references block %d of %d", name, idx, len(blocks)))
				break
			}
			data = append(data, blocks[idx]...)
		}
		if r.err == nil && uint32(len(data)) != size {
			r.fail(fmt.Errorf("entry %s is %d bytes, header says %d", name, len(data), size))
		}
		p.Entries = append(p.Entries, PackEntry{Name: name, Data: data})
	}
	return p
}

// packReader reads little-endian fields and keeps the first error.
type packReader struct {
	r   *bytes.Reader
	err error
}

func (r *packReader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *packReader) u8() uint8 {
	var v uint8
	r.read(&v)
	return v
}

func (r *packReader) u32() uint32 {
	var v uint32
	r.read(&v)
	return v
}

func (r *packReader) read(v any) {
	if r.err != nil {
		return
	}
	r.fail(binary.Read(r.r, binary.LittleEndian, v))
}

func (r *packReader) bytes(n uint32) []byte {
	if r.err != nil {
		return nil
	}
	if int64(n) > int64(r.r.Len()) {
		r.fail(io.ErrUnexpectedEOF)
		return nil
	}
	b := make([]byte, n)
	_, err := io.ReadFull(r.r, b)
	r.fail(err)
	return b
}

func (r *packReader) name() string {
	var n uint16
	r.read(&n)
	return string(r.bytes(uint32(n)))
}

// chunker performs content-defined chunking with a gear rolling hash and
// keeps a dictionary of distinct chunks.
type chunker struct {
	gear     [256]uint64
	mask     uint64
	min, max int
	blocks   [][]byte
	index    map[uint64][]uint32
}

func newChunker(target, minSize, maxSize int) *chunker {
	c := &chunker{
		mask:  uint64(1)<<uint(math.Round(math.Log2(float64(target)))) - 1,
		min:   minSize,
		max:   maxSize,
		index: make(map[uint64][]uint32),
	}
	seed := xxhash.Sum64String("voxpack-cdc-gear")
	var b [16]byte
	for i := range c.gear {
		binary.LittleEndian.PutUint64(b[:8], seed+uint64(i)*0x9E3779B185EBCA87)
		binary.LittleEndian.PutUint64(b[8:], ^(seed + uint64(i)*0xC2B2AE3D27D4EB4F))
		v := xxhash.Sum64(b[:])
		if v == 0 {
			v = 0x9E3779B185EBCA87
		}
		c.gear[i] = v
	}
	return c
}

// split cuts data into chunks and returns their dictionary indices.
func (c *chunker) split(data []byte) []uint32 {
	var refs []uint32
	start := 0
	var h uint64
	for pos := range data {
		h = h<<1 + c.gear[data[pos]]
		n := pos - start + 1
		if n < c.min {
			continue
		}
		if h&c.mask == 0 || n >= c.max {
			refs = append(refs, c.add(data[start:pos+1]))
			start = pos + 1
			h = 0
		}
	}
	if start < len(data) {
		refs = append(refs, c.add(data[start:]))
	}
	return refs
}

func (c *chunker) add(blk []byte) uint32 {
	h := xxhash.Sum64(blk)
	for _, idx := range c.index[h] {
		if bytes.Equal(c.blocks[idx], blk) {
			return idx
		}
	}
	idx := uint32(len(c.blocks))
	c.blocks = append(c.blocks, append([]byte(nil), blk...))
	c.index[h] = append(c.index[h], idx)
	return idx
}
