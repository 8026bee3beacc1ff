package vox

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrFormat is wrapped by every error caused by malformed .vox input.
var ErrFormat = errors.New("vox: invalid file")

func formatErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrFormat, fmt.Sprintf(format, args...))
}

// ParseModel reads the first model of a .vox file. Chunks other than SIZE,
// XYZI and RGBA are skipped.
func ParseModel(data []byte) (*Model, error) {
	if len(data) < 8 || string(data[:4]) != Signature {
		return nil, formatErr("missing %q signature", Signature)
	}
	if v := binary.LittleEndian.Uint32(data[4:8]); v < Version {
		return nil, formatErr("unsupported version %d", v)
	}
	r := bytes.NewReader(data[8:])
	root, err := readChunkHeader(r)
	if err != nil {
		return nil, formatErr("MAIN header: %v", err)
	}
	if string(root.ID[:]) != idMain {
		return nil, formatErr("expected MAIN chunk, found %q", root.ID[:])
	}
	if int64(root.Content)+int64(root.Children) > int64(r.Len()) {
		return nil, formatErr("MAIN declares %d bytes, %d left", root.Content+root.Children, r.Len())
	}
	off := len(data) - r.Len() + int(root.Content)
	children := bytes.NewReader(data[off : off+int(root.Children)])

	var m Model
	var haveSize, haveVoxels, havePalette bool
	for children.Len() > 0 {
		h, err := readChunkHeader(children)
		if err != nil {
			return nil, formatErr("chunk header: %v", err)
		}
		if int64(h.Content)+int64(h.Children) > int64(children.Len()) {
			return nil, formatErr("%s chunk overruns its parent", h.ID[:])
		}
		payload := make([]byte, h.Content)
		if _, err := io.ReadFull(children, payload); err != nil {
			return nil, formatErr("%s payload: %v", h.ID[:], err)
		}
		if _, err := children.Seek(int64(h.Children), io.SeekCurrent); err != nil {
			return nil, err
		}
		switch string(h.ID[:]) {
		case idSize:
			if haveSize {
				continue
			}
			if len(payload) < sizeContentLen {
				return nil, formatErr("SIZE chunk is %d bytes", len(payload))
			}
			m.Width = binary.LittleEndian.Uint32(payload[0:4])
			m.Depth = binary.LittleEndian.Uint32(payload[4:8])
			m.Height = binary.LittleEndian.Uint32(payload[8:12])
			if m.Width > MaxCoord+1 || m.Depth > MaxCoord+1 || m.Height > MaxCoord+1 {
				return nil, formatErr("SIZE %dx%dx%d exceeds %d per axis", m.Width, m.Depth, m.Height, MaxCoord+1)
			}
			haveSize = true
		case idXYZI:
			if haveVoxels {
				continue
			}
			if !haveSize {
				return nil, formatErr("XYZI before SIZE")
			}
			recs, err := parseRecords(payload)
			if err != nil {
				return nil, err
			}
			m.Records = recs
			haveVoxels = true
		case idRGBA:
			if len(payload) < rgbaContentLen {
				return nil, formatErr("RGBA chunk is %d bytes", len(payload))
			}
			for i := range m.Palette {
				m.Palette[i] = Rgba{}.Decode(payload[i*intSize:])
			}
			havePalette = true
		}
	}
	if !haveSize || !haveVoxels {
		return nil, formatErr("no model")
	}
	if !havePalette {
		return nil, formatErr("no RGBA palette")
	}
	used := make(map[Index]struct{})
	for _, rec := range m.Records {
		used[rec.Color] = struct{}{}
	}
	m.Colors = len(used)
	return &m, nil
}

func parseRecords(payload []byte) ([]Record, error) {
	if len(payload) < intSize {
		return nil, formatErr("XYZI chunk is %d bytes", len(payload))
	}
	n := binary.LittleEndian.Uint32(payload[:4])
	if uint64(n)*intSize > uint64(len(payload)-intSize) {
		return nil, formatErr("XYZI declares %d voxels in %d bytes", n, len(payload))
	}
	recs := make([]Record, n)
	for i := range recs {
		p := payload[intSize+i*intSize:]
		if p[3] == 0 {
			return nil, formatErr("voxel %d uses palette index 0", i)
		}
		recs[i] = Record{X: p[0], Y: p[1], Z: p[2], Color: Index(p[3])}
	}
	return recs, nil
}

// Indexed places the records into a palette-indexed buffer.
func (m *Model) Indexed() (*Buffer[Index], error) {
	b, err := New[Index](m.Width, m.Depth, m.Height)
	if err != nil {
		return nil, err
	}
	for _, r := range m.Records {
		i, ok := b.Index(uint32(r.X), uint32(r.Y), uint32(r.Z))
		if !ok {
			return nil, formatErr("voxel (%d, %d, %d) outside %dx%dx%d", r.X, r.Y, r.Z, m.Width, m.Depth, m.Height)
		}
		b.SetIndex(i, r.Color)
	}
	return b, nil
}

// Buffer expands the model into an RGBA buffer using its palette.
func (m *Model) Buffer() (*Buffer[Rgba], error) {
	idx, err := m.Indexed()
	if err != nil {
		return nil, err
	}
	b, err := New[Rgba](m.Width, m.Depth, m.Height)
	if err != nil {
		return nil, err
	}
	for p, v := range idx.All() {
		if v != 0 {
			b.Set(p.X, p.Y, p.Z, m.Palette.Color(v))
		}
	}
	return b, nil
}

// DecodeBytes parses a .vox file into an RGBA buffer.
func DecodeBytes(data []byte) (*Buffer[Rgba], error) {
	m, err := ParseModel(data)
	if err != nil {
		return nil, err
	}
	return m.Buffer()
}

// Decode reads a .vox file from r.
func Decode(r io.Reader) (*Buffer[Rgba], error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return DecodeBytes(data)
}

// Load reads a .vox file from disk.
func Load(filename string) (*Buffer[Rgba], error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return DecodeBytes(data)
}
