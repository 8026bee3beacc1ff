package vox

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func generationPack(t *testing.T, n int) *Pack {
	t.Helper()
	p := &Pack{}
	b := mustBuffer(t, 32, 32, 8)
	for g := 0; g < n; g++ {
		// each generation adds a row, so consecutive files share most bytes
		for x := uint32(0); x < 32; x++ {
			b.Set(x, uint32(g), uint32(g%8), Rgba{uint8(40 * g), 200, uint8(x), 255})
		}
		require.NoError(t, p.Add(fmt.Sprintf("gen_%d.vox", g), b))
	}
	return p
}

func TestPackRoundtrip(t *testing.T) {
	p := generationPack(t, 5)
	for _, layout := range []PackLayout{LayoutRaw, LayoutCDC} {
		for _, codec := range []PackCodec{PackNone, PackZlib, PackZstd} {
			t.Run(fmt.Sprintf("layout%d/codec%d", layout, codec), func(t *testing.T) {
				data, err := p.MarshalEx(layout, codec)
				require.NoError(t, err)
				got, gotCodec, err := UnmarshalPack(data)
				require.NoError(t, err)
				require.Equal(t, codec, gotCodec)
				require.Len(t, got.Entries, len(p.Entries))
				for i, e := range p.Entries {
					require.Equal(t, e.Name, got.Entries[i].Name)
					require.True(t, bytes.Equal(e.Data, got.Entries[i].Data), "entry %s differs", e.Name)
				}
			})
		}
	}
}

func TestPackEntriesDecode(t *testing.T) {
	p := generationPack(t, 3)
	data, err := p.Marshal(PackZstd)
	require.NoError(t, err)
	got, _, err := UnmarshalPack(data)
	require.NoError(t, err)
	last, err := DecodeBytes(got.Entries[2].Data)
	require.NoError(t, err)
	require.Equal(t, Rgba{80, 200, 31, 255}, last.Get(31, 2, 2))
}

func TestPackCDCDeduplicates(t *testing.T) {
	big := mustBuffer(t, 64, 64, 16)
	for i := 0; i < big.Len(); i += 3 {
		big.SetIndex(i, Rgba{uint8(i % 7), uint8(i % 11), 3, 255})
	}
	data, err := EncodeBytes(big)
	require.NoError(t, err)

	p := &Pack{}
	for i := 0; i < 4; i++ {
		p.Entries = append(p.Entries, PackEntry{Name: fmt.Sprintf("copy%d.vox", i), Data: data})
	}
	raw, err := p.MarshalEx(LayoutRaw, PackNone)
	require.NoError(t, err)
	cdc, err := p.MarshalEx(LayoutCDC, PackNone)
	require.NoError(t, err)
	require.Less(t, len(cdc), len(raw)/2, "identical entries should share chunks")

	got, _, err := UnmarshalPack(cdc)
	require.NoError(t, err)
	for _, e := range got.Entries {
		require.True(t, bytes.Equal(data, e.Data))
	}
}

func TestChunkerBounds(t *testing.T) {
	c := newChunker(cdcTarget, cdcMin, cdcMax)
	data := make([]byte, 100000)
	for i := range data {
		data[i] = byte(i * 31 >> 3)
	}
	refs := c.split(data)
	var joined []byte
	for i, r := range refs {
		blk := c.blocks[r]
		if i < len(refs)-1 {
			require.GreaterOrEqual(t, len(blk), cdcMin)
		}
		require.LessOrEqual(t, len(blk), cdcMax)
		joined = append(joined, blk...)
	}
	require.Equal(t, data, joined)
}

func TestUnmarshalPackErrors(t *testing.T) {
	p := generationPack(t, 2)
	good, err := p.MarshalEx(LayoutCDC, PackNone)
	require.NoError(t, err)

	cases := map[string][]byte{
		"empty":     nil,
		"magic":     append([]byte("VOXPAKK "), good[8:]...),
		"version":   append(append([]byte(nil), good[:8]...), append([]byte{9}, good[9:]...)...),
		"codec":     append(append([]byte(nil), good[:9]...), append([]byte{7}, good[10:]...)...),
		"truncated": good[:len(good)-10],
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := UnmarshalPack(data)
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrPack), "err=%v", err)
		})
	}
}

func TestMarshalRejectsNonVox(t *testing.T) {
	p := &Pack{Entries: []PackEntry{{Name: "notes.txt", Data: []byte("hello")}}}
	_, err := p.Marshal(PackNone)
	require.ErrorIs(t, err, ErrPack)
}
