package catalog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Catalog {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "db", "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRecordAndList(t *testing.T) {
	ctx := context.Background()
	c := openTemp(t)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	entries := []Entry{
		{Name: "dragon", Generations: 8, Symbols: 766, Voxels: 1200, Colors: 200, Digest: Digest([]byte("a")), Path: "dragon_8.vox", CreatedAt: at},
		{Name: "dragon", Generations: 2, Symbols: 10, Voxels: 17, Colors: 6, Digest: Digest([]byte("b")), Path: "dragon_2.vox", CreatedAt: at},
		{Name: "hilbert", Generations: 6, Symbols: 13651, Voxels: 8000, Colors: 1, Digest: Digest([]byte("c")), Path: "hilbert_6.vox", CreatedAt: at},
	}
	for _, e := range entries {
		require.NoError(t, c.Record(ctx, e))
	}

	dragons, err := c.List(ctx, "dragon")
	require.NoError(t, err)
	require.Len(t, dragons, 2)
	require.Equal(t, entries[1], dragons[0])
	require.Equal(t, entries[0], dragons[1])

	all, err := c.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)

	none, err := c.List(ctx, "koch")
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestRecordReplacesPath(t *testing.T) {
	ctx := context.Background()
	c := openTemp(t)
	e := Entry{Name: "tree", Generations: 3, Voxels: 10, Digest: "1", Path: "out/tree_3.vox"}
	require.NoError(t, c.Record(ctx, e))
	e.Voxels = 12
	e.Digest = "2"
	require.NoError(t, c.Record(ctx, e))

	got, err := c.List(ctx, "tree")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, 12, got[0].Voxels)
	require.Equal(t, "2", got[0].Digest)
	require.False(t, got[0].CreatedAt.IsZero())
}

func TestReopenKeepsEntries(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.db")
	c, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, c.Record(ctx, Entry{Name: "a", Path: "a_0.vox", Digest: "0"}))
	require.NoError(t, c.Close())

	c, err = Open(path)
	require.NoError(t, err)
	defer c.Close()
	got, err := c.List(ctx, "a")
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestDigest(t *testing.T) {
	require.Equal(t, Digest([]byte("VOX ")), Digest([]byte("VOX ")))
	require.NotEqual(t, Digest([]byte("VOX ")), Digest([]byte("VOX!")))
	require.Equal(t, "ef46db3751d8e999", Digest(nil))
}

func TestOpenEmptyPath(t *testing.T) {
	_, err := Open("")
	require.Error(t, err)
}
