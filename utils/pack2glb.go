package utils

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/voxelsplace/voxgen/internal/ctxlog"
	"github.com/voxelsplace/voxgen/mesh"
	"github.com/voxelsplace/voxgen/vox"
)

// RunPack2GLB converts a .voxpack into a single .glb with one mesh and
// node per entry. Entries are laid out side by side on a square grid.
func RunPack2GLB(ctx context.Context, inPackPath, outGlbPath string) error {
	data, err := os.ReadFile(inPackPath)
	if err != nil {
		return err
	}
	p, _, err := vox.UnmarshalPack(data)
	if err != nil {
		return err
	}
	n := len(p.Entries)
	if n == 0 {
		return fmt.Errorf("%w: pack has no entries", vox.ErrPack)
	}
	cols := int(math.Ceil(math.Sqrt(float64(n))))

	parts := make([]mesh.Part, n)
	var stepX, stepY float32
	for i, e := range p.Entries {
		b, err := vox.DecodeBytes(e.Data)
		if err != nil {
			return fmt.Errorf("entry %d (%s): %w", i, e.Name, err)
		}
		stepX = max(stepX, float32(b.Width()))
		stepY = max(stepY, float32(b.Depth()))
		parts[i] = mesh.Part{
			Name: strings.TrimSuffix(e.Name, filepath.Ext(e.Name)),
			Mesh: mesh.Greedy(b),
		}
	}
	for i := range parts {
		parts[i].Offset = [3]float32{float32(i%cols) * stepX, float32(i/cols) * stepY, 0}
	}

	if err := gltf.SaveBinary(mesh.SceneDocument(parts), outGlbPath); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Info("Wrote scene.", "path", outGlbPath, "entries", n)
	return nil
}
