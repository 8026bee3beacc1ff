package utils

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/voxelsplace/voxgen/internal/ctxlog"
	"github.com/voxelsplace/voxgen/mesh"
	"github.com/voxelsplace/voxgen/vox"
)

// RunVox2GLB converts a .vox file to a .glb mesh using the greedy mesher.
func RunVox2GLB(ctx context.Context, inPath, outPath string) error {
	b, err := vox.Load(inPath)
	if err != nil {
		return err
	}
	name := strings.TrimSuffix(filepath.Base(inPath), filepath.Ext(inPath))
	return saveGLB(ctx, b, outPath, name)
}

func saveGLB(ctx context.Context, b *vox.Buffer[vox.Rgba], path, name string) error {
	start := time.Now()
	if err := mesh.SaveGLB(b, path, name); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Debug("Meshed.", "path", path, "took", time.Since(start))
	return nil
}
