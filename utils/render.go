package utils

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/voxelsplace/voxgen/catalog"
	"github.com/voxelsplace/voxgen/config"
	"github.com/voxelsplace/voxgen/internal/ctxlog"
	"github.com/voxelsplace/voxgen/render"
	"github.com/voxelsplace/voxgen/vox"
)

// RenderFlags are the options shared by the render and series commands.
type RenderFlags struct {
	// Out overrides the job's output location.
	Out string
	// Generations overrides the job's generation count when >= 0.
	Generations int
	// Catalog is the path of a catalog database to record into. Empty
	// disables recording.
	Catalog string
	// GLB also writes a mesh next to each .vox file.
	GLB bool
}

func loadJob(ctx context.Context, jobPath string, flags RenderFlags) (*config.Job, render.Options, error) {
	job, err := config.Load(ctx, jobPath)
	if err != nil {
		return nil, render.Options{}, err
	}
	if flags.Generations >= 0 {
		gens := flags.Generations
		if job.Render == nil {
			job.Render = &config.RenderSpec{}
		}
		job.Render.Generations = &gens
		if err := job.Validate(); err != nil {
			return nil, render.Options{}, fmt.Errorf("%s: -n %d: %w", jobPath, gens, err)
		}
	}
	opts, err := job.Options()
	if err != nil {
		return nil, render.Options{}, err
	}
	return job, opts, nil
}

// RunRender renders the job at jobPath to a .vox file and returns the path
// written.
func RunRender(ctx context.Context, jobPath string, flags RenderFlags) (string, error) {
	logger := ctxlog.FromContext(ctx)
	job, opts, err := loadJob(ctx, jobPath, flags)
	if err != nil {
		return "", err
	}
	g, err := job.Grammar()
	if err != nil {
		return "", err
	}

	outPath := flags.Out
	if outPath == "" {
		if outPath, err = job.OutputPath(); err != nil {
			return "", err
		}
	}

	start := time.Now()
	res, err := render.Render(ctx, g, opts)
	if err != nil {
		return "", err
	}
	model, err := vox.NewModel(res.Canvas)
	if err != nil {
		return "", err
	}
	data := model.AppendBinary(make([]byte, 0, model.Size()))
	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", err
		}
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return "", err
	}
	logger.Info("Wrote model.", "path", outPath, "voxels", res.Voxels, "colors", model.Colors, "took", time.Since(start))

	if flags.GLB {
		glbPath := replaceExt(outPath, ".glb")
		if err := saveGLB(ctx, res.Canvas, glbPath, res.Name); err != nil {
			return "", err
		}
		logger.Info("Wrote mesh.", "path", glbPath)
	}

	if flags.Catalog != "" {
		if err := record(ctx, flags.Catalog, res, model, data, outPath); err != nil {
			return "", err
		}
	}
	return outPath, nil
}

func record(ctx context.Context, dbPath string, res *render.Result, model *vox.Model, data []byte, path string) error {
	c, err := catalog.Open(dbPath)
	if err != nil {
		return err
	}
	defer c.Close()
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return c.Record(ctx, catalog.Entry{
		Name:        res.Name,
		Generations: res.Generations,
		Symbols:     res.Commands,
		Voxels:      res.Voxels,
		Colors:      model.Colors,
		Digest:      catalog.Digest(data),
		Path:        path,
	})
}

func replaceExt(path, ext string) string {
	return path[:len(path)-len(filepath.Ext(path))] + ext
}
