package utils

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/voxelsplace/voxgen/catalog"
	"github.com/voxelsplace/voxgen/internal/ctxlog"
	"github.com/voxelsplace/voxgen/render"
	"github.com/voxelsplace/voxgen/vox"
)

// RunSeries renders generations 0 through N of a job, N being the job's
// generation count, and stores them in one .voxpack. Consecutive
// generations share most of their bytes, so the pack uses the
// deduplicating layout. It returns the path written.
func RunSeries(ctx context.Context, jobPath string, flags RenderFlags) (string, error) {
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
		outPath = job.Name + ".voxpack"
		if job.Output != "" && filepath.Ext(job.Output) == "" {
			outPath = filepath.Join(job.Output, outPath)
		}
	}

	type item struct {
		res   *render.Result
		model *vox.Model
		data  []byte
		err   error
	}
	items := make([]item, opts.Generations+1)
	var wg sync.WaitGroup
	for n := range items {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			o := opts
			o.Generations = n
			res, err := render.Render(ctx, g, o)
			if err != nil {
				items[n].err = fmt.Errorf("generation %d: %w", n, err)
				return
			}
			model, err := vox.NewModel(res.Canvas)
			if err != nil {
				items[n].err = fmt.Errorf("generation %d: %w", n, err)
				return
			}
			items[n] = item{res: res, model: model, data: model.AppendBinary(nil)}
		}(n)
	}
	wg.Wait()

	p := &vox.Pack{}
	for _, it := range items {
		if it.err != nil {
			return "", it.err
		}
		p.Entries = append(p.Entries, vox.PackEntry{Name: it.res.FileName(), Data: it.data})
	}
	data, err := p.MarshalEx(vox.LayoutCDC, vox.PackZstd)
	if err != nil {
		return "", err
	}
	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", err
		}
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return "", err
	}
	logger.Info("Wrote series.", "path", outPath, "generations", len(items), "bytes", len(data))

	if flags.Catalog != "" {
		c, err := catalog.Open(flags.Catalog)
		if err != nil {
			return "", err
		}
		defer c.Close()
		abs, err := filepath.Abs(outPath)
		if err != nil {
			abs = outPath
		}
		for _, it := range items {
			err := c.Record(ctx, catalog.Entry{
				Name:        it.res.Name,
				Generations: it.res.Generations,
				Symbols:     it.res.Commands,
				Voxels:      it.res.Voxels,
				Colors:      it.model.Colors,
				Digest:      catalog.Digest(it.data),
				Path:        abs + "#" + it.res.FileName(),
			})
			if err != nil {
				return "", err
			}
		}
	}
	return outPath, nil
}
