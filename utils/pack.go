package utils

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/voxelsplace/voxgen/internal/ctxlog"
	"github.com/voxelsplace/voxgen/vox"
)

// ParseCodec maps a codec name to its pack codec.
func ParseCodec(s string) (vox.PackCodec, error) {
	switch strings.ToLower(s) {
	case "none":
		return vox.PackNone, nil
	case "zlib":
		return vox.PackZlib, nil
	case "zstd", "":
		return vox.PackZstd, nil
	}
	return 0, fmt.Errorf("unknown codec %q", s)
}

// ParseLayout maps a layout name to its pack layout.
func ParseLayout(s string) (vox.PackLayout, error) {
	switch strings.ToLower(s) {
	case "raw":
		return vox.LayoutRaw, nil
	case "cdc", "":
		return vox.LayoutCDC, nil
	}
	return 0, fmt.Errorf("unknown layout %q", s)
}

// CreatePack reads .vox files and writes a .voxpack to outputFile. Every
// input is validated as a model before it is stored.
func CreatePack(ctx context.Context, inputFiles []string, outputFile string, layout vox.PackLayout, codec vox.PackCodec) error {
	if len(inputFiles) == 0 {
		return errors.New("no .vox files provided")
	}
	type item struct {
		name string
		data []byte
		err  error
	}
	items := make([]item, len(inputFiles))

	var wg sync.WaitGroup
	for i := range inputFiles {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			path := inputFiles[i]
			b, err := os.ReadFile(path)
			if err != nil {
				items[i].err = err
				return
			}
			if _, err := vox.ParseModel(b); err != nil {
				items[i].err = fmt.Errorf("%s: %w", path, err)
				return
			}
			items[i] = item{name: filepath.Base(path), data: b}
		}(i)
	}
	wg.Wait()

	p := &vox.Pack{Entries: make([]vox.PackEntry, len(items))}
	seen := make(map[string]string, len(items))
	for i, it := range items {
		if it.err != nil {
			return it.err
		}
		if prev, ok := seen[it.name]; ok {
			return fmt.Errorf("duplicate entry name %s (%s, %s)", it.name, prev, inputFiles[i])
		}
		seen[it.name] = inputFiles[i]
		p.Entries[i] = vox.PackEntry{Name: it.name, Data: it.data}
	}
	start := time.Now()
	data, err := p.MarshalEx(layout, codec)
	if err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Info("Packed.", "path", outputFile, "entries", len(items), "bytes", len(data), "took", time.Since(start))
	return os.WriteFile(outputFile, data, 0o644)
}

// UnpackToDir writes the .vox files of a .voxpack into outputDir.
func UnpackToDir(ctx context.Context, packFile, outputDir string) error {
	data, err := os.ReadFile(packFile)
	if err != nil {
		return err
	}
	p, _, err := vox.UnmarshalPack(data)
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(p.Entries))
	for _, e := range p.Entries {
		if e.Name != filepath.Base(e.Name) || e.Name == ".." || e.Name == "." {
			return fmt.Errorf("%w: unsafe entry name %q", vox.ErrPack, e.Name)
		}
		if seen[e.Name] {
			return fmt.Errorf("%w: duplicate entry name %q", vox.ErrPack, e.Name)
		}
		seen[e.Name] = true
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return err
	}
	var wg sync.WaitGroup
	errCh := make(chan error, len(p.Entries))
	for _, e := range p.Entries {
		wg.Add(1)
		go func(e vox.PackEntry) {
			defer wg.Done()
			if err := os.WriteFile(filepath.Join(outputDir, e.Name), e.Data, 0o644); err != nil {
				errCh <- err
			}
		}(e)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			return err
		}
	}
	ctxlog.FromContext(ctx).Info("Unpacked.", "dir", outputDir, "entries", len(p.Entries))
	return nil
}
