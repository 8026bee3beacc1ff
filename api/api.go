// Package api exposes in-memory conversions for embedders such as the wasm
// build.
package api

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/voxelsplace/voxgen/config"
	"github.com/voxelsplace/voxgen/mesh"
	"github.com/voxelsplace/voxgen/render"
	"github.com/voxelsplace/voxgen/vox"
)

// RenderJobBytes renders a job given as YAML or HCL source and returns the
// .vox file bytes together with the conventional file name.
func RenderJobBytes(src []byte, format string) ([]byte, string, error) {
	f := config.Format(strings.ToLower(format))
	job, err := config.Parse("job."+string(f), src, f)
	if err != nil {
		return nil, "", err
	}
	g, err := job.Grammar()
	if err != nil {
		return nil, "", err
	}
	opts, err := job.Options()
	if err != nil {
		return nil, "", err
	}
	res, err := render.Render(context.Background(), g, opts)
	if err != nil {
		return nil, "", err
	}
	data, err := vox.EncodeBytes(res.Canvas)
	if err != nil {
		return nil, "", err
	}
	return data, res.FileName(), nil
}

// VoxToGLB takes .vox file bytes and returns .glb bytes using the greedy mesher.
func VoxToGLB(voxBytes []byte) ([]byte, error) {
	b, err := vox.DecodeBytes(voxBytes)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := mesh.EncodeGLB(&out, b, "voxels"); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// PackVox builds a .voxpack from named .vox files. Entries are stored in
// name order with the deduplicating layout and zstd.
func PackVox(files map[string][]byte) ([]byte, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no files")
	}
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	p := &vox.Pack{}
	for _, name := range names {
		if _, err := vox.ParseModel(files[name]); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		p.Entries = append(p.Entries, vox.PackEntry{Name: name, Data: files[name]})
	}
	return p.MarshalEx(vox.LayoutCDC, vox.PackZstd)
}

// UnpackVoxPack returns a map of file name to .vox bytes from a .voxpack blob.
func UnpackVoxPack(packBytes []byte) (map[string][]byte, error) {
	p, _, err := vox.UnmarshalPack(packBytes)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(p.Entries))
	for _, e := range p.Entries {
		out[e.Name] = e.Data
	}
	return out, nil
}
