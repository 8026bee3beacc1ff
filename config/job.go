// Package config loads render jobs from YAML or HCL files.
package config

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/voxelsplace/voxgen/lsystem"
	"github.com/voxelsplace/voxgen/render"
	"github.com/voxelsplace/voxgen/vox"
)

var ErrInvalid = errors.New("config: invalid job")

// Job describes one grammar and how to render it.
type Job struct {
	Name   string      `yaml:"name" hcl:"name,attr" json:"name"`
	Axiom  string      `yaml:"axiom" hcl:"axiom,attr" json:"axiom"`
	Rules  []string    `yaml:"rules" hcl:"rules,optional" json:"rules,omitempty"`
	Output string      `yaml:"output" hcl:"output,optional" json:"output,omitempty"`
	Render *RenderSpec `yaml:"render" hcl:"render,block" json:"render,omitempty"`
}

// RenderSpec holds the render settings a job overrides. Unset fields keep
// the values of render.DefaultOptions.
type RenderSpec struct {
	Generations *int      `yaml:"generations" hcl:"generations,optional" json:"generations,omitempty"`
	Step        *float64  `yaml:"step" hcl:"step,optional" json:"step,omitempty"`
	Angle       *float64  `yaml:"angle" hcl:"angle,optional" json:"angle,omitempty"`
	AngleDeg    *float64  `yaml:"angle_deg" hcl:"angle_deg,optional" json:"angle_deg,omitempty"`
	Size        []int     `yaml:"size" hcl:"size,optional" json:"size,omitempty"`
	Offset      []float64 `yaml:"offset" hcl:"offset,optional" json:"offset,omitempty"`
	Rainbow     *bool     `yaml:"rainbow" hcl:"rainbow,optional" json:"rainbow,omitempty"`
	Colors      []string  `yaml:"colors" hcl:"colors,optional" json:"colors,omitempty"`
}

// Grammar builds the job's L-System.
func (j *Job) Grammar() (*lsystem.Grammar, error) {
	return lsystem.New(j.Name, j.Axiom, j.Rules...)
}

// Options overlays the job's render settings on render.DefaultOptions.
func (j *Job) Options() (render.Options, error) {
	opts := render.DefaultOptions()
	r := j.Render
	if r == nil {
		return opts, nil
	}
	if r.Generations != nil {
		opts.Generations = *r.Generations
	}
	if r.Step != nil {
		opts.Step = *r.Step
	}
	switch {
	case r.Angle != nil && r.AngleDeg != nil:
		return opts, fmt.Errorf("%w: angle and angle_deg are exclusive", ErrInvalid)
	case r.Angle != nil:
		opts.Angle = *r.Angle
	case r.AngleDeg != nil:
		opts.Angle = *r.AngleDeg * math.Pi / 180
	}
	if len(r.Size) > 0 {
		if len(r.Size) != 3 {
			return opts, fmt.Errorf("%w: size needs 3 values, got %d", ErrInvalid, len(r.Size))
		}
		for _, s := range r.Size {
			if s < 1 || s > vox.MaxCoord+1 {
				return opts, fmt.Errorf("%w: size %d outside 1..%d", ErrInvalid, s, vox.MaxCoord+1)
			}
		}
		opts.SizeX, opts.SizeY, opts.SizeZ = uint32(r.Size[0]), uint32(r.Size[1]), uint32(r.Size[2])
	}
	if len(r.Offset) > 0 {
		if len(r.Offset) != 2 {
			return opts, fmt.Errorf("%w: offset needs 2 values, got %d", ErrInvalid, len(r.Offset))
		}
		opts.OffsetX, opts.OffsetY = r.Offset[0], r.Offset[1]
	}
	if r.Rainbow != nil {
		opts.Rainbow = *r.Rainbow
	}
	for _, s := range r.Colors {
		c, err := ParseColor(s)
		if err != nil {
			return opts, err
		}
		opts.Colors = append(opts.Colors, c)
	}
	return opts, nil
}

// OutputPath is where the rendered file goes. An empty Output means the
// conventional file name in the working directory; an Output without a
// .vox extension is treated as a directory.
func (j *Job) OutputPath() (string, error) {
	opts, err := j.Options()
	if err != nil {
		return "", err
	}
	name := render.FileName(j.Name, opts.Generations)
	switch {
	case j.Output == "":
		return name, nil
	case strings.EqualFold(filepath.Ext(j.Output), ".vox"):
		return j.Output, nil
	default:
		return filepath.Join(j.Output, name), nil
	}
}

// ParseColor parses "#rrggbb" (opaque) or "#rrggbbaa".
func ParseColor(s string) (vox.Rgba, error) {
	hex, ok := strings.CutPrefix(s, "#")
	if !ok || (len(hex) != 6 && len(hex) != 8) {
		return vox.Rgba{}, fmt.Errorf("%w: color %q is not #rrggbb or #rrggbbaa", ErrInvalid, s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return vox.Rgba{}, fmt.Errorf("%w: color %q: %v", ErrInvalid, s, err)
	}
	if len(hex) == 6 {
		v = v<<8 | 0xff
	}
	return vox.Rgba{uint8(v >> 24), uint8(v >> 16), uint8(v >> 8), uint8(v)}, nil
}
