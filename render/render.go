// Package render interprets L-System derivations with a turtle and returns
// the resulting voxel canvas.
package render

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/voxelsplace/voxgen/internal/ctxlog"
	"github.com/voxelsplace/voxgen/lsystem"
	"github.com/voxelsplace/voxgen/turtle"
	"github.com/voxelsplace/voxgen/vox"
)

var ErrOptions = errors.New("render: invalid options")

// Options controls a render. Start from DefaultOptions.
type Options struct {
	Generations int
	Step        float64
	Angle       float64 // radians

	SizeX, SizeY, SizeZ uint32
	OffsetX, OffsetY    float64

	// Rainbow colors each drawing command with the next entry of Colors,
	// or of Rainbow(RainbowSize) when Colors is empty. The last entry is
	// reused once the ramp runs out.
	Rainbow bool
	Colors  []vox.Rgba
}

func DefaultOptions() Options {
	return Options{
		Generations: 2,
		Step:        2,
		Angle:       math.Pi / 2,
		SizeX:       64,
		SizeY:       64,
		SizeZ:       64,
	}
}

func (o Options) validate() error {
	if o.Generations < 0 {
		return fmt.Errorf("%w: negative generations %d", ErrOptions, o.Generations)
	}
	if o.SizeX == 0 || o.SizeY == 0 || o.SizeZ == 0 {
		return fmt.Errorf("%w: empty canvas %dx%dx%d", ErrOptions, o.SizeX, o.SizeY, o.SizeZ)
	}
	if math.IsNaN(o.Step) || math.IsInf(o.Step, 0) || math.IsNaN(o.Angle) || math.IsInf(o.Angle, 0) {
		return fmt.Errorf("%w: step and angle must be finite", ErrOptions)
	}
	return nil
}

// Result is a finished render.
type Result struct {
	Name        string
	Generations int
	Canvas      *vox.Buffer[vox.Rgba]
	// Commands is the length of the derived symbol sequence.
	Commands int
	// Voxels is the number of painted voxels.
	Voxels int
}

// FileName is the conventional output name, "<name>_<generations>.vox".
func FileName(name string, generations int) string {
	return fmt.Sprintf("%s_%d.vox", name, generations)
}

// FileName is the conventional output name for this result.
func (r *Result) FileName() string { return FileName(r.Name, r.Generations) }

// Render derives g opts.Generations times and draws the commands on a new
// canvas. The turtle starts at the canvas center, shifted by the offsets,
// facing +y. The context is checked between commands.
func Render(ctx context.Context, g *lsystem.Grammar, opts Options) (*Result, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	log := ctxlog.FromContext(ctx).With("grammar", g.Name(), "generations", opts.Generations)
	for _, r := range g.Ambiguous() {
		log.Warn("Rule has more than one symbol on its left side; only the first is matched.", "rule", r.String())
	}

	t, err := turtle.NewCanvas(opts.SizeX, opts.SizeY, opts.SizeZ)
	if err != nil {
		return nil, err
	}
	t.Step(float64(opts.SizeX) / 2)
	t.Left(math.Pi / 2)
	t.Step(float64(opts.SizeY) / 2)
	t.Step(opts.OffsetY)
	t.Right(math.Pi / 2)
	t.Step(opts.OffsetX)
	t.Left(math.Pi / 2)

	cmds := g.Commands(opts.Generations)
	log.Debug("Derived commands.", "commands", len(cmds))

	var ramp []vox.Rgba
	if opts.Rainbow {
		ramp = opts.Colors
		if len(ramp) == 0 {
			ramp = Rainbow(RainbowSize)
		}
	}
	cursor := 0
	for n, c := range cmds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if ramp != nil {
			if !c.Moves() && cursor < len(ramp)-1 {
				cursor++
			}
			t.SetColor(ramp[cursor])
		}
		if err := interpret(t, c, opts); err != nil {
			return nil, fmt.Errorf("command %d (%s): %w", n, c, err)
		}
	}

	res := &Result{
		Name:        g.Name(),
		Generations: opts.Generations,
		Canvas:      t.Canvas(),
		Commands:    len(cmds),
	}
	for _, v := range res.Canvas.All() {
		if !v.Empty() {
			res.Voxels++
		}
	}
	log.Info("Rendered.", "commands", res.Commands, "voxels", res.Voxels)
	return res, nil
}

func interpret(t *turtle.Turtle, c lsystem.Symbol, opts Options) error {
	switch c {
	case lsystem.Step:
		t.Step(opts.Step)
	case lsystem.Draw:
		return t.Draw(opts.Step)
	case lsystem.Left:
		t.Left(opts.Angle)
	case lsystem.Right:
		t.Right(opts.Angle)
	case lsystem.DrawLeft, lsystem.DrawRight:
		if err := t.Draw(opts.Step); err != nil {
			return err
		}
		if c == lsystem.DrawLeft {
			t.Left(opts.Angle)
		} else {
			t.Right(opts.Angle)
		}
		return t.Draw(opts.Step)
	}
	return nil
}
