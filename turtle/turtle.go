package turtle

import (
	"errors"
	"fmt"
	"math"

	"github.com/voxelsplace/voxgen/vox"
)

var (
	ErrOffCanvas        = errors.New("turtle: line leaves the canvas")
	ErrGradientTooShort = errors.New("turtle: fewer gradient colors than line points")
)

// State is the pen position, heading in radians and drawing color.
// Heading 0 faces +x; positive turns are counter-clockwise.
type State struct {
	X, Y    int
	Heading float64
	Color   vox.Rgba
}

// Turtle draws on the z = 0 plane of a canvas. It starts at the origin
// facing east with opaque black.
type Turtle struct {
	canvas *vox.Buffer[vox.Rgba]
	state  State
}

func New(canvas *vox.Buffer[vox.Rgba]) *Turtle {
	return &Turtle{
		canvas: canvas,
		state:  State{Color: vox.Rgba{0, 0, 0, 255}},
	}
}

// NewCanvas allocates a canvas and a turtle on it.
func NewCanvas(width, depth, height uint32) (*Turtle, error) {
	b, err := vox.New[vox.Rgba](width, depth, height)
	if err != nil {
		return nil, err
	}
	return New(b), nil
}

func (t *Turtle) State() State                  { return t.state }
func (t *Turtle) Canvas() *vox.Buffer[vox.Rgba] { return t.canvas }
func (t *Turtle) SetColor(c vox.Rgba)           { t.state.Color = c }

// Left turns counter-clockwise by angle radians.
func (t *Turtle) Left(angle float64) { t.state.Heading += angle }

// Right turns clockwise by angle radians.
func (t *Turtle) Right(angle float64) { t.state.Heading -= angle }

// Step moves the turtle without drawing. Each axis delta is truncated
// toward zero.
func (t *Turtle) Step(distance float64) {
	t.state.X += int(distance * math.Cos(t.state.Heading))
	t.state.Y += int(distance * math.Sin(t.state.Heading))
}

// Draw moves like Step and paints the path with the current color.
func (t *Turtle) Draw(distance float64) error {
	return t.DrawColor(distance, t.state.Color)
}

// DrawColor moves like Step and paints the path with c.
func (t *Turtle) DrawColor(distance float64, c vox.Rgba) error {
	pts, err := t.move(distance)
	if err != nil {
		return err
	}
	for _, i := range pts {
		t.canvas.SetIndex(i, c)
	}
	return nil
}

// DrawGradient moves like Step and paints the i-th point of the path with
// colors[i].
func (t *Turtle) DrawGradient(distance float64, colors []vox.Rgba) error {
	pts, err := t.move(distance)
	if err != nil {
		return err
	}
	if len(colors) < len(pts) {
		return fmt.Errorf("%w: %d colors for %d points", ErrGradientTooShort, len(colors), len(pts))
	}
	for n, i := range pts {
		t.canvas.SetIndex(i, colors[n])
	}
	return nil
}

// move steps the turtle and returns the buffer indices of the path. The
// turtle moves even when the path is rejected.
func (t *Turtle) move(distance float64) ([]int, error) {
	x0, y0 := t.state.X, t.state.Y
	t.Step(distance)
	x1, y1 := t.state.X, t.state.Y

	var pts []int
	for x, y := range Line(x0, y0, x1, y1) {
		if x < 0 || y < 0 || int64(x) > math.MaxUint32 || int64(y) > math.MaxUint32 {
			return nil, fmt.Errorf("%w: (%d, %d)", ErrOffCanvas, x, y)
		}
		i, ok := t.canvas.Index(uint32(x), uint32(y), 0)
		if !ok {
			return nil, fmt.Errorf("%w: (%d, %d) on %dx%d", ErrOffCanvas, x, y, t.canvas.Width(), t.canvas.Depth())
		}
		pts = append(pts, i)
	}
	return pts, nil
}
