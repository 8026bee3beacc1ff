package turtle

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/voxelsplace/voxgen/vox"
)

type pt struct{ X, Y int }

func collect(x0, y0, x1, y1 int) []pt {
	var out []pt
	for x, y := range Line(x0, y0, x1, y1) {
		out = append(out, pt{x, y})
	}
	return out
}

func TestLineShallow(t *testing.T) {
	want := []pt{{0, 0}, {1, 0}, {2, 1}, {3, 1}}
	if diff := cmp.Diff(want, collect(0, 0, 3, 1)); diff != "" {
		t.Fatalf("line (-want +got):\n%s", diff)
	}
}

func TestLineOctants(t *testing.T) {
	ends := []pt{{5, 2}, {2, 5}, {-2, 5}, {-5, 2}, {-5, -2}, {-2, -5}, {2, -5}, {5, -2}, {4, 4}, {0, 3}, {-3, 0}}
	for _, e := range ends {
		pts := collect(0, 0, e.X, e.Y)
		if pts[0] != (pt{}) || pts[len(pts)-1] != e {
			t.Fatalf("to %v: endpoints %v %v", e, pts[0], pts[len(pts)-1])
		}
		if n := max(abs(e.X), abs(e.Y)) + 1; len(pts) != n {
			t.Fatalf("to %v: %d points want %d", e, len(pts), n)
		}
		for i := 1; i < len(pts); i++ {
			if abs(pts[i].X-pts[i-1].X) > 1 || abs(pts[i].Y-pts[i-1].Y) > 1 {
				t.Fatalf("to %v: gap between %v and %v", e, pts[i-1], pts[i])
			}
		}
	}
}

func TestLineSinglePoint(t *testing.T) {
	if got := collect(2, 7, 2, 7); len(got) != 1 || got[0] != (pt{2, 7}) {
		t.Fatalf("got %v", got)
	}
	n := 0
	for range Line(0, 0, 10, 0) {
		n++
		if n == 3 {
			break
		}
	}
	if n != 3 {
		t.Fatalf("early stop yielded %d", n)
	}
}

func TestStepLeftDraw(t *testing.T) {
	tt, err := NewCanvas(3, 3, 3)
	if err != nil {
		t.Fatalf("NewCanvas: %v", err)
	}
	tt.Step(1)
	tt.Left(math.Pi / 2)
	if err := tt.Draw(2); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	black := vox.Rgba{0, 0, 0, 255}
	c := tt.Canvas()
	for p, v := range c.All() {
		marked := p.X == 1 && p.Z == 0
		if marked && v != black {
			t.Fatalf("%+v not drawn: %v", p, v)
		}
		if !marked && !v.Empty() {
			t.Fatalf("%+v drawn: %v", p, v)
		}
	}
	if s := tt.State(); s.X != 1 || s.Y != 2 {
		t.Fatalf("state %+v", s)
	}
}

func TestStepTruncates(t *testing.T) {
	tt, err := NewCanvas(1, 1, 1)
	if err != nil {
		t.Fatalf("NewCanvas: %v", err)
	}
	tt.Left(math.Pi / 4)
	tt.Step(2) // 1.414 on both axes
	if s := tt.State(); s.X != 1 || s.Y != 1 {
		t.Fatalf("state %+v", s)
	}
	tt.Right(math.Pi)
	tt.Step(2)
	if s := tt.State(); s.X != 0 || s.Y != 0 {
		t.Fatalf("state %+v", s)
	}
}

func TestDrawColorAndGradient(t *testing.T) {
	tt, err := NewCanvas(8, 2, 1)
	if err != nil {
		t.Fatalf("NewCanvas: %v", err)
	}
	red := vox.Rgba{255, 0, 0, 255}
	if err := tt.DrawColor(3, red); err != nil {
		t.Fatalf("DrawColor: %v", err)
	}
	grad := []vox.Rgba{{1, 0, 0, 255}, {2, 0, 0, 255}, {3, 0, 0, 255}, {4, 0, 0, 255}, {5, 0, 0, 255}}
	if err := tt.DrawGradient(4, grad); err != nil {
		t.Fatalf("DrawGradient: %v", err)
	}
	c := tt.Canvas()
	for x := uint32(0); x < 3; x++ {
		if c.Get(x, 0, 0) != red {
			t.Fatalf("x=%d: %v", x, c.Get(x, 0, 0))
		}
	}
	for x := uint32(3); x <= 7; x++ {
		if got, want := c.Get(x, 0, 0), grad[x-3]; got != want {
			t.Fatalf("x=%d: %v want %v", x, got, want)
		}
	}
}

func TestDrawGradientTooShort(t *testing.T) {
	tt, err := NewCanvas(8, 1, 1)
	if err != nil {
		t.Fatalf("NewCanvas: %v", err)
	}
	err = tt.DrawGradient(4, make([]vox.Rgba, 4))
	if !errors.Is(err, ErrGradientTooShort) {
		t.Fatalf("err=%v", err)
	}
	for _, v := range tt.Canvas().All() {
		if !v.Empty() {
			t.Fatalf("voxel written before the length check")
		}
	}
	if tt.State().X != 4 {
		t.Fatalf("turtle should have moved: %+v", tt.State())
	}
}

func TestDrawOffCanvas(t *testing.T) {
	tt, err := NewCanvas(4, 4, 1)
	if err != nil {
		t.Fatalf("NewCanvas: %v", err)
	}
	tt.Step(2)
	if err := tt.Draw(5); !errors.Is(err, ErrOffCanvas) {
		t.Fatalf("err=%v", err)
	}
	for _, v := range tt.Canvas().All() {
		if !v.Empty() {
			t.Fatalf("partial line written")
		}
	}
	tt2, _ := NewCanvas(4, 4, 1)
	tt2.Right(math.Pi / 2)
	if err := tt2.Draw(1); !errors.Is(err, ErrOffCanvas) {
		t.Fatalf("negative coordinate: err=%v", err)
	}
}

func TestSetColor(t *testing.T) {
	tt, err := NewCanvas(2, 1, 1)
	if err != nil {
		t.Fatalf("NewCanvas: %v", err)
	}
	if tt.State().Color != (vox.Rgba{0, 0, 0, 255}) {
		t.Fatalf("default color %v", tt.State().Color)
	}
	blue := vox.Rgba{0, 0, 255, 255}
	tt.SetColor(blue)
	if err := tt.Draw(1); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if tt.Canvas().Get(1, 0, 0) != blue {
		t.Fatalf("color not used")
	}
}
