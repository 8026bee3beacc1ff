package vox

import (
	"errors"
	"math"
	"testing"
)

func TestIndexCoordRoundtrip(t *testing.T) {
	b, err := New[Rgba](5, 3, 4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for z := uint32(0); z < 4; z++ {
		for y := uint32(0); y < 3; y++ {
			for x := uint32(0); x < 5; x++ {
				i, ok := b.Index(x, y, z)
				if !ok {
					t.Fatalf("Index(%d,%d,%d) reported out of bounds", x, y, z)
				}
				if want := int(x + y*5 + z*15); i != want {
					t.Fatalf("Index(%d,%d,%d)=%d want %d", x, y, z, i, want)
				}
				gx, gy, gz := b.Coord(i)
				if gx != x || gy != y || gz != z {
					t.Fatalf("Coord(%d)=(%d,%d,%d) want (%d,%d,%d)", i, gx, gy, gz, x, y, z)
				}
			}
		}
	}
	if _, ok := b.Index(5, 0, 0); ok {
		t.Fatalf("Index(5,0,0) should be out of bounds")
	}
}

func TestAllOrder(t *testing.T) {
	b, err := New[Index](3, 2, 2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i := 0; i < b.Len(); i++ {
		b.SetIndex(i, Index(i+1))
	}
	n := 0
	for p, v := range b.All() {
		if int(v) != n+1 {
			t.Fatalf("item %d has voxel %d", n, v)
		}
		i, _ := b.Index(p.X, p.Y, p.Z)
		if i != n {
			t.Fatalf("item %d at %+v maps to index %d", n, p, i)
		}
		n++
	}
	if n != 12 {
		t.Fatalf("All yielded %d items, want 12", n)
	}
	// restartable and stoppable
	seen := 0
	for range b.All() {
		seen++
		if seen == 4 {
			break
		}
	}
	if seen != 4 {
		t.Fatalf("early break yielded %d", seen)
	}
}

func TestGetSetWindow(t *testing.T) {
	b, err := New[Rgba](4, 4, 4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	red := Rgba{255, 0, 0, 255}
	b.Set(1, 2, 3, red)
	if got := b.Get(1, 2, 3); got != red {
		t.Fatalf("Get=%v want %v", got, red)
	}
	w := b.Window(1, 2, 3)
	w[1] = 255
	if got := b.Get(1, 2, 3); got != (Rgba{255, 255, 0, 255}) {
		t.Fatalf("write through window not visible: %v", got)
	}
	i, _ := b.Index(1, 2, 3)
	if got := b.GetIndex(i); got != (Rgba{255, 255, 0, 255}) {
		t.Fatalf("GetIndex=%v", got)
	}
	if got := b.Get(0, 0, 0); !got.Empty() {
		t.Fatalf("new buffer not zeroed: %v", got)
	}
}

func TestOutOfBoundsPanics(t *testing.T) {
	b, err := New[Rgba](2, 2, 2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cases := map[string]func(){
		"get x":     func() { b.Get(2, 0, 0) },
		"get z":     func() { b.Get(0, 0, 2) },
		"set y":     func() { b.Set(0, 2, 0, Rgba{}) },
		"get index": func() { b.GetIndex(8) },
		"set index": func() { b.SetIndex(-1, Rgba{}) },
		"coord":     func() { b.Coord(8) },
		"window":    func() { b.Window(9, 9, 9) },
	}
	for name, f := range cases {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Fatalf("expected panic")
				}
			}()
			f()
		})
	}
}

func TestNewOverflow(t *testing.T) {
	_, err := New[Rgba](math.MaxUint32, math.MaxUint32, math.MaxUint32)
	if !errors.Is(err, ErrOverflow) {
		t.Fatalf("err=%v want ErrOverflow", err)
	}
}

func TestNewBeyondAllocationLimit(t *testing.T) {
	// 2^48 voxels of 4 bytes fits in int but no process could hold it.
	_, err := New[Rgba](1<<16, 1<<16, 1<<16)
	if !errors.Is(err, ErrOverflow) {
		t.Fatalf("err=%v want ErrOverflow", err)
	}
}

func TestNewEmptyDimension(t *testing.T) {
	b, err := New[Rgba](0, 4, 4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if b.Len() != 0 {
		t.Fatalf("Len=%d want 0", b.Len())
	}
	for range b.All() {
		t.Fatalf("All yielded from an empty buffer")
	}
}
