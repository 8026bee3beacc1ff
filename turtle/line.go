package turtle

import "iter"

// Line yields every lattice point of the segment from (x0, y0) to (x1, y1),
// both ends included, using integer Bresenham. Points come in order from
// the start to the end.
func Line(x0, y0, x1, y1 int) iter.Seq2[int, int] {
	return func(yield func(int, int) bool) {
		dx := abs(x1 - x0)
		dy := -abs(y1 - y0)
		sx, sy := 1, 1
		if x0 > x1 {
			sx = -1
		}
		if y0 > y1 {
			sy = -1
		}
		err := dx + dy
		x, y := x0, y0
		for {
			if !yield(x, y) {
				return
			}
			if x == x1 && y == y1 {
				return
			}
			e2 := 2 * err
			if e2 >= dy {
				err += dy
				x += sx
			}
			if e2 <= dx {
				err += dx
				y += sy
			}
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
