package render

import (
	"math"

	"github.com/voxelsplace/voxgen/vox"
)

// RainbowSize is the length of the ramp used when Options.Colors is empty.
const RainbowSize = 250

// rainbowStops are linear-light RGB control points, spaced evenly.
var rainbowStops = [...][3]float64{
	{1, 0, 0},
	{1, 1, 0},
	{0, 1, 0},
	{0, 1, 1},
	{0, 0, 1},
	{1, 0, 1},
	{1, 0, 0},
}

// Rainbow returns n opaque colors sampled evenly from red through yellow,
// green, cyan, blue and magenta back to red. Interpolation happens in
// linear light; the result is 8-bit sRGB. The first and last samples are
// the end stops.
func Rainbow(n int) []vox.Rgba {
	if n <= 0 {
		return nil
	}
	segments := float64(len(rainbowStops) - 1)
	out := make([]vox.Rgba, n)
	for i := range out {
		var t float64
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		pos := t * segments
		k := min(int(pos), len(rainbowStops)-2)
		f := pos - float64(k)
		a, b := rainbowStops[k], rainbowStops[k+1]
		var c vox.Rgba
		for ch := 0; ch < 3; ch++ {
			c[ch] = encodeSRGB(a[ch]*(1-f) + b[ch]*f)
		}
		c[3] = 255
		out[i] = c
	}
	return out
}

func encodeSRGB(l float64) uint8 {
	l = math.Max(0, math.Min(1, l))
	var s float64
	if l <= 0.0031308 {
		s = 12.92 * l
	} else {
		s = 1.055*math.Pow(l, 1/2.4) - 0.055
	}
	return uint8(math.Round(s * 255))
}
