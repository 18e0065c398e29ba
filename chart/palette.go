package chart

import (
	"image/color"
	"math"
)

// viridisStops samples the viridis colormap at 0, 0.25, 0.5, 0.75 and 1.
var viridisStops = [...]color.RGBA{
	{0x44, 0x01, 0x54, 0xff},
	{0x3b, 0x52, 0x8b, 0xff},
	{0x21, 0x91, 0x8c, 0xff},
	{0x5e, 0xc9, 0x62, 0xff},
	{0xfd, 0xe7, 0x25, 0xff},
}

// viridis returns the colormap value at t in [0, 1], linearly interpolated
// between stops.
func viridis(t float64) color.RGBA {
	t = math.Min(1, math.Max(0, t))

	pos := t * float64(len(viridisStops)-1)
	i := int(pos)
	if i >= len(viridisStops)-1 {
		return viridisStops[len(viridisStops)-1]
	}

	f := pos - float64(i)
	a, b := viridisStops[i], viridisStops[i+1]
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + f*(float64(y)-float64(x))))
	}

	return color.RGBA{mix(a.R, b.R), mix(a.G, b.G), mix(a.B, b.B), 0xff}
}

// barColors spreads n colors evenly over [0.1, 0.85] of viridis. For six
// bars that is 0.1, 0.25, 0.4, 0.55, 0.7 and 0.85.
func barColors(n int) []color.Color {
	const lo, hi = 0.1, 0.85

	out := make([]color.Color, n)
	for i := range out {
		t := lo
		if n > 1 {
			t = lo + (hi-lo)*float64(i)/float64(n-1)
		}
		out[i] = viridis(t)
	}

	return out
}
