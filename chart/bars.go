package chart

import (
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// logBars draws one bar per value at x = 0..n-1. Bars rise from floor
// rather than zero so they can sit on a logarithmic Y axis.
type logBars struct {
	values []float64
	colors []color.Color
	width  vg.Length
	floor  float64
}

func newLogBars(values []float64, colors []color.Color, width vg.Length) *logBars {
	return &logBars{
		values: values,
		colors: colors,
		width:  width,
		floor:  logFloor(values),
	}
}

// Plot implements plot.Plotter.
func (b *logBars) Plot(c draw.Canvas, p *plot.Plot) {
	trX, trY := p.Transforms(&c)
	bottom := trY(b.floor)

	for i, v := range b.values {
		x := trX(float64(i))
		if !c.ContainsX(x) {
			continue
		}

		left, right := x-b.width/2, x+b.width/2
		top := trY(v)

		pts := []vg.Point{
			{X: left, Y: bottom},
			{X: left, Y: top},
			{X: right, Y: top},
			{X: right, Y: bottom},
		}

		c.FillPolygon(b.colors[i%len(b.colors)], c.ClipPolygonY(pts))
	}
}

// DataRange implements plot.DataRanger.
func (b *logBars) DataRange() (xmin, xmax, ymin, ymax float64) {
	top := b.floor
	for _, v := range b.values {
		top = math.Max(top, v)
	}

	return -0.5, float64(len(b.values)) - 0.5, b.floor, top * 1.5
}

// GlyphBoxes implements plot.GlyphBoxer so bars at the edges are not
// clipped by the axes.
func (b *logBars) GlyphBoxes(p *plot.Plot) []plot.GlyphBox {
	boxes := make([]plot.GlyphBox, len(b.values))
	for i := range b.values {
		boxes[i].X = p.X.Norm(float64(i))
		boxes[i].Rectangle = vg.Rectangle{
			Min: vg.Point{X: -b.width / 2},
			Max: vg.Point{X: b.width / 2},
		}
	}

	return boxes
}

// logFloor returns the largest power of ten not above the smallest value.
func logFloor(values []float64) float64 {
	lo := math.Inf(1)
	for _, v := range values {
		if v > 0 {
			lo = math.Min(lo, v)
		}
	}

	if math.IsInf(lo, 1) {
		return 1
	}

	return math.Pow(10, math.Floor(math.Log10(lo)))
}
