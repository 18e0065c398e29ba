// Package chart renders genome benchmark measurements as PNG figures: real
// execution time and peak memory per genome on log-scale bar charts, and the
// scaling of the three mapper operations against genome size on a log-log
// line chart.
package chart

import (
	"context"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/kmerbench/kmerbench/dataset"
)

// Output file names, written inside Options.Dir.
const (
	ExecutionTimeFile = "temps_execution_log.png"
	PeakMemoryFile    = "memoire_execution_log.png"
	ScalingFile       = "comparaison_temps_loglog.png"
)

// Options control where and how large the figures are rendered.
type Options struct {
	Dir    string
	DPI    int
	Width  vg.Length
	Height vg.Length
}

// DefaultOptions renders 10x6 inch figures at 300 DPI into the working
// directory.
func DefaultOptions() Options {
	return Options{
		Dir:    ".",
		DPI:    300,
		Width:  10 * vg.Inch,
		Height: 6 * vg.Inch,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Dir == "" {
		o.Dir = def.Dir
	}
	if o.DPI <= 0 {
		o.DPI = def.DPI
	}
	if o.Width <= 0 {
		o.Width = def.Width
	}
	if o.Height <= 0 {
		o.Height = def.Height
	}

	return o
}

var gridColor = color.NRGBA{R: 0xb0, G: 0xb0, B: 0xb0, A: 0xb3}

func dashedGrid(vertical bool) *plotter.Grid {
	g := plotter.NewGrid()
	g.Horizontal.Color = gridColor
	g.Horizontal.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

	if vertical {
		g.Vertical.Color = gridColor
		g.Vertical.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	} else {
		g.Vertical.Color = nil
	}

	return g
}

func newPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()

	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = xLabel
	p.X.Label.TextStyle.Font.Size = vg.Points(12)
	p.Y.Label.Text = yLabel
	p.Y.Label.TextStyle.Font.Size = vg.Points(12)

	return p
}

func logY(p *plot.Plot) {
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
}

// barPlot builds a log-scale bar chart with one colored bar per label.
func barPlot(title, xLabel, yLabel string, labels []string, values []float64) *plot.Plot {
	p := newPlot(title, xLabel, yLabel)

	bars := newLogBars(values, barColors(len(values)), vg.Points(40))
	p.Add(dashedGrid(false), bars)
	logY(p)

	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = text.XRight
	p.X.Tick.Label.YAlign = text.YCenter
	p.NominalX(labels...)

	return p
}

// ExecutionTime builds the real execution time chart.
func ExecutionTime(ds dataset.Dataset) (*plot.Plot, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}

	return barPlot(
		"Temps réel d'exécution par génome",
		"Génome",
		"Temps réel (secondes)",
		ds.Labels(), ds.RealTimes(),
	), nil
}

// PeakMemory builds the peak memory chart.
func PeakMemory(ds dataset.Dataset) (*plot.Plot, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}

	return barPlot(
		"Mémoire maximale utilisée par génome",
		"Génome",
		"Mémoire pic (Mo)",
		ds.Labels(), ds.PeakMemory(),
	), nil
}

type series struct {
	name  string
	shape draw.GlyphDrawer
	xys   plotter.XYs
}

func scalingSeries(ds dataset.Dataset) []series {
	sizes := ds.Sizes()
	xys := func(ys []float64) plotter.XYs {
		out := make(plotter.XYs, len(ys))
		for i := range ys {
			out[i].X = sizes[i]
			out[i].Y = ys[i]
		}

		return out
	}

	return []series{
		{"MapReads", draw.CircleGlyph{}, xys(ds.MapReads())},
		{"IndexGenome", draw.BoxGlyph{}, xys(ds.IndexGenome())},
		{"SearchKmer", draw.TriangleGlyph{}, xys(ds.SearchKmer())},
	}
}

// Scaling builds the log-log chart of operation time against genome size.
func Scaling(ds dataset.Dataset) (*plot.Plot, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}

	p := newPlot(
		"Comparaison des temps d'exécution en fonction de la taille du génome",
		"Taille du génome (bp)",
		"Temps (secondes)",
	)

	p.Add(dashedGrid(true))

	for i, s := range scalingSeries(ds) {
		line, points, err := plotter.NewLinePoints(s.xys)
		if err != nil {
			return nil, fmt.Errorf("%s series: %w", s.name, err)
		}

		c := plotutil.Color(i)
		line.LineStyle.Color = c
		line.LineStyle.Width = vg.Points(1.5)
		points.GlyphStyle.Color = c
		points.GlyphStyle.Shape = s.shape
		points.GlyphStyle.Radius = vg.Points(3)

		p.Add(line, points)
		p.Legend.Add(s.name, line, points)
	}

	p.X.Scale = plot.LogScale{}
	p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	logY(p)

	p.Legend.Top = true
	p.Legend.Left = true
	p.Legend.XOffs = vg.Points(10)
	p.Legend.YOffs = -vg.Points(10)

	return p, nil
}

// Save draws p as a PNG at path.
func Save(p *plot.Plot, path string, opts Options) error {
	opts = opts.withDefaults()

	c := vgimg.NewWith(
		vgimg.UseWH(opts.Width, opts.Height),
		vgimg.UseDPI(opts.DPI),
	)
	p.Draw(draw.New(c))

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(f); err != nil {
		f.Close()

		return fmt.Errorf("write %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}

	return nil
}

// Render draws the three figures for ds into opts.Dir and returns the
// written paths in the order execution time, peak memory, scaling.
func Render(ctx context.Context, ds dataset.Dataset, opts Options) ([]string, error) {
	opts = opts.withDefaults()

	if err := ds.Validate(); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	figures := []struct {
		file  string
		build func(dataset.Dataset) (*plot.Plot, error)
	}{
		{ExecutionTimeFile, ExecutionTime},
		{PeakMemoryFile, PeakMemory},
		{ScalingFile, Scaling},
	}

	paths := make([]string, len(figures))
	g, ctx := errgroup.WithContext(ctx)

	for i, fig := range figures {
		fig := fig
		path := filepath.Join(opts.Dir, fig.file)
		paths[i] = path

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			p, err := fig.build(ds)
			if err != nil {
				return fmt.Errorf("%s: %w", fig.file, err)
			}

			return Save(p, path, opts)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return paths, nil
}
