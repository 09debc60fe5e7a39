// Package chart renders report figures with gonum/plot. The image format
// follows the file extension of the output path (png, svg, pdf, ...).
package chart

import (
	"image/color"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/espsel/ipr"
	"github.com/YuminosukeSato/espsel/pkg/errors"
)

// Size is the side of the square figures.
var Size = 5 * vg.Inch

// OperatingPoint marks the selected production on an IPR figure.
type OperatingPoint struct {
	Pressure   float64
	Production float64
}

// RenderIPR draws production against flowing pressure and saves the figure
// to path. op, when non-nil, is drawn as a marker.
func RenderIPR(points []ipr.Point, path string, op *OperatingPoint) error {
	if len(points) < 2 {
		return errors.NewValueError("chart.RenderIPR", "at least 2 points are required")
	}
	p := plot.New()
	p.Title.Text = "Inflow performance"
	p.X.Label.Text = "Production"
	p.Y.Label.Text = "Flowing pressure"
	p.Add(plotter.NewGrid())

	xys := make(plotter.XYs, len(points))
	for i, pt := range points {
		xys[i] = plotter.XY{X: pt.Production, Y: pt.Pressure}
	}
	l, err := plotter.NewLine(xys)
	if err != nil {
		return errors.Wrap(err, "chart: ipr line")
	}
	l.LineStyle.Width = vg.Points(2)
	p.Add(l)
	p.Legend.Add("IPR", l)

	if op != nil {
		s, err := plotter.NewScatter(plotter.XYs{{X: op.Production, Y: op.Pressure}})
		if err != nil {
			return errors.Wrap(err, "chart: operating point")
		}
		s.Color = color.RGBA{R: 200, A: 255}
		s.Radius = vg.Points(4)
		p.Add(s)
		p.Legend.Add("operating point", s)
	}

	if err := p.Save(Size, Size, path); err != nil {
		return errors.Wrapf(err, "chart: save %s", path)
	}
	return nil
}

// RenderLoss draws every loss history series against the epoch and saves
// the figure to path.
func RenderLoss(history map[string][]float64, path string) error {
	names := make([]string, 0, len(history))
	for name, series := range history {
		if len(series) > 0 {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return errors.NewValueError("chart.RenderLoss", "history is empty")
	}
	sort.Strings(names)

	p := plot.New()
	p.Title.Text = "Training loss"
	p.X.Label.Text = "Epoch"
	p.Y.Label.Text = "MAPE"
	p.Add(plotter.NewGrid())

	for i, name := range names {
		series := history[name]
		xys := make(plotter.XYs, len(series))
		for e, v := range series {
			xys[e] = plotter.XY{X: float64(e + 1), Y: v}
		}
		l, err := plotter.NewLine(xys)
		if err != nil {
			return errors.Wrapf(err, "chart: %s line", name)
		}
		l.Color = seriesColor(i)
		p.Add(l)
		p.Legend.Add(name, l)
	}

	if err := p.Save(Size, Size, path); err != nil {
		return errors.Wrapf(err, "chart: save %s", path)
	}
	return nil
}

var palette = []color.Color{
	color.RGBA{B: 200, A: 255},
	color.RGBA{R: 220, G: 120, A: 255},
	color.RGBA{G: 150, A: 255},
	color.RGBA{R: 150, B: 150, A: 255},
}

func seriesColor(i int) color.Color { return palette[i%len(palette)] }
