/*
Copyright © 2020 the InMAP authors.
This file is part of InMAP.

InMAP is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

InMAP is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with InMAP.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package plot draws regridded fields as maps.
package plot

import (
	"fmt"
	"image/color"
	"math"

	"github.com/ctessum/geom"
	"github.com/spatialmodel/regrid/engine"
	gplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// XYs implements the gonum.org/v1/plot/plotter.XYer interface.
type XYs []XY

// XY is an x and y value.
type XY struct{ X, Y float64 }

// Len returns the number of X,Y pairs.
func (xys XYs) Len() int {
	return len(xys)
}

// XY return the x and y values at index i, where i < Len()
func (xys XYs) XY(i int) (float64, float64) {
	return xys[i].X, xys[i].Y
}

// pointRadius is the glyph size of point-located values.
var pointRadius = vg.Points(2)

// Field returns a plot of the values of f: cells are filled and
// points are drawn as dots, coloured on a blue-red scale spanning
// the range of the values. NaN values are not drawn.
func Field(f *engine.Field, title string) (*gplot.Plot, error) {
	shapes, err := engine.Shapes(f)
	if err != nil {
		return nil, err
	}
	cm, err := colorMap(f.Data())
	if err != nil {
		return nil, err
	}
	p := gplot.New()
	p.Title.Text = title
	for i, v := range f.Data() {
		if math.IsNaN(v) {
			continue
		}
		c, err := cm.At(v)
		if err != nil {
			return nil, fmt.Errorf("plot: value %d: %w", i, err)
		}
		switch s := shapes[i].(type) {
		case geom.Polygon:
			rings := make([]plotter.XYer, len(s))
			for j, path := range s {
				rings[j] = pathXYs(path)
			}
			poly, err := plotter.NewPolygon(rings...)
			if err != nil {
				return nil, fmt.Errorf("plot: cell %d: %w", i, err)
			}
			poly.Color = c
			poly.LineStyle.Width = 0
			p.Add(poly)
		case geom.Point:
			sc, err := plotter.NewScatter(XYs{{X: s.X, Y: s.Y}})
			if err != nil {
				return nil, fmt.Errorf("plot: point %d: %w", i, err)
			}
			sc.GlyphStyle.Color = c
			sc.GlyphStyle.Radius = pointRadius
			p.Add(sc)
		default:
			return nil, fmt.Errorf("plot: unsupported shape %T", s)
		}
	}
	return p, nil
}

// AddLines draws lines, for example mesh edges, on top of p.
func AddLines(p *gplot.Plot, lines []XYs) error {
	for _, l := range lines {
		if len(l) < 2 {
			continue
		}
		pl, err := plotter.NewLine(l)
		if err != nil {
			return fmt.Errorf("plot: %w", err)
		}
		pl.Color = color.Gray{Y: 64}
		pl.Width = vg.Points(0.5)
		p.Add(pl)
	}
	return nil
}

// Save writes p to path; the format follows the file extension.
func Save(p *gplot.Plot, path string) error {
	if err := p.Save(6*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("plot: saving %s: %w", path, err)
	}
	return nil
}

func pathXYs(path geom.Path) XYs {
	o := make(XYs, len(path))
	for i, pt := range path {
		o[i] = XY{X: pt.X, Y: pt.Y}
	}
	return o
}

// colorMap returns a color map spanning the finite values in v.
func colorMap(v []float64) (palette.ColorMap, error) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, x := range v {
		if math.IsNaN(x) {
			continue
		}
		lo, hi = math.Min(lo, x), math.Max(hi, x)
	}
	if math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		if lo > hi {
			// Nothing to draw.
			lo, hi = 0, 1
		} else {
			return nil, fmt.Errorf("plot: values must be finite")
		}
	}
	if hi == lo {
		hi = lo + 1
	}
	cm := moreland.SmoothBlueRed()
	cm.SetMax(hi)
	cm.SetMin(lo)
	return cm, nil
}
