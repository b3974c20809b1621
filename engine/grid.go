/*
Copyright (C) 2012-2014 the InMAP authors.
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

package engine

import (
	"fmt"

	"github.com/spatialmodel/regrid/crs"
	"github.com/spatialmodel/regrid/mesh"
)

// StaggerLoc is a location within the cells of a structured grid.
// In 3D, Center is the cell volume center and Corner
// is the vertex.
type StaggerLoc int

const (
	// Center is the cell center.
	Center StaggerLoc = iota
	// Corner is the cell vertex.
	Corner
)

func (s StaggerLoc) String() string {
	if s == Corner {
		return "CORNER"
	}
	return "CENTER"
}

// staggerOf returns the stagger location holding data at loc.
func staggerOf(loc mesh.Location) StaggerLoc {
	if loc == mesh.Points {
		return Corner
	}
	return Center
}

// Grid is a logically rectangular grid with coordinates registered
// at the cell corners and the cell centers. After a coordinate
// transform the grid may be curvilinear.
type Grid struct {
	name string

	// dims holds the number of corners along each axis.
	dims []int

	// coords holds the coordinates at each stagger location,
	// per axis, with the first axis varying fastest.
	coords [2][][]float64
}

// buildGrid creates a Grid from g, transforming its coordinates with t
// if t is not nil.
func buildGrid(g *mesh.StructuredGrid, t *crs.Transformer) (*Grid, *Field, error) {
	if err := g.Validate(); err != nil {
		return nil, nil, &UnsupportedGridTypeError{Type: fmt.Sprintf("%T", g), Err: err}
	}
	o := &Grid{name: g.Name, dims: g.Dims()}
	corners, err := t.Transform(g.Points())
	if err != nil {
		return nil, nil, err
	}
	centers, err := t.Transform(g.CellCenters())
	if err != nil {
		return nil, nil, err
	}
	o.coords[Corner] = splitAxes(corners, g.Dim())
	o.coords[Center] = splitAxes(centers, g.Dim())
	return o, NewField(o, g.Name, g.DataLocation), nil
}

// splitAxes converts a list of points into one coordinate array per axis.
func splitAxes(points [][]float64, dim int) [][]float64 {
	o := make([][]float64, dim)
	for i := range o {
		o[i] = make([]float64, len(points))
		for j, p := range points {
			o[i][j] = p[i]
		}
	}
	return o
}

// Name returns the grid name.
func (g *Grid) Name() string { return g.name }

// Dim returns the number of grid axes.
func (g *Grid) Dim() int { return len(g.dims) }

// Destroy releases the grid coordinates.
func (g *Grid) Destroy() { g.coords = [2][][]float64{} }

// Destroyed reports whether Destroy has been called.
func (g *Grid) Destroyed() bool { return g.coords[Corner] == nil }

// MaxIndex returns the number of entries along each axis at s.
func (g *Grid) MaxIndex(s StaggerLoc) []int {
	d := append([]int(nil), g.dims...)
	if s == Center {
		for i := range d {
			d[i]--
		}
	}
	return d
}

// Coords returns a copy of the coordinates along axis at stagger
// location s, with the first grid index varying fastest. It returns
// nil after Destroy.
func (g *Grid) Coords(axis int, s StaggerLoc) []float64 {
	if g.Destroyed() || axis < 0 || axis >= len(g.dims) {
		return nil
	}
	return append([]float64(nil), g.coords[s][axis]...)
}

func (g *Grid) size(loc mesh.Location) int {
	n := 1
	for _, d := range g.MaxIndex(staggerOf(loc)) {
		n *= d
	}
	return n
}

func (g *Grid) fieldShape(loc mesh.Location) []int {
	d := g.MaxIndex(staggerOf(loc))
	for i, j := 0, len(d)-1; i < j; i, j = i+1, j-1 {
		d[i], d[j] = d[j], d[i]
	}
	return d
}

func (g *Grid) points(s StaggerLoc) [][]float64 {
	axes := g.coords[s]
	if len(axes) == 0 {
		return nil
	}
	o := make([][]float64, len(axes[0]))
	for j := range o {
		p := make([]float64, len(axes))
		for i := range axes {
			p[i] = axes[i][j]
		}
		o[j] = p
	}
	return o
}

func (g *Grid) dofPoints(loc mesh.Location) [][]float64 { return g.points(staggerOf(loc)) }

func (g *Grid) cellShape() shape {
	if len(g.dims) == 3 {
		return shapeHex
	}
	return shapeQuad
}

// interpCells returns the grid cells for corner data, and the cells of
// the dual grid formed by neighboring centers for center data.
func (g *Grid) interpCells(loc mesh.Location) ([]*cell, error) {
	s := staggerOf(loc)
	dims := g.MaxIndex(s)
	for _, d := range dims {
		if d < 2 {
			return nil, nil
		}
	}
	pts := g.points(s)
	idx := structuredCells(dims)
	o := make([]*cell, len(idx))
	for i, v := range idx {
		o[i] = newCell(g.cellShape(), v, gather(pts, v), -1)
	}
	return o, nil
}

func (g *Grid) areaCells(loc mesh.Location) ([]*cell, error) {
	if loc != mesh.Cells {
		return nil, errNotCellLocated
	}
	pts := g.points(Corner)
	idx := structuredCells(g.dims)
	o := make([]*cell, len(idx))
	for i, v := range idx {
		o[i] = newCell(g.cellShape(), v, gather(pts, v), i)
	}
	return o, nil
}
