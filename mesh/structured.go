/*
Copyright © 2019 the InMAP authors.
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

package mesh

import "fmt"

// StructuredGrid is a rectilinear grid described by one coordinate
// sequence per axis. Data may be located at the grid vertices or at
// the cell centers.
type StructuredGrid struct {
	Name string

	// Axes holds the vertex coordinates along each axis, in x, y(, z) order.
	Axes [][]float64

	DataLocation Location

	// Order is the memory layout of field data on this grid.
	Order Order

	// AxesReversed specifies that field data is indexed in
	// z, y, x order rather than x, y, z order.
	AxesReversed bool

	// Proj is the coordinate reference system identifier,
	// or "" if undefined.
	Proj string
}

// NewUniformGrid creates a grid with dims vertices along each axis.
// spacing and origin may be longer than dims; missing entries
// default to 1 and 0 respectively.
func NewUniformGrid(dims []int, spacing, origin []float64, loc Location) *StructuredGrid {
	axes := make([][]float64, len(dims))
	for i, n := range dims {
		d, o := 1.0, 0.0
		if i < len(spacing) {
			d = spacing[i]
		}
		if i < len(origin) {
			o = origin[i]
		}
		axes[i] = make([]float64, n)
		for j := range axes[i] {
			axes[i][j] = o + float64(j)*d
		}
	}
	return &StructuredGrid{Axes: axes, DataLocation: loc}
}

// NewRectilinearGrid creates a grid from explicit axis coordinates.
// The axes are copied.
func NewRectilinearGrid(axes [][]float64, loc Location) *StructuredGrid {
	g := &StructuredGrid{DataLocation: loc, Axes: make([][]float64, len(axes))}
	for i, a := range axes {
		g.Axes[i] = append([]float64(nil), a...)
	}
	return g
}

func (g *StructuredGrid) descriptor() {}

// Kind returns KindStructured.
func (g *StructuredGrid) Kind() Kind { return KindStructured }

// Dim returns the number of axes.
func (g *StructuredGrid) Dim() int { return len(g.Axes) }

// CRS returns the grid's coordinate reference system.
func (g *StructuredGrid) CRS() string { return g.Proj }

// Dims returns the number of vertices along each axis.
func (g *StructuredGrid) Dims() []int {
	d := make([]int, len(g.Axes))
	for i, a := range g.Axes {
		d[i] = len(a)
	}
	return d
}

// CellDims returns the number of cells along each axis.
func (g *StructuredGrid) CellDims() []int {
	d := g.Dims()
	for i := range d {
		d[i]--
	}
	return d
}

// CellAxes returns the cell center coordinates along each axis.
func (g *StructuredGrid) CellAxes() [][]float64 {
	o := make([][]float64, len(g.Axes))
	for i, a := range g.Axes {
		if len(a) < 2 {
			continue
		}
		o[i] = make([]float64, len(a)-1)
		for j := range o[i] {
			o[i][j] = (a[j] + a[j+1]) / 2
		}
	}
	return o
}

// locationDims returns the per-axis size of data at the
// grid's data location, in x, y(, z) order.
func (g *StructuredGrid) locationDims() []int {
	if g.DataLocation == Points {
		return g.Dims()
	}
	return g.CellDims()
}

// DataShape returns the shape of field data on this grid,
// taking AxesReversed into account.
func (g *StructuredGrid) DataShape() []int {
	d := g.locationDims()
	if g.AxesReversed {
		reverse(d)
	}
	return d
}

// DataSize returns the number of values in a field on this grid.
func (g *StructuredGrid) DataSize() int { return product(g.locationDims()) }

// PointCount is the number of grid vertices.
func (g *StructuredGrid) PointCount() int { return product(g.Dims()) }

// CellCount is the number of grid cells.
func (g *StructuredGrid) CellCount() int { return product(g.CellDims()) }

// Points returns the coordinates of all grid vertices, with the
// first axis varying fastest.
func (g *StructuredGrid) Points() [][]float64 { return genPoints(g.Axes) }

// CellCenters returns the coordinates of all cell centers, with the
// first axis varying fastest.
func (g *StructuredGrid) CellCenters() [][]float64 { return genPoints(g.CellAxes()) }

// Cells returns the vertex indices of each cell, indexed into Points.
// 2D cells are counter-clockwise quadrilaterals; 3D cells are
// hexahedra with the bottom face followed by the top face.
func (g *StructuredGrid) Cells() [][]int {
	dims := g.Dims()
	cd := g.CellDims()
	cells := make([][]int, 0, product(cd))
	nx := dims[0]
	switch len(dims) {
	case 2:
		for j := 0; j < cd[1]; j++ {
			for i := 0; i < cd[0]; i++ {
				p := i + j*nx
				cells = append(cells, []int{p, p + 1, p + 1 + nx, p + nx})
			}
		}
	case 3:
		nxy := dims[0] * dims[1]
		for k := 0; k < cd[2]; k++ {
			for j := 0; j < cd[1]; j++ {
				for i := 0; i < cd[0]; i++ {
					p := i + j*nx + k*nxy
					q := p + nxy
					cells = append(cells, []int{p, p + 1, p + 1 + nx, p + nx, q, q + 1, q + 1 + nx, q + nx})
				}
			}
		}
	}
	return cells
}

// Validate checks that the grid has 2 or 3 strictly monotonic axes
// with at least two vertices each.
func (g *StructuredGrid) Validate() error {
	if n := len(g.Axes); n < 2 || n > 3 {
		return fmt.Errorf("mesh: structured grid must have 2 or 3 axes; got %d", n)
	}
	for i, a := range g.Axes {
		if len(a) < 2 {
			return fmt.Errorf("mesh: axis %d has %d coordinates; need at least 2", i, len(a))
		}
		inc := a[1] > a[0]
		for j := 1; j < len(a); j++ {
			if (a[j] > a[j-1]) != inc || a[j] == a[j-1] {
				return fmt.Errorf("mesh: axis %d is not strictly monotonic at index %d", i, j)
			}
		}
	}
	if g.DataLocation != Cells && g.DataLocation != Points {
		return fmt.Errorf("mesh: invalid data location %v", g.DataLocation)
	}
	return nil
}

// genPoints returns the cartesian product of axes with the first
// axis varying fastest.
func genPoints(axes [][]float64) [][]float64 {
	dims := make([]int, len(axes))
	for i, a := range axes {
		dims[i] = len(a)
	}
	n := product(dims)
	o := make([][]float64, n)
	idx := make([]int, len(axes))
	for p := 0; p < n; p++ {
		pt := make([]float64, len(axes))
		for i := range axes {
			pt[i] = axes[i][idx[i]]
		}
		o[p] = pt
		increment(idx, dims)
	}
	return o
}

// increment advances idx to the next multi-index with
// the first index varying fastest.
func increment(idx, dims []int) {
	for i := range idx {
		idx[i]++
		if idx[i] < dims[i] {
			return
		}
		idx[i] = 0
	}
}

func product(d []int) int {
	n := 1
	for _, v := range d {
		n *= v
	}
	return n
}

func reverse(d []int) {
	for i, j := 0, len(d)-1; i < j; i, j = i+1, j-1 {
		d[i], d[j] = d[j], d[i]
	}
}
