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

package engine

import (
	"math"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
	"github.com/ctessum/geom/proj"
)

type shape int

const (
	shapeTri shape = iota
	shapeQuad
	shapePoly
	shapeTet
	shapeHex
)

// cell is a polygon or polyhedron used for weight computation.
type cell struct {
	shape shape

	// verts identifies the cell vertices. For interpolation cells
	// they are degrees of freedom; for area cells they are node
	// indices used to find neighbors.
	verts []int
	pts   [][]float64

	// dof is the degree of freedom of an area cell.
	dof int

	bounds     *geom.Bounds
	zmin, zmax float64
}

func newCell(s shape, verts []int, pts [][]float64, dof int) *cell {
	c := &cell{shape: s, verts: verts, pts: pts, dof: dof}
	if s == shapeTri || s == shapeQuad || s == shapePoly {
		if signedArea(pts) < 0 {
			reverseCell(c)
		}
	}
	c.bounds = &geom.Bounds{
		Min: geom.Point{X: math.Inf(1), Y: math.Inf(1)},
		Max: geom.Point{X: math.Inf(-1), Y: math.Inf(-1)},
	}
	c.zmin, c.zmax = math.Inf(1), math.Inf(-1)
	for _, p := range pts {
		c.bounds.Min.X = math.Min(c.bounds.Min.X, p[0])
		c.bounds.Min.Y = math.Min(c.bounds.Min.Y, p[1])
		c.bounds.Max.X = math.Max(c.bounds.Max.X, p[0])
		c.bounds.Max.Y = math.Max(c.bounds.Max.Y, p[1])
		if len(p) > 2 {
			c.zmin = math.Min(c.zmin, p[2])
			c.zmax = math.Max(c.zmax, p[2])
		}
	}
	return c
}

func reverseCell(c *cell) {
	for i, j := 0, len(c.pts)-1; i < j; i, j = i+1, j-1 {
		c.pts[i], c.pts[j] = c.pts[j], c.pts[i]
		c.verts[i], c.verts[j] = c.verts[j], c.verts[i]
	}
}

// is3D reports whether the cell is a polyhedron.
func (c *cell) is3D() bool { return c.shape == shapeTet || c.shape == shapeHex }

// The methods below let cells be stored in an R-tree index.

func (c *cell) Bounds() *geom.Bounds                          { return c.bounds }
func (c *cell) Similar(geom.Geom, float64) bool               { panic("not implemented") }
func (c *cell) Transform(proj.Transformer) (geom.Geom, error) { panic("not implemented") }
func (c *cell) Len() int                                      { return len(c.pts) }
func (c *cell) Points() func() geom.Point {
	i := 0
	return func() geom.Point {
		p := c.pts[i]
		i++
		return geom.Point{X: p[0], Y: p[1]}
	}
}

// cellIndex is a spatial index of cells.
type cellIndex struct {
	tree  *rtree.Rtree
	cells []*cell
	eps   float64
}

func newCellIndex(cells []*cell) *cellIndex {
	idx := &cellIndex{tree: rtree.NewTree(25, 50), cells: cells}
	b := &geom.Bounds{
		Min: geom.Point{X: math.Inf(1), Y: math.Inf(1)},
		Max: geom.Point{X: math.Inf(-1), Y: math.Inf(-1)},
	}
	for _, c := range cells {
		idx.tree.Insert(c)
		b.Min.X = math.Min(b.Min.X, c.bounds.Min.X)
		b.Min.Y = math.Min(b.Min.Y, c.bounds.Min.Y)
		b.Max.X = math.Max(b.Max.X, c.bounds.Max.X)
		b.Max.Y = math.Max(b.Max.Y, c.bounds.Max.Y)
	}
	scale := math.Max(b.Max.X-b.Min.X, b.Max.Y-b.Min.Y)
	if scale == 0 || math.IsInf(scale, 0) || math.IsNaN(scale) {
		scale = 1
	}
	idx.eps = scale * 1e-9
	return idx
}

// search returns the cells whose bounds intersect b expanded by
// a small tolerance, so that cells touching b are included.
func (idx *cellIndex) search(b *geom.Bounds) []*cell {
	q := &geom.Bounds{
		Min: geom.Point{X: b.Min.X - idx.eps, Y: b.Min.Y - idx.eps},
		Max: geom.Point{X: b.Max.X + idx.eps, Y: b.Max.Y + idx.eps},
	}
	found := idx.tree.SearchIntersect(q)
	o := make([]*cell, len(found))
	for i, f := range found {
		o[i] = f.(*cell)
	}
	return o
}

// searchPoint returns the cells whose bounds contain x.
func (idx *cellIndex) searchPoint(x []float64) []*cell {
	return idx.search(&geom.Bounds{
		Min: geom.Point{X: x[0], Y: x[1]},
		Max: geom.Point{X: x[0], Y: x[1]},
	})
}

// signedArea returns the shoelace area of the polygon pts,
// positive for counter-clockwise rings.
func signedArea(pts [][]float64) float64 {
	var a float64
	n := len(pts)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		a += pts[i][0]*pts[j][1] - pts[j][0]*pts[i][1]
	}
	return a / 2
}

// polygonCentroid returns the area centroid of a counter-clockwise
// ring with nonzero area.
func polygonCentroid(pts [][]float64) []float64 {
	var cx, cy, a float64
	n := len(pts)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		cr := pts[i][0]*pts[j][1] - pts[j][0]*pts[i][1]
		a += cr
		cx += (pts[i][0] + pts[j][0]) * cr
		cy += (pts[i][1] + pts[j][1]) * cr
	}
	return []float64{cx / (3 * a), cy / (3 * a)}
}

// convex reports whether the counter-clockwise ring pts is convex.
func convex(pts [][]float64) bool {
	n := len(pts)
	for i := 0; i < n; i++ {
		a, b, c := pts[i], pts[(i+1)%n], pts[(i+2)%n]
		if cross(a, b, c) < 0 {
			return false
		}
	}
	return true
}

// cross returns the z component of (b-a)×(c-a).
func cross(a, b, c []float64) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

// structuredCells returns the vertex indices of the cells of a
// structured arrangement of points with the given dimensions, first
// index fastest. Cells are quadrilaterals or hexahedra.
func structuredCells(dims []int) [][]int {
	var cells [][]int
	nx := dims[0]
	switch len(dims) {
	case 2:
		for j := 0; j < dims[1]-1; j++ {
			for i := 0; i < nx-1; i++ {
				p := i + j*nx
				cells = append(cells, []int{p, p + 1, p + 1 + nx, p + nx})
			}
		}
	case 3:
		nxy := dims[0] * dims[1]
		for k := 0; k < dims[2]-1; k++ {
			for j := 0; j < dims[1]-1; j++ {
				for i := 0; i < nx-1; i++ {
					p := i + j*nx + k*nxy
					q := p + nxy
					cells = append(cells, []int{p, p + 1, p + 1 + nx, p + nx, q, q + 1, q + 1 + nx, q + nx})
				}
			}
		}
	}
	return cells
}

func gather(points [][]float64, idx []int) [][]float64 {
	o := make([][]float64, len(idx))
	for i, j := range idx {
		o[i] = points[j]
	}
	return o
}
