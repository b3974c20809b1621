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
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// kdPoint is a point that remembers its degree of freedom.
type kdPoint struct {
	x   []float64
	dof int
}

func (p kdPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return p.x[d] - c.(kdPoint).x[d]
}

func (p kdPoint) Dims() int { return len(p.x) }

// Distance returns the squared Euclidean distance.
func (p kdPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(kdPoint)
	var s float64
	for i, v := range p.x {
		d := v - q.x[i]
		s += d * d
	}
	return s
}

type kdPoints []kdPoint

func (p kdPoints) Index(i int) kdtree.Comparable { return p[i] }
func (p kdPoints) Len() int                      { return len(p) }
func (p kdPoints) Slice(start, end int) kdtree.Interface {
	return p[start:end]
}
func (p kdPoints) Pivot(d kdtree.Dim) int {
	return kdPlane{points: p, dim: d}.pivot()
}

// kdPlane sorts points along one dimension.
type kdPlane struct {
	points kdPoints
	dim    kdtree.Dim
}

func (p kdPlane) Len() int { return len(p.points) }
func (p kdPlane) Less(i, j int) bool {
	return p.points[i].x[p.dim] < p.points[j].x[p.dim]
}
func (p kdPlane) Swap(i, j int) { p.points[i], p.points[j] = p.points[j], p.points[i] }
func (p kdPlane) Slice(start, end int) kdtree.SortSlicer {
	p.points = p.points[start:end]
	return p
}
func (p kdPlane) pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }

// pointIndex finds the nearest degrees of freedom to a query point.
type pointIndex struct {
	tree *kdtree.Tree
	n    int
}

// newPointIndex indexes points; point i has degree of freedom i.
// Points with NaN coordinates are skipped.
func newPointIndex(points [][]float64) *pointIndex {
	pts := make(kdPoints, 0, len(points))
	for i, x := range points {
		if hasNaN(x) {
			continue
		}
		pts = append(pts, kdPoint{x: x, dof: i})
	}
	idx := &pointIndex{n: len(pts)}
	if len(pts) > 0 {
		idx.tree = kdtree.New(pts, false)
	}
	return idx
}

// nearest returns the degree of freedom closest to x and the
// Euclidean distance to it, or -1 if the index is empty.
func (idx *pointIndex) nearest(x []float64) (int, float64) {
	if idx.tree == nil {
		return -1, math.Inf(1)
	}
	c, d := idx.tree.Nearest(kdPoint{x: x})
	return c.(kdPoint).dof, math.Sqrt(d)
}

type neighbor struct {
	dof  int
	dist float64
}

// nearestK returns up to k degrees of freedom closest to x,
// closest first.
func (idx *pointIndex) nearestK(x []float64, k int) []neighbor {
	if idx.tree == nil || k <= 0 {
		return nil
	}
	keep := kdtree.NewNKeeper(k)
	idx.tree.NearestSet(keep, kdPoint{x: x})
	o := make([]neighbor, 0, k)
	for _, c := range keep.Heap {
		if c.Comparable == nil {
			continue
		}
		o = append(o, neighbor{dof: c.Comparable.(kdPoint).dof, dist: math.Sqrt(c.Dist)})
	}
	sortNeighbors(o)
	return o
}

func sortNeighbors(n []neighbor) {
	sort.Slice(n, func(i, j int) bool {
		if n[i].dist == n[j].dist {
			return n[i].dof < n[j].dof
		}
		return n[i].dist < n[j].dist
	})
}

func hasNaN(x []float64) bool {
	for _, v := range x {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
