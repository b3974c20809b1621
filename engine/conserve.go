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
	"fmt"
	"sort"

	"github.com/spatialmodel/regrid/mesh"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// minOverlap is the smallest fraction of a destination cell that
// counts as an overlap.
const minOverlap = 1e-12

// conserveWeights adds to b the weights of first or second order
// conservative remapping.
func conserveWeights(src, dst *Field, cfg Config, b *weightBuilder) error {
	unsupported := func(reason string) error {
		return &UnsupportedMethodError{Method: cfg.Method, Reason: reason}
	}
	if src.loc != mesh.Cells || dst.loc != mesh.Cells {
		return unsupported(errNotCellLocated.Error())
	}
	scells, err := src.obj.areaCells(src.loc)
	if err != nil {
		return unsupported(err.Error())
	}
	dcells, err := dst.obj.areaCells(dst.loc)
	if err != nil {
		return unsupported(err.Error())
	}
	if len(scells) == 0 || len(dcells) == 0 {
		return nil
	}
	if scells[0].is3D() || dcells[0].is3D() {
		for _, c := range append(append([]*cell(nil), scells...), dcells...) {
			if !isBox(c) {
				return unsupported("3-D conservative regridding requires axis-aligned box cells")
			}
		}
	}

	var grads map[int]*gradient
	if cfg.Method == Conserve2nd {
		grads = gradients(scells)
	}

	type part struct {
		src      *cell
		area     float64
		centroid []float64
	}
	idx := newCellIndex(scells)
	for _, dc := range dcells {
		dArea, _ := measure(dc)
		if dArea <= 0 {
			continue
		}
		var parts []part
		var covered float64
		for _, sc := range idx.search(dc.bounds) {
			a, c := overlap(sc, dc)
			if a <= dArea*minOverlap {
				continue
			}
			parts = append(parts, part{src: sc, area: a, centroid: c})
			covered += a
		}
		norm := dArea
		if cfg.NormType == NormFracArea {
			norm = covered
		}
		for _, p := range parts {
			f := p.area / norm
			g, ok := grads[p.src.dof]
			if !ok {
				b.add(dc.dof, p.src.dof, f)
				continue
			}
			h := g.coefficients(p.centroid)
			b.add(dc.dof, p.src.dof, f*(1-floats.Sum(h)))
			for k, n := range g.neighbors {
				b.add(dc.dof, n, f*h[k])
			}
		}
	}
	return nil
}

// gradient is a least-squares estimate of the gradient of the field in
// a source cell as a linear combination of differences to its
// neighbors.
type gradient struct {
	center    []float64
	neighbors []int

	// op maps neighbor differences to the gradient; it has one row
	// per dimension and one column per neighbor.
	op *mat.Dense
}

// coefficients returns, for each neighbor, the weight of its
// difference from the cell value in the reconstruction at x.
func (g *gradient) coefficients(x []float64) []float64 {
	dx := make([]float64, len(g.center))
	floats.SubTo(dx, x, g.center)
	var h mat.VecDense
	h.MulVec(g.op.T(), mat.NewVecDense(len(dx), dx))
	return h.RawVector().Data
}

// gradients estimates a gradient for each interior source cell. Cells
// with any facet not shared with another cell are on the domain
// boundary and get no gradient, which reduces them to first order.
func gradients(cells []*cell) map[int]*gradient {
	owners := make(map[string][]int)
	facets := make([][]string, len(cells))
	for i, c := range cells {
		facets[i] = cellFacets(c)
		for _, f := range facets[i] {
			owners[f] = append(owners[f], i)
		}
	}
	o := make(map[int]*gradient)
	for i, c := range cells {
		var nbrs []int
		interior := true
		for _, f := range facets[i] {
			if len(owners[f]) < 2 {
				interior = false
				break
			}
			for _, j := range owners[f] {
				if j != i {
					nbrs = append(nbrs, j)
				}
			}
		}
		if !interior {
			continue
		}
		_, center := measure(c)
		if center == nil {
			continue
		}
		dim := len(center)
		a := mat.NewDense(len(nbrs), dim, nil)
		neighbors := make([]int, len(nbrs))
		for r, j := range nbrs {
			_, cj := measure(cells[j])
			if cj == nil {
				interior = false
				break
			}
			for k := 0; k < dim; k++ {
				a.Set(r, k, cj[k]-center[k])
			}
			neighbors[r] = cells[j].dof
		}
		if !interior || len(nbrs) < dim {
			continue
		}
		var ata, inv mat.Dense
		ata.Mul(a.T(), a)
		if err := inv.Inverse(&ata); err != nil {
			continue
		}
		op := new(mat.Dense)
		op.Mul(&inv, a.T())
		o[c.dof] = &gradient{center: center, neighbors: neighbors, op: op}
	}
	return o
}

// cellFacets returns keys identifying the edges of a polygon or the
// faces of a hexahedron by their vertices.
func cellFacets(c *cell) []string {
	var faces [][]int
	v := c.verts
	switch c.shape {
	case shapeHex:
		faces = [][]int{
			{v[0], v[1], v[2], v[3]}, {v[4], v[5], v[6], v[7]},
			{v[0], v[1], v[5], v[4]}, {v[1], v[2], v[6], v[5]},
			{v[2], v[3], v[7], v[6]}, {v[3], v[0], v[4], v[7]},
		}
	case shapeTet:
		faces = [][]int{{v[0], v[1], v[2]}, {v[0], v[1], v[3]}, {v[1], v[2], v[3]}, {v[0], v[2], v[3]}}
	default:
		for i := range v {
			faces = append(faces, []int{v[i], v[(i+1)%len(v)]})
		}
	}
	o := make([]string, len(faces))
	for i, f := range faces {
		sort.Ints(f)
		o[i] = fmt.Sprint(f)
	}
	return o
}
