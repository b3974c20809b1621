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

	"gonum.org/v1/gonum/mat"
)

// insideTol is the tolerance, in local cell coordinates, within which
// a point on the boundary of a cell is considered inside it.
const insideTol = 1e-9

// bilinearWeights adds to b the weights interpolating src values at the
// destination degrees of freedom.
func bilinearWeights(src, dst *Field, b *weightBuilder) error {
	cells, err := src.obj.interpCells(src.loc)
	if err != nil {
		return &UnsupportedMethodError{Method: Bilinear, Reason: err.Error()}
	}
	if len(cells) == 0 {
		return nil
	}
	idx := newCellIndex(cells)
	for d, x := range dst.obj.dofPoints(dst.loc) {
		if hasNaN(x) {
			continue
		}
		for _, c := range idx.searchPoint(x) {
			w, ok := interpWeights(c, x)
			if !ok {
				continue
			}
			for i, v := range c.verts {
				b.add(d, v, w[i])
			}
			break
		}
	}
	return nil
}

// interpWeights returns the weights of the vertices of c that
// interpolate to x, and whether x is inside c.
func interpWeights(c *cell, x []float64) ([]float64, bool) {
	if c.is3D() {
		if len(x) < 3 || x[2] < c.zmin-insideTol*(c.zmax-c.zmin) ||
			x[2] > c.zmax+insideTol*(c.zmax-c.zmin) {
			return nil, false
		}
	}
	switch c.shape {
	case shapeTri:
		return triWeights(c.pts, x)
	case shapeQuad:
		return quadWeights(c.pts, x)
	case shapeTet:
		return tetWeights(c.pts, x)
	case shapeHex:
		return hexWeights(c.pts, x)
	default:
		return mvcWeights(c.pts, x)
	}
}

func inUnit(v ...float64) bool {
	for _, a := range v {
		if a < -insideTol || a > 1+insideTol {
			return false
		}
	}
	return true
}

// triWeights returns the barycentric coordinates of x.
func triWeights(p [][]float64, x []float64) ([]float64, bool) {
	det := cross(p[0], p[1], p[2])
	if det == 0 {
		return nil, false
	}
	l1 := cross(x, p[1], p[2]) / det
	l2 := cross(p[0], x, p[2]) / det
	l3 := 1 - l1 - l2
	if !inUnit(l1, l2, l3) {
		return nil, false
	}
	return []float64{l1, l2, l3}, true
}

// quadWeights inverts the bilinear map of the quadrilateral p
// with Newton's method.
func quadWeights(p [][]float64, x []float64) ([]float64, bool) {
	s, t := 0.5, 0.5
	for iter := 0; iter < 30; iter++ {
		fx, fy := -x[0], -x[1]
		n := quadShape(s, t)
		for i := range p {
			fx += n[i] * p[i][0]
			fy += n[i] * p[i][1]
		}
		ds := [4]float64{-(1 - t), 1 - t, t, -t}
		dt := [4]float64{-(1 - s), -s, s, 1 - s}
		var a, bb, c, d float64
		for i := range p {
			a += ds[i] * p[i][0]
			bb += dt[i] * p[i][0]
			c += ds[i] * p[i][1]
			d += dt[i] * p[i][1]
		}
		det := a*d - bb*c
		if det == 0 {
			return nil, false
		}
		dS := (fx*d - bb*fy) / det
		dT := (a*fy - c*fx) / det
		s -= dS
		t -= dT
		if math.Abs(dS) < 1e-14 && math.Abs(dT) < 1e-14 {
			break
		}
	}
	if !inUnit(s, t) {
		return nil, false
	}
	return quadShape(s, t), true
}

func quadShape(s, t float64) []float64 {
	return []float64{(1 - s) * (1 - t), s * (1 - t), s * t, (1 - s) * t}
}

// tetWeights returns the barycentric coordinates of x in the
// tetrahedron p.
func tetWeights(p [][]float64, x []float64) ([]float64, bool) {
	a := mat.NewDense(3, 3, nil)
	for j := 0; j < 3; j++ {
		for i := 0; i < 3; i++ {
			a.Set(i, j, p[j+1][i]-p[0][i])
		}
	}
	rhs := mat.NewVecDense(3, []float64{x[0] - p[0][0], x[1] - p[0][1], x[2] - p[0][2]})
	var l mat.VecDense
	if err := l.SolveVec(a, rhs); err != nil {
		return nil, false
	}
	l1, l2, l3 := l.AtVec(0), l.AtVec(1), l.AtVec(2)
	l0 := 1 - l1 - l2 - l3
	if !inUnit(l0, l1, l2, l3) {
		return nil, false
	}
	return []float64{l0, l1, l2, l3}, true
}

// hexWeights inverts the trilinear map of the hexahedron p, whose
// first four vertices are the bottom face and last four the top face.
func hexWeights(p [][]float64, x []float64) ([]float64, bool) {
	u := []float64{0.5, 0.5, 0.5}
	jac := mat.NewDense(3, 3, nil)
	f := mat.NewVecDense(3, nil)
	var step mat.VecDense
	for iter := 0; iter < 30; iter++ {
		n, dn := hexShape(u)
		for i := 0; i < 3; i++ {
			v := -x[i]
			for k := range p {
				v += n[k] * p[k][i]
			}
			f.SetVec(i, v)
			for j := 0; j < 3; j++ {
				var dv float64
				for k := range p {
					dv += dn[k][j] * p[k][i]
				}
				jac.Set(i, j, dv)
			}
		}
		if err := step.SolveVec(jac, f); err != nil {
			return nil, false
		}
		done := true
		for i := range u {
			u[i] -= step.AtVec(i)
			if math.Abs(step.AtVec(i)) > 1e-14 {
				done = false
			}
		}
		if done {
			break
		}
	}
	if !inUnit(u...) {
		return nil, false
	}
	n, _ := hexShape(u)
	return n, true
}

// hexShape returns the trilinear shape functions at u and
// their derivatives.
func hexShape(u []float64) ([]float64, [][3]float64) {
	s, t, r := u[0], u[1], u[2]
	face, dface := quadShape(s, t), [4][2]float64{
		{-(1 - t), -(1 - s)}, {1 - t, -s}, {t, s}, {-t, 1 - s},
	}
	n := make([]float64, 8)
	dn := make([][3]float64, 8)
	for k := 0; k < 4; k++ {
		n[k] = face[k] * (1 - r)
		n[k+4] = face[k] * r
		dn[k] = [3]float64{dface[k][0] * (1 - r), dface[k][1] * (1 - r), -face[k]}
		dn[k+4] = [3]float64{dface[k][0] * r, dface[k][1] * r, face[k]}
	}
	return n, dn
}

// mvcWeights returns the mean value coordinates of x with respect to
// the counter-clockwise polygon p.
func mvcWeights(p [][]float64, x []float64) ([]float64, bool) {
	if !insidePolygon(p, x) {
		return nil, false
	}
	n := len(p)
	w := make([]float64, n)
	r := make([]float64, n)
	for i, v := range p {
		r[i] = math.Hypot(v[0]-x[0], v[1]-x[1])
		if r[i] == 0 {
			w[i] = 1
			return w, true
		}
	}
	tanHalf := make([]float64, n)
	for i := range p {
		j := (i + 1) % n
		ax, ay := p[i][0]-x[0], p[i][1]-x[1]
		bx, by := p[j][0]-x[0], p[j][1]-x[1]
		cr := ax*by - ay*bx
		dot := ax*bx + ay*by
		if cr == 0 && dot < 0 {
			// x lies on the edge from i to j.
			e := math.Hypot(p[j][0]-p[i][0], p[j][1]-p[i][1])
			w[i] = r[j] / e
			w[j] = r[i] / e
			return w, true
		}
		if cr == 0 {
			continue
		}
		tanHalf[i] = (r[i]*r[j] - dot) / cr
	}
	var sum float64
	for i := range p {
		w[i] = (tanHalf[(i+n-1)%n] + tanHalf[i]) / r[i]
		sum += w[i]
	}
	for i := range w {
		w[i] /= sum
	}
	return w, true
}

// insidePolygon reports whether x is inside or on the boundary of
// the polygon p, using the crossing number.
func insidePolygon(p [][]float64, x []float64) bool {
	in := false
	n := len(p)
	for i := 0; i < n; i++ {
		a, b := p[i], p[(i+1)%n]
		if onSegment(a, b, x) {
			return true
		}
		if (a[1] > x[1]) != (b[1] > x[1]) {
			xc := a[0] + (x[1]-a[1])*(b[0]-a[0])/(b[1]-a[1])
			if x[0] < xc {
				in = !in
			}
		}
	}
	return in
}

func onSegment(a, b, x []float64) bool {
	l := math.Hypot(b[0]-a[0], b[1]-a[1])
	if math.Abs(cross(a, b, x)) > insideTol*l*l {
		return false
	}
	return x[0] >= math.Min(a[0], b[0])-insideTol*l && x[0] <= math.Max(a[0], b[0])+insideTol*l &&
		x[1] >= math.Min(a[1], b[1])-insideTol*l && x[1] <= math.Max(a[1], b[1])+insideTol*l
}
