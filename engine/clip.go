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
)

// clipConvex returns the part of the polygon subject that lies inside
// the convex counter-clockwise polygon clip (Sutherland-Hodgman).
func clipConvex(subject, clip [][]float64) [][]float64 {
	out := subject
	n := len(clip)
	for i := 0; i < n && len(out) > 0; i++ {
		a, b := clip[i], clip[(i+1)%n]
		in := out
		out = make([][]float64, 0, len(in)+1)
		for j := range in {
			p, q := in[j], in[(j+1)%len(in)]
			cp, cq := cross(a, b, p), cross(a, b, q)
			if cp >= 0 {
				out = append(out, p)
			}
			if (cp >= 0) != (cq >= 0) && cp != cq {
				t := cp / (cp - cq)
				out = append(out, []float64{p[0] + t*(q[0]-p[0]), p[1] + t*(q[1]-p[1])})
			}
		}
	}
	if len(out) < 3 {
		return nil
	}
	return out
}

// overlap returns the area (or volume) of the intersection of two
// cells and its centroid.
func overlap(a, b *cell) (float64, []float64) {
	if a.is3D() {
		return boxOverlap(a, b)
	}
	if convex(a.pts) && convex(b.pts) {
		p := clipConvex(b.pts, a.pts)
		if p == nil {
			return 0, nil
		}
		area := signedArea(p)
		if area <= 0 {
			return 0, nil
		}
		return area, polygonCentroid(p)
	}
	isect := geomPolygon(a.pts).Intersection(geomPolygon(b.pts))
	if isect == nil {
		return 0, nil
	}
	area := isect.Area()
	if area <= 0 {
		return 0, nil
	}
	c := isect.Centroid()
	return area, []float64{c.X, c.Y}
}

// geomPolygon converts a ring into a closed polygon.
func geomPolygon(pts [][]float64) geom.Polygon {
	ring := make(geom.Path, 0, len(pts)+1)
	for _, p := range pts {
		ring = append(ring, geom.Point{X: p[0], Y: p[1]})
	}
	ring = append(ring, ring[0])
	return geom.Polygon{ring}
}

// isBox reports whether the 3-D cell c is an axis-aligned box.
func isBox(c *cell) bool {
	if c.shape != shapeHex {
		return false
	}
	tol := 1e-9 * math.Max(c.bounds.Max.X-c.bounds.Min.X,
		math.Max(c.bounds.Max.Y-c.bounds.Min.Y, c.zmax-c.zmin))
	near := func(v, lo, hi float64) bool {
		return math.Abs(v-lo) <= tol || math.Abs(v-hi) <= tol
	}
	for _, p := range c.pts {
		if !near(p[0], c.bounds.Min.X, c.bounds.Max.X) ||
			!near(p[1], c.bounds.Min.Y, c.bounds.Max.Y) ||
			!near(p[2], c.zmin, c.zmax) {
			return false
		}
	}
	return true
}

func boxOverlap(a, b *cell) (float64, []float64) {
	lo := []float64{
		math.Max(a.bounds.Min.X, b.bounds.Min.X),
		math.Max(a.bounds.Min.Y, b.bounds.Min.Y),
		math.Max(a.zmin, b.zmin),
	}
	hi := []float64{
		math.Min(a.bounds.Max.X, b.bounds.Max.X),
		math.Min(a.bounds.Max.Y, b.bounds.Max.Y),
		math.Min(a.zmax, b.zmax),
	}
	v := 1.
	c := make([]float64, 3)
	for i := range lo {
		if hi[i] <= lo[i] {
			return 0, nil
		}
		v *= hi[i] - lo[i]
		c[i] = (lo[i] + hi[i]) / 2
	}
	return v, c
}

// measure returns the area or volume of c and its centroid.
func measure(c *cell) (float64, []float64) {
	if c.is3D() {
		return boxOverlap(c, c)
	}
	a := signedArea(c.pts)
	if a <= 0 {
		return 0, nil
	}
	return a, polygonCentroid(c.pts)
}
