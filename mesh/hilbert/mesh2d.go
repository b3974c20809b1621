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

// Package hilbert generates geographic quadrilateral meshes from
// S2 cells, which are ordered along a Hilbert curve.
package hilbert

import (
	"math"

	"github.com/spatialmodel/regrid/mesh"
	"github.com/spatialmodel/regrid/plot"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/s2"
)

// EarthRadius is the radius of the Earth at the equator.
const EarthRadius = 6.3781e6 // meters

// Mesh2D represents a 2D quasi-rectangular mesh of S2 cells.
type Mesh2D struct {
	cells []s2.CellID
	faces []*face1D
}

// Bounds returns the rectangle spanning the given corners,
// in degrees. The rectangle must not cross the antimeridian.
func Bounds(minLon, minLat, maxLon, maxLat float64) s2.Rect {
	r := s2.RectFromLatLng(s2.LatLngFromDegrees(minLat, minLon))
	return r.AddPoint(s2.LatLngFromDegrees(maxLat, maxLon))
}

// NewMesh2D returns a new 2D mesh at the specified resolution level,
// approximately covering the area specified by b.
// Information regarding resolution levels is available at
// https://s2geometry.io/resources/s2cell_statistics.html.
func NewMesh2D(b s2.Region, level int) *Mesh2D {
	rc := &s2.RegionCoverer{
		MinLevel: level,
		MaxLevel: level,
		MaxCells: math.MaxInt32,
	}
	m := &Mesh2D{
		cells: rc.Covering(b),
	}
	m.build()
	return m
}

// build creates the interior faces shared by two cells.
func (m *Mesh2D) build() {
	index := make(map[s2.CellID]int)
	for i, c := range m.cells {
		index[c] = i
	}
	m.faces = m.faces[:0]
	for i, c := range m.cells {
		for k, nbc := range c.EdgeNeighbors() {
			// Skip boundaries and faces we've already seen.
			j, ok := index[nbc]
			if !ok || j < i {
				continue
			}
			c2 := s2.CellFromCellID(c)
			m.faces = append(m.faces, &face1D{
				Edge:  s2.Edge{V0: c2.Vertex(k), V1: c2.Vertex((k + 1) % 4)},
				cells: [2]int{i, j},
			})
		}
	}
}

// Cells returns the number of cells in this mesh.
func (m *Mesh2D) Cells() int { return len(m.cells) }

// CellID returns the S2 identifier of cell i.
func (m *Mesh2D) CellID(i int) s2.CellID { return m.cells[i] }

// Area returns the area of cell i in square meters.
func (m *Mesh2D) Area(i int) float64 {
	return s2.CellFromCellID(m.cells[i]).ApproxArea() * EarthRadius * EarthRadius
}

// Faces returns the number of faces shared by two cells.
func (m *Mesh2D) Faces() int { return len(m.faces) }

// Neighbors returns the indices of the two cells sharing face i.
func (m *Mesh2D) Neighbors(i int) (int, int) {
	return m.faces[i].cells[0], m.faces[i].cells[1]
}

// FaceLength returns the length of face i in meters.
func (m *Mesh2D) FaceLength(i int) float64 {
	f := m.faces[i]
	v0 := s2.LatLngFromPoint(f.V0)
	v1 := s2.LatLngFromPoint(f.V1)
	return v0.Distance(v1).Radians() * EarthRadius
}

type face1D struct {
	s2.Edge
	cells [2]int
}

// Descriptor returns the mesh as quadrilaterals in longitude-latitude
// coordinates (EPSG:4326), with data at loc. Vertices shared by
// neighboring cells are merged.
func (m *Mesh2D) Descriptor(loc mesh.Location) *mesh.UnstructuredMesh {
	type key struct{ lon, lat int64 }
	index := make(map[key]int)
	d := &mesh.UnstructuredMesh{
		Cells:        make([][]int, len(m.cells)),
		CellTypes:    make([]mesh.CellType, len(m.cells)),
		DataLocation: loc,
		Proj:         "EPSG:4326",
	}
	for i, id := range m.cells {
		c := s2.CellFromCellID(id)
		conn := make([]int, 4)
		for k := range conn {
			ll := s2.LatLngFromPoint(c.Vertex(k))
			lon, lat := ll.Lng.Degrees(), ll.Lat.Degrees()
			kk := key{int64(math.Round(lon * 1e9)), int64(math.Round(lat * 1e9))}
			j, ok := index[kk]
			if !ok {
				j = len(d.Points)
				index[kk] = j
				d.Points = append(d.Points, []float64{lon, lat})
			}
			conn[k] = j
		}
		d.Cells[i] = conn
		d.CellTypes[i] = mesh.Quad
	}
	return d
}

// PlotEdges returns the lines that make up the interior mesh edges
// for plotting with the given projection.
func (m *Mesh2D) PlotEdges(p s2.Projection) []plot.XYs {
	e := s2.NewEdgeTessellator(p, 1.0e-5)
	o := make([]plot.XYs, len(m.faces))
	for i, f := range m.faces {
		var v []r2.Point
		v = e.AppendProjected(f.V0, f.V1, v)
		ixy := make(plot.XYs, len(v))
		for j, vj := range v {
			ixy[j].X = vj.X
			ixy[j].Y = vj.Y
		}
		o[i] = ixy
	}
	return o
}
