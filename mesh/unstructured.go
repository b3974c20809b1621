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

// UnstructuredMesh is a mesh of polygonal or polyhedral cells
// connecting a set of points.
type UnstructuredMesh struct {
	Name string

	// Points holds the N point coordinates, each of length Dim().
	Points [][]float64

	// Cells holds the point indices of each cell. 2D cells are
	// ordered counter-clockwise.
	Cells [][]int

	// CellTypes holds the type of each cell.
	CellTypes []CellType

	DataLocation Location

	// Proj is the coordinate reference system identifier,
	// or "" if undefined.
	Proj string
}

func (m *UnstructuredMesh) descriptor() {}

// Kind returns KindUnstructured.
func (m *UnstructuredMesh) Kind() Kind { return KindUnstructured }

// Dim returns the number of coordinates per point.
func (m *UnstructuredMesh) Dim() int {
	if len(m.Points) == 0 {
		return 0
	}
	return len(m.Points[0])
}

// CRS returns the mesh's coordinate reference system.
func (m *UnstructuredMesh) CRS() string { return m.Proj }

// MeshDim returns the largest parametric dimension of the mesh cells.
func (m *UnstructuredMesh) MeshDim() int {
	d := 0
	for _, t := range m.CellTypes {
		if t.Dim() > d {
			d = t.Dim()
		}
	}
	return d
}

// DataSize returns the number of cells or points, depending
// on the data location.
func (m *UnstructuredMesh) DataSize() int {
	if m.DataLocation == Points {
		return len(m.Points)
	}
	return len(m.Cells)
}

// CellCenters returns the mean of each cell's vertex coordinates.
func (m *UnstructuredMesh) CellCenters() [][]float64 {
	dim := m.Dim()
	o := make([][]float64, len(m.Cells))
	for i, c := range m.Cells {
		ctr := make([]float64, dim)
		for _, p := range c {
			for k := 0; k < dim; k++ {
				ctr[k] += m.Points[p][k]
			}
		}
		for k := range ctr {
			ctr[k] /= float64(len(c))
		}
		o[i] = ctr
	}
	return o
}

// Validate checks that every connectivity index refers to a point,
// that every cell has a type, and that each cell has as many nodes
// as its type requires.
func (m *UnstructuredMesh) Validate() error {
	if err := checkPoints(m.Points); err != nil {
		return err
	}
	if len(m.CellTypes) != len(m.Cells) {
		return fmt.Errorf("mesh: %d cell types for %d cells", len(m.CellTypes), len(m.Cells))
	}
	if len(m.Cells) == 0 {
		return fmt.Errorf("mesh: no cells")
	}
	for i, c := range m.Cells {
		t := m.CellTypes[i]
		if !t.Valid() {
			return fmt.Errorf("mesh: cell %d has invalid type %v", i, t)
		}
		if len(c) != t.Nodes() {
			return fmt.Errorf("mesh: cell %d of type %v has %d nodes; expected %d", i, t, len(c), t.Nodes())
		}
		for _, p := range c {
			if p < 0 || p >= len(m.Points) {
				return fmt.Errorf("mesh: cell %d refers to point %d; there are %d points", i, p, len(m.Points))
			}
		}
	}
	if m.DataLocation != Cells && m.DataLocation != Points {
		return fmt.Errorf("mesh: invalid data location %v", m.DataLocation)
	}
	return nil
}

// UnstructuredPointCloud is a set of points without connectivity.
// Data always lives at the points.
type UnstructuredPointCloud struct {
	Name string

	// Points holds the N point coordinates, each of length Dim().
	Points [][]float64

	// Proj is the coordinate reference system identifier,
	// or "" if undefined.
	Proj string
}

func (p *UnstructuredPointCloud) descriptor() {}

// Kind returns KindPoints.
func (p *UnstructuredPointCloud) Kind() Kind { return KindPoints }

// Dim returns the number of coordinates per point.
func (p *UnstructuredPointCloud) Dim() int {
	if len(p.Points) == 0 {
		return 0
	}
	return len(p.Points[0])
}

// CRS returns the point cloud's coordinate reference system.
func (p *UnstructuredPointCloud) CRS() string { return p.Proj }

// DataSize returns the number of points.
func (p *UnstructuredPointCloud) DataSize() int { return len(p.Points) }

// Validate checks that all points have the same number of coordinates.
func (p *UnstructuredPointCloud) Validate() error { return checkPoints(p.Points) }

// NewMeshFromGrid converts a 2D or 3D structured grid into an
// equivalent unstructured mesh of quadrilaterals or hexahedra.
func NewMeshFromGrid(g *StructuredGrid, loc Location) *UnstructuredMesh {
	cells := g.Cells()
	t := Quad
	if g.Dim() == 3 {
		t = Hex
	}
	types := make([]CellType, len(cells))
	for i := range types {
		types[i] = t
	}
	return &UnstructuredMesh{
		Name:         g.Name,
		Points:       g.Points(),
		Cells:        cells,
		CellTypes:    types,
		DataLocation: loc,
		Proj:         g.Proj,
	}
}
