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
	"math"
	"sort"

	"github.com/spatialmodel/regrid/crs"
	"github.com/spatialmodel/regrid/mesh"
)

// Engine element type codes.
const (
	ElemTri   = 3
	ElemQuad  = 4
	ElemTetra = 10
	ElemHex   = 12
)

// elementTypes maps descriptor cell types to engine element types.
// Vertex and line cells have no engine equivalent.
var elementTypes = map[mesh.CellType]int{
	mesh.Tri:   ElemTri,
	mesh.Quad:  ElemQuad,
	mesh.Tetra: ElemTetra,
	mesh.Hex:   ElemHex,
}

var elementShapes = map[int]shape{
	ElemTri:   shapeTri,
	ElemQuad:  shapeQuad,
	ElemTetra: shapeTet,
	ElemHex:   shapeHex,
}

// Mesh is an unstructured mesh of nodes and elements. Node and
// element IDs are 1-based; connectivity indices are 0-based
// positions in the node list.
type Mesh struct {
	name          string
	parametricDim int
	spatialDim    int

	nodeIDs    []int
	nodeCoords []float64

	elemIDs    []int
	elemTypes  []int
	elemConn   []int
	elemOffset []int
	elemCoords []float64
}

// buildMesh creates a Mesh from m, transforming its coordinates with t
// if t is not nil.
func buildMesh(m *mesh.UnstructuredMesh, t *crs.Transformer) (*Mesh, *Field, error) {
	if err := m.Validate(); err != nil {
		return nil, nil, &UnsupportedElementError{Cell: -1, Err: err}
	}
	o := &Mesh{name: m.Name, spatialDim: m.Dim(), parametricDim: m.MeshDim()}
	for i, ct := range m.CellTypes {
		et, ok := elementTypes[ct]
		if !ok {
			return nil, nil, &UnsupportedElementError{Cell: i, Type: ct,
				Err: fmt.Errorf("1-D data must be regridded as a point cloud")}
		}
		if ct.Dim() != o.spatialDim {
			return nil, nil, &UnsupportedElementError{Cell: i, Type: ct,
				Err: fmt.Errorf("%d-D element in %d-D space", ct.Dim(), o.spatialDim)}
		}
		o.elemTypes = append(o.elemTypes, et)
	}

	points, err := t.Transform(m.Points)
	if err != nil {
		return nil, nil, err
	}
	centers, err := t.Transform(m.CellCenters())
	if err != nil {
		return nil, nil, err
	}
	o.nodeIDs = make([]int, len(points))
	o.nodeCoords = make([]float64, 0, len(points)*o.spatialDim)
	for i, p := range points {
		o.nodeIDs[i] = i + 1
		o.nodeCoords = append(o.nodeCoords, p...)
	}
	o.elemIDs = make([]int, len(m.Cells))
	o.elemOffset = make([]int, len(m.Cells)+1)
	for i, c := range m.Cells {
		o.elemIDs[i] = i + 1
		o.elemConn = append(o.elemConn, c...)
		o.elemOffset[i+1] = len(o.elemConn)
		o.elemCoords = append(o.elemCoords, centers[i]...)
	}
	return o, NewField(o, m.Name, m.DataLocation), nil
}

// Name returns the mesh name.
func (m *Mesh) Name() string { return m.name }

// Dim returns the spatial dimension.
func (m *Mesh) Dim() int { return m.spatialDim }

// ParametricDim returns the dimension of the mesh elements.
func (m *Mesh) ParametricDim() int { return m.parametricDim }

// Destroy releases the mesh storage.
func (m *Mesh) Destroy() {
	m.nodeIDs, m.nodeCoords = nil, nil
	m.elemIDs, m.elemTypes, m.elemConn, m.elemOffset, m.elemCoords = nil, nil, nil, nil, nil
}

// Destroyed reports whether Destroy has been called.
func (m *Mesh) Destroyed() bool { return m.nodeIDs == nil }

// NodeCount returns the number of nodes.
func (m *Mesh) NodeCount() int { return len(m.nodeIDs) }

// ElementCount returns the number of elements.
func (m *Mesh) ElementCount() int { return len(m.elemIDs) }

// NodeIDs returns the 1-based node IDs.
func (m *Mesh) NodeIDs() []int { return append([]int(nil), m.nodeIDs...) }

// NodeCoords returns the node coordinates, flattened node by node.
func (m *Mesh) NodeCoords() []float64 { return append([]float64(nil), m.nodeCoords...) }

// ElementIDs returns the 1-based element IDs.
func (m *Mesh) ElementIDs() []int { return append([]int(nil), m.elemIDs...) }

// ElementTypes returns the engine element type code of each element.
func (m *Mesh) ElementTypes() []int { return append([]int(nil), m.elemTypes...) }

// ElementConn returns the flattened element connectivity.
func (m *Mesh) ElementConn() []int { return append([]int(nil), m.elemConn...) }

// ElementCoords returns the element center coordinates,
// flattened element by element.
func (m *Mesh) ElementCoords() []float64 { return append([]float64(nil), m.elemCoords...) }

func (m *Mesh) size(loc mesh.Location) int {
	if loc == mesh.Points {
		return m.NodeCount()
	}
	return m.ElementCount()
}

func (m *Mesh) fieldShape(loc mesh.Location) []int { return []int{m.size(loc)} }

func unflatten(c []float64, dim int) [][]float64 {
	if dim == 0 {
		return nil
	}
	o := make([][]float64, len(c)/dim)
	for i := range o {
		o[i] = c[i*dim : (i+1)*dim]
	}
	return o
}

func (m *Mesh) nodes() [][]float64 { return unflatten(m.nodeCoords, m.spatialDim) }

func (m *Mesh) dofPoints(loc mesh.Location) [][]float64 {
	if loc == mesh.Points {
		return m.nodes()
	}
	return unflatten(m.elemCoords, m.spatialDim)
}

func (m *Mesh) elements(dofs bool) []*cell {
	nodes := m.nodes()
	o := make([]*cell, len(m.elemIDs))
	for i := range m.elemIDs {
		v := append([]int(nil), m.elemConn[m.elemOffset[i]:m.elemOffset[i+1]]...)
		dof := -1
		if dofs {
			dof = i
		}
		o[i] = newCell(elementShapes[m.elemTypes[i]], v, gather(nodes, v), dof)
	}
	return o
}

// interpCells returns the elements for node data. For element data
// it returns the dual mesh: one polygon per interior node, connecting
// the centers of the elements around it.
func (m *Mesh) interpCells(loc mesh.Location) ([]*cell, error) {
	if loc == mesh.Points {
		return m.elements(false), nil
	}
	if m.parametricDim != 2 {
		return nil, fmt.Errorf("bilinear interpolation of element data requires a 2-D mesh")
	}
	return m.dualCells(), nil
}

func (m *Mesh) areaCells(loc mesh.Location) ([]*cell, error) {
	if loc != mesh.Cells {
		return nil, errNotCellLocated
	}
	return m.elements(true), nil
}

// dualCells builds the dual of a 2-D mesh. A node is interior if the
// angles of its incident elements sum to a full turn.
func (m *Mesh) dualCells() []*cell {
	nodes := m.nodes()
	centers := m.dofPoints(mesh.Cells)
	incident := make([][]int, len(nodes))
	angle := make([]float64, len(nodes))
	for e := range m.elemIDs {
		v := m.elemConn[m.elemOffset[e]:m.elemOffset[e+1]]
		ring := gather(nodes, v)
		ccw := signedArea(ring) > 0
		for k, n := range v {
			prev := ring[(k+len(v)-1)%len(v)]
			next := ring[(k+1)%len(v)]
			a := math.Atan2(next[1]-ring[k][1], next[0]-ring[k][0]) -
				math.Atan2(prev[1]-ring[k][1], prev[0]-ring[k][0])
			if !ccw {
				a = -a
			}
			for a < 0 {
				a += 2 * math.Pi
			}
			angle[n] += a
			incident[n] = append(incident[n], e)
		}
	}
	var o []*cell
	for n, elems := range incident {
		if len(elems) < 3 || math.Abs(angle[n]-2*math.Pi) > 1e-6 {
			continue
		}
		p := nodes[n]
		sort.Slice(elems, func(i, j int) bool {
			ci, cj := centers[elems[i]], centers[elems[j]]
			return math.Atan2(ci[1]-p[1], ci[0]-p[0]) < math.Atan2(cj[1]-p[1], cj[0]-p[0])
		})
		v := append([]int(nil), elems...)
		s := shapePoly
		switch len(v) {
		case 3:
			s = shapeTri
		case 4:
			s = shapeQuad
		}
		o = append(o, newCell(s, v, gather(centers, v), -1))
	}
	return o
}

// LocStream is a stream of unconnected points.
type LocStream struct {
	name   string
	coords [][]float64
}

func buildLocStream(p *mesh.UnstructuredPointCloud, t *crs.Transformer) (*LocStream, *Field, error) {
	if err := p.Validate(); err != nil {
		return nil, nil, &UnsupportedGridTypeError{Type: fmt.Sprintf("%T", p), Err: err}
	}
	points, err := t.Transform(p.Points)
	if err != nil {
		return nil, nil, err
	}
	o := &LocStream{name: p.Name, coords: splitAxes(points, p.Dim())}
	return o, NewField(o, p.Name, mesh.Points), nil
}

// Name returns the point cloud name.
func (l *LocStream) Name() string { return l.name }

// Dim returns the number of coordinates per point.
func (l *LocStream) Dim() int { return len(l.coords) }

// Destroy releases the point coordinates.
func (l *LocStream) Destroy() { l.coords = nil }

// Destroyed reports whether Destroy has been called.
func (l *LocStream) Destroyed() bool { return l.coords == nil }

// Len returns the number of points.
func (l *LocStream) Len() int {
	if len(l.coords) == 0 {
		return 0
	}
	return len(l.coords[0])
}

// Coords returns a copy of the coordinates along axis.
func (l *LocStream) Coords(axis int) []float64 {
	if axis < 0 || axis >= len(l.coords) {
		return nil
	}
	return append([]float64(nil), l.coords[axis]...)
}

func (l *LocStream) size(mesh.Location) int { return l.Len() }

func (l *LocStream) fieldShape(mesh.Location) []int { return []int{l.Len()} }

func (l *LocStream) dofPoints(mesh.Location) [][]float64 {
	o := make([][]float64, l.Len())
	for j := range o {
		p := make([]float64, len(l.coords))
		for i := range l.coords {
			p[i] = l.coords[i][j]
		}
		o[j] = p
	}
	return o
}

func (l *LocStream) interpCells(mesh.Location) ([]*cell, error) {
	return nil, fmt.Errorf("a point cloud has no cells to interpolate within")
}

func (l *LocStream) areaCells(mesh.Location) ([]*cell, error) {
	return nil, fmt.Errorf("a point cloud has no cell areas")
}
