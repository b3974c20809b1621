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

/*
Package mesh defines engine-agnostic descriptions of spatial
discretizations: structured grids, unstructured meshes, and unstructured
point clouds.

Descriptors are owned by the coupled components that produce and consume
data; nothing in this module mutates them.
*/
package mesh

import (
	"encoding/gob"
	"fmt"
	"strings"
)

func init() {
	gob.Register(&StructuredGrid{})
	gob.Register(&UnstructuredMesh{})
	gob.Register(&UnstructuredPointCloud{})
}

// Descriptor describes a spatial discretization. The set of
// implementations is closed: *StructuredGrid, *UnstructuredMesh,
// and *UnstructuredPointCloud.
type Descriptor interface {
	// Kind returns the variant tag of the descriptor.
	Kind() Kind

	// Dim returns the number of spatial dimensions
	// of the point coordinates.
	Dim() int

	// DataSize is the number of values in a field defined
	// on this descriptor.
	DataSize() int

	// CRS returns the coordinate reference system
	// identifier, or "" if it is undefined.
	CRS() string

	// Validate checks the structural invariants of the descriptor.
	Validate() error

	descriptor()
}

// Kind is the variant tag of a Descriptor.
type Kind int

const (
	// KindStructured is the tag of *StructuredGrid.
	KindStructured Kind = iota
	// KindUnstructured is the tag of *UnstructuredMesh.
	KindUnstructured
	// KindPoints is the tag of *UnstructuredPointCloud.
	KindPoints
)

func (k Kind) String() string {
	switch k {
	case KindStructured:
		return "StructuredGrid"
	case KindUnstructured:
		return "UnstructuredMesh"
	case KindPoints:
		return "UnstructuredPointCloud"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Location specifies where field values live.
type Location int

const (
	// Cells specifies that values live at cell centers.
	Cells Location = iota
	// Points specifies that values live at grid vertices.
	Points
)

func (l Location) String() string {
	switch l {
	case Cells:
		return "CELLS"
	case Points:
		return "POINTS"
	default:
		return fmt.Sprintf("Location(%d)", int(l))
	}
}

// UnmarshalText parses "cells" or "points", ignoring case.
func (l *Location) UnmarshalText(b []byte) error {
	switch strings.ToUpper(strings.TrimSpace(string(b))) {
	case "CELLS", "CELL":
		*l = Cells
	case "POINTS", "POINT":
		*l = Points
	default:
		return fmt.Errorf("mesh: invalid data location %q", string(b))
	}
	return nil
}

// Order specifies the memory layout of multidimensional field data.
type Order int

const (
	// ColumnMajor specifies that the first index varies fastest.
	ColumnMajor Order = iota
	// RowMajor specifies that the last index varies fastest.
	RowMajor
)

func (o Order) String() string {
	if o == RowMajor {
		return "C"
	}
	return "F"
}

// UnmarshalText parses "C" (row-major) or "F" (column-major).
func (o *Order) UnmarshalText(b []byte) error {
	switch strings.ToUpper(strings.TrimSpace(string(b))) {
	case "F", "COLUMN", "COLUMNMAJOR":
		*o = ColumnMajor
	case "C", "ROW", "ROWMAJOR":
		*o = RowMajor
	default:
		return fmt.Errorf("mesh: invalid memory order %q", string(b))
	}
	return nil
}

// CellType is the shape of an unstructured mesh cell.
type CellType int

// Cell types. The numeric codes match the coupling framework's
// convention.
const (
	Vertex CellType = iota
	Line
	Tri
	Quad
	Tetra
	Hex
)

var cellNodes = [...]int{Vertex: 1, Line: 2, Tri: 3, Quad: 4, Tetra: 4, Hex: 8}
var cellDims = [...]int{Vertex: 0, Line: 1, Tri: 2, Quad: 2, Tetra: 3, Hex: 3}
var cellNames = [...]string{Vertex: "VERTEX", Line: "LINE", Tri: "TRI", Quad: "QUAD", Tetra: "TETRA", Hex: "HEX"}

// Valid reports whether t is a known cell type.
func (t CellType) Valid() bool { return t >= Vertex && t <= Hex }

// Nodes returns the number of nodes of a cell of this type.
func (t CellType) Nodes() int {
	if !t.Valid() {
		return 0
	}
	return cellNodes[t]
}

// Dim returns the parametric dimension of the cell type.
func (t CellType) Dim() int {
	if !t.Valid() {
		return -1
	}
	return cellDims[t]
}

func (t CellType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("CellType(%d)", int(t))
	}
	return cellNames[t]
}

func checkPoints(points [][]float64) error {
	if len(points) == 0 {
		return fmt.Errorf("mesh: no points")
	}
	dim := len(points[0])
	if dim < 1 || dim > 3 {
		return fmt.Errorf("mesh: invalid point dimension %d", dim)
	}
	for i, p := range points {
		if len(p) != dim {
			return fmt.Errorf("mesh: point %d has %d coordinates; expected %d", i, len(p), dim)
		}
	}
	return nil
}
