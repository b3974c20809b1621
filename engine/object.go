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
Package engine holds the engine-native representation of spatial
discretizations and computes and applies interpolation weights
between them.

Build converts a mesh.Descriptor into an Object (a *Grid, *Mesh, or
*LocStream) with an attached NaN-filled *Field. NewOperator computes
the weights between a source and a destination field, and
Operator.Apply maps field values through them.
*/
package engine

import (
	"math"

	"github.com/ctessum/sparse"
	"github.com/spatialmodel/regrid/mesh"
)

// Object is an engine-native geometry: a *Grid, *Mesh, or *LocStream.
type Object interface {
	// Name returns the name of the descriptor the object was built from.
	Name() string

	// Dim returns the number of spatial dimensions.
	Dim() int

	// Destroy releases the object's coordinate storage.
	// It is safe to call more than once.
	Destroy()

	// Destroyed reports whether Destroy has been called.
	Destroyed() bool

	// size returns the number of degrees of freedom at loc.
	size(loc mesh.Location) int

	// fieldShape returns the shape of a field at loc
	// with the last index varying fastest.
	fieldShape(loc mesh.Location) []int

	// dofPoints returns the coordinates of the degrees of freedom at loc.
	dofPoints(loc mesh.Location) [][]float64

	// interpCells returns the cells used for bilinear interpolation
	// of values located at loc. Cell vertices are degrees of freedom.
	interpCells(loc mesh.Location) ([]*cell, error)

	// areaCells returns the cells used for conservative remapping of
	// values located at loc. Each cell's dof is its degree of freedom.
	areaCells(loc mesh.Location) ([]*cell, error)
}

// Field is a buffer of values attached to an Object at a location.
type Field struct {
	name string
	obj  Object
	loc  mesh.Location
	data *sparse.DenseArray
}

// NewField creates a NaN-filled field on o at loc.
func NewField(o Object, name string, loc mesh.Location) *Field {
	f := &Field{
		name: name,
		obj:  o,
		loc:  loc,
		data: sparse.ZerosDense(o.fieldShape(loc)...),
	}
	f.Fill(math.NaN())
	return f
}

// Name returns the field name.
func (f *Field) Name() string { return f.name }

// Object returns the geometry the field is attached to.
func (f *Field) Object() Object { return f.obj }

// Location returns where the field values live.
func (f *Field) Location() mesh.Location { return f.loc }

// Data returns the field values in canonical order. Modifying the
// returned slice modifies the field. It is nil after Destroy.
func (f *Field) Data() []float64 {
	if f.data == nil {
		return nil
	}
	return f.data.Elements
}

// Shape returns the shape of the field buffer. For structured grids
// it is in z, y, x order so that x varies fastest.
func (f *Field) Shape() []int {
	if f.data == nil {
		return nil
	}
	return append([]int(nil), f.data.Shape...)
}

// Len returns the number of values in the field.
func (f *Field) Len() int { return len(f.Data()) }

// Fill sets every value of the field to v.
func (f *Field) Fill(v float64) {
	d := f.Data()
	for i := range d {
		d[i] = v
	}
}

// Set copies data into the field.
func (f *Field) Set(data []float64) error {
	if f.data == nil {
		return ErrDestroyed
	}
	if len(data) != f.Len() {
		return &lengthError{what: "field " + f.name, got: len(data), want: f.Len()}
	}
	copy(f.data.Elements, data)
	return nil
}

// Destroy releases the field buffer.
func (f *Field) Destroy() { f.data = nil }
