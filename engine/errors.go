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
	"errors"
	"fmt"

	"github.com/spatialmodel/regrid/mesh"
)

// ErrDestroyed is returned when an operator or field is used
// after it has been destroyed.
var ErrDestroyed = errors.New("engine: object has been destroyed")

var errNotCellLocated = errors.New("conservative regridding requires cell-located fields")

// UnsupportedGridTypeError is returned when a grid descriptor has
// no engine representation, or is structurally invalid.
type UnsupportedGridTypeError struct {
	// Type is the name of the offending descriptor type.
	Type string
	Err  error
}

func (e *UnsupportedGridTypeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("engine: grid type '%s' not supported", e.Type)
	}
	return fmt.Sprintf("engine: grid type '%s' not supported: %v", e.Type, e.Err)
}

func (e *UnsupportedGridTypeError) Unwrap() error { return e.Err }

// UnsupportedElementError is returned when a mesh contains cells that
// cannot be interpolated, such as 1-D line elements, or when its
// connectivity is malformed.
type UnsupportedElementError struct {
	// Cell is the index of the offending cell, or -1 if the
	// error does not concern a single cell.
	Cell int
	Type mesh.CellType
	Err  error
}

func (e *UnsupportedElementError) Error() string {
	if e.Cell < 0 {
		return fmt.Sprintf("engine: unsupported mesh: %v", e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("engine: unsupported element %d of type %v: %v", e.Cell, e.Type, e.Err)
	}
	return fmt.Sprintf("engine: unsupported element %d of type %v", e.Cell, e.Type)
}

func (e *UnsupportedElementError) Unwrap() error { return e.Err }

// UnsupportedMethodError is returned when a regridding method cannot
// be used with the given fields.
type UnsupportedMethodError struct {
	Method Method
	Reason string
}

func (e *UnsupportedMethodError) Error() string {
	return fmt.Sprintf("engine: regrid method %v: %s", e.Method, e.Reason)
}

// UnmappedCellError is returned when UnmappedAction is UnmappedError and
// some destination entries receive no contribution from the source.
type UnmappedCellError struct {
	// Count is the number of unmapped destination entries.
	Count int
	// First is the index of the first unmapped destination entry.
	First int
}

func (e *UnmappedCellError) Error() string {
	return fmt.Sprintf("engine: %d unmapped destination entries (first at index %d)", e.Count, e.First)
}

type lengthError struct {
	what      string
	got, want int
}

func (e *lengthError) Error() string {
	return fmt.Sprintf("engine: %s has %d values; expected %d", e.what, e.got, e.want)
}
