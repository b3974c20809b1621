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

	"github.com/spatialmodel/regrid/crs"
	"github.com/spatialmodel/regrid/mesh"
)

// Build converts a grid descriptor into an engine object with an
// attached NaN-filled field at the descriptor's data location.
// Coordinates are transformed with t unless t is nil.
func Build(d mesh.Descriptor, t *crs.Transformer) (Object, *Field, error) {
	var (
		o   Object
		f   *Field
		err error
	)
	switch d := d.(type) {
	case *mesh.StructuredGrid:
		if d == nil {
			break
		}
		var g *Grid
		g, f, err = buildGrid(d, t)
		o = g
	case *mesh.UnstructuredMesh:
		if d == nil {
			break
		}
		var m *Mesh
		m, f, err = buildMesh(d, t)
		o = m
	case *mesh.UnstructuredPointCloud:
		if d == nil {
			break
		}
		var l *LocStream
		l, f, err = buildLocStream(d, t)
		o = l
	}
	if err != nil {
		return nil, nil, err
	}
	if f == nil {
		return nil, nil, &UnsupportedGridTypeError{Type: fmt.Sprintf("%T", d)}
	}
	return o, f, nil
}
