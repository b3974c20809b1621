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
	"os"
	"path/filepath"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	goshp "github.com/jonas-p/go-shp"
	"github.com/spatialmodel/regrid/mesh"
)

// Shapes returns the geometry of each degree of freedom of f: cell
// polygons for cell-located fields on grids and meshes, and points
// otherwise. Only 2-D objects are supported.
func Shapes(f *Field) ([]geom.Geom, error) {
	if f.data == nil || f.obj.Destroyed() {
		return nil, ErrDestroyed
	}
	if f.obj.Dim() != 2 {
		return nil, fmt.Errorf("engine: cannot draw %d-D field %s", f.obj.Dim(), f.name)
	}
	o := make([]geom.Geom, f.Len())
	if _, ok := f.obj.(*LocStream); !ok && f.loc == mesh.Cells {
		cells, err := f.obj.areaCells(f.loc)
		if err != nil {
			return nil, err
		}
		for _, c := range cells {
			o[c.dof] = geomPolygon(c.pts)
		}
		return o, nil
	}
	for i, p := range f.obj.dofPoints(f.loc) {
		o[i] = geom.Point{X: p[0], Y: p[1]}
	}
	return o, nil
}

// WriteShapefile writes the shapes of f and their values to the
// shapefile at path, replacing any existing one.
func WriteShapefile(path string, f *Field) error {
	shapes, err := Shapes(f)
	if err != nil {
		return err
	}
	var t goshp.ShapeType = goshp.POINT
	if len(shapes) > 0 {
		if _, ok := shapes[0].(geom.Polygon); ok {
			t = goshp.POLYGON
		}
	}
	base := strings.TrimSuffix(path, filepath.Ext(path))
	for _, ext := range []string{".shp", ".prj", ".dbf", ".shx"} {
		os.Remove(base + ext)
	}
	e, err := shp.NewEncoderFromFields(base+".shp", t,
		goshp.NumberField("Index", 10),
		goshp.FloatField("Value", 24, 10),
	)
	if err != nil {
		return fmt.Errorf("engine: writing shapefile: %w", err)
	}
	vals := f.Data()
	for i, g := range shapes {
		if err := e.EncodeFields(g, i, vals[i]); err != nil {
			e.Close()
			return fmt.Errorf("engine: writing shapefile: %w", err)
		}
	}
	e.Close()
	return nil
}
