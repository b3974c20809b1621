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

import (
	"reflect"
	"testing"
)

func TestUniformGrid(t *testing.T) {
	g := NewUniformGrid([]int{3, 4}, []float64{2, 0.5, 7}, []float64{1}, Cells)
	if err := g.Validate(); err != nil {
		t.Fatal(err)
	}
	wantAxes := [][]float64{{1, 3, 5}, {0, 0.5, 1, 1.5}}
	if !reflect.DeepEqual(g.Axes, wantAxes) {
		t.Errorf("axes: %v != %v", g.Axes, wantAxes)
	}
	wantCells := [][]float64{{2, 4}, {0.25, 0.75, 1.25}}
	if !reflect.DeepEqual(g.CellAxes(), wantCells) {
		t.Errorf("cell axes: %v != %v", g.CellAxes(), wantCells)
	}
	if g.DataSize() != 6 {
		t.Errorf("data size: %d != 6", g.DataSize())
	}
	if !reflect.DeepEqual(g.DataShape(), []int{2, 3}) {
		t.Errorf("data shape: %v", g.DataShape())
	}
	g.AxesReversed = true
	if !reflect.DeepEqual(g.DataShape(), []int{3, 2}) {
		t.Errorf("reversed data shape: %v", g.DataShape())
	}
	g.DataLocation = Points
	if g.DataSize() != 12 {
		t.Errorf("point data size: %d != 12", g.DataSize())
	}
}

func TestStructuredPointsAndCells(t *testing.T) {
	g := NewUniformGrid([]int{3, 2}, nil, nil, Points)
	wantPts := [][]float64{{0, 0}, {1, 0}, {2, 0}, {0, 1}, {1, 1}, {2, 1}}
	if !reflect.DeepEqual(g.Points(), wantPts) {
		t.Errorf("points: %v != %v", g.Points(), wantPts)
	}
	wantCells := [][]int{{0, 1, 4, 3}, {1, 2, 5, 4}}
	if !reflect.DeepEqual(g.Cells(), wantCells) {
		t.Errorf("cells: %v != %v", g.Cells(), wantCells)
	}
	g3 := NewUniformGrid([]int{2, 2, 2}, nil, nil, Cells)
	if c := g3.Cells(); !reflect.DeepEqual(c, [][]int{{0, 1, 3, 2, 4, 5, 7, 6}}) {
		t.Errorf("hex cells: %v", c)
	}
}

func TestStructuredValidate(t *testing.T) {
	tests := []struct {
		name string
		axes [][]float64
		ok   bool
	}{
		{name: "ok", axes: [][]float64{{0, 1}, {0, 1, 2}}, ok: true},
		{name: "decreasing", axes: [][]float64{{3, 2, 1}, {0, 1}}, ok: true},
		{name: "1d", axes: [][]float64{{0, 1}}},
		{name: "4d", axes: [][]float64{{0, 1}, {0, 1}, {0, 1}, {0, 1}}},
		{name: "short", axes: [][]float64{{0}, {0, 1}}},
		{name: "repeat", axes: [][]float64{{0, 1, 1}, {0, 1}}},
		{name: "zigzag", axes: [][]float64{{0, 2, 1}, {0, 1}}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := NewRectilinearGrid(test.axes, Cells).Validate()
			if (err == nil) != test.ok {
				t.Errorf("ok=%v but err=%v", test.ok, err)
			}
		})
	}
}

func TestUnstructuredValidate(t *testing.T) {
	pts := [][]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	tests := []struct {
		name  string
		cells [][]int
		types []CellType
		ok    bool
	}{
		{name: "quad", cells: [][]int{{0, 1, 2, 3}}, types: []CellType{Quad}, ok: true},
		{name: "tris", cells: [][]int{{0, 1, 2}, {0, 2, 3}}, types: []CellType{Tri, Tri}, ok: true},
		{name: "out of range", cells: [][]int{{0, 1, 4}}, types: []CellType{Tri}},
		{name: "negative", cells: [][]int{{0, -1, 2}}, types: []CellType{Tri}},
		{name: "type count", cells: [][]int{{0, 1, 2}}, types: []CellType{Tri, Tri}},
		{name: "arity", cells: [][]int{{0, 1, 2}}, types: []CellType{Quad}},
		{name: "bad type", cells: [][]int{{0, 1, 2}}, types: []CellType{CellType(42)}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			m := &UnstructuredMesh{Points: pts, Cells: test.cells, CellTypes: test.types}
			err := m.Validate()
			if (err == nil) != test.ok {
				t.Errorf("ok=%v but err=%v", test.ok, err)
			}
		})
	}
}

func TestCellCenters(t *testing.T) {
	m := &UnstructuredMesh{
		Points:    [][]float64{{0, 0}, {2, 0}, {2, 2}, {0, 2}, {4, 0}},
		Cells:     [][]int{{0, 1, 2, 3}, {1, 4, 2}},
		CellTypes: []CellType{Quad, Tri},
	}
	want := [][]float64{{1, 1}, {8.0 / 3, 2.0 / 3}}
	if c := m.CellCenters(); !reflect.DeepEqual(c, want) {
		t.Errorf("centers: %v != %v", c, want)
	}
	if m.MeshDim() != 2 {
		t.Errorf("mesh dim %d", m.MeshDim())
	}
}

func TestMeshFromGrid(t *testing.T) {
	g := NewUniformGrid([]int{3, 3}, nil, nil, Cells)
	m := NewMeshFromGrid(g, Cells)
	if err := m.Validate(); err != nil {
		t.Fatal(err)
	}
	if m.DataSize() != 4 {
		t.Errorf("data size %d", m.DataSize())
	}
	if !reflect.DeepEqual(m.CellCenters(), g.CellCenters()) {
		t.Errorf("centers: %v != %v", m.CellCenters(), g.CellCenters())
	}
}

func TestCanonicalLayout(t *testing.T) {
	// Data value encodes the (x, y) index as 10*x + y.
	canonical := []float64{0, 10, 20, 1, 11, 21}
	tests := []struct {
		name     string
		order    Order
		reversed bool
		data     []float64
	}{
		{name: "F", order: ColumnMajor, data: []float64{0, 10, 20, 1, 11, 21}},
		{name: "C", order: RowMajor, data: []float64{0, 1, 10, 11, 20, 21}},
		{name: "F reversed", order: ColumnMajor, reversed: true, data: []float64{0, 1, 10, 11, 20, 21}},
		{name: "C reversed", order: RowMajor, reversed: true, data: []float64{0, 10, 20, 1, 11, 21}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			g := NewUniformGrid([]int{3, 2}, nil, nil, Points)
			g.Order = test.order
			g.AxesReversed = test.reversed
			c, err := ToCanonical(g, test.data)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(c, canonical) {
				t.Errorf("to canonical: %v != %v", c, canonical)
			}
			back, err := FromCanonical(g, c)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(back, test.data) {
				t.Errorf("from canonical: %v != %v", back, test.data)
			}
		})
	}
}

func TestCanonicalLayout3D(t *testing.T) {
	g := NewUniformGrid([]int{2, 3, 4}, nil, nil, Points)
	g.Order = RowMajor
	data := make([]float64, g.DataSize())
	// Row-major (x, y, z): z fastest.
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 4; k++ {
				data[(i*3+j)*4+k] = float64(100*i + 10*j + k)
			}
		}
	}
	c, err := ToCanonical(g, data)
	if err != nil {
		t.Fatal(err)
	}
	for k := 0; k < 4; k++ {
		for j := 0; j < 3; j++ {
			for i := 0; i < 2; i++ {
				want := float64(100*i + 10*j + k)
				if v := c[i+2*j+6*k]; v != want {
					t.Errorf("(%d,%d,%d): %g != %g", i, j, k, v, want)
				}
			}
		}
	}
}

func TestCanonicalSizeMismatch(t *testing.T) {
	g := NewUniformGrid([]int{3, 2}, nil, nil, Cells)
	if _, err := ToCanonical(g, make([]float64, 6)); err == nil {
		t.Error("expected error for wrong data length")
	}
	p := &UnstructuredPointCloud{Points: [][]float64{{0, 0}, {1, 1}}}
	c, err := ToCanonical(p, []float64{3, 4})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(c, []float64{3, 4}) {
		t.Errorf("points: %v", c)
	}
}

func TestTextUnmarshal(t *testing.T) {
	var l Location
	if err := l.UnmarshalText([]byte("points")); err != nil || l != Points {
		t.Errorf("location %v, %v", l, err)
	}
	if err := l.UnmarshalText([]byte("edges")); err == nil {
		t.Error("expected error")
	}
	var o Order
	if err := o.UnmarshalText([]byte("C")); err != nil || o != RowMajor {
		t.Errorf("order %v, %v", o, err)
	}
}
