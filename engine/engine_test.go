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
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	goshp "github.com/jonas-p/go-shp"
	"github.com/spatialmodel/regrid/crs"
	"github.com/spatialmodel/regrid/mesh"
	"gonum.org/v1/gonum/floats"
)

func build(t *testing.T, d mesh.Descriptor) (Object, *Field) {
	t.Helper()
	o, f, err := Build(d, nil)
	if err != nil {
		t.Fatal(err)
	}
	return o, f
}

// run regrids data from src to dst with cfg and returns the result.
func run(t *testing.T, src, dst mesh.Descriptor, cfg Config, data []float64) []float64 {
	t.Helper()
	_, sf := build(t, src)
	_, df := build(t, dst)
	op, err := NewOperator(sf, df, cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer op.Destroy()
	if err := sf.Set(data); err != nil {
		t.Fatal(err)
	}
	if err := op.Apply(sf, df, cfg.ZeroRegion); err != nil {
		t.Fatal(err)
	}
	return append([]float64(nil), df.Data()...)
}

func spike(n int) []float64 {
	d := make([]float64, n)
	d[0] = 1
	return d
}

func constant(n int, v float64) []float64 {
	d := make([]float64, n)
	for i := range d {
		d[i] = v
	}
	return d
}

func TestBuildGridRoundTrip(t *testing.T) {
	g := mesh.NewRectilinearGrid([][]float64{{0, 1, 3}, {10, 20}}, mesh.Cells)
	o, f := build(t, g)
	grid := o.(*Grid)
	if want := []float64{0, 1, 3, 0, 1, 3}; !reflect.DeepEqual(grid.Coords(0, Corner), want) {
		t.Errorf("corner x: %v != %v", grid.Coords(0, Corner), want)
	}
	if want := []float64{10, 10, 10, 20, 20, 20}; !reflect.DeepEqual(grid.Coords(1, Corner), want) {
		t.Errorf("corner y: %v != %v", grid.Coords(1, Corner), want)
	}
	if want := []float64{0.5, 2}; !reflect.DeepEqual(grid.Coords(0, Center), want) {
		t.Errorf("center x: %v != %v", grid.Coords(0, Center), want)
	}
	if want := []float64{15, 15}; !reflect.DeepEqual(grid.Coords(1, Center), want) {
		t.Errorf("center y: %v != %v", grid.Coords(1, Center), want)
	}
	if !reflect.DeepEqual(grid.MaxIndex(Center), []int{2, 1}) {
		t.Errorf("max index: %v", grid.MaxIndex(Center))
	}
	if !reflect.DeepEqual(f.Shape(), []int{1, 2}) {
		t.Errorf("field shape: %v", f.Shape())
	}
	for i, v := range f.Data() {
		if !math.IsNaN(v) {
			t.Errorf("field value %d = %g; want NaN", i, v)
		}
	}
	o.Destroy()
	o.Destroy()
	if grid.Coords(0, Corner) != nil {
		t.Error("coordinates survive destroy")
	}
}

func TestBuildMesh(t *testing.T) {
	m := &mesh.UnstructuredMesh{
		Points:       [][]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {2, 0}},
		Cells:        [][]int{{0, 1, 2, 3}, {1, 4, 2}},
		CellTypes:    []mesh.CellType{mesh.Quad, mesh.Tri},
		DataLocation: mesh.Points,
	}
	o, f := build(t, m)
	em := o.(*Mesh)
	if !reflect.DeepEqual(em.NodeIDs(), []int{1, 2, 3, 4, 5}) {
		t.Errorf("node ids: %v", em.NodeIDs())
	}
	if !reflect.DeepEqual(em.ElementIDs(), []int{1, 2}) {
		t.Errorf("element ids: %v", em.ElementIDs())
	}
	if !reflect.DeepEqual(em.ElementTypes(), []int{ElemQuad, ElemTri}) {
		t.Errorf("element types: %v", em.ElementTypes())
	}
	if !reflect.DeepEqual(em.ElementConn(), []int{0, 1, 2, 3, 1, 4, 2}) {
		t.Errorf("connectivity: %v", em.ElementConn())
	}
	if want := []float64{0, 0, 1, 0, 1, 1, 0, 1, 2, 0}; !reflect.DeepEqual(em.NodeCoords(), want) {
		t.Errorf("node coords: %v", em.NodeCoords())
	}
	want := []float64{0.5, 0.5, 4. / 3, 1. / 3}
	if !floats.EqualApprox(em.ElementCoords(), want, 1e-12) {
		t.Errorf("element coords: %v != %v", em.ElementCoords(), want)
	}
	if f.Len() != 5 {
		t.Errorf("field length %d != 5", f.Len())
	}
}

func TestBuildLocStream(t *testing.T) {
	p := &mesh.UnstructuredPointCloud{Points: [][]float64{{1, 2}, {3, 4}, {5, 6}}}
	o, f := build(t, p)
	ls := o.(*LocStream)
	if !reflect.DeepEqual(ls.Coords(0), []float64{1, 3, 5}) || !reflect.DeepEqual(ls.Coords(1), []float64{2, 4, 6}) {
		t.Errorf("coords: %v %v", ls.Coords(0), ls.Coords(1))
	}
	if f.Len() != 3 {
		t.Errorf("field length %d != 3", f.Len())
	}
}

func TestBuildTransformed(t *testing.T) {
	tr, err := crs.New("EPSG:4326", "EPSG:3857")
	if err != nil {
		t.Fatal(err)
	}
	g := mesh.NewUniformGrid([]int{2, 2}, []float64{10, 10}, nil, mesh.Points)
	o, _, err := Build(g, tr)
	if err != nil {
		t.Fatal(err)
	}
	x := o.(*Grid).Coords(0, Corner)
	if math.Abs(x[1]-1113194.9079327357) > 0.01 {
		t.Errorf("transformed x = %g", x[1])
	}
}

func TestBuildErrors(t *testing.T) {
	line := &mesh.UnstructuredMesh{
		Points:    [][]float64{{0, 0}, {1, 0}},
		Cells:     [][]int{{0, 1}},
		CellTypes: []mesh.CellType{mesh.Line},
	}
	bad := &mesh.UnstructuredMesh{
		Points:    [][]float64{{0, 0}, {1, 0}, {1, 1}},
		Cells:     [][]int{{0, 1, 7}},
		CellTypes: []mesh.CellType{mesh.Tri},
	}
	flat := &mesh.UnstructuredMesh{
		Points:    [][]float64{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}},
		Cells:     [][]int{{0, 1, 2}},
		CellTypes: []mesh.CellType{mesh.Tri},
	}
	tests := []struct {
		name    string
		d       mesh.Descriptor
		grid    bool
		element bool
	}{
		{name: "nil", d: nil, grid: true},
		{name: "nil grid", d: (*mesh.StructuredGrid)(nil), grid: true},
		{name: "1d grid", d: mesh.NewUniformGrid([]int{4}, nil, nil, mesh.Points), grid: true},
		{name: "line", d: line, element: true},
		{name: "connectivity", d: bad, element: true},
		{name: "surface in 3d", d: flat, element: true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, _, err := Build(test.d, nil)
			var ge *UnsupportedGridTypeError
			var ee *UnsupportedElementError
			if test.grid && !errors.As(err, &ge) {
				t.Errorf("want UnsupportedGridTypeError, got %v", err)
			}
			if test.element && !errors.As(err, &ee) {
				t.Errorf("want UnsupportedElementError, got %v", err)
			}
		})
	}
}

func TestNearestSTOD(t *testing.T) {
	src := mesh.NewUniformGrid([]int{3, 7}, []float64{3, 3}, nil, mesh.Points)
	dst := mesh.NewUniformGrid([]int{9, 19}, nil, nil, mesh.Points)
	out := run(t, src, dst, Config{Method: NearestSTOD}, spike(src.DataSize()))
	at := func(i, j int) float64 { return out[i+9*j] }
	for _, c := range []struct {
		i, j int
		want float64
	}{{0, 0, 1}, {0, 1, 1}, {1, 0, 1}, {1, 1, 1}, {0, 2, 0}, {2, 0, 0}} {
		if v := at(c.i, c.j); v != c.want {
			t.Errorf("(%d,%d) = %g; want %g", c.i, c.j, v, c.want)
		}
	}
}

func TestNearestDTOS(t *testing.T) {
	src := mesh.NewUniformGrid([]int{4, 4}, nil, nil, mesh.Points)
	dst := &mesh.UnstructuredPointCloud{Points: [][]float64{{0, 0}, {3, 3}, {100, 100}}}
	data := constant(16, 1)
	out := run(t, src, dst, Config{Method: NearestDTOS}, data)
	if out[0]+out[1] != 16 {
		t.Errorf("sources lost: %v", out)
	}
	if !math.IsNaN(out[2]) {
		t.Errorf("distant point should be unmapped: %v", out[2])
	}
}

func TestBilinear(t *testing.T) {
	src := mesh.NewUniformGrid([]int{5, 10}, []float64{2, 2}, nil, mesh.Points)
	dst := mesh.NewUniformGrid([]int{9, 19}, nil, nil, mesh.Points)
	out := run(t, src, dst, Config{Method: Bilinear}, spike(src.DataSize()))
	at := func(i, j int) float64 { return out[i+9*j] }
	for _, c := range []struct {
		i, j int
		want float64
	}{{0, 0, 1}, {0, 1, 0.5}, {1, 0, 0.5}, {1, 1, 0.25}, {2, 2, 0}} {
		if v := at(c.i, c.j); math.Abs(v-c.want) > 1e-12 {
			t.Errorf("(%d,%d) = %g; want %g", c.i, c.j, v, c.want)
		}
	}
	for i, v := range out {
		if math.IsNaN(v) {
			t.Errorf("destination %d unmapped", i)
		}
	}
}

func TestBilinearMidpoint(t *testing.T) {
	src := mesh.NewUniformGrid([]int{2, 2}, nil, nil, mesh.Points)
	dst := &mesh.UnstructuredPointCloud{Points: [][]float64{{0.5, 0.5}, {1, 0}, {2, 2}}}
	out := run(t, src, dst, Config{}, []float64{1, 2, 3, 4})
	if math.Abs(out[0]-2.5) > 1e-12 {
		t.Errorf("midpoint = %g; want 2.5", out[0])
	}
	if out[1] != 2 {
		t.Errorf("coincident point = %g; want 2", out[1])
	}
	if !math.IsNaN(out[2]) {
		t.Errorf("outside point = %g; want NaN", out[2])
	}
}

func TestBilinearShapes(t *testing.T) {
	linear := func(p []float64) float64 {
		v := 1.
		for i, x := range p {
			v += float64(i+2) * x
		}
		return v
	}
	tri := &mesh.UnstructuredMesh{
		Points:       [][]float64{{0, 0}, {2, 0}, {0, 2}, {2, 2}},
		Cells:        [][]int{{0, 1, 2}, {1, 3, 2}},
		CellTypes:    []mesh.CellType{mesh.Tri, mesh.Tri},
		DataLocation: mesh.Points,
	}
	tet := &mesh.UnstructuredMesh{
		Points:       [][]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		Cells:        [][]int{{0, 1, 2, 3}},
		CellTypes:    []mesh.CellType{mesh.Tetra},
		DataLocation: mesh.Points,
	}
	hex := mesh.NewUniformGrid([]int{3, 3, 3}, []float64{1, 2, 0.5}, nil, mesh.Points)
	skew := &mesh.UnstructuredMesh{
		Points:       [][]float64{{0, 0}, {3, 0}, {4, 2}, {1, 3}},
		Cells:        [][]int{{0, 1, 2, 3}},
		CellTypes:    []mesh.CellType{mesh.Quad},
		DataLocation: mesh.Points,
	}
	dual := mesh.NewMeshFromGrid(mesh.NewUniformGrid([]int{6, 5}, nil, nil, mesh.Cells), mesh.Cells)

	tests := []struct {
		name string
		src  mesh.Descriptor
		pts  [][]float64
		dof  [][]float64
	}{
		{name: "tri", src: tri, pts: [][]float64{{0.5, 0.5}, {1.5, 1.2}, {2, 2}}, dof: tri.Points},
		{name: "tet", src: tet, pts: [][]float64{{0.2, 0.2, 0.2}, {0, 0, 1}}, dof: tet.Points},
		{name: "hex", src: hex, pts: [][]float64{{0.3, 1.7, 0.1}, {1.5, 3.9, 0.75}}, dof: hex.Points()},
		{name: "skew quad", src: skew, pts: [][]float64{{2, 1}, {1.2, 2.5}}, dof: skew.Points},
		{name: "mesh dual", src: dual, pts: [][]float64{{0.5, 0.5}, {2.1, 1.7}, {4.5, 3.5}}, dof: dual.CellCenters()},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			data := make([]float64, len(test.dof))
			for i, p := range test.dof {
				data[i] = linear(p)
			}
			out := run(t, test.src, &mesh.UnstructuredPointCloud{Points: test.pts}, Config{}, data)
			want := make([]float64, len(test.pts))
			for i, p := range test.pts {
				want[i] = linear(p)
			}
			if !cmp.Equal(out, want, cmpopts.EquateApprox(0, 1e-9)) {
				t.Errorf("%v != %v", out, want)
			}
		})
	}
}

func TestConserve(t *testing.T) {
	src := mesh.NewUniformGrid([]int{5, 10}, []float64{2, 2}, nil, mesh.Cells)
	dst := mesh.NewUniformGrid([]int{9, 19}, nil, nil, mesh.Cells)
	for _, m := range []Method{Conserve, Conserve2nd} {
		t.Run(m.String(), func(t *testing.T) {
			out := run(t, src, dst, Config{Method: m}, spike(src.DataSize()))
			at := func(i, j int) float64 { return out[i+8*j] }
			for _, c := range [][2]int{{0, 0}, {0, 1}, {1, 0}, {1, 1}} {
				if v := at(c[0], c[1]); math.Abs(v-1) > 1e-12 {
					t.Errorf("(%d,%d) = %g; want 1", c[0], c[1], v)
				}
			}
			if v := at(2, 2); v != 0 {
				t.Errorf("(2,2) = %g; want 0", v)
			}
		})
	}
}

func TestConserveConstant(t *testing.T) {
	src := mesh.NewUniformGrid([]int{6, 6}, nil, nil, mesh.Cells)
	dst := mesh.NewUniformGrid([]int{4, 4}, []float64{5. / 3, 5. / 3}, nil, mesh.Cells)
	skewed := &mesh.UnstructuredMesh{
		Points:       [][]float64{{0, 0}, {5, 0}, {0, 5}, {5, 5}, {2, 3}},
		Cells:        [][]int{{0, 1, 4}, {1, 3, 4}, {3, 2, 4}, {2, 0, 4}},
		CellTypes:    []mesh.CellType{mesh.Tri, mesh.Tri, mesh.Tri, mesh.Tri},
		DataLocation: mesh.Cells,
	}
	src3 := mesh.NewUniformGrid([]int{3, 3, 3}, nil, nil, mesh.Cells)
	dst3 := mesh.NewUniformGrid([]int{2, 3, 5}, []float64{2, 1, 0.5}, nil, mesh.Cells)
	tests := []struct {
		name     string
		src, dst mesh.Descriptor
	}{
		{name: "grid", src: src, dst: dst},
		{name: "triangles", src: src, dst: skewed},
		{name: "reverse", src: skewed, dst: src},
		{name: "boxes", src: src3, dst: dst3},
	}
	for _, test := range tests {
		for _, m := range []Method{Conserve, Conserve2nd} {
			t.Run(test.name+"/"+m.String(), func(t *testing.T) {
				out := run(t, test.src, test.dst, Config{Method: m}, constant(test.src.DataSize(), 3))
				if !cmp.Equal(out, constant(len(out), 3), cmpopts.EquateApprox(0, 1e-9)) {
					t.Errorf("constant not preserved: %v", out)
				}
			})
		}
	}
}

// TestConserveIntegral checks that second order remapping preserves
// the integral of a non-constant field.
func TestConserveIntegral(t *testing.T) {
	src := mesh.NewUniformGrid([]int{7, 7}, nil, nil, mesh.Cells)
	dst := mesh.NewUniformGrid([]int{4, 5}, []float64{2, 1.5}, nil, mesh.Cells)
	data := make([]float64, src.DataSize())
	for i, c := range src.CellCenters() {
		data[i] = c[0]*c[0] + 3*c[1]
	}
	for _, m := range []Method{Conserve, Conserve2nd} {
		t.Run(m.String(), func(t *testing.T) {
			out := run(t, src, dst, Config{Method: m}, data)
			got := floats.Sum(out) * 2 * 1.5
			want := floats.Sum(data)
			if math.Abs(got-want) > 1e-9*want {
				t.Errorf("integral %g != %g", got, want)
			}
		})
	}
}

func TestConserveFracArea(t *testing.T) {
	src := mesh.NewUniformGrid([]int{3, 3}, nil, nil, mesh.Cells)
	dst := mesh.NewUniformGrid([]int{2, 2}, []float64{4, 4}, []float64{-1, -1}, mesh.Cells)
	out := run(t, src, dst, Config{Method: Conserve}, constant(4, 2))
	if math.Abs(out[0]-0.5) > 1e-12 {
		t.Errorf("DSTAREA = %g; want 0.5", out[0])
	}
	out = run(t, src, dst, Config{Method: Conserve, NormType: NormFracArea}, constant(4, 2))
	if math.Abs(out[0]-2) > 1e-12 {
		t.Errorf("FRACAREA = %g; want 2", out[0])
	}
}

func TestMeshRoundTrip(t *testing.T) {
	m := mesh.NewMeshFromGrid(mesh.NewUniformGrid([]int{16, 13}, nil, nil, mesh.Cells), mesh.Cells)
	data := make([]float64, m.DataSize())
	for i := range data {
		data[i] = float64(i % 7)
	}
	for _, method := range []Method{NearestSTOD, NearestDTOS, Conserve, Conserve2nd} {
		t.Run(method.String(), func(t *testing.T) {
			out := run(t, m, m, Config{Method: method}, data)
			if !cmp.Equal(out, data, cmpopts.EquateApprox(0, 1e-9)) {
				t.Errorf("%v != %v", out, data)
			}
		})
	}
	t.Run("BILINEAR", func(t *testing.T) {
		out := run(t, m, m, Config{Method: Bilinear}, data)
		if !cmp.Equal(out, data, cmpopts.EquateApprox(0, 1e-9)) {
			t.Errorf("%v != %v", out, data)
		}
	})
}

func TestUnmapped(t *testing.T) {
	src := mesh.NewUniformGrid([]int{3, 3}, nil, nil, mesh.Points)
	dst := mesh.NewUniformGrid([]int{5, 2}, nil, nil, mesh.Points)
	data := constant(9, 4)

	out := run(t, src, dst, Config{}, data)
	for i, want := range []float64{4, 4, 4, math.NaN(), math.NaN()} {
		if !(out[i] == want || math.IsNaN(out[i]) && math.IsNaN(want)) {
			t.Errorf("ignore: %d = %g; want %g", i, out[i], want)
		}
	}

	_, sf := build(t, src)
	_, df := build(t, dst)
	_, err := NewOperator(sf, df, Config{UnmappedAction: UnmappedError})
	var ue *UnmappedCellError
	if !errors.As(err, &ue) {
		t.Fatalf("want UnmappedCellError, got %v", err)
	}
	if ue.Count != 4 || ue.First != 3 {
		t.Errorf("unmapped %+v", ue)
	}

	for _, e := range []ExtrapMethod{ExtrapNearestSTOD, ExtrapNearestIDAVG} {
		cfg := Config{UnmappedAction: UnmappedError, Extrapolation: e}
		out := run(t, src, dst, cfg, data)
		if !cmp.Equal(out, constant(10, 4), cmpopts.EquateApprox(0, 1e-12)) {
			t.Errorf("%v: %v", e, out)
		}
	}
}

func TestZeroRegion(t *testing.T) {
	src := mesh.NewUniformGrid([]int{2, 2}, nil, nil, mesh.Points)
	dst := &mesh.UnstructuredPointCloud{Points: [][]float64{{0, 0}, {5, 5}}}
	_, sf := build(t, src)
	_, df := build(t, dst)
	op, err := NewOperator(sf, df, Config{})
	if err != nil {
		t.Fatal(err)
	}
	if err := sf.Set([]float64{1, 2, 3, 4}); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		region ZeroRegion
		want   []float64
	}{
		{region: RegionTotal, want: []float64{1, math.NaN()}},
		{region: RegionSelect, want: []float64{1, 7}},
		{region: RegionEmpty, want: []float64{8, 7}},
	}
	for _, test := range tests {
		t.Run(test.region.String(), func(t *testing.T) {
			if err := df.Set([]float64{7, 7}); err != nil {
				t.Fatal(err)
			}
			if err := op.Apply(sf, df, test.region); err != nil {
				t.Fatal(err)
			}
			if !cmp.Equal(df.Data(), test.want, cmpopts.EquateNaNs()) {
				t.Errorf("%v != %v", df.Data(), test.want)
			}
		})
	}
}

func TestOperatorErrors(t *testing.T) {
	pts := mesh.NewUniformGrid([]int{3, 3}, nil, nil, mesh.Points)
	cells := mesh.NewUniformGrid([]int{3, 3}, nil, nil, mesh.Cells)
	cloud := &mesh.UnstructuredPointCloud{Points: [][]float64{{0, 0}, {1, 1}}}
	tests := []struct {
		name     string
		src, dst mesh.Descriptor
		cfg      Config
	}{
		{name: "conserve points", src: pts, dst: cells, cfg: Config{Method: Conserve}},
		{name: "conserve 2nd points", src: cells, dst: pts, cfg: Config{Method: Conserve2nd}},
		{name: "bilinear cloud", src: cloud, dst: pts, cfg: Config{}},
		{name: "creep fill", src: pts, dst: pts, cfg: Config{Extrapolation: ExtrapCreepFill}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, sf := build(t, test.src)
			_, df := build(t, test.dst)
			_, err := NewOperator(sf, df, test.cfg)
			var me *UnsupportedMethodError
			if !errors.As(err, &me) {
				t.Errorf("want UnsupportedMethodError, got %v", err)
			}
		})
	}
}

func TestDestroy(t *testing.T) {
	g := mesh.NewUniformGrid([]int{3, 3}, nil, nil, mesh.Points)
	_, sf := build(t, g)
	_, df := build(t, g)
	op, err := NewOperator(sf, df, Config{Method: NearestSTOD})
	if err != nil {
		t.Fatal(err)
	}
	if op.Weights().NNZ() != 9 {
		t.Errorf("nnz = %d", op.Weights().NNZ())
	}
	op.Destroy()
	op.Destroy()
	if err := op.Apply(sf, df, RegionTotal); err != ErrDestroyed {
		t.Errorf("apply after destroy: %v", err)
	}
	sf.Destroy()
	if err := sf.Set(make([]float64, 9)); err != ErrDestroyed {
		t.Errorf("set after destroy: %v", err)
	}
	if _, err := NewOperator(sf, df, Config{}); err != ErrDestroyed {
		t.Errorf("operator on destroyed field: %v", err)
	}
}

func TestWeightKey(t *testing.T) {
	a := mesh.NewUniformGrid([]int{3, 3}, nil, nil, mesh.Points)
	b := mesh.NewUniformGrid([]int{4, 4}, nil, nil, mesh.Points)
	k1, err := WeightKey(a, b, Config{})
	if err != nil {
		t.Fatal(err)
	}
	k2, _ := WeightKey(a, b, Config{ExtrapNumSrcPoints: 8})
	k3, _ := WeightKey(a, b, Config{Method: Conserve})
	k4, _ := WeightKey(b, a, Config{})
	if k1 != k2 {
		t.Error("defaults should not change the key")
	}
	if k1 == k3 || k1 == k4 {
		t.Error("keys should differ")
	}
}

func TestWeightCacheOperator(t *testing.T) {
	a := mesh.NewUniformGrid([]int{3, 3}, nil, nil, mesh.Points)
	b := mesh.NewUniformGrid([]int{5, 5}, []float64{0.5, 0.5}, nil, mesh.Points)
	_, sf := build(t, a)
	_, df := build(t, b)
	dir := t.TempDir()
	ctx := context.Background()

	tests := []struct {
		name     string
		cfg      Config
		computed int
	}{
		{name: "first", cfg: Config{Method: Bilinear}, computed: 1},
		{name: "repeat", cfg: Config{Method: Bilinear}, computed: 1},
		{name: "other method", cfg: Config{Method: NearestSTOD}, computed: 2},
	}
	c := NewWeightCache(4, dir)
	var first *Weights
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			key, err := WeightKey(a, b, test.cfg)
			if err != nil {
				t.Fatal(err)
			}
			op, err := c.Operator(ctx, key, sf, df, test.cfg)
			if err != nil {
				t.Fatal(err)
			}
			if c.Computed() != test.computed {
				t.Errorf("computed %d != %d", c.Computed(), test.computed)
			}
			want, err := NewOperator(sf, df, test.cfg)
			if err != nil {
				t.Fatal(err)
			}
			if !cmp.Equal(op.Weights(), want.Weights()) {
				t.Errorf("weights: %s", cmp.Diff(want.Weights(), op.Weights()))
			}
			if first == nil {
				first = op.Weights()
			} else if test.name == "repeat" && op.Weights() != first {
				t.Error("repeated request should share weights")
			}
		})
	}

	// Stored weight files may still be in flight.
	for deadline := time.Now().Add(5 * time.Second); ; time.Sleep(10 * time.Millisecond) {
		files, err := os.ReadDir(dir)
		if err != nil {
			t.Fatal(err)
		}
		if len(files) >= 2 || time.Now().After(deadline) {
			break
		}
	}

	// A new cache on the same directory reads the stored weights.
	c2 := NewWeightCache(4, dir)
	key, _ := WeightKey(a, b, Config{Method: Bilinear})
	op, err := c2.Operator(ctx, key, sf, df, Config{Method: Bilinear})
	if err != nil {
		t.Fatal(err)
	}
	if c2.Computed() != 0 {
		t.Errorf("computed %d weight matrices; want them read from %s", c2.Computed(), dir)
	}
	if !cmp.Equal(op.Weights(), first) {
		t.Errorf("stored weights: %s", cmp.Diff(first, op.Weights()))
	}
}

func TestWeightCacheUnmapped(t *testing.T) {
	a := mesh.NewUniformGrid([]int{3, 3}, nil, nil, mesh.Points)
	b := mesh.NewUniformGrid([]int{5, 5}, nil, nil, mesh.Points)
	_, sf := build(t, a)
	_, df := build(t, b)
	cfg := Config{Method: Bilinear, UnmappedAction: UnmappedError}
	key, _ := WeightKey(a, b, cfg)
	_, err := NewWeightCache(0, "").Operator(context.Background(), key, sf, df, cfg)
	var ue *UnmappedCellError
	if !errors.As(err, &ue) {
		t.Errorf("want UnmappedCellError, got %v", err)
	}
}

func TestWeights(t *testing.T) {
	b := newWeightBuilder(3, 2)
	b.add(2, 1, 0.5)
	b.add(0, 0, 1)
	b.add(2, 1, 0.25)
	b.add(2, 0, 0.25)
	w := b.build()
	if !reflect.DeepEqual(w.RowPtr, []int{0, 1, 1, 3}) {
		t.Errorf("row pointers: %v", w.RowPtr)
	}
	if w.At(2, 1) != 0.75 || w.At(1, 0) != 0 {
		t.Errorf("values: %v", w.Val)
	}
	if !reflect.DeepEqual(w.unmapped(), []int{1}) {
		t.Errorf("unmapped: %v", w.unmapped())
	}
	dst := []float64{0, 0, 0}
	w.mulAdd(dst, []float64{4, 8})
	if !reflect.DeepEqual(dst, []float64{4, 0, 7}) {
		t.Errorf("product: %v", dst)
	}

	b = newWeightBuilder(2, 2)
	b.add(1, 0, 0.5)
	b.add(1, 0, -0.5)
	if w := b.build(); !w.Mapped(1) || w.Mapped(0) || w.NNZ() != 1 {
		t.Errorf("cancelling entries: %+v", w)
	}
}

func TestShapes(t *testing.T) {
	_, f := build(t, mesh.NewUniformGrid([]int{3, 2}, nil, nil, mesh.Cells))
	f.Fill(0)
	shapes, err := Shapes(f)
	if err != nil {
		t.Fatal(err)
	}
	if len(shapes) != 2 {
		t.Fatalf("%d shapes", len(shapes))
	}
	b := shapes[1].Bounds()
	if b.Min.X != 1 || b.Max.X != 2 || b.Min.Y != 0 || b.Max.Y != 1 {
		t.Errorf("bounds %+v", b)
	}
}

func TestWriteShapefile(t *testing.T) {
	tests := []struct {
		name  string
		d     mesh.Descriptor
		shape goshp.ShapeType
		n     int
	}{
		{name: "cells", d: mesh.NewUniformGrid([]int{3, 2}, nil, nil, mesh.Cells), shape: goshp.POLYGON, n: 2},
		{name: "points", d: mesh.NewUniformGrid([]int{3, 2}, nil, nil, mesh.Points), shape: goshp.POINT, n: 6},
		{name: "cloud", d: &mesh.UnstructuredPointCloud{Points: [][]float64{{0, 0}, {1, 2}}}, shape: goshp.POINT, n: 2},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, f := build(t, test.d)
			data := make([]float64, f.Len())
			for i := range data {
				data[i] = float64(i) + 0.5
			}
			if err := f.Set(data); err != nil {
				t.Fatal(err)
			}
			path := filepath.Join(t.TempDir(), test.name+".shp")
			if err := WriteShapefile(path, f); err != nil {
				t.Fatal(err)
			}
			r, err := goshp.Open(path)
			if err != nil {
				t.Fatal(err)
			}
			defer r.Close()
			if r.GeometryType != test.shape {
				t.Errorf("shape type %v != %v", r.GeometryType, test.shape)
			}
			n := 0
			for r.Next() {
				i, _ := r.Shape()
				v, err := strconv.ParseFloat(strings.Trim(r.ReadAttribute(i, 1), " \x00"), 64)
				if err != nil {
					t.Fatal(err)
				}
				if v != data[i] {
					t.Errorf("record %d: value %g != %g", i, v, data[i])
				}
				n++
			}
			if n != test.n {
				t.Errorf("%d records != %d", n, test.n)
			}
		})
	}
}
