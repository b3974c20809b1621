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

// ToCanonical converts field data from the memory layout declared by d
// into canonical layout: axes in x, y(, z) order with the first
// axis varying fastest. Data on meshes and point clouds is already
// canonical and is copied unchanged.
func ToCanonical(d Descriptor, data []float64) ([]float64, error) {
	return convert(d, data, true)
}

// FromCanonical is the inverse of ToCanonical.
func FromCanonical(d Descriptor, data []float64) ([]float64, error) {
	return convert(d, data, false)
}

func convert(d Descriptor, data []float64, toCanonical bool) ([]float64, error) {
	if n := d.DataSize(); len(data) != n {
		return nil, fmt.Errorf("mesh: data has %d values; %v expects %d", len(data), d.Kind(), n)
	}
	out := make([]float64, len(data))
	g, ok := d.(*StructuredGrid)
	if !ok || (g.Order == ColumnMajor && !g.AxesReversed) ||
		(g.Order == RowMajor && g.AxesReversed) {
		copy(out, data)
		return out, nil
	}
	dims := g.locationDims()
	shape := g.DataShape()
	idx := make([]int, len(dims))
	dataIdx := make([]int, len(dims))
	for c := range out {
		copy(dataIdx, idx)
		if g.AxesReversed {
			reverse(dataIdx)
		}
		f := flatIndex(shape, dataIdx, g.Order)
		if toCanonical {
			out[c] = data[f]
		} else {
			out[f] = data[c]
		}
		increment(idx, dims)
	}
	return out, nil
}

// flatIndex returns the position of the multi-index idx in an array
// of the given shape and memory order.
func flatIndex(shape, idx []int, order Order) int {
	f := 0
	if order == RowMajor {
		for i := range idx {
			f = f*shape[i] + idx[i]
		}
		return f
	}
	for i := len(idx) - 1; i >= 0; i-- {
		f = f*shape[i] + idx[i]
	}
	return f
}
