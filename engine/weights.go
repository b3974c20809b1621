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
	"sort"

	"github.com/ctessum/sparse"
)

// Weights is a sparse matrix in compressed sparse row format mapping
// source degrees of freedom (columns) to destination degrees of
// freedom (rows). A destination row is mapped if it has at least
// one entry. Weights are immutable once built.
type Weights struct {
	Rows, Cols int

	// RowPtr holds Rows+1 offsets into Col and Val.
	RowPtr []int
	Col    []int
	Val    []float64
}

// NNZ returns the number of stored entries.
func (w *Weights) NNZ() int { return len(w.Val) }

// Row returns the columns and values of row i. The returned
// slices must not be modified.
func (w *Weights) Row(i int) ([]int, []float64) {
	a, b := w.RowPtr[i], w.RowPtr[i+1]
	return w.Col[a:b], w.Val[a:b]
}

// At returns the weight at row i and column j.
func (w *Weights) At(i, j int) float64 {
	cols, vals := w.Row(i)
	k := sort.SearchInts(cols, j)
	if k < len(cols) && cols[k] == j {
		return vals[k]
	}
	return 0
}

// Mapped reports whether row i receives any contribution.
func (w *Weights) Mapped(i int) bool { return w.RowPtr[i+1] > w.RowPtr[i] }

// unmapped returns the indices of the rows without entries.
func (w *Weights) unmapped() []int {
	var o []int
	for i := 0; i < w.Rows; i++ {
		if !w.Mapped(i) {
			o = append(o, i)
		}
	}
	return o
}

// mulAdd adds w·src to dst.
func (w *Weights) mulAdd(dst, src []float64) {
	for i := 0; i < w.Rows; i++ {
		var s float64
		for k := w.RowPtr[i]; k < w.RowPtr[i+1]; k++ {
			s += w.Val[k] * src[w.Col[k]]
		}
		if w.Mapped(i) {
			dst[i] += s
		}
	}
}

// weightBuilder accumulates matrix entries in any order.
// Duplicate entries are summed.
type weightBuilder struct {
	a *sparse.SparseArray
}

func newWeightBuilder(rows, cols int) *weightBuilder {
	return &weightBuilder{a: sparse.ZerosSparse(rows, cols)}
}

func (b *weightBuilder) add(row, col int, val float64) {
	b.a.AddVal(val, row, col)
}

// rowSet returns the rows that have been given an entry.
func (b *weightBuilder) rowSet() map[int]bool {
	cols := b.a.Shape[1]
	o := make(map[int]bool)
	for k := range b.a.Elements {
		o[k/cols] = true
	}
	return o
}

// build converts the accumulated entries to compressed sparse rows.
// Entries that were added are kept even if they sum to zero.
func (b *weightBuilder) build() *Weights {
	rows, cols := b.a.Shape[0], b.a.Shape[1]
	keys := b.a.Nonzero()
	sort.Ints(keys) // row-major
	w := &Weights{
		Rows:   rows,
		Cols:   cols,
		RowPtr: make([]int, rows+1),
		Col:    make([]int, len(keys)),
		Val:    make([]float64, len(keys)),
	}
	for i, k := range keys {
		w.Col[i] = k % cols
		w.Val[i] = b.a.Elements[k]
		w.RowPtr[k/cols+1]++
	}
	for i := 0; i < rows; i++ {
		w.RowPtr[i+1] += w.RowPtr[i]
	}
	return w
}
