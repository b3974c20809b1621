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
)

// Operator holds precomputed regridding weights between a source
// and a destination field.
type Operator struct {
	cfg      Config
	weights  *Weights
	unmapped []int
}

// NewOperator computes the weights mapping values of src to dst
// with the method in cfg. The fields are not modified.
func NewOperator(src, dst *Field, cfg Config) (*Operator, error) {
	w, err := computeWeights(src, dst, cfg)
	if err != nil {
		return nil, err
	}
	return NewOperatorFromWeights(w, cfg)
}

func computeWeights(src, dst *Field, cfg Config) (*Weights, error) {
	cfg = cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if src == nil || dst == nil || src.data == nil || dst.data == nil ||
		src.obj.Destroyed() || dst.obj.Destroyed() {
		return nil, ErrDestroyed
	}
	if src.obj.Dim() != dst.obj.Dim() {
		return nil, fmt.Errorf("engine: source %s is %d-D but destination %s is %d-D",
			src.name, src.obj.Dim(), dst.name, dst.obj.Dim())
	}
	if _, ok := src.obj.(*LocStream); ok && cfg.Method != NearestSTOD && cfg.Method != NearestDTOS {
		return nil, &UnsupportedMethodError{Method: cfg.Method, Reason: "point cloud sources only support nearest neighbor methods"}
	}

	b := newWeightBuilder(dst.Len(), src.Len())
	switch cfg.Method {
	case NearestSTOD:
		nearestSTODWeights(src, dst, b)
	case NearestDTOS:
		nearestDTOSWeights(src, dst, b)
	case Bilinear:
		if err := bilinearWeights(src, dst, b); err != nil {
			return nil, err
		}
	case Conserve, Conserve2nd:
		if err := conserveWeights(src, dst, cfg, b); err != nil {
			return nil, err
		}
	}
	extrapolate(src, dst, cfg, b)
	return b.build(), nil
}

// NewOperatorFromWeights creates an operator from weights computed
// earlier, such as weights held in a WeightCache.
func NewOperatorFromWeights(w *Weights, cfg Config) (*Operator, error) {
	cfg = cfg.Normalize()
	o := &Operator{cfg: cfg, weights: w, unmapped: w.unmapped()}
	if cfg.UnmappedAction == UnmappedError && len(o.unmapped) > 0 {
		return nil, &UnmappedCellError{Count: len(o.unmapped), First: o.unmapped[0]}
	}
	return o, nil
}

// Config returns the configuration the operator was built with.
func (o *Operator) Config() Config { return o.cfg }

// Weights returns the weight matrix, or nil after Destroy.
// The matrix must not be modified.
func (o *Operator) Weights() *Weights { return o.weights }

// Unmapped returns the indices of the destination entries that
// receive no contribution.
func (o *Operator) Unmapped() []int { return append([]int(nil), o.unmapped...) }

// Apply zeroes region of dst and then adds the weighted src values.
// With RegionTotal, unmapped destination entries are reset to NaN.
func (o *Operator) Apply(src, dst *Field, region ZeroRegion) error {
	if o.weights == nil || src.data == nil || dst.data == nil {
		return ErrDestroyed
	}
	in, out := src.Data(), dst.Data()
	if len(in) != o.weights.Cols {
		return &lengthError{what: "source field " + src.name, got: len(in), want: o.weights.Cols}
	}
	if len(out) != o.weights.Rows {
		return &lengthError{what: "destination field " + dst.name, got: len(out), want: o.weights.Rows}
	}
	switch region {
	case RegionTotal:
		for i := range out {
			if o.weights.Mapped(i) {
				out[i] = 0
			} else {
				out[i] = math.NaN()
			}
		}
	case RegionSelect:
		for i := range out {
			if o.weights.Mapped(i) {
				out[i] = 0
			}
		}
	case RegionEmpty:
	default:
		return fmt.Errorf("engine: invalid zero region %v", region)
	}
	o.weights.mulAdd(out, in)
	return nil
}

// Destroy releases the weights. It is safe to call more than once.
func (o *Operator) Destroy() {
	o.weights = nil
	o.unmapped = nil
}
