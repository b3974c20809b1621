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

package regrid

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/regrid/crs"
	"github.com/spatialmodel/regrid/engine"
	"github.com/spatialmodel/regrid/mesh"
)

// errNotBuilt is returned by Apply before Negotiate succeeds
// or after Finalize.
var errNotBuilt = errors.New("regrid: operator has not been built")

// Regrid is the Method that interpolates between two grids with
// an engine operator.
type Regrid struct {
	cfg   engine.Config
	cache *engine.WeightCache
	log   logrus.FieldLogger

	in, out        mesh.Descriptor
	transformer    *crs.Transformer
	srcObj, dstObj engine.Object
	src, dst       *engine.Field
	op             *engine.Operator
}

// RegridOption configures a Regrid.
type RegridOption func(*Regrid)

// WithWeightCache shares weights through c between Regrids
// built on the same grids and configuration.
func WithWeightCache(c *engine.WeightCache) RegridOption {
	return func(r *Regrid) { r.cache = c }
}

// WithRegridLogger sets the logger. The default is the logrus
// standard logger.
func WithRegridLogger(l logrus.FieldLogger) RegridOption {
	return func(r *Regrid) { r.log = l }
}

// NewRegrid creates a Regrid using cfg, with defaults filled in for
// options left at zero.
func NewRegrid(cfg engine.Config, opts ...RegridOption) (*Regrid, error) {
	cfg = cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Regrid{cfg: cfg, log: logrus.StandardLogger()}
	for _, o := range opts {
		o(r)
	}
	return r, nil
}

// Config returns the configuration in use.
func (r *Regrid) Config() engine.Config { return r.cfg }

// Operator returns the regridding operator, or nil if it has not
// been built or has been released.
func (r *Regrid) Operator() *engine.Operator { return r.op }

// Transformer returns the transformation applied to the input grid,
// which is nil when both grids share a coordinate system.
func (r *Regrid) Transformer() *crs.Transformer { return r.transformer }

// Negotiate builds the engine objects for in and out and the operator
// between them. Input coordinates are transformed into the coordinate
// system of the output grid. On failure everything acquired is
// released.
func (r *Regrid) Negotiate(in, out mesh.Descriptor) (err error) {
	if r.op != nil {
		return fmt.Errorf("regrid: operator already built")
	}
	defer func() {
		if err != nil {
			r.release()
		}
	}()
	r.in, r.out = in, out
	if in == nil || out == nil {
		return &engine.UnsupportedGridTypeError{Type: "<nil>"}
	}
	r.transformer, err = crs.New(in.CRS(), out.CRS())
	if err != nil {
		return err
	}
	r.srcObj, r.src, err = engine.Build(in, r.transformer)
	if err != nil {
		return err
	}
	r.dstObj, r.dst, err = engine.Build(out, nil)
	if err != nil {
		return err
	}

	if r.cache != nil {
		var key string
		if key, err = engine.WeightKey(in, out, r.cfg); err != nil {
			return err
		}
		if r.op, err = r.cache.Operator(context.TODO(), key, r.src, r.dst, r.cfg); err != nil {
			return err
		}
	} else if r.op, err = engine.NewOperator(r.src, r.dst, r.cfg); err != nil {
		return err
	}
	r.log.WithFields(logrus.Fields{
		"method":   r.cfg.Method,
		"weights":  r.op.Weights().NNZ(),
		"unmapped": len(r.op.Unmapped()),
	}).Info("regrid: built operator")
	return nil
}

// Apply regrids in onto the output grid.
func (r *Regrid) Apply(in *TaggedArray) (*TaggedArray, error) {
	if r.op == nil {
		return nil, errNotBuilt
	}
	if len(in.Data) != r.in.DataSize() {
		return nil, fmt.Errorf("regrid: input has %d values; the input grid holds %d",
			len(in.Data), r.in.DataSize())
	}
	data, err := mesh.ToCanonical(r.in, in.Data)
	if err != nil {
		return nil, err
	}
	if err := r.src.Set(data); err != nil {
		return nil, err
	}
	r.dst.Fill(math.NaN())
	if err := r.op.Apply(r.src, r.dst, r.cfg.ZeroRegion); err != nil {
		return nil, err
	}
	outData, err := mesh.FromCanonical(r.out, r.dst.Data())
	if err != nil {
		return nil, err
	}
	return &TaggedArray{Data: outData, Unit: in.Unit, Time: in.Time}, nil
}

// Finalize releases the operator, the fields and the engine objects.
func (r *Regrid) Finalize() error {
	r.release()
	return nil
}

func (r *Regrid) release() {
	if r.op != nil {
		r.op.Destroy()
		r.op = nil
	}
	for _, f := range []*engine.Field{r.src, r.dst} {
		if f != nil {
			f.Destroy()
		}
	}
	for _, o := range []engine.Object{r.srcObj, r.dstObj} {
		if o != nil {
			o.Destroy()
		}
	}
	r.src, r.dst, r.srcObj, r.dstObj = nil, nil, nil, nil
}
