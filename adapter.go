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
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/regrid/mesh"
)

// State is the lifecycle state of an Adapter.
type State int

// Adapter states, in the order they are reached.
const (
	Created State = iota
	SpecsNegotiated
	OperatorBuilt
	Active
	Finalized
)

var stateNames = []string{"Created", "SpecsNegotiated", "OperatorBuilt", "Active", "Finalized"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Method is the grid-specific part of an adapter. Negotiate is called
// once with both grids, Apply once per value, and Finalize once at
// the end.
type Method interface {
	Negotiate(in, out mesh.Descriptor) error
	Apply(in *TaggedArray) (*TaggedArray, error)
	Finalize() error
}

// Adapter regrids the values pulled through a Link.
// It is not safe for concurrent use.
type Adapter struct {
	link   Link
	method Method
	log    logrus.FieldLogger

	grids    [2]mesh.Descriptor
	explicit [2]bool
	state    State
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithInputGrid fixes the input grid. A grid supplied later through
// Negotiate is ignored.
func WithInputGrid(d mesh.Descriptor) Option {
	return func(a *Adapter) {
		a.grids[Input], a.explicit[Input] = d, d != nil
	}
}

// WithOutputGrid fixes the output grid. A grid supplied later through
// Negotiate is ignored.
func WithOutputGrid(d mesh.Descriptor) Option {
	return func(a *Adapter) {
		a.grids[Output], a.explicit[Output] = d, d != nil
	}
}

// WithLogger sets the logger. The default is the logrus
// standard logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(a *Adapter) { a.log = l }
}

// New creates an adapter pulling from link and regridding with m.
func New(link Link, m Method, opts ...Option) *Adapter {
	a := &Adapter{link: link, method: m, log: logrus.StandardLogger()}
	for _, o := range opts {
		o(a)
	}
	a.checkSpecs()
	return a
}

// State returns the current lifecycle state.
func (a *Adapter) State() State { return a.state }

// Grid returns the grid on side dir, or nil if it is not yet known.
func (a *Adapter) Grid(dir Direction) mesh.Descriptor { return a.grids[dir] }

func (a *Adapter) checkSpecs() {
	if a.state == Created && a.grids[Input] != nil && a.grids[Output] != nil {
		a.state = SpecsNegotiated
		a.log.WithFields(logrus.Fields{
			"input":  a.grids[Input].Kind(),
			"output": a.grids[Output].Kind(),
		}).Debug("regrid: grid specifications negotiated")
	}
}

// Negotiate supplies the grid on side dir, as learned from the
// component connected there.
func (a *Adapter) Negotiate(dir Direction, d mesh.Descriptor) error {
	switch {
	case a.state == Finalized:
		return &FinalizedError{Op: "Negotiate"}
	case a.state >= OperatorBuilt:
		return fmt.Errorf("regrid: cannot change the %v grid after the operator is built", dir)
	case dir != Input && dir != Output:
		return fmt.Errorf("regrid: invalid direction %d", int(dir))
	case d == nil:
		return &UnresolvedGridError{Direction: dir, Err: fmt.Errorf("nil grid")}
	}
	if a.explicit[dir] {
		a.log.WithField("direction", dir).Debug("regrid: keeping explicitly configured grid")
		return nil
	}
	a.grids[dir] = d
	a.checkSpecs()
	return nil
}

// Initialize resolves any grids that are still unknown through the
// link and builds the regridding operator. It does nothing if the
// operator has already been built.
func (a *Adapter) Initialize() error {
	if a.state == Finalized {
		return &FinalizedError{Op: "Initialize"}
	}
	if a.state >= OperatorBuilt {
		return nil
	}
	for _, dir := range []Direction{Input, Output} {
		if a.grids[dir] != nil {
			continue
		}
		d, err := a.link.ResolveGridDescriptor(dir)
		if err != nil {
			return &UnresolvedGridError{Direction: dir, Err: err}
		}
		if d == nil {
			return &UnresolvedGridError{Direction: dir}
		}
		a.grids[dir] = d
	}
	a.checkSpecs()
	if err := a.method.Negotiate(a.grids[Input], a.grids[Output]); err != nil {
		return err
	}
	a.state = OperatorBuilt
	return nil
}

// GetData pulls the upstream value at t and returns it regridded onto
// the output grid, with the same unit and time. target is reserved
// and ignored.
func (a *Adapter) GetData(t time.Time, target any) (*TaggedArray, error) {
	if a.state == Finalized {
		return nil, &FinalizedError{Op: "GetData"}
	}
	if err := a.Initialize(); err != nil {
		return nil, err
	}
	in, err := a.link.PullData(t)
	if err != nil {
		return nil, fmt.Errorf("regrid: pulling data at %v: %w", t, err)
	}
	if in == nil {
		return nil, fmt.Errorf("regrid: no data at %v", t)
	}
	if in.HasMask() {
		n := 0
		for _, m := range in.Mask {
			if m {
				n++
			}
		}
		err := &MaskedDataError{Time: t, Masked: n}
		a.log.WithField("time", t).Error(err)
		return nil, err
	}
	out, err := a.method.Apply(in)
	if err != nil {
		return nil, err
	}
	a.state = Active
	return out, nil
}

// Finalize releases the operator and the engine objects. It is safe
// to call more than once.
func (a *Adapter) Finalize() error {
	if a.state == Finalized {
		return nil
	}
	a.state = Finalized
	a.log.Debug("regrid: finalizing")
	return a.method.Finalize()
}
