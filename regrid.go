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

/*
Package regrid spatially reinterpolates field data passed along a
coupling link between two simulation components whose grids differ.

An Adapter sits on the link. It learns the input and output grids
either explicitly or by negotiation, builds a regridding operator
once, and then regrids one upstream value per GetData call:

	r, err := regrid.NewRegrid(engine.Config{Method: engine.Conserve})
	if err != nil {
		return err
	}
	a := regrid.New(link, r, regrid.WithOutputGrid(out))
	defer a.Finalize()
	v, err := a.GetData(t, nil)
*/
package regrid

import (
	"time"

	"github.com/spatialmodel/regrid/mesh"
	"gonum.org/v1/gonum/unit"
)

// Direction identifies a side of the adapter.
type Direction int

const (
	// Input is the upstream side, where data comes from.
	Input Direction = iota
	// Output is the downstream side, where regridded data goes.
	Output
)

func (d Direction) String() string {
	if d == Output {
		return "output"
	}
	return "input"
}

// TaggedArray is one value passed along a link: field data in the
// layout of its grid descriptor, with physical unit and time stamp.
type TaggedArray struct {
	Data []float64

	// Mask marks missing entries. A nil mask means there are none.
	Mask []bool

	// Unit is the physical unit of Data. It may be nil.
	Unit *unit.Unit

	Time time.Time
}

// HasMask reports whether the array carries a mask.
func (a *TaggedArray) HasMask() bool { return a.Mask != nil }

// Link is the part of the coupling framework an Adapter
// pulls from.
type Link interface {
	// PullData returns the upstream value at time t.
	PullData(t time.Time) (*TaggedArray, error)

	// ResolveGridDescriptor returns the grid of the component
	// on side dir of the link.
	ResolveGridDescriptor(dir Direction) (mesh.Descriptor, error)
}
