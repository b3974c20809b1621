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
)

// UnresolvedGridError is returned when the grid on one side of the
// adapter is neither given nor obtainable from the link.
type UnresolvedGridError struct {
	Direction Direction
	Err       error
}

func (e *UnresolvedGridError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("regrid: %v grid is not resolved", e.Direction)
	}
	return fmt.Sprintf("regrid: %v grid is not resolved: %v", e.Direction, e.Err)
}

func (e *UnresolvedGridError) Unwrap() error { return e.Err }

// MaskedDataError is returned when upstream data carries a mask.
// Masked data is never regridded.
type MaskedDataError struct {
	Time time.Time

	// Masked is the number of masked entries.
	Masked int
}

func (e *MaskedDataError) Error() string {
	return fmt.Sprintf("regrid: data at %v has %d masked entries; regridding masked data is not supported",
		e.Time.Format(time.RFC3339), e.Masked)
}

// FinalizedError is returned when an adapter is used after Finalize.
type FinalizedError struct {
	Op string
}

func (e *FinalizedError) Error() string {
	return fmt.Sprintf("regrid: %s called after finalize", e.Op)
}
