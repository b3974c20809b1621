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
	"strings"
)

// Method is an interpolation method.
type Method int

// Interpolation methods. The zero value is Bilinear.
const (
	// Bilinear interpolates linearly within the source cell
	// enclosing each destination point.
	Bilinear Method = iota
	// NearestSTOD maps each destination point to its closest source point.
	NearestSTOD
	// NearestDTOS maps each source point to its closest destination point.
	NearestDTOS
	// Conserve preserves the integral of the field using the
	// overlap area of source and destination cells.
	Conserve
	// Conserve2nd is Conserve with a linear reconstruction
	// of the field within each source cell.
	Conserve2nd
)

var methodNames = []string{"BILINEAR", "NEAREST_STOD", "NEAREST_DTOS", "CONSERVE", "CONSERVE_2ND"}

func (m Method) String() string { return enumString(methodNames, int(m), "Method") }

// UnmarshalText parses a method name such as "CONSERVE_2ND".
func (m *Method) UnmarshalText(b []byte) error {
	return enumParse(methodNames, b, "method", (*int)(m))
}

// MarshalText returns the method name.
func (m Method) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// ExtrapMethod specifies how unmapped destination entries are filled.
type ExtrapMethod int

// Extrapolation methods. The zero value is ExtrapNone.
const (
	ExtrapNone ExtrapMethod = iota
	// ExtrapNearestSTOD fills each unmapped destination
	// from its closest source point.
	ExtrapNearestSTOD
	// ExtrapNearestIDAVG fills each unmapped destination with an
	// inverse-distance weighted average of its closest source points.
	ExtrapNearestIDAVG
	// ExtrapCreepFill is recognized but not supported.
	ExtrapCreepFill
)

var extrapNames = []string{"NONE", "NEAREST_STOD", "NEAREST_IDAVG", "CREEP_FILL"}

func (e ExtrapMethod) String() string { return enumString(extrapNames, int(e), "ExtrapMethod") }

// UnmarshalText parses an extrapolation method name.
func (e *ExtrapMethod) UnmarshalText(b []byte) error {
	return enumParse(extrapNames, b, "extrapolation method", (*int)(e))
}

// MarshalText returns the extrapolation method name.
func (e ExtrapMethod) MarshalText() ([]byte, error) { return []byte(e.String()), nil }

// UnmappedAction specifies what happens when destination
// entries are not mapped by the source.
type UnmappedAction int

const (
	// UnmappedIgnore leaves unmapped destination entries untouched.
	UnmappedIgnore UnmappedAction = iota
	// UnmappedError fails operator construction.
	UnmappedError
)

var unmappedNames = []string{"IGNORE", "ERROR"}

func (u UnmappedAction) String() string { return enumString(unmappedNames, int(u), "UnmappedAction") }

// UnmarshalText parses "IGNORE" or "ERROR".
func (u *UnmappedAction) UnmarshalText(b []byte) error {
	return enumParse(unmappedNames, b, "unmapped action", (*int)(u))
}

// MarshalText returns the unmapped action name.
func (u UnmappedAction) MarshalText() ([]byte, error) { return []byte(u.String()), nil }

// ZeroRegion specifies which destination entries are reset
// before the weights are applied.
type ZeroRegion int

const (
	// RegionTotal zeroes every mapped destination entry and
	// resets every unmapped entry to NaN.
	RegionTotal ZeroRegion = iota
	// RegionSelect zeroes only the mapped destination entries.
	RegionSelect
	// RegionEmpty leaves the destination untouched.
	RegionEmpty
)

var regionNames = []string{"TOTAL", "SELECT", "EMPTY"}

func (z ZeroRegion) String() string { return enumString(regionNames, int(z), "ZeroRegion") }

// UnmarshalText parses "TOTAL", "SELECT", or "EMPTY".
func (z *ZeroRegion) UnmarshalText(b []byte) error {
	return enumParse(regionNames, b, "zero region", (*int)(z))
}

// MarshalText returns the region name.
func (z ZeroRegion) MarshalText() ([]byte, error) { return []byte(z.String()), nil }

// NormType specifies the normalization of conservative weights.
type NormType int

const (
	// NormDstArea divides overlap areas by the destination cell area.
	NormDstArea NormType = iota
	// NormFracArea divides overlap areas by the covered part
	// of the destination cell.
	NormFracArea
)

var normNames = []string{"DSTAREA", "FRACAREA"}

func (n NormType) String() string { return enumString(normNames, int(n), "NormType") }

// UnmarshalText parses "DSTAREA" or "FRACAREA".
func (n *NormType) UnmarshalText(b []byte) error {
	return enumParse(normNames, b, "normalization type", (*int)(n))
}

// MarshalText returns the normalization name.
func (n NormType) MarshalText() ([]byte, error) { return []byte(n.String()), nil }

// Config holds the regridding configuration. The zero value is
// bilinear interpolation without extrapolation, ignoring unmapped
// destination entries, and zeroing the total destination field.
type Config struct {
	Method         Method
	Extrapolation  ExtrapMethod
	UnmappedAction UnmappedAction
	ZeroRegion     ZeroRegion
	NormType       NormType

	// ExtrapNumSrcPoints is the number of source points averaged by
	// ExtrapNearestIDAVG. Zero means 8.
	ExtrapNumSrcPoints int

	// ExtrapDistExponent is the inverse distance exponent used by
	// ExtrapNearestIDAVG. Zero means 2.
	ExtrapDistExponent float64
}

// Normalize returns a copy of c with defaults filled in.
func (c Config) Normalize() Config {
	if c.ExtrapNumSrcPoints == 0 {
		c.ExtrapNumSrcPoints = 8
	}
	if c.ExtrapDistExponent == 0 {
		c.ExtrapDistExponent = 2
	}
	return c
}

// Validate checks that every option is in range and supported.
func (c Config) Validate() error {
	switch {
	case c.Method < Bilinear || c.Method > Conserve2nd:
		return fmt.Errorf("engine: invalid method %v", c.Method)
	case c.Extrapolation < ExtrapNone || c.Extrapolation > ExtrapCreepFill:
		return fmt.Errorf("engine: invalid extrapolation method %v", c.Extrapolation)
	case c.Extrapolation == ExtrapCreepFill:
		return &UnsupportedMethodError{Method: c.Method, Reason: "extrapolation method CREEP_FILL is not supported"}
	case c.UnmappedAction < UnmappedIgnore || c.UnmappedAction > UnmappedError:
		return fmt.Errorf("engine: invalid unmapped action %v", c.UnmappedAction)
	case c.ZeroRegion < RegionTotal || c.ZeroRegion > RegionEmpty:
		return fmt.Errorf("engine: invalid zero region %v", c.ZeroRegion)
	case c.NormType < NormDstArea || c.NormType > NormFracArea:
		return fmt.Errorf("engine: invalid normalization type %v", c.NormType)
	case c.ExtrapNumSrcPoints < 0:
		return fmt.Errorf("engine: negative ExtrapNumSrcPoints %d", c.ExtrapNumSrcPoints)
	}
	return nil
}

func enumString(names []string, i int, typ string) string {
	if i < 0 || i >= len(names) {
		return fmt.Sprintf("%s(%d)", typ, i)
	}
	return names[i]
}

func enumParse(names []string, b []byte, what string, v *int) error {
	s := strings.ToUpper(strings.TrimSpace(string(b)))
	for i, n := range names {
		if s == n {
			*v = i
			return nil
		}
	}
	return fmt.Errorf("engine: invalid %s %q", what, string(b))
}
