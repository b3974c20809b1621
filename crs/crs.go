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

// Package crs transforms point coordinates between coordinate
// reference systems.
package crs

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/ctessum/geom/proj"
	"github.com/golang/groupcache/lru"
)

// UnsupportedCRSError is returned when a coordinate reference system
// definition cannot be parsed or transformed.
type UnsupportedCRSError struct {
	CRS string
	Err error
}

func (e *UnsupportedCRSError) Error() string {
	return fmt.Sprintf("crs: unsupported coordinate reference system %q: %v", e.CRS, e.Err)
}

func (e *UnsupportedCRSError) Unwrap() error { return e.Err }

// webMercator is the spatial reference definition for web mapping.
const webMercator = "+proj=merc +a=6378137 +b=6378137 +lat_ts=0.0 +lon_0=0.0 +x_0=0.0 +y_0=0 +k=1.0 +units=m +nadgrids=@null +no_defs"

// epsg returns the proj4 definition of a supported EPSG code.
func epsg(code int) (string, bool) {
	switch {
	case code == 4326:
		return "+proj=longlat +datum=WGS84 +no_defs", true
	case code == 4258:
		return "+proj=longlat +ellps=GRS80 +towgs84=0,0,0,0,0,0,0 +no_defs", true
	case code == 4269:
		return "+proj=longlat +datum=NAD83 +no_defs", true
	case code == 3857 || code == 900913:
		return webMercator, true
	case code == 5070:
		return "+proj=aea +lat_1=29.5 +lat_2=45.5 +lat_0=23 +lon_0=-96 +x_0=0 +y_0=0 +datum=NAD83 +units=m +no_defs", true
	case code > 32600 && code <= 32660:
		return fmt.Sprintf("+proj=utm +zone=%d +datum=WGS84 +units=m +no_defs", code-32600), true
	case code > 32700 && code <= 32760:
		return fmt.Sprintf("+proj=utm +zone=%d +south +datum=WGS84 +units=m +no_defs", code-32700), true
	case code > 25800 && code <= 25860:
		// ETRS89 / UTM
		return fmt.Sprintf("+proj=utm +zone=%d +ellps=GRS80 +towgs84=0,0,0,0,0,0,0 +units=m +no_defs", code-25800), true
	}
	return "", false
}

// Definition expands def into the definition passed to the projection
// library: EPSG codes become proj4 strings and whitespace is
// normalized.
func Definition(def string) (string, error) {
	def = strings.Join(strings.Fields(def), " ")
	if len(def) > 5 && strings.EqualFold(def[:5], "EPSG:") {
		code, err := strconv.Atoi(strings.TrimSpace(def[5:]))
		if err != nil {
			return "", &UnsupportedCRSError{CRS: def, Err: err}
		}
		d, ok := epsg(code)
		if !ok {
			return "", &UnsupportedCRSError{CRS: def, Err: fmt.Errorf("EPSG code %d is not in the supported set", code)}
		}
		return d, nil
	}
	return def, nil
}

// Parse parses a proj4 string, WKT definition, or EPSG code
// ("EPSG:4326").
func Parse(def string) (*proj.SR, error) {
	d, err := Definition(def)
	if err != nil {
		return nil, err
	}
	sr, err := proj.Parse(d)
	if err != nil {
		return nil, &UnsupportedCRSError{CRS: def, Err: err}
	}
	return sr, nil
}

// Transformer maps point coordinates from a source to a
// destination coordinate reference system.
type Transformer struct {
	src, dst string
	ct       proj.Transformer
}

// transforms holds recently created transformers keyed by their
// source and destination definitions.
var transforms = struct {
	sync.Mutex
	c *lru.Cache
}{c: lru.New(64)}

// New creates a transformer from src to dst. It returns nil when no
// transform is needed: both systems are undefined, or they are equal
// either textually or after parsing. A nil *Transformer is the identity.
// Transformers are immutable and repeated calls may return the same one.
func New(src, dst string) (*Transformer, error) {
	key := src + "\x00" + dst
	transforms.Lock()
	v, ok := transforms.c.Get(key)
	transforms.Unlock()
	if ok {
		return v.(*Transformer), nil
	}
	t, err := newTransformer(src, dst)
	if err != nil {
		return nil, err
	}
	transforms.Lock()
	transforms.c.Add(key, t)
	transforms.Unlock()
	return t, nil
}

func newTransformer(src, dst string) (*Transformer, error) {
	if strings.TrimSpace(src) == "" && strings.TrimSpace(dst) == "" {
		return nil, nil
	}
	if strings.TrimSpace(src) == "" || strings.TrimSpace(dst) == "" {
		undefined := src
		if undefined == "" {
			undefined = dst
		}
		return nil, &UnsupportedCRSError{CRS: undefined,
			Err: fmt.Errorf("cannot transform between %q and %q: one system is undefined", src, dst)}
	}
	srcDef, err := Definition(src)
	if err != nil {
		return nil, err
	}
	dstDef, err := Definition(dst)
	if err != nil {
		return nil, err
	}
	srcSR, err := Parse(src)
	if err != nil {
		return nil, err
	}
	dstSR, err := Parse(dst)
	if err != nil {
		return nil, err
	}
	if srcDef == dstDef || reflect.DeepEqual(srcSR, dstSR) {
		return nil, nil
	}
	ct, err := srcSR.NewTransform(dstSR)
	if err != nil {
		return nil, &UnsupportedCRSError{CRS: dst, Err: err}
	}
	return &Transformer{src: src, dst: dst, ct: ct}, nil
}

// Source returns the source coordinate reference system.
func (t *Transformer) Source() string { return t.src }

// Destination returns the destination coordinate reference system.
func (t *Transformer) Destination() string { return t.dst }

// Transform returns transformed copies of points. The first two
// coordinates of each point are transformed; any third coordinate is
// passed through. A nil receiver copies the points unchanged.
func (t *Transformer) Transform(points [][]float64) ([][]float64, error) {
	o := make([][]float64, len(points))
	for i, p := range points {
		q := append([]float64(nil), p...)
		if t != nil {
			if len(p) < 2 {
				return nil, fmt.Errorf("crs: point %d has %d coordinates; need at least 2", i, len(p))
			}
			x, y, err := t.ct(p[0], p[1])
			if err != nil {
				return nil, fmt.Errorf("crs: transforming point %d from %s to %s: %w", i, t.src, t.dst, err)
			}
			q[0], q[1] = x, y
		}
		o[i] = q
	}
	return o, nil
}
