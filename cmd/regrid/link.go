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

package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ctessum/cdf"
	"github.com/spatialmodel/regrid"
	"github.com/spatialmodel/regrid/mesh"
	"gonum.org/v1/gonum/unit"
)

// fileLink serves input values read from a file, one array per
// time step.
type fileLink struct {
	grid  mesh.Descriptor
	steps [][]float64
	start time.Time
	step  time.Duration
	unit  *unit.Unit
}

func newFileLink(c *Config, grid mesh.Descriptor) (*fileLink, error) {
	u, err := c.Data.unit()
	if err != nil {
		return nil, err
	}
	l := &fileLink{grid: grid, start: c.Data.Start, step: c.step(), unit: u}
	path := c.path(c.Data.File)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("regrid: %w", err)
	}
	defer f.Close()
	if strings.EqualFold(filepath.Ext(path), ".nc") {
		l.steps, err = readNetCDF(f, c.Data.Variable, grid.DataSize())
	} else {
		l.steps, err = readCSV(f, grid.DataSize())
	}
	if err != nil {
		return nil, fmt.Errorf("regrid: reading %s: %w", path, err)
	}
	return l, nil
}

// times returns the time of each step.
func (l *fileLink) times() []time.Time {
	o := make([]time.Time, len(l.steps))
	for i := range o {
		o[i] = l.start.Add(time.Duration(i) * l.step)
	}
	return o
}

// PullData returns the step at t. Missing values are masked.
func (l *fileLink) PullData(t time.Time) (*regrid.TaggedArray, error) {
	i := int(t.Sub(l.start) / l.step)
	if t.Before(l.start) || i >= len(l.steps) {
		return nil, fmt.Errorf("no data at %v", t)
	}
	a := &regrid.TaggedArray{
		Data: append([]float64(nil), l.steps[i]...),
		Unit: l.unit,
		Time: t,
	}
	for j, v := range a.Data {
		if math.IsNaN(v) {
			if a.Mask == nil {
				a.Mask = make([]bool, len(a.Data))
			}
			a.Mask[j] = true
		}
	}
	return a, nil
}

// ResolveGridDescriptor returns the input grid. The output grid is
// always given explicitly.
func (l *fileLink) ResolveGridDescriptor(dir regrid.Direction) (mesh.Descriptor, error) {
	if dir == regrid.Input {
		return l.grid, nil
	}
	return nil, fmt.Errorf("the %v grid is not known to the data file", dir)
}

// readCSV reads n rows with one column per time step.
// Empty fields are missing values.
func readCSV(r io.Reader, n int) ([][]float64, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.Comment = '#'
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) != n {
		return nil, fmt.Errorf("%d rows; the input grid holds %d values", len(rows), n)
	}
	if n == 0 {
		return nil, nil
	}
	steps := make([][]float64, len(rows[0]))
	for i := range steps {
		steps[i] = make([]float64, n)
	}
	for j, row := range rows {
		for i, s := range row {
			if s == "" {
				steps[i][j] = math.NaN()
				continue
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", j+1, err)
			}
			steps[i][j] = v
		}
	}
	return steps, nil
}

// readNetCDF reads a float variable whose size is a multiple of n.
// Each consecutive block of n values is one time step.
func readNetCDF(rw cdf.ReaderWriterAt, variable string, n int) ([][]float64, error) {
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, err
	}
	dims := f.Header.Lengths(variable)
	if len(dims) == 0 {
		return nil, fmt.Errorf("no variable %q", variable)
	}
	size := 1
	for _, d := range dims {
		size *= d
	}
	if n == 0 || size%n != 0 {
		return nil, fmt.Errorf("variable %s has %d values; the input grid holds %d", variable, size, n)
	}
	tmp := make([]float32, size)
	if _, err := f.Reader(variable, nil, nil).Read(tmp); err != nil {
		return nil, err
	}
	steps := make([][]float64, size/n)
	for i := range steps {
		steps[i] = make([]float64, n)
		for j := range steps[i] {
			steps[i][j] = float64(tmp[i*n+j])
		}
	}
	return steps, nil
}
