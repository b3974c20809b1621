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
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/golang/geo/s2"
	"github.com/spatialmodel/regrid/engine"
	"github.com/spatialmodel/regrid/mesh"
	"github.com/spatialmodel/regrid/mesh/hilbert"
	"github.com/spatialmodel/regrid/plot"
	"gonum.org/v1/gonum/unit"
)

// Config is the run configuration, read from a TOML file.
type Config struct {
	// Regrid holds the method and its options.
	Regrid engine.Config

	// Input and Output are the grids on either side.
	Input, Output GridConfig

	// Data describes the input values.
	Data DataConfig

	// Write lists the output files. Empty entries are skipped.
	Write struct {
		CSV       string
		Shapefile string
		PNG       string
	}

	// CacheSize is the number of weight matrices kept in memory for
	// reuse, and CacheDir a directory where they are also stored
	// between runs. The cache is disabled when both are unset.
	CacheSize int
	CacheDir  string

	dir string
}

// GridConfig describes one grid.
type GridConfig struct {
	// Type is one of "uniform", "rectilinear", "points", or "hilbert".
	Type string

	// Dims, Spacing and Origin define uniform grids.
	Dims            []int
	Spacing, Origin []float64

	// Axes holds the vertex coordinates of rectilinear grids.
	Axes [][]float64

	// Points holds the coordinates of point clouds.
	Points [][]float64

	// Bounds ([minLon, minLat, maxLon, maxLat]) and Level define
	// hilbert meshes.
	Bounds []float64
	Level  int

	Location     mesh.Location
	Order        mesh.Order
	AxesReversed bool
	Proj         string
}

// DataConfig describes the input values.
type DataConfig struct {
	// File is a CSV file with one row per input entry and one
	// column per time step, or a NetCDF file (".nc").
	File string

	// Variable is the NetCDF variable to read.
	Variable string

	// Units holds the power of each base dimension of the values,
	// for example {mass = 1, length = -3}.
	Units map[string]int

	// Start is the time of the first step and Step the interval
	// between steps, by default "24h".
	Start time.Time
	Step  string
}

// LoadConfig reads the configuration at path. Relative file names
// in it are relative to the directory of path.
func LoadConfig(path string) (*Config, error) {
	c := new(Config)
	if _, err := toml.DecodeFile(path, c); err != nil {
		return nil, fmt.Errorf("regrid: reading configuration: %w", err)
	}
	c.dir = filepath.Dir(path)
	if c.Data.File == "" {
		return nil, fmt.Errorf("regrid: configuration has no Data.File")
	}
	if c.Data.Step != "" {
		if d, err := time.ParseDuration(c.Data.Step); err != nil || d <= 0 {
			return nil, fmt.Errorf("regrid: invalid Data.Step %q", c.Data.Step)
		}
	}
	return c, nil
}

// path resolves a file name from the configuration.
func (c *Config) path(p string) string {
	p = os.ExpandEnv(p)
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.dir, p)
}

func (c *Config) step() time.Duration {
	if c.Data.Step == "" {
		return 24 * time.Hour
	}
	d, _ := time.ParseDuration(c.Data.Step)
	return d
}

var dimNames = map[string]unit.Dimension{
	"current":     unit.CurrentDim,
	"length":      unit.LengthDim,
	"luminous":    unit.LuminousIntensityDim,
	"mass":        unit.MassDim,
	"amount":      unit.MoleDim,
	"temperature": unit.TemperatureDim,
	"time":        unit.TimeDim,
	"angle":       unit.AngleDim,
}

// unit returns the unit of the input values, or nil if none is given.
func (d DataConfig) unit() (*unit.Unit, error) {
	if len(d.Units) == 0 {
		return nil, nil
	}
	dims := make(unit.Dimensions)
	for name, pow := range d.Units {
		dim, ok := dimNames[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("regrid: unknown unit dimension %q", name)
		}
		dims[dim] = pow
	}
	return unit.New(1, dims), nil
}

// Descriptor creates the grid. For hilbert meshes it also returns the
// mesh edges in degrees, for drawing.
func (g GridConfig) Descriptor() (mesh.Descriptor, []plot.XYs, error) {
	var d mesh.Descriptor
	var edges []plot.XYs
	switch strings.ToLower(g.Type) {
	case "uniform":
		s := mesh.NewUniformGrid(g.Dims, g.Spacing, g.Origin, g.Location)
		s.Order, s.AxesReversed, s.Proj = g.Order, g.AxesReversed, g.Proj
		d = s
	case "rectilinear":
		s := mesh.NewRectilinearGrid(g.Axes, g.Location)
		s.Order, s.AxesReversed, s.Proj = g.Order, g.AxesReversed, g.Proj
		d = s
	case "points":
		d = &mesh.UnstructuredPointCloud{Points: g.Points, Proj: g.Proj}
	case "hilbert":
		if len(g.Bounds) != 4 {
			return nil, nil, fmt.Errorf("regrid: hilbert grid needs 4 bounds; got %d", len(g.Bounds))
		}
		if g.Proj != "" && !strings.EqualFold(g.Proj, "EPSG:4326") {
			return nil, nil, fmt.Errorf("regrid: hilbert grids are in EPSG:4326; got %s", g.Proj)
		}
		m := hilbert.NewMesh2D(hilbert.Bounds(g.Bounds[0], g.Bounds[1], g.Bounds[2], g.Bounds[3]), g.Level)
		d = m.Descriptor(g.Location)
		edges = m.PlotEdges(s2.NewPlateCarreeProjection(180))
	default:
		return nil, nil, fmt.Errorf("regrid: unknown grid type %q", g.Type)
	}
	if err := d.Validate(); err != nil {
		return nil, nil, fmt.Errorf("regrid: %s grid: %w", g.Type, err)
	}
	return d, edges, nil
}
