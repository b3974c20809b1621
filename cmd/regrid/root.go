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
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/regrid"
	"github.com/spatialmodel/regrid/engine"
	"github.com/spatialmodel/regrid/mesh"
	"github.com/spatialmodel/regrid/plot"
	"github.com/spf13/cobra"
)

func newRootCommand(log *logrus.Logger) *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:   "regrid",
		Short: "Regrid field data between grids, meshes and point clouds",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				log.SetLevel(logrus.DebugLevel)
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debugging information")
	root.AddCommand(newRunCommand(log), newGridCommand(log))
	return root
}

func newRunCommand(log *logrus.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "run config.toml",
		Short: "Regrid the data described in a configuration file",
		Long: `run reads the input values and grids described in the configuration file,
regrids every time step onto the output grid, and writes the results. The
CSV output has one row per output entry and one column per time step; the
shapefile and PNG outputs hold the last time step.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := LoadConfig(args[0])
			if err != nil {
				return err
			}
			return run(c, log)
		},
	}
}

func newGridCommand(log *logrus.Logger) *cobra.Command {
	var output bool
	cmd := &cobra.Command{
		Use:   "grid config.toml shapefile",
		Short: "Write the input (or output) grid of a configuration file as a shapefile",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := LoadConfig(args[0])
			if err != nil {
				return err
			}
			g := c.Input
			if output {
				g = c.Output
			}
			d, _, err := g.Descriptor()
			if err != nil {
				return err
			}
			_, f, err := engine.Build(d, nil)
			if err != nil {
				return err
			}
			f.Fill(0)
			log.WithFields(logrus.Fields{"type": g.Type, "size": d.DataSize()}).Info("writing grid")
			return engine.WriteShapefile(args[1], f)
		},
	}
	cmd.Flags().BoolVar(&output, "output", false, "write the output grid")
	return cmd
}

// run regrids every time step of the input data.
func run(c *Config, log logrus.FieldLogger) error {
	in, _, err := c.Input.Descriptor()
	if err != nil {
		return fmt.Errorf("input: %w", err)
	}
	out, edges, err := c.Output.Descriptor()
	if err != nil {
		return fmt.Errorf("output: %w", err)
	}
	link, err := newFileLink(c, in)
	if err != nil {
		return err
	}
	var opts []regrid.RegridOption
	if c.CacheSize > 0 || c.CacheDir != "" {
		dir := c.path(c.CacheDir)
		if dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("regrid: creating weight cache: %w", err)
			}
		}
		opts = append(opts, regrid.WithWeightCache(engine.NewWeightCache(c.CacheSize, dir)))
	}
	opts = append(opts, regrid.WithRegridLogger(log))
	r, err := regrid.NewRegrid(c.Regrid, opts...)
	if err != nil {
		return err
	}
	a := regrid.New(link, r, regrid.WithOutputGrid(out), regrid.WithLogger(log))
	defer a.Finalize()

	var results [][]float64
	for _, t := range link.times() {
		v, err := a.GetData(t, nil)
		if err != nil {
			return err
		}
		log.WithField("time", t).Debug("regridded")
		results = append(results, v.Data)
	}
	if len(results) == 0 {
		return fmt.Errorf("regrid: no input data")
	}
	if p := c.path(c.Write.CSV); p != "" {
		if err := writeCSV(p, results); err != nil {
			return err
		}
	}
	if c.Write.Shapefile == "" && c.Write.PNG == "" {
		return nil
	}
	f, err := outputField(out, results[len(results)-1])
	if err != nil {
		return err
	}
	if p := c.path(c.Write.Shapefile); p != "" {
		if err := engine.WriteShapefile(p, f); err != nil {
			return err
		}
	}
	if p := c.path(c.Write.PNG); p != "" {
		pl, err := plot.Field(f, c.Regrid.Method.String())
		if err != nil {
			return err
		}
		if err := plot.AddLines(pl, edges); err != nil {
			return err
		}
		if err := plot.Save(pl, p); err != nil {
			return err
		}
	}
	log.WithField("steps", len(results)).Info("regrid: done")
	return nil
}

// outputField returns a field on out holding data.
func outputField(out mesh.Descriptor, data []float64) (*engine.Field, error) {
	_, f, err := engine.Build(out, nil)
	if err != nil {
		return nil, err
	}
	canon, err := mesh.ToCanonical(out, data)
	if err != nil {
		return nil, err
	}
	if err := f.Set(canon); err != nil {
		return nil, err
	}
	return f, nil
}

// writeCSV writes one row per entry and one column per step.
func writeCSV(path string, steps [][]float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("regrid: %w", err)
	}
	w := csv.NewWriter(f)
	row := make([]string, len(steps))
	for j := range steps[0] {
		for i, s := range steps {
			row[i] = strconv.FormatFloat(s[j], 'g', -1, 64)
		}
		if err := w.Write(row); err != nil {
			f.Close()
			return fmt.Errorf("regrid: writing %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("regrid: writing %s: %w", path, err)
	}
	return f.Close()
}
