/*
Copyright © 2016 the cremviz authors.
This file is part of cremviz.

cremviz is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

cremviz is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with cremviz.  If not, see <http://www.gnu.org/licenses/>.
*/

package cremviz

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// NationalDir is the output directory for national totals.
const NationalDir = "national"

// quoteAll writes records to w with every field quoted.
func quoteAll(w io.Writer, records [][]string) error {
	for _, rec := range records {
		fields := make([]string, len(rec))
		for i, f := range rec {
			fields[i] = `"` + strings.Replace(f, `"`, `""`, -1) + `"`
		}
		if _, err := fmt.Fprintln(w, strings.Join(fields, ",")); err != nil {
			return err
		}
	}
	return nil
}

// WriteScenarios writes the name and description of each case to w.
func WriteScenarios(w io.Writer, cases []Case) error {
	records := [][]string{{"case", "description"}}
	for _, c := range cases {
		records = append(records, []string{c.Name, c.Description})
	}
	return quoteAll(w, records)
}

// WriteVariables writes the description and units of each variable in d
// to w. Variables without descriptions are logged and written with
// blank fields.
func WriteVariables(w io.Writer, d *Dataset, log logrus.FieldLogger) error {
	records := [][]string{{"Variable", "desc", "unit_long", "unit_short"}}
	var missing []string
	for _, name := range d.Names() {
		a, _ := d.Get(name)
		if a.Attrs.Empty() {
			missing = append(missing, name)
		}
		records = append(records, []string{name, a.Attrs.Desc, a.Attrs.UnitLong, a.Attrs.UnitShort})
	}
	if len(missing) > 0 {
		log.WithField("variables", strings.Join(missing, ", ")).Warn("Missing dimension info")
	}
	return quoteAll(w, records)
}

// formatValue formats v in the shortest representation that
// round-trips, with missing values left blank.
func formatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteSeries writes the time series of every variable in d for the given
// case and region to w, one row per time. If region is empty, d must hold
// national values.
func WriteSeries(w io.Writer, d *Dataset, caseName, region string) error {
	names := d.Names()
	cols := make([]*Array, len(names))
	for i, name := range names {
		a, _ := d.Get(name)
		v, err := a.Sel(CaseDim, caseName)
		if err != nil {
			return fmt.Errorf("cremviz: writing %s: %w", name, err)
		}
		if region != "" && v.HasDim(RegionDim) {
			if v, err = v.Sel(RegionDim, region); err != nil {
				return fmt.Errorf("cremviz: writing %s: %w", name, err)
			}
		}
		if len(v.Dims) != 1 || v.Dims[0] != TimeDim {
			return fmt.Errorf("cremviz: writing %s: dimensions %v are not [%s]", name, v.Dims, TimeDim)
		}
		cols[i] = v
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{TimeDim}, names...)); err != nil {
		return err
	}
	for _, t := range d.Times {
		rec := []string{t}
		for _, c := range cols {
			v, err := c.At(t)
			if err != nil {
				return err
			}
			rec = append(rec, formatValue(v))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// writeFile creates fileName and writes to it using f.
func writeFile(fileName string, f func(io.Writer) error) error {
	w, err := os.Create(fileName)
	if err != nil {
		return fmt.Errorf("cremviz: %w", err)
	}
	if err := f(w); err != nil {
		w.Close()
		return fmt.Errorf("cremviz: writing %s: %w", fileName, err)
	}
	return w.Close()
}

// Write writes the prepared data to outDir, which is created if
// necessary: scenarios.csv,
// variables.csv, and one file per case in a directory for each region
// and in the national directory.
func (p *Prep) Write(outDir string) error {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("cremviz: %w", err)
	}
	national, err := p.Data.National()
	if err != nil {
		return err
	}
	d := p.Data
	if err := writeFile(filepath.Join(outDir, "scenarios.csv"), func(w io.Writer) error {
		return WriteScenarios(w, d.Cases)
	}); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(outDir, "variables.csv"), func(w io.Writer) error {
		return WriteVariables(w, d, p.Log)
	}); err != nil {
		return err
	}

	for _, dir := range append(append([]string{}, d.Regions...), NationalDir) {
		if err := os.MkdirAll(filepath.Join(outDir, dir), 0755); err != nil {
			return fmt.Errorf("cremviz: %w", err)
		}
	}
	for _, c := range d.CaseNames() {
		for _, r := range d.Regions {
			if err := writeFile(filepath.Join(outDir, r, c+".csv"), func(w io.Writer) error {
				return WriteSeries(w, d, c, r)
			}); err != nil {
				return err
			}
		}
		if err := writeFile(filepath.Join(outDir, NationalDir, c+".csv"), func(w io.Writer) error {
			return WriteSeries(w, national, c, "")
		}); err != nil {
			return err
		}
		p.Log.WithField("case", c).Info("wrote case data")
	}
	return nil
}
