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

package viz

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/ctessum/requestcache"
	"github.com/mit-jp/cremviz"
	"github.com/mit-jp/cremviz/gdx"
)

const (
	baseYear   = 2010
	targetYear = 2030

	// policyCase is the case shown in the provincial figures.
	policyCase = "4"
)

// Table is the time series of every variable for one region and case.
type Table struct {
	T       Floats
	Names   []string
	Columns map[string]Floats
}

// Column returns the named variable.
func (t *Table) Column(name string) (Floats, error) {
	c, ok := t.Columns[name]
	if !ok {
		return nil, fmt.Errorf("viz: no variable %s", name)
	}
	return c, nil
}

// At returns the value of the named variable in the given year.
func (t *Table) At(name string, year int) (float64, error) {
	c, err := t.Column(name)
	if err != nil {
		return math.NaN(), err
	}
	for i, tt := range t.T {
		if tt == float64(year) {
			return c[i], nil
		}
	}
	return math.NaN(), fmt.Errorf("viz: no data for %s in %d", name, year)
}

// ReadTable reads a time series file in the format written by
// cremviz.WriteSeries.
func ReadTable(r io.Reader) (*Table, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 || len(records[0]) == 0 || records[0][0] != cremviz.TimeDim {
		return nil, fmt.Errorf("first column must be %s", cremviz.TimeDim)
	}
	t := &Table{Names: records[0][1:], Columns: make(map[string]Floats)}
	for line, rec := range records[1:] {
		tt, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid time %q", line+2, rec[0])
		}
		t.T = append(t.T, tt)
		for i, name := range t.Names {
			v, err := gdx.ParseValue(rec[i+1])
			if err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", line+2, name, err)
			}
			t.Columns[name] = append(t.Columns[name], v)
		}
	}
	return t, nil
}

// Data reads the files written by the preparation step. Files are
// read once and then kept in memory.
type Data struct {
	Dir string

	cache *requestcache.Cache
}

// NewData returns a reader for the preparation output in dir.
func NewData(dir string) *Data {
	d := &Data{Dir: dir}
	d.cache = requestcache.NewCache(func(ctx context.Context, req interface{}) (interface{}, error) {
		return d.readTable(req.(string))
	}, runtime.GOMAXPROCS(-1), requestcache.Deduplicate(), requestcache.Memory(300))
	return d
}

func (d *Data) readTable(fname string) (*Table, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, fmt.Errorf("viz: %w", err)
	}
	defer f.Close()
	t, err := ReadTable(f)
	if err != nil {
		return nil, fmt.Errorf("viz: reading %s: %w", fname, err)
	}
	return t, nil
}

// Table returns the time series of the given region and case. Region
// cremviz.NationalDir holds national totals.
func (d *Data) Table(ctx context.Context, region, caseName string) (*Table, error) {
	fname := filepath.Join(d.Dir, region, caseName+".csv")
	r := d.cache.NewRequest(ctx, fname, fname)
	t, err := r.Result()
	if err != nil {
		return nil, err
	}
	return t.(*Table), nil
}

// value returns one variable of one region and case in the given year.
func (d *Data) value(ctx context.Context, region, caseName, variable string, year int) (float64, error) {
	t, err := d.Table(ctx, region, caseName)
	if err != nil {
		return math.NaN(), err
	}
	v, err := t.At(variable, year)
	if err != nil {
		return math.NaN(), fmt.Errorf("%w (%s, case %s)", err, region, caseName)
	}
	return v, nil
}

// point is a case and year.
type point struct {
	caseName string
	year     int
}

// change returns the difference in a variable between two points.
func (d *Data) change(ctx context.Context, region, variable string, from, to point) (float64, error) {
	a, err := d.value(ctx, region, from.caseName, variable, from.year)
	if err != nil {
		return math.NaN(), err
	}
	b, err := d.value(ctx, region, to.caseName, variable, to.year)
	if err != nil {
		return math.NaN(), err
	}
	return b - a, nil
}

// source returns a data source with columns t and variable.
func source(t *Table, variable string) (*ColumnDataSource, error) {
	c, err := t.Column(variable)
	if err != nil {
		return nil, err
	}
	s := NewColumnDataSource()
	s.Add(cremviz.TimeDim, t.T)
	if err := s.Add(variable, c); err != nil {
		return nil, err
	}
	return s, nil
}

// NationalSources returns a data source of the national values of
// variable for each scenario, along with every value in those sources.
func (d *Data) NationalSources(ctx context.Context, variable string) (map[string]*ColumnDataSource, []float64, error) {
	sources := make(map[string]*ColumnDataSource)
	var all []float64
	for _, s := range Scenarios {
		t, err := d.Table(ctx, cremviz.NationalDir, ScenarioCases[s])
		if err != nil {
			return nil, nil, err
		}
		if sources[s], err = source(t, variable); err != nil {
			return nil, nil, fmt.Errorf("viz: scenario %s: %w", s, err)
		}
		all = append(all, t.Columns[variable]...)
	}
	return sources, all, nil
}

// ProvincialSources returns a data source of the values of variable in
// each province under the policy case, every value in those sources, and
// the 2010 coal share of each province in the order of Provinces.
func (d *Data) ProvincialSources(ctx context.Context, variable string) (map[string]*ColumnDataSource, []float64, []float64, error) {
	sources := make(map[string]*ColumnDataSource)
	var all []float64
	colShare := make([]float64, len(Provinces))
	for i, p := range Provinces {
		t, err := d.Table(ctx, p.Code, policyCase)
		if err != nil {
			return nil, nil, nil, err
		}
		if sources[p.Code], err = source(t, variable); err != nil {
			return nil, nil, nil, fmt.Errorf("viz: province %s: %w", p.Code, err)
		}
		all = append(all, t.Columns[variable]...)
		if colShare[i], err = d.value(ctx, p.Code, "bau", "COL_share", baseYear); err != nil {
			return nil, nil, nil, err
		}
	}
	return sources, all, colShare, nil
}

// ProvincialTable holds one value and its map color for each province.
type ProvincialTable struct {
	Prefix string
	Codes  []string
	Values Floats
	Colors []Color

	// ColorMap maps values, or their magnitudes for changes, to Colors.
	ColorMap *ColorMap
}

// ValueColumn is the name of the value column.
func (t *ProvincialTable) ValueColumn() string { return t.Prefix + "_val" }

// ColorColumn is the name of the color column.
func (t *ProvincialTable) ColorColumn() string { return t.Prefix + "_color" }

// tableOptions controls how provincial values are colored.
type tableOptions struct {
	cmap  string
	boost float64

	// magnitude colors by absolute value, for changes that may be
	// negative.
	magnitude bool
}

func (d *Data) provincialTable(ctx context.Context, prefix string, o tableOptions, f func(code string) (float64, error)) (*ProvincialTable, error) {
	t := &ProvincialTable{Prefix: prefix}
	scaled := make([]float64, len(Provinces))
	min, max := math.Inf(1), math.Inf(-1)
	for i, p := range Provinces {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, err := f(p.Code)
		if err != nil {
			return nil, err
		}
		t.Codes = append(t.Codes, p.Code)
		t.Values = append(t.Values, v)
		scaled[i] = v
		if o.magnitude {
			scaled[i] = math.Abs(v)
		}
		if !math.IsNaN(scaled[i]) {
			min = math.Min(min, scaled[i])
			max = math.Max(max, scaled[i])
		}
	}
	cmap, err := NewColorMap(o.cmap, min, max)
	if err != nil {
		return nil, err
	}
	if o.boost != 0 {
		cmap.Boost = o.boost
	}
	for _, v := range scaled {
		t.Colors = append(t.Colors, cmap.Hex(v))
	}
	t.ColorMap = cmap
	return t, nil
}

// level returns a function giving each province's value of variable
// for one case and year.
func (d *Data) level(ctx context.Context, variable, caseName string, year int) func(string) (float64, error) {
	return func(code string) (float64, error) {
		return d.value(ctx, code, caseName, variable, year)
	}
}

func (d *Data) difference(ctx context.Context, variable string, from, to point) func(string) (float64, error) {
	return func(code string) (float64, error) {
		return d.change(ctx, code, variable, from, to)
	}
}

// CoalShareIn2010ByProvince returns the BAU coal share in 2010.
func (d *Data) CoalShareIn2010ByProvince(ctx context.Context, prefix string) (*ProvincialTable, error) {
	return d.provincialTable(ctx, prefix, tableOptions{cmap: "Blues"},
		d.level(ctx, "COL_share", "bau", baseYear))
}

// PopulationIn2030ByProvince returns the BAU population in 2030.
func (d *Data) PopulationIn2030ByProvince(ctx context.Context, prefix, cmap string) (*ProvincialTable, error) {
	return d.provincialTable(ctx, prefix, tableOptions{cmap: cmap},
		d.level(ctx, "pop", "bau", targetYear))
}

// PM25ConcIn2030ByProvince returns the BAU PM2.5 concentration in 2030.
func (d *Data) PM25ConcIn2030ByProvince(ctx context.Context, prefix, cmap string) (*ProvincialTable, error) {
	return d.provincialTable(ctx, prefix, tableOptions{cmap: cmap},
		d.level(ctx, "PM25_conc", "bau", targetYear))
}

// PM25ExposureIn2030ByProvince returns the BAU population-weighted
// PM2.5 exposure in 2030.
func (d *Data) PM25ExposureIn2030ByProvince(ctx context.Context, prefix, cmap string) (*ProvincialTable, error) {
	return d.provincialTable(ctx, prefix, tableOptions{cmap: cmap},
		d.level(ctx, "PM25_exposure", "bau", targetYear))
}

// GDPDeltaIn2030ByProvince returns the 2030 GDP difference from BAU
// under the policy case. Colors are stretched by boost.
func (d *Data) GDPDeltaIn2030ByProvince(ctx context.Context, prefix, cmap string, boost float64) (*ProvincialTable, error) {
	return d.provincialTable(ctx, prefix, tableOptions{cmap: cmap, boost: boost, magnitude: true},
		d.level(ctx, "GDP_delta", policyCase, targetYear))
}

// GDPIn2010ByProvince returns GDP in 2010.
func (d *Data) GDPIn2010ByProvince(ctx context.Context, prefix, cmap string) (*ProvincialTable, error) {
	return d.provincialTable(ctx, prefix, tableOptions{cmap: cmap},
		d.level(ctx, "GDP", "bau", baseYear))
}

// GDPDeltaChangeByProvince returns the change in the GDP difference
// from BAU between 2010 and 2030 under the policy case.
func (d *Data) GDPDeltaChangeByProvince(ctx context.Context, prefix, cmap string) (*ProvincialTable, error) {
	return d.provincialTable(ctx, prefix, tableOptions{cmap: cmap, magnitude: true},
		d.difference(ctx, "GDP_delta", point{policyCase, baseYear}, point{policyCase, targetYear}))
}

// CO2ChangeByProvince returns the change in BAU CO2 emissions between
// 2010 and 2030.
func (d *Data) CO2ChangeByProvince(ctx context.Context, prefix, cmap string) (*ProvincialTable, error) {
	return d.provincialTable(ctx, prefix, tableOptions{cmap: cmap, magnitude: true},
		d.difference(ctx, "CO2_emi", point{"bau", baseYear}, point{"bau", targetYear}))
}

// CO2Change2030FourVsBAUByProvince returns the difference between 2030
// CO2 emissions under the policy case and BAU.
func (d *Data) CO2Change2030FourVsBAUByProvince(ctx context.Context, prefix, cmap string) (*ProvincialTable, error) {
	return d.provincialTable(ctx, prefix, tableOptions{cmap: cmap, magnitude: true},
		d.difference(ctx, "CO2_emi", point{"bau", targetYear}, point{policyCase, targetYear}))
}

// PM25Exposure2030ByProvince returns the 2030 population-weighted
// PM2.5 exposure under the policy case.
func (d *Data) PM25Exposure2030ByProvince(ctx context.Context, prefix, cmap string) (*ProvincialTable, error) {
	return d.provincialTable(ctx, prefix, tableOptions{cmap: cmap},
		d.level(ctx, "PM25_exposure", policyCase, targetYear))
}

// PM25Change2030FourVsBAUByProvince returns the difference between 2030
// PM2.5 concentrations under the policy case and BAU.
func (d *Data) PM25Change2030FourVsBAUByProvince(ctx context.Context, prefix, cmap string) (*ProvincialTable, error) {
	return d.provincialTable(ctx, prefix, tableOptions{cmap: cmap, magnitude: true},
		d.difference(ctx, "PM25_conc", point{"bau", targetYear}, point{policyCase, targetYear}))
}

// PM25ExposureChangeByProvince returns the change in BAU PM2.5 exposure
// between 2010 and 2030.
func (d *Data) PM25ExposureChangeByProvince(ctx context.Context, prefix, cmap string) (*ProvincialTable, error) {
	return d.provincialTable(ctx, prefix, tableOptions{cmap: cmap, magnitude: true},
		d.difference(ctx, "PM25_exposure", point{"bau", baseYear}, point{"bau", targetYear}))
}
