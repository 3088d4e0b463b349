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
	"fmt"
	"math"
)

// Canonical dimension names.
const (
	CaseDim   = "case"
	RegionDim = "r"
	TimeDim   = "t"
)

// Case is one C-REM model run.
type Case struct {
	// Name is the short case identifier, e.g. "bau" or "4_lo".
	Name string

	// File is the GDX file holding the model output for this case.
	File string

	Description string

	// Args holds extra command-line arguments that are passed to
	// C-REM when running this case.
	Args []string
}

// AggKind specifies how a variable is aggregated over regions.
type AggKind int

const (
	// AggSum sums over regions.
	AggSum AggKind = iota
	// AggMean averages over regions.
	AggMean
	// AggRatio divides the regional sums of two other variables.
	AggRatio
)

// Aggregation specifies how the national value of a variable is
// calculated from its regional values. For AggRatio the national value
// is (sum(Num) / sum(Den) + Offset) * Scale, where Num and Den name
// variables in the same dataset, possibly hidden ones.
type Aggregation struct {
	Kind          AggKind
	Num, Den      string
	Scale, Offset float64
}

// Dataset is an ordered collection of variables defined over
// cases, regions, and times.
type Dataset struct {
	Cases   []Case
	Regions []string
	Times   []string

	names  []string
	vars   map[string]*Array
	aggs   map[string]Aggregation
	hidden map[string]*Array
}

// NewDataset returns an empty dataset with the given coordinates.
func NewDataset(cases []Case, regions, times []string) *Dataset {
	return &Dataset{
		Cases:   append([]Case{}, cases...),
		Regions: append([]string{}, regions...),
		Times:   append([]string{}, times...),
		vars:    make(map[string]*Array),
		aggs:    make(map[string]Aggregation),
		hidden:  make(map[string]*Array),
	}
}

// CaseNames returns the names of the cases in d.
func (d *Dataset) CaseNames() []string {
	o := make([]string, len(d.Cases))
	for i, c := range d.Cases {
		o[i] = c.Name
	}
	return o
}

// Add adds variable a to d under name with the given attributes,
// replacing any existing variable with that name but keeping its
// position. The variable is aggregated by summing unless
// SetAggregation is called.
func (d *Dataset) Add(name string, a *Array, attrs Attrs) {
	a.Attrs = attrs
	if _, ok := d.vars[name]; !ok {
		d.names = append(d.names, name)
		d.aggs[name] = Aggregation{Kind: AggSum}
	}
	d.vars[name] = a
}

// AddHidden adds a variable that is available for aggregation
// but is not part of the output.
func (d *Dataset) AddHidden(name string, a *Array) {
	d.hidden[name] = a
}

// SetAggregation sets how variable name is aggregated over regions.
func (d *Dataset) SetAggregation(name string, agg Aggregation) {
	d.aggs[name] = agg
}

// Aggregation returns how variable name is aggregated over regions.
func (d *Dataset) Aggregation(name string) Aggregation {
	return d.aggs[name]
}

// Get returns the named variable.
func (d *Dataset) Get(name string) (*Array, bool) {
	a, ok := d.vars[name]
	return a, ok
}

// lookup returns the named variable, including hidden variables.
func (d *Dataset) lookup(name string) (*Array, error) {
	if a, ok := d.vars[name]; ok {
		return a, nil
	}
	if a, ok := d.hidden[name]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("cremviz: no variable named %s", name)
}

// Names returns the variable names in the order they were added.
func (d *Dataset) Names() []string {
	return append([]string{}, d.names...)
}

// align reindexes a to the coordinates of d and puts its dimensions
// into case, region, time order.
func (d *Dataset) align(name string, a *Array) (*Array, error) {
	coords := map[string][]string{
		CaseDim:   d.CaseNames(),
		RegionDim: d.Regions,
		TimeDim:   d.Times,
	}
	var dims []string
	for _, dim := range []string{CaseDim, RegionDim, TimeDim} {
		if a.HasDim(dim) {
			dims = append(dims, dim)
		}
	}
	if len(dims) != len(a.Dims) {
		return nil, fmt.Errorf("cremviz: aligning %s: unexpected dimensions %v", name, a.Dims)
	}
	o, err := a.Transpose(dims...)
	if err != nil {
		return nil, fmt.Errorf("cremviz: aligning %s: %w", name, err)
	}
	for _, dim := range dims {
		o = o.Reindex(dim, coords[dim])
	}
	return o, nil
}

// Align reindexes every variable to the dataset's case, region and time
// coordinates. Values for coordinates a variable lacks are NaN.
func (d *Dataset) Align() error {
	for _, m := range []map[string]*Array{d.vars, d.hidden} {
		for name, a := range m {
			o, err := d.align(name, a)
			if err != nil {
				return err
			}
			m[name] = o
		}
	}
	return nil
}

// SelTime restricts d to the given times.
func (d *Dataset) SelTime(times []string) error {
	d.Times = append([]string{}, times...)
	return d.Align()
}

// AddCases appends cases to d. The new cases have no values until they
// are filled.
func (d *Dataset) AddCases(cases ...Case) error {
	d.Cases = append(d.Cases, cases...)
	return d.Align()
}

// National returns a copy of d aggregated over regions.
//
// Ratio variables (AggRatio) are recomputed from the national sums of
// their numerator and denominator rather than summed over regions, and
// a sum over regions that are all missing stays missing instead of
// becoming 0. National GDP_delta and COL_share therefore differ from a
// plain regional sum, and the national rows of the _nh3 cases are empty
// rather than 0 for every variable except PM25_conc.
func (d *Dataset) National() (*Dataset, error) {
	o := NewDataset(d.Cases, nil, d.Times)
	for _, name := range d.names {
		a := d.vars[name]
		agg := d.aggs[name]
		var n *Array
		var err error
		switch {
		case !a.HasDim(RegionDim):
			n = a.Clone()
		case agg.Kind == AggSum:
			n, err = a.Sum(RegionDim)
		case agg.Kind == AggMean:
			n, err = a.Mean(RegionDim)
		case agg.Kind == AggRatio:
			n, err = d.ratio(agg)
		default:
			err = fmt.Errorf("invalid aggregation kind %d", agg.Kind)
		}
		if err != nil {
			return nil, fmt.Errorf("cremviz: national %s: %w", name, err)
		}
		o.Add(name, n, a.Attrs)
		o.SetAggregation(name, agg)
	}
	return o, nil
}

func (d *Dataset) ratio(agg Aggregation) (*Array, error) {
	num, err := d.lookup(agg.Num)
	if err != nil {
		return nil, err
	}
	den, err := d.lookup(agg.Den)
	if err != nil {
		return nil, err
	}
	if num, err = num.Sum(RegionDim); err != nil {
		return nil, err
	}
	if den, err = den.Sum(RegionDim); err != nil {
		return nil, err
	}
	r, err := num.Div(den)
	if err != nil {
		return nil, err
	}
	scale := agg.Scale
	if scale == 0 {
		scale = 1
	}
	return r.Apply(func(v float64) float64 {
		if math.IsInf(v, 0) {
			return math.NaN()
		}
		return (v + agg.Offset) * scale
	}), nil
}
