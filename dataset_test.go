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
	"math"
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testDataset(t *testing.T) *Dataset {
	t.Helper()
	cases := []Case{{Name: "bau"}, {Name: "4"}}
	d := NewDataset(cases, []string{"AH", "BJ"}, []string{"2010", "2030"})

	gdp := NewArray([]string{"case", "r", "t"}, map[string][]string{
		"case": {"bau", "4"}, "r": {"AH", "BJ"}, "t": {"2010", "2030"},
	})
	gdp.Data = []float64{1, 2, 3, 4, 1, 1, 3, 3}
	d.Add("GDP", gdp, Attrs{Desc: "Gross domestic product"})

	// Stored in a different dimension order.
	pm := NewArray([]string{"r", "t", "case"}, map[string][]string{
		"case": {"bau", "4"}, "r": {"AH", "BJ"}, "t": {"2030"},
	})
	pm.Data = []float64{10, 8, 20, 16}
	d.Add("PM25_exposure", pm, Attrs{})
	d.SetAggregation("PM25_exposure", Aggregation{Kind: AggMean})

	price := NewArray([]string{"case", "t"}, map[string][]string{
		"case": {"bau", "4"}, "t": {"2010", "2030"},
	})
	price.Data = []float64{0, 0, 0, 50}
	d.Add("CO2_price", price, Attrs{})

	share := gdp.Scale(0.5)
	d.Add("share", share, Attrs{})
	d.AddHidden("den", gdp.Scale(2))
	d.SetAggregation("share", Aggregation{Kind: AggRatio, Num: "GDP", Den: "den", Scale: 100})

	if err := d.Align(); err != nil {
		t.Fatal(err)
	}
	return d
}

func TestDatasetAlign(t *testing.T) {
	d := testDataset(t)
	if want := []string{"GDP", "PM25_exposure", "CO2_price", "share"}; !reflect.DeepEqual(d.Names(), want) {
		t.Errorf("names: %v != %v", d.Names(), want)
	}
	pm, _ := d.Get("PM25_exposure")
	if want := []string{"case", "r", "t"}; !reflect.DeepEqual(pm.Dims, want) {
		t.Errorf("dims: %v != %v", pm.Dims, want)
	}
	want := []float64{math.NaN(), 10, math.NaN(), 20, math.NaN(), 8, math.NaN(), 16}
	if diff := cmp.Diff(want, pm.Data, nanEqual); diff != "" {
		t.Errorf("(-want +have):\n%s", diff)
	}
}

func TestDatasetAddCases(t *testing.T) {
	d := testDataset(t)
	if err := d.AddCases(Case{Name: "bau_nh3"}); err != nil {
		t.Fatal(err)
	}
	if want := []string{"bau", "4", "bau_nh3"}; !reflect.DeepEqual(d.CaseNames(), want) {
		t.Errorf("cases: %v != %v", d.CaseNames(), want)
	}
	p, _ := d.Get("CO2_price")
	v, err := p.At("bau_nh3", "2030")
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsNaN(v) {
		t.Errorf("new case should be missing but is %g", v)
	}
}

func TestDatasetSelTime(t *testing.T) {
	d := testDataset(t)
	if err := d.SelTime([]string{"2030"}); err != nil {
		t.Fatal(err)
	}
	g, _ := d.Get("GDP")
	if want := []float64{2, 4, 1, 3}; !reflect.DeepEqual(g.Data, want) {
		t.Errorf("%v != %v", g.Data, want)
	}
}

func TestDatasetNational(t *testing.T) {
	d := testDataset(t)
	n, err := d.National()
	if err != nil {
		t.Fatal(err)
	}
	for _, test := range []struct {
		name string
		want []float64
	}{
		{"GDP", []float64{4, 6, 4, 4}},
		{"PM25_exposure", []float64{math.NaN(), 15, math.NaN(), 12}},
		{"CO2_price", []float64{0, 0, 0, 50}},
		{"share", []float64{50, 50, 50, 50}},
	} {
		t.Run(test.name, func(t *testing.T) {
			a, ok := n.Get(test.name)
			if !ok {
				t.Fatal("missing variable")
			}
			if want := []string{"case", "t"}; !reflect.DeepEqual(a.Dims, want) {
				t.Errorf("dims: %v != %v", a.Dims, want)
			}
			if diff := cmp.Diff(test.want, a.Data, nanEqual); diff != "" {
				t.Errorf("(-want +have):\n%s", diff)
			}
		})
	}
	g, _ := n.Get("GDP")
	if g.Attrs.Desc != "Gross domestic product" {
		t.Errorf("attributes were not kept: %+v", g.Attrs)
	}
}

func TestDatasetAlignBadDims(t *testing.T) {
	d := NewDataset([]Case{{Name: "bau"}}, []string{"AH"}, []string{"2010"})
	d.Add("x", NewArray([]string{"e"}, map[string][]string{"e": {"COL"}}), Attrs{})
	if err := d.Align(); err == nil {
		t.Error("expected an error")
	}
}
