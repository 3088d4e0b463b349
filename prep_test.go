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
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/sirupsen/logrus"
	"github.com/tealeg/xlsx"
)

var (
	testRegions = []string{"AH", "BJ"}
	testTimes   = []string{"2007", "2010", "2015", "2020", "2025", "2030", "2035"}
)

// symbolWriter writes pre-dumped GDX symbols to a directory.
type symbolWriter struct {
	t   *testing.T
	dir string
}

func (w symbolWriter) write(name string, header []string, rows [][]string) {
	w.t.Helper()
	var b strings.Builder
	quoted := make([]string, len(header))
	for i, h := range header {
		quoted[i] = strconv.Quote(h)
	}
	fmt.Fprintln(&b, strings.Join(quoted, ","))
	for _, r := range rows {
		fmt.Fprintln(&b, strings.Join(r, ","))
	}
	if err := os.WriteFile(filepath.Join(w.dir, name+".csv"), []byte(b.String()), 0644); err != nil {
		w.t.Fatal(err)
	}
}

// overRegionsTimes returns one row per region and time, each prefixed
// by prefix and ending with the value returned by v.
func overRegionsTimes(regions []string, prefix []string, v func(r, t int) float64) [][]string {
	var rows [][]string
	for i, r := range regions {
		for j, t := range testTimes {
			row := append(append([]string{}, prefix...), r, t, strconv.FormatFloat(v(i, j), 'g', -1, 64))
			rows = append(rows, row)
		}
	}
	return rows
}

func constant(c float64) func(r, t int) float64 {
	return func(int, int) float64 { return c }
}

// writeTestGDX writes raw and extra symbols for case number k.
func writeTestGDX(t *testing.T, gdxDir string, k int, c Case) {
	raw := filepath.Join(gdxDir, strings.TrimSuffix(c.File, ".gdx"))
	extra := raw + "_extra"
	for _, d := range []string{raw, extra} {
		if err := os.MkdirAll(d, 0755); err != nil {
			t.Fatal(err)
		}
	}
	w := symbolWriter{t: t, dir: raw}
	w.write("r", []string{"Dim1", "Text"}, [][]string{{"AH", "Anhui"}, {"BJ", "Beijing"}})
	var tRows [][]string
	for _, tt := range testTimes {
		tRows = append(tRows, []string{tt})
	}
	w.write("t", []string{"Dim1"}, tRows)

	rs := append(append([]string{}, testRegions...), "CHN")
	w.write("gdp_ref", []string{"rs", "t", "Val"}, overRegionsTimes(rs, nil, func(r, _ int) float64 {
		return float64((k + 1) * (r + 1) * 10)
	}))

	var sectem [][]string
	for _, g := range []string{"agr", "ind"} {
		sectem = append(sectem, overRegionsTimes(rs, []string{g}, constant(1))...)
	}
	w.write("sectem", []string{"g", "rs", "t", "Val"}, sectem)
	w.write("houem", []string{"rs", "t", "Val"}, overRegionsTimes(rs, nil, constant(0.5)))

	var urban [][]string
	for _, s := range []string{"a", "b"} {
		for _, u := range []string{"SO2", "NOX", "PM25"} {
			urban = append(urban, overRegionsTimes(rs, []string{s, u}, constant(1))...)
		}
	}
	w.write("urban", []string{"Dim1", "urb", "rs", "t", "Val"}, urban)

	w.write("pop2007", []string{"g", "rs", "Val"}, [][]string{
		{"c", "AH", "200"}, {"c", "BJ", "100"}, {"x", "AH", "5"}, {"x", "BJ", "5"},
	})
	w.write("pop", []string{"rs", "t", "Val"}, overRegionsTimes(rs, nil, constant(100)))

	var sectInput [][]string
	for _, in := range []struct {
		name string
		v    float64
	}{{"COL", 1}, {"ELE", 3}} {
		for _, g := range []string{"agr", "ind"} {
			sectInput = append(sectInput, overRegionsTimes(rs, []string{in.name, g}, constant(in.v))...)
		}
	}
	w.write("sect_input", []string{"Dim1", "g", "rs", "t", "Val"}, sectInput)
	var yeInput [][]string
	for _, in := range []string{"COL", "GAS"} {
		yeInput = append(yeInput, overRegionsTimes(rs, []string{in}, constant(1))...)
	}
	w.write("ye_input", []string{"Dim1", "rs", "t", "Val"}, yeInput)
	w.write("ynhw_input", []string{"Dim1", "rs", "t", "Val"}, overRegionsTimes(rs, []string{"HYD"}, constant(1)))

	w = symbolWriter{t: t, dir: extra}
	var price [][]string
	for _, tt := range testTimes {
		price = append(price, []string{tt, strconv.Itoa(10 * k)})
	}
	w.write("ptcarb_t", []string{"t", "Val"}, price)
	w.write("cons_t", []string{"r", "t", "Val"}, overRegionsTimes(testRegions, nil, constant(5)))
	var pe [][]string
	for _, e := range []struct {
		name string
		v    float64
	}{{"COL", 3}, {"GAS", 1}, {"NUC", 1e301}, {"HYD", 1}} {
		pe = append(pe, overRegionsTimes(testRegions, []string{e.name}, constant(e.v))...)
	}
	w.write("pe_t", []string{"e", "r", "t", "Val"}, pe)
}

// writeTestWorkbook writes an exposure workbook where the BAU values
// are 40 (2010) and 30 (2030) for AH and 60 and 50 for BJ, and the
// 2030 value for policy case N is 20+N.
func writeTestWorkbook(t *testing.T, fname string) {
	f := xlsx.NewFile()
	s, err := f.AddSheet("Sheet1")
	if err != nil {
		t.Fatal(err)
	}
	s.AddRow().AddCell().SetString("PM2.5")
	row := s.AddRow()
	for _, h := range []string{"", "2010", "2030", "2030_p2", "2030_p3", "2030_p4", "2030_p5", "2030_p6"} {
		row.AddCell().SetString(h)
	}
	for i := 0; i < 30; i++ {
		r := fmt.Sprintf("R%02d", i)
		if i < len(testRegions) {
			r = testRegions[i]
		}
		row := s.AddRow()
		row.AddCell().SetString(r)
		row.AddCell().SetFloat(float64(40 + 20*i))
		row.AddCell().SetFloat(float64(30 + 20*i))
		for n := 2; n <= 6; n++ {
			row.AddCell().SetFloat(float64(20 + n))
		}
	}
	if err := f.Save(fname); err != nil {
		t.Fatal(err)
	}
}

func testPrep(t *testing.T) (*Prep, string) {
	t.Helper()
	dir := t.TempDir()
	gdxDir := filepath.Join(dir, "gdx")
	for k, c := range DefaultCases {
		writeTestGDX(t, gdxDir, k, c)
	}
	pm := filepath.Join(dir, "pm.xlsx")
	writeTestWorkbook(t, pm)

	log := logrus.New()
	log.SetOutput(os.Stderr)
	p, err := NewPrep(context.Background(), DefaultCases, gdxDir, "", log)
	if err != nil {
		t.Fatal(err)
	}
	p.PMWorkbook = pm
	if err := p.Run(context.Background(), DefaultSteps()...); err != nil {
		t.Fatal(err)
	}
	return p, dir
}

func TestPrep(t *testing.T) {
	p, _ := testPrep(t)

	wantNames := []string{"GDP", "GDP_delta", "CO2_emi", "SO2_emi", "NOX_emi",
		"CO2_price", "cons", "COL_energy", "GAS_energy", "NUC_energy", "HYD_energy",
		"energy_total", "energy_fossil", "energy_nonfossil", "energy_nonfossil_share",
		"pop", "COL_share", "PM25_exposure", "PM25_conc"}
	if diff := cmp.Diff(wantNames, p.Data.Names()); diff != "" {
		t.Errorf("names (-want +have):\n%s", diff)
	}
	if want := []string{"2007", "2010", "2015", "2020", "2025", "2030"}; !cmp.Equal(p.Data.Times, want) {
		t.Errorf("times: %v != %v", p.Data.Times, want)
	}
	if have := len(p.Data.Cases); have != 16 {
		t.Errorf("have %d cases, want 16", have)
	}

	approx := cmpopts.EquateApprox(0, 1e-9)
	for _, test := range []struct {
		name   string
		labels []string
		want   float64
	}{
		{"GDP", []string{"4", "BJ", "2030"}, 60},
		{"GDP_delta", []string{"4", "AH", "2010"}, 200},
		{"GDP_delta", []string{"bau", "AH", "2010"}, 0},
		{"CO2_emi", []string{"3", "AH", "2015"}, 2.5},
		{"SO2_emi", []string{"bau", "BJ", "2020"}, 2},
		{"CO2_price", []string{"5", "2030"}, 30},
		{"cons", []string{"bau", "AH", "2010"}, 5},
		{"NUC_energy", []string{"bau", "AH", "2010"}, 0},
		{"energy_total", []string{"bau", "AH", "2010"}, 5},
		{"energy_fossil", []string{"bau", "AH", "2010"}, 4},
		{"energy_nonfossil", []string{"bau", "AH", "2010"}, 1},
		{"energy_nonfossil_share", []string{"bau", "AH", "2010"}, 20},
		{"pop", []string{"bau", "AH", "2010"}, 200},
		{"COL_share", []string{"bau", "AH", "2010"}, 0.6},
		{"PM25_exposure", []string{"4", "AH", "2010"}, 40},
		{"PM25_exposure", []string{"4", "AH", "2030"}, 24},
		{"PM25_exposure", []string{"4", "AH", "2007"}, 20},
		{"PM25_exposure", []string{"4", "AH", "2020"}, 36},
		{"PM25_exposure", []string{"4_lo", "AH", "2030"}, 21.6},
		{"PM25_exposure", []string{"bau", "BJ", "2030"}, 50},
		{"PM25_conc", []string{"4_nh3", "AH", "2030"}, 24},
		{"PM25_exposure", []string{"4_nh3", "AH", "2030"}, math.NaN()},
		{"GDP", []string{"4_nh3", "AH", "2030"}, math.NaN()},
	} {
		t.Run(test.name+"/"+strings.Join(test.labels, "/"), func(t *testing.T) {
			a, ok := p.Data.Get(test.name)
			if !ok {
				t.Fatal("missing variable")
			}
			v, err := a.At(test.labels...)
			if err != nil {
				t.Fatal(err)
			}
			if !cmp.Equal(v, test.want, approx, nanEqual) {
				t.Errorf("have %g, want %g", v, test.want)
			}
		})
	}
}

func TestPrepNational(t *testing.T) {
	p, _ := testPrep(t)
	n, err := p.Data.National()
	if err != nil {
		t.Fatal(err)
	}
	for _, test := range []struct {
		name   string
		labels []string
		want   float64
	}{
		{"GDP", []string{"3", "2010"}, 60},
		{"GDP_delta", []string{"3", "2010"}, 100},
		{"energy_nonfossil_share", []string{"bau", "2030"}, 20},
		{"COL_share", []string{"5", "2030"}, 0.6},
		{"pop", []string{"bau", "2010"}, 300},
		{"PM25_exposure", []string{"bau", "2030"}, 40},
		{"CO2_price", []string{"4", "2030"}, 20},
		{"GDP", []string{"bau_nh3", "2030"}, math.NaN()},
	} {
		t.Run(test.name, func(t *testing.T) {
			a, _ := n.Get(test.name)
			v, err := a.At(test.labels...)
			if err != nil {
				t.Fatal(err)
			}
			if !cmp.Equal(v, test.want, cmpopts.EquateApprox(0, 1e-9), nanEqual) {
				t.Errorf("have %g, want %g", v, test.want)
			}
		})
	}
}

func TestPrepMissingCase(t *testing.T) {
	_, err := NewPrep(context.Background(), DefaultCases, t.TempDir(), "", logrus.New())
	if err == nil || !strings.Contains(err.Error(), "case bau") {
		t.Errorf("unexpected error: %v", err)
	}
}
