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
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestRender(t *testing.T) {
	d, b, _, _ := testMap(t)
	ctx := context.Background()
	dir := t.TempDir()

	chart, _, err := NationalScenarioLinePlot(ctx, d, "CO2_emi", []float64{0, 5000}, 400)
	if err != nil {
		t.Fatal(err)
	}
	m, err := CO2ChangeMap(ctx, d, b, 400)
	if err != nil {
		t.Fatal(err)
	}
	m2, err := ProvincialPop2030Map(ctx, d, b, 400)
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range []struct {
		p    *Plot
		name string
	}{
		{chart, "chart.png"},
		{chart, "chart.svg"},
		{m, "map.png"},
		{m2, "legend.svg"},
	} {
		fname := filepath.Join(dir, f.name)
		if err := Render(f.p, fname); err != nil {
			t.Fatalf("%s: %v", f.name, err)
		}
		fi, err := os.Stat(fname)
		if err != nil {
			t.Fatal(err)
		}
		if fi.Size() == 0 {
			t.Errorf("%s is empty", f.name)
		}
	}
	if err := Render(chart, filepath.Join(dir, "chart.bmp")); err == nil {
		t.Error("expected an error for an unsupported format")
	}
}

func TestRenderer(t *testing.T) {
	d, b, _, _ := testMap(t)
	site := t.TempDir()
	static := filepath.Join(t.TempDir(), "img")
	r := &Renderer{
		Data:       d,
		Boundaries: b,
		Formats:    []string{"png"},
		Log:        logrus.StandardLogger(),
	}
	if err := r.Render(context.Background(), site, static); err != nil {
		t.Fatal(err)
	}

	roots := map[string]int{
		"co2_by_scenario": 2,
		"air_pollution_1": 3,
		"air_pollution_2": 2,
		"health_impacts":  4,
		"co2_by_province": 4,
	}
	for _, name := range FigureNames() {
		f, err := os.Open(filepath.Join(site, name+".json"))
		if err != nil {
			t.Fatal(err)
		}
		var doc struct {
			Roots []struct {
				ID   string
				Name string
			}
			Sources []struct{ ID string }
		}
		err = json.NewDecoder(f).Decode(&doc)
		f.Close()
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if len(doc.Roots) != roots[name] {
			t.Errorf("%s: %d roots, want %d", name, len(doc.Roots), roots[name])
		}
		for _, p := range doc.Roots {
			if _, err := os.Stat(filepath.Join(static, name+"_"+p.Name+".png")); err != nil {
				t.Errorf("%s: %v", name, err)
			}
		}
	}

	if err := r.Render(context.Background(), site, static, "no_such_figure"); err == nil {
		t.Error("expected an error for an unknown figure")
	}
}

func TestFigureCallbacks(t *testing.T) {
	d, b, _, _ := testMap(t)
	doc, err := co2ByProvince(context.Background(), &Renderer{Data: d, Boundaries: b})
	if err != nil {
		t.Fatal(err)
	}
	col := doc.Plot("col_2010")
	if col == nil || col.TapTool().Callback == nil {
		t.Fatal("coal share map has no callback")
	}
	if n := len(col.TapTool().Callback.Args); n != 2*len(Provinces)+1 {
		t.Errorf("%d callback args", n)
	}
	gdp := doc.Plot("gdp_2010")
	if gdp == nil || gdp.TapTool().Callback == nil {
		t.Fatal("GDP map has no callback")
	}
	if _, err := json.Marshal(doc); err != nil {
		t.Fatal(err)
	}
	line := col.TapTool().Callback.Args["line_AH"].(*GlyphRenderer)
	if line.ID == "" || line.Source.ID == "" {
		t.Error("callback renderers were not given ids")
	}
}
