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
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSpecJSON(t *testing.T) {
	for _, test := range []struct {
		s    Spec
		want string
	}{
		{s: Field("t"), want: `{"field":"t"}`},
		{s: Value(2.5), want: `{"value":2.5}`},
		{s: Value(math.NaN()), want: `{"value":null}`},
		{s: Value("BAU"), want: `{"value":"BAU"}`},
	} {
		b, err := json.Marshal(test.s)
		if err != nil {
			t.Fatal(err)
		}
		if string(b) != test.want {
			t.Errorf("have %s, want %s", b, test.want)
		}
	}
}

func TestColumnDataSource(t *testing.T) {
	s := NewColumnDataSource()
	if err := s.Add("t", Floats{2010, 2015}); err != nil {
		t.Fatal(err)
	}
	if err := s.Add("GDP", Floats{1, math.NaN()}); err != nil {
		t.Fatal(err)
	}
	if err := s.Add("bad", Floats{1}); err == nil {
		t.Error("expected an error for a column of the wrong length")
	}
	if s.Len() != 2 {
		t.Errorf("length %d", s.Len())
	}
	if _, err := s.Strings("t"); err == nil {
		t.Error("expected an error for a numeric column")
	}
	if _, err := s.Floats("missing"); err == nil {
		t.Error("expected an error for a missing column")
	}

	b, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	var have struct {
		Type string
		Data map[string][]*float64
	}
	if err := json.Unmarshal(b, &have); err != nil {
		t.Fatal(err)
	}
	if have.Type != "ColumnDataSource" {
		t.Errorf("type %q", have.Type)
	}
	if gdp := have.Data["GDP"]; len(gdp) != 2 || gdp[0] == nil || *gdp[0] != 1 || gdp[1] != nil {
		t.Errorf("GDP column %s", b)
	}
}

// testDocument returns a small chart in the shape of the scenario
// charts.
func testDocument() *Document {
	src := NewColumnDataSource()
	src.Add("t", Floats{2010, 2030})
	src.Add("CO2_emi", Floats{5000, math.NaN()})

	p := NewPlot(600, yearRange(1), yRange([]float64{5000}))
	timeAxes(p, []float64{0, 5000})
	line := p.AddGlyph(src, NewLine(Field("t"), Field("CO2_emi")))
	p.AddGlyph(src, NewCircle(Field("t"), Field("CO2_emi"), 8))
	p.AddGlyph(nil, NewText(Value(2030.5), Value(5000.), Value("BAU")))
	p.AddTools(&HoverTool{Tooltips: "@CO2_emi", Renderers: []*GlyphRenderer{line}})
	return NewDocument(p)
}

type testDoc struct {
	Roots []struct {
		ID        string
		Type      string
		Renderers []struct {
			ID         string
			Glyph      struct{ ID, Type string }
			DataSource *struct{ ID string } `json:"data_source"`
		}
		Tools []struct {
			Type      string
			Renderers []struct{ ID string }
		}
	}
	Sources []struct{ ID string }
}

func TestDocumentJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := testDocument().Write(&buf); err != nil {
		t.Fatal(err)
	}
	var doc testDoc
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if len(doc.Roots) != 1 || len(doc.Sources) != 1 {
		t.Fatalf("%d roots and %d sources", len(doc.Roots), len(doc.Sources))
	}
	p := doc.Roots[0]
	if p.Type != "Plot" || p.ID != "1" {
		t.Errorf("plot %s %s", p.Type, p.ID)
	}
	want := []string{"Line", "Circle", "Text"}
	var have []string
	for _, r := range p.Renderers {
		have = append(have, r.Glyph.Type)
	}
	if diff := cmp.Diff(want, have); diff != "" {
		t.Errorf("glyphs (-want +have):\n%s", diff)
	}
	if ds := p.Renderers[0].DataSource; ds == nil || ds.ID != doc.Sources[0].ID {
		t.Errorf("line data source %+v", ds)
	}
	if p.Renderers[2].DataSource != nil {
		t.Error("text should have no data source")
	}
	if len(p.Tools) != 1 || p.Tools[0].Type != "HoverTool" ||
		p.Tools[0].Renderers[0].ID != p.Renderers[0].ID {
		t.Errorf("tools %+v", p.Tools)
	}
	if !strings.Contains(buf.String(), `"CO2_emi":[5000,null]`) {
		t.Errorf("missing value not written as null: %s", buf.String())
	}
}

func TestDocumentDeterministic(t *testing.T) {
	a, err := json.Marshal(testDocument())
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		b, err := json.Marshal(testDocument())
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(a, b) {
			t.Fatalf("output differs:\n%s\n%s", a, b)
		}
	}
}

func TestCustomJSArgs(t *testing.T) {
	src := NewColumnDataSource()
	src.Add("index", Strings{"AH"})
	other := NewColumnDataSource()
	other.Add("t", Floats{2010})
	r := &GlyphRenderer{Source: other, Glyph: NewLine(Field("t"), Field("t"))}

	p := NewPlot(100, Range1d{End: 1}, Range1d{End: 1})
	p.AddTools(&TapTool{Callback: &CustomJS{
		Code: "source.change.emit();",
		Args: map[string]Model{"source": src, "line_AH": r},
	}})
	doc := NewDocument(p)
	b, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	var have struct {
		Roots []struct {
			Tools []struct {
				Callback struct {
					Code string
					Args map[string]struct{ ID string }
				}
			}
		}
		Sources []struct{ ID string }
	}
	if err := json.Unmarshal(b, &have); err != nil {
		t.Fatal(err)
	}
	if len(have.Sources) != 2 {
		t.Fatalf("callback sources not collected: %s", b)
	}
	args := have.Roots[0].Tools[0].Callback.Args
	if args["source"].ID != src.ID || args["line_AH"].ID != r.ID {
		t.Errorf("args %+v", args)
	}
	if src.ID == "" || r.ID == "" || src.ID == r.ID {
		t.Errorf("ids %q, %q", src.ID, r.ID)
	}
}

func TestDocumentPlot(t *testing.T) {
	p := NewPlot(100, Range1d{End: 1}, Range1d{End: 1})
	p.Name = "a"
	doc := NewDocument(p)
	if doc.Plot("a") != p {
		t.Error("plot a not found")
	}
	if doc.Plot("b") != nil {
		t.Error("found plot b")
	}
}
