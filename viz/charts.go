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
	"errors"
	"fmt"
	"math"

	"github.com/mit-jp/cremviz"
)

var (
	errNoParameter = errors.New("viz: no parameter specified")
	errNoTicks     = errors.New("viz: no y ticks specified")
)

// timeAxes adds the axes and the five-year band grid shared by the
// time series charts.
func timeAxes(p *Plot, yTicks []float64) {
	p.AddLayout(axis(&FixedTicker{Ticks: yTicks}, &NumeralTickFormatter{Format: "0,0"}, ""), Left)
	p.AddLayout(axis(&FixedTicker{Ticks: Floats{baseYear, targetYear}}, &NumeralTickFormatter{Format: "0"}, ""), Below)
	p.AddLayout(&Grid{
		Dimension:     0,
		Ticker:        &FixedTicker{Ticks: Floats{2010, 2015, 2020, 2025, 2030}},
		BandFillAlpha: 0.1,
		BandFillColor: Grey,
	}, Center)
}

// last returns the final time and value of variable in s.
func last(s *ColumnDataSource, variable string) (t, v float64) {
	ts, _ := s.Floats(cremviz.TimeDim)
	vs, _ := s.Floats(variable)
	if len(ts) == 0 {
		return math.NaN(), math.NaN()
	}
	return ts[len(ts)-1], vs[len(vs)-1]
}

// NationalScenarioLinePlot returns a chart of the national values of
// parameter under each scenario, and the line renderer of each scenario.
// The highlighted scenario is drawn opaque and hovering over a point
// shows its value.
func NationalScenarioLinePlot(ctx context.Context, data *Data, parameter string, yTicks []float64, width int) (*Plot, map[string]*GlyphRenderer, error) {
	if parameter == "" {
		return nil, nil, errNoParameter
	}
	if len(yTicks) == 0 {
		return nil, nil, errNoTicks
	}
	sources, all, err := data.NationalSources(ctx, parameter)
	if err != nil {
		return nil, nil, err
	}

	p := NewPlot(width, yearRange(1), yRange(all))
	timeAxes(p, yTicks)

	var hitRenderers []*GlyphRenderer
	lines := make(map[string]*GlyphRenderer)
	for _, s := range Scenarios {
		source := sources[s]
		x, y := Field(cremviz.TimeDim), Field(parameter)

		line := NewLine(x, y)
		line.LineColor = ScenarioColors[s]
		line.LineWidth = 4
		line.LineCap = "round"
		line.LineJoin = "round"
		line.LineAlpha = 0.1
		if s == highlighted {
			line.LineAlpha = 0.8
		}

		circle := NewCircle(x, y, 8)
		circle.LineColor = ScenarioColors[s]
		circle.LineWidth = 2
		circle.FillColor = "white"

		// Invisible, for hovering.
		hit := NewCircle(x, y, 20)
		hit.LineColor = ""

		lt, lv := last(source, parameter)
		label := NewText(Value(lt+0.5), Value(lv), Value(ScenarioNames[s]))
		label.TextColor = ScenarioColors[s]

		hitRenderers = append(hitRenderers, p.AddGlyph(source, hit))
		lines[s] = p.AddGlyph(source, line)
		p.AddGlyph(source, circle)
		p.AddGlyph(nil, label)
	}
	p.AddTools(&HoverTool{
		Tooltips:  fmt.Sprintf("@%s{0,0} (@%s)", parameter, cremviz.TimeDim),
		Renderers: hitRenderers,
	})
	return p, lines, nil
}

// ProvincialScenarioLinePlot returns a chart of parameter in each
// province under the policy case, with lines colored by the province's
// 2010 coal share. It also returns the line and label renderers of each
// province.
func ProvincialScenarioLinePlot(ctx context.Context, data *Data, parameter string, yTicks []float64, width int) (*Plot, map[string]*GlyphRenderer, map[string]*GlyphRenderer, error) {
	if parameter == "" {
		return nil, nil, nil, errNoParameter
	}
	if len(yTicks) == 0 {
		return nil, nil, nil, errNoTicks
	}
	sources, all, colShare, err := data.ProvincialSources(ctx, parameter)
	if err != nil {
		return nil, nil, nil, err
	}
	max := 0.
	for _, v := range all {
		if !math.IsNaN(v) {
			max = math.Max(max, v)
		}
	}

	p := NewPlot(width, yearRange(2), Range1d{Start: 0, End: max * 1.1})
	timeAxes(p, yTicks)

	cmap, err := NewColorMap("Blues", 0, 1)
	if err != nil {
		return nil, nil, nil, err
	}
	yOffset := max * 0.01
	lines := make(map[string]*GlyphRenderer)
	texts := make(map[string]*GlyphRenderer)
	for i, prov := range Provinces {
		clr := cmap.Hex(colShare[i])
		source := sources[prov.Code]

		line := NewLine(Field(cremviz.TimeDim), Field(parameter))
		line.LineColor = clr
		line.LineWidth = 2
		line.LineCap = "round"
		line.LineJoin = "round"
		line.LineAlpha = 0.8

		lt, lv := last(source, parameter)
		label := NewText(Value(lt+0.2), Value(lv-yOffset), Value(prov.Code))
		label.TextColor = clr
		label.TextFontSize = "8pt"
		label.TextAlpha = 0.2

		lines[prov.Code] = p.AddGlyph(source, line)
		texts[prov.Code] = p.AddGlyph(nil, label)
	}
	return p, lines, texts, nil
}
