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
	"strings"

	"github.com/ctessum/geom"
)

// Columns of the map data sources.
const (
	xsColumn     = "xs"
	ysColumn     = "ys"
	nameColumn   = "name_en"
	regionColumn = "region"
	indexColumn  = "index"
)

// Names of the map renderers.
const (
	backgroundRenderer = "background"
	provincesRenderer  = "provinces"
	tibetRenderer      = "tibet"
)

// ConvertProvincialTable joins t with the province outlines. It returns
// a data source with the outline coordinates, the English name, region
// and code of each province and t's value and color columns, and a
// separate data source for Tibet, which has no model data.
func ConvertProvincialTable(t *ProvincialTable, b Boundaries) (source, tibet *ColumnDataSource, err error) {
	var xs, ys Coordinates
	var names, regions, codes, colors Strings
	for i, code := range t.Codes {
		bnd, ok := b[code]
		if !ok {
			return nil, nil, fmt.Errorf("viz: no boundary for province %s", code)
		}
		x, y := coordinates(bnd.Polygon)
		xs = append(xs, x)
		ys = append(ys, y)
		names = append(names, bnd.Name)
		regions = append(regions, bnd.Region)
		codes = append(codes, code)
		colors = append(colors, string(t.Colors[i]))
	}
	source = NewColumnDataSource()
	for _, c := range []struct {
		name string
		col  Column
	}{
		{xsColumn, xs}, {ysColumn, ys}, {nameColumn, names}, {regionColumn, regions},
		{indexColumn, codes}, {t.ValueColumn(), t.Values}, {t.ColorColumn(), colors},
	} {
		if err := source.Add(c.name, c.col); err != nil {
			return nil, nil, err
		}
	}

	tibet = NewColumnDataSource()
	if bnd, ok := b[Tibet.Code]; ok {
		x, y := coordinates(bnd.Polygon)
		tibet.Add(xsColumn, Coordinates{x})
		tibet.Add(ysColumn, Coordinates{y})
		tibet.Add(nameColumn, Strings{Tibet.Name})
		tibet.Add(regionColumn, Strings{Tibet.Region})
		tibet.Add(indexColumn, Strings{Tibet.Code})
	}
	return source, tibet, nil
}

// sourceBounds returns the extent of the outlines in sources.
func sourceBounds(sources ...*ColumnDataSource) *geom.Bounds {
	b := geom.NewBounds()
	for _, s := range sources {
		xs, _ := s.Data[xsColumn].(Coordinates)
		ys, _ := s.Data[ysColumn].(Coordinates)
		for i := range xs {
			for j := range xs[i] {
				if math.IsNaN(xs[i][j]) {
					continue
				}
				b.Extend(geom.NewBoundsPoint(geom.Point{X: xs[i][j], Y: ys[i][j]}))
			}
		}
	}
	return b
}

// MapOptions specify how a provincial map is drawn.
type MapOptions struct {
	// FillColor is the column holding the province colors. It is
	// required.
	FillColor string

	// SelectedFillColor is the column holding the colors of selected
	// provinces. The default is FillColor.
	SelectedFillColor string

	// Background draws the provinces in black underneath, so that
	// translucent provinces appear darker.
	Background bool

	LineColor         Color
	LineWidth         float64
	SelectedLineColor Color
	SelectedLineWidth float64

	// Tooltip is shown below the province name when hovering.
	Tooltip string
}

func (o *MapOptions) setDefaults() {
	if o.SelectedFillColor == "" {
		o.SelectedFillColor = o.FillColor
	}
	if o.LineColor == "" {
		o.LineColor = "black"
	}
	if o.LineWidth == 0 {
		o.LineWidth = 0.5
	}
	if o.SelectedLineColor == "" {
		o.SelectedLineColor = DeepOrange
	}
	if o.SelectedLineWidth == 0 {
		o.SelectedLineWidth = 1
	}
}

// ProvincialMap returns a map of the provinces in source, with Tibet
// drawn blank from tibet.
func ProvincialMap(width int, source, tibet *ColumnDataSource, o MapOptions) (*Plot, error) {
	switch {
	case width <= 0:
		return nil, errors.New("viz: map width must be positive")
	case source == nil || tibet == nil:
		return nil, errors.New("viz: map data source missing")
	case o.FillColor == "":
		return nil, errors.New("viz: map fill color not specified")
	}
	if _, ok := source.Data[o.FillColor]; !ok {
		return nil, fmt.Errorf("viz: map data source has no column %s", o.FillColor)
	}
	o.setDefaults()

	m := mapPlot(width, sourceBounds(source, tibet))
	xs, ys := Field(xsColumn), Field(ysColumn)

	if o.Background {
		bg := NewPatches(xs, ys, Value("black"))
		m.AddSelectableGlyph(source, bg, bg, bg).Name = backgroundRenderer
	}

	provinces := NewPatches(xs, ys, Field(o.FillColor))
	provinces.LineColor = o.LineColor
	provinces.LineWidth = o.LineWidth
	provinces.LineJoin = "round"
	selected := *provinces
	selected.FillColor = Field(o.SelectedFillColor)
	selected.LineColor = o.SelectedLineColor
	selected.LineWidth = o.SelectedLineWidth
	m.AddSelectableGlyph(source, provinces, &selected, provinces).Name = provincesRenderer

	t := NewPatches(xs, ys, Value("white"))
	t.LineColor = "gray"
	t.LineDash = "dashed"
	t.LineWidth = 0.5
	m.AddGlyph(tibet, t).Name = tibetRenderer

	m.AddTools(&HoverTool{
		Tooltips: fmt.Sprintf("<span class='tooltip-text'>@%s</span><span class='tooltip-text'>%s</span>",
			nameColumn, o.Tooltip),
	})
	return m, nil
}

// ProvinceSource returns the data source of the provinces of a map
// made by ProvincialMap, or nil.
func ProvinceSource(m *Plot) *ColumnDataSource {
	if r := m.Renderer(provincesRenderer); r != nil {
		return r.Source
	}
	return nil
}

// PrefixedRenderers combines the line and label renderers of a
// provincial chart into one map with keys line_<code> and text_<code>.
func PrefixedRenderers(lines, texts map[string]*GlyphRenderer) map[string]*GlyphRenderer {
	o := make(map[string]*GlyphRenderer, len(lines)+len(texts))
	for code, r := range lines {
		o["line_"+code] = r
	}
	for code, r := range texts {
		o["text_"+code] = r
	}
	return o
}

const provinceCallback = `
var renderers = %s,
    selected = cb_obj.selected.indices,
    glyph = null;
Object.keys(renderers).forEach(function(key) {
    glyph = renderers[key].glyph;
    if (glyph !== undefined) {
        glyph.line_alpha = 0.5;
        glyph.line_width = 1;
        glyph.text_alpha = 0.2;
        glyph.text_font_style = 'normal';
    }
});
window.setTimeout(function() {
    selected.forEach(function(index) {
        var key = source.data['index'][index];
        glyph = renderers['line_' + key].glyph;
        glyph.line_alpha = 0.9;
        glyph.line_width = 4;
        glyph = renderers['text_' + key].glyph;
        glyph.text_alpha = 0.9;
        glyph.text_font_style = 'bold';
    });
}, 20);
`

// AddProvinceCallback makes clicking a province on m highlight the
// renderers keyed line_<code> and text_<code> of that province. source
// is the province data source of m.
func AddProvinceCallback(m *Plot, renderers map[string]*GlyphRenderer, source *ColumnDataSource) error {
	tap := m.TapTool()
	if tap == nil {
		return errors.New("viz: map has no tap tool")
	}
	names := make([]string, 0, len(renderers))
	args := map[string]Model{"source": source}
	for k, r := range renderers {
		if k == "source" || strings.ContainsAny(k, " .-") {
			return fmt.Errorf("viz: invalid renderer name %q", k)
		}
		names = append(names, k)
		args[k] = r
	}
	tap.Callback = &CustomJS{Code: fmt.Sprintf(provinceCallback, jsObject(names)), Args: args}
	return nil
}

const regionCallback = `
var indices = [],
    selected = cb_obj.selected.indices,
    regions = source.data['region'],
    selected_region = regions[selected[0]],
    idx = regions.indexOf(selected_region);
while (idx != -1) {
    indices.push(idx);
    idx = regions.indexOf(selected_region, idx + 1);
}
cb_obj.selected.indices = indices;
source.change.emit();
`

// AddRegionCallback makes clicking a province on m select every
// province in the same region.
func AddRegionCallback(m *Plot, source *ColumnDataSource) error {
	tap := m.TapTool()
	if tap == nil {
		return errors.New("viz: map has no tap tool")
	}
	tap.Callback = &CustomJS{Code: regionCallback, Args: map[string]Model{"source": source}}
	return nil
}

// tableFunc returns a provincial table with the given column prefix and
// color map. It has the form of a method expression on *Data.
type tableFunc func(d *Data, ctx context.Context, prefix, cmap string) (*ProvincialTable, error)

func provincialMap(ctx context.Context, d *Data, b Boundaries, width int, prefix, cmap, label, tooltip string, f tableFunc) (*Plot, error) {
	t, err := f(d, ctx, prefix, cmap)
	if err != nil {
		return nil, err
	}
	source, tibet, err := ConvertProvincialTable(t, b)
	if err != nil {
		return nil, err
	}
	m, err := ProvincialMap(width, source, tibet, MapOptions{FillColor: t.ColorColumn(), Tooltip: tooltip})
	if err != nil {
		return nil, err
	}
	m.Name = prefix
	m.Legend = &Legend{ColorMap: t.ColorMap, Label: label}
	return m, nil
}

// ProvincialPop2030Map maps BAU population in 2030.
func ProvincialPop2030Map(ctx context.Context, d *Data, b Boundaries, width int) (*Plot, error) {
	return provincialMap(ctx, d, b, width, "pop_2030", "Purples", "Population in 2030 (million)", "Population: @pop_2030_val{0} million",
		(*Data).PopulationIn2030ByProvince)
}

// ProvincialPM25Conc2030Map maps BAU PM2.5 concentrations in 2030.
func ProvincialPM25Conc2030Map(ctx context.Context, d *Data, b Boundaries, width int) (*Plot, error) {
	return provincialMap(ctx, d, b, width, "pm25_conc_2030", "Reds", "PM2.5 concentration in 2030 (μg/m³)", "",
		(*Data).PM25ConcIn2030ByProvince)
}

// ProvincialPM25Exp2030Map maps BAU PM2.5 exposure in 2030.
func ProvincialPM25Exp2030Map(ctx context.Context, d *Data, b Boundaries, width int) (*Plot, error) {
	return provincialMap(ctx, d, b, width, "pm25_exp_2030", "Greys", "PM2.5 exposure in 2030 (μg/m³)", "",
		(*Data).PM25ExposureIn2030ByProvince)
}

// Col2010Map maps the 2010 coal share.
func Col2010Map(ctx context.Context, d *Data, b Boundaries, width int) (*Plot, error) {
	return provincialMap(ctx, d, b, width, "col_2010", "Blues", "Coal share in 2010", "Coal share: @col_2010_val{0.000}",
		func(d *Data, ctx context.Context, prefix, _ string) (*ProvincialTable, error) {
			return d.CoalShareIn2010ByProvince(ctx, prefix)
		})
}

// GDP2010Map maps GDP in 2010.
func GDP2010Map(ctx context.Context, d *Data, b Boundaries, width int) (*Plot, error) {
	return provincialMap(ctx, d, b, width, "gdp_2010", "Greys", "GDP in 2010 (bn$)", "2010 GDP: @gdp_2010_val{0} bn$",
		(*Data).GDPIn2010ByProvince)
}

// PM25Exposure2030Map maps PM2.5 exposure in 2030 under the policy case.
func PM25Exposure2030Map(ctx context.Context, d *Data, b Boundaries, width int) (*Plot, error) {
	return provincialMap(ctx, d, b, width, "pm25exposure_2030", "Purples", "PM2.5 exposure in 2030 (μg/m³)", "Weighted exposure: @pm25exposure_2030_val μg/m³",
		(*Data).PM25Exposure2030ByProvince)
}

// CO2ChangeMap maps the change in BAU CO2 emissions from 2010 to 2030.
func CO2ChangeMap(ctx context.Context, d *Data, b Boundaries, width int) (*Plot, error) {
	return provincialMap(ctx, d, b, width, "co2_change", "Oranges", "Change in CO₂ (Mt)", "",
		(*Data).CO2ChangeByProvince)
}

// CO2FourVsBAUChangeMap maps the 2030 CO2 emission difference between
// the policy case and BAU.
func CO2FourVsBAUChangeMap(ctx context.Context, d *Data, b Boundaries, width int) (*Plot, error) {
	return provincialMap(ctx, d, b, width, "co2_change", "Oranges", "Change in CO₂ (Mt)", "Change in CO₂: @co2_change_val{0} Mt",
		(*Data).CO2Change2030FourVsBAUByProvince)
}

// PM25FourVsBAUChangeMap maps the 2030 PM2.5 concentration difference
// between the policy case and BAU.
func PM25FourVsBAUChangeMap(ctx context.Context, d *Data, b Boundaries, width int) (*Plot, error) {
	return provincialMap(ctx, d, b, width, "pm25_change", "Greens", "Change in PM2.5 (μg/m³)", "Change in PM2.5: @pm25_change_val{0.0} μg/m³",
		(*Data).PM25Change2030FourVsBAUByProvince)
}

// GDPDeltaIn2030Map maps the 2030 GDP difference from BAU under the
// policy case.
func GDPDeltaIn2030Map(ctx context.Context, d *Data, b Boundaries, width int) (*Plot, error) {
	return provincialMap(ctx, d, b, width, "gdpdelta_change", "Greys", "Change in GDP (%)", "Change in GDP: @gdpdelta_change_val{0.0}%",
		func(d *Data, ctx context.Context, prefix, cmap string) (*ProvincialTable, error) {
			return d.GDPDeltaIn2030ByProvince(ctx, prefix, cmap, 20)
		})
}

// PM25ExposureChangeMap maps the change in BAU PM2.5 exposure from
// 2010 to 2030.
func PM25ExposureChangeMap(ctx context.Context, d *Data, b Boundaries, width int) (*Plot, error) {
	return provincialMap(ctx, d, b, width, "pm25_exp_change", "Blues", "Change in PM2.5 exposure (μg/m³)", "",
		(*Data).PM25ExposureChangeByProvince)
}

// GDPDeltaChangeMap maps the change from 2010 to 2030 in the GDP
// difference from BAU under the policy case.
func GDPDeltaChangeMap(ctx context.Context, d *Data, b Boundaries, width int) (*Plot, error) {
	return provincialMap(ctx, d, b, width, "gdp_delta_change", "Purples", "Change in GDP difference (%)", "",
		(*Data).GDPDeltaChangeByProvince)
}
