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
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	_ "gonum.org/v1/plot/vg/vgimg" // png
	_ "gonum.org/v1/plot/vg/vgsvg" // svg
)

// Legend describes the color scale of a map for static rendering.
type Legend struct {
	ColorMap *ColorMap
	Label    string
}

const legendHeight = 0.6 * vg.Inch

// pixels converts a screen size at 96 DPI to a vg.Length.
func pixels(px float64) vg.Length { return vg.Length(px) * vg.Inch / 96 }

// size returns the image size of p.
func size(p *Plot) (w, h vg.Length) {
	w = pixels(float64(p.Width))
	if p.Height > 0 {
		return w, pixels(float64(p.Height))
	}
	return w, w * 0.6
}

// Render draws p to fileName. The format, PNG or SVG, follows from the
// file extension. Maps with a Legend get a color bar below the map.
func Render(p *Plot, fileName string) error {
	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
	gp, err := staticPlot(p)
	if err != nil {
		return fmt.Errorf("viz: rendering %s: %w", fileName, err)
	}
	w, h := size(p)
	var legend *plot.Plot
	if p.Legend != nil && p.Legend.ColorMap.Max() > p.Legend.ColorMap.Min() &&
		!math.IsInf(p.Legend.ColorMap.Max()-p.Legend.ColorMap.Min(), 0) {
		legend = plot.New()
		legend.Add(&plotter.ColorBar{ColorMap: p.Legend.ColorMap})
		legend.HideY()
		legend.X.Label.Text = p.Legend.Label
		h += legendHeight
	}

	c, err := draw.NewFormattedCanvas(w, h, format)
	if err != nil {
		return fmt.Errorf("viz: rendering %s: %w", fileName, err)
	}
	dc := draw.New(c)
	if legend != nil {
		gp.Draw(draw.Crop(dc, 0, 0, legendHeight, 0))
		legend.Draw(draw.Crop(dc, 0, 0, 0, legendHeight-h))
	} else {
		gp.Draw(dc)
	}

	f, err := os.Create(fileName)
	if err != nil {
		return fmt.Errorf("viz: %w", err)
	}
	if _, err := c.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("viz: writing %s: %w", fileName, err)
	}
	return f.Close()
}

// staticPlot converts p to a gonum plot.
func staticPlot(p *Plot) (*plot.Plot, error) {
	gp := plot.New()
	bg, err := parseColor(p.BackgroundFillColor, 1)
	if err != nil {
		return nil, err
	}
	gp.BackgroundColor = bg
	gp.X.Min, gp.X.Max = p.XRange.Start, p.XRange.End
	gp.Y.Min, gp.Y.Max = p.YRange.Start, p.YRange.End

	isMap := false
	for _, r := range p.Renderers {
		if _, ok := r.Glyph.(*Patches); ok {
			isMap = true
		}
	}
	if isMap {
		gp.HideAxes()
	} else {
		gp.X.Tick.Marker = plot.ConstantTicks(nil)
		gp.Y.Tick.Marker = plot.ConstantTicks(nil)
	}

	for _, l := range p.Layouts {
		switch it := l.Item.(type) {
		case *LinearAxis:
			ax := &gp.Y
			if l.Place == Below {
				ax = &gp.X
			}
			if it.Ticker != nil {
				ax.Tick.Marker = ticks(it.Ticker, it.Formatter)
			}
			ax.Label.Text = it.AxisLabel
			if clr, err := parseColor(it.MajorLabelTextColor, 1); err == nil && it.MajorLabelTextColor != "" {
				ax.Tick.Label.Color = clr
			}
			ax.LineStyle.Width = 0
			ax.Tick.LineStyle.Width = 0
		case *Grid:
			b, err := newBands(it)
			if err != nil {
				return nil, err
			}
			gp.Add(b)
		}
	}

	for _, r := range p.Renderers {
		pl, err := staticGlyph(r)
		if err != nil {
			return nil, err
		}
		if pl != nil {
			gp.Add(pl)
		}
	}
	return gp, nil
}

// ticks converts a fixed ticker to gonum ticks.
func ticks(t *FixedTicker, f *NumeralTickFormatter) plot.ConstantTicks {
	format := "0,0"
	if f != nil {
		format = f.Format
	}
	o := make(plot.ConstantTicks, len(t.Ticks))
	for i, v := range t.Ticks {
		o[i] = plot.Tick{Value: v, Label: numeral(format, v)}
	}
	return o
}

// numeral formats v using the subset of Numeral.js formats used by
// the charts: "0", "0,0", "0.0", "0,0.00" and so on.
func numeral(format string, v float64) string {
	dec := 0
	if i := strings.Index(format, "."); i >= 0 {
		dec = len(format) - i - 1
	}
	s := strconv.FormatFloat(math.Abs(v), 'f', dec, 64)
	if strings.Contains(format, ",") {
		intPart, frac := s, ""
		if i := strings.Index(s, "."); i >= 0 {
			intPart, frac = s[:i], s[i:]
		}
		var b strings.Builder
		for i, r := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				b.WriteByte(',')
			}
			b.WriteRune(r)
		}
		s = b.String() + frac
	}
	if v < 0 && strings.Trim(s, "0.,") != "" {
		s = "-" + s
	}
	return s
}

// specFloats resolves a numeric property for every row of src.
func specFloats(s Spec, src *ColumnDataSource) ([]float64, error) {
	if s.IsField() {
		if src == nil {
			return nil, fmt.Errorf("field %s without a data source", s.Field)
		}
		return src.Floats(s.Field)
	}
	v, ok := number(s.Value)
	if !ok {
		return nil, fmt.Errorf("value %v is not a number", s.Value)
	}
	return []float64{v}, nil
}

func number(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	}
	return math.NaN(), false
}

// finiteXYs returns the points of x and y where both are finite.
func finiteXYs(x, y []float64) plotter.XYs {
	var o plotter.XYs
	for i := range x {
		if i >= len(y) || math.IsNaN(x[i]) || math.IsNaN(y[i]) || math.IsInf(x[i], 0) || math.IsInf(y[i], 0) {
			continue
		}
		o = append(o, plotter.XY{X: x[i], Y: y[i]})
	}
	return o
}

// staticGlyph converts a renderer to a gonum plotter. It returns nil
// for renderers that draw nothing.
func staticGlyph(r *GlyphRenderer) (plot.Plotter, error) {
	switch g := r.Glyph.(type) {
	case *Line:
		xys, err := points(g.X, g.Y, r.Source)
		if err != nil || len(xys) == 0 {
			return nil, err
		}
		l, err := plotter.NewLine(xys)
		if err != nil {
			return nil, err
		}
		if l.LineStyle.Color, err = parseColor(g.LineColor, g.LineAlpha); err != nil {
			return nil, err
		}
		l.LineStyle.Width = pixels(g.LineWidth)
		return l, nil

	case *Circle:
		if g.LineColor == "" && g.FillColor == "" {
			return nil, nil
		}
		xys, err := points(g.X, g.Y, r.Source)
		if err != nil || len(xys) == 0 {
			return nil, err
		}
		s, err := plotter.NewScatter(xys)
		if err != nil {
			return nil, err
		}
		s.GlyphStyle.Radius = pixels(g.Size / 2)
		s.GlyphStyle.Shape = draw.RingGlyph{}
		clr := g.LineColor
		if g.FillColor != "" {
			s.GlyphStyle.Shape = draw.CircleGlyph{}
			clr = g.FillColor
		}
		if s.GlyphStyle.Color, err = parseColor(clr, 1); err != nil {
			return nil, err
		}
		return s, nil

	case *Text:
		xys, err := points(g.X, g.Y, r.Source)
		if err != nil || len(xys) == 0 {
			return nil, err
		}
		txt, ok := g.Text.Value.(string)
		if !ok {
			return nil, fmt.Errorf("text %v is not a literal string", g.Text)
		}
		l, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: []string{txt}})
		if err != nil {
			return nil, err
		}
		clr, err := parseColor(g.TextColor, g.TextAlpha)
		if err != nil {
			return nil, err
		}
		for i := range l.TextStyle {
			l.TextStyle[i].Color = clr
			if pt, err := strconv.ParseFloat(strings.TrimSuffix(g.TextFontSize, "pt"), 64); err == nil {
				l.TextStyle[i].Font.Size = vg.Points(pt)
			}
		}
		return l, nil

	case *Patches:
		return newPatches(g, r.Source)
	}
	return nil, fmt.Errorf("unsupported glyph %T", r.Glyph)
}

func points(x, y Spec, src *ColumnDataSource) (plotter.XYs, error) {
	xs, err := specFloats(x, src)
	if err != nil {
		return nil, err
	}
	ys, err := specFloats(y, src)
	if err != nil {
		return nil, err
	}
	return finiteXYs(xs, ys), nil
}

// bands draws the alternating bands of a Grid.
type bands struct {
	ticks []float64
	fill  color.Color
}

func newBands(g *Grid) (*bands, error) {
	if g.Ticker == nil || g.BandFillColor == "" {
		return &bands{}, nil
	}
	clr, err := parseColor(g.BandFillColor, g.BandFillAlpha)
	if err != nil {
		return nil, err
	}
	return &bands{ticks: g.Ticker.Ticks, fill: clr}, nil
}

// Plot implements plot.Plotter.
func (b *bands) Plot(c draw.Canvas, p *plot.Plot) {
	trX, _ := p.Transforms(&c)
	for i := 0; i+1 < len(b.ticks); i += 2 {
		x0, x1 := trX(b.ticks[i]), trX(b.ticks[i+1])
		c.FillPolygon(b.fill, c.ClipPolygonXY([]vg.Point{
			{X: x0, Y: c.Min.Y}, {X: x1, Y: c.Min.Y},
			{X: x1, Y: c.Max.Y}, {X: x0, Y: c.Max.Y},
		}))
	}
}

// patches draws the polygons of a Patches glyph, the way
// ctessum/geom/carto draws vector data.
type patches struct {
	xs, ys Coordinates
	fill   []color.Color
	line   draw.LineStyle
}

func newPatches(g *Patches, src *ColumnDataSource) (*patches, error) {
	if src == nil {
		return nil, fmt.Errorf("patches without a data source")
	}
	pp := new(patches)
	var ok bool
	if pp.xs, ok = src.Data[g.Xs.Field].(Coordinates); !ok {
		return nil, fmt.Errorf("patches: %s is not a coordinate column", g.Xs.Field)
	}
	if pp.ys, ok = src.Data[g.Ys.Field].(Coordinates); !ok {
		return nil, fmt.Errorf("patches: %s is not a coordinate column", g.Ys.Field)
	}
	for i := range pp.xs {
		var c Color
		if g.FillColor.IsField() {
			colors, err := src.Strings(g.FillColor.Field)
			if err != nil {
				return nil, err
			}
			c = Color(colors[i])
		} else {
			s, _ := g.FillColor.Value.(string)
			c = Color(s)
		}
		clr, err := parseColor(c, g.FillAlpha)
		if err != nil {
			return nil, err
		}
		pp.fill = append(pp.fill, clr)
	}
	lc, err := parseColor(g.LineColor, 1)
	if err != nil {
		return nil, err
	}
	pp.line = draw.LineStyle{Color: lc, Width: pixels(g.LineWidth)}
	if g.LineDash == "dashed" {
		pp.line.Dashes = []vg.Length{pixels(6), pixels(4)}
	}
	return pp, nil
}

// rings splits a NaN-separated coordinate list.
func rings(xs, ys []float64) [][]plotter.XY {
	var o [][]plotter.XY
	var cur []plotter.XY
	for i := range xs {
		if math.IsNaN(xs[i]) {
			if len(cur) > 0 {
				o = append(o, cur)
			}
			cur = nil
			continue
		}
		cur = append(cur, plotter.XY{X: xs[i], Y: ys[i]})
	}
	if len(cur) > 0 {
		o = append(o, cur)
	}
	return o
}

// Plot implements plot.Plotter. The rings of a patch are filled as
// one path.
func (pp *patches) Plot(c draw.Canvas, p *plot.Plot) {
	trX, trY := p.Transforms(&c)
	for i := range pp.xs {
		var path vg.Path
		var outlines [][]vg.Point
		for _, ring := range rings(pp.xs[i], pp.ys[i]) {
			pts := make([]vg.Point, len(ring))
			for j, pt := range ring {
				pts[j] = vg.Point{X: trX(pt.X), Y: trY(pt.Y)}
				if j == 0 {
					path.Move(pts[j])
				} else {
					path.Line(pts[j])
				}
			}
			path.Close()
			outlines = append(outlines, append(pts, pts[0]))
		}
		if _, _, _, a := pp.fill[i].RGBA(); a > 0 {
			c.SetColor(pp.fill[i])
			c.Fill(path)
		}
		if pp.line.Width > 0 {
			c.StrokeLines(pp.line, outlines...)
		}
	}
}

// DataRange implements plot.DataRanger.
func (pp *patches) DataRange() (xmin, xmax, ymin, ymax float64) {
	b := sourceBounds(&ColumnDataSource{Data: map[string]Column{xsColumn: pp.xs, ysColumn: pp.ys}})
	return b.Min.X, b.Max.X, b.Min.Y, b.Max.Y
}
