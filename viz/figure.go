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

// Package viz builds the charts and maps of the C-REM results site.
//
// Figures are described by a small object model (plots, column data
// sources, glyphs, tools and JavaScript callbacks) that is serialized to
// JSON and drawn in the browser. The same model can also be drawn to
// static PNG or SVG images.
package viz

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
)

// Model is implemented by every object in a figure.
type Model interface {
	object() *Object
}

// Object holds the identity of a figure object. IDs are assigned
// when the Document that holds the object is serialized.
type Object struct {
	ID string `json:"id"`
}

func (o *Object) object() *Object { return o }

type ref struct {
	ID string `json:"id"`
}

func refTo(m Model) ref { return ref{ID: m.object().ID} }

// marshalTyped marshals v and adds a "type" key holding typ.
func marshalTyped(typ string, v interface{}) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("viz: marshaling %s: %w", typ, err)
	}
	o := []byte(`{"type":` + strconv.Quote(typ))
	if len(b) > 2 {
		o = append(o, ',')
	}
	return append(o, b[1:]...), nil
}

// Color is a CSS color. The empty Color means no color.
type Color string

// MarshalJSON implements json.Marshaler.
func (c Color) MarshalJSON() ([]byte, error) { return nullString(string(c)), nil }

func nullString(s string) []byte {
	if s == "" {
		return []byte("null")
	}
	return []byte(strconv.Quote(s))
}

// appendFloat writes non-finite values as null, which JSON lacks.
func appendFloat(b []byte, v float64) []byte {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return append(b, "null"...)
	}
	return strconv.AppendFloat(b, v, 'g', -1, 64)
}

// Spec is a glyph property that is either a reference to a column of
// the glyph's data source or a literal value.
type Spec struct {
	Field string
	Value interface{}
}

// Field returns a Spec referring to the named column.
func Field(name string) Spec { return Spec{Field: name} }

// Value returns a Spec holding a literal value.
func Value(v interface{}) Spec { return Spec{Value: v} }

// IsField returns whether s refers to a column.
func (s Spec) IsField() bool { return s.Field != "" }

// MarshalJSON implements json.Marshaler.
func (s Spec) MarshalJSON() ([]byte, error) {
	if s.IsField() {
		return []byte(`{"field":` + strconv.Quote(s.Field) + `}`), nil
	}
	if v, ok := s.Value.(float64); ok {
		return append(appendFloat([]byte(`{"value":`), v), '}'), nil
	}
	v, err := json.Marshal(s.Value)
	if err != nil {
		return nil, err
	}
	return append(append([]byte(`{"value":`), v...), '}'), nil
}

// Column is a column of a ColumnDataSource.
type Column interface {
	Len() int
}

// Floats is a numeric column. NaN values are written as null.
type Floats []float64

// Len implements Column.
func (f Floats) Len() int { return len(f) }

// MarshalJSON implements json.Marshaler.
func (f Floats) MarshalJSON() ([]byte, error) {
	b := []byte{'['}
	for i, v := range f {
		if i > 0 {
			b = append(b, ',')
		}
		b = appendFloat(b, v)
	}
	return append(b, ']'), nil
}

// Strings is a text column.
type Strings []string

// Len implements Column.
func (s Strings) Len() int { return len(s) }

// Coordinates holds one coordinate list per row, such as the
// x or y coordinates of the patches of a Patches glyph. Rings of
// the same patch are separated by NaN.
type Coordinates [][]float64

// Len implements Column.
func (c Coordinates) Len() int { return len(c) }

// MarshalJSON implements json.Marshaler.
func (c Coordinates) MarshalJSON() ([]byte, error) {
	b := []byte{'['}
	for i, row := range c {
		if i > 0 {
			b = append(b, ',')
		}
		r, _ := Floats(row).MarshalJSON()
		b = append(b, r...)
	}
	return append(b, ']'), nil
}

// ColumnDataSource holds the data that glyphs are drawn from.
// All columns have the same length.
type ColumnDataSource struct {
	Object
	Data map[string]Column `json:"data"`
}

// NewColumnDataSource returns an empty data source.
func NewColumnDataSource() *ColumnDataSource {
	return &ColumnDataSource{Data: make(map[string]Column)}
}

// Add adds a column to s.
func (s *ColumnDataSource) Add(name string, c Column) error {
	if len(s.Data) > 0 && c.Len() != s.Len() {
		return fmt.Errorf("viz: column %s has length %d but data source has length %d", name, c.Len(), s.Len())
	}
	s.Data[name] = c
	return nil
}

// Len returns the number of rows in s.
func (s *ColumnDataSource) Len() int {
	for _, c := range s.Data {
		return c.Len()
	}
	return 0
}

// Floats returns the named numeric column.
func (s *ColumnDataSource) Floats(name string) (Floats, error) {
	c, ok := s.Data[name]
	if !ok {
		return nil, fmt.Errorf("viz: data source has no column %s", name)
	}
	f, ok := c.(Floats)
	if !ok {
		return nil, fmt.Errorf("viz: column %s is %T, not numeric", name, c)
	}
	return f, nil
}

// Strings returns the named text column.
func (s *ColumnDataSource) Strings(name string) (Strings, error) {
	c, ok := s.Data[name]
	if !ok {
		return nil, fmt.Errorf("viz: data source has no column %s", name)
	}
	f, ok := c.(Strings)
	if !ok {
		return nil, fmt.Errorf("viz: column %s is %T, not text", name, c)
	}
	return f, nil
}

// MarshalJSON implements json.Marshaler.
func (s *ColumnDataSource) MarshalJSON() ([]byte, error) {
	type alias ColumnDataSource
	return marshalTyped("ColumnDataSource", (*alias)(s))
}

// Glyph is a visual mark drawn once per data source row.
type Glyph interface {
	Model
	glyph()
}

// Line is a line through the points of a data source.
type Line struct {
	Object
	X         Spec    `json:"x"`
	Y         Spec    `json:"y"`
	LineColor Color   `json:"line_color"`
	LineWidth float64 `json:"line_width"`
	LineAlpha float64 `json:"line_alpha"`
	LineCap   string  `json:"line_cap,omitempty"`
	LineJoin  string  `json:"line_join,omitempty"`
}

// NewLine returns a black line of width 1.
func NewLine(x, y Spec) *Line {
	return &Line{X: x, Y: y, LineColor: "black", LineWidth: 1, LineAlpha: 1}
}

func (*Line) glyph() {}

// MarshalJSON implements json.Marshaler.
func (l *Line) MarshalJSON() ([]byte, error) {
	type alias Line
	return marshalTyped("Line", (*alias)(l))
}

// Circle is a circle marker. Size is in screen pixels.
type Circle struct {
	Object
	X         Spec    `json:"x"`
	Y         Spec    `json:"y"`
	Size      float64 `json:"size"`
	LineColor Color   `json:"line_color"`
	LineWidth float64 `json:"line_width"`
	FillColor Color   `json:"fill_color"`
}

// NewCircle returns a circle marker with a black outline and no fill.
func NewCircle(x, y Spec, size float64) *Circle {
	return &Circle{X: x, Y: y, Size: size, LineColor: "black", LineWidth: 1}
}

func (*Circle) glyph() {}

// MarshalJSON implements json.Marshaler.
func (c *Circle) MarshalJSON() ([]byte, error) {
	type alias Circle
	return marshalTyped("Circle", (*alias)(c))
}

// Text is a text label.
type Text struct {
	Object
	X             Spec    `json:"x"`
	Y             Spec    `json:"y"`
	Text          Spec    `json:"text"`
	TextColor     Color   `json:"text_color"`
	TextAlpha     float64 `json:"text_alpha"`
	TextFontSize  string  `json:"text_font_size,omitempty"`
	TextFontStyle string  `json:"text_font_style,omitempty"`
}

// NewText returns an opaque black label.
func NewText(x, y, text Spec) *Text {
	return &Text{X: x, Y: y, Text: text, TextColor: "black", TextAlpha: 1}
}

func (*Text) glyph() {}

// MarshalJSON implements json.Marshaler.
func (t *Text) MarshalJSON() ([]byte, error) {
	type alias Text
	return marshalTyped("Text", (*alias)(t))
}

// Patches is a set of filled polygons, one per data source row.
type Patches struct {
	Object
	Xs        Spec    `json:"xs"`
	Ys        Spec    `json:"ys"`
	FillColor Spec    `json:"fill_color"`
	FillAlpha float64 `json:"fill_alpha"`
	LineColor Color   `json:"line_color"`
	LineWidth float64 `json:"line_width"`
	LineJoin  string  `json:"line_join,omitempty"`
	LineDash  string  `json:"line_dash,omitempty"`
}

// NewPatches returns patches with the given fill and a black outline.
func NewPatches(xs, ys, fill Spec) *Patches {
	return &Patches{Xs: xs, Ys: ys, FillColor: fill, FillAlpha: 1, LineColor: "black", LineWidth: 1}
}

func (*Patches) glyph() {}

// MarshalJSON implements json.Marshaler.
func (p *Patches) MarshalJSON() ([]byte, error) {
	type alias Patches
	return marshalTyped("Patches", (*alias)(p))
}

// GlyphRenderer draws a glyph from a data source. Source is nil for
// glyphs whose properties are all literal values.
type GlyphRenderer struct {
	Object
	Name              string            `json:"name,omitempty"`
	Source            *ColumnDataSource `json:"-"`
	Glyph             Glyph             `json:"glyph"`
	SelectionGlyph    Glyph             `json:"selection_glyph,omitempty"`
	NonselectionGlyph Glyph             `json:"nonselection_glyph,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (r *GlyphRenderer) MarshalJSON() ([]byte, error) {
	type alias GlyphRenderer
	v := struct {
		*alias
		DataSource *ref `json:"data_source"`
	}{alias: (*alias)(r)}
	if r.Source != nil {
		s := refTo(r.Source)
		v.DataSource = &s
	}
	return marshalTyped("GlyphRenderer", v)
}

// Range1d is a fixed axis range.
type Range1d struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// FixedTicker places ticks at fixed locations.
type FixedTicker struct {
	Object
	Ticks Floats `json:"ticks"`
}

// MarshalJSON implements json.Marshaler.
func (t *FixedTicker) MarshalJSON() ([]byte, error) {
	type alias FixedTicker
	return marshalTyped("FixedTicker", (*alias)(t))
}

// NumeralTickFormatter formats tick labels using a Numeral.js format
// string such as "0,0".
type NumeralTickFormatter struct {
	Object
	Format string `json:"format"`
}

// MarshalJSON implements json.Marshaler.
func (f *NumeralTickFormatter) MarshalJSON() ([]byte, error) {
	type alias NumeralTickFormatter
	return marshalTyped("NumeralTickFormatter", (*alias)(f))
}

// LinearAxis is a numeric axis.
type LinearAxis struct {
	Object
	Ticker                 *FixedTicker          `json:"ticker,omitempty"`
	Formatter              *NumeralTickFormatter `json:"formatter,omitempty"`
	AxisLabel              string                `json:"axis_label,omitempty"`
	AxisLineColor          Color                 `json:"axis_line_color"`
	MajorTickLineColor     Color                 `json:"major_tick_line_color"`
	MinorTickLineColor     Color                 `json:"minor_tick_line_color"`
	MajorLabelTextColor    Color                 `json:"major_label_text_color"`
	MajorLabelTextFontSize string                `json:"major_label_text_font_size,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (a *LinearAxis) MarshalJSON() ([]byte, error) {
	type alias LinearAxis
	return marshalTyped("LinearAxis", (*alias)(a))
}

// Grid draws grid lines and alternating bands at the ticks of one
// dimension (0 for x, 1 for y).
type Grid struct {
	Object
	Dimension     int          `json:"dimension"`
	Ticker        *FixedTicker `json:"ticker,omitempty"`
	BandFillAlpha float64      `json:"band_fill_alpha"`
	BandFillColor Color        `json:"band_fill_color"`
	GridLineColor Color        `json:"grid_line_color"`
}

// MarshalJSON implements json.Marshaler.
func (g *Grid) MarshalJSON() ([]byte, error) {
	type alias Grid
	return marshalTyped("Grid", (*alias)(g))
}

// Placement locations for plot layouts.
const (
	Left   = "left"
	Below  = "below"
	Center = "center"
)

// Layout is an axis or grid and where it is placed on a plot.
type Layout struct {
	Place string `json:"place"`
	Item  Model  `json:"item"`
}

// Tool is an interactive plot tool.
type Tool interface {
	Model
	tool()
}

// HoverTool shows Tooltips when hovering over the glyphs of
// Renderers, or of all renderers if Renderers is empty.
type HoverTool struct {
	Object
	Tooltips  string
	Renderers []*GlyphRenderer
}

func (*HoverTool) tool() {}

// MarshalJSON implements json.Marshaler.
func (h *HoverTool) MarshalJSON() ([]byte, error) {
	rs := make([]ref, len(h.Renderers))
	for i, r := range h.Renderers {
		rs[i] = refTo(r)
	}
	return marshalTyped("HoverTool", struct {
		ID        string `json:"id"`
		Tooltips  string `json:"tooltips"`
		Renderers []ref  `json:"renderers"`
	}{h.ID, h.Tooltips, rs})
}

// TapTool selects the glyph that is clicked and runs Callback.
type TapTool struct {
	Object
	Callback *CustomJS `json:"callback,omitempty"`
}

func (*TapTool) tool() {}

// MarshalJSON implements json.Marshaler.
func (t *TapTool) MarshalJSON() ([]byte, error) {
	type alias TapTool
	return marshalTyped("TapTool", (*alias)(t))
}

// CustomJS is a JavaScript callback. The objects in Args are available
// to Code as variables with the same names.
type CustomJS struct {
	Object
	Code string
	Args map[string]Model
}

// MarshalJSON implements json.Marshaler.
func (c *CustomJS) MarshalJSON() ([]byte, error) {
	args := make(map[string]ref, len(c.Args))
	for k, m := range c.Args {
		args[k] = refTo(m)
	}
	return marshalTyped("CustomJS", struct {
		ID   string         `json:"id"`
		Code string         `json:"code"`
		Args map[string]ref `json:"args"`
	}{c.ID, c.Code, args})
}

// Plot is a single chart or map.
type Plot struct {
	Object
	Name                string           `json:"name,omitempty"`
	Width               int              `json:"plot_width"`
	Height              int              `json:"plot_height,omitempty"`
	Responsive          bool             `json:"responsive"`
	XRange              Range1d          `json:"x_range"`
	YRange              Range1d          `json:"y_range"`
	ToolbarLocation     Color            `json:"toolbar_location"`
	OutlineLineColor    Color            `json:"outline_line_color"`
	BackgroundFillColor Color            `json:"background_fill_color"`
	MinBorder           int              `json:"min_border"`
	Layouts             []Layout         `json:"layouts"`
	Renderers           []*GlyphRenderer `json:"renderers"`
	Tools               []Tool           `json:"tools"`

	// Legend is used when drawing maps to static images.
	Legend *Legend `json:"-"`
}

// NewPlot returns a responsive plot with no toolbar, outline or border.
func NewPlot(width int, x, y Range1d) *Plot {
	return &Plot{
		Width:               width,
		Responsive:          true,
		XRange:              x,
		YRange:              y,
		BackgroundFillColor: "white",
	}
}

// MarshalJSON implements json.Marshaler.
func (p *Plot) MarshalJSON() ([]byte, error) {
	type alias Plot
	return marshalTyped("Plot", (*alias)(p))
}

// AddLayout adds an axis or grid to p.
func (p *Plot) AddLayout(item Model, place string) {
	p.Layouts = append(p.Layouts, Layout{Place: place, Item: item})
}

// AddGlyph adds a renderer that draws g from source, which may be nil.
func (p *Plot) AddGlyph(source *ColumnDataSource, g Glyph) *GlyphRenderer {
	r := &GlyphRenderer{Source: source, Glyph: g}
	p.Renderers = append(p.Renderers, r)
	return r
}

// AddSelectableGlyph is like AddGlyph but with separate glyphs for
// selected and unselected rows.
func (p *Plot) AddSelectableGlyph(source *ColumnDataSource, g, selection, nonselection Glyph) *GlyphRenderer {
	r := p.AddGlyph(source, g)
	r.SelectionGlyph = selection
	r.NonselectionGlyph = nonselection
	return r
}

// AddTools adds tools to p.
func (p *Plot) AddTools(tools ...Tool) {
	p.Tools = append(p.Tools, tools...)
}

// Renderer returns the renderer with the given name, or nil.
func (p *Plot) Renderer(name string) *GlyphRenderer {
	for _, r := range p.Renderers {
		if r.Name == name {
			return r
		}
	}
	return nil
}

// TapTool returns the first tap tool of p, or nil if there is none.
func (p *Plot) TapTool() *TapTool {
	for _, t := range p.Tools {
		if tap, ok := t.(*TapTool); ok {
			return tap
		}
	}
	return nil
}

// Document is a set of plots that are serialized together, along
// with the data sources they draw from.
type Document struct {
	Roots []*Plot

	nextID int
	seen   map[Model]bool
}

// NewDocument returns a document holding roots.
func NewDocument(roots ...*Plot) *Document {
	return &Document{Roots: roots}
}

// Plot returns the root plot with the given name, or nil.
func (d *Document) Plot(name string) *Plot {
	for _, p := range d.Roots {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// MarshalJSON implements json.Marshaler. Objects without an ID are
// given one in the order they are reached from the roots, so the
// output does not depend on map iteration order.
func (d *Document) MarshalJSON() ([]byte, error) {
	d.seen = make(map[Model]bool)
	var sources []*ColumnDataSource
	for _, p := range d.Roots {
		sources = d.walkPlot(p, sources)
	}
	d.seen = nil
	return json.Marshal(struct {
		Roots   []*Plot             `json:"roots"`
		Sources []*ColumnDataSource `json:"sources"`
	}{d.Roots, sources})
}

// Write writes d to w as JSON.
func (d *Document) Write(w io.Writer) error {
	e := json.NewEncoder(w)
	e.SetEscapeHTML(false)
	if err := e.Encode(d); err != nil {
		return fmt.Errorf("viz: writing document: %w", err)
	}
	return nil
}

func (d *Document) id(m Model) bool {
	if d.seen[m] {
		return false
	}
	d.seen[m] = true
	o := m.object()
	if o.ID == "" {
		d.nextID++
		o.ID = strconv.Itoa(d.nextID)
	}
	return true
}

func (d *Document) walkPlot(p *Plot, sources []*ColumnDataSource) []*ColumnDataSource {
	d.id(p)
	for _, l := range p.Layouts {
		d.id(l.Item)
		switch it := l.Item.(type) {
		case *LinearAxis:
			if it.Ticker != nil {
				d.id(it.Ticker)
			}
			if it.Formatter != nil {
				d.id(it.Formatter)
			}
		case *Grid:
			if it.Ticker != nil {
				d.id(it.Ticker)
			}
		}
	}
	for _, r := range p.Renderers {
		sources = d.walkRenderer(r, sources)
	}
	for _, t := range p.Tools {
		d.id(t)
		tap, ok := t.(*TapTool)
		if !ok || tap.Callback == nil || !d.id(tap.Callback) {
			continue
		}
		names := make([]string, 0, len(tap.Callback.Args))
		for k := range tap.Callback.Args {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			switch a := tap.Callback.Args[k].(type) {
			case *GlyphRenderer:
				sources = d.walkRenderer(a, sources)
			case *ColumnDataSource:
				if d.id(a) {
					sources = append(sources, a)
				}
			default:
				d.id(a)
			}
		}
	}
	return sources
}

func (d *Document) walkRenderer(r *GlyphRenderer, sources []*ColumnDataSource) []*ColumnDataSource {
	if !d.id(r) {
		return sources
	}
	if r.Source != nil && d.id(r.Source) {
		sources = append(sources, r.Source)
	}
	for _, g := range []Glyph{r.Glyph, r.SelectionGlyph, r.NonselectionGlyph} {
		if g != nil {
			d.id(g)
		}
	}
	return sources
}
