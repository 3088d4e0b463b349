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
	"strconv"
	"strings"

	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/brewer"
)

// MissingColor fills provinces that have no value.
const MissingColor Color = "#E0E0E0"

// ColorMap maps values to colors by linear interpolation between the
// colors of a ColorBrewer sequential palette such as "Blues". It
// implements palette.ColorMap.
type ColorMap struct {
	colors   []color.Color
	min, max float64
	alpha    float64

	// Boost stretches the scale: a value is normalized to [0, 1],
	// multiplied by Boost and clamped to [0, 1]. The default is 1.
	Boost float64
}

// brewerSize is the largest number of colors in the sequential palettes.
const brewerSize = 9

// NewColorMap returns a color map for the named sequential palette
// covering [min, max].
func NewColorMap(name string, min, max float64) (*ColorMap, error) {
	p, err := brewer.GetPalette(brewer.TypeSequential, name, brewerSize)
	if err != nil {
		return nil, fmt.Errorf("viz: color map %s: %w", name, err)
	}
	return &ColorMap{colors: p.Colors(), min: min, max: max, alpha: 1, Boost: 1}, nil
}

// Normalize returns the position of v on the color scale in [0, 1].
func (c *ColorMap) Normalize(v float64) float64 {
	t := 0.
	if c.max > c.min {
		t = (v - c.min) / (c.max - c.min)
	}
	boost := c.Boost
	if boost == 0 {
		boost = 1
	}
	return math.Max(0, math.Min(1, t*boost))
}

// At implements palette.ColorMap. Values outside the range are clamped.
func (c *ColorMap) At(v float64) (color.Color, error) {
	if math.IsNaN(v) {
		return nil, palette.ErrNaN
	}
	return c.interpolate(c.Normalize(v)), nil
}

func (c *ColorMap) interpolate(t float64) color.Color {
	pos := t * float64(len(c.colors)-1)
	i := int(math.Floor(pos))
	if i >= len(c.colors)-1 {
		i = len(c.colors) - 2
	}
	frac := pos - float64(i)
	r0, g0, b0, _ := c.colors[i].RGBA()
	r1, g1, b1, _ := c.colors[i+1].RGBA()
	lerp := func(a, b uint32) uint8 {
		return uint8((float64(a)*(1-frac) + float64(b)*frac) / 0x101)
	}
	return color.NRGBA{
		R: lerp(r0, r1),
		G: lerp(g0, g1),
		B: lerp(b0, b1),
		A: uint8(c.alpha * 255),
	}
}

// Hex returns the color of v as a CSS hex color, or MissingColor if
// v is not a number.
func (c *ColorMap) Hex(v float64) Color {
	clr, err := c.At(v)
	if err != nil {
		return MissingColor
	}
	return hexColor(clr)
}

// Max implements palette.ColorMap.
func (c *ColorMap) Max() float64 { return c.max }

// SetMax implements palette.ColorMap.
func (c *ColorMap) SetMax(v float64) { c.max = v }

// Min implements palette.ColorMap.
func (c *ColorMap) Min() float64 { return c.min }

// SetMin implements palette.ColorMap.
func (c *ColorMap) SetMin(v float64) { c.min = v }

// Alpha implements palette.ColorMap.
func (c *ColorMap) Alpha() float64 { return c.alpha }

// SetAlpha implements palette.ColorMap.
func (c *ColorMap) SetAlpha(a float64) { c.alpha = a }

// Palette implements palette.ColorMap.
func (c *ColorMap) Palette(n int) palette.Palette {
	o := make(colorList, n)
	for i := range o {
		t := 0.
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		o[i] = c.interpolate(t)
	}
	return o
}

type colorList []color.Color

func (c colorList) Colors() []color.Color { return c }

func hexColor(c color.Color) Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Color(fmt.Sprintf("#%02X%02X%02X", n.R, n.G, n.B))
}

var namedColors = map[Color]color.NRGBA{
	"white": {R: 255, G: 255, B: 255, A: 255},
	"black": {A: 255},
	"gray":  {R: 128, G: 128, B: 128, A: 255},
	"grey":  {R: 128, G: 128, B: 128, A: 255},
}

// parseColor converts a named or #RRGGBB color. The empty color
// is transparent.
func parseColor(c Color, alpha float64) (color.NRGBA, error) {
	if c == "" {
		return color.NRGBA{}, nil
	}
	n, ok := namedColors[Color(strings.ToLower(string(c)))]
	if !ok {
		s := strings.TrimPrefix(string(c), "#")
		v, err := strconv.ParseUint(s, 16, 32)
		if len(s) != 6 || err != nil {
			return color.NRGBA{}, fmt.Errorf("viz: invalid color %q", c)
		}
		n = color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
	}
	n.A = uint8(float64(n.A) * math.Max(0, math.Min(1, alpha)))
	return n, nil
}
