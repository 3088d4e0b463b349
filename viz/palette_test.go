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
	"image/color"
	"math"
	"testing"
)

func TestColorMap(t *testing.T) {
	c, err := NewColorMap("Blues", 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	for _, test := range []struct {
		v    float64
		want Color
	}{
		{v: 0, want: "#F7FBFF"},
		{v: -1, want: "#F7FBFF"},
		{v: 1, want: "#08306B"},
		{v: 2, want: "#08306B"},
		{v: math.NaN(), want: MissingColor},
	} {
		if have := c.Hex(test.v); have != test.want {
			t.Errorf("%g: have %s, want %s", test.v, have, test.want)
		}
	}
	if _, err := c.At(math.NaN()); err == nil {
		t.Error("expected an error for NaN")
	}

	c.Boost = 20
	if n := c.Normalize(0.1); n != 1 {
		t.Errorf("boosted 0.1 = %g", n)
	}
	if n := c.Normalize(0.03125); n != 0.625 {
		t.Errorf("boosted 0.03125 = %g", n)
	}

	if p := c.Palette(3).Colors(); len(p) != 3 {
		t.Errorf("palette has %d colors", len(p))
	}
}

func TestColorMapEmptyRange(t *testing.T) {
	c, err := NewColorMap("Greys", 5, 5)
	if err != nil {
		t.Fatal(err)
	}
	if n := c.Normalize(5); n != 0 {
		t.Errorf("normalized %g", n)
	}
	if _, err := NewColorMap("Rainbow", 0, 1); err == nil {
		t.Error("expected an error for an unknown palette")
	}
}

func TestParseColor(t *testing.T) {
	for _, test := range []struct {
		c     Color
		alpha float64
		want  color.NRGBA
		err   bool
	}{
		{c: "#FF5722", alpha: 1, want: color.NRGBA{R: 255, G: 87, B: 34, A: 255}},
		{c: "#ff5722", alpha: 1, want: color.NRGBA{R: 255, G: 87, B: 34, A: 255}},
		{c: "White", alpha: 0.5, want: color.NRGBA{R: 255, G: 255, B: 255, A: 127}},
		{c: "", alpha: 1, want: color.NRGBA{}},
		{c: "#FFF", alpha: 1, err: true},
		{c: "orange", alpha: 1, err: true},
	} {
		have, err := parseColor(test.c, test.alpha)
		if (err != nil) != test.err {
			t.Errorf("%s: error %v", test.c, err)
			continue
		}
		if have != test.want {
			t.Errorf("%s: have %v, want %v", test.c, have, test.want)
		}
	}
}

func TestNumeral(t *testing.T) {
	for _, test := range []struct {
		format string
		v      float64
		want   string
	}{
		{"0,0", 12345.6, "12,346"},
		{"0,0", 999, "999"},
		{"0,0", 1000, "1,000"},
		{"0,0", -1500000, "-1,500,000"},
		{"0", 2030, "2030"},
		{"0.0", -1.26, "-1.3"},
		{"0,0", -0.2, "0"},
	} {
		if have := numeral(test.format, test.v); have != test.want {
			t.Errorf("%s %g: have %s, want %s", test.format, test.v, have, test.want)
		}
	}
}
