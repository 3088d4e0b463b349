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
	"math"
	"sort"
	"strings"

	"github.com/ctessum/geom"
	"gonum.org/v1/gonum/floats"
)

const (
	firstYear = 2009
	lastYear  = 2030
)

// yearRange returns the x range of the time series charts. The end is
// padded by endFactor times 2.5 years to leave room for labels.
func yearRange(endFactor float64) Range1d {
	return Range1d{Start: firstYear, End: lastYear + 2.5*endFactor}
}

// yRange returns a y range covering data with a 10% margin that
// always includes zero.
func yRange(data []float64) Range1d {
	finite := make([]float64, 0, len(data))
	for _, v := range data {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return Range1d{Start: 0, End: 1}
	}
	return Range1d{
		Start: math.Min(0, floats.Min(finite)*1.1),
		End:   math.Max(0, floats.Max(finite)*1.1),
	}
}

// axis returns an axis without lines or tick marks and grey labels.
func axis(ticker *FixedTicker, formatter *NumeralTickFormatter, label string) *LinearAxis {
	return &LinearAxis{
		Ticker:                 ticker,
		Formatter:              formatter,
		AxisLabel:              label,
		MajorLabelTextColor:    Grey,
		MajorLabelTextFontSize: "9pt",
	}
}

// mapPlot returns an empty map covering bounds with a tap tool. The
// height follows from the aspect ratio of bounds.
func mapPlot(width int, bounds *geom.Bounds) *Plot {
	dx := bounds.Max.X - bounds.Min.X
	dy := bounds.Max.Y - bounds.Min.Y
	p := NewPlot(width,
		Range1d{Start: bounds.Min.X, End: bounds.Max.X},
		Range1d{Start: bounds.Min.Y, End: bounds.Max.Y})
	if dx > 0 {
		p.Height = int(math.Round(float64(width) * dy / dx))
	}
	p.AddTools(&TapTool{})
	return p
}

// jsObject returns a JavaScript object literal that maps each name
// to the variable of the same name.
func jsObject(names []string) string {
	names = append([]string{}, names...)
	sort.Strings(names)
	entries := make([]string, len(names))
	for i, n := range names {
		entries[i] = fmt.Sprintf("%q: %s", n, n)
	}
	return "{" + strings.Join(entries, ", ") + "}"
}
