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
	"fmt"

	"github.com/ctessum/unit"
)

// usd2007 is the dimension of money in constant 2007 U.S. dollars.
var usd2007 = unit.NewDimension("USD2007")

// personDim is the dimension of population counts.
var personDim = unit.NewDimension("person")

// Units of the C-REM output variables. Values are in SI base units
// (kilograms, joules) or in the custom dimensions above.
var (
	BillionUSD              = unit.New(1e9, unit.Dimensions{usd2007: 1})
	Megatonne               = unit.New(1e9, unit.Kilogram)
	USDPerTonne             = unit.New(1.0e-3, unit.Dimensions{usd2007: 1, unit.MassDim: -1})
	MegatonneCoalEquivalent = unit.New(29.3076e15, unit.Joule)
	MillionPeople           = unit.New(1e6, unit.Dimensions{personDim: 1})
	MicrogramPerMeter3      = unit.New(1e-9, unit.KilogramPerMeter3)
	Dimensionless           = unit.New(1, unit.Dimless)
	Percent                 = unit.New(0.01, unit.Dimless)
)

const (
	// popIndexScale converts the C-REM population index (percent of
	// 2007 population) into a fraction.
	popIndexScale = 1e-2

	// undefinedThreshold is the magnitude above which GAMS output values
	// are treated as undefined.
	undefinedThreshold = 1e300

	// Placeholder factors for PM2.5 values that the exposure workbook
	// does not provide.
	pm2007Factor    = 0.5
	pmInterimFactor = 1.5
	pmLowFactor     = 0.9
)

// Convert returns v, expressed in units from, in units to.
func Convert(v float64, from, to *unit.Unit) (float64, error) {
	if !unit.DimensionsMatch(from, to) {
		return 0, fmt.Errorf("cremviz: cannot convert %v to %v", from, to)
	}
	return v * from.Value() / to.Value(), nil
}

// percentPerUnit is the number of percent in one.
var percentPerUnit = Dimensionless.Value() / Percent.Value()

// checkShare returns an error if num and den do not have the same
// dimensions, so that num/den is a dimensionless share.
func checkShare(name string, num, den *Array) error {
	if num.Attrs.Unit == nil || den.Attrs.Unit == nil {
		return nil
	}
	if err := unit.Div(num.Attrs.Unit, den.Attrs.Unit).Check(unit.Dimless); err != nil {
		return fmt.Errorf("cremviz: %s: %w", name, err)
	}
	return nil
}
