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
	"context"
	"fmt"

	"github.com/mit-jp/cremviz/exposure"
)

// PM variables that are filled with placeholder values.
var pmVariables = []string{"PM25_exposure", "PM25_conc"}

// Cases in the exposure workbook that are not C-REM cases.
var unusedExposureCases = []string{"2", "6"}

// PM25Exposure adds population-weighted PM2.5 exposure from the
// exposure workbook. The province-wide average concentration is not
// yet available, so it is set equal to the exposure.
func PM25Exposure() PrepStep {
	return func(ctx context.Context, p *Prep) error {
		s, err := exposure.Load(ctx, p.PMWorkbook)
		if err != nil {
			return err
		}
		pm := FromSymbol(s)

		// All cases share the BAU value for the base year.
		for _, c := range pm.Coords[CaseDim] {
			for _, r := range pm.Coords[RegionDim] {
				v, err := pm.At(exposure.BAU, r, "2010")
				if err != nil {
					return fmt.Errorf("cremviz: PM2.5 exposure: %w", err)
				}
				if err := pm.Set(v, c, r, "2010"); err != nil {
					return fmt.Errorf("cremviz: PM2.5 exposure: %w", err)
				}
			}
		}
		pm = pm.Drop(CaseDim, unusedExposureCases...)

		attrs := Attrs{
			UnitLong:  "micrograms per cubic metre",
			UnitShort: "μg/m³",
			Unit:      MicrogramPerMeter3,
		}
		attrs.Desc = "Population-weighted exposure to PM2.5"
		p.Data.Add("PM25_exposure", pm, attrs)
		attrs.Desc = "Province-wide average PM2.5"
		p.Data.Add("PM25_conc", pm.Clone(), attrs)
		for _, v := range pmVariables {
			p.Data.SetAggregation(v, Aggregation{Kind: AggMean})
		}
		return nil
	}
}

// has returns whether labels contains l.
func has(labels []string, l string) bool {
	for _, x := range labels {
		if x == l {
			return true
		}
	}
	return false
}

// copyScaled sets a at label dst along dim to factor times a at src.
// Nothing is done unless both labels are present.
func copyScaled(a *Array, dim, dst, src string, factor float64) error {
	if !has(a.Coords[dim], dst) || !has(a.Coords[dim], src) {
		return nil
	}
	v, err := a.Sel(dim, src)
	if err != nil {
		return err
	}
	return a.SetSel(dim, dst, v.Scale(factor))
}

// fill describes a placeholder: dst along dim is set to src times factor.
type fill struct {
	dim, dst, src string
	factor        float64
}

// pmFills returns the placeholders for PM2.5 variables.
func (p *Prep) pmFills() []fill {
	fills := []fill{
		{TimeDim, "2007", "2010", pm2007Factor},
		{TimeDim, "2015", "2030", pmInterimFactor},
		{TimeDim, "2020", "2030", pmInterimFactor},
		{TimeDim, "2025", "2030", pmInterimFactor},
	}
	names := p.caseNames()
	for _, c := range names {
		if has(names, c+"_lo") {
			fills = append(fills, fill{CaseDim, c + "_lo", c, pmLowFactor})
		}
	}
	return fills
}

// FillPM fills the years and cases that are missing from the
// exposure workbook with placeholder values derived from the years
// and cases that are present.
func FillPM() PrepStep {
	return func(ctx context.Context, p *Prep) error {
		for _, name := range pmVariables {
			a, ok := p.Data.Get(name)
			if !ok {
				return fmt.Errorf("cremviz: filling %s: no such variable", name)
			}
			for _, f := range p.pmFills() {
				if err := copyScaled(a, f.dim, f.dst, f.src, f.factor); err != nil {
					return fmt.Errorf("cremviz: filling %s: %w", name, err)
				}
			}
			p.Log.WithField("variable", name).Debug("filled placeholder PM2.5 values")
		}
		return nil
	}
}

// LowAmmoniaCases adds a low-ammonia-emissions case for every case.
// Only the PM2.5 concentration is filled, with the value of the
// corresponding case; all other variables are missing.
func LowAmmoniaCases() PrepStep {
	return func(ctx context.Context, p *Prep) error {
		base := append([]Case{}, p.Data.Cases...)
		nh3 := make([]Case, len(base))
		for i, c := range base {
			nh3[i] = Case{
				Name:        c.Name + "_nh3",
				Description: c.Description + "; low NH₃ emissions",
			}
		}
		if err := p.Data.AddCases(nh3...); err != nil {
			return err
		}
		conc, ok := p.Data.Get("PM25_conc")
		if !ok {
			return fmt.Errorf("cremviz: low-ammonia cases: no variable PM25_conc")
		}
		for i, c := range base {
			if err := copyScaled(conc, CaseDim, nh3[i].Name, c.Name, 1); err != nil {
				return fmt.Errorf("cremviz: low-ammonia cases: %w", err)
			}
		}
		return nil
	}
}
