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

// Package cremviz converts the output of the China Regional Energy Model
// (C-REM) into per-province and national CSV tables of the variables
// presented on the C-REM results website.
package cremviz

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/mit-jp/cremviz/gdx"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Version is the version of cremviz.
const Version = "1.0.0"

// DefaultMaxYear is the last model year that is kept by default.
const DefaultMaxYear = 2030

// DefaultCases are the C-REM runs presented on the website. The first
// case is the business-as-usual case that the others are compared to.
var DefaultCases = []Case{
	{Name: "bau", File: "result_urban_exo.gdx",
		Description: "BAU: Business-as-usual",
		Args:        []string{"--case=default"}},
	{Name: "3", File: "result_cint_n_3.gdx",
		Description: "Policy: Reduce carbon-intensity of GDP by 3%/year from BAU",
		Args:        []string{"--case=cint_n", "--cint_n_rate=3"}},
	{Name: "4", File: "result_cint_n_4.gdx",
		Description: "Policy: Reduce carbon-intensity of GDP by 4%/year from BAU",
		Args:        []string{"--case=cint_n", "--cint_n_rate=4"}},
	{Name: "5", File: "result_cint_n_5.gdx",
		Description: "Policy: Reduce carbon-intensity of GDP by 5%/year from BAU",
		Args:        []string{"--case=cint_n", "--cint_n_rate=5"}},
	{Name: "bau_lo", File: "result_urban_exo_lessGDP.gdx",
		Description: "LO: BAU with 1% lower annual GDP growth",
		Args:        []string{"--case=default"}},
	{Name: "3_lo", File: "result_cint_n_3_lessGDP.gdx",
		Description: "Policy: Reduce carbon-intensity of GDP by 3%/year from LO",
		Args:        []string{"--case=cint_n", "--cint_n_rate=3"}},
	{Name: "4_lo", File: "result_cint_n_4_lessGDP.gdx",
		Description: "Policy: Reduce carbon-intensity of GDP by 4%/year from LO",
		Args:        []string{"--case=cint_n", "--cint_n_rate=4"}},
	{Name: "5_lo", File: "result_cint_n_5_lessGDP.gdx",
		Description: "Policy: Reduce carbon-intensity of GDP by 5%/year from LO",
		Args:        []string{"--case=cint_n", "--cint_n_rate=5"}},
}

// Prep holds the state of the data preparation.
type Prep struct {
	Cases []Case

	// Raw and Extra hold the model output and the post-processed
	// output for each case.
	Raw, Extra []gdx.Reader

	// PMWorkbook is the path to the PM2.5 exposure workbook.
	PMWorkbook string

	// MaxYear is the last year that is kept.
	MaxYear int

	// Regions and Times are the region and time sets of the BAU case.
	Regions, Times []string

	Data *Dataset

	Log logrus.FieldLogger
}

// PrepStep is a function that adds to or modifies the prepared data.
type PrepStep func(ctx context.Context, p *Prep) error

// NewPrep opens the GDX files for the given cases, which are located in
// gdxDir, and reads the region and time sets from the first case.
// gdxdump is the path to the gdxdump executable.
func NewPrep(ctx context.Context, cases []Case, gdxDir, gdxdump string, log logrus.FieldLogger) (*Prep, error) {
	if len(cases) == 0 {
		return nil, fmt.Errorf("cremviz: no cases")
	}
	p := &Prep{
		Cases:   cases,
		MaxYear: DefaultMaxYear,
		Log:     log,
	}
	for _, c := range cases {
		fname := filepath.Join(gdxDir, c.File)
		raw, err := gdx.Open(fname, gdxdump)
		if err != nil {
			return nil, fmt.Errorf("cremviz: case %s: %w", c.Name, err)
		}
		extra, err := gdx.Open(gdx.ExtraPath(fname), gdxdump)
		if err != nil {
			return nil, fmt.Errorf("cremviz: case %s: %w", c.Name, err)
		}
		p.Raw = append(p.Raw, raw)
		p.Extra = append(p.Extra, extra)
	}
	var err error
	if p.Regions, err = p.Raw[0].Set(ctx, "r"); err != nil {
		return nil, fmt.Errorf("cremviz: reading regions: %w", err)
	}
	if p.Times, err = p.Raw[0].Set(ctx, "t"); err != nil {
		return nil, fmt.Errorf("cremviz: reading times: %w", err)
	}
	p.Data = NewDataset(cases, p.Regions, p.Times)
	return p, nil
}

// DefaultSteps returns the preparation steps that produce the website data.
func DefaultSteps() []PrepStep {
	return []PrepStep{
		GDP(),
		CO2Emissions(),
		AirPollutantEmissions(),
		CO2Price(),
		Consumption(),
		PrimaryEnergy(),
		Population(),
		CoalShare(),
		PM25Exposure(),
		SelectTime(),
		FillPM(),
		LowAmmoniaCases(),
	}
}

// Run runs the given steps in order.
func (p *Prep) Run(ctx context.Context, steps ...PrepStep) error {
	for i, s := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s(ctx, p); err != nil {
			return err
		}
		p.Log.WithField("variables", len(p.Data.Names())).Debugf("completed preparation step %d of %d", i+1, len(steps))
	}
	return nil
}

func (p *Prep) caseNames() []string {
	o := make([]string, len(p.Cases))
	for i, c := range p.Cases {
		o[i] = c.Name
	}
	return o
}

// perCase runs f concurrently for the reader of every case and
// concatenates the n arrays that f returns along the case dimension.
func (p *Prep) perCase(ctx context.Context, readers []gdx.Reader, n int,
	f func(ctx context.Context, r gdx.Reader) ([]*Array, error)) ([]*Array, error) {
	results := make([][]*Array, len(readers))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(-1))
	for i, r := range readers {
		i, r := i, r
		g.Go(func() error {
			a, err := f(ctx, r)
			if err != nil {
				return fmt.Errorf("cremviz: case %s: %w", p.Cases[i].Name, err)
			}
			if len(a) != n {
				return fmt.Errorf("cremviz: case %s: %d results; want %d", p.Cases[i].Name, len(a), n)
			}
			results[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	o := make([]*Array, n)
	for j := range o {
		parts := make([]*Array, len(results))
		for i := range results {
			parts[i] = results[i][j]
		}
		var err error
		if o[j], err = Concat(CaseDim, p.caseNames(), parts); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// extract reads a symbol from the reader of every case and concatenates
// the results along the case dimension.
func (p *Prep) extract(ctx context.Context, readers []gdx.Reader, name string) (*Array, error) {
	p.Log.WithField("symbol", name).Debug("extracting")
	o, err := p.perCase(ctx, readers, 1, func(ctx context.Context, r gdx.Reader) ([]*Array, error) {
		s, err := r.Symbol(ctx, name)
		if err != nil {
			return nil, err
		}
		return []*Array{FromSymbol(s)}, nil
	})
	if err != nil {
		return nil, err
	}
	return o[0], nil
}

// readSymbols reads the named symbols from r.
func readSymbols(ctx context.Context, r gdx.Reader, names ...string) ([]*Array, error) {
	o := make([]*Array, len(names))
	for i, n := range names {
		s, err := r.Symbol(ctx, n)
		if err != nil {
			return nil, err
		}
		o[i] = FromSymbol(s)
	}
	return o, nil
}

// regional restricts arrays defined over the C-REM "rs" set (regions
// plus aggregates) to the regions in r and renames the dimension.
func (p *Prep) regional(a *Array) *Array {
	if !a.HasDim("rs") {
		return a
	}
	return a.Reindex("rs", p.Regions).Rename("rs", RegionDim)
}

// GDP adds gross domestic product and its change relative to the BAU case.
func GDP() PrepStep {
	return func(ctx context.Context, p *Prep) error {
		gdp, err := p.extract(ctx, p.Raw, "gdp_ref")
		if err != nil {
			return err
		}
		gdp = p.regional(gdp)
		p.Data.Add("GDP", gdp, Attrs{
			Desc:      "Gross domestic product",
			UnitLong:  "billions of U.S. dollars, constant at 2007",
			UnitShort: "10⁹ USD",
			Unit:      BillionUSD,
		})

		bau, err := gdp.Sel(CaseDim, p.Cases[0].Name)
		if err != nil {
			return err
		}
		ratio, err := gdp.Div(bau)
		if err != nil {
			return err
		}
		p.Data.Add("GDP_delta", ratio.AddConst(-1).Scale(percentPerUnit), Attrs{
			Desc:      "Change in gross domestic product relative to BAU",
			UnitLong:  "percent",
			UnitShort: "%",
			Unit:      Percent,
		})
		bauAll, err := bau.Add(Full([]string{CaseDim}, map[string][]string{CaseDim: p.caseNames()}, 0))
		if err != nil {
			return err
		}
		p.Data.AddHidden("GDP_bau", bauAll)
		p.Data.SetAggregation("GDP_delta", Aggregation{
			Kind: AggRatio, Num: "GDP", Den: "GDP_bau", Offset: -1, Scale: percentPerUnit,
		})
		return nil
	}
}

// CO2Emissions adds carbon dioxide emissions from production
// sectors and households.
func CO2Emissions() PrepStep {
	return func(ctx context.Context, p *Prep) error {
		co2, err := p.perCase(ctx, p.Raw, 1, func(ctx context.Context, r gdx.Reader) ([]*Array, error) {
			s, err := readSymbols(ctx, r, "sectem", "houem")
			if err != nil {
				return nil, err
			}
			sect, err := s[0].Sum("g")
			if err != nil {
				return nil, err
			}
			total, err := sect.Add(s[1])
			if err != nil {
				return nil, err
			}
			return []*Array{total}, nil
		})
		if err != nil {
			return err
		}
		p.Data.Add("CO2_emi", p.regional(co2[0]), Attrs{
			Desc:      "Annual CO₂ emissions",
			UnitLong:  "millions of tonnes of CO₂",
			UnitShort: "Mt",
			Unit:      Megatonne,
		})
		return nil
	}
}

// subscripts renders digits in chemical formulae as subscripts.
var subscripts = map[rune]rune{'2': '₂', '3': '₃'}

func chemical(s string) string {
	r := []rune(s)
	for i, c := range r {
		if sub, ok := subscripts[c]; ok {
			r[i] = sub
		}
	}
	return string(r)
}

// AirPollutantEmissions adds one variable for the emissions of each
// urban air pollutant other than particulate matter.
func AirPollutantEmissions() PrepStep {
	return func(ctx context.Context, p *Prep) error {
		urban, err := p.perCase(ctx, p.Raw, 1, func(ctx context.Context, r gdx.Reader) ([]*Array, error) {
			s, err := readSymbols(ctx, r, "urban")
			if err != nil {
				return nil, err
			}
			u, err := s[0].Sum(gdx.Universe)
			if err != nil {
				return nil, err
			}
			return []*Array{u}, nil
		})
		if err != nil {
			return err
		}
		u := p.regional(urban[0])
		for _, pol := range u.Coords["urb"] {
			if pol == "PM10" || pol == "PM25" {
				continue
			}
			emis, err := u.Sel("urb", pol)
			if err != nil {
				return err
			}
			name := chemical(pol)
			p.Data.Add(pol+"_emi", emis, Attrs{
				Desc:      fmt.Sprintf("Annual %s emissions", name),
				UnitLong:  "millions of tonnes of " + name,
				UnitShort: "Mt",
				Unit:      Megatonne,
			})
		}
		return nil
	}
}

// CO2Price adds the price of carbon dioxide emissions permits.
func CO2Price() PrepStep {
	return func(ctx context.Context, p *Prep) error {
		price, err := p.extract(ctx, p.Extra, "ptcarb_t")
		if err != nil {
			return err
		}
		p.Data.Add("CO2_price", price, Attrs{
			Desc:      "Price of CO₂ emissions permit",
			UnitLong:  "2007 US dollars per tonne CO₂",
			UnitShort: "2007 USD/t",
			Unit:      USDPerTonne,
		})
		return nil
	}
}

// Consumption adds household consumption.
func Consumption() PrepStep {
	return func(ctx context.Context, p *Prep) error {
		cons, err := p.extract(ctx, p.Extra, "cons_t")
		if err != nil {
			return err
		}
		p.Data.Add("cons", p.regional(cons), Attrs{
			Desc:      "Household consumption",
			UnitLong:  "billions of U.S. dollars, constant at 2007",
			UnitShort: "10⁹ USD",
			Unit:      BillionUSD,
		})
		return nil
	}
}

// EnergyNames gives the names of the C-REM primary energy sources.
var EnergyNames = map[string]string{
	"COL": "Coal",
	"GAS": "Natural gas",
	"OIL": "Crude oil",
	"NUC": "Nuclear",
	"WND": "Wind",
	"SOL": "Solar",
	"HYD": "Hydroelectricity",
}

// Fossil and non-fossil primary energy sources.
var (
	FossilEnergy    = []string{"COL", "GAS", "OIL"}
	NonFossilEnergy = []string{"NUC", "WND", "SOL", "HYD"}
)

const energyUnitLong = "millions of tonnes of coal equivalent"

// sumLabels sums a over the given labels of dim. Labels that a lacks
// are ignored.
func sumLabels(a *Array, dim string, labels []string) (*Array, error) {
	return a.Reindex(dim, labels).Sum(dim)
}

// PrimaryEnergy adds primary energy use by source, totals for fossil
// and non-fossil sources, and the non-fossil share.
func PrimaryEnergy() PrepStep {
	return func(ctx context.Context, p *Prep) error {
		pe, err := p.extract(ctx, p.Extra, "pe_t")
		if err != nil {
			return err
		}
		pe = p.regional(pe).MaskAbove(undefinedThreshold, 0)
		for _, e := range pe.Coords["e"] {
			v, err := pe.Sel("e", e)
			if err != nil {
				return err
			}
			name, ok := EnergyNames[e]
			if !ok {
				name = e
			}
			p.Data.Add(e+"_energy", v, Attrs{
				Desc:      "Primary energy from " + name,
				UnitLong:  energyUnitLong,
				UnitShort: "Mtce",
				Unit:      MegatonneCoalEquivalent,
			})
		}

		total, err := pe.Sum("e")
		if err != nil {
			return err
		}
		p.Data.Add("energy_total", total, Attrs{
			Desc: "Primary energy, total", UnitLong: energyUnitLong,
			UnitShort: "Mtce", Unit: MegatonneCoalEquivalent,
		})
		fossil, err := sumLabels(pe, "e", FossilEnergy)
		if err != nil {
			return err
		}
		p.Data.Add("energy_fossil", fossil, Attrs{
			Desc: "Primary energy from fossil fuels", UnitLong: energyUnitLong,
			UnitShort: "Mtce", Unit: MegatonneCoalEquivalent,
		})
		nonfossil, err := sumLabels(pe, "e", NonFossilEnergy)
		if err != nil {
			return err
		}
		p.Data.Add("energy_nonfossil", nonfossil, Attrs{
			Desc: "Primary energy from non-fossil sources", UnitLong: energyUnitLong,
			UnitShort: "Mtce", Unit: MegatonneCoalEquivalent,
		})

		if err := checkShare("energy_nonfossil_share", nonfossil, total); err != nil {
			return err
		}
		share, err := nonfossil.Div(total)
		if err != nil {
			return err
		}
		p.Data.Add("energy_nonfossil_share", share.Scale(percentPerUnit), Attrs{
			Desc:      "Share of non-fossil sources in primary energy",
			UnitLong:  "percent",
			UnitShort: "%",
			Unit:      Percent,
		})
		p.Data.SetAggregation("energy_nonfossil_share", Aggregation{
			Kind: AggRatio, Num: "energy_nonfossil", Den: "energy_total", Scale: percentPerUnit,
		})
		return nil
	}
}

// Population adds population, calculated from the 2007 population
// and the population index.
func Population() PrepStep {
	return func(ctx context.Context, p *Prep) error {
		pop, err := p.perCase(ctx, p.Raw, 1, func(ctx context.Context, r gdx.Reader) ([]*Array, error) {
			s, err := readSymbols(ctx, r, "pop2007", "pop")
			if err != nil {
				return nil, err
			}
			base, err := s[0].Sel("g", "c")
			if err != nil {
				return nil, err
			}
			pop, err := base.Mul(s[1])
			if err != nil {
				return nil, err
			}
			return []*Array{pop.Scale(popIndexScale)}, nil
		})
		if err != nil {
			return err
		}
		p.Data.Add("pop", p.regional(pop[0]), Attrs{
			Desc:      "Population",
			UnitLong:  "millions",
			UnitShort: "10⁶",
			Unit:      MillionPeople,
		})
		return nil
	}
}

// CoalShare adds the value share of coal in industrial production.
// Inputs to electricity generation are excluded from the total to
// avoid counting them twice.
func CoalShare() PrepStep {
	return func(ctx context.Context, p *Prep) error {
		parts, err := p.perCase(ctx, p.Raw, 2, func(ctx context.Context, r gdx.Reader) ([]*Array, error) {
			s, err := readSymbols(ctx, r, "sect_input", "ye_input", "ynhw_input")
			if err != nil {
				return nil, err
			}
			yIn, eIn, nhwIn := s[0], s[1], s[2]

			ySum, err := yIn.Sum("g")
			if err != nil {
				return nil, err
			}
			yCOL, err := ySum.Sel(gdx.Universe, "COL")
			if err != nil {
				return nil, err
			}
			eCOL, err := eIn.Sel(gdx.Universe, "COL")
			if err != nil {
				return nil, err
			}
			col, err := yCOL.Add(eCOL)
			if err != nil {
				return nil, err
			}

			eSum, err := eIn.Sum(gdx.Universe)
			if err != nil {
				return nil, err
			}
			nhwSum, err := nhwIn.Sum(gdx.Universe)
			if err != nil {
				return nil, err
			}
			eleIn, err := eSum.Add(nhwSum)
			if err != nil {
				return nil, err
			}
			yTotal, err := yIn.Sum(gdx.Universe, "g")
			if err != nil {
				return nil, err
			}
			den, err := yTotal.Sub(eleIn)
			if err != nil {
				return nil, err
			}
			return []*Array{col, den}, nil
		})
		if err != nil {
			return err
		}
		col, den := p.regional(parts[0]), p.regional(parts[1])
		col.Attrs.Unit, den.Attrs.Unit = BillionUSD, BillionUSD
		if err := checkShare("COL_share", col, den); err != nil {
			return err
		}
		share, err := col.Div(den)
		if err != nil {
			return err
		}
		p.Data.Add("COL_share", share, Attrs{
			Desc:      "Value share of coal in industrial production",
			UnitLong:  "(unitless)",
			UnitShort: "0",
			Unit:      Dimensionless,
		})
		p.Data.AddHidden("COL_input", col)
		p.Data.AddHidden("COL_production", den)
		p.Data.SetAggregation("COL_share", Aggregation{
			Kind: AggRatio, Num: "COL_input", Den: "COL_production", Scale: 1,
		})
		return nil
	}
}

// SelectTime keeps only the times up to and including p.MaxYear.
func SelectTime() PrepStep {
	return func(ctx context.Context, p *Prep) error {
		var times []string
		for _, t := range p.Times {
			y, err := strconv.Atoi(t)
			if err != nil {
				return fmt.Errorf("cremviz: invalid year %q", t)
			}
			if y <= p.MaxYear {
				times = append(times, t)
			}
		}
		return p.Data.SelTime(times)
	}
}
