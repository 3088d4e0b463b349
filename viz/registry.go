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
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"
)

// DefaultWidth is the default plot width in pixels.
const DefaultWidth = 600

// Renderer builds figures from prepared data.
type Renderer struct {
	Data       *Data
	Boundaries Boundaries

	// Width is the plot width in pixels.
	Width int

	// Formats lists the static image formats ("png", "svg") each plot
	// is also drawn in. Static images are skipped if it is empty.
	Formats []string

	Log logrus.FieldLogger
}

// Figure builds the plots shown in one section of the site.
type Figure func(ctx context.Context, r *Renderer) (*Document, error)

// Figures are the figures of the site, by name.
var Figures = map[string]Figure{
	"co2_by_scenario": co2ByScenario,
	"air_pollution_1": airPollution1,
	"air_pollution_2": airPollution2,
	"health_impacts":  healthImpacts,
	"co2_by_province": co2ByProvince,
}

// FigureNames returns the names of Figures in sorted order.
func FigureNames() []string {
	names := make([]string, 0, len(Figures))
	for n := range Figures {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (r *Renderer) width() int {
	if r.Width <= 0 {
		return DefaultWidth
	}
	return r.Width
}

// Render builds the named figures, or all figures if names is empty, and
// writes each to <siteDir>/<name>.json. If r.Formats is set, each plot is
// also drawn to <staticDir>/<name>_<plot>.<format>.
func (r *Renderer) Render(ctx context.Context, siteDir, staticDir string, names ...string) error {
	if len(names) == 0 {
		names = FigureNames()
	}
	if err := os.MkdirAll(siteDir, 0755); err != nil {
		return fmt.Errorf("viz: %w", err)
	}
	if len(r.Formats) > 0 {
		if err := os.MkdirAll(staticDir, 0755); err != nil {
			return fmt.Errorf("viz: %w", err)
		}
	}
	for _, name := range names {
		fig, ok := Figures[name]
		if !ok {
			return fmt.Errorf("viz: unknown figure %q", name)
		}
		doc, err := fig(ctx, r)
		if err != nil {
			return fmt.Errorf("viz: figure %s: %w", name, err)
		}
		fname := filepath.Join(siteDir, name+".json")
		f, err := os.Create(fname)
		if err != nil {
			return fmt.Errorf("viz: %w", err)
		}
		if err := doc.Write(f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("viz: %w", err)
		}
		r.Log.WithFields(logrus.Fields{"figure": name, "file": fname}).Info("wrote figure")

		for _, p := range doc.Roots {
			for _, format := range r.Formats {
				img := filepath.Join(staticDir, fmt.Sprintf("%s_%s.%s", name, p.Name, format))
				if err := Render(p, img); err != nil {
					return err
				}
				r.Log.WithField("file", img).Debug("wrote static image")
			}
		}
	}
	return nil
}

func co2ByScenario(ctx context.Context, r *Renderer) (*Document, error) {
	chart, _, err := NationalScenarioLinePlot(ctx, r.Data, "CO2_emi", []float64{0, 5000, 10000, 15000}, r.width())
	if err != nil {
		return nil, err
	}
	chart.Name = "national_co2"
	change, err := CO2FourVsBAUChangeMap(ctx, r.Data, r.Boundaries, r.width())
	if err != nil {
		return nil, err
	}
	return NewDocument(chart, change), nil
}

func airPollution1(ctx context.Context, r *Renderer) (*Document, error) {
	conc, err := ProvincialPM25Conc2030Map(ctx, r.Data, r.Boundaries, r.width())
	if err != nil {
		return nil, err
	}
	pop, err := ProvincialPop2030Map(ctx, r.Data, r.Boundaries, r.width())
	if err != nil {
		return nil, err
	}
	exp, err := ProvincialPM25Exp2030Map(ctx, r.Data, r.Boundaries, r.width())
	if err != nil {
		return nil, err
	}
	return NewDocument(conc, pop, exp), nil
}

func airPollution2(ctx context.Context, r *Renderer) (*Document, error) {
	chart, _, err := NationalScenarioLinePlot(ctx, r.Data, "PM25_exposure", []float64{0, 20, 40, 60}, r.width())
	if err != nil {
		return nil, err
	}
	chart.Name = "national_pm25_exposure"
	change, err := PM25FourVsBAUChangeMap(ctx, r.Data, r.Boundaries, r.width())
	if err != nil {
		return nil, err
	}
	return NewDocument(chart, change), nil
}

func healthImpacts(ctx context.Context, r *Renderer) (*Document, error) {
	exp, err := PM25Exposure2030Map(ctx, r.Data, r.Boundaries, r.width())
	if err != nil {
		return nil, err
	}
	change, err := PM25ExposureChangeMap(ctx, r.Data, r.Boundaries, r.width())
	if err != nil {
		return nil, err
	}
	gdp, err := GDPDeltaIn2030Map(ctx, r.Data, r.Boundaries, r.width())
	if err != nil {
		return nil, err
	}
	gdpChange, err := GDPDeltaChangeMap(ctx, r.Data, r.Boundaries, r.width())
	if err != nil {
		return nil, err
	}
	return NewDocument(exp, change, gdp, gdpChange), nil
}

func co2ByProvince(ctx context.Context, r *Renderer) (*Document, error) {
	chart, lines, texts, err := ProvincialScenarioLinePlot(ctx, r.Data, "CO2_emi", []float64{0, 500, 1000, 1500}, r.width())
	if err != nil {
		return nil, err
	}
	chart.Name = "provincial_co2"

	col, err := Col2010Map(ctx, r.Data, r.Boundaries, r.width())
	if err != nil {
		return nil, err
	}
	if err := AddProvinceCallback(col, PrefixedRenderers(lines, texts), ProvinceSource(col)); err != nil {
		return nil, err
	}
	gdp, err := GDP2010Map(ctx, r.Data, r.Boundaries, r.width())
	if err != nil {
		return nil, err
	}
	if err := AddRegionCallback(gdp, ProvinceSource(gdp)); err != nil {
		return nil, err
	}
	change, err := CO2ChangeMap(ctx, r.Data, r.Boundaries, r.width())
	if err != nil {
		return nil, err
	}
	return NewDocument(chart, col, gdp, change), nil
}
