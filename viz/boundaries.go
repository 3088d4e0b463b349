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
	"errors"
	"fmt"
	"io/fs"
	"math"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/proj"
)

// WebMercator is the projection of the map coordinates.
const WebMercator = "+proj=merc +a=6378137 +b=6378137 +lat_ts=0.0 +lon_0=0.0 +x_0=0.0 +y_0=0 +k=1.0 +units=m +nadgrids=@null +no_defs"

// lonLat is assumed for shapefiles without a .prj file.
const lonLat = "+proj=longlat +datum=WGS84 +no_defs"

// Boundary is the outline of a province in web mercator coordinates.
type Boundary struct {
	Province
	Polygon geom.Polygon
}

// boundaryRecord is a row of the province shapefile.
type boundaryRecord struct {
	Shape geom.Geom
	Code  string `shp:"CODE"`
}

// Boundaries holds the outlines of the provinces and Tibet, keyed
// by province code.
type Boundaries map[string]*Boundary

// LoadBoundaries reads province outlines from a shapefile with a CODE
// attribute holding the two letter province code. Provinces made of
// several shapes may span several rows. Rows for regions outside the
// model are ignored. If tolerance is positive, outlines are simplified
// to that many meters.
func LoadBoundaries(fileName string, tolerance float64) (Boundaries, error) {
	d, err := shp.NewDecoder(fileName)
	if err != nil {
		return nil, fmt.Errorf("viz: opening boundaries: %w", err)
	}
	defer d.Close()

	src, err := d.SR()
	if errors.Is(err, fs.ErrNotExist) {
		src, err = proj.Parse(lonLat)
	}
	if err != nil {
		return nil, fmt.Errorf("viz: boundaries projection: %w", err)
	}
	dst, err := proj.Parse(WebMercator)
	if err != nil {
		return nil, fmt.Errorf("viz: boundaries projection: %w", err)
	}
	ct, err := src.NewTransform(dst)
	if err != nil {
		return nil, fmt.Errorf("viz: boundaries projection: %w", err)
	}

	known := make(map[string]Province)
	for _, p := range append(append([]Province{}, Provinces...), Tibet) {
		known[p.Code] = p
	}

	b := make(Boundaries)
	for {
		var rec boundaryRecord
		if !d.DecodeRow(&rec) {
			break
		}
		code := strings.TrimSpace(rec.Code)
		p, ok := known[code]
		if !ok {
			continue
		}
		g, err := rec.Shape.Transform(ct)
		if err != nil {
			return nil, fmt.Errorf("viz: projecting boundary of %s: %w", code, err)
		}
		if tolerance > 0 {
			if s, ok := g.(geom.Polygonal); ok {
				g = s.Simplify(tolerance)
			}
		}
		poly, ok := g.(geom.Polygonal)
		if !ok {
			return nil, fmt.Errorf("viz: boundary of %s is %T, not a polygon", code, g)
		}
		if b[p.Code] == nil {
			b[p.Code] = &Boundary{Province: p}
		}
		for _, pp := range poly.Polygons() {
			b[p.Code].Polygon = append(b[p.Code].Polygon, pp...)
		}
	}
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("viz: reading boundaries: %w", err)
	}
	for _, p := range Provinces {
		if b[p.Code] == nil {
			return nil, fmt.Errorf("viz: no boundary for province %s", p.Code)
		}
	}
	return b, nil
}

// Bounds returns the extent of all outlines.
func (b Boundaries) Bounds() *geom.Bounds {
	o := geom.NewBounds()
	for _, p := range b {
		o.Extend(p.Polygon.Bounds())
	}
	return o
}

// coordinates returns the x and y coordinates of the outer rings of p,
// separated by NaN. Patch glyphs treat NaN as the start of a new patch,
// so rings that lie inside another ring (holes) are left out.
func coordinates(p geom.Polygon) (xs, ys []float64) {
	first := true
	for i, ring := range p {
		if isHole(p, i) {
			continue
		}
		if !first {
			xs = append(xs, math.NaN())
			ys = append(ys, math.NaN())
		}
		first = false
		for _, pt := range ring {
			xs = append(xs, pt.X)
			ys = append(ys, pt.Y)
		}
	}
	return xs, ys
}

// isHole returns whether ring i of p lies inside another ring of p.
func isHole(p geom.Polygon, i int) bool {
	if len(p[i]) == 0 {
		return false
	}
	pt := p[i][0]
	for j, ring := range p {
		if j != i && inRing(pt, ring) {
			return true
		}
	}
	return false
}

// inRing returns whether pt is inside ring, by ray casting.
func inRing(pt geom.Point, ring geom.Path) bool {
	in := false
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		a, b := ring[i], ring[j]
		if (a.Y > pt.Y) != (b.Y > pt.Y) &&
			pt.X < (b.X-a.X)*(pt.Y-a.Y)/(b.Y-a.Y)+a.X {
			in = !in
		}
	}
	return in
}
