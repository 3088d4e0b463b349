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

// Package exposure reads provincial population-weighted PM2.5 exposure
// from the workbook produced by the air quality modelling team.
package exposure

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/ctessum/requestcache"
	"github.com/mit-jp/cremviz/gdx"
	"github.com/tealeg/xlsx"
)

// Layout of the exposure workbook.
const (
	Sheet     = "Sheet1"
	HeaderRow = 1
	FirstRow  = 2
	LastRow   = 31 // inclusive
	NumCols   = 8
)

// BAU is the name of the business-as-usual case.
const BAU = "bau"

// excelCache holds previously opened workbooks.
var excelCache *requestcache.Cache

var loadExcelCacheOnce sync.Once

// loadExcelFile loads a Microsoft Excel file from disk, utilizing
// a cache to avoid loading the same file more than once.
func loadExcelFile(ctx context.Context, fileName string) (*xlsx.File, error) {
	loadExcelCacheOnce.Do(func() {
		excelCache = requestcache.NewCache(func(ctx context.Context, req interface{}) (interface{}, error) {
			filename := req.(string)
			f, err := xlsx.OpenFile(filename)
			if err != nil {
				return nil, fmt.Errorf("exposure: opening xlsx file: %v", err)
			}
			return f, nil
		}, runtime.GOMAXPROCS(-1), requestcache.Deduplicate(), requestcache.Memory(10))
	})
	r := excelCache.NewRequest(ctx, fileName, fileName)
	fI, err := r.Result()
	if err != nil {
		return nil, err
	}
	return fI.(*xlsx.File), nil
}

// column identifies the case and time of a workbook column.
type column struct {
	region      bool
	caseName, t string
}

// parseHeader converts a header cell into a column identifier.
// Headers are blank (the region column), a year for the BAU case,
// or "<year>_p<N>" for policy case N.
func parseHeader(h string) (column, error) {
	h = strings.TrimSpace(h)
	if h == "" {
		return column{region: true}, nil
	}
	if y, err := strconv.ParseFloat(h, 64); err == nil {
		return column{caseName: BAU, t: strconv.Itoa(int(y))}, nil
	}
	parts := strings.SplitN(h, "_p", 2)
	if len(parts) == 2 {
		if _, err := strconv.Atoi(parts[0]); err == nil && parts[1] != "" {
			return column{caseName: parts[1], t: parts[0]}, nil
		}
	}
	return column{}, fmt.Errorf("unrecognized header %q", h)
}

// Load reads the exposure table from the workbook in fileName. The
// returned symbol has dimensions case, r and t. Blank cells are NaN.
func Load(ctx context.Context, fileName string) (*gdx.Symbol, error) {
	f, err := loadExcelFile(ctx, fileName)
	if err != nil {
		return nil, err
	}
	s, ok := f.Sheet[Sheet]
	if !ok {
		return nil, fmt.Errorf("exposure: reading %s: no sheet %s", fileName, Sheet)
	}
	if s.MaxRow <= LastRow {
		return nil, fmt.Errorf("exposure: reading %s: sheet %s has %d rows; want at least %d",
			fileName, Sheet, s.MaxRow, LastRow+1)
	}

	cols := make([]column, NumCols)
	regionCol := -1
	for i := range cols {
		c, err := parseHeader(s.Cell(HeaderRow, i).Value)
		if err != nil {
			return nil, fmt.Errorf("exposure: reading %s: sheet %s column %d: %v", fileName, Sheet, i, err)
		}
		if c.region {
			regionCol = i
		}
		cols[i] = c
	}
	if regionCol < 0 {
		return nil, fmt.Errorf("exposure: reading %s: sheet %s has no region column", fileName, Sheet)
	}

	sym := &gdx.Symbol{Name: "PM25_exposure", Dims: []string{"case", "r", "t"}}
	for j := FirstRow; j <= LastRow; j++ {
		r := strings.TrimSpace(s.Cell(j, regionCol).Value)
		if r == "" {
			return nil, fmt.Errorf("exposure: reading %s: sheet %s row %d: missing region", fileName, Sheet, j)
		}
		for i, c := range cols {
			if c.region {
				continue
			}
			v := math.NaN()
			if cell := strings.TrimSpace(s.Cell(j, i).Value); cell != "" {
				v, err = strconv.ParseFloat(cell, 64)
				if err != nil {
					return nil, fmt.Errorf("exposure: reading %s: sheet %s row %d column %d: %v",
						fileName, Sheet, j, i, err)
				}
			}
			sym.Records = append(sym.Records, gdx.Record{
				Labels: []string{c.caseName, r, c.t},
				Value:  v,
			})
		}
	}
	return sym, nil
}
