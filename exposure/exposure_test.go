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

package exposure

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tealeg/xlsx"
)

// writeWorkbook writes a workbook laid out like the exposure workbook,
// with 30 regions named R00 to R29. value returns the contents of the
// cell for region i and column j, which may be blank.
func writeWorkbook(t *testing.T, header []string, value func(i, j int) string) string {
	t.Helper()
	f := xlsx.NewFile()
	s, err := f.AddSheet(Sheet)
	if err != nil {
		t.Fatal(err)
	}
	s.AddRow().AddCell().SetString("Population-weighted PM2.5")
	row := s.AddRow()
	for _, h := range header {
		row.AddCell().SetString(h)
	}
	for i := 0; i < LastRow-FirstRow+1; i++ {
		row := s.AddRow()
		row.AddCell().SetString(fmt.Sprintf("R%02d", i))
		for j := 1; j < len(header); j++ {
			row.AddCell().SetString(value(i, j))
		}
	}
	fname := filepath.Join(t.TempDir(), "pm.xlsx")
	if err := f.Save(fname); err != nil {
		t.Fatal(err)
	}
	return fname
}

var testHeader = []string{"", "2010", "2030", "2030_p2", "2030_p3", "2030_p4", "2030_p5", "2030_p6"}

func TestLoad(t *testing.T) {
	fname := writeWorkbook(t, testHeader, func(i, j int) string {
		if i == 3 && j == 2 {
			return ""
		}
		return fmt.Sprintf("%d.5", i*10+j)
	})
	s, err := Load(context.Background(), fname)
	if err != nil {
		t.Fatal(err)
	}
	if have, want := len(s.Records), 30*7; have != want {
		t.Fatalf("have %d records, want %d", have, want)
	}
	if have, want := strings.Join(s.Labels(0), ","), "bau,2,3,4,5,6"; have != want {
		t.Errorf("cases: %s != %s", have, want)
	}
	if have, want := strings.Join(s.Labels(2), ","), "2010,2030"; have != want {
		t.Errorf("times: %s != %s", have, want)
	}

	find := func(c, r, tt string) float64 {
		for _, rec := range s.Records {
			if rec.Labels[0] == c && rec.Labels[1] == r && rec.Labels[2] == tt {
				return rec.Value
			}
		}
		t.Fatalf("no record for %s %s %s", c, r, tt)
		return 0
	}
	if v := find("bau", "R01", "2010"); v != 11.5 {
		t.Errorf("bau R01 2010: %g", v)
	}
	if v := find("4", "R02", "2030"); v != 25.5 {
		t.Errorf("4 R02 2030: %g", v)
	}
	if v := find("bau", "R03", "2030"); !math.IsNaN(v) {
		t.Errorf("blank cell should be NaN but is %g", v)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Run("bad header", func(t *testing.T) {
		h := append([]string{}, testHeader...)
		h[3] = "next year"
		fname := writeWorkbook(t, h, func(i, j int) string { return "1" })
		_, err := Load(context.Background(), fname)
		if err == nil || !strings.Contains(err.Error(), "column 3") {
			t.Errorf("unexpected error: %v", err)
		}
	})
	t.Run("bad value", func(t *testing.T) {
		fname := writeWorkbook(t, testHeader, func(i, j int) string {
			if i == 0 && j == 1 {
				return "n/a"
			}
			return "1"
		})
		_, err := Load(context.Background(), fname)
		if err == nil || !strings.Contains(err.Error(), "row 2 column 1") {
			t.Errorf("unexpected error: %v", err)
		}
	})
	t.Run("missing file", func(t *testing.T) {
		if _, err := Load(context.Background(), filepath.Join(t.TempDir(), "none.xlsx")); err == nil {
			t.Error("expected an error")
		}
	})
}

func TestParseHeader(t *testing.T) {
	for _, test := range []struct {
		in   string
		want column
	}{
		{"", column{region: true}},
		{"2010", column{caseName: BAU, t: "2010"}},
		{"2030.0", column{caseName: BAU, t: "2030"}},
		{"2030_p4", column{caseName: "4", t: "2030"}},
	} {
		t.Run(test.in, func(t *testing.T) {
			c, err := parseHeader(test.in)
			if err != nil {
				t.Fatal(err)
			}
			if c != test.want {
				t.Errorf("%+v != %+v", c, test.want)
			}
		})
	}
}
