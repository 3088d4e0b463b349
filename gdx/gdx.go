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

// Package gdx reads sets and parameters from GAMS data exchange (GDX) files.
//
// GDX is a binary format that is only readable through the GAMS API, so
// symbols are extracted with the gdxdump tool that ships with GAMS and
// parsed from its CSV output. Symbols that have already been dumped can
// also be read from a directory containing one <symbol>.csv file per symbol.
package gdx

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Universe is the domain name given to dimensions that are not
// defined over a named set.
const Universe = "*"

// Record is a single entry of a GDX symbol.
type Record struct {
	Labels []string
	Value  float64
}

// Symbol holds the contents of a GDX set or parameter.
type Symbol struct {
	Name string

	// Dims holds the domain names of the symbol dimensions.
	Dims []string

	Records []Record
}

// Labels returns the unique labels of dimension i in order
// of first appearance.
func (s *Symbol) Labels(i int) []string {
	seen := make(map[string]struct{})
	var o []string
	for _, r := range s.Records {
		l := r.Labels[i]
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		o = append(o, l)
	}
	return o
}

// Reader is implemented by sources of GDX symbols.
type Reader interface {
	// Symbol returns the named set or parameter.
	Symbol(ctx context.Context, name string) (*Symbol, error)

	// Set returns the elements of the named one-dimensional set.
	Set(ctx context.Context, name string) ([]string, error)
}

// Open returns a Reader for path. If path is a directory, symbols are
// read from pre-dumped CSV files within it; otherwise path is treated
// as a GDX file and read using the gdxdump executable. If path does not
// exist but a directory with the same name minus the .gdx extension
// does, that directory is used.
func Open(path, gdxdump string) (Reader, error) {
	fi, err := os.Stat(path)
	if err != nil {
		dir := strings.TrimSuffix(path, filepath.Ext(path))
		if dfi, derr := os.Stat(dir); derr == nil && dfi.IsDir() {
			return &Dir{Path: dir}, nil
		}
		return nil, fmt.Errorf("gdx: opening %s: %w", path, err)
	}
	if fi.IsDir() {
		return &Dir{Path: path}, nil
	}
	return NewFile(path, gdxdump), nil
}

// ExtraPath returns the path of the companion file produced by the
// pre.gms post-processing script, which holds symbols that a plain dump
// cannot represent: foo.gdx becomes foo_extra.gdx.
func ExtraPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_extra" + ext
}

// setElements returns the elements of a one-dimensional set symbol.
func setElements(s *Symbol) ([]string, error) {
	if len(s.Dims) != 1 {
		return nil, fmt.Errorf("gdx: %s has %d dimensions; a set must have 1", s.Name, len(s.Dims))
	}
	return s.Labels(0), nil
}

// ReadCSV parses a symbol in gdxdump's CSV format: a header line naming
// the domains (and a trailing Val column for parameters or Text column for
// sets with explanatory text) followed by one line per record.
func ReadCSV(name string, r io.Reader) (*Symbol, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("gdx: reading header of %s: %w", name, err)
	}
	s := &Symbol{Name: name}
	valCol, textCol := -1, -1
	for i, h := range header {
		h = strings.TrimSpace(h)
		switch {
		case h == "Val":
			valCol = i
		case h == "Text":
			textCol = i
		default:
			s.Dims = append(s.Dims, domainName(h))
		}
	}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("gdx: reading %s line %d: %w", name, line, err)
		}
		if len(rec) != len(header) {
			return nil, fmt.Errorf("gdx: reading %s line %d: %d fields but header has %d",
				name, line, len(rec), len(header))
		}
		r := Record{Labels: make([]string, 0, len(s.Dims)), Value: 1}
		for i, f := range rec {
			switch i {
			case valCol:
				v, err := ParseValue(f)
				if err != nil {
					return nil, fmt.Errorf("gdx: reading %s line %d: %w", name, line, err)
				}
				r.Value = v
			case textCol:
			default:
				r.Labels = append(r.Labels, strings.TrimSpace(f))
			}
		}
		s.Records = append(s.Records, r)
	}
	return s, nil
}

// domainName converts a gdxdump header entry into a domain name.
// gdxdump labels universe domains Dim1, Dim2, ...
func domainName(h string) string {
	if strings.HasPrefix(h, "Dim") {
		if _, err := strconv.Atoi(strings.TrimPrefix(h, "Dim")); err == nil {
			return Universe
		}
	}
	return h
}

// ParseValue parses a GDX value, including the GAMS special values.
func ParseValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	switch strings.ToUpper(s) {
	case "EPS":
		return 0, nil
	case "+INF", "INF":
		return math.Inf(1), nil
	case "-INF":
		return math.Inf(-1), nil
	case "NA", "UNDF", "":
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN(), fmt.Errorf("invalid value %q", s)
	}
	return v, nil
}
