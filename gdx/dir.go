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

package gdx

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Dir is a directory of symbols that have already been dumped to
// CSV, one file named <symbol>.csv per symbol.
type Dir struct {
	Path string
}

// Symbol implements Reader.
func (d *Dir) Symbol(ctx context.Context, name string) (*Symbol, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fname := filepath.Join(d.Path, name+".csv")
	f, err := os.Open(fname)
	if err != nil {
		return nil, fmt.Errorf("gdx: reading symbol %s from %s: %w", name, d.Path, err)
	}
	defer f.Close()
	return ReadCSV(name, f)
}

// Set implements Reader.
func (d *Dir) Set(ctx context.Context, name string) ([]string, error) {
	s, err := d.Symbol(ctx, name)
	if err != nil {
		return nil, err
	}
	return setElements(s)
}
