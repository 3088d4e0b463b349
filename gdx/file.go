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
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"sync"

	"github.com/ctessum/requestcache"
)

// DefaultGDXDump is the name of the gdxdump executable that is used
// when none is specified.
const DefaultGDXDump = "gdxdump"

// dumpCache holds symbols that have already been extracted
// to avoid running gdxdump more than once for the same symbol.
var dumpCache *requestcache.Cache

var loadDumpCacheOnce sync.Once

type dumpRequest struct {
	file, symbol, gdxdump string
}

// File is a GDX file whose symbols are extracted with gdxdump.
type File struct {
	Path string

	// GDXDump is the path to the gdxdump executable.
	GDXDump string
}

// NewFile returns a new File. If gdxdump is empty, DefaultGDXDump
// is used.
func NewFile(path, gdxdump string) *File {
	if gdxdump == "" {
		gdxdump = DefaultGDXDump
	}
	return &File{Path: path, GDXDump: gdxdump}
}

// Symbol implements Reader.
func (f *File) Symbol(ctx context.Context, name string) (*Symbol, error) {
	loadDumpCacheOnce.Do(func() {
		dumpCache = requestcache.NewCache(func(ctx context.Context, req interface{}) (interface{}, error) {
			return dump(ctx, req.(dumpRequest))
		}, runtime.GOMAXPROCS(-1), requestcache.Deduplicate(), requestcache.Memory(200))
	})
	req := dumpRequest{file: f.Path, symbol: name, gdxdump: f.GDXDump}
	r := dumpCache.NewRequest(ctx, req, f.Path+"\x00"+name)
	s, err := r.Result()
	if err != nil {
		return nil, err
	}
	return s.(*Symbol), nil
}

// Set implements Reader.
func (f *File) Set(ctx context.Context, name string) ([]string, error) {
	s, err := f.Symbol(ctx, name)
	if err != nil {
		return nil, err
	}
	return setElements(s)
}

func dump(ctx context.Context, req dumpRequest) (*Symbol, error) {
	if _, err := os.Stat(req.file); err != nil {
		return nil, fmt.Errorf("gdx: reading symbol %s from %s: %w", req.symbol, req.file, err)
	}
	cmd := exec.CommandContext(ctx, req.gdxdump, req.file,
		"symb="+req.symbol, "format=csv")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("gdx: reading symbol %s from %s: %w: %s",
			req.symbol, req.file, err, bytes.TrimSpace(stderr.Bytes()))
	}
	s, err := ReadCSV(req.symbol, &stdout)
	if err != nil {
		return nil, fmt.Errorf("gdx: reading symbol %s from %s: %w", req.symbol, req.file, err)
	}
	return s, nil
}
