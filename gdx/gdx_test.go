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
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestReadCSV(t *testing.T) {
	const data = `"Dim1","rs","t","Val"
"COL","AH","2007",1.5
"COL","AH","2010",Eps
"GAS","BJ","2007",+Inf
"GAS","BJ","2010",NA
`
	s, err := ReadCSV("ye_input", strings.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"*", "rs", "t"}; !reflect.DeepEqual(s.Dims, want) {
		t.Errorf("dims: %v != %v", s.Dims, want)
	}
	if len(s.Records) != 4 {
		t.Fatalf("have %d records, want 4", len(s.Records))
	}
	if want := []string{"COL", "AH", "2007"}; !reflect.DeepEqual(s.Records[0].Labels, want) {
		t.Errorf("labels: %v != %v", s.Records[0].Labels, want)
	}
	if s.Records[0].Value != 1.5 {
		t.Errorf("value 0: %g", s.Records[0].Value)
	}
	if s.Records[1].Value != 0 {
		t.Errorf("Eps should be 0 but is %g", s.Records[1].Value)
	}
	if !math.IsInf(s.Records[2].Value, 1) {
		t.Errorf("+Inf should be infinite but is %g", s.Records[2].Value)
	}
	if !math.IsNaN(s.Records[3].Value) {
		t.Errorf("NA should be NaN but is %g", s.Records[3].Value)
	}
	if want := []string{"COL", "GAS"}; !reflect.DeepEqual(s.Labels(0), want) {
		t.Errorf("labels(0): %v != %v", s.Labels(0), want)
	}
}

func TestReadCSVSet(t *testing.T) {
	const data = `"r","Text"
"AH","Anhui"
"BJ","Beijing"
`
	s, err := ReadCSV("r", strings.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	e, err := setElements(s)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"AH", "BJ"}; !reflect.DeepEqual(e, want) {
		t.Errorf("%v != %v", e, want)
	}
}

func TestReadCSVErrors(t *testing.T) {
	t.Run("bad value", func(t *testing.T) {
		_, err := ReadCSV("x", strings.NewReader("\"t\",\"Val\"\n\"2007\",abc\n"))
		if err == nil || !strings.Contains(err.Error(), "line 2") {
			t.Errorf("unexpected error: %v", err)
		}
	})
	t.Run("short record", func(t *testing.T) {
		_, err := ReadCSV("x", strings.NewReader("\"r\",\"t\",\"Val\"\n\"2007\",1\n"))
		if err == nil {
			t.Error("expected an error")
		}
	})
	t.Run("empty", func(t *testing.T) {
		_, err := ReadCSV("x", strings.NewReader(""))
		if err == nil {
			t.Error("expected an error")
		}
	})
}

func TestDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "result_urban_exo")
	if err := os.Mkdir(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "t.csv"), []byte("\"Dim1\"\n\"2007\"\n\"2010\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	r, err := Open(dir+".gdx", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := r.(*Dir); !ok {
		t.Fatalf("have %T, want *Dir", r)
	}
	tt, err := r.Set(context.Background(), "t")
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"2007", "2010"}; !reflect.DeepEqual(tt, want) {
		t.Errorf("%v != %v", tt, want)
	}
	if _, err := r.Symbol(context.Background(), "missing"); err == nil {
		t.Error("expected an error for a missing symbol")
	}
}

func TestOpenMissing(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "none.gdx"), ""); err == nil {
		t.Error("expected an error")
	}
}

func TestExtraPath(t *testing.T) {
	if have, want := ExtraPath("gdx/result_cint_n_3.gdx"), "gdx/result_cint_n_3_extra.gdx"; have != want {
		t.Errorf("%s != %s", have, want)
	}
	if have, want := ExtraPath("gdx/result_cint_n_3"), "gdx/result_cint_n_3_extra"; have != want {
		t.Errorf("%s != %s", have, want)
	}
}

func TestFileMissingExecutable(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "x.gdx")
	if err := os.WriteFile(fname, []byte{0}, 0644); err != nil {
		t.Fatal(err)
	}
	f := NewFile(fname, filepath.Join(t.TempDir(), "no-such-gdxdump"))
	_, err := f.Symbol(context.Background(), "r")
	if err == nil || !strings.Contains(err.Error(), "reading symbol r") {
		t.Errorf("unexpected error: %v", err)
	}
}
