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

package cremutil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/sirupsen/logrus"
)

func fileServer(t *testing.T, files map[string]string) *httptest.Server {
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	srv := httptest.NewServer(http.FileServer(http.Dir(dir)))
	t.Cleanup(srv.Close)
	return srv
}

func TestExpandShp(t *testing.T) {
	want := []string{"a/p.shp", "a/p.dbf", "a/p.shx", "a/p.prj"}
	if got := expandShp("a/p.shp"); !reflect.DeepEqual(got, want) {
		t.Errorf("%v != %v", got, want)
	}
	if got := expandShp("pm.xlsx"); !reflect.DeepEqual(got, []string{"pm.xlsx"}) {
		t.Errorf("xlsx: %v", got)
	}
}

func TestMaybeDownloadLocal(t *testing.T) {
	ctx := context.Background()
	log := logrus.StandardLogger()
	if k, err := maybeDownload(ctx, "/dev/null", log); err != nil || k != "/dev/null" {
		t.Errorf("expected /dev/null, got %s (%v)", k, err)
	}
	if k, err := maybeDownload(ctx, "/blah/test/", log); err != nil || k != "/blah/test/" {
		t.Errorf("expected /blah/test/, got %s (%v)", k, err)
	}
}

func TestMaybeDownloadRemote(t *testing.T) {
	srv := fileServer(t, map[string]string{
		"provinces.shp": "shp",
		"provinces.dbf": "dbf",
		"provinces.shx": "shx",
		"pm.xlsx":       "xlsx",
	})
	ctx := context.Background()
	log := logrus.StandardLogger()

	k, err := maybeDownload(ctx, srv.URL+"/provinces.shp", log)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(k) != "provinces.shp" {
		t.Errorf("downloaded to %s", k)
	}
	for _, ext := range []string{".shp", ".dbf", ".shx"} {
		b, err := os.ReadFile(k[:len(k)-4] + ext)
		if err != nil {
			t.Fatal(err)
		}
		if string(b) != ext[1:] {
			t.Errorf("%s: %q", ext, b)
		}
	}
	if _, err := os.Stat(k[:len(k)-4] + ".prj"); !os.IsNotExist(err) {
		t.Error("missing .prj file should not be created")
	}

	if _, err := maybeDownload(ctx, srv.URL+"/pm.xlsx", log); err != nil {
		t.Error(err)
	}
	if _, err := maybeDownload(ctx, srv.URL+"/missing.xlsx", log); err == nil {
		t.Error("expected an error for a missing file")
	}
}
