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
	"encoding/json"
	"html/template"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
)

func TestConfigHandler(t *testing.T) {
	defer Root.PersistentFlags().Set("config", "")

	cfg := filepath.Join(t.TempDir(), "cremviz.toml")
	if err := os.WriteFile(cfg, []byte("PlotWidth = 450\n"), 0644); err != nil {
		t.Fatal(err)
	}
	w := httptest.NewRecorder()
	configHandler(w, httptest.NewRequest(http.MethodGet, "/setConfig?config="+url.QueryEscape(cfg), nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body)
	}
	var config map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&config); err != nil {
		t.Fatal(err)
	}
	if len(config) != len(options) {
		t.Errorf("%d options, want %d", len(config), len(options))
	}
	if config["PlotWidth"] != 450. {
		t.Errorf("PlotWidth %v", config["PlotWidth"])
	}

	w = httptest.NewRecorder()
	configHandler(w, httptest.NewRequest(http.MethodGet, "/setConfig?config="+url.QueryEscape(cfg+".missing"), nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing file: status %d", w.Code)
	}
}

func TestGUITemplate(t *testing.T) {
	if _, err := template.New("").Parse(guiTemplate); err != nil {
		t.Fatal(err)
	}
}
