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
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/mit-jp/cremviz"
	"github.com/sirupsen/logrus"
)

// caseTable is the layout of a case table file:
//
//	[[Case]]
//	Name = "bau"
//	File = "result_urban_exo.gdx"
//	Description = "BAU: Business-as-usual"
//	Args = ["--case=default"]
type caseTable struct {
	Case []cremviz.Case
}

// ReadCases reads a TOML case table. The first case is the
// business-as-usual case.
func ReadCases(r io.Reader) ([]cremviz.Case, error) {
	var t caseTable
	if _, err := toml.DecodeReader(r, &t); err != nil {
		return nil, fmt.Errorf("cremviz: reading case table: %v", err)
	}
	if len(t.Case) == 0 {
		return nil, fmt.Errorf("cremviz: the case table has no cases")
	}
	seen := make(map[string]bool)
	for i, c := range t.Case {
		if c.Name == "" || c.File == "" {
			return nil, fmt.Errorf("cremviz: case %d in the case table needs a Name and a File", i+1)
		}
		if seen[c.Name] {
			return nil, fmt.Errorf("cremviz: case %s appears more than once in the case table", c.Name)
		}
		seen[c.Name] = true
	}
	return t.Case, nil
}

// loadCases returns the cases in the given table file, or the default
// cases if fileName is empty.
func loadCases(fileName string) ([]cremviz.Case, error) {
	if fileName == "" {
		return cremviz.DefaultCases, nil
	}
	f, err := os.Open(os.ExpandEnv(fileName))
	if err != nil {
		return nil, fmt.Errorf("cremviz: opening case table: %v", err)
	}
	defer f.Close()
	return ReadCases(f)
}

// expandStringSlice expands the environment variables in a slice of strings.
func expandStringSlice(s []string) []string {
	for i := 0; i < len(s); i++ {
		s[i] = os.ExpandEnv(s[i])
	}
	return s
}

// checkInputDir expands any environment variables in a directory path
// and makes sure that the directory exists.
func checkInputDir(name, dir string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("cremviz: you need to specify the %s configuration variable", name)
	}
	dir = os.ExpandEnv(dir)
	fi, err := os.Stat(dir)
	if err != nil {
		return dir, fmt.Errorf("cremviz: the %s directory doesn't exist: %v", name, err)
	}
	if !fi.IsDir() {
		return dir, fmt.Errorf("cremviz: %s (%s) is not a directory", name, dir)
	}
	return dir, nil
}

// checkOutputDir expands any environment variables in an output
// directory path and makes sure that its parent directory exists.
func checkOutputDir(name, dir string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("cremviz: you need to specify the %s configuration variable", name)
	}
	dir = os.ExpandEnv(dir)
	if _, err := os.Stat(filepath.Dir(filepath.Clean(dir))); err != nil {
		return dir, fmt.Errorf("cremviz: the parent of the %s directory doesn't exist: %v", name, err)
	}
	return dir, nil
}

// checkFormats makes sure that each static image format is supported.
func checkFormats(formats []string) ([]string, error) {
	var o []string
	for _, f := range formats {
		f = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(f), "."))
		switch f {
		case "":
			continue
		case "png", "svg":
			o = append(o, f)
		default:
			return nil, fmt.Errorf("cremviz: StaticImages format must be png or svg but is `%s`", f)
		}
	}
	return o, nil
}

// newLogger returns a logger that writes text with full timestamps
// to w at the given level.
func newLogger(w io.Writer, level string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("cremviz: LogLevel: %v", err)
	}
	log := logrus.New()
	log.SetOutput(w)
	log.SetLevel(lvl)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
		DisableSorting:  true,
	})
	return log, nil
}
