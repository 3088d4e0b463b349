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
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/mit-jp/cremviz"
	"github.com/sirupsen/logrus"
)

// ModelCommands returns the GAMS commands that produce the GDX files
// for cases in gdxDir. If crem is not empty, C-REM is first run for
// each case with the case's Args. Every result file is then
// post-processed by preGMS, which writes the matching _extra.gdx file.
func ModelCommands(cases []cremviz.Case, gams, crem, preGMS, gdxDir string) ([][]string, error) {
	if gams == "" {
		return nil, fmt.Errorf("cremviz: you need to specify the GAMS configuration variable")
	}
	if preGMS == "" {
		return nil, fmt.Errorf("cremviz: you need to specify the PreGMS configuration variable")
	}
	var cmds [][]string
	if crem != "" {
		for _, c := range cases {
			cmd := append([]string{gams, crem}, c.Args...)
			cmds = append(cmds, append(cmd, "--file="+resultPath(gdxDir, c)))
		}
	}
	for _, c := range cases {
		cmds = append(cmds, []string{gams, preGMS, "--file=" + resultPath(gdxDir, c)})
	}
	return cmds, nil
}

// resultPath is the path of a case's result file without the .gdx
// extension, as GAMS expects it.
func resultPath(gdxDir string, c cremviz.Case) string {
	return filepath.Join(gdxDir, strings.TrimSuffix(c.File, filepath.Ext(c.File)))
}

// RunModel runs cmds in order, sending their output to w. If dryRun is
// true, the commands are written to w instead of being run.
func RunModel(ctx context.Context, cmds [][]string, dryRun bool, w io.Writer, log logrus.FieldLogger) error {
	for i, c := range cmds {
		if dryRun {
			fmt.Fprintln(w, strings.Join(c, " "))
			continue
		}
		log.WithFields(logrus.Fields{
			"command": strings.Join(c, " "),
			"step":    fmt.Sprintf("%d/%d", i+1, len(cmds)),
		}).Info("running model")
		cmd := exec.CommandContext(ctx, c[0], c[1:]...)
		cmd.Stdout = w
		cmd.Stderr = w
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("cremviz: running `%s`: %v", strings.Join(c, " "), err)
		}
	}
	return nil
}
