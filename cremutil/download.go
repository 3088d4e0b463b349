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
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// maybeDownload checks if path is an existing local file. If not and
// path is an http or https URL, it downloads the file to a temporary
// directory and returns the path to the downloaded file.
// For shapefiles, the associated .dbf, .shx and .prj files are downloaded
// as well. A missing .prj file is not an error.
func maybeDownload(ctx context.Context, path string, log logrus.FieldLogger) (string, error) {
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return path, nil
	}
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		return path, nil
	}

	dir, err := os.MkdirTemp("", "cremviz")
	if err != nil {
		return path, fmt.Errorf("cremviz: creating temporary download directory: %v", err)
	}
	fnames := expandShp(path)
	for i, u := range fnames {
		fname := filepath.Join(dir, filepath.Base(u))
		err := downloadHTTP(ctx, u, fname)
		if err == errNotFound && filepath.Ext(u) == ".prj" {
			continue
		}
		if err != nil {
			return path, err
		}
		log.WithFields(logrus.Fields{"url": u, "file": fname}).Debug("downloaded")
		if i == 0 {
			log.WithField("url", u).Info("downloaded input file")
		}
	}
	return filepath.Join(dir, filepath.Base(fnames[0])), nil
}

var errNotFound = fmt.Errorf("cremviz: file not found")

// downloadHTTP downloads url to the file fname.
func downloadHTTP(ctx context.Context, url, fname string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("cremviz: downloading %s: %v", url, err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("cremviz: downloading %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cremviz: downloading %s: %s", url, resp.Status)
	}
	w, err := os.Create(fname)
	if err != nil {
		return fmt.Errorf("cremviz: creating file for download: %v", err)
	}
	if _, err = io.Copy(w, resp.Body); err != nil {
		w.Close()
		return fmt.Errorf("cremviz: downloading %s: %v", url, err)
	}
	return w.Close()
}

// expandShp returns filename and, if it is a shapefile, the names
// of its associated files.
func expandShp(filename string) []string {
	o := []string{filename}
	if filepath.Ext(filename) != ".shp" {
		return o
	}
	for _, newExt := range []string{".dbf", ".shx", ".prj"} {
		o = append(o, filename[0:len(filename)-4]+newExt)
	}
	return o
}
