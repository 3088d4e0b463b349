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

package main

import "testing"

func TestCommandCount(t *testing.T) {
	for _, test := range []struct {
		args []string
		want int
	}{
		{args: []string{"cremviz"}, want: 1},
		{args: []string{"cremviz", "--config=a.toml"}, want: 1},
		{args: []string{"cremviz", "render", "--PlotWidth=500"}, want: 2},
		{args: []string{"cremviz", ""}, want: 2},
	} {
		if n := commandCount(test.args); n != test.want {
			t.Errorf("%q: have %d, want %d", test.args, n, test.want)
		}
	}
}
