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

package cremviz

import (
	"testing"

	"github.com/ctessum/unit"
)

func TestPercentPerUnit(t *testing.T) {
	v, err := Convert(1, Dimensionless, Percent)
	if err != nil {
		t.Fatal(err)
	}
	if v != percentPerUnit || percentPerUnit != 100 {
		t.Errorf("%g percent per unit, Convert gives %g", percentPerUnit, v)
	}
	if _, err := Convert(1, Megatonne, Percent); err == nil {
		t.Error("expected an error converting mass to percent")
	}
}

func TestCheckShare(t *testing.T) {
	num := Full([]string{RegionDim}, map[string][]string{RegionDim: {"AH"}}, 1)
	den := num.Clone()
	num.Attrs.Unit = MegatonneCoalEquivalent
	den.Attrs.Unit = unit.New(1, unit.Joule)
	if err := checkShare("COL_share", num, den); err != nil {
		t.Error(err)
	}
	den.Attrs.Unit = Megatonne
	if err := checkShare("COL_share", num, den); err == nil {
		t.Error("expected an error for unlike units")
	}
}
