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
	"fmt"
	"math"
	"strconv"

	"github.com/ctessum/unit"
	"github.com/mit-jp/cremviz/gdx"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Attrs holds descriptive information about a variable.
type Attrs struct {
	Desc      string `desc:"Description"`
	UnitLong  string `desc:"Units, spelled out"`
	UnitShort string `desc:"Units, abbreviated"`

	// Unit optionally holds the dimensions and magnitude of
	// the variable's units.
	Unit *unit.Unit
}

// Empty returns whether no descriptive information has been set.
func (a Attrs) Empty() bool {
	return a.Desc == "" && a.UnitLong == "" && a.UnitShort == ""
}

// Array is a multi-dimensional array with labeled coordinates.
// Data is stored in row-major order with the last dimension varying
// fastest. Coordinates should be treated as immutable: operations
// return new arrays.
type Array struct {
	Dims   []string
	Coords map[string][]string
	Data   []float64
	Attrs  Attrs

	index map[string]map[string]int
}

// NewArray returns a new array with the given dimensions and
// coordinate labels, filled with zeros.
func NewArray(dims []string, coords map[string][]string) *Array {
	a := &Array{
		Dims:   append([]string{}, dims...),
		Coords: make(map[string][]string, len(dims)),
	}
	n := 1
	for _, d := range dims {
		c := append([]string{}, coords[d]...)
		a.Coords[d] = c
		n *= len(c)
	}
	a.Data = make([]float64, n)
	a.buildIndex()
	return a
}

// Full returns a new array filled with v.
func Full(dims []string, coords map[string][]string, v float64) *Array {
	a := NewArray(dims, coords)
	for i := range a.Data {
		a.Data[i] = v
	}
	return a
}

// FromSymbol converts a GDX symbol into an array. Coordinate labels
// are ordered by first appearance; combinations missing from the
// symbol are zero, which matches GAMS's sparse storage.
func FromSymbol(s *gdx.Symbol) *Array {
	dims := make([]string, len(s.Dims))
	seen := make(map[string]int)
	for i, d := range s.Dims {
		seen[d]++
		if seen[d] > 1 {
			d = d + strconv.Itoa(seen[d])
		}
		dims[i] = d
	}
	coords := make(map[string][]string, len(dims))
	for i, d := range dims {
		coords[d] = s.Labels(i)
	}
	a := NewArray(dims, coords)
	idx := make([]int, len(dims))
	for _, r := range s.Records {
		for i, d := range dims {
			idx[i] = a.index[d][r.Labels[i]]
		}
		a.Data[a.offset(idx)] = r.Value
	}
	return a
}

func (a *Array) buildIndex() {
	a.index = make(map[string]map[string]int, len(a.Dims))
	for _, d := range a.Dims {
		m := make(map[string]int, len(a.Coords[d]))
		for i, l := range a.Coords[d] {
			m[l] = i
		}
		a.index[d] = m
	}
}

// Shape returns the length of each dimension.
func (a *Array) Shape() []int {
	s := make([]int, len(a.Dims))
	for i, d := range a.Dims {
		s[i] = len(a.Coords[d])
	}
	return s
}

// HasDim returns whether the array has the named dimension.
func (a *Array) HasDim(dim string) bool {
	return a.dimIndex(dim) >= 0
}

func (a *Array) dimIndex(dim string) int {
	for i, d := range a.Dims {
		if d == dim {
			return i
		}
	}
	return -1
}

func (a *Array) offset(idx []int) int {
	o := 0
	for i, d := range a.Dims {
		o = o*len(a.Coords[d]) + idx[i]
	}
	return o
}

// each calls f with the multi-dimensional index and flat offset of
// every element, in storage order.
func (a *Array) each(f func(idx []int, i int)) {
	shape := a.Shape()
	idx := make([]int, len(shape))
	for i := range a.Data {
		f(idx, i)
		for j := len(idx) - 1; j >= 0; j-- {
			idx[j]++
			if idx[j] < shape[j] {
				break
			}
			idx[j] = 0
		}
	}
}

// labelOffset returns the flat offset of the element with the given
// labels, which must be listed in dimension order.
func (a *Array) labelOffset(labels []string) (int, error) {
	if len(labels) != len(a.Dims) {
		return 0, fmt.Errorf("cremviz: %d labels for %d dimensions", len(labels), len(a.Dims))
	}
	idx := make([]int, len(labels))
	for i, d := range a.Dims {
		j, ok := a.index[d][labels[i]]
		if !ok {
			return 0, fmt.Errorf("cremviz: no label %q in dimension %s", labels[i], d)
		}
		idx[i] = j
	}
	return a.offset(idx), nil
}

// At returns the value with the given labels, listed in dimension order.
func (a *Array) At(labels ...string) (float64, error) {
	i, err := a.labelOffset(labels)
	if err != nil {
		return math.NaN(), err
	}
	return a.Data[i], nil
}

// Set sets the value with the given labels, listed in dimension order.
func (a *Array) Set(v float64, labels ...string) error {
	i, err := a.labelOffset(labels)
	if err != nil {
		return err
	}
	a.Data[i] = v
	return nil
}

// Clone returns a deep copy of a.
func (a *Array) Clone() *Array {
	o := NewArray(a.Dims, a.Coords)
	copy(o.Data, a.Data)
	o.Attrs = a.Attrs
	return o
}

// Rename returns a copy of a with dimension old renamed to new.
func (a *Array) Rename(old, new string) *Array {
	dims := append([]string{}, a.Dims...)
	coords := make(map[string][]string, len(dims))
	for i, d := range dims {
		coords[d] = a.Coords[d]
		if d == old {
			dims[i] = new
			coords[new] = a.Coords[d]
			delete(coords, old)
		}
	}
	o := NewArray(dims, coords)
	copy(o.Data, a.Data)
	o.Attrs = a.Attrs
	return o
}

// without returns dims with dim removed.
func without(dims []string, dim string) []string {
	o := make([]string, 0, len(dims))
	for _, d := range dims {
		if d != dim {
			o = append(o, d)
		}
	}
	return o
}

// Sel returns the slice of a at label along dim, with dim removed.
func (a *Array) Sel(dim, label string) (*Array, error) {
	di := a.dimIndex(dim)
	if di < 0 {
		return nil, fmt.Errorf("cremviz: selecting %s=%s: no such dimension in %v", dim, label, a.Dims)
	}
	li, ok := a.index[dim][label]
	if !ok {
		return nil, fmt.Errorf("cremviz: selecting %s=%s: no such label", dim, label)
	}
	o := NewArray(without(a.Dims, dim), a.Coords)
	j := 0
	a.each(func(idx []int, i int) {
		if idx[di] == li {
			o.Data[j] = a.Data[i]
			j++
		}
	})
	o.Attrs = a.Attrs
	return o, nil
}

// SelLabels returns the subset of a with the given labels along dim,
// in the given order. All labels must be present.
func (a *Array) SelLabels(dim string, labels []string) (*Array, error) {
	if !a.HasDim(dim) {
		return nil, fmt.Errorf("cremviz: selecting %s: no such dimension in %v", dim, a.Dims)
	}
	for _, l := range labels {
		if _, ok := a.index[dim][l]; !ok {
			return nil, fmt.Errorf("cremviz: selecting %s=%s: no such label", dim, l)
		}
	}
	return a.Reindex(dim, labels), nil
}

// Reindex returns a copy of a whose coordinates along dim are labels.
// Values for labels that are not in a are NaN. If a does not have
// dimension dim, a copy of a is returned.
func (a *Array) Reindex(dim string, labels []string) *Array {
	di := a.dimIndex(dim)
	if di < 0 {
		return a.Clone()
	}
	coords := make(map[string][]string, len(a.Dims))
	for k, v := range a.Coords {
		coords[k] = v
	}
	coords[dim] = labels
	o := NewArray(a.Dims, coords)
	src := make([]int, len(a.Dims))
	o.each(func(idx []int, i int) {
		copy(src, idx)
		j, ok := a.index[dim][labels[idx[di]]]
		if !ok {
			o.Data[i] = math.NaN()
			return
		}
		src[di] = j
		o.Data[i] = a.Data[a.offset(src)]
	})
	o.Attrs = a.Attrs
	return o
}

// Transpose returns a copy of a with its dimensions in the given order,
// which must be a permutation of a.Dims.
func (a *Array) Transpose(dims ...string) (*Array, error) {
	if len(dims) != len(a.Dims) {
		return nil, fmt.Errorf("cremviz: transposing %v to %v: dimension mismatch", a.Dims, dims)
	}
	perm := make([]int, len(dims))
	for i, d := range dims {
		perm[i] = a.dimIndex(d)
		if perm[i] < 0 {
			return nil, fmt.Errorf("cremviz: transposing %v to %v: dimension mismatch", a.Dims, dims)
		}
	}
	o := NewArray(dims, a.Coords)
	src := make([]int, len(dims))
	o.each(func(idx []int, i int) {
		for j, p := range perm {
			src[p] = idx[j]
		}
		o.Data[i] = a.Data[a.offset(src)]
	})
	o.Attrs = a.Attrs
	return o, nil
}

// reduce applies f to the values along dim for every combination of
// the other dimensions.
func (a *Array) reduce(dim string, f func([]float64) float64) (*Array, error) {
	di := a.dimIndex(dim)
	if di < 0 {
		return nil, fmt.Errorf("cremviz: reducing over %s: no such dimension in %v", dim, a.Dims)
	}
	o := NewArray(without(a.Dims, dim), a.Coords)
	groups := make([][]float64, len(o.Data))
	oidx := make([]int, len(o.Dims))
	a.each(func(idx []int, i int) {
		copy(oidx, idx[:di])
		copy(oidx[di:], idx[di+1:])
		j := o.offset(oidx)
		groups[j] = append(groups[j], a.Data[i])
	})
	for j, g := range groups {
		o.Data[j] = f(g)
	}
	o.Attrs = a.Attrs
	return o, nil
}

// finite returns the non-NaN values in v.
func finite(v []float64) []float64 {
	o := make([]float64, 0, len(v))
	for _, x := range v {
		if !math.IsNaN(x) {
			o = append(o, x)
		}
	}
	return o
}

// nanSum returns the sum of the non-NaN values in v, or NaN
// if there are none.
func nanSum(v []float64) float64 {
	f := finite(v)
	if len(f) == 0 {
		return math.NaN()
	}
	return floats.Sum(f)
}

// nanMean returns the mean of the non-NaN values in v, or NaN
// if there are none.
func nanMean(v []float64) float64 {
	f := finite(v)
	if len(f) == 0 {
		return math.NaN()
	}
	return stat.Mean(f, nil)
}

// Sum returns a summed over the given dimensions. Missing (NaN) values
// are skipped; an element with no present values is NaN.
func (a *Array) Sum(dims ...string) (*Array, error) {
	o := a
	for _, d := range dims {
		var err error
		o, err = o.reduce(d, nanSum)
		if err != nil {
			return nil, err
		}
	}
	if o == a {
		o = a.Clone()
	}
	return o, nil
}

// Mean returns the mean of a over dim, skipping missing (NaN) values.
func (a *Array) Mean(dim string) (*Array, error) {
	return a.reduce(dim, nanMean)
}

// Scale returns a copy of a multiplied by f.
func (a *Array) Scale(f float64) *Array {
	o := a.Clone()
	floats.Scale(f, o.Data)
	return o
}

// AddConst returns a copy of a with c added to every element.
func (a *Array) AddConst(c float64) *Array {
	o := a.Clone()
	floats.AddConst(c, o.Data)
	return o
}

// Apply returns a copy of a with f applied to every element.
func (a *Array) Apply(f func(float64) float64) *Array {
	o := a.Clone()
	for i, v := range o.Data {
		o.Data[i] = f(v)
	}
	return o
}

// MaskAbove returns a copy of a where values greater than or equal to
// threshold, and missing values, are replaced by fill.
func (a *Array) MaskAbove(threshold, fill float64) *Array {
	return a.Apply(func(v float64) float64 {
		if math.IsNaN(v) || v >= threshold {
			return fill
		}
		return v
	})
}

// intersect returns the labels in a that are also in b, in a's order.
func intersect(a []string, b map[string]int) []string {
	var o []string
	for _, l := range a {
		if _, ok := b[l]; ok {
			o = append(o, l)
		}
	}
	return o
}

// binary combines a and b element-wise after aligning them by label.
// The result has a's dimensions followed by any of b's dimensions that
// a lacks; dimensions missing from one operand are broadcast. Along
// shared dimensions only labels present in both operands are kept.
func (a *Array) binary(b *Array, name string, f func(x, y float64) float64) (*Array, error) {
	dims := append([]string{}, a.Dims...)
	coords := make(map[string][]string)
	for _, d := range a.Dims {
		if b.HasDim(d) {
			coords[d] = intersect(a.Coords[d], b.index[d])
			if len(coords[d]) == 0 {
				return nil, fmt.Errorf("cremviz: %s: no common labels along %s", name, d)
			}
		} else {
			coords[d] = a.Coords[d]
		}
	}
	for _, d := range b.Dims {
		if !a.HasDim(d) {
			dims = append(dims, d)
			coords[d] = b.Coords[d]
		}
	}
	o := NewArray(dims, coords)
	ai := make([]int, len(a.Dims))
	bi := make([]int, len(b.Dims))
	o.each(func(idx []int, i int) {
		for j, d := range a.Dims {
			ai[j] = a.index[d][o.Coords[d][idx[j]]]
		}
		for j, d := range b.Dims {
			k := o.dimIndex(d)
			bi[j] = b.index[d][o.Coords[d][idx[k]]]
		}
		o.Data[i] = f(a.Data[a.offset(ai)], b.Data[b.offset(bi)])
	})
	return o, nil
}

// Add returns a + b. See binary for alignment rules.
func (a *Array) Add(b *Array) (*Array, error) {
	return a.binary(b, "add", func(x, y float64) float64 { return x + y })
}

// Sub returns a - b.
func (a *Array) Sub(b *Array) (*Array, error) {
	return a.binary(b, "subtract", func(x, y float64) float64 { return x - y })
}

// Mul returns a * b.
func (a *Array) Mul(b *Array) (*Array, error) {
	return a.binary(b, "multiply", func(x, y float64) float64 { return x * y })
}

// Div returns a / b. Division by zero yields ±Inf or NaN.
func (a *Array) Div(b *Array) (*Array, error) {
	return a.binary(b, "divide", func(x, y float64) float64 { return x / y })
}

// Concat joins arrays along a new leading dimension dim, with one label
// per array. The arrays must have the same dimensions; their coordinates
// are joined (outer join) and missing values are NaN.
func Concat(dim string, labels []string, arrays []*Array) (*Array, error) {
	if len(labels) != len(arrays) {
		return nil, fmt.Errorf("cremviz: concatenating along %s: %d labels for %d arrays", dim, len(labels), len(arrays))
	}
	if len(arrays) == 0 {
		return nil, fmt.Errorf("cremviz: concatenating along %s: no arrays", dim)
	}
	first := arrays[0]
	coords := map[string][]string{dim: labels}
	for _, d := range first.Dims {
		var union []string
		seen := make(map[string]bool)
		for _, a := range arrays {
			if !a.HasDim(d) || len(a.Dims) != len(first.Dims) {
				return nil, fmt.Errorf("cremviz: concatenating along %s: dimensions %v and %v differ",
					dim, first.Dims, a.Dims)
			}
			for _, l := range a.Coords[d] {
				if !seen[l] {
					seen[l] = true
					union = append(union, l)
				}
			}
		}
		coords[d] = union
	}
	o := NewArray(append([]string{dim}, first.Dims...), coords)
	n := len(o.Data) / len(arrays)
	for i, a := range arrays {
		aa, err := a.Transpose(first.Dims...)
		if err != nil {
			return nil, err
		}
		for _, d := range first.Dims {
			aa = aa.Reindex(d, coords[d])
		}
		copy(o.Data[i*n:(i+1)*n], aa.Data)
	}
	o.Attrs = first.Attrs
	return o, nil
}

// Index returns the position of label along dim.
func (a *Array) Index(dim, label string) (int, bool) {
	m, ok := a.index[dim]
	if !ok {
		return 0, false
	}
	i, ok := m[label]
	return i, ok
}

// Drop returns a copy of a without the given labels along dim.
func (a *Array) Drop(dim string, labels ...string) *Array {
	drop := make(map[string]bool, len(labels))
	for _, l := range labels {
		drop[l] = true
	}
	var keep []string
	for _, l := range a.Coords[dim] {
		if !drop[l] {
			keep = append(keep, l)
		}
	}
	return a.Reindex(dim, keep)
}

// FillNaN returns a copy of a with missing values replaced by v.
func (a *Array) FillNaN(v float64) *Array {
	return a.Apply(func(x float64) float64 {
		if math.IsNaN(x) {
			return v
		}
		return x
	})
}

// SetSel sets the slice of a at label along dim to the values of v,
// which must have the remaining dimensions of a. Values are matched by
// label; elements of the slice that v lacks are set to NaN.
func (a *Array) SetSel(dim, label string, v *Array) error {
	di := a.dimIndex(dim)
	if di < 0 {
		return fmt.Errorf("cremviz: setting %s=%s: no such dimension in %v", dim, label, a.Dims)
	}
	li, ok := a.index[dim][label]
	if !ok {
		return fmt.Errorf("cremviz: setting %s=%s: no such label", dim, label)
	}
	rest := without(a.Dims, dim)
	if len(v.Dims) != len(rest) {
		return fmt.Errorf("cremviz: setting %s=%s: dimensions %v do not match %v", dim, label, v.Dims, rest)
	}
	for _, d := range rest {
		if !v.HasDim(d) {
			return fmt.Errorf("cremviz: setting %s=%s: dimensions %v do not match %v", dim, label, v.Dims, rest)
		}
	}
	vi := make([]int, len(v.Dims))
	a.each(func(idx []int, i int) {
		if idx[di] != li {
			return
		}
		for j, d := range v.Dims {
			k, ok := v.index[d][a.Coords[d][idx[a.dimIndex(d)]]]
			if !ok {
				a.Data[i] = math.NaN()
				return
			}
			vi[j] = k
		}
		a.Data[i] = v.Data[v.offset(vi)]
	})
	return nil
}
