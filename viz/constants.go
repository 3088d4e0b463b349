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

package viz

// Scenarios are the policy scenarios shown in the national charts,
// in drawing order.
var Scenarios = []string{"bau", "three", "four", "five"}

// ScenarioCases maps each scenario to the model case it shows.
var ScenarioCases = map[string]string{
	"bau":   "bau",
	"three": "3",
	"four":  "4",
	"five":  "5",
}

// ScenarioNames are the labels drawn next to each scenario's line.
var ScenarioNames = map[string]string{
	"bau":   "BAU",
	"three": "3%",
	"four":  "4%",
	"five":  "5%",
}

// ScenarioColors are the line colors of each scenario.
var ScenarioColors = map[string]Color{
	"bau":   "#1B1B1B",
	"three": "#0D47A1",
	"four":  "#E65100",
	"five":  "#1B5E20",
}

const (
	// Grey is used for grid bands and tick labels.
	Grey Color = "#9E9E9E"

	// DeepOrange outlines selected provinces.
	DeepOrange Color = "#FF5722"
)

// highlighted is the scenario that is drawn opaque.
const highlighted = "four"

// Province is a province-level region of the model.
type Province struct {
	// Code is the two letter code used in the model and the output
	// directory names.
	Code string

	// Name is the English name.
	Name string

	// Region is the geographic region the province is part of.
	Region string
}

// Provinces are the 30 provinces of the model in output order.
var Provinces = []Province{
	{"AH", "Anhui", "East"},
	{"BJ", "Beijing", "North"},
	{"CQ", "Chongqing", "Southwest"},
	{"FJ", "Fujian", "East"},
	{"GD", "Guangdong", "South"},
	{"GS", "Gansu", "Northwest"},
	{"GX", "Guangxi", "South"},
	{"GZ", "Guizhou", "Southwest"},
	{"HA", "Henan", "Central"},
	{"HB", "Hubei", "Central"},
	{"HE", "Hebei", "North"},
	{"HI", "Hainan", "South"},
	{"HL", "Heilongjiang", "Northeast"},
	{"HN", "Hunan", "Central"},
	{"JL", "Jilin", "Northeast"},
	{"JS", "Jiangsu", "East"},
	{"JX", "Jiangxi", "East"},
	{"LN", "Liaoning", "Northeast"},
	{"NM", "Inner Mongolia", "North"},
	{"NX", "Ningxia", "Northwest"},
	{"QH", "Qinghai", "Northwest"},
	{"SC", "Sichuan", "Southwest"},
	{"SD", "Shandong", "East"},
	{"SH", "Shanghai", "East"},
	{"SN", "Shaanxi", "Northwest"},
	{"SX", "Shanxi", "North"},
	{"TJ", "Tianjin", "North"},
	{"XJ", "Xinjiang", "Northwest"},
	{"YN", "Yunnan", "Southwest"},
	{"ZJ", "Zhejiang", "East"},
}

// Tibet has no model data and is drawn blank on the maps.
var Tibet = Province{"XZ", "Tibet", "Southwest"}

// ProvinceCodes returns the codes of Provinces.
func ProvinceCodes() []string {
	o := make([]string, len(Provinces))
	for i, p := range Provinces {
		o[i] = p.Code
	}
	return o
}
