/*
Copyright © 2019 the InMAP authors.
This file is part of cfmeta.

cfmeta is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

cfmeta is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with cfmeta.  If not, see <http://www.gnu.org/licenses/>.
*/

package cfmeta

import (
	"reflect"
	"testing"
)

func testDataset() *MemDataset {
	ds := NewMemDataset(map[string]interface{}{
		"id":    "nyhops",
		"model": []byte("ECOM"),
		"cells": []int32{42},
	})
	ds.AddVariable("temp_a", []float64{10, 11}, map[string]interface{}{
		"standard_name": "sea_water_temperature",
		"cell_methods":  "time: mean",
	})
	ds.AddVariable("temp_b", []float64{12, 13}, map[string]interface{}{
		"standard_name": "sea_water_temperature",
	})
	ds.AddVariable("mask", []float64{1, 0}, nil)
	ds.AddVariable("code", []float64{1, 0}, map[string]interface{}{
		"standard_name": []float32{1},
	})
	return ds
}

func TestCompositeStandardName(t *testing.T) {
	ds := testDataset()
	tests := []struct {
		variable string
		want     string
		ok       bool
	}{
		{"temp_a", "time_mean_sea_water_temperature", true},
		{"temp_b", "sea_water_temperature", true},
		{"mask", "", false},
		{"code", "", false},
	}
	for _, test := range tests {
		t.Run(test.variable, func(t *testing.T) {
			v, _ := ds.Variable(test.variable)
			have, ok := CompositeStandardName(v)
			if have != test.want || ok != test.ok {
				t.Errorf("have (%q, %v), want (%q, %v)", have, ok, test.want, test.ok)
			}
		})
	}
}

func TestNormalizeCellMethods(t *testing.T) {
	tests := map[string]string{
		"time: mean":                    "time_mean",
		"time:  maximum":                "time_maximum",
		"area: mean time: mean":         "area_meantime_mean",
		"time: mean (interval: 1 hour)": "time_mean(interval_1hour)",
		" depth:mean":                   "depth:mean",
	}
	for in, want := range tests {
		if have := normalizeCellMethods(in); have != want {
			t.Errorf("%q: have %q, want %q", in, have, want)
		}
	}
}

func TestFindByStandardName(t *testing.T) {
	ds := testDataset()
	v, ok := FindByStandardName(ds, "time_mean_sea_water_temperature")
	if !ok || v.Name() != "temp_a" {
		t.Errorf("composite lookup: have %v, %v", v, ok)
	}
	v, ok = FindByStandardName(ds, "sea_water_temperature")
	if !ok || v.Name() != "temp_b" {
		t.Errorf("plain lookup: have %v, %v", v, ok)
	}
	if _, ok = FindByStandardName(ds, "sea_water_salinity"); ok {
		t.Error("found a variable that doesn't exist")
	}
}

func TestNameFromStandardName(t *testing.T) {
	ds := testDataset()
	name, ok := NameFromStandardName(ds, "sea_water_temperature")
	if !ok || name != "temp_a" {
		t.Errorf("have %q, %v; want temp_a", name, ok)
	}
	if _, ok := NameFromStandardName(ds, "time_mean_sea_water_temperature"); ok {
		t.Error("raw lookup should ignore cell_methods")
	}
}

func TestGlobalAttribute(t *testing.T) {
	ds := testDataset()
	if v, ok := GlobalAttribute(ds, "id"); !ok || v != "nyhops" {
		t.Errorf("id: have %v, %v", v, ok)
	}
	if v, ok := GlobalAttribute(ds, "missing"); ok || v != nil {
		t.Errorf("missing: have %v, %v", v, ok)
	}
	if _, ok := GlobalAttribute(nil, "id"); ok {
		t.Error("nil dataset should have no attributes")
	}
	for name, want := range map[string]string{
		"id":      "nyhops",
		"model":   "ECOM",
		"cells":   "42",
		"missing": "",
	} {
		if have := GlobalString(ds, name); have != want {
			t.Errorf("%s: have %q, want %q", name, have, want)
		}
	}
}

func TestStyles(t *testing.T) {
	if have, want := ScalarStyle("0", "40"), "pcolor_average_jet_0_40_grid_False"; have != want {
		t.Errorf("have %s, want %s", have, want)
	}
	if have, want := VectorStyle("0", "2"), "vectors_average_jet_0_2_grid_40"; have != want {
		t.Errorf("have %s, want %s", have, want)
	}
}

func TestMemDatasetOrder(t *testing.T) {
	ds := testDataset()
	ds.AddVariable("temp_a", []float64{1}, nil)
	want := []string{"temp_a", "temp_b", "mask", "code"}
	if have := ds.VariableNames(); !reflect.DeepEqual(have, want) {
		t.Errorf("have %v, want %v", have, want)
	}
}
