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
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
)

func layerDataset(standardNames ...string) *MemDataset {
	ds := NewMemDataset(map[string]interface{}{"id": "test", "model": "ROMS"})
	for i, sn := range standardNames {
		ds.AddVariable(string(rune('a'+i)), []float64{0}, map[string]interface{}{"standard_name": sn})
	}
	return ds
}

func TestLayers(t *testing.T) {
	tests := []struct {
		name string
		ds   *MemDataset
		want map[string]string
	}{
		{
			name: "currents",
			ds:   layerDataset("eastward_sea_water_velocity", "northward_sea_water_velocity", "sea_water_salinity"),
			want: map[string]string{
				"u,v":      "vectors_average_jet_0_2_grid_40",
				"salinity": "pcolor_average_jet_32_37_grid_False",
			},
		},
		{
			name: "single component",
			ds:   layerDataset("eastward_sea_water_velocity"),
			want: map[string]string{"u": "pcolor_average_jet_0_2_grid_False"},
		},
		{
			name: "all vectors",
			ds: layerDataset(
				"eastward_sea_water_velocity", "northward_sea_water_velocity",
				"eastward_wind", "northward_wind",
				"barotropic_eastward_sea_water_velocity", "barotropic_northward_sea_water_velocity",
			),
			want: map[string]string{
				"u,v":                     "vectors_average_jet_0_2_grid_40",
				"uwind,vwind":             "vectors_average_jet_0_80_grid_40",
				"ubarotropic,vbarotropic": "vectors_average_jet_0_2_grid_40",
			},
		},
		{
			name: "hidden",
			ds:   layerDataset("time", "latitude", "longitude", "sea_surface_wave_significant_height"),
			want: map[string]string{"hs": "pcolor_average_jet_0_12_grid_False"},
		},
		{
			name: "unknown",
			ds:   layerDataset("sea_floor_depth_below_geoid"),
			want: map[string]string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, _ := test.NewNullLogger()
			r := &Resolver{Log: log}
			have := r.Layers(tt.ds)
			if !reflect.DeepEqual(have, tt.want) {
				t.Errorf("have %v, want %v", have, tt.want)
			}
		})
	}
}

func TestLayersCellMethods(t *testing.T) {
	ds := NewMemDataset(nil)
	ds.AddVariable("temp_a", []float64{1}, map[string]interface{}{
		"standard_name": "sea_water_temperature",
		"cell_methods":  "time: mean",
	})
	ds.AddVariable("temp_b", []float64{1}, map[string]interface{}{
		"standard_name": "sea_water_temperature",
	})
	vocab := DefaultVocabulary()
	vocab["sst_mean"] = VocabularyEntry{StandardName: "time_mean_sea_water_temperature", ScaleMin: "10", ScaleMax: "30"}
	log, _ := test.NewNullLogger()
	r := &Resolver{Vocabulary: vocab, Log: log}
	want := map[string]string{
		"sst":      "pcolor_average_jet_0_40_grid_False",
		"sst_mean": "pcolor_average_jet_10_30_grid_False",
	}
	if have := r.Layers(ds); !reflect.DeepEqual(have, want) {
		t.Errorf("have %v, want %v", have, want)
	}
}

func TestLayersDuplicateStandardNames(t *testing.T) {
	vocab := Vocabulary{
		"sst":         {StandardName: "sea_water_temperature", ScaleMin: "0", ScaleMax: "40"},
		"temperature": {StandardName: "sea_water_temperature", ScaleMin: "-2", ScaleMax: "35"},
	}
	log, _ := test.NewNullLogger()
	r := &Resolver{Vocabulary: vocab, Log: log}
	want := map[string]string{
		"sst":         "pcolor_average_jet_0_40_grid_False",
		"temperature": "pcolor_average_jet_-2_35_grid_False",
	}
	if have := r.Layers(layerDataset("sea_water_temperature")); !reflect.DeepEqual(have, want) {
		t.Errorf("have %v, want %v", have, want)
	}
}

func TestLayersIdempotent(t *testing.T) {
	ds := layerDataset("eastward_wind", "northward_wind", "time", "sea_water_salinity")
	vocab := DefaultVocabulary()
	log, hook := test.NewNullLogger()
	r := &Resolver{Vocabulary: vocab, Log: log}
	first := r.Layers(ds)
	second := r.Layers(ds)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("%v != %v", first, second)
	}
	if !reflect.DeepEqual(vocab, DefaultVocabulary()) {
		t.Error("vocabulary was modified")
	}
	if len(hook.Entries) == 0 {
		t.Error("no layers were logged")
	}
}

func TestLayersCustomRules(t *testing.T) {
	vocab := Vocabulary{
		"time": {StandardName: "time"},
		"ux":   {StandardName: "x_wind", ScaleMin: "0", ScaleMax: "30"},
		"vy":   {StandardName: "y_wind", ScaleMin: "0", ScaleMax: "30"},
	}
	log, _ := test.NewNullLogger()
	r := &Resolver{
		Vocabulary:  vocab,
		VectorPairs: []VectorPair{{A: "ux", B: "vy", Style: VectorStyle("0", "30")}},
		Hidden:      []string{},
		Log:         log,
	}
	want := map[string]string{
		"ux,vy": "vectors_average_jet_0_30_grid_40",
	}
	if have := r.Layers(layerDataset("x_wind", "y_wind", "time")); !reflect.DeepEqual(have, want) {
		t.Errorf("have %v, want %v", have, want)
	}
}

func TestLayersAlwaysHidden(t *testing.T) {
	const text = `
hidden = []

[layers.time]
standard_name = "time"

[layers.latitude]
standard_name = "latitude"

[layers.longitude]
standard_name = "longitude"

[layers.sst]
standard_name = "sea_water_temperature"
scale_min = "0"
scale_max = "40"
`
	f, err := ReadVocabulary(strings.NewReader(text))
	if err != nil {
		t.Fatal(err)
	}
	log, _ := test.NewNullLogger()
	ds := layerDataset("time", "latitude", "longitude", "sea_water_temperature")
	want := map[string]string{"sst": "pcolor_average_jet_0_40_grid_False"}

	fileResolver := f.Resolver()
	fileResolver.Log = log
	for name, r := range map[string]*Resolver{
		"file":       fileResolver,
		"empty":      {Hidden: []string{}, Log: log},
		"extra":      {Hidden: []string{"salinity"}, Log: log},
		"vocabulary": {Vocabulary: f.Layers, Hidden: []string{}, Log: log},
		"zero value": {Log: log},
	} {
		t.Run(name, func(t *testing.T) {
			have := r.Layers(ds)
			for _, h := range HiddenLayers() {
				if _, ok := have[h]; ok {
					t.Errorf("layer %q was returned", h)
				}
			}
			if !reflect.DeepEqual(have, want) {
				t.Errorf("have %v, want %v", have, want)
			}
		})
	}
}

func TestLayersExtraHidden(t *testing.T) {
	log, _ := test.NewNullLogger()
	r := &Resolver{Hidden: []string{"salinity"}, Log: log}
	have := r.Layers(layerDataset("sea_water_salinity", "sea_water_temperature", "time"))
	want := map[string]string{"sst": "pcolor_average_jet_0_40_grid_False"}
	if !reflect.DeepEqual(have, want) {
		t.Errorf("have %v, want %v", have, want)
	}
}

func TestDescribe(t *testing.T) {
	ds := NewMemDataset(map[string]interface{}{"id": "nyhops", "model": "ECOM", "title": "NYHOPS forecast"})
	ds.AddVariable("lon", []float64{-74, -73}, map[string]interface{}{"standard_name": "longitude"})
	ds.AddVariable("lat", []float64{40, 41}, map[string]interface{}{"standard_name": "latitude"})
	ds.AddVariable("time", []float64{0, 24}, map[string]interface{}{
		"standard_name": "time",
		"units":         "hours since 2014-01-01",
	})
	ds.AddVariable("elev", []float64{0, 1}, map[string]interface{}{"standard_name": "sea_surface_height_above_geoid"})
	log, _ := test.NewNullLogger()
	r := &Resolver{Log: log}
	m := r.Describe(ds, "nyhops.nc")
	if m.Label != "nyhops.nc" || m.ID != "nyhops" || m.Model != "ECOM" || m.Title != "NYHOPS forecast" {
		t.Errorf("global attributes: %+v", m)
	}
	if want := []float64{-74, 40, -73, 41}; !reflect.DeepEqual(m.SpatialExtent, want) {
		t.Errorf("spatial extent: have %v, want %v", m.SpatialExtent, want)
	}
	if len(m.TemporalExtent) != 2 || m.TemporalExtent[1].String() != "2014-01-02T00:00:00" {
		t.Errorf("temporal extent: %v", m.TemporalExtent)
	}
	if want := map[string]string{"ssh_geoid": "pcolor_average_jet_0_7.0_grid_False"}; !reflect.DeepEqual(m.Layers, want) {
		t.Errorf("layers: have %v, want %v", m.Layers, want)
	}
}
