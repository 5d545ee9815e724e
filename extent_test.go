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
	"fmt"
	"math"
	"reflect"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestSpatialExtent(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name   string
		vars   map[string][]float64
		legacy bool
		want   []float64
		level  logrus.Level
	}{
		{
			name: "lonlat",
			vars: map[string][]float64{"lon": {0, 10, nan}, "lat": {-5, 5, 10}},
			want: []float64{0, -5, 10, 10},
		},
		{
			name: "xy",
			vars: map[string][]float64{"x": {-74, -73.5}, "y": {40, 41}},
			want: []float64{-74, 40, -73.5, 41},
		},
		{
			name: "priority",
			vars: map[string][]float64{
				"lon_u": {100, 101}, "lat_u": {1, 2},
				"lon": {-1, 1}, "lat": {-2, 2},
			},
			want: []float64{-1, -2, 1, 2},
		},
		{
			name: "staggered v",
			vars: map[string][]float64{"lon_v": {3, 4}, "lat_v": {5, 6}},
			want: []float64{3, 5, 4, 6},
		},
		{
			name:  "no coordinates",
			vars:  map[string][]float64{"temp": {1, 2}},
			level: logrus.InfoLevel,
		},
		{
			name:  "lon only",
			vars:  map[string][]float64{"lon": {0, 1}},
			level: logrus.InfoLevel,
		},
		{
			name:   "lon only legacy",
			vars:   map[string][]float64{"lon": {0, 1}},
			legacy: true,
			level:  logrus.ErrorLevel,
		},
		{
			name:  "all nan",
			vars:  map[string][]float64{"lon": {nan}, "lat": {nan}},
			level: logrus.ErrorLevel,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := NewMemDataset(nil)
			for _, name := range []string{"temp", "lon_u", "lat_u", "lon_v", "lat_v", "x", "y", "lon", "lat"} {
				if data, ok := tt.vars[name]; ok {
					ds.AddVariable(name, data, nil)
				}
			}
			log, hook := test.NewNullLogger()
			r := &Resolver{Log: log, LegacyCoordinateProbe: tt.legacy}
			have := r.SpatialExtent(ds, tt.name)
			if !reflect.DeepEqual(have, tt.want) {
				t.Errorf("have %v, want %v", have, tt.want)
			}
			if tt.want != nil {
				return
			}
			e := hook.LastEntry()
			if e == nil {
				t.Fatal("no log entry")
			}
			if e.Level != tt.level {
				t.Errorf("log level: have %v, want %v", e.Level, tt.level)
			}
			if e.Data["dataset"] != tt.name {
				t.Errorf("log entry has no dataset label: %v", e.Data)
			}
		})
	}
}

func TestSpatialExtentReadError(t *testing.T) {
	ds := NewMemDataset(nil)
	ds.AddVariable("lon", []float64{1, 2}, nil)
	ds.AddVariable("lat", nil, nil).Err = fmt.Errorf("corrupt")
	log, hook := test.NewNullLogger()
	r := &Resolver{Log: log}
	if have := r.SpatialExtent(ds, "bad"); have != nil {
		t.Errorf("have %v, want nil", have)
	}
	e := hook.LastEntry()
	if e == nil || e.Level != logrus.ErrorLevel {
		t.Fatalf("want an error log entry, have %v", e)
	}
	if _, ok := e.Data["stack"]; !ok {
		t.Error("error log entry has no stack")
	}
}

// panicVariable panics when its values are read.
type panicVariable struct{ *MemVariable }

func (panicVariable) Values() ([]float64, error) { panic("backend failure") }

type panicDataset struct{ *MemDataset }

func (d panicDataset) Variable(name string) (Variable, bool) {
	v, ok := d.MemDataset.vars[name]
	if !ok {
		return nil, false
	}
	return panicVariable{v}, true
}

func TestSpatialExtentPanic(t *testing.T) {
	ds := NewMemDataset(nil)
	ds.AddVariable("x", []float64{1}, nil)
	ds.AddVariable("y", []float64{1}, nil)
	log, hook := test.NewNullLogger()
	r := &Resolver{Log: log}
	if have := r.SpatialExtent(panicDataset{ds}, "panic"); have != nil {
		t.Errorf("have %v, want nil", have)
	}
	e := hook.LastEntry()
	if e == nil || e.Level != logrus.ErrorLevel {
		t.Fatalf("want an error log entry, have %v", e)
	}
	if e.Data["panic"] != "backend failure" {
		t.Errorf("panic value not logged: %v", e.Data)
	}
}

func TestTemporalExtent(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name  string
		data  []float64
		attrs map[string]interface{}
		want  []string
	}{
		{
			name: "ordered",
			data: []float64{0, 1, 2},
			attrs: map[string]interface{}{
				"standard_name": "time",
				"units":         "days since 2014-01-01",
			},
			want: []string{"2014-01-01T00:00:00", "2014-01-03T00:00:00"},
		},
		{
			name: "first fails",
			data: []float64{nan, 6, 12, 18},
			attrs: map[string]interface{}{
				"standard_name": "time",
				"units":         "hours since 2014-08-01 00:00:00",
			},
			want: []string{"2014-08-01T06:00:00", "2014-08-01T18:00:00"},
		},
		{
			name: "unordered",
			data: []float64{10, 0, 5},
			attrs: map[string]interface{}{
				"standard_name": "time",
				"units":         "days since 2000-01-01",
			},
			want: []string{"2000-01-11T00:00:00", "2000-01-06T00:00:00"},
		},
		{
			name: "uppercase calendar",
			data: []float64{365},
			attrs: map[string]interface{}{
				"standard_name": "time",
				"units":         "days since 2001-01-01",
				"calendar":      "NOLEAP",
			},
			want: []string{"2002-01-01T00:00:00", "2002-01-01T00:00:00"},
		},
		{
			name: "360 day",
			data: []float64{0, 59},
			attrs: map[string]interface{}{
				"standard_name": "time",
				"units":         "days since 2000-01-01",
				"calendar":      "360_day",
			},
			want: []string{"2000-01-01T00:00:00", "2000-02-30T00:00:00"},
		},
		{
			name:  "no units",
			data:  []float64{0, 1},
			attrs: map[string]interface{}{"standard_name": "time"},
		},
		{
			name: "all fail",
			data: []float64{nan, nan},
			attrs: map[string]interface{}{
				"standard_name": "time",
				"units":         "days since 2000-01-01",
			},
		},
		{
			name: "not time",
			data: []float64{0, 1},
			attrs: map[string]interface{}{
				"standard_name": "time",
				"cell_methods":  "time: mean",
				"units":         "days since 2000-01-01",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := NewMemDataset(nil)
			ds.AddVariable("ocean_time", tt.data, tt.attrs)
			log, _ := test.NewNullLogger()
			r := &Resolver{Log: log}
			dates := r.TemporalExtent(ds, "")
			var have []string
			for _, d := range dates {
				have = append(have, d.String())
			}
			if !reflect.DeepEqual(have, tt.want) {
				t.Errorf("have %v, want %v", have, tt.want)
			}
		})
	}
}

func TestTemporalExtentCompositeName(t *testing.T) {
	ds := NewMemDataset(nil)
	ds.AddVariable("time_avg", []float64{0, 1}, map[string]interface{}{
		"standard_name": "time",
		"cell_methods":  "time: mean",
		"units":         "days since 2000-01-01",
	})
	log, _ := test.NewNullLogger()
	r := &Resolver{Log: log}
	dates := r.TemporalExtent(ds, "time_mean_time")
	if len(dates) != 2 || dates[1].String() != "2000-01-02T00:00:00" {
		t.Errorf("have %v", dates)
	}
}
