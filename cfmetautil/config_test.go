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

package cfmetautil

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ctessum/geom"
	"github.com/spatialmodel/cfmeta/catalog"
)

func TestParseBBox(t *testing.T) {
	for _, test := range []struct {
		name string
		in   interface{}
		want *geom.Bounds
		err  bool
	}{
		{
			name: "slice",
			in:   []string{"-1", "-2", "3", "4"},
			want: &geom.Bounds{Min: geom.Point{X: -1, Y: -2}, Max: geom.Point{X: 3, Y: 4}},
		},
		{
			name: "string",
			in:   "-1, -2, 3, 4",
			want: &geom.Bounds{Min: geom.Point{X: -1, Y: -2}, Max: geom.Point{X: 3, Y: 4}},
		},
		{name: "empty", in: []string{}},
		{name: "empty string", in: ""},
		{name: "short", in: []string{"1", "2", "3"}, err: true},
		{name: "inverted", in: "3,4,-1,-2", err: true},
		{name: "not a number", in: "a,b,c,d", err: true},
	} {
		t.Run(test.name, func(t *testing.T) {
			b, err := parseBBox(test.in)
			if (err != nil) != test.err {
				t.Fatalf("error: %v", err)
			}
			if !reflect.DeepEqual(b, test.want) {
				t.Errorf("have %v, want %v", b, test.want)
			}
		})
	}
}

func TestParseRegion(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	p, err := parseRegion(write("multi.geojson", `{"type":"MultiPolygon","coordinates":[`+
		`[[[0,0],[1,0],[1,1],[0,0]]],[[[5,5],[6,5],[6,6],[5,5]]]]}`))
	if err != nil {
		t.Fatal(err)
	}
	want := &geom.Bounds{Min: geom.Point{X: 0, Y: 0}, Max: geom.Point{X: 6, Y: 6}}
	if b := p.Bounds(); !reflect.DeepEqual(b, want) {
		t.Errorf("bounds: have %v, want %v", b, want)
	}

	if _, err := parseRegion(write("bad_multi.geojson", `{"type":"MultiPolygon","coordinates":[[[0,0]]]}`)); err == nil {
		t.Error("expected an error for an invalid MultiPolygon")
	}
	if _, err := parseRegion(write("point.geojson", `{"type":"Point","coordinates":[1,2]}`)); err == nil {
		t.Error("expected an error for a point")
	}
	if _, err := parseRegion(filepath.Join(dir, "missing.geojson")); err == nil {
		t.Error("expected an error for a missing file")
	}
	if p, err := parseRegion(""); err != nil || p != nil {
		t.Errorf("empty region: have %v, %v", p, err)
	}
}

func TestSearchBoundsConflict(t *testing.T) {
	resetConfig(t)
	defer resetConfig(t)
	region := filepath.Join(t.TempDir(), "region.geojson")
	if err := os.WriteFile(region, []byte(`{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}`), 0644); err != nil {
		t.Fatal(err)
	}
	Cfg.Set("Region", region)
	Cfg.Set("BBox", "0,0,1,1")
	if _, err := searchBounds(Cfg); err == nil {
		t.Error("expected an error when both BBox and Region are set")
	}
}

func TestLoadCatalogCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	c, err := loadCatalog(path, true)
	if err != nil {
		t.Fatal(err)
	}
	c.Add(&catalog.Record{Source: "a.nc", Extent: []float64{0, 0, 1, 1}})
	if err := saveCatalog(path, c); err != nil {
		t.Fatal(err)
	}
	c2, err := loadCatalog(path, false)
	if err != nil {
		t.Fatal(err)
	}
	if c2.Len() != 1 {
		t.Errorf("have %d records, want 1", c2.Len())
	}
	if _, err := loadCatalog("", true); err == nil {
		t.Error("expected an error for an empty path")
	}
}

func TestExpandStringSlice(t *testing.T) {
	t.Setenv("CFMETA_TEST_DIR", "/data")
	have := expandStringSlice([]string{"$CFMETA_TEST_DIR/a.nc", "b.nc"})
	if want := []string{"/data/a.nc", "b.nc"}; !reflect.DeepEqual(have, want) {
		t.Errorf("have %v, want %v", have, want)
	}
}

func TestDecodeRegionMultiPolygon(t *testing.T) {
	g, err := decodeRegion([]byte(`{"type":"MultiPolygon","coordinates":[` +
		`[[[0,0],[1,0],[1,1],[0,0]]],[[[5,5],[6,5],[6,6],[5,5]]]]}`))
	if err != nil {
		t.Fatal(err)
	}
	mp, ok := g.(geom.MultiPolygon)
	if !ok {
		t.Fatalf("have %T, want geom.MultiPolygon", g)
	}
	if len(mp) != 2 {
		t.Fatalf("have %d polygons, want 2", len(mp))
	}
	if have, want := mp[1][0][2], (geom.Point{X: 6, Y: 6}); have != want {
		t.Errorf("have %v, want %v", have, want)
	}
}
