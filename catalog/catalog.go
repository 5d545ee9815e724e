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

package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/geojson"
	"github.com/ctessum/geom/index/rtree"
)

// Catalog holds records and indexes them by spatial extent.
// It is safe for concurrent use.
type Catalog struct {
	mu       sync.RWMutex
	records  []*Record
	bySource map[string]int
	index    *rtree.Rtree
}

// indexed is a record extent stored in the spatial index.
type indexed struct {
	geom.Polygon
	r *Record
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{
		bySource: make(map[string]int),
		index:    rtree.NewTree(25, 50),
	}
}

// Add adds records to c. A record replaces any existing record with the
// same source.
func (c *Catalog) Add(records ...*Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var replaced bool
	for _, r := range records {
		if i, ok := c.bySource[r.Source]; ok {
			c.records[i] = r
			replaced = true
			continue
		}
		c.bySource[r.Source] = len(c.records)
		c.records = append(c.records, r)
		if !replaced {
			c.insert(r)
		}
	}
	if replaced {
		c.reindex()
	}
}

func (c *Catalog) insert(r *Record) {
	if p := r.Polygon(); p != nil {
		c.index.Insert(&indexed{Polygon: p, r: r})
	}
}

// reindex rebuilds the spatial index.
func (c *Catalog) reindex() {
	c.index = rtree.NewTree(25, 50)
	for _, r := range c.records {
		c.insert(r)
	}
}

// Len returns the number of records in c.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// Records returns all records in the order they were added.
func (c *Catalog) Records() []*Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*Record(nil), c.records...)
}

// Search returns the records whose extent intersects b, sorted by
// source. Records without an extent are never returned.
func (c *Catalog) Search(b *geom.Bounds) []*Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []*Record
	for _, s := range c.index.SearchIntersect(b) {
		out = append(out, s.(*indexed).r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out
}

// WithLayer returns the records that provide the named layer, in the
// order they were added.
func (c *Catalog) WithLayer(name string) []*Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []*Record
	for _, r := range c.records {
		if r.HasLayer(name) {
			out = append(out, r)
		}
	}
	return out
}

func splitKey(key string) []string {
	return strings.Split(key, ",")
}

// WriteJSON writes the records in c to w.
func (c *Catalog) WriteJSON(w io.Writer) error {
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	if err := e.Encode(c.Records()); err != nil {
		return fmt.Errorf("catalog: writing JSON: %v", err)
	}
	return nil
}

// ReadJSON reads a catalog written by WriteJSON.
func ReadJSON(r io.Reader) (*Catalog, error) {
	var records []*Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("catalog: reading JSON: %v", err)
	}
	c := New()
	c.Add(records...)
	return c, nil
}

type feature struct {
	Type       string            `json:"type"`
	Geometry   *geojson.Geometry `json:"geometry"`
	Properties *Record           `json:"properties"`
}

type featureCollection struct {
	Type     string     `json:"type"`
	Features []*feature `json:"features"`
}

// WriteGeoJSON writes the extents of the records in c to w as a GeoJSON
// FeatureCollection. Records without an extent are omitted.
func (c *Catalog) WriteGeoJSON(w io.Writer) error {
	fc := &featureCollection{Type: "FeatureCollection", Features: []*feature{}}
	for _, r := range c.Records() {
		p := r.Polygon()
		if p == nil {
			continue
		}
		g, err := geojson.ToGeoJSON(p)
		if err != nil {
			return fmt.Errorf("catalog: encoding extent of %s: %v", r.Source, err)
		}
		fc.Features = append(fc.Features, &feature{Type: "Feature", Geometry: g, Properties: r})
	}
	if err := json.NewEncoder(w).Encode(fc); err != nil {
		return fmt.Errorf("catalog: writing GeoJSON: %v", err)
	}
	return nil
}
