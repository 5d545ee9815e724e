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

// Package catalog harvests metadata from collections of NetCDF datasets
// and indexes it for spatial and layer queries.
package catalog

import (
	"time"

	"github.com/ctessum/geom"
	"github.com/spatialmodel/cfmeta"
)

// Record is the harvested metadata for one dataset.
type Record struct {
	// ID is a stable key derived from Source.
	ID string `json:"id"`

	// Source is the location the dataset was read from.
	Source string `json:"source"`

	// Identifier, Title and Model are the dataset's id, title and model
	// global attributes.
	Identifier string `json:"identifier,omitempty"`
	Title      string `json:"title,omitempty"`
	Model      string `json:"model,omitempty"`

	// Extent is [minLon, minLat, maxLon, maxLat], or nil.
	Extent []float64 `json:"extent,omitempty"`

	// TimeExtent holds the first and last times in ISO 8601 format, in
	// the calendar given by Calendar.
	TimeExtent []string `json:"time_extent,omitempty"`
	Calendar   string   `json:"calendar,omitempty"`

	Layers map[string]string `json:"layers"`

	// Vocabulary identifies the vocabulary and rules the record was
	// derived with.
	Vocabulary string `json:"vocabulary"`

	Harvested time.Time `json:"harvested"`
}

// NewRecord creates a record from metadata derived from source.
func NewRecord(source string, m *cfmeta.Metadata, vocabulary string) *Record {
	r := &Record{
		ID:         sourceID(source),
		Source:     source,
		Identifier: m.ID,
		Title:      m.Title,
		Model:      m.Model,
		Extent:     m.SpatialExtent,
		Layers:     m.Layers,
		Vocabulary: vocabulary,
		Harvested:  time.Now().UTC(),
	}
	for _, d := range m.TemporalExtent {
		r.TimeExtent = append(r.TimeExtent, d.String())
		r.Calendar = d.Calendar.String()
	}
	if r.Layers == nil {
		r.Layers = make(map[string]string)
	}
	return r
}

// Bounds returns the spatial extent of r, or nil if it is unknown.
func (r *Record) Bounds() *geom.Bounds {
	if len(r.Extent) != 4 {
		return nil
	}
	return &geom.Bounds{
		Min: geom.Point{X: r.Extent[0], Y: r.Extent[1]},
		Max: geom.Point{X: r.Extent[2], Y: r.Extent[3]},
	}
}

// Polygon returns the spatial extent of r as a polygon, or nil if it is
// unknown.
func (r *Record) Polygon() geom.Polygon {
	b := r.Bounds()
	if b == nil {
		return nil
	}
	return geom.Polygon{{
		b.Min,
		{X: b.Max.X, Y: b.Min.Y},
		b.Max,
		{X: b.Min.X, Y: b.Max.Y},
		b.Min,
	}}
}

// HasLayer reports whether r provides the named layer. Combined vector
// layers such as "u,v" provide each of their components.
func (r *Record) HasLayer(name string) bool {
	if _, ok := r.Layers[name]; ok {
		return true
	}
	for key := range r.Layers {
		for _, part := range splitKey(key) {
			if part == name {
				return true
			}
		}
	}
	return false
}
