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
	"reflect"
	"regexp"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/cfmeta/cftime"
	"github.com/spf13/cast"
)

var (
	colonSpace = regexp.MustCompile(`:\s+`)
	whitespace = regexp.MustCompile(`\s+`)
)

// normalizeCellMethods turns a cell_methods attribute such as
// "time: mean" into a key fragment such as "time_mean".
func normalizeCellMethods(cm string) string {
	cm = colonSpace.ReplaceAllString(cm, "_")
	return whitespace.ReplaceAllString(cm, "")
}

// CompositeStandardName returns the standard name that v is matched under.
// It is the standard_name attribute of v, prefixed with the normalized
// cell_methods attribute and an underscore if v has one. The second
// return value is false if v has no textual standard_name attribute.
func CompositeStandardName(v Variable) (string, bool) {
	sn, ok := textAttribute(v, "standard_name")
	if !ok {
		return "", false
	}
	if cm, ok := textAttribute(v, "cell_methods"); ok {
		sn = normalizeCellMethods(cm) + "_" + sn
	}
	return sn, true
}

// FindByStandardName returns the first variable in ds, in storage order,
// whose composite standard name equals target.
func FindByStandardName(ds Dataset, target string) (Variable, bool) {
	for _, name := range ds.VariableNames() {
		v, ok := ds.Variable(name)
		if !ok {
			continue
		}
		if sn, ok := CompositeStandardName(v); ok && sn == target {
			return v, true
		}
	}
	return nil, false
}

// NameFromStandardName returns the name of the first variable in ds whose
// standard_name attribute equals target. Unlike FindByStandardName, it
// ignores cell_methods.
func NameFromStandardName(ds Dataset, target string) (string, bool) {
	for _, name := range ds.VariableNames() {
		v, ok := ds.Variable(name)
		if !ok {
			continue
		}
		if sn, ok := textAttribute(v, "standard_name"); ok && sn == target {
			return name, true
		}
	}
	return "", false
}

// GlobalAttribute returns the named global attribute of ds. A missing
// attribute is not an error.
func GlobalAttribute(ds Dataset, name string) (interface{}, bool) {
	if ds == nil {
		return nil, false
	}
	return ds.GlobalAttribute(name)
}

// GlobalString returns the named global attribute of ds formatted as a
// string, or "" if it is missing.
func GlobalString(ds Dataset, name string) string {
	v, ok := GlobalAttribute(ds, name)
	if !ok {
		return ""
	}
	return formatAttribute(v)
}

// ScalarStyle returns the default style for a scalar layer.
func ScalarStyle(min, max string) string {
	return fmt.Sprintf("pcolor_average_jet_%s_%s_grid_False", min, max)
}

// VectorStyle returns the default style for a vector layer.
func VectorStyle(min, max string) string {
	return fmt.Sprintf("vectors_average_jet_%s_%s_grid_40", min, max)
}

// textAttribute returns the named attribute of v if it holds text.
func textAttribute(v Variable, name string) (string, bool) {
	a, ok := v.Attribute(name)
	if !ok {
		return "", false
	}
	switch t := a.(type) {
	case string:
		return t, true
	case []byte:
		return string(t), true
	}
	return "", false
}

// formatAttribute formats an attribute value. Single-element
// arrays, which is how NetCDF stores scalar attributes, are
// formatted as their element.
func formatAttribute(v interface{}) string {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice && rv.Len() == 1 {
		v = rv.Index(0).Interface()
	}
	if s, err := cast.ToStringE(v); err == nil {
		return s
	}
	return fmt.Sprint(v)
}

// Resolver derives metadata from datasets. The zero value uses the
// built-in vocabulary and rules.
type Resolver struct {
	// Vocabulary maps layer names to standard names. If nil,
	// DefaultVocabulary is used. The Resolver never modifies it.
	Vocabulary Vocabulary

	// VectorPairs are applied in order after scalar layers have been
	// matched. If nil, DefaultVectorPairs is used.
	VectorPairs []VectorPair

	// Hidden lists layers that are removed from results in addition
	// to HiddenLayers, which are always removed.
	Hidden []string

	// CoordinatePairs are probed in order to find the spatial extent.
	// If nil, DefaultCoordinatePairs is used.
	CoordinatePairs []CoordinatePair

	// TimeStandardName is the composite standard name of the time
	// variable used by Describe. If empty, DefaultTimeStandardName is used.
	TimeStandardName string

	// LegacyCoordinateProbe makes coordinate probing check only the
	// existence of each pair's LegacyProbe variable.
	LegacyCoordinateProbe bool

	// Log receives diagnostic messages. If nil,
	// logrus.StandardLogger() is used.
	Log logrus.FieldLogger
}

// NewResolver returns a resolver that uses the given vocabulary and the
// built-in rules.
func NewResolver(v Vocabulary) *Resolver {
	return &Resolver{Vocabulary: v}
}

func (r *Resolver) log() logrus.FieldLogger {
	if r.Log == nil {
		return logrus.StandardLogger()
	}
	return r.Log
}

func (r *Resolver) vocabulary() Vocabulary {
	if r.Vocabulary == nil {
		return DefaultVocabulary()
	}
	return r.Vocabulary
}

func (r *Resolver) vectorPairs() []VectorPair {
	if r.VectorPairs == nil {
		return DefaultVectorPairs()
	}
	return r.VectorPairs
}

// hidden returns HiddenLayers followed by any extra names in r.Hidden.
func (r *Resolver) hidden() []string {
	h := HiddenLayers()
	for _, name := range r.Hidden {
		if !contains(h, name) {
			h = append(h, name)
		}
	}
	return h
}

func contains(s []string, v string) bool {
	for _, e := range s {
		if e == v {
			return true
		}
	}
	return false
}

func (r *Resolver) coordinatePairs() []CoordinatePair {
	if r.CoordinatePairs == nil {
		return DefaultCoordinatePairs()
	}
	return r.CoordinatePairs
}

// Effective returns a copy of r with every unset field replaced by the
// value the Resolver uses in its place, so resolvers that apply the
// same rules have equal Effective results. Log is left unset.
func (r *Resolver) Effective() *Resolver {
	e := &Resolver{
		Vocabulary:            r.vocabulary(),
		VectorPairs:           r.vectorPairs(),
		Hidden:                r.hidden(),
		CoordinatePairs:       r.coordinatePairs(),
		TimeStandardName:      r.TimeStandardName,
		LegacyCoordinateProbe: r.LegacyCoordinateProbe,
	}
	if e.TimeStandardName == "" {
		e.TimeStandardName = DefaultTimeStandardName
	}
	return e
}

// Metadata is the metadata derived from a single dataset.
type Metadata struct {
	Label string `json:"label"`
	ID    string `json:"id,omitempty"`
	Model string `json:"model,omitempty"`
	Title string `json:"title,omitempty"`

	// SpatialExtent is [minLon, minLat, maxLon, maxLat], or nil if it
	// could not be computed.
	SpatialExtent []float64 `json:"spatial_extent,omitempty"`

	// TemporalExtent holds the first and last decodable times, or nil.
	TemporalExtent []cftime.Date `json:"temporal_extent,omitempty"`

	// Layers maps layer names to default styles.
	Layers map[string]string `json:"layers"`
}

// Describe derives all available metadata from ds. label identifies
// the dataset in log messages.
func (r *Resolver) Describe(ds Dataset, label string) *Metadata {
	return &Metadata{
		Label:          label,
		ID:             GlobalString(ds, "id"),
		Model:          GlobalString(ds, "model"),
		Title:          GlobalString(ds, "title"),
		SpatialExtent:  r.SpatialExtent(ds, label),
		TemporalExtent: r.TemporalExtent(ds, r.TimeStandardName),
		Layers:         r.Layers(ds),
	}
}
