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
	"io"
	"sort"

	"github.com/BurntSushi/toml"
)

// VocabularyEntry holds the CF standard name a layer is matched against
// and the default scale bounds used in its style. The bounds are
// used verbatim when formatting styles.
type VocabularyEntry struct {
	StandardName string `toml:"standard_name" json:"standard_name"`
	ScaleMin     string `toml:"scale_min" json:"scale_min,omitempty"`
	ScaleMax     string `toml:"scale_max" json:"scale_max,omitempty"`
}

// Vocabulary maps layer names to vocabulary entries.
type Vocabulary map[string]VocabularyEntry

// DefaultVocabulary returns the built-in vocabulary of oceanographic layers.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		"time":                {StandardName: "time"},
		"longitude":           {StandardName: "longitude", ScaleMin: "0", ScaleMax: "360"},
		"latitude":            {StandardName: "latitude", ScaleMin: "-90", ScaleMax: "90"},
		"ssh_geoid":           {StandardName: "sea_surface_height_above_geoid", ScaleMin: "0", ScaleMax: "7.0"},
		"ssh_reference_datum": {StandardName: "water_surface_height_above_reference_datum", ScaleMin: "0", ScaleMax: "7.0"},
		"u":                   {StandardName: "eastward_sea_water_velocity", ScaleMin: "0", ScaleMax: "2"},
		"v":                   {StandardName: "northward_sea_water_velocity", ScaleMin: "0", ScaleMax: "2"},
		"hs":                  {StandardName: "sea_surface_wave_significant_height", ScaleMin: "0", ScaleMax: "12"},
		"uwind":               {StandardName: "eastward_wind", ScaleMin: "0", ScaleMax: "80"},
		"vwind":               {StandardName: "northward_wind", ScaleMin: "0", ScaleMax: "80"},
		"salinity":            {StandardName: "sea_water_salinity", ScaleMin: "32", ScaleMax: "37"},
		"sst":                 {StandardName: "sea_water_temperature", ScaleMin: "0", ScaleMax: "40"},
		"ubarotropic":         {StandardName: "barotropic_eastward_sea_water_velocity", ScaleMin: "0", ScaleMax: "2"},
		"vbarotropic":         {StandardName: "barotropic_northward_sea_water_velocity", ScaleMin: "0", ScaleMax: "2"},
	}
}

// Names returns the layer names in v in sorted order.
func (v Vocabulary) Names() []string {
	names := make([]string, 0, len(v))
	for k := range v {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Validate checks that every entry in v has a layer name and a
// standard name, and that every layer that can be reported (any layer
// not in HiddenLayers) has both scale bounds.
func (v Vocabulary) Validate() error {
	return v.validate(HiddenLayers())
}

func (v Vocabulary) validate(hidden []string) error {
	for _, name := range v.Names() {
		if name == "" {
			return fmt.Errorf("cfmeta: vocabulary contains an empty layer name")
		}
		e := v[name]
		if e.StandardName == "" {
			return fmt.Errorf("cfmeta: vocabulary layer %q has no standard_name", name)
		}
		if contains(hidden, name) {
			continue
		}
		if e.ScaleMin == "" || e.ScaleMax == "" {
			return fmt.Errorf("cfmeta: vocabulary layer %q needs scale_min and scale_max", name)
		}
	}
	return nil
}

// VectorPair specifies two scalar layers that are replaced by a single
// vector layer when both are present.
type VectorPair struct {
	// A and B are the names of the component layers.
	A string `toml:"a" json:"a"`
	B string `toml:"b" json:"b"`

	// Key is the name of the combined layer. If empty, "A,B" is used.
	Key string `toml:"key" json:"key,omitempty"`

	// Style is the style of the combined layer.
	Style string `toml:"style" json:"style"`
}

// CombinedKey returns the name of the combined layer.
func (p VectorPair) CombinedKey() string {
	if p.Key != "" {
		return p.Key
	}
	return p.A + "," + p.B
}

// DefaultVectorPairs returns the built-in vector coalescing rules.
func DefaultVectorPairs() []VectorPair {
	return []VectorPair{
		{A: "u", B: "v", Key: "u,v", Style: VectorStyle("0", "2")},
		{A: "uwind", B: "vwind", Key: "uwind,vwind", Style: VectorStyle("0", "80")},
		{A: "ubarotropic", B: "vbarotropic", Key: "ubarotropic,vbarotropic", Style: VectorStyle("0", "2")},
	}
}

// HiddenLayers returns the layer names that are never reported because
// they describe coordinates rather than data.
func HiddenLayers() []string {
	return []string{"time", "latitude", "longitude"}
}

// VocabularyFile is the on-disk form of a vocabulary. An example:
//
//	hidden = ["salinity"]
//
//	[layers.sst]
//	standard_name = "sea_water_temperature"
//	scale_min = "0"
//	scale_max = "40"
//
//	[[vectors]]
//	a = "u"
//	b = "v"
//	style = "vectors_average_jet_0_2_grid_40"
type VocabularyFile struct {
	Layers  Vocabulary   `toml:"layers" json:"layers"`
	Vectors []VectorPair `toml:"vectors" json:"vectors,omitempty"`

	// Hidden lists layers to remove in addition to HiddenLayers.
	Hidden []string `toml:"hidden" json:"hidden,omitempty"`
}

// ReadVocabulary reads and validates a TOML vocabulary file.
func ReadVocabulary(r io.Reader) (*VocabularyFile, error) {
	f := new(VocabularyFile)
	if _, err := toml.DecodeReader(r, f); err != nil {
		return nil, fmt.Errorf("cfmeta: reading vocabulary: %v", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Validate checks the layers and vector pairs in f.
func (f *VocabularyFile) Validate() error {
	if len(f.Layers) == 0 {
		return fmt.Errorf("cfmeta: vocabulary has no layers")
	}
	if err := f.Layers.validate(f.Resolver().hidden()); err != nil {
		return err
	}
	for i, p := range f.Vectors {
		if p.A == "" || p.B == "" {
			return fmt.Errorf("cfmeta: vector pair %d is missing a component layer", i)
		}
		if p.Style == "" {
			return fmt.Errorf("cfmeta: vector pair %s has no style", p.CombinedKey())
		}
	}
	return nil
}

// WriteVocabulary writes f to w in TOML format.
func WriteVocabulary(w io.Writer, f *VocabularyFile) error {
	if err := toml.NewEncoder(w).Encode(f); err != nil {
		return fmt.Errorf("cfmeta: writing vocabulary: %v", err)
	}
	return nil
}

// DefaultVocabularyFile returns the built-in vocabulary and vector pairs.
func DefaultVocabularyFile() *VocabularyFile {
	return &VocabularyFile{
		Layers:  DefaultVocabulary(),
		Vectors: DefaultVectorPairs(),
	}
}

// Resolver returns a Resolver that uses the contents of f. A file that
// lists no vectors uses DefaultVectorPairs.
func (f *VocabularyFile) Resolver() *Resolver {
	r := &Resolver{
		Vocabulary:  f.Layers,
		VectorPairs: f.Vectors,
		Hidden:      f.Hidden,
	}
	return r
}
