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
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spatialmodel/cfmeta"
	"github.com/spatialmodel/cfmeta/catalog"
	"github.com/spatialmodel/cfmeta/cftime"
	"github.com/spatialmodel/cfmeta/ncfile"
)

// Output formats.
const (
	formatTable   = "table"
	formatJSON    = "json"
	formatGeoJSON = "geojson"
	formatTOML    = "toml"
)

func unsupportedFormat(format, command string) error {
	return fmt.Errorf("cfmeta: the %s command does not support the %q format", command, format)
}

func newTable(w io.Writer, header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	if header != nil {
		t.AppendHeader(header)
	}
	return t
}

func writeJSON(w io.Writer, v interface{}) error {
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	if err := e.Encode(v); err != nil {
		return fmt.Errorf("cfmeta: writing JSON: %v", err)
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatExtent(e []float64) string {
	if len(e) != 4 {
		return ""
	}
	return fmt.Sprintf("%g, %g, %g, %g", e[0], e[1], e[2], e[3])
}

func formatTimes(t []cftime.Date) string {
	if len(t) == 0 {
		return ""
	}
	return fmt.Sprintf("%v / %v (%v)", t[0], t[len(t)-1], t[0].Calendar)
}

// writeLayers writes the layer names and styles.
func writeLayers(w io.Writer, format string, layers map[string]string) error {
	switch format {
	case formatTable:
		t := newTable(w, table.Row{"Layer", "Style"})
		for _, k := range sortedKeys(layers) {
			t.AppendRow(table.Row{k, layers[k]})
		}
		t.Render()
		return nil
	case formatJSON:
		return writeJSON(w, layers)
	default:
		return unsupportedFormat(format, "layers")
	}
}

// writeExtent writes the spatial and temporal extent in m.
func writeExtent(w io.Writer, format string, m *cfmeta.Metadata) error {
	switch format {
	case formatTable:
		t := newTable(w, nil)
		t.AppendRow(table.Row{"Spatial extent", formatExtent(m.SpatialExtent)})
		t.AppendRow(table.Row{"Temporal extent", formatTimes(m.TemporalExtent)})
		t.Render()
		return nil
	case formatJSON:
		return writeJSON(w, struct {
			SpatialExtent  []float64     `json:"spatial_extent"`
			TemporalExtent []cftime.Date `json:"temporal_extent"`
		}{m.SpatialExtent, m.TemporalExtent})
	case formatGeoJSON:
		return writeRecords(w, format, []*catalog.Record{catalog.NewRecord(m.Label, m, "")})
	default:
		return unsupportedFormat(format, "extent")
	}
}

// variableInfo describes one variable of an inspected dataset.
type variableInfo struct {
	Name         string   `json:"name"`
	Dimensions   []string `json:"dimensions,omitempty"`
	Shape        []int    `json:"shape,omitempty"`
	StandardName string   `json:"standard_name,omitempty"`
	Layers       []string `json:"layers,omitempty"`
}

// inspectVariables describes the variables of ds and the vocabulary
// layers that each one matches.
func inspectVariables(r *cfmeta.Resolver, ds cfmeta.Dataset) []variableInfo {
	vocab := r.Vocabulary
	if vocab == nil {
		vocab = cfmeta.DefaultVocabulary()
	}
	names := vocab.Names()
	var f *ncfile.File
	if d, ok := ds.(*download); ok {
		f = d.File
	}
	var out []variableInfo
	for _, name := range ds.VariableNames() {
		v, ok := ds.Variable(name)
		if !ok {
			continue
		}
		info := variableInfo{Name: name}
		if f != nil {
			if nv, ok := f.Var(name); ok {
				info.Dimensions, info.Shape = nv.Dimensions()
			}
		}
		if sn, ok := cfmeta.CompositeStandardName(v); ok {
			info.StandardName = sn
			for _, n := range names {
				if vocab[n].StandardName == sn {
					info.Layers = append(info.Layers, n)
				}
			}
		}
		out = append(out, info)
	}
	return out
}

// writeInspect writes everything derived from ds.
func writeInspect(w io.Writer, format string, r *cfmeta.Resolver, ds cfmeta.Dataset, m *cfmeta.Metadata) error {
	fileFormat := ""
	if d, ok := ds.(*download); ok {
		fileFormat = d.Format.String()
	}
	vars := inspectVariables(r, ds)
	switch format {
	case formatTable:
		t := newTable(w, nil)
		t.SetTitle("%s", m.Label)
		t.AppendRow(table.Row{"Format", fileFormat})
		t.AppendRow(table.Row{"ID", m.ID})
		t.AppendRow(table.Row{"Model", m.Model})
		t.AppendRow(table.Row{"Title", m.Title})
		t.AppendRow(table.Row{"Spatial extent", formatExtent(m.SpatialExtent)})
		t.AppendRow(table.Row{"Temporal extent", formatTimes(m.TemporalExtent)})
		t.Render()

		t = newTable(w, table.Row{"Variable", "Dimensions", "Standard name", "Vocabulary layers"})
		for _, v := range vars {
			dims := make([]string, len(v.Dimensions))
			for i, d := range v.Dimensions {
				dims[i] = fmt.Sprintf("%s=%d", d, v.Shape[i])
			}
			t.AppendRow(table.Row{v.Name, strings.Join(dims, " "), v.StandardName, strings.Join(v.Layers, " ")})
		}
		t.Render()
		return writeLayers(w, format, m.Layers)
	case formatJSON:
		return writeJSON(w, struct {
			*cfmeta.Metadata
			Format    string         `json:"format,omitempty"`
			Variables []variableInfo `json:"variables"`
		}{m, fileFormat, vars})
	default:
		return unsupportedFormat(format, "inspect")
	}
}

// writeVocabulary writes the vocabulary file f.
func writeVocabulary(w io.Writer, format string, f *cfmeta.VocabularyFile) error {
	switch format {
	case formatTable:
		t := newTable(w, table.Row{"Layer", "Standard name", "Scale min", "Scale max"})
		for _, name := range f.Layers.Names() {
			e := f.Layers[name]
			t.AppendRow(table.Row{name, e.StandardName, e.ScaleMin, e.ScaleMax})
		}
		t.Render()
		vectors := f.Vectors
		if vectors == nil {
			vectors = cfmeta.DefaultVectorPairs()
		}
		t = newTable(w, table.Row{"Vector layer", "Style"})
		for _, p := range vectors {
			t.AppendRow(table.Row{p.CombinedKey(), p.Style})
		}
		t.Render()
		hidden := f.Resolver().Effective().Hidden
		_, err := fmt.Fprintf(w, "Hidden layers: %s\n", strings.Join(hidden, " "))
		return err
	case formatJSON:
		return writeJSON(w, f)
	case formatTOML:
		return cfmeta.WriteVocabulary(w, f)
	default:
		return unsupportedFormat(format, "vocab")
	}
}

// writeRecords writes catalog records.
func writeRecords(w io.Writer, format string, records []*catalog.Record) error {
	switch format {
	case formatTable:
		t := newTable(w, table.Row{"Source", "Title", "Spatial extent", "Temporal extent", "Layers"})
		for _, r := range records {
			times := strings.Join(r.TimeExtent, " / ")
			t.AppendRow(table.Row{r.Source, r.Title, formatExtent(r.Extent), times, strings.Join(sortedKeys(r.Layers), " ")})
		}
		t.Render()
		return nil
	case formatJSON:
		if records == nil {
			records = []*catalog.Record{}
		}
		return writeJSON(w, records)
	case formatGeoJSON:
		c := catalog.New()
		c.Add(records...)
		return c.WriteGeoJSON(w)
	default:
		return unsupportedFormat(format, "harvest or search")
	}
}
