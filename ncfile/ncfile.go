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

// Package ncfile opens NetCDF files as cfmeta datasets. Classic and
// 64-bit offset files are always supported; NetCDF-4 (HDF5) files are
// supported when built with the netcdf4 tag, which requires the NetCDF C
// library.
package ncfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/spatialmodel/cfmeta"
)

var (
	// ErrNetCDF4Unsupported is returned when opening a NetCDF-4 file
	// in a build without NetCDF-4 support.
	ErrNetCDF4Unsupported = errors.New("ncfile: NetCDF-4 files are not supported in this build; rebuild with -tags netcdf4")

	// ErrUnknownFormat is returned when a file is not a NetCDF file.
	ErrUnknownFormat = errors.New("ncfile: not a NetCDF file")
)

// Format is a NetCDF file format.
type Format int

// These are the recognized file formats.
const (
	Unknown Format = iota
	Classic
	Offset64
	NetCDF4
)

func (f Format) String() string {
	switch f {
	case Classic:
		return "classic"
	case Offset64:
		return "64-bit offset"
	case NetCDF4:
		return "netCDF-4"
	}
	return "unknown"
}

// Sniff returns the format of a file that starts with magic.
func Sniff(magic []byte) Format {
	switch {
	case bytes.HasPrefix(magic, []byte("CDF\x01")):
		return Classic
	case bytes.HasPrefix(magic, []byte("CDF\x02")):
		return Offset64
	case bytes.HasPrefix(magic, []byte("\x89HDF\r\n\x1a\n")):
		return NetCDF4
	}
	return Unknown
}

// backend is implemented by each supported file format.
type backend interface {
	variables() []string

	// attributes returns the attribute names of variable v, or the
	// global attribute names if v is "".
	attributes(v string) []string

	// attribute returns attribute a of variable v, or global
	// attribute a if v is "".
	attribute(v, a string) (interface{}, bool)

	dimensions(v string) ([]string, []int)

	// values returns the raw values of v converted to float64.
	values(v string) ([]float64, error)

	io.Closer
}

// File is an open NetCDF file. It implements cfmeta.Dataset.
type File struct {
	Format Format
	b      backend
	index  map[string]bool
}

var _ cfmeta.Dataset = (*File)(nil)

func newFile(f Format, b backend) *File {
	index := make(map[string]bool)
	for _, v := range b.variables() {
		index[v] = true
	}
	return &File{Format: f, b: b, index: index}
}

// Open opens the NetCDF file at path for reading.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ncfile: %v", err)
	}
	magic := make([]byte, 8)
	if _, err := io.ReadFull(f, magic); err != nil && err != io.ErrUnexpectedEOF {
		f.Close()
		return nil, fmt.Errorf("ncfile: reading %s: %v", path, err)
	}
	format := Sniff(magic)
	switch format {
	case Classic, Offset64:
		c, err := newClassic(f, f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("ncfile: opening %s: %v", path, err)
		}
		return newFile(format, c), nil
	case NetCDF4:
		f.Close()
		b, err := openNetCDF4(path)
		if err != nil {
			return nil, err
		}
		return newFile(format, b), nil
	}
	f.Close()
	return nil, ErrUnknownFormat
}

// Close closes the file.
func (f *File) Close() error {
	return f.b.Close()
}

// VariableNames implements cfmeta.Dataset.
func (f *File) VariableNames() []string {
	return f.b.variables()
}

// Variable implements cfmeta.Dataset.
func (f *File) Variable(name string) (cfmeta.Variable, bool) {
	v, ok := f.Var(name)
	if !ok {
		return nil, false
	}
	return v, true
}

// Var returns the named variable.
func (f *File) Var(name string) (*Var, bool) {
	if !f.index[name] {
		return nil, false
	}
	return &Var{f: f, name: name}, true
}

// GlobalAttribute implements cfmeta.Dataset.
func (f *File) GlobalAttribute(name string) (interface{}, bool) {
	return f.b.attribute("", name)
}

// GlobalAttributes returns the names of the global attributes.
func (f *File) GlobalAttributes() []string {
	return f.b.attributes("")
}

// Var is a variable in a File. It implements cfmeta.Variable.
type Var struct {
	f    *File
	name string
}

// Name implements cfmeta.Variable.
func (v *Var) Name() string { return v.name }

// Attribute implements cfmeta.Variable. Text attributes are strings
// and numeric attributes are slices.
func (v *Var) Attribute(name string) (interface{}, bool) {
	return v.f.b.attribute(v.name, name)
}

// Attributes returns the names of the attributes of v.
func (v *Var) Attributes() []string {
	return v.f.b.attributes(v.name)
}

// Dimensions returns the dimension names and lengths of v. The
// length of an unlimited dimension is reported as 0.
func (v *Var) Dimensions() ([]string, []int) {
	return v.f.b.dimensions(v.name)
}

// Values implements cfmeta.Variable. Values equal to the _FillValue or
// missing_value attributes are set to NaN, and scale_factor and
// add_offset are applied to the rest.
func (v *Var) Values() ([]float64, error) {
	data, err := v.f.b.values(v.name)
	if err != nil {
		return nil, fmt.Errorf("ncfile: reading variable %s: %v", v.name, err)
	}
	var missing []float64
	for _, a := range []string{"_FillValue", "missing_value"} {
		if val, ok := v.Attribute(a); ok {
			m, ok := floats(val)
			if !ok {
				return nil, fmt.Errorf("ncfile: invalid type for %s %s: %T", v.name, a, val)
			}
			missing = append(missing, m...)
		}
	}
	scale, offset := 1., 0.
	if val, ok := v.Attribute("scale_factor"); ok {
		if s, ok := floats(val); ok && len(s) > 0 {
			scale = s[0]
		}
	}
	if val, ok := v.Attribute("add_offset"); ok {
		if o, ok := floats(val); ok && len(o) > 0 {
			offset = o[0]
		}
	}
	for i, d := range data {
		if isMissing(d, missing) {
			data[i] = math.NaN()
			continue
		}
		data[i] = d*scale + offset
	}
	return data, nil
}

func isMissing(d float64, missing []float64) bool {
	for _, m := range missing {
		if d == m {
			return true
		}
	}
	return false
}

// floats converts a numeric attribute value to float64.
func floats(v interface{}) ([]float64, bool) {
	var out []float64
	switch t := v.(type) {
	case []float64:
		out = append(out, t...)
	case []float32:
		for _, x := range t {
			out = append(out, float64(x))
		}
	case []int64:
		for _, x := range t {
			out = append(out, float64(x))
		}
	case []uint64:
		for _, x := range t {
			out = append(out, float64(x))
		}
	case []int32:
		for _, x := range t {
			out = append(out, float64(x))
		}
	case []uint32:
		for _, x := range t {
			out = append(out, float64(x))
		}
	case []int16:
		for _, x := range t {
			out = append(out, float64(x))
		}
	case []uint16:
		for _, x := range t {
			out = append(out, float64(x))
		}
	case []int8:
		for _, x := range t {
			out = append(out, float64(x))
		}
	case []uint8:
		for _, x := range t {
			out = append(out, float64(x))
		}
	default:
		return nil, false
	}
	return out, true
}
