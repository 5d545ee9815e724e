//go:build netcdf4

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

package ncfile

import (
	"fmt"

	"github.com/fhs/go-netcdf/netcdf"
)

// hdf reads NetCDF-4 files using the NetCDF C library.
type hdf struct {
	ds    netcdf.Dataset
	names []string
}

func openNetCDF4(path string) (backend, error) {
	ds, err := netcdf.OpenFile(path, netcdf.NOWRITE)
	if err != nil {
		return nil, fmt.Errorf("ncfile: opening %s: %v", path, err)
	}
	n, err := ds.NVars()
	if err != nil {
		ds.Close()
		return nil, fmt.Errorf("ncfile: opening %s: %v", path, err)
	}
	h := &hdf{ds: ds}
	for i := 0; i < n; i++ {
		name, err := ds.VarN(i).Name()
		if err != nil {
			ds.Close()
			return nil, fmt.Errorf("ncfile: opening %s: %v", path, err)
		}
		h.names = append(h.names, name)
	}
	return h, nil
}

func (h *hdf) variables() []string { return append([]string(nil), h.names...) }

func (h *hdf) attributes(v string) []string {
	var n int
	var attrN func(int) (netcdf.Attr, error)
	if v == "" {
		var err error
		if n, err = h.ds.NAttrs(); err != nil {
			return nil
		}
		attrN = h.ds.AttrN
	} else {
		vv, err := h.ds.Var(v)
		if err != nil {
			return nil
		}
		if n, err = vv.NAttrs(); err != nil {
			return nil
		}
		attrN = vv.AttrN
	}
	names := make([]string, 0, n)
	for i := 0; i < n; i++ {
		a, err := attrN(i)
		if err != nil {
			continue
		}
		names = append(names, a.Name())
	}
	return names
}

func (h *hdf) attribute(v, name string) (interface{}, bool) {
	var a netcdf.Attr
	if v == "" {
		a = h.ds.Attr(name)
	} else {
		vv, err := h.ds.Var(v)
		if err != nil {
			return nil, false
		}
		a = vv.Attr(name)
	}
	n, err := a.Len()
	if err != nil {
		return nil, false
	}
	t, err := a.Type()
	if err != nil {
		return nil, false
	}
	val, err := readAttr(a, t, int(n))
	if err != nil {
		return nil, false
	}
	return val, true
}

func readAttr(a netcdf.Attr, t netcdf.Type, n int) (interface{}, error) {
	switch t {
	case netcdf.CHAR:
		b := make([]byte, n)
		err := a.ReadBytes(b)
		return string(b), err
	case netcdf.DOUBLE:
		v := make([]float64, n)
		return v, a.ReadFloat64s(v)
	case netcdf.FLOAT:
		v := make([]float32, n)
		return v, a.ReadFloat32s(v)
	case netcdf.INT64:
		v := make([]int64, n)
		return v, a.ReadInt64s(v)
	case netcdf.UINT64:
		v := make([]uint64, n)
		return v, a.ReadUint64s(v)
	case netcdf.INT:
		v := make([]int32, n)
		return v, a.ReadInt32s(v)
	case netcdf.UINT:
		v := make([]uint32, n)
		return v, a.ReadUint32s(v)
	case netcdf.SHORT:
		v := make([]int16, n)
		return v, a.ReadInt16s(v)
	case netcdf.USHORT:
		v := make([]uint16, n)
		return v, a.ReadUint16s(v)
	case netcdf.BYTE:
		v := make([]int8, n)
		return v, a.ReadInt8s(v)
	case netcdf.UBYTE:
		v := make([]uint8, n)
		return v, a.ReadUint8s(v)
	}
	return nil, fmt.Errorf("unsupported attribute type %v", t)
}

func (h *hdf) dimensions(v string) ([]string, []int) {
	vv, err := h.ds.Var(v)
	if err != nil {
		return nil, nil
	}
	dims, err := vv.Dims()
	if err != nil {
		return nil, nil
	}
	names := make([]string, len(dims))
	lengths := make([]int, len(dims))
	for i, d := range dims {
		names[i], _ = d.Name()
		l, _ := d.Len()
		lengths[i] = int(l)
	}
	return names, lengths
}

func (h *hdf) values(v string) ([]float64, error) {
	vv, err := h.ds.Var(v)
	if err != nil {
		return nil, err
	}
	n, err := vv.Len()
	if err != nil {
		return nil, err
	}
	t, err := vv.Type()
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	switch t {
	case netcdf.DOUBLE:
		err = vv.ReadFloat64s(out)
	case netcdf.FLOAT:
		buf := make([]float32, n)
		err = vv.ReadFloat32s(buf)
		for i, x := range buf {
			out[i] = float64(x)
		}
	case netcdf.INT64:
		buf := make([]int64, n)
		err = vv.ReadInt64s(buf)
		for i, x := range buf {
			out[i] = float64(x)
		}
	case netcdf.INT:
		buf := make([]int32, n)
		err = vv.ReadInt32s(buf)
		for i, x := range buf {
			out[i] = float64(x)
		}
	case netcdf.SHORT:
		buf := make([]int16, n)
		err = vv.ReadInt16s(buf)
		for i, x := range buf {
			out[i] = float64(x)
		}
	case netcdf.BYTE:
		buf := make([]int8, n)
		err = vv.ReadInt8s(buf)
		for i, x := range buf {
			out[i] = float64(x)
		}
	case netcdf.UBYTE:
		buf := make([]uint8, n)
		err = vv.ReadUint8s(buf)
		for i, x := range buf {
			out[i] = float64(x)
		}
	default:
		return nil, fmt.Errorf("unsupported data type %v", t)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (h *hdf) Close() error { return h.ds.Close() }
