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
	"io"

	"github.com/ctessum/cdf"
)

// classic reads classic and 64-bit offset files.
type classic struct {
	nc     *cdf.File
	closer io.Closer
}

func newClassic(rw cdf.ReaderWriterAt, closer io.Closer) (*classic, error) {
	nc, err := cdf.Open(rw)
	if err != nil {
		return nil, err
	}
	return &classic{nc: nc, closer: closer}, nil
}

// NewClassic returns a File that reads the classic or 64-bit offset
// NetCDF data in rw. Closing the returned File does not close rw.
func NewClassic(rw cdf.ReaderWriterAt) (*File, error) {
	c, err := newClassic(rw, nil)
	if err != nil {
		return nil, fmt.Errorf("ncfile: %v", err)
	}
	return newFile(Classic, c), nil
}

func (c *classic) variables() []string { return c.nc.Header.Variables() }

func (c *classic) attributes(v string) []string { return c.nc.Header.Attributes(v) }

func (c *classic) attribute(v, a string) (interface{}, bool) {
	val := c.nc.Header.GetAttribute(v, a)
	if val == nil {
		return nil, false
	}
	if b, ok := val.([]uint8); ok {
		// NetCDF bytes are signed.
		s := make([]int8, len(b))
		for i, x := range b {
			s[i] = int8(x)
		}
		return s, true
	}
	return val, true
}

func (c *classic) dimensions(v string) ([]string, []int) {
	return c.nc.Header.Dimensions(v), c.nc.Header.Lengths(v)
}

// values reads all of v. Record variables are read one record at a
// time until the end of the file, and each record may be padded.
func (c *classic) values(v string) ([]float64, error) {
	r := c.nc.Reader(v, nil, nil)
	if r == nil {
		return nil, fmt.Errorf("no such variable")
	}
	lengths := c.nc.Header.Lengths(v)
	record := len(lengths) > 0 && lengths[0] == 0
	perRecord := 1
	if record {
		for _, l := range lengths[1:] {
			perRecord *= l
		}
	}
	var data []float64
	for {
		buf := r.Zero(-1)
		n, err := r.Read(buf)
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		} else if err != nil {
			return nil, err
		}
		if record && n > perRecord {
			n = perRecord // drop padding
		}
		data, err = appendFloats(data, buf, n)
		if err != nil {
			return nil, err
		}
		if !record {
			break
		}
	}
	return data, nil
}

func appendFloats(dst []float64, buf interface{}, n int) ([]float64, error) {
	switch t := buf.(type) {
	case []float64:
		dst = append(dst, t[:n]...)
	case []float32:
		for _, x := range t[:n] {
			dst = append(dst, float64(x))
		}
	case []int32:
		for _, x := range t[:n] {
			dst = append(dst, float64(x))
		}
	case []int16:
		for _, x := range t[:n] {
			dst = append(dst, float64(x))
		}
	case []uint8:
		for _, x := range t[:n] {
			dst = append(dst, float64(int8(x)))
		}
	default:
		return nil, fmt.Errorf("unsupported data type %T", buf)
	}
	return dst, nil
}

func (c *classic) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}
