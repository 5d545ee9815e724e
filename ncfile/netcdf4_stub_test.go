//go:build !netcdf4

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
	"os"
	"path/filepath"
	"testing"
)

func TestNetCDF4Unsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.nc4")
	if err := os.WriteFile(path, []byte("\x89HDF\r\n\x1a\n\x00\x00"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); err != ErrNetCDF4Unsupported {
		t.Errorf("have %v, want %v", err, ErrNetCDF4Unsupported)
	}
}
