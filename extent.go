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
	"math"
	"runtime/debug"

	"github.com/ctessum/geom"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/cfmeta/cftime"
)

// DefaultTimeStandardName is the standard name of the variable that the
// temporal extent is read from.
const DefaultTimeStandardName = "time"

// CoordinatePair names a pair of longitude and latitude variables.
type CoordinatePair struct {
	Lon, Lat string

	// LegacyProbe is the only variable whose existence is checked when
	// Resolver.LegacyCoordinateProbe is set.
	LegacyProbe string
}

// DefaultCoordinatePairs returns the coordinate variables probed for the
// spatial extent, in priority order.
func DefaultCoordinatePairs() []CoordinatePair {
	return []CoordinatePair{
		{Lon: "lon", Lat: "lat", LegacyProbe: "lon"},
		{Lon: "x", Lat: "y", LegacyProbe: "y"},
		{Lon: "lon_u", Lat: "lat_u", LegacyProbe: "lon_u"},
		{Lon: "lon_v", Lat: "lat_v", LegacyProbe: "lon_v"},
	}
}

// coordinates returns the first coordinate pair present in ds.
func (r *Resolver) coordinates(ds Dataset) (CoordinatePair, bool) {
	has := func(name string) bool {
		_, ok := ds.Variable(name)
		return ok
	}
	for _, p := range r.coordinatePairs() {
		if r.LegacyCoordinateProbe {
			if has(p.LegacyProbe) {
				return p, true
			}
		} else if has(p.Lon) && has(p.Lat) {
			return p, true
		}
	}
	return CoordinatePair{}, false
}

// SpatialExtent returns the extent of ds as
// [minLon, minLat, maxLon, maxLat], ignoring NaN coordinate values.
// It returns nil if ds has no coordinate variables or if they cannot be
// read; failures are logged rather than returned. label identifies the
// dataset in log messages.
func (r *Resolver) SpatialExtent(ds Dataset, label string) (extent []float64) {
	log := r.log().WithField("dataset", label)
	p, ok := r.coordinates(ds)
	if !ok {
		log.Info("couldn't compute spatial extent: no coordinate variables")
		return nil
	}
	log = log.WithFields(logrus.Fields{"lon": p.Lon, "lat": p.Lat})
	defer func() {
		if v := recover(); v != nil {
			log.WithFields(logrus.Fields{
				"panic": v,
				"stack": string(debug.Stack()),
			}).Error("disabling spatial extent")
			extent = nil
		}
	}()
	b, err := coordinateBounds(ds, p)
	if err != nil {
		log.WithError(err).WithField("stack", string(debug.Stack())).Error("disabling spatial extent")
		return nil
	}
	return []float64{b.Min.X, b.Min.Y, b.Max.X, b.Max.Y}
}

// coordinateBounds returns the bounds of the finite values of the
// coordinate variables in p.
func coordinateBounds(ds Dataset, p CoordinatePair) (*geom.Bounds, error) {
	lon, err := coordinateValues(ds, p.Lon)
	if err != nil {
		return nil, err
	}
	lat, err := coordinateValues(ds, p.Lat)
	if err != nil {
		return nil, err
	}
	b := geom.NewBounds()
	var nx, ny int
	for _, x := range lon {
		if math.IsNaN(x) {
			continue
		}
		b.Min.X = math.Min(b.Min.X, x)
		b.Max.X = math.Max(b.Max.X, x)
		nx++
	}
	for _, y := range lat {
		if math.IsNaN(y) {
			continue
		}
		b.Min.Y = math.Min(b.Min.Y, y)
		b.Max.Y = math.Max(b.Max.Y, y)
		ny++
	}
	if nx == 0 || ny == 0 {
		return nil, fmt.Errorf("cfmeta: coordinate variables %s and %s have no valid values", p.Lon, p.Lat)
	}
	return b, nil
}

func coordinateValues(ds Dataset, name string) ([]float64, error) {
	v, ok := ds.Variable(name)
	if !ok {
		return nil, fmt.Errorf("cfmeta: missing coordinate variable %s", name)
	}
	vals, err := v.Values()
	if err != nil {
		return nil, fmt.Errorf("cfmeta: reading coordinate variable %s: %v", name, err)
	}
	return vals, nil
}

// TemporalExtent returns the first and last decodable values, in
// array order, of the variable in ds whose composite standard name is
// timeStandardName (DefaultTimeStandardName if empty). Values that
// cannot be decoded are skipped. It returns nil if there is no such
// variable or if no value can be decoded. The result is not sorted.
func (r *Resolver) TemporalExtent(ds Dataset, timeStandardName string) []cftime.Date {
	if timeStandardName == "" {
		timeStandardName = DefaultTimeStandardName
	}
	v, ok := FindByStandardName(ds, timeStandardName)
	if !ok {
		return nil
	}
	log := r.log().WithField("variable", v.Name())
	units, _ := textAttribute(v, "units")
	calendar, _ := textAttribute(v, "calendar")
	c, err := cftime.ParseCalendar(cftime.NormalizeCalendarName(calendar))
	if err != nil {
		log.WithError(err).Debug("no temporal extent")
		return nil
	}
	u, err := cftime.ParseUnits(units, c)
	if err != nil {
		log.WithError(err).Debug("no temporal extent")
		return nil
	}
	vals, err := v.Values()
	if err != nil {
		log.WithError(err).Warn("reading time values")
		return nil
	}
	var first, last cftime.Date
	var n int
	for _, t := range vals {
		d, err := u.Decode(t)
		if err != nil {
			continue
		}
		if n == 0 {
			first = d
		}
		last = d
		n++
	}
	if n == 0 {
		return nil
	}
	return []cftime.Date{first, last}
}
