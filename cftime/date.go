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

package cftime

import (
	"fmt"
	"strings"
	"time"
)

// Date is a date and time of day in a CF calendar. Dates in non-real
// calendars (for example February 30 in the 360_day calendar) cannot
// always be represented as a time.Time, so the fields are kept separately.
type Date struct {
	Year, Month, Day     int
	Hour, Minute, Second int
	Nanosecond           int
	Calendar             Calendar
}

// String returns the date in ISO 8601 format.
func (d Date) String() string {
	s := fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02d", d.Year, d.Month, d.Day, d.Hour, d.Minute, d.Second)
	if d.Nanosecond != 0 {
		s += strings.TrimRight(fmt.Sprintf(".%09d", d.Nanosecond), "0")
	}
	return s
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Time returns d as a UTC time.Time. It returns an error for calendars
// that do not correspond to the real-world (Gregorian) calendar.
func (d Date) Time() (time.Time, error) {
	switch d.Calendar {
	case ProlepticGregorian:
	case Standard:
		if d.Calendar.dayNumber(d.Year, d.Month, d.Day) < reformJDN {
			return time.Time{}, fmt.Errorf("cftime: %v is a Julian calendar date", d)
		}
	default:
		return time.Time{}, fmt.Errorf("cftime: %v in the %s calendar has no time.Time equivalent", d, d.Calendar)
	}
	return time.Date(d.Year, time.Month(d.Month), d.Day, d.Hour, d.Minute, d.Second, d.Nanosecond, time.UTC), nil
}

// Before reports whether d is earlier than e. Both dates must use the
// same calendar.
func (d Date) Before(e Date) bool {
	a, b := d.Calendar.dayNumber(d.Year, d.Month, d.Day), e.Calendar.dayNumber(e.Year, e.Month, e.Day)
	if a != b {
		return a < b
	}
	return d.nanosOfDay() < e.nanosOfDay()
}

func (d Date) nanosOfDay() int64 {
	return int64(d.Hour*3600+d.Minute*60+d.Second)*1e9 + int64(d.Nanosecond)
}
