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

// Package cftime converts numeric time coordinates to calendar dates
// following the CF conventions for the "units" and "calendar" attributes
// of time variables.
// Information regarding the conventions is available at
// http://cfconventions.org/Data/cf-conventions/cf-conventions-1.7/cf-conventions.html#time-coordinate.
package cftime

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// Calendar is a CF calendar.
type Calendar int

const (
	// Standard is the mixed Julian/Gregorian calendar, switching
	// on 1582-10-15. It is the default when no calendar is given.
	Standard Calendar = iota

	// ProlepticGregorian is the Gregorian calendar extended to dates
	// before 1582-10-15.
	ProlepticGregorian

	// Julian is the Julian calendar.
	Julian

	// NoLeap is a calendar with 365 days in every year.
	NoLeap

	// AllLeap is a calendar with 366 days in every year.
	AllLeap

	// Day360 is a calendar with 30 days in every month.
	Day360
)

var calendarNames = map[string]Calendar{
	"":                    Standard,
	"standard":            Standard,
	"gregorian":           Standard,
	"proleptic_gregorian": ProlepticGregorian,
	"julian":              Julian,
	"noleap":              NoLeap,
	"365_day":             NoLeap,
	"all_leap":            AllLeap,
	"366_day":             AllLeap,
	"360_day":             Day360,
}

// NormalizeCalendarName trims and case-folds a calendar attribute value.
func NormalizeCalendarName(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

// ParseCalendar returns the calendar with the given CF name.
// Matching is case insensitive and an empty name means Standard.
func ParseCalendar(name string) (Calendar, error) {
	c, ok := calendarNames[NormalizeCalendarName(name)]
	if !ok {
		return Standard, fmt.Errorf("cftime: unsupported calendar %q", name)
	}
	return c, nil
}

func (c Calendar) String() string {
	switch c {
	case Standard:
		return "standard"
	case ProlepticGregorian:
		return "proleptic_gregorian"
	case Julian:
		return "julian"
	case NoLeap:
		return "noleap"
	case AllLeap:
		return "all_leap"
	case Day360:
		return "360_day"
	default:
		return fmt.Sprintf("Calendar(%d)", int(c))
	}
}

// reformJDN is the Julian day number of 1582-10-15, the first day of the
// Gregorian calendar.
const reformJDN = 2299161

var cumDays = [13]int{0, 31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334, 365}
var cumDaysLeap = [13]int{0, 31, 60, 91, 121, 152, 182, 213, 244, 274, 305, 335, 366}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func gregorianLeap(y int) bool { return y%4 == 0 && (y%100 != 0 || y%400 == 0) }
func julianLeap(y int) bool    { return y%4 == 0 }

func (c Calendar) isLeap(y int) bool {
	switch c {
	case ProlepticGregorian:
		return gregorianLeap(y)
	case Julian:
		return julianLeap(y)
	case Standard:
		if y > 1582 {
			return gregorianLeap(y)
		}
		return julianLeap(y)
	case AllLeap:
		return true
	default:
		return false
	}
}

// daysInMonth returns the number of days in month m of year y.
func (c Calendar) daysInMonth(y, m int) int {
	if c == Day360 {
		return 30
	}
	if c.isLeap(y) {
		return cumDaysLeap[m] - cumDaysLeap[m-1]
	}
	return cumDays[m] - cumDays[m-1]
}

// validDate returns an error if y-m-d does not exist in c.
func (c Calendar) validDate(y, m, d int) error {
	if m < 1 || m > 12 {
		return fmt.Errorf("cftime: month %d out of range", m)
	}
	if d < 1 || d > c.daysInMonth(y, m) {
		return fmt.Errorf("cftime: day %d out of range for %04d-%02d in the %s calendar", d, y, m, c)
	}
	if c == Standard && y == 1582 && m == 10 && d > 4 && d < 15 {
		return fmt.Errorf("cftime: %04d-%02d-%02d falls in the Julian/Gregorian gap", y, m, d)
	}
	return nil
}

func gregorianToJDN(y, m, d int64) int64 {
	a := floorDiv(14-m, 12)
	yy := y + 4800 - a
	mm := m + 12*a - 3
	return d + floorDiv(153*mm+2, 5) + 365*yy + floorDiv(yy, 4) - floorDiv(yy, 100) + floorDiv(yy, 400) - 32045
}

func julianToJDN(y, m, d int64) int64 {
	a := floorDiv(14-m, 12)
	yy := y + 4800 - a
	mm := m + 12*a - 3
	return d + floorDiv(153*mm+2, 5) + 365*yy + floorDiv(yy, 4) - 32083
}

func jdnToGregorian(j int64) (y, m, d int) {
	a := j + 32044
	b := floorDiv(4*a+3, 146097)
	c := a - floorDiv(146097*b, 4)
	dd := floorDiv(4*c+3, 1461)
	e := c - floorDiv(1461*dd, 4)
	mm := floorDiv(5*e+2, 153)
	d = int(e - floorDiv(153*mm+2, 5) + 1)
	m = int(mm + 3 - 12*floorDiv(mm, 10))
	y = int(100*b + dd - 4800 + floorDiv(mm, 10))
	return
}

func jdnToJulian(j int64) (y, m, d int) {
	c := j + 32082
	dd := floorDiv(4*c+3, 1461)
	e := c - floorDiv(1461*dd, 4)
	mm := floorDiv(5*e+2, 153)
	d = int(e - floorDiv(153*mm+2, 5) + 1)
	m = int(mm + 3 - 12*floorDiv(mm, 10))
	y = int(dd - 4800 + floorDiv(mm, 10))
	return
}

// dayNumber returns a count of days for y-m-d that is continuous
// within calendar c. The origin differs between calendars.
func (c Calendar) dayNumber(y, m, d int) int64 {
	Y, M, D := int64(y), int64(m), int64(d)
	switch c {
	case ProlepticGregorian:
		return gregorianToJDN(Y, M, D)
	case Julian:
		return julianToJDN(Y, M, D)
	case Standard:
		if j := gregorianToJDN(Y, M, D); j >= reformJDN {
			return j
		}
		return julianToJDN(Y, M, D)
	case NoLeap:
		return 365*Y + int64(cumDays[m-1]) + D - 1
	case AllLeap:
		return 366*Y + int64(cumDaysLeap[m-1]) + D - 1
	case Day360:
		return 360*Y + 30*(M-1) + D - 1
	default:
		panic(fmt.Errorf("cftime: invalid calendar %d", int(c)))
	}
}

// fromDayNumber is the inverse of dayNumber.
func (c Calendar) fromDayNumber(n int64) (y, m, d int) {
	switch c {
	case ProlepticGregorian:
		return jdnToGregorian(n)
	case Julian:
		return jdnToJulian(n)
	case Standard:
		if n >= reformJDN {
			return jdnToGregorian(n)
		}
		return jdnToJulian(n)
	case NoLeap, AllLeap:
		cum, length := cumDays, int64(365)
		if c == AllLeap {
			cum, length = cumDaysLeap, 366
		}
		y = int(floorDiv(n, length))
		doy := int(n - int64(y)*length)
		m = 1
		for doy >= cum[m] {
			m++
		}
		d = doy - cum[m-1] + 1
		return
	case Day360:
		y = int(floorDiv(n, 360))
		doy := int(n - int64(y)*360)
		return y, doy/30 + 1, doy%30 + 1
	default:
		panic(fmt.Errorf("cftime: invalid calendar %d", int(c)))
	}
}
