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
	"math"
	"regexp"
	"strconv"
	"strings"
)

const secondsPerDay = 86400

// unitSeconds holds the length in seconds of the time units allowed
// before "since". Months and years are only defined for Day360.
var unitSeconds = map[string]float64{
	"microsecond": 1e-6, "microseconds": 1e-6, "us": 1e-6,
	"millisecond": 1e-3, "milliseconds": 1e-3, "msec": 1e-3, "msecs": 1e-3, "ms": 1e-3,
	"second": 1, "seconds": 1, "sec": 1, "secs": 1, "s": 1,
	"minute": 60, "minutes": 60, "min": 60, "mins": 60,
	"hour": 3600, "hours": 3600, "hr": 3600, "hrs": 3600, "h": 3600,
	"day": secondsPerDay, "days": secondsPerDay, "d": secondsPerDay,
}

var calendarUnitDays = map[string]float64{
	"month": 30, "months": 30,
	"year": 360, "years": 360,
}

var (
	unitsRe = regexp.MustCompile(`^\s*([A-Za-z]+)\s+since\s+(.+?)\s*$`)
	refRe   = regexp.MustCompile(`^(-?\d+)-(\d{1,2})-(\d{1,2})` +
		`(?:[ T]+(\d{1,2}):(\d{1,2})(?::(\d{1,2}(?:\.\d*)?))?)?` +
		`\s*(Z|UTC|GMT|[+-]\d{1,2}(?::?\d{2})?)?$`)
)

// Units is a parsed CF time unit string such as
// "hours since 1970-01-01 00:00:00".
type Units struct {
	// Unit is the unit name as it appeared in the string.
	Unit string

	// Reference is the reference date, converted to UTC.
	Reference Date

	calendar Calendar
	seconds  float64 // length of Unit in seconds
	refDay   int64   // day number of Reference in calendar
	refSec   float64 // seconds into refDay of Reference
}

// ParseUnits parses a CF time unit string for the given calendar.
func ParseUnits(units string, c Calendar) (Units, error) {
	m := unitsRe.FindStringSubmatch(units)
	if m == nil {
		return Units{}, fmt.Errorf("cftime: invalid time units %q", units)
	}
	u := Units{Unit: m[1], calendar: c}
	name := strings.ToLower(m[1])
	if s, ok := unitSeconds[name]; ok {
		u.seconds = s
	} else if d, ok := calendarUnitDays[name]; ok && c == Day360 {
		u.seconds = d * secondsPerDay
	} else if ok {
		return Units{}, fmt.Errorf("cftime: %q units are only allowed with the 360_day calendar", m[1])
	} else {
		return Units{}, fmt.Errorf("cftime: unknown time unit %q", m[1])
	}
	ref, offset, err := parseReference(m[2], c)
	if err != nil {
		return Units{}, err
	}
	u.refDay = c.dayNumber(ref.Year, ref.Month, ref.Day)
	u.refSec = float64(ref.Hour*3600+ref.Minute*60+ref.Second) + float64(ref.Nanosecond)/1e9 - offset
	u.Reference = u.date(0)
	return u, nil
}

// parseReference parses the reference date of a unit string, returning
// the date as written and its UTC offset in seconds.
func parseReference(s string, c Calendar) (Date, float64, error) {
	m := refRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Date{}, 0, fmt.Errorf("cftime: invalid reference date %q", s)
	}
	atoi := func(s string) int {
		if s == "" {
			return 0
		}
		v, _ := strconv.Atoi(s)
		return v
	}
	d := Date{
		Year:     atoi(m[1]),
		Month:    atoi(m[2]),
		Day:      atoi(m[3]),
		Hour:     atoi(m[4]),
		Minute:   atoi(m[5]),
		Calendar: c,
	}
	if m[6] != "" {
		sec, err := strconv.ParseFloat(m[6], 64)
		if err != nil {
			return Date{}, 0, fmt.Errorf("cftime: invalid seconds in reference date %q: %v", s, err)
		}
		d.Second = int(sec)
		d.Nanosecond = int(math.Round((sec - float64(d.Second)) * 1e9))
	}
	if d.Hour > 23 || d.Minute > 59 || d.Second > 59 {
		return Date{}, 0, fmt.Errorf("cftime: invalid time of day in reference date %q", s)
	}
	if err := c.validDate(d.Year, d.Month, d.Day); err != nil {
		return Date{}, 0, err
	}
	offset, err := parseOffset(m[7])
	if err != nil {
		return Date{}, 0, fmt.Errorf("cftime: reference date %q: %v", s, err)
	}
	return d, offset, nil
}

// parseOffset parses a UTC offset like "+05:30", "-6" or "Z".
func parseOffset(tz string) (float64, error) {
	switch tz {
	case "", "Z", "UTC", "GMT":
		return 0, nil
	}
	sign := 1.
	if tz[0] == '-' {
		sign = -1
	}
	tz = strings.Replace(tz[1:], ":", "", 1)
	var h, m int
	var err error
	if len(tz) <= 2 {
		h, err = strconv.Atoi(tz)
	} else {
		h, err = strconv.Atoi(tz[:len(tz)-2])
		if err == nil {
			m, err = strconv.Atoi(tz[len(tz)-2:])
		}
	}
	if err != nil {
		return 0, fmt.Errorf("invalid UTC offset: %v", err)
	}
	return sign * float64(h*3600+m*60), nil
}

// Decode converts value, expressed in u, to a date.
func (u Units) Decode(value float64) (Date, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return Date{}, fmt.Errorf("cftime: cannot decode non-finite time value %g", value)
	}
	total := value*u.seconds + u.refSec
	days := math.Floor(total / secondsPerDay)
	if math.Abs(days) > 1e12 {
		return Date{}, fmt.Errorf("cftime: time value %g %s is out of range", value, u.Unit)
	}
	return u.dateAt(int64(days), total-days*secondsPerDay), nil
}

// date returns the date at the given number of seconds after the
// start of the reference day.
func (u Units) date(seconds float64) Date {
	total := u.refSec + seconds
	days := math.Floor(total / secondsPerDay)
	return u.dateAt(int64(days), total-days*secondsPerDay)
}

func (u Units) dateAt(days int64, secOfDay float64) Date {
	// Round to the microsecond to hide floating point noise.
	ns := int64(math.Round(secOfDay*1e6)) * 1000
	if ns >= secondsPerDay*1e9 {
		days++
		ns -= secondsPerDay * 1e9
	}
	y, m, d := u.calendar.fromDayNumber(u.refDay + days)
	sec := ns / 1e9
	return Date{
		Year:       y,
		Month:      m,
		Day:        d,
		Hour:       int(sec / 3600),
		Minute:     int(sec % 3600 / 60),
		Second:     int(sec % 60),
		Nanosecond: int(ns % 1e9),
		Calendar:   u.calendar,
	}
}

// Decode converts value to a date, using the given CF units and calendar
// attribute values. An empty calendar means Standard.
func Decode(value float64, units, calendar string) (Date, error) {
	c, err := ParseCalendar(calendar)
	if err != nil {
		return Date{}, err
	}
	u, err := ParseUnits(units, c)
	if err != nil {
		return Date{}, err
	}
	return u.Decode(value)
}
