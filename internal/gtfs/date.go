package gtfs

import (
	"fmt"
	"time"
)

// Date is a calendar day packed as (year-1900)*10000 + month*100 + day.
// The zero Date is empty. Packed values order the same way as the days
// they represent.
type Date uint32

// NewDate packs a year, month and day. Out-of-range components are
// normalized the way time.Date does.
func NewDate(year, month, day int) Date {
	return DateOf(time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC))
}

// DateFromInt converts a YYYYMMDD integer.
func DateFromInt(yyyymmdd int) Date {
	if yyyymmdd <= 0 {
		return 0
	}
	return Date(yyyymmdd - 19000000)
}

// DateOf returns the calendar day of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date((y-1900)*10000 + int(m)*100 + d)
}

func (d Date) Empty() bool { return d == 0 }
func (d Date) Year() int   { return int(d)/10000 + 1900 }
func (d Date) Month() int  { return int(d) / 100 % 100 }
func (d Date) Day() int    { return int(d) % 100 }

// Int returns the YYYYMMDD form, or 0 for an empty date.
func (d Date) Int() int {
	if d.Empty() {
		return 0
	}
	return int(d) + 19000000
}

// Time returns midnight UTC of d.
func (d Date) Time() time.Time {
	return time.Date(d.Year(), time.Month(d.Month()), d.Day(), 0, 0, 0, 0, time.UTC)
}

// AddDays moves d by n days, crossing month and year boundaries as needed.
func (d Date) AddDays(n int) Date {
	if d.Empty() {
		return d
	}
	return DateOf(d.Time().AddDate(0, 0, n))
}

func (d Date) Weekday() time.Weekday { return d.Time().Weekday() }

func (d Date) Before(o Date) bool { return d < o }
func (d Date) After(o Date) bool  { return d > o }

// String renders YYYYMMDD, or "" for an empty date.
func (d Date) String() string {
	if d.Empty() {
		return ""
	}
	return fmt.Sprintf("%04d%02d%02d", d.Year(), d.Month(), d.Day())
}
