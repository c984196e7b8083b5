package types

import "time"

// AddClampedDate adds years and months to t, clamping the day of month to the
// last valid day of the target month, and then adds days.
// For example Jan 31 + 1 month lands on Feb 29 in a leap year instead of
// rolling over into March the way time.AddDate does.
func AddClampedDate(t time.Time, years, months, days int) time.Time {
	y, m, d := t.Date()
	h, min, sec := t.Clock()

	// Day 1 never overflows, so time.Date normalises the month for us.
	first := time.Date(y+years, m+time.Month(months), 1, 0, 0, 0, 0, t.Location())

	if last := DaysInMonth(first.Year(), first.Month()); d > last {
		d = last
	}

	clamped := time.Date(first.Year(), first.Month(), d, h, min, sec, t.Nanosecond(), t.Location())
	if days == 0 {
		return clamped
	}
	return clamped.AddDate(0, 0, days)
}

// DaysInMonth returns the number of days in the given month
func DaysInMonth(year int, month time.Month) int {
	// day 0 of the next month is the last day of this one
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// IsLeapYear reports whether year has a February 29th
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInYear returns 366 for leap years and 365 otherwise
func DaysInYear(year int) int {
	if IsLeapYear(year) {
		return 366
	}
	return 365
}

// DaysBetween returns the number of calendar days from start to end.
// Both are compared as civil dates in start's location, so DST shifts and
// the time of day do not affect the count. The result is negative when end
// is before start.
func DaysBetween(start, end time.Time) int {
	end = end.In(start.Location())
	return JulianDayNumber(end.Date()) - JulianDayNumber(start.Date())
}

// JulianDayNumber returns the Julian day number of a proleptic Gregorian
// civil date. Valid for years after 4800 BC.
func JulianDayNumber(year int, month time.Month, day int) int {
	a := (int(month) - 14) / 12
	return (1461*(year+4800+a))/4 +
		(367*(int(month)-2-12*a))/12 -
		(3*((year+4900+a)/100))/4 +
		day - 32075
}

// LocationName returns the IANA name of loc, or "" for UTC, Local and fixed
// offset zones, which a serialized time.Time already carries fully or which
// cannot be loaded back by name.
func LocationName(loc *time.Location) string {
	if loc == nil || loc == time.UTC || loc == time.Local {
		return ""
	}
	name := loc.String()
	if _, err := time.LoadLocation(name); err != nil {
		return ""
	}
	return name
}

// ISOWeekday returns 1 for Monday through 7 for Sunday
func ISOWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}
