package util

import "time"

// DateLayout is the wire format for calendar dates (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// IsLeapYear reports whether y is a Gregorian leap year.
func IsLeapYear(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}

// DaysInYear returns 366 for leap years and 365 otherwise.
func DaysInYear(y int) int {
	if IsLeapYear(y) {
		return 366
	}
	return 365
}

// DaysInMonth returns the number of days of month m in year y.
func DaysInMonth(y int, m time.Month) int {
	switch m {
	case time.February:
		if IsLeapYear(y) {
			return 29
		}
		return 28
	case time.April, time.June, time.September, time.November:
		return 30
	default:
		return 31
	}
}

// Date returns midnight UTC of the given calendar day.
func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TruncateDay drops the clock part of t, keeping its calendar day in t's location.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return Date(y, m, d)
}

// ParseDate parses YYYY-MM-DD. Returns (t, true) on success.
func ParseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
