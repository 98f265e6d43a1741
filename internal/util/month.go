package util

import "time"

// MonthStart returns 00:00 on the first day of t's month in loc
func MonthStart(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
}

// MonthEnd returns the last instant of t's month in loc
func MonthEnd(t time.Time, loc *time.Location) time.Time {
	return MonthStart(t, loc).AddDate(0, 1, 0).Add(-time.Nanosecond)
}

// DayEnd returns the last instant of t's calendar day in loc
func DayEnd(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// TrailingMonths returns the first day of each of the count months ending with
// now's month, oldest first
func TrailingMonths(now time.Time, count int, loc *time.Location) []time.Time {
	if count <= 0 {
		return nil
	}
	current := MonthStart(now, loc)
	months := make([]time.Time, count)
	for i := 0; i < count; i++ {
		months[i] = current.AddDate(0, i-count+1, 0)
	}
	return months
}

// CeilDays returns the number of days until target, rounded up, never negative
func CeilDays(now, target time.Time) int {
	d := target.Sub(now)
	if d <= 0 {
		return 0
	}
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) != 0 {
		days++
	}
	return days
}
