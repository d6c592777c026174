package schedule

import "time"

// IsPenultimateWeekday reports whether d is the second-to-last occurrence of
// weekday w in its calendar month: d falls on w, d+7 days is still in the
// same month, and d+14 days is not. This holds independent of month length
// and leap years.
func IsPenultimateWeekday(d time.Time, w time.Weekday) bool {
	if d.Weekday() != w {
		return false
	}
	return d.AddDate(0, 0, 7).Month() == d.Month() &&
		d.AddDate(0, 0, 14).Month() != d.Month()
}
