package timeutil

import "time"

// dayKeyFormat is the calendar-date layout used as the daily-stats bucket key.
const dayKeyFormat = "2006-01-02"

// Elapsed returns the wall-clock time between start and end. A backward
// clock jump (end before start) yields zero, never a negative duration.
// Sub-millisecond precision is preserved.
func Elapsed(start, end time.Time) time.Duration {
	d := end.Sub(start)
	if d < 0 {
		return 0
	}
	return d
}

// Since returns the elapsed time from start until now.
func Since(start time.Time) time.Duration {
	return Elapsed(start, time.Now())
}

// DayKey formats t's local calendar date as a daily-stats bucket key,
// e.g. "2026-08-30".
func DayKey(t time.Time) string {
	return t.Format(dayKeyFormat)
}

// ParseDayKey parses a daily-stats bucket key back into a time at local
// midnight.
func ParseDayKey(key string) (time.Time, error) {
	return time.ParseInLocation(dayKeyFormat, key, time.Local)
}
