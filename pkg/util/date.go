package util

import "time"

// Day truncates t to midnight UTC of its calendar day in t's own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar day at midnight UTC.
func Today() time.Time { return Day(time.Now().UTC()) }

// DayRange returns n consecutive days ending at end (inclusive), ascending.
func DayRange(end time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	end = Day(end)
	out := make([]time.Time, n)
	for i := 0; i < n; i++ {
		out[i] = end.AddDate(0, 0, i-(n-1))
	}
	return out
}
