// Package week holds the pure calendar math for week-keyed caching.
//
// Every cache key in the system is derived from Identifier; no other
// component invents keys. All functions are deterministic and operate in
// the location of the date they are given.
package week

import (
	"time"
)

// KeyFormat is the layout of a week identifier: the Monday of the week.
const KeyFormat = "2006-01-02"

// StampFormat is the yyyyMMdd layout the upstream API uses for dates.
const StampFormat = "20060102"

// Identifier maps a date to the canonical cache key for its week: the
// Monday of that date's ISO week (Monday start), formatted as KeyFormat.
// Two dates in the same Monday-to-Sunday week yield an identical string.
func Identifier(date time.Time) string {
	return StartOfWeek(date).Format(KeyFormat)
}

// StartOfWeek returns the Monday of the given date's week, normalized to
// midnight in the date's location. Sunday belongs to the week that started
// the previous Monday.
func StartOfWeek(date time.Time) time.Time {
	d := Midnight(date)
	offset := (int(d.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	return d.AddDate(0, 0, -offset)
}

// Frame returns the Monday and Friday of the given date's week. Those are
// the bounds of every timetable request; weekends are never represented.
func Frame(date time.Time) (monday, friday time.Time) {
	monday = StartOfWeek(date)
	return monday, monday.AddDate(0, 0, 4)
}

// ForOffset returns the base date for a week offset relative to now:
// 0 = the current week, negative = past weeks, positive = future weeks.
func ForOffset(now time.Time, offset int) time.Time {
	return now.AddDate(0, 0, offset*7)
}

// Midnight normalizes a time to 00:00 on the same calendar day.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// IsWeekday reports whether t falls on Monday through Friday.
func IsWeekday(t time.Time) bool {
	wd := t.Weekday()
	return wd >= time.Monday && wd <= time.Friday
}
