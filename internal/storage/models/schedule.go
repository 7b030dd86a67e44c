// Package models contains the domain models for the application.
package models

import (
	"time"
)

// ScheduleColumn represents one class period within a day.
// An empty Subject means "no class scheduled" for that period.
type ScheduleColumn struct {
	Period      int     `json:"period"`
	Subject     string  `json:"subject"`
	Room        *string `json:"room,omitempty"`
	LastUpdated *string `json:"last_updated,omitempty"`
}

// Equal reports structural equality over all four fields.
func (c ScheduleColumn) Equal(other ScheduleColumn) bool {
	return c.Period == other.Period &&
		c.Subject == other.Subject &&
		equalStringPtr(c.Room, other.Room) &&
		equalStringPtr(c.LastUpdated, other.LastUpdated)
}

// ScheduleDay represents one weekday's timetable. Columns are ordered by
// ascending period and form a contiguous 1..max run after padding. A day
// with zero columns is a valid holiday/empty day.
type ScheduleDay struct {
	Date    time.Time        `json:"date"`
	Columns []ScheduleColumn `json:"columns"`
}

// Equal reports structural equality of the date and every column.
func (d ScheduleDay) Equal(other ScheduleDay) bool {
	if !d.Date.Equal(other.Date) || len(d.Columns) != len(other.Columns) {
		return false
	}
	for i := range d.Columns {
		if !d.Columns[i].Equal(other.Columns[i]) {
			return false
		}
	}
	return true
}

// DaysEqual reports structural equality of two day sequences.
func DaysEqual(a, b []ScheduleDay) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// DaysEmpty reports whether no day in the sequence carries any column.
// Used to apply the shorter freshness window to negative-result weeks.
func DaysEmpty(days []ScheduleDay) bool {
	for _, d := range days {
		if len(d.Columns) > 0 {
			return false
		}
	}
	return true
}

// ScheduleWeek is a week of days plus its offset from the current week
// (0 = this week, negative = past, positive = future).
type ScheduleWeek struct {
	WeekOffset int           `json:"week_offset"`
	Days       []ScheduleDay `json:"days"`
}

// CachedSchedule is the payload persisted per week key in the cache store.
type CachedSchedule struct {
	Timestamp time.Time     `json:"timestamp"`
	Days      []ScheduleDay `json:"days"`
}

// SchoolIdentity is the configuration the fetcher needs to address one
// class at one school. Read-only to the schedule core.
type SchoolIdentity struct {
	SchoolType string `json:"school_type"`
	OfficeCode string `json:"office_code"`
	SchoolCode string `json:"school_code"`
	Grade      string `json:"grade"`
	ClassName  string `json:"class_name"`
}

// Complete reports whether every field required for a timetable fetch is set.
func (s SchoolIdentity) Complete() bool {
	return s.SchoolType != "" && s.OfficeCode != "" && s.SchoolCode != "" &&
		s.Grade != "" && s.ClassName != ""
}

// School is one result row from the school search endpoint.
type School struct {
	OfficeCode string `json:"office_code"`
	OfficeName string `json:"office_name"`
	SchoolCode string `json:"school_code"`
	SchoolName string `json:"school_name"`
	SchoolType string `json:"school_type"`
	Address    string `json:"address,omitempty"`
}

// SchoolClass is one grade/class pair from the class roster endpoint.
type SchoolClass struct {
	Grade     string `json:"grade"`
	ClassName string `json:"class_name"`
}

// AliasPair holds the user's display aliases for one subject.
// Normal is shown in full-size views, Compact in the smallest widgets.
type AliasPair struct {
	Normal  string `json:"normal"`
	Compact string `json:"compact"`
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
