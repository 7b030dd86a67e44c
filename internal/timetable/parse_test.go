package timetable

import (
	"testing"
	"time"

	"github.com/nice-timetable/backend/internal/storage/models"
)

func strPtr(s string) *string { return &s }

func localDate(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func TestToScheduleDaysPadsMissingPeriods(t *testing.T) {
	rows := []timetableRow{
		{Date: "20250901", Period: "1", Subject: "수학"},
		{Date: "20250901", Period: "3", Subject: "영어"},
	}

	days := toScheduleDays(rows)
	if len(days) != 1 {
		t.Fatalf("got %d days, want 1", len(days))
	}

	cols := days[0].Columns
	if len(cols) != 3 {
		t.Fatalf("got %d columns, want 3", len(cols))
	}
	if cols[0].Subject != "수학" || cols[2].Subject != "영어" {
		t.Errorf("unexpected subjects: %q, %q", cols[0].Subject, cols[2].Subject)
	}
	if cols[1].Period != 2 || cols[1].Subject != "" {
		t.Errorf("period 2 should be an empty placeholder, got %+v", cols[1])
	}
}

func TestToScheduleDaysFirstRowWinsPerSlot(t *testing.T) {
	rows := []timetableRow{
		{Date: "20250901", Period: "1", Subject: "수학", Room: strPtr("201")},
		{Date: "20250901", Period: "1", Subject: "체육"},
	}

	days := toScheduleDays(rows)
	if len(days) != 1 || len(days[0].Columns) != 1 {
		t.Fatalf("unexpected shape: %+v", days)
	}
	col := days[0].Columns[0]
	if col.Subject != "수학" {
		t.Errorf("duplicate slot should keep the first row, got %q", col.Subject)
	}
	if col.Room == nil || *col.Room != "201" {
		t.Errorf("room lost on dedup: %+v", col.Room)
	}
}

func TestToScheduleDaysSkipsInvalidPeriods(t *testing.T) {
	rows := []timetableRow{
		{Date: "20250901", Period: "0", Subject: "조회"},
		{Date: "20250901", Period: "abc", Subject: "잡음"},
		{Date: "20250902", Period: "1", Subject: "국어"},
	}

	days := toScheduleDays(rows)
	if len(days) != 1 {
		t.Fatalf("got %d days, want 1 (date with only invalid rows is dropped)", len(days))
	}
	if len(days[0].Columns) != 1 || days[0].Columns[0].Subject != "국어" {
		t.Errorf("valid day lost: %+v", days[0])
	}
}

func TestToScheduleDaysSortedByDate(t *testing.T) {
	rows := []timetableRow{
		{Date: "20250903", Period: "1", Subject: "c"},
		{Date: "20250901", Period: "1", Subject: "a"},
		{Date: "20250902", Period: "1", Subject: "b"},
	}

	days := toScheduleDays(rows)
	if len(days) != 3 {
		t.Fatalf("got %d days, want 3", len(days))
	}
	for i := 1; i < len(days); i++ {
		if !days[i-1].Date.Before(days[i].Date) {
			t.Errorf("days out of order: %v before %v", days[i-1].Date, days[i].Date)
		}
	}
}

func TestPadDaysFillsMissingWeekdays(t *testing.T) {
	monday := localDate(2025, time.September, 1)
	friday := localDate(2025, time.September, 5)

	// Only Wednesday has data.
	days := []models.ScheduleDay{
		{Date: localDate(2025, time.September, 3), Columns: []models.ScheduleColumn{{Period: 1, Subject: "수학"}}},
	}

	padded := PadDays(days, monday, friday)
	if len(padded) != 5 {
		t.Fatalf("got %d days, want 5", len(padded))
	}
	for i, d := range padded {
		want := monday.AddDate(0, 0, i)
		if !d.Date.Equal(want) {
			t.Errorf("day %d: date %v, want %v", i, d.Date, want)
		}
	}
	if len(padded[2].Columns) != 1 {
		t.Errorf("existing Wednesday data lost: %+v", padded[2])
	}
	if len(padded[0].Columns) != 0 || len(padded[4].Columns) != 0 {
		t.Error("padded days should be empty")
	}
}

func TestPadDaysSkipsWeekends(t *testing.T) {
	monday := localDate(2025, time.September, 1)
	sunday := localDate(2025, time.September, 7)

	padded := PadDays(nil, monday, sunday)
	if len(padded) != 5 {
		t.Fatalf("got %d days, want 5 (weekends skipped)", len(padded))
	}
	last := padded[len(padded)-1].Date
	if last.Weekday() != time.Friday {
		t.Errorf("last padded day is %v, want Friday", last.Weekday())
	}
}
