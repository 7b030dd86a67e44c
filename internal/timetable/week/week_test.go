package week

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestIdentifierSameForEveryDayOfWeek(t *testing.T) {
	// Monday 2025-09-01 through Sunday 2025-09-07 share one week.
	want := "2025-09-01"
	for day := 1; day <= 7; day++ {
		got := Identifier(date(2025, time.September, day))
		if got != want {
			t.Errorf("Identifier(Sep %d) = %q, want %q", day, got, want)
		}
	}
}

func TestIdentifierSundayBelongsToPreviousMonday(t *testing.T) {
	// Sunday 2025-09-07 belongs to the week that started Monday 2025-09-01,
	// not the week of 2025-09-08.
	got := Identifier(date(2025, time.September, 7))
	if got != "2025-09-01" {
		t.Errorf("Identifier(Sunday) = %q, want 2025-09-01", got)
	}
	if next := Identifier(date(2025, time.September, 8)); next != "2025-09-08" {
		t.Errorf("Identifier(next Monday) = %q, want 2025-09-08", next)
	}
}

func TestStartOfWeekNormalizesToMidnight(t *testing.T) {
	noisy := time.Date(2025, time.September, 3, 14, 35, 12, 999, time.UTC)
	start := StartOfWeek(noisy)
	if !start.Equal(date(2025, time.September, 1)) {
		t.Errorf("StartOfWeek = %v, want 2025-09-01 00:00", start)
	}
}

func TestFrame(t *testing.T) {
	monday, friday := Frame(date(2025, time.September, 3))
	if !monday.Equal(date(2025, time.September, 1)) {
		t.Errorf("monday = %v, want 2025-09-01", monday)
	}
	if !friday.Equal(date(2025, time.September, 5)) {
		t.Errorf("friday = %v, want 2025-09-05", friday)
	}
}

func TestFrameCrossesMonthBoundary(t *testing.T) {
	// Wednesday 2025-07-30: the week runs Mon Jul 28 .. Fri Aug 1.
	monday, friday := Frame(date(2025, time.July, 30))
	if !monday.Equal(date(2025, time.July, 28)) {
		t.Errorf("monday = %v, want 2025-07-28", monday)
	}
	if !friday.Equal(date(2025, time.August, 1)) {
		t.Errorf("friday = %v, want 2025-08-01", friday)
	}
}

func TestForOffset(t *testing.T) {
	now := date(2025, time.September, 3)
	tests := []struct {
		offset int
		want   string
	}{
		{-1, "2025-08-25"},
		{0, "2025-09-01"},
		{1, "2025-09-08"},
		{2, "2025-09-15"},
	}
	for _, tt := range tests {
		got := Identifier(ForOffset(now, tt.offset))
		if got != tt.want {
			t.Errorf("offset %d: got %q, want %q", tt.offset, got, tt.want)
		}
	}
}

func TestIsWeekday(t *testing.T) {
	if !IsWeekday(date(2025, time.September, 5)) { // Friday
		t.Error("Friday should be a weekday")
	}
	if IsWeekday(date(2025, time.September, 6)) { // Saturday
		t.Error("Saturday should not be a weekday")
	}
	if IsWeekday(date(2025, time.September, 7)) { // Sunday
		t.Error("Sunday should not be a weekday")
	}
}
