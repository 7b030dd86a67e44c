package timetable

import (
	"sync"
	"testing"
	"time"
)

type boundaryRecorder struct {
	mu      sync.Mutex
	count   int
	crossed chan struct{}
}

func newBoundaryRecorder() *boundaryRecorder {
	return &boundaryRecorder{crossed: make(chan struct{}, 16)}
}

func (r *boundaryRecorder) BroadcastDayBoundary() {
	r.mu.Lock()
	r.count++
	r.mu.Unlock()
	select {
	case r.crossed <- struct{}{}:
	default:
	}
}

func (r *boundaryRecorder) fired() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

func TestParseBoundary(t *testing.T) {
	hour, minute, err := ParseBoundary("06:30")
	if err != nil || hour != 6 || minute != 30 {
		t.Errorf("ParseBoundary(06:30) = (%d, %d, %v)", hour, minute, err)
	}
	if _, _, err := ParseBoundary("25:00"); err == nil {
		t.Error("ParseBoundary should reject an invalid hour")
	}
	if _, _, err := ParseBoundary("noon"); err == nil {
		t.Error("ParseBoundary should reject non-numeric input")
	}
}

func TestNextBoundaryTodayWhenStillAhead(t *testing.T) {
	s := NewDaySwitchScheduler(18, 0, nil)
	s.now = func() time.Time {
		return time.Date(2025, time.September, 3, 10, 0, 0, 0, time.Local)
	}

	next := s.NextBoundary()
	want := time.Date(2025, time.September, 3, 18, 0, 0, 0, time.Local)
	if !next.Equal(want) {
		t.Errorf("NextBoundary = %v, want %v", next, want)
	}
}

func TestNextBoundaryTomorrowWhenPassed(t *testing.T) {
	s := NewDaySwitchScheduler(18, 0, nil)
	s.now = func() time.Time {
		return time.Date(2025, time.September, 3, 18, 0, 0, 0, time.Local)
	}

	// Exactly at the boundary counts as passed.
	next := s.NextBoundary()
	want := time.Date(2025, time.September, 4, 18, 0, 0, 0, time.Local)
	if !next.Equal(want) {
		t.Errorf("NextBoundary = %v, want %v", next, want)
	}
}

func TestSetBoundaryClampsInvalidValues(t *testing.T) {
	s := NewDaySwitchScheduler(6, 30, nil)
	s.SetBoundary(99, -5)
	if got := s.Boundary(); got != "00:00" {
		t.Errorf("Boundary = %q, want clamped 00:00", got)
	}
	s.SetBoundary(23, 59)
	if got := s.Boundary(); got != "23:59" {
		t.Errorf("Boundary = %q, want 23:59", got)
	}
}

func TestRefreshFiresImmediately(t *testing.T) {
	recorder := newBoundaryRecorder()
	s := NewDaySwitchScheduler(6, 30, recorder)
	defer s.Stop()

	s.Refresh()
	if recorder.fired() < 1 {
		t.Error("Refresh should fire the boundary signal immediately")
	}
}

func TestTimerFiresAtBoundary(t *testing.T) {
	recorder := newBoundaryRecorder()
	s := NewDaySwitchScheduler(18, 0, recorder)
	// Freeze "now" a few milliseconds before the boundary so the armed
	// timer fires almost immediately in real time.
	s.now = func() time.Time {
		return time.Date(2025, time.September, 3, 17, 59, 59, int(990*time.Millisecond), time.Local)
	}

	s.Start()
	defer s.Stop()

	select {
	case <-recorder.crossed:
	case <-time.After(2 * time.Second):
		t.Fatal("boundary signal never fired")
	}
}

func TestStopPreventsFiring(t *testing.T) {
	recorder := newBoundaryRecorder()
	s := NewDaySwitchScheduler(18, 0, recorder)
	s.now = func() time.Time {
		return time.Date(2025, time.September, 3, 17, 59, 59, int(950*time.Millisecond), time.Local)
	}

	s.Start()
	s.Stop()

	select {
	case <-recorder.crossed:
		t.Error("stopped scheduler still fired")
	case <-time.After(200 * time.Millisecond):
	}
}
