package timetable

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// BoundaryNotifier receives the "effective today has advanced" signal.
// Implemented by websocket.Broadcaster.
type BoundaryNotifier interface {
	BroadcastDayBoundary()
}

// DaySwitchScheduler fires a "day boundary crossed" signal at a configured
// time-of-day instead of literal midnight, so "today" highlighting can roll
// over when the user's school day actually ends. It never fetches anything.
//
// Two states: idle (no pending timer) and armed. The next boundary instant
// is always recomputed from the wall clock — today at the boundary time if
// that is still ahead, otherwise tomorrow — so a restarted process re-arms
// correctly without relying on surviving timer state.
type DaySwitchScheduler struct {
	notifier BoundaryNotifier
	now      func() time.Time

	mu     sync.Mutex
	hour   int
	minute int
	timer  *time.Timer
	armed  bool
}

// ParseBoundary parses a "HH:MM" time-of-day string.
func ParseBoundary(value string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, 0, fmt.Errorf("parsing boundary time %q: %w", value, err)
	}
	return t.Hour(), t.Minute(), nil
}

// NewDaySwitchScheduler creates a scheduler in the idle state with the
// given boundary time-of-day. notifier may be nil.
func NewDaySwitchScheduler(hour, minute int, notifier BoundaryNotifier) *DaySwitchScheduler {
	return &DaySwitchScheduler{
		notifier: notifier,
		now:      time.Now,
		hour:     hour,
		minute:   minute,
	}
}

// Start arms the timer for the next boundary instant.
func (s *DaySwitchScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.armLocked()
	log.Printf("Day switch scheduler armed for %02d:%02d", s.hour, s.minute)
}

// Stop cancels any pending timer and returns to idle.
func (s *DaySwitchScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disarmLocked()
}

// Refresh cancels any pending timer, fires the boundary signal
// immediately, and re-arms for the following boundary.
func (s *DaySwitchScheduler) Refresh() {
	s.mu.Lock()
	s.disarmLocked()
	s.armLocked()
	s.mu.Unlock()

	s.fire()
}

// SetBoundary updates the boundary time-of-day and recomputes the next
// instant. Values are clamped to a valid clock time.
func (s *DaySwitchScheduler) SetBoundary(hour, minute int) {
	if hour < 0 || hour > 23 {
		hour = 0
	}
	if minute < 0 || minute > 59 {
		minute = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.hour, s.minute = hour, minute
	if s.armed {
		s.disarmLocked()
		s.armLocked()
	}
	log.Printf("Day switch boundary set to %02d:%02d", hour, minute)
}

// Boundary returns the configured boundary as "HH:MM".
func (s *DaySwitchScheduler) Boundary() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("%02d:%02d", s.hour, s.minute)
}

// NextBoundary returns the instant the signal will next fire: today at the
// boundary time if "now" is still before it, otherwise tomorrow.
func (s *DaySwitchScheduler) NextBoundary() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextBoundaryLocked(s.now())
}

func (s *DaySwitchScheduler) nextBoundaryLocked(now time.Time) time.Time {
	boundary := time.Date(now.Year(), now.Month(), now.Day(), s.hour, s.minute, 0, 0, now.Location())
	if now.Before(boundary) {
		return boundary
	}
	return boundary.AddDate(0, 0, 1)
}

func (s *DaySwitchScheduler) armLocked() {
	now := s.now()
	next := s.nextBoundaryLocked(now)
	s.timer = time.AfterFunc(next.Sub(now), s.onBoundary)
	s.armed = true
}

func (s *DaySwitchScheduler) disarmLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.armed = false
}

// onBoundary broadcasts the crossing and immediately re-arms for the
// following day.
func (s *DaySwitchScheduler) onBoundary() {
	s.mu.Lock()
	if !s.armed {
		s.mu.Unlock()
		return
	}
	s.armLocked()
	s.mu.Unlock()

	s.fire()
}

func (s *DaySwitchScheduler) fire() {
	log.Println("Day boundary crossed")
	if s.notifier != nil {
		s.notifier.BroadcastDayBoundary()
	}
}
