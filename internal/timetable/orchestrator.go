package timetable

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/nice-timetable/backend/internal/storage/models"
	"github.com/nice-timetable/backend/internal/timetable/week"
)

// CacheStore is the shared persistent week cache the orchestrator reads
// and writes. Implemented by storage.CacheRepository; tests use an
// in-memory fake.
type CacheStore interface {
	Get(ctx context.Context, weekKey string, maxAge time.Duration) ([]models.ScheduleDay, bool)
	Set(ctx context.Context, weekKey string, days []models.ScheduleDay) error
	PruneExpired(ctx context.Context, keepMin, keepMax int) error
	SetPendingReload(ctx context.Context, pending bool) error
}

// Fetcher retrieves one week of canonical days from the remote source.
// Implemented by *Client.
type Fetcher interface {
	FetchTimetable(ctx context.Context, identity models.SchoolIdentity, startDate, endDate time.Time) ([]models.ScheduleDay, error)
}

// IdentityProvider supplies the configured school identity.
// Implemented by storage.SettingsRepository.
type IdentityProvider interface {
	SchoolIdentity(ctx context.Context) (models.SchoolIdentity, error)
}

// SurfaceNotifier delivers invalidation signals to display surfaces.
// Implemented by websocket.Broadcaster; nil disables notification.
type SurfaceNotifier interface {
	BroadcastSurfacesReload(reason string)
	BroadcastWeekUpdated(offset int)
	BroadcastWeekSyncError(offset int, message string)
}

// FreshnessPolicy holds the two cache windows: one for interactive reads
// and a shorter one for weeks cached as empty, so the app re-checks soon
// after the school publishes.
type FreshnessPolicy struct {
	Interactive time.Duration
	Empty       time.Duration
}

// DefaultFreshness mirrors the app's historical behavior: two days for a
// populated week, two hours for an empty one.
func DefaultFreshness() FreshnessPolicy {
	return FreshnessPolicy{
		Interactive: 48 * time.Hour,
		Empty:       2 * time.Hour,
	}
}

// Retention window for PruneOldEntries, in week offsets relative to today.
const (
	RetainMinOffset = -1
	RetainMaxOffset = 2
)

// Orchestrator is the façade every display surface goes through. It
// decides cache-vs-fetch, fans out multi-week loads, detects content drift
// on revalidation, and triggers surface invalidation. Its in-memory window
// is a transient per-process projection, rebuildable at any time from the
// cache store and the fetcher.
type Orchestrator struct {
	fetcher   Fetcher
	store     CacheStore
	identity  IdentityProvider
	notifier  SurfaceNotifier
	freshness FreshnessPolicy

	now func() time.Time

	mu       sync.Mutex
	weeks    map[int][]models.ScheduleDay
	errs     map[int]error
	inflight map[string]*inflightFetch
}

// inflightFetch lets a second caller for the same week key await the
// in-flight result instead of issuing a duplicate network call.
type inflightFetch struct {
	done chan struct{}
	days []models.ScheduleDay
	err  error
}

// NewOrchestrator creates the schedule orchestrator. notifier may be nil.
func NewOrchestrator(fetcher Fetcher, store CacheStore, identity IdentityProvider, notifier SurfaceNotifier, freshness FreshnessPolicy) *Orchestrator {
	if freshness.Interactive <= 0 {
		freshness = DefaultFreshness()
	}
	return &Orchestrator{
		fetcher:   fetcher,
		store:     store,
		identity:  identity,
		notifier:  notifier,
		freshness: freshness,
		now:       time.Now,
		weeks:     make(map[int][]models.ScheduleDay),
		errs:      make(map[int]error),
		inflight:  make(map[string]*inflightFetch),
	}
}

// Week returns the in-memory days and error marker for an offset.
func (o *Orchestrator) Week(offset int) ([]models.ScheduleDay, error, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	days, ok := o.weeks[offset]
	return days, o.errs[offset], ok
}

// Window returns the materialized offsets in ascending order.
func (o *Orchestrator) Window() []int {
	o.mu.Lock()
	defer o.mu.Unlock()
	offsets := make([]int, 0, len(o.weeks))
	for offset := range o.weeks {
		offsets = append(offsets, offset)
	}
	sort.Ints(offsets)
	return offsets
}

// LoadFromCache materializes an offset from the last known good cache
// entry, regardless of age, for instant display before revalidation.
func (o *Orchestrator) LoadFromCache(ctx context.Context, offset int) bool {
	key := week.Identifier(week.ForOffset(o.now(), offset))
	days, ok := o.store.Get(ctx, key, 0)
	if !ok {
		return false
	}

	o.mu.Lock()
	o.weeks[offset] = days
	delete(o.errs, offset)
	o.mu.Unlock()
	return true
}

// LoadInitialWindow materializes offsets -1, 0 and +1 concurrently. The
// current week is always force-revalidated since it is the default view;
// the neighbors honor the cache. A failure in one offset never affects the
// others; each is recorded per-offset.
func (o *Orchestrator) LoadInitialWindow(ctx context.Context) {
	var wg sync.WaitGroup
	for _, offset := range []int{-1, 0, 1} {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			if offset == 0 {
				o.Revalidate(ctx, 0)
				return
			}
			o.loadOffset(ctx, offset, false)
		}(offset)
	}
	wg.Wait()
}

// Revalidate force-fetches one offset, bypassing the cache read but still
// writing the result back. When the fetched content differs structurally
// from the in-memory week, the in-memory entry is replaced and — only for
// offset 0, the week that drives the default widget view — all display
// surfaces are signalled to reload.
func (o *Orchestrator) Revalidate(ctx context.Context, offset int) error {
	days, err := o.fetchWeek(ctx, offset, true)
	if err != nil && days == nil {
		o.recordError(offset, err)
		return err
	}

	o.mu.Lock()
	previous, hadPrevious := o.weeks[offset]
	changed := !hadPrevious || !models.DaysEqual(previous, days)
	o.weeks[offset] = days
	if err != nil {
		o.errs[offset] = err
	} else {
		delete(o.errs, offset)
	}
	o.mu.Unlock()

	if changed {
		if offset == 0 {
			// Widget processes poll this flag; they may not hold a live
			// WebSocket connection when the content drifts.
			if ferr := o.store.SetPendingReload(ctx, true); ferr != nil {
				log.Printf("Failed to flag pending reload: %v", ferr)
			}
		}
		if o.notifier != nil {
			o.notifier.BroadcastWeekUpdated(offset)
			if offset == 0 {
				o.notifier.BroadcastSurfacesReload("current week changed")
			}
		}
	}

	return err
}

// Load materializes one offset on demand, honoring the cache. Offsets that
// are already materialized are left alone.
func (o *Orchestrator) Load(ctx context.Context, offset int) {
	o.mu.Lock()
	_, materialized := o.weeks[offset]
	o.mu.Unlock()
	if materialized {
		return
	}
	o.loadOffset(ctx, offset, false)
}

// ExtendWindow grows the materialized window by exactly one offset when
// the visible offset has reached the window's edge. Interior offsets are
// left alone; nothing is re-fetched.
func (o *Orchestrator) ExtendWindow(ctx context.Context, toOffset int) (int, bool) {
	o.mu.Lock()
	if len(o.weeks) == 0 {
		o.mu.Unlock()
		return 0, false
	}
	min, max := 0, 0
	first := true
	for offset := range o.weeks {
		if first {
			min, max = offset, offset
			first = false
			continue
		}
		if offset < min {
			min = offset
		}
		if offset > max {
			max = offset
		}
	}
	o.mu.Unlock()

	// Compare both edges separately: a single-offset window has min == max
	// and must still be extensible in either direction.
	var target int
	switch {
	case toOffset == max:
		target = max + 1
	case toOffset == min:
		target = min - 1
	default:
		return 0, false
	}

	o.loadOffset(ctx, target, false)
	return target, true
}

// PruneOldEntries drops cached weeks outside the fixed retention window.
// Called opportunistically (app foreground, daily job), not on every write.
func (o *Orchestrator) PruneOldEntries(ctx context.Context) error {
	return o.store.PruneExpired(ctx, RetainMinOffset, RetainMaxOffset)
}

// loadOffset materializes one offset, honoring the cache, and records the
// result or the per-offset error marker.
func (o *Orchestrator) loadOffset(ctx context.Context, offset int, bypassCache bool) {
	days, err := o.fetchWeek(ctx, offset, bypassCache)
	if err != nil && days == nil {
		o.recordError(offset, err)
		return
	}

	o.mu.Lock()
	o.weeks[offset] = days
	if err != nil {
		o.errs[offset] = err
	} else {
		delete(o.errs, offset)
	}
	o.mu.Unlock()
}

// recordError stores a per-offset error marker without touching any
// previously materialized days for that offset.
func (o *Orchestrator) recordError(offset int, err error) {
	o.mu.Lock()
	o.errs[offset] = err
	o.mu.Unlock()

	if o.notifier != nil && !Terminal(err) {
		o.notifier.BroadcastWeekSyncError(offset, err.Error())
	}
	log.Printf("Week %+d load failed: %v", offset, err)
}

// fetchWeek resolves one week of days: cache when permitted and fresh,
// otherwise a live fetch written back to the store. An empty upstream
// result is cached as a padded empty week and reported as ErrNoSchedule
// alongside the days, so callers can both display and mark it.
//
// Within one process at most one fetch per week key is in flight; a second
// caller awaits the first one's result.
func (o *Orchestrator) fetchWeek(ctx context.Context, offset int, bypassCache bool) ([]models.ScheduleDay, error) {
	identity, err := o.identity.SchoolIdentity(ctx)
	if err != nil {
		return nil, err
	}
	if !identity.Complete() {
		return nil, ErrBadConfiguration
	}

	base := week.ForOffset(o.now(), offset)
	monday, friday := week.Frame(base)
	key := week.Identifier(base)

	if !bypassCache {
		if days, ok := o.store.Get(ctx, key, o.freshness.Interactive); ok {
			if !models.DaysEmpty(days) {
				return days, nil
			}
			// Empty weeks live on the shorter window.
			if _, stillFresh := o.store.Get(ctx, key, o.freshness.Empty); stillFresh {
				return days, ErrNoSchedule
			}
		}
	}

	o.mu.Lock()
	if call, ok := o.inflight[key]; ok {
		o.mu.Unlock()
		select {
		case <-call.done:
			return call.days, call.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	call := &inflightFetch{done: make(chan struct{})}
	o.inflight[key] = call
	o.mu.Unlock()

	days, err := o.fetcher.FetchTimetable(ctx, identity, monday, friday)
	switch {
	case err == nil:
		if werr := o.store.Set(ctx, key, days); werr != nil {
			// Persistence failure is a non-fatal warning; the in-memory
			// view stays correct.
			log.Printf("Failed to persist week %s: %v", key, werr)
		}
	case errors.Is(err, ErrNoSchedule):
		days = PadDays(nil, monday, friday)
		if werr := o.store.Set(ctx, key, days); werr != nil {
			log.Printf("Failed to persist empty week %s: %v", key, werr)
		}
	}

	call.days, call.err = days, err
	close(call.done)

	o.mu.Lock()
	delete(o.inflight, key)
	o.mu.Unlock()

	return days, err
}
