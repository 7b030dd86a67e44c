package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nice-timetable/backend/internal/storage/models"
	"github.com/nice-timetable/backend/internal/timetable/week"
)

// cacheKeyPrefix namespaces schedule rows so other tooling reading the
// shared database can recognize them. The full key is
// "cachedSchedule_" + week identifier (the Monday date string).
const cacheKeyPrefix = "cachedSchedule_"

// pendingReloadKey is the settings row that records whether a cross-process
// invalidation is still owed to widget surfaces that poll rather than hold
// a WebSocket connection.
const pendingReloadKey = "shouldReloadSurfaces"

// CacheRepository is the persistent week-keyed schedule cache shared by
// every display-surface process. Writes are last-writer-wins wholesale
// overwrites; readers tolerate concurrent writers because each entry is a
// single row written in one statement.
type CacheRepository struct {
	BaseRepository
}

// NewCacheRepository creates a new schedule cache repository.
func NewCacheRepository(db *DB) *CacheRepository {
	return &CacheRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Get returns the cached days for the given week key, or (nil, false) when
// there is no entry, the entry is older than maxAge, or the stored record
// cannot be decoded. A zero maxAge disables the freshness check and returns
// the last known good payload regardless of age.
//
// Corruption is never surfaced: an undecodable row is deleted and reported
// as a miss.
func (r *CacheRepository) Get(ctx context.Context, weekKey string, maxAge time.Duration) ([]models.ScheduleDay, bool) {
	var fetchedAt time.Time
	var payload []byte

	err := r.DB().QueryRowContext(ctx, `
		SELECT fetched_at, payload FROM schedule_cache WHERE cache_key = ?
	`, cacheKeyPrefix+weekKey).Scan(&fetchedAt, &payload)

	if err == sql.ErrNoRows {
		return nil, false
	}
	if err != nil {
		log.Printf("Cache read failed for %s: %v", weekKey, err)
		return nil, false
	}

	if maxAge > 0 && time.Since(fetchedAt) >= maxAge {
		return nil, false
	}

	var cached models.CachedSchedule
	if err := json.Unmarshal(payload, &cached); err != nil {
		log.Printf("Corrupt cache entry for %s, dropping: %v", weekKey, err)
		if err := r.Purge(ctx, weekKey); err != nil {
			log.Printf("Failed to drop corrupt entry %s: %v", weekKey, err)
		}
		return nil, false
	}

	return cached.Days, true
}

// Set unconditionally overwrites the entry for the given week key,
// stamping the current time. There is no field-level merge.
func (r *CacheRepository) Set(ctx context.Context, weekKey string, days []models.ScheduleDay) error {
	cached := models.CachedSchedule{
		Timestamp: r.Now(),
		Days:      days,
	}

	payload, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}

	_, err = r.DB().ExecContext(ctx, `
		INSERT INTO schedule_cache (cache_key, fetched_at, payload, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(cache_key) DO UPDATE SET
			fetched_at = excluded.fetched_at,
			payload    = excluded.payload,
			updated_at = CURRENT_TIMESTAMP
	`, cacheKeyPrefix+weekKey, cached.Timestamp, payload)

	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}

	return nil
}

// Purge removes the entry for one week key.
func (r *CacheRepository) Purge(ctx context.Context, weekKey string) error {
	_, err := r.DB().ExecContext(ctx,
		`DELETE FROM schedule_cache WHERE cache_key = ?`, cacheKeyPrefix+weekKey)
	if err != nil {
		return fmt.Errorf("purging cache entry: %w", err)
	}
	return nil
}

// PurgeAll removes every cached week and raises the pending-reload flag so
// polling surfaces notice the invalidation. The caller is responsible for
// broadcasting to live WebSocket surfaces.
func (r *CacheRepository) PurgeAll(ctx context.Context) error {
	_, err := r.DB().ExecContext(ctx,
		`DELETE FROM schedule_cache WHERE cache_key LIKE ?`, cacheKeyPrefix+"%")
	if err != nil {
		return fmt.Errorf("purging cache: %w", err)
	}

	if err := r.SetPendingReload(ctx, true); err != nil {
		log.Printf("Failed to raise pending-reload flag: %v", err)
	}

	return nil
}

// PruneExpired deletes every stored entry whose week key does not
// correspond to an offset in [keepMin, keepMax] relative to today.
// Idempotent; intended to run opportunistically, not on every write.
func (r *CacheRepository) PruneExpired(ctx context.Context, keepMin, keepMax int) error {
	keep := make(map[string]bool)
	now := time.Now()
	for offset := keepMin; offset <= keepMax; offset++ {
		keep[cacheKeyPrefix+week.Identifier(now.AddDate(0, 0, offset*7))] = true
	}

	rows, err := r.DB().QueryContext(ctx,
		`SELECT cache_key FROM schedule_cache WHERE cache_key LIKE ?`, cacheKeyPrefix+"%")
	if err != nil {
		return fmt.Errorf("listing cache keys: %w", err)
	}
	defer rows.Close()

	var stale []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return fmt.Errorf("scanning cache key: %w", err)
		}
		if !keep[key] {
			stale = append(stale, key)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("listing cache keys: %w", err)
	}

	for _, key := range stale {
		if _, err := r.DB().ExecContext(ctx,
			`DELETE FROM schedule_cache WHERE cache_key = ?`, key); err != nil {
			return fmt.Errorf("deleting stale entry %s: %w", key, err)
		}
	}

	if len(stale) > 0 {
		log.Printf("Pruned %d stale cached weeks", len(stale))
	}

	return nil
}

// Stats reports the number of cached weeks and their total payload size.
type Stats struct {
	Entries    int   `json:"entries"`
	TotalBytes int64 `json:"total_bytes"`
}

// Stats returns cache occupancy information for the settings screen.
func (r *CacheRepository) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := r.DB().QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(LENGTH(payload)), 0)
		FROM schedule_cache WHERE cache_key LIKE ?
	`, cacheKeyPrefix+"%").Scan(&s.Entries, &s.TotalBytes)
	if err != nil {
		return Stats{}, fmt.Errorf("querying cache stats: %w", err)
	}
	return s, nil
}

// SetPendingReload records or clears the widget invalidation flag.
func (r *CacheRepository) SetPendingReload(ctx context.Context, pending bool) error {
	value := "0"
	if pending {
		value = "1"
	}
	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, pendingReloadKey, value)
	if err != nil {
		return fmt.Errorf("writing pending-reload flag: %w", err)
	}
	return nil
}

// PendingReload reports whether a reload is still owed to polling surfaces.
func (r *CacheRepository) PendingReload(ctx context.Context) bool {
	var value string
	err := r.DB().QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, pendingReloadKey).Scan(&value)
	if err != nil {
		return false
	}
	return value == "1"
}
