package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/nice-timetable/backend/internal/storage/models"
)

// Settings keys. School identity is written only by the settings API
// (onboarding); the schedule core reads it to parametrize fetches.
const (
	keySchoolType    = "schoolType"
	keyOfficeCode    = "officeCode"
	keySchoolName    = "schoolName"
	keySchoolCode    = "schoolCode"
	keyGrade         = "grade"
	keyClassName     = "className"
	keySubjectAlias  = "subjectAliases"
	keyDaySwitchTime = "daySwitchTime"
)

// SettingsRepository provides access to user preferences in the shared
// settings table: school identity, subject aliases, and the day-switch time.
type SettingsRepository struct {
	BaseRepository
}

// NewSettingsRepository creates a new settings repository.
func NewSettingsRepository(db *DB) *SettingsRepository {
	return &SettingsRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

func (r *SettingsRepository) get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.DB().QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading setting %s: %w", key, err)
	}
	return value, nil
}

func (r *SettingsRepository) set(ctx context.Context, key, value string) error {
	return setIn(ctx, r.DB(), key, value)
}

func setIn(ctx context.Context, q Queryable, key, value string) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, value)
	if err != nil {
		return fmt.Errorf("writing setting %s: %w", key, err)
	}
	return nil
}

// SchoolIdentity returns the configured school identity. Fields that were
// never set come back empty; callers use Complete() to decide whether the
// identity is usable.
func (r *SettingsRepository) SchoolIdentity(ctx context.Context) (models.SchoolIdentity, error) {
	var identity models.SchoolIdentity
	var err error

	if identity.SchoolType, err = r.get(ctx, keySchoolType); err != nil {
		return identity, err
	}
	if identity.OfficeCode, err = r.get(ctx, keyOfficeCode); err != nil {
		return identity, err
	}
	if identity.SchoolCode, err = r.get(ctx, keySchoolCode); err != nil {
		return identity, err
	}
	if identity.Grade, err = r.get(ctx, keyGrade); err != nil {
		return identity, err
	}
	if identity.ClassName, err = r.get(ctx, keyClassName); err != nil {
		return identity, err
	}

	return identity, nil
}

// SetSchoolIdentity stores the school identity chosen during onboarding.
// All fields are written in one transaction so a reader never sees a
// half-replaced identity.
func (r *SettingsRepository) SetSchoolIdentity(ctx context.Context, identity models.SchoolIdentity, schoolName string) error {
	pairs := map[string]string{
		keySchoolType: identity.SchoolType,
		keyOfficeCode: identity.OfficeCode,
		keySchoolCode: identity.SchoolCode,
		keyGrade:      identity.Grade,
		keyClassName:  identity.ClassName,
		keySchoolName: schoolName,
	}
	return r.Transaction(func(tx *sql.Tx) error {
		for key, value := range pairs {
			if err := setIn(ctx, tx, key, value); err != nil {
				return err
			}
		}
		return nil
	})
}

// SchoolName returns the stored display name of the configured school.
func (r *SettingsRepository) SchoolName(ctx context.Context) (string, error) {
	return r.get(ctx, keySchoolName)
}

// Aliases returns the subject alias map, or an empty map if none is stored
// or the stored blob is unreadable.
func (r *SettingsRepository) Aliases(ctx context.Context) (map[string]models.AliasPair, error) {
	raw, err := r.get(ctx, keySubjectAlias)
	if err != nil {
		return nil, err
	}
	aliases := make(map[string]models.AliasPair)
	if raw == "" {
		return aliases, nil
	}
	if err := json.Unmarshal([]byte(raw), &aliases); err != nil {
		// Unreadable aliases are not fatal; the raw subject names still render.
		return make(map[string]models.AliasPair), nil
	}
	return aliases, nil
}

// SetAlias stores the alias pair for one subject. An alias with both parts
// empty removes the entry.
func (r *SettingsRepository) SetAlias(ctx context.Context, subject string, pair models.AliasPair) error {
	aliases, err := r.Aliases(ctx)
	if err != nil {
		return err
	}

	if pair.Normal == "" && pair.Compact == "" {
		delete(aliases, subject)
	} else {
		aliases[subject] = pair
	}

	raw, err := json.Marshal(aliases)
	if err != nil {
		return fmt.Errorf("encoding aliases: %w", err)
	}
	return r.set(ctx, keySubjectAlias, string(raw))
}

// DaySwitchTime returns the configured boundary time as "HH:MM".
// Empty means the boundary is plain midnight.
func (r *SettingsRepository) DaySwitchTime(ctx context.Context) (string, error) {
	return r.get(ctx, keyDaySwitchTime)
}

// SetDaySwitchTime stores the boundary time-of-day ("HH:MM", or "" to
// fall back to midnight).
func (r *SettingsRepository) SetDaySwitchTime(ctx context.Context, value string) error {
	return r.set(ctx, keyDaySwitchTime, value)
}
