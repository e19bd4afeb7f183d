package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nhle/taskboard/internal/model"
)

// settingsRow mirrors app_settings with the integer-backed bool.
type settingsRow struct {
	ID                   string `db:"id"`
	Timezone             string `db:"timezone"`
	Theme                string `db:"theme"`
	NotificationsEnabled int    `db:"notifications_enabled"`
	NearDueHours         int    `db:"near_due_hours"`
	SchedulerIntervalSec int    `db:"scheduler_interval_sec"`
	Destinations         string `db:"destinations"`
}

// GetSettings reads the global settings row, creating it with defaults
// on first access.
func (s *SQLiteStore) GetSettings(ctx context.Context) (model.Settings, error) {
	var row settingsRow
	err := s.db.GetContext(ctx, &row,
		"SELECT * FROM app_settings WHERE id = ?", model.SettingsID)
	if errors.Is(err, sql.ErrNoRows) {
		def := model.DefaultSettings()
		if err := s.insertSettings(ctx, def); err != nil {
			return model.Settings{}, err
		}
		return def, nil
	}
	if err != nil {
		return model.Settings{}, fmt.Errorf("getting settings: %w", err)
	}

	return model.Settings{
		ID:                   row.ID,
		Timezone:             row.Timezone,
		Theme:                row.Theme,
		NotificationsEnabled: row.NotificationsEnabled != 0,
		NearDueHours:         row.NearDueHours,
		SchedulerIntervalSec: row.SchedulerIntervalSec,
		Destinations:         row.Destinations,
	}, nil
}

// UpdateSettings overwrites the global settings row, creating it if
// missing.
func (s *SQLiteStore) UpdateSettings(ctx context.Context, settings model.Settings) error {
	settings.ID = model.SettingsID

	result, err := s.db.ExecContext(ctx, `
		UPDATE app_settings SET
			timezone = ?, theme = ?, notifications_enabled = ?,
			near_due_hours = ?, scheduler_interval_sec = ?, destinations = ?
		WHERE id = ?`,
		settings.Timezone, settings.Theme, boolToInt(settings.NotificationsEnabled),
		settings.NearDueHours, settings.SchedulerIntervalSec, settings.Destinations,
		settings.ID,
	)
	if err != nil {
		return fmt.Errorf("updating settings: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return s.insertSettings(ctx, settings)
	}
	return nil
}

func (s *SQLiteStore) insertSettings(ctx context.Context, settings model.Settings) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_settings (id, timezone, theme, notifications_enabled, near_due_hours, scheduler_interval_sec, destinations)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		model.SettingsID, settings.Timezone, settings.Theme,
		boolToInt(settings.NotificationsEnabled), settings.NearDueHours,
		settings.SchedulerIntervalSec, settings.Destinations,
	)
	if err != nil {
		return fmt.Errorf("inserting settings: %w", err)
	}
	return nil
}
