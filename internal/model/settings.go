package model

import "strings"

// SettingsID is the primary key of the single app_settings row.
const SettingsID = "default"

// Settings is the single global row of runtime tunables. It is read
// through the settings cache; mutations go through the store followed
// by an explicit cache reload.
type Settings struct {
	ID                   string `json:"-" db:"id"`
	Timezone             string `json:"timezone" db:"timezone"`
	Theme                string `json:"theme" db:"theme"`
	NotificationsEnabled bool   `json:"notifications_enabled" db:"notifications_enabled"`
	NearDueHours         int    `json:"near_due_hours" db:"near_due_hours"`

	// SchedulerIntervalSec is advisory: it is consumed by whatever
	// schedules cron invocations, not by the trigger engine.
	SchedulerIntervalSec int `json:"scheduler_interval_sec" db:"scheduler_interval_sec"`

	// Destinations is a newline-delimited list of webhook URLs.
	Destinations string `json:"destinations" db:"destinations"`
}

// DefaultSettings returns the row created on first access.
func DefaultSettings() Settings {
	return Settings{
		ID:                   SettingsID,
		Timezone:             "UTC",
		Theme:                "light",
		NotificationsEnabled: true,
		NearDueHours:         24,
		SchedulerIntervalSec: 60,
		Destinations:         "",
	}
}

// DestinationList splits Destinations on newlines, trimming whitespace
// and dropping blank lines.
func (s Settings) DestinationList() []string {
	var out []string
	for _, line := range strings.Split(s.Destinations, "\n") {
		if d := strings.TrimSpace(line); d != "" {
			out = append(out, d)
		}
	}
	return out
}
