// Package settings holds the process-wide snapshot of the DB-backed
// runtime settings row. The snapshot is an immutable value; Reload
// constructs a fresh one and swaps the reference, so a stale read is
// at worst one whole snapshot behind, never a half-written struct.
package settings

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/store"
)

// Snapshot is a point-in-time copy of the settings row.
type Snapshot struct {
	Timezone             string
	Theme                string
	NotificationsEnabled bool
	NearDueHours         int
	SchedulerIntervalSec int
	Destinations         []string

	// Location is the parsed Timezone, UTC if the name is invalid.
	Location *time.Location
}

// Cache serves the current Snapshot to any component that needs
// runtime settings. Callers must Reload after mutating the row.
type Cache struct {
	st store.Store

	mu   sync.RWMutex
	snap Snapshot
}

// NewCache returns a cache backed by st holding default settings until
// the first Reload.
func NewCache(st store.Store) *Cache {
	return &Cache{st: st, snap: fromSettings(model.DefaultSettings())}
}

// Current returns the active snapshot.
func (c *Cache) Current() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// Reload reads the settings row and swaps in a new snapshot.
func (c *Cache) Reload(ctx context.Context) (Snapshot, error) {
	s, err := c.st.GetSettings(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("reloading settings: %w", err)
	}

	snap := fromSettings(s)
	c.mu.Lock()
	c.snap = snap
	c.mu.Unlock()
	return snap, nil
}

func fromSettings(s model.Settings) Snapshot {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil || loc == nil {
		loc = time.UTC
	}
	return Snapshot{
		Timezone:             s.Timezone,
		Theme:                s.Theme,
		NotificationsEnabled: s.NotificationsEnabled,
		NearDueHours:         s.NearDueHours,
		SchedulerIntervalSec: s.SchedulerIntervalSec,
		Destinations:         s.DestinationList(),
		Location:             loc,
	}
}
