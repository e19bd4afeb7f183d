package server

import (
	"net/http"
	"strings"
	"time"
)

// configPatchRequest carries a partial settings update: nil fields are
// left untouched.
type configPatchRequest struct {
	Timezone             *string `json:"timezone"`
	Theme                *string `json:"theme"`
	NotificationsEnabled *bool   `json:"notifications_enabled"`
	NearDueHours         *int    `json:"near_due_hours"`
	SchedulerIntervalSec *int    `json:"scheduler_interval_sec"`
	Destinations         *string `json:"destinations"`
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	current, err := s.st.GetSettings(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, current)
}

func (s *Server) handlePatchConfig(w http.ResponseWriter, r *http.Request) {
	var req configPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	current, err := s.st.GetSettings(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	if req.Timezone != nil {
		tz := strings.TrimSpace(*req.Timezone)
		if _, err := time.LoadLocation(tz); err != nil {
			writeError(w, http.StatusBadRequest, "unknown timezone")
			return
		}
		current.Timezone = tz
	}
	if req.Theme != nil {
		current.Theme = *req.Theme
	}
	if req.NotificationsEnabled != nil {
		current.NotificationsEnabled = *req.NotificationsEnabled
	}
	if req.NearDueHours != nil {
		if *req.NearDueHours <= 0 {
			writeError(w, http.StatusBadRequest, "near_due_hours must be positive")
			return
		}
		current.NearDueHours = *req.NearDueHours
	}
	if req.SchedulerIntervalSec != nil {
		if *req.SchedulerIntervalSec <= 0 {
			writeError(w, http.StatusBadRequest, "scheduler_interval_sec must be positive")
			return
		}
		current.SchedulerIntervalSec = *req.SchedulerIntervalSec
	}
	if req.Destinations != nil {
		current.Destinations = *req.Destinations
	}

	if err := s.st.UpdateSettings(r.Context(), current); err != nil {
		s.writeStoreError(w, err)
		return
	}

	// Settings take effect process-wide only through the cache.
	if _, err := s.cache.Reload(r.Context()); err != nil {
		s.log.Error().Err(err).Msg("settings cache reload failed")
		writeError(w, http.StatusInternalServerError, "settings saved but reload failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "settings": current})
}
