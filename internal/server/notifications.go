package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/notify"
	"github.com/nhle/taskboard/internal/store"
)

// handleCron is the external scheduler's entry point. The caller picks
// which triggers fire via the mode query parameter.
func (s *Server) handleCron(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("mode")
	if mode == "" {
		mode = notify.ModeBoth
	}

	sent, err := s.engine.Run(r.Context(), mode)
	if err != nil {
		if errors.Is(err, notify.ErrBadMode) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.log.Error().Err(err).Str("mode", mode).Msg("cron invocation failed")
		writeError(w, http.StatusInternalServerError, "notification run failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sent": sent})
}

func (s *Server) handleTestNotification(w http.ResponseWriter, r *http.Request) {
	delivered, err := s.engine.SendTest(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if delivered == nil {
		delivered = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"destinations": delivered})
}

func (s *Server) handleNotificationLogs(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	logs, err := s.st.GetNotificationLogs(r.Context(), limit)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if logs == nil {
		logs = []model.NotificationLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}

type templateBody struct {
	Key      string `json:"key"`
	Markdown string `json:"markdown"`
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	tmpl, err := s.st.GetTemplate(r.Context(), key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// No override stored yet: empty markdown, not a 404.
			writeJSON(w, http.StatusOK, templateBody{Key: key, Markdown: ""})
			return
		}
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, templateBody{Key: tmpl.Key, Markdown: tmpl.Markdown})
}

func (s *Server) handlePatchTemplate(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	var req struct {
		Markdown string `json:"markdown"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Markdown) == "" {
		writeError(w, http.StatusBadRequest, "markdown is required")
		return
	}

	if err := s.st.UpsertTemplate(r.Context(), key, req.Markdown); err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}
