package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/taskboard/internal/model"
)

func (s *Server) handleCreateTag(w http.ResponseWriter, r *http.Request) {
	var body nameCreateRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(body.Name) == "" {
		writeError(w, http.StatusBadRequest, "tag name cannot be empty")
		return
	}

	t := model.Tag{ID: uuid.New().String(), Name: strings.TrimSpace(body.Name), CreatedAt: time.Now().UTC()}
	if err := s.st.CreateTag(r.Context(), t); err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.st.GetTags(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if tags == nil {
		tags = []model.Tag{}
	}
	writeJSON(w, http.StatusOK, tags)
}

func (s *Server) handleTasksByTag(w http.ResponseWriter, r *http.Request) {
	showCompleted := true
	if v := r.URL.Query().Get("show_completed"); v != "" {
		showCompleted = parseBool(v)
	}

	tasks, err := s.st.GetTasksByTag(r.Context(), r.PathValue("id"), showCompleted)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, taskList(tasks))
}
