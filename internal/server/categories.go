package server

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/nhle/taskboard/internal/model"
)

type nameCreateRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var body nameCreateRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(body.Name) == "" {
		writeError(w, http.StatusBadRequest, "category name cannot be empty")
		return
	}

	c := model.Category{ID: uuid.New().String(), Name: strings.TrimSpace(body.Name)}
	if err := s.st.CreateCategory(r.Context(), c); err != nil {
		s.writeStoreError(w, err)
		return
	}

	created, err := s.st.GetCategoryByID(r.Context(), c.ID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, created)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.st.GetCategories(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if categories == nil {
		categories = []model.Category{}
	}
	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) handleTasksByCategory(w http.ResponseWriter, r *http.Request) {
	showCompleted := true
	if v := r.URL.Query().Get("show_completed"); v != "" {
		showCompleted = parseBool(v)
	}

	tasks, err := s.st.GetTasksByCategory(r.Context(), r.PathValue("id"), showCompleted)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, taskList(tasks))
}
