package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/store"
)

type taskCreateRequest struct {
	Title       string   `json:"title"`
	Description *string  `json:"description"`
	DueAt       *string  `json:"due_at"`
	CategoryID  *string  `json:"category_id"`
	TagIDs      []string `json:"tag_ids"`
}

type taskPatchDescription struct {
	Description *string `json:"description"`
}

type taskPatchDue struct {
	DueAt *string `json:"due_at"`
}

type taskAddTags struct {
	TagIDs []string `json:"tag_ids"`
}

// naiveLayouts are accepted for due timestamps without an explicit
// offset; they are interpreted in the configured settings timezone.
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// parseDueAt parses an optional due timestamp. RFC3339 values keep
// their explicit offset; offset-free values are placed in loc.
func (s *Server) parseDueAt(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	v := strings.TrimSpace(*raw)

	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}
	loc := s.cache.Current().Location
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, v, loc); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid due timestamp %q", v)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var body taskCreateRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	title := strings.TrimSpace(body.Title)
	if title == "" {
		writeError(w, http.StatusBadRequest, "task title cannot be empty")
		return
	}
	if len(title) > model.MaxTitleLength {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("task title too long (max %d characters)", model.MaxTitleLength))
		return
	}

	ctx := r.Context()

	if body.CategoryID != nil {
		if _, err := s.st.GetCategoryByID(ctx, *body.CategoryID); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("category %s does not exist", *body.CategoryID))
			return
		}
	}
	if len(body.TagIDs) > 0 {
		tags, err := s.st.GetTagsByIDs(ctx, body.TagIDs)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		found := make(map[string]bool, len(tags))
		for _, t := range tags {
			found[t.ID] = true
		}
		var missing []string
		for _, id := range body.TagIDs {
			if !found[id] {
				missing = append(missing, id)
			}
		}
		if len(missing) > 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("tags do not exist: %s", strings.Join(missing, ", ")))
			return
		}
	}

	dueAt, err := s.parseDueAt(body.DueAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var description *string
	if body.Description != nil {
		d := strings.TrimSpace(*body.Description)
		if d != "" {
			description = &d
		}
	}

	task := model.Task{
		ID:          uuid.New().String(),
		Title:       title,
		Description: description,
		DueAt:       dueAt,
		CategoryID:  body.CategoryID,
		TagIDs:      body.TagIDs,
	}
	if err := s.st.CreateTask(ctx, task); err != nil {
		s.writeStoreError(w, err)
		return
	}

	created, err := s.st.GetTaskByID(ctx, task.ID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, created)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := store.TaskFilter{Now: time.Now()}
	if v := q.Get("q"); v != "" {
		filter.Query = &v
	}
	if v := q.Get("tag"); v != "" {
		filter.TagID = &v
	}
	if v := q.Get("category"); v != "" {
		filter.CategoryID = &v
	}
	if v := q.Get("status"); v != "" {
		if v != model.TaskStatusPending && v != model.TaskStatusCompleted {
			writeError(w, http.StatusBadRequest, "status must be pending or completed")
			return
		}
		filter.Status = &v
	}
	filter.OverdueOnly = parseBool(q.Get("overdue_only"))

	tasks, err := s.st.GetTasks(r.Context(), filter)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, taskList(tasks))
}

func (s *Server) handleSearchTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}

	tasks, err := s.st.GetTasks(r.Context(), store.TaskFilter{Query: &q})
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, taskList(tasks))
}

func (s *Server) handleNextTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	now := time.Now()

	hours := 48
	if v := q.Get("days"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil || d < 0 {
			writeError(w, http.StatusBadRequest, "days must be a non-negative integer")
			return
		}
		hours = d * 24
	} else if v := q.Get("hours"); v != "" {
		h, err := strconv.Atoi(v)
		if err != nil || h < 0 {
			writeError(w, http.StatusBadRequest, "hours must be a non-negative integer")
			return
		}
		hours = h
	}

	horizon := now.Add(time.Duration(hours) * time.Hour)
	tasks, err := s.st.ListDueBetween(r.Context(), time.Unix(0, 0), horizon)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, taskList(tasks))
}

func (s *Server) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.st.SetTaskStatus(r.Context(), id, model.TaskStatusCompleted); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.respondTask(w, r, id)
}

func (s *Server) handlePatchDescription(w http.ResponseWriter, r *http.Request) {
	var body taskPatchDescription
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id := r.PathValue("id")
	if err := s.st.SetTaskDescription(r.Context(), id, body.Description); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.respondTask(w, r, id)
}

func (s *Server) handlePatchDue(w http.ResponseWriter, r *http.Request) {
	var body taskPatchDue
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	dueAt, err := s.parseDueAt(body.DueAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := r.PathValue("id")
	if err := s.st.SetTaskDue(r.Context(), id, dueAt); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.respondTask(w, r, id)
}

func (s *Server) handleAddTags(w http.ResponseWriter, r *http.Request) {
	var body taskAddTags
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tagIDs, err := s.st.AddTaskTags(r.Context(), r.PathValue("id"), body.TagIDs)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "tag_ids": tagIDs})
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.st.DeleteTask(r.Context(), r.PathValue("id")); err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "message": "task deleted"})
}

func (s *Server) respondTask(w http.ResponseWriter, r *http.Request, id string) {
	task, err := s.st.GetTaskByID(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// taskList keeps empty results as [] rather than null.
func taskList(tasks []model.Task) []model.Task {
	if tasks == nil {
		return []model.Task{}
	}
	return tasks
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}
