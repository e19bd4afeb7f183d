package server

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/nhle/taskboard/internal/model"
)

type relationshipCreateRequest struct {
	TaskID        string `json:"task_id"`
	RelatedTaskID string `json:"related_task_id"`
	RelType       string `json:"rel_type"`
}

func (s *Server) handleCreateRelationship(w http.ResponseWriter, r *http.Request) {
	var body relationshipCreateRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.TaskID == "" || body.RelatedTaskID == "" {
		writeError(w, http.StatusBadRequest, "task_id and related_task_id are required")
		return
	}
	switch body.RelType {
	case "", model.RelTypeGeneric, model.RelTypeDependency:
	default:
		writeError(w, http.StatusBadRequest, "rel_type must be generic or dependency")
		return
	}

	rel := model.Relationship{
		ID:            uuid.New().String(),
		TaskID:        body.TaskID,
		RelatedTaskID: body.RelatedTaskID,
		RelType:       body.RelType,
	}
	if err := s.st.CreateRelationship(r.Context(), rel); err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "id": rel.ID})
}

func (s *Server) handleListRelationships(w http.ResponseWriter, r *http.Request) {
	taskID := r.URL.Query().Get("task_id")
	if taskID == "" {
		writeError(w, http.StatusBadRequest, "query parameter task_id is required")
		return
	}

	rels, err := s.st.GetRelationships(r.Context(), taskID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if rels == nil {
		rels = []model.Relationship{}
	}
	writeJSON(w, http.StatusOK, rels)
}
