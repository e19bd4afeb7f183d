package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nhle/taskboard/internal/store"
)

// errorBody is the JSON error envelope: {"detail": "..."}.
type errorBody struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorBody{Detail: detail})
}

// writeStoreError maps store failures onto the HTTP status taxonomy:
// missing record 404, uniqueness conflict 409, dangling reference 400,
// anything else 500 with a generic message.
func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, "this record already exists")
	case errors.Is(err, store.ErrBadRef):
		writeError(w, http.StatusBadRequest, "referenced record does not exist")
	default:
		s.log.Error().Err(err).Msg("store operation failed")
		writeError(w, http.StatusInternalServerError, "database operation failed")
	}
}

// decodeJSON reads a request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
