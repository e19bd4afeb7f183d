package server

import (
	"context"
	"net/http"

	"github.com/nhle/taskboard/internal/store"
)

func (s *Server) handleCategorySummary(w http.ResponseWriter, r *http.Request) {
	s.respondSummary(w, r, s.st.CategorySummary)
}

func (s *Server) handleStatusSummary(w http.ResponseWriter, r *http.Request) {
	s.respondSummary(w, r, s.st.StatusSummary)
}

func (s *Server) handleTagSummary(w http.ResponseWriter, r *http.Request) {
	s.respondSummary(w, r, s.st.TagSummary)
}

func (s *Server) respondSummary(w http.ResponseWriter, r *http.Request, query func(ctx context.Context) ([]store.CountItem, error)) {
	items, err := query(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if items == nil {
		items = []store.CountItem{}
	}
	writeJSON(w, http.StatusOK, items)
}
