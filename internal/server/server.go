// Package server exposes the REST surface over net/http. Handlers do
// request parsing and validation, call the store or the notification
// engine, and translate errors onto HTTP statuses.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/nhle/taskboard/internal/notify"
	"github.com/nhle/taskboard/internal/settings"
	"github.com/nhle/taskboard/internal/store"
)

// Version is reported by the health endpoint.
const Version = "2.0.0"

// Config holds the server's construction parameters.
type Config struct {
	Addr       string
	UploadsDir string

	// RatePerSec <= 0 disables the API rate limiter.
	RatePerSec float64
	RateBurst  int
}

// Server is the HTTP front end.
type Server struct {
	cfg    Config
	st     store.Store
	cache  *settings.Cache
	engine *notify.Engine
	log    zerolog.Logger

	httpSrv *http.Server
}

// New builds the server and its routing table.
func New(cfg Config, st store.Store, cache *settings.Cache, engine *notify.Engine, log zerolog.Logger) *Server {
	s := &Server{cfg: cfg, st: st, cache: cache, engine: engine, log: log}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("POST /api/tasks", s.handleCreateTask)
	mux.HandleFunc("GET /api/tasks", s.handleListTasks)
	mux.HandleFunc("GET /api/tasks/all", s.handleListTasks)
	mux.HandleFunc("GET /api/tasks/search", s.handleSearchTasks)
	mux.HandleFunc("GET /api/tasks/next", s.handleNextTasks)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.handleDeleteTask)
	mux.HandleFunc("POST /api/tasks/{id}/complete", s.handleCompleteTask)
	mux.HandleFunc("PATCH /api/tasks/{id}/description", s.handlePatchDescription)
	mux.HandleFunc("PATCH /api/tasks/{id}/due", s.handlePatchDue)
	mux.HandleFunc("POST /api/tasks/{id}/tags", s.handleAddTags)
	mux.HandleFunc("POST /api/tasks/{id}/attachments", s.handleUploadAttachment)
	mux.HandleFunc("GET /api/tasks/{id}/attachments", s.handleListAttachments)

	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)
	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("GET /api/categories/{id}/tasks", s.handleTasksByCategory)

	mux.HandleFunc("POST /api/tags", s.handleCreateTag)
	mux.HandleFunc("GET /api/tags", s.handleListTags)
	mux.HandleFunc("GET /api/tags/{id}/tasks", s.handleTasksByTag)

	mux.HandleFunc("POST /api/relationships", s.handleCreateRelationship)
	mux.HandleFunc("GET /api/relationships", s.handleListRelationships)

	mux.HandleFunc("GET /api/views/categories-summary", s.handleCategorySummary)
	mux.HandleFunc("GET /api/views/status-summary", s.handleStatusSummary)
	mux.HandleFunc("GET /api/views/tags-summary", s.handleTagSummary)

	mux.HandleFunc("POST /api/notifications/cron", s.handleCron)
	mux.HandleFunc("POST /api/notifications/test", s.handleTestNotification)
	mux.HandleFunc("GET /api/notifications/logs", s.handleNotificationLogs)
	mux.HandleFunc("GET /api/notifications/templates/{key}", s.handleGetTemplate)
	mux.HandleFunc("PATCH /api/notifications/templates/{key}", s.handlePatchTemplate)

	mux.HandleFunc("GET /api/config", s.handleGetConfig)
	mux.HandleFunc("PATCH /api/config", s.handlePatchConfig)

	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.UploadsDir))))

	handler := s.withLogging(s.withRateLimit(mux))

	s.httpSrv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the full middleware-wrapped handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// Start runs the listener until Shutdown or failure.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.cfg.Addr).Msg("http server listening")
	err := s.httpSrv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "version": Version})
}
