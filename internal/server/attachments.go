package server

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/nhle/taskboard/internal/model"
)

// maxUploadSize bounds attachment uploads.
const maxUploadSize = 32 << 20 // 32 MiB

func (s *Server) handleUploadAttachment(w http.ResponseWriter, r *http.Request) {
	taskID := r.PathValue("id")
	if _, err := s.st.GetTaskByID(r.Context(), taskID); err != nil {
		s.writeStoreError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	// Basename only: strip any path components a client sends.
	safeName := filepath.Base(filepath.Clean(header.Filename))
	if safeName == "." || safeName == string(filepath.Separator) {
		writeError(w, http.StatusBadRequest, "invalid filename")
		return
	}

	if err := os.MkdirAll(s.cfg.UploadsDir, 0o755); err != nil {
		s.log.Error().Err(err).Msg("creating uploads dir failed")
		writeError(w, http.StatusInternalServerError, "storing attachment failed")
		return
	}

	target := filepath.Join(s.cfg.UploadsDir, safeName)
	out, err := os.Create(target)
	if err != nil {
		s.log.Error().Err(err).Str("path", target).Msg("creating attachment file failed")
		writeError(w, http.StatusInternalServerError, "storing attachment failed")
		return
	}
	defer out.Close()

	if _, err := io.Copy(out, file); err != nil {
		s.log.Error().Err(err).Str("path", target).Msg("writing attachment failed")
		writeError(w, http.StatusInternalServerError, "storing attachment failed")
		return
	}

	a := model.Attachment{
		ID:       uuid.New().String(),
		TaskID:   taskID,
		Filename: safeName,
		URL:      fmt.Sprintf("/static/%s", safeName),
	}
	if err := s.st.CreateAttachment(r.Context(), a); err != nil {
		s.writeStoreError(w, err)
		return
	}

	attachments, err := s.st.GetAttachments(r.Context(), taskID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	for _, stored := range attachments {
		if stored.ID == a.ID {
			writeJSON(w, http.StatusOK, stored)
			return
		}
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleListAttachments(w http.ResponseWriter, r *http.Request) {
	attachments, err := s.st.GetAttachments(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if attachments == nil {
		attachments = []model.Attachment{}
	}
	writeJSON(w, http.StatusOK, attachments)
}
