package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/taskboard/internal/model"
)

// CreateAttachment records an uploaded file against a task.
func (s *SQLiteStore) CreateAttachment(ctx context.Context, a model.Attachment) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	a.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attachments (id, task_id, filename, url, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.TaskID, a.Filename, a.URL, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating attachment: %w", classifyConstraint(err))
	}
	return nil
}

// GetAttachments returns a task's attachments, oldest first.
func (s *SQLiteStore) GetAttachments(ctx context.Context, taskID string) ([]model.Attachment, error) {
	var attachments []model.Attachment
	err := s.db.SelectContext(ctx, &attachments,
		"SELECT * FROM attachments WHERE task_id = ? ORDER BY created_at", taskID)
	if err != nil {
		return nil, fmt.Errorf("querying attachments: %w", err)
	}
	return attachments, nil
}
