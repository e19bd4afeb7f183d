package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/taskboard/internal/model"
)

// AppendNotificationLogs writes all entries in one transaction. The
// table is append-only; there is no update or delete path.
func (s *SQLiteStore) AppendNotificationLogs(ctx context.Context, entries []model.NotificationLog) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO notification_logs (id, task_id, kind, destination, payload, sent_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing log insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if e.ID == "" {
			e.ID = uuid.New().String()
		}
		_, err = stmt.ExecContext(ctx,
			e.ID, e.TaskID, e.Kind, e.Destination, e.Payload, e.SentAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("appending notification log: %w", classifyConstraint(err))
		}
	}

	return tx.Commit()
}

// GetNotificationLogs returns the most recent entries, newest first.
func (s *SQLiteStore) GetNotificationLogs(ctx context.Context, limit int) ([]model.NotificationLog, error) {
	if limit <= 0 {
		limit = 50
	}

	var logs []model.NotificationLog
	err := s.db.SelectContext(ctx, &logs,
		"SELECT * FROM notification_logs ORDER BY sent_at DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("querying notification logs: %w", err)
	}
	return logs, nil
}

// NotifiedTaskIDsSince returns the task IDs with a log entry of the
// given kind at or after since. Entries whose task was deleted carry a
// null task reference and are skipped.
func (s *SQLiteStore) NotifiedTaskIDsSince(ctx context.Context, kind string, since time.Time) (map[string]bool, error) {
	var ids []string
	err := s.db.SelectContext(ctx, &ids, `
		SELECT DISTINCT task_id FROM notification_logs
		WHERE kind = ? AND sent_at >= ? AND task_id IS NOT NULL`,
		kind, since.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("querying notified task ids: %w", err)
	}

	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

// GetTemplate retrieves a notification template by key.
func (s *SQLiteStore) GetTemplate(ctx context.Context, key string) (*model.NotificationTemplate, error) {
	var t model.NotificationTemplate
	err := s.db.GetContext(ctx, &t, "SELECT * FROM notification_templates WHERE key = ?", key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("template %s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("getting template %s: %w", key, err)
	}
	return &t, nil
}

// GetOrCreateTemplate returns the stored body for key, persisting
// defaultBody first if no row exists. The read may write.
func (s *SQLiteStore) GetOrCreateTemplate(ctx context.Context, key, defaultBody string) (string, error) {
	t, err := s.GetTemplate(ctx, key)
	if err == nil {
		return t.Markdown, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return "", err
	}

	// ON CONFLICT keeps a concurrent first read from failing; whoever
	// loses the race reads the winner's row below.
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO notification_templates (id, key, markdown) VALUES (?, ?, ?)
		ON CONFLICT(key) DO NOTHING`,
		uuid.New().String(), key, defaultBody,
	)
	if err != nil {
		return "", fmt.Errorf("creating template %s: %w", key, err)
	}

	t, err = s.GetTemplate(ctx, key)
	if err != nil {
		return "", err
	}
	return t.Markdown, nil
}

// UpsertTemplate creates or overwrites a template body.
func (s *SQLiteStore) UpsertTemplate(ctx context.Context, key, markdown string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notification_templates (id, key, markdown) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET markdown = excluded.markdown`,
		uuid.New().String(), key, markdown,
	)
	if err != nil {
		return fmt.Errorf("upserting template %s: %w", key, err)
	}
	return nil
}
