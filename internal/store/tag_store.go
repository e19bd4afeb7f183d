package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/taskboard/internal/model"
)

// CreateTag inserts a new tag. Generates a UUID if ID is empty.
func (s *SQLiteStore) CreateTag(ctx context.Context, t model.Tag) error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("tag name must not be empty")
	}
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	t.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO tags (id, name, created_at) VALUES (?, ?, ?)",
		t.ID, t.Name, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating tag: %w", classifyConstraint(err))
	}
	return nil
}

// GetTags retrieves tags ordered by name, optionally filtered by a
// name substring.
func (s *SQLiteStore) GetTags(ctx context.Context, query string) ([]model.Tag, error) {
	stmt := "SELECT * FROM tags"
	var args []interface{}
	if query != "" {
		stmt += " WHERE name LIKE ?"
		args = append(args, "%"+query+"%")
	}
	stmt += " ORDER BY name"

	var tags []model.Tag
	if err := s.db.SelectContext(ctx, &tags, stmt, args...); err != nil {
		return nil, fmt.Errorf("querying tags: %w", err)
	}
	return tags, nil
}

// GetTagsByIDs retrieves the tags matching the given IDs. Missing IDs
// are simply absent from the result.
func (s *SQLiteStore) GetTagsByIDs(ctx context.Context, ids []string) ([]model.Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	stmt, args, err := sqlxIn("SELECT * FROM tags WHERE id IN (?) ORDER BY name", ids)
	if err != nil {
		return nil, err
	}

	var tags []model.Tag
	if err := s.db.SelectContext(ctx, &tags, stmt, args...); err != nil {
		return nil, fmt.Errorf("querying tags by ids: %w", err)
	}
	return tags, nil
}

// GetTasksByTag returns the tasks carrying a tag, optionally excluding
// completed ones.
func (s *SQLiteStore) GetTasksByTag(ctx context.Context, tagID string, showCompleted bool) ([]model.Task, error) {
	stmt := `
		SELECT tasks.* FROM tasks
		INNER JOIN task_tags ON task_tags.task_id = tasks.id
		WHERE task_tags.tag_id = ?`
	args := []interface{}{tagID}
	if !showCompleted {
		stmt += " AND tasks.status != ?"
		args = append(args, model.TaskStatusCompleted)
	}
	stmt += " ORDER BY tasks.due_at IS NULL, tasks.due_at ASC"

	rows, err := s.db.QueryxContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tasks by tag: %w", err)
	}
	defer rows.Close()

	return collectTasks(rows)
}
