package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/taskboard/internal/model"
)

// CreateTask inserts a new task and its tag links in one transaction.
// Generates a UUID if ID is empty.
func (s *SQLiteStore) CreateTask(ctx context.Context, t model.Task) error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("task title must not be empty")
	}
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	if t.Status == "" {
		t.Status = model.TaskStatusPending
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tasks (id, title, description, status, due_at, category_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Description, t.Status, utcPtr(t.DueAt), t.CategoryID,
		t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating task: %w", classifyConstraint(err))
	}

	for _, tagID := range t.TagIDs {
		_, err = tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO task_tags (task_id, tag_id) VALUES (?, ?)",
			t.ID, tagID,
		)
		if err != nil {
			return fmt.Errorf("linking tag %s: %w", tagID, classifyConstraint(err))
		}
	}

	return tx.Commit()
}

// GetTaskByID retrieves a single task by ID, including its tag IDs.
func (s *SQLiteStore) GetTaskByID(ctx context.Context, id string) (*model.Task, error) {
	row := s.db.QueryRowxContext(ctx, "SELECT * FROM tasks WHERE id = ?", id)

	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("getting task %s: %w", id, err)
	}

	if err := s.loadTagIDs(ctx, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// GetTasks retrieves tasks matching the filter, ordered by due
// timestamp ascending with null due timestamps last.
func (s *SQLiteStore) GetTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	query, args := buildTaskQuery(filter)

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range tasks {
		if err := s.loadTagIDs(ctx, &tasks[i]); err != nil {
			return nil, err
		}
	}

	return tasks, nil
}

// DeleteTask removes a task by ID. Cascades to task_tags, attachments,
// and relationships; notification log rows keep a null task reference.
func (s *SQLiteStore) DeleteTask(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting task %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return nil
}

// SetTaskStatus updates a task's status.
func (s *SQLiteStore) SetTaskStatus(ctx context.Context, id, status string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?",
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating task %s status: %w", id, classifyConstraint(err))
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return nil
}

// SetTaskDescription replaces a task's description. A nil description
// clears it.
func (s *SQLiteStore) SetTaskDescription(ctx context.Context, id string, description *string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET description = ?, updated_at = ? WHERE id = ?",
		description, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating task %s description: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return nil
}

// SetTaskDue replaces a task's due timestamp. A nil due clears it.
func (s *SQLiteStore) SetTaskDue(ctx context.Context, id string, dueAt *time.Time) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET due_at = ?, updated_at = ? WHERE id = ?",
		utcPtr(dueAt), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating task %s due: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return nil
}

// AddTaskTags links the given tags to a task, ignoring links that
// already exist, and returns the full tag ID list afterwards.
func (s *SQLiteStore) AddTaskTags(ctx context.Context, id string, tagIDs []string) ([]string, error) {
	if _, err := s.GetTaskByID(ctx, id); err != nil {
		return nil, err
	}

	for _, tagID := range tagIDs {
		_, err := s.db.ExecContext(ctx,
			"INSERT OR IGNORE INTO task_tags (task_id, tag_id) VALUES (?, ?)",
			id, tagID,
		)
		if err != nil {
			return nil, fmt.Errorf("linking tag %s: %w", tagID, classifyConstraint(err))
		}
	}

	task := model.Task{ID: id}
	if err := s.loadTagIDs(ctx, &task); err != nil {
		return nil, err
	}
	return task.TagIDs, nil
}

// ListDueBetween returns pending tasks due in [from, to], ordered by
// due timestamp.
func (s *SQLiteStore) ListDueBetween(ctx context.Context, from, to time.Time) ([]model.Task, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT * FROM tasks
		WHERE status != ? AND due_at IS NOT NULL AND due_at >= ? AND due_at <= ?
		ORDER BY due_at ASC`,
		model.TaskStatusCompleted, from.UTC(), to.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("querying due tasks: %w", err)
	}
	defer rows.Close()

	return collectTasks(rows)
}

// ListOverdue returns pending tasks whose due timestamp is strictly in
// the past, ordered by due timestamp.
func (s *SQLiteStore) ListOverdue(ctx context.Context, now time.Time) ([]model.Task, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT * FROM tasks
		WHERE status != ? AND due_at IS NOT NULL AND due_at < ?
		ORDER BY due_at ASC`,
		model.TaskStatusCompleted, now.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("querying overdue tasks: %w", err)
	}
	defer rows.Close()

	return collectTasks(rows)
}

// loadTagIDs fills task.TagIDs from the task_tags join table.
func (s *SQLiteStore) loadTagIDs(ctx context.Context, task *model.Task) error {
	var ids []string
	err := s.db.SelectContext(ctx, &ids,
		"SELECT tag_id FROM task_tags WHERE task_id = ? ORDER BY tag_id", task.ID)
	if err != nil {
		return fmt.Errorf("loading tags for task %s: %w", task.ID, err)
	}
	task.TagIDs = ids
	return nil
}

// collectTasks drains a task result set.
func collectTasks(rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}) ([]model.Task, error) {
	var tasks []model.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// buildTaskQuery constructs the SQL query and args for a TaskFilter.
func buildTaskQuery(filter TaskFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	from := " FROM tasks"
	if filter.TagID != nil {
		from += " INNER JOIN task_tags ON tasks.id = task_tags.task_id"
		conditions = append(conditions, "task_tags.tag_id = ?")
		args = append(args, *filter.TagID)
	}

	if filter.Query != nil && *filter.Query != "" {
		conditions = append(conditions,
			"(LOWER(tasks.title) LIKE ? OR LOWER(tasks.description) LIKE ?)")
		q := "%" + strings.ToLower(*filter.Query) + "%"
		args = append(args, q, q)
	}
	if filter.CategoryID != nil {
		conditions = append(conditions, "tasks.category_id = ?")
		args = append(args, *filter.CategoryID)
	}
	if filter.Status != nil {
		conditions = append(conditions, "tasks.status = ?")
		args = append(args, *filter.Status)
	}
	if filter.OverdueOnly {
		now := filter.Now
		if now.IsZero() {
			now = time.Now()
		}
		conditions = append(conditions, "tasks.due_at IS NOT NULL AND tasks.due_at < ?")
		args = append(args, now.UTC())
	}

	query := "SELECT tasks.*" + from
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	if filter.TagID != nil {
		query += " GROUP BY tasks.id"
	}

	query += " ORDER BY tasks.due_at IS NULL, tasks.due_at ASC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	return query, args
}

// utcPtr normalizes an optional timestamp to UTC for storage.
func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
